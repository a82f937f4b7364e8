package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/wippyai/ctorbridge/errors"
	"github.com/wippyai/ctorbridge/registry"
	"github.com/wippyai/ctorbridge/runtime"
)

var (
	nameStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#98FB98"))
	attrStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#87CEEB"))
	rejectedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B"))
	branchStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#666666"))
)

func newInspectCommand(root *rootOptions) *cobra.Command {
	var plain bool

	cmd := &cobra.Command{
		Use:   "inspect <manifest>",
		Short: "Print the constructible chains of a manifest",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			rt, _, err := root.load(ctx, args[0])
			if err != nil {
				return err
			}
			defer rt.Close(ctx)

			styled := !plain && term.IsTerminal(int(os.Stdout.Fd()))
			renderTree(cmd.OutOrStdout(), rt.Constructibles(), styled)
			return nil
		},
	}

	cmd.Flags().BoolVar(&plain, "plain", false, "disable colors")
	return cmd
}

type treePrinter struct {
	w        io.Writer
	children map[string][]*runtime.Constructible
	styled   bool
}

// renderTree prints constructibles as a forest rooted at the ones without a
// registered base, children in declaration order.
func renderTree(w io.Writer, cs []*runtime.Constructible, styled bool) {
	p := &treePrinter{w: w, children: make(map[string][]*runtime.Constructible), styled: styled}

	known := make(map[string]bool, len(cs))
	for _, c := range cs {
		known[c.Name()] = true
	}

	var roots []*runtime.Constructible
	for _, c := range cs {
		base := c.Record().BaseName()
		if base == "" || !known[base] {
			roots = append(roots, c)
			continue
		}
		p.children[base] = append(p.children[base], c)
	}

	for _, c := range roots {
		fmt.Fprintln(w, p.line(c))
		p.walk(c, "")
	}
}

func (p *treePrinter) walk(c *runtime.Constructible, indent string) {
	kids := p.children[c.Name()]
	for i, k := range kids {
		branch, next := "├── ", "│   "
		if i == len(kids)-1 {
			branch, next = "└── ", "    "
		}
		fmt.Fprintf(p.w, "%s%s%s\n", indent, p.render(branchStyle, branch), p.line(k))
		p.walk(k, indent+p.render(branchStyle, next))
	}
}

func (p *treePrinter) line(c *runtime.Constructible) string {
	bridging := "sealed"
	if c.Bridgeable() {
		bridging = "bridgeable"
	}

	var b strings.Builder
	b.WriteString(p.render(nameStyle, c.Name()))
	b.WriteString(" ")
	b.WriteString(p.render(attrStyle, fmt.Sprintf("(%s, %s)", c.Style(), bridging)))

	if methods := c.Record().MethodNames(); len(methods) > 0 {
		fmt.Fprintf(&b, " [%s]", strings.Join(methods, " "))
	}

	if c.State() == registry.StateRejected {
		b.WriteString(" ")
		b.WriteString(p.render(rejectedStyle, fmt.Sprintf("rejected: %s", errors.KindOf(c.Err()))))
	}
	return b.String()
}

func (p *treePrinter) render(s lipgloss.Style, text string) string {
	if !p.styled {
		return text
	}
	return s.Render(text)
}
