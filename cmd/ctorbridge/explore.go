package main

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/wippyai/ctorbridge/behavior"
	"github.com/wippyai/ctorbridge/runtime"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4"))

	resultStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#90EE90"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B"))
)

func newExploreCommand(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "explore <manifest>",
		Short: "Construct objects interactively",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			rt, _, err := root.load(ctx, args[0])
			if err != nil {
				return err
			}
			defer rt.Close(ctx)

			p := tea.NewProgram(newExploreModel(ctx, args[0], rt), tea.WithAltScreen())
			_, err = p.Run()
			return err
		},
	}
}

type keyMap struct {
	Up     key.Binding
	Down   key.Binding
	New    key.Binding
	Bridge key.Binding
	Submit key.Binding
	Back   key.Binding
	Quit   key.Binding
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.New, k.Bridge, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.ShortHelp(), {k.Submit, k.Back}}
}

var defaultKeys = keyMap{
	Up:     key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
	Down:   key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
	New:    key.NewBinding(key.WithKeys("enter", "n"), key.WithHelp("enter", "new")),
	Bridge: key.NewBinding(key.WithKeys("b"), key.WithHelp("b", "bridge fresh object")),
	Submit: key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "construct")),
	Back:   key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back")),
	Quit:   key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
}

type modelState int

const (
	stateSelect modelState = iota
	stateInputArgs
	stateShowResult
)

type exploreOp int

const (
	opNew exploreOp = iota
	opBridge
)

func (o exploreOp) String() string {
	if o == opBridge {
		return "construct"
	}
	return "new"
}

type exploreModel struct {
	ctx      context.Context
	err      error
	help     help.Model
	filename string
	result   string
	items    []*runtime.Constructible
	input    textinput.Model
	keys     keyMap
	selected int
	op       exploreOp
	state    modelState
}

type constructedMsg struct {
	obj *behavior.Object
	err error
}

func newExploreModel(ctx context.Context, filename string, rt *runtime.Runtime) *exploreModel {
	return &exploreModel{
		ctx:      ctx,
		help:     help.New(),
		filename: filename,
		items:    rt.Constructibles(),
		keys:     defaultKeys,
		state:    stateSelect,
	}
}

func (m *exploreModel) Init() tea.Cmd { return nil }

func (m *exploreModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		switch m.state {
		case stateSelect:
			return m.updateSelect(msg)
		case stateInputArgs:
			return m.updateInput(msg)
		case stateShowResult:
			switch {
			case key.Matches(msg, m.keys.Quit):
				return m, tea.Quit
			case key.Matches(msg, m.keys.Submit), key.Matches(msg, m.keys.Back):
				m.state = stateSelect
				m.result = ""
				m.err = nil
			}
		}

	case constructedMsg:
		m.err = msg.err
		m.result = describe(msg.obj)
		m.state = stateShowResult
	}
	return m, nil
}

func (m *exploreModel) updateSelect(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Up):
		if m.selected > 0 {
			m.selected--
		}
	case key.Matches(msg, m.keys.Down):
		if m.selected < len(m.items)-1 {
			m.selected++
		}
	case key.Matches(msg, m.keys.New):
		m.startInput(opNew)
	case key.Matches(msg, m.keys.Bridge):
		m.startInput(opBridge)
	}
	return m, nil
}

func (m *exploreModel) updateInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Submit):
		return m, m.construct
	case key.Matches(msg, m.keys.Back):
		m.state = stateSelect
		return m, nil
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *exploreModel) startInput(op exploreOp) {
	if len(m.items) == 0 {
		return
	}
	ti := textinput.New()
	ti.Prompt = "args: "
	ti.Placeholder = "1, two, {k: v}"
	ti.Width = 40
	ti.Focus()

	m.input = ti
	m.op = op
	m.state = stateInputArgs
}

// parseArgs reads a comma separated list in YAML flow syntax.
func parseArgs(s string) ([]any, error) {
	var raw []any
	if err := yaml.Unmarshal([]byte("["+s+"]"), &raw); err != nil {
		return nil, fmt.Errorf("arguments: %w", err)
	}
	args := make([]any, len(raw))
	for i, v := range raw {
		args[i] = toObject(v)
	}
	return args, nil
}

func toObject(v any) any {
	m, ok := v.(map[string]any)
	if !ok {
		return v
	}
	obj := behavior.NewObject()
	for _, k := range slices.Sorted(maps.Keys(m)) {
		obj.Set(k, toObject(m[k]))
	}
	return obj
}

func (m *exploreModel) construct() tea.Msg {
	args, err := parseArgs(m.input.Value())
	if err != nil {
		return constructedMsg{err: err}
	}

	c := m.items[m.selected]
	if m.op == opBridge {
		obj, err := c.Construct(m.ctx, behavior.NewObject(), args...)
		return constructedMsg{obj: obj, err: err}
	}
	obj, err := c.New(m.ctx, args...)
	return constructedMsg{obj: obj, err: err}
}

func describe(obj *behavior.Object) string {
	if obj == nil {
		return ""
	}
	var b strings.Builder
	b.WriteString(obj.String())
	if t := obj.Terminal(); t != nil {
		fmt.Fprintf(&b, "\nchain: %s", strings.Join(t.ChainNames(), " -> "))
	}
	if lb := obj.LastBridged(); lb != "" {
		fmt.Fprintf(&b, "\nlast bridged: %s", lb)
	}
	return b.String()
}

func (m *exploreModel) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("ctorbridge"))
	b.WriteString(" ")
	b.WriteString(m.filename)
	b.WriteString("\n\n")

	if len(m.items) == 0 {
		b.WriteString("No constructibles declared.\n")
		return b.String()
	}

	switch m.state {
	case stateSelect:
		for i, c := range m.items {
			line := fmt.Sprintf("%s (%s, %s)", c.Name(), c.Style(), c.State())
			if i == m.selected {
				b.WriteString(selectedStyle.Render("> " + line))
			} else {
				b.WriteString("  " + line)
			}
			b.WriteString("\n")
		}

	case stateInputArgs:
		fmt.Fprintf(&b, "%s %s\n\n", m.op, m.items[m.selected].Name())
		b.WriteString(m.input.View())
		b.WriteString("\n")

	case stateShowResult:
		fmt.Fprintf(&b, "%s %s\n\n", m.op, m.items[m.selected].Name())
		if m.result != "" {
			b.WriteString(resultStyle.Render(m.result))
			b.WriteString("\n")
		}
		if m.err != nil {
			b.WriteString(errorStyle.Render(fmt.Sprintf("Error: %v", m.err)))
			b.WriteString("\n")
		}
	}

	b.WriteString("\n")
	b.WriteString(m.help.View(m.keys))
	return b.String()
}
