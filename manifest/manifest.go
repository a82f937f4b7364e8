// Package manifest reads declarations of constructibles and runs from YAML
// or CUE. Every manifest is checked against the embedded CUE schema.
package manifest

import (
	"fmt"

	"github.com/wippyai/ctorbridge/behavior"
	"github.com/wippyai/ctorbridge/errors"
)

// Manifest declares constructibles and the runs that exercise them.
type Manifest struct {
	// Lua is script source defining the functions named by Init and Methods.
	Lua string `json:"lua,omitempty" yaml:"lua,omitempty"`

	// Constructibles are registered in order; a base must precede its
	// derived constructibles.
	Constructibles []Constructible `json:"constructibles" yaml:"constructibles"`

	// Runs are construction calls with expected results.
	Runs []Run `json:"runs,omitempty" yaml:"runs,omitempty"`
}

// Constructible declares one constructible.
type Constructible struct {
	// Bridgeable overrides the style default when set.
	Bridgeable *bool `json:"bridgeable,omitempty" yaml:"bridgeable,omitempty"`

	// Methods maps method names to Lua function names.
	Methods map[string]string `json:"methods,omitempty" yaml:"methods,omitempty"`

	// Wasm backs the initializer with a module export instead of Lua.
	Wasm *Wasm `json:"wasm,omitempty" yaml:"wasm,omitempty"`

	Name string `json:"name" yaml:"name"`

	// Style is "legacy" (default) or "modern".
	Style string `json:"style,omitempty" yaml:"style,omitempty"`

	Base string `json:"base,omitempty" yaml:"base,omitempty"`

	// Init names the Lua function used as initializer.
	Init string `json:"init,omitempty" yaml:"init,omitempty"`
}

// Wasm references an initializer exported from a core wasm module.
type Wasm struct {
	// File is resolved relative to the manifest's directory.
	File string `json:"file" yaml:"file"`

	// Export defaults to "init".
	Export string `json:"export,omitempty" yaml:"export,omitempty"`

	// Fields names the object fields the module addresses by index.
	Fields []string `json:"fields,omitempty" yaml:"fields,omitempty"`
}

// ExportName returns Export or its default.
func (w *Wasm) ExportName() string {
	if w.Export == "" {
		return "init"
	}
	return w.Export
}

// Operations a run can perform.
const (
	OpConstruct = "construct"
	OpNew       = "new"
	OpCall      = "call"
)

// Run is one construction call and its expected outcome.
type Run struct {
	// This is the receiver for construct and call. Ignored when Fresh is set.
	This any `json:"this,omitempty" yaml:"this,omitempty"`

	// Expect lists field values the resulting object must hold.
	// Subset match: unlisted fields are not checked.
	Expect map[string]any `json:"expect,omitempty" yaml:"expect,omitempty"`

	Name string `json:"name" yaml:"name"`

	// Op is construct, new or call.
	Op string `json:"op" yaml:"op"`

	// Target is the constructible to invoke.
	Target string `json:"target" yaml:"target"`

	// Error is the expected error kind. Empty means the run must succeed.
	Error string `json:"error,omitempty" yaml:"error,omitempty"`

	Args []any `json:"args,omitempty" yaml:"args,omitempty"`

	// Fresh passes a new plain object as the receiver.
	Fresh bool `json:"fresh,omitempty" yaml:"fresh,omitempty"`
}

// StyleValue parses Style.
func (c *Constructible) StyleValue() (behavior.Style, error) {
	s, ok := behavior.ParseStyle(c.Style)
	if !ok {
		return 0, errors.InvalidData(errors.PhaseLoad, []string{"constructibles", c.Name, "style"},
			fmt.Sprintf("unknown style %q", c.Style))
	}
	return s, nil
}

// LuaFunctions returns every Lua function name the manifest references.
func (m *Manifest) LuaFunctions() []string {
	var names []string
	seen := map[string]bool{}
	add := func(n string) {
		if n != "" && !seen[n] {
			seen[n] = true
			names = append(names, n)
		}
	}
	for _, c := range m.Constructibles {
		add(c.Init)
		for _, fn := range c.Methods {
			add(fn)
		}
	}
	return names
}

// Validate checks what the schema cannot express.
func (m *Manifest) Validate() error {
	names := make(map[string]bool, len(m.Constructibles))
	for i, c := range m.Constructibles {
		path := []string{"constructibles", fmt.Sprintf("%d", i)}
		if c.Name == "" {
			return errors.InvalidData(errors.PhaseLoad, path, "name is required")
		}
		if names[c.Name] {
			return errors.InvalidData(errors.PhaseLoad, path, fmt.Sprintf("duplicate constructible %q", c.Name))
		}
		names[c.Name] = true

		if _, err := c.StyleValue(); err != nil {
			return err
		}
		if c.Init != "" && c.Wasm != nil {
			return errors.InvalidData(errors.PhaseLoad, path, "init and wasm are mutually exclusive")
		}
		if (c.Init != "" || len(c.Methods) > 0) && m.Lua == "" {
			return errors.InvalidData(errors.PhaseLoad, path, "lua functions referenced but no lua source given")
		}
		if c.Wasm != nil && c.Wasm.File == "" {
			return errors.InvalidData(errors.PhaseLoad, append(path, "wasm"), "file is required")
		}
	}

	runs := make(map[string]bool, len(m.Runs))
	for i, r := range m.Runs {
		path := []string{"runs", fmt.Sprintf("%d", i)}
		if r.Name == "" {
			return errors.InvalidData(errors.PhaseLoad, path, "name is required")
		}
		if runs[r.Name] {
			return errors.InvalidData(errors.PhaseLoad, path, fmt.Sprintf("duplicate run %q", r.Name))
		}
		runs[r.Name] = true

		switch r.Op {
		case OpConstruct, OpNew, OpCall:
		default:
			return errors.InvalidData(errors.PhaseLoad, path, fmt.Sprintf("unknown op %q", r.Op))
		}
		if r.Op == OpNew && (r.Fresh || r.This != nil) {
			return errors.InvalidData(errors.PhaseLoad, path, "new takes no receiver")
		}
		if r.Fresh && r.This != nil {
			return errors.InvalidData(errors.PhaseLoad, path, "fresh and this are mutually exclusive")
		}
		if r.Error != "" && len(r.Expect) > 0 {
			return errors.InvalidData(errors.PhaseLoad, path, "expect and error are mutually exclusive")
		}
	}
	return nil
}
