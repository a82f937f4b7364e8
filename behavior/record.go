package behavior

import (
	"sort"
	"weak"
)

// Style is the declaration style of a constructible.
type Style uint8

const (
	// Legacy is a factory function that may be called with or without construction.
	Legacy Style = iota
	// Modern is a class-like declaration that can only be constructed.
	Modern
)

func (s Style) String() string {
	switch s {
	case Legacy:
		return "legacy"
	case Modern:
		return "modern"
	default:
		return "unknown"
	}
}

// ParseStyle converts a style name. The empty string means Legacy.
func ParseStyle(s string) (Style, bool) {
	switch s {
	case "", "legacy":
		return Legacy, true
	case "modern":
		return Modern, true
	default:
		return 0, false
	}
}

// DefaultBridgeable reports the bridgeable default for a style:
// legacy factories are bridgeable, modern declarations are not.
func (s Style) DefaultBridgeable() bool {
	return s == Legacy
}

// Initializer is the body of a constructible.
type Initializer func(Call) error

// Method is an operation in a record's method table.
type Method func(this *Object, args ...any) (any, error)

// Config describes a record to create.
type Config struct {
	Init       Initializer
	Methods    map[string]Method
	Name       string
	Style      Style
	Bridgeable bool
}

// Record is the behavior record of one constructible.
// All fields are fixed at creation; a Record is safe for concurrent reads.
type Record struct {
	init       Initializer
	methods    map[string]Method
	parent     weak.Pointer[Record]
	name       string
	parentName string
	style      Style
	bridgeable bool
}

// NewRecord creates a record linked to parent, which may be nil for a root.
func NewRecord(cfg Config, parent *Record) *Record {
	r := &Record{
		init:       cfg.Init,
		name:       cfg.Name,
		style:      cfg.Style,
		bridgeable: cfg.Bridgeable,
	}
	if len(cfg.Methods) > 0 {
		r.methods = make(map[string]Method, len(cfg.Methods))
		for k, m := range cfg.Methods {
			r.methods[k] = m
		}
	}
	if parent != nil {
		r.parent = weak.Make(parent)
		r.parentName = parent.name
	}
	return r
}

// Name returns the constructible's identity.
func (r *Record) Name() string { return r.name }

// Style returns the declaration style.
func (r *Record) Style() Style { return r.style }

// Bridgeable reports whether the initializer may run against an existing instance.
func (r *Record) Bridgeable() bool { return r.bridgeable }

// Initializer returns the initializer, which may be nil.
func (r *Record) Initializer() Initializer { return r.init }

// BaseName returns the declared base name, empty for a root.
func (r *Record) BaseName() string { return r.parentName }

// Parent returns the base record, or nil for a root.
// A base that is no longer referenced anywhere else also yields nil.
func (r *Record) Parent() *Record {
	if r.parentName == "" {
		return nil
	}
	return r.parent.Value()
}

// Chain returns r followed by its bases, root last.
func (r *Record) Chain() []*Record {
	var chain []*Record
	for cur := r; cur != nil; cur = cur.Parent() {
		chain = append(chain, cur)
	}
	return chain
}

// ChainNames returns the names along Chain.
func (r *Record) ChainNames() []string {
	chain := r.Chain()
	names := make([]string, len(chain))
	for i, rec := range chain {
		names[i] = rec.name
	}
	return names
}

// Inherits reports whether base appears in r's chain, r included.
func (r *Record) Inherits(base *Record) bool {
	if base == nil {
		return false
	}
	for cur := r; cur != nil; cur = cur.Parent() {
		if cur == base {
			return true
		}
	}
	return false
}

// Resolve finds a method along the chain, most derived first.
// The record that supplied the method is returned with it.
func (r *Record) Resolve(name string) (Method, *Record, bool) {
	for cur := r; cur != nil; cur = cur.Parent() {
		if m, ok := cur.methods[name]; ok {
			return m, cur, true
		}
	}
	return nil, nil, false
}

// MethodNames returns the names of methods declared directly on r, sorted.
func (r *Record) MethodNames() []string {
	names := make([]string, 0, len(r.methods))
	for k := range r.methods {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}
