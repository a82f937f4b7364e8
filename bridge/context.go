package bridge

import (
	"context"

	"github.com/wippyai/ctorbridge/behavior"
	"github.com/wippyai/ctorbridge/errors"
)

// Mode is how an initializer was reached.
type Mode uint8

const (
	ModeBridge   Mode = iota // construct against an existing object
	ModeAllocate             // allocation-based construction or super call
	ModeApply                // plain call of a legacy factory
)

func (m Mode) String() string {
	switch m {
	case ModeBridge:
		return "bridge"
	case ModeAllocate:
		return "allocate"
	case ModeApply:
		return "apply"
	default:
		return "unknown"
	}
}

// Context is the construction context of one initializer execution.
// It implements behavior.Call.
type Context struct {
	ctx     context.Context
	parent  *Context
	invoker *Invoker
	current *behavior.Record
	target  *behavior.Record
	this    *behavior.Object
	args    []any
	mode    Mode
}

var _ behavior.Call = (*Context)(nil)

func (c *Context) Context() context.Context { return c.ctx }
func (c *Context) This() *behavior.Object { return c.this }
func (c *Context) Current() *behavior.Record { return c.current }
func (c *Context) Target() *behavior.Record { return c.target }
func (c *Context) Args() []any { return c.args }
func (c *Context) Bridged() bool { return c.mode == ModeBridge }
func (c *Context) Mode() Mode { return c.mode }
func (c *Context) Parent() *Context { return c.parent }

// Arg returns argument i, or nil when absent.
func (c *Context) Arg(i int) any {
	if i < 0 || i >= len(c.args) {
		return nil
	}
	return c.args[i]
}

// Depth returns the number of enclosing contexts.
func (c *Context) Depth() int {
	n := 0
	for p := c.parent; p != nil; p = p.parent {
		n++
	}
	return n
}

// Super initializes the current record's base on the same object.
// A bridgeable record bridges into its base; a pure record performs an
// allocation-based super call, which does not require a bridgeable base.
func (c *Context) Super(args ...any) error {
	base := c.current.Parent()
	if base == nil {
		return errors.NoBase(c.current.Name())
	}

	if c.current.Bridgeable() {
		_, err := c.invoker.bridge(c.ctx, c, base.Name(), c.this, args)
		return err
	}

	entry, err := c.invoker.usable(base.Name())
	if err != nil {
		return err
	}
	return c.invoker.run(c.ctx, c, ModeAllocate, entry.Record(), c.target, c.this, args)
}

// Apply runs a legacy constructible's initializer on the same object,
// keeping the current dispatch target.
func (c *Context) Apply(name string, args ...any) error {
	entry, err := c.invoker.usable(name)
	if err != nil {
		return err
	}
	rec := entry.Record()
	if rec.Style() != behavior.Legacy {
		return errors.NotCallable(name)
	}
	return c.invoker.run(c.ctx, c, ModeApply, rec, c.target, c.this, args)
}

// Construct bridges name into this.
func (c *Context) Construct(name string, this any, args ...any) (*behavior.Object, error) {
	return c.invoker.bridge(c.ctx, c, name, this, args)
}

// New constructs a fresh object through the allocation path.
func (c *Context) New(name string, args ...any) (*behavior.Object, error) {
	return c.invoker.defaultConstruct(c.ctx, c, name, args, "")
}

// Dispatch resolves method along the target's chain and calls it on this.
func (c *Context) Dispatch(method string, args ...any) (any, error) {
	m, _, ok := c.target.Resolve(method)
	if !ok {
		return nil, errors.New(errors.PhaseInvoke, errors.KindNotFound).
			Constructible(c.target.Name()).
			Path(c.target.ChainNames()...).
			Detail("method %q not found", method).
			Build()
	}
	return m(c.this, args...)
}
