package runtime

import (
	"context"

	"github.com/wippyai/ctorbridge/behavior"
	"github.com/wippyai/ctorbridge/registry"
)

// Constructible is a handle to a registered constructible.
type Constructible struct {
	rt    *Runtime
	entry *registry.Entry
}

func (c *Constructible) Name() string { return c.entry.Name() }
func (c *Constructible) Record() *behavior.Record { return c.entry.Record() }
func (c *Constructible) State() registry.State { return c.entry.State() }
func (c *Constructible) Bridgeable() bool { return c.entry.Record().Bridgeable() }
func (c *Constructible) Style() behavior.Style { return c.entry.Record().Style() }

// Err returns the stored rejection error, nil unless rejected.
func (c *Constructible) Err() error { return c.entry.Err() }

// Construct runs the initializer against this and returns this.
func (c *Constructible) Construct(ctx context.Context, this any, args ...any) (*behavior.Object, error) {
	return c.rt.invoker.BridgeConstruct(ctx, c.Name(), this, args...)
}

// New allocates and constructs a fresh object. With the default allocator
// the object is retained until Runtime.Release or Runtime.Close.
func (c *Constructible) New(ctx context.Context, args ...any) (*behavior.Object, error) {
	return c.rt.invoker.New(ctx, c.Name(), args...)
}

// DefaultConstruct allocates an object dispatching through target and runs
// this constructible's initializer on it.
func (c *Constructible) DefaultConstruct(ctx context.Context, args []any, target string) (*behavior.Object, error) {
	return c.rt.invoker.DefaultConstruct(ctx, c.Name(), args, target)
}

// Call invokes a legacy constructible as a plain function.
func (c *Constructible) Call(ctx context.Context, this any, args ...any) (*behavior.Object, error) {
	return c.rt.invoker.Call(ctx, c.Name(), this, args...)
}
