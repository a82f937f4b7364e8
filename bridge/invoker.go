package bridge

import (
	"context"
	stderrors "errors"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/wippyai/ctorbridge/behavior"
	"github.com/wippyai/ctorbridge/errors"
	"github.com/wippyai/ctorbridge/registry"
)

const tracerName = "github.com/wippyai/ctorbridge/bridge"

// Allocator is the host's native allocation primitive.
// Allocate returns a fresh object for c whose terminal record is target.
type Allocator interface {
	Allocate(c, target *behavior.Record) (*behavior.Object, error)
}

// Options configures invoker behavior.
type Options struct {
	TracerProvider trace.TracerProvider
}

// DefaultOptions returns default invoker configuration.
func DefaultOptions() Options {
	return Options{
		TracerProvider: otel.GetTracerProvider(),
	}
}

// Invoker executes bridged, allocation-based and plain-call construction.
type Invoker struct {
	reg    *registry.Registry
	alloc  Allocator
	tracer trace.Tracer
}

// New creates an invoker over a registry and an allocator.
func New(reg *registry.Registry, alloc Allocator, opts Options) *Invoker {
	tp := opts.TracerProvider
	if tp == nil {
		tp = otel.GetTracerProvider()
	}
	return &Invoker{
		reg:    reg,
		alloc:  alloc,
		tracer: tp.Tracer(tracerName),
	}
}

// NewWithDefaults creates an invoker with default options.
func NewWithDefaults(reg *registry.Registry, alloc Allocator) *Invoker {
	return New(reg, alloc, DefaultOptions())
}

// Registry returns the registry the invoker resolves names against.
func (v *Invoker) Registry() *registry.Registry {
	return v.reg
}

// BridgeConstruct runs name's initializer against this and returns this.
//
// Preconditions are checked before anything is mutated: the constructible
// must be registered and not rejected, it must be bridgeable, this must be an
// object, and an allocated object must have name in its chain. On initializer
// failure the partially initialized object is returned with the error.
func (v *Invoker) BridgeConstruct(ctx context.Context, name string, this any, args ...any) (*behavior.Object, error) {
	return v.bridge(ctx, nil, name, this, args)
}

// DefaultConstruct allocates a fresh object whose terminal record is target
// and runs name's initializer on it. An empty target means name itself.
// On initializer failure the fresh object is returned with the error.
func (v *Invoker) DefaultConstruct(ctx context.Context, name string, args []any, target string) (*behavior.Object, error) {
	return v.defaultConstruct(ctx, nil, name, args, target)
}

// New is DefaultConstruct with name as its own target.
func (v *Invoker) New(ctx context.Context, name string, args ...any) (*behavior.Object, error) {
	return v.defaultConstruct(ctx, nil, name, args, "")
}

// Call invokes a legacy constructible as a plain function. With a nil this,
// the factory idiom applies and a fresh object is allocated; otherwise this is
// augmented in place and returned.
func (v *Invoker) Call(ctx context.Context, name string, this any, args ...any) (*behavior.Object, error) {
	entry, err := v.usable(name)
	if err != nil {
		return nil, err
	}
	rec := entry.Record()
	if rec.Style() != behavior.Legacy {
		return nil, errors.NotCallable(name)
	}

	if this == nil {
		return v.allocateAndRun(ctx, nil, rec, rec, args)
	}

	obj, ok := this.(*behavior.Object)
	if !ok || obj == nil {
		return nil, errors.NotAnObject(name, this)
	}
	return obj, v.run(ctx, nil, ModeApply, rec, dispatchTarget(nil, obj, rec), obj, args)
}

func (v *Invoker) usable(name string) (*registry.Entry, error) {
	entry, err := v.reg.Lookup(name)
	if err != nil {
		return nil, err
	}
	if err := entry.Usable(); err != nil {
		return nil, err
	}
	return entry, nil
}

func (v *Invoker) bridge(ctx context.Context, parent *Context, name string, this any, args []any) (*behavior.Object, error) {
	entry, err := v.usable(name)
	if err != nil {
		return nil, err
	}
	rec := entry.Record()

	if !rec.Bridgeable() {
		return nil, errors.NotBridgeable(name)
	}

	obj, ok := this.(*behavior.Object)
	if !ok || obj == nil {
		return nil, errors.NotAnObject(name, this)
	}

	if t := obj.Terminal(); t != nil && !t.Inherits(rec) {
		return nil, errors.InstanceMismatch(name, t.Name(), t.ChainNames())
	}

	obj.MarkBridged(name)
	if err := v.run(ctx, parent, ModeBridge, rec, dispatchTarget(parent, obj, rec), obj, args); err != nil {
		return obj, err
	}

	if entry.Activate() {
		Logger().Debug("constructible active", zap.String("name", name))
	}
	return obj, nil
}

func (v *Invoker) defaultConstruct(ctx context.Context, parent *Context, name string, args []any, targetName string) (*behavior.Object, error) {
	entry, err := v.usable(name)
	if err != nil {
		return nil, err
	}
	rec := entry.Record()

	target := rec
	if targetName != "" && targetName != name {
		te, err := v.usable(targetName)
		if err != nil {
			return nil, err
		}
		if !te.Record().Inherits(rec) {
			return nil, errors.InstanceMismatch(name, targetName, te.Record().ChainNames())
		}
		target = te.Record()
	}

	return v.allocateAndRun(ctx, parent, rec, target, args)
}

func (v *Invoker) allocateAndRun(ctx context.Context, parent *Context, rec, target *behavior.Record, args []any) (*behavior.Object, error) {
	obj, err := v.alloc.Allocate(rec, target)
	if err != nil {
		return nil, err
	}
	if err := v.run(ctx, parent, ModeAllocate, rec, target, obj, args); err != nil {
		return obj, err
	}
	return obj, nil
}

// dispatchTarget picks the target for running rec against obj.
func dispatchTarget(parent *Context, obj *behavior.Object, rec *behavior.Record) *behavior.Record {
	if t := obj.Terminal(); t != nil {
		return t
	}
	for p := parent; p != nil; p = p.parent {
		if p.this != obj {
			continue
		}
		if p.target.Inherits(rec) {
			return p.target
		}
		break
	}
	return rec
}

func (v *Invoker) run(ctx context.Context, parent *Context, mode Mode, rec, target *behavior.Record, obj *behavior.Object, args []any) (err error) {
	ctx, span := v.tracer.Start(ctx, "ctorbridge."+mode.String(),
		trace.WithAttributes(
			attribute.String("ctorbridge.constructible", rec.Name()),
			attribute.String("ctorbridge.target", target.Name()),
			attribute.String("ctorbridge.object", obj.ID().String()),
		))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	init := rec.Initializer()
	if init == nil {
		return nil
	}

	c := &Context{
		ctx:     ctx,
		parent:  parent,
		invoker: v,
		current: rec,
		target:  target,
		this:    obj,
		args:    args,
		mode:    mode,
	}

	Logger().Debug("run initializer",
		zap.String("constructible", rec.Name()),
		zap.String("target", target.Name()),
		zap.Stringer("mode", mode),
		zap.Int("depth", c.Depth()))

	return runInitializer(c, init)
}

func runInitializer(c *Context, init behavior.Initializer) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.Initializer(c.current.Name(), fmt.Errorf("panic: %v", r))
		}
	}()

	if err := init(c); err != nil {
		var structured *errors.Error
		if stderrors.As(err, &structured) {
			return err
		}
		return errors.Initializer(c.current.Name(), err)
	}
	return nil
}
