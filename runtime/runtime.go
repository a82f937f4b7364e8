package runtime

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/wippyai/ctorbridge/behavior"
	"github.com/wippyai/ctorbridge/bridge"
	"github.com/wippyai/ctorbridge/errors"
	"github.com/wippyai/ctorbridge/heap"
	"github.com/wippyai/ctorbridge/registry"
	"github.com/wippyai/ctorbridge/wasmhost"
)

// Option configures a Runtime.
type Option func(*options)

type options struct {
	allocator      bridge.Allocator
	tracerProvider trace.TracerProvider
	policy         registry.Policy
	wasm           *wasmhost.Config
}

// WithAllocator replaces the default heap allocator. Objects from a custom
// allocator are not retained by the runtime.
func WithAllocator(a bridge.Allocator) Option {
	return func(o *options) { o.allocator = a }
}

// WithTracerProvider sets the provider for construction spans.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(o *options) { o.tracerProvider = tp }
}

// WithPolicy replaces the chain validation policy.
func WithPolicy(p registry.Policy) Option {
	return func(o *options) { o.policy = p }
}

// WithWasmConfig configures the wasm host created for manifests with
// compiled initializers.
func WithWasmConfig(cfg *wasmhost.Config) Option {
	return func(o *options) { o.wasm = cfg }
}

// Runtime wires the registry, the heap and the invoker.
type Runtime struct {
	registry *registry.Registry
	heap     *heap.Heap
	invoker  *bridge.Invoker
	wasmCfg  *wasmhost.Config
	wasm     *wasmhost.Host
	wasmMu   sync.Mutex
}

// New creates a runtime.
//
// Unless WithAllocator is given, every object allocated by New, Call with a
// nil receiver or DefaultConstruct stays in the runtime's heap until the host
// calls Release or Close. Long-running hosts own that release.
func New(opts ...Option) *Runtime {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	h := heap.New()
	alloc := o.allocator
	if alloc == nil {
		alloc = h
	}

	bopts := bridge.DefaultOptions()
	if o.tracerProvider != nil {
		bopts.TracerProvider = o.tracerProvider
	}

	reg := registry.NewWithPolicy(o.policy)
	return &Runtime{
		registry: reg,
		heap:     h,
		invoker:  bridge.New(reg, alloc, bopts),
		wasmCfg:  o.wasm,
	}
}

// Declare registers a constructible. A declaration rejected by chain
// validation still yields a handle, returned together with the stored error.
func (r *Runtime) Declare(d registry.Declaration) (*Constructible, error) {
	e, err := r.registry.Register(d)
	if e == nil {
		return nil, err
	}
	return &Constructible{rt: r, entry: e}, err
}

// Lookup returns the handle for name.
func (r *Runtime) Lookup(name string) (*Constructible, error) {
	e, err := r.registry.Lookup(name)
	if err != nil {
		return nil, err
	}
	return &Constructible{rt: r, entry: e}, nil
}

// Constructibles returns handles in declaration order.
func (r *Runtime) Constructibles() []*Constructible {
	entries := r.registry.Entries()
	out := make([]*Constructible, len(entries))
	for i, e := range entries {
		out[i] = &Constructible{rt: r, entry: e}
	}
	return out
}

// Registry returns the underlying registry.
func (r *Runtime) Registry() *registry.Registry { return r.registry }

// Heap returns the default heap. It holds no objects when a custom
// allocator is configured.
func (r *Runtime) Heap() *heap.Heap { return r.heap }

// Release drops obj from the default heap so it can be collected. It reports
// whether the heap held obj; objects that were bridged into rather than
// allocated are never held.
func (r *Runtime) Release(obj *behavior.Object) bool {
	handle, ok := r.heap.HandleOf(obj)
	if !ok {
		return false
	}
	_, ok = r.heap.Release(handle)
	return ok
}

// Invoker returns the invoker constructions run through.
func (r *Runtime) Invoker() *bridge.Invoker { return r.invoker }

func (r *Runtime) wasmHost(ctx context.Context) (*wasmhost.Host, error) {
	r.wasmMu.Lock()
	defer r.wasmMu.Unlock()

	if r.wasm != nil {
		return r.wasm, nil
	}
	h, err := wasmhost.NewWithConfig(ctx, r.wasmCfg)
	if err != nil {
		return nil, err
	}
	r.wasm = h
	return h, nil
}

// Close releases the heap and the wasm host.
func (r *Runtime) Close(ctx context.Context) error {
	var errs []error
	if err := r.heap.Close(); err != nil {
		errs = append(errs, err)
	}

	r.wasmMu.Lock()
	defer r.wasmMu.Unlock()
	if r.wasm != nil {
		if err := r.wasm.Close(ctx); err != nil {
			Logger().Warn("failed to close wasm host", zap.Error(err))
			errs = append(errs, err)
		}
		r.wasm = nil
	}

	if len(errs) > 0 {
		return errors.Wrap(errors.PhaseHost, errors.KindInvalidData, errs[0], "close runtime")
	}
	return nil
}
