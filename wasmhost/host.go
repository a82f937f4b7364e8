// Package wasmhost runs initializers exported from core WebAssembly modules.
//
// Guests import host functions from the "env" module:
//
//	set_i64(field i32, v i64)
//	set_f64(field i32, v f64)
//	get_i64(field i32) i64
//	get_f64(field i32) f64
//	super()
//
// Field indices refer to the field names given to Compile. super initializes
// the base with the initializer's own arguments.
package wasmhost

import (
	"context"
	"fmt"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"

	"github.com/wippyai/ctorbridge/behavior"
	"github.com/wippyai/ctorbridge/errors"
)

const hostModule = "env"

// Config holds configuration for host creation
type Config struct {
	// MemoryLimitPages sets the maximum memory per instance in pages (64KB each).
	// 0 means the wazero default.
	MemoryLimitPages uint32
}

// Host owns a wazero runtime with the env host module instantiated.
type Host struct {
	runtime wazero.Runtime
}

// New creates a host.
func New(ctx context.Context) (*Host, error) {
	return NewWithConfig(ctx, nil)
}

// NewWithConfig creates a host with custom configuration.
func NewWithConfig(ctx context.Context, cfg *Config) (*Host, error) {
	runtimeCfg := wazero.NewRuntimeConfig()
	if cfg != nil && cfg.MemoryLimitPages > 0 {
		runtimeCfg = runtimeCfg.WithMemoryLimitPages(cfg.MemoryLimitPages)
	}

	rt := wazero.NewRuntimeWithConfig(ctx, runtimeCfg)
	if err := instantiateEnv(ctx, rt); err != nil {
		rt.Close(ctx)
		return nil, errors.Wrap(errors.PhaseHost, errors.KindInvalidData, err, "instantiate env module")
	}
	return &Host{runtime: rt}, nil
}

// Compile compiles wasm. fields names the object fields addressed by index.
func (h *Host) Compile(ctx context.Context, wasm []byte, fields []string) (*Module, error) {
	compiled, err := h.runtime.CompileModule(ctx, wasm)
	if err != nil {
		return nil, errors.ParseFailed("wasm module", err)
	}
	return &Module{
		host:     h,
		compiled: compiled,
		fields:   append([]string(nil), fields...),
	}, nil
}

// Close releases the runtime and every module compiled by it.
func (h *Host) Close(ctx context.Context) error {
	return h.runtime.Close(ctx)
}

type callKey struct{}

// invocation is the state of one guest call. err keeps the structured error
// that aborted a host function.
type invocation struct {
	call   behavior.Call
	fields []string
	err    error
}

func (inv *invocation) abort(err error) {
	inv.err = err
	panic(err)
}

func (inv *invocation) field(index uint32) string {
	if int(index) >= len(inv.fields) {
		inv.abort(errors.InvalidData(errors.PhaseHost, nil,
			fmt.Sprintf("field index %d out of range (%d fields)", index, len(inv.fields))))
	}
	return inv.fields[index]
}

func invocationFrom(ctx context.Context) *invocation {
	inv, _ := ctx.Value(callKey{}).(*invocation)
	if inv == nil {
		panic(errors.Unsupported(errors.PhaseHost, "host function called outside an initializer"))
	}
	return inv
}

func instantiateEnv(ctx context.Context, rt wazero.Runtime) error {
	builder := rt.NewHostModuleBuilder(hostModule)

	builder = builder.NewFunctionBuilder().
		WithGoModuleFunction(api.GoModuleFunc(func(ctx context.Context, _ api.Module, stack []uint64) {
			inv := invocationFrom(ctx)
			inv.call.This().Set(inv.field(api.DecodeU32(stack[0])), int64(stack[1]))
		}), []api.ValueType{api.ValueTypeI32, api.ValueTypeI64}, nil).
		Export("set_i64")

	builder = builder.NewFunctionBuilder().
		WithGoModuleFunction(api.GoModuleFunc(func(ctx context.Context, _ api.Module, stack []uint64) {
			inv := invocationFrom(ctx)
			inv.call.This().Set(inv.field(api.DecodeU32(stack[0])), api.DecodeF64(stack[1]))
		}), []api.ValueType{api.ValueTypeI32, api.ValueTypeF64}, nil).
		Export("set_f64")

	builder = builder.NewFunctionBuilder().
		WithGoModuleFunction(api.GoModuleFunc(func(ctx context.Context, _ api.Module, stack []uint64) {
			inv := invocationFrom(ctx)
			v, _ := inv.call.This().Get(inv.field(api.DecodeU32(stack[0])))
			n, ok := toInt64(v)
			if !ok && v != nil {
				inv.abort(errors.TypeMismatch(errors.PhaseHost, nil, fmt.Sprintf("%T", v), "integer"))
			}
			stack[0] = api.EncodeI64(n)
		}), []api.ValueType{api.ValueTypeI32}, []api.ValueType{api.ValueTypeI64}).
		Export("get_i64")

	builder = builder.NewFunctionBuilder().
		WithGoModuleFunction(api.GoModuleFunc(func(ctx context.Context, _ api.Module, stack []uint64) {
			inv := invocationFrom(ctx)
			v, _ := inv.call.This().Get(inv.field(api.DecodeU32(stack[0])))
			f, ok := toFloat64(v)
			if !ok && v != nil {
				inv.abort(errors.TypeMismatch(errors.PhaseHost, nil, fmt.Sprintf("%T", v), "number"))
			}
			stack[0] = api.EncodeF64(f)
		}), []api.ValueType{api.ValueTypeI32}, []api.ValueType{api.ValueTypeF64}).
		Export("get_f64")

	builder = builder.NewFunctionBuilder().
		WithGoModuleFunction(api.GoModuleFunc(func(ctx context.Context, _ api.Module, _ []uint64) {
			inv := invocationFrom(ctx)
			if err := inv.call.Super(inv.call.Args()...); err != nil {
				inv.abort(err)
			}
		}), nil, nil).
		Export("super")

	_, err := builder.Instantiate(ctx)
	return err
}
