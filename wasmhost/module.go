package wasmhost

import (
	"context"
	"fmt"
	"math"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"

	"github.com/wippyai/ctorbridge/behavior"
	"github.com/wippyai/ctorbridge/errors"
)

// Module is a compiled guest module.
type Module struct {
	host     *Host
	compiled wazero.CompiledModule
	fields   []string
}

// Fields returns the field names addressed by index.
func (m *Module) Fields() []string {
	return append([]string(nil), m.fields...)
}

// Exports returns the names of the module's exported functions.
func (m *Module) Exports() []string {
	defs := m.compiled.ExportedFunctions()
	names := make([]string, 0, len(defs))
	for name := range defs {
		names = append(names, name)
	}
	return names
}

// Initializer adapts the exported function into an initializer. Its
// parameters receive the construction arguments; missing arguments are zero.
// Every execution runs in a fresh anonymous instance.
func (m *Module) Initializer(export string) (behavior.Initializer, error) {
	def, ok := m.compiled.ExportedFunctions()[export]
	if !ok {
		return nil, errors.NotFound(errors.PhaseHost, "wasm export", export)
	}
	if len(def.ResultTypes()) > 0 {
		return nil, errors.New(errors.PhaseHost, errors.KindUnsupported).
			Path(export).
			Detail("initializer export must not return values").
			Build()
	}
	params := def.ParamTypes()

	return func(c behavior.Call) error {
		stack, err := encodeArgs(export, params, c.Args())
		if err != nil {
			return err
		}

		inv := &invocation{call: c, fields: m.fields}
		ctx := context.WithValue(c.Context(), callKey{}, inv)

		mod, err := m.host.runtime.InstantiateModule(ctx, m.compiled, wazero.NewModuleConfig().WithName(""))
		if err != nil {
			return errors.Wrap(errors.PhaseHost, errors.KindInvalidData, err, "instantiate wasm module")
		}
		defer mod.Close(ctx)

		if _, err := mod.ExportedFunction(export).Call(ctx, stack...); err != nil {
			if inv.err != nil {
				return inv.err
			}
			return errors.Wrap(errors.PhaseHost, errors.KindInitializer, err, "wasm "+export)
		}
		return nil
	}, nil
}

// Close releases the compiled module.
func (m *Module) Close(ctx context.Context) error {
	return m.compiled.Close(ctx)
}

func encodeArgs(export string, params []api.ValueType, args []any) ([]uint64, error) {
	stack := make([]uint64, len(params))
	for i, vt := range params {
		if i >= len(args) || args[i] == nil {
			continue
		}
		arg := args[i]
		mismatch := func(want string) error {
			return errors.TypeMismatch(errors.PhaseHost, []string{export, fmt.Sprintf("arg %d", i)}, fmt.Sprintf("%T", arg), want)
		}

		switch vt {
		case api.ValueTypeI32:
			n, ok := toInt64(arg)
			if !ok || n < math.MinInt32 || n > math.MaxUint32 {
				return nil, mismatch("i32")
			}
			stack[i] = api.EncodeI32(int32(n))
		case api.ValueTypeI64:
			n, ok := toInt64(arg)
			if !ok {
				return nil, mismatch("i64")
			}
			stack[i] = api.EncodeI64(n)
		case api.ValueTypeF32:
			f, ok := toFloat64(arg)
			if !ok {
				return nil, mismatch("f32")
			}
			stack[i] = api.EncodeF32(float32(f))
		case api.ValueTypeF64:
			f, ok := toFloat64(arg)
			if !ok {
				return nil, mismatch("f64")
			}
			stack[i] = api.EncodeF64(f)
		default:
			return nil, errors.Unsupported(errors.PhaseHost, "parameter type "+api.ValueTypeName(vt))
		}
	}
	return stack, nil
}

func toInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	case uint32:
		return int64(n), true
	case uint64:
		return int64(n), true
	case float64:
		if n != math.Trunc(n) {
			return 0, false
		}
		return int64(n), true
	case float32:
		if float64(n) != math.Trunc(float64(n)) {
			return 0, false
		}
		return int64(n), true
	}
	return 0, false
}

func toFloat64(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	}
	return 0, false
}
