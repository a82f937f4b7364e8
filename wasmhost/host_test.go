package wasmhost

import (
	"context"
	"testing"

	"github.com/wippyai/ctorbridge/behavior"
	"github.com/wippyai/ctorbridge/bridge"
	"github.com/wippyai/ctorbridge/errors"
	"github.com/wippyai/ctorbridge/heap"
	"github.com/wippyai/ctorbridge/registry"
)

// setField imports env.set_i64 and exports init(i64) which stores its
// argument in field 0.
var setField = []byte{
	0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00, // magic + version
	// type section: (i32, i64) -> (), (i64) -> ()
	0x01, 0x0a, 0x02, 0x60, 0x02, 0x7f, 0x7e, 0x00, 0x60, 0x01, 0x7e, 0x00,
	// import section: env.set_i64 type 0
	0x02, 0x0f, 0x01, 0x03, 0x65, 0x6e, 0x76, 0x07, 0x73, 0x65, 0x74, 0x5f, 0x69, 0x36, 0x34, 0x00, 0x00,
	// function section: one function of type 1
	0x03, 0x02, 0x01, 0x01,
	// export section: "init" -> func 1
	0x07, 0x08, 0x01, 0x04, 0x69, 0x6e, 0x69, 0x74, 0x00, 0x01,
	// code section: i32.const 0, local.get 0, call 0
	0x0a, 0x0a, 0x01, 0x08, 0x00, 0x41, 0x00, 0x20, 0x00, 0x10, 0x00, 0x0b,
}

// superThenSet imports env.set_i64 and env.super and exports init(i64) which
// calls super and then stores its argument in field 1.
var superThenSet = []byte{
	0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00,
	// type section: (i32, i64) -> (), (i64) -> (), () -> ()
	0x01, 0x0d, 0x03, 0x60, 0x02, 0x7f, 0x7e, 0x00, 0x60, 0x01, 0x7e, 0x00, 0x60, 0x00, 0x00,
	// import section: env.set_i64 type 0, env.super type 2
	0x02, 0x1b, 0x02,
	0x03, 0x65, 0x6e, 0x76, 0x07, 0x73, 0x65, 0x74, 0x5f, 0x69, 0x36, 0x34, 0x00, 0x00,
	0x03, 0x65, 0x6e, 0x76, 0x05, 0x73, 0x75, 0x70, 0x65, 0x72, 0x00, 0x02,
	// function section
	0x03, 0x02, 0x01, 0x01,
	// export section: "init" -> func 2
	0x07, 0x08, 0x01, 0x04, 0x69, 0x6e, 0x69, 0x74, 0x00, 0x02,
	// code section: call 1, i32.const 1, local.get 0, call 0
	0x0a, 0x0c, 0x01, 0x0a, 0x00, 0x10, 0x01, 0x41, 0x01, 0x20, 0x00, 0x10, 0x00, 0x0b,
}

func newHost(t *testing.T) *Host {
	t.Helper()
	ctx := context.Background()
	h, err := New(ctx)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { h.Close(ctx) })
	return h
}

func compile(t *testing.T, h *Host, wasm []byte, fields ...string) *Module {
	t.Helper()
	m, err := h.Compile(context.Background(), wasm, fields)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	return m
}

func initializer(t *testing.T, m *Module, export string) behavior.Initializer {
	t.Helper()
	init, err := m.Initializer(export)
	if err != nil {
		t.Fatalf("Initializer(%s): %v", export, err)
	}
	return init
}

func TestCompile_Invalid(t *testing.T) {
	h := newHost(t)
	_, err := h.Compile(context.Background(), []byte{0x00, 0x61, 0x73}, nil)
	if errors.KindOf(err) != errors.KindInvalidData {
		t.Fatalf("expected invalid data, got %v", err)
	}
}

func TestModule_Exports(t *testing.T) {
	h := newHost(t)
	m := compile(t, h, setField, "a")

	exports := m.Exports()
	if len(exports) != 1 || exports[0] != "init" {
		t.Fatalf("Exports() = %v", exports)
	}
	if fields := m.Fields(); len(fields) != 1 || fields[0] != "a" {
		t.Fatalf("Fields() = %v", fields)
	}
	if _, err := m.Initializer("missing"); errors.KindOf(err) != errors.KindNotFound {
		t.Fatalf("expected not_found, got %v", err)
	}
}

func TestInitializer_BridgeChain(t *testing.T) {
	h := newHost(t)
	base := compile(t, h, setField, "a")
	derived := compile(t, h, superThenSet, "a", "b")

	reg := registry.New()
	if _, err := reg.Register(registry.Declaration{Name: "Base", Init: initializer(t, base, "init")}); err != nil {
		t.Fatal(err)
	}
	if _, err := reg.Register(registry.Declaration{Name: "Derived", Base: "Base", Init: initializer(t, derived, "init")}); err != nil {
		t.Fatal(err)
	}
	inv := bridge.NewWithDefaults(reg, heap.New())

	tests := []struct {
		name string
		run  func() (*behavior.Object, error)
	}{
		{"bridge", func() (*behavior.Object, error) {
			return inv.BridgeConstruct(context.Background(), "Derived", behavior.NewObject(), 7)
		}},
		{"allocate", func() (*behavior.Object, error) {
			return inv.New(context.Background(), "Derived", 7.0)
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			obj, err := tt.run()
			if err != nil {
				t.Fatal(err)
			}
			if got := obj.String(); got != "{a: 7, b: 7}" {
				t.Fatalf("object = %s", got)
			}
			if v, _ := obj.Get("a"); v != int64(7) {
				t.Fatalf("a = %#v", v)
			}
		})
	}
}

func TestInitializer_FieldOutOfRange(t *testing.T) {
	h := newHost(t)
	m := compile(t, h, setField)

	reg := registry.New()
	reg.Register(registry.Declaration{Name: "Empty", Init: initializer(t, m, "init")})
	inv := bridge.NewWithDefaults(reg, heap.New())

	_, err := inv.BridgeConstruct(context.Background(), "Empty", behavior.NewObject(), 1)
	if errors.KindOf(err) != errors.KindInvalidData {
		t.Fatalf("expected invalid data, got %v", err)
	}
}

func TestInitializer_SuperError(t *testing.T) {
	h := newHost(t)
	m := compile(t, h, superThenSet, "a", "b")

	reg := registry.New()
	reg.Register(registry.Declaration{Name: "Root", Init: initializer(t, m, "init")})
	inv := bridge.NewWithDefaults(reg, heap.New())

	obj := behavior.NewObject()
	_, err := inv.BridgeConstruct(context.Background(), "Root", obj, 1)
	if errors.KindOf(err) != errors.KindNoBase {
		t.Fatalf("expected no_base from the guest's super call, got %v", err)
	}
	if obj.Len() != 0 {
		t.Fatal("guest should have aborted before setting fields")
	}
}

func TestInitializer_ArgumentTypes(t *testing.T) {
	h := newHost(t)
	m := compile(t, h, setField, "a")

	reg := registry.New()
	reg.Register(registry.Declaration{Name: "A", Init: initializer(t, m, "init")})
	inv := bridge.NewWithDefaults(reg, heap.New())

	tests := []struct {
		name string
		args []any
		want any
		kind errors.Kind
	}{
		{"int", []any{3}, int64(3), ""},
		{"integral float", []any{4.0}, int64(4), ""},
		{"missing", nil, int64(0), ""},
		{"fraction", []any{1.5}, nil, errors.KindTypeMismatch},
		{"string", []any{"x"}, nil, errors.KindTypeMismatch},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			obj, err := inv.BridgeConstruct(context.Background(), "A", behavior.NewObject(), tt.args...)
			if tt.kind != "" {
				if errors.KindOf(err) != tt.kind {
					t.Fatalf("kind = %s, want %s", errors.KindOf(err), tt.kind)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if v, _ := obj.Get("a"); v != tt.want {
				t.Fatalf("a = %#v, want %#v", v, tt.want)
			}
		})
	}
}

func TestEncodeArgs(t *testing.T) {
	stack, err := encodeArgs("f", nil, []any{1, 2})
	if err != nil || len(stack) != 0 {
		t.Fatalf("extra args should be ignored: %v %v", stack, err)
	}
}
