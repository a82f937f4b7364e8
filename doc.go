// Package ctorbridge runs constructor chains against objects that already
// exist.
//
// A constructible is a named initializer with an optional base. Chains of
// constructibles can be run two ways: allocation-based construction creates a
// fresh object dispatching through the most-derived constructible, while
// bridging construction runs the chain against a receiver the caller passes
// in. Bridging lets a legacy factory reuse a modern base without giving up
// its own receiver.
//
// # Architecture Overview
//
//	ctorbridge/
//	├── behavior/        Records, objects and the construction call surface
//	├── registry/        Declarations, chain validation and entry states
//	├── bridge/          The invoker: bridge, allocate and apply modes
//	├── heap/            Handle table and allocator for fresh objects
//	├── luahost/         Initializers and methods written in Lua
//	├── wasmhost/        Initializers compiled to WebAssembly
//	├── manifest/        YAML and CUE manifests of constructibles and runs
//	├── runtime/         High-level facade tying the packages together
//	├── errors/          Structured error types
//	└── cmd/ctorbridge/  Command line runner, inspector and explorer
//
// # Quick Start
//
//	rt := runtime.New()
//	defer rt.Close(ctx)
//
//	shape, _ := rt.Declare(registry.Declaration{
//	    Name: "Shape",
//	    Init: func(c behavior.Call) error {
//	        c.This().Set("name", c.Arg(0))
//	        return nil
//	    },
//	})
//
//	obj := behavior.NewObject()
//	if _, err := shape.Construct(ctx, obj, "circle"); err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(obj) // {name: "circle"}
//
// # Bridgeability
//
// Legacy constructibles are bridgeable unless declared otherwise; modern ones
// must opt in. A bridgeable constructible may not extend a base that is not
// bridgeable. Such declarations are stored as rejected and every later use
// returns the same error.
//
// # Thread Safety
//
// The registry, the heap and the invoker are safe for concurrent use. An
// object's fields are guarded by its own lock, but concurrent chains writing
// the same object interleave.
package ctorbridge
