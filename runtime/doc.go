// Package runtime provides the high-level API for declaring and constructing
// constructibles.
//
// # Quick Start
//
//	rt := runtime.New()
//	defer rt.Close(ctx)
//
//	point, err := rt.Declare(registry.Declaration{
//	    Name: "Point",
//	    Init: func(c behavior.Call) error {
//	        c.This().Set("x", c.Arg(0))
//	        return nil
//	    },
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	// Bridge into an existing object
//	obj := behavior.NewObject()
//	if _, err := point.Construct(ctx, obj, 1); err != nil {
//	    log.Fatal(err)
//	}
//
//	// Or allocate
//	fresh, err := point.New(ctx, 1)
//
// # Manifests
//
// LoadManifest declares every constructible of a manifest, wiring Lua and
// wasm initializers. Execute and ExecuteAll perform the manifest's runs and
// compare the results against their expectations:
//
//	m, err := manifest.Load("shapes.yaml")
//	handles, err := rt.LoadManifest(ctx, m, ".")
//	results := rt.ExecuteAll(ctx, m.Runs, 4)
//
// A declaration rejected by chain validation does not stop loading: it stays
// registered in the Rejected state and every construction attempt returns its
// stored error.
//
// # Thread Safety
//
// Runtime and Constructible are safe for concurrent use. Declarations are
// serialized; constructions of independent objects may run in parallel.
package runtime
