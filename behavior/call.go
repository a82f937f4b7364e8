package behavior

import "context"

// Call is what an initializer sees of the construction context driving it.
//
// Target is the record that ultimately backs This. It stays the same across
// every nested Super and Apply, so a base initializer dispatching a method
// reaches the override of the most derived participant, not its own.
type Call interface {
	// Context returns the Go context the construction was started with.
	Context() context.Context

	// This returns the instance being initialized.
	This() *Object

	// Current returns the record whose initializer is running.
	Current() *Record

	// Target returns the dynamic-dispatch target.
	Target() *Record

	// Args returns the argument list.
	Args() []any

	// Arg returns argument i, or nil when absent.
	Arg(i int) any

	// Bridged reports whether this initializer runs through a bridging call.
	Bridged() bool

	// Super initializes Current's base on This.
	Super(args ...any) error

	// Apply runs a legacy constructible's initializer as a plain call on This.
	Apply(name string, args ...any) error

	// Construct bridges a constructible into an existing object.
	Construct(name string, this any, args ...any) (*Object, error)

	// New constructs a fresh object through the allocation path.
	New(name string, args ...any) (*Object, error)

	// Dispatch resolves method along Target's chain and calls it on This.
	Dispatch(method string, args ...any) (any, error)
}
