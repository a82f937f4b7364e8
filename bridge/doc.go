// Package bridge runs constructible initializers against instances.
//
// # Entry Points
//
//   - BridgeConstruct: initialize an existing object with a bridgeable
//     constructible and return that same object
//   - DefaultConstruct / New: ordinary allocation-based construction
//   - Call: a legacy factory invoked as a plain function; allocates when no
//     object is supplied
//
// # Construction Contexts
//
// Each initializer execution gets its own Context, linked to the context that
// started it. Contexts live on the Go call stack and are never retained after
// the initializer returns. Inside an initializer, Super, Apply, Construct and
// New on the Call nest further contexts.
//
// # Dispatch Target
//
// The dispatch target of a bridging call is never chosen by the caller:
//
//  1. An object allocated for a record always dispatches through that record.
//  2. A plain object inherits the target of the innermost enclosing context
//     running on the same object, when that target has the callee in its chain.
//  3. Otherwise the callee itself is the target.
//
// # Failure
//
// Nothing is rolled back. When an initializer fails, the object keeps every
// field set before the failure and is returned alongside the error. Panics
// inside initializers are recovered into initializer errors.
//
// # Thread Safety
//
// Invoker is safe for concurrent use. Independent construction chains may run
// on separate goroutines.
package bridge
