// Package errors provides structured error types for the constructor-bridging runtime.
//
// Errors are categorized by Phase (where the error occurred) and Kind (error category).
// The Error type carries the constructible involved, its base, the chain path and
// an optional cause.
//
// Use the Builder for structured error construction:
//
//	err := errors.New(errors.PhaseInvoke, errors.KindInstanceMismatch).
//		Constructible("Point").
//		Path("Point3D", "Point").
//		Detail("instance was allocated by %s", "Vector").
//		Build()
//
// Or use convenience constructors for the common cases:
//
//	err := errors.NotBridgeable("Widget")
//	err := errors.BaseNotBridgeable("Button", "Widget", path)
//
// Registration-time errors (phases declare and validate) are stored by the
// registry and returned by identity on every later attempt. Invocation-time
// errors (phase invoke) are produced per call.
//
// All errors implement the standard error interface and support errors.Is/As.
package errors
