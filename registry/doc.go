// Package registry stores constructibles and validates their chains at declaration time.
//
// # Lifecycle
//
// Every entry moves through these states:
//
//	Declared  -> Validated -> Active
//	          \-> Rejected
//
// Declared only exists while Register holds the registry lock; readers never
// see it. Rejected is terminal: the entry stays registered and every later
// construction attempt returns the stored error value. Validated -> Active
// happens on the first successful bridging call.
//
// # Validation Policy
//
// A link from a declaration to its base is a bridging link when the derived
// constructible is bridgeable, and a plain super link otherwise:
//
//	base bridgeable   bridging link   allowed
//	base bridgeable   super link      allowed
//	base pure         bridging link   rejected (base_not_bridgeable)
//	base pure         super link      allowed
//
// # Thread Safety
//
// Registry is safe for concurrent use. Registration is serialized; lookups
// only take a read lock.
package registry
