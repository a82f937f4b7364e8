// Package behavior implements the behavior graph shared by every constructible.
//
// A Record is the template for one constructible: its initializer, its method
// table, its style and bridgeable flag, and a link to its base. Links point
// from derived to base through weak pointers, so the graph never forms an
// ownership cycle even though lookups walk from an instance's terminal record
// up to the root. Whoever registers records (the registry) keeps them alive.
//
// An Object is an instance. Its terminal record is fixed when a host allocates
// it with NewInstance and never changes afterwards, no matter how many
// initializers run against it. NewObject creates a plain object with no
// terminal record, the equivalent of a fresh empty object literal.
//
// Initializers receive a Call, the initializer-facing view of the construction
// context driving them:
//
//	init := func(c behavior.Call) error {
//		if err := c.Super(c.Arg(0)); err != nil {
//			return err
//		}
//		c.This().Set("z", c.Arg(1))
//		return nil
//	}
package behavior
