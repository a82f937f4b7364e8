package registry

import (
	"github.com/wippyai/ctorbridge/behavior"
	"github.com/wippyai/ctorbridge/errors"
)

// Use is how a derived constructible reaches its base.
type Use uint8

const (
	// UseSuper is a plain allocation-based super call.
	UseSuper Use = iota
	// UseBridge is a bridging call into the base with an existing instance.
	UseBridge
)

func (u Use) String() string {
	if u == UseBridge {
		return "bridge"
	}
	return "super"
}

// LinkUse returns the use a record makes of its base. A bridgeable record can
// run against an instance it did not allocate, so its base must accept that
// instance too.
func LinkUse(r *behavior.Record) Use {
	if r.Bridgeable() {
		return UseBridge
	}
	return UseSuper
}

// Policy decides whether a link with the given use may target a base.
type Policy func(baseBridgeable bool, use Use) bool

type policyKey struct {
	baseBridgeable bool
	use            Use
}

var defaultTable = map[policyKey]bool{
	{baseBridgeable: true, use: UseBridge}:  true,
	{baseBridgeable: true, use: UseSuper}:   true,
	{baseBridgeable: false, use: UseBridge}: false,
	{baseBridgeable: false, use: UseSuper}:  true,
}

// DefaultPolicy is the declaration-time compatibility table.
func DefaultPolicy(baseBridgeable bool, use Use) bool {
	return defaultTable[policyKey{baseBridgeable: baseBridgeable, use: use}]
}

// Validator walks a new record's chain to the root and checks every link.
type Validator struct {
	policy Policy
}

// NewValidator creates a validator. A nil policy means DefaultPolicy.
func NewValidator(policy Policy) *Validator {
	if policy == nil {
		policy = DefaultPolicy
	}
	return &Validator{policy: policy}
}

// Validate checks rec against the entries visible through lookup.
// It returns nil for a root.
func (v *Validator) Validate(rec *behavior.Record, lookup func(string) (*Entry, bool)) error {
	path := rec.ChainNames()

	child := rec
	for base := child.Parent(); base != nil; base = child.Parent() {
		baseEntry, ok := lookup(base.Name())
		if !ok {
			return errors.Unregistered(errors.PhaseDeclare, base.Name())
		}
		if baseEntry.State() == StateRejected {
			return errors.BaseRejected(rec.Name(), base.Name(), baseEntry.Err())
		}
		if !v.policy(base.Bridgeable(), LinkUse(child)) {
			return errors.BaseNotBridgeable(child.Name(), base.Name(), path)
		}
		child = base
	}
	return nil
}
