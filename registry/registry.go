package registry

import (
	"sync"

	"go.uber.org/zap"

	"github.com/wippyai/ctorbridge/behavior"
	"github.com/wippyai/ctorbridge/errors"
)

// Declaration describes a constructible to register.
type Declaration struct {
	Init    behavior.Initializer
	Methods map[string]behavior.Method
	// Bridgeable overrides the style default when non-nil.
	Bridgeable *bool
	Name       string
	Base       string
	Style      behavior.Style
}

// Registry stores constructibles by name.
type Registry struct {
	entries   map[string]*Entry
	validator *Validator
	order     []*Entry
	mu        sync.RWMutex
}

// New creates a registry using DefaultPolicy.
func New() *Registry {
	return NewWithPolicy(nil)
}

// NewWithPolicy creates a registry with a custom validation policy.
func NewWithPolicy(policy Policy) *Registry {
	return &Registry{
		entries:   make(map[string]*Entry),
		validator: NewValidator(policy),
	}
}

// Register creates, validates and publishes an entry.
//
// A declaration that fails validation is still stored, in state Rejected;
// the returned error is the stored one. A declaration naming a base that is
// not registered yet is not stored, so the name can be declared again once
// the base exists. Registering an existing name fails without touching the
// existing entry.
func (r *Registry) Register(d Declaration) (*Entry, error) {
	if d.Name == "" {
		return nil, errors.InvalidInput(errors.PhaseDeclare, "constructible name cannot be empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.entries[d.Name]; exists {
		return nil, errors.DuplicateRegistration(d.Name)
	}

	bridgeable := d.Style.DefaultBridgeable()
	if d.Bridgeable != nil {
		bridgeable = *d.Bridgeable
	}

	var parent *behavior.Record
	if d.Base != "" {
		be, ok := r.entries[d.Base]
		if !ok {
			err := errors.Unregistered(errors.PhaseDeclare, d.Base)
			Logger().Warn("constructible base not registered",
				zap.String("name", d.Name),
				zap.String("base", d.Base))
			return nil, err
		}
		parent = be.record
	}

	e := &Entry{
		record: behavior.NewRecord(behavior.Config{
			Init:       d.Init,
			Methods:    d.Methods,
			Name:       d.Name,
			Style:      d.Style,
			Bridgeable: bridgeable,
		}, parent),
	}

	if err := r.validator.Validate(e.record, r.lookupLocked); err != nil {
		e.reject(err)
	} else {
		e.validate()
	}

	r.entries[d.Name] = e
	r.order = append(r.order, e)

	if e.State() == StateRejected {
		Logger().Warn("constructible rejected",
			zap.String("name", d.Name),
			zap.String("base", d.Base),
			zap.Error(e.err))
		return e, e.err
	}

	Logger().Debug("constructible registered",
		zap.String("name", d.Name),
		zap.String("base", d.Base),
		zap.Stringer("style", d.Style),
		zap.Bool("bridgeable", bridgeable))
	return e, nil
}

func (r *Registry) lookupLocked(name string) (*Entry, bool) {
	e, ok := r.entries[name]
	return e, ok
}

// Lookup returns the entry for name, rejected entries included.
func (r *Registry) Lookup(name string) (*Entry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.entries[name]
	if !ok {
		return nil, errors.Unregistered(errors.PhaseInvoke, name)
	}
	return e, nil
}

// Entries returns all entries in declaration order.
func (r *Registry) Entries() []*Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*Entry, len(r.order))
	copy(out, r.order)
	return out
}

// Len returns the number of registered constructibles.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}
