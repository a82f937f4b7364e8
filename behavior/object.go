package behavior

import (
	"fmt"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
)

// Object is an instance produced for some constructible chain.
//
// The field store is safe for concurrent use. The terminal record is set once,
// by NewInstance, and never changes.
type Object struct {
	terminal    *Record
	lastBridged atomic.Pointer[string]
	fields      map[string]any
	order       []string
	mu          sync.RWMutex
	id          uuid.UUID
}

// NewObject creates a plain object with no terminal record.
func NewObject() *Object {
	return &Object{
		id:     uuid.New(),
		fields: make(map[string]any),
	}
}

// NewInstance creates an object whose terminal record is target.
// It is the allocation primitive hosts build their allocators on.
func NewInstance(target *Record) *Object {
	o := NewObject()
	o.terminal = target
	return o
}

// ID returns the object's identity.
func (o *Object) ID() uuid.UUID { return o.id }

// Terminal returns the record that backs dispatch for this object,
// or nil for a plain object.
func (o *Object) Terminal() *Record { return o.terminal }

// Linked reports whether the object was allocated for a record.
func (o *Object) Linked() bool { return o.terminal != nil }

// Get returns a field value.
func (o *Object) Get(key string) (any, bool) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	v, ok := o.fields[key]
	return v, ok
}

// Set stores a field value. New keys keep insertion order.
func (o *Object) Set(key string, value any) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if _, ok := o.fields[key]; !ok {
		o.order = append(o.order, key)
	}
	o.fields[key] = value
}

// Has reports whether a field is present.
func (o *Object) Has(key string) bool {
	_, ok := o.Get(key)
	return ok
}

// Keys returns field names in insertion order.
func (o *Object) Keys() []string {
	o.mu.RLock()
	defer o.mu.RUnlock()
	keys := make([]string, len(o.order))
	copy(keys, o.order)
	return keys
}

// Fields returns a copy of the field store.
func (o *Object) Fields() map[string]any {
	o.mu.RLock()
	defer o.mu.RUnlock()
	out := make(map[string]any, len(o.fields))
	for k, v := range o.fields {
		out[k] = v
	}
	return out
}

// Len returns the number of fields.
func (o *Object) Len() int {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return len(o.fields)
}

// LastBridged returns the name of the last constructible whose bridged
// initializer ran against this object. Observational only.
func (o *Object) LastBridged() string {
	if p := o.lastBridged.Load(); p != nil {
		return *p
	}
	return ""
}

// MarkBridged records name as the last bridged constructible.
func (o *Object) MarkBridged(name string) {
	o.lastBridged.Store(&name)
}

// String renders the object as {k: v, ...} in insertion order.
func (o *Object) String() string {
	o.mu.RLock()
	defer o.mu.RUnlock()

	var b strings.Builder
	b.WriteByte('{')
	for i, k := range o.order {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(k)
		b.WriteString(": ")
		switch v := o.fields[k].(type) {
		case string:
			fmt.Fprintf(&b, "%q", v)
		case *Object:
			b.WriteString("<object ")
			b.WriteString(v.id.String()[:8])
			b.WriteByte('>')
		default:
			fmt.Fprint(&b, v)
		}
	}
	b.WriteByte('}')
	return b.String()
}
