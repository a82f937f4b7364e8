package heap

import (
	"errors"
	"sync"

	"github.com/google/uuid"

	"github.com/wippyai/ctorbridge/behavior"
)

var ErrClosed = errors.New("heap closed")

// Table is an in-memory slot table of instances with free-list reuse.
type Table struct {
	byID     map[uuid.UUID]Handle
	slots    []slot
	freeList []Handle
	mu       sync.RWMutex
	closed   bool
}

type slot struct {
	object        *behavior.Object
	constructible string
	valid         bool
}

// NewTable creates an empty table.
func NewTable() *Table {
	return &Table{
		byID:     make(map[uuid.UUID]Handle),
		slots:    make([]slot, 0, 64),
		freeList: make([]Handle, 0, 16),
	}
}

// Insert stores an object and returns its handle.
func (t *Table) Insert(constructible string, obj *behavior.Object) (Handle, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return 0, ErrClosed
	}

	s := slot{
		object:        obj,
		constructible: constructible,
		valid:         true,
	}

	var handle Handle
	if len(t.freeList) > 0 {
		handle = t.freeList[len(t.freeList)-1]
		t.freeList = t.freeList[:len(t.freeList)-1]
		t.slots[handle-1] = s
	} else {
		t.slots = append(t.slots, s)
		handle = Handle(len(t.slots))
	}

	t.byID[obj.ID()] = handle
	return handle, nil
}

// Get retrieves an object by handle.
func (t *Table) Get(handle Handle) (*behavior.Object, bool) {
	if handle == 0 {
		return nil, false
	}

	t.mu.RLock()
	defer t.mu.RUnlock()

	idx := handle - 1
	if int(idx) >= len(t.slots) {
		return nil, false
	}

	s := t.slots[idx]
	if !s.valid {
		return nil, false
	}
	return s.object, true
}

// HandleOf returns the handle of a stored object.
func (t *Table) HandleOf(obj *behavior.Object) (Handle, bool) {
	if obj == nil {
		return 0, false
	}

	t.mu.RLock()
	defer t.mu.RUnlock()

	h, ok := t.byID[obj.ID()]
	return h, ok
}

// Constructible returns the name of the constructible a handle was allocated for.
func (t *Table) Constructible(handle Handle) (string, bool) {
	if handle == 0 {
		return "", false
	}

	t.mu.RLock()
	defer t.mu.RUnlock()

	idx := handle - 1
	if int(idx) >= len(t.slots) || !t.slots[idx].valid {
		return "", false
	}
	return t.slots[idx].constructible, true
}

// Remove frees a slot and returns its object.
func (t *Table) Remove(handle Handle) (*behavior.Object, bool) {
	if handle == 0 {
		return nil, false
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	idx := handle - 1
	if int(idx) >= len(t.slots) {
		return nil, false
	}

	s := &t.slots[idx]
	if !s.valid {
		return nil, false
	}

	obj := s.object
	s.valid = false
	s.object = nil
	s.constructible = ""
	delete(t.byID, obj.ID())
	t.freeList = append(t.freeList, handle)

	return obj, true
}

// Close drops every slot and rejects further inserts.
func (t *Table) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return nil
	}
	t.closed = true

	t.slots = nil
	t.freeList = nil
	t.byID = nil
	return nil
}

// Len returns the number of live objects.
func (t *Table) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.byID)
}

// Each iterates over live objects in handle order until fn returns false.
func (t *Table) Each(fn func(Handle, *behavior.Object) bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	for i, s := range t.slots {
		if s.valid {
			if !fn(Handle(i+1), s.object) {
				break
			}
		}
	}
}
