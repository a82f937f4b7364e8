package heap

import (
	"sync"

	"github.com/wippyai/ctorbridge/behavior"
	"github.com/wippyai/ctorbridge/errors"
)

// Heap allocates instances into a Table and notifies observers.
// It satisfies bridge.Allocator.
type Heap struct {
	table     *Table
	observers map[uint64]Observer
	nextObsID uint64
	obsMu     sync.RWMutex
}

// New creates a heap with an empty table.
func New() *Heap {
	return &Heap{
		table:     NewTable(),
		observers: make(map[uint64]Observer),
	}
}

// Allocate creates an instance for c whose terminal record is target.
// The heap keeps the instance until Release, Clear or Close.
func (h *Heap) Allocate(c, target *behavior.Record) (*behavior.Object, error) {
	obj := behavior.NewInstance(target)

	handle, err := h.table.Insert(c.Name(), obj)
	if err != nil {
		return nil, errors.AllocationFailed(c.Name(), err)
	}

	h.notify(Event{
		Type:          EventAllocated,
		Handle:        handle,
		Object:        obj,
		Constructible: c.Name(),
		Target:        target.Name(),
	})
	return obj, nil
}

// Get retrieves an instance by handle.
func (h *Heap) Get(handle Handle) (*behavior.Object, bool) {
	return h.table.Get(handle)
}

// HandleOf returns the handle of an instance allocated by this heap.
func (h *Heap) HandleOf(obj *behavior.Object) (Handle, bool) {
	return h.table.HandleOf(obj)
}

// Release removes an instance from the heap.
func (h *Heap) Release(handle Handle) (*behavior.Object, bool) {
	name, _ := h.table.Constructible(handle)
	obj, ok := h.table.Remove(handle)
	if !ok {
		return nil, false
	}

	var target string
	if t := obj.Terminal(); t != nil {
		target = t.Name()
	}
	h.notify(Event{
		Type:          EventReleased,
		Handle:        handle,
		Object:        obj,
		Constructible: name,
		Target:        target,
	})
	return obj, true
}

// Subscribe adds an observer and returns a function that removes it.
func (h *Heap) Subscribe(o Observer) (unsubscribe func()) {
	h.obsMu.Lock()
	defer h.obsMu.Unlock()

	id := h.nextObsID
	h.nextObsID++
	h.observers[id] = o

	return func() {
		h.obsMu.Lock()
		defer h.obsMu.Unlock()
		delete(h.observers, id)
	}
}

// Len returns the number of live instances.
func (h *Heap) Len() int {
	return h.table.Len()
}

// Each iterates over live instances in handle order.
func (h *Heap) Each(fn func(Handle, *behavior.Object) bool) {
	h.table.Each(fn)
}

// Clear releases all instances.
func (h *Heap) Clear() {
	// Collect handles first to avoid holding the table lock during Release
	var handles []Handle
	h.table.Each(func(handle Handle, _ *behavior.Object) bool {
		handles = append(handles, handle)
		return true
	})
	for _, handle := range handles {
		h.Release(handle)
	}
}

// Close releases all instances and stops accepting allocations.
func (h *Heap) Close() error {
	h.Clear()
	return h.table.Close()
}

func (h *Heap) notify(e Event) {
	h.obsMu.RLock()
	defer h.obsMu.RUnlock()
	for _, o := range h.observers {
		o.OnHeapEvent(e)
	}
}
