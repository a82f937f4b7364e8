// Package heap is the host-side allocation adapter for the bridging runtime.
//
// A Heap allocates instances for constructibles and keeps them in a handle
// table until the host releases them. The bridging core only ever asks a Heap
// to allocate; it never releases or duplicates an instance.
//
// # Handle Table
//
// Handles index a slot table with free-list reuse. Handle 0 is reserved and
// always invalid:
//
//	h := heap.New()
//	obj, _ := h.Allocate(pointRecord, pointRecord)
//
//	handle, _ := h.HandleOf(obj)
//	same, _ := h.Get(handle)
//
//	h.Release(handle) // host lifetime rules apply from here on
//
// # Observers
//
// Register observers to track instance lifecycle events:
//
//	h.Subscribe(heap.ObserverFunc(func(e heap.Event) {
//	    switch e.Type {
//	    case heap.EventAllocated:
//	        log.Printf("%s allocated as %d", e.Constructible, e.Handle)
//	    case heap.EventReleased:
//	        log.Printf("%d released", e.Handle)
//	    }
//	}))
//
// # Memory Management
//
// Instances are not collected while they sit in the table. Hosts must call
// Release for instances they no longer need, or Close the heap.
package heap
