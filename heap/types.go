package heap

import "github.com/wippyai/ctorbridge/behavior"

// Handle is an opaque reference to an instance in a heap.
// Handle 0 is reserved and always invalid.
type Handle uint32

// EventType identifies a heap lifecycle notification.
type EventType uint8

const (
	EventAllocated EventType = iota
	EventReleased
)

func (t EventType) String() string {
	switch t {
	case EventAllocated:
		return "allocated"
	case EventReleased:
		return "released"
	default:
		return "unknown"
	}
}

// Event represents an instance lifecycle event.
type Event struct {
	Object        *behavior.Object
	Constructible string
	Target        string
	Handle        Handle
	Type          EventType
}

// Observer receives notifications about instance lifecycle events.
type Observer interface {
	OnHeapEvent(Event)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(Event)

// OnHeapEvent calls f.
func (f ObserverFunc) OnHeapEvent(e Event) { f(e) }
