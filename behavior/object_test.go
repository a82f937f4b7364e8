package behavior

import (
	"fmt"
	"reflect"
	"sync"
	"testing"
)

func TestObject_Fields(t *testing.T) {
	o := NewObject()
	o.Set("b", 2)
	o.Set("a", "x")
	o.Set("b", 3)

	if got := o.Keys(); !reflect.DeepEqual(got, []string{"b", "a"}) {
		t.Fatalf("Keys() = %v, want insertion order [b a]", got)
	}
	if v, ok := o.Get("b"); !ok || v != 3 {
		t.Fatalf("Get(b) = %v, %v", v, ok)
	}
	if o.Len() != 2 {
		t.Fatalf("Len() = %d", o.Len())
	}
	if got := o.String(); got != `{b: 3, a: "x"}` {
		t.Fatalf("String() = %s", got)
	}

	snapshot := o.Fields()
	snapshot["c"] = 1
	if o.Has("c") {
		t.Fatal("Fields() should return a copy")
	}
}

func TestObject_Terminal(t *testing.T) {
	r := NewRecord(Config{Name: "A"}, nil)

	plain := NewObject()
	if plain.Linked() || plain.Terminal() != nil {
		t.Fatal("plain object should not be linked")
	}

	inst := NewInstance(r)
	if !inst.Linked() || inst.Terminal() != r {
		t.Fatal("instance should be linked to its target")
	}
	if inst.ID() == plain.ID() {
		t.Fatal("objects should have distinct identities")
	}
}

func TestObject_LastBridged(t *testing.T) {
	o := NewObject()
	if o.LastBridged() != "" {
		t.Fatal("fresh object should have no bridge marker")
	}
	o.MarkBridged("A")
	o.MarkBridged("B")
	if o.LastBridged() != "B" {
		t.Fatalf("LastBridged() = %q, want B", o.LastBridged())
	}
}

func TestObject_ConcurrentSet(t *testing.T) {
	o := NewObject()
	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			o.Set(fmt.Sprintf("k%d", i), i)
			_ = o.String()
		}(i)
	}
	wg.Wait()

	if o.Len() != 32 || len(o.Keys()) != 32 {
		t.Fatalf("Len() = %d, Keys() = %d", o.Len(), len(o.Keys()))
	}
}
