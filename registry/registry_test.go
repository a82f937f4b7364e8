package registry

import (
	stderrors "errors"
	"fmt"
	"reflect"
	"sync"
	"testing"

	"github.com/wippyai/ctorbridge/behavior"
	"github.com/wippyai/ctorbridge/errors"
)

func boolPtr(b bool) *bool { return &b }

func mustRegister(t *testing.T, r *Registry, d Declaration) *Entry {
	t.Helper()
	e, err := r.Register(d)
	if err != nil {
		t.Fatalf("register %s: %v", d.Name, err)
	}
	return e
}

func TestRegister_StyleDefaults(t *testing.T) {
	r := New()

	tests := []struct {
		name       string
		style      behavior.Style
		override   *bool
		bridgeable bool
	}{
		{"LegacyDefault", behavior.Legacy, nil, true},
		{"ModernDefault", behavior.Modern, nil, false},
		{"LegacyPure", behavior.Legacy, boolPtr(false), false},
		{"ModernBridgeable", behavior.Modern, boolPtr(true), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := mustRegister(t, r, Declaration{Name: tt.name, Style: tt.style, Bridgeable: tt.override})
			if e.Record().Bridgeable() != tt.bridgeable {
				t.Errorf("Bridgeable() = %v, want %v", e.Record().Bridgeable(), tt.bridgeable)
			}
			if e.State() != StateValidated {
				t.Errorf("State() = %v, want validated", e.State())
			}
			if e.Usable() != nil {
				t.Errorf("Usable() = %v", e.Usable())
			}
		})
	}
}

func TestRegister_EmptyName(t *testing.T) {
	r := New()
	_, err := r.Register(Declaration{})
	if errors.KindOf(err) != errors.KindInvalidInput {
		t.Fatalf("expected invalid_input, got %v", err)
	}
}

func TestRegister_Duplicate(t *testing.T) {
	r := New()
	first := mustRegister(t, r, Declaration{Name: "A", Style: behavior.Legacy})

	_, err := r.Register(Declaration{Name: "A", Style: behavior.Modern})
	if !stderrors.Is(err, &errors.Error{Phase: errors.PhaseDeclare, Kind: errors.KindDuplicateRegistration}) {
		t.Fatalf("expected duplicate_registration, got %v", err)
	}

	got, err := r.Lookup("A")
	if err != nil {
		t.Fatal(err)
	}
	if got != first || got.State() != StateValidated {
		t.Fatal("duplicate registration must not touch the existing entry")
	}
	if r.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", r.Len())
	}
}

func TestRegister_UnknownBase(t *testing.T) {
	r := New()
	e, err := r.Register(Declaration{Name: "B", Base: "Missing"})
	if errors.KindOf(err) != errors.KindUnregistered {
		t.Fatalf("expected unregistered, got %v", err)
	}
	if e != nil {
		t.Fatal("declaration with unknown base should not be stored")
	}
	if r.Len() != 0 {
		t.Fatalf("expected empty registry, got %d entries", r.Len())
	}

	if _, err := r.Register(Declaration{Name: "Missing"}); err != nil {
		t.Fatal(err)
	}
	e, err = r.Register(Declaration{Name: "B", Base: "Missing"})
	if err != nil {
		t.Fatalf("redeclaring once the base exists: %v", err)
	}
	if e.State() != StateValidated {
		t.Fatalf("expected validated, got %s", e.State())
	}
	if got := e.Record().ChainNames(); len(got) != 2 || got[1] != "Missing" {
		t.Fatalf("unexpected chain %v", got)
	}
}

func TestRegister_PolicyTable(t *testing.T) {
	tests := []struct {
		name           string
		baseBridgeable bool
		derived        *bool
		wantKind       errors.Kind
	}{
		{"bridgeable base, bridging link", true, boolPtr(true), ""},
		{"bridgeable base, super link", true, boolPtr(false), ""},
		{"pure base, bridging link", false, boolPtr(true), errors.KindBaseNotBridgeable},
		{"pure base, super link", false, boolPtr(false), ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := New()
			mustRegister(t, r, Declaration{Name: "Base", Style: behavior.Modern, Bridgeable: boolPtr(tt.baseBridgeable)})

			e, err := r.Register(Declaration{Name: "Derived", Base: "Base", Style: behavior.Legacy, Bridgeable: tt.derived})
			if got := errors.KindOf(err); got != tt.wantKind {
				t.Fatalf("KindOf(err) = %q, want %q (err %v)", got, tt.wantKind, err)
			}
			want := StateValidated
			if tt.wantKind != "" {
				want = StateRejected
			}
			if e.State() != want {
				t.Fatalf("State() = %v, want %v", e.State(), want)
			}
		})
	}
}

func TestRegister_RejectionIsStored(t *testing.T) {
	r := New()
	mustRegister(t, r, Declaration{Name: "Pure", Style: behavior.Modern})

	_, err := r.Register(Declaration{Name: "Bridge", Base: "Pure", Style: behavior.Legacy})
	if err == nil {
		t.Fatal("expected base_not_bridgeable")
	}

	e, lookupErr := r.Lookup("Bridge")
	if lookupErr != nil {
		t.Fatalf("rejected entries stay registered: %v", lookupErr)
	}
	for i := 0; i < 3; i++ {
		if e.Usable() != err {
			t.Fatalf("attempt %d: Usable() returned a different error", i)
		}
	}
	if e.Activate() {
		t.Fatal("a rejected entry must never become active")
	}
	if e.State() != StateRejected {
		t.Fatalf("State() = %v", e.State())
	}
}

func TestRegister_BaseRejectedPropagates(t *testing.T) {
	r := New()
	mustRegister(t, r, Declaration{Name: "Pure", Style: behavior.Modern})
	_, rootErr := r.Register(Declaration{Name: "Mid", Base: "Pure", Style: behavior.Legacy})

	_, err := r.Register(Declaration{Name: "Leaf", Base: "Mid", Style: behavior.Legacy, Bridgeable: boolPtr(false)})
	if errors.KindOf(err) != errors.KindBaseRejected {
		t.Fatalf("expected base_rejected, got %v", err)
	}
	if !stderrors.Is(err, rootErr) {
		t.Fatal("base_rejected should wrap the base's stored error")
	}
	if !errors.HasKind(err, errors.KindBaseNotBridgeable) {
		t.Fatal("cause chain should expose base_not_bridgeable")
	}
}

func TestRegister_ChainWalk(t *testing.T) {
	r := New()
	mustRegister(t, r, Declaration{Name: "A", Style: behavior.Modern, Bridgeable: boolPtr(true)})
	mustRegister(t, r, Declaration{Name: "B", Base: "A", Style: behavior.Legacy})
	c := mustRegister(t, r, Declaration{Name: "C", Base: "B", Style: behavior.Legacy})

	if got := c.Record().ChainNames(); !reflect.DeepEqual(got, []string{"C", "B", "A"}) {
		t.Fatalf("ChainNames() = %v", got)
	}
	if c.Record().Parent().Parent().Name() != "A" {
		t.Fatal("chain should resolve to the registered root")
	}
}

func TestRegister_CustomPolicy(t *testing.T) {
	strict := func(baseBridgeable bool, use Use) bool { return baseBridgeable }
	r := NewWithPolicy(strict)
	mustRegister(t, r, Declaration{Name: "Pure", Style: behavior.Modern})

	_, err := r.Register(Declaration{Name: "Derived", Base: "Pure", Style: behavior.Modern})
	if errors.KindOf(err) != errors.KindBaseNotBridgeable {
		t.Fatalf("custom policy should reject super links into pure bases, got %v", err)
	}
}

func TestLookup_Unregistered(t *testing.T) {
	r := New()
	_, err := r.Lookup("Nope")
	if !stderrors.Is(err, &errors.Error{Phase: errors.PhaseInvoke, Kind: errors.KindUnregistered}) {
		t.Fatalf("expected unregistered, got %v", err)
	}
}

func TestEntry_Activate(t *testing.T) {
	r := New()
	e := mustRegister(t, r, Declaration{Name: "A"})

	if !e.Activate() {
		t.Fatal("first Activate should transition")
	}
	if e.Activate() {
		t.Fatal("second Activate should be a no-op")
	}
	if e.State() != StateActive || e.Usable() != nil {
		t.Fatalf("State() = %v, Usable() = %v", e.State(), e.Usable())
	}
}

func TestEntries_Order(t *testing.T) {
	r := New()
	for _, n := range []string{"C", "A", "B"} {
		mustRegister(t, r, Declaration{Name: n})
	}

	var names []string
	for _, e := range r.Entries() {
		names = append(names, e.Name())
	}
	if !reflect.DeepEqual(names, []string{"C", "A", "B"}) {
		t.Fatalf("Entries() order = %v", names)
	}
}

func TestRegister_Concurrent(t *testing.T) {
	r := New()
	mustRegister(t, r, Declaration{Name: "Root", Style: behavior.Legacy})

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			name := fmt.Sprintf("D%d", i)
			if _, err := r.Register(Declaration{Name: name, Base: "Root"}); err != nil {
				t.Errorf("register %s: %v", name, err)
			}
			e, err := r.Lookup(name)
			if err != nil {
				t.Errorf("lookup %s: %v", name, err)
				return
			}
			if s := e.State(); s == StateDeclared {
				t.Errorf("%s observed in declared state", name)
			}
		}(i)
	}
	wg.Wait()

	if r.Len() != 17 {
		t.Fatalf("Len() = %d, want 17", r.Len())
	}
}

func TestDefaultPolicy(t *testing.T) {
	if !DefaultPolicy(true, UseBridge) || !DefaultPolicy(true, UseSuper) || !DefaultPolicy(false, UseSuper) {
		t.Fatal("allowed rows rejected")
	}
	if DefaultPolicy(false, UseBridge) {
		t.Fatal("bridging into a pure base must be rejected")
	}
	if UseBridge.String() != "bridge" || UseSuper.String() != "super" {
		t.Fatal("Use.String() mismatch")
	}
}
