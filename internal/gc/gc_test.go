package gc

import (
	"bytes"
	"testing"

	"github.com/chazu/finch/internal/object"
	"github.com/chazu/finch/internal/value"
)

// stubRoots implements RootProvider over a fixed set of values, so tests
// can control exactly what the collector treats as reachable.
type stubRoots struct {
	values []value.Value
}

func (r *stubRoots) PushRoots(mark func(value.Value)) {
	for _, v := range r.values {
		mark(v)
	}
}

func TestCollectSweepsUnreachableStrings(t *testing.T) {
	strings := object.NewStrings()
	c := New(strings, Config{}, nil)

	kept := c.InternString("kept")
	c.InternString("garbage")

	roots := &stubRoots{values: []value.Value{value.Obj(kept)}}
	c.AddRoot(roots)

	c.Collect()

	if _, ok := strings.Find("kept"); !ok {
		t.Error("rooted string should survive collection")
	}
	if _, ok := strings.Find("garbage"); ok {
		t.Error("unrooted string should be swept")
	}
}

func TestBlackenTracesClosureThroughUpvalues(t *testing.T) {
	strings := object.NewStrings()
	c := New(strings, Config{}, nil)

	fn := c.NewFunction()
	slot := value.Number(1)
	uv := c.NewUpvalue(&slot, 0)
	closure := c.NewClosure(fn, []*object.Upvalue{uv})

	roots := &stubRoots{values: []value.Value{value.Obj(closure)}}
	c.AddRoot(roots)
	c.Collect()

	if fn.Header.Color != value.White {
		t.Fatalf("color after sweep should reset to White, got %v", fn.Header.Color)
	}
	// Reachability is verified indirectly: fn and uv must still be linked
	// into the master object list (i.e. not swept) after a collection
	// rooted only at the closure that references them.
	found := false
	foundUpvalue := false
	for o := c.objects; o != nil; o = o.ObjHeader().Next {
		if o == value.Object(fn) {
			found = true
		}
		if o == value.Object(uv) {
			foundUpvalue = true
		}
	}
	if !found {
		t.Error("Function reachable only via a rooted Closure should survive collection")
	}
	if !foundUpvalue {
		t.Error("Upvalue reachable only via a rooted Closure should survive collection")
	}
}

func TestRemoveRootStopsContributing(t *testing.T) {
	strings := object.NewStrings()
	c := New(strings, Config{}, nil)

	kept := c.InternString("alive")
	roots := &stubRoots{values: []value.Value{value.Obj(kept)}}
	c.AddRoot(roots)
	c.RemoveRoot(roots)

	c.Collect()

	if _, ok := strings.Find("alive"); ok {
		t.Error("string should be swept once its only root provider is removed")
	}
}

func TestCollectLogsWhenEnabled(t *testing.T) {
	strings := object.NewStrings()
	var buf bytes.Buffer
	c := New(strings, Config{LogGC: true}, &buf)
	c.Collect()
	if buf.Len() == 0 {
		t.Error("expected GC log output when LogGC is enabled")
	}
}

func TestStressGCDoesNotSweepItsOwnTriggeringAllocation(t *testing.T) {
	strings := object.NewStrings()
	c := New(strings, Config{StressGC: true}, nil)

	c.InternString("one-off")
	// The stress collection runs before the new string is linked into the
	// object list, so the allocation that triggers a collection must never
	// be the thing that collection sweeps.
	if _, ok := strings.Find("one-off"); !ok {
		t.Fatal("an allocation must survive the very collection it triggers")
	}

	// It is still unrooted, so the next stress collection (triggered by the
	// following allocation) sweeps it.
	c.InternString("another")
	if _, ok := strings.Find("one-off"); ok {
		t.Error("unrooted string should be swept by a later stress collection")
	}
}
