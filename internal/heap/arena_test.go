package heap

import (
	"sync"
	"testing"
)

func TestArenaNewObject(t *testing.T) {
	a := NewArena(1024)

	obj, err := a.NewObject(7, 3)
	if err != nil {
		t.Fatalf("NewObject: %v", err)
	}
	if obj.IsNull() {
		t.Fatal("NewObject returned the null handle")
	}
	if got := a.ClassID(obj); got != 7 {
		t.Errorf("ClassID: got %d, want 7", got)
	}
	for i := range 3 {
		if got := a.GetField(obj, i); got != 0 {
			t.Errorf("field %d not zero-initialized: got %d", i, got)
		}
	}

	a.SetField(obj, 1, 0xDEADBEEF)
	if got := a.GetField(obj, 1); got != 0xDEADBEEF {
		t.Errorf("field 1: got %#x, want 0xDEADBEEF", got)
	}
	if got := a.GetField(obj, 0); got != 0 {
		t.Errorf("field 0 disturbed by neighbor write: got %d", got)
	}
}

func TestArenaDistinctHandles(t *testing.T) {
	a := NewArena(1024)

	o1, _ := a.NewObject(1, 2)
	o2, _ := a.NewObject(1, 2)
	if o1 == o2 {
		t.Fatal("two allocations returned the same handle")
	}

	a.SetField(o1, 0, 11)
	a.SetField(o2, 0, 22)
	if a.GetField(o1, 0) != 11 || a.GetField(o2, 0) != 22 {
		t.Error("objects share field storage")
	}
}

func TestArenaArray(t *testing.T) {
	a := NewArena(1024)

	arr, err := a.NewArray(3, 5)
	if err != nil {
		t.Fatalf("NewArray: %v", err)
	}
	if got := a.ArrayLength(arr); got != 5 {
		t.Errorf("ArrayLength: got %d, want 5", got)
	}

	for i := range 5 {
		if !a.SetElem(arr, i, uint64(i*10)) {
			t.Fatalf("SetElem(%d) reported out of bounds", i)
		}
	}
	for i := range 5 {
		v, ok := a.GetElem(arr, i)
		if !ok {
			t.Fatalf("GetElem(%d) reported out of bounds", i)
		}
		if v != uint64(i*10) {
			t.Errorf("elem %d: got %d, want %d", i, v, i*10)
		}
	}

	if _, ok := a.GetElem(arr, 5); ok {
		t.Error("GetElem(5) succeeded on length-5 array")
	}
	if _, ok := a.GetElem(arr, -1); ok {
		t.Error("GetElem(-1) succeeded")
	}
	if a.SetElem(arr, 5, 1) {
		t.Error("SetElem(5) succeeded on length-5 array")
	}
}

func TestArenaExhaustion(t *testing.T) {
	a := NewArena(16)

	if _, err := a.NewObject(1, 4); err != nil {
		t.Fatalf("first allocation should fit: %v", err)
	}
	if _, err := a.NewObject(1, 64); err == nil {
		t.Fatal("oversized allocation succeeded, want exhaustion error")
	}
}

func TestArenaConcurrentAllocation(t *testing.T) {
	const goroutines = 8
	const perGoroutine = 50

	a := NewArena(goroutines*perGoroutine*4 + 16)

	var wg sync.WaitGroup
	refs := make([][]Ref, goroutines)
	for g := range goroutines {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range perGoroutine {
				r, err := a.NewObject(2, 2)
				if err != nil {
					t.Errorf("NewObject: %v", err)
					return
				}
				refs[g] = append(refs[g], r)
			}
		}()
	}
	wg.Wait()

	seen := make(map[Ref]bool)
	for _, rs := range refs {
		for _, r := range rs {
			if seen[r] {
				t.Fatalf("handle %d handed out twice", r)
			}
			seen[r] = true
		}
	}
}
