package voxelgrid

import "testing"

func TestRegistryAssignsSlotsInTouchOrder(t *testing.T) {
	r := NewCellRegistry(16)

	slot, isNew := r.LookupOrAssign(9, 8)
	if slot != 0 || !isNew {
		t.Fatalf("first assignment: got slot=%d isNew=%v, want 0 true", slot, isNew)
	}
	slot, isNew = r.LookupOrAssign(3, 8)
	if slot != 1 || !isNew {
		t.Fatalf("second assignment: got slot=%d isNew=%v, want 1 true", slot, isNew)
	}
	slot, isNew = r.LookupOrAssign(9, 8)
	if slot != 0 || isNew {
		t.Fatalf("repeat lookup: got slot=%d isNew=%v, want 0 false", slot, isNew)
	}
	if used := r.Used(); used != 2 {
		t.Errorf("Used() = %d, want 2", used)
	}
	if cells := r.Cells(); cells != 16 {
		t.Errorf("Cells() = %d, want 16", cells)
	}
}

func TestRegistryCapacityExhaustion(t *testing.T) {
	r := NewCellRegistry(8)

	for cell := int32(0); cell < 2; cell++ {
		if slot, _ := r.LookupOrAssign(cell, 2); slot != cell {
			t.Fatalf("cell %d: got slot %d", cell, slot)
		}
	}
	if slot, isNew := r.LookupOrAssign(5, 2); slot != -1 || isNew {
		t.Errorf("assignment past capacity: got slot=%d isNew=%v, want -1 false", slot, isNew)
	}
	// Existing mappings still resolve once capacity is exhausted.
	if slot, _ := r.LookupOrAssign(1, 2); slot != 1 {
		t.Errorf("lookup at capacity: got slot %d, want 1", slot)
	}
	if used := r.Used(); used != 2 {
		t.Errorf("Used() = %d, want 2", used)
	}
}

func TestRegistryReset(t *testing.T) {
	r := NewCellRegistry(32)

	for cell := int32(0); cell < 10; cell += 2 {
		r.LookupOrAssign(cell, 16)
	}
	if used := r.Used(); used != 5 {
		t.Fatalf("Used() before reset = %d, want 5", used)
	}

	r.Reset()
	if used := r.Used(); used != 0 {
		t.Fatalf("Used() after reset = %d, want 0", used)
	}

	// Previously assigned cells come back as fresh assignments.
	slot, isNew := r.LookupOrAssign(4, 16)
	if slot != 0 || !isNew {
		t.Errorf("reassignment after reset: got slot=%d isNew=%v, want 0 true", slot, isNew)
	}
}

func TestRegistryResetTwice(t *testing.T) {
	r := NewCellRegistry(8)
	r.LookupOrAssign(7, 4)
	r.Reset()
	r.Reset()
	if used := r.Used(); used != 0 {
		t.Errorf("Used() = %d, want 0", used)
	}
	if slot, isNew := r.LookupOrAssign(7, 4); slot != 0 || !isNew {
		t.Errorf("got slot=%d isNew=%v, want 0 true", slot, isNew)
	}
}
