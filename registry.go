package voxelgrid

// unassigned marks a registry cell with no voxel slot.
const unassigned = int32(-1)

// CellRegistry maps flattened grid cells to assigned voxel slots through
// a dense lookup table sized to the grid volume. The table persists for
// the lifetime of the registry; Reset clears it in O(assigned slots) by
// walking only the cells touched since the previous reset.
type CellRegistry struct {
	slots   []int32
	touched []int32
}

// NewCellRegistry returns a registry covering cells grid cells, all
// unassigned.
func NewCellRegistry(cells int) *CellRegistry {
	slots := make([]int32, cells)
	for i := range slots {
		slots[i] = unassigned
	}
	return &CellRegistry{slots: slots}
}

// LookupOrAssign resolves the voxel slot for cell. The first touch of a
// cell assigns the next free slot in touch order and reports isNew; once
// maxVoxels slots are assigned, cells without a slot resolve to -1.
func (r *CellRegistry) LookupOrAssign(cell int32, maxVoxels int) (slot int32, isNew bool) {
	slot = r.slots[cell]
	if slot != unassigned {
		return slot, false
	}
	if len(r.touched) >= maxVoxels {
		return unassigned, false
	}
	slot = int32(len(r.touched))
	r.slots[cell] = slot
	r.touched = append(r.touched, cell)
	return slot, true
}

// Used reports the number of slots assigned since the last reset.
func (r *CellRegistry) Used() int {
	return len(r.touched)
}

// Cells reports the dense table size.
func (r *CellRegistry) Cells() int {
	return len(r.slots)
}

// Reset clears every assigned mapping. Cost is proportional to the
// number of assigned slots, not the grid volume.
func (r *CellRegistry) Reset() {
	for _, cell := range r.touched {
		r.slots[cell] = unassigned
	}
	r.touched = r.touched[:0]
}
