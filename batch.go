package voxelgrid

// Batch holds the arrays produced by one voxelization pass. Voxels,
// Coords and Counts are parallel: row i of each describes the same
// voxel, in slot assignment order. A trimmed batch has exactly NumVoxels
// rows; a padded batch keeps capacity rows with every row beyond
// NumVoxels zeroed.
type Batch struct {
	Voxels []float32 // rows*MaxPoints*Stride floats, row-major point buffers
	Coords []int32   // rows*3 ints, grid cell per voxel in (z, y, x) order
	Counts []int32   // points stored in each voxel buffer

	// Means carries rows*Stride running per-channel means when full-mean
	// accumulation is enabled, nil otherwise. The mean covers every point
	// routed to the voxel, points past buffer capacity included.
	Means []float32

	// MinHeights and MaxHeights carry the per-voxel height channel
	// bounds when height tracking is enabled, nil otherwise.
	MinHeights []float32
	MaxHeights []float32

	NumVoxels int // voxels actually produced
	MaxPoints int // point capacity of each voxel buffer
	Stride    int // floats per point record
}

// Rows reports the row capacity of the batch arrays.
func (b *Batch) Rows() int {
	return len(b.Counts)
}

// Voxel returns the full point buffer of voxel i, unfilled tail rows
// included.
func (b *Batch) Voxel(i int) []float32 {
	n := b.MaxPoints * b.Stride
	return b.Voxels[i*n : (i+1)*n]
}

// Point returns point j of voxel i.
func (b *Batch) Point(i, j int) []float32 {
	base := (i*b.MaxPoints + j) * b.Stride
	return b.Voxels[base : base+b.Stride]
}

// Coord returns the grid cell of voxel i in (z, y, x) order.
func (b *Batch) Coord(i int) (z, y, x int32) {
	c := b.Coords[i*3 : i*3+3]
	return c[0], c[1], c[2]
}

// Count reports the number of points stored in voxel i.
func (b *Batch) Count(i int) int {
	return int(b.Counts[i])
}

// Mean returns the running channel means of voxel i. Only valid when
// full-mean accumulation produced the batch.
func (b *Batch) Mean(i int) []float32 {
	return b.Means[i*b.Stride : (i+1)*b.Stride]
}

// TotalPoints sums the stored point counts across produced voxels.
func (b *Batch) TotalPoints() int {
	total := 0
	for i := 0; i < b.NumVoxels; i++ {
		total += int(b.Counts[i])
	}
	return total
}
