package voxelgrid

import "math"

// blockAccumulator implements the block height filter: a coarse grid
// over the XY plane, BlockFactor fine cells per block edge, tracking
// min/max of the height channel across every in-range point regardless
// of capacity drops. finalize keeps only voxels whose block height
// spread reaches the threshold and compacts the survivors in place.
type blockAccumulator struct {
	mins      []float32 // blocksY*blocksX row-major
	maxs      []float32
	blocksX   int32
	factor    int32
	threshold float32
}

func newBlockAccumulator(gridX, gridY, factor int, threshold float32) *blockAccumulator {
	bx := gridX / factor
	by := gridY / factor
	a := &blockAccumulator{
		mins:      make([]float32, bx*by),
		maxs:      make([]float32, bx*by),
		blocksX:   int32(bx),
		factor:    int32(factor),
		threshold: threshold,
	}
	a.reset()
	return a
}

// reset restores the min/max sentinels. Called at the start of every
// pass; the accumulator itself is allocated once per generator.
func (a *blockAccumulator) reset() {
	for i := range a.mins {
		a.mins[i] = math.MaxFloat32
		a.maxs[i] = -math.MaxFloat32
	}
}

func (a *blockAccumulator) blockIndex(cx, cy int32) int32 {
	return (cy/a.factor)*a.blocksX + cx/a.factor
}

func (a *blockAccumulator) observe(cx, cy int32, p []float32) {
	i := a.blockIndex(cx, cy)
	z := p[heightChannel]
	if z < a.mins[i] {
		a.mins[i] = z
	}
	if z > a.maxs[i] {
		a.maxs[i] = z
	}
}

func (a *blockAccumulator) ingest(slot int32, p []float32) {}

// finalize drops voxels whose owning block has height spread below the
// threshold and gathers the survivors to the front of the batch arrays
// in slot assignment order. Rows between the survivor count and used are
// zeroed so padded output stays clean.
func (a *blockAccumulator) finalize(b *Batch, used int) int {
	rowLen := b.MaxPoints * b.Stride
	kept := 0
	for v := 0; v < used; v++ {
		_, cy, cx := b.Coord(v)
		i := a.blockIndex(cx, cy)
		if a.maxs[i]-a.mins[i] < a.threshold {
			continue
		}
		if kept != v {
			copy(b.Voxels[kept*rowLen:(kept+1)*rowLen], b.Voxels[v*rowLen:(v+1)*rowLen])
			copy(b.Coords[kept*3:(kept+1)*3], b.Coords[v*3:(v+1)*3])
			b.Counts[kept] = b.Counts[v]
		}
		kept++
	}
	for v := kept; v < used; v++ {
		clear(b.Voxels[v*rowLen : (v+1)*rowLen])
		clear(b.Coords[v*3 : (v+1)*3])
		b.Counts[v] = 0
	}
	return kept
}
