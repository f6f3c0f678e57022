package voxelgrid

import "math"

// heightChannel is the point record channel read by the height-tracking
// and block-filtering variants.
const heightChannel = 2

// accumulator is the per-variant hook set threaded through the
// voxelization pass. observe sees every in-range point before any
// capacity decision; ingest sees every point routed to a live voxel
// slot, including points past the slot's buffer capacity; finalize runs
// after the pass over the used slots and reports how many survive.
type accumulator interface {
	observe(cx, cy int32, p []float32)
	ingest(slot int32, p []float32)
	finalize(b *Batch, used int) int
}

// plainAccumulator stores raw points only; every hook is a no-op.
type plainAccumulator struct{}

func (plainAccumulator) observe(cx, cy int32, p []float32) {}
func (plainAccumulator) ingest(slot int32, p []float32)    {}
func (plainAccumulator) finalize(b *Batch, used int) int   { return used }

// fullMeanAccumulator keeps a running per-channel mean across every
// point routed to each voxel, points past buffer capacity included, and
// fills the unused buffer rows with that mean so the returned buffers
// carry the voxel average instead of zero padding.
type fullMeanAccumulator struct {
	means  []float32 // rows*stride running means
	seen   []int32   // points routed per slot, uncapped
	stride int
}

func newFullMeanAccumulator(rows, stride int) *fullMeanAccumulator {
	return &fullMeanAccumulator{
		means:  make([]float32, rows*stride),
		seen:   make([]int32, rows),
		stride: stride,
	}
}

func (a *fullMeanAccumulator) observe(cx, cy int32, p []float32) {}

func (a *fullMeanAccumulator) ingest(slot int32, p []float32) {
	n := a.seen[slot]
	base := int(slot) * a.stride
	for c, v := range p {
		a.means[base+c] += (v - a.means[base+c]) / float32(n+1)
	}
	a.seen[slot] = n + 1
}

func (a *fullMeanAccumulator) finalize(b *Batch, used int) int {
	copy(b.Means[:used*a.stride], a.means[:used*a.stride])
	for v := 0; v < used; v++ {
		mean := a.means[v*a.stride : (v+1)*a.stride]
		for row := int(b.Counts[v]); row < b.MaxPoints; row++ {
			copy(b.Point(v, row), mean)
		}
	}
	return used
}

// heightAccumulator tracks per-voxel min/max of the height channel
// across every point routed to the voxel. It never filters; the bounds
// are returned alongside the raw points.
type heightAccumulator struct {
	minZ []float32
	maxZ []float32
}

func newHeightAccumulator(rows int) *heightAccumulator {
	a := &heightAccumulator{
		minZ: make([]float32, rows),
		maxZ: make([]float32, rows),
	}
	for i := range a.minZ {
		a.minZ[i] = math.MaxFloat32
		a.maxZ[i] = -math.MaxFloat32
	}
	return a
}

func (a *heightAccumulator) observe(cx, cy int32, p []float32) {}

func (a *heightAccumulator) ingest(slot int32, p []float32) {
	z := p[heightChannel]
	if z < a.minZ[slot] {
		a.minZ[slot] = z
	}
	if z > a.maxZ[slot] {
		a.maxZ[slot] = z
	}
}

func (a *heightAccumulator) finalize(b *Batch, used int) int {
	copy(b.MinHeights[:used], a.minZ[:used])
	copy(b.MaxHeights[:used], a.maxZ[:used])
	return used
}
