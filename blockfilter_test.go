package voxelgrid

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// blockGridConfig returns a 4x4x4 grid of unit voxels with 2x2 blocks
// and the block height filter enabled.
func blockGridConfig() *Config {
	return &Config{
		VoxelSize:         [3]float32{1, 1, 1},
		PointCloudRange:   [6]float32{0, 0, 0, 4, 4, 4},
		MaxPointsPerVoxel: 4,
		MaxVoxels:         64,
		PointStride:       4,
		BlockFiltering:    true,
		BlockFactor:       2,
		BlockSize:         3,
		HeightThreshold:   0.5,
	}
}

// TestBlockFilterFlatRegionRejected builds a scene whose left half is a
// flat plane and whose right half has height spread; only the right half
// may produce voxels.
func TestBlockFilterFlatRegionRejected(t *testing.T) {
	t.Parallel()

	g, err := NewGenerator(blockGridConfig())
	require.NoError(t, err)

	var points []float32
	for ix := 0; ix < 4; ix++ {
		for iy := 0; iy < 4; iy++ {
			x := float32(ix) + 0.5
			y := float32(iy) + 0.5
			if ix < 2 {
				points = append(points, x, y, 0.5, 1)
			} else {
				points = append(points, x, y, 0.1, 1)
				points = append(points, x, y, 0.9, 1)
			}
		}
	}
	b, err := g.Generate(points, 0)
	require.NoError(t, err)

	require.Equal(t, 8, b.NumVoxels)
	for i := 0; i < b.NumVoxels; i++ {
		_, _, x := b.Coord(i)
		assert.GreaterOrEqual(t, x, int32(2), "voxel %d came from the flat half", i)
		assert.Equal(t, 2, b.Count(i))
	}
	assert.Equal(t, uint64(8), g.Stats().VoxelsRejectedByFilter)
}

// TestBlockFilterAllFlat checks a fully flat cloud yields zero voxels.
func TestBlockFilterAllFlat(t *testing.T) {
	t.Parallel()

	g, err := NewGenerator(blockGridConfig())
	require.NoError(t, err)

	var points []float32
	for ix := 0; ix < 4; ix++ {
		for iy := 0; iy < 4; iy++ {
			points = append(points, float32(ix)+0.5, float32(iy)+0.5, 1.5, 1)
		}
	}
	b, err := g.Generate(points, 0)
	require.NoError(t, err)

	assert.Equal(t, 0, b.NumVoxels)
	assert.Empty(t, b.Coords)
	assert.Equal(t, uint64(16), g.Stats().VoxelsRejectedByFilter)
}

// TestBlockFilterSeesCapacityDroppedPoints checks block min/max covers
// points the voxel buffer could not store: the spread they contribute
// still rescues the voxel.
func TestBlockFilterSeesCapacityDroppedPoints(t *testing.T) {
	t.Parallel()

	cfg := blockGridConfig().WithMaxPointsPerVoxel(1)
	g, err := NewGenerator(cfg)
	require.NoError(t, err)

	// Same cell twice: only the first point is stored, but the second
	// one stretches the block height spread past the threshold.
	points := flatten(
		[]float32{0.5, 0.5, 0.2, 1},
		[]float32{0.5, 0.5, 0.9, 2},
	)
	b, err := g.Generate(points, 0)
	require.NoError(t, err)

	require.Equal(t, 1, b.NumVoxels)
	assert.Equal(t, 1, b.Count(0))
	assert.Equal(t, []float32{0.5, 0.5, 0.2, 1}, b.Point(0, 0))
	assert.Equal(t, uint64(1), g.Stats().PointsDroppedVoxelFull)
}

// TestBlockFilterSeesVoxelCapacityDrops checks points rejected for voxel
// capacity still feed their block accumulator.
func TestBlockFilterSeesVoxelCapacityDrops(t *testing.T) {
	t.Parallel()

	cfg := blockGridConfig().WithMaxVoxels(1)
	g, err := NewGenerator(cfg)
	require.NoError(t, err)

	// Both points share block (0, 0); the second lands in a different
	// cell that no voxel slot is left for, yet its height still counts
	// toward the block spread that keeps the first voxel.
	points := flatten(
		[]float32{0.5, 0.5, 0.2, 1},
		[]float32{1.5, 0.5, 0.9, 2},
	)
	b, err := g.Generate(points, 0)
	require.NoError(t, err)

	require.Equal(t, 1, b.NumVoxels)
	z, y, x := b.Coord(0)
	assert.Equal(t, [3]int32{0, 0, 0}, [3]int32{z, y, x})
	assert.Equal(t, uint64(1), g.Stats().PointsDroppedGridFull)
}

// TestBlockFilterCompactionOrder checks survivors keep their original
// assignment order after mask-and-gather.
func TestBlockFilterCompactionOrder(t *testing.T) {
	t.Parallel()

	g, err := NewGenerator(blockGridConfig())
	require.NoError(t, err)

	// Assignment order alternates between a flat block and a spread
	// block; the survivors must come out in first-touch order.
	points := flatten(
		[]float32{2.5, 0.5, 0.1, 1}, // spread block, cell x=2
		[]float32{0.5, 0.5, 0.5, 2}, // flat block, rejected
		[]float32{3.5, 0.5, 0.1, 3}, // spread block, cell x=3
		[]float32{2.5, 0.5, 0.9, 4}, // stretches the spread block
	)
	b, err := g.Generate(points, 0)
	require.NoError(t, err)

	require.Equal(t, 2, b.NumVoxels)
	_, _, x0 := b.Coord(0)
	_, _, x1 := b.Coord(1)
	assert.Equal(t, int32(2), x0)
	assert.Equal(t, int32(3), x1)
	assert.Equal(t, 2, b.Count(0))
	assert.Equal(t, 1, b.Count(1))
}

// TestBlockFilterPadded checks the padded variant applies the filter and
// zeroes everything past the survivors.
func TestBlockFilterPadded(t *testing.T) {
	t.Parallel()

	cfg := blockGridConfig().WithMaxVoxels(8)
	g, err := NewGenerator(cfg)
	require.NoError(t, err)

	points := flatten(
		[]float32{0.5, 0.5, 0.5, 1}, // flat block, rejected
		[]float32{2.5, 2.5, 0.1, 2},
		[]float32{2.5, 2.5, 0.9, 3},
	)
	b, err := g.GeneratePadded(points, 0)
	require.NoError(t, err)

	require.Equal(t, 1, b.NumVoxels)
	require.Equal(t, 8, b.Rows())

	z, y, x := b.Coord(0)
	assert.Equal(t, [3]int32{0, 2, 2}, [3]int32{z, y, x})
	assert.Equal(t, 2, b.Count(0))

	for i := 1; i < b.Rows(); i++ {
		assert.Zero(t, b.Counts[i], "row %d count", i)
		z, y, x := b.Coord(i)
		assert.Equal(t, [3]int32{0, 0, 0}, [3]int32{z, y, x}, "row %d coord", i)
		for _, v := range b.Voxel(i) {
			if v != 0 {
				t.Fatalf("padded row %d not zeroed", i)
			}
		}
	}
}
