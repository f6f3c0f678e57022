package voxelgrid

import (
	"fmt"
	"math"
)

// Config describes one voxelization session: grid geometry, capacity
// limits and the accumulation variant applied during the pass.
type Config struct {
	VoxelSize         [3]float32 // cell extent per axis in metres, xyz (default: 0.2, 0.2, 4)
	PointCloudRange   [6]float32 // spatial bounds xmin,ymin,zmin,xmax,ymax,zmax (default: 0, -40, -3, 70.4, 40, 1)
	MaxPointsPerVoxel int        // point capacity of each voxel buffer (default: 35)
	MaxVoxels         int        // voxel capacity of one call; 0 yields empty batches (default: 20000)
	PointStride       int        // floats per point record, first three are xyz (default: 4)

	// Accumulation variants. At most one may be enabled; all disabled
	// selects plain raw-point storage.
	FullMean       bool // fill unused buffer rows with the running per-channel mean
	WithHeight     bool // track per-voxel min/max of the height channel, informational only
	BlockFiltering bool // reject voxels in blocks with insufficient height spread

	BlockFactor     int     // fine cells per coarse block edge on the XY plane (default: 8)
	BlockSize       int     // reserved block accumulator sizing parameter (default: 3)
	HeightThreshold float32 // minimum block max-min height spread to keep a voxel (default: 0.1)
}

// DefaultConfig returns the car-scale LiDAR defaults: 0.2 m planar cells
// over x in [0, 70.4], y in [-40, 40], z in [-3, 1], with every
// accumulation variant disabled.
func DefaultConfig() *Config {
	return &Config{
		VoxelSize:         [3]float32{0.2, 0.2, 4},
		PointCloudRange:   [6]float32{0, -40, -3, 70.4, 40, 1},
		MaxPointsPerVoxel: 35,
		MaxVoxels:         20000,
		PointStride:       4,
		BlockFactor:       8,
		BlockSize:         3,
		HeightThreshold:   0.1,
	}
}

// GridSize returns the cell count per axis in (x, y, z) order, derived by
// rounding the range span divided by the voxel size.
func (c *Config) GridSize() [3]int {
	var gs [3]int
	for i := 0; i < 3; i++ {
		span := c.PointCloudRange[i+3] - c.PointCloudRange[i]
		gs[i] = int(math.Round(float64(span / c.VoxelSize[i])))
	}
	return gs
}

// Validate checks the configuration for use with NewGenerator.
// Returns an error describing the first invalid parameter found.
func (c *Config) Validate() error {
	for i := 0; i < 3; i++ {
		if !(c.VoxelSize[i] > 0) {
			return fmt.Errorf("VoxelSize[%d] must be positive, got %v", i, c.VoxelSize[i])
		}
	}
	for i := 0; i < 3; i++ {
		if !(c.PointCloudRange[i+3] > c.PointCloudRange[i]) {
			return fmt.Errorf("PointCloudRange max must exceed min on axis %d, got [%v, %v]",
				i, c.PointCloudRange[i], c.PointCloudRange[i+3])
		}
	}
	if c.MaxPointsPerVoxel < 1 {
		return fmt.Errorf("MaxPointsPerVoxel must be at least 1, got %d", c.MaxPointsPerVoxel)
	}
	if c.MaxVoxels < 0 {
		return fmt.Errorf("MaxVoxels must be non-negative, got %d", c.MaxVoxels)
	}
	if c.PointStride < 3 {
		return fmt.Errorf("PointStride must be at least 3, got %d", c.PointStride)
	}
	modes := 0
	for _, on := range []bool{c.FullMean, c.WithHeight, c.BlockFiltering} {
		if on {
			modes++
		}
	}
	if modes > 1 {
		return fmt.Errorf("at most one of FullMean, WithHeight and BlockFiltering may be enabled")
	}
	gs := c.GridSize()
	cells := 1
	for i := 0; i < 3; i++ {
		if gs[i] < 1 {
			return fmt.Errorf("grid must span at least one cell on axis %d, got %d (voxel %v over [%v, %v])",
				i, gs[i], c.VoxelSize[i], c.PointCloudRange[i], c.PointCloudRange[i+3])
		}
		cells *= gs[i]
	}
	if cells > math.MaxInt32 {
		return fmt.Errorf("grid volume %d exceeds the 32-bit cell index space", cells)
	}
	if c.BlockFiltering {
		if c.BlockFactor < 1 {
			return fmt.Errorf("BlockFactor must be at least 1, got %d", c.BlockFactor)
		}
		if c.BlockSize <= 0 {
			return fmt.Errorf("BlockSize must be positive, got %d", c.BlockSize)
		}
		if c.HeightThreshold < 0 {
			return fmt.Errorf("HeightThreshold must be non-negative, got %v", c.HeightThreshold)
		}
		if gs[0]%c.BlockFactor != 0 {
			return fmt.Errorf("grid size X (%d) must be divisible by BlockFactor (%d)", gs[0], c.BlockFactor)
		}
		if gs[1]%c.BlockFactor != 0 {
			return fmt.Errorf("grid size Y (%d) must be divisible by BlockFactor (%d)", gs[1], c.BlockFactor)
		}
	}
	return nil
}

// WithVoxelSize sets the per-axis cell extents.
func (c *Config) WithVoxelSize(x, y, z float32) *Config {
	c.VoxelSize = [3]float32{x, y, z}
	return c
}

// WithPointCloudRange sets the spatial bounds as xmin,ymin,zmin,xmax,ymax,zmax.
func (c *Config) WithPointCloudRange(r [6]float32) *Config {
	c.PointCloudRange = r
	return c
}

// WithMaxPointsPerVoxel sets the point capacity of each voxel buffer.
func (c *Config) WithMaxPointsPerVoxel(n int) *Config {
	c.MaxPointsPerVoxel = n
	return c
}

// WithMaxVoxels sets the voxel capacity of one call.
func (c *Config) WithMaxVoxels(n int) *Config {
	c.MaxVoxels = n
	return c
}

// WithPointStride sets the number of floats per point record.
func (c *Config) WithPointStride(n int) *Config {
	c.PointStride = n
	return c
}

// WithFullMean enables or disables full-mean accumulation.
func (c *Config) WithFullMean(enabled bool) *Config {
	c.FullMean = enabled
	return c
}

// WithHeightTracking enables or disables per-voxel height min/max tracking.
func (c *Config) WithHeightTracking(enabled bool) *Config {
	c.WithHeight = enabled
	return c
}

// WithBlockFiltering enables or disables the block height filter.
func (c *Config) WithBlockFiltering(enabled bool) *Config {
	c.BlockFiltering = enabled
	return c
}

// WithBlockFactor sets the number of fine cells per coarse block edge.
func (c *Config) WithBlockFactor(n int) *Config {
	c.BlockFactor = n
	return c
}

// WithBlockSize sets the reserved block accumulator sizing parameter.
func (c *Config) WithBlockSize(n int) *Config {
	c.BlockSize = n
	return c
}

// WithHeightThreshold sets the minimum block height spread to keep a voxel.
func (c *Config) WithHeightThreshold(t float32) *Config {
	c.HeightThreshold = t
	return c
}
