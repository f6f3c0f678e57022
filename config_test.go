package voxelgrid

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestDefaultConfigValid checks the shipped defaults validate and derive
// the expected car-scale grid.
func TestDefaultConfigValid(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, [3]int{352, 400, 1}, cfg.GridSize())
}

// TestConfigValidate exercises the eager validation paths.
func TestConfigValidate(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:    "zero voxel size",
			mutate:  func(c *Config) { c.VoxelSize[0] = 0 },
			wantErr: "VoxelSize[0] must be positive",
		},
		{
			name:    "negative voxel size",
			mutate:  func(c *Config) { c.VoxelSize[2] = -1 },
			wantErr: "VoxelSize[2] must be positive",
		},
		{
			name: "reversed range",
			mutate: func(c *Config) {
				c.PointCloudRange[1], c.PointCloudRange[4] = 40, -40
			},
			wantErr: "max must exceed min on axis 1",
		},
		{
			name:    "zero max points per voxel",
			mutate:  func(c *Config) { c.MaxPointsPerVoxel = 0 },
			wantErr: "MaxPointsPerVoxel must be at least 1",
		},
		{
			name:    "negative max voxels",
			mutate:  func(c *Config) { c.MaxVoxels = -1 },
			wantErr: "MaxVoxels must be non-negative",
		},
		{
			name:    "stride below xyz",
			mutate:  func(c *Config) { c.PointStride = 2 },
			wantErr: "PointStride must be at least 3",
		},
		{
			name: "full mean with block filtering",
			mutate: func(c *Config) {
				c.FullMean = true
				c.BlockFiltering = true
			},
			wantErr: "at most one of",
		},
		{
			name: "full mean with height tracking",
			mutate: func(c *Config) {
				c.FullMean = true
				c.WithHeight = true
			},
			wantErr: "at most one of",
		},
		{
			name: "grid collapses on an axis",
			mutate: func(c *Config) {
				c.VoxelSize[2] = 100
			},
			wantErr: "at least one cell on axis 2",
		},
		{
			name: "block factor does not divide grid",
			mutate: func(c *Config) {
				c.BlockFiltering = true
				c.BlockFactor = 7
			},
			wantErr: "must be divisible by BlockFactor",
		},
		{
			name: "zero block size",
			mutate: func(c *Config) {
				c.BlockFiltering = true
				c.BlockSize = 0
			},
			wantErr: "BlockSize must be positive",
		},
		{
			name: "negative height threshold",
			mutate: func(c *Config) {
				c.BlockFiltering = true
				c.HeightThreshold = -0.5
			},
			wantErr: "HeightThreshold must be non-negative",
		},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			cfg := DefaultConfig()
			tc.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantErr)
		})
	}
}

// TestConfigZeroMaxVoxelsAllowed checks the degenerate capacity is a
// valid configuration rather than an error.
func TestConfigZeroMaxVoxelsAllowed(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig().WithMaxVoxels(0)
	assert.NoError(t, cfg.Validate())
}

// TestConfigBlockFilterDefaultsValidate checks that enabling the filter
// on top of the defaults passes the divisibility checks.
func TestConfigBlockFilterDefaultsValidate(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig().WithBlockFiltering(true)
	assert.NoError(t, cfg.Validate())
}

// TestConfigChainedSetters checks the builder-style setters land on the
// right fields.
func TestConfigChainedSetters(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig().
		WithVoxelSize(1, 1, 2).
		WithPointCloudRange([6]float32{0, 0, 0, 8, 8, 2}).
		WithMaxPointsPerVoxel(5).
		WithMaxVoxels(100).
		WithPointStride(5).
		WithBlockFiltering(true).
		WithBlockFactor(4).
		WithBlockSize(2).
		WithHeightThreshold(0.25)

	require.NoError(t, cfg.Validate())
	assert.Equal(t, [3]float32{1, 1, 2}, cfg.VoxelSize)
	assert.Equal(t, [3]int{8, 8, 1}, cfg.GridSize())
	assert.Equal(t, 5, cfg.MaxPointsPerVoxel)
	assert.Equal(t, 100, cfg.MaxVoxels)
	assert.Equal(t, 5, cfg.PointStride)
	assert.True(t, cfg.BlockFiltering)
	assert.Equal(t, 4, cfg.BlockFactor)
	assert.Equal(t, 2, cfg.BlockSize)
	assert.InDelta(t, 0.25, cfg.HeightThreshold, 1e-6)
}
