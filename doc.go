// Package voxelgrid converts unordered point clouds into fixed-capacity
// regular voxel grids for sparse downstream processing.
//
// One Generator owns a voxelization session: it validates the grid
// geometry once, keeps a dense cell-to-slot registry alive across calls,
// and voxelizes each cloud in a single ordered pass. Per-voxel and
// total-voxel capacities are hard bounds: points past a full voxel
// buffer and voxels past the batch capacity are dropped silently and
// surface only in the generator's drop counters. Four accumulation
// variants share the pass: plain raw-point storage, full-mean (unused
// buffer rows filled with the running per-channel mean), height
// tracking (per-voxel min/max of the height channel) and block
// filtering (voxels in flat regions of a coarse XY block grid are
// rejected after the pass).
//
// The package performs no I/O and holds no global state; everything
// hangs off the Generator. Callers that need parallel voxelization
// construct one Generator per goroutine, since the registry is the one
// piece of mutable state a call depends on.
package voxelgrid
