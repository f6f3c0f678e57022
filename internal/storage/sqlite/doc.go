// Package sqlite persists voxelization runs and their output batches.
//
// A run row records the generator configuration and point source for
// one session; each generated batch is stored under (run_id,
// batch_index) with its coordinate, count and voxel tensors
// gob-encoded and zstd-compressed. Database access for the voxelize
// CLI belongs here rather than in the engine package, which performs
// no I/O.
package sqlite
