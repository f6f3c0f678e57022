// Package visualiser renders quick-look views of a voxelized batch.
//
// Two outputs are supported: a bird's-eye-view occupancy heatmap as a
// PNG (gonum/plot) and an interactive HTML scatter of voxel centroids
// coloured by point count (go-echarts). Both read only the public
// Batch tensors and are used by the voxelize CLI to eyeball grid and
// block-filter tuning.
package visualiser
