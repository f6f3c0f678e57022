package voxelgrid

import "math"

// gridGeometry precomputes the cell arithmetic used by the voxelization
// pass: per-axis cell counts and the flattened (z, y, x) row-major cell
// index. Cell derivation must floor with the same float32 semantics used
// by Config.GridSize so boundary points cannot round into the grid.
type gridGeometry struct {
	voxelSize [3]float32
	rangeMin  [3]float32
	sizeX     int32
	sizeY     int32
	sizeZ     int32
}

func newGridGeometry(c *Config) gridGeometry {
	gs := c.GridSize()
	return gridGeometry{
		voxelSize: c.VoxelSize,
		rangeMin:  [3]float32{c.PointCloudRange[0], c.PointCloudRange[1], c.PointCloudRange[2]},
		sizeX:     int32(gs[0]),
		sizeY:     int32(gs[1]),
		sizeZ:     int32(gs[2]),
	}
}

// cellOf maps a continuous xyz position to integer cell coordinates.
// ok is false when the position falls outside the configured range; a
// position exactly on the upper bound is out of range because its cell
// index would equal the grid size.
func (g *gridGeometry) cellOf(x, y, z float32) (cx, cy, cz int32, ok bool) {
	cx, ok = cellFloor(x, g.rangeMin[0], g.voxelSize[0], g.sizeX)
	if !ok {
		return 0, 0, 0, false
	}
	cy, ok = cellFloor(y, g.rangeMin[1], g.voxelSize[1], g.sizeY)
	if !ok {
		return 0, 0, 0, false
	}
	cz, ok = cellFloor(z, g.rangeMin[2], g.voxelSize[2], g.sizeZ)
	if !ok {
		return 0, 0, 0, false
	}
	return cx, cy, cz, true
}

// cellFloor computes floor((v - min) / size) and bounds-checks it against
// the axis cell count before converting, so NaN and out-of-range values
// reject rather than producing a garbage index.
func cellFloor(v, min, size float32, cells int32) (int32, bool) {
	f := math.Floor(float64((v - min) / size))
	if !(f >= 0 && f < float64(cells)) {
		return 0, false
	}
	return int32(f), true
}

// cellIndex flattens cell coordinates in (z, y, x) row-major order.
func (g *gridGeometry) cellIndex(cx, cy, cz int32) int32 {
	return (cz*g.sizeY+cy)*g.sizeX + cx
}

// cells reports the dense grid volume.
func (g *gridGeometry) cells() int {
	return int(g.sizeX) * int(g.sizeY) * int(g.sizeZ)
}
