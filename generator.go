package voxelgrid

import (
	"fmt"
	"sync"
)

// Generator owns one voxelization session: the validated configuration,
// the reusable cell registry and, when block filtering is enabled, the
// coarse block accumulator grid. A Generator serializes its calls
// internally; callers that want parallel voxelization construct one
// Generator per goroutine.
type Generator struct {
	mu       sync.Mutex
	cfg      Config
	geom     gridGeometry
	registry *CellRegistry
	blocks   *blockAccumulator
	stats    GeneratorStats
}

// GeneratorStats counts the silent drop outcomes of the voxelization
// pass, cumulative across calls. Drops are the normal consequence of the
// capacity contract, not errors.
type GeneratorStats struct {
	Calls                  uint64
	PointsProcessed        uint64 // in-range points routed to a live voxel slot
	PointsOutOfRange       uint64 // points outside the configured range
	PointsDroppedVoxelFull uint64 // routed to a voxel whose buffer was full (full-mean still folds these into the mean)
	PointsDroppedGridFull  uint64 // dropped because the voxel capacity was exhausted
	VoxelsRejectedByFilter uint64 // voxels removed by the block height filter
}

// NewGenerator validates cfg and builds a generator with a freshly
// allocated registry sized to the configured grid. The config is copied;
// later changes to cfg do not affect the generator.
func NewGenerator(cfg *Config) (*Generator, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config must not be nil")
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid voxelization config: %w", err)
	}
	g := &Generator{cfg: *cfg, geom: newGridGeometry(cfg)}
	g.registry = NewCellRegistry(g.geom.cells())
	if cfg.BlockFiltering {
		gs := cfg.GridSize()
		g.blocks = newBlockAccumulator(gs[0], gs[1], cfg.BlockFactor, cfg.HeightThreshold)
	}
	return g, nil
}

// Config returns a copy of the generator's configuration.
func (g *Generator) Config() Config {
	return g.cfg
}

// GridSize returns the cell count per axis in (x, y, z) order.
func (g *Generator) GridSize() [3]int {
	return g.cfg.GridSize()
}

// Generate voxelizes points, a flat buffer of PointStride floats per
// record, and returns a batch trimmed to the voxels actually produced.
// maxVoxels overrides the configured voxel capacity for this call when
// positive; the stored configuration is never modified. Points outside
// the range and points past capacity are dropped silently, visible only
// through Stats.
func (g *Generator) Generate(points []float32, maxVoxels int) (*Batch, error) {
	return g.run(points, maxVoxels, false)
}

// GeneratePadded voxelizes points like Generate but returns
// capacity-shaped arrays: every row beyond NumVoxels is zero. Downstream
// consumers that batch independent calls need the static shape. The full
// configuration applies, block filtering and height threshold included.
func (g *Generator) GeneratePadded(points []float32, maxVoxels int) (*Batch, error) {
	return g.run(points, maxVoxels, true)
}

func (g *Generator) run(points []float32, maxVoxels int, pad bool) (*Batch, error) {
	stride := g.cfg.PointStride
	if len(points)%stride != 0 {
		return nil, fmt.Errorf("point buffer length %d is not a multiple of stride %d", len(points), stride)
	}
	if maxVoxels <= 0 {
		maxVoxels = g.cfg.MaxVoxels
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	maxPts := g.cfg.MaxPointsPerVoxel
	out := &Batch{
		Voxels:    make([]float32, maxVoxels*maxPts*stride),
		Coords:    make([]int32, maxVoxels*3),
		Counts:    make([]int32, maxVoxels),
		MaxPoints: maxPts,
		Stride:    stride,
	}

	var acc accumulator
	switch {
	case g.cfg.FullMean:
		out.Means = make([]float32, maxVoxels*stride)
		acc = newFullMeanAccumulator(maxVoxels, stride)
	case g.cfg.WithHeight:
		out.MinHeights = make([]float32, maxVoxels)
		out.MaxHeights = make([]float32, maxVoxels)
		acc = newHeightAccumulator(maxVoxels)
	case g.cfg.BlockFiltering:
		g.blocks.reset()
		acc = g.blocks
	default:
		acc = plainAccumulator{}
	}

	// Stale registry entries from a previous call are a correctness bug,
	// so the reset happens at the start of the pass, not the end.
	g.registry.Reset()
	g.stats.Calls++

	for off := 0; off+stride <= len(points); off += stride {
		p := points[off : off+stride]
		cx, cy, cz, ok := g.geom.cellOf(p[0], p[1], p[2])
		if !ok {
			g.stats.PointsOutOfRange++
			continue
		}
		acc.observe(cx, cy, p)
		slot, isNew := g.registry.LookupOrAssign(g.geom.cellIndex(cx, cy, cz), maxVoxels)
		if slot < 0 {
			g.stats.PointsDroppedGridFull++
			continue
		}
		if isNew {
			c := out.Coords[int(slot)*3:]
			c[0], c[1], c[2] = cz, cy, cx
		}
		if n := out.Counts[slot]; int(n) < maxPts {
			copy(out.Voxels[(int(slot)*maxPts+int(n))*stride:], p)
			out.Counts[slot] = n + 1
		} else {
			g.stats.PointsDroppedVoxelFull++
		}
		g.stats.PointsProcessed++
		acc.ingest(slot, p)
	}

	used := g.registry.Used()
	kept := acc.finalize(out, used)
	g.stats.VoxelsRejectedByFilter += uint64(used - kept)
	out.NumVoxels = kept

	if !pad {
		out.Voxels = out.Voxels[:kept*maxPts*stride]
		out.Coords = out.Coords[:kept*3]
		out.Counts = out.Counts[:kept]
		if out.Means != nil {
			out.Means = out.Means[:kept*stride]
		}
		if out.MinHeights != nil {
			out.MinHeights = out.MinHeights[:kept]
			out.MaxHeights = out.MaxHeights[:kept]
		}
	}
	return out, nil
}

// Stats returns a snapshot of the cumulative drop counters.
func (g *Generator) Stats() GeneratorStats {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.stats
}

// ResetStats zeroes the cumulative drop counters.
func (g *Generator) ResetStats() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.stats = GeneratorStats{}
}
