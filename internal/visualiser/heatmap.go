package visualiser

import (
	"fmt"
	"io"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette/moreland"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/banshee-data/voxelgrid"
)

// bevGrid projects a batch onto the XY plane, summing point counts
// over each vertical column of voxels. It implements plotter.GridXYZ.
type bevGrid struct {
	counts []float64
	nx, ny int
	minX   float64
	minY   float64
	cellX  float64
	cellY  float64
}

func newBEVGrid(b *voxelgrid.Batch, cfg *voxelgrid.Config) *bevGrid {
	size := cfg.GridSize()
	g := &bevGrid{
		counts: make([]float64, size[0]*size[1]),
		nx:     size[0],
		ny:     size[1],
		minX:   float64(cfg.PointCloudRange[0]),
		minY:   float64(cfg.PointCloudRange[1]),
		cellX:  float64(cfg.VoxelSize[0]),
		cellY:  float64(cfg.VoxelSize[1]),
	}
	for i := 0; i < b.NumVoxels; i++ {
		_, cy, cx := b.Coord(i)
		g.counts[int(cy)*g.nx+int(cx)] += float64(b.Count(i))
	}
	return g
}

func (g *bevGrid) Dims() (c, r int)   { return g.nx, g.ny }
func (g *bevGrid) Z(c, r int) float64 { return g.counts[r*g.nx+c] }
func (g *bevGrid) X(c int) float64    { return g.minX + (float64(c)+0.5)*g.cellX }
func (g *bevGrid) Y(r int) float64    { return g.minY + (float64(r)+0.5)*g.cellY }

func buildHeatmapPlot(b *voxelgrid.Batch, cfg *voxelgrid.Config) *plot.Plot {
	p := plot.New()
	p.Title.Text = "Voxel Occupancy (Bird's Eye View)"
	p.X.Label.Text = "X (m)"
	p.Y.Label.Text = "Y (m)"

	pal := moreland.SmoothBlueRed().Palette(255)
	h := plotter.NewHeatMap(newBEVGrid(b, cfg), pal)
	h.Min = 0
	if h.Max <= h.Min {
		// Empty batch; keep the palette range non-degenerate.
		h.Max = h.Min + 1
	}
	p.Add(h)
	return p
}

// RenderHeatmap writes a PNG heatmap of per-XY-column point counts
// to w.
func RenderHeatmap(w io.Writer, b *voxelgrid.Batch, cfg *voxelgrid.Config) error {
	p := buildHeatmapPlot(b, cfg)
	wt, err := p.WriterTo(8*vg.Inch, 8*vg.Inch, "png")
	if err != nil {
		return fmt.Errorf("failed to render heatmap: %w", err)
	}
	if _, err := wt.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write heatmap: %w", err)
	}
	return nil
}

// SaveHeatmapPNG renders the heatmap directly to a file.
func SaveHeatmapPNG(path string, b *voxelgrid.Batch, cfg *voxelgrid.Config) error {
	p := buildHeatmapPlot(b, cfg)
	if err := p.Save(8*vg.Inch, 8*vg.Inch, path); err != nil {
		return fmt.Errorf("save heatmap: %w", err)
	}
	return nil
}
