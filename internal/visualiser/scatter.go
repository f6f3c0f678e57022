package visualiser

import (
	"fmt"
	"io"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/banshee-data/voxelgrid"
)

// viridisRamp is the colour ramp used for the occupancy visual map.
var viridisRamp = []string{
	"#440154", "#482777", "#3e4989", "#31688e", "#26828e",
	"#1f9e89", "#35b779", "#6ece58", "#b5de2b", "#fde725",
}

// RenderScatterHTML writes an interactive HTML scatter of voxel
// centroids (XY plane) coloured by per-voxel point count to w.
func RenderScatterHTML(w io.Writer, b *voxelgrid.Batch, cfg *voxelgrid.Config) error {
	data := make([]opts.ScatterData, 0, b.NumVoxels)
	maxCount := float64(0)
	for i := 0; i < b.NumVoxels; i++ {
		_, cy, cx := b.Coord(i)
		x := float64(cfg.PointCloudRange[0]) + (float64(cx)+0.5)*float64(cfg.VoxelSize[0])
		y := float64(cfg.PointCloudRange[1]) + (float64(cy)+0.5)*float64(cfg.VoxelSize[1])
		count := float64(b.Count(i))
		if count > maxCount {
			maxCount = count
		}
		data = append(data, opts.ScatterData{Value: []interface{}{x, y, count}})
	}
	if maxCount == 0 {
		maxCount = 1
	}

	scatter := charts.NewScatter()
	scatter.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "Voxel Occupancy", Theme: "dark", Width: "900px", Height: "900px"}),
		charts.WithTitleOpts(opts.Title{Title: "Voxel Centroids", Subtitle: fmt.Sprintf("voxels=%d points=%d", b.NumVoxels, b.TotalPoints())}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Min: cfg.PointCloudRange[0], Max: cfg.PointCloudRange[3], Name: "X (m)", NameLocation: "middle", NameGap: 25}),
		charts.WithYAxisOpts(opts.YAxis{Min: cfg.PointCloudRange[1], Max: cfg.PointCloudRange[4], Name: "Y (m)", NameLocation: "middle", NameGap: 30}),
		charts.WithVisualMapOpts(opts.VisualMap{
			Show:       opts.Bool(true),
			Calculable: opts.Bool(true),
			Min:        0,
			Max:        float32(maxCount),
			Dimension:  "2",
			InRange:    &opts.VisualMapInRange{Color: viridisRamp},
		}),
	)

	scatter.AddSeries("voxels", data, charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 3}))

	if err := scatter.Render(w); err != nil {
		return fmt.Errorf("failed to render chart: %w", err)
	}
	return nil
}
