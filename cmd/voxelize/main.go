// Command voxelize turns a point cloud file (or a synthetic scene)
// into a voxel batch, prints a summary and optionally persists or
// renders the result.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/stat"

	"github.com/banshee-data/voxelgrid"
	"github.com/banshee-data/voxelgrid/internal/config"
	"github.com/banshee-data/voxelgrid/internal/monitoring"
	"github.com/banshee-data/voxelgrid/internal/pointio"
	"github.com/banshee-data/voxelgrid/internal/storage/sqlite"
	"github.com/banshee-data/voxelgrid/internal/version"
	"github.com/banshee-data/voxelgrid/internal/visualiser"
)

// parseFloat32Slice parses a comma-separated list of exactly n floats.
func parseFloat32Slice(s string, n int) ([]float32, error) {
	parts := strings.Split(s, ",")
	if len(parts) != n {
		return nil, fmt.Errorf("expected %d comma-separated values, got %d", n, len(parts))
	}
	out := make([]float32, 0, n)
	for _, p := range parts {
		p = strings.TrimSpace(p)
		v, err := strconv.ParseFloat(p, 32)
		if err != nil {
			return nil, fmt.Errorf("invalid float '%s': %w", p, err)
		}
		out = append(out, float32(v))
	}
	return out, nil
}

// runSummary is the printed (or JSON-encoded) result of one run.
type runSummary struct {
	Source                 string  `json:"source"`
	InputPoints            int     `json:"input_points"`
	GridSize               [3]int  `json:"grid_size"`
	Voxels                 int     `json:"voxels"`
	StoredPoints           int     `json:"stored_points"`
	PointsOutOfRange       uint64  `json:"points_out_of_range"`
	PointsDroppedVoxelFull uint64  `json:"points_dropped_voxel_full"`
	PointsDroppedGridFull  uint64  `json:"points_dropped_grid_full"`
	VoxelsRejectedByFilter uint64  `json:"voxels_rejected_by_filter"`
	CountMean              float64 `json:"count_mean"`
	CountP50               float64 `json:"count_p50"`
	CountP90               float64 `json:"count_p90"`
	CountMax               float64 `json:"count_max"`
}

func buildSummary(b *voxelgrid.Batch, cfg *voxelgrid.Config, gs voxelgrid.GeneratorStats, source string, inputPoints int) runSummary {
	s := runSummary{
		Source:                 source,
		InputPoints:            inputPoints,
		GridSize:               cfg.GridSize(),
		Voxels:                 b.NumVoxels,
		StoredPoints:           b.TotalPoints(),
		PointsOutOfRange:       gs.PointsOutOfRange,
		PointsDroppedVoxelFull: gs.PointsDroppedVoxelFull,
		PointsDroppedGridFull:  gs.PointsDroppedGridFull,
		VoxelsRejectedByFilter: gs.VoxelsRejectedByFilter,
	}
	if b.NumVoxels > 0 {
		counts := make([]float64, b.NumVoxels)
		for i := 0; i < b.NumVoxels; i++ {
			counts[i] = float64(b.Count(i))
		}
		sort.Float64s(counts)
		s.CountMean = stat.Mean(counts, nil)
		s.CountP50 = stat.Quantile(0.5, stat.Empirical, counts, nil)
		s.CountP90 = stat.Quantile(0.9, stat.Empirical, counts, nil)
		s.CountMax = counts[len(counts)-1]
	}
	return s
}

func printSummary(s runSummary) {
	fmt.Printf("source:            %s\n", s.Source)
	fmt.Printf("input points:      %d\n", s.InputPoints)
	fmt.Printf("grid size:         %d x %d x %d\n", s.GridSize[0], s.GridSize[1], s.GridSize[2])
	fmt.Printf("voxels:            %d\n", s.Voxels)
	fmt.Printf("stored points:     %d\n", s.StoredPoints)
	fmt.Printf("out of range:      %d\n", s.PointsOutOfRange)
	fmt.Printf("voxel-full drops:  %d\n", s.PointsDroppedVoxelFull)
	fmt.Printf("grid-full drops:   %d\n", s.PointsDroppedGridFull)
	fmt.Printf("filtered voxels:   %d\n", s.VoxelsRejectedByFilter)
	fmt.Printf("points per voxel:  mean=%.2f p50=%.0f p90=%.0f max=%.0f\n",
		s.CountMean, s.CountP50, s.CountP90, s.CountMax)
}

// loadPoints reads the cloud from -input or builds a synthetic scene.
func loadPoints(input string, synthetic int, seed int64, stride int) ([]float32, string, error) {
	if input != "" {
		ext := strings.ToLower(filepath.Ext(input))
		var points []float32
		var err error
		switch ext {
		case ".bin":
			points, err = pointio.ReadBin(input, stride)
		case ".csv":
			points, err = pointio.ReadCSVFile(input, stride)
		default:
			return nil, "", fmt.Errorf("unsupported input extension %q (want .bin or .csv)", ext)
		}
		if err != nil {
			return nil, "", err
		}
		return points, ext[1:] + ":" + filepath.Base(input), nil
	}
	if synthetic > 0 {
		scene := pointio.NewScene(seed)
		scene.GroundPoints = synthetic
		scene.Stride = stride
		return scene.Cloud(), fmt.Sprintf("synthetic:seed=%d", seed), nil
	}
	return nil, "", fmt.Errorf("no input: provide -input or -synthetic")
}

func main() {
	// Input selection
	input := flag.String("input", "", "Point cloud file (.bin float32 LE records or .csv)")
	stride := flag.Int("stride", 0, "Floats per point record in the input (overrides the tuning's point_stride)")
	synthetic := flag.Int("synthetic", 0, "Generate a synthetic scene with this many ground points instead of reading a file")
	seed := flag.Int64("seed", 42, "Seed for the synthetic scene")

	// Tuning and per-option overrides
	configPath := flag.String("config", "", "Tuning file (.json or .yaml)")
	voxelSize := flag.String("voxel-size", "", "Override voxel size as x,y,z (e.g. 0.2,0.2,4)")
	cloudRange := flag.String("range", "", "Override point cloud range as xmin,ymin,zmin,xmax,ymax,zmax")
	maxPoints := flag.Int("max-points", 0, "Override max points per voxel")
	maxVoxels := flag.Int("max-voxels", -1, "Override max voxels per call")
	fullMean := flag.Bool("full-mean", false, "Enable full-mean accumulation")
	withHeight := flag.Bool("with-height", false, "Enable per-voxel height min/max tracking")
	blockFiltering := flag.Bool("block-filtering", false, "Enable the block height filter")
	blockFactor := flag.Int("block-factor", 0, "Override fine cells per coarse block edge")
	blockSize := flag.Int("block-size", 0, "Override the block accumulator sizing parameter")
	heightThreshold := flag.Float64("height-threshold", -1, "Override the block height spread threshold")
	padded := flag.Bool("padded", false, "Return capacity-shaped zero-padded arrays")

	// Outputs
	jsonOut := flag.Bool("json", false, "Print the summary as JSON")
	dbPath := flag.String("db", "", "SQLite database to persist the run (created if missing)")
	sensorID := flag.String("sensor", "", "Sensor ID recorded with the run")
	notes := flag.String("notes", "", "Free-form notes recorded with the run")
	heatmapPath := flag.String("heatmap", "", "Write a BEV occupancy heatmap PNG to this path")
	htmlPath := flag.String("html", "", "Write an interactive voxel scatter HTML to this path")
	showVersion := flag.Bool("version", false, "Print the version and exit")

	flag.Parse()

	if *showVersion {
		fmt.Println(version.String())
		return
	}

	tuning := &config.Tuning{}
	if *configPath != "" {
		t, err := config.Load(*configPath)
		if err != nil {
			log.Fatalf("Failed to load tuning: %v", err)
		}
		tuning = t
	}
	cfg, err := tuning.EngineConfig()
	if err != nil {
		log.Fatalf("Invalid tuning: %v", err)
	}

	if *voxelSize != "" {
		vs, err := parseFloat32Slice(*voxelSize, 3)
		if err != nil {
			log.Fatalf("Invalid -voxel-size: %v", err)
		}
		copy(cfg.VoxelSize[:], vs)
	}
	if *cloudRange != "" {
		rg, err := parseFloat32Slice(*cloudRange, 6)
		if err != nil {
			log.Fatalf("Invalid -range: %v", err)
		}
		copy(cfg.PointCloudRange[:], rg)
	}
	if *maxPoints > 0 {
		cfg.MaxPointsPerVoxel = *maxPoints
	}
	if *maxVoxels >= 0 {
		cfg.MaxVoxels = *maxVoxels
	}
	if *stride > 0 {
		cfg.PointStride = *stride
	}
	if *fullMean {
		cfg.FullMean = true
	}
	if *withHeight {
		cfg.WithHeight = true
	}
	if *blockFiltering {
		cfg.BlockFiltering = true
	}
	if *blockFactor > 0 {
		cfg.BlockFactor = *blockFactor
	}
	if *blockSize > 0 {
		cfg.BlockSize = *blockSize
	}
	if *heightThreshold >= 0 {
		cfg.HeightThreshold = float32(*heightThreshold)
	}

	gen, err := voxelgrid.NewGenerator(cfg)
	if err != nil {
		log.Fatalf("Failed to build generator: %v", err)
	}

	points, source, err := loadPoints(*input, *synthetic, *seed, cfg.PointStride)
	if err != nil {
		log.Fatalf("Failed to load points: %v", err)
	}

	done := monitoring.Timed("voxelize")
	var batch *voxelgrid.Batch
	if *padded {
		batch, err = gen.GeneratePadded(points, 0)
	} else {
		batch, err = gen.Generate(points, 0)
	}
	done()
	if err != nil {
		log.Fatalf("Voxelization failed: %v", err)
	}

	summary := buildSummary(batch, cfg, gen.Stats(), source, len(points)/cfg.PointStride)
	if *jsonOut {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(summary); err != nil {
			log.Fatalf("Failed to encode summary: %v", err)
		}
	} else {
		printSummary(summary)
	}

	if *dbPath != "" {
		db, err := sqlite.Open(*dbPath)
		if err != nil {
			log.Fatalf("Failed to open database: %v", err)
		}
		defer db.Close()

		configJSON, err := json.Marshal(tuningFromConfig(cfg))
		if err != nil {
			log.Fatalf("Failed to marshal config: %v", err)
		}
		gs := cfg.GridSize()
		run := &sqlite.Run{
			Source:      source,
			SensorID:    *sensorID,
			Notes:       *notes,
			PointStride: cfg.PointStride,
			GridX:       gs[0],
			GridY:       gs[1],
			GridZ:       gs[2],
			ConfigJSON:  configJSON,
		}
		store := sqlite.NewRunStore(db)
		if err := store.CreateRun(run); err != nil {
			log.Fatalf("Failed to create run: %v", err)
		}
		if err := store.AppendBatch(run.RunID, 0, batch); err != nil {
			log.Fatalf("Failed to store batch: %v", err)
		}
		log.Printf("Stored run %s in %s", run.RunID, *dbPath)
	}

	if *heatmapPath != "" {
		if err := visualiser.SaveHeatmapPNG(*heatmapPath, batch, cfg); err != nil {
			log.Fatalf("Failed to render heatmap: %v", err)
		}
		log.Printf("Wrote heatmap to %s", *heatmapPath)
	}
	if *htmlPath != "" {
		f, err := os.Create(*htmlPath)
		if err != nil {
			log.Fatalf("Failed to create %s: %v", *htmlPath, err)
		}
		if err := visualiser.RenderScatterHTML(f, batch, cfg); err != nil {
			f.Close()
			log.Fatalf("Failed to render scatter: %v", err)
		}
		if err := f.Close(); err != nil {
			log.Fatalf("Failed to write %s: %v", *htmlPath, err)
		}
		log.Printf("Wrote scatter to %s", *htmlPath)
	}
}

// tuningFromConfig round-trips the effective configuration into the
// tuning file schema so stored config_json uses the same keys as
// tuning files.
func tuningFromConfig(cfg *voxelgrid.Config) *config.Tuning {
	vs := append([]float32(nil), cfg.VoxelSize[:]...)
	rg := append([]float32(nil), cfg.PointCloudRange[:]...)
	maxPoints := cfg.MaxPointsPerVoxel
	maxVoxels := cfg.MaxVoxels
	stride := cfg.PointStride
	fullMean := cfg.FullMean
	withHeight := cfg.WithHeight
	blockFiltering := cfg.BlockFiltering
	blockFactor := cfg.BlockFactor
	blockSize := cfg.BlockSize
	heightThreshold := cfg.HeightThreshold
	return &config.Tuning{
		VoxelSize:       vs,
		PointCloudRange: rg,
		MaxNumPoints:    &maxPoints,
		MaxVoxels:       &maxVoxels,
		PointStride:     &stride,
		FullMean:        &fullMean,
		WithHeight:      &withHeight,
		BlockFiltering:  &blockFiltering,
		BlockFactor:     &blockFactor,
		BlockSize:       &blockSize,
		HeightThreshold: &heightThreshold,
	}
}
