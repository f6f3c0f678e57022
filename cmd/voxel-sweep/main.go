// Command voxel-sweep voxelizes one point cloud under a grid of
// tuning parameter combinations and writes a CSV of the resulting
// voxel counts, filter rejections and drop counters. Its main use is
// picking a block height filter threshold for a new sensor mount.
package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/banshee-data/voxelgrid"
	"github.com/banshee-data/voxelgrid/internal/config"
	"github.com/banshee-data/voxelgrid/internal/pointio"
	"github.com/banshee-data/voxelgrid/internal/version"
)

// parseFloatList parses a comma-separated list of floats.
func parseFloatList(s string) ([]float64, error) {
	if s == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	out := make([]float64, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		v, err := strconv.ParseFloat(p, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid float '%s': %w", p, err)
		}
		out = append(out, v)
	}
	return out, nil
}

// parseIntList parses a comma-separated list of ints.
func parseIntList(s string) ([]int, error) {
	if s == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	out := make([]int, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		v, err := strconv.Atoi(p)
		if err != nil {
			return nil, fmt.Errorf("invalid int '%s': %w", p, err)
		}
		out = append(out, v)
	}
	return out, nil
}

func generateRange(start, end, step float64) []float64 {
	if step <= 0 {
		step = 0.01
	}
	var result []float64
	for v := start; v <= end+1e-9; v += step {
		result = append(result, v)
	}
	return result
}

// floatParamList uses an explicit list when given, a generated range
// otherwise.
func floatParamList(list string, start, end, step float64) []float64 {
	if list != "" {
		vals, err := parseFloatList(list)
		if err != nil {
			log.Fatalf("Invalid parameter list: %v", err)
		}
		return vals
	}
	return generateRange(start, end, step)
}

// comboResult is one CSV row of the sweep.
type comboResult struct {
	voxelSizeXY     float64
	blockFactor     int
	heightThreshold float64
	gridX, gridY    int
	voxels          int
	rejected        uint64
	storedPoints    int
	outOfRange      uint64
	voxelFullDrops  uint64
	gridFullDrops   uint64
	countMean       float64
	countP50        float64
	countP90        float64
	countMax        float64
	elapsed         time.Duration
}

func writeHeader(w *csv.Writer) {
	_ = w.Write([]string{
		"voxel_size_xy", "block_factor", "height_threshold",
		"grid_x", "grid_y", "voxels", "voxels_rejected",
		"stored_points", "out_of_range", "voxel_full_drops", "grid_full_drops",
		"count_mean", "count_p50", "count_p90", "count_max", "elapsed_ms",
	})
}

func writeRow(w *csv.Writer, r comboResult) {
	_ = w.Write([]string{
		strconv.FormatFloat(r.voxelSizeXY, 'g', -1, 64),
		strconv.Itoa(r.blockFactor),
		strconv.FormatFloat(r.heightThreshold, 'g', -1, 64),
		strconv.Itoa(r.gridX),
		strconv.Itoa(r.gridY),
		strconv.Itoa(r.voxels),
		strconv.FormatUint(r.rejected, 10),
		strconv.Itoa(r.storedPoints),
		strconv.FormatUint(r.outOfRange, 10),
		strconv.FormatUint(r.voxelFullDrops, 10),
		strconv.FormatUint(r.gridFullDrops, 10),
		fmt.Sprintf("%.3f", r.countMean),
		fmt.Sprintf("%.1f", r.countP50),
		fmt.Sprintf("%.1f", r.countP90),
		fmt.Sprintf("%.0f", r.countMax),
		strconv.FormatInt(r.elapsed.Milliseconds(), 10),
	})
}

// runCombo voxelizes the cloud under one parameter combination.
func runCombo(base *voxelgrid.Config, points []float32, sizeXY float64, factor int, threshold float64, filter bool) (comboResult, error) {
	cfg := *base
	if sizeXY > 0 {
		cfg.VoxelSize[0] = float32(sizeXY)
		cfg.VoxelSize[1] = float32(sizeXY)
	}
	cfg.BlockFiltering = filter
	if filter {
		cfg.BlockFactor = factor
		cfg.HeightThreshold = float32(threshold)
	}

	gen, err := voxelgrid.NewGenerator(&cfg)
	if err != nil {
		return comboResult{}, err
	}

	start := time.Now()
	batch, err := gen.Generate(points, 0)
	if err != nil {
		return comboResult{}, err
	}
	elapsed := time.Since(start)

	gs := cfg.GridSize()
	st := gen.Stats()
	r := comboResult{
		voxelSizeXY:     float64(cfg.VoxelSize[0]),
		blockFactor:     factor,
		heightThreshold: threshold,
		gridX:           gs[0],
		gridY:           gs[1],
		voxels:          batch.NumVoxels,
		rejected:        st.VoxelsRejectedByFilter,
		storedPoints:    batch.TotalPoints(),
		outOfRange:      st.PointsOutOfRange,
		voxelFullDrops:  st.PointsDroppedVoxelFull,
		gridFullDrops:   st.PointsDroppedGridFull,
		elapsed:         elapsed,
	}
	if batch.NumVoxels > 0 {
		counts := make([]float64, batch.NumVoxels)
		for i := 0; i < batch.NumVoxels; i++ {
			counts[i] = float64(batch.Count(i))
		}
		sort.Float64s(counts)
		r.countMean = stat.Mean(counts, nil)
		r.countP50 = stat.Quantile(0.5, stat.Empirical, counts, nil)
		r.countP90 = stat.Quantile(0.9, stat.Empirical, counts, nil)
		r.countMax = counts[len(counts)-1]
	}
	return r, nil
}

func main() {
	// Input selection
	input := flag.String("input", "", "Point cloud file (.bin float32 LE records or .csv)")
	stride := flag.Int("stride", 0, "Floats per point record in the input (overrides the tuning's point_stride)")
	synthetic := flag.Int("synthetic", 0, "Generate a synthetic scene with this many ground points instead of reading a file")
	seed := flag.Int64("seed", 42, "Seed for the synthetic scene")
	configPath := flag.String("config", "", "Base tuning file (.json or .yaml)")
	output := flag.String("output", "", "Output CSV filename (defaults to voxel-sweep-<timestamp>.csv)")

	// Sweep axes
	thresholdList := flag.String("thresholds", "", "Comma-separated height thresholds (e.g. 0.05,0.1,0.2) to sweep")
	thresholdStart := flag.Float64("threshold-start", 0.05, "Start height threshold")
	thresholdEnd := flag.Float64("threshold-end", 0.5, "End height threshold")
	thresholdStep := flag.Float64("threshold-step", 0.05, "Height threshold step")
	factorList := flag.String("factors", "8", "Comma-separated block factors to sweep")
	sizeList := flag.String("voxel-sizes", "", "Comma-separated planar voxel sizes to sweep (empty keeps the tuning's)")
	noFilter := flag.Bool("no-filter", false, "Sweep without the block filter (thresholds and factors collapse to one combination)")
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
	base, err := tuning.EngineConfig()
	if err != nil {
		log.Fatalf("Invalid tuning: %v", err)
	}
	if *stride > 0 {
		base.PointStride = *stride
	}
	// The filter variant is applied per combination.
	base.BlockFiltering = false

	points, source, err := loadPoints(*input, *synthetic, *seed, base.PointStride)
	if err != nil {
		log.Fatalf("Failed to load points: %v", err)
	}
	log.Printf("Loaded %d points from %s", len(points)/base.PointStride, source)

	thresholds := floatParamList(*thresholdList, *thresholdStart, *thresholdEnd, *thresholdStep)
	factors, err := parseIntList(*factorList)
	if err != nil {
		log.Fatalf("Invalid -factors: %v", err)
	}
	sizes, err := parseFloatList(*sizeList)
	if err != nil {
		log.Fatalf("Invalid -voxel-sizes: %v", err)
	}
	if len(sizes) == 0 {
		sizes = []float64{0} // keep the tuning's voxel size
	}
	if *noFilter {
		thresholds = []float64{0}
		factors = []int{0}
	}
	if len(factors) == 0 {
		factors = []int{base.BlockFactor}
	}

	totalCombos := len(sizes) * len(factors) * len(thresholds)
	log.Printf("Parameter combinations: %d (sizes: %d, factors: %d, thresholds: %d)",
		totalCombos, len(sizes), len(factors), len(thresholds))

	filename := *output
	if filename == "" {
		filename = fmt.Sprintf("voxel-sweep-%s.csv", time.Now().Format("20060102-150405"))
	}
	f, err := os.Create(filename)
	if err != nil {
		log.Fatalf("Could not create output file %s: %v", filename, err)
	}
	defer f.Close()
	w := csv.NewWriter(f)
	defer w.Flush()
	writeHeader(w)

	comboNum := 0
	for _, size := range sizes {
		for _, factor := range factors {
			for _, threshold := range thresholds {
				comboNum++
				log.Printf("=== Combination %d/%d: size=%v factor=%d threshold=%v ===",
					comboNum, totalCombos, size, factor, threshold)

				r, err := runCombo(base, points, size, factor, threshold, !*noFilter)
				if err != nil {
					log.Printf("WARNING: combination skipped: %v", err)
					continue
				}
				writeRow(w, r)
				log.Printf("voxels=%d rejected=%d stored=%d in %v",
					r.voxels, r.rejected, r.storedPoints, r.elapsed)
			}
		}
	}

	log.Printf("Sweep complete: %s", filename)
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
