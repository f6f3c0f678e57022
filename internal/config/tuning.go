// Package config loads file-based tuning documents and maps them onto
// the voxelization engine configuration. JSON is the primary format;
// YAML is accepted for hand-edited tuning files.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/banshee-data/voxelgrid"
)

// DefaultPath is the canonical tuning defaults file, the single source
// of truth for the shipped default values.
const DefaultPath = "config/tuning.defaults.json"

// maxFileSize bounds how much of a tuning file Load will read (1 MB).
const maxFileSize = 1 * 1024 * 1024

// Tuning is the file schema for voxelization options. Every field is
// optional; omitted fields fall back to the engine defaults, so partial
// documents are safe.
type Tuning struct {
	VoxelSize       []float32 `json:"voxel_size,omitempty" yaml:"voxel_size,omitempty"`
	PointCloudRange []float32 `json:"point_cloud_range,omitempty" yaml:"point_cloud_range,omitempty"`
	MaxNumPoints    *int      `json:"max_num_points,omitempty" yaml:"max_num_points,omitempty"`
	MaxVoxels       *int      `json:"max_voxels,omitempty" yaml:"max_voxels,omitempty"`
	PointStride     *int      `json:"point_stride,omitempty" yaml:"point_stride,omitempty"`
	FullMean        *bool     `json:"full_mean,omitempty" yaml:"full_mean,omitempty"`
	WithHeight      *bool     `json:"with_height,omitempty" yaml:"with_height,omitempty"`
	BlockFiltering  *bool     `json:"block_filtering,omitempty" yaml:"block_filtering,omitempty"`
	BlockFactor     *int      `json:"block_factor,omitempty" yaml:"block_factor,omitempty"`
	BlockSize       *int      `json:"block_size,omitempty" yaml:"block_size,omitempty"`
	HeightThreshold *float32  `json:"height_threshold,omitempty" yaml:"height_threshold,omitempty"`
}

// Load reads a tuning document. The extension selects the format: .json
// parses as JSON, .yaml/.yml as YAML. Files over 1 MB are rejected.
func Load(path string) (*Tuning, error) {
	cleanPath := filepath.Clean(path)
	ext := filepath.Ext(cleanPath)
	switch ext {
	case ".json", ".yaml", ".yml":
	default:
		return nil, fmt.Errorf("tuning file must have .json, .yaml or .yml extension, got %q", ext)
	}

	info, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("stat tuning file: %w", err)
	}
	if info.Size() > maxFileSize {
		return nil, fmt.Errorf("tuning file too large: %d bytes (max %d)", info.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("read tuning file: %w", err)
	}

	t := &Tuning{}
	if ext == ".json" {
		if err := json.Unmarshal(data, t); err != nil {
			return nil, fmt.Errorf("parse tuning JSON: %w", err)
		}
	} else {
		if err := yaml.Unmarshal(data, t); err != nil {
			return nil, fmt.Errorf("parse tuning YAML: %w", err)
		}
	}
	return t, nil
}

// EngineConfig converts the document to an engine configuration,
// applying the engine defaults for omitted fields, and validates the
// result eagerly.
func (t *Tuning) EngineConfig() (*voxelgrid.Config, error) {
	cfg := voxelgrid.DefaultConfig()
	if t.VoxelSize != nil {
		if len(t.VoxelSize) != 3 {
			return nil, fmt.Errorf("voxel_size must have 3 elements, got %d", len(t.VoxelSize))
		}
		copy(cfg.VoxelSize[:], t.VoxelSize)
	}
	if t.PointCloudRange != nil {
		if len(t.PointCloudRange) != 6 {
			return nil, fmt.Errorf("point_cloud_range must have 6 elements, got %d", len(t.PointCloudRange))
		}
		copy(cfg.PointCloudRange[:], t.PointCloudRange)
	}
	if t.MaxNumPoints != nil {
		cfg.MaxPointsPerVoxel = *t.MaxNumPoints
	}
	if t.MaxVoxels != nil {
		cfg.MaxVoxels = *t.MaxVoxels
	}
	if t.PointStride != nil {
		cfg.PointStride = *t.PointStride
	}
	if t.FullMean != nil {
		cfg.FullMean = *t.FullMean
	}
	if t.WithHeight != nil {
		cfg.WithHeight = *t.WithHeight
	}
	if t.BlockFiltering != nil {
		cfg.BlockFiltering = *t.BlockFiltering
	}
	if t.BlockFactor != nil {
		cfg.BlockFactor = *t.BlockFactor
	}
	if t.BlockSize != nil {
		cfg.BlockSize = *t.BlockSize
	}
	if t.HeightThreshold != nil {
		cfg.HeightThreshold = *t.HeightThreshold
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid tuning: %w", err)
	}
	return cfg, nil
}

// MustLoadDefault loads the canonical defaults file, searching upward
// from the working directory so tests in nested packages find it.
// Panics when the file cannot be found; intended for test setup.
func MustLoadDefault() *Tuning {
	candidates := []string{
		DefaultPath,
		"../" + DefaultPath,
		"../../" + DefaultPath,
		"../../../" + DefaultPath,
	}
	for _, path := range candidates {
		if t, err := Load(path); err == nil {
			return t
		}
	}
	panic("cannot find " + DefaultPath + " - run tests from the repository root")
}
