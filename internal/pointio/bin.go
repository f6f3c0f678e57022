// Package pointio reads and writes flat point-cloud buffers: raw
// little-endian float32 records (the KITTI velodyne layout at stride 4),
// CSV rows, and deterministic synthetic scenes for tests and demos. The
// voxelization engine itself never touches files; this package feeds it.
package pointio

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"
)

// DecodeBin decodes little-endian float32 point records from r, stride
// floats per point.
func DecodeBin(r io.Reader, stride int) ([]float32, error) {
	if stride < 3 {
		return nil, fmt.Errorf("stride must be at least 3, got %d", stride)
	}
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read point payload: %w", err)
	}
	return decodeFloats(raw, stride)
}

// ReadBin reads a raw float32 point file, stride floats per point.
func ReadBin(path string, stride int) ([]float32, error) {
	if stride < 3 {
		return nil, fmt.Errorf("stride must be at least 3, got %d", stride)
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	points, err := decodeFloats(raw, stride)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return points, nil
}

func decodeFloats(raw []byte, stride int) ([]float32, error) {
	if len(raw)%(4*stride) != 0 {
		return nil, fmt.Errorf("payload of %d bytes does not divide into %d-float records", len(raw), stride)
	}
	points := make([]float32, len(raw)/4)
	for i := range points {
		points[i] = math.Float32frombits(binary.LittleEndian.Uint32(raw[i*4:]))
	}
	return points, nil
}

// EncodeBin writes points as little-endian float32 records. The buffer
// must divide into whole stride-float records.
func EncodeBin(w io.Writer, points []float32, stride int) error {
	if stride < 3 {
		return fmt.Errorf("stride must be at least 3, got %d", stride)
	}
	if len(points)%stride != 0 {
		return fmt.Errorf("point buffer length %d is not a multiple of stride %d", len(points), stride)
	}
	buf := make([]byte, len(points)*4)
	for i, v := range points {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(v))
	}
	if _, err := w.Write(buf); err != nil {
		return fmt.Errorf("write point payload: %w", err)
	}
	return nil
}

// WriteBin writes points to path as a raw float32 point file.
func WriteBin(path string, points []float32, stride int) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := EncodeBin(f, points, stride); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	return nil
}
