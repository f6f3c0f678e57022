package pointio

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// ReadCSV reads one point per row, consuming the first stride numeric
// columns of each. A first row whose leading field is not numeric is
// treated as a header and skipped.
func ReadCSV(r io.Reader, stride int) ([]float32, error) {
	if stride < 3 {
		return nil, fmt.Errorf("stride must be at least 3, got %d", stride)
	}
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	var points []float32
	row := 0
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv row %d: %w", row+1, err)
		}
		row++
		if row == 1 && !leadsNumeric(rec) {
			continue
		}
		if len(rec) < stride {
			return nil, fmt.Errorf("csv row %d has %d columns, need %d", row, len(rec), stride)
		}
		for i := 0; i < stride; i++ {
			v, err := strconv.ParseFloat(strings.TrimSpace(rec[i]), 32)
			if err != nil {
				return nil, fmt.Errorf("csv row %d column %d: parse %q: %w", row, i+1, rec[i], err)
			}
			points = append(points, float32(v))
		}
	}
	return points, nil
}

// ReadCSVFile reads a CSV point file from disk.
func ReadCSVFile(path string, stride int) ([]float32, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	points, err := ReadCSV(f, stride)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return points, nil
}

func leadsNumeric(rec []string) bool {
	if len(rec) == 0 {
		return false
	}
	_, err := strconv.ParseFloat(strings.TrimSpace(rec[0]), 32)
	return err == nil
}
