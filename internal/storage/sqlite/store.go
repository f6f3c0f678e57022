package sqlite

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/banshee-data/voxelgrid"
)

// Run records one persisted voxelization session: where the points
// came from and the configuration they were voxelized with.
type Run struct {
	RunID       string          `json:"run_id"`
	CreatedAt   int64           `json:"created_unix_nanos"`
	Source      string          `json:"source,omitempty"`
	SensorID    string          `json:"sensor_id,omitempty"`
	PointStride int             `json:"point_stride"`
	GridX       int             `json:"grid_x"`
	GridY       int             `json:"grid_y"`
	GridZ       int             `json:"grid_z"`
	ConfigJSON  json.RawMessage `json:"config_json,omitempty"`
	Notes       string          `json:"notes,omitempty"`
}

// BatchRecord is the metadata row for one stored batch. The tensors
// themselves are loaded with GetBatch.
type BatchRecord struct {
	RunID      string `json:"run_id"`
	BatchIndex int    `json:"batch_index"`
	TakenAt    int64  `json:"taken_unix_nanos"`
	VoxelCount int    `json:"voxel_count"`
	PointCount int    `json:"point_count"`
}

// RunStore provides persistence for voxelization runs and their
// output batches.
type RunStore struct {
	db *sql.DB
}

// NewRunStore creates a new RunStore.
func NewRunStore(db *sql.DB) *RunStore {
	return &RunStore{db: db}
}

// CreateRun persists a new run. If RunID is empty, a UUID is
// generated; if CreatedAt is zero, the current time is used.
func (s *RunStore) CreateRun(run *Run) error {
	if run.RunID == "" {
		run.RunID = uuid.New().String()
	}
	if run.CreatedAt == 0 {
		run.CreatedAt = time.Now().UnixNano()
	}

	var configStr interface{}
	if len(run.ConfigJSON) > 0 {
		configStr = string(run.ConfigJSON)
	}

	err := retryOnBusy(func() error {
		_, err := s.db.Exec(`
			INSERT INTO voxel_runs (
				run_id, created_unix_nanos, source, sensor_id,
				point_stride, grid_x, grid_y, grid_z, config_json, notes
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			run.RunID, run.CreatedAt, nullStr(run.Source), nullStr(run.SensorID),
			run.PointStride, run.GridX, run.GridY, run.GridZ,
			configStr, nullStr(run.Notes),
		)
		return err
	})
	if err != nil {
		return fmt.Errorf("inserting run %s: %w", run.RunID, err)
	}
	return nil
}

// GetRun returns a single run by ID.
func (s *RunStore) GetRun(runID string) (*Run, error) {
	row := s.db.QueryRow(`
		SELECT run_id, created_unix_nanos, source, sensor_id,
		       point_stride, grid_x, grid_y, grid_z, config_json, notes
		FROM voxel_runs
		WHERE run_id = ?`, runID)

	var r Run
	var source, sensorID, configStr, notes sql.NullString
	err := row.Scan(&r.RunID, &r.CreatedAt, &source, &sensorID,
		&r.PointStride, &r.GridX, &r.GridY, &r.GridZ, &configStr, &notes)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("run %s not found", runID)
		}
		return nil, fmt.Errorf("scan run: %w", err)
	}
	fillRunNullables(&r, source, sensorID, configStr, notes)
	return &r, nil
}

// ListRuns returns all runs, newest first.
func (s *RunStore) ListRuns() ([]*Run, error) {
	rows, err := s.db.Query(`
		SELECT run_id, created_unix_nanos, source, sensor_id,
		       point_stride, grid_x, grid_y, grid_z, config_json, notes
		FROM voxel_runs
		ORDER BY created_unix_nanos DESC`)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// AppendBatch stores the tensors of one generated batch under
// (runID, batchIndex).
func (s *RunStore) AppendBatch(runID string, batchIndex int, b *voxelgrid.Batch) error {
	coordsBlob, err := serializeSlice(b.Coords)
	if err != nil {
		return fmt.Errorf("serializing coords for run %s: %w", runID, err)
	}
	countsBlob, err := serializeSlice(b.Counts)
	if err != nil {
		return fmt.Errorf("serializing counts for run %s: %w", runID, err)
	}
	voxelsBlob, err := serializeSlice(b.Voxels)
	if err != nil {
		return fmt.Errorf("serializing voxels for run %s: %w", runID, err)
	}
	takenAt := time.Now().UnixNano()

	err = retryOnBusy(func() error {
		_, err := s.db.Exec(`
			INSERT INTO voxel_batches (
				run_id, batch_index, taken_unix_nanos, voxel_count, point_count,
				max_points, point_stride, coords_blob, counts_blob, voxels_blob
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			runID, batchIndex, takenAt, b.NumVoxels, b.TotalPoints(),
			b.MaxPoints, b.Stride, coordsBlob, countsBlob, voxelsBlob,
		)
		return err
	})
	if err != nil {
		return fmt.Errorf("inserting batch %d for run %s: %w", batchIndex, runID, err)
	}
	return nil
}

// GetBatch loads the stored tensors for one batch back into a Batch.
// Variant side arrays (means, height extrema) are not persisted and
// come back nil.
func (s *RunStore) GetBatch(runID string, batchIndex int) (*voxelgrid.Batch, error) {
	row := s.db.QueryRow(`
		SELECT voxel_count, max_points, point_stride,
		       coords_blob, counts_blob, voxels_blob
		FROM voxel_batches
		WHERE run_id = ? AND batch_index = ?`, runID, batchIndex)

	var b voxelgrid.Batch
	var coordsBlob, countsBlob, voxelsBlob []byte
	err := row.Scan(&b.NumVoxels, &b.MaxPoints, &b.Stride,
		&coordsBlob, &countsBlob, &voxelsBlob)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("batch %d for run %s not found", batchIndex, runID)
		}
		return nil, fmt.Errorf("scan batch: %w", err)
	}

	if err := deserializeSlice(coordsBlob, &b.Coords); err != nil {
		return nil, fmt.Errorf("decoding coords for run %s batch %d: %w", runID, batchIndex, err)
	}
	if err := deserializeSlice(countsBlob, &b.Counts); err != nil {
		return nil, fmt.Errorf("decoding counts for run %s batch %d: %w", runID, batchIndex, err)
	}
	if err := deserializeSlice(voxelsBlob, &b.Voxels); err != nil {
		return nil, fmt.Errorf("decoding voxels for run %s batch %d: %w", runID, batchIndex, err)
	}
	return &b, nil
}

// ListBatches returns the metadata rows for a run's batches in batch
// index order.
func (s *RunStore) ListBatches(runID string) ([]*BatchRecord, error) {
	rows, err := s.db.Query(`
		SELECT run_id, batch_index, taken_unix_nanos, voxel_count, point_count
		FROM voxel_batches
		WHERE run_id = ?
		ORDER BY batch_index`, runID)
	if err != nil {
		return nil, fmt.Errorf("query batches: %w", err)
	}
	defer rows.Close()

	var recs []*BatchRecord
	for rows.Next() {
		var r BatchRecord
		if err := rows.Scan(&r.RunID, &r.BatchIndex, &r.TakenAt, &r.VoxelCount, &r.PointCount); err != nil {
			return nil, fmt.Errorf("scan batch record: %w", err)
		}
		recs = append(recs, &r)
	}
	return recs, rows.Err()
}

// DeleteRun removes a run and all of its stored batches.
func (s *RunStore) DeleteRun(runID string) error {
	err := retryOnBusy(func() error {
		tx, err := s.db.Begin()
		if err != nil {
			return err
		}
		if _, err := tx.Exec(`DELETE FROM voxel_batches WHERE run_id = ?`, runID); err != nil {
			tx.Rollback()
			return err
		}
		if _, err := tx.Exec(`DELETE FROM voxel_runs WHERE run_id = ?`, runID); err != nil {
			tx.Rollback()
			return err
		}
		return tx.Commit()
	})
	if err != nil {
		return fmt.Errorf("deleting run %s: %w", runID, err)
	}
	return nil
}

func scanRun(rows *sql.Rows) (*Run, error) {
	var r Run
	var source, sensorID, configStr, notes sql.NullString
	err := rows.Scan(&r.RunID, &r.CreatedAt, &source, &sensorID,
		&r.PointStride, &r.GridX, &r.GridY, &r.GridZ, &configStr, &notes)
	if err != nil {
		return nil, fmt.Errorf("scan run row: %w", err)
	}
	fillRunNullables(&r, source, sensorID, configStr, notes)
	return &r, nil
}

func fillRunNullables(r *Run, source, sensorID, configStr, notes sql.NullString) {
	r.Source = source.String
	r.SensorID = sensorID.String
	r.Notes = notes.String
	if configStr.Valid {
		r.ConfigJSON = json.RawMessage(configStr.String)
	}
}

// nullStr returns nil for empty strings, pointer to string otherwise.
func nullStr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
