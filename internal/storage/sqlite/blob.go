package sqlite

import (
	"bytes"
	"encoding/gob"
	"fmt"

	"github.com/klauspost/compress/zstd"
)

// serializeSlice compresses a tensor slice using gob encoding and zstd
// compression.
func serializeSlice(v interface{}) ([]byte, error) {
	var buf bytes.Buffer
	enc, err := zstd.NewWriter(&buf, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, fmt.Errorf("failed to create zstd writer: %w", err)
	}
	if err := gob.NewEncoder(enc).Encode(v); err != nil {
		enc.Close()
		return nil, fmt.Errorf("failed to encode blob: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("failed to flush zstd writer: %w", err)
	}
	return buf.Bytes(), nil
}

// deserializeSlice decodes a gob+zstd blob into out, which must be a
// pointer to the slice type passed to serializeSlice.
func deserializeSlice(blob []byte, out interface{}) error {
	dec, err := zstd.NewReader(bytes.NewReader(blob))
	if err != nil {
		return fmt.Errorf("failed to create zstd reader: %w", err)
	}
	defer dec.Close()

	if err := gob.NewDecoder(dec).Decode(out); err != nil {
		return fmt.Errorf("failed to decode blob: %w", err)
	}
	return nil
}
