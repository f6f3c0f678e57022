package sqlite

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestSerializeSliceRoundTrip(t *testing.T) {
	t.Run("float32", func(t *testing.T) {
		want := []float32{0.5, -1.25, 3e6, 0}
		blob, err := serializeSlice(want)
		if err != nil {
			t.Fatalf("serializeSlice failed: %v", err)
		}

		var got []float32
		if err := deserializeSlice(blob, &got); err != nil {
			t.Fatalf("deserializeSlice failed: %v", err)
		}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("round trip mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("int32", func(t *testing.T) {
		want := []int32{0, 1, -1, 1 << 30}
		blob, err := serializeSlice(want)
		if err != nil {
			t.Fatalf("serializeSlice failed: %v", err)
		}

		var got []int32
		if err := deserializeSlice(blob, &got); err != nil {
			t.Fatalf("deserializeSlice failed: %v", err)
		}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("round trip mismatch (-want +got):\n%s", diff)
		}
	})
}

func TestDeserializeSliceGarbage(t *testing.T) {
	var got []float32
	if err := deserializeSlice([]byte("not a zstd frame"), &got); err == nil {
		t.Fatal("expected error for garbage blob")
	}
}

func TestSerializeSliceCompresses(t *testing.T) {
	// Voxel buffers are sparse and repetitive; the blob should come in
	// well under the raw 4-bytes-per-value size.
	big := make([]float32, 16384)
	for i := 0; i < len(big); i += 64 {
		big[i] = float32(i)
	}
	blob, err := serializeSlice(big)
	if err != nil {
		t.Fatalf("serializeSlice failed: %v", err)
	}
	if len(blob) >= len(big)*4 {
		t.Errorf("blob size %d not smaller than raw %d", len(blob), len(big)*4)
	}
}
