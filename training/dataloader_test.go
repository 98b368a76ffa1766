package training

import (
	"testing"
)

func makeSamples(n int) []map[string][]float32 {
	samples := make([]map[string][]float32, n)
	for i := range samples {
		samples[i] = map[string][]float32{
			"x": {float32(i), float32(i)},
			"y": {float32(i)},
		}
	}
	return samples
}

func TestDataLoaderBatching(t *testing.T) {
	dl, err := NewDataLoader(makeSamples(10), 4, false, 1)
	if err != nil {
		t.Fatal(err)
	}

	if got := dl.Len(); got != 3 {
		t.Errorf("Len = %d, want 3 (trailing partial batch counts)", got)
	}

	var sizes []int
	for dl.HasNext() {
		batch, err := dl.Next()
		if err != nil {
			t.Fatal(err)
		}
		sizes = append(sizes, len(batch["y"]))
	}
	if len(sizes) != 3 || sizes[0] != 4 || sizes[1] != 4 || sizes[2] != 2 {
		t.Errorf("batch sizes = %v, want [4 4 2]", sizes)
	}

	if _, err := dl.Next(); err == nil {
		t.Error("expected error after exhaustion")
	}
}

func TestDataLoaderSequentialOrder(t *testing.T) {
	dl, err := NewDataLoader(makeSamples(6), 3, false, 1)
	if err != nil {
		t.Fatal(err)
	}

	batch, err := dl.Next()
	if err != nil {
		t.Fatal(err)
	}
	want := []float32{0, 1, 2}
	for i, v := range batch["y"] {
		if v != want[i] {
			t.Fatalf("first batch y = %v, want %v", batch["y"], want)
		}
	}
	if got := len(batch["x"]); got != 6 {
		t.Errorf("x buffer length = %d, want 6 (two values per sample)", got)
	}
}

func TestDataLoaderShuffle(t *testing.T) {
	dl, err := NewDataLoader(makeSamples(100), 100, true, 42)
	if err != nil {
		t.Fatal(err)
	}

	batch, err := dl.Next()
	if err != nil {
		t.Fatal(err)
	}

	// All samples present exactly once
	seen := make(map[float32]bool)
	for _, v := range batch["y"] {
		if seen[v] {
			t.Fatalf("sample %v appears twice", v)
		}
		seen[v] = true
	}
	if len(seen) != 100 {
		t.Errorf("got %d distinct samples, want 100", len(seen))
	}

	// A 100-element shuffle staying in identity order is practically impossible
	inOrder := true
	for i, v := range batch["y"] {
		if v != float32(i) {
			inOrder = false
			break
		}
	}
	if inOrder {
		t.Error("shuffled pass returned samples in identity order")
	}
}

func TestDataLoaderReset(t *testing.T) {
	dl, err := NewDataLoader(makeSamples(4), 2, false, 1)
	if err != nil {
		t.Fatal(err)
	}

	for dl.HasNext() {
		if _, err := dl.Next(); err != nil {
			t.Fatal(err)
		}
	}
	dl.Reset()
	if !dl.HasNext() {
		t.Error("loader should have batches again after Reset")
	}
}

func TestDataLoaderValidation(t *testing.T) {
	if _, err := NewDataLoader(nil, 1, false, 1); err == nil {
		t.Error("expected error for empty dataset")
	}
	if _, err := NewDataLoader(makeSamples(2), 0, false, 1); err == nil {
		t.Error("expected error for zero batch size")
	}

	mismatched := makeSamples(2)
	delete(mismatched[1], "y")
	if _, err := NewDataLoader(mismatched, 1, false, 1); err == nil {
		t.Error("expected error for mismatched feed sets")
	}
}
