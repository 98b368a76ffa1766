package training

import (
	"fmt"
	"math/rand"
)

// DataLoader iterates over an in-memory dataset in batches, producing the
// feed maps the trainer's step methods consume. Samples share a fixed set
// of feed names; a batch concatenates the per-sample buffers of each name.
type DataLoader struct {
	samples   []map[string][]float32
	batchSize int
	shuffle   bool
	rng       *rand.Rand
	order     []int
	pos       int
}

// NewDataLoader creates a loader over the given samples. Every sample must
// carry the same feed names. With shuffle enabled the sample order is
// re-randomized on every Reset.
func NewDataLoader(samples []map[string][]float32, batchSize int, shuffle bool, seed int64) (*DataLoader, error) {
	if len(samples) == 0 {
		return nil, fmt.Errorf("data loader requires at least one sample")
	}
	if batchSize < 1 {
		return nil, fmt.Errorf("batch size must be at least 1, got %d", batchSize)
	}
	for i, s := range samples {
		if len(s) == 0 {
			return nil, fmt.Errorf("sample %d has no feeds", i)
		}
		for name := range samples[0] {
			if _, ok := s[name]; !ok {
				return nil, fmt.Errorf("sample %d is missing feed %q", i, name)
			}
		}
		if len(s) != len(samples[0]) {
			return nil, fmt.Errorf("sample %d has a different feed set", i)
		}
	}

	dl := &DataLoader{
		samples:   samples,
		batchSize: batchSize,
		shuffle:   shuffle,
		rng:       rand.New(rand.NewSource(seed)),
		order:     make([]int, len(samples)),
	}
	dl.Reset()
	return dl, nil
}

// Len returns the number of batches per pass. A trailing partial batch
// counts.
func (dl *DataLoader) Len() int {
	return (len(dl.samples) + dl.batchSize - 1) / dl.batchSize
}

// HasNext reports whether another batch remains in the current pass
func (dl *DataLoader) HasNext() bool {
	return dl.pos < len(dl.samples)
}

// Next returns the next batch as a single feed map. The last batch of a
// pass may hold fewer samples than the batch size.
func (dl *DataLoader) Next() (map[string][]float32, error) {
	if !dl.HasNext() {
		return nil, fmt.Errorf("data loader is exhausted, call Reset")
	}

	end := dl.pos + dl.batchSize
	if end > len(dl.samples) {
		end = len(dl.samples)
	}

	batch := make(map[string][]float32, len(dl.samples[0]))
	for _, idx := range dl.order[dl.pos:end] {
		for name, vals := range dl.samples[idx] {
			batch[name] = append(batch[name], vals...)
		}
	}
	dl.pos = end
	return batch, nil
}

// Reset rewinds the loader for another pass, reshuffling when enabled
func (dl *DataLoader) Reset() {
	for i := range dl.order {
		dl.order[i] = i
	}
	if dl.shuffle {
		dl.rng.Shuffle(len(dl.order), func(i, j int) {
			dl.order[i], dl.order[j] = dl.order[j], dl.order[i]
		})
	}
	dl.pos = 0
}
