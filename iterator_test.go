package main

import (
	"errors"
	"io"
	"math/rand"
	"testing"
)

// rowDataset returns n examples of length 2 where example i is {i%3, i%3}
// and carries label Positive when i is even.
func rowDataset(n int) *Dataset {
	ds := &Dataset{}
	for i := 0; i < n; i++ {
		label := Negative
		if i%2 == 0 {
			label = Positive
		}
		ds.Add([]float32{float32(i % 3), float32(i % 3)}, label)
	}
	return ds
}

func collect(t *testing.T, it *BatchIterator) []Batch {
	t.Helper()
	var out []Batch
	if err := it.Drain(func(b Batch) error {
		out = append(out, b)
		return nil
	}); err != nil {
		t.Fatalf("Drain: %v", err)
	}
	return out
}

func TestIteratorBoundaries(t *testing.T) {
	p := newTestPipeline(t, "abc", 2)
	it, err := NewBatchIterator(rowDataset(3), p.Mat, IterConfig{BatchSize: 2, Epochs: 1})
	if err != nil {
		t.Fatalf("NewBatchIterator: %v", err)
	}
	if it.BatchesPerEpoch() != 2 {
		t.Fatalf("BatchesPerEpoch = %d, want 2", it.BatchesPerEpoch())
	}

	batches := collect(t, it)
	want := [][2]int{{0, 2}, {2, 3}}
	if len(batches) != len(want) {
		t.Fatalf("got %d batches, want %d", len(batches), len(want))
	}
	for i, b := range batches {
		if b.Start != want[i][0] || b.End != want[i][1] {
			t.Fatalf("batch %d covers [%d, %d), want [%d, %d)", i, b.Start, b.End, want[i][0], want[i][1])
		}
	}
}

func TestIteratorEmptyTrailingBatch(t *testing.T) {
	p := newTestPipeline(t, "abc", 2)
	it, err := NewBatchIterator(rowDataset(4), p.Mat, IterConfig{BatchSize: 2, Epochs: 1})
	if err != nil {
		t.Fatalf("NewBatchIterator: %v", err)
	}

	batches := collect(t, it)
	if len(batches) != 3 {
		t.Fatalf("got %d batches, want 3", len(batches))
	}
	last := batches[2]
	if last.Start != 4 || last.End != 4 || !last.Empty() {
		t.Fatalf("last batch covers [%d, %d)", last.Start, last.End)
	}
	if len(last.Labels) != 0 || last.X != nil {
		t.Fatalf("empty batch carries data: labels=%v", last.Labels)
	}
	shape := last.Shape()
	if shape[0] != 0 || shape[1] != 3 || shape[2] != 2 || shape[3] != 1 {
		t.Fatalf("empty batch shape = %v", shape)
	}
}

func TestIteratorEpochsAndTotal(t *testing.T) {
	p := newTestPipeline(t, "abc", 2)
	var epochs []int
	it, err := NewBatchIterator(rowDataset(5), p.Mat, IterConfig{
		BatchSize: 2,
		Epochs:    3,
		Shuffle:   true,
		Rand:      rand.New(rand.NewSource(7)),
		OnEpoch: func(epoch, batches int) {
			if batches != 3 {
				t.Errorf("epoch %d reports %d batches", epoch, batches)
			}
			epochs = append(epochs, epoch)
		},
	})
	if err != nil {
		t.Fatalf("NewBatchIterator: %v", err)
	}

	batches := collect(t, it)
	if len(batches) != it.Total() || it.Total() != 9 {
		t.Fatalf("got %d batches, Total() = %d, want 9", len(batches), it.Total())
	}
	if len(epochs) != 3 || epochs[0] != 0 || epochs[2] != 2 {
		t.Fatalf("epochs = %v", epochs)
	}
	for i, b := range batches {
		if b.Epoch != i/3 || b.Index != i%3 {
			t.Fatalf("batch %d tagged epoch %d index %d", i, b.Epoch, b.Index)
		}
	}

	// Exhausted iterators stay exhausted.
	for i := 0; i < 2; i++ {
		if _, err := it.Next(); !errors.Is(err, io.EOF) {
			t.Fatalf("Next after exhaustion = %v, want io.EOF", err)
		}
	}
}

func TestIteratorShufflePreservesPairs(t *testing.T) {
	p := newTestPipeline(t, "abc", 2)
	for _, shuffle := range []bool{false, true} {
		ds := rowDataset(7)
		before := make(map[[2]float32]map[Label]int)
		for i, ex := range ds.Examples {
			key := [2]float32{ex[0], ex[1]}
			if before[key] == nil {
				before[key] = make(map[Label]int)
			}
			before[key][ds.Labels[i]]++
		}

		it, err := NewBatchIterator(ds, p.Mat, IterConfig{
			BatchSize: 3,
			Epochs:    2,
			Shuffle:   shuffle,
			Rand:      rand.New(rand.NewSource(42)),
		})
		if err != nil {
			t.Fatalf("NewBatchIterator: %v", err)
		}

		seen := make(map[int]map[[2]float32]map[Label]int)
		for _, b := range collect(t, it) {
			if seen[b.Epoch] == nil {
				seen[b.Epoch] = make(map[[2]float32]map[Label]int)
			}
			for i := 0; i < b.Size(); i++ {
				var key [2]float32
				for pos := 0; pos < 2; pos++ {
					for id := 0; id < 3; id++ {
						if cell(t, b, i, id, pos) == 1 {
							key[pos] = float32(id)
						}
					}
				}
				if seen[b.Epoch][key] == nil {
					seen[b.Epoch][key] = make(map[Label]int)
				}
				seen[b.Epoch][key][b.Labels[i]]++
			}
		}

		for epoch, pairs := range seen {
			for key, labels := range before {
				for label, n := range labels {
					if pairs[key][label] != n {
						t.Fatalf("shuffle=%v epoch %d: pair %v/%v seen %d times, want %d",
							shuffle, epoch, key, label, pairs[key][label], n)
					}
				}
			}
		}

		// The original dataset is never reordered.
		for i, ex := range ds.Examples {
			if ex[0] != float32(i%3) {
				t.Fatalf("shuffle=%v: source dataset reordered at %d", shuffle, i)
			}
		}
	}
}

func TestIteratorUnshuffledOrder(t *testing.T) {
	p := newTestPipeline(t, "abc", 2)
	ds := rowDataset(3)
	it, err := NewBatchIterator(ds, p.Mat, IterConfig{BatchSize: 1, Epochs: 1})
	if err != nil {
		t.Fatalf("NewBatchIterator: %v", err)
	}
	for i, b := range collect(t, it)[:3] {
		if b.Labels[0] != ds.Labels[i] || cell(t, b, 0, i%3, 0) != 1 {
			t.Fatalf("batch %d is out of order", i)
		}
	}
}

func TestIteratorStop(t *testing.T) {
	p := newTestPipeline(t, "abc", 2)
	it, err := NewBatchIterator(rowDataset(10), p.Mat, IterConfig{BatchSize: 2, Epochs: 5})
	if err != nil {
		t.Fatalf("NewBatchIterator: %v", err)
	}
	if _, err := it.Next(); err != nil {
		t.Fatalf("Next: %v", err)
	}
	it.Stop()
	if _, err := it.Next(); !errors.Is(err, io.EOF) {
		t.Fatalf("Next after Stop = %v, want io.EOF", err)
	}
}

func TestIteratorDrainStopsOnError(t *testing.T) {
	p := newTestPipeline(t, "abc", 2)
	it, err := NewBatchIterator(rowDataset(10), p.Mat, IterConfig{BatchSize: 2, Epochs: 1})
	if err != nil {
		t.Fatalf("NewBatchIterator: %v", err)
	}
	boom := errors.New("boom")
	calls := 0
	err = it.Drain(func(Batch) error {
		calls++
		if calls == 2 {
			return boom
		}
		return nil
	})
	if !errors.Is(err, boom) || calls != 2 {
		t.Fatalf("Drain = %v after %d calls", err, calls)
	}
}

func TestNewBatchIteratorErrors(t *testing.T) {
	p := newTestPipeline(t, "abc", 2)
	misaligned := rowDataset(3)
	misaligned.Labels = misaligned.Labels[:2]

	tests := []struct {
		name string
		ds   *Dataset
		cfg  IterConfig
		want error
	}{
		{"zero batch", rowDataset(3), IterConfig{BatchSize: 0, Epochs: 1}, ErrBatchSize},
		{"zero epochs", rowDataset(3), IterConfig{BatchSize: 1, Epochs: 0}, ErrEpochs},
		{"empty dataset", &Dataset{}, IterConfig{BatchSize: 1, Epochs: 1}, ErrEmptyDataset},
		{"misaligned", misaligned, IterConfig{BatchSize: 1, Epochs: 1}, ErrMisaligned},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewBatchIterator(tt.ds, p.Mat, tt.cfg); !errors.Is(err, tt.want) {
				t.Fatalf("err = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestIterStateString(t *testing.T) {
	if epochIdle.String() != "epoch_idle" || exhausted.String() != "exhausted" {
		t.Fatalf("unexpected state names")
	}
}
