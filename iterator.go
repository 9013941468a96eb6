package main

import (
	"errors"
	"fmt"
	"io"
	"math/rand"
)

var (
	ErrBatchSize = errors.New("batch size must be positive")
	ErrEpochs    = errors.New("number of epochs must be positive")
)

type iterState int

const (
	epochIdle iterState = iota
	epochRunning
	batchEmitting
	exhausted
)

func (s iterState) String() string {
	switch s {
	case epochIdle:
		return "epoch_idle"
	case epochRunning:
		return "epoch_running"
	case batchEmitting:
		return "batch_emitting"
	case exhausted:
		return "exhausted"
	}
	return fmt.Sprintf("iterState(%d)", int(s))
}

// IterConfig configures a BatchIterator.
type IterConfig struct {
	BatchSize int
	Epochs    int
	Shuffle   bool
	// Rand drives the per-epoch shuffle. A nil Rand with Shuffle set uses a
	// source seeded with 1.
	Rand *rand.Rand
	// OnEpoch is called when an epoch starts, with the zero-based epoch and
	// the number of batches it will emit.
	OnEpoch func(epoch, batches int)
}

// BatchIterator emits one-hot batches over a dataset for a fixed number of
// epochs. Each epoch emits floor(N/BatchSize)+1 batches, so the last batch of
// an epoch is empty when N is a multiple of BatchSize. It cannot be restarted.
type BatchIterator struct {
	data *Dataset
	mat  *Materializer
	cfg  IterConfig

	state    iterState
	epoch    int
	batch    int
	view     *Dataset
	perEpoch int
	stopped  bool
}

// NewBatchIterator validates the dataset and configuration. Nothing is
// materialized until Next is called.
func NewBatchIterator(data *Dataset, mat *Materializer, cfg IterConfig) (*BatchIterator, error) {
	if err := data.Validate(); err != nil {
		return nil, err
	}
	if mat == nil {
		return nil, errors.New("batch iterator needs a materializer")
	}
	if cfg.BatchSize <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrBatchSize, cfg.BatchSize)
	}
	if cfg.Epochs <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrEpochs, cfg.Epochs)
	}
	if cfg.Shuffle && cfg.Rand == nil {
		cfg.Rand = rand.New(rand.NewSource(1))
	}

	return &BatchIterator{
		data:     data,
		mat:      mat,
		cfg:      cfg,
		state:    epochIdle,
		perEpoch: data.Len()/cfg.BatchSize + 1,
	}, nil
}

// BatchesPerEpoch returns floor(N/BatchSize)+1.
func (it *BatchIterator) BatchesPerEpoch() int {
	return it.perEpoch
}

// Total returns the number of batches the iterator emits when fully drained.
func (it *BatchIterator) Total() int {
	return it.perEpoch * it.cfg.Epochs
}

// Epoch returns the zero-based epoch of the most recent batch.
func (it *BatchIterator) Epoch() int {
	return it.epoch
}

// Stop ends iteration; every later Next returns io.EOF.
func (it *BatchIterator) Stop() {
	it.stopped = true
	it.state = exhausted
	it.view = nil
}

// Next materializes and returns the next batch. It returns io.EOF once all
// epochs have been emitted or Stop was called.
func (it *BatchIterator) Next() (Batch, error) {
	for {
		if it.stopped {
			return Batch{}, io.EOF
		}

		switch it.state {
		case exhausted:
			return Batch{}, io.EOF

		case epochIdle:
			if it.epoch >= it.cfg.Epochs {
				it.state = exhausted
				it.view = nil
				continue
			}
			it.state = epochRunning

		case epochRunning:
			if it.cfg.Shuffle {
				it.view = it.data.CoShuffle(it.cfg.Rand)
			} else {
				it.view = it.data
			}
			it.batch = 0
			if it.cfg.OnEpoch != nil {
				it.cfg.OnEpoch(it.epoch, it.perEpoch)
			}
			it.state = batchEmitting

		case batchEmitting:
			if it.batch >= it.perEpoch {
				it.epoch++
				it.state = epochIdle
				continue
			}

			n := it.view.Len()
			start := it.batch * it.cfg.BatchSize
			end := min((it.batch+1)*it.cfg.BatchSize, n)

			b, err := it.mat.Materialize(it.view.Examples, it.view.Labels, start, end)
			if err != nil {
				return Batch{}, fmt.Errorf("epoch %d batch %d: %w", it.epoch, it.batch, err)
			}
			b.Epoch = it.epoch
			b.Index = it.batch
			it.batch++
			return b, nil
		}
	}
}

// Drain calls fn for every remaining batch. Iteration stops at the first
// error returned by fn or the iterator.
func (it *BatchIterator) Drain(fn func(Batch) error) error {
	for {
		b, err := it.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		if err := fn(b); err != nil {
			return err
		}
	}
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
