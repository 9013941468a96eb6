package main

import (
	"errors"
	"flag"
	"fmt"
	"math/rand"
	"time"
)

// Config holds the flags shared by the prepare and stats commands.
type Config struct {
	Data     string
	Alphabet string
	SeqLen   int
	Limit    int
	Batch    int
	Epochs   int
	Shuffle  bool
	Seed     int64
	Progress int
}

func (c *Config) register(fs *flag.FlagSet) {
	fs.StringVar(&c.Data, "data", "", "Path to newline-delimited JSON reviews (required)")
	fs.StringVar(&c.Alphabet, "alphabet", DefaultAlphabet, "Recognized characters")
	fs.IntVar(&c.SeqLen, "len", DefaultSeqLength, "Encoded sequence length")
	fs.IntVar(&c.Limit, "limit", 200000, "Maximum non-neutral reviews to load (0 for all)")
	fs.IntVar(&c.Batch, "batch", 128, "Batch size")
	fs.IntVar(&c.Epochs, "epochs", 1, "Number of epochs")
	fs.BoolVar(&c.Shuffle, "shuffle", true, "Shuffle the dataset every epoch")
	fs.Int64Var(&c.Seed, "seed", 1337, "Random seed (0 for time based)")
	fs.IntVar(&c.Progress, "progress", 100000, "Print load progress every N reviews (0 to disable)")
}

func (c *Config) Validate() error {
	if c.Data == "" {
		return errors.New("--data is required")
	}
	if c.Alphabet == "" {
		return ErrEmptyAlphabet
	}
	if c.SeqLen <= 0 {
		return fmt.Errorf("%w: %d", ErrSequenceLength, c.SeqLen)
	}
	if c.Batch <= 0 {
		return fmt.Errorf("%w: %d", ErrBatchSize, c.Batch)
	}
	if c.Epochs <= 0 {
		return fmt.Errorf("%w: %d", ErrEpochs, c.Epochs)
	}
	if c.Limit < 0 {
		return fmt.Errorf("limit must not be negative: %d", c.Limit)
	}
	return nil
}

// Rand returns the generator used for shuffling.
func (c *Config) Rand() *rand.Rand {
	seed := c.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return rand.New(rand.NewSource(seed))
}

// Pipeline holds the encoder and materializer built from one configuration,
// so both always agree on alphabet and sequence length.
type Pipeline struct {
	Alphabet *Alphabet
	Encoder  *Encoder
	Mat      *Materializer
}

func NewPipeline(chars string, seqLen int) (*Pipeline, error) {
	alphabet, err := NewAlphabet(chars)
	if err != nil {
		return nil, err
	}
	enc, err := NewEncoder(alphabet, seqLen)
	if err != nil {
		return nil, err
	}
	mat, err := NewMaterializer(alphabet, seqLen)
	if err != nil {
		return nil, err
	}
	return &Pipeline{Alphabet: alphabet, Encoder: enc, Mat: mat}, nil
}
