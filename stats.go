package main

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

// Stats accumulates character coverage and class balance over batches.
type Stats struct {
	// Counts[i] is the number of positions lit for alphabet index i.
	Counts    []float64
	Positions int
	Known     int
	Batches   int
	Empty     int
	Negative  int
	Positive  int
}

func NewStats(alphabetSize int) *Stats {
	return &Stats{Counts: make([]float64, alphabetSize)}
}

// Unknown returns the number of positions that matched no alphabet entry.
func (s *Stats) Unknown() int {
	return s.Positions - s.Known
}

// UnknownRate returns Unknown/Positions, or 0 when nothing was seen.
func (s *Stats) UnknownRate() float64 {
	if s.Positions == 0 {
		return 0
	}
	return float64(s.Unknown()) / float64(s.Positions)
}

// Add folds one batch into the statistics.
func (s *Stats) Add(b Batch) error {
	s.Batches++
	for _, l := range b.Labels {
		if l == Positive {
			s.Positive++
		} else {
			s.Negative++
		}
	}
	if b.Empty() {
		s.Empty++
		return nil
	}

	counts, err := ActivationCounts(b.X)
	if err != nil {
		return fmt.Errorf("batch %d: %w", b.Index, err)
	}
	if len(counts) != len(s.Counts) {
		return fmt.Errorf("batch %d: %d activation counts, want %d", b.Index, len(counts), len(s.Counts))
	}

	shape := b.Shape()
	s.Positions += shape[0] * shape[2]
	for i, c := range counts {
		s.Counts[i] += float64(c)
		s.Known += int(c)
	}
	return nil
}

// ActivationCounts sums a [B, A, L, 1] one-hot tensor over every axis but the
// alphabet axis, giving how often each character is lit in the batch.
func ActivationCounts(x *tensor.Dense) ([]float32, error) {
	shape := x.Shape()
	if len(shape) != 4 {
		return nil, fmt.Errorf("expected a 4d one-hot tensor, got shape %v", shape)
	}

	g := gorgonia.NewGraph()
	in := gorgonia.NewTensor(g, tensor.Float32, 4,
		gorgonia.WithShape(shape...),
		gorgonia.WithValue(x),
		gorgonia.WithName("onehot"))

	perChar, err := gorgonia.Sum(in, 0, 2, 3)
	if err != nil {
		return nil, fmt.Errorf("sum over batch positions failed: %w", err)
	}

	vm := gorgonia.NewTapeMachine(g)
	defer vm.Close()

	if err := vm.RunAll(); err != nil {
		return nil, fmt.Errorf("vm.RunAll failed: %w", err)
	}

	val := perChar.Value()
	if val == nil {
		return nil, fmt.Errorf("activation counts value is nil")
	}
	data, ok := val.Data().([]float32)
	if !ok {
		return nil, fmt.Errorf("unexpected activation count type %T", val.Data())
	}

	out := make([]float32, len(data))
	copy(out, data)
	return out, nil
}

// CharCount pairs an alphabet character with its activation count.
type CharCount struct {
	Char  rune
	Count float64
}

// Top returns the k most frequent characters, most frequent first.
func (s *Stats) Top(alphabet *Alphabet, k int) []CharCount {
	chars := []rune(alphabet.String())

	var out []CharCount
	for i, c := range s.Counts {
		if c == 0 || i >= len(chars) {
			continue
		}
		out = append(out, CharCount{Char: chars[i], Count: c})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Count > out[j].Count
	})
	if k > 0 && len(out) > k {
		out = out[:k]
	}
	return out
}

// Report is the JSON form of Stats written by the stats command.
type Report struct {
	Data        string           `json:"data"`
	SeqLength   int              `json:"seq_length"`
	Alphabet    int              `json:"alphabet_size"`
	Batches     int              `json:"batches"`
	Positions   int              `json:"positions"`
	Unknown     int              `json:"unknown"`
	UnknownRate float64          `json:"unknown_rate"`
	Negative    int              `json:"negative"`
	Positive    int              `json:"positive"`
	Chars       map[string]int64 `json:"chars"`
}

func (s *Stats) Report(alphabet *Alphabet, cfg *Config) Report {
	r := Report{
		Data:        cfg.Data,
		SeqLength:   cfg.SeqLen,
		Alphabet:    alphabet.Size(),
		Batches:     s.Batches,
		Positions:   s.Positions,
		Unknown:     s.Unknown(),
		UnknownRate: s.UnknownRate(),
		Negative:    s.Negative,
		Positive:    s.Positive,
		Chars:       make(map[string]int64),
	}
	for _, cc := range s.Top(alphabet, 0) {
		r.Chars[string(cc.Char)] = int64(cc.Count)
	}
	return r
}

func saveJSON(path string, data interface{}) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	encoder := json.NewEncoder(f)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}
