package main

import (
	"errors"
	"fmt"
	"math/rand"
)

var (
	ErrMisaligned   = errors.New("misaligned dataset")
	ErrEmptyDataset = errors.New("dataset is empty")
)

// Label is a two-class one-hot vector over {negative, positive}.
type Label [2]float32

var (
	Negative = Label{1, 0}
	Positive = Label{0, 1}
)

// LabelForStars maps a 1-5 star rating to a label. Neutral (3) and
// out-of-range ratings report ok == false.
func LabelForStars(stars int) (Label, bool) {
	switch stars {
	case 1, 2:
		return Negative, true
	case 4, 5:
		return Positive, true
	}
	return Label{}, false
}

// Dataset holds index-aligned encoded examples and labels.
type Dataset struct {
	Examples [][]float32
	Labels   []Label
}

func (d *Dataset) Len() int {
	return len(d.Examples)
}

// Validate checks the alignment between examples and labels and that the
// dataset is usable for batching.
func (d *Dataset) Validate() error {
	if len(d.Examples) != len(d.Labels) {
		return fmt.Errorf("%w: %d examples, %d labels", ErrMisaligned, len(d.Examples), len(d.Labels))
	}
	if len(d.Examples) == 0 {
		return ErrEmptyDataset
	}
	return nil
}

// Add appends one example with its label.
func (d *Dataset) Add(example []float32, label Label) {
	d.Examples = append(d.Examples, example)
	d.Labels = append(d.Labels, label)
}

// CoShuffle returns a new dataset whose examples and labels are reordered by
// the same random permutation. The receiver is left untouched.
func (d *Dataset) CoShuffle(rng *rand.Rand) *Dataset {
	perm := rng.Perm(len(d.Examples))
	return d.permute(perm)
}

func (d *Dataset) permute(perm []int) *Dataset {
	out := &Dataset{
		Examples: make([][]float32, len(perm)),
		Labels:   make([]Label, len(perm)),
	}
	for i, j := range perm {
		out.Examples[i] = d.Examples[j]
		out.Labels[i] = d.Labels[j]
	}
	return out
}

// ClassCounts returns the number of negative and positive labels.
func (d *Dataset) ClassCounts() (neg, pos int) {
	for _, l := range d.Labels {
		if l == Positive {
			pos++
		} else {
			neg++
		}
	}
	return neg, pos
}
