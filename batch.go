package main

import (
	"errors"
	"fmt"

	"gorgonia.org/tensor"
)

var ErrRange = errors.New("invalid batch range")

// Batch is one mini-batch: a one-hot tensor of shape [size, A, L, 1] and the
// labels for its rows. X is nil for an empty batch.
type Batch struct {
	Epoch  int
	Index  int
	Start  int
	End    int
	X      *tensor.Dense
	Labels []Label

	alphabetSize int
	seqLen       int
}

// Size returns the number of examples in the batch.
func (b Batch) Size() int {
	return b.End - b.Start
}

// Shape returns [size, A, L, 1], also for an empty batch.
func (b Batch) Shape() tensor.Shape {
	return tensor.Shape{b.Size(), b.alphabetSize, b.seqLen, 1}
}

// Empty reports whether the batch holds no examples.
func (b Batch) Empty() bool {
	return b.Size() == 0
}

// Materializer expands encoded examples into one-hot batch tensors.
type Materializer struct {
	alphabetSize int
	seqLen       int
}

func NewMaterializer(alphabet *Alphabet, seqLen int) (*Materializer, error) {
	if alphabet == nil {
		return nil, ErrEmptyAlphabet
	}
	if seqLen <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrSequenceLength, seqLen)
	}
	return &Materializer{alphabetSize: alphabet.Size(), seqLen: seqLen}, nil
}

// Materialize builds the one-hot tensor for examples [start, end). A cell
// [i-start, id, p, 0] is 1 when example i has index id at position p;
// Unknown positions leave the whole column at zero.
func (m *Materializer) Materialize(x [][]float32, y []Label, start, end int) (Batch, error) {
	if len(x) != len(y) {
		return Batch{}, fmt.Errorf("%w: %d examples, %d labels", ErrMisaligned, len(x), len(y))
	}
	if start < 0 || start > end || end > len(x) {
		return Batch{}, fmt.Errorf("%w: [%d, %d) of %d", ErrRange, start, end, len(x))
	}

	b := Batch{
		Start:        start,
		End:          end,
		Labels:       y[start:end],
		alphabetSize: m.alphabetSize,
		seqLen:       m.seqLen,
	}
	n := end - start
	if n == 0 {
		return b, nil
	}

	A, L := m.alphabetSize, m.seqLen
	backing := make([]float32, n*A*L)
	for i, seq := range x[start:end] {
		if len(seq) != L {
			return Batch{}, fmt.Errorf("%w: example %d has %d positions, want %d", ErrSequenceLength, start+i, len(seq), L)
		}
		for p, v := range seq {
			id := int(v)
			if id == Unknown {
				continue
			}
			if id < 0 || id >= A {
				return Batch{}, fmt.Errorf("example %d position %d: index %d outside alphabet of %d", start+i, p, id, A)
			}
			backing[(i*A+id)*L+p] = 1
		}
	}

	b.X = tensor.New(tensor.WithShape(n, A, L, 1), tensor.WithBacking(backing))
	return b, nil
}
