package main

import (
	"errors"
	"fmt"
	"strings"
)

// PadChar is appended to texts shorter than the sequence length.
const PadChar = ' '

var ErrSequenceLength = errors.New("invalid sequence length")

// Encoder turns review text into fixed-length index sequences.
type Encoder struct {
	alphabet *Alphabet
	seqLen   int
	pad      rune
}

func NewEncoder(alphabet *Alphabet, seqLen int) (*Encoder, error) {
	if alphabet == nil {
		return nil, ErrEmptyAlphabet
	}
	if seqLen <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrSequenceLength, seqLen)
	}
	return &Encoder{alphabet: alphabet, seqLen: seqLen, pad: PadChar}, nil
}

func (e *Encoder) Alphabet() *Alphabet { return e.alphabet }

func (e *Encoder) SeqLength() int { return e.seqLen }

// PadOrAlign appends pad until seq has length n. Longer input is returned
// unchanged (as a copy); it is never truncated here.
func PadOrAlign(seq []rune, n int, pad rune) []rune {
	size := len(seq)
	if size < n {
		size = n
	}
	out := make([]rune, len(seq), size)
	copy(out, seq)
	for len(out) < n {
		out = append(out, pad)
	}
	return out
}

// Encode maps every character to its alphabet position, or Unknown.
// The result has the same length and order as seq.
func Encode(seq []rune, alphabet *Alphabet) []float32 {
	ids := make([]float32, len(seq))
	for i, r := range seq {
		ids[i] = float32(alphabet.Index(r))
	}
	return ids
}

// EncodeText lower-cases text, pads it to the sequence length, cuts anything
// beyond it and encodes the result. The output always has SeqLength elements.
func (e *Encoder) EncodeText(text string) []float32 {
	chars := PadOrAlign([]rune(strings.ToLower(text)), e.seqLen, e.pad)
	return Encode(chars[:e.seqLen], e.alphabet)
}

// Decode renders an index sequence back to text. Unknown positions become
// the replacement character.
func (e *Encoder) Decode(ids []float32) string {
	chars := []rune(e.alphabet.String())

	var result strings.Builder
	for _, id := range ids {
		i := int(id)
		if i < 0 || i >= len(chars) {
			result.WriteRune('�')
			continue
		}
		result.WriteRune(chars[i])
	}
	return result.String()
}
