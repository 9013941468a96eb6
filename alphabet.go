package main

import (
	"errors"
	"unicode/utf8"
)

// DefaultAlphabet is the character set used for review text: lower-case
// letters, digits, punctuation and newline. '-' is listed twice, so the
// alphabet has 70 positions but 69 distinct characters.
const DefaultAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789-,;.!?:'\"/\\|_@#$%^&*~`+-=<>()[]{}\n"

// DefaultSeqLength is the fixed encoded length of every example.
const DefaultSeqLength = 144

// Unknown is the index of a character that is not part of the alphabet.
const Unknown = -1

var ErrEmptyAlphabet = errors.New("alphabet is empty")

// Alphabet maps characters to their position in a fixed character set.
type Alphabet struct {
	chars string
	toID  map[rune]int
	size  int
}

// NewAlphabet builds an alphabet from chars. A character listed more than
// once keeps its first position; the size is always the rune count of chars.
func NewAlphabet(chars string) (*Alphabet, error) {
	if chars == "" {
		return nil, ErrEmptyAlphabet
	}
	if !utf8.ValidString(chars) {
		return nil, errors.New("alphabet is not valid utf-8")
	}

	a := &Alphabet{
		chars: chars,
		toID:  make(map[rune]int),
	}
	for _, r := range chars {
		if _, exists := a.toID[r]; !exists {
			a.toID[r] = a.size
		}
		a.size++
	}
	return a, nil
}

// Index returns the position of r, or Unknown.
func (a *Alphabet) Index(r rune) int {
	if id, exists := a.toID[r]; exists {
		return id
	}
	return Unknown
}

// Size returns the one-hot dimensionality A.
func (a *Alphabet) Size() int {
	return a.size
}

func (a *Alphabet) String() string {
	return a.chars
}
