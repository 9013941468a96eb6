package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// Review is one line of the newline-delimited review dump. Only the fields
// used for classification are decoded.
type Review struct {
	Stars *float64 `json:"stars"`
	Text  *string  `json:"text"`
}

// LoadOptions controls ingestion of a review stream.
type LoadOptions struct {
	// Limit stops ingestion after this many accepted records. 0 means no cap.
	Limit int
	// ProgressEvery prints a progress line every N accepted records. 0 disables it.
	ProgressEvery int
	Progress      io.Writer
}

// LoadReviews reads JSON reviews from r, drops neutral ratings and encodes
// the remaining texts. Any malformed line aborts the load.
func LoadReviews(r io.Reader, enc *Encoder, opts LoadOptions) (*Dataset, error) {
	progress := opts.Progress
	if progress == nil {
		progress = io.Discard
	}

	ds := &Dataset{}
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	line := 0
	accepted := 0
	for scanner.Scan() {
		line++
		raw := scanner.Bytes()
		if len(raw) == 0 {
			continue
		}

		var review Review
		if err := json.Unmarshal(raw, &review); err != nil {
			return nil, fmt.Errorf("parse review line %d: %w", line, err)
		}
		if review.Stars == nil || review.Text == nil {
			return nil, fmt.Errorf("review line %d: missing stars or text field", line)
		}

		label, ok := LabelForStars(int(*review.Stars))
		if !ok {
			continue
		}

		ds.Add(enc.EncodeText(*review.Text), label)
		accepted++
		if opts.ProgressEvery > 0 && accepted%opts.ProgressEvery == 0 {
			fmt.Fprintf(progress, "   Non-neutral instances processed: %d\n", accepted)
		}
		if opts.Limit > 0 && accepted >= opts.Limit {
			break
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read reviews: %w", err)
	}

	if err := ds.Validate(); err != nil {
		return nil, err
	}
	return ds, nil
}

// LoadReviewFile opens path and loads it with LoadReviews.
func LoadReviewFile(path string, enc *Encoder, opts LoadOptions) (*Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return LoadReviews(f, enc, opts)
}
