package main

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	var err error
	switch command {
	case "prepare":
		err = runPrepare(os.Args[2:], os.Stdout)
	case "stats":
		err = runStats(os.Args[2:], os.Stdout)
	case "encode":
		err = runEncode(os.Args[2:], os.Stdin, os.Stdout)
	default:
		printUsage()
		os.Exit(1)
	}
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("charprep - character-level review dataset preparation")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  charprep prepare --data FILE [options]")
	fmt.Println("  charprep stats --data FILE [options]")
	fmt.Println("  charprep encode [--alphabet CHARS] [--len N]")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  prepare  Load reviews and run the batch iterator over every epoch")
	fmt.Println("  stats    Report character coverage and class balance of a dataset")
	fmt.Println("  encode   Encode lines from stdin and print their index sequences")
}

func parseConfig(name string, args []string, extra ...func(*flag.FlagSet)) (*Config, error) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	cfg := &Config{}
	cfg.register(fs)
	for _, fn := range extra {
		fn(fs)
	}
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadDataset(cfg *Config, p *Pipeline, out io.Writer) (*Dataset, error) {
	fmt.Fprintf(out, "📚 Loading reviews from %s...\n", cfg.Data)
	ds, err := LoadReviewFile(cfg.Data, p.Encoder, LoadOptions{
		Limit:         cfg.Limit,
		ProgressEvery: cfg.Progress,
		Progress:      out,
	})
	if err != nil {
		return nil, fmt.Errorf("load dataset: %w", err)
	}

	neg, pos := ds.ClassCounts()
	fmt.Fprintf(out, "   x=(%d, %d)\n", ds.Len(), cfg.SeqLen)
	fmt.Fprintf(out, "   y=(%d, 2)\n", len(ds.Labels))
	fmt.Fprintf(out, "   negative=%d positive=%d\n", neg, pos)
	return ds, nil
}

func runPrepare(args []string, out io.Writer) error {
	cfg, err := parseConfig("prepare", args)
	if err != nil {
		return err
	}
	p, err := NewPipeline(cfg.Alphabet, cfg.SeqLen)
	if err != nil {
		return err
	}
	ds, err := loadDataset(cfg, p, out)
	if err != nil {
		return err
	}

	it, err := NewBatchIterator(ds, p.Mat, IterConfig{
		BatchSize: cfg.Batch,
		Epochs:    cfg.Epochs,
		Shuffle:   cfg.Shuffle,
		Rand:      cfg.Rand(),
		OnEpoch: func(epoch, batches int) {
			fmt.Fprintf(out, "\n🔁 In epoch >> %d\n", epoch+1)
			fmt.Fprintf(out, "   Batches per epoch: %d\n", batches)
		},
	})
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "\n🔢 Iterating %d batches (alphabet %d, length %d)...\n",
		it.Total(), p.Alphabet.Size(), cfg.SeqLen)

	started := time.Now()
	var emitted, examples, empty int
	err = it.Drain(func(b Batch) error {
		emitted++
		examples += b.Size()
		if b.Empty() {
			empty++
		}
		return nil
	})
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "\n✅ Emitted %d batches (%d empty), %d examples in %s\n",
		emitted, empty, examples, time.Since(started).Round(time.Millisecond))
	return nil
}

func runStats(args []string, out io.Writer) error {
	var report string
	cfg, err := parseConfig("stats", args, func(fs *flag.FlagSet) {
		fs.StringVar(&report, "report", "", "Optional path to write the statistics as JSON")
	})
	if err != nil {
		return err
	}
	p, err := NewPipeline(cfg.Alphabet, cfg.SeqLen)
	if err != nil {
		return err
	}
	ds, err := loadDataset(cfg, p, out)
	if err != nil {
		return err
	}

	it, err := NewBatchIterator(ds, p.Mat, IterConfig{BatchSize: cfg.Batch, Epochs: 1})
	if err != nil {
		return err
	}

	stats := NewStats(p.Alphabet.Size())
	if err := it.Drain(stats.Add); err != nil {
		return err
	}

	fmt.Fprintf(out, "\n📊 Character coverage\n")
	fmt.Fprintf(out, "   Positions: %d\n", stats.Positions)
	fmt.Fprintf(out, "   UNK rate: %.2f%%\n", stats.UnknownRate()*100)
	if stats.UnknownRate() > 0.1 {
		fmt.Fprintf(out, "   ⚠️  High UNK rate! Consider extending --alphabet\n")
	}
	for _, cc := range stats.Top(p.Alphabet, 10) {
		fmt.Fprintf(out, "   %q %.0f\n", cc.Char, cc.Count)
	}

	if report != "" {
		if err := saveJSON(report, stats.Report(p.Alphabet, cfg)); err != nil {
			return fmt.Errorf("save report: %w", err)
		}
		fmt.Fprintf(out, "   📋 Report saved to: %s\n", report)
	}
	return nil
}

func runEncode(args []string, in io.Reader, out io.Writer) error {
	fs := flag.NewFlagSet("encode", flag.ContinueOnError)
	chars := fs.String("alphabet", DefaultAlphabet, "Recognized characters")
	seqLen := fs.Int("len", DefaultSeqLength, "Encoded sequence length")
	if err := fs.Parse(args); err != nil {
		return err
	}

	p, err := NewPipeline(*chars, *seqLen)
	if err != nil {
		return err
	}

	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		text := strings.TrimSpace(scanner.Text())
		if len(text) == 0 {
			continue
		}
		ids := p.Encoder.EncodeText(text)
		fmt.Fprintf(out, "%v\n", ids)
		fmt.Fprintf(out, "%q\n", p.Encoder.Decode(ids))
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read stdin: %w", err)
	}
	return nil
}
