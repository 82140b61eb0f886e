// Package nereval evaluates a trained BiLSTM-CRF named-entity tagger
// against a CoNLL-style corpus and the official scorer.
//
//	result, _ := nereval.Evaluate(&nereval.Config{
//	    Train:      "data/eng.train",
//	    Test:       "data/eng.testb",
//	    Checkpoint: "models/ner_best.json",
//	    OutputFile: "tmp/eng.testb.pred",
//	    ScorerPath: "eval/conlleval.v2",
//	})
//	fmt.Println(result.Report.F1)
//
// The run is a finite batch job: any component failure aborts it and no
// metrics are recorded, partial results never reach the result file.
package nereval

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"os"
	"time"

	"github.com/zhijing-jin/nereval/conll"
	"github.com/zhijing-jin/nereval/crf"
	"github.com/zhijing-jin/nereval/embedding"
	"github.com/zhijing-jin/nereval/scorer"
)

// Config holds everything one evaluation run needs.
type Config struct {
	// Corpus paths. Train is scanned to build alphabets; Test is evaluated.
	Train string
	Dev   string
	Test  string

	// EmbeddingPath is the pretrained dictionary ("word v1 .. vD" lines,
	// .gz accepted). When empty, all rows are sampled and EmbeddingDim
	// fixes the width.
	EmbeddingPath string
	EmbeddingDim  int

	// AlphabetDir persists alphabets so ids stay stable across runs.
	AlphabetDir string
	// MaxVocab caps the word alphabet (top-N by frequency). 50000 when zero.
	MaxVocab int

	// Flavor selects the model variant ("std" or "weight_drop").
	Flavor string
	// Checkpoint is the trained parameter blob restored before evaluation.
	Checkpoint string

	BatchSize int

	// OutputFile receives the rendered predictions, ScoreFile the raw
	// scorer report, ResultFile one appended line of aggregate metrics.
	OutputFile string
	ScoreFile  string
	ResultFile string

	// External scorer invocation.
	ScorerPath string
	Raw        bool
	OutsideTag string
	Timeout    time.Duration

	// Seed drives the embedding-table fallback sampling.
	Seed int64

	// Scorer overrides the external command when set (used by tests).
	Scorer scorer.Scorer
}

// Result is the outcome of a completed evaluation run.
type Result struct {
	Report    scorer.Report
	OOV       int
	Sentences int
	Duration  time.Duration
}

func (cfg *Config) withDefaults() (*Config, error) {
	if cfg.Train == "" {
		return nil, fmt.Errorf("nereval: train corpus path is required")
	}
	if cfg.Test == "" {
		return nil, fmt.Errorf("nereval: test corpus path is required")
	}
	if cfg.OutputFile == "" {
		return nil, fmt.Errorf("nereval: output file path is required")
	}
	out := *cfg
	if out.BatchSize <= 0 {
		out.BatchSize = 16
	}
	if out.MaxVocab <= 0 {
		out.MaxVocab = 50000
	}
	if out.EmbeddingDim <= 0 {
		out.EmbeddingDim = 100
	}
	if out.Flavor == "" {
		out.Flavor = "std"
	}
	if out.OutsideTag == "" {
		out.OutsideTag = "O"
	}
	if out.AlphabetDir == "" {
		out.AlphabetDir = "data/alphabets"
	}
	return &out, nil
}

// Evaluate runs the full pipeline: alphabets, embedding table, model
// restore, batched decoding, rendering, external scoring, result logging.
func Evaluate(config *Config) (*Result, error) {
	cfg, err := config.withDefaults()
	if err != nil {
		return nil, err
	}
	start := time.Now()

	flavor, err := crf.ParseFlavor(cfg.Flavor)
	if err != nil {
		return nil, err
	}

	var dict map[string][]float64
	dim := cfg.EmbeddingDim
	if cfg.EmbeddingPath != "" {
		dict, dim, err = embedding.LoadDict(cfg.EmbeddingPath)
		if err != nil {
			return nil, err
		}
		slog.Info("Loaded embedding dictionary", "path", cfg.EmbeddingPath, "entries", len(dict), "dim", dim)
	}

	var dataPaths []string
	for _, p := range []string{cfg.Dev, cfg.Test} {
		if p != "" {
			dataPaths = append(dataPaths, p)
		}
	}
	alphabets, err := conll.CreateAlphabets(cfg.AlphabetDir, cfg.Train, dataPaths, dict, cfg.MaxVocab)
	if err != nil {
		return nil, err
	}

	data, err := conll.ReadCorpus(cfg.Test, alphabets)
	if err != nil {
		return nil, err
	}
	slog.Info("Read test corpus", "path", cfg.Test, "sentences", len(data))

	rng := rand.New(rand.NewSource(cfg.Seed))
	table, oov := embedding.BuildTable(alphabets.Word, dict, dim, rng)
	slog.Info("Constructed embedding table", "rows", alphabets.Word.Size(), "dim", dim, "oov", oov)

	model := crf.NewModel(flavor, table, alphabets.Tag.Size())
	if cfg.Checkpoint != "" {
		if err := model.RestoreCheckpoint(cfg.Checkpoint); err != nil {
			return nil, err
		}
		slog.Info("Restored checkpoint", "path", cfg.Checkpoint, "flavor", model.Flavor)
	}

	writer := conll.NewWriter(alphabets.Word, alphabets.Tag)
	if err := writer.Start(cfg.OutputFile); err != nil {
		return nil, err
	}

	it := conll.NewIterator(data, cfg.BatchSize)
	for {
		batch, ok := it.Next()
		if !ok {
			break
		}
		preds, _, err := model.Decode(batch, conll.NumSymbolicTags)
		if err != nil {
			_ = writer.Close()
			return nil, err
		}
		if err := writer.Write(batch.Words, preds, batch.Tags, batch.Lengths); err != nil {
			_ = writer.Close()
			return nil, err
		}
	}
	if err := writer.Close(); err != nil {
		return nil, err
	}

	sc := cfg.Scorer
	if sc == nil {
		sc = &scorer.Command{
			Path:       cfg.ScorerPath,
			Raw:        cfg.Raw,
			OutsideTag: cfg.OutsideTag,
			Timeout:    cfg.Timeout,
		}
	}
	report, err := sc.Score(context.Background(), cfg.OutputFile, cfg.ScoreFile)
	if err != nil {
		return nil, err
	}

	if cfg.ResultFile != "" {
		if err := appendResult(cfg.ResultFile, report); err != nil {
			return nil, err
		}
	}

	return &Result{
		Report:    report,
		OOV:       oov,
		Sentences: len(data),
		Duration:  time.Since(start),
	}, nil
}

// appendResult adds one line of aggregate metrics to the result log.
func appendResult(path string, report scorer.Report) error {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("nereval: open result file: %w", err)
	}
	_, werr := fmt.Fprintf(f, "test acc: %.2f%%, precision: %.2f%%, recall: %.2f%%, F1: %.2f%%\n",
		report.Accuracy, report.Precision, report.Recall, report.F1)
	cerr := f.Close()
	if werr != nil {
		return fmt.Errorf("nereval: write result line: %w", werr)
	}
	if cerr != nil {
		return fmt.Errorf("nereval: close result file: %w", cerr)
	}
	return nil
}
