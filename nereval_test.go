package nereval

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"gonum.org/v1/gonum/mat"

	"github.com/zhijing-jin/nereval/conll"
	"github.com/zhijing-jin/nereval/crf"
	"github.com/zhijing-jin/nereval/scorer"
)

const toyCorpus = `EU NNP B-ORG
rejects VBZ O

John NNP B-PER
`

// stubScorer returns a fixed report, or an error, without running anything.
type stubScorer struct {
	report scorer.Report
	err    error
}

func (s *stubScorer) Score(_ context.Context, _, _ string) (scorer.Report, error) {
	return s.report, s.err
}

// toyConfig builds a workspace where the model decodes the toy corpus
// perfectly: word embeddings are one-hot and the emission weights project
// each word onto its gold tag.
func toyConfig(t *testing.T, sc scorer.Scorer) *Config {
	t.Helper()
	dir := t.TempDir()
	corpus := filepath.Join(dir, "toy.txt")
	if err := os.WriteFile(corpus, []byte(toyCorpus), 0644); err != nil {
		t.Fatal(err)
	}

	// Alphabet ids are deterministic for a fixed corpus: words EU=1,
	// rejects=2, John=3; tags B-ORG, O, B-PER after the symbolic markers.
	numWords, dim := 4, 3
	numTags := conll.NumSymbolicTags + 3
	table := mat.NewDense(numWords, dim, []float64{
		0, 0, 0,
		1, 0, 0,
		0, 1, 0,
		0, 0, 1,
	})
	model := crf.NewModel(crf.FlavorStd, table, numTags)
	model.Weights.Set(0, conll.NumSymbolicTags, 5)   // EU -> B-ORG
	model.Weights.Set(1, conll.NumSymbolicTags+1, 5) // rejects -> O
	model.Weights.Set(2, conll.NumSymbolicTags+2, 5) // John -> B-PER
	checkpoint := filepath.Join(dir, "model.json")
	if err := model.SaveCheckpoint(checkpoint); err != nil {
		t.Fatal(err)
	}

	return &Config{
		Train:        corpus,
		Test:         corpus,
		EmbeddingDim: dim,
		AlphabetDir:  filepath.Join(dir, "alphabets"),
		Checkpoint:   checkpoint,
		BatchSize:    2,
		OutputFile:   filepath.Join(dir, "pred.txt"),
		ResultFile:   filepath.Join(dir, "results.txt"),
		Scorer:       sc,
	}
}

func TestEvaluateEndToEnd(t *testing.T) {
	perfect := scorer.Report{Accuracy: 100, Precision: 100, Recall: 100, F1: 100}
	cfg := toyConfig(t, &stubScorer{report: perfect})

	result, err := Evaluate(cfg)
	if err != nil {
		t.Fatal(err)
	}
	if result.Report != perfect {
		t.Errorf("report = %+v, want %+v", result.Report, perfect)
	}
	if result.Sentences != 2 {
		t.Errorf("sentences = %d, want 2", result.Sentences)
	}
	// no dictionary: every non-reserved word row is sampled
	if result.OOV != 3 {
		t.Errorf("oov = %d, want 3", result.OOV)
	}

	rendered, err := os.ReadFile(cfg.OutputFile)
	if err != nil {
		t.Fatal(err)
	}
	want := "EU B-ORG B-ORG\nrejects O O\n\nJohn B-PER B-PER\n\n"
	if string(rendered) != want {
		t.Errorf("rendered file = %q, want %q", string(rendered), want)
	}

	resultLine, err := os.ReadFile(cfg.ResultFile)
	if err != nil {
		t.Fatal(err)
	}
	wantLine := "test acc: 100.00%, precision: 100.00%, recall: 100.00%, F1: 100.00%\n"
	if string(resultLine) != wantLine {
		t.Errorf("result line = %q, want %q", string(resultLine), wantLine)
	}
}

func TestEvaluateAppendsPerRun(t *testing.T) {
	perfect := scorer.Report{Accuracy: 100, Precision: 100, Recall: 100, F1: 100}
	cfg := toyConfig(t, &stubScorer{report: perfect})

	if _, err := Evaluate(cfg); err != nil {
		t.Fatal(err)
	}
	if _, err := Evaluate(cfg); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(cfg.ResultFile)
	if err != nil {
		t.Fatal(err)
	}
	wantLine := "test acc: 100.00%, precision: 100.00%, recall: 100.00%, F1: 100.00%\n"
	if string(data) != wantLine+wantLine {
		t.Errorf("result file = %q, want two appended lines", string(data))
	}
}

func TestEvaluateScorerFailureAppendsNothing(t *testing.T) {
	cfg := toyConfig(t, &stubScorer{err: &scorer.ScoreParseError{Reason: "empty report"}})

	_, err := Evaluate(cfg)
	var perr *scorer.ScoreParseError
	if !errors.As(err, &perr) {
		t.Fatalf("err = %v, want ScoreParseError to propagate", err)
	}
	if _, err := os.Stat(cfg.ResultFile); !os.IsNotExist(err) {
		t.Error("result file must not exist after a failed run")
	}
}

func TestEvaluateBadCheckpointFailsFast(t *testing.T) {
	cfg := toyConfig(t, &stubScorer{})
	// corrupt the checkpoint shape
	badTable := mat.NewDense(9, 3, nil)
	bad := crf.NewModel(crf.FlavorStd, badTable, conll.NumSymbolicTags+3)
	if err := bad.SaveCheckpoint(cfg.Checkpoint); err != nil {
		t.Fatal(err)
	}

	_, err := Evaluate(cfg)
	var cerr *crf.CheckpointLoadError
	if !errors.As(err, &cerr) {
		t.Fatalf("err = %v, want CheckpointLoadError", err)
	}
	if _, serr := os.Stat(cfg.ResultFile); !os.IsNotExist(serr) {
		t.Error("result file must not exist after a failed run")
	}
}

func TestEvaluateRejectsUnknownFlavor(t *testing.T) {
	cfg := toyConfig(t, &stubScorer{})
	cfg.Flavor = "var"
	if _, err := Evaluate(cfg); err == nil {
		t.Error("expected error for unsupported flavor")
	}
}

func TestEvaluateRequiredPaths(t *testing.T) {
	if _, err := Evaluate(&Config{}); err == nil {
		t.Error("expected error for missing paths")
	}
}
