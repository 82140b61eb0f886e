package crf

import (
	"encoding/json"
	"fmt"
	"os"

	"gonum.org/v1/gonum/mat"

	"github.com/zhijing-jin/nereval/conll"
)

// Flavor selects among the supported model variants. The set is closed:
// selection strings outside it are rejected at parse time.
type Flavor int

const (
	// FlavorStd is the standard-dropout variant.
	FlavorStd Flavor = iota
	// FlavorWeightDrop is the weight-drop variant.
	FlavorWeightDrop
)

func (f Flavor) String() string {
	switch f {
	case FlavorStd:
		return "std"
	case FlavorWeightDrop:
		return "weight_drop"
	}
	return fmt.Sprintf("Flavor(%d)", int(f))
}

// ParseFlavor maps a selection string to a Flavor.
func ParseFlavor(s string) (Flavor, error) {
	switch s {
	case "std":
		return FlavorStd, nil
	case "weight_drop":
		return FlavorWeightDrop, nil
	}
	return 0, fmt.Errorf("crf: unknown model flavor %q (supported: std, weight_drop)", s)
}

// CheckpointLoadError reports an incompatible restored parameter blob.
// Restoring is all-or-nothing: on any mismatch the model is left untouched.
type CheckpointLoadError struct {
	Path   string
	Reason string
}

func (e *CheckpointLoadError) Error() string {
	return fmt.Sprintf("crf: load checkpoint %s: %s", e.Path, e.Reason)
}

// Model scores tag sequences: a word embedding table, a linear emission
// projection and a tag-transition matrix. Dropout is inactive at evaluation
// time, so the flavors share this parameterization.
type Model struct {
	Flavor      Flavor
	Embeddings  *mat.Dense // numWords x dim
	Weights     *mat.Dense // dim x numTags
	Bias        []float64  // numTags
	Transitions *mat.Dense // numTags x numTags
	NumTags     int
}

// NewModel constructs a model around an embedding table. Emission and
// transition parameters start at zero and are restored from a checkpoint.
// The table's ownership transfers to the model.
func NewModel(flavor Flavor, table *mat.Dense, numTags int) *Model {
	_, dim := table.Dims()
	return &Model{
		Flavor:      flavor,
		Embeddings:  table,
		Weights:     mat.NewDense(dim, numTags, nil),
		Bias:        make([]float64, numTags),
		Transitions: mat.NewDense(numTags, numTags, nil),
		NumTags:     numTags,
	}
}

// Emissions computes the (length x NumTags) emission score matrix for one
// sentence: e[t][y] = embed(word_t) . W[:,y] + b[y].
func (m *Model) Emissions(wordIDs []int, length int) *mat.Dense {
	numWords, dim := m.Embeddings.Dims()
	e := mat.NewDense(max(length, 1), m.NumTags, nil)
	for t := 0; t < length; t++ {
		id := wordIDs[t]
		if id < 0 || id >= numWords {
			id = conll.UnknownID
		}
		for y := 0; y < m.NumTags; y++ {
			score := m.Bias[y]
			for d := 0; d < dim; d++ {
				score += m.Embeddings.At(id, d) * m.Weights.At(d, y)
			}
			e.Set(t, y, score)
		}
	}
	return e
}

// Decode returns the best tag sequence and its score for every sentence in
// the batch, excluding the first leadingSymbolic tag ids from candidates.
// Predictions are truncated to true sentence lengths.
func (m *Model) Decode(batch *conll.Batch, leadingSymbolic int) ([][]int, []float64, error) {
	emissions := make([]*mat.Dense, batch.Size)
	for i := 0; i < batch.Size; i++ {
		emissions[i] = m.Emissions(batch.Words[i], batch.Lengths[i])
	}
	return DecodeBatch(emissions, m.Transitions, batch.Lengths, leadingSymbolic)
}

// checkpointJSON is the on-disk parameter blob.
type checkpointJSON struct {
	Flavor      string    `json:"flavor"`
	NumWords    int       `json:"num_words"`
	Dim         int       `json:"dim"`
	NumTags     int       `json:"num_tags"`
	Embeddings  []float64 `json:"embeddings"`
	Weights     []float64 `json:"weights"`
	Bias        []float64 `json:"bias"`
	Transitions []float64 `json:"transitions"`
}

// SaveCheckpoint serializes the model parameters to JSON.
func (m *Model) SaveCheckpoint(path string) error {
	numWords, dim := m.Embeddings.Dims()
	ck := checkpointJSON{
		Flavor:      m.Flavor.String(),
		NumWords:    numWords,
		Dim:         dim,
		NumTags:     m.NumTags,
		Embeddings:  append([]float64(nil), m.Embeddings.RawMatrix().Data...),
		Weights:     append([]float64(nil), m.Weights.RawMatrix().Data...),
		Bias:        append([]float64(nil), m.Bias...),
		Transitions: append([]float64(nil), m.Transitions.RawMatrix().Data...),
	}
	data, err := json.Marshal(ck)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// RestoreCheckpoint loads a parameter blob into the model. Loading is
// all-or-nothing: any dimension mismatch against the constructed model
// fails with a CheckpointLoadError and leaves the model unchanged.
func (m *Model) RestoreCheckpoint(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return &CheckpointLoadError{Path: path, Reason: err.Error()}
	}
	var ck checkpointJSON
	if err := json.Unmarshal(data, &ck); err != nil {
		return &CheckpointLoadError{Path: path, Reason: err.Error()}
	}

	flavor, err := ParseFlavor(ck.Flavor)
	if err != nil {
		return &CheckpointLoadError{Path: path, Reason: err.Error()}
	}
	numWords, dim := m.Embeddings.Dims()
	if ck.NumWords != numWords || ck.Dim != dim || ck.NumTags != m.NumTags {
		return &CheckpointLoadError{Path: path, Reason: fmt.Sprintf(
			"shape mismatch: checkpoint (%d words, %d dim, %d tags), model (%d words, %d dim, %d tags)",
			ck.NumWords, ck.Dim, ck.NumTags, numWords, dim, m.NumTags)}
	}
	if len(ck.Embeddings) != numWords*dim {
		return &CheckpointLoadError{Path: path, Reason: fmt.Sprintf("embeddings length %d, want %d", len(ck.Embeddings), numWords*dim)}
	}
	if len(ck.Weights) != dim*m.NumTags {
		return &CheckpointLoadError{Path: path, Reason: fmt.Sprintf("weights length %d, want %d", len(ck.Weights), dim*m.NumTags)}
	}
	if len(ck.Bias) != m.NumTags {
		return &CheckpointLoadError{Path: path, Reason: fmt.Sprintf("bias length %d, want %d", len(ck.Bias), m.NumTags)}
	}
	if len(ck.Transitions) != m.NumTags*m.NumTags {
		return &CheckpointLoadError{Path: path, Reason: fmt.Sprintf("transitions length %d, want %d", len(ck.Transitions), m.NumTags*m.NumTags)}
	}

	m.Flavor = flavor
	m.Embeddings = mat.NewDense(numWords, dim, ck.Embeddings)
	m.Weights = mat.NewDense(dim, m.NumTags, ck.Weights)
	m.Bias = ck.Bias
	m.Transitions = mat.NewDense(m.NumTags, m.NumTags, ck.Transitions)
	return nil
}
