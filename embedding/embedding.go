// Package embedding loads pretrained word-vector dictionaries and builds the
// dense embedding table a model is constructed with.
package embedding

import (
	"bufio"
	"compress/gzip"
	"fmt"
	"io"
	"math"
	"math/rand"
	"os"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/mat"

	"github.com/zhijing-jin/nereval/conll"
)

// DictionaryFormatError reports a malformed pretrained dictionary file.
type DictionaryFormatError struct {
	Path   string
	Line   int
	Reason string
}

func (e *DictionaryFormatError) Error() string {
	return fmt.Sprintf("embedding: %s line %d: %s", e.Path, e.Line, e.Reason)
}

// LoadDict reads a text dictionary of "word v1 v2 ... vD" lines (gzip when
// the path ends in .gz) and returns the mapping plus the vector width,
// inferred from the first entry. Ragged rows or unparsable values fail with
// a DictionaryFormatError.
func LoadDict(path string) (map[string][]float64, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, fmt.Errorf("embedding: open dictionary: %w", err)
	}
	defer func() { _ = f.Close() }()

	var r io.Reader = f
	if strings.HasSuffix(path, ".gz") {
		gr, err := gzip.NewReader(f)
		if err != nil {
			return nil, 0, fmt.Errorf("embedding: gzip reader: %w", err)
		}
		defer func() { _ = gr.Close() }()
		r = gr
	}

	dict := make(map[string][]float64)
	dim := 0
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	lineno := 0
	for sc.Scan() {
		lineno++
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 2 {
			return nil, 0, &DictionaryFormatError{Path: path, Line: lineno, Reason: "expected word followed by values"}
		}
		vec := make([]float64, len(fields)-1)
		for i, fv := range fields[1:] {
			v, err := strconv.ParseFloat(fv, 64)
			if err != nil {
				return nil, 0, &DictionaryFormatError{Path: path, Line: lineno, Reason: fmt.Sprintf("bad value %q", fv)}
			}
			vec[i] = v
		}
		if dim == 0 {
			dim = len(vec)
		} else if len(vec) != dim {
			return nil, 0, &DictionaryFormatError{Path: path, Line: lineno,
				Reason: fmt.Sprintf("vector width %d, expected %d", len(vec), dim)}
		}
		dict[fields[0]] = vec
	}
	if err := sc.Err(); err != nil {
		return nil, 0, fmt.Errorf("embedding: read dictionary: %w", err)
	}
	return dict, dim, nil
}

// BuildTable produces the (alphabet.Size() x dim) embedding table. Rows for
// words present in the dictionary (case-sensitive, else lowercase) are the
// dictionary vectors verbatim; every other row, the unknown row included, is
// drawn uniformly from [-sqrt(3/dim), sqrt(3/dim)] using rng. Returns the
// table and the number of out-of-vocabulary rows sampled, the unknown row
// excluded from the count.
func BuildTable(alphabet *conll.Alphabet, dict map[string][]float64, dim int, rng *rand.Rand) (*mat.Dense, int) {
	scale := math.Sqrt(3.0 / float64(dim))
	table := mat.NewDense(alphabet.Size(), dim, nil)

	sample := func(row int) {
		for j := 0; j < dim; j++ {
			table.Set(row, j, rng.Float64()*2*scale - scale)
		}
	}

	// The unknown row is always sampled, never looked up.
	sample(conll.UnknownID)

	oov := 0
	for id := 0; id < alphabet.Size(); id++ {
		if id == conll.UnknownID {
			continue
		}
		word := alphabet.Str(id)
		vec, ok := dict[word]
		if !ok {
			vec, ok = dict[strings.ToLower(word)]
		}
		if ok {
			table.SetRow(id, vec)
			continue
		}
		sample(id)
		oov++
	}
	return table, oov
}
