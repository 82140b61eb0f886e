package embedding

import (
	"compress/gzip"
	"errors"
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"testing"

	"github.com/zhijing-jin/nereval/conll"
)

func writeDict(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "dict.txt")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadDict(t *testing.T) {
	path := writeDict(t, "the 0.1 0.2 0.3\nof -0.5 0.25 1.0\n")
	dict, dim, err := LoadDict(path)
	if err != nil {
		t.Fatal(err)
	}
	if dim != 3 {
		t.Errorf("dim = %d, want 3", dim)
	}
	if len(dict) != 2 {
		t.Errorf("entries = %d, want 2", len(dict))
	}
	want := []float64{-0.5, 0.25, 1.0}
	for i, v := range dict["of"] {
		if v != want[i] {
			t.Errorf("of[%d] = %v, want %v", i, v, want[i])
		}
	}
}

func TestLoadDictGzip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dict.txt.gz")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	gw := gzip.NewWriter(f)
	if _, err := gw.Write([]byte("the 0.1 0.2\n")); err != nil {
		t.Fatal(err)
	}
	if err := gw.Close(); err != nil {
		t.Fatal(err)
	}
	if err := f.Close(); err != nil {
		t.Fatal(err)
	}

	dict, dim, err := LoadDict(path)
	if err != nil {
		t.Fatal(err)
	}
	if dim != 2 || len(dict) != 1 {
		t.Errorf("dim=%d entries=%d, want 2, 1", dim, len(dict))
	}
}

func TestLoadDictMalformed(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"ragged", "the 0.1 0.2\nof 0.5\n"},
		{"bad value", "the 0.1 zebra\n"},
		{"word only", "the\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeDict(t, tt.content)
			_, _, err := LoadDict(path)
			var ferr *DictionaryFormatError
			if !errors.As(err, &ferr) {
				t.Errorf("err = %v, want DictionaryFormatError", err)
			}
		})
	}
}

func buildAlphabet(t *testing.T, words ...string) *conll.Alphabet {
	t.Helper()
	a := conll.NewAlphabet("word")
	for _, w := range words {
		if _, err := a.Add(w); err != nil {
			t.Fatal(err)
		}
	}
	a.Close()
	return a
}

func TestBuildTable(t *testing.T) {
	a := buildAlphabet(t, "The", "rejects", "zzzunseen")
	dict := map[string][]float64{
		"the":     {0.1, 0.2}, // lowercase match for "The"
		"rejects": {0.3, 0.4},
	}
	table, oov := BuildTable(a, dict, 2, rand.New(rand.NewSource(7)))

	rows, cols := table.Dims()
	if rows != a.Size() || cols != 2 {
		t.Fatalf("table dims = (%d, %d), want (%d, 2)", rows, cols, a.Size())
	}
	if oov != 1 {
		t.Errorf("oov = %d, want 1 (only zzzunseen)", oov)
	}

	// dictionary rows are copied verbatim
	id := a.ID("rejects")
	if table.At(id, 0) != 0.3 || table.At(id, 1) != 0.4 {
		t.Errorf("rejects row = (%v, %v), want (0.3, 0.4)", table.At(id, 0), table.At(id, 1))
	}
	id = a.ID("The")
	if table.At(id, 0) != 0.1 || table.At(id, 1) != 0.2 {
		t.Errorf("The row = (%v, %v), want lowercase dict match (0.1, 0.2)", table.At(id, 0), table.At(id, 1))
	}

	// sampled rows stay inside [-scale, scale]
	scale := math.Sqrt(3.0 / 2.0)
	id = a.ID("zzzunseen")
	for j := 0; j < 2; j++ {
		v := table.At(id, j)
		if v < -scale || v > scale {
			t.Errorf("sampled value %v outside [-%v, %v]", v, scale, scale)
		}
	}
}

func TestBuildTableUnknownAlwaysSampled(t *testing.T) {
	a := buildAlphabet(t)
	// even a dictionary entry for the literal unknown marker must be ignored
	dict := map[string][]float64{conll.UnknownMarker: {9.0, 9.0}}
	table, oov := BuildTable(a, dict, 2, rand.New(rand.NewSource(1)))

	if oov != 0 {
		t.Errorf("oov = %d, want 0", oov)
	}
	if table.At(conll.UnknownID, 0) == 9.0 && table.At(conll.UnknownID, 1) == 9.0 {
		t.Error("unknown row was dictionary-looked-up, must always be sampled")
	}
}

func TestBuildTableReproducible(t *testing.T) {
	a := buildAlphabet(t, "x", "y")
	first, _ := BuildTable(a, nil, 4, rand.New(rand.NewSource(42)))
	second, _ := BuildTable(a, nil, 4, rand.New(rand.NewSource(42)))

	rows, cols := first.Dims()
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			if first.At(i, j) != second.At(i, j) {
				t.Fatalf("tables differ at (%d, %d) for identical seeds", i, j)
			}
		}
	}
}

func TestBuildTableEmptyDict(t *testing.T) {
	a := buildAlphabet(t, "x", "y")
	_, oov := BuildTable(a, nil, 3, rand.New(rand.NewSource(3)))
	if oov != 2 {
		t.Errorf("oov = %d, want 2 (all non-reserved rows sampled)", oov)
	}
}
