package conll

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/zhijing-jin/nereval/internal/textutil"
)

// Sentence is one id-encoded sentence: parallel word, character and gold tag
// id sequences of identical length (characters vary per word).
type Sentence struct {
	Forms   []string // raw surface forms, for rendering
	WordIDs []int
	CharIDs [][]int
	TagIDs  []int
	Length  int
}

// scanCorpus calls fn for every (word, gold tag) token of a column-format
// corpus file: one token per line, word in the first column, gold tag in the
// last, blank line between sentences.
func scanCorpus(path string, fn func(form, goldTag string) error) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	lineno := 0
	for sc.Scan() {
		lineno++
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 2 {
			return fmt.Errorf("line %d: expected at least 2 columns, got %d", lineno, len(fields))
		}
		if err := fn(fields[0], fields[len(fields)-1]); err != nil {
			return err
		}
	}
	return sc.Err()
}

// ReadCorpus parses a column-format corpus into id-encoded Sentences using
// frozen alphabets. Word forms are digit-folded before lookup; unknown
// symbols collapse to the unknown id.
func ReadCorpus(path string, alphabets *Alphabets) ([]Sentence, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("conll: open corpus: %w", err)
	}
	defer func() { _ = f.Close() }()

	var sentences []Sentence
	var cur Sentence

	flush := func() {
		if cur.Length > 0 {
			sentences = append(sentences, cur)
			cur = Sentence{}
		}
	}

	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	lineno := 0
	for sc.Scan() {
		lineno++
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			flush()
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 2 {
			return nil, fmt.Errorf("conll: %s line %d: expected at least 2 columns, got %d", path, lineno, len(fields))
		}
		form := fields[0]
		goldTag := fields[len(fields)-1]
		folded := textutil.FoldDigits(form)

		chars := make([]int, 0, len(folded))
		for _, r := range folded {
			chars = append(chars, alphabets.Char.ID(string(r)))
		}

		cur.Forms = append(cur.Forms, form)
		cur.WordIDs = append(cur.WordIDs, alphabets.Word.ID(folded))
		cur.CharIDs = append(cur.CharIDs, chars)
		cur.TagIDs = append(cur.TagIDs, alphabets.Tag.ID(goldTag))
		cur.Length++
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("conll: read corpus: %w", err)
	}
	flush()

	return sentences, nil
}
