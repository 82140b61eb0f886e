package conll

import (
	"fmt"
	"log/slog"
	"os"
	"sort"
	"strings"

	"github.com/zhijing-jin/nereval/internal/textutil"
)

// Symbolic tag markers reserved at the head of the tag alphabet. Decoding
// never selects among them.
const (
	BeginMarker = "<_BOS>"
	EndMarker   = "<_EOS>"

	// NumSymbolicTags is the number of leading symbolic tag ids
	// (unknown/pad, begin, end) excluded from decoder candidates.
	NumSymbolicTags = 3
)

// Alphabets bundles the three vocabularies of a tagged corpus.
type Alphabets struct {
	Word *Alphabet
	Char *Alphabet
	Tag  *Alphabet
}

// CreateAlphabets builds word, character and tag alphabets from the training
// corpus, then freezes and persists them under dir. If dir already holds
// persisted alphabets they are loaded instead, keeping ids stable across runs.
//
// The word alphabet is built from a full scan of the training corpus, capped
// at maxVocab symbols by descending frequency (ties keep first occurrence).
// Words seen only in dataPaths (dev/test) are admitted when present in the
// pretrained dictionary, case-sensitively or lowercased; everything else
// collapses to the unknown id at lookup time.
func CreateAlphabets(dir, trainPath string, dataPaths []string, dict map[string][]float64, maxVocab int) (*Alphabets, error) {
	if loaded, err := loadAlphabets(dir); err == nil {
		slog.Info("Loaded alphabets", "dir", dir,
			"words", loaded.Word.Size(), "chars", loaded.Char.Size(), "tags", loaded.Tag.Size())
		return loaded, nil
	}

	word := NewAlphabet("word")
	char := NewAlphabet("char")
	tag := NewAlphabet("tag")
	if _, err := tag.Add(BeginMarker); err != nil {
		return nil, err
	}
	if _, err := tag.Add(EndMarker); err != nil {
		return nil, err
	}

	type wordStat struct {
		form  string
		count int
		order int
	}
	freq := make(map[string]*wordStat)

	err := scanCorpus(trainPath, func(form, goldTag string) error {
		folded := textutil.FoldDigits(form)
		if st, ok := freq[folded]; ok {
			st.count++
		} else {
			freq[folded] = &wordStat{form: folded, count: 1, order: len(freq)}
		}
		for _, r := range folded {
			if _, err := char.Add(string(r)); err != nil {
				return err
			}
		}
		_, err := tag.Add(goldTag)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("conll: scan %s: %w", trainPath, err)
	}

	stats := make([]*wordStat, 0, len(freq))
	for _, st := range freq {
		stats = append(stats, st)
	}
	sort.Slice(stats, func(i, j int) bool {
		if stats[i].count != stats[j].count {
			return stats[i].count > stats[j].count
		}
		return stats[i].order < stats[j].order
	})
	if maxVocab > 0 && len(stats) > maxVocab {
		stats = stats[:maxVocab]
	}
	for _, st := range stats {
		if _, err := word.Add(st.form); err != nil {
			return nil, err
		}
	}

	// Dev/test words are only useful when the dictionary can supply a vector.
	for _, path := range dataPaths {
		err := scanCorpus(path, func(form, goldTag string) error {
			folded := textutil.FoldDigits(form)
			if _, err := tag.Add(goldTag); err != nil {
				return err
			}
			if word.ID(folded) >= 0 {
				return nil
			}
			if _, ok := dict[folded]; !ok {
				if _, ok := dict[strings.ToLower(folded)]; !ok {
					return nil
				}
			}
			for _, r := range folded {
				if _, err := char.Add(string(r)); err != nil {
					return err
				}
			}
			_, err := word.Add(folded)
			return err
		})
		if err != nil {
			return nil, fmt.Errorf("conll: scan %s: %w", path, err)
		}
	}

	word.Close()
	char.Close()
	tag.Close()

	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("conll: create alphabet dir: %w", err)
	}
	for _, a := range []*Alphabet{word, char, tag} {
		if err := a.Save(dir); err != nil {
			return nil, fmt.Errorf("conll: save alphabet %s: %w", a.Name, err)
		}
	}
	slog.Info("Created alphabets", "dir", dir,
		"words", word.Size(), "chars", char.Size(), "tags", tag.Size())

	return &Alphabets{Word: word, Char: char, Tag: tag}, nil
}

func loadAlphabets(dir string) (*Alphabets, error) {
	word, err := LoadAlphabet(dir, "word")
	if err != nil {
		return nil, err
	}
	char, err := LoadAlphabet(dir, "char")
	if err != nil {
		return nil, err
	}
	tag, err := LoadAlphabet(dir, "tag")
	if err != nil {
		return nil, err
	}
	return &Alphabets{Word: word, Char: char, Tag: tag}, nil
}
