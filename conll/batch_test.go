package conll

import (
	"reflect"
	"testing"
)

func makeSentences(lengths ...int) []Sentence {
	sentences := make([]Sentence, len(lengths))
	next := 1
	for i, n := range lengths {
		s := Sentence{Length: n}
		for j := 0; j < n; j++ {
			s.Forms = append(s.Forms, "w")
			s.WordIDs = append(s.WordIDs, next)
			s.TagIDs = append(s.TagIDs, next%5+NumSymbolicTags)
			s.CharIDs = append(s.CharIDs, []int{next, next + 1})
			next++
		}
		sentences[i] = s
	}
	return sentences
}

func TestIteratorCoversDatasetInOrder(t *testing.T) {
	data := makeSentences(3, 1, 4, 2, 5)
	it := NewIterator(data, 2)

	var got []Sentence
	batches := 0
	for {
		b, ok := it.Next()
		if !ok {
			break
		}
		batches++
		got = append(got, b.Sentences...)
	}
	if batches != 3 {
		t.Errorf("batches = %d, want 3 (final batch short)", batches)
	}
	if !reflect.DeepEqual(got, data) {
		t.Error("concatenated batches do not reproduce the dataset")
	}
}

func TestIteratorRestartable(t *testing.T) {
	data := makeSentences(2, 3, 1)
	it := NewIterator(data, 2)

	collect := func() []*Batch {
		var out []*Batch
		for {
			b, ok := it.Next()
			if !ok {
				break
			}
			out = append(out, b)
		}
		return out
	}

	first := collect()
	it.Reset()
	second := collect()

	if len(first) != len(second) {
		t.Fatalf("batch counts differ: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if !reflect.DeepEqual(first[i], second[i]) {
			t.Errorf("batch %d differs between iterations", i)
		}
	}
}

func TestBatchPaddingAndMask(t *testing.T) {
	data := makeSentences(3, 1)
	it := NewIterator(data, 2)
	b, ok := it.Next()
	if !ok {
		t.Fatal("expected a batch")
	}

	if b.Size != 2 || b.MaxLen != 3 {
		t.Fatalf("Size=%d MaxLen=%d, want 2, 3", b.Size, b.MaxLen)
	}
	for i := range b.Words {
		for j := range b.Words[i] {
			inRange := j < b.Lengths[i]
			if b.Mask[i][j] != inRange {
				t.Errorf("mask[%d][%d] = %v, want %v", i, j, b.Mask[i][j], inRange)
			}
			if !inRange {
				if b.Words[i][j] != PadID || b.Tags[i][j] != PadID {
					t.Errorf("padded cell [%d][%d] carries ids (%d, %d), want %d",
						i, j, b.Words[i][j], b.Tags[i][j], PadID)
				}
			}
		}
	}
	// mask rows are a true-prefix: no true after the first false
	for i := range b.Mask {
		seenFalse := false
		for j := range b.Mask[i] {
			if !b.Mask[i][j] {
				seenFalse = true
			} else if seenFalse {
				t.Errorf("mask row %d is not a prefix", i)
			}
		}
	}
}

func TestBatchCharPadding(t *testing.T) {
	data := []Sentence{{
		Forms:   []string{"ab", "c"},
		WordIDs: []int{1, 2},
		TagIDs:  []int{3, 4},
		CharIDs: [][]int{{1, 2}, {3}},
		Length:  2,
	}}
	it := NewIterator(data, 1)
	b, _ := it.Next()

	if len(b.Chars[0][0]) != 2 || len(b.Chars[0][1]) != 2 {
		t.Fatalf("char rows not padded to max word length")
	}
	if b.Chars[0][1][1] != PadID {
		t.Errorf("char padding = %d, want %d", b.Chars[0][1][1], PadID)
	}
}
