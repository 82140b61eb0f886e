package conll

// PadID is the id used to fill padded positions of a batch. Padded positions
// never participate in scoring; the mask excludes them.
const PadID = UnknownID

// Batch is a rectangular stack of sentences padded to the batch's maximum
// length. Word, character and tag positions beyond a sentence's true length
// carry PadID and Mask is false there.
type Batch struct {
	Sentences []Sentence // the underlying sentences, unpadded
	Words     [][]int    // [size][maxLen]
	Chars     [][][]int  // [size][maxLen][maxWordLen]
	Tags      [][]int    // [size][maxLen]
	Mask      [][]bool   // [size][maxLen], mask[i][j] == j < Lengths[i]
	Lengths   []int
	Size      int
	MaxLen    int
}

// Iterator yields the dataset as fixed-size padded batches, in dataset
// order, the final batch shorter when the dataset size is not a multiple of
// the batch size. Reset restarts the identical sequence; there is no
// shuffling, evaluation must be reproducible.
type Iterator struct {
	data      []Sentence
	batchSize int
	pos       int
}

// NewIterator creates an iterator over data with the given batch size.
func NewIterator(data []Sentence, batchSize int) *Iterator {
	if batchSize < 1 {
		batchSize = 1
	}
	return &Iterator{data: data, batchSize: batchSize}
}

// Next returns the next batch, or (nil, false) when the dataset is exhausted.
func (it *Iterator) Next() (*Batch, bool) {
	if it.pos >= len(it.data) {
		return nil, false
	}
	end := it.pos + it.batchSize
	if end > len(it.data) {
		end = len(it.data)
	}
	batch := makeBatch(it.data[it.pos:end])
	it.pos = end
	return batch, true
}

// Reset restarts the iterator from the first sentence.
func (it *Iterator) Reset() {
	it.pos = 0
}

func makeBatch(sentences []Sentence) *Batch {
	size := len(sentences)
	maxLen := 0
	maxWordLen := 1
	for _, s := range sentences {
		if s.Length > maxLen {
			maxLen = s.Length
		}
		for _, chars := range s.CharIDs {
			if len(chars) > maxWordLen {
				maxWordLen = len(chars)
			}
		}
	}

	b := &Batch{
		Sentences: sentences,
		Words:     make([][]int, size),
		Chars:     make([][][]int, size),
		Tags:      make([][]int, size),
		Mask:      make([][]bool, size),
		Lengths:   make([]int, size),
		Size:      size,
		MaxLen:    maxLen,
	}
	for i, s := range sentences {
		b.Lengths[i] = s.Length
		b.Words[i] = make([]int, maxLen)
		b.Tags[i] = make([]int, maxLen)
		b.Mask[i] = make([]bool, maxLen)
		b.Chars[i] = make([][]int, maxLen)
		for j := 0; j < maxLen; j++ {
			b.Chars[i][j] = make([]int, maxWordLen)
			if j < s.Length {
				b.Words[i][j] = s.WordIDs[j]
				b.Tags[i][j] = s.TagIDs[j]
				b.Mask[i][j] = true
				copy(b.Chars[i][j], s.CharIDs[j])
			}
			// padded cells keep the zero value, which is PadID
		}
	}
	return b
}
