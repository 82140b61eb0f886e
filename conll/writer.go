package conll

import (
	"bufio"
	"errors"
	"fmt"
	"os"
)

// ErrClosed is returned by Writer.Write when the writer is not open.
var ErrClosed = errors.New("conll: writer is closed")

// Writer renders predictions in the format the external scorer consumes:
// one "word predicted gold" line per token, a blank line between sentences.
// Lifecycle: closed -> open (Start) -> closed (Close).
type Writer struct {
	wordAlphabet *Alphabet
	tagAlphabet  *Alphabet
	f            *os.File
	buf          *bufio.Writer
}

// NewWriter creates a closed Writer resolving ids through the given alphabets.
func NewWriter(wordAlphabet, tagAlphabet *Alphabet) *Writer {
	return &Writer{wordAlphabet: wordAlphabet, tagAlphabet: tagAlphabet}
}

// Start opens the output file for writing.
func (w *Writer) Start(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("conll: start writer: %w", err)
	}
	w.f = f
	w.buf = bufio.NewWriter(f)
	return nil
}

// Write appends one batch of predictions: for each sentence, one line per
// real token, truncated at the sentence's true length, then a blank
// separator line. Padding never reaches the output.
func (w *Writer) Write(words, preds, golds [][]int, lengths []int) error {
	if w.buf == nil {
		return ErrClosed
	}
	for i, length := range lengths {
		for j := 0; j < length; j++ {
			_, err := fmt.Fprintf(w.buf, "%s %s %s\n",
				w.wordAlphabet.Str(words[i][j]),
				w.tagAlphabet.Str(preds[i][j]),
				w.tagAlphabet.Str(golds[i][j]))
			if err != nil {
				return fmt.Errorf("conll: write prediction: %w", err)
			}
		}
		if _, err := fmt.Fprintln(w.buf); err != nil {
			return fmt.Errorf("conll: write separator: %w", err)
		}
	}
	return nil
}

// Close flushes and releases the underlying file. Subsequent Writes fail
// with ErrClosed.
func (w *Writer) Close() error {
	if w.buf == nil {
		return nil
	}
	flushErr := w.buf.Flush()
	closeErr := w.f.Close()
	w.buf = nil
	w.f = nil
	if flushErr != nil {
		return fmt.Errorf("conll: flush writer: %w", flushErr)
	}
	if closeErr != nil {
		return fmt.Errorf("conll: close writer: %w", closeErr)
	}
	return nil
}
