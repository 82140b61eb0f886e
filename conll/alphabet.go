// Package conll handles CoNLL-03 style tagged corpora: alphabets, reading,
// batching and prediction output.
package conll

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// UnknownMarker is the reserved symbol at id 0 of every alphabet. It doubles
// as the padding fill value: padded positions carry id 0 and are masked out
// of scoring.
const UnknownMarker = "<_UNK>"

// UnknownID is the id of UnknownMarker in every alphabet.
const UnknownID = 0

// ErrFrozen is returned when a new symbol is added to a closed alphabet.
var ErrFrozen = errors.New("conll: alphabet is frozen")

// Alphabet maps between symbols (words, characters, tags) and integer IDs.
// It grows only during a building phase; Close freezes it, after which
// lookups of absent symbols collapse to UnknownID.
type Alphabet struct {
	Name   string         `json:"name"`
	ToID   map[string]int `json:"to_id"`
	ToStr  []string       `json:"to_str"`
	frozen bool
}

// NewAlphabet creates an open alphabet with the unknown marker at id 0.
func NewAlphabet(name string) *Alphabet {
	a := &Alphabet{
		Name: name,
		ToID: make(map[string]int),
	}
	a.ToID[UnknownMarker] = UnknownID
	a.ToStr = append(a.ToStr, UnknownMarker)
	return a
}

// Add inserts a symbol if absent and returns its id. Adding an existing
// symbol is a no-op returning the assigned id. Adding a new symbol to a
// frozen alphabet returns ErrFrozen.
func (a *Alphabet) Add(s string) (int, error) {
	if id, ok := a.ToID[s]; ok {
		return id, nil
	}
	if a.frozen {
		return UnknownID, fmt.Errorf("%w: cannot add %q to %s", ErrFrozen, s, a.Name)
	}
	id := len(a.ToStr)
	a.ToID[s] = id
	a.ToStr = append(a.ToStr, s)
	return id, nil
}

// ID returns the id for a symbol. Absent symbols map to UnknownID once the
// alphabet is frozen, and to -1 while it is still building.
func (a *Alphabet) ID(s string) int {
	if id, ok := a.ToID[s]; ok {
		return id
	}
	if a.frozen {
		return UnknownID
	}
	return -1
}

// Str returns the symbol for an id, or the unknown marker for ids out of range.
func (a *Alphabet) Str(id int) string {
	if id < 0 || id >= len(a.ToStr) {
		return UnknownMarker
	}
	return a.ToStr[id]
}

// Size returns the number of entries, reserved ids included.
func (a *Alphabet) Size() int {
	return len(a.ToStr)
}

// Close freezes the alphabet.
func (a *Alphabet) Close() {
	a.frozen = true
}

// Frozen reports whether the alphabet is closed.
func (a *Alphabet) Frozen() bool {
	return a.frozen
}

// Save serializes the alphabet to JSON.
func (a *Alphabet) Save(dir string) error {
	data, err := json.MarshalIndent(a, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, a.Name+".json"), data, 0644)
}

// LoadAlphabet deserializes an alphabet from JSON. Loaded alphabets are
// frozen: ids must stay stable across runs.
func LoadAlphabet(dir, name string) (*Alphabet, error) {
	data, err := os.ReadFile(filepath.Join(dir, name+".json"))
	if err != nil {
		return nil, err
	}
	var a Alphabet
	if err := json.Unmarshal(data, &a); err != nil {
		return nil, fmt.Errorf("conll: load alphabet %s: %w", name, err)
	}
	a.frozen = true
	return &a, nil
}
