// Package crf decodes tag sequences under a linear-chain CRF: per-token
// emission scores plus pairwise tag-transition scores, maximized jointly.
package crf

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// ShapeMismatchError reports emission/transition tensors whose tag
// dimensions disagree.
type ShapeMismatchError struct {
	EmissionTags   int
	TransitionRows int
	TransitionCols int
}

func (e *ShapeMismatchError) Error() string {
	return fmt.Sprintf("crf: emission tag dimension %d does not match transition matrix %dx%d",
		e.EmissionTags, e.TransitionRows, e.TransitionCols)
}

// DecodeBatch finds, independently for every sentence in a batch, the tag
// sequence maximizing the sum of emission scores plus transition scores
// between consecutive tags.
//
// emissions holds one (maxLen x numTags) score matrix per sentence; trans is
// the (numTags x numTags) transition matrix, trans[i][j] scoring tag i
// followed by tag j. Positions at or beyond a sentence's length are ignored.
// The first leadingSymbolic tag ids are reserved markers and never selected.
// Ties between predecessors keep the lowest tag id. Inputs are not mutated.
//
// Returns per-sentence predicted tag ids, truncated to true lengths, and the
// best path score per sentence.
func DecodeBatch(emissions []*mat.Dense, trans *mat.Dense, lengths []int, leadingSymbolic int) ([][]int, []float64, error) {
	tr, tc := trans.Dims()
	if tr != tc {
		return nil, nil, &ShapeMismatchError{EmissionTags: -1, TransitionRows: tr, TransitionCols: tc}
	}
	for _, e := range emissions {
		if _, cols := e.Dims(); cols != tr {
			return nil, nil, &ShapeMismatchError{EmissionTags: cols, TransitionRows: tr, TransitionCols: tc}
		}
	}
	if len(emissions) != len(lengths) {
		return nil, nil, fmt.Errorf("crf: %d emission matrices for %d lengths", len(emissions), len(lengths))
	}

	preds := make([][]int, len(emissions))
	scores := make([]float64, len(emissions))
	for i, e := range emissions {
		preds[i], scores[i] = viterbi(e, trans, lengths[i], leadingSymbolic)
	}
	return preds, scores, nil
}

// viterbi runs the max-sum trellis search over the first length rows of the
// emission matrix, restricted to tags in [leadingSymbolic, numTags).
func viterbi(emissions, trans *mat.Dense, length, leadingSymbolic int) ([]int, float64) {
	if length <= 0 {
		return nil, math.Inf(-1)
	}
	_, numTags := emissions.Dims()

	// delta[t][y] = best score ending at position t with tag y
	delta := make([][]float64, length)
	// psi[t][y] = predecessor tag for backtracking
	psi := make([][]int, length)

	delta[0] = make([]float64, numTags)
	psi[0] = make([]int, numTags)
	for y := leadingSymbolic; y < numTags; y++ {
		delta[0][y] = emissions.At(0, y)
		psi[0][y] = leadingSymbolic
	}

	for t := 1; t < length; t++ {
		delta[t] = make([]float64, numTags)
		psi[t] = make([]int, numTags)
		for y := leadingSymbolic; y < numTags; y++ {
			bestScore := math.Inf(-1)
			bestPrev := leadingSymbolic
			for yp := leadingSymbolic; yp < numTags; yp++ {
				score := delta[t-1][yp] + trans.At(yp, y)
				// strict > keeps the lowest tag id on ties
				if score > bestScore {
					bestScore = score
					bestPrev = yp
				}
			}
			delta[t][y] = bestScore + emissions.At(t, y)
			psi[t][y] = bestPrev
		}
	}

	bestScore := math.Inf(-1)
	bestTag := leadingSymbolic
	for y := leadingSymbolic; y < numTags; y++ {
		if delta[length-1][y] > bestScore {
			bestScore = delta[length-1][y]
			bestTag = y
		}
	}

	path := make([]int, length)
	path[length-1] = bestTag
	for t := length - 2; t >= 0; t-- {
		path[t] = psi[t+1][path[t+1]]
	}
	return path, bestScore
}
