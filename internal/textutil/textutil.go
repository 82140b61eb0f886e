// Package textutil provides token normalization for corpus processing.
package textutil

import (
	"regexp"
	"strings"
)

var digitRe = regexp.MustCompile(`\d`)

// FoldDigits replaces every decimal digit with '0', so "1996-08-22" becomes
// "0000-00-00". Word forms are folded before alphabet lookup; the raw form is
// kept for rendering.
func FoldDigits(s string) string {
	return digitRe.ReplaceAllString(s, "0")
}

var (
	newlineRe    = regexp.MustCompile(`[\n\r]`)
	multiSpaceRe = regexp.MustCompile(`\s{2,}`)
)

// NormalizeWhitespaces replaces newlines and multiple whitespace with a single space.
func NormalizeWhitespaces(text string) string {
	text = newlineRe.ReplaceAllString(text, " ")
	return multiSpaceRe.ReplaceAllString(text, " ")
}

// Normalize lowercases text and normalizes whitespace.
func Normalize(text string) string {
	return NormalizeWhitespaces(strings.ToLower(text))
}
