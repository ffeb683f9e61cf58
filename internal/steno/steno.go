// Package steno hides text between runs of filler characters and takes it
// back out again.
//
// Obscure walks the text one code point at a time. Each code point is
// followed by a run of filler, and the run length is recorded in a sequence.
// Space, newline, '.' and ',' are not written at all: a filler letter takes
// their place and a sentinel value (1 to 4) is recorded instead of a length.
// Real run lengths start at 8, so a sequence entry is never ambiguous.
package steno

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/i5heu/prolix/internal/filler"
)

var (
	ErrEmptyInput        = errors.New("steno: no text to obscure")
	ErrMalformedSequence = errors.New("steno: sequence does not fit the obscured text")
)

// Sentinel values stand for a character that is not present in the
// obscured text.
const (
	SentinelSpace   = 1
	SentinelNewline = 2
	SentinelPeriod  = 3
	SentinelComma   = 4
)

func sentinelFor(c rune) (int, bool) {
	switch c {
	case ' ':
		return SentinelSpace, true
	case '\n':
		return SentinelNewline, true
	case '.':
		return SentinelPeriod, true
	case ',':
		return SentinelComma, true
	}
	return 0, false
}

func literalFor(v int) (rune, bool) {
	switch v {
	case SentinelSpace:
		return ' ', true
	case SentinelNewline:
		return '\n', true
	case SentinelPeriod:
		return '.', true
	case SentinelComma:
		return ',', true
	}
	return 0, false
}

// IsSentinel reports whether v is one of the sentinel values.
func IsSentinel(v int) bool {
	_, ok := literalFor(v)
	return ok
}

// Result is the output of Obscure. Sequence has one entry per code point of
// the input text.
type Result struct {
	Text     string
	Sequence []int
}

// Engine obscures text. It keeps no per-call state and may be shared.
type Engine struct {
	gen *filler.Generator
}

func NewEngine(gen *filler.Generator) *Engine {
	return &Engine{gen: gen}
}

// Obscure interleaves text with filler. Invalid UTF-8 bytes in text are
// treated as U+FFFD.
func (e *Engine) Obscure(text string) (Result, error) {
	if text == "" {
		return Result{}, ErrEmptyInput
	}

	minOrd, maxOrd := OrdinalRange(text)

	var sb strings.Builder
	sb.Grow(len(text) * (filler.MaxPadding + filler.MinPadding) / 2)
	sequence := make([]int, 0, utf8.RuneCountInString(text))

	for _, c := range text {
		if v, ok := sentinelFor(c); ok {
			sb.WriteRune(e.gen.ByFrequency())
			sb.WriteString(e.gen.StringByFrequency(v))
			sequence = append(sequence, v)
			continue
		}

		padding := e.gen.PaddingLength()
		sb.WriteRune(c)
		if isASCIIAlpha(c) {
			sb.WriteString(e.gen.StringByFrequency(padding))
		} else {
			sb.WriteString(e.gen.UTF8String(padding, minOrd, maxOrd))
		}
		sequence = append(sequence, padding)
	}

	return Result{Text: sb.String(), Sequence: sequence}, nil
}

// Clarify calls the package level Clarify.
func (e *Engine) Clarify(obscured string, sequence []int) (string, error) {
	return Clarify(obscured, sequence)
}

// Clarify rebuilds the original text from obscured and the sequence Obscure
// returned with it. Nothing checks that the skipped filler is genuine, so a
// tampered text usually comes back silently wrong. An error is returned only
// when the sequence holds values Obscure never writes or when it walks past
// the end of obscured.
func Clarify(obscured string, sequence []int) (string, error) {
	runes := []rune(obscured)

	var sb strings.Builder
	sb.Grow(len(sequence))

	pos := 0
	for i, v := range sequence {
		if v < SentinelSpace || (v > SentinelComma && v < filler.MinPadding) {
			return "", fmt.Errorf("%w: entry %d has invalid value %d", ErrMalformedSequence, i, v)
		}
		if v > len(runes)-pos-1 {
			return "", fmt.Errorf("%w: entry %d needs %d characters at offset %d, text has %d",
				ErrMalformedSequence, i, v+1, pos, len(runes))
		}

		if lit, ok := literalFor(v); ok {
			sb.WriteRune(lit)
		} else {
			sb.WriteRune(runes[pos])
		}
		pos += 1 + v
	}

	return sb.String(), nil
}

// OrdinalRange returns the smallest and largest code point in text, with the
// minimum capped at 32.
func OrdinalRange(text string) (minOrd, maxOrd int) {
	minOrd = 32
	for _, c := range text {
		if int(c) < minOrd {
			minOrd = int(c)
		}
		if int(c) > maxOrd {
			maxOrd = int(c)
		}
	}
	return minOrd, maxOrd
}

func isASCIIAlpha(c rune) bool {
	return (c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z')
}
