// Package filler produces the random characters interleaved with real text.
//
// Two modes exist. Uniform mode draws code points evenly from a numeric
// range and keeps only legal ones. Frequency mode draws ASCII letters from a
// Lookup so that filler looks like ordinary English to a casual letter count.
// Both read from crypto/rand; callers cannot seed or replay them.
package filler

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"

	"github.com/i5heu/prolix/internal/codepoint"
)

const (
	// MinPadding and MaxPadding bound the length of a filler run. MinPadding
	// must stay above the largest sentinel value.
	MinPadding = 8
	MaxPadding = 64

	asciiLower = 33
	asciiUpper = 126
)

type source interface {
	IntN(n int) int
}

type cryptoSource struct{}

// IntN returns a uniform value in [0, n).
func (cryptoSource) IntN(n int) int {
	v, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		// crypto/rand only fails when the OS entropy source is broken.
		panic(fmt.Sprintf("filler: secure random source failed: %v", err))
	}
	return int(v.Int64())
}

// Generator draws filler characters. It is safe for concurrent use.
type Generator struct {
	lookup *Lookup
	src    source
}

// New returns a Generator that draws frequency-weighted letters from lookup.
func New(lookup *Lookup) *Generator {
	return &Generator{
		lookup: lookup,
		src:    cryptoSource{},
	}
}

// RandomInt returns a uniform value in [lower, upper].
func (g *Generator) RandomInt(lower, upper int) int {
	if upper <= lower {
		return lower
	}
	return lower + g.src.IntN(upper-lower+1)
}

// PaddingLength returns the length of a filler run for a regular character.
func (g *Generator) PaddingLength() int {
	return g.RandomInt(MinPadding, MaxPadding)
}

// ByFrequency returns one frequency-weighted letter.
func (g *Generator) ByFrequency() rune {
	return g.lookup.At(g.src.IntN(g.lookup.Len()))
}

// StringByFrequency returns n frequency-weighted letters.
func (g *Generator) StringByFrequency(n int) string {
	var sb strings.Builder
	sb.Grow(n)
	for i := 0; i < n; i++ {
		sb.WriteRune(g.ByFrequency())
	}
	return sb.String()
}

// UTF8Char returns a random legal character with a code point in
// [lower, upper]. Bounds are clamped to [codepoint.MinFiller, codepoint.Max];
// a zero bound means no limit on that side. If clamping leaves a range with
// no legal code point, printable ASCII is used instead.
func (g *Generator) UTF8Char(lower, upper int) rune {
	lower, upper = clamp(lower, upper)
	for {
		cp := g.RandomInt(lower, upper)
		if codepoint.Legal(cp) {
			return rune(cp)
		}
	}
}

// UTF8String returns n characters drawn with UTF8Char.
func (g *Generator) UTF8String(n, lower, upper int) string {
	lower, upper = clamp(lower, upper)
	var sb strings.Builder
	sb.Grow(n)
	for i := 0; i < n; i++ {
		sb.WriteRune(g.UTF8Char(lower, upper))
	}
	return sb.String()
}

// ASCIIString returns n printable, non-space ASCII characters.
func (g *Generator) ASCIIString(n int) string {
	return g.UTF8String(n, asciiLower, asciiUpper)
}

func clamp(lower, upper int) (int, int) {
	if lower < codepoint.MinFiller {
		lower = codepoint.MinFiller
	}
	if upper == 0 || upper > codepoint.Max {
		upper = codepoint.Max
	}
	if upper < lower || !codepoint.AnyLegal(lower, upper) {
		return asciiLower, asciiUpper
	}
	return lower, upper
}
