// Package codepoint decides which numeric values may be turned into filler
// characters.
package codepoint

import "unicode/utf8"

const (
	// MinFiller is the lowest code point ever used as filler (space).
	MinFiller = 32
	// Max is the highest code point ever used as filler, the end of the SMP.
	Max = 0x1FFFF
)

type span struct {
	lo, hi int
}

// ranges is limited to the BMP and parts of the SMP. 0xD000-0xDFFF is left
// out as a whole, which keeps the surrogate block out as well.
var ranges = [...]span{
	{0x0000, 0xCFFF},
	{0xE000, 0xFFFF},
	{0x10000, 0x14FFF},
	{0x16000, 0x18FFF},
	{0x1B000, 0x1BFFF},
	{0x1D000, 0x1FFFF},
}

// Legal reports whether cp lies in one of the allowed ranges and encodes as
// a single valid UTF-8 character.
func Legal(cp int) bool {
	for _, r := range ranges {
		if cp >= r.lo && cp <= r.hi {
			return utf8.ValidRune(rune(cp))
		}
	}
	return false
}

// AnyLegal reports whether at least one legal code point lies in [lo, hi].
func AnyLegal(lo, hi int) bool {
	for _, r := range ranges {
		if lo <= r.hi && hi >= r.lo {
			return true
		}
	}
	return false
}
