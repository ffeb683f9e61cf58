package filler

import (
	"strings"
	"sync"
	"testing"
	"unicode/utf8"

	"github.com/i5heu/prolix/internal/codepoint"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// sequenceSource replays fixed values modulo n.
type sequenceSource struct {
	mu     sync.Mutex
	values []int
	pos    int
}

func (s *sequenceSource) IntN(n int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	v := s.values[s.pos%len(s.values)]
	s.pos++
	return v % n
}

func newTestGenerator(t *testing.T) *Generator {
	t.Helper()
	lookup, err := DefaultLookup()
	require.NoError(t, err)
	return New(lookup)
}

func TestDefaultLookupCounts(t *testing.T) {
	lookup, err := DefaultLookup()
	require.NoError(t, err)

	table := lookup.String()
	assert.Equal(t, 1003, lookup.Len())
	assert.Equal(t, 127, strings.Count(table, "e"))
	assert.Equal(t, 91, strings.Count(table, "t"))
	assert.Equal(t, 1, strings.Count(table, "z"))
	assert.Equal(t, 1, strings.Count(table, "q"))
	assert.True(t, strings.HasPrefix(table, strings.Repeat("e", 127)+"t"))
}

func TestBuildLookupIsDeterministic(t *testing.T) {
	first, err := DefaultLookup()
	require.NoError(t, err)
	second, err := DefaultLookup()
	require.NoError(t, err)

	assert.Equal(t, first.String(), second.String())
	assert.Equal(t, []byte(first.String()), []byte(second.String()))
}

func TestBuildLookupFloorsTinyFrequencies(t *testing.T) {
	lookup, err := BuildLookup([]Frequency{{Letter: 'a', Value: 0.002}, {Letter: 'b', Value: 0.0001}})
	require.NoError(t, err)
	assert.Equal(t, "aab", lookup.String())
}

func TestBuildLookupRejectsBadInput(t *testing.T) {
	_, err := BuildLookup(nil)
	assert.Error(t, err)

	_, err = BuildLookup([]Frequency{{Letter: 'a', Value: -1}})
	assert.Error(t, err)
}

func TestLoadFrequencies(t *testing.T) {
	freqs, err := LoadFrequencies(strings.NewReader(`{"by_frequency": [["x", 0.5], ["y", 0.25]]}`))
	require.NoError(t, err)
	assert.Equal(t, []Frequency{{Letter: 'x', Value: 0.5}, {Letter: 'y', Value: 0.25}}, freqs)

	bad := []string{
		`{"by_frequency": []}`,
		`{"by_frequency": [["xy", 0.5]]}`,
		`{"by_frequency": [[1, 0.5]]}`,
		`{"by_frequency": [["x", "much"]]}`,
		`not json`,
	}
	for _, in := range bad {
		_, err := LoadFrequencies(strings.NewReader(in))
		assert.Error(t, err, in)
	}
}

func TestPaddingLengthBounds(t *testing.T) {
	g := newTestGenerator(t)
	for i := 0; i < 2000; i++ {
		n := g.PaddingLength()
		require.GreaterOrEqual(t, n, MinPadding)
		require.LessOrEqual(t, n, MaxPadding)
	}
}

func TestPaddingLengthEdges(t *testing.T) {
	g := newTestGenerator(t)
	g.src = &sequenceSource{values: []int{0}}
	assert.Equal(t, MinPadding, g.PaddingLength())

	g.src = &sequenceSource{values: []int{MaxPadding - MinPadding}}
	assert.Equal(t, MaxPadding, g.PaddingLength())
}

func TestStringByFrequencyOnlyUsesLookupLetters(t *testing.T) {
	g := newTestGenerator(t)
	s := g.StringByFrequency(500)
	assert.Equal(t, 500, utf8.RuneCountInString(s))
	for _, r := range s {
		require.True(t, r >= 'a' && r <= 'z', "unexpected letter %q", r)
	}
}

func TestUTF8CharStaysInRange(t *testing.T) {
	g := newTestGenerator(t)
	for i := 0; i < 1000; i++ {
		r := g.UTF8Char(32, 0x4FF)
		require.GreaterOrEqual(t, int(r), 32)
		require.LessOrEqual(t, int(r), 0x4FF)
		require.True(t, codepoint.Legal(int(r)))
	}
}

func TestUTF8CharSkipsIllegalCodePoints(t *testing.T) {
	g := newTestGenerator(t)
	// first draw lands in the excluded block, second is legal
	g.src = &sequenceSource{values: []int{0xD800 - 0xCFF0, 0}}
	assert.Equal(t, rune(0xCFF0), g.UTF8Char(0xCFF0, 0xE010))
}

func TestUTF8CharClamping(t *testing.T) {
	g := newTestGenerator(t)
	for i := 0; i < 500; i++ {
		r := g.UTF8Char(0, 0)
		require.GreaterOrEqual(t, int(r), codepoint.MinFiller)
		require.LessOrEqual(t, int(r), codepoint.Max)

		r = g.UTF8Char(-5, 0x110000)
		require.True(t, codepoint.Legal(int(r)))
	}
}

func TestUTF8CharFallsBackToASCII(t *testing.T) {
	g := newTestGenerator(t)
	for i := 0; i < 200; i++ {
		r := g.UTF8Char(32, 9)
		require.GreaterOrEqual(t, int(r), asciiLower)
		require.LessOrEqual(t, int(r), asciiUpper)

		r = g.UTF8Char(0xD000, 0xDFFF)
		require.GreaterOrEqual(t, int(r), asciiLower)
		require.LessOrEqual(t, int(r), asciiUpper)
	}
}

func TestUTF8StringLength(t *testing.T) {
	g := newTestGenerator(t)
	s := g.UTF8String(7, 0, 0)
	assert.Equal(t, 7, utf8.RuneCountInString(s))
	assert.True(t, utf8.ValidString(s))

	a := g.ASCIIString(20)
	b := g.ASCIIString(20)
	assert.NotEqual(t, a, b)
	assert.NotContains(t, a, " ")
}

func TestRandomInt(t *testing.T) {
	g := newTestGenerator(t)
	assert.Equal(t, 5, g.RandomInt(5, 5))
	assert.Equal(t, 5, g.RandomInt(5, 1))
	for i := 0; i < 200; i++ {
		v := g.RandomInt(1, 9999)
		require.GreaterOrEqual(t, v, 1)
		require.LessOrEqual(t, v, 9999)
	}
}

func TestGeneratorConcurrentUse(t *testing.T) {
	g := newTestGenerator(t)
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				_ = g.StringByFrequency(10)
				_ = g.UTF8String(10, 32, 0x2FFF)
			}
		}()
	}
	wg.Wait()
}
