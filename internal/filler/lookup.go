package filler

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"unicode/utf8"
)

//go:embed frequencies.json
var defaultFrequencies []byte

// Frequency is the share of one letter in running text of some language.
type Frequency struct {
	Letter rune
	Value  float64
}

// UnmarshalJSON reads the ["e", 0.12702] pair form used by frequency tables.
func (f *Frequency) UnmarshalJSON(b []byte) error {
	var pair [2]json.RawMessage
	if err := json.Unmarshal(b, &pair); err != nil {
		return fmt.Errorf("frequency entry must be a [letter, value] pair: %w", err)
	}

	var letter string
	if err := json.Unmarshal(pair[0], &letter); err != nil {
		return fmt.Errorf("frequency letter: %w", err)
	}
	if utf8.RuneCountInString(letter) != 1 {
		return fmt.Errorf("frequency letter %q must be a single character", letter)
	}

	var value float64
	if err := json.Unmarshal(pair[1], &value); err != nil {
		return fmt.Errorf("frequency value for %q: %w", letter, err)
	}

	f.Letter, _ = utf8.DecodeRuneInString(letter)
	f.Value = value
	return nil
}

type frequencyFile struct {
	Language    string      `json:"language"`
	ByFrequency []Frequency `json:"by_frequency"`
}

// LoadFrequencies parses a frequency table of the form
// {"by_frequency": [["e", 0.12702], ...]}.
func LoadFrequencies(r io.Reader) ([]Frequency, error) {
	var file frequencyFile
	if err := json.NewDecoder(r).Decode(&file); err != nil {
		return nil, fmt.Errorf("error decoding frequency table: %w", err)
	}
	if len(file.ByFrequency) == 0 {
		return nil, errors.New("frequency table is empty")
	}
	return file.ByFrequency, nil
}

// Lookup is a flat table where every letter appears as often as its
// frequency asks for. A uniform index into it yields letters distributed
// like natural text. A Lookup is never modified after BuildLookup returns.
type Lookup struct {
	letters []rune
}

// BuildLookup expands freqs into a Lookup. Each frequency is rounded to three
// decimals and scaled by 1000, with a floor of one occurrence. Letters keep
// the order of freqs, so equal input always gives an identical table.
func BuildLookup(freqs []Frequency) (*Lookup, error) {
	if len(freqs) == 0 {
		return nil, errors.New("no frequencies to build a lookup from")
	}

	letters := make([]rune, 0, 1024)
	for _, f := range freqs {
		if f.Value < 0 || math.IsNaN(f.Value) || math.IsInf(f.Value, 0) {
			return nil, fmt.Errorf("invalid frequency %v for %q", f.Value, f.Letter)
		}
		count := int(math.Round(f.Value * 1000))
		if count < 1 {
			count = 1
		}
		for i := 0; i < count; i++ {
			letters = append(letters, f.Letter)
		}
	}

	return &Lookup{letters: letters}, nil
}

// DefaultLookup builds the lookup for the embedded English letter frequencies.
func DefaultLookup() (*Lookup, error) {
	freqs, err := LoadFrequencies(bytes.NewReader(defaultFrequencies))
	if err != nil {
		return nil, err
	}
	return BuildLookup(freqs)
}

// Len returns the number of slots in the table.
func (l *Lookup) Len() int {
	return len(l.letters)
}

// At returns the letter at slot i.
func (l *Lookup) At(i int) rune {
	return l.letters[i]
}

func (l *Lookup) String() string {
	return string(l.letters)
}
