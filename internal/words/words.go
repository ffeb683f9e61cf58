// Package words generates the human-memorable keys that double as store
// keys and as the password handed to users.
package words

import (
	"bufio"
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"strings"
)

//go:embed words.txt
var defaultWords []byte

const (
	MinWordLen = 5
	MaxWordLen = 10
)

// Dictionary is an immutable list of candidate words.
type Dictionary struct {
	words []string
}

// Parse reads one word per line. Blank lines and lines starting with '#' are
// skipped; words outside [MinWordLen, MaxWordLen] or containing anything but
// ASCII letters are dropped.
func Parse(r io.Reader) (*Dictionary, error) {
	var list []string
	seen := make(map[string]struct{})

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		w := strings.ToLower(strings.TrimSpace(scanner.Text()))
		if w == "" || strings.HasPrefix(w, "#") {
			continue
		}
		if len(w) < MinWordLen || len(w) > MaxWordLen || !isLetters(w) {
			continue
		}
		if _, dup := seen[w]; dup {
			continue
		}
		seen[w] = struct{}{}
		list = append(list, w)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading word list: %w", err)
	}
	if len(list) == 0 {
		return nil, errors.New("word list has no usable words")
	}

	return &Dictionary{words: list}, nil
}

// Default returns the embedded dictionary.
func Default() (*Dictionary, error) {
	return Parse(bytes.NewReader(defaultWords))
}

func (d *Dictionary) Len() int {
	return len(d.words)
}

func (d *Dictionary) Word(i int) string {
	return d.words[i]
}

func isLetters(w string) bool {
	for i := 0; i < len(w); i++ {
		if w[i] < 'a' || w[i] > 'z' {
			return false
		}
	}
	return true
}

// Intner draws uniform integers in [lower, upper]. *filler.Generator
// satisfies it.
type Intner interface {
	RandomInt(lower, upper int) int
}

// KeyGenerator builds keys of the form word1-NNNN#-word2-word3.
type KeyGenerator struct {
	dict *Dictionary
	rng  Intner
}

func NewKeyGenerator(dict *Dictionary, rng Intner) *KeyGenerator {
	return &KeyGenerator{dict: dict, rng: rng}
}

// Words returns n random words from the dictionary.
func (k *KeyGenerator) Words(n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = k.dict.Word(k.rng.RandomInt(0, k.dict.Len()-1))
	}
	return out
}

// Password returns a new key. The number part is zero padded to four digits.
func (k *KeyGenerator) Password() string {
	w := k.Words(3)
	num := k.rng.RandomInt(1, 9999)
	return fmt.Sprintf("%s-%04d#-%s-%s", w[0], num, w[1], w[2])
}
