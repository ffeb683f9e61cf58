package codepoint

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLegal(t *testing.T) {
	cases := []struct {
		name string
		cp   int
		want bool
	}{
		{"nul", 0x0000, true},
		{"space", 0x20, true},
		{"latin", 'é', true},
		{"last before gap", 0xCFFF, true},
		{"hangul gap start", 0xD000, false},
		{"high surrogate", 0xD800, false},
		{"low surrogate", 0xDC00, false},
		{"gap end", 0xDFFF, false},
		{"private use", 0xE000, true},
		{"bmp end", 0xFFFF, true},
		{"smp start", 0x10000, true},
		{"smp hole", 0x15000, false},
		{"smp second range", 0x16000, true},
		{"smp hole two", 0x19000, false},
		{"smp third range", 0x1B000, true},
		{"smp hole three", 0x1C000, false},
		{"emoji", 0x1F600, true},
		{"smp end", Max, true},
		{"sip", 0x20000, false},
		{"negative", -1, false},
		{"beyond unicode", 0x110000, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Legal(tc.cp))
		})
	}
}

func TestAnyLegal(t *testing.T) {
	assert.True(t, AnyLegal(MinFiller, 126))
	assert.True(t, AnyLegal(0xCFF0, 0xD100))
	assert.False(t, AnyLegal(0xD000, 0xDFFF))
	assert.False(t, AnyLegal(0x15000, 0x15FFF))
	assert.True(t, AnyLegal(0x15000, 0x16000))
	assert.False(t, AnyLegal(0x20000, 0x30000))
}
