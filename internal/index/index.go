// Package index holds the padding descriptor stored for every obscured text
// and the codecs that move it in and out of the key-value store.
package index

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

const (
	ObjectType        = "IndexType"
	ObjectTypeVersion = "V1"

	DefaultTTLSeconds = 5 * 60
)

var ErrDecode = errors.New("index: malformed descriptor")

// Entry is the padding descriptor. The JSON field names and their order are
// the wire format and must not change within a version.
type Entry struct {
	ObjectType        string `json:"object_type"`
	ObjectTypeVersion string `json:"object_type_version"`
	StorageKey        string `json:"storage_key"`
	StenoSeq          []int  `json:"steno_seq"`
	TTLSeconds        int    `json:"ttl_seconds"`
}

// NewEntry returns a current version Entry. A ttl of zero or less is replaced
// with DefaultTTLSeconds.
func NewEntry(storageKey string, seq []int, ttl int) Entry {
	if ttl <= 0 {
		ttl = DefaultTTLSeconds
	}
	return Entry{
		ObjectType:        ObjectType,
		ObjectTypeVersion: ObjectTypeVersion,
		StorageKey:        storageKey,
		StenoSeq:          seq,
		TTLSeconds:        ttl,
	}
}

func (e Entry) String() string {
	return fmt.Sprintf("ot: %s otv: %s sk: %s ss: %d entries ttl: %d",
		e.ObjectType, e.ObjectTypeVersion, e.StorageKey, len(e.StenoSeq), e.TTLSeconds)
}

func (e Entry) validate() error {
	if e.ObjectType != ObjectType {
		return fmt.Errorf("%w: unknown object type %q", ErrDecode, e.ObjectType)
	}
	if e.ObjectTypeVersion != ObjectTypeVersion {
		return fmt.Errorf("%w: unsupported version %q", ErrDecode, e.ObjectTypeVersion)
	}
	if e.StenoSeq == nil {
		return fmt.Errorf("%w: steno_seq is missing", ErrDecode)
	}
	return nil
}

// Format selects the byte layout Codec.Encode writes.
type Format int

const (
	FormatJSON Format = iota
	FormatCompact
)

func (f Format) String() string {
	switch f {
	case FormatJSON:
		return "json"
	case FormatCompact:
		return "compact"
	}
	return "unknown"
}

// ParseFormat maps a configuration value to a Format. The empty string
// selects JSON.
func ParseFormat(s string) (Format, error) {
	switch s {
	case "", "json":
		return FormatJSON, nil
	case "compact":
		return FormatCompact, nil
	}
	return FormatJSON, fmt.Errorf("unknown descriptor format %q", s)
}

// Codec encodes entries in one format and decodes all of them.
type Codec struct {
	format Format
}

func NewCodec(format Format) Codec {
	return Codec{format: format}
}

func (c Codec) Format() Format {
	return c.format
}

func (c Codec) Encode(e Entry) ([]byte, error) {
	switch c.format {
	case FormatCompact:
		return EncodeCompact(e)
	default:
		return EncodeJSON(e)
	}
}

func (c Codec) Decode(data []byte) (Entry, error) {
	return Decode(data)
}

// Decode reads an entry in any supported format. The format is recognised by
// the first byte.
func Decode(data []byte) (Entry, error) {
	trimmed := bytes.TrimLeft(data, " \t\r\n")
	if len(trimmed) == 0 {
		return Entry{}, fmt.Errorf("%w: empty input", ErrDecode)
	}
	if trimmed[0] == compactMagic {
		return DecodeCompact(trimmed)
	}
	return DecodeJSON(trimmed)
}

// EncodeJSON writes the JSON wire format.
func EncodeJSON(e Entry) ([]byte, error) {
	if e.StenoSeq == nil {
		e.StenoSeq = []int{}
	}
	data, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("error encoding descriptor: %w", err)
	}
	return data, nil
}

// DecodeJSON reads the JSON wire format. Unknown fields are ignored so newer
// writers stay readable.
func DecodeJSON(data []byte) (Entry, error) {
	var e Entry
	if err := json.Unmarshal(data, &e); err != nil {
		return Entry{}, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	if err := e.validate(); err != nil {
		return Entry{}, err
	}
	return e, nil
}
