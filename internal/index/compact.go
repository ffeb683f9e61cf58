package index

import (
	"bytes"
	"fmt"
	"io"

	"github.com/ulikunitz/xz/lzma"
	"google.golang.org/protobuf/encoding/protowire"
)

// Compact layout: magic byte, flag byte, then a protobuf message
//
//	1: storage_key          (bytes)
//	2: steno_seq            (packed varint)
//	3: ttl_seconds          (varint)
//	4: object_type_version  (bytes)
//
// LZMA compresses the message when it is larger than compressThreshold.
const (
	compactMagic byte = 0xB7

	flagRaw  byte = 0x00
	flagLZMA byte = 0x01

	compressThreshold = 512
	maxDecompressed   = 64 << 20

	fieldStorageKey        protowire.Number = 1
	fieldStenoSeq          protowire.Number = 2
	fieldTTLSeconds        protowire.Number = 3
	fieldObjectTypeVersion protowire.Number = 4
)

// EncodeCompact writes the compact binary format.
func EncodeCompact(e Entry) ([]byte, error) {
	version := e.ObjectTypeVersion
	if version == "" {
		version = ObjectTypeVersion
	}

	var body []byte
	body = protowire.AppendTag(body, fieldStorageKey, protowire.BytesType)
	body = protowire.AppendString(body, e.StorageKey)

	var packed []byte
	for _, v := range e.StenoSeq {
		packed = protowire.AppendVarint(packed, uint64(int64(v)))
	}
	body = protowire.AppendTag(body, fieldStenoSeq, protowire.BytesType)
	body = protowire.AppendBytes(body, packed)

	body = protowire.AppendTag(body, fieldTTLSeconds, protowire.VarintType)
	body = protowire.AppendVarint(body, uint64(int64(e.TTLSeconds)))

	body = protowire.AppendTag(body, fieldObjectTypeVersion, protowire.BytesType)
	body = protowire.AppendString(body, version)

	if len(body) <= compressThreshold {
		return append([]byte{compactMagic, flagRaw}, body...), nil
	}

	var buf bytes.Buffer
	buf.WriteByte(compactMagic)
	buf.WriteByte(flagLZMA)
	w, err := lzma.NewWriter(&buf)
	if err != nil {
		return nil, fmt.Errorf("error creating lzma writer: %w", err)
	}
	if _, err := w.Write(body); err != nil {
		return nil, fmt.Errorf("error compressing descriptor: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("error closing lzma writer: %w", err)
	}
	return buf.Bytes(), nil
}

// DecodeCompact reads the compact binary format.
func DecodeCompact(data []byte) (Entry, error) {
	if len(data) < 2 || data[0] != compactMagic {
		return Entry{}, fmt.Errorf("%w: missing compact header", ErrDecode)
	}

	body := data[2:]
	switch data[1] {
	case flagRaw:
	case flagLZMA:
		r, err := lzma.NewReader(bytes.NewReader(body))
		if err != nil {
			return Entry{}, fmt.Errorf("%w: %v", ErrDecode, err)
		}
		body, err = io.ReadAll(io.LimitReader(r, maxDecompressed))
		if err != nil {
			return Entry{}, fmt.Errorf("%w: %v", ErrDecode, err)
		}
	default:
		return Entry{}, fmt.Errorf("%w: unknown compact flag 0x%02x", ErrDecode, data[1])
	}

	e := Entry{ObjectType: ObjectType}
	for len(body) > 0 {
		num, typ, n := protowire.ConsumeTag(body)
		if n < 0 {
			return Entry{}, fmt.Errorf("%w: %v", ErrDecode, protowire.ParseError(n))
		}
		body = body[n:]

		switch {
		case num == fieldStorageKey && typ == protowire.BytesType:
			v, n := protowire.ConsumeString(body)
			if n < 0 {
				return Entry{}, fmt.Errorf("%w: storage key: %v", ErrDecode, protowire.ParseError(n))
			}
			e.StorageKey = v
			body = body[n:]

		case num == fieldStenoSeq && typ == protowire.BytesType:
			packed, n := protowire.ConsumeBytes(body)
			if n < 0 {
				return Entry{}, fmt.Errorf("%w: sequence: %v", ErrDecode, protowire.ParseError(n))
			}
			seq, err := decodePacked(packed)
			if err != nil {
				return Entry{}, err
			}
			e.StenoSeq = seq
			body = body[n:]

		case num == fieldTTLSeconds && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(body)
			if n < 0 {
				return Entry{}, fmt.Errorf("%w: ttl: %v", ErrDecode, protowire.ParseError(n))
			}
			e.TTLSeconds = int(int64(v))
			body = body[n:]

		case num == fieldObjectTypeVersion && typ == protowire.BytesType:
			v, n := protowire.ConsumeString(body)
			if n < 0 {
				return Entry{}, fmt.Errorf("%w: version: %v", ErrDecode, protowire.ParseError(n))
			}
			e.ObjectTypeVersion = v
			body = body[n:]

		default:
			n := protowire.ConsumeFieldValue(num, typ, body)
			if n < 0 {
				return Entry{}, fmt.Errorf("%w: field %d: %v", ErrDecode, num, protowire.ParseError(n))
			}
			body = body[n:]
		}
	}

	if err := e.validate(); err != nil {
		return Entry{}, err
	}
	return e, nil
}

func decodePacked(packed []byte) ([]int, error) {
	seq := make([]int, 0, len(packed))
	for len(packed) > 0 {
		v, n := protowire.ConsumeVarint(packed)
		if n < 0 {
			return nil, fmt.Errorf("%w: sequence entry %d: %v", ErrDecode, len(seq), protowire.ParseError(n))
		}
		seq = append(seq, int(int64(v)))
		packed = packed[n:]
	}
	return seq, nil
}
