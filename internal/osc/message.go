// Package osc is the ingest boundary: a minimal OSC 1.0 wire parser, a
// bounded drop-oldest queue between the UDP listener and the decoder, and the
// decoder that turns address patterns into device store updates.
package osc

import (
	"bytes"
	"encoding/binary"
	"math"

	"github.com/dotfeel/dotbridged/internal/errors"
)

// Message is one decoded OSC message: an address pattern and its arguments.
// Arguments are int32, float32, or string, matching the type tags this bridge
// accepts.
type Message struct {
	Address string
	Args    []any
}

// Float returns argument i coerced to float64. Both int32 and float32
// arguments coerce; anything else does not.
func (m Message) Float(i int) (float64, bool) {
	if i < 0 || i >= len(m.Args) {
		return 0, false
	}
	switch v := m.Args[i].(type) {
	case int32:
		return float64(v), true
	case float32:
		return float64(v), true
	}
	return 0, false
}

// String returns argument i if it is a string argument.
func (m Message) String(i int) (string, bool) {
	if i < 0 || i >= len(m.Args) {
		return "", false
	}
	s, ok := m.Args[i].(string)
	return s, ok
}

const bundleHeader = "#bundle"

// Parse decodes one OSC packet. A plain message yields a single element;
// bundles are flattened recursively with their timetags ignored, since the
// bridge applies everything immediately.
func Parse(data []byte) ([]Message, error) {
	if len(data) == 0 {
		return nil, errors.InvalidInputf("empty osc packet")
	}
	if data[0] == '#' {
		return parseBundle(data)
	}
	msg, err := parseMessage(data)
	if err != nil {
		return nil, err
	}
	return []Message{msg}, nil
}

func parseBundle(data []byte) ([]Message, error) {
	header, rest, err := readPaddedString(data)
	if err != nil || header != bundleHeader {
		return nil, errors.InvalidInputf("malformed bundle header")
	}
	if len(rest) < 8 {
		return nil, errors.InvalidInputf("bundle truncated before timetag")
	}
	rest = rest[8:] // timetag

	var out []Message
	for len(rest) > 0 {
		if len(rest) < 4 {
			return nil, errors.InvalidInputf("bundle element truncated")
		}
		size := int(binary.BigEndian.Uint32(rest))
		rest = rest[4:]
		if size <= 0 || size > len(rest) {
			return nil, errors.InvalidInputf("bundle element size %d exceeds remaining %d bytes", size, len(rest))
		}
		msgs, err := Parse(rest[:size])
		if err != nil {
			return nil, err
		}
		out = append(out, msgs...)
		rest = rest[size:]
	}
	return out, nil
}

func parseMessage(data []byte) (Message, error) {
	addr, rest, err := readPaddedString(data)
	if err != nil {
		return Message{}, err
	}
	if addr == "" || addr[0] != '/' {
		return Message{}, errors.InvalidInputf("invalid osc address %q", addr)
	}
	if len(rest) == 0 {
		return Message{Address: addr}, nil
	}

	tags, rest, err := readPaddedString(rest)
	if err != nil {
		return Message{}, err
	}
	if tags == "" || tags[0] != ',' {
		return Message{}, errors.InvalidInputf("missing type tag string")
	}

	args := make([]any, 0, len(tags)-1)
	for _, tag := range tags[1:] {
		switch tag {
		case 'i':
			if len(rest) < 4 {
				return Message{}, errors.InvalidInputf("int32 argument truncated")
			}
			args = append(args, int32(binary.BigEndian.Uint32(rest)))
			rest = rest[4:]
		case 'f':
			if len(rest) < 4 {
				return Message{}, errors.InvalidInputf("float32 argument truncated")
			}
			args = append(args, math.Float32frombits(binary.BigEndian.Uint32(rest)))
			rest = rest[4:]
		case 's':
			var s string
			s, rest, err = readPaddedString(rest)
			if err != nil {
				return Message{}, err
			}
			args = append(args, s)
		default:
			return Message{}, errors.InvalidInputf("unsupported type tag %q", string(tag))
		}
	}
	return Message{Address: addr, Args: args}, nil
}

// readPaddedString consumes a null-terminated string padded to a 4-byte
// boundary and returns it with the remaining bytes.
func readPaddedString(data []byte) (string, []byte, error) {
	idx := bytes.IndexByte(data, 0)
	if idx < 0 {
		return "", nil, errors.InvalidInputf("unterminated osc string")
	}
	end := (idx/4 + 1) * 4
	if end > len(data) {
		return "", nil, errors.InvalidInputf("osc string padding truncated")
	}
	return string(data[:idx]), data[end:], nil
}
