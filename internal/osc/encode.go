package osc

import (
	"encoding/binary"
	"math"

	"github.com/dotfeel/dotbridged/internal/errors"
)

// Encode renders the message back into its wire form. Arguments must be
// int32, float32, or string, mirroring the type tags Parse accepts.
func Encode(m Message) ([]byte, error) {
	if m.Address == "" || m.Address[0] != '/' {
		return nil, errors.InvalidInputf("invalid osc address %q", m.Address)
	}

	tags := make([]byte, 0, len(m.Args)+1)
	tags = append(tags, ',')
	for _, arg := range m.Args {
		switch arg.(type) {
		case int32:
			tags = append(tags, 'i')
		case float32:
			tags = append(tags, 'f')
		case string:
			tags = append(tags, 's')
		default:
			return nil, errors.InvalidInputf("unsupported argument type %T", arg)
		}
	}

	out := appendPaddedString(nil, m.Address)
	out = appendPaddedString(out, string(tags))
	for _, arg := range m.Args {
		switch v := arg.(type) {
		case int32:
			out = binary.BigEndian.AppendUint32(out, uint32(v))
		case float32:
			out = binary.BigEndian.AppendUint32(out, math.Float32bits(v))
		case string:
			out = appendPaddedString(out, v)
		}
	}
	return out, nil
}

// appendPaddedString appends s null-terminated and padded to a 4-byte
// boundary.
func appendPaddedString(out []byte, s string) []byte {
	out = append(out, s...)
	for n := 4 - len(s)%4; n > 0; n-- {
		out = append(out, 0)
	}
	return out
}
