package bencode_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/raklaptudirm/mktorrent/internal/bencode"
)

type marshalT struct {
	A string `bencode:"B"`
	C string `bencode:"c,omitempty"`
	X string
}

func TestMarshalBasic(t *testing.T) {
	tests := []struct {
		name string
		in   any
		out  string
	}{
		{"int", 123, "i123e"},
		{"negative int", -123, "i-123e"},
		{"zero int", 0, "i0e"},
		{"empty string", "", "0:"},
		{"string", "cat", "3:cat"},
		{"empty list", []any{}, "le"},
		{"list", []any{123, "cat"}, "li123e3:cate"},
		{"map", map[string]any{"cat": 123, "dog": -123}, "d3:cati123e3:dogi-123ee"},
		{"struct sorted by tag", marshalT{A: "bat", X: "cat"}, "d1:B3:bat1:X3:cate"},
		{"struct omitempty", marshalT{A: "bat"}, "d1:B3:bat1:X0:e"},
		{"byte slice is a string", []byte("cat"), "3:cat"},
		{"raw passthrough", bencode.Raw("li1ee"), "li1ee"},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			out, err := bencode.Marshal(test.in)
			require.NoError(t, err)
			require.Equal(t, test.out, out)
		})
	}
}

func TestMarshalMapKeysSorted(t *testing.T) {
	out, err := bencode.Marshal(map[string]any{"z": 1, "a": 2, "m": 3})
	require.NoError(t, err)
	require.Equal(t, "d1:ai2e1:mi3e1:zi1ee", out)
}

func TestMarshalPointerDistinguishesZeroFromAbsent(t *testing.T) {
	type withPtr struct {
		Length *int64 `bencode:"length,omitempty"`
	}

	zero := int64(0)
	out, err := bencode.Marshal(withPtr{Length: &zero})
	require.NoError(t, err)
	require.Equal(t, "d6:lengthi0ee", out, "a pointer to zero must still be emitted")

	out, err = bencode.Marshal(withPtr{})
	require.NoError(t, err)
	require.Equal(t, "de", out, "a nil pointer must be omitted")
}
