// Package abiCodec decodes ABI encoded byte buffers into parser values. It is
// pure: no I/O, no shared state, safe for concurrent use.
package abiCodec

import (
	"encoding/hex"
	"math/big"
	"unicode/utf8"

	"github.com/Layr-Labs/calldecoder/pkg/parser"
)

// Decode decodes data as the head/tail encoding of the given types, in order.
func Decode(types []*Type, data []byte) ([]parser.DecodedValue, error) {
	return decodeSequence(types, region(data))
}

// DecodeArguments decodes data against named arguments and returns one
// parameter per argument.
func DecodeArguments(args []Argument, data []byte) ([]*parser.DecodedParam, error) {
	types := make([]*Type, len(args))
	for i, a := range args {
		types[i] = a.Type
	}
	values, err := Decode(types, data)
	if err != nil {
		return nil, err
	}
	params := make([]*parser.DecodedParam, len(args))
	for i, a := range args {
		params[i] = &parser.DecodedParam{
			Name:  a.Name,
			Type:  a.Type.String(),
			Value: values[i],
		}
	}
	return params, nil
}

func decodeSequence(types []*Type, r region) ([]parser.DecodedValue, error) {
	values := make([]parser.DecodedValue, 0, len(types))
	pos := 0
	for _, t := range types {
		v, err := decodeAt(t, r, pos)
		if err != nil {
			return nil, err
		}
		values = append(values, v)
		pos += t.headSize()
	}
	return values, nil
}

// decodeAt decodes the value whose head sits at pos in r.
func decodeAt(t *Type, r region, pos int) (parser.DecodedValue, error) {
	if t.IsDynamic() {
		tail, err := r.follow(pos)
		if err != nil {
			return nil, err
		}
		return decodeTail(t, tail)
	}

	switch t.Kind {
	case ArrayKind, TupleKind:
		// static composites are laid out inline
		inline, err := r.from(pos)
		if err != nil {
			return nil, err
		}
		return decodeComposite(t, inline)
	}

	w, err := r.word(pos)
	if err != nil {
		return nil, err
	}
	return decodeWord(t, w)
}

func decodeTail(t *Type, tail region) (parser.DecodedValue, error) {
	switch t.Kind {
	case BytesKind:
		b, err := tail.lengthPrefixed(0)
		if err != nil {
			return nil, err
		}
		return parser.Bytes("0x" + hex.EncodeToString(b)), nil
	case StringKind:
		b, err := tail.lengthPrefixed(0)
		if err != nil {
			return nil, err
		}
		if !utf8.Valid(b) {
			// JSON would replace the invalid sequences, keep the raw bytes instead
			return parser.Bytes("0x" + hex.EncodeToString(b)), nil
		}
		return parser.Scalar(string(b)), nil
	case SliceKind:
		elems, err := tail.from(WordSize)
		if err != nil {
			return nil, err
		}
		elemSize := t.Elem.headSize()
		if elemSize <= 0 {
			return nil, unsupported("element type %s has no encoded size", t.Elem.String())
		}
		// every element needs at least its head in the buffer
		n, err := tail.uint(0, len(elems)/elemSize)
		if err != nil {
			return nil, err
		}
		return decodeElements(t.Elem, n, elems)
	}
	return decodeComposite(t, tail)
}

func decodeComposite(t *Type, r region) (parser.DecodedValue, error) {
	if t.Kind == ArrayKind {
		return decodeElements(t.Elem, t.Size, r)
	}
	values, err := decodeSequence(t.Components, r)
	if err != nil {
		return nil, err
	}
	tuple := make(parser.Tuple, len(values))
	for i, v := range values {
		tuple[i] = &parser.DecodedParam{
			Name:  t.ComponentNames[i],
			Type:  t.Components[i].String(),
			Value: v,
		}
	}
	return tuple, nil
}

func decodeElements(elem *Type, n int, r region) (parser.DecodedValue, error) {
	types := make([]*Type, n)
	for i := range types {
		types[i] = elem
	}
	values, err := decodeSequence(types, r)
	if err != nil {
		return nil, err
	}
	return parser.Array(values), nil
}

var (
	big1     = big.NewInt(1)
	twoTo256 = new(big.Int).Lsh(big1, 256)
)

func isZero(b []byte) bool {
	for _, c := range b {
		if c != 0 {
			return false
		}
	}
	return true
}

func decodeWord(t *Type, w []byte) (parser.DecodedValue, error) {
	switch t.Kind {
	case UintKind:
		v := new(big.Int).SetBytes(w)
		if v.BitLen() > t.Size {
			return nil, malformed("value 0x%s overflows %s", hex.EncodeToString(w), t.String())
		}
		return parser.Scalar(v.String()), nil
	case IntKind:
		v := new(big.Int).SetBytes(w)
		if v.Bit(255) == 1 {
			v.Sub(v, twoTo256)
		}
		bound := new(big.Int).Lsh(big1, uint(t.Size-1))
		if v.Cmp(bound) >= 0 || v.Cmp(new(big.Int).Neg(bound)) < 0 {
			return nil, malformed("value 0x%s overflows %s", hex.EncodeToString(w), t.String())
		}
		return parser.Scalar(v.String()), nil
	case AddressKind:
		if !isZero(w[:WordSize-20]) {
			return nil, malformed("address word 0x%s has dirty padding", hex.EncodeToString(w))
		}
		return parser.Address("0x" + hex.EncodeToString(w[WordSize-20:])), nil
	case BoolKind:
		if !isZero(w[:WordSize-1]) || w[WordSize-1] > 1 {
			return nil, malformed("bool word 0x%s is neither 0 nor 1", hex.EncodeToString(w))
		}
		if w[WordSize-1] == 1 {
			return parser.Scalar("true"), nil
		}
		return parser.Scalar("false"), nil
	case FixedBytesKind:
		if !isZero(w[t.Size:]) {
			return nil, malformed("%s word 0x%s has dirty padding", t.String(), hex.EncodeToString(w))
		}
		return parser.Bytes("0x" + hex.EncodeToString(w[:t.Size])), nil
	}
	return nil, unsupported("type %s cannot be read from a single word", t.String())
}
