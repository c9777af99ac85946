// Package parser provides the types produced by decoding EVM calldata. It
// turns raw call payloads into a structured, typed call tree that can be
// serialized to JSON for preview layers.
package parser

import (
	"encoding/json"
	"strconv"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// CallKind_Function is the only call kind produced today.
const CallKind_Function = "function"

// ValueKind identifies which variant a DecodedValue holds.
type ValueKind string

const (
	ValueKind_Scalar  ValueKind = "scalar"
	ValueKind_Address ValueKind = "address"
	ValueKind_Bytes   ValueKind = "bytes"
	ValueKind_Tuple   ValueKind = "tuple"
	ValueKind_Array   ValueKind = "array"
)

// DecodedValue is a decoded ABI value. The set of implementations is closed:
// Scalar, Address, Bytes, Tuple and Array. Consumers are expected to type
// switch over those five.
type DecodedValue interface {
	Kind() ValueKind
	isDecodedValue()
}

// Scalar holds integers as base-10 strings, booleans as "true"/"false" and
// the contents of ABI strings.
type Scalar string

// Address is a 20-byte address as lowercase 0x-prefixed hex.
type Address string

// Bytes is 0x-prefixed hex of a fixed or dynamic byte sequence.
type Bytes string

// Tuple is an ordered list of named fields.
type Tuple []*DecodedParam

// Array is an ordered list of elements of the same ABI type.
type Array []DecodedValue

func (Scalar) Kind() ValueKind  { return ValueKind_Scalar }
func (Address) Kind() ValueKind { return ValueKind_Address }
func (Bytes) Kind() ValueKind   { return ValueKind_Bytes }
func (Tuple) Kind() ValueKind   { return ValueKind_Tuple }
func (Array) Kind() ValueKind   { return ValueKind_Array }

func (Scalar) isDecodedValue()  {}
func (Address) isDecodedValue() {}
func (Bytes) isDecodedValue()   {}
func (Tuple) isDecodedValue()   {}
func (Array) isDecodedValue()   {}

// Field returns the tuple field with the given name, or nil.
func (t Tuple) Field(name string) *DecodedParam {
	for _, p := range t {
		if p.Name == name {
			return p
		}
	}
	return nil
}

// MarshalJSON encodes a tuple as an object keyed by field name, preserving
// the ABI field order.
func (t Tuple) MarshalJSON() ([]byte, error) {
	om := orderedmap.New[string, *tupleFieldJson]()
	for i, p := range t {
		key := p.Name
		if _, exists := om.Get(key); key == "" || exists {
			key = strconv.Itoa(i)
		}
		om.Set(key, &tupleFieldJson{
			Type:         p.Type,
			Value:        p.Value,
			ValueDecoded: p.ValueDecoded,
		})
	}
	return json.Marshal(om)
}

type tupleFieldJson struct {
	Type         string       `json:"type"`
	Value        DecodedValue `json:"value"`
	ValueDecoded *DecodedCall `json:"valueDecoded,omitempty"`
}

// DecodedParam is a single named parameter of a decoded call, or a single
// field of a decoded tuple.
type DecodedParam struct {
	// Name is the parameter name from the interface description
	Name string `json:"name"`
	// Type is the canonical ABI type signature, e.g. "(address,uint256,bytes)[]"
	Type string `json:"type"`
	// Value is the decoded value
	Value DecodedValue `json:"value"`
	// ValueDecoded is set only when Value held an embedded call that was
	// successfully decoded
	ValueDecoded *DecodedCall `json:"valueDecoded,omitempty"`
}

// DecodedCall represents one fully decoded invocation, top-level or nested.
type DecodedCall struct {
	// Name is the function name
	Name string `json:"name"`
	// Signature is the canonical function signature, e.g. "transfer(address,uint256)"
	Signature string `json:"signature"`
	// Kind is always CallKind_Function
	Kind string `json:"type"`
	// Params holds the decoded arguments in declaration order
	Params []*DecodedParam `json:"params"`
}

// Param returns the parameter with the given name, or nil.
func (c *DecodedCall) Param(name string) *DecodedParam {
	if c == nil {
		return nil
	}
	for _, p := range c.Params {
		if p.Name == name {
			return p
		}
	}
	return nil
}
