package contractAbi

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/Layr-Labs/calldecoder/pkg/abiCodec"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

const SelectorLength = 4

// Selector is the first four bytes of keccak256 of a canonical function signature.
type Selector [SelectorLength]byte

func (s Selector) String() string {
	return "0x" + hex.EncodeToString(s[:])
}

// ParseSelector parses an optionally 0x-prefixed 8 character hex selector.
func ParseSelector(s string) (Selector, error) {
	var sel Selector
	b, err := hex.DecodeString(strings.TrimPrefix(strings.ToLower(s), "0x"))
	if err != nil {
		return sel, errors.Wrapf(err, "invalid selector '%s'", s)
	}
	if len(b) != SelectorLength {
		return sel, fmt.Errorf("selector '%s' must be %d bytes", s, SelectorLength)
	}
	copy(sel[:], b)
	return sel, nil
}

// SelectorFromCalldata returns the leading selector of calldata.
func SelectorFromCalldata(calldata []byte) (Selector, bool) {
	var sel Selector
	if len(calldata) < SelectorLength {
		return sel, false
	}
	copy(sel[:], calldata[:SelectorLength])
	return sel, true
}

// InterfaceEntry describes one function: its name, canonical signature,
// selector and ordered inputs. Entries are immutable once built.
type InterfaceEntry struct {
	Name      string
	Signature string
	Selector  Selector
	Inputs    []abiCodec.Argument
}

// NewInterfaceEntry derives the canonical signature and selector of a function.
func NewInterfaceEntry(name string, inputs []abiCodec.Argument) *InterfaceEntry {
	types := make([]string, len(inputs))
	for i, in := range inputs {
		types[i] = in.Type.String()
	}
	signature := fmt.Sprintf("%s(%s)", name, strings.Join(types, ","))

	var sel Selector
	copy(sel[:], crypto.Keccak256([]byte(signature))[:SelectorLength])

	return &InterfaceEntry{
		Name:      name,
		Signature: signature,
		Selector:  sel,
		Inputs:    inputs,
	}
}

// ParseFunctionSignature parses a human readable declaration such as
// "transfer(address _to, uint256 _value)". A leading "function " is allowed.
func ParseFunctionSignature(declaration string) (*InterfaceEntry, error) {
	d := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(declaration), "function "))
	open := strings.Index(d, "(")
	if open <= 0 || !strings.HasSuffix(d, ")") {
		return nil, fmt.Errorf("malformed function declaration '%s'", declaration)
	}
	name := strings.TrimSpace(d[:open])
	inputs, err := abiCodec.ParseArguments(d[open+1 : len(d)-1])
	if err != nil {
		return nil, errors.Wrapf(err, "failed to parse inputs of '%s'", declaration)
	}
	return NewInterfaceEntry(name, inputs), nil
}

// MustParseFunctionSignature is ParseFunctionSignature for package-level tables.
func MustParseFunctionSignature(declaration string) *InterfaceEntry {
	entry, err := ParseFunctionSignature(declaration)
	if err != nil {
		panic(err)
	}
	return entry
}

// InterfaceSet maps selectors to the functions of one contract.
type InterfaceSet map[Selector]*InterfaceEntry

// NewInterfaceSet indexes entries by selector. Later duplicates win.
func NewInterfaceSet(entries ...*InterfaceEntry) InterfaceSet {
	set := make(InterfaceSet, len(entries))
	for _, e := range entries {
		set[e.Selector] = e
	}
	return set
}

func (s InterfaceSet) Lookup(sel Selector) (*InterfaceEntry, bool) {
	e, ok := s[sel]
	return e, ok
}

// InterfaceSetFromAbi converts the methods of a parsed ABI. Methods whose
// inputs use types the codec does not implement are skipped and logged.
func InterfaceSetFromAbi(a *abi.ABI, l *zap.Logger) InterfaceSet {
	set := make(InterfaceSet, len(a.Methods))
	for _, method := range a.Methods {
		inputs := make([]abiCodec.Argument, 0, len(method.Inputs))
		var convErr error
		for _, in := range method.Inputs {
			t, err := TypeFromAbi(in.Type)
			if err != nil {
				convErr = err
				break
			}
			inputs = append(inputs, abiCodec.Argument{Name: in.Name, Type: t})
		}
		if convErr != nil {
			l.Sugar().Debugw("Skipping method with unsupported input type",
				zap.String("method", method.Sig),
				zap.Error(convErr),
			)
			continue
		}
		entry := NewInterfaceEntry(method.RawName, inputs)
		set[entry.Selector] = entry
	}
	return set
}

// InterfaceSetFromJson parses ABI JSON and converts it to an InterfaceSet.
func InterfaceSetFromJson(json string, l *zap.Logger) (InterfaceSet, error) {
	a, err := ParseAbiJson(json, l)
	if err != nil {
		return nil, err
	}
	return InterfaceSetFromAbi(a, l), nil
}

// TypeFromAbi converts a go-ethereum ABI type, keeping tuple component names.
func TypeFromAbi(t abi.Type) (*abiCodec.Type, error) {
	switch t.T {
	case abi.TupleTy:
		components := make([]*abiCodec.Type, len(t.TupleElems))
		for i, elem := range t.TupleElems {
			c, err := TypeFromAbi(*elem)
			if err != nil {
				return nil, err
			}
			components[i] = c
		}
		names := make([]string, len(components))
		copy(names, t.TupleRawNames)
		return abiCodec.NewTupleType(components, names)
	case abi.SliceTy:
		elem, err := TypeFromAbi(*t.Elem)
		if err != nil {
			return nil, err
		}
		return abiCodec.NewSliceType(elem), nil
	case abi.ArrayTy:
		elem, err := TypeFromAbi(*t.Elem)
		if err != nil {
			return nil, err
		}
		return abiCodec.NewArrayType(elem, t.Size)
	}
	return abiCodec.ParseType(t.String())
}
