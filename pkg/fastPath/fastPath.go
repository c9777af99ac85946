// Package fastPath decodes a handful of very common ERC-20 calls without
// resolving the target's interface.
package fastPath

import (
	"github.com/Layr-Labs/calldecoder/pkg/abiCodec"
	"github.com/Layr-Labs/calldecoder/pkg/contractAbi"
	"github.com/Layr-Labs/calldecoder/pkg/parser"
)

var (
	Transfer = contractAbi.MustParseFunctionSignature("transfer(address _to, uint256 _value)")
	Approve  = contractAbi.MustParseFunctionSignature("approve(address _spender, uint256 _value)")
)

var decoders = contractAbi.NewInterfaceSet(Transfer, Approve)

// lookup returns the fast path function for selector, if there is one.
func lookup(selector contractAbi.Selector) (*contractAbi.InterfaceEntry, bool) {
	return decoders.Lookup(selector)
}

// Decode decodes calldata when its selector has a fast path. The boolean is
// false when it does not; the error is set when it does but the arguments are
// malformed.
func Decode(calldata []byte) (*parser.DecodedCall, bool, error) {
	sel, ok := contractAbi.SelectorFromCalldata(calldata)
	if !ok {
		return nil, false, nil
	}
	entry, ok := lookup(sel)
	if !ok {
		return nil, false, nil
	}
	call, err := decodeWith(entry, calldata[contractAbi.SelectorLength:])
	return call, true, err
}

// decodeWith decodes the arguments of an already matched function. args
// excludes the selector.
func decodeWith(entry *contractAbi.InterfaceEntry, args []byte) (*parser.DecodedCall, error) {
	params, err := abiCodec.DecodeArguments(entry.Inputs, args)
	if err != nil {
		return nil, err
	}
	return &parser.DecodedCall{
		Name:      entry.Name,
		Signature: entry.Signature,
		Kind:      parser.CallKind_Function,
		Params:    params,
	}, nil
}
