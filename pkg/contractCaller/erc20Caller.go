package contractCaller

import (
	"context"
	"math/big"
)

// Erc20Abi is the standard ERC-20 interface.
const Erc20Abi = `[
	{"type":"function","name":"name","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"string"}]},
	{"type":"function","name":"symbol","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"string"}]},
	{"type":"function","name":"decimals","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint8"}]},
	{"type":"function","name":"totalSupply","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint256"}]},
	{"type":"function","name":"balanceOf","stateMutability":"view","inputs":[{"name":"_owner","type":"address"}],"outputs":[{"name":"balance","type":"uint256"}]},
	{"type":"function","name":"allowance","stateMutability":"view","inputs":[{"name":"_owner","type":"address"},{"name":"_spender","type":"address"}],"outputs":[{"name":"","type":"uint256"}]},
	{"type":"function","name":"transfer","stateMutability":"nonpayable","inputs":[{"name":"_to","type":"address"},{"name":"_value","type":"uint256"}],"outputs":[{"name":"","type":"bool"}]},
	{"type":"function","name":"transferFrom","stateMutability":"nonpayable","inputs":[{"name":"_from","type":"address"},{"name":"_to","type":"address"},{"name":"_value","type":"uint256"}],"outputs":[{"name":"","type":"bool"}]},
	{"type":"function","name":"approve","stateMutability":"nonpayable","inputs":[{"name":"_spender","type":"address"},{"name":"_value","type":"uint256"}],"outputs":[{"name":"","type":"bool"}]}
]`

// Erc20Metadata is what an ERC-20 contract reports about itself.
type Erc20Metadata struct {
	Address     string
	Name        string
	Symbol      string
	Decimals    uint8
	TotalSupply *big.Int
}

// IErc20Caller defines the interface for reading ERC-20 metadata on chain
type IErc20Caller interface {
	// GetErc20Metadata calls decimals, totalSupply, name and symbol. It fails
	// when decimals or totalSupply can't be read; name and symbol are optional.
	GetErc20Metadata(ctx context.Context, address string) (*Erc20Metadata, error)
}
