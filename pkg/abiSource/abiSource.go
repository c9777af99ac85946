// Package abiSource defines the pluggable strategies the resolver consults, in
// order, to find the interface of a contract.
package abiSource

import (
	"context"
	"errors"

	"github.com/Layr-Labs/calldecoder/pkg/clients/ethereum"
	"github.com/Layr-Labs/calldecoder/pkg/contractAbi"
)

// ErrNotFound means the source answered but has no interface for the address.
var ErrNotFound = errors.New("abi not found")

type AbiSource interface {
	// Name identifies the source in configuration, logs and metrics.
	Name() string
	FetchAbi(ctx context.Context, chainId uint64, address string) (contractAbi.InterfaceSet, error)
}

// EthereumClientProvider returns the rpc client for a chain.
type EthereumClientProvider interface {
	GetClient(chainId uint64) (*ethereum.Client, error)
}
