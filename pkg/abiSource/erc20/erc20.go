package erc20

import (
	"context"
	"fmt"

	"github.com/Layr-Labs/calldecoder/pkg/abiSource"
	"github.com/Layr-Labs/calldecoder/pkg/contractAbi"
	"github.com/Layr-Labs/calldecoder/pkg/contractCaller"
	"github.com/Layr-Labs/calldecoder/pkg/contractCaller/sequentialErc20Caller"
	"go.uber.org/zap"
)

// Erc20 probes the contract for the ERC-20 metadata calls and, when they
// answer, serves the standard ERC-20 interface.
type Erc20 struct {
	clients  abiSource.EthereumClientProvider
	logger   *zap.Logger
	standard contractAbi.InterfaceSet
}

func NewErc20(clients abiSource.EthereumClientProvider, l *zap.Logger) (*Erc20, error) {
	standard, err := contractAbi.InterfaceSetFromJson(contractCaller.Erc20Abi, l)
	if err != nil {
		return nil, err
	}
	return &Erc20{
		clients:  clients,
		logger:   l,
		standard: standard,
	}, nil
}

func (e *Erc20) Name() string {
	return "erc20"
}

func (e *Erc20) FetchAbi(ctx context.Context, chainId uint64, address string) (contractAbi.InterfaceSet, error) {
	client, err := e.clients.GetClient(chainId)
	if err != nil {
		return nil, err
	}
	caller, err := sequentialErc20Caller.NewSequentialErc20Caller(client, e.logger)
	if err != nil {
		return nil, err
	}

	metadata, err := caller.GetErc20Metadata(ctx, address)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: not an erc20 token: %v", abiSource.ErrNotFound, err)
	}
	e.logger.Sugar().Debugw("Resolved contract as erc20",
		zap.Uint64("chainId", chainId),
		zap.String("address", address),
		zap.String("symbol", metadata.Symbol),
	)
	return e.standard, nil
}
