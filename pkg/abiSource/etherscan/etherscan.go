package etherscan

import (
	"context"
	"errors"
	"fmt"

	"github.com/Layr-Labs/calldecoder/pkg/abiSource"
	etherscanClient "github.com/Layr-Labs/calldecoder/pkg/clients/etherscan"
	"github.com/Layr-Labs/calldecoder/pkg/contractAbi"
	"go.uber.org/zap"
)

type AbiClient interface {
	ContractAbi(ctx context.Context, chainId uint64, address string) (string, error)
}

// Etherscan resolves verified contracts through the block explorer.
type Etherscan struct {
	Client AbiClient
	logger *zap.Logger
}

func NewEtherscan(client AbiClient, l *zap.Logger) *Etherscan {
	return &Etherscan{
		Client: client,
		logger: l,
	}
}

func (e *Etherscan) Name() string {
	return "etherscan"
}

func (e *Etherscan) FetchAbi(ctx context.Context, chainId uint64, address string) (contractAbi.InterfaceSet, error) {
	abiJson, err := e.Client.ContractAbi(ctx, chainId, address)
	if err != nil {
		if errors.Is(err, etherscanClient.ErrContractNotVerified) {
			return nil, abiSource.ErrNotFound
		}
		e.logger.Sugar().Warnw("Failed to fetch abi from etherscan",
			zap.Uint64("chainId", chainId),
			zap.String("address", address),
			zap.Error(err),
		)
		return nil, err
	}

	set, err := contractAbi.InterfaceSetFromJson(abiJson, e.logger)
	if err != nil {
		return nil, fmt.Errorf("etherscan returned an invalid abi for '%s': %w", address, err)
	}
	if len(set) == 0 {
		return nil, abiSource.ErrNotFound
	}
	return set, nil
}
