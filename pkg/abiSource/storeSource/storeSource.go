package storeSource

import (
	"context"
	"fmt"

	"github.com/Layr-Labs/calldecoder/pkg/abiSource"
	"github.com/Layr-Labs/calldecoder/pkg/contractAbi"
	"github.com/Layr-Labs/calldecoder/pkg/contractStore"
	"go.uber.org/zap"
)

// StoreSource serves ABIs previously loaded into the contract store.
type StoreSource struct {
	contractStore contractStore.ContractStore
	logger        *zap.Logger
}

func NewStoreSource(cs contractStore.ContractStore, l *zap.Logger) *StoreSource {
	return &StoreSource{
		contractStore: cs,
		logger:        l,
	}
}

func (s *StoreSource) Name() string {
	return "store"
}

func (s *StoreSource) FetchAbi(ctx context.Context, chainId uint64, address string) (contractAbi.InterfaceSet, error) {
	contract, err := s.contractStore.GetContractForAddress(chainId, address)
	if err != nil {
		return nil, fmt.Errorf("failed to read contract store: %w", err)
	}
	if contract == nil {
		return nil, abiSource.ErrNotFound
	}

	set, err := contractAbi.InterfaceSetFromJson(contract.ContractAbi, s.logger)
	if err != nil {
		return nil, fmt.Errorf("stored abi for '%s' is invalid: %w", address, err)
	}
	if len(set) == 0 {
		return nil, abiSource.ErrNotFound
	}
	return set, nil
}
