package contractManager

import (
	"context"
	"fmt"

	"github.com/Layr-Labs/calldecoder/pkg/contractStore"
	"github.com/Layr-Labs/calldecoder/pkg/utils"
	"go.uber.org/zap"
)

// AbiClient fetches the verified ABI JSON of a contract from a block explorer.
type AbiClient interface {
	ContractAbi(ctx context.Context, chainId uint64, address string) (string, error)
}

type ContractManager struct {
	ContractStore contractStore.ContractStore
	AbiClient     AbiClient
	Logger        *zap.Logger
}

// NewContractManager builds a manager. abiClient may be nil, in which case
// every load must carry its ABI.
func NewContractManager(
	cs contractStore.ContractStore,
	abiClient AbiClient,
	l *zap.Logger,
) *ContractManager {
	return &ContractManager{
		ContractStore: cs,
		AbiClient:     abiClient,
		Logger:        l,
	}
}

type ContractLoadParams struct {
	ChainId uint64
	Address string
	// Abi is the ABI JSON. When empty the verified ABI is fetched from the
	// block explorer.
	Abi string
}

// LoadContract stores the ABI of a contract so the store strategy can serve
// it. An existing contract has its ABI replaced when it differs.
func (cm *ContractManager) LoadContract(ctx context.Context, params ContractLoadParams) (*contractStore.Contract, error) {
	if !utils.IsValidAddress(params.Address) {
		return nil, fmt.Errorf("invalid contract address '%s'", params.Address)
	}
	if params.ChainId == 0 {
		return nil, fmt.Errorf("chain id is required")
	}
	address := utils.NormalizeAddress(params.Address)

	abiJson := params.Abi
	verified := false
	if abiJson == "" {
		if cm.AbiClient == nil {
			return nil, fmt.Errorf("no abi given for '%s' and no block explorer configured", address)
		}
		fetched, err := cm.AbiClient.ContractAbi(ctx, params.ChainId, address)
		if err != nil {
			cm.Logger.Sugar().Errorw("Failed to fetch contract abi from block explorer",
				zap.Uint64("chainId", params.ChainId),
				zap.String("contractAddress", address),
				zap.Error(err),
			)
			return nil, fmt.Errorf("failed to fetch abi for '%s': %w", address, err)
		}
		abiJson = fetched
		verified = true
	}

	contract, found, err := cm.ContractStore.FindOrCreateContract(params.ChainId, address, abiJson, verified)
	if err != nil {
		cm.Logger.Sugar().Errorw("Failed to create contract",
			zap.Uint64("chainId", params.ChainId),
			zap.String("contractAddress", address),
			zap.Error(err),
		)
		return nil, err
	}
	if !found {
		cm.Logger.Sugar().Infow("Loaded contract",
			zap.Uint64("chainId", params.ChainId),
			zap.String("contractAddress", address),
			zap.Bool("verified", verified),
		)
		return contract, nil
	}

	if contract.ContractAbi == abiJson {
		cm.Logger.Sugar().Debugw("Contract already loaded with the same abi",
			zap.Uint64("chainId", params.ChainId),
			zap.String("contractAddress", address),
		)
		return contract, nil
	}

	contract, err = cm.ContractStore.UpdateContractAbi(params.ChainId, address, abiJson)
	if err != nil {
		cm.Logger.Sugar().Errorw("Failed to update contract abi",
			zap.Uint64("chainId", params.ChainId),
			zap.String("contractAddress", address),
			zap.Error(err),
		)
		return nil, err
	}
	cm.Logger.Sugar().Infow("Updated contract abi",
		zap.Uint64("chainId", params.ChainId),
		zap.String("contractAddress", address),
	)
	return contract, nil
}
