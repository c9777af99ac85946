package sequentialErc20Caller

import (
	"context"
	"fmt"
	"math/big"
	"strings"

	"github.com/Layr-Labs/calldecoder/pkg/contractCaller"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"
)

type ContractCallerProvider interface {
	GetEthereumContractCaller() (bind.ContractCaller, error)
}

// SequentialErc20Caller issues one eth_call per metadata field.
type SequentialErc20Caller struct {
	CallerProvider ContractCallerProvider
	Logger         *zap.Logger
	parsedAbi      abi.ABI
}

func NewSequentialErc20Caller(cp ContractCallerProvider, l *zap.Logger) (*SequentialErc20Caller, error) {
	parsedAbi, err := abi.JSON(strings.NewReader(contractCaller.Erc20Abi))
	if err != nil {
		return nil, fmt.Errorf("failed to parse erc20 ABI: %v", err)
	}
	return &SequentialErc20Caller{
		CallerProvider: cp,
		Logger:         l,
		parsedAbi:      parsedAbi,
	}, nil
}

func (sc *SequentialErc20Caller) call(ctx context.Context, contract *bind.BoundContract, method string) (interface{}, error) {
	var result []interface{}
	if err := contract.Call(&bind.CallOpts{Context: ctx}, &result, method); err != nil {
		return nil, fmt.Errorf("failed to call %s: %w", method, err)
	}
	if len(result) == 0 || result[0] == nil {
		return nil, fmt.Errorf("got nil or empty result from %s", method)
	}
	return result[0], nil
}

func (sc *SequentialErc20Caller) GetErc20Metadata(ctx context.Context, address string) (*contractCaller.Erc20Metadata, error) {
	ethClient, err := sc.CallerProvider.GetEthereumContractCaller()
	if err != nil {
		return nil, fmt.Errorf("failed to get ethereum contract caller: %v", err)
	}

	contract := bind.NewBoundContract(common.HexToAddress(address), sc.parsedAbi, ethClient, nil, nil)
	metadata := &contractCaller.Erc20Metadata{Address: strings.ToLower(address)}

	decimals, err := sc.call(ctx, contract, "decimals")
	if err != nil {
		return nil, err
	}
	d, ok := decimals.(uint8)
	if !ok {
		return nil, fmt.Errorf("got unexpected result type from decimals for %s", address)
	}
	metadata.Decimals = d

	totalSupply, err := sc.call(ctx, contract, "totalSupply")
	if err != nil {
		return nil, err
	}
	supply, ok := totalSupply.(*big.Int)
	if !ok {
		return nil, fmt.Errorf("got unexpected result type from totalSupply for %s", address)
	}
	metadata.TotalSupply = supply

	metadata.Name = sc.optionalString(ctx, contract, address, "name")
	metadata.Symbol = sc.optionalString(ctx, contract, address, "symbol")

	sc.Logger.Sugar().Debugw("Retrieved erc20 metadata",
		zap.String("address", address),
		zap.String("symbol", metadata.Symbol),
		zap.Uint8("decimals", metadata.Decimals),
	)
	return metadata, nil
}

func (sc *SequentialErc20Caller) optionalString(ctx context.Context, contract *bind.BoundContract, address string, method string) string {
	value, err := sc.call(ctx, contract, method)
	if err != nil {
		sc.Logger.Sugar().Debugw("Optional erc20 field unavailable",
			zap.String("address", address),
			zap.String("method", method),
			zap.Error(err),
		)
		return ""
	}
	s, _ := value.(string)
	return s
}
