package contractManager

import (
	"context"
	"fmt"
	"testing"

	"github.com/Layr-Labs/calldecoder/internal/config"
	"github.com/Layr-Labs/calldecoder/internal/logger"
	"github.com/Layr-Labs/calldecoder/internal/tests"
	"github.com/Layr-Labs/calldecoder/pkg/contractStore/gormContractStore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAbiClient struct {
	abis  map[string]string
	calls int
}

func (f *fakeAbiClient) ContractAbi(ctx context.Context, chainId uint64, address string) (string, error) {
	f.calls++
	abiJson, ok := f.abis[address]
	if !ok {
		return "", fmt.Errorf("contract source code not verified")
	}
	return abiJson, nil
}

func Test_ContractManager(t *testing.T) {
	l, err := logger.NewLogger(&logger.LoggerConfig{Debug: false})
	require.Nil(t, err)

	db, err := tests.GetSqliteDatabaseConnection(l)
	require.Nil(t, err)
	cs := gormContractStore.NewGormContractStore(db, l)

	erc20Abi, err := tests.GetErc20AbiJson()
	require.Nil(t, err)
	batchAbi, err := tests.GetBatchExecutorAbiJson()
	require.Nil(t, err)

	const token = "0x1c7d4b196cb0c7b01d743fbc6116a902379c7238"
	const executor = "0x5dd9fdf2310b5dac8dced8a100fb4952546ae7bd"

	abiClient := &fakeAbiClient{abis: map[string]string{token: erc20Abi}}
	cm := NewContractManager(cs, abiClient, l)

	t.Run("Should load a contract with the given abi", func(t *testing.T) {
		contract, err := cm.LoadContract(context.Background(), ContractLoadParams{
			ChainId: config.ChainId_Sepolia,
			Address: "0x5DD9FDF2310B5DAC8DCED8A100FB4952546AE7BD",
			Abi:     batchAbi,
		})
		require.Nil(t, err)
		assert.Equal(t, executor, contract.ContractAddress)
		assert.False(t, contract.Verified)
		assert.Equal(t, 0, abiClient.calls)
	})
	t.Run("Should replace a changed abi", func(t *testing.T) {
		contract, err := cm.LoadContract(context.Background(), ContractLoadParams{
			ChainId: config.ChainId_Sepolia,
			Address: executor,
			Abi:     erc20Abi,
		})
		require.Nil(t, err)
		assert.Equal(t, erc20Abi, contract.ContractAbi)

		stored, err := cs.GetContractForAddress(config.ChainId_Sepolia, executor)
		require.Nil(t, err)
		assert.Equal(t, erc20Abi, stored.ContractAbi)
	})
	t.Run("Should fetch the verified abi when none is given", func(t *testing.T) {
		contract, err := cm.LoadContract(context.Background(), ContractLoadParams{
			ChainId: config.ChainId_Sepolia,
			Address: token,
		})
		require.Nil(t, err)
		assert.True(t, contract.Verified)
		assert.Equal(t, erc20Abi, contract.ContractAbi)
		assert.Equal(t, 1, abiClient.calls)
	})
	t.Run("Should fail for an unverified contract", func(t *testing.T) {
		_, err := cm.LoadContract(context.Background(), ContractLoadParams{
			ChainId: config.ChainId_Sepolia,
			Address: "0x0000000000000000000000000000000000000bad",
		})
		assert.NotNil(t, err)
	})
	t.Run("Should validate its input", func(t *testing.T) {
		_, err := cm.LoadContract(context.Background(), ContractLoadParams{ChainId: config.ChainId_Sepolia, Address: "0x12", Abi: erc20Abi})
		assert.NotNil(t, err)

		_, err = cm.LoadContract(context.Background(), ContractLoadParams{Address: token, Abi: erc20Abi})
		assert.NotNil(t, err)

		_, err = NewContractManager(cs, nil, l).LoadContract(context.Background(), ContractLoadParams{
			ChainId: config.ChainId_Sepolia,
			Address: "0x0000000000000000000000000000000000000001",
		})
		assert.NotNil(t, err)
	})
}
