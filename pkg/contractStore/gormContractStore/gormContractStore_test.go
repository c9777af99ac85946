package gormContractStore

import (
	"strings"
	"testing"

	"github.com/Layr-Labs/calldecoder/internal/logger"
	"github.com/Layr-Labs/calldecoder/internal/tests"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_GormContractStore(t *testing.T) {
	l, err := logger.NewLogger(&logger.LoggerConfig{Debug: false})
	require.Nil(t, err)

	db, err := tests.GetSqliteDatabaseConnection(l)
	require.Nil(t, err)

	erc20Abi, err := tests.GetErc20AbiJson()
	require.Nil(t, err)
	batchAbi, err := tests.GetBatchExecutorAbiJson()
	require.Nil(t, err)

	cs := NewGormContractStore(db, l)

	const chainId = uint64(11155111)
	const address = "0x5DD9FDF2310B5DAC8DCED8A100FB4952546AE7BD"

	t.Run("Should return nil for an unknown contract", func(t *testing.T) {
		contract, err := cs.GetContractForAddress(chainId, address)
		assert.Nil(t, err)
		assert.Nil(t, contract)
	})
	t.Run("Should create a contract with a normalized address", func(t *testing.T) {
		contract, found, err := cs.FindOrCreateContract(chainId, address, batchAbi, true)
		assert.Nil(t, err)
		assert.False(t, found)
		assert.Equal(t, strings.ToLower(address), contract.ContractAddress)
		assert.Equal(t, chainId, contract.ChainId)
	})
	t.Run("Should find the contract rather than create it", func(t *testing.T) {
		contract, found, err := cs.FindOrCreateContract(chainId, strings.ToLower(address), batchAbi, true)
		assert.Nil(t, err)
		assert.True(t, found)
		assert.Equal(t, batchAbi, contract.ContractAbi)
	})
	t.Run("Should key contracts by chain", func(t *testing.T) {
		contract, err := cs.GetContractForAddress(1, address)
		assert.Nil(t, err)
		assert.Nil(t, contract)
	})
	t.Run("Should reject invalid abi json and addresses", func(t *testing.T) {
		_, err := cs.CreateContract(chainId, "0x0000000000000000000000000000000000000001", "not json", true)
		assert.NotNil(t, err)

		_, err = cs.CreateContract(chainId, "0x1234", erc20Abi, true)
		assert.NotNil(t, err)
	})
	t.Run("Should update the abi of an existing contract", func(t *testing.T) {
		contract, err := cs.UpdateContractAbi(chainId, address, erc20Abi)
		assert.Nil(t, err)
		assert.Equal(t, erc20Abi, contract.ContractAbi)
	})
	t.Run("Should load a batch of external contracts", func(t *testing.T) {
		payload := `{"contracts":[
			{"chainId": 11155111, "contractAddress": "0x5dd9fdf2310b5dac8dced8a100fb4952546ae7bd", "contractAbi": ` + quote(batchAbi) + `},
			{"chainId": 1, "contractAddress": "0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48", "contractAbi": ` + quote(erc20Abi) + `}
		]}`
		err := cs.InitializeExternalContractsFromReader(strings.NewReader(payload))
		assert.Nil(t, err)

		contract, err := cs.GetContractForAddress(chainId, address)
		assert.Nil(t, err)
		assert.Equal(t, batchAbi, contract.ContractAbi)

		mainnet, err := cs.ListContracts(1)
		assert.Nil(t, err)
		assert.Len(t, mainnet, 1)
		assert.Equal(t, "0xa0b86991c6218b36c1d19d4a2e9eb0ce3606eb48", mainnet[0].ContractAddress)
	})
	t.Run("Should reject a batch entry without an abi", func(t *testing.T) {
		err := cs.InitializeExternalContractsFromReader(strings.NewReader(`{"contracts":[{"chainId":1,"contractAddress":"0x0000000000000000000000000000000000000002","contractAbi":""}]}`))
		assert.NotNil(t, err)
	})
}

func quote(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `"`, `\"`, "\n", `\n`)
	return `"` + r.Replace(s) + `"`
}
