package etherscan

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/Layr-Labs/calldecoder/internal/logger"
	"github.com/Layr-Labs/calldecoder/internal/tests"
	"github.com/Layr-Labs/calldecoder/pkg/abiSource"
	etherscanClient "github.com/Layr-Labs/calldecoder/pkg/clients/etherscan"
	"github.com/Layr-Labs/calldecoder/pkg/contractAbi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAbiClient struct {
	abis map[string]string
	err  error
}

func (f *fakeAbiClient) ContractAbi(ctx context.Context, chainId uint64, address string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	a, ok := f.abis[address]
	if !ok {
		return "", etherscanClient.ErrContractNotVerified
	}
	return a, nil
}

func Test_Etherscan(t *testing.T) {
	l, err := logger.NewLogger(&logger.LoggerConfig{Debug: false})
	require.Nil(t, err)

	erc20Abi, err := tests.GetErc20AbiJson()
	require.Nil(t, err)

	const token = "0x1c7d4b196cb0c7b01d743fbc6116a902379c7238"

	t.Run("Should convert a verified abi to an interface set", func(t *testing.T) {
		source := NewEtherscan(&fakeAbiClient{abis: map[string]string{token: erc20Abi}}, l)
		set, err := source.FetchAbi(context.Background(), 11155111, token)
		assert.Nil(t, err)

		entry, ok := set.Lookup(contractAbi.MustParseFunctionSignature("transfer(address,uint256)").Selector)
		assert.True(t, ok)
		assert.Equal(t, "_to", entry.Inputs[0].Name)
	})
	t.Run("Should map unverified contracts to not found", func(t *testing.T) {
		source := NewEtherscan(&fakeAbiClient{}, l)
		_, err := source.FetchAbi(context.Background(), 11155111, token)
		assert.True(t, errors.Is(err, abiSource.ErrNotFound))
	})
	t.Run("Should pass through outages", func(t *testing.T) {
		source := NewEtherscan(&fakeAbiClient{err: fmt.Errorf("etherscan returned status 503")}, l)
		_, err := source.FetchAbi(context.Background(), 11155111, token)
		assert.NotNil(t, err)
		assert.False(t, errors.Is(err, abiSource.ErrNotFound))
	})
	t.Run("Should reject invalid abi json", func(t *testing.T) {
		source := NewEtherscan(&fakeAbiClient{abis: map[string]string{token: "{"}}, l)
		_, err := source.FetchAbi(context.Background(), 11155111, token)
		assert.NotNil(t, err)
	})
}
