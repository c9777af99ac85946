package proxy

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/Layr-Labs/calldecoder/internal/config"
	"github.com/Layr-Labs/calldecoder/internal/logger"
	"github.com/Layr-Labs/calldecoder/internal/tests"
	"github.com/Layr-Labs/calldecoder/pkg/abiSource"
	"github.com/Layr-Labs/calldecoder/pkg/clients/ethereum"
	"github.com/Layr-Labs/calldecoder/pkg/contractAbi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const rpcUrl = "http://rpc.test:8545"

type mapSource struct {
	sets      map[string]contractAbi.InterfaceSet
	requested []string
}

func (m *mapSource) Name() string { return "map" }

func (m *mapSource) FetchAbi(ctx context.Context, chainId uint64, address string) (contractAbi.InterfaceSet, error) {
	m.requested = append(m.requested, strings.ToLower(address))
	set, ok := m.sets[strings.ToLower(address)]
	if !ok {
		return nil, abiSource.ErrNotFound
	}
	return set, nil
}

func Test_Proxy(t *testing.T) {
	l, err := logger.NewLogger(&logger.LoggerConfig{Debug: false})
	require.Nil(t, err)

	httpmock.Activate()
	defer httpmock.DeactivateAndReset()

	const proxyAddress = "0x1111111111111111111111111111111111111111"
	const implementation = "0x2222222222222222222222222222222222222222"
	const plainAddress = "0x3333333333333333333333333333333333333333"

	httpmock.RegisterResponder("POST", rpcUrl, tests.NewJsonRpcResponder(map[string]tests.JsonRpcHandler{
		"eth_getStorageAt": func(params []json.RawMessage) (interface{}, error) {
			var address, slot string
			_ = json.Unmarshal(params[0], &address)
			_ = json.Unmarshal(params[1], &slot)
			if strings.EqualFold(address, proxyAddress) && common.HexToHash(slot) == ImplementationSlot {
				return common.BytesToHash(common.HexToAddress(implementation).Bytes()).Hex(), nil
			}
			return common.Hash{}.Hex(), nil
		},
	}))

	pool := ethereum.NewClientPool(ethereum.NewClient(ethereum.DefaultEthereumClientConfig(rpcUrl, config.ChainId_Sepolia), l))
	implSet := contractAbi.NewInterfaceSet(contractAbi.MustParseFunctionSignature("upgradeTo(address newImplementation)"))

	t.Run("Should resolve the implementation through delegates", func(t *testing.T) {
		delegate := &mapSource{sets: map[string]contractAbi.InterfaceSet{implementation: implSet}}
		p := NewProxy(pool, []abiSource.AbiSource{delegate}, l)

		set, err := p.FetchAbi(context.Background(), config.ChainId_Sepolia, proxyAddress)
		assert.Nil(t, err)
		assert.Equal(t, implSet, set)
		assert.Equal(t, []string{implementation}, delegate.requested)
	})
	t.Run("Should report an empty slot as not found", func(t *testing.T) {
		p := NewProxy(pool, []abiSource.AbiSource{&mapSource{}}, l)
		_, err := p.FetchAbi(context.Background(), config.ChainId_Sepolia, plainAddress)
		assert.True(t, errors.Is(err, abiSource.ErrNotFound))
	})
	t.Run("Should report an unresolvable implementation as not found", func(t *testing.T) {
		p := NewProxy(pool, []abiSource.AbiSource{&mapSource{}}, l)
		_, err := p.FetchAbi(context.Background(), config.ChainId_Sepolia, proxyAddress)
		assert.True(t, errors.Is(err, abiSource.ErrNotFound))
	})
	t.Run("Should fail for chains without a client", func(t *testing.T) {
		p := NewProxy(pool, nil, l)
		_, err := p.FetchAbi(context.Background(), config.ChainId_Mainnet, proxyAddress)
		assert.NotNil(t, err)
	})
}
