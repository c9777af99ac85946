package proxy

import (
	"context"
	"errors"
	"fmt"

	"github.com/Layr-Labs/calldecoder/pkg/abiSource"
	"github.com/Layr-Labs/calldecoder/pkg/contractAbi"
	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"
)

// ImplementationSlot is the EIP-1967 slot, keccak256("eip1967.proxy.implementation") - 1.
var ImplementationSlot = common.HexToHash("0x360894a13ba1a3210667c828492db98dca3e2076cc3735a920a3ca505d382bbc")

// Proxy reads the EIP-1967 implementation slot and resolves the
// implementation through its delegate sources.
type Proxy struct {
	clients   abiSource.EthereumClientProvider
	delegates []abiSource.AbiSource
	logger    *zap.Logger
}

func NewProxy(clients abiSource.EthereumClientProvider, delegates []abiSource.AbiSource, l *zap.Logger) *Proxy {
	return &Proxy{
		clients:   clients,
		delegates: delegates,
		logger:    l,
	}
}

func (p *Proxy) Name() string {
	return "proxy"
}

// GetImplementationAddress returns the implementation behind address, or
// ErrNotFound when the slot is empty.
func (p *Proxy) GetImplementationAddress(ctx context.Context, chainId uint64, address string) (string, error) {
	client, err := p.clients.GetClient(chainId)
	if err != nil {
		return "", err
	}
	value, err := client.GetStorageAt(ctx, address, ImplementationSlot)
	if err != nil {
		return "", err
	}
	impl := common.BytesToAddress(value.Bytes())
	if impl == (common.Address{}) {
		return "", abiSource.ErrNotFound
	}
	return impl.Hex(), nil
}

func (p *Proxy) FetchAbi(ctx context.Context, chainId uint64, address string) (contractAbi.InterfaceSet, error) {
	impl, err := p.GetImplementationAddress(ctx, chainId, address)
	if err != nil {
		return nil, err
	}
	p.logger.Sugar().Debugw("Found proxy implementation",
		zap.Uint64("chainId", chainId),
		zap.String("proxy", address),
		zap.String("implementation", impl),
	)

	var lastErr error = abiSource.ErrNotFound
	for _, delegate := range p.delegates {
		set, err := delegate.FetchAbi(ctx, chainId, impl)
		if err == nil {
			return set, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if !errors.Is(err, abiSource.ErrNotFound) {
			lastErr = err
		}
	}
	return nil, fmt.Errorf("failed to resolve implementation '%s': %w", impl, lastErr)
}
