// Package fetcher retrieves transactions from Ethereum nodes so their input
// can be decoded without the caller supplying the calldata.
package fetcher

import (
	"context"
	"time"

	"github.com/Layr-Labs/calldecoder/pkg/clients/ethereum"
	"github.com/avast/retry-go/v4"
	goethereum "github.com/ethereum/go-ethereum"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// FetcherConfig contains the configuration specific to the Fetcher
type FetcherConfig struct {
	// Attempts is the number of tries per transaction before giving up
	Attempts uint
	// RetryDelay is the base delay between attempts, doubled on every retry
	RetryDelay time.Duration
}

func DefaultFetcherConfig() *FetcherConfig {
	return &FetcherConfig{
		Attempts:   4,
		RetryDelay: time.Second,
	}
}

// TransactionClient is the subset of the ethereum client used by the Fetcher.
type TransactionClient interface {
	GetTransactionByHash(ctx context.Context, hash string) (*ethereum.EthereumTransaction, error)
}

// ClientProvider returns the client for a chain.
type ClientProvider func(chainId uint64) (TransactionClient, error)

// Fetcher is responsible for retrieving transactions from Ethereum nodes.
type Fetcher struct {
	clients       ClientProvider
	Logger        *zap.Logger
	FetcherConfig *FetcherConfig
}

// NewFetcher creates a new Fetcher with the provided client pool, configuration, and logger.
func NewFetcher(pool *ethereum.ClientPool, cfg *FetcherConfig, l *zap.Logger) *Fetcher {
	return NewFetcherWithProvider(func(chainId uint64) (TransactionClient, error) {
		return pool.GetClient(chainId)
	}, cfg, l)
}

func NewFetcherWithProvider(clients ClientProvider, cfg *FetcherConfig, l *zap.Logger) *Fetcher {
	if cfg == nil {
		cfg = DefaultFetcherConfig()
	}
	l.Sugar().Debugw("Created fetcher", zap.Any("config", cfg))
	return &Fetcher{
		clients:       clients,
		Logger:        l,
		FetcherConfig: cfg,
	}
}

// FetchTransaction returns the transaction with the given hash, retrying
// transient node errors with exponential backoff. A transaction the node does
// not know is not retried.
func (f *Fetcher) FetchTransaction(ctx context.Context, chainId uint64, hash string) (*ethereum.EthereumTransaction, error) {
	client, err := f.clients(chainId)
	if err != nil {
		return nil, err
	}

	tx, err := retry.DoWithData(func() (*ethereum.EthereumTransaction, error) {
		tx, err := client.GetTransactionByHash(ctx, hash)
		if err != nil {
			if errors.Is(err, goethereum.NotFound) {
				return nil, retry.Unrecoverable(err)
			}
			return nil, err
		}
		return tx, nil
	},
		retry.Context(ctx),
		retry.Attempts(f.FetcherConfig.Attempts),
		retry.Delay(f.FetcherConfig.RetryDelay),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(attempt uint, err error) {
			f.Logger.Sugar().Infow("failed to fetch transaction, retrying",
				zap.String("hash", hash),
				zap.Uint("attempt", attempt),
				zap.Error(err),
			)
		}),
	)
	if err != nil {
		f.Logger.Sugar().Errorw("failed to fetch transaction",
			zap.Uint64("chainId", chainId),
			zap.String("hash", hash),
			zap.Error(err),
		)
		return nil, errors.Wrapf(err, "failed to fetch transaction %s", hash)
	}
	if tx.To == "" {
		return nil, errors.Errorf("transaction %s creates a contract and has no calldata to decode", hash)
	}
	return tx, nil
}
