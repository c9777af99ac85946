// Package ethereum wraps go-ethereum's ethclient with the per-chain endpoint
// configuration and the handful of reads the resolver strategies need.
package ethereum

import (
	"context"
	"fmt"
	"math/big"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/Layr-Labs/calldecoder/internal/config"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"
	"go.uber.org/zap"
)

const defaultRequestTimeout = 10 * time.Second

type EthereumClientConfig struct {
	BaseUrl        string
	ChainId        uint64
	RequestTimeout time.Duration
}

func DefaultEthereumClientConfig(baseUrl string, chainId uint64) *EthereumClientConfig {
	return &EthereumClientConfig{
		BaseUrl:        baseUrl,
		ChainId:        chainId,
		RequestTimeout: defaultRequestTimeout,
	}
}

type Client struct {
	BaseUrl      string
	Logger       *zap.Logger
	httpClient   *http.Client
	clientConfig *EthereumClientConfig

	mu        sync.Mutex
	ethClient *ethclient.Client
}

func NewClient(cfg *EthereumClientConfig, l *zap.Logger) *Client {
	timeout := cfg.RequestTimeout
	if timeout == 0 {
		timeout = defaultRequestTimeout
	}
	l.Sugar().Debugw("Creating ethereum client",
		zap.String("url", cfg.BaseUrl),
		zap.Uint64("chainId", cfg.ChainId),
	)
	return &Client{
		BaseUrl:      cfg.BaseUrl,
		Logger:       l,
		httpClient:   &http.Client{Timeout: timeout},
		clientConfig: cfg,
	}
}

func (c *Client) ChainId() uint64 {
	return c.clientConfig.ChainId
}

// getEthClient dials lazily; http transports don't connect until the first request.
func (c *Client) getEthClient() (*ethclient.Client, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.ethClient != nil {
		return c.ethClient, nil
	}
	rpcClient, err := rpc.DialOptions(context.Background(), c.BaseUrl, rpc.WithHTTPClient(c.httpClient))
	if err != nil {
		return nil, fmt.Errorf("failed to dial ethereum rpc '%s': %w", c.BaseUrl, err)
	}
	c.ethClient = ethclient.NewClient(rpcClient)
	return c.ethClient, nil
}

// GetEthereumContractCaller returns a caller usable with bind.NewBoundContract.
func (c *Client) GetEthereumContractCaller() (bind.ContractCaller, error) {
	return c.getEthClient()
}

// GetCode returns the 0x-prefixed runtime bytecode at address. An address
// without code returns "0x".
func (c *Client) GetCode(ctx context.Context, address string) (string, error) {
	ec, err := c.getEthClient()
	if err != nil {
		return "", err
	}
	code, err := ec.CodeAt(ctx, common.HexToAddress(address), nil)
	if err != nil {
		c.Logger.Sugar().Debugw("Failed to get code", zap.String("address", address), zap.Error(err))
		return "", fmt.Errorf("failed to get code for '%s': %w", address, err)
	}
	return hexutil.Encode(code), nil
}

// GetStorageAt reads one storage slot at the latest block.
func (c *Client) GetStorageAt(ctx context.Context, address string, slot common.Hash) (common.Hash, error) {
	ec, err := c.getEthClient()
	if err != nil {
		return common.Hash{}, err
	}
	value, err := ec.StorageAt(ctx, common.HexToAddress(address), slot, nil)
	if err != nil {
		return common.Hash{}, fmt.Errorf("failed to get storage for '%s': %w", address, err)
	}
	return common.BytesToHash(value), nil
}

// EthereumTransaction is the part of a transaction needed to decode it.
type EthereumTransaction struct {
	Hash    string
	ChainId uint64
	From    string
	// To is empty for contract creations
	To      string
	Value   *big.Int
	Input   []byte
	Pending bool
}

// GetTransactionByHash returns the transaction with the given hash.
func (c *Client) GetTransactionByHash(ctx context.Context, hash string) (*EthereumTransaction, error) {
	ec, err := c.getEthClient()
	if err != nil {
		return nil, err
	}
	tx, pending, err := ec.TransactionByHash(ctx, common.HexToHash(hash))
	if err != nil {
		c.Logger.Sugar().Debugw("Failed to get transaction", zap.String("hash", hash), zap.Error(err))
		return nil, fmt.Errorf("failed to get transaction '%s': %w", hash, err)
	}

	et := &EthereumTransaction{
		Hash:    tx.Hash().Hex(),
		ChainId: c.ChainId(),
		Value:   tx.Value(),
		Input:   tx.Data(),
		Pending: pending,
	}
	if tx.To() != nil {
		et.To = strings.ToLower(tx.To().Hex())
	}
	if from, err := types.Sender(types.LatestSignerForChainID(tx.ChainId()), tx); err == nil {
		et.From = strings.ToLower(from.Hex())
	}
	return et, nil
}

// HashBytecode returns the keccak256 of a hex encoded bytecode string.
func HashBytecode(bytecode string) string {
	b, err := hexutil.Decode(bytecode)
	if err != nil {
		b = []byte(bytecode)
	}
	return crypto.Keccak256Hash(b).Hex()
}

// ClientPool holds one client per configured chain.
type ClientPool struct {
	clients map[uint64]*Client
}

func NewClientPool(clients ...*Client) *ClientPool {
	p := &ClientPool{clients: make(map[uint64]*Client)}
	for _, c := range clients {
		p.clients[c.ChainId()] = c
	}
	return p
}

func NewClientPoolFromConfig(cfg *config.Config, l *zap.Logger) *ClientPool {
	clients := make([]*Client, 0, len(cfg.EthereumRpcConfig.RpcUrls))
	for chainId, url := range cfg.EthereumRpcConfig.RpcUrls {
		clients = append(clients, NewClient(DefaultEthereumClientConfig(url, chainId), l))
	}
	return NewClientPool(clients...)
}

func (p *ClientPool) GetClient(chainId uint64) (*Client, error) {
	c, ok := p.clients[chainId]
	if !ok {
		return nil, fmt.Errorf("no ethereum client configured for chain %d", chainId)
	}
	return c, nil
}
