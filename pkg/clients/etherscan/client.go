// Package etherscan is a client for the Etherscan V2 multichain API, used to
// fetch the ABI of verified contracts.
package etherscan

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/Layr-Labs/calldecoder/internal/config"
	"github.com/avast/retry-go/v4"
	"go.uber.org/zap"
)

var (
	// ErrContractNotVerified is returned when the explorer has no source for the address.
	ErrContractNotVerified = errors.New("contract source code not verified")
	errRateLimited         = errors.New("etherscan rate limit reached")
)

const defaultRetryDelay = 500 * time.Millisecond

type Response struct {
	Status  string          `json:"status"`
	Message string          `json:"message"`
	Result  json.RawMessage `json:"result"`
}

type EtherscanClient struct {
	httpClient *http.Client
	logger     *zap.Logger

	baseUrl    string
	apiKeys    []string
	maxRetries uint
	retryDelay time.Duration

	keyIndex atomic.Uint64
}

func DefaultHttpClient() *http.Client {
	return &http.Client{
		Timeout: 10 * time.Second,
	}
}

func NewEtherscanClient(hc *http.Client, l *zap.Logger, cfg *config.Config) *EtherscanClient {
	baseUrl := cfg.EtherscanConfig.BaseUrl
	if baseUrl == "" {
		baseUrl = config.DefaultEtherscanUrl
	}
	maxRetries := cfg.EtherscanConfig.MaxRetries
	if maxRetries == 0 {
		maxRetries = 3
	}
	return &EtherscanClient{
		httpClient: hc,
		logger:     l,
		baseUrl:    baseUrl,
		apiKeys:    cfg.EtherscanConfig.ApiKeys,
		maxRetries: maxRetries,
		retryDelay: defaultRetryDelay,
	}
}

// WithRetryDelay overrides the delay between attempts.
func (ec *EtherscanClient) WithRetryDelay(d time.Duration) *EtherscanClient {
	ec.retryDelay = d
	return ec
}

// nextApiKey rotates through the configured keys so load is spread across them.
func (ec *EtherscanClient) nextApiKey() string {
	if len(ec.apiKeys) == 0 {
		return ""
	}
	i := ec.keyIndex.Add(1) - 1
	return ec.apiKeys[i%uint64(len(ec.apiKeys))]
}

func (ec *EtherscanClient) buildUrl(chainId uint64, params url.Values) string {
	params.Set("chainid", strconv.FormatUint(chainId, 10))
	if key := ec.nextApiKey(); key != "" {
		params.Set("apikey", key)
	}
	return fmt.Sprintf("%s?%s", ec.baseUrl, params.Encode())
}

// ContractAbi returns the verified ABI json of address on chainId.
func (ec *EtherscanClient) ContractAbi(ctx context.Context, chainId uint64, address string) (string, error) {
	params := url.Values{}
	params.Set("module", "contract")
	params.Set("action", "getabi")
	params.Set("address", strings.ToLower(address))

	res, err := retry.DoWithData(func() (*Response, error) {
		return ec.get(ctx, ec.buildUrl(chainId, params))
	},
		retry.Context(ctx),
		retry.Attempts(ec.maxRetries),
		retry.Delay(ec.retryDelay),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.RetryIf(func(err error) bool {
			return !errors.Is(err, ErrContractNotVerified)
		}),
		retry.OnRetry(func(attempt uint, err error) {
			ec.logger.Sugar().Debugw("Retrying etherscan request",
				zap.Uint("attempt", attempt+1),
				zap.String("address", address),
				zap.Error(err),
			)
		}),
	)
	if err != nil {
		return "", err
	}

	var abiJson string
	if err := json.Unmarshal(res.Result, &abiJson); err != nil {
		return "", fmt.Errorf("unexpected etherscan result for '%s': %w", address, err)
	}
	return abiJson, nil
}

func (ec *EtherscanClient) get(ctx context.Context, u string) (*Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, retry.Unrecoverable(err)
	}

	resp, err := ec.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("etherscan request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read etherscan response: %w", err)
	}

	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= http.StatusInternalServerError {
		return nil, fmt.Errorf("etherscan returned status %d", resp.StatusCode)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, retry.Unrecoverable(fmt.Errorf("etherscan returned status %d", resp.StatusCode))
	}

	res := &Response{}
	if err := json.Unmarshal(body, res); err != nil {
		return nil, retry.Unrecoverable(fmt.Errorf("failed to decode etherscan response: %w", err))
	}

	if res.Status != "1" {
		var message string
		_ = json.Unmarshal(res.Result, &message)
		lower := strings.ToLower(message)
		switch {
		case strings.Contains(lower, "rate limit"):
			return nil, errRateLimited
		case strings.Contains(lower, "not verified"):
			return nil, ErrContractNotVerified
		default:
			return nil, retry.Unrecoverable(fmt.Errorf("etherscan error: %s: %s", res.Message, message))
		}
	}
	return res, nil
}
