package ipfs

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/Layr-Labs/calldecoder/internal/config"
	"github.com/Layr-Labs/calldecoder/pkg/abiSource"
	"github.com/Layr-Labs/calldecoder/pkg/contractAbi"
	"github.com/btcsuite/btcutil/base58"
	"go.uber.org/zap"
)

// CBOR prefix of the solc metadata map: {"ipfs": bytes(34)
const markerSequence = "a264697066735822"

// sha2-256 multihash, 0x1220 followed by a 32 byte digest
const ipfsHashHexLength = 68

type Response struct {
	Output struct {
		ABI json.RawMessage `json:"abi"`
	} `json:"output"`
}

// Ipfs reads the metadata hash solc appends to runtime bytecode and fetches
// the ABI from the metadata document on an IPFS gateway.
type Ipfs struct {
	httpClient *http.Client
	clients    abiSource.EthereumClientProvider
	logger     *zap.Logger
	gatewayUrl string
}

func DefaultHttpClient() *http.Client {
	return &http.Client{
		Timeout: 10 * time.Second,
	}
}

func NewIpfs(hc *http.Client, clients abiSource.EthereumClientProvider, l *zap.Logger, cfg *config.Config) *Ipfs {
	gateway := cfg.IpfsConfig.GatewayUrl
	if gateway == "" {
		gateway = config.DefaultIpfsGatewayUrl
	}
	return &Ipfs{
		httpClient: hc,
		clients:    clients,
		logger:     l,
		gatewayUrl: strings.TrimSuffix(gateway, "/"),
	}
}

func (i *Ipfs) Name() string {
	return "ipfs"
}

// GetIPFSUrlFromBytecode returns the gateway url of the metadata document.
func (i *Ipfs) GetIPFSUrlFromBytecode(bytecode string) (string, error) {
	bytecode = strings.ToLower(strings.TrimPrefix(bytecode, "0x"))
	index := strings.LastIndex(bytecode, markerSequence)
	if index == -1 {
		return "", abiSource.ErrNotFound
	}

	startIndex := index + len(markerSequence)
	if len(bytecode) < startIndex+ipfsHashHexLength {
		return "", fmt.Errorf("%w: bytecode too short to contain complete IPFS hash", abiSource.ErrNotFound)
	}

	hash, err := hex.DecodeString(bytecode[startIndex : startIndex+ipfsHashHexLength])
	if err != nil {
		return "", fmt.Errorf("failed to decode hex: %v", err)
	}

	return fmt.Sprintf("%s/ipfs/%s", i.gatewayUrl, base58.Encode(hash)), nil
}

func (i *Ipfs) FetchAbi(ctx context.Context, chainId uint64, address string) (contractAbi.InterfaceSet, error) {
	client, err := i.clients.GetClient(chainId)
	if err != nil {
		return nil, err
	}
	bytecode, err := client.GetCode(ctx, address)
	if err != nil {
		return nil, err
	}

	uri, err := i.GetIPFSUrlFromBytecode(bytecode)
	if err != nil {
		return nil, err
	}
	i.logger.Sugar().Debugw("Fetching metadata from IPFS",
		zap.String("address", address),
		zap.String("url", uri),
	)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, uri, nil)
	if err != nil {
		return nil, err
	}
	resp, err := i.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch IPFS metadata: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, abiSource.ErrNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("gateway returned status: %d", resp.StatusCode)
	}

	content, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	var result Response
	if err := json.Unmarshal(content, &result); err != nil {
		return nil, fmt.Errorf("failed to parse IPFS metadata: %w", err)
	}
	if len(result.Output.ABI) == 0 {
		return nil, abiSource.ErrNotFound
	}

	set, err := contractAbi.InterfaceSetFromJson(string(result.Output.ABI), i.logger)
	if err != nil {
		return nil, err
	}
	if len(set) == 0 {
		return nil, abiSource.ErrNotFound
	}
	return set, nil
}
