package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const ENV_PREFIX = "CALLDECODER"

const (
	Debug   = "debug"
	ChainId = "chain-id"

	EthereumRpcUrls = "ethereum.rpc-urls"

	EtherscanApiKeys    = "etherscan.api-keys"
	EtherscanBaseUrl    = "etherscan.base-url"
	EtherscanMaxRetries = "etherscan.max-retries"

	IpfsGatewayUrl = "ipfs.gateway-url"

	DecoderMaxDepth       = "decoder.max-depth"
	DecoderMaxConcurrency = "decoder.max-concurrency"
	DecoderTimeout        = "decoder.timeout"
	DecoderStrategies     = "decoder.strategies"

	KnownContractsFile = "known-contracts.file"

	DatabaseDriver     = "database.driver"
	DatabaseSqlitePath = "database.sqlite-path"
	DatabaseHost       = "database.host"
	DatabasePort       = "database.port"
	DatabaseUser       = "database.user"
	DatabasePassword   = "database.password"
	DatabaseDbName     = "database.db_name"
	DatabaseSchemaName = "database.schema_name"

	DataDogStatsdEnabled  = "datadog.statsd.enabled"
	DataDogStatsdUrl      = "datadog.statsd.url"
	DataDogTracingEnabled = "datadog.tracing.enabled"

	PrometheusEnabled = "prometheus.enabled"
	PrometheusPort    = "prometheus.port"

	LoadContractAddress = "address"
	LoadContractAbi     = "abi"
	LoadContractBatch   = "batch"

	DecodeAddress     = "address"
	DecodeCalldata    = "calldata"
	DecodeTxHash      = "tx-hash"
	DecodeFromCsv     = "from-csv"
	DecodeOutputFile  = "output"
	DecodePrettyPrint = "pretty"
)

const (
	DatabaseDriver_Sqlite   = "sqlite"
	DatabaseDriver_Postgres = "postgres"
)

// Chain ids with first-class support. Any other id works as long as an RPC url
// and an explorer entry exist for it.
const (
	ChainId_Mainnet uint64 = 1
	ChainId_Sepolia uint64 = 11155111
	ChainId_Holesky uint64 = 17000
)

const (
	DefaultChainId        = ChainId_Sepolia
	DefaultMaxDepth       = 5
	DefaultMaxConcurrency = 4
	DefaultTimeout        = 30 * time.Second
	DefaultEtherscanUrl   = "https://api.etherscan.io/v2/api"
	DefaultIpfsGatewayUrl = "https://ipfs.io"
	DefaultSqlitePath     = "./calldecoder.db"
)

var DefaultStrategies = []string{"store", "etherscan", "proxy", "erc20", "ipfs"}

type Config struct {
	Debug                bool
	ChainId              uint64
	EthereumRpcConfig    EthereumRpcConfig
	EtherscanConfig      EtherscanConfig
	IpfsConfig           IpfsConfig
	DecoderConfig        DecoderConfig
	KnownContractsConfig KnownContractsConfig
	DatabaseConfig       DatabaseConfig
	DataDogConfig        DataDogConfig
	PrometheusConfig     PrometheusConfig
	LoadContractConfig   LoadContractConfig
	DecodeConfig         DecodeConfig
}

type EthereumRpcConfig struct {
	// RpcUrls maps a chain id to the json-rpc endpoint used for on-chain probes.
	RpcUrls map[uint64]string
}

type EtherscanConfig struct {
	ApiKeys    []string
	BaseUrl    string
	MaxRetries uint
}

type IpfsConfig struct {
	GatewayUrl string
}

type DecoderConfig struct {
	MaxDepth       int
	MaxConcurrency int
	Timeout        time.Duration
	Strategies     []string
}

type KnownContractsConfig struct {
	File string
}

type DatabaseConfig struct {
	Driver     string
	SqlitePath string
	Host       string
	Port       int
	User       string
	Password   string
	DbName     string
	SchemaName string
}

type DataDogConfig struct {
	StatsdConfig struct {
		Enabled bool
		Url     string
	}
	EnableTracing bool
}

type PrometheusConfig struct {
	Enabled bool
	Port    int
}

type LoadContractConfig struct {
	Address string
	Abi     string
	Batch   bool
}

type DecodeConfig struct {
	Address     string
	Calldata    string
	TxHash      string
	FromCsv     string
	OutputFile  string
	PrettyPrint bool
}

func NewConfig() *Config {
	return &Config{
		Debug:   viper.GetBool(normalizeFlagName(Debug)),
		ChainId: viper.GetUint64(normalizeFlagName(ChainId)),

		EthereumRpcConfig: EthereumRpcConfig{
			RpcUrls: ParseRpcUrls(viper.GetString(normalizeFlagName(EthereumRpcUrls))),
		},

		EtherscanConfig: EtherscanConfig{
			ApiKeys:    parseStringAsList(viper.GetString(normalizeFlagName(EtherscanApiKeys))),
			BaseUrl:    viper.GetString(normalizeFlagName(EtherscanBaseUrl)),
			MaxRetries: viper.GetUint(normalizeFlagName(EtherscanMaxRetries)),
		},

		IpfsConfig: IpfsConfig{
			GatewayUrl: viper.GetString(normalizeFlagName(IpfsGatewayUrl)),
		},

		DecoderConfig: DecoderConfig{
			MaxDepth:       viper.GetInt(normalizeFlagName(DecoderMaxDepth)),
			MaxConcurrency: viper.GetInt(normalizeFlagName(DecoderMaxConcurrency)),
			Timeout:        viper.GetDuration(normalizeFlagName(DecoderTimeout)),
			Strategies:     parseStringAsList(viper.GetString(normalizeFlagName(DecoderStrategies))),
		},

		KnownContractsConfig: KnownContractsConfig{
			File: viper.GetString(normalizeFlagName(KnownContractsFile)),
		},

		DatabaseConfig: DatabaseConfig{
			Driver:     viper.GetString(normalizeFlagName(DatabaseDriver)),
			SqlitePath: viper.GetString(normalizeFlagName(DatabaseSqlitePath)),
			Host:       viper.GetString(normalizeFlagName(DatabaseHost)),
			Port:       viper.GetInt(normalizeFlagName(DatabasePort)),
			User:       viper.GetString(normalizeFlagName(DatabaseUser)),
			Password:   viper.GetString(normalizeFlagName(DatabasePassword)),
			DbName:     viper.GetString(normalizeFlagName(DatabaseDbName)),
			SchemaName: viper.GetString(normalizeFlagName(DatabaseSchemaName)),
		},

		DataDogConfig: DataDogConfig{
			StatsdConfig: struct {
				Enabled bool
				Url     string
			}{
				Enabled: viper.GetBool(normalizeFlagName(DataDogStatsdEnabled)),
				Url:     viper.GetString(normalizeFlagName(DataDogStatsdUrl)),
			},
			EnableTracing: viper.GetBool(normalizeFlagName(DataDogTracingEnabled)),
		},

		PrometheusConfig: PrometheusConfig{
			Enabled: viper.GetBool(normalizeFlagName(PrometheusEnabled)),
			Port:    viper.GetInt(normalizeFlagName(PrometheusPort)),
		},

		LoadContractConfig: LoadContractConfig{
			Address: viper.GetString(normalizeFlagName(LoadContractAddress)),
			Abi:     viper.GetString(normalizeFlagName(LoadContractAbi)),
			Batch:   viper.GetBool(normalizeFlagName(LoadContractBatch)),
		},

		DecodeConfig: DecodeConfig{
			Address:     viper.GetString(normalizeFlagName(DecodeAddress)),
			Calldata:    viper.GetString(normalizeFlagName(DecodeCalldata)),
			TxHash:      viper.GetString(normalizeFlagName(DecodeTxHash)),
			FromCsv:     viper.GetString(normalizeFlagName(DecodeFromCsv)),
			OutputFile:  viper.GetString(normalizeFlagName(DecodeOutputFile)),
			PrettyPrint: viper.GetBool(normalizeFlagName(DecodePrettyPrint)),
		},
	}
}

// GetStrategies returns the configured resolver strategy order, falling back
// to DefaultStrategies when none were given.
func (c *Config) GetStrategies() []string {
	if len(c.DecoderConfig.Strategies) == 0 {
		return DefaultStrategies
	}
	return c.DecoderConfig.Strategies
}

func (c *Config) GetRpcUrlForChain(chainId uint64) (string, error) {
	url, ok := c.EthereumRpcConfig.RpcUrls[chainId]
	if !ok || url == "" {
		return "", fmt.Errorf("no rpc url configured for chain %d", chainId)
	}
	return url, nil
}

func (c *Config) GetSqlitePath() string {
	if c.DatabaseConfig.SqlitePath == "" {
		return DefaultSqlitePath
	}
	return c.DatabaseConfig.SqlitePath
}

// ParseRpcUrls parses "chainId=url" pairs separated by commas. Malformed
// pairs are skipped.
func ParseRpcUrls(s string) map[uint64]string {
	urls := make(map[uint64]string)
	for _, pair := range parseStringAsList(s) {
		parts := strings.SplitN(pair, "=", 2)
		if len(parts) != 2 {
			continue
		}
		chainId, err := strconv.ParseUint(strings.TrimSpace(parts[0]), 10, 64)
		if err != nil {
			continue
		}
		url := strings.TrimSpace(parts[1])
		if url == "" {
			continue
		}
		urls[chainId] = url
	}
	return urls
}

func parseStringAsList(envVar string) []string {
	if envVar == "" {
		return []string{}
	}
	// split on commas
	stringList := strings.Split(envVar, ",")

	for i, s := range stringList {
		stringList[i] = strings.TrimSpace(s)
	}
	l := make([]string, 0)
	for _, s := range stringList {
		if s != "" {
			l = append(l, s)
		}
	}
	return l
}

func KebabToSnakeCase(str string) string {
	return strings.ReplaceAll(str, "-", "_")
}

func normalizeFlagName(name string) string {
	return KebabToSnakeCase(name)
}
