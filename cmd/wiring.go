package cmd

import (
	"fmt"

	"github.com/Layr-Labs/calldecoder/internal/config"
	"github.com/Layr-Labs/calldecoder/internal/sqlite"
	"github.com/Layr-Labs/calldecoder/pkg/abiFetcher"
	"github.com/Layr-Labs/calldecoder/pkg/abiSource"
	"github.com/Layr-Labs/calldecoder/pkg/abiSource/erc20"
	"github.com/Layr-Labs/calldecoder/pkg/abiSource/etherscan"
	"github.com/Layr-Labs/calldecoder/pkg/abiSource/ipfs"
	"github.com/Layr-Labs/calldecoder/pkg/abiSource/proxy"
	"github.com/Layr-Labs/calldecoder/pkg/abiSource/storeSource"
	"github.com/Layr-Labs/calldecoder/pkg/calldataDecoder"
	"github.com/Layr-Labs/calldecoder/pkg/clients/ethereum"
	etherscanClient "github.com/Layr-Labs/calldecoder/pkg/clients/etherscan"
	"github.com/Layr-Labs/calldecoder/pkg/contractStore"
	"github.com/Layr-Labs/calldecoder/pkg/contractStore/gormContractStore"
	"github.com/Layr-Labs/calldecoder/pkg/knownContracts"
	"github.com/Layr-Labs/calldecoder/pkg/metrics"
	"github.com/Layr-Labs/calldecoder/pkg/postgres"
	"github.com/Layr-Labs/calldecoder/pkg/postgres/migrations"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// openDatabase connects to the configured contract database and applies
// pending migrations.
func openDatabase(cfg *config.Config, l *zap.Logger) (*gorm.DB, error) {
	var grm *gorm.DB
	var err error

	switch cfg.DatabaseConfig.Driver {
	case "", config.DatabaseDriver_Sqlite:
		grm, err = sqlite.NewGormSqliteFromSqlite(sqlite.NewSqlite(cfg.GetSqlitePath()))
		if err != nil {
			return nil, fmt.Errorf("failed to open sqlite database: %w", err)
		}
	case config.DatabaseDriver_Postgres:
		pgConfig := postgres.PostgresConfigFromDbConfig(&cfg.DatabaseConfig)
		pgConfig.CreateDbIfNotExists = true

		pg, err := postgres.NewPostgres(pgConfig)
		if err != nil {
			return nil, fmt.Errorf("failed to setup postgres connection: %w", err)
		}
		grm, err = postgres.NewGormFromPostgresConnection(pg.Db)
		if err != nil {
			return nil, fmt.Errorf("failed to create gorm instance: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported database driver '%s'", cfg.DatabaseConfig.Driver)
	}

	migrator := migrations.NewMigrator(grm, l)
	if err = migrator.MigrateAll(); err != nil {
		return nil, fmt.Errorf("failed to migrate: %w", err)
	}
	return grm, nil
}

func newMetricsSink(cfg *config.Config, l *zap.Logger) (*metrics.MetricsSink, error) {
	clients, err := metrics.InitMetricsSinksFromConfig(cfg, l)
	if err != nil {
		return nil, err
	}
	return metrics.NewMetricsSink(&metrics.MetricsSinkConfig{}, clients)
}

// buildSources assembles the resolver strategies in the configured order.
func buildSources(cfg *config.Config, cs contractStore.ContractStore, l *zap.Logger) ([]abiSource.AbiSource, error) {
	clients := ethereum.NewClientPoolFromConfig(cfg, l)
	explorer := etherscan.NewEtherscan(etherscanClient.NewEtherscanClient(etherscanClient.DefaultHttpClient(), l, cfg), l)
	ipfsSource := ipfs.NewIpfs(ipfs.DefaultHttpClient(), clients, l, cfg)
	store := storeSource.NewStoreSource(cs, l)

	sources := make([]abiSource.AbiSource, 0)
	for _, name := range cfg.GetStrategies() {
		switch name {
		case "store":
			sources = append(sources, store)
		case "etherscan":
			sources = append(sources, explorer)
		case "ipfs":
			sources = append(sources, ipfsSource)
		case "proxy":
			sources = append(sources, proxy.NewProxy(clients, []abiSource.AbiSource{store, explorer, ipfsSource}, l))
		case "erc20":
			e, err := erc20.NewErc20(clients, l)
			if err != nil {
				return nil, err
			}
			sources = append(sources, e)
		default:
			return nil, fmt.Errorf("unknown strategy '%s'", name)
		}
	}
	return sources, nil
}

// buildDecoder wires a decoder from configuration.
func buildDecoder(cfg *config.Config, grm *gorm.DB, ms *metrics.MetricsSink, l *zap.Logger) (*calldataDecoder.Decoder, error) {
	registry, err := knownContracts.NewRegistryFromFile(cfg.KnownContractsConfig.File, l)
	if err != nil {
		return nil, err
	}

	sources, err := buildSources(cfg, gormContractStore.NewGormContractStore(grm, l), l)
	if err != nil {
		return nil, err
	}
	af := abiFetcher.NewAbiFetcher(sources, ms, &abiFetcher.AbiFetcherConfig{ResolveTimeout: cfg.DecoderConfig.Timeout}, l)

	l.Sugar().Infow("Decoder configured",
		zap.Strings("strategies", af.SourceNames()),
		zap.Int("knownContracts", registry.Len()),
		zap.Int("maxDepth", cfg.DecoderConfig.MaxDepth),
		zap.Int("maxConcurrency", cfg.DecoderConfig.MaxConcurrency),
	)

	return calldataDecoder.NewDecoder(registry, af, ms, &calldataDecoder.DecoderConfig{
		MaxDepth:       cfg.DecoderConfig.MaxDepth,
		MaxConcurrency: cfg.DecoderConfig.MaxConcurrency,
		Timeout:        cfg.DecoderConfig.Timeout,
	}, l), nil
}
