package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Layr-Labs/calldecoder/internal/config"
	"github.com/Layr-Labs/calldecoder/internal/logger"
	"github.com/Layr-Labs/calldecoder/internal/tracer"
	"github.com/Layr-Labs/calldecoder/pkg/calldataDecoder"
	"github.com/Layr-Labs/calldecoder/pkg/clients/ethereum"
	"github.com/Layr-Labs/calldecoder/pkg/fetcher"
	"github.com/Layr-Labs/calldecoder/pkg/metrics"
	"github.com/gocarina/gocsv"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var decodeCmd = &cobra.Command{
	Use:   "decode",
	Short: "Decode calldata into a JSON call tree",
	Long: `Decode a single call given --address and --calldata, the input of a transaction
given --tx-hash, or every row of a CSV file given --from-csv. CSV files need a header
row of chain_id,address,calldata; rows without a chain id use --chain-id.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		bindCommandFlags(cmd)
		cfg := config.NewConfig()

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		l, err := logger.NewLogger(&logger.LoggerConfig{Debug: cfg.Debug})
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		defer l.Sync() //nolint:errcheck

		tracer.StartTracer(cfg.DataDogConfig.EnableTracing, cfg.ChainId)
		defer tracer.StopTracer()

		ms, err := newMetricsSink(cfg, l)
		if err != nil {
			return fmt.Errorf("failed to setup metrics sink: %w", err)
		}
		defer ms.Flush()

		if cfg.PrometheusConfig.Enabled {
			server := metrics.StartPrometheusServer(cfg, l)
			defer func() {
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				_ = server.Shutdown(shutdownCtx)
			}()
		}

		grm, err := openDatabase(cfg, l)
		if err != nil {
			return err
		}

		decoder, err := buildDecoder(cfg, grm, ms, l)
		if err != nil {
			return fmt.Errorf("failed to setup decoder: %w", err)
		}

		if cfg.DecodeConfig.FromCsv != "" {
			return decodeCsv(ctx, cfg, decoder, l)
		}

		if cfg.DecodeConfig.TxHash != "" {
			return decodeTransaction(ctx, cfg, decoder, l)
		}

		if cfg.DecodeConfig.Address == "" || cfg.DecodeConfig.Calldata == "" {
			return fmt.Errorf("--%s and --%s are required unless --%s or --%s is given",
				config.DecodeAddress, config.DecodeCalldata, config.DecodeTxHash, config.DecodeFromCsv)
		}

		call, err := decoder.DecodeHex(ctx, cfg.ChainId, cfg.DecodeConfig.Address, cfg.DecodeConfig.Calldata)
		if err != nil {
			l.Sugar().Errorw("Failed to decode calldata",
				zap.Uint64("chainId", cfg.ChainId),
				zap.String("address", cfg.DecodeConfig.Address),
				zap.Error(err),
			)
			return err
		}
		return writeOutput(cfg, call)
	},
}

// decodeTransaction fetches a transaction from the chain's rpc node and decodes its input.
func decodeTransaction(ctx context.Context, cfg *config.Config, decoder *calldataDecoder.Decoder, l *zap.Logger) error {
	f := fetcher.NewFetcher(ethereum.NewClientPoolFromConfig(cfg, l), fetcher.DefaultFetcherConfig(), l)

	tx, err := f.FetchTransaction(ctx, cfg.ChainId, cfg.DecodeConfig.TxHash)
	if err != nil {
		return err
	}
	l.Sugar().Debugw("Fetched transaction",
		zap.String("hash", tx.Hash),
		zap.String("from", tx.From),
		zap.String("to", tx.To),
		zap.Bool("pending", tx.Pending),
	)

	call, err := decoder.Decode(ctx, tx.ChainId, tx.To, tx.Input)
	if err != nil {
		l.Sugar().Errorw("Failed to decode transaction input",
			zap.String("hash", tx.Hash),
			zap.Error(err),
		)
		return err
	}
	return writeOutput(cfg, call)
}

func decodeCsv(ctx context.Context, cfg *config.Config, decoder *calldataDecoder.Decoder, l *zap.Logger) error {
	f, err := os.Open(cfg.DecodeConfig.FromCsv)
	if err != nil {
		return fmt.Errorf("failed to open csv file: %w", err)
	}
	defer f.Close()

	requests := make([]*calldataDecoder.DecodeRequest, 0)
	if err := gocsv.UnmarshalFile(f, &requests); err != nil {
		return fmt.Errorf("failed to parse csv file: %w", err)
	}
	for _, r := range requests {
		if r.ChainId == 0 {
			r.ChainId = cfg.ChainId
		}
	}

	bar := progressbar.Default(int64(len(requests)), "decoding")
	results := decoder.DecodeBatch(ctx, requests, func() {
		_ = bar.Add(1)
	})
	_ = bar.Finish()

	failed := 0
	for _, r := range results {
		if r.Error != nil {
			failed++
		}
	}
	l.Sugar().Infow("Decoded csv file",
		zap.String("file", cfg.DecodeConfig.FromCsv),
		zap.Int("rows", len(results)),
		zap.Int("failed", failed),
	)
	return writeOutput(cfg, results)
}

func writeOutput(cfg *config.Config, v interface{}) error {
	var out []byte
	var err error
	if cfg.DecodeConfig.PrettyPrint {
		out, err = json.MarshalIndent(v, "", "  ")
	} else {
		out, err = json.Marshal(v)
	}
	if err != nil {
		return fmt.Errorf("failed to encode result: %w", err)
	}
	out = append(out, '\n')

	if cfg.DecodeConfig.OutputFile == "" {
		_, err = os.Stdout.Write(out)
		return err
	}
	return os.WriteFile(cfg.DecodeConfig.OutputFile, out, 0o644)
}
