package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/Layr-Labs/calldecoder/internal/config"
	"github.com/Layr-Labs/calldecoder/internal/logger"
	etherscanClient "github.com/Layr-Labs/calldecoder/pkg/clients/etherscan"
	"github.com/Layr-Labs/calldecoder/pkg/contractManager"
	"github.com/Layr-Labs/calldecoder/pkg/contractStore/gormContractStore"
	"github.com/spf13/cobra"
)

var loadContractCmd = &cobra.Command{
	Use:   "load-contract [file]",
	Short: "Load a contract abi into the contract store",
	Long: `Load the abi of a contract so it is resolved without an external lookup.

Single contract: --address with --abi given as ABI JSON, as "@path" to read it from
a file, or empty to fetch the verified ABI from the block explorer.

Batch: --batch with a JSON file of {"contracts": [{"chainId", "contractAddress", "contractAbi"}]}
given as the last argument, or piped through stdin.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		bindCommandFlags(cmd)
		cfg := config.NewConfig()

		ctx := context.Background()

		l, err := logger.NewLogger(&logger.LoggerConfig{Debug: cfg.Debug})
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}

		grm, err := openDatabase(cfg, l)
		if err != nil {
			return err
		}
		cs := gormContractStore.NewGormContractStore(grm, l)

		var filename string
		var useFile bool
		var useStdin bool

		// Check if a file path is provided as a positional argument
		if len(args) > 0 {
			filename = args[0]
			useFile = true
		} else {
			// Check if we should read from stdin (if stdin is not a terminal)
			stdinInfo, err := os.Stdin.Stat()
			if err == nil && (stdinInfo.Mode()&os.ModeCharDevice) == 0 {
				useStdin = true
			}
		}

		if cfg.LoadContractConfig.Batch {
			if useFile {
				if err := cs.InitializeExternalContracts(filename); err != nil {
					return fmt.Errorf("failed to initialize external contracts from file: %w", err)
				}
				return nil
			}
			if useStdin {
				if err := cs.InitializeExternalContractsFromReader(os.Stdin); err != nil {
					return fmt.Errorf("failed to initialize external contracts from stdin: %w", err)
				}
				return nil
			}
			return fmt.Errorf("batch mode requires a file path or stdin input")
		}

		abiJson, err := readAbiArgument(cfg.LoadContractConfig.Abi)
		if err != nil {
			return err
		}

		explorer := etherscanClient.NewEtherscanClient(etherscanClient.DefaultHttpClient(), l, cfg)
		cm := contractManager.NewContractManager(cs, explorer, l)

		_, err = cm.LoadContract(ctx, contractManager.ContractLoadParams{
			ChainId: cfg.ChainId,
			Address: cfg.LoadContractConfig.Address,
			Abi:     abiJson,
		})
		if err != nil {
			return fmt.Errorf("failed to load contract: %w", err)
		}
		return nil
	},
}

// readAbiArgument returns the ABI JSON of --abi, reading it from a file when
// the value starts with "@".
func readAbiArgument(value string) (string, error) {
	if !strings.HasPrefix(value, "@") {
		return value, nil
	}
	f, err := os.Open(strings.TrimPrefix(value, "@"))
	if err != nil {
		return "", fmt.Errorf("failed to open abi file: %w", err)
	}
	defer f.Close()

	contents, err := io.ReadAll(f)
	if err != nil {
		return "", fmt.Errorf("failed to read abi file: %w", err)
	}
	return string(contents), nil
}
