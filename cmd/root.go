package cmd

import (
	"os"
	"strings"

	"github.com/Layr-Labs/calldecoder/internal/config"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

var rootCmd = &cobra.Command{
	Use:   "calldecoder",
	Short: "Decodes EVM calldata, including calls nested in batch envelopes, into a structured call tree",
}

func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	initConfig(rootCmd)

	rootCmd.PersistentFlags().Bool(config.Debug, false, `"true" or "false"`)
	rootCmd.PersistentFlags().Uint64(config.ChainId, config.DefaultChainId, `The chain id calldata is decoded for`)

	rootCmd.PersistentFlags().String(config.EthereumRpcUrls, "", `Comma separated "chainId=url" pairs, e.g. "11155111=http://<hostname>:8545"`)

	rootCmd.PersistentFlags().String(config.EtherscanApiKeys, "", `Comma separated block explorer api keys, used round robin`)
	rootCmd.PersistentFlags().String(config.EtherscanBaseUrl, config.DefaultEtherscanUrl, `Block explorer api url`)
	rootCmd.PersistentFlags().Uint(config.EtherscanMaxRetries, 3, `Attempts per block explorer request`)

	rootCmd.PersistentFlags().String(config.IpfsGatewayUrl, config.DefaultIpfsGatewayUrl, `IPFS gateway used to fetch contract metadata`)

	rootCmd.PersistentFlags().Int(config.DecoderMaxDepth, config.DefaultMaxDepth, `Deepest nesting level of embedded calls that is decoded`)
	rootCmd.PersistentFlags().Int(config.DecoderMaxConcurrency, config.DefaultMaxConcurrency, `Embedded calls decoded concurrently per envelope`)
	rootCmd.PersistentFlags().Duration(config.DecoderTimeout, config.DefaultTimeout, `Deadline of one top level decode`)
	rootCmd.PersistentFlags().String(config.DecoderStrategies, strings.Join(config.DefaultStrategies, ","), `Ordered, comma separated abi resolution strategies`)

	rootCmd.PersistentFlags().String(config.KnownContractsFile, "", `YAML file of contracts with predeclared interfaces`)

	rootCmd.PersistentFlags().String(config.DatabaseDriver, config.DatabaseDriver_Sqlite, `"sqlite" or "postgres"`)
	rootCmd.PersistentFlags().String(config.DatabaseSqlitePath, config.DefaultSqlitePath, `Path of the sqlite database`)
	rootCmd.PersistentFlags().String(config.DatabaseHost, "localhost", `PostgreSQL host`)
	rootCmd.PersistentFlags().Int(config.DatabasePort, 5432, `PostgreSQL port`)
	rootCmd.PersistentFlags().String(config.DatabaseUser, "calldecoder", `PostgreSQL username`)
	rootCmd.PersistentFlags().String(config.DatabasePassword, "", `PostgreSQL password`)
	rootCmd.PersistentFlags().String(config.DatabaseDbName, "calldecoder", `PostgreSQL database name`)
	rootCmd.PersistentFlags().String(config.DatabaseSchemaName, "", `PostgreSQL schema name (default "public")`)

	rootCmd.PersistentFlags().Bool(config.DataDogStatsdEnabled, false, `e.g. "true" or "false"`)
	rootCmd.PersistentFlags().String(config.DataDogStatsdUrl, "", `e.g. "localhost:8125"`)
	rootCmd.PersistentFlags().Bool(config.DataDogTracingEnabled, false, `e.g. "true" or "false"`)

	rootCmd.PersistentFlags().Bool(config.PrometheusEnabled, false, `e.g. "true" or "false"`)
	rootCmd.PersistentFlags().Int(config.PrometheusPort, 2112, `The port to run the prometheus server on`)

	// setup sub commands
	rootCmd.AddCommand(decodeCmd)
	rootCmd.AddCommand(loadContractCmd)

	// bind any subcommand flags
	decodeCmd.Flags().String(config.DecodeAddress, "", `Address of the called contract`)
	decodeCmd.Flags().String(config.DecodeCalldata, "", `Hex calldata, 0x prefix optional`)
	decodeCmd.Flags().String(config.DecodeTxHash, "", `Hash of a transaction whose input is decoded, fetched from the chain's rpc url`)
	decodeCmd.Flags().String(config.DecodeFromCsv, "", `CSV file with chain_id,address,calldata rows to decode`)
	decodeCmd.Flags().String(config.DecodeOutputFile, "", `Write the JSON result to this file instead of stdout`)
	decodeCmd.Flags().Bool(config.DecodePrettyPrint, false, `Indent the JSON output`)

	loadContractCmd.Flags().String(config.LoadContractAddress, "", `Address of the contract`)
	loadContractCmd.Flags().String(config.LoadContractAbi, "", `ABI JSON of the contract. Fetched from the block explorer when empty`)
	loadContractCmd.Flags().Bool(config.LoadContractBatch, false, `Load many contracts from a JSON file or stdin`)

	rootCmd.PersistentFlags().VisitAll(func(f *pflag.Flag) {
		key := config.KebabToSnakeCase(f.Name)
		viper.BindPFlag(key, f) //nolint:errcheck
		viper.BindEnv(key)      //nolint:errcheck
	})
}

func initConfig(cmd *cobra.Command) {
	viper.SetEnvPrefix(config.ENV_PREFIX)

	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))

	viper.AutomaticEnv()
}

// bindCommandFlags binds the flags local to a sub command once it runs.
func bindCommandFlags(cmd *cobra.Command) {
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		key := config.KebabToSnakeCase(f.Name)
		if err := viper.BindPFlag(key, f); err != nil {
			cmd.PrintErrf("Failed to bind flag '%s' - %+v\n", f.Name, err)
		}
		if err := viper.BindEnv(key); err != nil {
			cmd.PrintErrf("Failed to bind env '%s' - %+v\n", f.Name, err)
		}
	})
}
