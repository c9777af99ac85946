package tests

import (
	"embed"
	"os"
	"strings"

	"github.com/Layr-Labs/calldecoder/internal/config"
	"github.com/Layr-Labs/calldecoder/internal/sqlite"
	"github.com/Layr-Labs/calldecoder/pkg/postgres/migrations"
	"github.com/google/uuid"
	"go.uber.org/goleak"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func GetConfig() *config.Config {
	return config.NewConfig()
}

// GenerateTestDbName returns a unique database name usable as an identifier.
func GenerateTestDbName() string {
	return "test_" + strings.ReplaceAll(uuid.New().String(), "-", "")
}

// GetSqliteDatabaseConnection opens a fresh, migrated in-memory database.
func GetSqliteDatabaseConnection(l *zap.Logger) (*gorm.DB, error) {
	db, err := sqlite.NewGormSqliteFromSqlite(sqlite.NewInMemorySqliteWithName(GenerateTestDbName()))
	if err != nil {
		return nil, err
	}
	if err := migrations.NewMigrator(db, l).MigrateAll(); err != nil {
		return nil, err
	}
	return db, nil
}

func ReplaceEnv(newValues map[string]string, previousValues *map[string]string) {
	for k, v := range newValues {
		(*previousValues)[k] = os.Getenv(k)
		os.Setenv(k, v)
	}
}

func RestoreEnv(previousValues map[string]string) {
	for k, v := range previousValues {
		os.Setenv(k, v)
	}
}

//go:embed testdata
var testData embed.FS

func readTestData(name string) (string, error) {
	contents, err := testData.ReadFile("testdata/" + name)
	if err != nil {
		return "", err
	}
	return string(contents), nil
}

// GetErc20AbiJson returns a standard ERC-20 ABI.
func GetErc20AbiJson() (string, error) {
	return readTestData("erc20.json")
}

// GetBatchExecutorAbiJson returns the ABI of a contract exposing executeBatch.
func GetBatchExecutorAbiJson() (string, error) {
	return readTestData("batchExecutor.json")
}

// GetEtherscanAbiResponse returns a getabi response whose result is the ERC-20 ABI.
func GetEtherscanAbiResponse() (string, error) {
	return readTestData("etherscanGetAbi.json")
}

// LeakOptions ignores the goroutines already running when a test starts,
// such as the tracer's background loggers started at package init.
func LeakOptions() []goleak.Option {
	return []goleak.Option{
		goleak.IgnoreCurrent(),
		goleak.IgnoreTopFunction("github.com/cihub/seelog.(*asyncLoopLogger).processQueue"),
	}
}
