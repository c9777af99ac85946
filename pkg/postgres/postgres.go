package postgres

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/Layr-Labs/calldecoder/internal/config"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const uniqueViolationCode = "23505"

// PostgresConfig contains all configuration parameters needed to establish
// a connection to a PostgreSQL database.
type PostgresConfig struct {
	// Host is the PostgreSQL server hostname or IP address
	Host string
	// Port is the PostgreSQL server port number
	Port int
	// Username for authentication with the PostgreSQL server
	Username string
	// Password for authentication with the PostgreSQL server
	Password string
	// DbName is the name of the database to connect to
	DbName string
	// CreateDbIfNotExists indicates whether to create the database if it doesn't exist
	CreateDbIfNotExists bool
	// SchemaName specifies the schema to use within the database
	SchemaName string
}

// Postgres represents a connection to a PostgreSQL database.
type Postgres struct {
	// Db is the underlying SQL database connection
	Db *sql.DB
}

// PostgresConfigFromDbConfig converts a DatabaseConfig to a PostgresConfig.
func PostgresConfigFromDbConfig(dbCfg *config.DatabaseConfig) *PostgresConfig {
	return &PostgresConfig{
		Host:       dbCfg.Host,
		Port:       dbCfg.Port,
		Username:   dbCfg.User,
		Password:   dbCfg.Password,
		DbName:     dbCfg.DbName,
		SchemaName: dbCfg.SchemaName,
	}
}

func getPostgresRootConnection(cfg *PostgresConfig) (*sql.DB, error) {
	postgresDB, err := sql.Open("postgres", getPostgresConnectionString(&PostgresConfig{
		Host:     cfg.Host,
		Port:     cfg.Port,
		Username: cfg.Username,
		Password: cfg.Password,
		DbName:   "postgres",
	}))
	if err != nil {
		return nil, fmt.Errorf("error connecting to postgres database: %v", err)
	}
	return postgresDB, nil
}

func getPostgresConnectionString(cfg *PostgresConfig) string {
	authString := ""
	if cfg.Username != "" {
		authString = fmt.Sprintf("%s user=%s", authString, cfg.Username)
	}
	if cfg.Password != "" {
		authString = fmt.Sprintf("%s password=%s", authString, cfg.Password)
	}

	baseString := fmt.Sprintf("host=%s %s dbname=%s port=%d sslmode=disable TimeZone=UTC",
		cfg.Host,
		authString,
		cfg.DbName,
		cfg.Port,
	)

	if cfg.SchemaName != "" {
		baseString = fmt.Sprintf("%s search_path=%s", baseString, cfg.SchemaName)
	}
	return baseString
}

// CreateDatabaseIfNotExists creates a new database if it doesn't already exist.
func CreateDatabaseIfNotExists(cfg *PostgresConfig) error {
	postgresDB, err := getPostgresRootConnection(cfg)
	if err != nil {
		return err
	}
	defer postgresDB.Close()

	var exists bool
	err = postgresDB.QueryRow(`SELECT EXISTS(SELECT datname FROM pg_catalog.pg_database WHERE datname = $1);`, cfg.DbName).Scan(&exists)
	if err != nil {
		return fmt.Errorf("error checking if database exists: %v", err)
	}

	if !exists {
		if _, err = postgresDB.Exec(fmt.Sprintf("CREATE DATABASE %s", pq.QuoteIdentifier(cfg.DbName))); err != nil {
			return fmt.Errorf("error creating database: %v", err)
		}
	}
	return nil
}

// NewPostgres creates a new Postgres instance with an established database connection.
func NewPostgres(cfg *PostgresConfig) (*Postgres, error) {
	if cfg.CreateDbIfNotExists {
		if err := CreateDatabaseIfNotExists(cfg); err != nil {
			return nil, fmt.Errorf("failed to create database if not exists %+v", err)
		}
	}

	db, err := sql.Open("postgres", getPostgresConnectionString(cfg))
	if err != nil {
		return nil, fmt.Errorf("failed to setup database %+v", err)
	}

	return &Postgres{
		Db: db,
	}, nil
}

// NewGormFromPostgresConnection creates a new GORM DB instance from an existing PostgreSQL connection.
func NewGormFromPostgresConnection(pgDb *sql.DB) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.New(postgres.Config{
		Conn: pgDb,
	}), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to setup database %+v", err)
	}

	return db, nil
}

// IsDuplicateKeyError reports whether err is a unique constraint violation
// raised by either the lib/pq or the pgx driver.
func IsDuplicateKeyError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code) == uniqueViolationCode
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == uniqueViolationCode
	}
	return false
}
