package sqlite

import (
	"fmt"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const SqliteInMemoryPath = "file::memory:?cache=shared"

func NewInMemorySqlite() gorm.Dialector {
	return NewSqlite(SqliteInMemoryPath)
}

// NewInMemorySqliteWithName returns an isolated in-memory database; tests use
// a unique name each so they never share tables.
func NewInMemorySqliteWithName(name string) gorm.Dialector {
	return NewSqlite(fmt.Sprintf("file:%s?mode=memory&cache=shared", name))
}

func NewSqlite(path string) gorm.Dialector {
	return sqlite.Open(path)
}

func NewGormSqliteFromSqlite(dialector gorm.Dialector) (*gorm.DB, error) {
	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}

	// https://phiresky.github.io/blog/2020/sqlite-performance-tuning/
	pragmas := []string{
		`PRAGMA foreign_keys = ON;`,
		`PRAGMA journal_mode = WAL;`,
		`PRAGMA synchronous = normal;`,
	}

	for _, pragma := range pragmas {
		res := db.Exec(pragma)
		if res.Error != nil {
			return nil, res.Error
		}
	}

	return db, nil
}
