// Package migrations applies the schema used by the contract store. The same
// migrations run against postgres and sqlite, so statements stay portable.
package migrations

import (
	"fmt"
	"time"

	_202610011200_contracts "github.com/Layr-Labs/calldecoder/pkg/postgres/migrations/202610011200_contracts"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Migration interface {
	Up(grm *gorm.DB) error
	GetName() string
}

type Migrator struct {
	GDb    *gorm.DB
	Logger *zap.Logger
}

// MigrationRecord tracks an applied migration.
type MigrationRecord struct {
	Name      string `gorm:"primaryKey"`
	CreatedAt time.Time
}

func (MigrationRecord) TableName() string {
	return "migrations"
}

func NewMigrator(gDb *gorm.DB, l *zap.Logger) *Migrator {
	return &Migrator{
		GDb:    gDb,
		Logger: l,
	}
}

func (m *Migrator) MigrateAll() error {
	if err := m.GDb.AutoMigrate(&MigrationRecord{}); err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	migrations := []Migration{
		&_202610011200_contracts.Migration{},
	}

	for _, migration := range migrations {
		if err := m.Migrate(migration); err != nil {
			return err
		}
	}
	return nil
}

func (m *Migrator) Migrate(migration Migration) error {
	name := migration.GetName()

	var count int64
	if res := m.GDb.Model(&MigrationRecord{}).Where("name = ?", name).Count(&count); res.Error != nil {
		return fmt.Errorf("failed to check migration '%s': %w", name, res.Error)
	}
	if count > 0 {
		m.Logger.Sugar().Debugw("Migration already run", zap.String("migration", name))
		return nil
	}

	err := m.GDb.Transaction(func(tx *gorm.DB) error {
		if err := migration.Up(tx); err != nil {
			return err
		}
		return tx.Create(&MigrationRecord{Name: name, CreatedAt: time.Now()}).Error
	})
	if err != nil {
		m.Logger.Sugar().Errorw("Failed to run migration", zap.String("migration", name), zap.Error(err))
		return fmt.Errorf("failed to run migration '%s': %w", name, err)
	}
	m.Logger.Sugar().Infow("Migration applied", zap.String("migration", name))
	return nil
}
