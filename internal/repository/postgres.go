package repository

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormLogger "gorm.io/gorm/logger"

	"github.com/core-coin/fortuna/internal/models"
	"github.com/core-coin/fortuna/pkg/logger"
)

// KVEntry is one key of the shared store
type KVEntry struct {
	Key       string `gorm:"column:key;primaryKey;size:512"`
	Value     []byte `gorm:"column:value;type:bytea;not null"`
	UpdatedAt int64  `gorm:"column:updated_at;autoUpdateTime:milli"`
}

// TableName specifies the table name for GORM
func (KVEntry) TableName() string {
	return "kv_entries"
}

type PostgresStore struct {
	logger *logger.Logger

	Conn *gorm.DB
}

func NewPostgresStore(dsn string, logger *logger.Logger) (*PostgresStore, error) {
	// Configure GORM logger to suppress "record not found" messages
	gormLogger := gormLogger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		gormLogger.Config{
			SlowThreshold:             200 * time.Millisecond,
			LogLevel:                  gormLogger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  true,
		},
	)
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{Logger: gormLogger})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to PostgreSQL: %w", err)
	}

	if err := db.AutoMigrate(&KVEntry{}); err != nil {
		return nil, fmt.Errorf("failed to auto-migrate models: %w", err)
	}
	logger.Info("Successfully connected to PostgreSQL")
	return &PostgresStore{Conn: db, logger: logger}, nil
}

func (db *PostgresStore) Close() error {
	sqlDB, err := db.Conn.DB()
	if err != nil {
		return fmt.Errorf("failed to get database connection: %w", err)
	}
	return sqlDB.Close()
}

func (db *PostgresStore) Get(ctx context.Context, key string) ([]byte, error) {
	var entry KVEntry
	if err := db.Conn.WithContext(ctx).Where("key = ?", key).First(&entry).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.ErrNotFound
		}
		return nil, models.NewStorageError("get", key, err)
	}
	return entry.Value, nil
}

// Set upserts the key. Concurrent writers race and the last one wins.
func (db *PostgresStore) Set(ctx context.Context, key string, value []byte) error {
	entry := KVEntry{Key: key, Value: value}
	err := db.Conn.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&entry).Error
	if err != nil {
		return models.NewStorageError("set", key, err)
	}
	return nil
}

func (db *PostgresStore) Delete(ctx context.Context, key string) error {
	if err := db.Conn.WithContext(ctx).Where("key = ?", key).Delete(&KVEntry{}).Error; err != nil {
		return models.NewStorageError("delete", key, err)
	}
	return nil
}

// List returns keys under prefix in byte order, independent of the database locale.
func (db *PostgresStore) List(ctx context.Context, prefix string) ([]string, error) {
	var keys []string
	err := db.Conn.WithContext(ctx).Model(&KVEntry{}).
		Where("key LIKE ?", escapeLike(prefix)+"%").
		Order(`key COLLATE "C" ASC`).
		Pluck("key", &keys).Error
	if err != nil {
		return nil, models.NewStorageError("list", prefix, err)
	}
	return keys, nil
}

// CompareAndSwap relies on single-row atomicity of INSERT ... ON CONFLICT DO NOTHING,
// UPDATE ... WHERE and DELETE ... WHERE.
func (db *PostgresStore) CompareAndSwap(ctx context.Context, key string, old, new []byte) (bool, error) {
	conn := db.Conn.WithContext(ctx)
	var result *gorm.DB
	switch {
	case old == nil && new == nil:
		var count int64
		if err := conn.Model(&KVEntry{}).Where("key = ?", key).Count(&count).Error; err != nil {
			return false, models.NewStorageError("compare-and-swap", key, err)
		}
		return count == 0, nil
	case old == nil:
		result = conn.Clauses(clause.OnConflict{DoNothing: true}).Create(&KVEntry{Key: key, Value: new})
	case new == nil:
		result = conn.Where("key = ? AND value = ?", key, old).Delete(&KVEntry{})
	default:
		result = conn.Model(&KVEntry{}).Where("key = ? AND value = ?", key, old).Update("value", new)
	}
	if result.Error != nil {
		return false, models.NewStorageError("compare-and-swap", key, result.Error)
	}
	return result.RowsAffected == 1, nil
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
