package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"coatvision/internal/model"

	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// KV 抽象持久化键值存储，每个键保存一个集合的完整快照。
type KV interface {
	// Get 返回键对应的值，键不存在时 ok 为 false。
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
}

// Store 封装 SQLite 数据库访问，以 snapshots 表实现 KV。
type Store struct {
	db  *gorm.DB
	now func() time.Time
}

// NewStore 创建 Store 并自动迁移快照表。
func NewStore(dbPath string) (*Store, error) {
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}

	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if err := db.AutoMigrate(&model.Snapshot{}); err != nil {
		return nil, fmt.Errorf("auto migrate snapshots: %w", err)
	}

	return &Store{db: db, now: time.Now}, nil
}

// Close 关闭底层数据库连接。
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("get sql DB: %w", err)
	}
	if err := sqlDB.Close(); err != nil {
		return fmt.Errorf("close db: %w", err)
	}
	return nil
}

// Get 读取快照。
func (s *Store) Get(ctx context.Context, key string) (string, bool, error) {
	var snap model.Snapshot
	if err := s.db.WithContext(ctx).First(&snap, "snapshot_key = ?", key).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("get snapshot %s: %w", key, err)
	}
	return string(snap.Value), true, nil
}

// Set 写入快照，已有键则覆盖。
func (s *Store) Set(ctx context.Context, key, value string) error {
	snap := model.Snapshot{
		Key:       key,
		Value:     datatypes.JSON(value),
		UpdatedAt: s.now(),
	}
	tx := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "snapshot_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&snap)
	if tx.Error != nil {
		return fmt.Errorf("set snapshot %s: %w", key, tx.Error)
	}
	return nil
}

// Keys 返回所有已保存的键，按字母序。
func (s *Store) Keys(ctx context.Context) ([]string, error) {
	var keys []string
	if err := s.db.WithContext(ctx).Model(&model.Snapshot{}).Order("snapshot_key ASC").Pluck("snapshot_key", &keys).Error; err != nil {
		return nil, fmt.Errorf("list snapshot keys: %w", err)
	}
	return keys, nil
}
