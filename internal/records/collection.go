package records

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"coatvision/internal/storage"

	"github.com/rs/zerolog"
)

// collection 维护一个键下的有界集合，最新的记录在前。
// 同一集合的写操作由 mu 串行化，避免“读取-追加-保存”丢失更新。
type collection[T any] struct {
	mu    sync.Mutex
	kv    storage.KV
	key   string
	limit int
	log   zerolog.Logger
}

func newCollection[T any](kv storage.KV, key string, limit int, log zerolog.Logger) *collection[T] {
	return &collection[T]{kv: kv, key: key, limit: limit, log: log}
}

// list 返回完整集合，读取失败或数据损坏时返回空集合。
func (c *collection[T]) list(ctx context.Context) []T {
	c.mu.Lock()
	defer c.mu.Unlock()
	items, _ := c.load(ctx)
	return items
}

// prepend 将 item 放到最前并截断到上限后保存。
// 底层读取失败时不写入，防止用空集合覆盖未能读出的数据。
func (c *collection[T]) prepend(ctx context.Context, item T) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	existing, err := c.load(ctx)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrNotPersisted, c.key, err)
	}

	updated := make([]T, 0, min(len(existing)+1, c.limit))
	updated = append(updated, item)
	for _, it := range existing {
		if len(updated) >= c.limit {
			break
		}
		updated = append(updated, it)
	}
	return c.save(ctx, updated)
}

// reset 用空集合覆盖存储。
func (c *collection[T]) reset(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.save(ctx, []T{})
}

// load 的 error 仅表示存储读取失败；缺失或损坏的快照视为空集合。
func (c *collection[T]) load(ctx context.Context) ([]T, error) {
	raw, ok, err := c.kv.Get(ctx, c.key)
	if err != nil {
		c.log.Warn().Err(err).Str("key", c.key).Msg("storage read failed")
		return []T{}, err
	}
	if !ok || raw == "" {
		return []T{}, nil
	}

	var items []T
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		c.log.Warn().Err(err).Str("key", c.key).Msg("discarding unreadable snapshot")
		return []T{}, nil
	}
	if items == nil {
		items = []T{}
	}
	return items, nil
}

func (c *collection[T]) save(ctx context.Context, items []T) error {
	data, err := json.Marshal(items)
	if err != nil {
		c.log.Warn().Err(err).Str("key", c.key).Msg("storage encode failed")
		return fmt.Errorf("%w: encode %s: %w", ErrNotPersisted, c.key, err)
	}
	if err := c.kv.Set(ctx, c.key, string(data)); err != nil {
		c.log.Warn().Err(err).Str("key", c.key).Msg("storage write failed")
		return fmt.Errorf("%w: %s: %w", ErrNotPersisted, c.key, err)
	}
	return nil
}
