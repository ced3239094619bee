// Package records 在键值存储之上保存施工单、面板与分析历史。
// 每个子集合以单个键保存完整 JSON 快照，写入时截断到固定上限，读取时最新在前。
package records

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"coatvision/internal/model"
	"coatvision/internal/storage"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// 存储键沿用移动端的命名，已有快照可直接读取。
const (
	JobsKey    = "@lyx_jobs_v1"
	PanelsKey  = "@lyx_panels_v1"
	HistoryKey = "@coatvision_history_v1"
)

// 各集合的容量上限，超出时丢弃最旧的记录。
const (
	MaxJobs    = 50
	MaxPanels  = 200
	MaxHistory = 100
)

var (
	// ErrNotPersisted 表示记录已生成但未能写入存储。
	ErrNotPersisted = errors.New("record not persisted")
	// ErrJobNotFound 表示新增面板时引用的施工单不存在。
	ErrJobNotFound = errors.New("job not found")
	// ErrInvalidInput 表示枚举字段不合法。
	ErrInvalidInput = errors.New("invalid input")
)

// Options 控制时钟、ID 后缀与日志，零值使用默认实现。
type Options struct {
	Now    func() time.Time
	Suffix func() string
	Logger *zerolog.Logger
}

// Store 组合三个子集合，对外提供增查接口。
type Store struct {
	jobs    *collection[model.Job]
	panels  *collection[model.Panel]
	history *collection[model.HistoryEntry]
	now     func() time.Time
	suffix  func() string
	log     zerolog.Logger
}

// New 创建 Store。
func New(kv storage.KV, opts Options) *Store {
	log := zerolog.Nop()
	if opts.Logger != nil {
		log = opts.Logger.With().Str("component", "records").Logger()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	suffix := opts.Suffix
	if suffix == nil {
		suffix = randomSuffix
	}
	return &Store{
		jobs:    newCollection[model.Job](kv, JobsKey, MaxJobs, log),
		panels:  newCollection[model.Panel](kv, PanelsKey, MaxPanels, log),
		history: newCollection[model.HistoryEntry](kv, HistoryKey, MaxHistory, log),
		now:     now,
		suffix:  suffix,
		log:     log,
	}
}

// newID 生成“毫秒时间戳-随机后缀”形式的 ID，返回同一时刻的时间。
// 唯一性依赖随机后缀，不做冲突检测。
func (s *Store) newID() (string, time.Time) {
	ts := s.now().UTC().Truncate(time.Millisecond)
	return fmt.Sprintf("%d-%s", ts.UnixMilli(), s.suffix()), ts
}

func randomSuffix() string {
	return strings.SplitN(uuid.NewString(), "-", 2)[0]
}
