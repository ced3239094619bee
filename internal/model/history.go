package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"time"

	"gorm.io/datatypes"
)

// Mode 表示采集路径。
type Mode string

const (
	ModeImage Mode = "image"
	ModeLive  Mode = "live"
)

// Valid 判断采集模式是否在枚举内。
func (m Mode) Valid() bool {
	return m == ModeImage || m == ModeLive
}

// Source 表示分析记录的来源页面。
type Source string

const (
	SourceAnalyzeScreen Source = "analyze-screen"
	SourceLiveScreen    Source = "live-screen"
)

// Valid 判断来源是否在枚举内。
func (s Source) Valid() bool {
	return s == SourceAnalyzeScreen || s == SourceLiveScreen
}

// AnalysisResult 为外部分析服务返回的结果，原样存储。
// Coverage 取值 0–100。
type AnalysisResult struct {
	Coverage     float64  `json:"coverage"`
	MissingAreas []string `json:"missingAreas"`
	Warnings     []string `json:"warnings"`
	Notes        string   `json:"notes"`
}

// HistoryEntry 表示一次完成的分析，写入后不可修改。
type HistoryEntry struct {
	ID        string         `json:"id"`
	Timestamp time.Time      `json:"timestamp"`
	Mode      Mode           `json:"mode"`
	Source    Source         `json:"source"`
	ImageURI  string         `json:"imageUri,omitempty"`
	Result    AnalysisResult `json:"result"`
}

// UnmarshalJSON 兼容两种时间戳：RFC 3339 字符串与移动端旧快照中的毫秒数。
func (e *HistoryEntry) UnmarshalJSON(data []byte) error {
	type plain HistoryEntry
	aux := struct {
		*plain
		Timestamp json.RawMessage `json:"timestamp"`
	}{plain: (*plain)(e)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	raw := bytes.TrimSpace(aux.Timestamp)
	switch {
	case len(raw) == 0 || bytes.Equal(raw, []byte("null")):
		e.Timestamp = time.Time{}
	case raw[0] == '"':
		if err := json.Unmarshal(raw, &e.Timestamp); err != nil {
			return fmt.Errorf("history timestamp: %w", err)
		}
	default:
		var ms float64
		if err := json.Unmarshal(raw, &ms); err != nil {
			return fmt.Errorf("history timestamp: %w", err)
		}
		e.Timestamp = time.UnixMilli(int64(math.Round(ms))).UTC()
	}
	return nil
}

// Snapshot 是键值存储中的一行，Value 为整个集合的 JSON 快照。
type Snapshot struct {
	Key       string         `gorm:"primaryKey;column:snapshot_key" json:"key"`
	Value     datatypes.JSON `json:"value"`
	UpdatedAt time.Time      `json:"updated_at"`
}
