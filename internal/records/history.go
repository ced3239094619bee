package records

import (
	"context"
	"fmt"
	"math"

	"coatvision/internal/model"
)

// HistoryInput 为新增分析历史的字段，ImageURI 仅图片模式保留。
type HistoryInput struct {
	Mode     model.Mode           `json:"mode"`
	Source   model.Source         `json:"source"`
	ImageURI string               `json:"imageUri,omitempty"`
	Result   model.AnalysisResult `json:"result"`
}

// GetHistory 返回全部分析历史，最新在前。
func (s *Store) GetHistory(ctx context.Context) []model.HistoryEntry {
	return s.history.list(ctx)
}

// GetHistoryEntry 按 ID 查找分析历史。
func (s *Store) GetHistoryEntry(ctx context.Context, id string) (model.HistoryEntry, bool) {
	for _, e := range s.history.list(ctx) {
		if e.ID == id {
			return e, true
		}
	}
	return model.HistoryEntry{}, false
}

// AddHistoryEntry 写入一次分析结果。
func (s *Store) AddHistoryEntry(ctx context.Context, in HistoryInput) (model.HistoryEntry, error) {
	if !in.Mode.Valid() {
		return model.HistoryEntry{}, fmt.Errorf("add history: %w: mode %q", ErrInvalidInput, in.Mode)
	}
	if !in.Source.Valid() {
		return model.HistoryEntry{}, fmt.Errorf("add history: %w: source %q", ErrInvalidInput, in.Source)
	}

	id, ts := s.newID()
	entry := model.HistoryEntry{
		ID:        id,
		Timestamp: ts,
		Mode:      in.Mode,
		Source:    in.Source,
		Result:    normalizeResult(in.Result),
	}
	if in.Mode == model.ModeImage {
		entry.ImageURI = in.ImageURI
	}

	if err := s.history.prepend(ctx, entry); err != nil {
		return entry, fmt.Errorf("add history: %w", err)
	}
	return entry, nil
}

// ClearHistory 清空分析历史。
func (s *Store) ClearHistory(ctx context.Context) error {
	if err := s.history.reset(ctx); err != nil {
		return fmt.Errorf("clear history: %w", err)
	}
	return nil
}

func normalizeResult(r model.AnalysisResult) model.AnalysisResult {
	out := model.AnalysisResult{
		Coverage:     r.Coverage,
		MissingAreas: append([]string{}, r.MissingAreas...),
		Warnings:     append([]string{}, r.Warnings...),
		Notes:        r.Notes,
	}
	switch {
	case math.IsNaN(out.Coverage) || out.Coverage < 0:
		out.Coverage = 0
	case out.Coverage > 100:
		out.Coverage = 100
	}
	return out
}
