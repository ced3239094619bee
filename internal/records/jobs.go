package records

import (
	"context"
	"fmt"
	"math"
	"strings"

	"coatvision/internal/model"
	"coatvision/internal/scoring"
)

// JobInput 为新增施工单的可选字段。
type JobInput struct {
	Status               model.JobStatus  `json:"status"`
	Package              *model.Procedure `json:"package,omitempty"`
	InitialDC            *float64         `json:"initial_dc,omitempty"`
	FinalDC              *float64         `json:"final_dc,omitempty"`
	EstimatedTimeMinutes int              `json:"estimated_time_minutes"`
}

// PanelInput 为新增面板的可选字段。
type PanelInput struct {
	Name      string   `json:"name"`
	AreaM2    *float64 `json:"area_m2,omitempty"`
	InitialDC *float64 `json:"initial_dc,omitempty"`
	FinalDC   *float64 `json:"final_dc,omitempty"`
	CQI       *float64 `json:"cqi,omitempty"`
	CVI       *float64 `json:"cvi,omitempty"`
}

// ListJobs 返回全部施工单，最新在前。
func (s *Store) ListJobs(ctx context.Context) []model.Job {
	return s.jobs.list(ctx)
}

// GetJob 按 ID 查找施工单。
func (s *Store) GetJob(ctx context.Context, id string) (model.Job, bool) {
	for _, job := range s.jobs.list(ctx) {
		if job.ID == id {
			return job, true
		}
	}
	return model.Job{}, false
}

// AddJob 补全默认值后写入施工单。
// 写入失败时仍返回生成的记录，error 包装 ErrNotPersisted。
func (s *Store) AddJob(ctx context.Context, in JobInput) (model.Job, error) {
	id, _ := s.newID()
	job := model.Job{
		ID:                   id,
		Status:               in.Status,
		InitialDC:            unitPtr(in.InitialDC),
		FinalDC:              unitPtr(in.FinalDC),
		EstimatedTimeMinutes: in.EstimatedTimeMinutes,
	}
	if job.Status == "" {
		job.Status = model.JobStatusPlanning
	} else if !job.Status.Valid() {
		s.log.Warn().Str("status", string(in.Status)).Msg("unknown job status, using planning")
		job.Status = model.JobStatusPlanning
	}
	if in.Package != nil {
		if pkg, err := scoring.ParseProcedure(string(*in.Package)); err == nil {
			job.Package = &pkg
		} else {
			s.log.Warn().Str("package", string(*in.Package)).Msg("unknown package dropped")
		}
	}
	if job.EstimatedTimeMinutes <= 0 {
		job.EstimatedTimeMinutes = model.DefaultEstimatedMinutes
	}

	if err := s.jobs.prepend(ctx, job); err != nil {
		return job, fmt.Errorf("add job: %w", err)
	}
	return job, nil
}

// ListPanels 返回指定施工单的面板，jobID 为空时返回全部面板。
func (s *Store) ListPanels(ctx context.Context, jobID string) []model.Panel {
	all := s.panels.list(ctx)
	if jobID == "" {
		return all
	}
	out := make([]model.Panel, 0, len(all))
	for _, p := range all {
		if p.JobID == jobID {
			out = append(out, p)
		}
	}
	return out
}

// AddPanel 在施工单下新增面板，施工单必须在创建时存在。
// 之后施工单被淘汰不会影响已有面板。
func (s *Store) AddPanel(ctx context.Context, jobID string, in PanelInput) (model.Panel, error) {
	if _, ok := s.GetJob(ctx, jobID); !ok {
		return model.Panel{}, fmt.Errorf("add panel: %w: %q", ErrJobNotFound, jobID)
	}

	id, _ := s.newID()
	panel := model.Panel{
		ID:        id,
		JobID:     jobID,
		Name:      strings.TrimSpace(in.Name),
		AreaM2:    positivePtr(in.AreaM2),
		InitialDC: unitPtr(in.InitialDC),
		FinalDC:   unitPtr(in.FinalDC),
		CQI:       unitPtr(in.CQI),
		CVI:       unitPtr(in.CVI),
	}
	if panel.Name == "" {
		panel.Name = "panel"
	}

	if err := s.panels.prepend(ctx, panel); err != nil {
		return panel, fmt.Errorf("add panel: %w", err)
	}
	return panel, nil
}

// unitPtr 复制并截断到 [0,1]。
func unitPtr(v *float64) *float64 {
	if v == nil {
		return nil
	}
	c := scoring.Clamp01(*v)
	return &c
}

// positivePtr 仅保留有限正数。
func positivePtr(v *float64) *float64 {
	if v == nil || math.IsNaN(*v) || math.IsInf(*v, 0) || *v <= 0 {
		return nil
	}
	c := *v
	return &c
}
