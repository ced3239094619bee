package model

// JobStatus 表示施工单状态，状态流转由调用方驱动。
type JobStatus string

const (
	JobStatusPlanning   JobStatus = "planning"
	JobStatusInProgress JobStatus = "in_progress"
	JobStatusCompleted  JobStatus = "completed"
)

// Valid 判断状态是否在枚举内。
func (s JobStatus) Valid() bool {
	switch s {
	case JobStatusPlanning, JobStatusInProgress, JobStatusCompleted:
		return true
	}
	return false
}

// Procedure 表示服务套餐，影响报价系数。
type Procedure string

const (
	ProcedureBasic    Procedure = "Basic"
	ProcedureStandard Procedure = "Standard"
	ProcedurePremium  Procedure = "Premium"
	ProcedureExtreme  Procedure = "Extreme"
)

// Valid 判断套餐是否在枚举内。
func (p Procedure) Valid() bool {
	switch p {
	case ProcedureBasic, ProcedureStandard, ProcedurePremium, ProcedureExtreme:
		return true
	}
	return false
}

// DefaultEstimatedMinutes 未提供预计工时时使用的默认值。
const DefaultEstimatedMinutes = 180

// Job 表示一辆车的一次镀膜施工
// 字段说明
// - ID: 创建时分配，不可变
// - Package: 可选套餐
// - InitialDC/FinalDC: 施工前后的缺陷系数，范围 [0,1]
// - EstimatedTimeMinutes: 预计工时（分钟），默认 180
type Job struct {
	ID                   string     `json:"id"`
	Status               JobStatus  `json:"status"`
	Package              *Procedure `json:"package,omitempty"`
	InitialDC            *float64   `json:"initial_dc,omitempty"`
	FinalDC              *float64   `json:"final_dc,omitempty"`
	EstimatedTimeMinutes int        `json:"estimated_time_minutes"`
}

// Panel 表示施工单下的一个车身面板，JobID 为弱引用，不做级联删除。
type Panel struct {
	ID        string   `json:"id"`
	JobID     string   `json:"jobId"`
	Name      string   `json:"name"`
	AreaM2    *float64 `json:"area_m2,omitempty"`
	InitialDC *float64 `json:"initial_dc,omitempty"`
	FinalDC   *float64 `json:"final_dc,omitempty"`
	CQI       *float64 `json:"cqi,omitempty"`
	CVI       *float64 `json:"cvi,omitempty"`
}
