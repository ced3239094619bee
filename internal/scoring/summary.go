package scoring

import (
	"fmt"

	"coatvision/internal/model"
)

// PricingDefaults 为施工单汇总报价时缺失字段的取值。
type PricingDefaults struct {
	DC        float64         `yaml:"default_dc" json:"default_dc"`
	DirtLevel DirtLevel       `yaml:"dirt_level" json:"dirt_level"`
	Procedure model.Procedure `yaml:"procedure" json:"procedure"`
	LaborRate float64         `yaml:"labor_rate" json:"labor_rate"`
}

// DefaultPricing 返回门店默认报价参数。
func DefaultPricing() PricingDefaults {
	return PricingDefaults{
		DC:        0.5,
		DirtLevel: DirtMedium,
		Procedure: model.ProcedureStandard,
		LaborRate: 900,
	}
}

// JobSummary 汇总一张施工单的面板指数与报价。
// 没有面板时 AvgCQI 与 AvgCVI 为 nil。
type JobSummary struct {
	PanelCount int           `json:"panelCount"`
	AvgCQI     *float64      `json:"avgCQI,omitempty"`
	AvgCVI     *float64      `json:"avgCVI,omitempty"`
	Price      PriceEstimate `json:"price"`
}

// SummarizeJob 计算面板平均 CQI/CVI（缺失按 0 计）并估算施工单价格。
func SummarizeJob(job model.Job, panels []model.Panel, defaults PricingDefaults) (JobSummary, error) {
	summary := JobSummary{PanelCount: len(panels)}

	if len(panels) > 0 {
		var sumCQI, sumCVI float64
		for _, p := range panels {
			if p.CQI != nil {
				sumCQI += *p.CQI
			}
			if p.CVI != nil {
				sumCVI += *p.CVI
			}
		}
		n := float64(len(panels))
		avgCQI, avgCVI := sumCQI/n, sumCVI/n
		summary.AvgCQI = &avgCQI
		summary.AvgCVI = &avgCVI
	}

	dc := defaults.DC
	switch {
	case job.FinalDC != nil:
		dc = *job.FinalDC
	case job.InitialDC != nil:
		dc = *job.InitialDC
	}
	procedure := defaults.Procedure
	if job.Package != nil {
		procedure = *job.Package
	}
	minutes := job.EstimatedTimeMinutes
	if minutes <= 0 {
		minutes = model.DefaultEstimatedMinutes
	}

	price, err := EstimatePrice(PriceInput{
		DC:          dc,
		DirtLevel:   defaults.DirtLevel,
		Procedure:   procedure,
		TimeMinutes: float64(minutes),
		LaborRate:   defaults.LaborRate,
	})
	if err != nil {
		return JobSummary{}, fmt.Errorf("estimate job %s: %w", job.ID, err)
	}
	summary.Price = price
	return summary, nil
}
