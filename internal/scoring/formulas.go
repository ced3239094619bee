// Package scoring 提供缺陷系数、镀膜质量指数、价值指数与报价的纯函数计算。
// 所有函数无副作用，超出范围的输入被截断而不是报错。
package scoring

import "math"

// 固定权重，修改会破坏历史数据的可比性。
const (
	cqiGlossWeight      = 0.4
	cqiDefectWeight     = 0.4
	cqiDurabilityWeight = 0.2

	cviGlossWeight  = 0.55
	cviDefectWeight = 0.45

	// 效率惩罚下限，防止工时与用量接近 0 时指数失控。
	minEfficiencyPenalty = 0.5
)

// DCInput 为缺陷系数输入，DefectsAfter 为 nil 表示尚未施工。
type DCInput struct {
	DefectsBefore       float64  `json:"defectsBefore"`
	DefectsAfter        *float64 `json:"defectsAfter,omitempty"`
	MaxDefectsReference float64  `json:"maxDefectsReference"`
}

// CQIInput 为镀膜质量指数输入。
type CQIInput struct {
	GlossBefore      float64 `json:"glossBefore"`
	GlossAfter       float64 `json:"glossAfter"`
	DefectReduction  float64 `json:"defectReduction"`
	DurabilityFactor float64 `json:"durabilityFactor"`
}

// CVIInput 为镀膜价值指数输入。
type CVIInput struct {
	GNorm         float64 `json:"gNorm"`
	DRed          float64 `json:"dRed"`
	WColor        float64 `json:"wColor"`
	TimeMinutes   float64 `json:"timeMinutes"`
	ProductDoseR  float64 `json:"productDoseR"`
	DoseBaselineR float64 `json:"doseBaselineR"`
}

// Clamp01 将 v 截断到 [0,1]，NaN 视为 0。
func Clamp01(v float64) float64 {
	return clamp(v, 0, 1)
}

// Round3 四舍五入到三位小数。
func Round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}

func clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) || v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// ComputeDC 计算缺陷系数：以参考上限归一化施工前缺陷数，再按去除比例衰减。
func ComputeDC(in DCInput) float64 {
	base := math.Min(in.DefectsBefore/math.Max(in.MaxDefectsReference, 1), 1)
	if in.DefectsAfter == nil {
		return Clamp01(Round3(base))
	}
	improvement := math.Max(in.DefectsBefore-*in.DefectsAfter, 0) / math.Max(in.DefectsBefore, 1)
	return Clamp01(Round3(base * (1 - improvement)))
}

// ComputeCQI 计算镀膜质量指数。光泽增益只截断上限，光泽下降时为负。
func ComputeCQI(in CQIInput) float64 {
	glossGain := math.Min((in.GlossAfter-in.GlossBefore)/math.Max(in.GlossBefore, 1), 1)
	raw := cqiGlossWeight*glossGain +
		cqiDefectWeight*Clamp01(in.DefectReduction) +
		cqiDurabilityWeight*Clamp01(in.DurabilityFactor)
	return Clamp01(raw)
}

// ComputeCVI 计算镀膜价值指数：视觉与缺陷收益除以工时与用量成本。
func ComputeCVI(in CVIInput) float64 {
	penalty := in.TimeMinutes/60 + in.ProductDoseR/math.Max(in.DoseBaselineR, 1)
	numerator := in.WColor * (cviGlossWeight*Clamp01(in.GNorm) + cviDefectWeight*Clamp01(in.DRed))
	return Clamp01(numerator / math.Max(penalty, minEfficiencyPenalty))
}
