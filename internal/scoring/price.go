package scoring

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"coatvision/internal/model"
)

// ErrInvalidArgument 表示枚举参数不在允许范围内。
var ErrInvalidArgument = errors.New("invalid argument")

// DirtLevel 表示车辆脏污程度。
type DirtLevel string

const (
	DirtLight  DirtLevel = "light"
	DirtMedium DirtLevel = "medium"
	DirtHeavy  DirtLevel = "heavy"
)

var dirtFactors = map[DirtLevel]float64{
	DirtLight:  0.9,
	DirtMedium: 1.0,
	DirtHeavy:  1.25,
}

var procedureFactors = map[model.Procedure]float64{
	model.ProcedureBasic:    1.0,
	model.ProcedureStandard: 1.3,
	model.ProcedurePremium:  1.6,
	model.ProcedureExtreme:  2.1,
}

// PriceInput 为报价输入。
type PriceInput struct {
	DC          float64         `json:"dc"`
	DirtLevel   DirtLevel       `json:"dirtLevel"`
	Procedure   model.Procedure `json:"procedure"`
	TimeMinutes float64         `json:"timeMinutes"`
	LaborRate   float64         `json:"laborRate"`
}

// PriceBreakdown 记录报价中各项系数。
type PriceBreakdown struct {
	Labor           float64 `json:"labor"`
	DirtFactor      float64 `json:"dirtFactor"`
	ProcedureFactor float64 `json:"procedureFactor"`
	DCFactor        float64 `json:"dcFactor"`
}

// PriceEstimate 为报价结果，Price 已取整。
type PriceEstimate struct {
	Price     int            `json:"price"`
	Breakdown PriceBreakdown `json:"breakdown"`
}

// ParseDirtLevel 解析脏污程度，大小写不敏感。
func ParseDirtLevel(s string) (DirtLevel, error) {
	level := DirtLevel(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := dirtFactors[level]; !ok {
		return "", fmt.Errorf("%w: dirt level %q", ErrInvalidArgument, s)
	}
	return level, nil
}

// ParseProcedure 解析套餐名称，接受任意大小写并返回规范写法。
func ParseProcedure(s string) (model.Procedure, error) {
	trimmed := strings.TrimSpace(s)
	for p := range procedureFactors {
		if strings.EqualFold(string(p), trimmed) {
			return p, nil
		}
	}
	return "", fmt.Errorf("%w: procedure %q", ErrInvalidArgument, s)
}

// EstimatePrice 按工时、脏污、套餐与缺陷系数估算价格。
// 枚举大小写不敏感，未知值或无穷大的工时、费率返回 ErrInvalidArgument。
// NaN 或负数的工时、费率按 0 计，价格在 math.MaxInt 处饱和。
func EstimatePrice(in PriceInput) (PriceEstimate, error) {
	level, err := ParseDirtLevel(string(in.DirtLevel))
	if err != nil {
		return PriceEstimate{}, err
	}
	procedure, err := ParseProcedure(string(in.Procedure))
	if err != nil {
		return PriceEstimate{}, err
	}
	if math.IsInf(in.TimeMinutes, 0) || math.IsInf(in.LaborRate, 0) {
		return PriceEstimate{}, fmt.Errorf("%w: time %v, labor rate %v", ErrInvalidArgument, in.TimeMinutes, in.LaborRate)
	}
	dirt := dirtFactors[level]
	proc := procedureFactors[procedure]

	dcFactor := 1 + Clamp01(in.DC)*0.4
	labor := nonNegative(in.TimeMinutes) / 60 * nonNegative(in.LaborRate)
	subtotal := labor * dirt * proc * dcFactor

	return PriceEstimate{
		Price: roundPrice(subtotal),
		Breakdown: PriceBreakdown{
			Labor:           labor,
			DirtFactor:      dirt,
			ProcedureFactor: proc,
			DCFactor:        dcFactor,
		},
	}, nil
}

func nonNegative(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	return v
}

// float64(math.MaxInt) 等于 2^63，超出 int 范围，需先比较再转换。
func roundPrice(v float64) int {
	rounded := math.Floor(v + 0.5)
	if math.IsInf(rounded, 1) || rounded >= float64(math.MaxInt) {
		return math.MaxInt
	}
	return int(rounded)
}
