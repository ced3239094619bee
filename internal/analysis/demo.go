package analysis

import (
	"context"
	"math/rand"
	"time"

	"coatvision/internal/model"
)

const (
	demoImageNotes = "This is a demo result. A real deployment returns the output of a trained coating model."
	demoLiveNotes  = "Live mode gives a quick estimate of coverage and of areas worth a second look in the hall."
)

// Demo 在没有远端服务时生成 80–95 的覆盖率演示结果。
type Demo struct {
	delay time.Duration
	intn  func(n int) int
}

// NewDemo 创建演示实现，intn 为 nil 时使用 math/rand。
func NewDemo(delay time.Duration, intn func(n int) int) *Demo {
	if intn == nil {
		intn = rand.Intn
	}
	return &Demo{delay: delay, intn: intn}
}

func (d *Demo) AnalyzeImage(ctx context.Context, req ImageRequest) (model.AnalysisResult, error) {
	if err := req.Validate(); err != nil {
		return model.AnalysisResult{}, err
	}
	if err := d.wait(ctx); err != nil {
		return model.AnalysisResult{}, err
	}
	return d.result(demoImageNotes), nil
}

func (d *Demo) AnalyzeLive(ctx context.Context, req LiveRequest) (model.AnalysisResult, error) {
	if _, err := req.Normalize(); err != nil {
		return model.AnalysisResult{}, err
	}
	if err := d.wait(ctx); err != nil {
		return model.AnalysisResult{}, err
	}
	return d.result(demoLiveNotes), nil
}

func (d *Demo) wait(ctx context.Context) error {
	if d.delay <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d.delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (d *Demo) result(notes string) model.AnalysisResult {
	coverage := 80 + d.intn(16)
	res := model.AnalysisResult{
		Coverage:     float64(coverage),
		MissingAreas: []string{},
		Warnings:     []string{},
		Notes:        notes,
	}

	switch {
	case coverage < 85:
		res.MissingAreas = append(res.MissingAreas,
			"Lower part of the panel looks uneven.",
			"Transition to the neighbouring panel may lack coverage.")
		res.Warnings = append(res.Warnings, "Consider an extra pass on exposed areas.")
	case coverage < 90:
		res.MissingAreas = append(res.MissingAreas, "Check edge zones and areas around handles and emblems.")
		res.Warnings = append(res.Warnings, "Even coverage, but small pockets can hide in reflections and curves.")
	default:
		res.Warnings = append(res.Warnings, "High, even coverage. No obvious gaps on this panel.")
	}
	return res
}
