// Package analysis 调用外部镀膜分析服务，未配置远端时使用本地演示结果。
package analysis

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"coatvision/internal/model"

	"github.com/rs/zerolog"
)

// ErrInvalidRequest 表示分析请求缺少必填字段。
var ErrInvalidRequest = errors.New("invalid analysis request")

// Config 描述分析服务配置。
type Config struct {
	UseRemote     bool    `yaml:"use_remote" json:"use_remote"`
	BaseURL       string  `yaml:"base_url" json:"base_url"`
	Timeout       string  `yaml:"timeout" json:"timeout"`
	RatePerSecond float64 `yaml:"rate_per_second" json:"rate_per_second"`
	Burst         int     `yaml:"burst" json:"burst"`
	DemoDelay     string  `yaml:"demo_delay" json:"demo_delay"`
}

// RemoteEnabled 仅在开启远端且配置了地址时为 true。
func (c Config) RemoteEnabled() bool {
	return c.UseRemote && strings.TrimSpace(c.BaseURL) != ""
}

// TimeoutDuration 解析请求超时，默认 30s。
func (c Config) TimeoutDuration() time.Duration {
	return parseDuration(c.Timeout, 30*time.Second)
}

// Analyzer 抽象分析服务，便于测试注入。
type Analyzer interface {
	AnalyzeImage(ctx context.Context, req ImageRequest) (model.AnalysisResult, error)
	AnalyzeLive(ctx context.Context, req LiveRequest) (model.AnalysisResult, error)
}

// ImageRequest 为单张图片分析请求，ImageURI 需为服务端可访问的地址。
type ImageRequest struct {
	ImageURI  string `json:"imageUri"`
	PanelHint string `json:"panelHint,omitempty"`
}

// LiveRequest 为实时模式下的一帧图像。
type LiveRequest struct {
	FrameBase64   string `json:"frameBase64"`
	FrameFormat   string `json:"frameFormat,omitempty"`
	SequenceIndex *int   `json:"sequenceIndex,omitempty"`
	PanelHint     string `json:"panelHint,omitempty"`
}

// Validate 检查图片地址。
func (r ImageRequest) Validate() error {
	if strings.TrimSpace(r.ImageURI) == "" {
		return fmt.Errorf("%w: imageUri required", ErrInvalidRequest)
	}
	return nil
}

// Normalize 校验帧数据并补全默认格式 jpg。
func (r LiveRequest) Normalize() (LiveRequest, error) {
	if strings.TrimSpace(r.FrameBase64) == "" {
		return r, fmt.Errorf("%w: frameBase64 required", ErrInvalidRequest)
	}
	format := strings.ToLower(strings.TrimSpace(r.FrameFormat))
	switch format {
	case "":
		format = "jpg"
	case "jpg", "jpeg", "png":
	default:
		return r, fmt.Errorf("%w: unsupported frame format %q", ErrInvalidRequest, r.FrameFormat)
	}
	r.FrameFormat = format
	return r, nil
}

// New 根据配置选择远端或演示实现。
func New(cfg Config, httpClient *http.Client, log zerolog.Logger) Analyzer {
	if cfg.RemoteEnabled() {
		log.Info().Str("base_url", cfg.BaseURL).Msg("using remote analysis api")
		return NewHTTPClient(cfg, httpClient)
	}
	if cfg.UseRemote {
		log.Warn().Msg("remote analysis requested without base url, falling back to demo")
	}
	return NewDemo(parseDuration(cfg.DemoDelay, 0), nil)
}

func parseDuration(s string, def time.Duration) time.Duration {
	if s == "" {
		return def
	}
	if d, err := time.ParseDuration(s); err == nil && d >= 0 {
		return d
	}
	return def
}
