package analysis

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"coatvision/internal/model"

	"golang.org/x/time/rate"
)

const (
	imagePath = "/v1/coatvision/analyze-image"
	livePath  = "/v1/coatvision/analyze-live"
)

// APIError 表示分析服务返回的错误，Status 为 0 表示请求未发出。
type APIError struct {
	Status  int
	Code    string
	Message string
	Details map[string]any
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("analysis api %s: %s", e.Code, e.Message)
	}
	return "analysis api: " + e.Message
}

// HTTPClient 实现 Analyzer，按 JSON 协议调用远端服务。
type HTTPClient struct {
	baseURL string
	client  *http.Client
	limiter *rate.Limiter
}

// NewHTTPClient 创建客户端，RatePerSecond <= 0 时不限速。
func NewHTTPClient(cfg Config, httpClient *http.Client) *HTTPClient {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.TimeoutDuration()}
	}
	limit := rate.Inf
	burst := cfg.Burst
	if cfg.RatePerSecond > 0 {
		limit = rate.Limit(cfg.RatePerSecond)
		if burst <= 0 {
			burst = 1
		}
	}
	return &HTTPClient{
		baseURL: strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"),
		client:  httpClient,
		limiter: rate.NewLimiter(limit, burst),
	}
}

func (c *HTTPClient) AnalyzeImage(ctx context.Context, req ImageRequest) (model.AnalysisResult, error) {
	if err := req.Validate(); err != nil {
		return model.AnalysisResult{}, err
	}
	payload := imagePayload{Mode: model.ModeImage, Image: imageRef{ImageURL: req.ImageURI}, Context: panelContext(req.PanelHint)}
	return c.post(ctx, imagePath, payload)
}

func (c *HTTPClient) AnalyzeLive(ctx context.Context, req LiveRequest) (model.AnalysisResult, error) {
	req, err := req.Normalize()
	if err != nil {
		return model.AnalysisResult{}, err
	}
	payload := livePayload{
		Mode: model.ModeLive,
		Frame: frameRef{
			FrameBase64:   req.FrameBase64,
			FrameFormat:   req.FrameFormat,
			SequenceIndex: req.SequenceIndex,
		},
		Context: panelContext(req.PanelHint),
	}
	return c.post(ctx, livePath, payload)
}

func (c *HTTPClient) post(ctx context.Context, path string, payload any) (model.AnalysisResult, error) {
	if c.baseURL == "" {
		return model.AnalysisResult{}, &APIError{Code: "config_error", Message: "analysis api base url is not configured"}
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return model.AnalysisResult{}, fmt.Errorf("rate limit wait: %w", err)
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return model.AnalysisResult{}, fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return model.AnalysisResult{}, fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return model.AnalysisResult{}, fmt.Errorf("analysis request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return model.AnalysisResult{}, fmt.Errorf("read analysis response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{Status: resp.StatusCode}
		var payload errorPayload
		if len(body) > 0 && json.Unmarshal(body, &payload) == nil {
			apiErr.Code = payload.Error
			apiErr.Message = payload.Message
			apiErr.Details = payload.Details
		}
		if apiErr.Message == "" {
			apiErr.Message = fmt.Sprintf("analysis api returned status %d", resp.StatusCode)
		}
		return model.AnalysisResult{}, apiErr
	}

	var out analysisResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return model.AnalysisResult{}, fmt.Errorf("decode analysis response: %w", err)
	}
	if out.Result == nil {
		return model.AnalysisResult{}, fmt.Errorf("analysis response missing result")
	}
	return *out.Result, nil
}

func panelContext(hint string) *analysisContext {
	if strings.TrimSpace(hint) == "" {
		return nil
	}
	return &analysisContext{PanelHint: hint}
}

type imagePayload struct {
	Mode    model.Mode       `json:"mode"`
	Image   imageRef         `json:"image"`
	Context *analysisContext `json:"context,omitempty"`
}

type imageRef struct {
	ImageURL string `json:"imageUrl"`
}

type livePayload struct {
	Mode    model.Mode       `json:"mode"`
	Frame   frameRef         `json:"frame"`
	Context *analysisContext `json:"context,omitempty"`
}

type frameRef struct {
	FrameBase64   string `json:"frameBase64"`
	FrameFormat   string `json:"frameFormat"`
	SequenceIndex *int   `json:"sequenceIndex,omitempty"`
}

type analysisContext struct {
	PanelHint string `json:"panelHint"`
}

// analysisResponse 对应服务端成功响应。
type analysisResponse struct {
	ID        string                `json:"id"`
	Mode      model.Mode            `json:"mode"`
	CreatedAt string                `json:"createdAt"`
	Result    *model.AnalysisResult `json:"result"`
}

type errorPayload struct {
	Error   string         `json:"error"`
	Message string         `json:"message"`
	Details map[string]any `json:"details"`
}
