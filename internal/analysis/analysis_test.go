package analysis

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestHTTPClientAnalyzeImage(t *testing.T) {
	t.Parallel()

	var gotPath string
	var gotBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		data, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(data, &gotBody)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"a1","mode":"image","createdAt":"2024-05-01T08:00:00Z","result":{"coverage":91.5,"missingAreas":["door edge"],"warnings":[],"notes":"fine"}}`))
	}))
	t.Cleanup(srv.Close)

	client := NewHTTPClient(Config{BaseURL: srv.URL + "//"}, srv.Client())
	res, err := client.AnalyzeImage(context.Background(), ImageRequest{ImageURI: "https://cdn.example.com/hood.jpg", PanelHint: "hood"})
	if err != nil {
		t.Fatalf("AnalyzeImage error: %v", err)
	}

	if gotPath != "/v1/coatvision/analyze-image" {
		t.Fatalf("unexpected path %s", gotPath)
	}
	if gotBody["mode"] != "image" {
		t.Fatalf("expected mode image, got %v", gotBody["mode"])
	}
	image, _ := gotBody["image"].(map[string]any)
	if image["imageUrl"] != "https://cdn.example.com/hood.jpg" {
		t.Fatalf("expected image url forwarded, got %v", gotBody["image"])
	}
	ctxField, _ := gotBody["context"].(map[string]any)
	if ctxField["panelHint"] != "hood" {
		t.Fatalf("expected panel hint forwarded, got %v", gotBody["context"])
	}
	if res.Coverage != 91.5 || len(res.MissingAreas) != 1 || res.Notes != "fine" {
		t.Fatalf("unexpected result %+v", res)
	}
}

func TestHTTPClientAnalyzeLiveDefaultsFormat(t *testing.T) {
	t.Parallel()

	var gotBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/coatvision/analyze-live" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		_, _ = w.Write([]byte(`{"result":{"coverage":70,"missingAreas":[],"warnings":["glare"],"notes":""}}`))
	}))
	t.Cleanup(srv.Close)

	seq := 4
	client := NewHTTPClient(Config{BaseURL: srv.URL, RatePerSecond: 50, Burst: 2}, srv.Client())
	res, err := client.AnalyzeLive(context.Background(), LiveRequest{FrameBase64: "aGVsbG8=", SequenceIndex: &seq})
	if err != nil {
		t.Fatalf("AnalyzeLive error: %v", err)
	}
	frame, _ := gotBody["frame"].(map[string]any)
	if frame["frameFormat"] != "jpg" {
		t.Fatalf("expected default jpg format, got %v", frame["frameFormat"])
	}
	if frame["sequenceIndex"] != float64(4) {
		t.Fatalf("expected sequence index forwarded, got %v", frame["sequenceIndex"])
	}
	if _, ok := gotBody["context"]; ok {
		t.Fatalf("expected context omitted without panel hint")
	}
	if res.Coverage != 70 || len(res.Warnings) != 1 {
		t.Fatalf("unexpected result %+v", res)
	}
}

func TestHTTPClientErrorPayload(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"error":"bad_image","message":"image could not be decoded","details":{"field":"image"}}`))
	}))
	t.Cleanup(srv.Close)

	client := NewHTTPClient(Config{BaseURL: srv.URL}, srv.Client())
	_, err := client.AnalyzeImage(context.Background(), ImageRequest{ImageURI: "https://x/y.jpg"})

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}
	if apiErr.Status != http.StatusUnprocessableEntity || apiErr.Code != "bad_image" || apiErr.Message != "image could not be decoded" {
		t.Fatalf("unexpected api error %+v", apiErr)
	}
	if apiErr.Details["field"] != "image" {
		t.Fatalf("expected details, got %v", apiErr.Details)
	}
}

func TestHTTPClientErrorWithoutPayload(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("upstream down"))
	}))
	t.Cleanup(srv.Close)

	client := NewHTTPClient(Config{BaseURL: srv.URL}, srv.Client())
	_, err := client.AnalyzeImage(context.Background(), ImageRequest{ImageURI: "https://x/y.jpg"})

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}
	if apiErr.Status != http.StatusBadGateway || apiErr.Message != "analysis api returned status 502" {
		t.Fatalf("unexpected api error %+v", apiErr)
	}
}

func TestHTTPClientMissingBaseURL(t *testing.T) {
	t.Parallel()

	client := NewHTTPClient(Config{}, nil)
	_, err := client.AnalyzeImage(context.Background(), ImageRequest{ImageURI: "https://x/y.jpg"})

	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.Code != "config_error" || apiErr.Status != 0 {
		t.Fatalf("expected config_error, got %v", err)
	}
}

func TestRequestValidation(t *testing.T) {
	t.Parallel()

	client := NewHTTPClient(Config{BaseURL: "http://unused.invalid"}, nil)
	if _, err := client.AnalyzeImage(context.Background(), ImageRequest{}); !errors.Is(err, ErrInvalidRequest) {
		t.Fatalf("expected ErrInvalidRequest for missing image, got %v", err)
	}
	if _, err := client.AnalyzeLive(context.Background(), LiveRequest{}); !errors.Is(err, ErrInvalidRequest) {
		t.Fatalf("expected ErrInvalidRequest for missing frame, got %v", err)
	}
	if _, err := client.AnalyzeLive(context.Background(), LiveRequest{FrameBase64: "x", FrameFormat: "gif"}); !errors.Is(err, ErrInvalidRequest) {
		t.Fatalf("expected ErrInvalidRequest for gif, got %v", err)
	}

	req, err := LiveRequest{FrameBase64: "x", FrameFormat: " PNG "}.Normalize()
	if err != nil || req.FrameFormat != "png" {
		t.Fatalf("expected png normalized, got %q err=%v", req.FrameFormat, err)
	}
}

func TestDemoResultBands(t *testing.T) {
	t.Parallel()

	cases := []struct {
		roll     int
		coverage float64
		missing  int
		warnings int
	}{
		{0, 80, 2, 1},
		{4, 84, 2, 1},
		{5, 85, 1, 1},
		{9, 89, 1, 1},
		{10, 90, 0, 1},
		{15, 95, 0, 1},
	}

	for _, tc := range cases {
		roll := tc.roll
		demo := NewDemo(0, func(n int) int {
			if n != 16 {
				t.Fatalf("expected intn(16), got %d", n)
			}
			return roll
		})
		res, err := demo.AnalyzeImage(context.Background(), ImageRequest{ImageURI: "file:///a.jpg"})
		if err != nil {
			t.Fatalf("AnalyzeImage error: %v", err)
		}
		if res.Coverage != tc.coverage || len(res.MissingAreas) != tc.missing || len(res.Warnings) != tc.warnings {
			t.Fatalf("roll %d: unexpected result %+v", tc.roll, res)
		}
		if res.Notes != demoImageNotes {
			t.Fatalf("expected image notes, got %q", res.Notes)
		}
	}

	live, err := NewDemo(0, nil).AnalyzeLive(context.Background(), LiveRequest{FrameBase64: "x"})
	if err != nil {
		t.Fatalf("AnalyzeLive error: %v", err)
	}
	if live.Notes != demoLiveNotes || live.Coverage < 80 || live.Coverage > 95 {
		t.Fatalf("unexpected live demo result %+v", live)
	}
}

func TestDemoHonoursCancellation(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewDemo(time.Minute, nil).AnalyzeImage(ctx, ImageRequest{ImageURI: "file:///a.jpg"})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestNewSelectsImplementation(t *testing.T) {
	t.Parallel()

	log := zerolog.Nop()
	if _, ok := New(Config{UseRemote: true, BaseURL: "https://api.example.com"}, nil, log).(*HTTPClient); !ok {
		t.Fatalf("expected HTTP client when remote is enabled")
	}
	if _, ok := New(Config{UseRemote: true}, nil, log).(*Demo); !ok {
		t.Fatalf("expected demo when base url missing")
	}
	if _, ok := New(Config{BaseURL: "https://api.example.com"}, nil, log).(*Demo); !ok {
		t.Fatalf("expected demo when remote disabled")
	}
}
