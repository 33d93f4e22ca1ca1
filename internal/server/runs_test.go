package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/mohammad-safakhou/wonk/config"
	"github.com/mohammad-safakhou/wonk/internal/pipeline"
	"github.com/mohammad-safakhou/wonk/internal/telemetry"
)

type generatorFunc func(ctx context.Context, instructions, prompt string) (string, error)

func (f generatorFunc) Generate(ctx context.Context, instructions, prompt string) (string, error) {
	return f(ctx, instructions, prompt)
}

type searcherFunc func(ctx context.Context, query string) ([]pipeline.SearchResult, error)

func (f searcherFunc) Search(ctx context.Context, query string) ([]pipeline.SearchResult, error) {
	return f(ctx, query)
}

func testHarness(t *testing.T, gen pipeline.Generator) *echo.Echo {
	t.Helper()
	cfg := &config.Config{
		General: config.GeneralConfig{DefaultTopic: "default topic"},
		Pipeline: config.PipelineConfig{
			MaxAttempts:  2,
			BaseDelay:    time.Millisecond,
			StageTimeout: 5 * time.Second,
		},
	}
	search := searcherFunc(func(ctx context.Context, query string) ([]pipeline.SearchResult, error) {
		return []pipeline.SearchResult{{Title: "hit", Snippet: "data", URL: "https://example.com"}}, nil
	})
	policy := pipeline.NewRetryPolicy(cfg.Pipeline.MaxAttempts, cfg.Pipeline.BaseDelay)
	workers := make(map[pipeline.Role]*pipeline.Worker)
	for _, role := range pipeline.Roles {
		spec := pipeline.RoleSpecs[role]
		var tool pipeline.Searcher
		if spec.ToolsPermitted() {
			tool = search
		}
		workers[role] = pipeline.NewWorker(spec, gen, tool, policy)
	}
	tele := telemetry.NewTelemetry(config.TelemetryConfig{})
	ctrl, err := pipeline.NewController(cfg, workers, tele)
	if err != nil {
		t.Fatalf("NewController: %v", err)
	}

	e := newEcho()
	NewRunsHandler(cfg, ctrl, tele).Register(e.Group("/api"))
	return e
}

func doJSON(e *echo.Echo, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestRunLifecycleOverHTTP(t *testing.T) {
	e := testHarness(t, generatorFunc(func(ctx context.Context, instructions, prompt string) (string, error) {
		return "stage output", nil
	}))

	rec := doJSON(e, http.MethodPost, "/api/runs", `{"topic":"universal basic income"}`)
	if rec.Code != http.StatusAccepted {
		t.Fatalf("start: expected 202, got %d: %s", rec.Code, rec.Body.String())
	}
	var started map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &started); err != nil {
		t.Fatalf("decode start response: %v", err)
	}
	runID := started["run_id"]
	if runID == "" {
		t.Fatalf("missing run_id in response")
	}

	deadline := time.After(5 * time.Second)
	for {
		rec = doJSON(e, http.MethodGet, "/api/runs/"+runID, "")
		if rec.Code != http.StatusOK {
			t.Fatalf("poll: expected 200, got %d", rec.Code)
		}
		var snap pipeline.RunSnapshot
		if err := json.Unmarshal(rec.Body.Bytes(), &snap); err != nil {
			t.Fatalf("decode snapshot: %v", err)
		}
		if snap.Status == pipeline.StatusCompleted {
			break
		}
		if snap.Status == pipeline.StatusFailed {
			t.Fatalf("run failed: %s", snap.FailureCause)
		}
		select {
		case <-deadline:
			t.Fatalf("run did not complete")
		case <-time.After(5 * time.Millisecond):
		}
	}

	rec = doJSON(e, http.MethodGet, "/api/runs/"+runID+"/report", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("report: expected 200, got %d", rec.Code)
	}
	var report pipeline.Report
	if err := json.Unmarshal(rec.Body.Bytes(), &report); err != nil {
		t.Fatalf("decode report: %v", err)
	}
	if len(report.Sections) != 4 || report.Topic != "universal basic income" {
		t.Fatalf("unexpected report: %+v", report)
	}

	rec = doJSON(e, http.MethodGet, "/api/runs/"+runID+"/report.md", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("markdown: expected 200, got %d", rec.Code)
	}
	if ct := rec.Header().Get(echo.HeaderContentType); !strings.HasPrefix(ct, "text/markdown") {
		t.Fatalf("unexpected content type %q", ct)
	}
	if !strings.Contains(rec.Body.String(), "universal basic income") {
		t.Fatalf("markdown missing topic")
	}
}

func TestStartUsesDefaultTopic(t *testing.T) {
	e := testHarness(t, generatorFunc(func(ctx context.Context, instructions, prompt string) (string, error) {
		return "text", nil
	}))
	rec := doJSON(e, http.MethodPost, "/api/runs", `{}`)
	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d", rec.Code)
	}
	var started map[string]string
	_ = json.Unmarshal(rec.Body.Bytes(), &started)
	if started["topic"] != "default topic" {
		t.Fatalf("expected default topic, got %q", started["topic"])
	}
}

func TestUnknownRunIs404(t *testing.T) {
	e := testHarness(t, generatorFunc(func(ctx context.Context, instructions, prompt string) (string, error) {
		return "text", nil
	}))
	if rec := doJSON(e, http.MethodGet, "/api/runs/missing", ""); rec.Code != http.StatusNotFound {
		t.Fatalf("poll: expected 404, got %d", rec.Code)
	}
	if rec := doJSON(e, http.MethodGet, "/api/runs/missing/report", ""); rec.Code != http.StatusNotFound {
		t.Fatalf("report: expected 404, got %d", rec.Code)
	}
}

func TestReportOfRunningRunIs409(t *testing.T) {
	release := make(chan struct{})
	e := testHarness(t, generatorFunc(func(ctx context.Context, instructions, prompt string) (string, error) {
		<-release
		return "text", nil
	}))
	defer close(release)

	rec := doJSON(e, http.MethodPost, "/api/runs", `{"topic":"t"}`)
	var started map[string]string
	_ = json.Unmarshal(rec.Body.Bytes(), &started)

	rec = doJSON(e, http.MethodGet, "/api/runs/"+started["run_id"]+"/report", "")
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 for running run, got %d", rec.Code)
	}
}
