package pipeline

import (
	"context"
	"time"
)

// Role identifies one of the four fixed workers in the pipeline.
type Role string

const (
	RoleAnalyst     Role = "analyst"
	RoleCritic      Role = "critic"
	RoleLobbyist    Role = "lobbyist"
	RoleSynthesizer Role = "synthesizer"
)

// Roles lists all pipeline roles in execution order. Analyst and Critic run
// concurrently; the slice order is the order sections appear in the report.
var Roles = []Role{RoleAnalyst, RoleCritic, RoleLobbyist, RoleSynthesizer}

// RunStatus represents the lifecycle state of a pipeline run
type RunStatus string

const (
	StatusRunning   RunStatus = "running"
	StatusCompleted RunStatus = "completed"
	StatusFailed    RunStatus = "failed"
)

// Source represents a reference a worker collected while researching
type Source struct {
	Title string `json:"title"`
	URL   string `json:"url"`
}

// StageResult represents the output of one worker invocation
type StageResult struct {
	Role           Role          `json:"role"`
	Text           string        `json:"text"`
	Sources        []Source      `json:"sources,omitempty"`
	Succeeded      bool          `json:"succeeded"`
	Error          string        `json:"error,omitempty"`
	ProcessingTime time.Duration `json:"processing_time"`
}

// PipelineRun is the aggregate for one end-to-end execution
type PipelineRun struct {
	ID           string               `json:"id"`
	Topic        string               `json:"topic"`
	Status       RunStatus            `json:"status"`
	Results      map[Role]StageResult `json:"results,omitempty"`
	FailedRole   Role                 `json:"failed_role,omitempty"`
	FailureCause string               `json:"failure_cause,omitempty"`
	StartedAt    time.Time            `json:"started_at"`
	CompletedAt  time.Time            `json:"completed_at,omitempty"`
}

// RunSnapshot is the poll view of a run: status plus whatever stages have
// completed so far, in completion order.
type RunSnapshot struct {
	ID           string        `json:"id"`
	Topic        string        `json:"topic"`
	Status       RunStatus     `json:"status"`
	Stages       []StageResult `json:"stages"`
	FailedRole   Role          `json:"failed_role,omitempty"`
	FailureCause string        `json:"failure_cause,omitempty"`
}

// ReportSection is one labeled block of the final artifact
type ReportSection struct {
	Title string `json:"title"`
	Text  string `json:"text"`
}

// Report is the read-only projection of a completed run
type Report struct {
	Topic       string          `json:"topic"`
	GeneratedAt time.Time       `json:"generated_at"`
	Sections    []ReportSection `json:"sections"`
}

// Generator is the text-generation backend consumed per stage
type Generator interface {
	Generate(ctx context.Context, instructions, prompt string) (string, error)
}

// SearchResult is one hit returned by the web search tool
type SearchResult struct {
	Title   string `json:"title"`
	Snippet string `json:"snippet"`
	URL     string `json:"url"`
}

// Searcher is the web search tool consumed by research stages. An empty
// result set is a successful search, not a failure.
type Searcher interface {
	Search(ctx context.Context, query string) ([]SearchResult, error)
}
