package pipeline

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func completedRun() *PipelineRun {
	results := map[Role]StageResult{
		RoleAnalyst:     {Role: RoleAnalyst, Text: "analysis", Succeeded: true},
		RoleCritic:      {Role: RoleCritic, Text: "critique", Succeeded: true},
		RoleLobbyist:    {Role: RoleLobbyist, Text: "directives", Succeeded: true},
		RoleSynthesizer: {Role: RoleSynthesizer, Text: "summary", Succeeded: true},
	}
	return &PipelineRun{
		ID:      "run-1",
		Topic:   "universal basic income",
		Status:  StatusCompleted,
		Results: results,
	}
}

func TestAssembleRequiresCompletedRun(t *testing.T) {
	for _, status := range []RunStatus{StatusRunning, StatusFailed} {
		run := completedRun()
		run.Status = status
		_, err := Assemble(run)
		var stateErr *StateError
		if !errors.As(err, &stateErr) {
			t.Fatalf("status %s: expected StateError, got %v", status, err)
		}
	}
}

func TestAssembleFixedSectionOrder(t *testing.T) {
	report, err := Assemble(completedRun())
	if err != nil {
		t.Fatalf("assemble: %v", err)
	}
	want := []string{"Analysis", "Critique", "Future Directives", "Final Summary"}
	for i, s := range report.Sections {
		if s.Title != want[i] {
			t.Fatalf("section %d: expected %q, got %q", i, want[i], s.Title)
		}
		if s.Text == "" {
			t.Fatalf("section %q empty", s.Title)
		}
	}
	if report.GeneratedAt.IsZero() {
		t.Fatalf("timestamp must be captured at assembly time")
	}
}

func TestAssembleIdempotentModuloTimestamp(t *testing.T) {
	run := completedRun()
	first, err := Assemble(run)
	if err != nil {
		t.Fatalf("assemble: %v", err)
	}
	time.Sleep(time.Millisecond)
	second, err := Assemble(run)
	if err != nil {
		t.Fatalf("assemble: %v", err)
	}
	if len(first.Sections) != len(second.Sections) {
		t.Fatalf("section counts differ")
	}
	for i := range first.Sections {
		if first.Sections[i] != second.Sections[i] {
			t.Fatalf("section %d differs between assemblies", i)
		}
	}
}

func TestMarkdownArtifactShape(t *testing.T) {
	report, err := Assemble(completedRun())
	if err != nil {
		t.Fatalf("assemble: %v", err)
	}
	md := report.Markdown()
	if !strings.Contains(md, "**Topic**: universal basic income") {
		t.Fatalf("markdown missing topic header: %q", md)
	}
	if !strings.Contains(md, "**Generated**:") {
		t.Fatalf("markdown missing generation timestamp")
	}
	order := []string{"## Analysis", "## Critique", "## Future Directives", "## Final Summary"}
	last := -1
	for _, header := range order {
		idx := strings.Index(md, header)
		if idx < 0 {
			t.Fatalf("markdown missing header %q", header)
		}
		if idx < last {
			t.Fatalf("header %q out of order", header)
		}
		last = idx
	}
}
