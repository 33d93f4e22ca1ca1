package pipeline

import (
	"fmt"
	"strings"
	"time"
)

// Assemble builds the final artifact from a completed run. Calling it twice
// on the same run yields identical texts except for the timestamp, which is
// captured at assembly time.
func Assemble(run *PipelineRun) (Report, error) {
	if run.Status != StatusCompleted {
		return Report{}, &StateError{Op: "assemble report", Status: run.Status}
	}
	sections := make([]ReportSection, 0, len(Roles))
	for _, role := range Roles {
		res, ok := run.Results[role]
		if !ok || !res.Succeeded {
			return Report{}, fmt.Errorf("completed run %s has no result for role %s", run.ID, role)
		}
		sections = append(sections, ReportSection{
			Title: RoleSpecs[role].SectionTitle,
			Text:  res.Text,
		})
	}
	return Report{
		Topic:       run.Topic,
		GeneratedAt: time.Now(),
		Sections:    sections,
	}, nil
}

// Markdown renders the report as a plain-text document: metadata header
// followed by the four labeled sections in fixed order.
func (r Report) Markdown() string {
	var b strings.Builder
	b.WriteString("# Policy Analysis Report\n\n")
	fmt.Fprintf(&b, "**Topic**: %s\n", r.Topic)
	fmt.Fprintf(&b, "**Generated**: %s\n\n", r.GeneratedAt.Format("2006-01-02 15:04:05"))
	b.WriteString("---\n")
	for _, s := range r.Sections {
		fmt.Fprintf(&b, "\n## %s\n\n%s\n\n---\n", s.Title, s.Text)
	}
	b.WriteString("\n*Report generated by wonk*\n")
	return b.String()
}
