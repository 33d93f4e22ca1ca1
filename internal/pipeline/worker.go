package pipeline

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strings"
	"time"
)

// Worker binds a role's instructions and permitted tools to the generic
// generation contract. One instance per role, all sharing this logic.
type Worker struct {
	spec   RoleSpec
	llm    Generator
	search Searcher
	retry  RetryPolicy
	logger *log.Logger
}

// NewWorker creates a worker for a role spec. search may be nil for roles
// without tool access.
func NewWorker(spec RoleSpec, llm Generator, search Searcher, retry RetryPolicy) *Worker {
	prefix := fmt.Sprintf("[%s] ", strings.ToUpper(string(spec.Role)))
	return &Worker{
		spec:   spec,
		llm:    llm,
		search: search,
		retry:  retry,
		logger: log.New(log.Writer(), prefix, log.LstdFlags),
	}
}

// Role returns the worker's role.
func (w *Worker) Role() Role { return w.spec.Role }

// Run executes one stage: optional search calls, then the generation call,
// each individually wrapped in the retry policy. upstream must contain
// exactly the roles this stage depends on.
func (w *Worker) Run(ctx context.Context, topic string, upstream map[Role]StageResult) (StageResult, error) {
	start := time.Now()

	if err := w.checkDependencies(upstream); err != nil {
		return StageResult{}, err
	}

	var (
		sources  []Source
		findings []string
	)
	if w.spec.ToolsPermitted() {
		for _, query := range w.spec.Queries(topic) {
			w.logger.Printf("searching: %q", query)
			results, err := Retry(ctx, w.retry, func(ctx context.Context) ([]SearchResult, error) {
				return w.search.Search(ctx, query)
			})
			if err != nil {
				toolErr := &ToolError{Query: query, Err: err}
				return w.failed(start, toolErr), toolErr
			}
			for _, r := range results {
				sources = append(sources, Source{Title: r.Title, URL: r.URL})
				findings = append(findings, fmt.Sprintf("Source: %s\nURL: %s\nData: %s", r.Title, r.URL, r.Snippet))
			}
			w.logger.Printf("found %d results", len(results))
		}
	}

	prompt := w.composePrompt(topic, upstream, findings)
	text, err := Retry(ctx, w.retry, func(ctx context.Context) (string, error) {
		return w.llm.Generate(ctx, w.spec.Instructions, prompt)
	})
	if err != nil {
		return w.failed(start, err), err
	}
	if strings.TrimSpace(text) == "" {
		err := fmt.Errorf("empty generation output for role %s", w.spec.Role)
		return w.failed(start, err), err
	}

	w.checkStructure(text)
	w.logger.Printf("stage complete in %v", time.Since(start).Round(time.Millisecond))

	return StageResult{
		Role:           w.spec.Role,
		Text:           text,
		Sources:        sources,
		Succeeded:      true,
		ProcessingTime: time.Since(start),
	}, nil
}

func (w *Worker) checkDependencies(upstream map[Role]StageResult) error {
	required := make(map[Role]bool, len(w.spec.DependsOn))
	for _, dep := range w.spec.DependsOn {
		required[dep] = true
	}
	var missing, extra []Role
	for _, dep := range w.spec.DependsOn {
		if _, ok := upstream[dep]; !ok {
			missing = append(missing, dep)
		}
	}
	for role := range upstream {
		if !required[role] {
			extra = append(extra, role)
		}
	}
	if len(missing) == 0 && len(extra) == 0 {
		return nil
	}
	sort.Slice(extra, func(i, j int) bool { return extra[i] < extra[j] })
	return &DependencyError{Role: w.spec.Role, Missing: missing, Extra: extra}
}

func (w *Worker) composePrompt(topic string, upstream map[Role]StageResult, findings []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Topic: %s\n", topic)
	for _, dep := range w.spec.DependsOn {
		res := upstream[dep]
		fmt.Fprintf(&b, "\n[%s]\n%s\n", strings.ToUpper(string(dep)), res.Text)
	}
	if len(findings) > 0 {
		b.WriteString("\n[SEARCH FINDINGS]\n")
		b.WriteString(strings.Join(findings, "\n\n"))
		b.WriteString("\n")
	} else if w.spec.ToolsPermitted() {
		b.WriteString("\n[SEARCH FINDINGS]\nNo results found.\n")
	}
	return b.String()
}

// checkStructure is advisory: the generation backend cannot be forced to
// obey formatting exactly, so malformed structure is logged and the result
// still counts as a success.
func (w *Worker) checkStructure(text string) {
	for _, marker := range w.spec.Markers {
		if !strings.Contains(text, marker) {
			w.logger.Printf("warning: output missing expected segment %q", marker)
		}
	}
}

func (w *Worker) failed(start time.Time, err error) StageResult {
	w.logger.Printf("stage failed: %v", err)
	return StageResult{
		Role:           w.spec.Role,
		Succeeded:      false,
		Error:          err.Error(),
		ProcessingTime: time.Since(start),
	}
}
