package pipeline

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/mohammad-safakhou/wonk/config"
	"github.com/mohammad-safakhou/wonk/internal/telemetry"
)

var pipelineTracer trace.Tracer = otel.Tracer("wonk/internal/pipeline")

// Controller encodes the dependency graph between the four stages and
// drives a run to completion or failure: Analyst and Critic fan out
// concurrently, Lobbyist joins both, Synthesizer joins all three.
type Controller struct {
	cfg       *config.Config
	logger    *log.Logger
	telemetry *telemetry.Telemetry
	workers   map[Role]*Worker
	contexts  *ContextManager

	mu   sync.RWMutex
	runs map[string]*runState
}

// runState pairs the public run aggregate with its execution context. The
// context is discarded once the run reaches a terminal state; the ordered
// stage list survives for polling.
type runState struct {
	mu     sync.RWMutex
	run    *PipelineRun
	rc     *RunContext
	stages []StageResult
}

// NewController creates a controller over one worker per role.
func NewController(cfg *config.Config, workers map[Role]*Worker, tele *telemetry.Telemetry) (*Controller, error) {
	for _, role := range Roles {
		if _, ok := workers[role]; !ok {
			return nil, fmt.Errorf("no worker configured for role %s", role)
		}
	}
	return &Controller{
		cfg:       cfg,
		logger:    log.New(log.Writer(), "[PIPELINE] ", log.LstdFlags),
		telemetry: tele,
		workers:   workers,
		contexts:  NewContextManager(),
		runs:      make(map[string]*runState),
	}, nil
}

// Start launches a run asynchronously and returns its handle. The run
// executes detached from the caller's context.
func (c *Controller) Start(topic string) (string, error) {
	st := c.newRun(topic)
	go func() {
		if err := c.execute(context.Background(), st); err != nil {
			c.logger.Printf("run %s failed: %v", st.run.ID, err)
		}
	}()
	return st.run.ID, nil
}

// Run executes a run synchronously and returns the terminal aggregate.
func (c *Controller) Run(ctx context.Context, topic string) (*PipelineRun, error) {
	st := c.newRun(topic)
	err := c.execute(ctx, st)
	st.mu.RLock()
	defer st.mu.RUnlock()
	runCopy := *st.run
	return &runCopy, err
}

// Poll returns the run's status plus the stage results completed so far, in
// completion order.
func (c *Controller) Poll(runID string) (RunSnapshot, error) {
	st, ok := c.lookup(runID)
	if !ok {
		return RunSnapshot{}, ErrUnknownRun
	}
	st.mu.RLock()
	defer st.mu.RUnlock()
	snap := RunSnapshot{
		ID:           st.run.ID,
		Topic:        st.run.Topic,
		Status:       st.run.Status,
		FailedRole:   st.run.FailedRole,
		FailureCause: st.run.FailureCause,
	}
	if st.run.Status == StatusRunning {
		snap.Stages = st.rc.snapshot()
	} else {
		snap.Stages = append(snap.Stages, st.stages...)
	}
	return snap, nil
}

// Report assembles the final artifact for a completed run.
func (c *Controller) Report(runID string) (Report, error) {
	st, ok := c.lookup(runID)
	if !ok {
		return Report{}, ErrUnknownRun
	}
	st.mu.RLock()
	defer st.mu.RUnlock()
	return Assemble(st.run)
}

func (c *Controller) newRun(topic string) *runState {
	rc := c.contexts.Open()
	st := &runState{
		rc: rc,
		run: &PipelineRun{
			ID:        rc.ID(),
			Topic:     topic,
			Status:    StatusRunning,
			StartedAt: time.Now(),
		},
	}
	c.mu.Lock()
	c.runs[st.run.ID] = st
	c.mu.Unlock()
	return st
}

func (c *Controller) lookup(runID string) (*runState, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	st, ok := c.runs[runID]
	return st, ok
}

type stageOutcome struct {
	role Role
	res  StageResult
	err  error
}

// execute drives one run through the fan-out/fan-in graph. Only this
// goroutine writes into the run context; stage workers return values.
func (c *Controller) execute(ctx context.Context, st *runState) error {
	start := time.Now()
	runID := st.run.ID
	topic := st.run.Topic

	ctx, span := pipelineTracer.Start(ctx, "pipeline.run",
		trace.WithAttributes(
			attribute.String("run.id", runID),
			attribute.String("run.topic", topic),
		))
	defer span.End()

	c.logger.Printf("starting run %s for topic: %s", runID, topic)

	// Phase 1: Analyst and Critic fan out concurrently. No ordering is
	// imposed between them; downstream stages wait for both.
	outcomes := make(chan stageOutcome, 2)
	for _, role := range []Role{RoleAnalyst, RoleCritic} {
		go func(role Role) {
			res, err := c.runStage(ctx, role, topic, nil)
			outcomes <- stageOutcome{role: role, res: res, err: err}
		}(role)
	}

	first := <-outcomes
	if first.err != nil {
		// The sibling is allowed to finish but its result is discarded.
		go func() { <-outcomes }()
		return c.fail(st, span, start, first.role, first.err)
	}
	c.record(st, first.res)

	second := <-outcomes
	if second.err != nil {
		return c.fail(st, span, start, second.role, second.err)
	}
	c.record(st, second.res)

	analysis, _ := st.rc.result(RoleAnalyst)
	critique, _ := st.rc.result(RoleCritic)

	// Phase 2: Lobbyist joins both research results.
	lobbyRes, err := c.runStage(ctx, RoleLobbyist, topic, map[Role]StageResult{
		RoleAnalyst: analysis,
		RoleCritic:  critique,
	})
	if err != nil {
		return c.fail(st, span, start, RoleLobbyist, err)
	}
	c.record(st, lobbyRes)

	// Phase 3: Synthesizer sees the complete upstream context, no tools.
	synthRes, err := c.runStage(ctx, RoleSynthesizer, topic, map[Role]StageResult{
		RoleAnalyst:  analysis,
		RoleCritic:   critique,
		RoleLobbyist: lobbyRes,
	})
	if err != nil {
		return c.fail(st, span, start, RoleSynthesizer, err)
	}
	c.record(st, synthRes)

	c.complete(st)

	duration := time.Since(start)
	c.logger.Printf("run %s completed in %v", runID, duration.Round(time.Millisecond))
	c.telemetry.RecordRunEvent(telemetry.RunEvent{RunID: runID, Topic: topic, Duration: duration, Success: true})
	span.SetStatus(codes.Ok, "completed")
	return nil
}

// runStage invokes one worker under the per-stage deadline and records the
// stage telemetry event.
func (c *Controller) runStage(ctx context.Context, role Role, topic string, upstream map[Role]StageResult) (StageResult, error) {
	stageCtx := ctx
	if c.cfg.Pipeline.StageTimeout > 0 {
		var cancel context.CancelFunc
		stageCtx, cancel = context.WithTimeout(ctx, c.cfg.Pipeline.StageTimeout)
		defer cancel()
	}

	stageCtx, span := pipelineTracer.Start(stageCtx, "pipeline.stage",
		trace.WithAttributes(attribute.String("stage.role", string(role))))
	defer span.End()

	res, err := c.workers[role].Run(stageCtx, topic, upstream)
	c.telemetry.RecordStageEvent(telemetry.StageEvent{
		Role:     string(role),
		Duration: res.ProcessingTime,
		Success:  res.Succeeded,
		Sources:  len(res.Sources),
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return res, err
	}
	span.SetStatus(codes.Ok, "completed")
	return res, nil
}

func (c *Controller) record(st *runState, res StageResult) {
	st.rc.setResult(res.Role, res)
}

// complete transitions the run to its terminal success state and releases
// the execution context.
func (c *Controller) complete(st *runState) {
	st.mu.Lock()
	defer st.mu.Unlock()
	stages := st.rc.snapshot()
	results := make(map[Role]StageResult, len(stages))
	for _, res := range stages {
		results[res.Role] = res
	}
	st.stages = stages
	st.run.Results = results
	st.run.Status = StatusCompleted
	st.run.CompletedAt = time.Now()
	c.contexts.Close(st.rc)
}

// fail transitions the run to Failed, surfacing the failing role and cause.
// No further stages are launched and no partial report is ever produced.
func (c *Controller) fail(st *runState, span trace.Span, start time.Time, role Role, cause error) error {
	st.mu.Lock()
	st.stages = st.rc.snapshot()
	st.run.Status = StatusFailed
	st.run.FailedRole = role
	st.run.FailureCause = cause.Error()
	st.run.CompletedAt = time.Now()
	c.contexts.Close(st.rc)
	st.mu.Unlock()

	duration := time.Since(start)
	c.telemetry.RecordRunEvent(telemetry.RunEvent{
		RunID:    st.run.ID,
		Topic:    st.run.Topic,
		Duration: duration,
		Success:  false,
		Error:    cause.Error(),
	})
	err := &StageError{Role: role, Err: cause}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}
