// Package executor runs parsed flows against a driver session, one
// session per flow, and collects step results.
package executor

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/quokka-io/mobile-harness/pkg/core"
	"github.com/quokka-io/mobile-harness/pkg/flow"
	"github.com/quokka-io/mobile-harness/pkg/logger"
	"github.com/quokka-io/mobile-harness/pkg/page"
)

const tracerName = "mobile-harness/executor"

// Session is a live driver session: everything the page facade needs
// plus app lifecycle and device-level commands. appium.Client and
// mock.Driver implement it.
type Session interface {
	page.Driver
	ActivateApp(ctx context.Context, appID string) error
	TerminateApp(ctx context.Context, appID string) error
	HideKeyboard(ctx context.Context) error
	Back(ctx context.Context) error
	Screenshot(ctx context.Context) ([]byte, error)
	// Close ends the session. It must be safe to call more than once.
	Close(ctx context.Context) error
}

// Connector opens a new session.
type Connector func(ctx context.Context) (Session, error)

// ArtifactMode determines when screenshots are captured automatically.
type ArtifactMode int

const (
	// ArtifactOnFailure captures a screenshot when a step fails.
	ArtifactOnFailure ArtifactMode = iota
	// ArtifactAlways captures a screenshot after every step.
	ArtifactAlways
	// ArtifactNever disables automatic capture. takeScreenshot steps
	// still write their files.
	ArtifactNever
)

// RunnerConfig configures the runner.
type RunnerConfig struct {
	// AppID is used by launchApp, stopApp and teardown when the flow
	// header names none.
	AppID string
	// ArtifactsDir receives screenshots, under a per-run subdirectory.
	ArtifactsDir string
	Artifacts    ArtifactMode
	// StopOnFail skips the remaining flows after the first failed one.
	StopOnFail bool

	Profiles   page.Profiles
	MaxScrolls int

	// Live progress callbacks
	OnFlowStart    func(flowIdx, totalFlows int, name, file string)
	OnStepComplete func(idx int, desc string, status core.StepStatus, duration time.Duration, err string)
	OnFlowEnd      func(name string, status core.StepStatus, duration time.Duration)
}

// Runner orchestrates flow execution.
type Runner struct {
	config  RunnerConfig
	connect Connector
	logger  *zap.Logger
	tracer  trace.Tracer
}

// New creates a new Runner that opens sessions with connect.
func New(connect Connector, cfg RunnerConfig) *Runner {
	if cfg.ArtifactsDir == "" {
		cfg.ArtifactsDir = "artifacts"
	}
	if cfg.MaxScrolls <= 0 {
		cfg.MaxScrolls = page.DefaultMaxScrolls
	}
	return &Runner{
		config:  cfg,
		connect: connect,
		logger:  logger.Named("executor"),
		tracer:  otel.Tracer(tracerName),
	}
}

// Run executes flows sequentially and returns the aggregated result.
// A failing flow does not stop the run unless StopOnFail is set;
// cancelling ctx skips the flows that have not started.
func (r *Runner) Run(ctx context.Context, flows []*flow.Flow) *RunResult {
	result := &RunResult{
		RunID:     uuid.NewString(),
		StartTime: time.Now(),
		Flows:     make([]FlowResult, 0, len(flows)),
	}
	log := r.logger.With(zap.String("run_id", result.RunID))
	log.Info("run started", zap.Int("flows", len(flows)))

	stop := false
	for i, f := range flows {
		if stop || ctx.Err() != nil {
			reason := "run cancelled"
			if stop {
				reason = "run stopped after a failed flow"
			}
			result.Flows = append(result.Flows, skippedFlow(f, result.RunID, reason))
			continue
		}

		if r.config.OnFlowStart != nil {
			r.config.OnFlowStart(i, len(flows), f.Name(), f.SourcePath)
		}
		fr := r.RunFlow(ctx, result.RunID, f)
		result.Flows = append(result.Flows, fr)
		if r.config.OnFlowEnd != nil {
			r.config.OnFlowEnd(fr.Name, fr.Status, fr.Duration)
		}

		if r.config.StopOnFail && !fr.Status.IsSuccess() {
			stop = true
		}
	}

	result.Duration = time.Since(result.StartTime)
	result.ComputeSummary()
	log.Info("run finished",
		zap.Int("passed", result.PassedFlows),
		zap.Int("failed", result.FailedFlows),
		zap.Int("skipped", result.SkippedFlows),
		zap.Duration("duration", result.Duration))
	return result
}

// RunFlow opens a session, executes f on it and tears the session down.
// Teardown (terminate the app, close the session) runs on every exit
// path, including a panic inside a step.
func (r *Runner) RunFlow(ctx context.Context, runID string, f *flow.Flow) FlowResult {
	fr := &flowRunner{
		runner: r,
		flow:   f,
		runID:  runID,
		appID:  f.Config.AppID,
	}
	if fr.appID == "" {
		fr.appID = r.config.AppID
	}
	return fr.run(ctx)
}

func skippedFlow(f *flow.Flow, runID, reason string) FlowResult {
	res := FlowResult{
		RunID:    runID,
		Name:     f.Name(),
		FilePath: f.SourcePath,
		Tags:     f.Config.Tags,
		Status:   core.StatusSkipped,
		Error:    reason,
	}
	for i, step := range f.Steps {
		res.Steps = append(res.Steps, StepResult{
			Index:       i,
			Command:     string(step.Type()),
			Description: step.Describe(),
			Status:      core.StatusSkipped,
		})
	}
	res.ComputeSummary()
	return res
}
