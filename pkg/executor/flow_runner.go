package executor

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/quokka-io/mobile-harness/pkg/core"
	"github.com/quokka-io/mobile-harness/pkg/flow"
	"github.com/quokka-io/mobile-harness/pkg/page"
	"github.com/quokka-io/mobile-harness/pkg/tracing"
)

// teardownTimeout bounds terminate + close after the flow's context is
// gone.
const teardownTimeout = 30 * time.Second

// flowRunner executes a single flow.
type flowRunner struct {
	runner *Runner
	flow   *flow.Flow
	runID  string
	appID  string

	session Session
	page    *page.Page
	logger  *zap.Logger

	// failedGroups holds groups in which an optional step failed; their
	// remaining steps are skipped.
	failedGroups map[string]bool
}

func (fr *flowRunner) run(ctx context.Context) (res FlowResult) {
	r := fr.runner
	res = FlowResult{
		RunID:     fr.runID,
		Name:      fr.flow.Name(),
		FilePath:  fr.flow.SourcePath,
		Tags:      fr.flow.Config.Tags,
		AppID:     fr.appID,
		StartTime: time.Now(),
	}
	fr.logger = r.logger.With(zap.String("run_id", fr.runID), zap.String("flow", res.Name))
	fr.failedGroups = make(map[string]bool)

	ctx, span := tracing.StartSpan(ctx, r.tracer, fr.logger, "Flow",
		attribute.String("run_id", fr.runID),
		attribute.String("flow", res.Name),
		attribute.String("app_id", fr.appID))
	var flowErr error
	defer func() { span.End(flowErr) }()

	fr.logger.Info("flow started", zap.Int("steps", len(fr.flow.Steps)))

	session, err := r.connect(ctx)
	if err != nil {
		flowErr = err
		fr.logger.Error("failed to open session", zap.Error(err))
		res.Steps = fr.skipFrom(0, "session not started")
		res.Status = core.StatusFailed
		res.Error = fmt.Sprintf("connect: %v", err)
		res.Duration = time.Since(res.StartTime)
		res.ComputeSummary()
		return res
	}
	fr.session = session
	fr.page = page.New(session, page.WithProfiles(r.config.Profiles), page.WithLogger(fr.logger))

	// Teardown runs on every exit path. A panic still propagates after it.
	defer func() {
		if err := fr.teardown(ctx); err != nil {
			res.TeardownError = err.Error()
		}
	}()

	for i, step := range fr.flow.Steps {
		if ctx.Err() != nil {
			res.Steps = append(res.Steps, fr.skipFrom(i, "execution cancelled")...)
			res.Error = "execution cancelled"
			flowErr = ctx.Err()
			break
		}

		sr := fr.executeStep(ctx, i, step)
		res.Steps = append(res.Steps, sr)
		if r.config.OnStepComplete != nil {
			r.config.OnStepComplete(i, sr.Description, sr.Status, sr.Duration, sr.Error)
		}

		if sr.Status == core.StatusFailed {
			// Required step failed - skip remaining and fail flow
			res.Steps = append(res.Steps, fr.skipFrom(i+1, "previous step failed")...)
			res.Error = sr.Error
			flowErr = fmt.Errorf("step %d (%s): %s", i, sr.Description, sr.Error)
			break
		}
	}

	res.ComputeSummary()
	res.Status = res.AggregateStatus()
	if res.Status == core.StatusPassed && res.Error != "" {
		// cancelled before any step failed
		res.Status = core.StatusSkipped
	}
	res.Duration = time.Since(res.StartTime)
	fr.logger.Info("flow finished",
		zap.Stringer("status", res.Status),
		zap.Int("passed", res.PassedSteps),
		zap.Int("warned", res.WarnedSteps),
		zap.Int("failed", res.FailedSteps),
		zap.Int("skipped", res.SkippedSteps),
		zap.Duration("duration", res.Duration))
	return res
}

// teardown terminates the app under test and closes the session. It
// runs detached from ctx so a cancelled run still releases the device.
func (fr *flowRunner) teardown(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), teardownTimeout)
	defer cancel()

	var errs []string
	if fr.appID != "" {
		if err := fr.session.TerminateApp(ctx, fr.appID); err != nil {
			fr.logger.Warn("failed to terminate app", zap.String("app_id", fr.appID), zap.Error(err))
			errs = append(errs, fmt.Sprintf("terminate %s: %v", fr.appID, err))
		}
	}
	if err := fr.session.Close(ctx); err != nil {
		fr.logger.Warn("failed to close session", zap.Error(err))
		errs = append(errs, fmt.Sprintf("close session: %v", err))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

// skipFrom returns skipped results for steps[from:].
func (fr *flowRunner) skipFrom(from int, reason string) []StepResult {
	var out []StepResult
	for j := from; j < len(fr.flow.Steps); j++ {
		out = append(out, fr.skipped(j, fr.flow.Steps[j], reason))
	}
	return out
}

func (fr *flowRunner) skipped(idx int, step flow.Step, reason string) StepResult {
	sr := newStepResult(idx, step)
	sr.Status = core.StatusSkipped
	sr.Message = reason
	return sr
}

func newStepResult(idx int, step flow.Step) StepResult {
	return StepResult{
		Index:       idx,
		Command:     string(step.Type()),
		Description: step.Describe(),
		Label:       step.Label(),
		Optional:    step.IsOptional(),
		Group:       step.Group(),
	}
}

// executeStep runs one step and classifies the outcome.
func (fr *flowRunner) executeStep(ctx context.Context, idx int, step flow.Step) StepResult {
	if g := step.Group(); g != "" && fr.failedGroups[g] {
		fr.logger.Debug("skipping step of failed group", zap.Int("step", idx), zap.String("group", g))
		return fr.skipped(idx, step, fmt.Sprintf("group %q already failed", g))
	}

	sr := newStepResult(idx, step)
	sr.StartTime = time.Now()
	log := fr.logger.With(zap.Int("step", idx), zap.String("command", sr.Command))
	log.Debug("step started", zap.String("description", sr.Description))

	msg, attachments, err := fr.dispatch(ctx, idx, step)
	sr.Duration = time.Since(sr.StartTime)
	sr.Message = msg
	sr.Attachments = attachments

	switch {
	case err == nil:
		sr.Status = core.StatusPassed
	case step.IsOptional():
		sr.Status = core.StatusWarned
		if g := step.Group(); g != "" {
			fr.failedGroups[g] = true
		}
		log.Warn("optional step failed", zap.Error(err))
	default:
		sr.Status = core.StatusFailed
		log.Error("step failed", zap.Error(err))
	}
	if err != nil {
		sr.Error = err.Error()
		sr.Category = core.CategoryOf(err)
	}

	if fr.shouldCapture(sr.Status) {
		if att, cerr := fr.capture(ctx, fmt.Sprintf("%03d-%s", idx, sr.Status)); cerr != nil {
			log.Warn("failed to capture screenshot", zap.Error(cerr))
		} else {
			sr.Attachments = append(sr.Attachments, att)
		}
	}

	log.Debug("step finished", zap.Stringer("status", sr.Status), zap.Duration("duration", sr.Duration))
	return sr
}

func (fr *flowRunner) shouldCapture(status core.StepStatus) bool {
	switch fr.runner.config.Artifacts {
	case ArtifactAlways:
		return true
	case ArtifactOnFailure:
		return status == core.StatusFailed || status == core.StatusWarned
	default:
		return false
	}
}

// capture saves a screenshot as <ArtifactsDir>/<runID>/<name>.png.
func (fr *flowRunner) capture(ctx context.Context, name string) (Attachment, error) {
	data, err := fr.session.Screenshot(ctx)
	if err != nil {
		return Attachment{}, err
	}
	if !strings.HasSuffix(name, ".png") {
		name += ".png"
	}
	path := filepath.Join(fr.runner.config.ArtifactsDir, fr.runID, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return Attachment{}, fmt.Errorf("create artifacts dir: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil { //#nosec G306 -- screenshots are not sensitive
		return Attachment{}, fmt.Errorf("write screenshot: %w", err)
	}
	return Attachment{Name: "screenshot", ContentType: "image/png", Path: path}, nil
}
