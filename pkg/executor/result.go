package executor

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/quokka-io/mobile-harness/pkg/core"
)

// ReportFileName is the file WriteReport creates.
const ReportFileName = "report.json"

// Attachment is an artifact captured during a step.
type Attachment struct {
	Name        string `json:"name"`        // screenshot
	ContentType string `json:"contentType"` // image/png
	Path        string `json:"path"`        // file path on disk
}

// StepResult captures the outcome of executing a single step.
type StepResult struct {
	Index       int    `json:"index"`
	Command     string `json:"command"`
	Description string `json:"description"`
	Label       string `json:"label,omitempty"`
	Optional    bool   `json:"optional,omitempty"`
	Group       string `json:"group,omitempty"`

	Status   core.StepStatus    `json:"status"`
	Category core.ErrorCategory `json:"errorCategory,omitempty"`

	StartTime time.Time     `json:"startTime"`
	Duration  time.Duration `json:"duration"`

	Message     string       `json:"message,omitempty"`
	Error       string       `json:"error,omitempty"`
	Attachments []Attachment `json:"attachments,omitempty"`
}

// FlowResult captures the outcome of executing a flow.
type FlowResult struct {
	RunID    string   `json:"runId"`
	Name     string   `json:"name"`
	FilePath string   `json:"filePath"`
	Tags     []string `json:"tags,omitempty"`
	AppID    string   `json:"appId,omitempty"`

	Status    core.StepStatus `json:"status"`
	StartTime time.Time       `json:"startTime"`
	Duration  time.Duration   `json:"duration"`

	Steps []StepResult `json:"steps"`

	TotalSteps   int `json:"totalSteps"`
	PassedSteps  int `json:"passedSteps"`
	FailedSteps  int `json:"failedSteps"`
	SkippedSteps int `json:"skippedSteps"`
	WarnedSteps  int `json:"warnedSteps"`

	// Error is the message of the step (or connect) failure that failed
	// the flow. TeardownError records a failed terminate or close, which
	// is logged but does not change Status.
	Error         string `json:"error,omitempty"`
	TeardownError string `json:"teardownError,omitempty"`
}

// ComputeSummary calculates step counts from the Steps slice.
func (f *FlowResult) ComputeSummary() {
	f.TotalSteps = len(f.Steps)
	f.PassedSteps = 0
	f.FailedSteps = 0
	f.SkippedSteps = 0
	f.WarnedSteps = 0

	for _, step := range f.Steps {
		switch step.Status {
		case core.StatusPassed:
			f.PassedSteps++
		case core.StatusFailed:
			f.FailedSteps++
		case core.StatusSkipped:
			f.SkippedSteps++
		case core.StatusWarned:
			f.WarnedSteps++
		}
	}
}

// AggregateStatus determines the flow status from step results:
// any failed step fails the flow, otherwise a warned step warns it.
func (f *FlowResult) AggregateStatus() core.StepStatus {
	warned := false
	for _, step := range f.Steps {
		switch step.Status {
		case core.StatusFailed:
			return core.StatusFailed
		case core.StatusWarned:
			warned = true
		}
	}
	if warned {
		return core.StatusWarned
	}
	return core.StatusPassed
}

// RunResult captures the outcome of executing several flows.
type RunResult struct {
	RunID     string        `json:"runId"`
	StartTime time.Time     `json:"startTime"`
	Duration  time.Duration `json:"duration"`

	Flows []FlowResult `json:"flows"`

	TotalFlows   int `json:"totalFlows"`
	PassedFlows  int `json:"passedFlows"`
	FailedFlows  int `json:"failedFlows"`
	SkippedFlows int `json:"skippedFlows"`
}

// ComputeSummary calculates flow counts from the Flows slice.
func (r *RunResult) ComputeSummary() {
	r.TotalFlows = len(r.Flows)
	r.PassedFlows = 0
	r.FailedFlows = 0
	r.SkippedFlows = 0

	for _, f := range r.Flows {
		switch f.Status {
		case core.StatusPassed, core.StatusWarned:
			r.PassedFlows++
		case core.StatusFailed:
			r.FailedFlows++
		case core.StatusSkipped:
			r.SkippedFlows++
		}
	}
}

// Success returns true if all flows passed (including warned).
func (r *RunResult) Success() bool {
	for _, f := range r.Flows {
		if !f.Status.IsSuccess() {
			return false
		}
	}
	return len(r.Flows) > 0
}

// WriteReport writes the run result as indented JSON to
// dir/<runID>/report.json and returns the path.
func WriteReport(dir string, r *RunResult) (string, error) {
	outDir := filepath.Join(dir, r.RunID)
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return "", fmt.Errorf("create report dir: %w", err)
	}
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode report: %w", err)
	}
	path := filepath.Join(outDir, ReportFileName)
	if err := os.WriteFile(path, data, 0o644); err != nil { //#nosec G306 -- report is not sensitive
		return "", fmt.Errorf("write report: %w", err)
	}
	return path, nil
}
