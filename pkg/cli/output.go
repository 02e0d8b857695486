package cli

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/quokka-io/mobile-harness/pkg/core"
	"github.com/quokka-io/mobile-harness/pkg/executor"
)

// ANSI color codes
const (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorCyan   = "\033[36m"
	colorGray   = "\033[90m"
	colorBold   = "\033[1m"
)

// slowThreshold marks passed steps that took suspiciously long.
const slowThreshold = 5 * time.Second

// colorsEnabled determines if ANSI colors should be used
var colorsEnabled = true

func init() {
	// Respect NO_COLOR environment variable
	if os.Getenv("NO_COLOR") != "" {
		colorsEnabled = false
		return
	}
	// Check if stdout is a terminal
	if fileInfo, err := os.Stdout.Stat(); err == nil {
		if (fileInfo.Mode() & os.ModeCharDevice) == 0 {
			colorsEnabled = false
		}
	}
}

// color returns the color code if colors are enabled, empty string otherwise
func color(c string) string {
	if colorsEnabled {
		return c
	}
	return ""
}

// progress prints live run progress.
type progress struct {
	w io.Writer
}

func (p progress) flowStart(flowIdx, totalFlows int, name, file string) {
	fmt.Fprintf(p.w, "\n  %s[%d/%d]%s %s%s%s (%s)\n",
		color(colorCyan), flowIdx+1, totalFlows, color(colorReset),
		color(colorBold), name, color(colorReset), file)
	fmt.Fprintln(p.w, strings.Repeat("─", 60))
}

func (p progress) stepComplete(_ int, desc string, status core.StepStatus, d time.Duration, errMsg string) {
	durStr := formatDuration(d)

	switch status {
	case core.StatusPassed:
		symbol, symbolColor, durColor := "✓", color(colorGreen), ""
		if d >= slowThreshold {
			symbol, symbolColor, durColor = "⚠", color(colorYellow), color(colorYellow)
		}
		fmt.Fprintf(p.w, "    %s%s%s %s %s(%s)%s\n",
			symbolColor, symbol, color(colorReset), desc, durColor, durStr, color(colorReset))
	case core.StatusWarned:
		fmt.Fprintf(p.w, "    %s~%s %s (%s, optional)\n", color(colorYellow), color(colorReset), desc, durStr)
	case core.StatusSkipped:
		fmt.Fprintf(p.w, "    %s-%s %s %s(skipped)%s\n", color(colorCyan), color(colorReset), desc, color(colorGray), color(colorReset))
		return
	default:
		fmt.Fprintf(p.w, "    %s✗%s %s (%s)\n", color(colorRed), color(colorReset), desc, durStr)
	}
	if errMsg != "" && status != core.StatusPassed {
		fmt.Fprintf(p.w, "      %s╰─%s %s\n", color(colorGray), color(colorReset), errMsg)
	}
}

func (p progress) flowEnd(name string, status core.StepStatus, d time.Duration) {
	if status.IsSuccess() {
		fmt.Fprintf(p.w, "%s✓ %s%s %s%s%s\n",
			color(colorGreen), color(colorReset), name, color(colorGray), formatDuration(d), color(colorReset))
	} else {
		fmt.Fprintf(p.w, "%s✗ %s%s %s%s%s\n",
			color(colorRed), color(colorReset), name, color(colorGray), formatDuration(d), color(colorReset))
	}
}

func printSummary(w io.Writer, result *executor.RunResult) {
	totalSteps, passedSteps, warnedSteps, failedSteps, skippedSteps := 0, 0, 0, 0, 0
	for _, fr := range result.Flows {
		totalSteps += fr.TotalSteps
		passedSteps += fr.PassedSteps
		warnedSteps += fr.WarnedSteps
		failedSteps += fr.FailedSteps
		skippedSteps += fr.SkippedSteps
	}

	fmt.Fprintln(w)
	if passedSteps > 0 {
		fmt.Fprintf(w, "  %s%d steps passing%s (%s)\n", color(colorGreen), passedSteps, color(colorReset), formatDuration(result.Duration))
	}
	if warnedSteps > 0 {
		fmt.Fprintf(w, "  %s%d optional steps failed%s\n", color(colorYellow), warnedSteps, color(colorReset))
	}
	if failedSteps > 0 {
		fmt.Fprintf(w, "  %s%d steps failing%s\n", color(colorRed), failedSteps, color(colorReset))
	}
	if skippedSteps > 0 {
		fmt.Fprintf(w, "  %s%d steps skipped%s\n", color(colorCyan), skippedSteps, color(colorReset))
	}
	fmt.Fprintln(w)

	tableWidth := 92
	fmt.Fprintln(w, strings.Repeat("═", tableWidth))
	fmt.Fprintf(w, "  %-42s %6s %7s %6s %6s %6s %10s\n", "Flow", "Status", "Steps", "Pass", "Fail", "Skip", "Duration")
	fmt.Fprintln(w, strings.Repeat("─", tableWidth))

	for _, fr := range result.Flows {
		var status, statusColor string
		switch fr.Status {
		case core.StatusFailed:
			status, statusColor = "✗ FAIL", color(colorRed)
		case core.StatusSkipped:
			status, statusColor = "- SKIP", color(colorCyan)
		case core.StatusWarned:
			status, statusColor = "~ WARN", color(colorYellow)
		default:
			status, statusColor = "✓ PASS", color(colorGreen)
		}

		name := fr.Name
		if len(name) > 42 {
			name = name[:39] + "..."
		}

		fmt.Fprintf(w, "  %-42s %s%6s%s %7d %6d %6d %6d %10s\n",
			name, statusColor, status, color(colorReset),
			fr.TotalSteps, fr.PassedSteps, fr.FailedSteps, fr.SkippedSteps,
			formatDuration(fr.Duration))
	}

	fmt.Fprintln(w, strings.Repeat("─", tableWidth))
	statusStr := fmt.Sprintf("%d/%d", result.PassedFlows, result.TotalFlows)
	statusColor := color(colorGreen)
	if result.FailedFlows > 0 {
		statusColor = color(colorRed)
	}
	fmt.Fprintf(w, "  %s%-42s%s %s%6s%s %7d %6d %6d %6d %10s\n",
		color(colorBold), "TOTAL", color(colorReset),
		statusColor, statusStr, color(colorReset),
		totalSteps, passedSteps, failedSteps, skippedSteps,
		formatDuration(result.Duration))
	fmt.Fprintln(w, strings.Repeat("═", tableWidth))
}

// formatDuration shows milliseconds below one second, seconds below a
// minute and minutes + seconds above.
func formatDuration(d time.Duration) string {
	ms := d.Milliseconds()
	if ms < 1000 {
		return fmt.Sprintf("%dms", ms)
	}
	if ms < 60000 {
		return fmt.Sprintf("%.1fs", float64(ms)/1000)
	}
	mins := ms / 60000
	secs := (ms % 60000) / 1000
	return fmt.Sprintf("%dm %ds", mins, secs)
}
