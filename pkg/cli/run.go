package cli

import (
	"fmt"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/quokka-io/mobile-harness/pkg/executor"
	"github.com/quokka-io/mobile-harness/pkg/flow"
	"github.com/quokka-io/mobile-harness/pkg/validator"
)

var runCommand = &cli.Command{
	Name:      "run",
	Usage:     "Run flows against the app",
	ArgsUsage: "<flow-file-or-folder>...",
	Description: `Run one or more flow files, each on a fresh Appium session. The app is
terminated and the session deleted after every flow, whatever its outcome.

A JSON run record is written to <artifacts-dir>/<run-id>/report.json.

Examples:
  mobile-harness run flows/login.yaml
  mobile-harness run flows/ -e USERNAME=test -e PASSWORD=secret
  mobile-harness run flows/ --include-tags smoke --stop-on-fail`,
	Flags: []cli.Flag{
		&cli.StringSliceFlag{
			Name:    "env",
			Aliases: []string{"e"},
			Usage:   "Flow variables (KEY=VALUE), override the flow's env block",
		},
		&cli.StringSliceFlag{
			Name:  "include-tags",
			Usage: "Only include flows with these tags",
		},
		&cli.StringSliceFlag{
			Name:  "exclude-tags",
			Usage: "Exclude flows with these tags",
		},
		&cli.StringFlag{
			Name:  "artifacts",
			Usage: "When to capture screenshots: on-failure, always, never",
			Value: "on-failure",
		},
		&cli.BoolFlag{
			Name:  "stop-on-fail",
			Usage: "Skip remaining flows after the first failure",
		},
		&cli.BoolFlag{
			Name:  "no-report",
			Usage: "Do not write report.json",
		},

	},
	Action: runFlows,
}

func runFlows(c *cli.Context) error {
	if c.NArg() < 1 {
		return fmt.Errorf("at least one flow file or folder is required")
	}
	mode, err := parseArtifactMode(c.String("artifacts"))
	if err != nil {
		return err
	}
	vars, err := parseEnvVars(c.StringSlice("env"))
	if err != nil {
		return err
	}

	h, err := setup(c)
	if err != nil {
		return err
	}
	defer h.close(c.Context)
	w := c.App.Writer

	v := validator.New(c.StringSlice("include-tags"), c.StringSlice("exclude-tags"), flow.WithVars(vars))
	res := v.Validate(c.Args().Slice()...)
	if !res.IsValid() {
		fmt.Fprintf(c.App.ErrWriter, "Validation errors:\n")
		for _, err := range res.Errors {
			fmt.Fprintf(c.App.ErrWriter, "  - %v\n", err)
		}
		return fmt.Errorf("validation failed with %d error(s)", len(res.Errors))
	}
	if len(res.Flows) == 0 {
		return fmt.Errorf("no flows to run")
	}
	fmt.Fprintf(w, "%sFound %d flow(s)%s\n", color(colorBold), len(res.Flows), color(colorReset))

	out := progress{w: w}
	runner := executor.New(h.connect, executor.RunnerConfig{
		AppID:          h.cfg.Capabilities.AppID(),
		ArtifactsDir:   h.cfg.ArtifactsDir,
		Artifacts:      mode,
		StopOnFail:     c.Bool("stop-on-fail"),
		Profiles:       h.cfg.Waits,
		MaxScrolls:     h.cfg.Scroll.MaxScrolls,
		OnFlowStart:    out.flowStart,
		OnStepComplete: out.stepComplete,
		OnFlowEnd:      out.flowEnd,
	})

	result := runner.Run(c.Context, res.Flows)
	printSummary(w, result)

	if !c.Bool("no-report") {
		path, err := executor.WriteReport(h.cfg.ArtifactsDir, result)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "\nReport: %s\n", path)
	}

	if !result.Success() {
		return fmt.Errorf("%d of %d flow(s) did not pass", result.TotalFlows-result.PassedFlows, result.TotalFlows)
	}
	return nil
}

func parseArtifactMode(s string) (executor.ArtifactMode, error) {
	switch strings.ToLower(s) {
	case "", "on-failure":
		return executor.ArtifactOnFailure, nil
	case "always":
		return executor.ArtifactAlways, nil
	case "never":
		return executor.ArtifactNever, nil
	default:
		return 0, fmt.Errorf("unknown artifacts mode %q (want on-failure, always or never)", s)
	}
}

func parseEnvVars(envs []string) (map[string]string, error) {
	result := make(map[string]string)
	for _, e := range envs {
		parts := strings.SplitN(e, "=", 2)
		if len(parts) != 2 || parts[0] == "" {
			return nil, fmt.Errorf("invalid variable %q: want KEY=VALUE", e)
		}
		result[parts[0]] = parts[1]
	}
	return result, nil
}
