package cli

import (
	"context"
	"fmt"
	"net/http"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/quokka-io/mobile-harness/pkg/config"
	"github.com/quokka-io/mobile-harness/pkg/driver/appium"
	"github.com/quokka-io/mobile-harness/pkg/executor"
	"github.com/quokka-io/mobile-harness/pkg/logger"
	"github.com/quokka-io/mobile-harness/pkg/page"
	"github.com/quokka-io/mobile-harness/pkg/tracing"
)

// harness bundles what every command needs: resolved configuration,
// logging and tracing.
type harness struct {
	cfg           *config.Config
	shutdownTrace func(context.Context) error
}

// globalString reads a global flag from the command's lineage; when run
// as a subcommand, global flags live in the parent context.
func globalString(c *cli.Context, name string) string {
	for _, ctx := range c.Lineage() {
		if ctx != nil && ctx.IsSet(name) {
			return ctx.String(name)
		}
	}
	return ""
}

func globalBool(c *cli.Context, name string) bool {
	for _, ctx := range c.Lineage() {
		if ctx != nil && ctx.IsSet(name) {
			return ctx.Bool(name)
		}
	}
	return false
}

// loadConfig resolves the configuration and applies flag overrides.
func loadConfig(c *cli.Context) (*config.Config, error) {
	cfg, err := config.Resolve(globalString(c, "config"))
	if err != nil {
		return nil, err
	}

	if v := globalString(c, "appium-url"); v != "" {
		cfg.Server.URL = v
	}
	if v := globalString(c, "platform"); v != "" {
		cfg.Capabilities.PlatformName = v
	}
	if v := globalString(c, "device"); v != "" {
		cfg.Capabilities.UDID = v
	}
	if v := globalString(c, "artifacts-dir"); v != "" {
		cfg.ArtifactsDir = v
	}
	if v := globalString(c, "log-file"); v != "" {
		cfg.Log.File = v
	}
	if globalBool(c, "verbose") {
		cfg.Log.Level = "debug"
		cfg.Log.Development = true
	}
	if globalBool(c, "trace") {
		cfg.Trace = true
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setup(c *cli.Context) (*harness, error) {
	if globalBool(c, "no-ansi") {
		colorsEnabled = false
	}

	cfg, err := loadConfig(c)
	if err != nil {
		return nil, err
	}

	if err := logger.Init(logger.Options{
		Path:        cfg.Log.File,
		Level:       cfg.Log.Level,
		Development: cfg.Log.Development,
	}); err != nil {
		return nil, err
	}

	h := &harness{cfg: cfg}
	if cfg.Trace {
		shutdown, err := tracing.Setup(c.Context, c.App.Writer)
		if err != nil {
			logger.Close()
			return nil, fmt.Errorf("set up tracing: %w", err)
		}
		h.shutdownTrace = shutdown
	}

	logger.L().Debug("configuration loaded",
		zap.String("server", cfg.Server.URL),
		zap.String("platform", cfg.Capabilities.PlatformName),
		zap.String("udid", cfg.Capabilities.UDID))
	return h, nil
}

func (h *harness) close(ctx context.Context) {
	if h.shutdownTrace != nil {
		if err := h.shutdownTrace(context.WithoutCancel(ctx)); err != nil {
			logger.Warn("failed to flush traces: %v", err)
		}
	}
	logger.Close()
}

// connect opens a new Appium session with the configured capabilities.
func (h *harness) connect(ctx context.Context) (executor.Session, error) {
	client := appium.NewClient(h.cfg.Server.URL,
		appium.WithHTTPClient(&http.Client{Timeout: h.cfg.Server.RequestTimeout}))
	if err := client.Connect(ctx, h.cfg.Capabilities); err != nil {
		return nil, err
	}
	return client, nil
}

func (h *harness) newPage(s executor.Session) *page.Page {
	return page.New(s, page.WithProfiles(h.cfg.Waits), page.WithLogger(logger.Named("page")))
}

// withSession runs fn on a fresh session and closes it afterwards.
func withSession(c *cli.Context, fn func(ctx context.Context, h *harness, s executor.Session, pg *page.Page) error) error {
	h, err := setup(c)
	if err != nil {
		return err
	}
	defer h.close(c.Context)

	ctx := c.Context
	s, err := h.connect(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if err := s.Close(ctx); err != nil {
			logger.Warn("failed to close session: %v", err)
		}
	}()

	return fn(ctx, h, s, h.newPage(s))
}
