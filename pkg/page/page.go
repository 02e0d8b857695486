// Package page is the interaction layer test scripts call: polling waits,
// synthesized touch gestures and bounded scroll-search, all composed over
// a single driver session.
//
// Every read goes through a bounded poll rather than a one-shot lookup,
// because mobile UI state settles asynchronously. Nothing here retries on
// its own: failures come back as *core.Error values and the caller decides
// whether to propagate, ignore or escalate (scroll-search being the one
// built-in escalation).
package page

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/quokka-io/mobile-harness/pkg/core"
	"github.com/quokka-io/mobile-harness/pkg/logger"
	"github.com/quokka-io/mobile-harness/pkg/tracing"
)

const tracerName = "mobile-harness/page"

// Driver is the driver session the page drives. Implementations:
// appium.Client (remote Appium server), mock.Driver (tests).
//
// Calls are issued one at a time; implementations need not be safe for
// concurrent use.
type Driver interface {
	// FindElement resolves loc against the current UI tree without waiting.
	// A miss is reported as core.ErrNotFound.
	FindElement(ctx context.Context, loc core.Locator) (core.Element, error)
	ElementRect(ctx context.Context, el core.Element) (core.Rect, error)
	ElementAttribute(ctx context.Context, el core.Element, name string) (string, error)
	ClickElement(ctx context.Context, el core.Element) error
	SendKeys(ctx context.Context, el core.Element, text string) error
	WindowSize(ctx context.Context) (core.Size, error)
	// PerformGesture dispatches g as one atomic pointer sequence and
	// returns once the session acknowledges it.
	PerformGesture(ctx context.Context, g core.Gesture) error
}

// Page is the facade test scripts use.
type Page struct {
	driver   Driver
	profiles Profiles
	logger   *zap.Logger
	tracer   trace.Tracer
}

// Option configures a Page.
type Option func(*Page)

// WithProfiles overrides the wait profile timeouts. Zero fields keep their default.
func WithProfiles(p Profiles) Option {
	return func(pg *Page) {
		pg.profiles = p.withDefaults()
	}
}

// WithLogger sets the logger used for operation traces.
func WithLogger(l *zap.Logger) Option {
	return func(pg *Page) {
		pg.logger = l
	}
}

// New creates a Page over driver.
func New(driver Driver, opts ...Option) *Page {
	p := &Page{
		driver:   driver,
		profiles: DefaultProfiles(),
		tracer:   otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.logger == nil {
		p.logger = logger.Named("page")
	}
	return p
}

// Driver returns the underlying session.
func (p *Page) Driver() Driver {
	return p.driver
}

// Profiles returns the configured wait profiles.
func (p *Page) Profiles() Profiles {
	return p.profiles
}

func (p *Page) startSpan(ctx context.Context, op string, attrs ...attribute.KeyValue) (context.Context, *tracing.Span) {
	return tracing.StartSpan(ctx, p.tracer, p.logger, op, attrs...)
}

func locatorAttrs(loc core.Locator) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String("locator.strategy", string(loc.Strategy)),
		attribute.String("locator.expression", loc.Expression),
	}
}

// Find performs a single non-blocking lookup.
func (p *Page) Find(ctx context.Context, loc core.Locator) (core.Element, error) {
	if err := loc.Validate(); err != nil {
		return core.Element{}, err
	}
	return p.driver.FindElement(ctx, loc)
}

// Rect returns el's current rectangle.
func (p *Page) Rect(ctx context.Context, el core.Element) (core.Rect, error) {
	return p.driver.ElementRect(ctx, el)
}

// Attribute reads a string attribute of el.
func (p *Page) Attribute(ctx context.Context, el core.Element, name string) (string, error) {
	return p.driver.ElementAttribute(ctx, el, name)
}

// Click clicks el through the session's native element click.
func (p *Page) Click(ctx context.Context, el core.Element) (err error) {
	ctx, span := p.startSpan(ctx, "Click", attribute.String("element", el.ID))
	defer func() { span.End(err) }()

	return p.driver.ClickElement(ctx, el)
}

// SendKeys types text into el.
func (p *Page) SendKeys(ctx context.Context, el core.Element, text string) (err error) {
	ctx, span := p.startSpan(ctx, "SendKeys", attribute.String("element", el.ID), attribute.Int("length", len(text)))
	defer func() { span.End(err) }()

	return p.driver.SendKeys(ctx, el, text)
}

// WaitAndClick waits (default profile) for loc and clicks it.
func (p *Page) WaitAndClick(ctx context.Context, loc core.Locator) (core.Element, error) {
	return p.WaitForAndClick(ctx, loc, ProfileDefault)
}

// WaitForAndClick waits for loc under profile and clicks it.
func (p *Page) WaitForAndClick(ctx context.Context, loc core.Locator, profile Profile) (core.Element, error) {
	el, err := p.WaitFor(ctx, loc, profile)
	if err != nil {
		return core.Element{}, err
	}
	if err := p.Click(ctx, el); err != nil {
		return el, err
	}
	return el, nil
}

// WaitAndType waits (default profile) for loc and types text into it.
func (p *Page) WaitAndType(ctx context.Context, loc core.Locator, text string) (core.Element, error) {
	el, err := p.Wait(ctx, loc)
	if err != nil {
		return core.Element{}, err
	}
	if err := p.SendKeys(ctx, el, text); err != nil {
		return el, err
	}
	return el, nil
}

// WaitAndTap waits (default profile) for loc and taps the center of its
// rectangle with a synthesized gesture instead of a native click.
func (p *Page) WaitAndTap(ctx context.Context, loc core.Locator) (core.Element, error) {
	el, err := p.Wait(ctx, loc)
	if err != nil {
		return core.Element{}, err
	}
	return el, p.TapElement(ctx, el)
}

func durationOr(d, fallback time.Duration) time.Duration {
	if d <= 0 {
		return fallback
	}
	return d
}
