package page

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/quokka-io/mobile-harness/pkg/core"
)

// DefaultMaxScrolls bounds ScrollTo when no WithMaxScrolls is given.
const DefaultMaxScrolls = 10

type scrollConfig struct {
	maxScrolls int
	direction  core.ScrollDirection
}

// ScrollOption configures ScrollTo.
type ScrollOption func(*scrollConfig)

// WithMaxScrolls sets how many scroll gestures ScrollTo may perform.
func WithMaxScrolls(n int) ScrollOption {
	return func(c *scrollConfig) { c.maxScrolls = n }
}

// WithDirection sets the scroll direction (default down).
func WithDirection(d core.ScrollDirection) ScrollOption {
	return func(c *scrollConfig) { c.direction = d }
}

// ScrollTo scrolls until loc resolves or the scroll budget runs out.
//
// The first probe is a short wait so an element that is already on
// screen costs no scroll. Later probes are single lookups. Each miss is
// followed by one Scroll in the configured direction; after the last
// allowed scroll the tree is probed once more before giving up with
// core.ErrNotFound.
func (p *Page) ScrollTo(ctx context.Context, loc core.Locator, opts ...ScrollOption) (el core.Element, err error) {
	cfg := scrollConfig{maxScrolls: DefaultMaxScrolls, direction: core.ScrollDown}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.maxScrolls < 1 {
		return core.Element{}, core.ErrInvalidArgument.WithMessagef("max scrolls must be positive, got %d", cfg.maxScrolls)
	}
	if !cfg.direction.Valid() {
		return core.Element{}, core.ErrInvalidArgument.WithMessagef("scroll direction is not valid: %s", cfg.direction)
	}
	if err := loc.Validate(); err != nil {
		return core.Element{}, err
	}

	ctx, span := p.startSpan(ctx, "ScrollTo", append(locatorAttrs(loc),
		attribute.Int("max_scrolls", cfg.maxScrolls),
		attribute.String("direction", cfg.direction.String()))...)
	defer func() { span.End(err) }()

	scrolls := 0
	for {
		if scrolls == 0 {
			el, err = p.ShortWait(ctx, loc)
		} else {
			el, err = p.driver.FindElement(ctx, loc)
		}
		if err == nil {
			el.Locator = loc
			span.SetAttributes(attribute.Int("scrolls", scrolls))
			return el, nil
		}
		if !errors.Is(err, core.ErrNotFound) && !errors.Is(err, core.ErrTimeout) {
			return core.Element{}, err
		}
		if scrolls == cfg.maxScrolls {
			break
		}

		p.logger.Debug("scrolling to element",
			zap.Stringer("locator", loc), zap.Int("scroll", scrolls+1), zap.Stringer("direction", cfg.direction))
		if err := p.Scroll(ctx, cfg.direction); err != nil {
			return core.Element{}, err
		}
		scrolls++
	}

	return core.Element{}, core.ErrNotFound.
		WithMessagef("could not find element after %d scrolls", cfg.maxScrolls).
		WithDetails(map[string]interface{}{"locator": loc.String(), "direction": cfg.direction.String()})
}
