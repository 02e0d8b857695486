package page

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/quokka-io/mobile-harness/pkg/core"
)

// Gesture timings.
const (
	TapHold               = 200 * time.Millisecond
	DefaultDragDuration   = 1500 * time.Millisecond
	DefaultSwipeDuration  = 200 * time.Millisecond
	DefaultScrollDuration = 500 * time.Millisecond
	DefaultScrollAmount   = 0.5
)

// RelPoint is a point given as fractions (0.0-1.0) of a window or
// element's width and height.
type RelPoint struct {
	X float64
	Y float64
}

// Center is the middle of the reference rectangle.
var Center = RelPoint{X: 0.5, Y: 0.5}

func (r RelPoint) valid() bool {
	return core.ValidFraction(r.X) && core.ValidFraction(r.Y)
}

// dispatch validates g against the current window and sends it as one
// pointer sequence. All gestures funnel through here.
func (p *Page) dispatch(ctx context.Context, op string, g core.Gesture) (err error) {
	g.Start = g.Start.Rounded()
	g.End = g.End.Rounded()

	ctx, span := p.startSpan(ctx, op,
		attribute.Float64("start.x", g.Start.X), attribute.Float64("start.y", g.Start.Y),
		attribute.Float64("end.x", g.End.X), attribute.Float64("end.y", g.End.Y),
		attribute.Int64("duration_ms", g.Duration.Milliseconds()))
	defer func() { span.End(err) }()

	size, err := p.driver.WindowSize(ctx)
	if err != nil {
		return err
	}
	for _, pt := range []core.Point{g.Start, g.End} {
		if !size.Contains(pt) {
			return core.ErrInvalidArgument.
				WithMessagef("point %s outside window %s", pt, size).
				WithDetails(map[string]interface{}{"op": op})
		}
	}

	p.logger.Debug("gesture", zap.String("op", op), zap.Stringer("gesture", g))
	return p.driver.PerformGesture(ctx, g)
}

// TapAt presses at (x, y), holds briefly and releases.
func (p *Page) TapAt(ctx context.Context, x, y float64) error {
	pt := core.Point{X: x, Y: y}
	return p.dispatch(ctx, "TapAt", core.Gesture{Start: pt, End: pt, Duration: TapHold})
}

// TapElement taps the center of el's rectangle.
func (p *Page) TapElement(ctx context.Context, el core.Element) error {
	rect, err := p.driver.ElementRect(ctx, el)
	if err != nil {
		return err
	}
	c := rect.Center()
	return p.TapAt(ctx, c.X, c.Y)
}

// TapElementAt taps at a fractional offset within el's rectangle.
func (p *Page) TapElementAt(ctx context.Context, el core.Element, xPct, yPct float64) error {
	if !(RelPoint{X: xPct, Y: yPct}).valid() {
		return core.ErrInvalidArgument.WithMessagef("tap offset (%g,%g) outside 0..1", xPct, yPct)
	}
	rect, err := p.driver.ElementRect(ctx, el)
	if err != nil {
		return err
	}
	pt := rect.PointAt(xPct, yPct)
	return p.TapAt(ctx, pt.X, pt.Y)
}

// SwipeByPixels drags from (x0, y0) to (x1, y1) over d. A zero d uses
// DefaultDragDuration.
func (p *Page) SwipeByPixels(ctx context.Context, x0, y0, x1, y1 float64, d time.Duration) error {
	return p.dispatch(ctx, "Swipe", core.Gesture{
		Start:    core.Point{X: x0, Y: y0},
		End:      core.Point{X: x1, Y: y1},
		Duration: durationOr(d, DefaultDragDuration),
	})
}

// Swipe drags between two window-relative points over d, making the
// gesture independent of screen resolution. A zero d uses
// DefaultSwipeDuration.
func (p *Page) Swipe(ctx context.Context, from, to RelPoint, d time.Duration) error {
	if !from.valid() || !to.valid() {
		return core.ErrInvalidArgument.WithMessagef("relative swipe %v -> %v outside 0..1", from, to)
	}
	size, err := p.driver.WindowSize(ctx)
	if err != nil {
		return err
	}
	start := size.Resolve(from.X, from.Y)
	end := size.Resolve(to.X, to.Y)
	return p.SwipeByPixels(ctx, start.X, start.Y, end.X, end.Y, durationOr(d, DefaultSwipeDuration))
}

// SwipeInElement drags between two points relative to el's rectangle,
// for scrolling a bounded sub-view. Pass Center for either end to use
// the element's middle.
func (p *Page) SwipeInElement(ctx context.Context, el core.Element, from, to RelPoint, d time.Duration) error {
	if !from.valid() || !to.valid() {
		return core.ErrInvalidArgument.WithMessagef("relative swipe %v -> %v outside 0..1", from, to)
	}
	rect, err := p.driver.ElementRect(ctx, el)
	if err != nil {
		return err
	}
	start := rect.PointAt(from.X, from.Y)
	end := rect.PointAt(to.X, to.Y)
	return p.SwipeByPixels(ctx, start.X, start.Y, end.X, end.Y, durationOr(d, DefaultSwipeDuration))
}

// ScrollVector returns the window-relative endpoints of a scroll of
// amount in direction. Both ends sit on the center line and are offset
// by amount/2 either side of it; the finger moves against the direction
// so that content travels the requested way ("down" drags upward).
func ScrollVector(direction core.ScrollDirection, amount float64) (from, to RelPoint, err error) {
	if amount <= 0 || amount > 1 {
		return from, to, core.ErrInvalidArgument.WithMessagef("scroll amount %g outside (0,1]", amount)
	}
	from, to = Center, Center
	half := amount / 2
	switch direction {
	case core.ScrollDown:
		from.Y += half
		to.Y -= half
	case core.ScrollUp:
		from.Y -= half
		to.Y += half
	case core.ScrollLeft:
		from.X -= half
		to.X += half
	case core.ScrollRight:
		from.X += half
		to.X -= half
	default:
		return from, to, core.ErrInvalidArgument.WithMessagef("scroll direction is not valid: %s", direction)
	}
	return from, to, nil
}

// Scroll scrolls half a screen in direction.
func (p *Page) Scroll(ctx context.Context, direction core.ScrollDirection) error {
	return p.ScrollBy(ctx, direction, DefaultScrollAmount, DefaultScrollDuration)
}

// ScrollBy scrolls amount (fraction of the window) in direction over d.
func (p *Page) ScrollBy(ctx context.Context, direction core.ScrollDirection, amount float64, d time.Duration) error {
	from, to, err := ScrollVector(direction, amount)
	if err != nil {
		return err
	}
	return p.Swipe(ctx, from, to, durationOr(d, DefaultScrollDuration))
}
