package executor

import (
	"context"
	"fmt"
	"time"

	"github.com/quokka-io/mobile-harness/pkg/core"
	"github.com/quokka-io/mobile-harness/pkg/flow"
	"github.com/quokka-io/mobile-harness/pkg/page"
)

// dispatch routes a step to the page facade or the session. It returns
// a human-readable message and any artifacts the step produced.
//
//nolint:gocyclo
func (fr *flowRunner) dispatch(ctx context.Context, idx int, step flow.Step) (string, []Attachment, error) {
	pg := fr.page

	switch s := step.(type) {
	// App lifecycle - inject flow's appId if not specified
	case *flow.LaunchAppStep:
		appID, err := fr.resolveAppID(s.AppID)
		if err != nil {
			return "", nil, err
		}
		return "launched " + appID, nil, fr.session.ActivateApp(ctx, appID)

	case *flow.StopAppStep:
		appID, err := fr.resolveAppID(s.AppID)
		if err != nil {
			return "", nil, err
		}
		return "stopped " + appID, nil, fr.session.TerminateApp(ctx, appID)

	// Waits
	case *flow.WaitStep:
		loc, profile, err := locateWith(s.Selector, s.Profile)
		if err != nil {
			return "", nil, err
		}
		el, err := pg.WaitFor(ctx, loc, profile)
		return "found " + el.String(), nil, err

	case *flow.WaitForNonzeroSizeStep:
		loc, err := s.Selector.Locator()
		if err != nil {
			return "", nil, err
		}
		el, err := pg.WaitNonzeroSize(ctx, loc)
		return "laid out " + el.String(), nil, err

	case *flow.WaitForURLStep:
		loc, err := s.Selector.Locator()
		if err != nil {
			return "", nil, err
		}
		url, err := pg.WaitForURLText(ctx, loc)
		return "url " + url, nil, err

	// Interaction
	case *flow.TapOnStep:
		return fr.tapOn(ctx, s)

	case *flow.TapOnPointStep:
		x, y := s.X, s.Y
		if s.Point != "" {
			px, py, err := flow.ParsePercentPoint(s.Point)
			if err != nil {
				return "", nil, core.ErrInvalidArgument.WithMessage(err.Error())
			}
			size, err := fr.session.WindowSize(ctx)
			if err != nil {
				return "", nil, err
			}
			pt := size.Resolve(px, py)
			x, y = pt.X, pt.Y
		}
		return fmt.Sprintf("tapped (%g,%g)", x, y), nil, pg.TapAt(ctx, x, y)

	case *flow.InputTextStep:
		loc, err := s.Selector.Locator()
		if err != nil {
			return "", nil, err
		}
		// the text itself is not echoed: it is often a password
		el, err := pg.WaitAndType(ctx, loc, s.Text)
		return fmt.Sprintf("typed %d characters into %s", len([]rune(s.Text)), el), nil, err

	case *flow.SwipeStep:
		return "", nil, fr.swipe(ctx, s)

	case *flow.ScrollStep:
		dir := core.ScrollDown
		if s.Direction != "" {
			d, err := core.ParseScrollDirection(s.Direction)
			if err != nil {
				return "", nil, err
			}
			dir = d
		}
		amount := s.Amount
		if amount == 0 {
			amount = page.DefaultScrollAmount
		}
		return "scrolled " + dir.String(), nil, pg.ScrollBy(ctx, dir, amount, millis(s.Duration))

	case *flow.ScrollToStep:
		loc, err := s.Selector.Locator()
		if err != nil {
			return "", nil, err
		}
		opts := []page.ScrollOption{page.WithMaxScrolls(fr.runner.config.MaxScrolls)}
		if s.MaxScrolls > 0 {
			opts = append(opts, page.WithMaxScrolls(s.MaxScrolls))
		}
		if s.Direction != "" {
			d, err := core.ParseScrollDirection(s.Direction)
			if err != nil {
				return "", nil, err
			}
			opts = append(opts, page.WithDirection(d))
		}
		el, err := pg.ScrollTo(ctx, loc, opts...)
		return "found " + el.String(), nil, err

	case *flow.HideKeyboardStep:
		return "", nil, fr.session.HideKeyboard(ctx)

	case *flow.BackStep:
		return "", nil, fr.session.Back(ctx)

	// Media
	case *flow.TakeScreenshotStep:
		name := s.Path
		if name == "" {
			name = fmt.Sprintf("%03d-screenshot", idx)
		}
		att, err := fr.capture(ctx, name)
		if err != nil {
			return "", nil, err
		}
		return "saved " + att.Path, []Attachment{att}, nil

	default:
		return "", nil, core.ErrInvalidArgument.WithMessagef("unsupported step type %q", step.Type())
	}
}

func (fr *flowRunner) resolveAppID(stepAppID string) (string, error) {
	if stepAppID != "" {
		return stepAppID, nil
	}
	if fr.appID != "" {
		return fr.appID, nil
	}
	return "", core.ErrInvalidArgument.WithMessage("no appId: set it on the step, the flow header or the capabilities")
}

func (fr *flowRunner) tapOn(ctx context.Context, s *flow.TapOnStep) (string, []Attachment, error) {
	loc, profile, err := locateWith(s.Selector, s.Profile)
	if err != nil {
		return "", nil, err
	}
	pg := fr.page

	switch {
	case s.Point != "":
		xPct, yPct, err := flow.ParsePercentPoint(s.Point)
		if err != nil {
			return "", nil, core.ErrInvalidArgument.WithMessage(err.Error())
		}
		el, err := pg.WaitFor(ctx, loc, profile)
		if err != nil {
			return "", nil, err
		}
		return fmt.Sprintf("tapped %s at %s", el, s.Point), nil, pg.TapElementAt(ctx, el, xPct, yPct)

	case s.Gesture:
		el, err := pg.WaitFor(ctx, loc, profile)
		if err != nil {
			return "", nil, err
		}
		return "tapped " + el.String(), nil, pg.TapElement(ctx, el)

	default:
		el, err := pg.WaitForAndClick(ctx, loc, profile)
		return "clicked " + el.String(), nil, err
	}
}

func (fr *flowRunner) swipe(ctx context.Context, s *flow.SwipeStep) error {
	pg := fr.page
	d := millis(s.Duration)

	if !s.IsRelative() {
		return pg.SwipeByPixels(ctx, s.StartX, s.StartY, s.EndX, s.EndY, d)
	}

	from, err := relPoint(s.Start)
	if err != nil {
		return err
	}
	to, err := relPoint(s.End)
	if err != nil {
		return err
	}

	if s.Element == nil {
		return pg.Swipe(ctx, from, to, d)
	}
	loc, err := s.Element.Locator()
	if err != nil {
		return err
	}
	el, err := pg.Wait(ctx, loc)
	if err != nil {
		return err
	}
	return pg.SwipeInElement(ctx, el, from, to, d)
}

func locateWith(sel flow.Selector, profileName string) (core.Locator, page.Profile, error) {
	loc, err := sel.Locator()
	if err != nil {
		return core.Locator{}, page.ProfileDefault, err
	}
	profile, err := page.ParseProfile(profileName)
	if err != nil {
		return core.Locator{}, page.ProfileDefault, err
	}
	return loc, profile, nil
}

func relPoint(s string) (page.RelPoint, error) {
	x, y, err := flow.ParsePercentPoint(s)
	if err != nil {
		return page.RelPoint{}, core.ErrInvalidArgument.WithMessage(err.Error())
	}
	return page.RelPoint{X: x, Y: y}, nil
}

func millis(ms int) time.Duration {
	return time.Duration(ms) * time.Millisecond
}
