package cli

import (
	"context"
	"fmt"
	"strconv"

	"github.com/urfave/cli/v2"

	"github.com/quokka-io/mobile-harness/pkg/core"
	"github.com/quokka-io/mobile-harness/pkg/executor"
	"github.com/quokka-io/mobile-harness/pkg/flow"
	"github.com/quokka-io/mobile-harness/pkg/page"
)

// selectorFlags pick the element tap and scroll-to act on.
var selectorFlags = []cli.Flag{
	&cli.StringFlag{Name: "xpath", Usage: "XPath locator"},
	&cli.StringFlag{Name: "id", Usage: "Resource id locator"},
	&cli.StringFlag{Name: "accessibility-id", Usage: "Accessibility id (content-desc) locator"},
	&cli.StringFlag{Name: "class-name", Usage: "Class name locator"},
	&cli.StringFlag{Name: "uiautomator", Usage: "Android UiSelector expression"},
	&cli.StringFlag{Name: "predicate", Usage: "iOS predicate string"},
	&cli.StringFlag{Name: "class-chain", Usage: "iOS class chain"},
}

func selectorFromFlags(c *cli.Context) flow.Selector {
	return flow.Selector{
		XPath:           c.String("xpath"),
		ID:              c.String("id"),
		AccessibilityID: c.String("accessibility-id"),
		ClassName:       c.String("class-name"),
		UIAutomator:     c.String("uiautomator"),
		Predicate:       c.String("predicate"),
		ClassChain:      c.String("class-chain"),
	}
}

var windowCommand = &cli.Command{
	Name:  "window",
	Usage: "Print the window size of the device",
	Action: func(c *cli.Context) error {
		return withSession(c, func(ctx context.Context, _ *harness, s executor.Session, _ *page.Page) error {
			size, err := s.WindowSize(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintln(c.App.Writer, size)
			return nil
		})
	},
}

var tapCommand = &cli.Command{
	Name:      "tap",
	Usage:     "Tap screen coordinates or an element",
	ArgsUsage: "[x y]",
	Description: `Tap absolute coordinates, or wait for an element and tap it.

Examples:
  mobile-harness tap 540 1200
  mobile-harness tap --accessibility-id Inloggen
  mobile-harness tap --id checkbox --at "10%, 50%"`,
	Flags: append([]cli.Flag{
		&cli.StringFlag{Name: "at", Usage: `Point inside the element as "x%, y%" (default center)`},
		&cli.StringFlag{Name: "wait", Usage: "Wait profile: short, default, long", Value: "default"},
	}, selectorFlags...),
	Action: func(c *cli.Context) error {
		sel := selectorFromFlags(c)
		if sel.IsEmpty() {
			x, y, err := parseXY(c.Args().Slice())
			if err != nil {
				return err
			}
			return withSession(c, func(ctx context.Context, _ *harness, _ executor.Session, pg *page.Page) error {
				return pg.TapAt(ctx, x, y)
			})
		}

		loc, err := sel.Locator()
		if err != nil {
			return err
		}
		profile, err := page.ParseProfile(c.String("wait"))
		if err != nil {
			return err
		}
		xPct, yPct := page.Center.X, page.Center.Y
		if at := c.String("at"); at != "" {
			if xPct, yPct, err = flow.ParsePercentPoint(at); err != nil {
				return err
			}
		}
		return withSession(c, func(ctx context.Context, _ *harness, _ executor.Session, pg *page.Page) error {
			el, err := pg.WaitFor(ctx, loc, profile)
			if err != nil {
				return err
			}
			return pg.TapElementAt(ctx, el, xPct, yPct)
		})
	},
}

var swipeCommand = &cli.Command{
	Name:      "swipe",
	Usage:     "Swipe between two points",
	ArgsUsage: "[x0 y0 x1 y1]",
	Description: `Swipe between absolute pixel coordinates, or between window-relative
points given with --from and --to.

Examples:
  mobile-harness swipe 900 1200 100 1200 --duration 300ms
  mobile-harness swipe --from "90%, 50%" --to "10%, 50%"`,
	Flags: []cli.Flag{
		&cli.StringFlag{Name: "from", Usage: `Start point as "x%, y%"`},
		&cli.StringFlag{Name: "to", Usage: `End point as "x%, y%"`},
		&cli.DurationFlag{Name: "duration", Usage: "Gesture duration (default 1.5s absolute, 200ms relative)"},
	},
	Action: func(c *cli.Context) error {
		d := c.Duration("duration")
		if c.IsSet("from") || c.IsSet("to") {
			from, err := parseRelPoint(c.String("from"))
			if err != nil {
				return err
			}
			to, err := parseRelPoint(c.String("to"))
			if err != nil {
				return err
			}
			return withSession(c, func(ctx context.Context, _ *harness, _ executor.Session, pg *page.Page) error {
				return pg.Swipe(ctx, from, to, d)
			})
		}

		coords, err := parseFloats(c.Args().Slice(), 4)
		if err != nil {
			return err
		}
		return withSession(c, func(ctx context.Context, _ *harness, _ executor.Session, pg *page.Page) error {
			return pg.SwipeByPixels(ctx, coords[0], coords[1], coords[2], coords[3], d)
		})
	},
}

var scrollCommand = &cli.Command{
	Name:      "scroll",
	Usage:     "Scroll the screen",
	ArgsUsage: "[up|down|left|right]",
	Flags: []cli.Flag{
		&cli.Float64Flag{Name: "amount", Usage: "Fraction of the window to scroll", Value: page.DefaultScrollAmount},
		&cli.DurationFlag{Name: "duration", Usage: "Gesture duration", Value: page.DefaultScrollDuration},
	},
	Action: func(c *cli.Context) error {
		dir := core.ScrollDown
		if c.NArg() > 0 {
			d, err := core.ParseScrollDirection(c.Args().First())
			if err != nil {
				return err
			}
			dir = d
		}
		return withSession(c, func(ctx context.Context, _ *harness, _ executor.Session, pg *page.Page) error {
			return pg.ScrollBy(ctx, dir, c.Float64("amount"), c.Duration("duration"))
		})
	},
}

var scrollToCommand = &cli.Command{
	Name:  "scroll-to",
	Usage: "Scroll until an element is present",
	Flags: append([]cli.Flag{
		&cli.IntFlag{Name: "max-scrolls", Usage: "Scroll budget (default from config)"},
		&cli.StringFlag{Name: "direction", Usage: "Scroll direction", Value: "down"},
		&cli.BoolFlag{Name: "tap", Usage: "Tap the element once found"},
	}, selectorFlags...),
	Action: func(c *cli.Context) error {
		loc, err := selectorFromFlags(c).Locator()
		if err != nil {
			return err
		}
		dir, err := core.ParseScrollDirection(c.String("direction"))
		if err != nil {
			return err
		}
		return withSession(c, func(ctx context.Context, h *harness, _ executor.Session, pg *page.Page) error {
			maxScrolls := h.cfg.Scroll.MaxScrolls
			if c.IsSet("max-scrolls") {
				maxScrolls = c.Int("max-scrolls")
			}
			el, err := pg.ScrollTo(ctx, loc, page.WithMaxScrolls(maxScrolls), page.WithDirection(dir))
			if err != nil {
				return err
			}
			rect, err := pg.Rect(ctx, el)
			if err != nil {
				return err
			}
			fmt.Fprintf(c.App.Writer, "found %s at %s\n", el, rect)
			if c.Bool("tap") {
				return pg.TapElement(ctx, el)
			}
			return nil
		})
	},
}

func parseXY(args []string) (x, y float64, err error) {
	v, err := parseFloats(args, 2)
	if err != nil {
		return 0, 0, err
	}
	return v[0], v[1], nil
}

func parseFloats(args []string, n int) ([]float64, error) {
	if len(args) != n {
		return nil, fmt.Errorf("expected %d coordinates, got %d", n, len(args))
	}
	out := make([]float64, n)
	for i, a := range args {
		v, err := strconv.ParseFloat(a, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid coordinate %q", a)
		}
		out[i] = v
	}
	return out, nil
}

func parseRelPoint(s string) (page.RelPoint, error) {
	if s == "" {
		return page.RelPoint{}, fmt.Errorf(`--from and --to are both required`)
	}
	x, y, err := flow.ParsePercentPoint(s)
	if err != nil {
		return page.RelPoint{}, err
	}
	return page.RelPoint{X: x, Y: y}, nil
}
