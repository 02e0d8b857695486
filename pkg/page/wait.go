package page

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/quokka-io/mobile-harness/pkg/core"
)

// Default wait budgets.
const (
	DefaultShortTimeout = 3 * time.Second
	DefaultTimeout      = 60 * time.Second
	DefaultLongTimeout  = 60 * time.Second
	DefaultPollInterval = 250 * time.Millisecond
)

// URLAttribute is the attribute WaitForURLText reads.
const URLAttribute = "value"

// URLPrefix is the scheme prefix WaitForURLText waits for.
const URLPrefix = "http"

// Profile selects one of the page's wait budgets.
type Profile int

// Wait profiles.
const (
	ProfileDefault Profile = iota
	ProfileShort
	ProfileLong
)

func (p Profile) String() string {
	switch p {
	case ProfileShort:
		return "short"
	case ProfileLong:
		return "long"
	default:
		return "default"
	}
}

// ParseProfile parses "short", "default" or "long". Empty means default.
func ParseProfile(s string) (Profile, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "default":
		return ProfileDefault, nil
	case "short":
		return ProfileShort, nil
	case "long":
		return ProfileLong, nil
	default:
		return ProfileDefault, core.ErrInvalidArgument.WithMessagef("unknown wait profile %q", s)
	}
}

// Profiles holds the timeout of each wait profile and the poll interval
// shared by all of them.
type Profiles struct {
	Short    time.Duration `yaml:"short"`
	Default  time.Duration `yaml:"default"`
	Long     time.Duration `yaml:"long"`
	Interval time.Duration `yaml:"interval"`
}

// DefaultProfiles returns 3s / 60s / 60s polled every 250ms.
func DefaultProfiles() Profiles {
	return Profiles{
		Short:    DefaultShortTimeout,
		Default:  DefaultTimeout,
		Long:     DefaultLongTimeout,
		Interval: DefaultPollInterval,
	}
}

func (p Profiles) withDefaults() Profiles {
	d := DefaultProfiles()
	p.Short = durationOr(p.Short, d.Short)
	p.Default = durationOr(p.Default, d.Default)
	p.Long = durationOr(p.Long, d.Long)
	p.Interval = durationOr(p.Interval, d.Interval)
	return p
}

// Timeout returns the budget for profile.
func (p Profiles) Timeout(profile Profile) time.Duration {
	switch profile {
	case ProfileShort:
		return p.Short
	case ProfileLong:
		return p.Long
	default:
		return p.Default
	}
}

var errNotYet = errors.New("condition not met yet")

// Until polls cond every interval until it holds or timeout elapses. A
// condition error stops the poll immediately and is returned as is;
// running out of time yields core.ErrTimeout.
func Until(ctx context.Context, d Driver, timeout, interval time.Duration, cond Condition) (core.Element, error) {
	waitCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var (
		found core.Element
		polls int
	)
	op := func() error {
		polls++
		el, ok, err := cond.Evaluate(waitCtx, d)
		if err != nil {
			if waitCtx.Err() != nil {
				// the request was cut off by our own deadline
				return waitCtx.Err()
			}
			return backoff.Permanent(err)
		}
		if !ok {
			return errNotYet
		}
		found = el
		return nil
	}

	b := backoff.WithContext(backoff.NewConstantBackOff(interval), waitCtx)
	err := backoff.Retry(op, b)
	if err == nil {
		return found, nil
	}

	if ctx.Err() != nil {
		return core.Element{}, ctx.Err()
	}
	if errors.Is(err, errNotYet) || errors.Is(err, context.DeadlineExceeded) {
		return core.Element{}, core.ErrTimeout.
			WithMessagef("timed out after %s waiting for %s", timeout, cond).
			WithDetails(map[string]interface{}{"polls": polls}).
			WithCause(context.DeadlineExceeded)
	}
	return core.Element{}, err
}

func (p *Page) until(ctx context.Context, timeout time.Duration, cond Condition) (core.Element, error) {
	p.logger.Debug("waiting", zap.Stringer("condition", cond), zap.Duration("timeout", timeout))
	return Until(ctx, p.driver, timeout, p.profiles.Interval, cond)
}

// Wait blocks until loc is present, using the default profile.
func (p *Page) Wait(ctx context.Context, loc core.Locator) (core.Element, error) {
	return p.WaitFor(ctx, loc, ProfileDefault)
}

// ShortWait is Wait with the short profile.
func (p *Page) ShortWait(ctx context.Context, loc core.Locator) (core.Element, error) {
	return p.WaitFor(ctx, loc, ProfileShort)
}

// LongWait is Wait with the long profile.
func (p *Page) LongWait(ctx context.Context, loc core.Locator) (core.Element, error) {
	return p.WaitFor(ctx, loc, ProfileLong)
}

// WaitFor blocks until loc is present or profile's timeout elapses.
func (p *Page) WaitFor(ctx context.Context, loc core.Locator, profile Profile) (el core.Element, err error) {
	if err := loc.Validate(); err != nil {
		return core.Element{}, err
	}
	ctx, span := p.startSpan(ctx, "Wait", append(locatorAttrs(loc), attribute.String("profile", profile.String()))...)
	defer func() { span.End(err) }()

	el, err = p.until(ctx, p.profiles.Timeout(profile), PresenceOf{Locator: loc})
	if err != nil {
		return core.Element{}, err
	}
	el.Locator = loc
	return el, nil
}

// WaitNonzeroSize waits for loc to be present and then for its rectangle
// to have non-zero width and height. Elements can exist in the tree
// before layout has finished.
func (p *Page) WaitNonzeroSize(ctx context.Context, loc core.Locator) (core.Element, error) {
	el, err := p.Wait(ctx, loc)
	if err != nil {
		return core.Element{}, err
	}

	ctx, span := p.startSpan(ctx, "WaitNonzeroSize", locatorAttrs(loc)...)
	_, err = p.until(ctx, p.profiles.Default, NonzeroSize{Element: el})
	span.End(err)
	if err != nil {
		return core.Element{}, err
	}
	return el, nil
}

// WaitForURLText waits for loc and then for its "value" attribute to
// start with "http", returning the attribute. Address bars are filled in
// asynchronously after navigation.
func (p *Page) WaitForURLText(ctx context.Context, loc core.Locator) (string, error) {
	return p.WaitForAttributePrefix(ctx, loc, URLAttribute, URLPrefix)
}

// WaitForAttributePrefix waits for loc and then for attribute to start
// with prefix, returning the attribute's value.
func (p *Page) WaitForAttributePrefix(ctx context.Context, loc core.Locator, attr, prefix string) (string, error) {
	el, err := p.Wait(ctx, loc)
	if err != nil {
		return "", err
	}

	ctx, span := p.startSpan(ctx, "WaitForAttributePrefix",
		append(locatorAttrs(loc), attribute.String("attribute", attr), attribute.String("prefix", prefix))...)
	cond := &AttributePrefix{Element: el, Attribute: attr, Prefix: prefix}
	_, err = p.until(ctx, p.profiles.Default, cond)
	span.End(err)
	if err != nil {
		return "", err
	}
	return cond.Value, nil
}
