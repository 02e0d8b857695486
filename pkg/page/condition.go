package page

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/quokka-io/mobile-harness/pkg/core"
)

// Condition is a predicate the wait engine polls. Evaluate returns the
// element the condition is about once it holds. A returned error is
// terminal for the wait; "not yet" is (_, false, nil).
type Condition interface {
	Evaluate(ctx context.Context, d Driver) (core.Element, bool, error)
	String() string
}

// PresenceOf holds once Locator resolves to an element.
type PresenceOf struct {
	Locator core.Locator
}

// Evaluate implements Condition.
func (c PresenceOf) Evaluate(ctx context.Context, d Driver) (core.Element, bool, error) {
	el, err := d.FindElement(ctx, c.Locator)
	if errors.Is(err, core.ErrNotFound) {
		return core.Element{}, false, nil
	}
	if err != nil {
		return core.Element{}, false, err
	}
	return el, true, nil
}

func (c PresenceOf) String() string {
	return "presence of " + c.Locator.String()
}

// NonzeroSize holds once Element has been laid out with both dimensions > 0.
type NonzeroSize struct {
	Element core.Element
}

// Evaluate implements Condition.
func (c NonzeroSize) Evaluate(ctx context.Context, d Driver) (core.Element, bool, error) {
	rect, err := d.ElementRect(ctx, c.Element)
	if err != nil {
		return core.Element{}, false, err
	}
	return c.Element, rect.HasArea(), nil
}

func (c NonzeroSize) String() string {
	return "nonzero size of " + c.Element.String()
}

// AttributePrefix holds once Element's Attribute starts with Prefix.
type AttributePrefix struct {
	Element   core.Element
	Attribute string
	Prefix    string

	// Value is the attribute value that satisfied the condition.
	Value string
}

// Evaluate implements Condition.
func (c *AttributePrefix) Evaluate(ctx context.Context, d Driver) (core.Element, bool, error) {
	v, err := d.ElementAttribute(ctx, c.Element, c.Attribute)
	if err != nil {
		return core.Element{}, false, err
	}
	if !strings.HasPrefix(v, c.Prefix) {
		return core.Element{}, false, nil
	}
	c.Value = v
	return c.Element, true, nil
}

func (c *AttributePrefix) String() string {
	return fmt.Sprintf("%s of %s to start with %q", c.Attribute, c.Element, c.Prefix)
}
