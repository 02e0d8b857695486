package flow

import (
	"strings"

	"github.com/quokka-io/mobile-harness/pkg/core"
)

// Selector names the element a step acts on. Exactly one field must be
// set. A bare string in YAML is read as an xpath when it starts with "/"
// or "(", and as an accessibility id otherwise.
type Selector struct {
	XPath           string `yaml:"xpath"`
	ID              string `yaml:"id"`
	AccessibilityID string `yaml:"accessibilityId"`
	ClassName       string `yaml:"className"`
	UIAutomator     string `yaml:"uiautomator"`
	Predicate       string `yaml:"predicate"`
	ClassChain      string `yaml:"classChain"`
}

// SelectorFromString applies the bare-string shorthand.
func SelectorFromString(s string) Selector {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "/") || strings.HasPrefix(s, "(") {
		return Selector{XPath: s}
	}
	return Selector{AccessibilityID: s}
}

// IsEmpty reports whether no field is set.
func (s Selector) IsEmpty() bool {
	return s == Selector{}
}

// Locator converts the selector into a core.Locator.
func (s Selector) Locator() (core.Locator, error) {
	var set []core.Locator
	add := func(strategy core.Strategy, expr string) {
		if expr != "" {
			set = append(set, core.Locator{Strategy: strategy, Expression: expr})
		}
	}
	add(core.StrategyXPath, s.XPath)
	add(core.StrategyID, s.ID)
	add(core.StrategyAccessibilityID, s.AccessibilityID)
	add(core.StrategyClassName, s.ClassName)
	add(core.StrategyAndroidUIAutomator, s.UIAutomator)
	add(core.StrategyIOSPredicate, s.Predicate)
	add(core.StrategyIOSClassChain, s.ClassChain)

	switch len(set) {
	case 0:
		return core.Locator{}, core.ErrInvalidArgument.WithMessage("selector is empty")
	case 1:
		return set[0], nil
	default:
		return core.Locator{}, core.ErrInvalidArgument.WithMessagef("selector sets %d strategies, want one", len(set))
	}
}

// Describe returns a short human-readable form.
func (s Selector) Describe() string {
	loc, err := s.Locator()
	if err != nil {
		return "<invalid selector>"
	}
	return loc.String()
}
