package core

import (
	"fmt"
	"strings"
)

// Strategy is a W3C / Appium locator strategy.
type Strategy string

// Locator strategies understood by the automation server.
const (
	StrategyXPath              Strategy = "xpath"
	StrategyID                 Strategy = "id"
	StrategyAccessibilityID    Strategy = "accessibility id"
	StrategyClassName          Strategy = "class name"
	StrategyAndroidUIAutomator Strategy = "-android uiautomator"
	StrategyIOSPredicate       Strategy = "-ios predicate string"
	StrategyIOSClassChain      Strategy = "-ios class chain"
)

var strategyAliases = map[string]Strategy{
	"xpath":                 StrategyXPath,
	"id":                    StrategyID,
	"accessibility id":      StrategyAccessibilityID,
	"accessibilityid":       StrategyAccessibilityID,
	"accessibility_id":      StrategyAccessibilityID,
	"class name":            StrategyClassName,
	"classname":             StrategyClassName,
	"class_name":            StrategyClassName,
	"-android uiautomator":  StrategyAndroidUIAutomator,
	"uiautomator":           StrategyAndroidUIAutomator,
	"-ios predicate string": StrategyIOSPredicate,
	"predicate":             StrategyIOSPredicate,
	"-ios class chain":      StrategyIOSClassChain,
	"classchain":            StrategyIOSClassChain,
}

// ParseStrategy resolves a strategy name, accepting the W3C spelling and
// a few shorthand aliases used in flow files.
func ParseStrategy(s string) (Strategy, error) {
	if st, ok := strategyAliases[strings.ToLower(strings.TrimSpace(s))]; ok {
		return st, nil
	}
	return "", ErrInvalidArgument.WithMessagef("unknown locator strategy %q", s)
}

// Locator identifies zero or more elements in the current UI tree.
type Locator struct {
	Strategy   Strategy
	Expression string
}

// ByXPath returns an xpath locator.
func ByXPath(expr string) Locator { return Locator{Strategy: StrategyXPath, Expression: expr} }

// ByID returns a resource-id locator.
func ByID(id string) Locator { return Locator{Strategy: StrategyID, Expression: id} }

// ByAccessibilityID returns an accessibility id (content-desc / name) locator.
func ByAccessibilityID(id string) Locator {
	return Locator{Strategy: StrategyAccessibilityID, Expression: id}
}

// ByClassName returns a class name locator.
func ByClassName(name string) Locator {
	return Locator{Strategy: StrategyClassName, Expression: name}
}

// ByUIAutomator returns an Android UiSelector locator.
func ByUIAutomator(selector string) Locator {
	return Locator{Strategy: StrategyAndroidUIAutomator, Expression: selector}
}

// ByIOSPredicate returns an iOS NSPredicate locator.
func ByIOSPredicate(predicate string) Locator {
	return Locator{Strategy: StrategyIOSPredicate, Expression: predicate}
}

// Validate checks the strategy is known and the expression non-empty.
func (l Locator) Validate() error {
	if _, err := ParseStrategy(string(l.Strategy)); err != nil {
		return err
	}
	if strings.TrimSpace(l.Expression) == "" {
		return ErrInvalidArgument.WithMessagef("empty %s locator expression", l.Strategy)
	}
	return nil
}

// IsZero reports whether the locator is unset.
func (l Locator) IsZero() bool {
	return l.Strategy == "" && l.Expression == ""
}

func (l Locator) String() string {
	return fmt.Sprintf("%s=%s", l.Strategy, l.Expression)
}

// Element is an opaque reference to a live UI element returned by the
// driver session. It is only valid for the UI tree it was resolved
// against; operations on it after navigation fail with ErrStaleElement.
type Element struct {
	ID      string
	Locator Locator // locator it was resolved from, for messages
}

func (e Element) String() string {
	if e.Locator.IsZero() {
		return "element(" + e.ID + ")"
	}
	return fmt.Sprintf("element(%s, %s)", e.ID, e.Locator)
}
