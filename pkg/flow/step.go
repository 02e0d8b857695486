package flow

import "fmt"

// StepType represents the type of step.
type StepType string

// Step type constants.
const (
	// App lifecycle
	StepLaunchApp StepType = "launchApp"
	StepStopApp   StepType = "stopApp"

	// Waits
	StepWait               StepType = "wait"
	StepWaitForNonzeroSize StepType = "waitForNonzeroSize"
	StepWaitForURL         StepType = "waitForURL"

	// Interaction
	StepTapOn        StepType = "tapOn"
	StepTapOnPoint   StepType = "tapOnPoint"
	StepInputText    StepType = "inputText"
	StepSwipe        StepType = "swipe"
	StepScroll       StepType = "scroll"
	StepScrollTo     StepType = "scrollTo"
	StepHideKeyboard StepType = "hideKeyboard"
	StepBack         StepType = "back"

	// Media
	StepTakeScreenshot StepType = "takeScreenshot"
)

// Step is the interface for all flow steps.
type Step interface {
	Type() StepType
	IsOptional() bool
	Label() string
	Group() string
	Describe() string
}

// BaseStep contains common fields for all steps.
type BaseStep struct {
	StepType  StepType `yaml:"-"`
	Optional  bool     `yaml:"optional"`
	StepLabel string   `yaml:"label"`
	// StepGroup ties optional steps together: once one of them fails the
	// rest of the group is skipped.
	StepGroup string `yaml:"group"`
}

// Type returns the step type.
func (b *BaseStep) Type() StepType { return b.StepType }

// IsOptional returns whether the step is optional.
func (b *BaseStep) IsOptional() bool { return b.Optional }

// Label returns the step label.
func (b *BaseStep) Label() string { return b.StepLabel }

// Group returns the step's group name.
func (b *BaseStep) Group() string { return b.StepGroup }

// Describe returns a human-readable description.
func (b *BaseStep) Describe() string { return string(b.StepType) }

// ============================================
// App Lifecycle Steps
// ============================================

// LaunchAppStep activates the app. An empty AppID uses the flow's appId.
type LaunchAppStep struct {
	BaseStep `yaml:",inline"`
	AppID    string `yaml:"appId"`
}

// StopAppStep terminates the app.
type StopAppStep struct {
	BaseStep `yaml:",inline"`
	AppID    string `yaml:"appId"`
}

// ============================================
// Wait Steps
// ============================================

// WaitStep waits for an element to be present.
type WaitStep struct {
	BaseStep `yaml:",inline"`
	Selector Selector `yaml:",inline"`
	Profile  string   `yaml:"profile"` // short, default, long
}

// WaitForNonzeroSizeStep waits for an element to be laid out.
type WaitForNonzeroSizeStep struct {
	BaseStep `yaml:",inline"`
	Selector Selector `yaml:",inline"`
}

// WaitForURLStep waits for an address field to hold a URL.
type WaitForURLStep struct {
	BaseStep `yaml:",inline"`
	Selector Selector `yaml:",inline"`
}

// ============================================
// Interaction Steps
// ============================================

// TapOnStep waits for an element and clicks it. With Point set the
// element is tapped at that "x%, y%" offset instead; with Gesture set
// its center is tapped with a pointer sequence.
type TapOnStep struct {
	BaseStep `yaml:",inline"`
	Selector Selector `yaml:",inline"`
	Profile  string   `yaml:"profile"`
	Point    string   `yaml:"point"`
	Gesture  bool     `yaml:"gesture"`
}

// TapOnPointStep taps on screen coordinates, absolute or "x%, y%".
type TapOnPointStep struct {
	BaseStep `yaml:",inline"`
	X        float64 `yaml:"x"`
	Y        float64 `yaml:"y"`
	Point    string  `yaml:"point"`
}

// InputTextStep waits for an element and types into it.
type InputTextStep struct {
	BaseStep `yaml:",inline"`
	Text     string   `yaml:"text"`
	Selector Selector `yaml:",inline"`
}

// SwipeStep drags between two points: "x%, y%" of the window (or of
// Element when set), or absolute pixels.
type SwipeStep struct {
	BaseStep `yaml:",inline"`
	Element  *Selector `yaml:"element"`
	Start    string    `yaml:"start"`
	End      string    `yaml:"end"`
	StartX   float64   `yaml:"startX"`
	StartY   float64   `yaml:"startY"`
	EndX     float64   `yaml:"endX"`
	EndY     float64   `yaml:"endY"`
	Duration int       `yaml:"duration"` // ms
}

// IsRelative reports whether the swipe uses percentage endpoints.
func (s *SwipeStep) IsRelative() bool {
	return s.Start != "" || s.End != ""
}

// ScrollStep scrolls the screen.
type ScrollStep struct {
	BaseStep  `yaml:",inline"`
	Direction string  `yaml:"direction"`
	Amount    float64 `yaml:"amount"`   // fraction of the window, default 0.5
	Duration  int     `yaml:"duration"` // ms
}

// ScrollToStep scrolls until an element is present.
type ScrollToStep struct {
	BaseStep   `yaml:",inline"`
	Selector   Selector `yaml:",inline"`
	Direction  string   `yaml:"direction"`
	MaxScrolls int      `yaml:"maxScrolls"`
}

// HideKeyboardStep hides the keyboard.
type HideKeyboardStep struct {
	BaseStep `yaml:",inline"`
}

// BackStep navigates back.
type BackStep struct {
	BaseStep `yaml:",inline"`
}

// ============================================
// Media Steps
// ============================================

// TakeScreenshotStep saves a screenshot. Path is relative to the
// artifacts directory; ".png" is appended when missing.
type TakeScreenshotStep struct {
	BaseStep `yaml:",inline"`
	Path     string `yaml:"path"`
}

// ============================================
// Describe overrides
// ============================================

func (s *LaunchAppStep) Describe() string {
	if s.AppID != "" {
		return fmt.Sprintf("launchApp: %s", s.AppID)
	}
	return "launchApp"
}

func (s *StopAppStep) Describe() string {
	if s.AppID != "" {
		return fmt.Sprintf("stopApp: %s", s.AppID)
	}
	return "stopApp"
}

func (s *WaitStep) Describe() string {
	if s.Profile != "" {
		return fmt.Sprintf("wait (%s): %s", s.Profile, s.Selector.Describe())
	}
	return "wait: " + s.Selector.Describe()
}

func (s *WaitForNonzeroSizeStep) Describe() string {
	return "waitForNonzeroSize: " + s.Selector.Describe()
}

func (s *WaitForURLStep) Describe() string {
	return "waitForURL: " + s.Selector.Describe()
}

func (s *TapOnStep) Describe() string {
	if s.Point != "" {
		return fmt.Sprintf("tapOn: %s at %s", s.Selector.Describe(), s.Point)
	}
	return "tapOn: " + s.Selector.Describe()
}

func (s *TapOnPointStep) Describe() string {
	if s.Point != "" {
		return "tapOnPoint: " + s.Point
	}
	return fmt.Sprintf("tapOnPoint: %g,%g", s.X, s.Y)
}

func (s *InputTextStep) Describe() string {
	return fmt.Sprintf("inputText: %s", s.Selector.Describe())
}

func (s *SwipeStep) Describe() string {
	if s.IsRelative() {
		return fmt.Sprintf("swipe: %s -> %s", s.Start, s.End)
	}
	return fmt.Sprintf("swipe: %g,%g -> %g,%g", s.StartX, s.StartY, s.EndX, s.EndY)
}

func (s *ScrollStep) Describe() string {
	if s.Direction != "" {
		return "scroll: " + s.Direction
	}
	return "scroll"
}

func (s *ScrollToStep) Describe() string {
	return "scrollTo: " + s.Selector.Describe()
}

func (s *TakeScreenshotStep) Describe() string {
	return "takeScreenshot: " + s.Path
}
