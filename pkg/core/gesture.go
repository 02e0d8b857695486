package core

import (
	"fmt"
	"strings"
	"time"
)

// Gesture describes one single-finger pointer sequence. When Start and End
// coincide it is a press held for Duration; otherwise the finger is
// pressed at Start, moved to End over Duration and released.
type Gesture struct {
	Start    Point
	End      Point
	Duration time.Duration
}

// IsTap reports whether the gesture has no movement.
func (g Gesture) IsTap() bool {
	return g.Start == g.End
}

func (g Gesture) String() string {
	if g.IsTap() {
		return fmt.Sprintf("tap %s hold %s", g.Start, g.Duration)
	}
	return fmt.Sprintf("swipe %s -> %s over %s", g.Start, g.End, g.Duration)
}

// ScrollDirection is the direction content should move into view from.
type ScrollDirection int

// Scroll directions.
const (
	ScrollDown ScrollDirection = iota + 1
	ScrollUp
	ScrollLeft
	ScrollRight
)

func (d ScrollDirection) String() string {
	switch d {
	case ScrollDown:
		return "down"
	case ScrollUp:
		return "up"
	case ScrollLeft:
		return "left"
	case ScrollRight:
		return "right"
	default:
		return fmt.Sprintf("ScrollDirection(%d)", int(d))
	}
}

// Valid reports whether d is one of the four directions.
func (d ScrollDirection) Valid() bool {
	return d >= ScrollDown && d <= ScrollRight
}

// Opposite returns the reverse direction.
func (d ScrollDirection) Opposite() ScrollDirection {
	switch d {
	case ScrollDown:
		return ScrollUp
	case ScrollUp:
		return ScrollDown
	case ScrollLeft:
		return ScrollRight
	case ScrollRight:
		return ScrollLeft
	default:
		return d
	}
}

// ParseScrollDirection parses "up", "down", "left" or "right".
func ParseScrollDirection(s string) (ScrollDirection, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "down":
		return ScrollDown, nil
	case "up":
		return ScrollUp, nil
	case "left":
		return ScrollLeft, nil
	case "right":
		return ScrollRight, nil
	default:
		return 0, ErrInvalidArgument.WithMessagef("invalid scroll direction %q", s)
	}
}

// UnmarshalText lets directions be read from YAML and flags.
func (d *ScrollDirection) UnmarshalText(text []byte) error {
	parsed, err := ParseScrollDirection(string(text))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}
