package appium

import (
	"context"

	"github.com/quokka-io/mobile-harness/pkg/core"
)

// touchSource is the id of the single pointer input source.
const touchSource = "finger1"

// pointerActions encodes g as one W3C touch pointer sequence: move to the
// start, press, then hold in place (tap) or move to the end over the
// gesture's duration (swipe), and release.
func pointerActions(g core.Gesture) []map[string]interface{} {
	ms := g.Duration.Milliseconds()
	actions := []map[string]interface{}{
		{"type": "pointerMove", "duration": 0, "x": int(g.Start.X), "y": int(g.Start.Y), "origin": "viewport"},
		{"type": "pointerDown", "button": 0},
	}
	if g.IsTap() {
		actions = append(actions, map[string]interface{}{"type": "pause", "duration": ms})
	} else {
		actions = append(actions, map[string]interface{}{
			"type": "pointerMove", "duration": ms, "x": int(g.End.X), "y": int(g.End.Y), "origin": "viewport",
		})
	}
	return append(actions, map[string]interface{}{"type": "pointerUp", "button": 0})
}

// PerformGesture dispatches g as a single pointer action sequence.
func (c *Client) PerformGesture(ctx context.Context, g core.Gesture) error {
	payload := []map[string]interface{}{
		{
			"type":       "pointer",
			"id":         touchSource,
			"parameters": map[string]interface{}{"pointerType": "touch"},
			"actions":    pointerActions(g),
		},
	}
	_, err := c.post(ctx, c.sessionPath()+"/actions", map[string]interface{}{"actions": payload})
	return err
}

// ReleaseActions releases any pointer left pressed by an interrupted
// sequence.
func (c *Client) ReleaseActions(ctx context.Context) error {
	_, err := c.delete(ctx, c.sessionPath()+"/actions")
	return err
}
