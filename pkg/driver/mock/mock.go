// Package mock provides an in-memory driver session for testing without a
// real device or Appium server.
package mock

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/quokka-io/mobile-harness/pkg/core"
)

// Element is a scripted UI node.
type Element struct {
	ID      string
	Locator core.Locator
	Rect    core.Rect

	// Attributes are returned as is. Sequences take precedence: each read
	// of a sequenced attribute returns the next value, the last one sticks.
	Attributes        map[string]string
	AttributeSequence map[string][]string

	// AppearAfterFinds hides the element from its first N lookups.
	AppearAfterFinds int
	// RevealAfterScrolls hides the element until N swipes were performed.
	RevealAfterScrolls int
	// LayoutAfterReads reports a zero-size rect for the first N rect reads.
	LayoutAfterReads int
}

// Config configures mock driver behavior.
type Config struct {
	// Window is the reported window size. Defaults to 1080x2400.
	Window core.Size
	// Platform reported by Platform(). Defaults to "mock".
	Platform string
	// GestureErr, when set, is returned by every PerformGesture.
	GestureErr error
}

// Driver is a mock driver session. It records everything dispatched to it.
type Driver struct {
	Config Config

	mu         sync.Mutex
	elements   []*Element
	generation int
	resolvedAt map[string]int
	finds      map[string]int
	rectReads  map[string]int
	attrReads  map[string]int

	gestures []core.Gesture
	clicks   []string
	typed    map[string]string
	events   []string
	closed   bool
}

// New creates a new mock driver.
func New(cfg Config) *Driver {
	if cfg.Window == (core.Size{}) {
		cfg.Window = core.Size{Width: 1080, Height: 2400}
	}
	if cfg.Platform == "" {
		cfg.Platform = "mock"
	}
	return &Driver{
		Config:     cfg,
		resolvedAt: make(map[string]int),
		finds:      make(map[string]int),
		rectReads:  make(map[string]int),
		attrReads:  make(map[string]int),
		typed:      make(map[string]string),
	}
}

// Add puts elements into the UI tree.
func (d *Driver) Add(elements ...*Element) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for i, e := range elements {
		if e.ID == "" {
			e.ID = fmt.Sprintf("mock-%d", len(d.elements)+i+1)
		}
	}
	d.elements = append(d.elements, elements...)
}

// Remove detaches the element from the tree; handles to it go stale.
func (d *Driver) Remove(id string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for i, e := range d.elements {
		if e.ID == id {
			d.elements = append(d.elements[:i], d.elements[i+1:]...)
			return
		}
	}
}

// Navigate simulates a screen change: every previously returned handle
// becomes stale.
func (d *Driver) Navigate() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.generation++
}

func (d *Driver) swipes() int {
	n := 0
	for _, g := range d.gestures {
		if !g.IsTap() {
			n++
		}
	}
	return n
}

func (d *Driver) visible(e *Element) bool {
	if d.finds[e.ID] <= e.AppearAfterFinds {
		return false
	}
	return d.swipes() >= e.RevealAfterScrolls
}

// FindElement implements page.Driver.
func (d *Driver) FindElement(_ context.Context, loc core.Locator) (core.Element, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	for _, e := range d.elements {
		if e.Locator != loc {
			continue
		}
		d.finds[e.ID]++
		if !d.visible(e) {
			continue
		}
		d.resolvedAt[e.ID] = d.generation
		return core.Element{ID: e.ID, Locator: loc}, nil
	}
	return core.Element{}, core.ErrNotFound.WithMessagef("no such element: %s", loc)
}

// live returns the scripted node behind a handle, or ErrStaleElement.
func (d *Driver) live(el core.Element) (*Element, error) {
	gen, ok := d.resolvedAt[el.ID]
	if ok && gen == d.generation {
		for _, e := range d.elements {
			if e.ID == el.ID {
				return e, nil
			}
		}
	}
	return nil, core.ErrStaleElement.WithMessagef("stale element reference: %s", el.ID)
}

// ElementRect implements page.Driver.
func (d *Driver) ElementRect(_ context.Context, el core.Element) (core.Rect, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	e, err := d.live(el)
	if err != nil {
		return core.Rect{}, err
	}
	d.rectReads[e.ID]++
	if d.rectReads[e.ID] <= e.LayoutAfterReads {
		return core.Rect{X: e.Rect.X, Y: e.Rect.Y}, nil
	}
	return e.Rect, nil
}

// ElementAttribute implements page.Driver.
func (d *Driver) ElementAttribute(_ context.Context, el core.Element, name string) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	e, err := d.live(el)
	if err != nil {
		return "", err
	}
	if seq, ok := e.AttributeSequence[name]; ok && len(seq) > 0 {
		key := e.ID + "/" + name
		i := d.attrReads[key]
		d.attrReads[key]++
		if i >= len(seq) {
			i = len(seq) - 1
		}
		return seq[i], nil
	}
	if name == "value" || name == "text" {
		if v, ok := d.typed[e.ID]; ok {
			return v, nil
		}
	}
	return e.Attributes[name], nil
}

// ClickElement implements page.Driver.
func (d *Driver) ClickElement(_ context.Context, el core.Element) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, err := d.live(el); err != nil {
		return err
	}
	d.clicks = append(d.clicks, el.ID)
	return nil
}

// SendKeys implements page.Driver.
func (d *Driver) SendKeys(_ context.Context, el core.Element, text string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, err := d.live(el); err != nil {
		return err
	}
	d.typed[el.ID] += text
	return nil
}

// WindowSize implements page.Driver.
func (d *Driver) WindowSize(_ context.Context) (core.Size, error) {
	return d.Config.Window, nil
}

// PerformGesture implements page.Driver.
func (d *Driver) PerformGesture(_ context.Context, g core.Gesture) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.Config.GestureErr != nil {
		return d.Config.GestureErr
	}
	d.gestures = append(d.gestures, g)
	return nil
}

// ActivateApp records an app launch.
func (d *Driver) ActivateApp(_ context.Context, appID string) error {
	d.record("activate:" + appID)
	return nil
}

// TerminateApp records an app stop.
func (d *Driver) TerminateApp(_ context.Context, appID string) error {
	d.record("terminate:" + appID)
	return nil
}

// HideKeyboard records a keyboard dismissal.
func (d *Driver) HideKeyboard(_ context.Context) error {
	d.record("hideKeyboard")
	return nil
}

// Back records a back navigation.
func (d *Driver) Back(_ context.Context) error {
	d.record("back")
	return nil
}

// Screenshot returns a minimal valid PNG (1x1 transparent pixel).
func (d *Driver) Screenshot(_ context.Context) ([]byte, error) {
	return []byte{
		0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A, // PNG signature
		0x00, 0x00, 0x00, 0x0D, 0x49, 0x48, 0x44, 0x52, // IHDR chunk
		0x00, 0x00, 0x00, 0x01, 0x00, 0x00, 0x00, 0x01,
		0x08, 0x06, 0x00, 0x00, 0x00, 0x1F, 0x15, 0xC4,
		0x89, 0x00, 0x00, 0x00, 0x0A, 0x49, 0x44, 0x41,
		0x54, 0x78, 0x9C, 0x63, 0x00, 0x01, 0x00, 0x00,
		0x05, 0x00, 0x01, 0x0D, 0x0A, 0x2D, 0xB4, 0x00,
		0x00, 0x00, 0x00, 0x49, 0x45, 0x4E, 0x44, 0xAE,
		0x42, 0x60, 0x82,
	}, nil
}

// Source returns a minimal hierarchy listing the scripted elements.
func (d *Driver) Source(_ context.Context) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	var b strings.Builder
	b.WriteString("<hierarchy>")
	for _, e := range d.elements {
		fmt.Fprintf(&b, "<node id=%q bounds=%q/>", e.ID, e.Rect.String())
	}
	b.WriteString("</hierarchy>")
	return b.String(), nil
}

// Platform returns the configured platform name.
func (d *Driver) Platform() string {
	return d.Config.Platform
}

// Close marks the session closed.
func (d *Driver) Close(_ context.Context) error {
	d.record("close")
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closed = true
	return nil
}

func (d *Driver) record(event string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.events = append(d.events, event)
}

// Gestures returns every dispatched gesture in order.
func (d *Driver) Gestures() []core.Gesture {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]core.Gesture(nil), d.gestures...)
}

// Swipes returns the number of non-tap gestures dispatched.
func (d *Driver) Swipes() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.swipes()
}

// Clicks returns the IDs of clicked elements in order.
func (d *Driver) Clicks() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.clicks...)
}

// Typed returns the text typed into the element with id.
func (d *Driver) Typed(id string) string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.typed[id]
}

// Finds returns how many lookups hit the element with id.
func (d *Driver) Finds(id string) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.finds[id]
}

// Events returns app lifecycle and navigation events in order.
func (d *Driver) Events() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.events...)
}

// Closed reports whether Close was called.
func (d *Driver) Closed() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.closed
}
