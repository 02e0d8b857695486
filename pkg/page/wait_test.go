package page

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quokka-io/mobile-harness/pkg/core"
	"github.com/quokka-io/mobile-harness/pkg/driver/mock"
)

var (
	usernameField = core.ByXPath(`//android.widget.EditText[@content-desc="Gebruikersnaam"]`)
	checkbox      = core.ByID("checkbox")
	addressBar    = core.ByID("url_bar")
)

func TestWait_PresentElement(t *testing.T) {
	p, _ := newTestPage(t, core.Size{}, &mock.Element{ID: "user", Locator: usernameField})

	el, err := p.Wait(context.Background(), usernameField)
	require.NoError(t, err)
	assert.Equal(t, "user", el.ID)
	assert.Equal(t, usernameField, el.Locator)
}

func TestWait_ToleratesLateRendering(t *testing.T) {
	p, drv := newTestPage(t, core.Size{}, &mock.Element{ID: "user", Locator: usernameField, AppearAfterFinds: 4})

	el, err := p.Wait(context.Background(), usernameField)
	require.NoError(t, err)
	assert.Equal(t, "user", el.ID)
	assert.Equal(t, 5, drv.Finds("user"))
}

func TestWait_Timeout(t *testing.T) {
	p, _ := newTestPage(t, core.Size{})

	start := time.Now()
	_, err := p.ShortWait(context.Background(), checkbox)
	elapsed := time.Since(start)

	require.Error(t, err)
	assert.True(t, errors.Is(err, core.ErrTimeout), "got %v", err)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
	assert.False(t, errors.Is(err, core.ErrNotFound), "timeout must not masquerade as not found")
	assert.GreaterOrEqual(t, elapsed, fastProfiles.Short)
	assert.Less(t, elapsed, fastProfiles.Default)
	assert.Equal(t, core.ErrCategoryTimeout, core.CategoryOf(err))
}

func TestWait_InvalidLocator(t *testing.T) {
	p, _ := newTestPage(t, core.Size{})

	_, err := p.Wait(context.Background(), core.Locator{Strategy: "css selector", Expression: "#login"})
	assert.True(t, errors.Is(err, core.ErrInvalidArgument), "got %v", err)
}

func TestWait_ParentContextCancelled(t *testing.T) {
	p, _ := newTestPage(t, core.Size{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := p.Wait(ctx, checkbox)
	assert.True(t, errors.Is(err, context.Canceled), "got %v", err)
}

func TestWaitNonzeroSize_WaitsForLayout(t *testing.T) {
	p, _ := newTestPage(t, core.Size{}, &mock.Element{
		ID:               "login",
		Locator:          usernameField,
		Rect:             core.Rect{X: 40, Y: 900, Width: 1000, Height: 120},
		LayoutAfterReads: 3,
	})

	el, err := p.WaitNonzeroSize(context.Background(), usernameField)
	require.NoError(t, err)

	rect, err := p.Rect(context.Background(), el)
	require.NoError(t, err)
	assert.True(t, rect.HasArea(), "returned handle must have a laid-out rect, got %s", rect)
}

func TestWaitNonzeroSize_NeverLaidOut(t *testing.T) {
	p, _ := newTestPage(t, core.Size{}, &mock.Element{
		ID:               "ghost",
		Locator:          usernameField,
		Rect:             core.Rect{Width: 10, Height: 10},
		LayoutAfterReads: 1 << 20,
	})

	_, err := p.WaitNonzeroSize(context.Background(), usernameField)
	assert.True(t, errors.Is(err, core.ErrTimeout), "got %v", err)
}

func TestWaitForURLText(t *testing.T) {
	p, _ := newTestPage(t, core.Size{}, &mock.Element{
		ID:      "bar",
		Locator: addressBar,
		AttributeSequence: map[string][]string{
			"value": {"", "Search or type URL", "https://quokka.io/login"},
		},
	})

	url, err := p.WaitForURLText(context.Background(), addressBar)
	require.NoError(t, err)
	assert.Equal(t, "https://quokka.io/login", url)
}

func TestWaitForURLText_ReturnsMatchedValue(t *testing.T) {
	p, _ := newTestPage(t, core.Size{}, &mock.Element{
		ID:      "bar",
		Locator: addressBar,
		AttributeSequence: map[string][]string{
			"value": {"", "https://quokka.io/login", "about:blank"},
		},
	})

	url, err := p.WaitForURLText(context.Background(), addressBar)
	require.NoError(t, err)
	assert.Equal(t, "https://quokka.io/login", url, "the value read after the match must not leak through")
}

func TestUntil_StaleElementIsTerminal(t *testing.T) {
	drv := mock.New(mock.Config{})
	drv.Add(&mock.Element{ID: "bar", Locator: addressBar, Rect: core.Rect{Width: 0, Height: 0}})

	el, err := drv.FindElement(context.Background(), addressBar)
	require.NoError(t, err)
	drv.Navigate()

	start := time.Now()
	_, err = Until(context.Background(), drv, time.Second, 10*time.Millisecond, NonzeroSize{Element: el})
	assert.True(t, errors.Is(err, core.ErrStaleElement), "got %v", err)
	assert.Less(t, time.Since(start), 500*time.Millisecond, "stale handle must fail without polling to the deadline")
}

func TestParseProfile(t *testing.T) {
	for in, want := range map[string]Profile{"": ProfileDefault, "short": ProfileShort, "LONG": ProfileLong, "default": ProfileDefault} {
		got, err := ParseProfile(in)
		require.NoError(t, err)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseProfile("forever")
	assert.True(t, errors.Is(err, core.ErrInvalidArgument))
}

func TestProfiles_Defaults(t *testing.T) {
	p := Profiles{Short: time.Second}.withDefaults()
	assert.Equal(t, time.Second, p.Short)
	assert.Equal(t, DefaultTimeout, p.Default)
	assert.Equal(t, DefaultLongTimeout, p.Long)
	assert.Equal(t, DefaultPollInterval, p.Interval)
	assert.Equal(t, DefaultTimeout, p.Timeout(ProfileDefault))
	assert.Equal(t, 3*time.Second, DefaultProfiles().Timeout(ProfileShort))
}
