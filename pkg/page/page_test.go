package page

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quokka-io/mobile-harness/pkg/core"
	"github.com/quokka-io/mobile-harness/pkg/driver/mock"
)

func TestWaitAndClick(t *testing.T) {
	p, drv := newTestPage(t, core.Size{}, &mock.Element{ID: "login", Locator: loginButton, AppearAfterFinds: 1})

	el, err := p.WaitAndClick(context.Background(), loginButton)
	require.NoError(t, err)
	assert.Equal(t, "login", el.ID)
	assert.Equal(t, []string{"login"}, drv.Clicks())
}

func TestWaitForAndClick_ShortProfileTimeout(t *testing.T) {
	p, drv := newTestPage(t, core.Size{})

	_, err := p.WaitForAndClick(context.Background(), checkbox, ProfileShort)
	assert.True(t, errors.Is(err, core.ErrTimeout))
	assert.Empty(t, drv.Clicks())
}

func TestWaitAndType(t *testing.T) {
	p, drv := newTestPage(t, core.Size{}, &mock.Element{ID: "user", Locator: usernameField})

	_, err := p.WaitAndType(context.Background(), usernameField, "smercer@quokka.io")
	require.NoError(t, err)
	assert.Equal(t, "smercer@quokka.io", drv.Typed("user"))
}

func TestWaitAndTap(t *testing.T) {
	p, drv := newTestPage(t, core.Size{Width: 1080, Height: 2400},
		&mock.Element{ID: "login", Locator: loginButton, Rect: core.Rect{X: 100, Y: 2000, Width: 880, Height: 140}})

	_, err := p.WaitAndTap(context.Background(), loginButton)
	require.NoError(t, err)
	require.Len(t, drv.Gestures(), 1)
	assert.Equal(t, core.Point{X: 540, Y: 2070}, drv.Gestures()[0].Start)
}

func TestClick_StaleHandle(t *testing.T) {
	p, drv := newTestPage(t, core.Size{}, &mock.Element{ID: "login", Locator: loginButton})

	el, err := p.Wait(context.Background(), loginButton)
	require.NoError(t, err)
	drv.Remove("login")

	err = p.Click(context.Background(), el)
	assert.True(t, errors.Is(err, core.ErrStaleElement), "got %v", err)
}

func TestFind_NonBlocking(t *testing.T) {
	p, drv := newTestPage(t, core.Size{}, &mock.Element{ID: "late", Locator: checkbox, AppearAfterFinds: 1})

	_, err := p.Find(context.Background(), checkbox)
	assert.True(t, errors.Is(err, core.ErrNotFound))
	assert.Equal(t, 1, drv.Finds("late"))
}

func TestNew_DefaultProfiles(t *testing.T) {
	p := New(mock.New(mock.Config{}))
	assert.Equal(t, DefaultProfiles(), p.Profiles())
	assert.NotNil(t, p.Driver())
}
