package page

import (
	"testing"
	"time"

	"go.uber.org/zap/zaptest"

	"github.com/quokka-io/mobile-harness/pkg/core"
	"github.com/quokka-io/mobile-harness/pkg/driver/mock"
)

// fastProfiles keeps timeout tests quick.
var fastProfiles = Profiles{
	Short:    80 * time.Millisecond,
	Default:  250 * time.Millisecond,
	Long:     250 * time.Millisecond,
	Interval: 10 * time.Millisecond,
}

func newTestPage(t *testing.T, window core.Size, elements ...*mock.Element) (*Page, *mock.Driver) {
	t.Helper()
	drv := mock.New(mock.Config{Window: window})
	drv.Add(elements...)
	return New(drv, WithProfiles(fastProfiles), WithLogger(zaptest.NewLogger(t))), drv
}
