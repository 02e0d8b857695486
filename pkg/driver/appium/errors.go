package appium

import (
	"strings"

	"github.com/quokka-io/mobile-harness/pkg/core"
)

// W3C WebDriver error codes the harness distinguishes.
const (
	w3cNoSuchElement   = "no such element"
	w3cStaleElement    = "stale element reference"
	w3cInvalidArgument = "invalid argument"
	w3cInvalidSelector = "invalid selector"
	w3cOutOfBounds     = "move target out of bounds"
	w3cTimeout         = "timeout"
	w3cInvalidSession  = "invalid session id"
)

// mapW3CError translates a WebDriver error response into the harness
// taxonomy. Codes without a dedicated sentinel keep their W3C name.
func mapW3CError(code, message string) error {
	switch code {
	case w3cNoSuchElement:
		return core.ErrNotFound.WithMessage(message)
	case w3cStaleElement:
		return core.ErrStaleElement.WithMessage(message)
	case w3cInvalidArgument, w3cInvalidSelector, w3cOutOfBounds:
		return core.ErrInvalidArgument.WithMessage(message)
	case w3cTimeout:
		return core.ErrTimeout.WithMessage(message)
	case w3cInvalidSession:
		return core.ErrConnection.WithMessagef("session is gone: %s", message)
	default:
		return core.NewError(core.ErrCategoryConnection, strings.ReplaceAll(code, " ", "_"), code+": "+message)
	}
}
