package model

import "github.com/dawforge/engine/internal/dawlog"

// ErrorHandler receives recoverable engine-internal failures that fall
// outside the typed UI-diff error surface (ring overflow, late block,
// malformed UI command). Unrecoverable SHM mapping failure is the only
// condition that bypasses this interface and exits the process directly.
type ErrorHandler interface {
	HandleError(error)
}

// DefaultErrorHandler logs through dawlog.
type DefaultErrorHandler struct{}

// HandleError implements ErrorHandler.
func (DefaultErrorHandler) HandleError(err error) {
	dawlog.Errorf("engine error", "err", err)
}

// LoggingErrorHandler wraps another handler, additionally invoking a
// caller-supplied hook (e.g. for test assertions or metrics).
type LoggingErrorHandler struct {
	Underlying ErrorHandler
	Hook       func(error)
}

// HandleError implements ErrorHandler.
func (h LoggingErrorHandler) HandleError(err error) {
	if h.Hook != nil {
		h.Hook(err)
	}
	if h.Underlying != nil {
		h.Underlying.HandleError(err)
	}
}
