package common

import "errors"

// ErrModulePaused is returned when a mutation is attempted against a module
// that governance has halted.
var ErrModulePaused = errors.New("module paused")

// PauseView reports whether a named module is currently halted.
type PauseView interface {
	IsPaused(module string) bool
}

// Guard rejects mutations against paused modules. A nil view or empty module
// name leaves the operation ungated.
func Guard(view PauseView, module string) error {
	if view == nil || module == "" {
		return nil
	}
	if view.IsPaused(module) {
		return ErrModulePaused
	}
	return nil
}
