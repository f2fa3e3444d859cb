package wizard

import "errors"

var (
	// ErrWrongStep is returned when an action is not valid in the current step.
	ErrWrongStep = errors.New("action not valid in current step")
	// ErrBusy is returned when an action of the same kind is already in flight.
	ErrBusy = errors.New("action already in progress")
	// ErrStale is returned by a job whose result was discarded because the
	// session was reset, closed or moved past the action's step.
	ErrStale = errors.New("result discarded: session changed while the action was in flight")
	// ErrNoImage is returned when an action needs an image that is missing.
	ErrNoImage = errors.New("no image selected")
	// ErrNoReference is returned when extraction has no reference image.
	ErrNoReference = errors.New("no reference image selected")
	// ErrEmptySelection is returned when a transfer has no selected colors.
	ErrEmptySelection = errors.New("no colors selected")
	// ErrNoEnhancedResult is returned when a transfer has no enhanced image.
	ErrNoEnhancedResult = errors.New("no enhanced image to harmonize")
	// ErrUnparsableResult is returned when the enhanced data URI is malformed.
	ErrUnparsableResult = errors.New("enhanced image data URI is malformed")
	// ErrUnreadableImage is returned when an upload passes validation but its
	// pixels cannot be decoded.
	ErrUnreadableImage = errors.New("image data could not be decoded")
	// ErrColorNotInPalette is returned when toggling a hex the palette lacks.
	ErrColorNotInPalette = errors.New("color not in palette")
	// ErrClosed is returned by every operation after Close.
	ErrClosed = errors.New("session closed")
)
