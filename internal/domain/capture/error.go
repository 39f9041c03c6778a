package capture

import "errors"

var (
	ErrDeviceUnavailable = errors.New("capture device unavailable")
	ErrInvalidState      = errors.New("invalid capture session state")
	ErrEmptyRecording    = errors.New("recording is empty")
	ErrSaveFailed        = errors.New("failed to save recording")
)
