package video

import "errors"

var (
	ErrNotFound           = errors.New("video not found")
	ErrEmptyPayload       = errors.New("video payload is empty")
	ErrStorageUnavailable = errors.New("storage unavailable")
	ErrStorage            = errors.New("storage error")
)
