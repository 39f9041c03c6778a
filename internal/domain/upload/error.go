package upload

import "errors"

var (
	ErrTransportFailure = errors.New("transport failure")
	ErrUnknownMode      = errors.New("unknown upload mode")
)
