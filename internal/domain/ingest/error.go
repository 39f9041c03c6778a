package ingest

import (
	"errors"
)

var (
	ErrNotFound      = errors.New("video not found")
	ErrInvalidUpload = errors.New("invalid upload")
)
