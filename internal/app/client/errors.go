package client

import "errors"

var (
	ErrUploadInProgress = errors.New("upload already in progress for this clip")
	ErrSyncInProgress   = errors.New("синхронизация уже выполняется")
)
