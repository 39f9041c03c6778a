package ingest

import (
	"context"
	"io"
)

// Repository хранит метаданные клипов
type Repository interface {
	Create(ctx context.Context, v *Video) error
	Get(ctx context.Context, id string) (*Video, error)
	List(ctx context.Context) ([]Video, error)
	Delete(ctx context.Context, id string) error
}

// ContentStore хранит сами байты клипов по ключу
type ContentStore interface {
	Put(ctx context.Context, key string, body []byte, contentType string) error
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
}
