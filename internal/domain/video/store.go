package video

import "context"

// Store - долговечное локальное хранилище клипов.
//
// Все методы сами вызывают Initialize, если хранилище еще не открыто.
// Операции над одним и тем же id хранилище не упорядочивает,
// это делает вызывающий слой.
type Store interface {
	Initialize(ctx context.Context) error
	Create(ctx context.Context, payload []byte) (string, error)
	Get(ctx context.Context, id string) (*Video, error)
	List(ctx context.Context) ([]*Video, error)
	// ListMeta как List, но без Payload
	ListMeta(ctx context.Context) ([]*Video, error)
	MarkUploaded(ctx context.Context, id string) error
	Delete(ctx context.Context, id string) error
	UsageEstimate(ctx context.Context) Usage
	Close() error
}
