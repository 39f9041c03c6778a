package upload

import "context"

type clipKey struct{}

// ClipInfo - метаданные загружаемого клипа, которые нужны транспорту
type ClipInfo struct {
	ID          string
	Name        string
	ContentType string
}

// WithClip кладет метаданные клипа в контекст попытки
func WithClip(ctx context.Context, info ClipInfo) context.Context {
	return context.WithValue(ctx, clipKey{}, info)
}

// ClipFromContext достает метаданные клипа из контекста
func ClipFromContext(ctx context.Context) (ClipInfo, bool) {
	info, ok := ctx.Value(clipKey{}).(ClipInfo)
	return info, ok
}
