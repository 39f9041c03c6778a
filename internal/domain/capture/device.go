package capture

import "context"

// Constraints - пожелания к захвату. Устройство вправе их игнорировать.
type Constraints struct {
	Video     bool
	Audio     bool
	Width     int
	Height    int
	FrameRate int
}

// DefaultConstraints - видео с аудио, 1280x720, 30 кадров
func DefaultConstraints() Constraints {
	return Constraints{Video: true, Audio: true, Width: 1280, Height: 720, FrameRate: 30}
}

// Device - источник записи. Open захватывает устройство монопольно
// или возвращает ошибку, завернутую в ErrDeviceUnavailable.
type Device interface {
	Open(ctx context.Context, c Constraints) (Stream, error)
}

// Stream - открытый захват.
//
// Chunks закрывается, когда конвейер выдал все данные.
// Stop просит сбросить буферы и завершить Chunks.
// Close освобождает устройство; повторный вызов безопасен.
type Stream interface {
	Chunks() <-chan []byte
	Stop() error
	Close() error
}
