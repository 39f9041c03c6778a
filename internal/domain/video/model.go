package video

import (
	"fmt"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
)

const displayNameLayout = "2006-01-02_15-04-05"

// Video - локально сохраненный клип и его метаданные
type Video struct {
	ID          string    `json:"id" yaml:"id"`
	Payload     []byte    `json:"-" yaml:"-"`
	Size        int64     `json:"size" yaml:"size"`
	Checksum    string    `json:"checksum" yaml:"checksum"`
	ContentType string    `json:"content_type" yaml:"content_type"`
	DisplayName string    `json:"display_name" yaml:"display_name"`
	CreatedAt   time.Time `json:"created_at" yaml:"created_at"`
	Uploaded    bool      `json:"uploaded" yaml:"uploaded"`
}

// Usage - оценка занятого места в хранилище, в байтах
type Usage struct {
	Used  int64 `json:"used" yaml:"used"`
	Quota int64 `json:"quota" yaml:"quota"`
}

// Known сообщает, смогла ли платформа вообще что-то посчитать
func (u Usage) Known() bool {
	return u.Used > 0 || u.Quota > 0
}

// NewID генерирует идентификатор записи.
// UUIDv7: миллисекундная метка времени плюс случайный хвост.
func NewID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

// DetectContentType определяет MIME-тип и расширение по содержимому
func DetectContentType(payload []byte) (string, string) {
	mt := mimetype.Detect(payload)
	return mt.String(), mt.Extension()
}

// DisplayName строит имя файла для показа пользователю
func DisplayName(createdAt time.Time, ext string) string {
	if ext == "" {
		ext = ".bin"
	}
	return fmt.Sprintf("clip-%s%s", createdAt.Local().Format(displayNameLayout), ext)
}
