package ingest

import "time"

// Video - метаданные принятого клипа
type Video struct {
	ID          string    `json:"id" doc:"Идентификатор клипа на сервере"`
	Name        string    `json:"name" doc:"Имя файла, присланное клиентом"`
	ContentType string    `json:"content_type"`
	Size        int64     `json:"size"`
	Checksum    string    `json:"checksum" doc:"BLAKE2b-256, hex"`
	URL         string    `json:"url,omitempty" doc:"Адрес содержимого"`
	CreatedAt   time.Time `json:"created_at"`
}

type ListResponse struct {
	Videos []Video `json:"videos"`
	Total  int     `json:"total"`
}
