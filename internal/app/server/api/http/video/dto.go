package video

import (
	"clipkeeper/internal/domain/ingest"
)

type uploadInput struct {
	Name        string `query:"name" maxLength:"255" doc:"Имя файла клипа"`
	ContentType string `header:"Content-Type"`
	RawBody     []byte
}

type uploadOutput struct {
	Location string `header:"Location"`
	Body     uploadResponse
}

type uploadResponse struct {
	ID       string `json:"id" doc:"Идентификатор клипа на сервере"`
	URL      string `json:"url" doc:"Адрес содержимого"`
	Size     int64  `json:"size"`
	Checksum string `json:"checksum"`
	Status   string `json:"status" example:"Ok"`
}

type listOutput struct {
	Body ingest.ListResponse
}

type idInput struct {
	ID string `path:"id" doc:"Идентификатор клипа"`
}

type findOutput struct {
	Body ingest.Video
}
