package video

import (
	"net/http"

	"github.com/danielgtaylor/huma/v2"
)

func (h *Handler) uploadOp() huma.Operation {
	return huma.Operation{
		OperationID:   "videos-upload",
		Method:        http.MethodPost,
		Path:          "/api/v1/videos",
		Summary:       "Загрузить клип",
		Description:   "Принимает содержимое клипа сырым телом запроса. Content-Type сохраняется вместе с клипом.",
		Tags:          []string{"videos"},
		DefaultStatus: http.StatusCreated,
		MaxBodyBytes:  h.maxBytes,
		RequestBody: &huma.RequestBody{
			Description: "Содержимое клипа",
			Content: map[string]*huma.MediaType{
				"application/octet-stream": {Schema: &huma.Schema{Type: "string", Format: "binary"}},
				"video/webm":               {Schema: &huma.Schema{Type: "string", Format: "binary"}},
				"video/mp4":                {Schema: &huma.Schema{Type: "string", Format: "binary"}},
			},
		},
		Middlewares: h.middleware,
	}
}

func (h *Handler) listOp() huma.Operation {
	return huma.Operation{
		OperationID: "videos-list",
		Method:      http.MethodGet,
		Path:        "/api/v1/videos",
		Summary:     "Список клипов",
		Tags:        []string{"videos"},
		Middlewares: h.middleware,
	}
}

func (h *Handler) findOp() huma.Operation {
	return huma.Operation{
		OperationID: "videos-find",
		Method:      http.MethodGet,
		Path:        "/api/v1/videos/{id}",
		Summary:     "Метаданные клипа",
		Tags:        []string{"videos"},
		Middlewares: h.middleware,
	}
}

func (h *Handler) contentOp() huma.Operation {
	return huma.Operation{
		OperationID: "videos-content",
		Method:      http.MethodGet,
		Path:        "/api/v1/videos/{id}/content",
		Summary:     "Содержимое клипа",
		Tags:        []string{"videos"},
		Middlewares: h.middleware,
	}
}

func (h *Handler) deleteOp() huma.Operation {
	return huma.Operation{
		OperationID:   "videos-delete",
		Method:        http.MethodDelete,
		Path:          "/api/v1/videos/{id}",
		Summary:       "Удалить клип",
		Tags:          []string{"videos"},
		DefaultStatus: http.StatusNoContent,
		Middlewares:   h.middleware,
	}
}
