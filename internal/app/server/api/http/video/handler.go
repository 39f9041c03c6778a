package video

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/danielgtaylor/huma/v2"
	"golang.org/x/exp/slog"

	"clipkeeper/internal/domain/ingest"
)

type Handler struct {
	service    ingest.Servicer
	log        *slog.Logger
	maxBytes   int64
	middleware huma.Middlewares
}

func NewHandler(service ingest.Servicer, maxBytes int64, log *slog.Logger, mws huma.Middlewares) *Handler {
	return &Handler{
		service:    service,
		log:        log,
		maxBytes:   maxBytes,
		middleware: mws,
	}
}

func (h *Handler) SetupRoutes(api huma.API) {
	huma.Register(api, h.uploadOp(), h.upload)
	huma.Register(api, h.listOp(), h.list)
	huma.Register(api, h.findOp(), h.find)
	huma.Register(api, h.contentOp(), h.content)
	huma.Register(api, h.deleteOp(), h.delete)
}

func (h *Handler) upload(ctx context.Context, input *uploadInput) (*uploadOutput, error) {
	v, err := h.service.Upload(ctx, input.Name, input.ContentType, input.RawBody)
	if err != nil {
		return nil, h.toHTTPError(err)
	}

	return &uploadOutput{
		Location: v.URL,
		Body: uploadResponse{
			ID:       v.ID,
			URL:      v.URL,
			Size:     v.Size,
			Checksum: v.Checksum,
			Status:   "Ok",
		},
	}, nil
}

func (h *Handler) list(ctx context.Context, _ *struct{}) (*listOutput, error) {
	videos, err := h.service.List(ctx)
	if err != nil {
		return nil, h.toHTTPError(err)
	}

	return &listOutput{Body: videos}, nil
}

func (h *Handler) find(ctx context.Context, input *idInput) (*findOutput, error) {
	v, err := h.service.Find(ctx, input.ID)
	if err != nil {
		return nil, h.toHTTPError(err)
	}

	return &findOutput{Body: *v}, nil
}

// content отдает байты клипа потоком, не читая их целиком в память
func (h *Handler) content(ctx context.Context, input *idInput) (*huma.StreamResponse, error) {
	v, body, err := h.service.Open(ctx, input.ID)
	if err != nil {
		return nil, h.toHTTPError(err)
	}

	return &huma.StreamResponse{
		Body: func(hctx huma.Context) {
			defer body.Close()

			hctx.SetHeader("Content-Type", v.ContentType)
			hctx.SetHeader("Content-Length", strconv.FormatInt(v.Size, 10))
			hctx.SetHeader("ETag", `"`+v.Checksum+`"`)
			hctx.SetStatus(http.StatusOK)

			if _, err := io.Copy(hctx.BodyWriter(), body); err != nil {
				h.log.Warn("content stream interrupted", "id", v.ID, "error", err)
			}
		},
	}, nil
}

func (h *Handler) delete(ctx context.Context, input *idInput) (*struct{}, error) {
	if err := h.service.Delete(ctx, input.ID); err != nil {
		return nil, h.toHTTPError(err)
	}
	return &struct{}{}, nil
}

func (h *Handler) toHTTPError(err error) error {
	switch {
	case errors.Is(err, ingest.ErrNotFound):
		return huma.Error404NotFound("video not found")
	case errors.Is(err, ingest.ErrInvalidUpload):
		return huma.Error422UnprocessableEntity(err.Error())
	default:
		h.log.Error("request failed", "error", err)
		return huma.Error500InternalServerError("internal error")
	}
}
