package video

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/humatest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/slog"

	"clipkeeper/internal/domain/ingest"
)

type MockService struct {
	mock.Mock
}

func (m *MockService) Upload(ctx context.Context, name, contentType string, body []byte) (*ingest.Video, error) {
	args := m.Called(ctx, name, contentType, body)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ingest.Video), args.Error(1)
}

func (m *MockService) List(ctx context.Context) (ingest.ListResponse, error) {
	args := m.Called(ctx)
	return args.Get(0).(ingest.ListResponse), args.Error(1)
}

func (m *MockService) Find(ctx context.Context, id string) (*ingest.Video, error) {
	args := m.Called(ctx, id)
	// Безопасное приведение nil к указателю
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ingest.Video), args.Error(1)
}

func (m *MockService) Open(ctx context.Context, id string) (*ingest.Video, io.ReadCloser, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, nil, args.Error(2)
	}
	return args.Get(0).(*ingest.Video), args.Get(1).(io.ReadCloser), args.Error(2)
}

func (m *MockService) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func newTestHandler(svc *MockService) *Handler {
	return NewHandler(svc, 1024, slog.New(slog.NewTextHandler(io.Discard, nil)), huma.Middlewares{})
}

func TestHandler_upload(t *testing.T) {
	ctx := context.Background()
	body := []byte("clip-bytes")

	tests := []struct {
		name       string
		video      *ingest.Video
		err        error
		wantStatus int
	}{
		{
			name:  "accepted",
			video: &ingest.Video{ID: "v1", URL: "http://x/api/v1/videos/v1/content", Size: 10, Checksum: "abc"},
		},
		{
			name:       "empty body",
			err:        ingest.ErrInvalidUpload,
			wantStatus: http.StatusUnprocessableEntity,
		},
		{
			name:       "storage failure",
			err:        errors.New("disk full"),
			wantStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockService)
			handler := newTestHandler(svc)
			svc.On("Upload", ctx, "clip.webm", "video/webm", body).Return(tt.video, tt.err).Once()

			out, err := handler.upload(ctx, &uploadInput{Name: "clip.webm", ContentType: "video/webm", RawBody: body})

			if tt.err != nil {
				var se huma.StatusError
				require.ErrorAs(t, err, &se)
				assert.Equal(t, tt.wantStatus, se.GetStatus())
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "v1", out.Body.ID)
			assert.Equal(t, tt.video.URL, out.Body.URL)
			assert.Equal(t, tt.video.URL, out.Location)
			assert.Equal(t, "Ok", out.Body.Status)
			svc.AssertExpectations(t)
		})
	}
}

func TestHandler_find(t *testing.T) {
	ctx := context.Background()
	svc := new(MockService)
	handler := newTestHandler(svc)

	svc.On("Find", ctx, "v1").Return(&ingest.Video{ID: "v1", Name: "clip.webm"}, nil).Once()
	svc.On("Find", ctx, "missing").Return(nil, ingest.ErrNotFound).Once()

	out, err := handler.find(ctx, &idInput{ID: "v1"})
	require.NoError(t, err)
	assert.Equal(t, "clip.webm", out.Body.Name)

	_, err = handler.find(ctx, &idInput{ID: "missing"})
	var se huma.StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusNotFound, se.GetStatus())
}

func TestHandler_list(t *testing.T) {
	ctx := context.Background()
	svc := new(MockService)
	handler := newTestHandler(svc)
	resp := ingest.ListResponse{Videos: []ingest.Video{{ID: "v2"}, {ID: "v1"}}, Total: 2}

	svc.On("List", ctx).Return(resp, nil).Once()

	out, err := handler.list(ctx, &struct{}{})

	require.NoError(t, err)
	assert.Equal(t, 2, out.Body.Total)
	assert.Equal(t, "v2", out.Body.Videos[0].ID)
}

func TestHandler_delete(t *testing.T) {
	ctx := context.Background()
	svc := new(MockService)
	handler := newTestHandler(svc)

	svc.On("Delete", ctx, "v1").Return(nil).Once()
	svc.On("Delete", ctx, "v1").Return(ingest.ErrNotFound).Once()

	_, err := handler.delete(ctx, &idInput{ID: "v1"})
	assert.NoError(t, err)

	_, err = handler.delete(ctx, &idInput{ID: "v1"})
	var se huma.StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusNotFound, se.GetStatus())
}

func TestHandler_Routes(t *testing.T) {
	_, api := humatest.New(t)
	svc := new(MockService)
	newTestHandler(svc).SetupRoutes(api)

	v := &ingest.Video{
		ID:          "v1",
		ContentType: "video/webm",
		Size:        4,
		Checksum:    "abc",
		URL:         "http://x/api/v1/videos/v1/content",
		CreatedAt:   time.Now(),
	}

	t.Run("upload returns 201", func(t *testing.T) {
		svc.On("Upload", mock.Anything, "clip.webm", "video/webm", []byte("data")).Return(v, nil).Once()

		resp := api.Post("/api/v1/videos?name=clip.webm", "Content-Type: video/webm", bytes.NewReader([]byte("data")))

		assert.Equal(t, http.StatusCreated, resp.Code)
		assert.Contains(t, resp.Body.String(), `"id":"v1"`)
	})

	t.Run("content streams stored bytes", func(t *testing.T) {
		svc.On("Open", mock.Anything, "v1").Return(v, io.NopCloser(bytes.NewReader([]byte("data"))), nil).Once()

		resp := api.Get("/api/v1/videos/v1/content")

		assert.Equal(t, http.StatusOK, resp.Code)
		assert.Equal(t, "video/webm", resp.Header().Get("Content-Type"))
		assert.Equal(t, "data", resp.Body.String())
	})

	t.Run("missing content is 404", func(t *testing.T) {
		svc.On("Open", mock.Anything, "nope").Return(nil, nil, ingest.ErrNotFound).Once()

		resp := api.Get("/api/v1/videos/nope/content")

		assert.Equal(t, http.StatusNotFound, resp.Code)
	})

	t.Run("delete returns 204", func(t *testing.T) {
		svc.On("Delete", mock.Anything, "v1").Return(nil).Once()

		resp := api.Delete("/api/v1/videos/v1")

		assert.Equal(t, http.StatusNoContent, resp.Code)
	})
}
