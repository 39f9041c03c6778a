package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/slog"

	"clipkeeper/internal/domain/ingest"
)

// memRepo и memContent держат данные в памяти для сквозной проверки роутов
type memRepo struct {
	videos map[string]ingest.Video
}

func (r *memRepo) Create(_ context.Context, v *ingest.Video) error {
	r.videos[v.ID] = *v
	return nil
}

func (r *memRepo) Get(_ context.Context, id string) (*ingest.Video, error) {
	v, ok := r.videos[id]
	if !ok {
		return nil, ingest.ErrNotFound
	}
	return &v, nil
}

func (r *memRepo) List(_ context.Context) ([]ingest.Video, error) {
	out := make([]ingest.Video, 0, len(r.videos))
	for _, v := range r.videos {
		out = append(out, v)
	}
	return out, nil
}

func (r *memRepo) Delete(_ context.Context, id string) error {
	if _, ok := r.videos[id]; !ok {
		return ingest.ErrNotFound
	}
	delete(r.videos, id)
	return nil
}

type memContent map[string][]byte

func (c memContent) Put(_ context.Context, key string, body []byte, _ string) error {
	c[key] = append([]byte(nil), body...)
	return nil
}

func (c memContent) Open(_ context.Context, key string) (io.ReadCloser, error) {
	b, ok := c[key]
	if !ok {
		return nil, ingest.ErrNotFound
	}
	return io.NopCloser(bytes.NewReader(b)), nil
}

func (c memContent) Delete(_ context.Context, key string) error {
	delete(c, key)
	return nil
}

func TestAPI_UploadAndFetch(t *testing.T) {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := ingest.NewService(&memRepo{videos: map[string]ingest.Video{}}, memContent{}, "http://clips.test", 1<<20, log)
	srv := httptest.NewServer(New(svc, nil, 1<<20, log))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/v1/health")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Post(srv.URL+"/api/v1/videos?name=clip.webm", "video/webm", bytes.NewReader([]byte("clip-bytes")))
	require.NoError(t, err)
	var created struct {
		ID     string `json:"id"`
		URL    string `json:"url"`
		Status string `json:"status"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&created))
	resp.Body.Close()
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "Ok", created.Status)
	assert.Equal(t, "http://clips.test/api/v1/videos/"+created.ID+"/content", created.URL)

	resp, err = http.Get(srv.URL + "/api/v1/videos/" + created.ID + "/content")
	require.NoError(t, err)
	data, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	require.NoError(t, err)
	assert.Equal(t, "clip-bytes", string(data))
	assert.Equal(t, "video/webm", resp.Header.Get("Content-Type"))

	resp, err = http.Get(srv.URL + "/api/v1/videos")
	require.NoError(t, err)
	var list ingest.ListResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&list))
	resp.Body.Close()
	assert.Equal(t, 1, list.Total)
}

func TestAPI_RejectsOversizedUpload(t *testing.T) {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := ingest.NewService(&memRepo{videos: map[string]ingest.Video{}}, memContent{}, "http://clips.test", 8, log)
	srv := httptest.NewServer(New(svc, nil, 8, log))
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/api/v1/videos", "video/webm", bytes.NewReader(bytes.Repeat([]byte("x"), 64)))
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, http.StatusRequestEntityTooLarge, resp.StatusCode)
}
