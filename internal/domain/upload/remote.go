package upload

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"golang.org/x/exp/slog"
)

const (
	videosPath       = "/api/v1/videos"
	maxResponseBytes = 1 << 20
)

// Remote отправляет содержимое клипа на сервер приема одним POST запросом
type Remote struct {
	client    *http.Client
	log       *slog.Logger
	endpoint  string
	userAgent string
}

func NewRemote(endpoint string, timeout time.Duration, log *slog.Logger) *Remote {
	if timeout <= 0 {
		timeout = 5 * time.Minute
	}

	return &Remote{
		client: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        10,
				IdleConnTimeout:     90 * time.Second,
				MaxIdleConnsPerHost: 2,
			},
		},
		log:       log.With("component", "remote_upload"),
		endpoint:  strings.TrimRight(endpoint, "/"),
		userAgent: "ClipKeeper-Client/1.0",
	}
}

func (r *Remote) Attempt(ctx context.Context, payload []byte, sink Sink) Outcome {
	info, _ := ClipFromContext(ctx)

	target := r.endpoint + videosPath
	if info.Name != "" {
		target += "?" + url.Values{"name": {info.Name}}.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, bytes.NewReader(payload))
	if err != nil {
		return r.fail(sink, 0, failure("failed to create request: %v", err))
	}

	contentType := info.ContentType
	if contentType == "" {
		contentType = mimetype.Detect(payload).String()
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("User-Agent", r.userAgent)
	req.ContentLength = int64(len(payload))

	sink.Report(Progress{Status: StatusUploading, Percent: 50, Message: "sending payload"})

	r.log.Debug("sending upload request",
		"url", req.URL.String(),
		"size", len(payload),
		"clip_id", info.ID,
	)

	resp, err := r.client.Do(req)
	if err != nil {
		return r.fail(sink, 50, failure("network error: %v", err))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		r.log.Warn("failed to read upload response", "error", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return r.fail(sink, 50, failure("server returned status %d%s", resp.StatusCode, errorDetail(body)))
	}

	// тело ответа может отсутствовать или быть не JSON, это не ошибка
	var created struct {
		ID  string `json:"id"`
		URL string `json:"url"`
	}
	if len(body) > 0 {
		if err := json.Unmarshal(body, &created); err != nil {
			r.log.Debug("upload response is not JSON", "error", err)
		}
	}

	remoteURL := created.URL
	if remoteURL == "" && created.ID != "" {
		remoteURL = fmt.Sprintf("%s%s/%s/content", r.endpoint, videosPath, created.ID)
	}

	out := Outcome{Success: true, Message: "upload complete", RemoteURL: remoteURL}
	sink.Report(Progress{Status: StatusSuccess, Percent: 100, Message: out.Message})
	return out
}

func (r *Remote) fail(sink Sink, percent int, out Outcome) Outcome {
	r.log.Warn("upload failed", "reason", out.Message)
	sink.Report(Progress{Status: StatusFailed, Percent: percent, Message: out.Message})
	return out
}

// errorDetail достает текст ошибки из тела ответа сервера, если он там есть
func errorDetail(body []byte) string {
	var errResp struct {
		Error  string `json:"error"`
		Title  string `json:"title"`
		Detail string `json:"detail"`
	}
	if err := json.Unmarshal(body, &errResp); err != nil {
		return ""
	}

	switch {
	case errResp.Error != "":
		return ": " + errResp.Error
	case errResp.Detail != "":
		return ": " + errResp.Detail
	case errResp.Title != "":
		return ": " + errResp.Title
	default:
		return ""
	}
}
