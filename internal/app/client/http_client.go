package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/exp/slog"

	"clipkeeper/internal/app/client/config"
)

// httpClient ходит в служебные ручки сервера приема.
// Само содержимое клипов отправляет upload.Remote.
type httpClient struct {
	client    *http.Client
	log       *slog.Logger
	baseURL   string
	userAgent string
}

func NewHTTPClient(cfg *config.Config, log *slog.Logger) *httpClient {
	client := &http.Client{
		Timeout: 30 * time.Second,
		Transport: &http.Transport{
			MaxIdleConns:        10,
			IdleConnTimeout:     90 * time.Second,
			MaxIdleConnsPerHost: 2,
		},
	}

	return &httpClient{
		client:    client,
		log:       log,
		baseURL:   cfg.ServerURL(),
		userAgent: "ClipKeeper-Client/1.0",
	}
}

// HealthCheck проверяет доступность сервера
func (h *httpClient) HealthCheck(ctx context.Context) error {
	resp, err := h.doRequest(ctx, http.MethodGet, "/api/v1/health")
	if err != nil {
		return fmt.Errorf("сервер недоступен: %w", err)
	}

	var health struct {
		Status string `json:"status"`
	}
	if err := h.parseResponse(resp, &health); err != nil {
		return err
	}

	if health.Status != "OK" {
		return fmt.Errorf("сервер вернул статус: %s", health.Status)
	}

	return nil
}

// ListVideos возвращает метаданные клипов, принятых сервером
func (h *httpClient) ListVideos(ctx context.Context) ([]RemoteVideo, error) {
	resp, err := h.doRequest(ctx, http.MethodGet, "/api/v1/videos")
	if err != nil {
		return nil, err
	}

	var listResp struct {
		Videos []RemoteVideo `json:"videos"`
		Total  int           `json:"total"`
	}

	if err := h.parseResponse(resp, &listResp); err != nil {
		return nil, err
	}

	return listResp.Videos, nil
}

func (h *httpClient) doRequest(ctx context.Context, method, path string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, h.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("ошибка создания запроса: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", h.userAgent)

	h.log.Debug("Отправка запроса",
		"method", method,
		"url", req.URL.String(),
	)

	resp, err := h.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ошибка выполнения запроса: %w", err)
	}

	return resp, nil
}

func (h *httpClient) parseResponse(resp *http.Response, result interface{}) error {
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("ошибка чтения ответа: %w", err)
	}

	h.log.Debug("Получен ответ",
		"status", resp.StatusCode,
		"size", len(body),
	)

	if resp.StatusCode >= 400 {
		var errResp struct {
			Error  string `json:"error"`
			Detail string `json:"detail"`
		}
		if err := json.Unmarshal(body, &errResp); err == nil {
			if errResp.Error != "" {
				return fmt.Errorf("ошибка сервера: %s", errResp.Error)
			}
			if errResp.Detail != "" {
				return fmt.Errorf("ошибка сервера: %s", errResp.Detail)
			}
		}
		return fmt.Errorf("ошибка сервера: статус %d", resp.StatusCode)
	}

	if result != nil {
		if err := json.Unmarshal(body, result); err != nil {
			return fmt.Errorf("ошибка парсинга ответа: %w", err)
		}
	}

	return nil
}
