package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"golang.org/x/exp/slog"

	"clipkeeper/internal/domain/upload"
	"clipkeeper/internal/domain/video"
)

const statsFile = "sync_stats.json"

// SyncService досылает на сервер записи, которые еще не загружены
type SyncService struct {
	app       *App
	log       *slog.Logger
	mu        sync.RWMutex
	lastSync  time.Time
	isSyncing bool
	stats     *SyncStats
}

// SyncError ошибка загрузки одной записи
type SyncError struct {
	RecordID  string    `json:"record_id" yaml:"record_id"`
	Error     string    `json:"error" yaml:"error"`
	Operation string    `json:"operation" yaml:"operation"`
	Timestamp time.Time `json:"timestamp" yaml:"timestamp"`
}

// SyncStats накопленная статистика синхронизации
type SyncStats struct {
	TotalSyncs      int       `json:"total_syncs" yaml:"total_syncs"`
	LastSuccessful  time.Time `json:"last_successful" yaml:"last_successful"`
	LastFailed      time.Time `json:"last_failed" yaml:"last_failed"`
	TotalUploaded   int       `json:"total_uploaded" yaml:"total_uploaded"`
	TotalFailed     int       `json:"total_failed" yaml:"total_failed"`
	TotalErrors     int       `json:"total_errors" yaml:"total_errors"`
	AvgSyncDuration float64   `json:"avg_sync_duration" yaml:"avg_sync_duration"`
}

// SyncResult результат одного прохода синхронизации
type SyncResult struct {
	Success   bool          `json:"success" yaml:"success"`
	Pending   int           `json:"pending" yaml:"pending"`
	Uploaded  int           `json:"uploaded" yaml:"uploaded"`
	Failed    int           `json:"failed" yaml:"failed"`
	Skipped   int           `json:"skipped" yaml:"skipped"`
	Errors    []SyncError   `json:"errors" yaml:"errors"`
	Duration  time.Duration `json:"duration" yaml:"duration"`
	StartTime time.Time     `json:"start_time" yaml:"start_time"`
	EndTime   time.Time     `json:"end_time" yaml:"end_time"`
}

// NewSyncService создает новый сервис синхронизации
func NewSyncService(app *App) *SyncService {
	s := &SyncService{
		app:   app,
		log:   app.log.With("component", "sync"),
		stats: &SyncStats{},
	}

	if stats, err := s.loadStats(); err == nil {
		s.stats = stats
	}

	return s
}

// Sync загружает по очереди все записи с Uploaded == false.
// Неудача одной записи не останавливает проход.
func (s *SyncService) Sync(ctx context.Context, strategy upload.Strategy) (*SyncResult, error) {
	s.mu.Lock()
	if s.isSyncing {
		s.mu.Unlock()
		return nil, ErrSyncInProgress
	}

	s.isSyncing = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.isSyncing = false
		s.mu.Unlock()
	}()

	result := &SyncResult{
		StartTime: s.app.clock.Now(),
		Errors:    []SyncError{},
	}

	// Проверяем условия для синхронизации
	if err := s.preSyncChecks(ctx, strategy); err != nil {
		result.Errors = append(result.Errors, SyncError{
			Error:     err.Error(),
			Operation: "pre_sync_check",
			Timestamp: s.app.clock.Now(),
		})
		s.finish(result)
		return result, err
	}

	videos, err := s.app.List(ctx)
	if err != nil {
		s.log.Error("Ошибка получения списка клипов", "error", err)
		result.Errors = append(result.Errors, SyncError{
			Error:     err.Error(),
			Operation: "list",
			Timestamp: s.app.clock.Now(),
		})
		s.finish(result)
		return result, err
	}

	pending := pendingIDs(videos)
	result.Pending = len(pending)

	s.log.Info("Начало синхронизации", "pending", len(pending))

	for _, id := range pending {
		if ctx.Err() != nil {
			result.Skipped += len(pending) - result.Uploaded - result.Failed - result.Skipped
			break
		}

		outcome, err := s.app.Upload(ctx, id, strategy, nil)
		switch {
		case errors.Is(err, ErrUploadInProgress):
			// запись уже грузится в другом месте, это не ошибка
			result.Skipped++
		case errors.Is(err, video.ErrNotFound):
			// удалили между List и Upload
			result.Skipped++
		case err != nil:
			result.Failed++
			result.Errors = append(result.Errors, SyncError{
				RecordID:  id,
				Error:     err.Error(),
				Operation: "upload",
				Timestamp: s.app.clock.Now(),
			})
		case !outcome.Success:
			result.Failed++
			result.Errors = append(result.Errors, SyncError{
				RecordID:  id,
				Error:     outcome.Message,
				Operation: "upload",
				Timestamp: s.app.clock.Now(),
			})
		default:
			result.Uploaded++
		}
	}

	s.finish(result)

	if result.Success {
		s.log.Info("Синхронизация успешно завершена",
			"duration", result.Duration,
			"uploaded", result.Uploaded,
			"skipped", result.Skipped,
		)
	} else {
		s.log.Warn("Синхронизация завершена с ошибками",
			"duration", result.Duration,
			"uploaded", result.Uploaded,
			"failed", result.Failed,
			"errors", len(result.Errors),
		)
	}

	return result, nil
}

// preSyncChecks проверяет условия для синхронизации
func (s *SyncService) preSyncChecks(ctx context.Context, strategy upload.Strategy) error {
	if strategy == nil {
		return fmt.Errorf("стратегия загрузки не задана")
	}

	// для настоящей загрузки сервер должен отвечать
	if _, ok := strategy.(*upload.Remote); ok {
		if err := s.app.CheckConnection(ctx); err != nil {
			return fmt.Errorf("сервер недоступен: %w", err)
		}
	}

	return nil
}

func (s *SyncService) finish(result *SyncResult) {
	result.EndTime = s.app.clock.Now()
	result.Duration = result.EndTime.Sub(result.StartTime)
	result.Success = len(result.Errors) == 0

	s.mu.Lock()
	s.lastSync = result.EndTime
	s.updateStats(result)
	s.mu.Unlock()
}

// updateStats обновляет статистику синхронизации. Вызывается под s.mu.
func (s *SyncService) updateStats(result *SyncResult) {
	s.stats.TotalSyncs++

	if result.Success {
		s.stats.LastSuccessful = result.EndTime
	} else {
		s.stats.LastFailed = result.EndTime
	}

	s.stats.TotalUploaded += result.Uploaded
	s.stats.TotalFailed += result.Failed
	s.stats.TotalErrors += len(result.Errors)

	// Обновляем среднюю продолжительность
	if s.stats.AvgSyncDuration == 0 {
		s.stats.AvgSyncDuration = result.Duration.Seconds()
	} else {
		s.stats.AvgSyncDuration = (s.stats.AvgSyncDuration*float64(s.stats.TotalSyncs-1) +
			result.Duration.Seconds()) / float64(s.stats.TotalSyncs)
	}
}

func pendingIDs(videos []*video.Video) []string {
	ids := make([]string, 0, len(videos))
	for _, v := range videos {
		if !v.Uploaded {
			ids = append(ids, v.ID)
		}
	}
	return ids
}

// StartAutoSync запускает синхронизацию раз в interval до отмены ctx
func (s *SyncService) StartAutoSync(ctx context.Context, interval time.Duration, strategy upload.Strategy) {
	s.log.Info("Запуск автоматической синхронизации", "interval", interval)

	ticker := s.app.clock.Ticker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.log.Info("Автоматическая синхронизация остановлена")
			return
		case <-ticker.C:
			if _, err := s.Sync(ctx, strategy); err != nil && !errors.Is(err, ErrSyncInProgress) {
				s.log.Error("Ошибка автоматической синхронизации", "error", err)
			}
		}
	}
}

// GetStats возвращает копию статистики синхронизации
func (s *SyncService) GetStats() *SyncStats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	statsCopy := *s.stats
	return &statsCopy
}

// GetLastSyncTime возвращает время последней синхронизации
func (s *SyncService) GetLastSyncTime() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastSync
}

// IsSyncing проверяет, выполняется ли синхронизация
func (s *SyncService) IsSyncing() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isSyncing
}

// ResetStats сбрасывает статистику синхронизации
func (s *SyncService) ResetStats() error {
	s.mu.Lock()
	s.stats = &SyncStats{}
	s.mu.Unlock()

	return s.saveStats()
}

func (s *SyncService) loadStats() (*SyncStats, error) {
	data, err := os.ReadFile(filepath.Join(s.app.config.ConfigDir, statsFile))
	if err != nil {
		return nil, err
	}

	var stats SyncStats
	if err := json.Unmarshal(data, &stats); err != nil {
		return nil, fmt.Errorf("ошибка парсинга статистики: %w", err)
	}

	return &stats, nil
}

func (s *SyncService) saveStats() error {
	s.mu.RLock()
	data, err := json.MarshalIndent(s.stats, "", "  ")
	s.mu.RUnlock()
	if err != nil {
		return fmt.Errorf("ошибка сериализации статистики: %w", err)
	}

	if err := os.WriteFile(filepath.Join(s.app.config.ConfigDir, statsFile), data, 0600); err != nil {
		return fmt.Errorf("ошибка записи статистики: %w", err)
	}

	return nil
}
