package client

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	gosync "sync"
	"syscall"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/hashicorp/go-multierror"
	"golang.org/x/exp/slog"

	"clipkeeper/internal/app/client/config"
	"clipkeeper/internal/domain/capture"
	"clipkeeper/internal/domain/upload"
	"clipkeeper/internal/domain/video"
	"clipkeeper/internal/infrastructure/storage/sqlite"
)

type App struct {
	config      *config.Config
	log         *slog.Logger
	clock       clock.Clock
	store       video.Store
	coordinator *upload.Coordinator
	httpClient  *httpClient
	syncService *SyncService

	// inFlight - id записей, над которыми сейчас идет загрузка или удаление
	inFlight map[string]struct{}
	mu       gosync.Mutex

	wg     gosync.WaitGroup
	cancel context.CancelFunc
}

func New(cfg *config.Config, log *slog.Logger) (*App, error) {
	if err := os.MkdirAll(cfg.ConfigDir, 0700); err != nil {
		return nil, fmt.Errorf("ошибка создания директории конфигурации: %w", err)
	}

	store := sqlite.New(cfg.DatabasePath, cfg.StorageQuota, log)

	return NewWithStore(cfg, store, clock.New(), log), nil
}

// NewWithStore собирает приложение поверх готового хранилища
func NewWithStore(cfg *config.Config, store video.Store, clk clock.Clock, log *slog.Logger) *App {
	app := &App{
		config:      cfg,
		log:         log,
		clock:       clk,
		store:       store,
		coordinator: upload.NewCoordinator(store, log),
		httpClient:  NewHTTPClient(cfg, log),
		inFlight:    make(map[string]struct{}),
	}
	app.syncService = NewSyncService(app)

	return app
}

// Init создает хранилище, если его еще нет
func (a *App) Init(ctx context.Context) error {
	if err := a.store.Initialize(ctx); err != nil {
		return fmt.Errorf("ошибка инициализации хранилища: %w", err)
	}
	return nil
}

// CheckConnection проверяет соединение с сервером
func (a *App) CheckConnection(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	return a.httpClient.HealthCheck(ctx)
}

// Strategy собирает стратегию загрузки. Пустой mode - режим из конфигурации.
func (a *App) Strategy(mode string) (upload.Strategy, error) {
	if mode == "" {
		mode = a.config.Upload.Mode
	}

	m, err := upload.ParseMode(mode)
	if err != nil {
		return nil, err
	}

	return upload.NewStrategy(upload.Config{
		Mode:        m,
		Endpoint:    a.config.ServerURL(),
		Timeout:     a.config.Upload.Timeout,
		Steps:       a.config.Upload.Steps,
		StepDelay:   a.config.Upload.StepDelay,
		SuccessRate: a.config.Upload.SuccessRate,
		Clock:       a.clock,
	}, a.log)
}

// Record записывает клип с устройства. Запись идет duration, до отмены ctx
// или пока устройство само не закончит; duration <= 0 - без ограничения.
// Отмена ctx означает "остановить и сохранить", а не "выбросить".
func (a *App) Record(ctx context.Context, dev capture.Device, c capture.Constraints, duration time.Duration, onTick func(elapsed int)) (*capture.Result, error) {
	session := capture.NewSession(dev, a.store, a.log,
		capture.WithClock(a.clock),
		capture.WithTickInterval(a.config.Capture.TickInterval),
	)

	if err := session.Start(ctx, c); err != nil {
		return nil, err
	}
	defer session.Close()

	var limit <-chan time.Time
	if duration > 0 {
		timer := a.clock.Timer(duration)
		defer timer.Stop()
		limit = timer.C
	}

	tick := a.config.Capture.TickInterval
	if tick <= 0 {
		tick = capture.DefaultTickInterval
	}
	ticker := a.clock.Ticker(tick)
	defer ticker.Stop()

wait:
	for {
		select {
		case <-ctx.Done():
			break wait
		case <-limit:
			break wait
		case <-session.Done():
			break wait
		case <-ticker.C:
			if onTick != nil {
				onTick(session.Elapsed())
			}
		}
	}

	return session.Stop(context.WithoutCancel(ctx))
}

// Upload загружает запись, если над ней сейчас не идет другая операция
func (a *App) Upload(ctx context.Context, id string, strategy upload.Strategy, observer upload.Observer) (upload.Outcome, error) {
	if !a.acquire(id) {
		return upload.Outcome{}, fmt.Errorf("%s: %w", id, ErrUploadInProgress)
	}
	defer a.release(id)

	return a.coordinator.Upload(ctx, id, strategy, observer)
}

// Delete удаляет запись. Пока запись загружается, удалить ее нельзя.
func (a *App) Delete(ctx context.Context, id string) error {
	if !a.acquire(id) {
		return fmt.Errorf("%s: %w", id, ErrUploadInProgress)
	}
	defer a.release(id)

	if err := a.store.Delete(ctx, id); err != nil {
		return err
	}

	a.log.Info("Клип удален", "id", id)
	return nil
}

func (a *App) Get(ctx context.Context, id string) (*video.Video, error) {
	return a.store.Get(ctx, id)
}

// List возвращает метаданные клипов без содержимого
func (a *App) List(ctx context.Context) ([]*video.Video, error) {
	return a.store.ListMeta(ctx)
}

func (a *App) Usage(ctx context.Context) video.Usage {
	return a.store.UsageEstimate(ctx)
}

// Sync загружает все записи, которые еще не на сервере
func (a *App) Sync(ctx context.Context, strategy upload.Strategy) (*SyncResult, error) {
	return a.syncService.Sync(ctx, strategy)
}

func (a *App) SyncStats() *SyncStats {
	return a.syncService.GetStats()
}

func (a *App) ResetSyncStats() error {
	return a.syncService.ResetStats()
}

// RemoteVideos возвращает список клипов на сервере приема
func (a *App) RemoteVideos(ctx context.Context) ([]RemoteVideo, error) {
	return a.httpClient.ListVideos(ctx)
}

// CaptureCommand - команда записи из конфигурации
func (a *App) CaptureCommand() string {
	return a.config.Capture.Command
}

func (a *App) Logger() *slog.Logger {
	return a.log
}

// IsUploading сообщает, идет ли сейчас операция над записью
func (a *App) IsUploading(id string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	_, ok := a.inFlight[id]
	return ok
}

func (a *App) acquire(id string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	if _, busy := a.inFlight[id]; busy {
		return false
	}
	a.inFlight[id] = struct{}{}
	return true
}

func (a *App) release(id string) {
	a.mu.Lock()
	defer a.mu.Unlock()

	delete(a.inFlight, id)
}

// Run запускает периодическую досылку записей до SIGINT/SIGTERM
func (a *App) Run(strategy upload.Strategy) error {
	ctx, cancel := context.WithCancel(context.Background())
	a.cancel = cancel
	defer cancel()

	go a.handleSignals(ctx)

	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		a.syncService.StartAutoSync(ctx, a.config.SyncInterval, strategy)
	}()

	a.log.Info("Клиент запущен",
		"server", a.config.ServerAddress,
		"env", a.config.Env,
		"interval", a.config.SyncInterval,
	)

	a.wg.Wait()
	return nil
}

func (a *App) handleSignals(ctx context.Context) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	select {
	case sig := <-sigChan:
		a.log.Info("Получен сигнал завершения", "signal", sig.String())
	case <-ctx.Done():
	}

	if a.cancel != nil {
		a.cancel()
	}
}

func (a *App) Shutdown() {
	a.log.Info("Завершение работы клиента...")

	if a.cancel != nil {
		a.cancel()
	}

	a.wg.Wait()
	a.log.Info("Клиент завершил работу")
}

// Close останавливает фоновые задачи и закрывает хранилище
func (a *App) Close() error {
	a.Shutdown()

	var result *multierror.Error
	if err := a.syncService.saveStats(); err != nil {
		result = multierror.Append(result, err)
	}
	if err := a.store.Close(); err != nil {
		result = multierror.Append(result, fmt.Errorf("ошибка закрытия хранилища: %w", err))
	}

	return result.ErrorOrNil()
}
