package upload

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/benbjohnson/clock"
	"golang.org/x/exp/slog"
)

// Outcome - результат одной попытки загрузки
type Outcome struct {
	Success   bool   `json:"success"`
	Message   string `json:"message"`
	RemoteURL string `json:"remote_url,omitempty"`
}

// Err возвращает nil при успехе и ошибку вида ErrTransportFailure иначе
func (o Outcome) Err() error {
	if o.Success {
		return nil
	}
	return fmt.Errorf("%w: %s", ErrTransportFailure, o.Message)
}

func failure(format string, args ...interface{}) Outcome {
	return Outcome{Message: fmt.Sprintf(format, args...)}
}

// Strategy - взаимозаменяемый способ доставить содержимое клипа.
// Attempt не должен паниковать и всегда возвращает итог.
type Strategy interface {
	Attempt(ctx context.Context, payload []byte, sink Sink) Outcome
}

// Mode - тег варианта стратегии в конфигурации
type Mode string

const (
	ModeSimulated Mode = "simulated"
	ModeRemote    Mode = "remote"
	ModeFail      Mode = "fail"
)

// ParseMode разбирает режим из строки конфигурации или флага
func ParseMode(s string) (Mode, error) {
	switch m := Mode(strings.ToLower(strings.TrimSpace(s))); m {
	case ModeSimulated, ModeRemote, ModeFail:
		return m, nil
	case "mock":
		return ModeSimulated, nil
	case "real":
		return ModeRemote, nil
	case "force-fail":
		return ModeFail, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownMode, s)
	}
}

// Config описывает выбранную стратегию и ее параметры
type Config struct {
	Mode        Mode
	Endpoint    string
	Timeout     time.Duration
	Steps       int
	StepDelay   time.Duration
	SuccessRate float64
	Clock       clock.Clock
}

// NewStrategy собирает стратегию по тегу режима
func NewStrategy(cfg Config, log *slog.Logger) (Strategy, error) {
	switch cfg.Mode {
	case ModeSimulated:
		return &Simulated{
			Steps:       cfg.Steps,
			StepDelay:   cfg.StepDelay,
			SuccessRate: cfg.SuccessRate,
			Clock:       cfg.Clock,
		}, nil
	case ModeRemote:
		if cfg.Endpoint == "" {
			return nil, fmt.Errorf("remote upload requires an endpoint")
		}
		return NewRemote(cfg.Endpoint, cfg.Timeout, log), nil
	case ModeFail:
		return &AlwaysFail{StepDelay: cfg.StepDelay, Clock: cfg.Clock}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownMode, cfg.Mode)
	}
}

// wait ждет d или отмены контекста. d <= 0 не ждет вовсе.
func wait(ctx context.Context, clk clock.Clock, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if d <= 0 {
		return nil
	}
	if clk == nil {
		clk = clock.New()
	}

	timer := clk.Timer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
