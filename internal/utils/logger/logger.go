package logger

import (
	"os"

	"golang.org/x/exp/slog"

	"clipkeeper/internal/utils/logger/handlers/slogpretty"
)

const (
	envLocal = "local"
	envDev   = "dev"
	envProd  = "prod"
)

// New собирает логгер под окружение: local - цветной вывод для человека,
// dev - JSON с debug, prod - JSON с info. Неизвестное окружение считается prod.
func New(env string) *slog.Logger {
	var log *slog.Logger

	switch env {
	case envLocal, "":
		log = setupPrettySlog()
	case envDev:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}),
		)
	case envProd:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}),
		)
	default:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}),
		)
	}

	return log
}

// NewStderr как New, но пишет в stderr, чтобы не мешать выводу CLI
func NewStderr(env string, level slog.Level) *slog.Logger {
	switch env {
	case envLocal, "":
		opts := slogpretty.PrettyHandlerOptions{
			SlogOpts: &slog.HandlerOptions{Level: level},
		}
		return slog.New(opts.NewPrettyHandler(os.Stderr))
	default:
		return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	}
}

// ParseLevel переводит LOG_LEVEL в уровень slog, по умолчанию info
func ParseLevel(s string) slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo
	}
	return level
}

func setupPrettySlog() *slog.Logger {
	opts := slogpretty.PrettyHandlerOptions{
		SlogOpts: &slog.HandlerOptions{
			Level: slog.LevelDebug,
		},
	}

	handler := opts.NewPrettyHandler(os.Stdout)

	return slog.New(handler)
}
