package clip

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"clipkeeper/internal/app/client"
)

// ClipCmd - родительская команда для всех операций с клипами
var ClipCmd = &cobra.Command{
	Use:   "clip",
	Short: "Управление клипами",
	Long:  `Запись, просмотр, загрузка и удаление видеоклипов.`,
}

func appFrom(ctx context.Context) (*client.App, error) {
	app, ok := client.FromContext(ctx)
	if !ok {
		return nil, fmt.Errorf("приложение не инициализировано")
	}
	return app, nil
}

func shortID(id string) string {
	if len(id) <= 13 {
		return id
	}
	return id[:13]
}

func truncate(s string, length int) string {
	if len(s) <= length {
		return s
	}
	return s[:length-3] + "..."
}

func uploadedMark(uploaded bool) string {
	if uploaded {
		return "✓"
	}
	return "…"
}
