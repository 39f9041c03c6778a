package sync

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/goccy/go-yaml"
	"github.com/spf13/cobra"

	"clipkeeper/internal/app/client"
)

var (
	syncMode   string
	syncStatus bool
	resetStats bool
	syncYAML   bool
)

var SyncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Загрузить все незагруженные клипы",
	Long: `Проходит по локальному хранилищу и по одному загружает клипы,
которые еще не на сервере. Неудачные клипы остаются для следующего раза.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, ok := client.FromContext(cmd.Context())
		if !ok {
			return fmt.Errorf("приложение не инициализировано")
		}

		if syncStatus {
			return showSyncStatus(cmd.Context(), app)
		}

		if resetStats {
			if err := app.ResetSyncStats(); err != nil {
				return err
			}
			fmt.Println("✓ Статистика синхронизации сброшена")
			return nil
		}

		return runSync(cmd.Context(), app)
	},
}

func runSync(ctx context.Context, app *client.App) error {
	strategy, err := app.Strategy(syncMode)
	if err != nil {
		return err
	}

	fmt.Println("=== Синхронизация клипов ===")

	result, err := app.Sync(ctx, strategy)
	if err != nil {
		return fmt.Errorf("ошибка синхронизации: %w", err)
	}

	if syncYAML {
		return printYAML(result)
	}

	fmt.Println()
	if result.Success {
		fmt.Println("✅ Синхронизация завершена!")
	} else {
		fmt.Println("⚠️  Синхронизация завершена с ошибками")
	}
	fmt.Printf("Время выполнения: %v\n", result.Duration.Round(time.Millisecond))
	fmt.Printf("Ожидали загрузки: %d\n", result.Pending)
	fmt.Printf("Загружено:        %d\n", result.Uploaded)
	fmt.Printf("Не удалось:       %d\n", result.Failed)
	fmt.Printf("Пропущено:        %d\n", result.Skipped)

	for _, e := range result.Errors {
		fmt.Printf("  ✗ %s: %s\n", e.RecordID, e.Error)
	}

	return nil
}

func showSyncStatus(ctx context.Context, app *client.App) error {
	videos, err := app.List(ctx)
	if err != nil {
		return fmt.Errorf("ошибка получения списка клипов: %w", err)
	}

	pending := 0
	var pendingBytes int64
	for _, v := range videos {
		if !v.Uploaded {
			pending++
			pendingBytes += v.Size
		}
	}

	stats := app.SyncStats()

	if syncYAML {
		return printYAML(struct {
			Local   int               `yaml:"local"`
			Pending int               `yaml:"pending"`
			Stats   *client.SyncStats `yaml:"stats"`
		}{len(videos), pending, stats})
	}

	fmt.Println("=== Статус синхронизации ===")
	fmt.Printf("Клипов локально:   %d\n", len(videos))
	fmt.Printf("Ждут загрузки:     %d (%s)\n", pending, humanize.Bytes(uint64(pendingBytes)))
	fmt.Printf("Всего проходов:    %d\n", stats.TotalSyncs)
	fmt.Printf("Всего загружено:   %d\n", stats.TotalUploaded)
	if !stats.LastSuccessful.IsZero() {
		fmt.Printf("Последний успех:   %s\n", humanize.Time(stats.LastSuccessful))
	}
	if !stats.LastFailed.IsZero() {
		fmt.Printf("Последняя ошибка:  %s\n", humanize.Time(stats.LastFailed))
	}

	fmt.Println()
	if err := app.CheckConnection(ctx); err != nil {
		fmt.Printf("Сервер недоступен: %v\n", err)
		return nil
	}

	remote, err := app.RemoteVideos(ctx)
	if err != nil {
		fmt.Printf("Не удалось получить список с сервера: %v\n", err)
		return nil
	}
	fmt.Printf("Клипов на сервере: %d\n", len(remote))

	return nil
}

func printYAML(v interface{}) error {
	data, err := yaml.Marshal(v)
	if err != nil {
		return fmt.Errorf("ошибка сериализации: %w", err)
	}
	_, err = os.Stdout.Write(data)
	return err
}

func init() {
	SyncCmd.Flags().StringVar(&syncMode, "mode", "", "режим загрузки (simulated, remote, fail)")
	SyncCmd.Flags().BoolVar(&syncStatus, "status", false, "показать статус синхронизации")
	SyncCmd.Flags().BoolVar(&resetStats, "reset-stats", false, "сбросить статистику")
	SyncCmd.Flags().BoolVar(&syncYAML, "yaml", false, "вывод в формате YAML")
}
