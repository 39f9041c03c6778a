package cmd

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"clipkeeper/cmd/client/cmd/clip"
	"clipkeeper/cmd/client/cmd/sync"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Инициализировать клиент ClipKeeper",
	Long: `Команда init выполняет первоначальную настройку клиента:
	1. Создает директорию для хранения данных
	2. Создает локальное хранилище клипов
	3. Проверяет соединение с сервером приема`,
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Println("=== Инициализация ClipKeeper ===")
		fmt.Println()

		fmt.Printf("Директория данных: %s\n", cfg.ConfigDir)
		if err := app.Init(cmd.Context()); err != nil {
			return err
		}
		fmt.Println("✓ Хранилище клипов готово")

		usage := app.Usage(cmd.Context())
		if usage.Known() {
			fmt.Printf("  Занято %s из %s\n", humanize.Bytes(uint64(usage.Used)), humanize.Bytes(uint64(usage.Quota)))
		}

		fmt.Println("Проверка соединения с сервером...")
		if err := app.CheckConnection(cmd.Context()); err != nil {
			fmt.Printf("⚠️  Предупреждение: не удалось подключиться к серверу: %v\n", err)
			fmt.Println("Клипы будут сохраняться локально, загрузить их можно позже.")
		} else {
			fmt.Println("✓ Соединение с сервером установлено")
		}

		fmt.Println()
		fmt.Println("✅ Инициализация успешно завершена!")
		fmt.Println()
		fmt.Println("Что дальше:")
		fmt.Println("1. Запишите клип: clipkeeper clip record --file demo.webm")
		fmt.Println("2. Посмотрите список: clipkeeper clip list")
		fmt.Println("3. Загрузите клипы на сервер: clipkeeper sync")

		return nil
	},
}

func init() {
	rootCmd.AddCommand(initCmd)

	rootCmd.AddCommand(clip.ClipCmd)
	clip.ClipCmd.AddCommand(clip.RecordCmd)
	clip.ClipCmd.AddCommand(clip.ListCmd)
	clip.ClipCmd.AddCommand(clip.GetCmd)
	clip.ClipCmd.AddCommand(clip.DeleteCmd)
	clip.ClipCmd.AddCommand(clip.UploadCmd)
	clip.ClipCmd.AddCommand(clip.UsageCmd)

	rootCmd.AddCommand(sync.SyncCmd)
	rootCmd.AddCommand(sync.WatchCmd)
}
