package clip

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"clipkeeper/internal/domain/upload"
)

var (
	uploadMode string
	uploadJSON bool
)

var UploadCmd = &cobra.Command{
	Use:   "upload [id]",
	Short: "Загрузить клип на сервер",
	Long: `Одна попытка загрузки клипа выбранной стратегией.

Режимы: simulated - синтетический прогресс без сети, remote - сервер приема,
fail - всегда неудача (проверка повторных попыток).
Неудачная загрузка оставляет клип локально; повторите команду позже.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := appFrom(cmd.Context())
		if err != nil {
			return err
		}

		strategy, err := app.Strategy(uploadMode)
		if err != nil {
			return err
		}

		var observer upload.Observer
		printer := newProgressPrinter()
		if !uploadJSON {
			observer = printer.observe
		}

		out, err := app.Upload(cmd.Context(), args[0], strategy, observer)
		if err != nil {
			return fmt.Errorf("ошибка загрузки: %w", err)
		}

		if uploadJSON {
			encoder := json.NewEncoder(os.Stdout)
			encoder.SetIndent("", "  ")
			if err := encoder.Encode(out); err != nil {
				return err
			}
		} else if out.Success {
			fmt.Println("✅ Клип загружен")
			if out.RemoteURL != "" {
				fmt.Printf("Адрес: %s\n", out.RemoteURL)
			}
		}

		return out.Err()
	},
}

func init() {
	UploadCmd.Flags().StringVar(&uploadMode, "mode", "", "режим загрузки (simulated, remote, fail)")
	UploadCmd.Flags().BoolVar(&uploadJSON, "json", false, "вывести итог в формате JSON")
}
