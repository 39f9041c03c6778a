package clip

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/goccy/go-yaml"
	"github.com/spf13/cobra"

	"clipkeeper/internal/domain/video"
)

var (
	outputFormat string
	exportPath   string
)

var GetCmd = &cobra.Command{
	Use:   "get [id]",
	Short: "Просмотреть клип",
	Long: `Просмотр метаданных клипа по ID.

С --export содержимое клипа записывается в файл, чтобы его можно было посмотреть.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := appFrom(cmd.Context())
		if err != nil {
			return err
		}

		v, err := app.Get(cmd.Context(), args[0])
		if err != nil {
			return fmt.Errorf("ошибка получения клипа: %w", err)
		}

		if exportPath != "" {
			if err := os.WriteFile(exportPath, v.Payload, 0o600); err != nil {
				return fmt.Errorf("ошибка экспорта клипа: %w", err)
			}
			fmt.Fprintf(os.Stderr, "Клип сохранен в %s\n", exportPath)
		}

		switch outputFormat {
		case "json":
			return printVideoJSON(v)
		case "yaml":
			return printVideoYAML(v)
		default:
			return printVideoHuman(v)
		}
	},
}

func printVideoHuman(v *video.Video) error {
	fmt.Printf("ID:          %s\n", v.ID)
	fmt.Printf("Имя:         %s\n", v.DisplayName)
	fmt.Printf("Тип:         %s\n", v.ContentType)
	fmt.Printf("Размер:      %s (%d байт)\n", humanize.Bytes(uint64(v.Size)), v.Size)
	fmt.Printf("Записан:     %s (%s)\n", v.CreatedAt.Format("2006-01-02 15:04:05"), humanize.Time(v.CreatedAt))
	fmt.Printf("Загружен:    %v\n", v.Uploaded)
	fmt.Printf("BLAKE2b:     %s\n", v.Checksum)
	return nil
}

func printVideoJSON(v *video.Video) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

func printVideoYAML(v *video.Video) error {
	data, err := yaml.Marshal(v)
	if err != nil {
		return fmt.Errorf("ошибка сериализации: %w", err)
	}
	_, err = os.Stdout.Write(data)
	return err
}

func init() {
	GetCmd.Flags().StringVarP(&outputFormat, "output", "o", "text", "формат вывода (text, json, yaml)")
	GetCmd.Flags().StringVar(&exportPath, "export", "", "записать содержимое клипа в файл")
}
