package clip

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"clipkeeper/internal/domain/video"
)

var (
	listFormat  string
	pendingOnly bool
)

var ListCmd = &cobra.Command{
	Use:   "list",
	Short: "Список клипов",
	Long:  `Просмотр всех сохраненных клипов в порядке записи.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := appFrom(cmd.Context())
		if err != nil {
			return err
		}

		videos, err := app.List(cmd.Context())
		if err != nil {
			return fmt.Errorf("ошибка получения списка клипов: %w", err)
		}

		if pendingOnly {
			filtered := videos[:0]
			for _, v := range videos {
				if !v.Uploaded {
					filtered = append(filtered, v)
				}
			}
			videos = filtered
		}

		switch listFormat {
		case "json":
			return printVideosJSON(videos)
		case "table":
			return printVideosTable(videos)
		case "csv":
			return printVideosCSV(videos)
		default:
			return printVideosSimple(videos)
		}
	},
}

func printVideosSimple(videos []*video.Video) error {
	if len(videos) == 0 {
		fmt.Println("Клипы не найдены")
		return nil
	}

	fmt.Printf("Найдено клипов: %d\n\n", len(videos))

	for i, v := range videos {
		fmt.Printf("%d. [%s] %s\n", i+1, uploadedMark(v.Uploaded), v.DisplayName)
		fmt.Printf("   ID: %s | %s | %s\n",
			v.ID,
			humanize.Bytes(uint64(v.Size)),
			humanize.Time(v.CreatedAt))
		fmt.Println()
	}

	return nil
}

func printVideosTable(videos []*video.Video) error {
	if len(videos) == 0 {
		fmt.Println("Клипы не найдены")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "ID\tИмя\tТип\tРазмер\tЗагружен\tЗаписан\t\n")
	fmt.Fprintf(w, "---\t---\t---\t---\t---\t---\t\n")

	for _, v := range videos {
		status := "нет"
		if v.Uploaded {
			status = "да"
		}

		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t\n",
			shortID(v.ID),
			truncate(v.DisplayName, 40),
			v.ContentType,
			humanize.Bytes(uint64(v.Size)),
			status,
			v.CreatedAt.Format("2006-01-02 15:04"),
		)
	}

	w.Flush()
	fmt.Printf("\nВсего клипов: %d\n", len(videos))
	return nil
}

func printVideosJSON(videos []*video.Video) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(videos)
}

func printVideosCSV(videos []*video.Video) error {
	fmt.Println("ID,Name,ContentType,Size,Uploaded,CreatedAt")

	for _, v := range videos {
		fmt.Printf("%s,%q,%s,%d,%t,%s\n",
			v.ID,
			v.DisplayName,
			v.ContentType,
			v.Size,
			v.Uploaded,
			v.CreatedAt.Format(time.RFC3339),
		)
	}

	return nil
}

func init() {
	ListCmd.Flags().StringVarP(&listFormat, "format", "f", "simple", "формат вывода (simple, table, json, csv)")
	ListCmd.Flags().BoolVar(&pendingOnly, "pending", false, "только не загруженные клипы")
}
