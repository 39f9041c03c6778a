package clip

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

var UsageCmd = &cobra.Command{
	Use:   "usage",
	Short: "Занятое место",
	Long:  `Оценка места, занятого локальным хранилищем клипов.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := appFrom(cmd.Context())
		if err != nil {
			return err
		}

		usage := app.Usage(cmd.Context())
		if !usage.Known() {
			fmt.Println("Размер хранилища определить не удалось")
			return nil
		}

		fmt.Printf("Занято: %s\n", humanize.Bytes(uint64(usage.Used)))
		if usage.Quota > 0 {
			fmt.Printf("Доступно всего: %s (%.1f%%)\n",
				humanize.Bytes(uint64(usage.Quota)),
				float64(usage.Used)*100/float64(usage.Quota))
		}
		return nil
	},
}
