package sync

import (
	"fmt"

	"github.com/spf13/cobra"

	"clipkeeper/internal/app/client"
)

var watchMode string

var WatchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Досылать клипы в фоне",
	Long: `Периодически запускает синхронизацию (SYNC_INTERVAL_SECONDS),
пока не придет SIGINT или SIGTERM.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, ok := client.FromContext(cmd.Context())
		if !ok {
			return fmt.Errorf("приложение не инициализировано")
		}

		strategy, err := app.Strategy(watchMode)
		if err != nil {
			return err
		}

		fmt.Println("Фоновая загрузка запущена (Ctrl+C - выход)")
		return app.Run(strategy)
	},
}

func init() {
	WatchCmd.Flags().StringVar(&watchMode, "mode", "", "режим загрузки (simulated, remote, fail)")
}
