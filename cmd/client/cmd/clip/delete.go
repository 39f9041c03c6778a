package clip

import (
	"fmt"

	"github.com/spf13/cobra"
)

var DeleteCmd = &cobra.Command{
	Use:   "delete [id]",
	Short: "Удалить клип",
	Long:  `Удаляет клип из локального хранилища. Удаление необратимо.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := appFrom(cmd.Context())
		if err != nil {
			return err
		}

		if err := app.Delete(cmd.Context(), args[0]); err != nil {
			return fmt.Errorf("ошибка удаления клипа: %w", err)
		}

		fmt.Printf("✓ Клип %s удален\n", args[0])
		return nil
	},
}
