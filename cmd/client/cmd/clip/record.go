package clip

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"clipkeeper/internal/app/client"
	"clipkeeper/internal/domain/capture"
	"clipkeeper/internal/infrastructure/device"
)

var (
	recordFile     string
	recordCommand  string
	recordDuration time.Duration
	recordNoAudio  bool
	recordUpload   bool
)

var RecordCmd = &cobra.Command{
	Use:   "record",
	Short: "Записать клип",
	Long: `Записывает клип с устройства и сразу сохраняет его локально.

Источник - внешняя программа записи (--command или CAPTURE_COMMAND),
которая пишет видео в stdout, либо готовый файл (--file).
Запись идет до --duration, до Ctrl+C или пока источник не закончится.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := appFrom(cmd.Context())
		if err != nil {
			return err
		}

		dev, err := pickDevice(app)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		constraints := capture.DefaultConstraints()
		constraints.Audio = !recordNoAudio

		printer := newProgressPrinter()
		fmt.Println("Запись... (Ctrl+C - остановить и сохранить)")

		res, err := app.Record(ctx, dev, constraints, recordDuration, printer.elapsed)
		printer.done()
		if err != nil {
			return fmt.Errorf("ошибка записи: %w", err)
		}

		fmt.Printf("✅ Клип сохранен: %s (%s)\n", res.ID, humanize.Bytes(uint64(res.Size)))

		if !recordUpload {
			return nil
		}

		strategy, err := app.Strategy(uploadMode)
		if err != nil {
			return err
		}
		out, err := app.Upload(cmd.Context(), res.ID, strategy, printer.observe)
		if err != nil {
			return err
		}
		if !out.Success {
			fmt.Println("Клип остался локально, загрузить его можно позже: clipkeeper sync")
		}
		return nil
	},
}

func pickDevice(app *client.App) (capture.Device, error) {
	if recordFile != "" {
		return device.NewFile(recordFile), nil
	}

	line := recordCommand
	if line == "" {
		line = app.CaptureCommand()
	}
	if line == "" {
		return nil, fmt.Errorf("%w: укажите --file, --command или CAPTURE_COMMAND", capture.ErrDeviceUnavailable)
	}
	return device.NewCommand(line, app.Logger()), nil
}

func init() {
	RecordCmd.Flags().StringVar(&recordFile, "file", "", "записать содержимое готового файла")
	RecordCmd.Flags().StringVar(&recordCommand, "command", "", "команда записи, пишущая видео в stdout")
	RecordCmd.Flags().DurationVarP(&recordDuration, "duration", "d", 0, "длительность записи (0 - до Ctrl+C)")
	RecordCmd.Flags().BoolVar(&recordNoAudio, "no-audio", false, "записывать без звука")
	RecordCmd.Flags().BoolVar(&recordUpload, "upload", false, "сразу загрузить клип после записи")
	RecordCmd.Flags().StringVar(&uploadMode, "mode", "", "режим загрузки для --upload (simulated, remote, fail)")
}
