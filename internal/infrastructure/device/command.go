package device

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/hashicorp/go-multierror"
	"golang.org/x/exp/slog"

	"clipkeeper/internal/domain/capture"
)

const (
	defaultChunkSize = 64 * 1024
	stopGracePeriod  = 5 * time.Second
)

// Command записывает видео внешней программой (например ffmpeg),
// которая пишет контейнер в stdout.
//
// Параметры захвата передаются программе через переменные окружения
// CLIPKEEPER_WIDTH, CLIPKEEPER_HEIGHT, CLIPKEEPER_FPS, CLIPKEEPER_AUDIO.
//
// Stop посылает группе процесса SIGINT; если за Grace она не завершилась,
// группа убивается.
type Command struct {
	Line      string
	ChunkSize int
	Grace     time.Duration
	log       *slog.Logger
}

func NewCommand(line string, log *slog.Logger) *Command {
	return &Command{
		Line:      line,
		ChunkSize: defaultChunkSize,
		Grace:     stopGracePeriod,
		log:       log.With("component", "command_device"),
	}
}

func (d *Command) Open(_ context.Context, c capture.Constraints) (capture.Stream, error) {
	args := strings.Fields(d.Line)
	if len(args) == 0 {
		return nil, fmt.Errorf("%w: capture command is not configured", capture.ErrDeviceUnavailable)
	}

	bin, err := exec.LookPath(args[0])
	if err != nil {
		return nil, fmt.Errorf("%w: %w", capture.ErrDeviceUnavailable, err)
	}

	// процесс живет дольше ctx открытия, поэтому без CommandContext
	cmd := exec.Command(bin, args[1:]...)
	cmd.Env = append(os.Environ(), constraintEnv(c)...)
	cmd.Stderr = io.Discard
	setProcessGroup(cmd)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", capture.ErrDeviceUnavailable, err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("%w: %w", capture.ErrDeviceUnavailable, err)
	}

	d.log.Debug("capture process started", "bin", bin, "pid", cmd.Process.Pid)

	s := &commandStream{
		cmd:    cmd,
		chunks: make(chan []byte, 16),
		exited: make(chan struct{}),
		grace:  d.grace(),
		log:    d.log,
	}
	go s.pump(stdout, d.chunkSize())
	return s, nil
}

func (d *Command) chunkSize() int {
	if d.ChunkSize <= 0 {
		return defaultChunkSize
	}
	return d.ChunkSize
}

func (d *Command) grace() time.Duration {
	if d.Grace <= 0 {
		return stopGracePeriod
	}
	return d.Grace
}

type commandStream struct {
	cmd    *exec.Cmd
	chunks chan []byte
	exited chan struct{}
	grace  time.Duration
	log    *slog.Logger

	waitErr   error
	stopOnce  sync.Once
	closeOnce sync.Once
}

func (s *commandStream) Chunks() <-chan []byte {
	return s.chunks
}

// pump читает stdout до EOF, потом дожидается выхода процесса
func (s *commandStream) pump(r io.Reader, size int) {
	defer close(s.exited)
	defer close(s.chunks)

	for {
		buf := make([]byte, size)
		n, err := r.Read(buf)
		if n > 0 {
			s.chunks <- buf[:n]
		}
		if err != nil {
			if !errors.Is(err, io.EOF) && !errors.Is(err, os.ErrClosed) {
				s.log.Warn("capture read failed", "error", err)
			}
			break
		}
	}

	s.waitErr = s.cmd.Wait()
}

// Stop просит процесс завершиться штатно, чтобы он дописал контейнер.
// Процесс, который не вышел за grace, убивается, и Chunks закрывается.
func (s *commandStream) Stop() error {
	select {
	case <-s.exited:
		return nil
	default:
	}

	var err error
	s.stopOnce.Do(func() {
		if ierr := interruptProcess(s.cmd.Process); ierr != nil && !errors.Is(ierr, os.ErrProcessDone) {
			err = ierr
		}
		go s.escalate()
	})
	return err
}

func (s *commandStream) escalate() {
	timer := time.NewTimer(s.grace)
	defer timer.Stop()

	select {
	case <-s.exited:
	case <-timer.C:
		s.log.Warn("capture process ignored interrupt, killing", "pid", s.cmd.Process.Pid, "grace", s.grace)
		if err := killProcess(s.cmd.Process); err != nil && !errors.Is(err, os.ErrProcessDone) {
			s.log.Error("failed to kill capture process", "pid", s.cmd.Process.Pid, "error", err)
		}
	}
}

// Close освобождает устройство: процесс, который еще жив, убивается
func (s *commandStream) Close() error {
	var result *multierror.Error
	s.closeOnce.Do(func() {
		select {
		case <-s.exited:
		default:
			if kerr := killProcess(s.cmd.Process); kerr != nil && !errors.Is(kerr, os.ErrProcessDone) {
				result = multierror.Append(result, kerr)
			}
			// после отмены Chunks может никто не читать
			go func() {
				for range s.chunks {
				}
			}()
			select {
			case <-s.exited:
			case <-time.After(s.grace):
				result = multierror.Append(result, fmt.Errorf("capture process %d did not exit", s.cmd.Process.Pid))
				return
			}
		}

		var exitErr *exec.ExitError
		if s.waitErr != nil && !errors.As(s.waitErr, &exitErr) {
			result = multierror.Append(result, s.waitErr)
		}
	})
	return result.ErrorOrNil()
}

func constraintEnv(c capture.Constraints) []string {
	return []string{
		"CLIPKEEPER_WIDTH=" + strconv.Itoa(c.Width),
		"CLIPKEEPER_HEIGHT=" + strconv.Itoa(c.Height),
		"CLIPKEEPER_FPS=" + strconv.Itoa(c.FrameRate),
		"CLIPKEEPER_AUDIO=" + strconv.FormatBool(c.Audio),
	}
}
