package capture

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/hashicorp/go-multierror"
	"golang.org/x/exp/slog"
)

// State - состояние сессии записи
type State string

const (
	StateIdle       State = "idle"
	StateRecording  State = "recording"
	StateFinalizing State = "finalizing"
)

const (
	DefaultTickInterval = time.Second
	// DefaultFlushTimeout ограничивает ожидание сброса буферов в Stop
	DefaultFlushTimeout = 15 * time.Second
)

// Saver принимает собранную запись. Его реализует video.Store.
type Saver interface {
	Create(ctx context.Context, payload []byte) (string, error)
}

// Result - итог успешной записи
type Result struct {
	ID   string
	Size int64
	// Playback читает только что записанные байты, в хранилище не ходит
	Playback *bytes.Reader
}

// Session ведет одну запись за раз: idle -> recording -> finalizing -> idle.
type Session struct {
	device Device
	saver  Saver
	clock  clock.Clock
	tick   time.Duration
	flush  time.Duration
	log    *slog.Logger

	mu        sync.Mutex
	state     State
	stream    Stream
	collected chan []byte
	finished  chan struct{}
	stopTick  chan struct{}
	tickWG    sync.WaitGroup

	elapsed atomic.Int64
}

type Option func(*Session)

// WithClock подменяет часы, по которым тикает счетчик длительности
func WithClock(c clock.Clock) Option {
	return func(s *Session) {
		s.clock = c
	}
}

// WithTickInterval задает шаг счетчика длительности
func WithTickInterval(d time.Duration) Option {
	return func(s *Session) {
		if d > 0 {
			s.tick = d
		}
	}
}

// WithFlushTimeout задает, сколько Stop ждет сброса буферов устройства.
// По истечении устройство освобождается принудительно.
func WithFlushTimeout(d time.Duration) Option {
	return func(s *Session) {
		if d > 0 {
			s.flush = d
		}
	}
}

func NewSession(device Device, saver Saver, log *slog.Logger, opts ...Option) *Session {
	s := &Session{
		device: device,
		saver:  saver,
		clock:  clock.New(),
		tick:   DefaultTickInterval,
		flush:  DefaultFlushTimeout,
		log:    log.With("component", "capture_session"),
		state:  StateIdle,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Done закрывается, когда устройство само закончило отдавать данные
// (например, файл дочитан). Запись после этого все равно надо завершить Stop.
// Вне записи возвращает nil.
func (s *Session) Done() <-chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.finished
}

// Elapsed возвращает число прошедших интервалов записи (секунд по умолчанию)
func (s *Session) Elapsed() int {
	return int(s.elapsed.Load())
}

// Start захватывает устройство и начинает запись
func (s *Session) Start(ctx context.Context, c Constraints) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateIdle {
		return fmt.Errorf("start in state %s: %w", s.state, ErrInvalidState)
	}

	stream, err := s.device.Open(ctx, c)
	if err != nil {
		s.log.Warn("failed to open capture device", "error", err)
		if errors.Is(err, ErrDeviceUnavailable) {
			return err
		}
		return fmt.Errorf("%w: %w", ErrDeviceUnavailable, err)
	}

	s.stream = stream
	s.collected = make(chan []byte, 1)
	s.finished = make(chan struct{})
	go collect(stream.Chunks(), s.collected, s.finished)

	s.elapsed.Store(0)
	s.stopTick = make(chan struct{})
	ticker := s.clock.Ticker(s.tick)
	s.tickWG.Add(1)
	go s.runTicker(ticker, s.stopTick)

	s.state = StateRecording
	s.log.Info("recording started")
	return nil
}

// Stop сбрасывает буферы устройства, освобождает его и сохраняет запись.
// Ожидание сброса ограничено ctx и flush timeout. В любом исходе устройство
// освобождается, а сессия возвращается в idle.
func (s *Session) Stop(ctx context.Context) (*Result, error) {
	s.mu.Lock()
	if s.state != StateRecording {
		state := s.state
		s.mu.Unlock()
		return nil, fmt.Errorf("stop in state %s: %w", state, ErrInvalidState)
	}
	s.state = StateFinalizing
	s.haltTicker()
	stream, collected := s.stream, s.collected
	s.mu.Unlock()

	defer s.reset()

	var result *multierror.Error
	if err := stream.Stop(); err != nil {
		result = multierror.Append(result, fmt.Errorf("flush capture: %w", err))
	}

	var payload []byte
	if result == nil {
		var err error
		flushCtx, cancel := context.WithTimeout(ctx, s.flush)
		payload, err = awaitPayload(flushCtx, collected)
		cancel()
		if err != nil {
			result = multierror.Append(result, err)
		}
	}

	if err := stream.Close(); err != nil {
		result = multierror.Append(result, fmt.Errorf("release device: %w", err))
	}

	if err := result.ErrorOrNil(); err != nil {
		s.log.Error("failed to finalize recording", "error", err)
		return nil, err
	}

	if len(payload) == 0 {
		return nil, ErrEmptyRecording
	}

	id, err := s.saver.Create(ctx, payload)
	if err != nil {
		s.log.Error("failed to save recording", "error", err, "size", len(payload))
		return nil, fmt.Errorf("%w: %w", ErrSaveFailed, err)
	}

	s.log.Info("recording saved", "id", id, "size", len(payload), "elapsed", s.Elapsed())

	return &Result{
		ID:       id,
		Size:     int64(len(payload)),
		Playback: bytes.NewReader(payload),
	}, nil
}

// Abort прерывает запись и выбрасывает данные
func (s *Session) Abort() error {
	s.mu.Lock()
	if s.state != StateRecording {
		state := s.state
		s.mu.Unlock()
		return fmt.Errorf("abort in state %s: %w", state, ErrInvalidState)
	}
	s.haltTicker()
	stream := s.stream
	s.mu.Unlock()

	defer s.reset()

	s.log.Info("recording aborted")
	return stream.Close()
}

// Close освобождает устройство, если запись еще идет
func (s *Session) Close() error {
	if s.State() != StateRecording {
		return nil
	}
	err := s.Abort()
	if errors.Is(err, ErrInvalidState) {
		return nil
	}
	return err
}

func (s *Session) reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stream = nil
	s.collected = nil
	s.finished = nil
	s.state = StateIdle
}

// haltTicker останавливает счетчик; после возврата он больше не растет.
// Вызывается под s.mu.
func (s *Session) haltTicker() {
	if s.stopTick == nil {
		return
	}
	close(s.stopTick)
	s.stopTick = nil
	s.tickWG.Wait()
}

func (s *Session) runTicker(ticker *clock.Ticker, stop <-chan struct{}) {
	defer s.tickWG.Done()
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			select {
			case <-stop:
				return
			default:
				s.elapsed.Add(1)
			}
		}
	}
}

func collect(chunks <-chan []byte, out chan<- []byte, finished chan<- struct{}) {
	var buf bytes.Buffer
	for chunk := range chunks {
		buf.Write(chunk)
	}
	close(finished)
	out <- buf.Bytes()
}

func awaitPayload(ctx context.Context, collected <-chan []byte) ([]byte, error) {
	select {
	case payload := <-collected:
		return payload, nil
	case <-ctx.Done():
		return nil, fmt.Errorf("wait for flush: %w", ctx.Err())
	}
}
