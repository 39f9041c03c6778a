package device

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/hashicorp/go-multierror"

	"clipkeeper/internal/domain/capture"
)

// File отдает содержимое готового файла кусками, как будто его пишет камера.
// При Interval > 0 кусок выдается раз в Interval, и Stop обрывает чтение.
type File struct {
	Path      string
	ChunkSize int
	Interval  time.Duration
	Clock     clock.Clock
}

func NewFile(path string) *File {
	return &File{Path: path, ChunkSize: defaultChunkSize}
}

func (d *File) Open(_ context.Context, _ capture.Constraints) (capture.Stream, error) {
	f, err := os.Open(d.Path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", capture.ErrDeviceUnavailable, err)
	}

	clk := d.Clock
	if clk == nil {
		clk = clock.New()
	}
	size := d.ChunkSize
	if size <= 0 {
		size = defaultChunkSize
	}

	s := &fileStream{
		file:   f,
		chunks: make(chan []byte),
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
	}
	go s.pump(size, d.Interval, clk)
	return s, nil
}

type fileStream struct {
	file   *os.File
	chunks chan []byte
	stop   chan struct{}
	done   chan struct{}

	stopOnce  sync.Once
	closeOnce sync.Once
	readErr   error
}

func (s *fileStream) Chunks() <-chan []byte {
	return s.chunks
}

func (s *fileStream) pump(size int, interval time.Duration, clk clock.Clock) {
	defer close(s.done)
	defer close(s.chunks)

	for {
		if interval > 0 {
			timer := clk.Timer(interval)
			select {
			case <-s.stop:
				timer.Stop()
				return
			case <-timer.C:
			}
		}

		buf := make([]byte, size)
		n, err := s.file.Read(buf)
		if n > 0 {
			select {
			case s.chunks <- buf[:n]:
			case <-s.stop:
				if interval > 0 {
					return
				}
				// без интервала Stop означает "дочитать до конца"
				s.chunks <- buf[:n]
			}
		}
		if err != nil {
			if !errors.Is(err, io.EOF) {
				s.readErr = err
			}
			return
		}
	}
}

func (s *fileStream) Stop() error {
	s.stopOnce.Do(func() { close(s.stop) })
	return nil
}

func (s *fileStream) Close() error {
	var result *multierror.Error
	s.closeOnce.Do(func() {
		s.stopOnce.Do(func() { close(s.stop) })
		go func() {
			for range s.chunks {
			}
		}()
		<-s.done
		if s.readErr != nil {
			result = multierror.Append(result, s.readErr)
		}
		if err := s.file.Close(); err != nil {
			result = multierror.Append(result, err)
		}
	})
	return result.ErrorOrNil()
}
