package device

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/slog"

	"clipkeeper/internal/domain/capture"
)

func drain(t *testing.T, s capture.Stream) []byte {
	t.Helper()

	var out []byte
	timeout := time.After(5 * time.Second)
	for {
		select {
		case chunk, ok := <-s.Chunks():
			if !ok {
				return out
			}
			out = append(out, chunk...)
		case <-timeout:
			t.Fatal("stream did not finish")
			return nil
		}
	}
}

func TestFile_StreamsWholeFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "clip.webm")
	content := make([]byte, 10_000)
	for i := range content {
		content[i] = byte(i)
	}
	require.NoError(t, os.WriteFile(path, content, 0o600))

	d := NewFile(path)
	d.ChunkSize = 1024

	s, err := d.Open(context.Background(), capture.DefaultConstraints())
	require.NoError(t, err)

	require.NoError(t, s.Stop())
	assert.Equal(t, content, drain(t, s))
	assert.NoError(t, s.Close())
	assert.NoError(t, s.Close())
}

func TestFile_Missing(t *testing.T) {
	_, err := NewFile(filepath.Join(t.TempDir(), "nope.webm")).Open(context.Background(), capture.Constraints{})
	assert.ErrorIs(t, err, capture.ErrDeviceUnavailable)
}

func TestFile_IntervalStopsEarly(t *testing.T) {
	path := filepath.Join(t.TempDir(), "clip.webm")
	require.NoError(t, os.WriteFile(path, []byte("aaaabbbbcccc"), 0o600))

	mockClock := clock.NewMock()
	d := &File{Path: path, ChunkSize: 4, Interval: time.Second, Clock: mockClock}

	s, err := d.Open(context.Background(), capture.Constraints{})
	require.NoError(t, err)

	var got []byte
	require.Eventually(t, func() bool {
		mockClock.Add(time.Second)
		select {
		case chunk := <-s.Chunks():
			got = append(got, chunk...)
			return true
		default:
			return false
		}
	}, time.Second, time.Millisecond)

	require.NoError(t, s.Stop())
	got = append(got, drain(t, s)...)
	assert.Equal(t, []byte("aaaa"), got)
	assert.NoError(t, s.Close())
}

func TestCommand_Unavailable(t *testing.T) {
	_, err := NewCommand("", slog.Default()).Open(context.Background(), capture.Constraints{})
	assert.ErrorIs(t, err, capture.ErrDeviceUnavailable)

	_, err = NewCommand("definitely-not-a-recorder-binary --out -", slog.Default()).Open(context.Background(), capture.Constraints{})
	assert.ErrorIs(t, err, capture.ErrDeviceUnavailable)
}

func TestCommand_ReadsStdout(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("echo is a shell builtin on windows")
	}

	s, err := NewCommand("echo clip-bytes", slog.Default()).Open(context.Background(), capture.DefaultConstraints())
	require.NoError(t, err)

	assert.Equal(t, []byte("clip-bytes\n"), drain(t, s))
	assert.NoError(t, s.Stop())
	assert.NoError(t, s.Close())
}

func TestCommand_CloseKillsRunningProcess(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("no sleep binary on windows")
	}

	s, err := NewCommand("sleep 30", slog.Default()).Open(context.Background(), capture.Constraints{})
	require.NoError(t, err)

	start := time.Now()
	assert.NoError(t, s.Close())
	assert.Less(t, time.Since(start), stopGracePeriod)
}

func TestCommand_StopKillsRecorderIgnoringInterrupt(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("needs a POSIX shell")
	}

	script := filepath.Join(t.TempDir(), "recorder.sh")
	require.NoError(t, os.WriteFile(script,
		[]byte("#!/bin/sh\ntrap '' INT\nwhile :; do echo x; sleep 0.1; done\n"), 0o700))

	dev := NewCommand(script, slog.Default())
	dev.Grace = 200 * time.Millisecond

	saver := saverFunc(func(_ context.Context, payload []byte) (string, error) {
		return "clip-1", nil
	})
	session := capture.NewSession(dev, saver, slog.Default())
	require.NoError(t, session.Start(context.Background(), capture.DefaultConstraints()))
	time.Sleep(300 * time.Millisecond)

	type stopResult struct {
		res *capture.Result
		err error
	}
	done := make(chan stopResult, 1)
	go func() {
		res, err := session.Stop(context.Background())
		done <- stopResult{res, err}
	}()

	select {
	case r := <-done:
		require.NoError(t, r.err)
		assert.Equal(t, "clip-1", r.res.ID)
		assert.Positive(t, r.res.Size)
	case <-time.After(5 * time.Second):
		t.Fatal("Stop blocked on a recorder that ignores SIGINT")
	}
	assert.Equal(t, capture.StateIdle, session.State())
}

func TestSessionWithFileDevice(t *testing.T) {
	path := filepath.Join(t.TempDir(), "clip.webm")
	require.NoError(t, os.WriteFile(path, []byte("recorded clip"), 0o600))

	saver := saverFunc(func(_ context.Context, payload []byte) (string, error) {
		assert.Equal(t, []byte("recorded clip"), payload)
		return "clip-1", nil
	})

	session := capture.NewSession(NewFile(path), saver, slog.Default())
	require.NoError(t, session.Start(context.Background(), capture.DefaultConstraints()))

	res, err := session.Stop(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "clip-1", res.ID)
	assert.Equal(t, int64(len("recorded clip")), res.Size)
}

type saverFunc func(ctx context.Context, payload []byte) (string, error)

func (f saverFunc) Create(ctx context.Context, payload []byte) (string, error) {
	return f(ctx, payload)
}
