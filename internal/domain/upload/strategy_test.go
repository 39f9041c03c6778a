package upload

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/slog"
)

func collect() (*[]Progress, Sink) {
	var events []Progress
	return &events, SinkFunc(func(p Progress) { events = append(events, p) })
}

func TestParseMode(t *testing.T) {
	tests := []struct {
		in      string
		want    Mode
		wantErr bool
	}{
		{in: "simulated", want: ModeSimulated},
		{in: "mock", want: ModeSimulated},
		{in: " Remote ", want: ModeRemote},
		{in: "real", want: ModeRemote},
		{in: "fail", want: ModeFail},
		{in: "force-fail", want: ModeFail},
		{in: "carrier-pigeon", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseMode(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrUnknownMode)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNewStrategy(t *testing.T) {
	s, err := NewStrategy(Config{Mode: ModeSimulated}, slog.Default())
	require.NoError(t, err)
	assert.IsType(t, &Simulated{}, s)

	s, err = NewStrategy(Config{Mode: ModeFail}, slog.Default())
	require.NoError(t, err)
	assert.IsType(t, &AlwaysFail{}, s)

	_, err = NewStrategy(Config{Mode: ModeRemote}, slog.Default())
	assert.Error(t, err)

	s, err = NewStrategy(Config{Mode: ModeRemote, Endpoint: "http://localhost:8080"}, slog.Default())
	require.NoError(t, err)
	assert.IsType(t, &Remote{}, s)

	_, err = NewStrategy(Config{Mode: "ftp"}, slog.Default())
	assert.ErrorIs(t, err, ErrUnknownMode)
}

func TestSimulated_Success(t *testing.T) {
	s := &Simulated{Steps: 4, Rand: func() float64 { return 0.1 }, SuccessRate: 0.8}
	events, sink := collect()

	out := s.Attempt(context.Background(), []byte("payload"), sink)
	assert.True(t, out.Success)
	assert.Contains(t, out.RemoteURL, "sim://clips/")

	require.Len(t, *events, 5)
	assert.Equal(t, 25, (*events)[0].Percent)
	assert.Equal(t, 100, (*events)[3].Percent)
	assert.Equal(t, StatusSuccess, (*events)[4].Status)
}

func TestSimulated_Failure(t *testing.T) {
	s := &Simulated{Steps: 2, Rand: func() float64 { return 0.95 }, SuccessRate: 0.8}
	events, sink := collect()

	out := s.Attempt(context.Background(), []byte("payload"), sink)
	assert.False(t, out.Success)
	assert.Equal(t, StatusFailed, (*events)[len(*events)-1].Status)
}

func TestSimulated_UsesClock(t *testing.T) {
	mockClock := clock.NewMock()
	s := &Simulated{Steps: 2, StepDelay: time.Second, Clock: mockClock, Rand: func() float64 { return 0 }}

	done := make(chan Outcome, 1)
	go func() {
		done <- s.Attempt(context.Background(), []byte("x"), SinkFunc(func(Progress) {}))
	}()

	// таймеры мокнутых часов срабатывают только при Add
	require.Eventually(t, func() bool {
		mockClock.Add(time.Second)
		select {
		case out := <-done:
			assert.True(t, out.Success)
			return true
		default:
			return false
		}
	}, time.Second, 5*time.Millisecond)
}

func TestSimulated_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	out := (&Simulated{Steps: 3}).Attempt(ctx, []byte("x"), SinkFunc(func(Progress) {}))
	assert.False(t, out.Success)
}

func TestAlwaysFail(t *testing.T) {
	events, sink := collect()

	out := (&AlwaysFail{}).Attempt(context.Background(), []byte("x"), sink)
	assert.False(t, out.Success)

	require.Len(t, *events, 3)
	assert.Equal(t, 25, (*events)[0].Percent)
	assert.Equal(t, 50, (*events)[1].Percent)
	assert.Equal(t, StatusFailed, (*events)[2].Status)
	assert.Equal(t, 50, (*events)[2].Percent)
}

func TestRemote_Created(t *testing.T) {
	var gotBody []byte
	var gotName, gotType string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/v1/videos", r.URL.Path)
		gotName = r.URL.Query().Get("name")
		gotType = r.Header.Get("Content-Type")
		gotBody, _ = io.ReadAll(r.Body)

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id":"abc","url":"https://cdn.test/abc","status":"stored"}`))
	}))
	defer srv.Close()

	ctx := WithClip(context.Background(), ClipInfo{ID: "1", Name: "clip-2024-05-01_10-00-00.webm", ContentType: "video/webm"})
	events, sink := collect()

	out := NewRemote(srv.URL, time.Second, slog.Default()).Attempt(ctx, []byte("payload"), sink)
	require.True(t, out.Success, out.Message)
	assert.Equal(t, "https://cdn.test/abc", out.RemoteURL)
	assert.Equal(t, []byte("payload"), gotBody)
	assert.Equal(t, "clip-2024-05-01_10-00-00.webm", gotName)
	assert.Equal(t, "video/webm", gotType)

	assert.Equal(t, 50, (*events)[0].Percent)
	assert.Equal(t, StatusSuccess, (*events)[len(*events)-1].Status)
}

func TestRemote_EmptyBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	out := NewRemote(srv.URL, time.Second, slog.Default()).Attempt(context.Background(), []byte("payload"), SinkFunc(func(Progress) {}))
	assert.True(t, out.Success)
	assert.Empty(t, out.RemoteURL)
}

func TestRemote_IDWithoutURL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id":"abc"}`))
	}))
	defer srv.Close()

	out := NewRemote(srv.URL+"/", time.Second, slog.Default()).Attempt(context.Background(), []byte("payload"), SinkFunc(func(Progress) {}))
	assert.True(t, out.Success)
	assert.Equal(t, srv.URL+"/api/v1/videos/abc/content", out.RemoteURL)
}

func TestRemote_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"detail":"storage offline"}`))
	}))
	defer srv.Close()

	events, sink := collect()
	out := NewRemote(srv.URL, time.Second, slog.Default()).Attempt(context.Background(), []byte("payload"), sink)
	assert.False(t, out.Success)
	assert.Contains(t, out.Message, "500")
	assert.Contains(t, out.Message, "storage offline")
	assert.Equal(t, StatusFailed, (*events)[len(*events)-1].Status)
}

func TestRemote_NetworkError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	endpoint := srv.URL
	srv.Close()

	out := NewRemote(endpoint, time.Second, slog.Default()).Attempt(context.Background(), []byte("payload"), SinkFunc(func(Progress) {}))
	assert.False(t, out.Success)
	assert.Contains(t, out.Message, "network error")
}

func TestTracker_SingleTerminal(t *testing.T) {
	var events []Progress
	tr := newTracker(func(p Progress) { events = append(events, p) })

	tr.Report(Progress{Status: StatusUploading, Percent: 10})
	tr.Report(Progress{Status: StatusFailed, Percent: 10})
	tr.finish(Outcome{Success: false, Message: "x"})
	tr.finish(Outcome{Success: true})
	tr.Report(Progress{Status: StatusUploading, Percent: 90})

	require.Len(t, events, 2)
	assert.Equal(t, StatusFailed, events[1].Status)
	assert.Equal(t, 10, events[1].Percent)
}
