package sqlite

import (
	"bytes"
	"context"
	"crypto/rand"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/slog"

	"clipkeeper/internal/domain/video"
)

func newTestStore(t *testing.T) (*Store, string) {
	t.Helper()

	path := filepath.Join(t.TempDir(), "clips.db")
	s := New(path, 0, slog.Default())
	t.Cleanup(func() { _ = s.Close() })

	return s, path
}

func randomPayload(t *testing.T, n int) []byte {
	t.Helper()

	buf := make([]byte, n)
	_, err := rand.Read(buf)
	require.NoError(t, err)
	return buf
}

func TestStore_CreateGet_RoundTrip(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	payloads := [][]byte{
		[]byte("x"),
		[]byte("short clip"),
		randomPayload(t, 64*1024),
	}

	for _, p := range payloads {
		id, err := s.Create(ctx, p)
		require.NoError(t, err)
		require.NotEmpty(t, id)

		v, err := s.Get(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, p, v.Payload)
		assert.Equal(t, int64(len(p)), v.Size)
		assert.False(t, v.Uploaded)
		assert.False(t, v.CreatedAt.IsZero())
		assert.NotEmpty(t, v.DisplayName)
		assert.NotEmpty(t, v.ContentType)
	}
}

func TestStore_Create_EmptyPayload(t *testing.T) {
	s, _ := newTestStore(t)

	_, err := s.Create(context.Background(), nil)
	assert.ErrorIs(t, err, video.ErrEmptyPayload)
}

func TestStore_LazyInitialize(t *testing.T) {
	s, path := newTestStore(t)

	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err), "database must not exist before first use")

	list, err := s.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, list)

	_, err = os.Stat(path)
	assert.NoError(t, err)
}

func TestStore_Initialize_Concurrent(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	errs := make(chan error, 16)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- s.Initialize(ctx)
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		assert.NoError(t, err)
	}
	assert.NotNil(t, s.conn())

	// повторный вызов после успешной инициализации - no-op
	assert.NoError(t, s.Initialize(ctx))
}

func TestStore_Initialize_CancelledCallerDoesNotPoisonOpen(t *testing.T) {
	s, _ := newTestStore(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// открытие общее для всех ожидающих, отмена одного из них его не прерывает
	require.NoError(t, s.Initialize(ctx))
	assert.NotNil(t, s.conn())

	id, err := s.Create(context.Background(), []byte("clip"))
	require.NoError(t, err)
	assert.NotEmpty(t, id)
}

func TestStore_CloseRacesWithReads(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	id, err := s.Create(ctx, []byte("clip"))
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				// гонка с Close допускает ошибку, но не панику
				v, err := s.Get(ctx, id)
				if err == nil {
					assert.Equal(t, []byte("clip"), v.Payload)
				}
				_, _ = s.ListMeta(ctx)
			}
		}()
	}
	for i := 0; i < 20; i++ {
		_ = s.Close()
	}
	wg.Wait()

	v, err := s.Get(ctx, id)
	require.NoError(t, err, "store reopens lazily after close")
	assert.Equal(t, id, v.ID)
}

func TestStore_Initialize_Unavailable(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "blocker")
	require.NoError(t, os.WriteFile(blocker, []byte("not a dir"), 0600))

	s := New(filepath.Join(blocker, "clips.db"), 0, slog.Default())
	defer s.Close()

	err := s.Initialize(context.Background())
	assert.ErrorIs(t, err, video.ErrStorageUnavailable)

	_, err = s.Create(context.Background(), []byte("data"))
	assert.ErrorIs(t, err, video.ErrStorageUnavailable)

	assert.Equal(t, video.Usage{}, s.UsageEstimate(context.Background()))
}

func TestStore_Get_NotFound(t *testing.T) {
	s, _ := newTestStore(t)

	_, err := s.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, video.ErrNotFound)
	assert.NotErrorIs(t, err, video.ErrStorage)
}

func TestStore_List_InsertionOrder(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	var ids []string
	for i := 0; i < 5; i++ {
		id, err := s.Create(ctx, []byte{byte(i + 1)})
		require.NoError(t, err)
		ids = append(ids, id)
	}

	list, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 5)
	for i, v := range list {
		assert.Equal(t, ids[i], v.ID)
	}
}

func TestStore_ListMeta_OmitsPayload(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	var ids []string
	for i := 0; i < 3; i++ {
		id, err := s.Create(ctx, randomPayload(t, 1024*(i+1)))
		require.NoError(t, err)
		ids = append(ids, id)
	}
	require.NoError(t, s.MarkUploaded(ctx, ids[1]))

	list, err := s.ListMeta(ctx)
	require.NoError(t, err)
	require.Len(t, list, 3)
	for i, v := range list {
		assert.Equal(t, ids[i], v.ID)
		assert.Nil(t, v.Payload)
		assert.Equal(t, int64(1024*(i+1)), v.Size)
		assert.NotEmpty(t, v.Checksum)
		assert.False(t, v.CreatedAt.IsZero())
		assert.Equal(t, i == 1, v.Uploaded)
	}
}

func TestStore_MarkUploaded(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	id, err := s.Create(ctx, []byte("clip"))
	require.NoError(t, err)

	require.NoError(t, s.MarkUploaded(ctx, id))
	require.NoError(t, s.MarkUploaded(ctx, id), "second call must be a no-op")

	v, err := s.Get(ctx, id)
	require.NoError(t, err)
	assert.True(t, v.Uploaded)
	assert.Equal(t, []byte("clip"), v.Payload)

	assert.ErrorIs(t, s.MarkUploaded(ctx, "missing"), video.ErrNotFound)
}

func TestStore_Delete(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	id, err := s.Create(ctx, []byte("clip"))
	require.NoError(t, err)

	require.NoError(t, s.Delete(ctx, id))

	_, err = s.Get(ctx, id)
	assert.ErrorIs(t, err, video.ErrNotFound)

	// повторное удаление сообщает о несуществующем id и ничего не воскрешает
	assert.ErrorIs(t, s.Delete(ctx, id), video.ErrNotFound)
	_, err = s.Get(ctx, id)
	assert.ErrorIs(t, err, video.ErrNotFound)

	assert.ErrorIs(t, s.MarkUploaded(ctx, id), video.ErrNotFound)
}

func TestStore_SurvivesRestart(t *testing.T) {
	s, path := newTestStore(t)
	ctx := context.Background()

	payload := randomPayload(t, 4096)
	id, err := s.Create(ctx, payload)
	require.NoError(t, err)
	require.NoError(t, s.MarkUploaded(ctx, id))
	require.NoError(t, s.Close())

	reopened := New(path, 0, slog.Default())
	defer reopened.Close()

	v, err := reopened.Get(ctx, id)
	require.NoError(t, err)
	assert.True(t, bytes.Equal(payload, v.Payload))
	assert.True(t, v.Uploaded)
}

func TestStore_CorruptedPayload(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	id, err := s.Create(ctx, []byte("clip"))
	require.NoError(t, err)

	_, err = s.conn().ExecContext(ctx, `UPDATE videos SET payload = ? WHERE id = ?`, []byte("tampered"), id)
	require.NoError(t, err)

	_, err = s.Get(ctx, id)
	assert.ErrorIs(t, err, video.ErrStorage)
	assert.NotErrorIs(t, err, video.ErrNotFound)

	_, err = s.List(ctx)
	assert.ErrorIs(t, err, video.ErrStorage)
}

func TestStore_UsageScenario(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	before, err := s.List(ctx)
	require.NoError(t, err)
	usageBefore := s.UsageEstimate(ctx)

	id, err := s.Create(ctx, randomPayload(t, 5*1024*1024))
	require.NoError(t, err)

	after, err := s.List(ctx)
	require.NoError(t, err)
	assert.Len(t, after, len(before)+1)

	usageAfter := s.UsageEstimate(ctx)
	assert.Greater(t, usageAfter.Used, usageBefore.Used)

	require.NoError(t, s.Delete(ctx, id))

	final, err := s.List(ctx)
	require.NoError(t, err)
	assert.Len(t, final, len(after)-1)
}

func TestStore_UsageEstimate_ConfiguredQuota(t *testing.T) {
	path := filepath.Join(t.TempDir(), "clips.db")
	s := New(path, 1<<30, slog.Default())
	defer s.Close()

	usage := s.UsageEstimate(context.Background())
	assert.Equal(t, int64(1<<30), usage.Quota)
	assert.Greater(t, usage.Used, int64(0))
}
