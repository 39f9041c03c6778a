package sqlite

import (
	"context"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"golang.org/x/crypto/blake2b"
	"golang.org/x/exp/slog"
	"golang.org/x/sync/singleflight"

	"clipkeeper/internal/domain/video"
)

const schema = `
	CREATE TABLE IF NOT EXISTS videos (
		id TEXT PRIMARY KEY,
		payload BLOB NOT NULL,
		size INTEGER NOT NULL,
		checksum TEXT NOT NULL,
		content_type TEXT NOT NULL,
		display_name TEXT NOT NULL,
		created_at INTEGER NOT NULL,
		uploaded BOOLEAN NOT NULL DEFAULT 0
	);

	CREATE INDEX IF NOT EXISTS idx_videos_uploaded ON videos(uploaded);
`

// Store - реализация video.Store поверх SQLite
type Store struct {
	path  string
	quota int64
	log   *slog.Logger
	now   func() time.Time

	group singleflight.Group
	mu    sync.RWMutex
	db    *sql.DB
}

var _ video.Store = (*Store)(nil)

// New создает хранилище. Файл базы открывается лениво, при первой операции.
// quota <= 0 означает "спросить у файловой системы".
func New(path string, quota int64, log *slog.Logger) *Store {
	return &Store{
		path:  path,
		quota: quota,
		log:   log.With("component", "video_store"),
		now:   time.Now,
	}
}

// Initialize открывает или создает базу. Безопасен для конкурентного вызова:
// одновременные вызовы схлопываются в одну попытку, неудачная попытка не кэшируется.
func (s *Store) Initialize(ctx context.Context) error {
	_, err := s.initialize(ctx)
	return err
}

// initialize возвращает соединение, которое видел именно этот вызов
func (s *Store) initialize(ctx context.Context) (*sql.DB, error) {
	if db := s.conn(); db != nil {
		return db, nil
	}

	v, err, _ := s.group.Do("init", func() (interface{}, error) {
		if db := s.conn(); db != nil {
			return db, nil
		}

		// отмена первого вызывающего не должна ронять остальных
		db, err := s.open(context.WithoutCancel(ctx))
		if err != nil {
			return nil, err
		}

		s.mu.Lock()
		s.db = db
		s.mu.Unlock()

		s.log.Debug("video store opened", "path", s.path)
		return db, nil
	})
	if err != nil {
		return nil, err
	}

	return v.(*sql.DB), nil
}

func (s *Store) open(ctx context.Context) (*sql.DB, error) {
	if err := os.MkdirAll(filepath.Dir(s.path), 0700); err != nil {
		return nil, fmt.Errorf("%w: create data dir: %v", video.ErrStorageUnavailable, err)
	}

	db, err := sql.Open("sqlite3", s.path+"?_foreign_keys=on&_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("%w: open database: %v", video.ErrStorageUnavailable, err)
	}
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: ping database: %v", video.ErrStorageUnavailable, err)
	}

	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: create schema: %v", video.ErrStorageUnavailable, err)
	}

	return db, nil
}

func (s *Store) conn() *sql.DB {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.db
}

func (s *Store) ready(ctx context.Context) (*sql.DB, error) {
	db, err := s.initialize(ctx)
	if err != nil {
		return nil, err
	}
	if db == nil {
		return nil, fmt.Errorf("%w: store is closed", video.ErrStorageUnavailable)
	}
	return db, nil
}

// Create сохраняет новый клип одной транзакцией и возвращает его id
func (s *Store) Create(ctx context.Context, payload []byte) (string, error) {
	if len(payload) == 0 {
		return "", video.ErrEmptyPayload
	}

	db, err := s.ready(ctx)
	if err != nil {
		return "", err
	}

	createdAt := s.now()
	contentType, ext := video.DetectContentType(payload)
	v := &video.Video{
		ID:          video.NewID(),
		Size:        int64(len(payload)),
		Checksum:    checksum(payload),
		ContentType: contentType,
		DisplayName: video.DisplayName(createdAt, ext),
		CreatedAt:   createdAt,
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("create video: begin: %w: %w", video.ErrStorage, err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO videos (id, payload, size, checksum, content_type, display_name, created_at, uploaded)
		VALUES (?, ?, ?, ?, ?, ?, ?, 0)
	`, v.ID, payload, v.Size, v.Checksum, v.ContentType, v.DisplayName, v.CreatedAt.UnixNano())
	if err != nil {
		s.log.Error("failed to insert video", "size", v.Size, "error", err)
		return "", fmt.Errorf("create video: %w: %w", video.ErrStorage, err)
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("create video: commit: %w: %w", video.ErrStorage, err)
	}

	s.log.Info("video stored", "id", v.ID, "size", v.Size, "content_type", v.ContentType)
	return v.ID, nil
}

// Get возвращает клип по id вместе с содержимым
func (s *Store) Get(ctx context.Context, id string) (*video.Video, error) {
	db, err := s.ready(ctx)
	if err != nil {
		return nil, err
	}

	row := db.QueryRowContext(ctx, `
		SELECT id, payload, size, checksum, content_type, display_name, created_at, uploaded
		FROM videos
		WHERE id = ?
	`, id)

	v, err := scanVideo(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, video.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get video %s: %w: %w", id, video.ErrStorage, err)
	}

	return v, nil
}

// List возвращает все клипы в порядке вставки
func (s *Store) List(ctx context.Context) ([]*video.Video, error) {
	db, err := s.ready(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx, `
		SELECT id, payload, size, checksum, content_type, display_name, created_at, uploaded
		FROM videos
		ORDER BY rowid
	`)
	if err != nil {
		return nil, fmt.Errorf("list videos: %w: %w", video.ErrStorage, err)
	}
	defer rows.Close()

	videos := make([]*video.Video, 0)
	for rows.Next() {
		v, err := scanVideo(rows)
		if err != nil {
			return nil, fmt.Errorf("list videos: %w: %w", video.ErrStorage, err)
		}
		videos = append(videos, v)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list videos: %w: %w", video.ErrStorage, err)
	}

	return videos, nil
}

// ListMeta возвращает метаданные всех клипов в порядке вставки, без содержимого.
// Payload у результатов пустой, контрольная сумма не проверяется.
func (s *Store) ListMeta(ctx context.Context) ([]*video.Video, error) {
	db, err := s.ready(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx, `
		SELECT id, size, checksum, content_type, display_name, created_at, uploaded
		FROM videos
		ORDER BY rowid
	`)
	if err != nil {
		return nil, fmt.Errorf("list video metadata: %w: %w", video.ErrStorage, err)
	}
	defer rows.Close()

	videos := make([]*video.Video, 0)
	for rows.Next() {
		var v video.Video
		var createdAt int64
		if err := rows.Scan(&v.ID, &v.Size, &v.Checksum, &v.ContentType,
			&v.DisplayName, &createdAt, &v.Uploaded); err != nil {
			return nil, fmt.Errorf("list video metadata: %w: %w", video.ErrStorage, err)
		}
		v.CreatedAt = time.Unix(0, createdAt)
		videos = append(videos, &v)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list video metadata: %w: %w", video.ErrStorage, err)
	}

	return videos, nil
}

// MarkUploaded ставит флаг uploaded. Повторный вызов ничего не меняет.
func (s *Store) MarkUploaded(ctx context.Context, id string) error {
	db, err := s.ready(ctx)
	if err != nil {
		return err
	}

	result, err := db.ExecContext(ctx, `UPDATE videos SET uploaded = 1 WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("mark uploaded %s: %w: %w", id, video.ErrStorage, err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("mark uploaded %s: %w: %w", id, video.ErrStorage, err)
	}
	if n == 0 {
		return video.ErrNotFound
	}

	s.log.Info("video marked uploaded", "id", id)
	return nil
}

// Delete удаляет клип безвозвратно. Для отсутствующего id возвращает ErrNotFound.
func (s *Store) Delete(ctx context.Context, id string) error {
	db, err := s.ready(ctx)
	if err != nil {
		return err
	}

	result, err := db.ExecContext(ctx, `DELETE FROM videos WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete video %s: %w: %w", id, video.ErrStorage, err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete video %s: %w: %w", id, video.ErrStorage, err)
	}
	if n == 0 {
		return video.ErrNotFound
	}

	s.log.Info("video deleted", "id", id)
	return nil
}

// UsageEstimate никогда не возвращает ошибку: если посчитать не удалось, будут нули
func (s *Store) UsageEstimate(ctx context.Context) video.Usage {
	db, err := s.ready(ctx)
	if err != nil {
		s.log.Warn("usage estimate unavailable", "error", err)
		return video.Usage{}
	}

	var pageCount, freePages, pageSize int64
	if err := db.QueryRowContext(ctx, `PRAGMA page_count`).Scan(&pageCount); err != nil {
		s.log.Warn("failed to read page_count", "error", err)
		return video.Usage{}
	}
	if err := db.QueryRowContext(ctx, `PRAGMA freelist_count`).Scan(&freePages); err != nil {
		s.log.Warn("failed to read freelist_count", "error", err)
		return video.Usage{}
	}
	if err := db.QueryRowContext(ctx, `PRAGMA page_size`).Scan(&pageSize); err != nil {
		s.log.Warn("failed to read page_size", "error", err)
		return video.Usage{}
	}

	used := (pageCount - freePages) * pageSize
	quota := s.quota
	if quota <= 0 {
		if free := freeSpace(filepath.Dir(s.path)); free > 0 {
			quota = used + free
		}
	}

	return video.Usage{Used: used, Quota: quota}
}

func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db == nil {
		return nil
	}

	err := s.db.Close()
	s.db = nil
	return err
}

func scanVideo(row interface {
	Scan(dest ...interface{}) error
}) (*video.Video, error) {
	var v video.Video
	var createdAt int64

	err := row.Scan(&v.ID, &v.Payload, &v.Size, &v.Checksum, &v.ContentType,
		&v.DisplayName, &createdAt, &v.Uploaded)
	if err != nil {
		return nil, err
	}

	if checksum(v.Payload) != v.Checksum {
		return nil, fmt.Errorf("checksum mismatch for video %s", v.ID)
	}

	v.CreatedAt = time.Unix(0, createdAt)
	return &v, nil
}

func checksum(payload []byte) string {
	sum := blake2b.Sum256(payload)
	return hex.EncodeToString(sum[:])
}
