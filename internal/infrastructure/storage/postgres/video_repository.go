package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/exp/slog"

	"clipkeeper/internal/domain/ingest"
)

type VideoRepository struct {
	pool *pgxpool.Pool
	log  *slog.Logger
}

func NewVideoRepository(pool *pgxpool.Pool, log *slog.Logger) *VideoRepository {
	return &VideoRepository{
		pool: pool,
		log:  log.With("component", "video_repository"),
	}
}

func (r *VideoRepository) Create(ctx context.Context, v *ingest.Video) error {
	const query = `
		INSERT INTO videos (id, name, content_type, size, checksum, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := r.pool.Exec(ctx, query, v.ID, v.Name, v.ContentType, v.Size, v.Checksum, v.CreatedAt)
	if err != nil {
		r.log.Error("failed to create video", "id", v.ID, "error", err)
		return fmt.Errorf("create video: %w", err)
	}
	return nil
}

func (r *VideoRepository) Get(ctx context.Context, id string) (*ingest.Video, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ingest.ErrNotFound
	}

	const query = `
		SELECT id, name, content_type, size, checksum, created_at
		FROM videos
		WHERE id = $1`

	var v ingest.Video
	err := r.pool.QueryRow(ctx, query, id).
		Scan(&v.ID, &v.Name, &v.ContentType, &v.Size, &v.Checksum, &v.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ingest.ErrNotFound
		}
		r.log.Error("failed to get video", "id", id, "error", err)
		return nil, fmt.Errorf("get video: %w", err)
	}

	return &v, nil
}

func (r *VideoRepository) List(ctx context.Context) ([]ingest.Video, error) {
	const query = `
		SELECT id, name, content_type, size, checksum, created_at
		FROM videos
		ORDER BY created_at DESC, id DESC`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		r.log.Error("failed to list videos", "error", err)
		return nil, fmt.Errorf("list videos: %w", err)
	}
	defer rows.Close()

	videos := make([]ingest.Video, 0)
	for rows.Next() {
		var v ingest.Video
		if err := rows.Scan(&v.ID, &v.Name, &v.ContentType, &v.Size, &v.Checksum, &v.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan video: %w", err)
		}
		videos = append(videos, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate videos: %w", err)
	}

	return videos, nil
}

func (r *VideoRepository) Delete(ctx context.Context, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return ingest.ErrNotFound
	}

	tag, err := r.pool.Exec(ctx, `DELETE FROM videos WHERE id = $1`, id)
	if err != nil {
		r.log.Error("failed to delete video", "id", id, "error", err)
		return fmt.Errorf("delete video: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ingest.ErrNotFound
	}
	return nil
}
