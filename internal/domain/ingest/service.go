package ingest

import (
	"context"
	"encoding/hex"
	"fmt"
	"io"
	"path"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"
	"golang.org/x/crypto/blake2b"
	"golang.org/x/exp/slog"
)

const (
	DefaultMaxUploadBytes = 512 << 20
	maxNameLength         = 255
)

// Service defines the business logic for accepting and serving clips
type Service struct {
	repo      Repository
	content   ContentStore
	publicURL string
	maxBytes  int64
	log       *slog.Logger
	now       func() time.Time
}

type Servicer interface {
	Upload(ctx context.Context, name, contentType string, body []byte) (*Video, error)
	List(ctx context.Context) (ListResponse, error)
	Find(ctx context.Context, id string) (*Video, error)
	Open(ctx context.Context, id string) (*Video, io.ReadCloser, error)
	Delete(ctx context.Context, id string) error
}

// NewService creates a new ingest service. publicURL is the base address
// clients use to reach this server; it is used to build content urls.
func NewService(repo Repository, content ContentStore, publicURL string, maxBytes int64, log *slog.Logger) *Service {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxUploadBytes
	}

	return &Service{
		repo:      repo,
		content:   content,
		publicURL: strings.TrimRight(publicURL, "/"),
		maxBytes:  maxBytes,
		log:       log.With("component", "ingest_service"),
		now:       time.Now,
	}
}

// Upload stores the content first and the metadata second.
// If the metadata insert fails, the stored content is removed.
func (s *Service) Upload(ctx context.Context, name, contentType string, body []byte) (*Video, error) {
	if len(body) == 0 {
		return nil, fmt.Errorf("%w: empty body", ErrInvalidUpload)
	}
	if int64(len(body)) > s.maxBytes {
		return nil, fmt.Errorf("%w: %d bytes exceeds limit of %d", ErrInvalidUpload, len(body), s.maxBytes)
	}

	detected := mimetype.Detect(body)
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = detected.String()
	}

	id, err := uuid.NewV7()
	if err != nil {
		id = uuid.New()
	}

	sum := blake2b.Sum256(body)
	v := &Video{
		ID:          id.String(),
		Name:        cleanName(name, id.String()+detected.Extension()),
		ContentType: contentType,
		Size:        int64(len(body)),
		Checksum:    hex.EncodeToString(sum[:]),
		CreatedAt:   s.now().UTC(),
	}

	if err := s.content.Put(ctx, v.ID, body, v.ContentType); err != nil {
		s.log.Error("failed to store content", "id", v.ID, "size", v.Size, "error", err)
		return nil, fmt.Errorf("store content: %w", err)
	}

	if err := s.repo.Create(ctx, v); err != nil {
		var result *multierror.Error
		result = multierror.Append(result, fmt.Errorf("save metadata: %w", err))
		if derr := s.content.Delete(context.WithoutCancel(ctx), v.ID); derr != nil {
			result = multierror.Append(result, fmt.Errorf("remove orphaned content: %w", derr))
		}
		s.log.Error("failed to save video metadata", "id", v.ID, "error", result)
		return nil, result.ErrorOrNil()
	}

	v.URL = s.contentURL(v.ID)
	s.log.Info("video accepted", "id", v.ID, "name", v.Name, "size", v.Size)

	return v, nil
}

// List returns all videos, newest first
func (s *Service) List(ctx context.Context) (ListResponse, error) {
	videos, err := s.repo.List(ctx)
	if err != nil {
		s.log.Error("failed to list videos", "error", err)
		return ListResponse{}, err
	}

	for i := range videos {
		videos[i].URL = s.contentURL(videos[i].ID)
	}

	return ListResponse{Videos: videos, Total: len(videos)}, nil
}

func (s *Service) Find(ctx context.Context, id string) (*Video, error) {
	v, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	v.URL = s.contentURL(v.ID)
	return v, nil
}

// Open returns the metadata and a reader over the stored content.
// The caller closes the reader.
func (s *Service) Open(ctx context.Context, id string) (*Video, io.ReadCloser, error) {
	v, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, nil, err
	}

	body, err := s.content.Open(ctx, v.ID)
	if err != nil {
		s.log.Error("failed to open content", "id", id, "error", err)
		return nil, nil, err
	}

	return v, body, nil
}

// Delete removes the metadata, then the content. A content removal
// failure is logged and returned, the metadata stays deleted.
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	if err := s.content.Delete(ctx, id); err != nil {
		s.log.Warn("failed to delete content", "id", id, "error", err)
		return fmt.Errorf("delete content: %w", err)
	}

	s.log.Info("video deleted", "id", id)
	return nil
}

func (s *Service) contentURL(id string) string {
	return s.publicURL + "/api/v1/videos/" + id + "/content"
}

// cleanName оставляет от присланного имени только базовое имя файла
func cleanName(name, fallback string) string {
	// postgres text не принимает невалидный UTF-8
	name = strings.ToValidUTF8(name, "")
	name = strings.TrimSpace(strings.ReplaceAll(name, "\\", "/"))
	name = path.Base(name)
	if name == "." || name == "/" || name == "" {
		return fallback
	}
	if len(name) <= maxNameLength {
		return name
	}

	cut := maxNameLength
	for cut > 0 && !utf8.RuneStart(name[cut]) {
		cut--
	}
	return name[:cut]
}
