package upload

import (
	"context"
	"fmt"

	"golang.org/x/exp/slog"

	"clipkeeper/internal/domain/video"
)

// Coordinator проводит одну попытку загрузки записи через выбранную стратегию.
// Состояния между вызовами не хранит и сам не повторяет попытки.
type Coordinator struct {
	store video.Store
	log   *slog.Logger
}

func NewCoordinator(store video.Store, log *slog.Logger) *Coordinator {
	return &Coordinator{
		store: store,
		log:   log.With("component", "upload_coordinator"),
	}
}

// Upload читает запись из хранилища, отдает ее стратегии и при подтвержденном
// успехе помечает запись загруженной. Неудача хранилище не трогает.
//
// Ошибка возвращается только для проблем с самой записью (ErrNotFound, ошибки
// хранилища); неудача транспорта - это Outcome.Success == false.
// Последнее уведомление observer всегда совпадает с Outcome.Success.
func (c *Coordinator) Upload(ctx context.Context, id string, strategy Strategy, observer Observer) (Outcome, error) {
	t := newTracker(observer)

	v, err := c.store.Get(ctx, id)
	if err != nil {
		out := failure("failed to load video: %v", err)
		t.finish(out)
		return out, fmt.Errorf("upload %s: %w", id, err)
	}

	c.log.Info("upload started", "id", id, "size", v.Size)
	t.Report(Progress{Status: StatusUploading, Percent: 0, Message: "starting upload"})

	attemptCtx := WithClip(ctx, ClipInfo{
		ID:          v.ID,
		Name:        v.DisplayName,
		ContentType: v.ContentType,
	})
	out := strategy.Attempt(attemptCtx, v.Payload, t)

	if rep, ok := t.reportedTerminal(); ok && (rep.Status == StatusSuccess) != out.Success {
		c.log.Warn("strategy reported a terminal status that differs from its outcome",
			"id", id, "reported", rep.Status, "success", out.Success)
	}

	if out.Success {
		// подтвержденный успех фиксируем даже если вызывающий уже отменил ctx
		if err := c.store.MarkUploaded(context.WithoutCancel(ctx), id); err != nil {
			failed := Outcome{
				Message:   fmt.Sprintf("uploaded, but failed to update the record: %v", err),
				RemoteURL: out.RemoteURL,
			}
			t.finish(failed)
			c.log.Error("failed to mark video uploaded", "id", id, "error", err)
			return failed, fmt.Errorf("mark uploaded %s: %w", id, err)
		}
	}

	t.finish(out)

	if out.Success {
		c.log.Info("upload finished", "id", id, "remote_url", out.RemoteURL)
	} else {
		c.log.Warn("upload failed, video kept for retry", "id", id, "reason", out.Message)
	}

	return out, nil
}
