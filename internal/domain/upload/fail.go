package upload

import (
	"context"
	"time"

	"github.com/benbjohnson/clock"
)

// AlwaysFail доходит до середины и детерминированно падает.
// Нужна, чтобы проверить, что неудача оставляет запись целой.
type AlwaysFail struct {
	StepDelay time.Duration
	Clock     clock.Clock
}

func (f *AlwaysFail) Attempt(ctx context.Context, _ []byte, sink Sink) Outcome {
	percent := 0
	for _, p := range []int{25, 50} {
		if err := wait(ctx, f.Clock, f.StepDelay); err != nil {
			break
		}
		percent = p
		sink.Report(Progress{Status: StatusUploading, Percent: p, Message: "uploading"})
	}

	out := failure("upload failed (forced)")
	sink.Report(Progress{Status: StatusFailed, Percent: percent, Message: out.Message})
	return out
}
