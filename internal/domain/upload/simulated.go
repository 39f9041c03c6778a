package upload

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sync/atomic"
	"time"

	"github.com/benbjohnson/clock"
)

const (
	defaultSimulatedSteps       = 10
	defaultSimulatedStepDelay   = 200 * time.Millisecond
	defaultSimulatedSuccessRate = 0.8
)

var simulatedSeq atomic.Int64

// Simulated рисует синтетический прогресс и завершается успехом
// с вероятностью SuccessRate. Сети не трогает.
type Simulated struct {
	Steps       int
	StepDelay   time.Duration
	SuccessRate float64
	Clock       clock.Clock
	// Rand возвращает число из [0, 1). По умолчанию math/rand/v2.
	Rand func() float64
}

func (s *Simulated) Attempt(ctx context.Context, payload []byte, sink Sink) Outcome {
	steps := s.Steps
	if steps <= 0 {
		steps = defaultSimulatedSteps
	}
	rate := s.SuccessRate
	if rate < 0 || rate > 1 {
		rate = defaultSimulatedSuccessRate
	}
	roll := s.Rand
	if roll == nil {
		roll = rand.Float64
	}

	percent := 0
	for i := 1; i <= steps; i++ {
		if err := wait(ctx, s.Clock, s.StepDelay); err != nil {
			out := failure("upload cancelled: %v", err)
			sink.Report(Progress{Status: StatusFailed, Percent: percent, Message: out.Message})
			return out
		}

		percent = i * 100 / steps
		sink.Report(Progress{
			Status:  StatusUploading,
			Percent: percent,
			Message: fmt.Sprintf("uploading %d bytes (simulated)", len(payload)),
		})
	}

	if roll() >= rate {
		out := failure("simulated network failure")
		sink.Report(Progress{Status: StatusFailed, Percent: percent, Message: out.Message})
		return out
	}

	out := Outcome{
		Success:   true,
		Message:   "upload complete (simulated)",
		RemoteURL: fmt.Sprintf("sim://clips/%d", simulatedSeq.Add(1)),
	}
	sink.Report(Progress{Status: StatusSuccess, Percent: 100, Message: out.Message})
	return out
}

// NewSimulated возвращает стратегию с настройками по умолчанию
func NewSimulated() *Simulated {
	return &Simulated{
		Steps:       defaultSimulatedSteps,
		StepDelay:   defaultSimulatedStepDelay,
		SuccessRate: defaultSimulatedSuccessRate,
	}
}
