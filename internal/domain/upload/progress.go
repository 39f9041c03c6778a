package upload

import "sync"

// Status - стадия попытки загрузки
type Status string

const (
	StatusUploading Status = "uploading"
	StatusSuccess   Status = "success"
	StatusFailed    Status = "failed"
)

// Terminal сообщает, завершает ли статус попытку
func (s Status) Terminal() bool {
	return s == StatusSuccess || s == StatusFailed
}

// Progress - одно уведомление о ходе загрузки
type Progress struct {
	Status  Status `json:"status"`
	Percent int    `json:"percent"`
	Message string `json:"message"`
}

// Observer получает уведомления о ходе одной загрузки.
// Вызывается синхронно, в порядке отправки.
type Observer func(Progress)

// Sink - канал, в который стратегия сообщает о прогрессе
type Sink interface {
	Report(p Progress)
}

// SinkFunc адаптирует функцию к Sink
type SinkFunc func(Progress)

func (f SinkFunc) Report(p Progress) {
	f(p)
}

// tracker стоит между стратегией и наблюдателем и держит гарантии порядка:
// проценты не убывают, терминальное уведомление ровно одно и последнее.
type tracker struct {
	mu       sync.Mutex
	observer Observer
	percent  int
	done     bool
	reported *Progress
}

func newTracker(observer Observer) *tracker {
	if observer == nil {
		observer = func(Progress) {}
	}
	return &tracker{observer: observer}
}

func (t *tracker) Report(p Progress) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.done {
		return
	}

	p.Percent = clampPercent(p.Percent)

	// терминальный статус стратегии только запоминаем, итог объявляет координатор
	if p.Status.Terminal() {
		if t.reported == nil {
			cp := p
			t.reported = &cp
		}
		return
	}

	p.Status = StatusUploading
	if p.Percent < t.percent {
		p.Percent = t.percent
	}
	t.percent = p.Percent
	t.observer(p)
}

func (t *tracker) finish(outcome Outcome) Progress {
	t.mu.Lock()
	defer t.mu.Unlock()

	p := Progress{Status: StatusFailed, Percent: t.percent, Message: outcome.Message}
	if outcome.Success {
		p.Status = StatusSuccess
		p.Percent = 100
	}

	if !t.done {
		t.done = true
		t.observer(p)
	}
	return p
}

func clampPercent(p int) int {
	switch {
	case p < 0:
		return 0
	case p > 100:
		return 100
	default:
		return p
	}
}

// reportedTerminal возвращает терминальное уведомление, присланное стратегией
func (t *tracker) reportedTerminal() (Progress, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.reported == nil {
		return Progress{}, false
	}
	return *t.reported, true
}
