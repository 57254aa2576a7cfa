package worker

import (
	"context"
	"time"

	"go.uber.org/zap"

	"livepoll/internal/domain"
	"livepoll/internal/metrics"
	"livepoll/internal/retry"
)

// RoundSink stores resolved rounds outside the process
type RoundSink interface {
	Name() string
	Store(ctx context.Context, entry domain.HistoryEntry) error
}

const (
	defaultAttempts  = 3
	defaultBaseDelay = 200 * time.Millisecond
	storeTimeout     = 5 * time.Second
	drainTimeout     = 10 * time.Second
)

// RoundWorker receives resolved rounds from the coordinator and forwards them
// to every sink. The coordinator hands rounds over without blocking; when the
// queue is full the round is dropped and counted.
type RoundWorker struct {
	ch        chan domain.HistoryEntry
	sinks     []RoundSink
	attempts  int
	baseDelay time.Duration
	logger    *zap.Logger
	done      chan struct{}
}

func NewRoundWorker(queueSize int, logger *zap.Logger, sinks ...RoundSink) *RoundWorker {
	if queueSize < 1 {
		queueSize = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RoundWorker{
		ch:        make(chan domain.HistoryEntry, queueSize),
		sinks:     sinks,
		attempts:  defaultAttempts,
		baseDelay: defaultBaseDelay,
		logger:    logger,
		done:      make(chan struct{}),
	}
}

// RoundResolved enqueues a round. It never blocks.
func (w *RoundWorker) RoundResolved(entry domain.HistoryEntry) {
	metrics.IncRoundResolved(string(entry.Reason))
	if len(w.sinks) == 0 {
		return
	}

	select {
	case w.ch <- entry:
	default:
		metrics.IncRoundDropped()
		w.logger.Warn("Round queue full, dropping resolved round",
			zap.Int64("question_id", entry.Question.ID))
	}
}

// Run processes rounds until ctx is cancelled, then stores whatever is still
// queued before returning.
func (w *RoundWorker) Run(ctx context.Context) {
	defer close(w.done)
	w.logger.Info("Round worker started", zap.Int("sinks", len(w.sinks)))

	for {
		select {
		case <-ctx.Done():
			w.drain()
			w.logger.Info("Round worker stopped")
			return
		case entry := <-w.ch:
			// a round already taken off the queue is stored even if shutdown
			// starts meanwhile
			w.store(context.WithoutCancel(ctx), entry)
		}
	}
}

// Done is closed once Run has returned
func (w *RoundWorker) Done() <-chan struct{} {
	return w.done
}

func (w *RoundWorker) drain() {
	ctx, cancel := context.WithTimeout(context.Background(), drainTimeout)
	defer cancel()

	for {
		select {
		case entry := <-w.ch:
			w.store(ctx, entry)
		default:
			return
		}
	}
}

func (w *RoundWorker) store(ctx context.Context, entry domain.HistoryEntry) {
	for _, sink := range w.sinks {
		err := retry.Do(ctx, w.attempts, w.baseDelay, func(ctx context.Context) error {
			storeCtx, cancel := context.WithTimeout(ctx, storeTimeout)
			defer cancel()
			return sink.Store(storeCtx, entry)
		})
		if err != nil {
			metrics.IncSinkFailure(sink.Name())
			w.logger.Error("Failed to store resolved round",
				zap.String("sink", sink.Name()),
				zap.Int64("question_id", entry.Question.ID),
				zap.Error(err))
			continue
		}
		w.logger.Debug("Stored resolved round",
			zap.String("sink", sink.Name()),
			zap.Int64("question_id", entry.Question.ID))
	}
}
