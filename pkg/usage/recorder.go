package usage

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

const defaultRecordTimeout = 5 * time.Second

// Recorder performs best-effort increments after a gated operation has
// already succeeded. Failures are logged and reported to the error hook,
// never returned to the caller.
type Recorder struct {
	store   Store
	log     *slog.Logger
	timeout time.Duration
	onError func(t Type, err error)
	wg      sync.WaitGroup
}

// RecorderOption configures a Recorder.
type RecorderOption func(*Recorder)

// WithRecorderLogger sets the logger used for failed increments.
func WithRecorderLogger(l *slog.Logger) RecorderOption {
	return func(r *Recorder) {
		if l != nil {
			r.log = l
		}
	}
}

// WithRecordTimeout bounds each background increment.
func WithRecordTimeout(d time.Duration) RecorderOption {
	return func(r *Recorder) {
		if d > 0 {
			r.timeout = d
		}
	}
}

// WithErrorHook is called after a failed increment, e.g. to bump a metric.
func WithErrorHook(fn func(t Type, err error)) RecorderOption {
	return func(r *Recorder) { r.onError = fn }
}

// NewRecorder wraps store. Panics if store is nil.
func NewRecorder(store Store, opts ...RecorderOption) *Recorder {
	if store == nil {
		panic("usage: store is required")
	}
	r := &Recorder{
		store:   store,
		log:     slog.New(slog.DiscardHandler),
		timeout: defaultRecordTimeout,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Record increments the counter in the background. The request context's
// values are kept but its cancellation is not, so the increment survives the
// response being written.
func (r *Recorder) Record(ctx context.Context, userID uuid.UUID, t Type, amount int64) {
	ctx = context.WithoutCancel(ctx)

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()

		ctx, cancel := context.WithTimeout(ctx, r.timeout)
		defer cancel()

		if err := r.store.IncrementUsage(ctx, userID, t, amount); err != nil {
			r.log.ErrorContext(ctx, "failed to record feature usage",
				slog.String("user_id", userID.String()),
				slog.String("usage_type", string(t)),
				slog.Int64("amount", amount),
				slog.Any("error", err),
			)
			if r.onError != nil {
				r.onError(t, err)
			}
		}
	}()
}

// Wait blocks until every pending increment has finished. Use on shutdown.
func (r *Recorder) Wait() {
	r.wg.Wait()
}
