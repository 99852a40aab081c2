package apilog

import (
	"context"
	"log/slog"
)

// Recorder accepts entries from hot verification paths without blocking on
// persistence. A background Worker drains the inbox; if the inbox is full
// the entry is appended synchronously. The log must not drop calls.
type Recorder struct {
	inbox  chan Entry
	store  Store
	logger *slog.Logger
}

func NewRecorder(store Store, buffer int, logger *slog.Logger) *Recorder {
	if buffer <= 0 {
		buffer = 256
	}
	return &Recorder{
		inbox:  make(chan Entry, buffer),
		store:  store,
		logger: logger,
	}
}

// Record enqueues one entry, falling back to a synchronous append when the
// worker is behind.
func (r *Recorder) Record(ctx context.Context, entry Entry) {
	select {
	case r.inbox <- entry:
	default:
		if err := r.store.Append(ctx, entry); err != nil && r.logger != nil {
			r.logger.ErrorContext(ctx, "api log append failed",
				"provider", entry.Provider,
				"driver_id", entry.DriverID,
				"error", err,
			)
		}
	}
}

// Worker consumes entries from the recorder inbox and persists them.
type Worker struct {
	recorder *Recorder
	logger   *slog.Logger
}

func NewWorker(recorder *Recorder, logger *slog.Logger) *Worker {
	return &Worker{recorder: recorder, logger: logger}
}

func (w *Worker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			w.drain()
			return ctx.Err()
		case entry := <-w.recorder.inbox:
			w.append(entry)
		}
	}
}

// drain flushes whatever is still buffered at shutdown.
func (w *Worker) drain() {
	for {
		select {
		case entry := <-w.recorder.inbox:
			w.append(entry)
		default:
			return
		}
	}
}

func (w *Worker) append(entry Entry) {
	if err := w.recorder.store.Append(context.Background(), entry); err != nil && w.logger != nil {
		w.logger.Error("api log append failed",
			"provider", entry.Provider,
			"driver_id", entry.DriverID,
			"error", err,
		)
	}
}
