package session

import (
	"call-server/internal/observability"
	"context"
	"errors"
	"sync"
	"time"
)

// Source is a stream of session events from the bridge. Next blocks until an
// event arrives, the stream fails, or ctx is cancelled.
type Source interface {
	Next(ctx context.Context) (Event, error)
	Close() error
}

// SourceOpener opens a new event stream; the worker reopens the stream with a
// backoff when it breaks.
type SourceOpener interface {
	OpenEvents(ctx context.Context) (Source, error)
}

const reconnectDelay = 2 * time.Second

// Worker owns the session event stream and pumps events into the dispatcher.
// It is the explicitly lifetimed replacement for a process-wide runtime
// singleton: Start and Stop are idempotent and Stop waits for the pump to
// exit.
type Worker struct {
	opener     SourceOpener
	dispatcher *Dispatcher
	logger     *observability.Logger

	mu      sync.Mutex
	cancel  context.CancelFunc
	done    chan struct{}
	running bool
}

func NewWorker(opener SourceOpener, dispatcher *Dispatcher, logger *observability.Logger) *Worker {
	return &Worker{
		opener:     opener,
		dispatcher: dispatcher,
		logger:     logger,
	}
}

// Start begins consuming session events in the background. Calling Start on a
// running worker is a no-op.
func (w *Worker) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.running {
		return nil
	}

	runCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel
	w.done = make(chan struct{})
	w.running = true

	go w.run(runCtx)

	w.logger.Info(ctx, "session worker started")
	return nil
}

// Stop cancels the event pump and waits for it to finish. Stopping a stopped
// worker is a no-op.
func (w *Worker) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	cancel := w.cancel
	done := w.done
	w.running = false
	w.mu.Unlock()

	cancel()
	<-done
	w.logger.Info(context.Background(), "session worker stopped")
}

// IsRunning reports whether the event pump is active.
func (w *Worker) IsRunning() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.running
}

func (w *Worker) run(ctx context.Context) {
	defer close(w.done)

	for {
		source, err := w.opener.OpenEvents(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			w.logger.Error(ctx, "failed to open session event stream", err)
			select {
			case <-ctx.Done():
				return
			case <-time.After(reconnectDelay):
				continue
			}
		}

		w.pump(ctx, source)
		source.Close()

		if ctx.Err() != nil {
			return
		}
		w.logger.Warn(ctx, "session event stream closed, reconnecting")
		select {
		case <-ctx.Done():
			return
		case <-time.After(reconnectDelay):
		}
	}
}

func (w *Worker) pump(ctx context.Context, source Source) {
	for {
		ev, err := source.Next(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, context.Canceled) {
				return
			}
			w.logger.Error(ctx, "session event stream error", err)
			return
		}
		w.dispatcher.Dispatch(ctx, ev)
	}
}
