package sendqueue

import (
	"context"
	"log/slog"
	"sync"

	"hudoverlay/internal/logging"
)

// Sender delivers one frame. Implementations report failure through the
// return value and must not block forever.
type Sender interface {
	Send(ctx context.Context, frame []byte) bool
	Close()
}

type workerState int

const (
	stateIdle workerState = iota
	stateRunning
	stateStopping
	stateStopped
)

// item is either a frame or the shutdown sentinel.
type item struct {
	frame    []byte
	shutdown bool
}

// Stats are cumulative delivery counters.
type Stats struct {
	Sent    int64
	Failed  int64
	Dropped int64
	Pending int
}

// Worker drains frames into a Sender on one background goroutine.
type Worker struct {
	sender Sender
	logger *slog.Logger
	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.Mutex
	cond    *sync.Cond
	queue   []item
	state   workerState
	done    chan struct{}
	sent    int64
	failed  int64
	dropped int64
}

// NewWorker returns an idle worker. The goroutine starts on the first
// Enqueue.
func NewWorker(sender Sender, logger *slog.Logger) *Worker {
	ctx, cancel := context.WithCancel(context.Background())
	w := &Worker{
		sender: sender,
		logger: logging.NewComponentLogger(logger, "sendqueue"),
		ctx:    ctx,
		cancel: cancel,
		done:   make(chan struct{}),
	}
	w.cond = sync.NewCond(&w.mu)
	return w
}

// Enqueue appends frame to the queue and returns immediately. It returns
// false, and drops the frame, once Stop has been called.
func (w *Worker) Enqueue(frame []byte) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.state == stateStopping || w.state == stateStopped {
		w.dropped++
		w.logger.Debug("frame dropped after stop", logging.Int("bytes", len(frame)))
		return false
	}
	w.queue = append(w.queue, item{frame: frame})
	if w.state == stateIdle {
		w.state = stateRunning
		go w.run()
	}
	w.cond.Signal()
	return true
}

// Pending returns the number of frames not yet handed to the sender.
func (w *Worker) Pending() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.pendingLocked()
}

// Stats returns a snapshot of the delivery counters.
func (w *Worker) Stats() Stats {
	w.mu.Lock()
	defer w.mu.Unlock()
	return Stats{Sent: w.sent, Failed: w.failed, Dropped: w.dropped, Pending: w.pendingLocked()}
}

func (w *Worker) pendingLocked() int {
	n := 0
	for _, it := range w.queue {
		if !it.shutdown {
			n++
		}
	}
	return n
}

// Stop queues the shutdown sentinel and waits for the goroutine to send
// everything ahead of it, close the sender and exit. When the goroutine was
// never started the sender is closed directly. Stop is idempotent.
func (w *Worker) Stop() {
	w.mu.Lock()
	switch w.state {
	case stateIdle:
		w.state = stateStopped
		w.mu.Unlock()
		w.closeSender()
		close(w.done)
		w.cancel()
		return
	case stateRunning:
		w.state = stateStopping
		w.queue = append(w.queue, item{shutdown: true})
		w.cond.Signal()
	}
	w.mu.Unlock()
	<-w.done
}

func (w *Worker) run() {
	defer close(w.done)
	defer w.cancel()
	for {
		w.mu.Lock()
		for len(w.queue) == 0 {
			w.cond.Wait()
		}
		next := w.queue[0]
		w.queue[0] = item{}
		w.queue = w.queue[1:]
		w.mu.Unlock()

		if next.shutdown {
			w.closeSender()
			w.mu.Lock()
			w.state = stateStopped
			w.mu.Unlock()
			return
		}
		w.deliver(next.frame)
	}
}

func (w *Worker) deliver(frame []byte) {
	defer func() {
		if r := recover(); r != nil {
			w.mu.Lock()
			w.failed++
			w.mu.Unlock()
			logging.ErrorWithContext(w.logger, "overlay frame handling panicked", "send_worker_panic",
				logging.Any("panic", r),
				logging.String(logging.FieldErrorHint, "the worker continues with the next frame"),
			)
		}
	}()
	ok := w.sender.Send(w.ctx, frame)
	w.mu.Lock()
	if ok {
		w.sent++
	} else {
		w.failed++
	}
	w.mu.Unlock()
}

func (w *Worker) closeSender() {
	defer func() {
		if r := recover(); r != nil {
			w.logger.Warn("sender close panicked", logging.Any("panic", r))
		}
	}()
	w.sender.Close()
}
