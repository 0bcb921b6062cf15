package snapshot

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/kiwari-pos/ordering/internal/cart"
	"go.uber.org/zap"
)

const defaultWriteTimeout = 3 * time.Second

// Writer mirrors cart contents to a Store without ever blocking the cart.
// Hooks only record the latest payload per key; Run writes them out, so
// a burst of mutations on one cart costs a single store write and the
// newest contents always win.
type Writer struct {
	store   Store
	logger  *zap.Logger
	timeout time.Duration

	mu      sync.Mutex
	pending map[string][]byte
	order   []string

	wake chan struct{}
}

// NewWriter creates a Writer. A zero timeout uses the default per-write timeout.
func NewWriter(store Store, logger *zap.Logger, timeout time.Duration) *Writer {
	if timeout <= 0 {
		timeout = defaultWriteTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Writer{
		store:   store,
		logger:  logger,
		timeout: timeout,
		pending: make(map[string][]byte),
		wake:    make(chan struct{}, 1),
	}
}

// Hook returns a cart hook that snapshots the cart's items under key.
func (w *Writer) Hook(key string) cart.Hook {
	return func(c cart.Change) {
		if !c.TouchesItems() {
			return
		}
		b, err := Encode(c.Items)
		if err != nil {
			w.logger.Error("encode cart snapshot", zap.String("key", key), zap.Error(err))
			return
		}
		w.enqueue(key, b)
	}
}

func (w *Writer) enqueue(key string, payload []byte) {
	w.mu.Lock()
	if _, queued := w.pending[key]; !queued {
		w.order = append(w.order, key)
	}
	w.pending[key] = payload
	w.mu.Unlock()

	select {
	case w.wake <- struct{}{}:
	default:
	}
}

// Run writes pending snapshots until ctx is cancelled, then flushes what
// is left using a fresh timeout.
// This should be called as a goroutine: go writer.Run(ctx)
func (w *Writer) Run(ctx context.Context) {
	for {
		select {
		case <-w.wake:
			w.drain(ctx)
		case <-ctx.Done():
			w.drain(context.Background())
			return
		}
	}
}

// Flush writes every pending snapshot before returning.
func (w *Writer) Flush(ctx context.Context) {
	w.drain(ctx)
}

// Pending reports how many keys are waiting to be written.
func (w *Writer) Pending() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.pending)
}

func (w *Writer) drain(ctx context.Context) {
	for {
		key, payload, ok := w.next()
		if !ok {
			return
		}
		wctx, cancel := context.WithTimeout(ctx, w.timeout)
		err := w.store.Set(wctx, key, payload)
		cancel()
		if err != nil {
			// The in-memory cart stays authoritative; the next mutation
			// writes a fresh snapshot.
			w.logger.Warn("write cart snapshot", zap.String("key", key), zap.Error(err))
		}
	}
}

func (w *Writer) next() (string, []byte, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if len(w.order) == 0 {
		return "", nil, false
	}
	key := w.order[0]
	w.order = w.order[1:]
	payload := w.pending[key]
	delete(w.pending, key)
	return key, payload, true
}

// Load reads and decodes the snapshot stored under key.
// It returns ErrNotFound when the key has never been written.
func (w *Writer) Load(ctx context.Context, key string) ([]cart.LineItem, error) {
	ctx, cancel := context.WithTimeout(ctx, w.timeout)
	defer cancel()

	b, err := w.store.Get(ctx, key)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get snapshot %s: %w", key, err)
	}
	return Decode(b)
}
