// Package session keeps one cart aggregator per ordering session and
// attaches the snapshot and notification hooks to each of them.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/kiwari-pos/ordering/internal/cart"
	"github.com/kiwari-pos/ordering/internal/enum"
	"github.com/kiwari-pos/ordering/internal/snapshot"
	"github.com/kiwari-pos/ordering/internal/ws"
	"go.uber.org/zap"
)

// ErrSnapshotsDisabled is returned by Restore when no snapshot writer is configured.
var ErrSnapshotsDisabled = errors.New("snapshots are disabled")

// Notifier pushes cart events to the screens attached to a session.
// Satisfied by *ws.Hub.
type Notifier interface {
	BroadcastToSession(sessionID uuid.UUID, event ws.Event)
}

// Options tune how new carts are created and evicted.
type Options struct {
	// KeyPrefix namespaces snapshot keys: <KeyPrefix>:<session-id>.
	KeyPrefix string
	// RestoreOnStart seeds a new cart from its last snapshot.
	RestoreOnStart bool
	// IdleTTL evicts carts not used for this long. Zero keeps them forever.
	IdleTTL time.Duration
	// Now overrides the clock used for eviction.
	Now func() time.Time
}

type entry struct {
	cart     *cart.Aggregator
	lastSeen time.Time
}

// Registry owns the aggregators of every live session.
type Registry struct {
	mu      sync.Mutex
	entries map[uuid.UUID]*entry

	writer   *snapshot.Writer
	notifier Notifier
	opts     Options
	logger   *zap.Logger
}

// NewRegistry creates a Registry. writer and notifier may be nil.
func NewRegistry(writer *snapshot.Writer, notifier Notifier, logger *zap.Logger, opts Options) *Registry {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Registry{
		entries:  make(map[uuid.UUID]*entry),
		writer:   writer,
		notifier: notifier,
		opts:     opts,
		logger:   logger,
	}
}

// SnapshotKey is the store key for a session's cart.
func (r *Registry) SnapshotKey(sessionID uuid.UUID) string {
	return snapshot.SessionKey(r.opts.KeyPrefix, sessionID)
}

// Cart returns the session's aggregator, creating it on first use. Every
// call counts as activity for eviction.
func (r *Registry) Cart(ctx context.Context, sessionID uuid.UUID) *cart.Aggregator {
	r.mu.Lock()
	if e, ok := r.entries[sessionID]; ok {
		e.lastSeen = r.opts.Now()
		r.mu.Unlock()
		return e.cart
	}
	r.mu.Unlock()

	agg := r.newCart(sessionID)
	if r.opts.RestoreOnStart && r.writer != nil {
		if _, err := r.load(ctx, sessionID, agg); err != nil && !errors.Is(err, snapshot.ErrNotFound) {
			r.logger.Warn("restore cart on start", zap.String("session_id", sessionID.String()), zap.Error(err))
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	// Another request may have created the cart while we were loading.
	if e, ok := r.entries[sessionID]; ok {
		e.lastSeen = r.opts.Now()
		return e.cart
	}
	r.entries[sessionID] = &entry{cart: agg, lastSeen: r.opts.Now()}
	return agg
}

// Restore replaces the session's cart with its last snapshot and returns
// the restored cart.
func (r *Registry) Restore(ctx context.Context, sessionID uuid.UUID) (cart.View, error) {
	if r.writer == nil {
		return cart.View{}, ErrSnapshotsDisabled
	}
	return r.load(ctx, sessionID, r.Cart(ctx, sessionID))
}

// Drop forgets a session's cart. Its snapshot is kept.
func (r *Registry) Drop(sessionID uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.entries, sessionID)
}

// Len returns the number of live carts.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// Sweep drops every cart idle for IdleTTL or longer and returns how many
// were dropped. Snapshots are kept.
func (r *Registry) Sweep() int {
	if r.opts.IdleTTL <= 0 {
		return 0
	}
	cutoff := r.opts.Now().Add(-r.opts.IdleTTL)

	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for id, e := range r.entries {
		if !e.lastSeen.After(cutoff) {
			delete(r.entries, id)
			n++
		}
	}
	return n
}

// RunSweeper calls Sweep every interval until ctx is cancelled.
// This should be called as a goroutine: go registry.RunSweeper(ctx, time.Minute)
func (r *Registry) RunSweeper(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := r.Sweep(); n > 0 {
				r.logger.Info("evicted idle carts", zap.Int("count", n), zap.Int("live", r.Len()))
			}
		}
	}
}

func (r *Registry) load(ctx context.Context, sessionID uuid.UUID, agg *cart.Aggregator) (cart.View, error) {
	items, err := r.writer.Load(ctx, r.SnapshotKey(sessionID))
	if err != nil {
		return cart.View{}, fmt.Errorf("load snapshot: %w", err)
	}
	v := agg.Restore(items)
	if r.notifier != nil {
		r.notify(sessionID, enum.EventCartUpdated, changePayload{
			Op:        cart.OpRestore,
			Items:     ItemsPayload(v.Items),
			Total:     v.Total.StringFixed(2),
			ItemCount: v.ItemCount,
			TableID:   optional(v.TableID),
		})
	}
	return v, nil
}

func (r *Registry) newCart(sessionID uuid.UUID) *cart.Aggregator {
	var opts []cart.Option
	if r.writer != nil {
		opts = append(opts, cart.WithHook(r.writer.Hook(r.SnapshotKey(sessionID))))
	}
	if r.notifier != nil {
		opts = append(opts, cart.WithHook(r.notifyHook(sessionID)))
	}
	return cart.New(opts...)
}

func (r *Registry) notifyHook(sessionID uuid.UUID) cart.Hook {
	return func(c cart.Change) {
		switch c.Op {
		case cart.OpSelectTable:
			r.notify(sessionID, enum.EventTableSelected, map[string]*string{"table_id": optional(c.TableID)})
			return
		case cart.OpClearLedger:
			r.notify(sessionID, enum.EventLedgerCleared, struct{}{})
			return
		case cart.OpAddItem:
			r.notify(sessionID, enum.EventItemAdded, itemAddedPayload{Label: c.Label})
		case cart.OpPlaceOrder:
			if c.Order != nil {
				r.notify(sessionID, enum.EventOrderPlaced, ToOrderPayload(*c.Order))
			}
		}

		total := cart.Order{Items: c.Items}
		r.notify(sessionID, enum.EventCartUpdated, changePayload{
			Op:        c.Op,
			Items:     ItemsPayload(c.Items),
			Total:     total.Total().StringFixed(2),
			ItemCount: total.ItemCount(),
			TableID:   optional(c.TableID),
		})
	}
}

func (r *Registry) notify(sessionID uuid.UUID, eventType string, payload any) {
	b, err := json.Marshal(payload)
	if err != nil {
		r.logger.Error("marshal cart event", zap.String("type", eventType), zap.Error(err))
		return
	}
	r.notifier.BroadcastToSession(sessionID, ws.Event{Type: eventType, Payload: b})
}
