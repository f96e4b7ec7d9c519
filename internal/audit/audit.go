// Package audit defines the append-only trail of pedido actions.
package audit

import (
	"context"
	"sync"
	"time"

	"pigmea/internal/stages"
)

// Entry is one recorded action against a pedido.
type Entry struct {
	ID         int64
	PedidoID   string
	OccurredAt time.Time
	Actor      string
	Action     string
	FromStage  stages.Stage
	ToStage    stages.Stage
	Detail     string
}

// Recorder persists audit entries. Recording failures never block the
// operation being audited; callers log and move on.
type Recorder interface {
	Record(ctx context.Context, entry Entry) error
	ForPedido(ctx context.Context, pedidoID string, limit int) ([]Entry, error)
}

// MemoryRecorder keeps entries in memory for tests.
type MemoryRecorder struct {
	mu      sync.Mutex
	nextID  int64
	entries []Entry
}

// NewMemoryRecorder returns an empty in-memory recorder.
func NewMemoryRecorder() *MemoryRecorder {
	return &MemoryRecorder{nextID: 1}
}

// Record appends an entry.
func (r *MemoryRecorder) Record(_ context.Context, entry Entry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry.ID = r.nextID
	r.nextID++
	r.entries = append(r.entries, entry)
	return nil
}

// ForPedido returns entries for a pedido, newest first.
func (r *MemoryRecorder) ForPedido(_ context.Context, pedidoID string, limit int) ([]Entry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Entry
	for i := len(r.entries) - 1; i >= 0; i-- {
		if r.entries[i].PedidoID != pedidoID {
			continue
		}
		out = append(out, r.entries[i])
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}

// All returns every recorded entry in insertion order.
func (r *MemoryRecorder) All() []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := make([]Entry, len(r.entries))
	copy(cp, r.entries)
	return cp
}
