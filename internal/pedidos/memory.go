package pedidos

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"pigmea/internal/stages"
)

// MemoryStore is an in-memory Store used by tests and dry runs. It applies
// the same validation as the SQLite store and deep-copies on the way in and
// out so callers cannot mutate stored state.
type MemoryStore struct {
	mu      sync.RWMutex
	pedidos map[string]*Pedido
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{pedidos: make(map[string]*Pedido)}
}

// Insert persists a new pedido.
func (m *MemoryStore) Insert(_ context.Context, pedido *Pedido) error {
	if err := pedido.Validate(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.pedidos[pedido.ID]; exists {
		return fmt.Errorf("pedido %s already exists", pedido.ID)
	}
	for _, existing := range m.pedidos {
		if existing.RegistrationNumber == pedido.RegistrationNumber {
			return fmt.Errorf("registration number %s already in use", pedido.RegistrationNumber)
		}
	}
	m.pedidos[pedido.ID] = clonePedido(pedido)
	return nil
}

// Get fetches a pedido by identifier.
func (m *MemoryStore) Get(_ context.Context, id string) (*Pedido, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	pedido, ok := m.pedidos[id]
	if !ok {
		return nil, nil
	}
	return clonePedido(pedido), nil
}

// GetByRegistration fetches a pedido by its registration number.
func (m *MemoryStore) GetByRegistration(_ context.Context, number string) (*Pedido, error) {
	number = strings.TrimSpace(number)
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, pedido := range m.pedidos {
		if pedido.RegistrationNumber == number {
			return clonePedido(pedido), nil
		}
	}
	return nil, nil
}

// Update persists changes to an existing pedido.
func (m *MemoryStore) Update(_ context.Context, pedido *Pedido) error {
	if pedido == nil {
		return errors.New("pedido is nil")
	}
	if err := pedido.Validate(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.pedidos[pedido.ID]; !ok {
		return fmt.Errorf("pedido %s not found", pedido.ID)
	}
	pedido.UpdatedAt = time.Now().UTC()
	m.pedidos[pedido.ID] = clonePedido(pedido)
	return nil
}

// Delete removes a pedido by identifier.
func (m *MemoryStore) Delete(_ context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.pedidos[id]; !ok {
		return false, nil
	}
	delete(m.pedidos, id)
	return true, nil
}

// List returns pedidos filtered by stage set, ordered by creation time.
func (m *MemoryStore) List(_ context.Context, stageFilter ...stages.Stage) ([]*Pedido, error) {
	filter := make(map[stages.Stage]struct{}, len(stageFilter))
	for _, stage := range stageFilter {
		filter[stage] = struct{}{}
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*Pedido
	for _, pedido := range m.pedidos {
		if len(filter) > 0 {
			if _, ok := filter[pedido.CurrentStage]; !ok {
				continue
			}
		}
		out = append(out, clonePedido(pedido))
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

// UpdatePositions applies manual board positions in one batch.
func (m *MemoryStore) UpdatePositions(_ context.Context, positions map[string]int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now().UTC()
	for id, position := range positions {
		pedido, ok := m.pedidos[id]
		if !ok {
			return fmt.Errorf("pedido %s not found", id)
		}
		p := position
		pedido.ManualPosition = &p
		pedido.UpdatedAt = now
	}
	return nil
}

// CompletedBefore returns completed pedidos that entered completion before
// the cutoff.
func (m *MemoryStore) CompletedBefore(ctx context.Context, cutoff time.Time) ([]*Pedido, error) {
	completed, err := m.List(ctx, stages.Completed)
	if err != nil {
		return nil, err
	}
	var out []*Pedido
	for _, pedido := range completed {
		entered, ok := pedido.StageEnteredAt()
		if !ok {
			continue
		}
		if entered.Before(cutoff.UTC()) {
			out = append(out, pedido)
		}
	}
	return out, nil
}

// Stats counts pedidos per stage.
func (m *MemoryStore) Stats(_ context.Context) (map[stages.Stage]int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	stats := make(map[stages.Stage]int)
	for _, pedido := range m.pedidos {
		stats[pedido.CurrentStage]++
	}
	return stats, nil
}

// Close is a no-op for the in-memory store.
func (m *MemoryStore) Close() error {
	return nil
}

func clonePedido(pedido *Pedido) *Pedido {
	cp := *pedido
	cp.WorkSequence = append([]stages.Stage(nil), pedido.WorkSequence...)
	cp.StageTimeline = append([]StageEntry(nil), pedido.StageTimeline...)
	cp.History = append([]HistoryEntry(nil), pedido.History...)
	if pedido.ManualPosition != nil {
		position := *pedido.ManualPosition
		cp.ManualPosition = &position
	}
	if pedido.DeliveryDate != nil {
		delivery := *pedido.DeliveryDate
		cp.DeliveryDate = &delivery
	}
	return &cp
}
