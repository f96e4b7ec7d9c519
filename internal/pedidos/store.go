package pedidos

import (
	"context"
	"time"

	"pigmea/internal/stages"
)

// Store abstracts pedido persistence. The SQLite implementation backs the
// daemon and CLI; the in-memory implementation backs tests and dry runs.
//
// Lookup methods return (nil, nil) when no pedido matches.
type Store interface {
	// Insert persists a new pedido. The registration number must be unique.
	Insert(ctx context.Context, pedido *Pedido) error
	// Get fetches a pedido by identifier.
	Get(ctx context.Context, id string) (*Pedido, error)
	// GetByRegistration fetches a pedido by its registration number.
	GetByRegistration(ctx context.Context, number string) (*Pedido, error)
	// Update persists changes to an existing pedido and bumps UpdatedAt.
	Update(ctx context.Context, pedido *Pedido) error
	// Delete removes a pedido, reporting whether a row existed.
	Delete(ctx context.Context, id string) (bool, error)
	// List returns pedidos in the given stages ordered by creation time,
	// or every pedido when no stage is given.
	List(ctx context.Context, stageFilter ...stages.Stage) ([]*Pedido, error)
	// UpdatePositions sets manual board positions for the given pedidos in
	// one batch. Pedidos absent from the map keep their position.
	UpdatePositions(ctx context.Context, positions map[string]int) error
	// CompletedBefore returns completed pedidos whose completion happened
	// before the cutoff, for the auto-archive sweep.
	CompletedBefore(ctx context.Context, cutoff time.Time) ([]*Pedido, error)
	// Stats counts pedidos per stage.
	Stats(ctx context.Context) (map[stages.Stage]int, error)
	// Close releases underlying resources.
	Close() error
}
