// Package viewstate holds the board's filter and sort configuration and the
// pure ordering rules applied to pedido lists.
//
// The configuration is explicit state persisted as JSON next to the
// database, so the CLI shows the same view across invocations. Apply never
// mutates its input.
package viewstate

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"pigmea/internal/pedidos"
	"pigmea/internal/stages"
	"pigmea/internal/textutil"
)

// SortMode selects the ordering rule.
type SortMode string

const (
	// SortPriority orders by priority rank, then manual position, then
	// arrival. This is the default plant view.
	SortPriority SortMode = "priority"
	// SortManual orders by manual position alone, arrival breaking ties.
	SortManual SortMode = "manual"
	// SortArrival orders strictly by when the pedido entered its current
	// stage.
	SortArrival SortMode = "arrival"
	// SortDelivery orders by delivery date, undated pedidos last.
	SortDelivery SortMode = "delivery"
)

// Filter narrows which pedidos appear.
type Filter struct {
	Search       string             `json:"search,omitempty"`
	Priorities   []pedidos.Priority `json:"priorities,omitempty"`
	Stages       []stages.Stage     `json:"stages,omitempty"`
	ShowArchived bool               `json:"show_archived,omitempty"`
}

// State is the persisted view configuration.
type State struct {
	Filter Filter   `json:"filter"`
	Sort   SortMode `json:"sort"`
}

// Default returns the out-of-the-box view.
func Default() State {
	return State{Sort: SortPriority}
}

// Normalize fills unset fields with defaults.
func (s *State) Normalize() {
	switch s.Sort {
	case SortPriority, SortManual, SortArrival, SortDelivery:
	default:
		s.Sort = SortPriority
	}
	s.Filter.Search = strings.TrimSpace(s.Filter.Search)
}

// Apply filters and orders a pedido list according to the state. The input
// slice is not modified.
func Apply(state State, input []*pedidos.Pedido) []*pedidos.Pedido {
	state.Normalize()

	out := make([]*pedidos.Pedido, 0, len(input))
	for _, pedido := range input {
		if matches(state.Filter, pedido) {
			out = append(out, pedido)
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		return less(state.Sort, out[i], out[j])
	})
	return out
}

func matches(filter Filter, pedido *pedidos.Pedido) bool {
	if pedido.IsArchived() && !filter.ShowArchived {
		return false
	}
	if len(filter.Stages) > 0 {
		found := false
		for _, stage := range filter.Stages {
			if pedido.CurrentStage == stage {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if len(filter.Priorities) > 0 {
		found := false
		for _, priority := range filter.Priorities {
			if pedido.Priority == priority {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if filter.Search != "" {
		if !textutil.ContainsFold(pedido.Client, filter.Search) &&
			!textutil.ContainsFold(pedido.RegistrationNumber, filter.Search) &&
			!textutil.ContainsFold(pedido.ClientOrderNumber, filter.Search) &&
			!textutil.ContainsFold(pedido.Observations, filter.Search) {
			return false
		}
	}
	return true
}

func less(mode SortMode, a, b *pedidos.Pedido) bool {
	switch mode {
	case SortManual:
		if c := compareManual(a, b); c != 0 {
			return c < 0
		}
	case SortArrival:
	case SortDelivery:
		if c := compareDelivery(a, b); c != 0 {
			return c < 0
		}
	default: // SortPriority
		if a.Priority.Rank() != b.Priority.Rank() {
			return a.Priority.Rank() < b.Priority.Rank()
		}
		if c := compareManual(a, b); c != 0 {
			return c < 0
		}
	}
	return arrivedAt(a).Before(arrivedAt(b))
}

// arrivedAt is the FIFO key: when the pedido entered its current stage, per
// the stage timeline. Registration time covers pedidos without a timeline
// entry for their stage.
func arrivedAt(p *pedidos.Pedido) time.Time {
	if entered, ok := p.StageEnteredAt(); ok {
		return entered
	}
	return p.CreatedAt
}

// compareManual orders explicit positions first, unpositioned pedidos after.
func compareManual(a, b *pedidos.Pedido) int {
	switch {
	case a.ManualPosition != nil && b.ManualPosition != nil:
		return *a.ManualPosition - *b.ManualPosition
	case a.ManualPosition != nil:
		return -1
	case b.ManualPosition != nil:
		return 1
	default:
		return 0
	}
}

// compareDelivery orders dated pedidos first, earliest delivery first.
func compareDelivery(a, b *pedidos.Pedido) int {
	switch {
	case a.DeliveryDate != nil && b.DeliveryDate != nil:
		if a.DeliveryDate.Before(*b.DeliveryDate) {
			return -1
		}
		if b.DeliveryDate.Before(*a.DeliveryDate) {
			return 1
		}
		return 0
	case a.DeliveryDate != nil:
		return -1
	case b.DeliveryDate != nil:
		return 1
	default:
		return 0
	}
}

// Load reads view state from disk, returning the default state when the
// file does not exist yet.
func Load(path string) (State, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Default(), nil
		}
		return State{}, fmt.Errorf("read view state: %w", err)
	}

	var state State
	if err := json.Unmarshal(data, &state); err != nil {
		return State{}, fmt.Errorf("parse view state: %w", err)
	}
	state.Normalize()
	return state, nil
}

// Save writes view state to disk atomically.
func Save(path string, state State) error {
	state.Normalize()
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal view state: %w", err)
	}

	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create view state directory: %w", err)
		}
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write view state: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("replace view state: %w", err)
	}
	return nil
}
