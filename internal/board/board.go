// Package board reconciles drag-and-drop gestures against pedido state.
//
// A gesture names a source container, a destination container, and the
// dragged pedido. Containers are either stage identifiers (kanban columns)
// or preparation bucket identifiers. The handler decides which of the three
// gesture kinds applies and routes it: list reorders touch manual positions
// only, preparation moves touch the sub-stage only, cross-stage moves
// delegate to the transition orchestrator.
package board

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"pigmea/internal/pedidos"
	"pigmea/internal/preparation"
	"pigmea/internal/stages"
	"pigmea/internal/transition"
)

// ErrMoveDeclined indicates the operator declined the consistency
// confirmation; the pedido keeps its prior placement, nothing is written.
var ErrMoveDeclined = errors.New("move declined")

// Confirmer resolves blocking confirmations for risky moves.
type Confirmer interface {
	Confirm(ctx context.Context, prompt string) (bool, error)
}

// ConfirmFunc adapts a function to the Confirmer interface.
type ConfirmFunc func(ctx context.Context, prompt string) (bool, error)

// Confirm implements Confirmer.
func (f ConfirmFunc) Confirm(ctx context.Context, prompt string) (bool, error) {
	return f(ctx, prompt)
}

// Gesture is a drag from one container to another.
type Gesture struct {
	Source      string
	Destination string
	PedidoID    string
}

// Handler resolves gestures.
type Handler struct {
	store     pedidos.Store
	orch      *transition.Orchestrator
	confirmer Confirmer
	logger    *slog.Logger
	now       func() time.Time
}

// NewHandler builds a gesture handler. The confirmer may be nil, in which
// case contradictory preparation moves are declined outright.
func NewHandler(store pedidos.Store, orch *transition.Orchestrator, confirmer Confirmer, logger *slog.Logger) (*Handler, error) {
	if store == nil {
		return nil, errors.New("store is required")
	}
	if orch == nil {
		return nil, errors.New("orchestrator is required")
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Handler{
		store:     store,
		orch:      orch,
		confirmer: confirmer,
		logger:    logger.With(slog.String("component", "board")),
		now:       time.Now,
	}, nil
}

// Resolve interprets a gesture and applies its effect.
func (h *Handler) Resolve(ctx context.Context, gesture Gesture) (*pedidos.Pedido, error) {
	if gesture.PedidoID == "" {
		return nil, errors.New("gesture missing pedido id")
	}
	if gesture.Source == gesture.Destination {
		// Same-container drops carry no placement change here; ordering
		// within a container goes through ReorderList.
		return h.store.Get(ctx, gesture.PedidoID)
	}

	if bucket, ok := preparation.ParseSubStage(gesture.Destination); ok {
		return h.moveToBucket(ctx, gesture.PedidoID, bucket)
	}
	if stage, ok := stages.Parse(gesture.Destination); ok {
		return h.orch.ApplyTransition(ctx, gesture.PedidoID, stage)
	}
	return nil, fmt.Errorf("unknown destination container %q", gesture.Destination)
}

// moveToBucket places a preparation pedido into a sub-stage bucket. The
// availability flags stay untouched; they are the source of truth and the
// bucket is derived placement. When the requested bucket contradicts the
// flags the operator must confirm, and declining aborts with no writes.
func (h *Handler) moveToBucket(ctx context.Context, id string, bucket preparation.SubStage) (*pedidos.Pedido, error) {
	pedido, err := h.store.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load pedido: %w", err)
	}
	if pedido == nil {
		return nil, fmt.Errorf("%w: %s", transition.ErrNotFound, id)
	}
	if pedido.CurrentStage != stages.Preparation {
		return nil, fmt.Errorf("%w: pedido in %s", transition.ErrInvalidTransition, pedido.CurrentStage)
	}
	if pedido.CurrentSubStage == bucket {
		return pedido, nil
	}

	if !h.bucketConsistent(pedido, bucket) {
		prompt := fmt.Sprintf(
			"El destino %q contradice la disponibilidad registrada (material=%t, cliché=%t). ¿Mover de todas formas?",
			preparation.Title(bucket), pedido.MaterialAvailable, pedido.ClicheAvailable,
		)
		if h.confirmer == nil {
			return nil, fmt.Errorf("%w: no confirmer for inconsistent move", ErrMoveDeclined)
		}
		confirmed, err := h.confirmer.Confirm(ctx, prompt)
		if err != nil {
			return nil, fmt.Errorf("confirm move: %w", err)
		}
		if !confirmed {
			return nil, ErrMoveDeclined
		}
	}

	now := h.now().UTC()
	previous := pedido.CurrentSubStage
	pedido.CurrentSubStage = bucket
	pedido.AppendHistory(h.orch.Actor(), "preparación movida",
		fmt.Sprintf("%s -> %s", preparation.Title(previous), preparation.Title(bucket)), now)
	if err := h.store.Update(ctx, pedido); err != nil {
		return nil, fmt.Errorf("persist bucket move: %w", err)
	}

	h.logger.Info("preparation bucket moved",
		slog.String("pedido", pedido.ID),
		slog.String("from", string(previous)),
		slog.String("to", string(bucket)),
	)
	return pedido, nil
}

// bucketConsistent reports whether a bucket placement agrees with the
// availability flags.
func (h *Handler) bucketConsistent(pedido *pedidos.Pedido, bucket preparation.SubStage) bool {
	if bucket == preparation.SubStageReady {
		return pedido.MaterialAvailable && pedido.ClicheAvailable
	}
	derived := preparation.Classify(pedido.MaterialAvailable, pedido.ClicheAvailable, pedido.ClicheStatus)
	return bucket == derived
}

// ReorderList applies a manual ordering within one container. Position is
// the rank in orderedIDs. Only pedidos whose rank actually changed are
// written, each with a history entry. Individual persistence failures are
// logged and skipped; the surviving writes stand.
func (h *Handler) ReorderList(ctx context.Context, orderedIDs []string) (int, error) {
	changed := 0
	for rank, id := range orderedIDs {
		pedido, err := h.store.Get(ctx, id)
		if err != nil {
			return changed, fmt.Errorf("load pedido %s: %w", id, err)
		}
		if pedido == nil {
			return changed, fmt.Errorf("%w: %s", transition.ErrNotFound, id)
		}
		if pedido.ManualPosition != nil && *pedido.ManualPosition == rank {
			continue
		}

		position := rank
		pedido.ManualPosition = &position
		pedido.AppendHistory(h.orch.Actor(), "posición actualizada", fmt.Sprintf("puesto %d", rank+1), h.now().UTC())
		if err := h.store.Update(ctx, pedido); err != nil {
			h.logger.Warn("position persist failed",
				slog.String("pedido", id),
				slog.Any("error", err),
			)
			continue
		}
		changed++
	}
	return changed, nil
}
