package board

import (
	"context"
	"errors"
	"testing"

	"pigmea/internal/pedidos"
	"pigmea/internal/preparation"
	"pigmea/internal/stages"
	"pigmea/internal/transition"
)

type fixture struct {
	handler *Handler
	store   *pedidos.MemoryStore
	orch    *transition.Orchestrator
}

func newFixture(t *testing.T, confirmer Confirmer) *fixture {
	t.Helper()
	store := pedidos.NewMemoryStore()
	orch, err := transition.New(transition.Deps{Store: store})
	if err != nil {
		t.Fatalf("orchestrator: %v", err)
	}
	handler, err := NewHandler(store, orch, confirmer, nil)
	if err != nil {
		t.Fatalf("handler: %v", err)
	}
	return &fixture{handler: handler, store: store, orch: orch}
}

func seedPedido(t *testing.T, f *fixture, registration string, material, cliche bool) *pedidos.Pedido {
	t.Helper()
	pedido, err := f.orch.Register(context.Background(), pedidos.NewParams{
		RegistrationNumber: registration,
		Client:             "Gráficas Ebro",
		Priority:           pedidos.PriorityNormal,
		WorkSequence:       []stages.Stage{stages.LaminationSL2},
		MaterialAvailable:  material,
		ClicheAvailable:    cliche,
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	return pedido
}

func TestResolveSameContainerIsNoop(t *testing.T) {
	f := newFixture(t, nil)
	pedido := seedPedido(t, f, "REG-1", true, true)

	got, err := f.handler.Resolve(context.Background(), Gesture{
		Source:      string(stages.Preparation),
		Destination: string(stages.Preparation),
		PedidoID:    pedido.ID,
	})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if got.CurrentSubStage != pedido.CurrentSubStage {
		t.Fatal("same-container drop must not change placement")
	}
}

func TestResolveConsistentBucketMoveNeedsNoConfirmation(t *testing.T) {
	f := newFixture(t, ConfirmFunc(func(context.Context, string) (bool, error) {
		t.Fatal("consistent move must not prompt")
		return false, nil
	}))
	pedido := seedPedido(t, f, "REG-2", false, true)

	// Flags say material unavailable; the derived bucket matches, so moving
	// it back into that bucket is consistent.
	got, err := f.handler.Resolve(context.Background(), Gesture{
		Source:      string(preparation.SubStageClichePending),
		Destination: string(preparation.SubStageMaterialUnavailable),
		PedidoID:    pedido.ID,
	})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if got.CurrentSubStage != preparation.SubStageMaterialUnavailable {
		t.Fatalf("sub-stage = %s", got.CurrentSubStage)
	}
}

func TestResolveInconsistentMoveConfirmed(t *testing.T) {
	prompted := false
	f := newFixture(t, ConfirmFunc(func(_ context.Context, prompt string) (bool, error) {
		prompted = true
		if prompt == "" {
			t.Fatal("empty confirmation prompt")
		}
		return true, nil
	}))
	pedido := seedPedido(t, f, "REG-3", true, true)

	got, err := f.handler.Resolve(context.Background(), Gesture{
		Source:      string(pedido.CurrentSubStage),
		Destination: string(preparation.SubStageMaterialUnavailable),
		PedidoID:    pedido.ID,
	})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if !prompted {
		t.Fatal("expected confirmation prompt")
	}
	if got.CurrentSubStage != preparation.SubStageMaterialUnavailable {
		t.Fatalf("sub-stage = %s", got.CurrentSubStage)
	}
	// The flags stay the source of truth.
	if !got.MaterialAvailable {
		t.Fatal("flags must not be mutated by a bucket move")
	}
}

func TestResolveInconsistentMoveDeclinedAborts(t *testing.T) {
	f := newFixture(t, ConfirmFunc(func(context.Context, string) (bool, error) {
		return false, nil
	}))
	pedido := seedPedido(t, f, "REG-4", true, true)
	before := pedido.CurrentSubStage

	_, err := f.handler.Resolve(context.Background(), Gesture{
		Source:      string(before),
		Destination: string(preparation.SubStageMaterialUnavailable),
		PedidoID:    pedido.ID,
	})
	if !errors.Is(err, ErrMoveDeclined) {
		t.Fatalf("err = %v, want ErrMoveDeclined", err)
	}

	stored, err := f.store.Get(context.Background(), pedido.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if stored.CurrentSubStage != before {
		t.Fatal("declined move must leave no partial state")
	}
	if len(stored.History) != len(pedido.History) {
		t.Fatal("declined move must not append history")
	}
}

func TestResolveCrossStageDelegates(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	pedido := seedPedido(t, f, "REG-5", true, true)
	if _, err := f.orch.MarkReady(ctx, pedido.ID); err != nil {
		t.Fatalf("mark ready: %v", err)
	}

	got, err := f.handler.Resolve(ctx, Gesture{
		Source:      string(stages.Preparation),
		Destination: string(stages.PrintingWM1),
		PedidoID:    pedido.ID,
	})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if got.CurrentStage != stages.PrintingWM1 {
		t.Fatalf("stage = %s", got.CurrentStage)
	}
}

func TestResolveUnknownContainer(t *testing.T) {
	f := newFixture(t, nil)
	pedido := seedPedido(t, f, "REG-6", true, true)

	_, err := f.handler.Resolve(context.Background(), Gesture{
		Source:      string(stages.Preparation),
		Destination: "TRASH",
		PedidoID:    pedido.ID,
	})
	if err == nil {
		t.Fatal("expected error for unknown container")
	}
}

func TestReorderListPersistsOnlyChangedRanks(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	first := seedPedido(t, f, "REG-7", true, true)
	second := seedPedido(t, f, "REG-8", true, true)
	third := seedPedido(t, f, "REG-9", true, true)

	// Seed existing positions matching [first, second, third].
	if _, err := f.handler.ReorderList(ctx, []string{first.ID, second.ID, third.ID}); err != nil {
		t.Fatalf("initial reorder: %v", err)
	}

	// Swap the tail; first keeps rank 0 and must not be rewritten.
	firstBefore, _ := f.store.Get(ctx, first.ID)
	changed, err := f.handler.ReorderList(ctx, []string{first.ID, third.ID, second.ID})
	if err != nil {
		t.Fatalf("reorder: %v", err)
	}
	if changed != 2 {
		t.Fatalf("changed = %d, want 2", changed)
	}

	firstAfter, _ := f.store.Get(ctx, first.ID)
	if len(firstAfter.History) != len(firstBefore.History) {
		t.Fatal("unchanged pedido must not gain history entries")
	}

	thirdAfter, _ := f.store.Get(ctx, third.ID)
	if thirdAfter.ManualPosition == nil || *thirdAfter.ManualPosition != 1 {
		t.Fatalf("third position = %v, want 1", thirdAfter.ManualPosition)
	}
}

func TestReorderListMissingPedido(t *testing.T) {
	f := newFixture(t, nil)
	if _, err := f.handler.ReorderList(context.Background(), []string{"ghost"}); err == nil {
		t.Fatal("expected error for missing pedido")
	}
}
