package viewstate

import (
	"path/filepath"
	"testing"
	"time"

	"pigmea/internal/pedidos"
	"pigmea/internal/preparation"
	"pigmea/internal/stages"
)

func makePedido(t *testing.T, registration, client string, priority pedidos.Priority, created time.Time) *pedidos.Pedido {
	t.Helper()
	pedido, err := pedidos.New(pedidos.NewParams{
		RegistrationNumber: registration,
		Client:             client,
		Priority:           priority,
		WorkSequence:       []stages.Stage{stages.LaminationSL2},
		MaterialAvailable:  true,
		ClicheAvailable:    true,
		ClicheStatus:       preparation.ClichePendingClient,
	}, created)
	if err != nil {
		t.Fatalf("new pedido: %v", err)
	}
	return pedido
}

func TestApplyPriorityThenManualThenArrival(t *testing.T) {
	base := time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)

	urgentLate := makePedido(t, "R-1", "A", pedidos.PriorityUrgent, base.Add(3*time.Hour))
	normalEarly := makePedido(t, "R-2", "B", pedidos.PriorityNormal, base)
	normalPositioned := makePedido(t, "R-3", "C", pedidos.PriorityNormal, base.Add(2*time.Hour))
	pos := 0
	normalPositioned.ManualPosition = &pos

	got := Apply(Default(), []*pedidos.Pedido{normalEarly, normalPositioned, urgentLate})
	if len(got) != 3 {
		t.Fatalf("len = %d", len(got))
	}
	if got[0].RegistrationNumber != "R-1" {
		t.Fatalf("urgent must sort first, got %s", got[0].RegistrationNumber)
	}
	if got[1].RegistrationNumber != "R-3" {
		t.Fatalf("manual position beats arrival within a priority, got %s", got[1].RegistrationNumber)
	}
	if got[2].RegistrationNumber != "R-2" {
		t.Fatalf("got %s", got[2].RegistrationNumber)
	}
}

func TestApplyFIFOUsesStageEntryNotRegistration(t *testing.T) {
	base := time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)

	// Registered first, but reached the printing machine last.
	oldArrival := makePedido(t, "R-50", "A", pedidos.PriorityNormal, base)
	oldArrival.EnterStage(stages.PrintingWM1, base.Add(5*time.Hour))
	newArrival := makePedido(t, "R-51", "B", pedidos.PriorityNormal, base.Add(time.Hour))
	newArrival.EnterStage(stages.PrintingWM1, base.Add(2*time.Hour))

	got := Apply(Default(), []*pedidos.Pedido{oldArrival, newArrival})
	if got[0].RegistrationNumber != "R-51" || got[1].RegistrationNumber != "R-50" {
		t.Fatalf("FIFO order = %s,%s; want stage-entry order", got[0].RegistrationNumber, got[1].RegistrationNumber)
	}

	state := Default()
	state.Sort = SortArrival
	got = Apply(state, []*pedidos.Pedido{oldArrival, newArrival})
	if got[0].RegistrationNumber != "R-51" {
		t.Fatalf("arrival sort = %s first; want R-51", got[0].RegistrationNumber)
	}
}

func TestApplySearchIsAccentInsensitive(t *testing.T) {
	base := time.Now().UTC()
	match := makePedido(t, "R-10", "Gráficas del Ebro", pedidos.PriorityNormal, base)
	other := makePedido(t, "R-11", "Flexo Levante", pedidos.PriorityNormal, base)

	state := Default()
	state.Filter.Search = "graficas"
	got := Apply(state, []*pedidos.Pedido{match, other})
	if len(got) != 1 || got[0].RegistrationNumber != "R-10" {
		t.Fatalf("search result = %+v", got)
	}
}

func TestApplyHidesArchivedByDefault(t *testing.T) {
	base := time.Now().UTC()
	active := makePedido(t, "R-20", "A", pedidos.PriorityNormal, base)
	archived := makePedido(t, "R-21", "B", pedidos.PriorityNormal, base)
	archived.PreArchiveStage = stages.Completed
	archived.EnterStage(stages.Archived, base)

	got := Apply(Default(), []*pedidos.Pedido{active, archived})
	if len(got) != 1 || got[0].RegistrationNumber != "R-20" {
		t.Fatalf("archived pedido leaked into default view: %d results", len(got))
	}

	state := Default()
	state.Filter.ShowArchived = true
	got = Apply(state, []*pedidos.Pedido{active, archived})
	if len(got) != 2 {
		t.Fatalf("show_archived view = %d results", len(got))
	}
}

func TestApplyFiltersByPriorityAndStage(t *testing.T) {
	base := time.Now().UTC()
	urgent := makePedido(t, "R-30", "A", pedidos.PriorityUrgent, base)
	low := makePedido(t, "R-31", "B", pedidos.PriorityLow, base)

	state := Default()
	state.Filter.Priorities = []pedidos.Priority{pedidos.PriorityUrgent}
	got := Apply(state, []*pedidos.Pedido{urgent, low})
	if len(got) != 1 || got[0].RegistrationNumber != "R-30" {
		t.Fatalf("priority filter = %d results", len(got))
	}

	state = Default()
	state.Filter.Stages = []stages.Stage{stages.PrintingWM1}
	got = Apply(state, []*pedidos.Pedido{urgent, low})
	if len(got) != 0 {
		t.Fatalf("stage filter = %d results, want 0", len(got))
	}
}

func TestApplyDeliverySortPutsUndatedLast(t *testing.T) {
	base := time.Now().UTC()
	late := makePedido(t, "R-40", "A", pedidos.PriorityNormal, base)
	lateDate := base.AddDate(0, 0, 20)
	late.DeliveryDate = &lateDate
	soon := makePedido(t, "R-41", "B", pedidos.PriorityNormal, base)
	soonDate := base.AddDate(0, 0, 2)
	soon.DeliveryDate = &soonDate
	undated := makePedido(t, "R-42", "C", pedidos.PriorityNormal, base.Add(-time.Hour))

	state := Default()
	state.Sort = SortDelivery
	got := Apply(state, []*pedidos.Pedido{late, undated, soon})
	if got[0].RegistrationNumber != "R-41" || got[2].RegistrationNumber != "R-42" {
		t.Fatalf("delivery order = %s,%s,%s", got[0].RegistrationNumber, got[1].RegistrationNumber, got[2].RegistrationNumber)
	}
}

func TestLoadMissingFileReturnsDefault(t *testing.T) {
	state, err := Load(filepath.Join(t.TempDir(), "viewstate.json"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if state.Sort != SortPriority {
		t.Fatalf("sort = %s, want priority", state.Sort)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "viewstate.json")

	state := Default()
	state.Sort = SortDelivery
	state.Filter.Search = "ebro"
	state.Filter.ShowArchived = true

	if err := Save(path, state); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got.Sort != SortDelivery || got.Filter.Search != "ebro" || !got.Filter.ShowArchived {
		t.Fatalf("round trip mismatch: %+v", got)
	}
}

func TestNormalizeFixesUnknownSort(t *testing.T) {
	state := State{Sort: "bogus"}
	state.Normalize()
	if state.Sort != SortPriority {
		t.Fatalf("sort = %s", state.Sort)
	}
}
