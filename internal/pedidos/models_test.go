package pedidos

import (
	"testing"
	"time"

	"pigmea/internal/preparation"
	"pigmea/internal/stages"
)

func testParams() NewParams {
	return NewParams{
		RegistrationNumber: "REG-1001",
		ClientOrderNumber:  "PO-55",
		Client:             "Envases del Norte",
		Priority:           PriorityNormal,
		Meters:             12000,
		WorkSequence:       []stages.Stage{stages.LaminationSL2, stages.RewindS2DT},
		MaterialAvailable:  true,
		ClicheAvailable:    false,
		ClicheStatus:       preparation.ClicheNew,
	}
}

func TestNewStartsInPreparation(t *testing.T) {
	now := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	pedido, err := New(testParams(), now)
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	if pedido.CurrentStage != stages.Preparation {
		t.Fatalf("stage = %s, want PREPARACION", pedido.CurrentStage)
	}
	if pedido.CurrentSubStage != preparation.SubStageClicheUnavailable {
		t.Fatalf("sub-stage = %s, want CLICHE_NO_DISPONIBLE", pedido.CurrentSubStage)
	}
	if len(pedido.StageTimeline) != 1 || pedido.StageTimeline[0].Stage != stages.Preparation {
		t.Fatalf("timeline = %+v", pedido.StageTimeline)
	}
	if pedido.ID == "" {
		t.Fatal("expected generated id")
	}
}

func TestNewCollapsesFieldWhitespace(t *testing.T) {
	params := testParams()
	params.Client = "  Envases   del \t Norte "
	params.ClientOrderNumber = " PO-55 "
	params.PrintType = "Flexo  8   colores"
	params.Observations = "  tirada   partida "

	pedido, err := New(params, time.Now())
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	if pedido.Client != "Envases del Norte" {
		t.Fatalf("client = %q", pedido.Client)
	}
	if pedido.ClientOrderNumber != "PO-55" {
		t.Fatalf("client order number = %q", pedido.ClientOrderNumber)
	}
	if pedido.PrintType != "Flexo 8 colores" {
		t.Fatalf("print type = %q", pedido.PrintType)
	}
	if pedido.Observations != "tirada partida" {
		t.Fatalf("observations = %q", pedido.Observations)
	}
}

func TestNewRejectsBadSequence(t *testing.T) {
	params := testParams()
	params.WorkSequence = []stages.Stage{stages.PrintingWM1}
	if _, err := New(params, time.Now()); err == nil {
		t.Fatal("expected error for printing stage in work sequence")
	}
}

func TestNewRequiresClient(t *testing.T) {
	params := testParams()
	params.Client = "  "
	if _, err := New(params, time.Now()); err == nil {
		t.Fatal("expected error for missing client")
	}
}

func TestValidateSubStageOnlyInPreparation(t *testing.T) {
	pedido, err := New(testParams(), time.Now())
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	pedido.CurrentStage = stages.PrintingWM1
	if err := pedido.Validate(); err == nil {
		t.Fatal("expected error for sub-stage outside preparation")
	}
}

func TestEnterStageClearsSubStageAndRecordsMachine(t *testing.T) {
	now := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	pedido, err := New(testParams(), now)
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	pedido.EnterStage(stages.PrintingGiave, now.Add(time.Hour))
	if pedido.CurrentSubStage != "" {
		t.Fatalf("sub-stage = %q, want cleared", pedido.CurrentSubStage)
	}
	if pedido.PrintingMachine != stages.PrintingGiave {
		t.Fatalf("printing machine = %s", pedido.PrintingMachine)
	}
	if len(pedido.StageTimeline) != 2 {
		t.Fatalf("timeline length = %d, want 2", len(pedido.StageTimeline))
	}
	if err := pedido.Validate(); err != nil {
		t.Fatalf("pedido invalid after stage entry: %v", err)
	}
}

func TestDwellTime(t *testing.T) {
	now := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	pedido, err := New(testParams(), now)
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	pedido.EnterStage(stages.PrintingWM1, now.Add(time.Hour))

	dwell := pedido.DwellTime(now.Add(3 * time.Hour))
	if dwell != 2*time.Hour {
		t.Fatalf("dwell = %s, want 2h", dwell)
	}
}

func TestParsePriority(t *testing.T) {
	cases := []struct {
		input   string
		want    Priority
		wantErr bool
	}{
		{"urgente", PriorityUrgent, false},
		{" Alta ", PriorityHigh, false},
		{"Normal", PriorityNormal, false},
		{"baja", PriorityLow, false},
		{"critical", "", true},
	}
	for _, tc := range cases {
		got, err := ParsePriority(tc.input)
		if tc.wantErr {
			if err == nil {
				t.Fatalf("ParsePriority(%q): expected error", tc.input)
			}
			continue
		}
		if err != nil {
			t.Fatalf("ParsePriority(%q): %v", tc.input, err)
		}
		if got != tc.want {
			t.Fatalf("ParsePriority(%q) = %s, want %s", tc.input, got, tc.want)
		}
	}
}

func TestPriorityRankOrdering(t *testing.T) {
	if !(PriorityUrgent.Rank() < PriorityHigh.Rank() &&
		PriorityHigh.Rank() < PriorityNormal.Rank() &&
		PriorityNormal.Rank() < PriorityLow.Rank()) {
		t.Fatal("priority ranks out of order")
	}
}
