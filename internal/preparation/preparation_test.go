package preparation

import "testing"

func TestClassifyMaterialWinsOverCliche(t *testing.T) {
	got := Classify(false, true, ClicheNew)
	if got != SubStageMaterialUnavailable {
		t.Fatalf("Classify = %s, want %s", got, SubStageMaterialUnavailable)
	}
}

func TestClassifyPrecedence(t *testing.T) {
	cases := []struct {
		name     string
		material bool
		cliche   bool
		status   ClicheStatus
		want     SubStage
	}{
		{"no material", false, false, ClichePendingClient, SubStageMaterialUnavailable},
		{"material ok cliche missing", true, false, ClicheNew, SubStageClicheUnavailable},
		{"both ok new cliche", true, true, ClicheNew, SubStageClicheNew},
		{"both ok repeat cliche", true, true, ClicheRepeatChange, SubStageClicheRepeat},
		{"both ok pending cliche", true, true, ClichePendingClient, SubStageClichePending},
		{"unknown status falls back to pending", true, true, ClicheStatus("Troquel"), SubStageClichePending},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Classify(tc.material, tc.cliche, tc.status); got != tc.want {
				t.Fatalf("Classify = %s, want %s", got, tc.want)
			}
		})
	}
}

func TestClassifyNeverReturnsReady(t *testing.T) {
	for _, material := range []bool{true, false} {
		for _, cliche := range []bool{true, false} {
			for _, status := range []ClicheStatus{ClichePendingClient, ClicheRepeatChange, ClicheNew, ""} {
				if got := Classify(material, cliche, status); got == SubStageReady {
					t.Fatalf("Classify(%v, %v, %q) returned the ready bucket", material, cliche, status)
				}
			}
		}
	}
}

func TestParseSubStage(t *testing.T) {
	got, ok := ParseSubStage(" listo_para_produccion ")
	if !ok || got != SubStageReady {
		t.Fatalf("ParseSubStage = %s, %v", got, ok)
	}
	if _, ok := ParseSubStage("SIN_GESTION"); ok {
		t.Fatal("unknown sub-stage accepted")
	}
}

func TestParseClicheStatus(t *testing.T) {
	if got := ParseClicheStatus("Nuevo"); got != ClicheNew {
		t.Fatalf("got %s", got)
	}
	if got := ParseClicheStatus("whatever"); got != ClichePendingClient {
		t.Fatalf("unknown status should default to pending, got %s", got)
	}
}
