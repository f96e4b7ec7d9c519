package sequence

import (
	"testing"

	"pigmea/internal/stages"
)

func TestNextFromPrintingReturnsFirstStep(t *testing.T) {
	seq := []stages.Stage{stages.LaminationSL2, stages.PerforationMic}
	next, ok := Next(stages.PrintingWM1, seq)
	if !ok || next != stages.LaminationSL2 {
		t.Fatalf("Next = %s, %v; want %s", next, ok, stages.LaminationSL2)
	}
}

func TestNextFromPrintingEmptySequence(t *testing.T) {
	if next, ok := Next(stages.PrintingGiave, nil); ok {
		t.Fatalf("expected no next stage, got %s", next)
	}
}

func TestNextWalksSequenceLinearly(t *testing.T) {
	seq := []stages.Stage{stages.LaminationSL2, stages.RewindS2DT, stages.PerforationMac}

	next, ok := Next(stages.RewindS2DT, seq)
	if !ok || next != stages.PerforationMac {
		t.Fatalf("middle step: Next = %s, %v", next, ok)
	}

	next, ok = Next(stages.PerforationMac, seq)
	if !ok || next != stages.Completed {
		t.Fatalf("last step: Next = %s, %v; want %s", next, ok, stages.Completed)
	}
}

func TestNextFromPostPrintingEmptySequenceCompletes(t *testing.T) {
	next, ok := Next(stages.RewindS2DT, nil)
	if !ok || next != stages.Completed {
		t.Fatalf("Next = %s, %v; want %s", next, ok, stages.Completed)
	}
	next, ok = Next(stages.LaminationSL2, []stages.Stage{})
	if !ok || next != stages.Completed {
		t.Fatalf("Next = %s, %v; want %s", next, ok, stages.Completed)
	}
}

func TestEmptySequenceIsNeverOutOfSequence(t *testing.T) {
	if IsOutOfSequence(stages.RewindS2DT, nil) {
		t.Fatal("empty sequence must not be out of sequence")
	}
	if IsOutOfSequence(stages.PerforationMac, []stages.Stage{}) {
		t.Fatal("empty sequence must not be out of sequence")
	}
}

func TestNextOutOfSequenceHasNoTarget(t *testing.T) {
	seq := []stages.Stage{stages.LaminationSL2, stages.RewindS2DT}
	if next, ok := Next(stages.PerforationMic, seq); ok {
		t.Fatalf("expected no next for out-of-sequence stage, got %s", next)
	}
	if !IsOutOfSequence(stages.PerforationMic, seq) {
		t.Fatal("expected out-of-sequence detection")
	}
}

func TestNextDuplicateUsesFirstOccurrence(t *testing.T) {
	seq := []stages.Stage{stages.LaminationSL2, stages.RewindS2DT, stages.LaminationSL2}
	next, ok := Next(stages.LaminationSL2, seq)
	if !ok || next != stages.RewindS2DT {
		t.Fatalf("Next = %s, %v; want first-occurrence walk to %s", next, ok, stages.RewindS2DT)
	}
}

func TestNextIsDeterministic(t *testing.T) {
	seq := []stages.Stage{stages.LaminationNexus, stages.RewindTemac}
	first, okFirst := Next(stages.LaminationNexus, seq)
	for i := 0; i < 10; i++ {
		got, ok := Next(stages.LaminationNexus, seq)
		if got != first || ok != okFirst {
			t.Fatalf("call %d returned %s, %v; want %s, %v", i, got, ok, first, okFirst)
		}
	}
}

func TestIsOutOfSequenceIgnoresNonPostPrinting(t *testing.T) {
	if IsOutOfSequence(stages.PrintingWM3, nil) {
		t.Fatal("printing stage can never be out of sequence")
	}
	if IsOutOfSequence(stages.Preparation, []stages.Stage{stages.LaminationSL2}) {
		t.Fatal("preparation can never be out of sequence")
	}
}

func TestCanAdvance(t *testing.T) {
	seq := []stages.Stage{stages.LaminationSL2}
	cases := []struct {
		name             string
		current          stages.Stage
		seq              []stages.Stage
		antivaho, done   bool
		want             bool
	}{
		{"preparation never advances here", stages.Preparation, seq, false, false, false},
		{"printing with sequence", stages.PrintingWM1, seq, false, false, true},
		{"printing without sequence", stages.PrintingWM1, nil, false, false, false},
		{"post-printing with sequence", stages.LaminationSL2, seq, false, false, true},
		{"post-printing empty sequence resolves to completed", stages.RewindS2DT, nil, false, false, true},
		{"antivaho pending allows advance", stages.RewindS2DT, nil, true, false, true},
		{"antivaho done still advances", stages.RewindS2DT, nil, true, true, true},
		{"completed never advances", stages.Completed, seq, false, false, false},
		{"archived never advances", stages.Archived, seq, true, false, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := CanAdvance(tc.current, tc.seq, tc.antivaho, tc.done); got != tc.want {
				t.Fatalf("CanAdvance = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestContinuationOptionsCurrentInSequence(t *testing.T) {
	newSeq := []stages.Stage{stages.PerforationMic, stages.LaminationSL2, stages.RewindS2DT}
	got := ContinuationOptions(stages.LaminationSL2, newSeq)
	want := []stages.Stage{stages.RewindS2DT, stages.Completed}
	assertStages(t, got, want)
}

func TestContinuationOptionsCurrentAbsent(t *testing.T) {
	newSeq := []stages.Stage{stages.LaminationSL2, stages.RewindS2DT}
	got := ContinuationOptions(stages.PerforationMac, newSeq)
	want := []stages.Stage{stages.LaminationSL2, stages.RewindS2DT, stages.Completed}
	assertStages(t, got, want)
}

func TestContinuationOptionsExhaustedSequence(t *testing.T) {
	newSeq := []stages.Stage{stages.LaminationSL2}
	got := ContinuationOptions(stages.LaminationSL2, newSeq)
	want := []stages.Stage{stages.Completed}
	assertStages(t, got, want)
}

func TestValidWorkSequence(t *testing.T) {
	if !ValidWorkSequence([]stages.Stage{stages.LaminationSL2, stages.RewindS2DT}) {
		t.Fatal("valid sequence rejected")
	}
	if ValidWorkSequence([]stages.Stage{stages.LaminationSL2, stages.LaminationSL2}) {
		t.Fatal("duplicate accepted")
	}
	if ValidWorkSequence([]stages.Stage{stages.PrintingWM1}) {
		t.Fatal("printing stage accepted")
	}
	if ValidWorkSequence([]stages.Stage{stages.Completed}) {
		t.Fatal("completed accepted")
	}
	if !ValidWorkSequence(nil) {
		t.Fatal("empty sequence should be valid")
	}
}

func assertStages(t *testing.T, got, want []stages.Stage) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}
