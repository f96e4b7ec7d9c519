// Package sequence implements the stage-sequencing rules for pedidos.
//
// A pedido entering printing carries a work sequence: the ordered list of
// post-printing operations chosen for it. These functions decide where a
// pedido may go next, whether its current position matches that plan, and
// which targets remain reachable when the plan is amended. All functions are
// pure and total over their input domain; callers never see an error for
// in-domain input.
package sequence

import "pigmea/internal/stages"

// Next computes the stage a pedido should advance to.
//
// From a printing machine the first planned operation is next. From a
// post-printing operation the walk is linear: the entry after the current
// one, or Completed when the current operation is the last planned step. An
// empty sequence also resolves to Completed: there is nothing left to plan.
// A post-printing stage absent from a non-empty sequence has no next stage;
// the caller must reconcile through a sequence reorder. Duplicate entries
// resolve to the first occurrence.
func Next(current stages.Stage, workSequence []stages.Stage) (stages.Stage, bool) {
	if stages.IsPrinting(current) {
		if len(workSequence) > 0 {
			return workSequence[0], true
		}
		return "", false
	}
	if !stages.IsPostPrinting(current) {
		return "", false
	}
	if len(workSequence) == 0 {
		return stages.Completed, true
	}
	i := indexOf(current, workSequence)
	switch {
	case i >= 0 && i < len(workSequence)-1:
		return workSequence[i+1], true
	case i >= 0 && i == len(workSequence)-1:
		return stages.Completed, true
	default:
		return "", false
	}
}

// IsOutOfSequence reports whether a pedido sits in a post-printing stage that
// its own work sequence does not contain. Printing stages, non-pipeline
// stages, and empty sequences are never out of sequence.
func IsOutOfSequence(current stages.Stage, workSequence []stages.Stage) bool {
	if !stages.IsPostPrinting(current) {
		return false
	}
	if len(workSequence) == 0 {
		return false
	}
	return indexOf(current, workSequence) < 0
}

// CanAdvance reports whether forward movement is currently permitted.
//
// Preparation never advances through this path: leaving preparation is the
// explicit send-to-printing action. A printing stage advances once a work
// sequence exists. A post-printing stage always advances: in sequence it
// walks the plan, an exhausted or empty sequence resolves to Completed, out
// of sequence it is offered the reorder flow, and a pending antivaho
// treatment is offered the reconfirmation step.
func CanAdvance(current stages.Stage, workSequence []stages.Stage, antivahoRequired, antivahoDone bool) bool {
	switch {
	case stages.IsPrinting(current):
		return len(workSequence) > 0
	case stages.IsPostPrinting(current):
		return true
	default:
		return false
	}
}

// ContinuationOptions lists the stages an actor may pick as the "continue to"
// target after amending a work sequence. When the current stage appears in
// the new sequence the options are the remaining steps plus Completed; when
// it does not, the entire new sequence is open. Completed is always reachable
// once the sequence is exhausted.
func ContinuationOptions(current stages.Stage, newSequence []stages.Stage) []stages.Stage {
	i := indexOf(current, newSequence)
	if i < 0 {
		options := make([]stages.Stage, 0, len(newSequence)+1)
		options = append(options, newSequence...)
		return append(options, stages.Completed)
	}
	remaining := newSequence[i+1:]
	options := make([]stages.Stage, 0, len(remaining)+1)
	options = append(options, remaining...)
	return append(options, stages.Completed)
}

// ValidWorkSequence reports whether every entry is a post-printing stage and
// no stage repeats. Preparation, printing machines, Completed, and Archived
// never belong in a work sequence.
func ValidWorkSequence(workSequence []stages.Stage) bool {
	seen := make(map[stages.Stage]struct{}, len(workSequence))
	for _, s := range workSequence {
		if !stages.IsPostPrinting(s) {
			return false
		}
		if _, dup := seen[s]; dup {
			return false
		}
		seen[s] = struct{}{}
	}
	return true
}

func indexOf(target stages.Stage, seq []stages.Stage) int {
	for i, s := range seq {
		if s == target {
			return i
		}
	}
	return -1
}
