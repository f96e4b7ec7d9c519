// Package preparation classifies pedidos still in the preparation stage into
// readiness buckets.
//
// The classifier only reflects blocking or waiting states derived from the
// material/cliché flags; the "ready for production" bucket is a manual
// terminal assignment made through the orchestrator once both flags are
// true, never a classification result.
package preparation

import "strings"

// ClicheStatus tracks where the printing plate stands for a pedido.
type ClicheStatus string

const (
	ClichePendingClient ClicheStatus = "Pendiente cliente"
	ClicheRepeatChange  ClicheStatus = "Repetición/Cambio"
	ClicheNew           ClicheStatus = "Nuevo"
)

// SubStage is the preparation bucket a pedido occupies. Only meaningful
// while the pedido's current stage is PREPARACION.
type SubStage string

const (
	SubStageMaterialUnavailable SubStage = "MATERIAL_NO_DISPONIBLE"
	SubStageClicheUnavailable   SubStage = "CLICHE_NO_DISPONIBLE"
	SubStageClichePending       SubStage = "CLICHE_PENDIENTE"
	SubStageClicheRepeat        SubStage = "CLICHE_REPETICION"
	SubStageClicheNew           SubStage = "CLICHE_NUEVO"

	// SubStageReady is assigned manually once material and cliché are both
	// available. Classify never returns it.
	SubStageReady SubStage = "LISTO_PARA_PRODUCCION"
)

var subStageTitles = map[SubStage]string{
	SubStageMaterialUnavailable: "Material No Disponible",
	SubStageClicheUnavailable:   "Cliché No Disponible",
	SubStageClichePending:       "Cliché Pendiente Cliente",
	SubStageClicheRepeat:        "Cliché Repetición/Cambio",
	SubStageClicheNew:           "Cliché Nuevo",
	SubStageReady:               "Listo para Producción",
}

// Classify maps readiness flags to the preparation bucket a pedido belongs
// in. Material availability always wins over cliché availability; once both
// checks pass, the cliché status picks among the waiting buckets, defaulting
// to the pending bucket for unknown status values. Total: never errors.
func Classify(materialAvailable, clicheAvailable bool, status ClicheStatus) SubStage {
	if !materialAvailable {
		return SubStageMaterialUnavailable
	}
	if !clicheAvailable {
		return SubStageClicheUnavailable
	}
	switch status {
	case ClicheNew:
		return SubStageClicheNew
	case ClicheRepeatChange:
		return SubStageClicheRepeat
	default:
		return SubStageClichePending
	}
}

// Title returns the display title for a sub-stage bucket.
func Title(s SubStage) string {
	if title, ok := subStageTitles[s]; ok {
		return title
	}
	return string(s)
}

// AllSubStages returns the board buckets in display order, ready bucket last.
func AllSubStages() []SubStage {
	return []SubStage{
		SubStageMaterialUnavailable,
		SubStageClicheUnavailable,
		SubStageClichePending,
		SubStageClicheRepeat,
		SubStageClicheNew,
		SubStageReady,
	}
}

// ParseSubStage converts a raw identifier into a known SubStage.
func ParseSubStage(value string) (SubStage, bool) {
	normalized := SubStage(strings.ToUpper(strings.TrimSpace(value)))
	if normalized == "" {
		return "", false
	}
	if _, ok := subStageTitles[normalized]; !ok {
		return "", false
	}
	return normalized, true
}

// ParseClicheStatus converts stored text into a ClicheStatus, defaulting to
// pending-client for unknown values so legacy rows keep classifying.
func ParseClicheStatus(value string) ClicheStatus {
	switch strings.TrimSpace(value) {
	case string(ClicheNew):
		return ClicheNew
	case string(ClicheRepeatChange):
		return ClicheRepeatChange
	default:
		return ClichePendingClient
	}
}
