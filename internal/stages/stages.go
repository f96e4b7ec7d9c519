// Package stages defines the static catalog of production stages and their
// display metadata.
//
// Stages belong to one of five families: preparation, printing machines,
// post-printing finishing operations, completed, and archived. Only the
// printing and post-printing families carry an internal ordering; there is
// no global ordering across families. The catalog is fixed at compile time
// and has no failure modes.
package stages

import "strings"

// Stage identifies one node of the production pipeline.
type Stage string

const (
	Preparation Stage = "PREPARACION"

	PrintingWM1   Stage = "IMPRESION_WM1"
	PrintingGiave Stage = "IMPRESION_GIAVE"
	PrintingWM3   Stage = "IMPRESION_WM3"
	PrintingAnon  Stage = "IMPRESION_ANON"

	LaminationSL2   Stage = "POST_LAMINACION_SL2"
	LaminationNexus Stage = "POST_LAMINACION_NEXUS"
	RewindS2DT      Stage = "POST_REBOBINADO_S2DT"
	RewindProslit   Stage = "POST_REBOBINADO_PROSLIT"
	PerforationMic  Stage = "POST_PERFORACION_MIC"
	PerforationMac  Stage = "POST_PERFORACION_MAC"
	RewindTemac     Stage = "POST_REBOBINADO_TEMAC"

	Completed Stage = "COMPLETADO"
	Archived  Stage = "ARCHIVADO"
)

// Family groups stages that play the same role in the pipeline.
type Family string

const (
	FamilyPreparation  Family = "preparation"
	FamilyPrinting     Family = "printing"
	FamilyPostPrinting Family = "post_printing"
	FamilyCompleted    Family = "completed"
	FamilyArchived     Family = "archived"
)

// Info carries display metadata for a stage.
type Info struct {
	Title    string
	ColorTag string
}

var printingStages = []Stage{
	PrintingWM1,
	PrintingGiave,
	PrintingWM3,
	PrintingAnon,
}

var postPrintingStages = []Stage{
	LaminationSL2,
	LaminationNexus,
	RewindS2DT,
	RewindProslit,
	PerforationMic,
	PerforationMac,
	RewindTemac,
}

var catalog = map[Stage]Info{
	Preparation:     {Title: "Preparación", ColorTag: "yellow"},
	PrintingWM1:     {Title: "Impresión WM1", ColorTag: "blue"},
	PrintingGiave:   {Title: "Impresión GIAVE", ColorTag: "blue"},
	PrintingWM3:     {Title: "Impresión WM3", ColorTag: "blue"},
	PrintingAnon:    {Title: "Impresión ANON", ColorTag: "blue"},
	LaminationSL2:   {Title: "Laminación SL2", ColorTag: "purple"},
	LaminationNexus: {Title: "Laminación NEXUS", ColorTag: "purple"},
	RewindS2DT:      {Title: "Rebobinado S2DT", ColorTag: "teal"},
	RewindProslit:   {Title: "Rebobinado PROSLIT", ColorTag: "teal"},
	PerforationMic:  {Title: "Perforación MIC", ColorTag: "orange"},
	PerforationMac:  {Title: "Perforación MAC", ColorTag: "orange"},
	RewindTemac:     {Title: "Rebobinado TEMAC", ColorTag: "teal"},
	Completed:       {Title: "Completado", ColorTag: "green"},
	Archived:        {Title: "Archivado", ColorTag: "red"},
}

var allStages = func() []Stage {
	out := make([]Stage, 0, len(catalog))
	out = append(out, Preparation)
	out = append(out, printingStages...)
	out = append(out, postPrintingStages...)
	out = append(out, Completed, Archived)
	return out
}()

var familyOf = func() map[Stage]Family {
	m := make(map[Stage]Family, len(catalog))
	m[Preparation] = FamilyPreparation
	for _, s := range printingStages {
		m[s] = FamilyPrinting
	}
	for _, s := range postPrintingStages {
		m[s] = FamilyPostPrinting
	}
	m[Completed] = FamilyCompleted
	m[Archived] = FamilyArchived
	return m
}()

// Metadata returns display metadata for a stage. Unknown stages get a
// pass-through title so stale identifiers still render.
func Metadata(s Stage) Info {
	if info, ok := catalog[s]; ok {
		return info
	}
	return Info{Title: string(s), ColorTag: "gray"}
}

// Title is shorthand for Metadata(s).Title.
func Title(s Stage) string {
	return Metadata(s).Title
}

// All returns every known stage in pipeline order.
func All() []Stage {
	cp := make([]Stage, len(allStages))
	copy(cp, allStages)
	return cp
}

// InFamily returns the stages of a family in their stable catalog order.
func InFamily(f Family) []Stage {
	var src []Stage
	switch f {
	case FamilyPreparation:
		src = []Stage{Preparation}
	case FamilyPrinting:
		src = printingStages
	case FamilyPostPrinting:
		src = postPrintingStages
	case FamilyCompleted:
		src = []Stage{Completed}
	case FamilyArchived:
		src = []Stage{Archived}
	default:
		return nil
	}
	cp := make([]Stage, len(src))
	copy(cp, src)
	return cp
}

// FamilyOf reports the family a stage belongs to.
func FamilyOf(s Stage) (Family, bool) {
	f, ok := familyOf[s]
	return f, ok
}

// Valid reports whether the identifier names a known stage.
func Valid(s Stage) bool {
	_, ok := catalog[s]
	return ok
}

// IsPrinting reports whether the stage is a printing machine.
func IsPrinting(s Stage) bool {
	return familyOf[s] == FamilyPrinting
}

// IsPostPrinting reports whether the stage is a finishing operation.
func IsPostPrinting(s Stage) bool {
	return familyOf[s] == FamilyPostPrinting
}

// Parse converts a raw identifier into a known Stage.
func Parse(value string) (Stage, bool) {
	normalized := Stage(strings.ToUpper(strings.TrimSpace(value)))
	if normalized == "" {
		return "", false
	}
	_, ok := catalog[normalized]
	return normalized, ok
}
