package pedidos

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"pigmea/internal/preparation"
	"pigmea/internal/stages"
	"pigmea/internal/textutil"
)

// Priority orders pedidos on the board. Values match what the plant uses on
// paper travelers, so they stay in Spanish.
type Priority string

const (
	PriorityUrgent Priority = "Urgente"
	PriorityHigh   Priority = "Alta"
	PriorityNormal Priority = "Normal"
	PriorityLow    Priority = "Baja"
)

var allPriorities = []Priority{PriorityUrgent, PriorityHigh, PriorityNormal, PriorityLow}

var prioritySet = func() map[Priority]struct{} {
	set := make(map[Priority]struct{}, len(allPriorities))
	for _, priority := range allPriorities {
		set[priority] = struct{}{}
	}
	return set
}()

// Rank returns the sort weight for a priority, lower sorts first.
func (p Priority) Rank() int {
	switch p {
	case PriorityUrgent:
		return 0
	case PriorityHigh:
		return 1
	case PriorityNormal:
		return 2
	case PriorityLow:
		return 3
	default:
		return 4
	}
}

// Valid reports whether the priority is one of the known values.
func (p Priority) Valid() bool {
	_, ok := prioritySet[p]
	return ok
}

// ParsePriority normalizes user input to a known priority.
func ParsePriority(value string) (Priority, error) {
	trimmed := strings.TrimSpace(value)
	for _, priority := range allPriorities {
		if strings.EqualFold(trimmed, string(priority)) {
			return priority, nil
		}
	}
	return "", fmt.Errorf("unknown priority %q", value)
}

// StageEntry records when a pedido entered a stage. The ordered slice of
// entries is the pedido's timeline through the plant.
type StageEntry struct {
	Stage     stages.Stage `json:"stage"`
	EnteredAt time.Time    `json:"entered_at"`
}

// HistoryEntry is a free-form audit line kept on the pedido itself so the
// detail view can show its trajectory without a separate query.
type HistoryEntry struct {
	Timestamp time.Time `json:"timestamp"`
	Actor     string    `json:"actor"`
	Action    string    `json:"action"`
	Detail    string    `json:"detail,omitempty"`
}

// Pedido is a production order walking the plant from preparation through
// printing and post-printing to completion.
type Pedido struct {
	ID                 string
	RegistrationNumber string
	ClientOrderNumber  string
	Client             string
	Priority           Priority
	PrintType          string
	Meters             float64
	DeliveryDate       *time.Time
	Observations       string

	CurrentStage    stages.Stage
	CurrentSubStage preparation.SubStage
	PrintingMachine stages.Stage
	WorkSequence    []stages.Stage

	MaterialAvailable bool
	ClicheAvailable   bool
	ClicheStatus      preparation.ClicheStatus
	AntivahoRequired  bool
	AntivahoDone      bool

	StageTimeline  []StageEntry
	History        []HistoryEntry
	ManualPosition *int

	// PreArchiveStage remembers where the pedido was when archived so
	// unarchiving can put it back.
	PreArchiveStage stages.Stage

	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewParams carries the fields captured when a pedido is registered.
type NewParams struct {
	RegistrationNumber string
	ClientOrderNumber  string
	Client             string
	Priority           Priority
	PrintType          string
	Meters             float64
	DeliveryDate       *time.Time
	Observations       string
	WorkSequence       []stages.Stage
	MaterialAvailable  bool
	ClicheAvailable    bool
	ClicheStatus       preparation.ClicheStatus
	AntivahoRequired   bool
	Actor              string
}

// New builds a pedido in the preparation stage with its sub-stage derived
// from the material and cliché flags. The returned pedido passes Validate.
func New(params NewParams, now time.Time) (*Pedido, error) {
	now = now.UTC()
	pedido := &Pedido{
		ID:                 uuid.NewString(),
		RegistrationNumber: strings.TrimSpace(params.RegistrationNumber),
		ClientOrderNumber:  textutil.CollapseSpaces(params.ClientOrderNumber),
		Client:             textutil.CollapseSpaces(params.Client),
		Priority:           params.Priority,
		PrintType:          textutil.CollapseSpaces(params.PrintType),
		Meters:             params.Meters,
		DeliveryDate:       params.DeliveryDate,
		Observations:       textutil.CollapseSpaces(params.Observations),
		CurrentStage:       stages.Preparation,
		PrintingMachine:    "",
		WorkSequence:       append([]stages.Stage(nil), params.WorkSequence...),
		MaterialAvailable:  params.MaterialAvailable,
		ClicheAvailable:    params.ClicheAvailable,
		ClicheStatus:       params.ClicheStatus,
		AntivahoRequired:   params.AntivahoRequired,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	if pedido.Priority == "" {
		pedido.Priority = PriorityNormal
	}
	if pedido.ClicheStatus == "" {
		pedido.ClicheStatus = preparation.ClichePendingClient
	}
	pedido.CurrentSubStage = preparation.Classify(pedido.MaterialAvailable, pedido.ClicheAvailable, pedido.ClicheStatus)
	actor := strings.TrimSpace(params.Actor)
	if actor == "" {
		actor = "sistema"
	}
	pedido.StageTimeline = []StageEntry{{Stage: stages.Preparation, EnteredAt: now}}
	pedido.History = []HistoryEntry{{Timestamp: now, Actor: actor, Action: "registrado"}}

	if err := pedido.Validate(); err != nil {
		return nil, err
	}
	return pedido, nil
}

// Validate checks the structural invariants every stored pedido must hold.
func (p *Pedido) Validate() error {
	if p == nil {
		return errors.New("pedido is nil")
	}
	if strings.TrimSpace(p.ID) == "" {
		return errors.New("pedido id must be set")
	}
	if strings.TrimSpace(p.RegistrationNumber) == "" {
		return errors.New("registration number must be set")
	}
	if strings.TrimSpace(p.Client) == "" {
		return errors.New("client must be set")
	}
	if !p.Priority.Valid() {
		return fmt.Errorf("unknown priority %q", p.Priority)
	}
	if !stages.Valid(p.CurrentStage) {
		return fmt.Errorf("unknown stage %q", p.CurrentStage)
	}
	if p.CurrentSubStage != "" && p.CurrentStage != stages.Preparation {
		return fmt.Errorf("sub-stage %q outside preparation", p.CurrentSubStage)
	}
	if p.CurrentStage == stages.Preparation && p.CurrentSubStage == "" {
		return errors.New("preparation pedido missing sub-stage")
	}
	if p.PrintingMachine != "" && !stages.IsPrinting(p.PrintingMachine) {
		return fmt.Errorf("printing machine %q is not a printing stage", p.PrintingMachine)
	}
	for _, step := range p.WorkSequence {
		if !stages.IsPostPrinting(step) {
			return fmt.Errorf("work sequence step %q is not a post-printing stage", step)
		}
	}
	if p.AntivahoDone && !p.AntivahoRequired {
		return errors.New("antivaho done without antivaho required")
	}
	if p.PreArchiveStage != "" && p.CurrentStage != stages.Archived {
		return errors.New("pre-archive stage set while not archived")
	}
	return nil
}

// EnterStage moves the pedido to a stage, appending to the timeline and
// clearing preparation bookkeeping when leaving preparation.
func (p *Pedido) EnterStage(stage stages.Stage, now time.Time) {
	now = now.UTC()
	p.CurrentStage = stage
	if stage != stages.Preparation {
		p.CurrentSubStage = ""
	}
	if stages.IsPrinting(stage) {
		p.PrintingMachine = stage
	}
	p.StageTimeline = append(p.StageTimeline, StageEntry{Stage: stage, EnteredAt: now})
	p.UpdatedAt = now
}

// AppendHistory records an audit line on the pedido, stamped with the role
// that performed the action.
func (p *Pedido) AppendHistory(actor, action, detail string, now time.Time) {
	p.History = append(p.History, HistoryEntry{Timestamp: now.UTC(), Actor: actor, Action: action, Detail: detail})
}

// IsArchived reports whether the pedido has been put away.
func (p *Pedido) IsArchived() bool {
	return p.CurrentStage == stages.Archived
}

// IsCompleted reports whether the pedido finished its sequence.
func (p *Pedido) IsCompleted() bool {
	return p.CurrentStage == stages.Completed
}

// StageEnteredAt returns when the pedido last entered its current stage.
func (p *Pedido) StageEnteredAt() (time.Time, bool) {
	for i := len(p.StageTimeline) - 1; i >= 0; i-- {
		if p.StageTimeline[i].Stage == p.CurrentStage {
			return p.StageTimeline[i].EnteredAt, true
		}
	}
	return time.Time{}, false
}

// DwellTime returns how long the pedido has sat in its current stage.
func (p *Pedido) DwellTime(now time.Time) time.Duration {
	entered, ok := p.StageEnteredAt()
	if !ok {
		return 0
	}
	return now.UTC().Sub(entered)
}
