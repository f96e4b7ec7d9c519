// Package transition applies stage changes to pedidos.
//
// The orchestrator owns the write path: every stage change, preparation
// update, and archive action flows through it so the audit trail, push
// notifications, and the broadcast stream stay consistent with the store.
// Legality of a move is decided by the sequence package; this package only
// enforces and applies it.
package transition

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"pigmea/internal/audit"
	"pigmea/internal/broadcast"
	"pigmea/internal/notifications"
	"pigmea/internal/pedidos"
	"pigmea/internal/preparation"
	"pigmea/internal/sequence"
	"pigmea/internal/stages"
)

// Deps bundles orchestrator collaborators. Store is required; everything
// else degrades to a noop when nil.
type Deps struct {
	Store    pedidos.Store
	Recorder audit.Recorder
	Notifier notifications.Service
	Emitter  *broadcast.Emitter
	Logger   *slog.Logger
	Now      func() time.Time
	// Actor is the role stamped into history and audit entries for every
	// action this orchestrator performs. Defaults to "sistema".
	Actor string
}

// Orchestrator coordinates pedido state changes.
type Orchestrator struct {
	store    pedidos.Store
	recorder audit.Recorder
	notifier notifications.Service
	emitter  *broadcast.Emitter
	logger   *slog.Logger
	now      func() time.Time
	actor    string
}

// New builds an orchestrator from its collaborators.
func New(deps Deps) (*Orchestrator, error) {
	if deps.Store == nil {
		return nil, errors.New("store is required")
	}
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	actor := deps.Actor
	if actor == "" {
		actor = "sistema"
	}
	return &Orchestrator{
		store:    deps.Store,
		recorder: deps.Recorder,
		notifier: deps.Notifier,
		emitter:  deps.Emitter,
		logger:   logger.With(slog.String("component", "transition")),
		now:      now,
		actor:    actor,
	}, nil
}

// Actor returns the role this orchestrator stamps into history entries.
func (o *Orchestrator) Actor() string {
	return o.actor
}

// PreparationUpdate carries partial changes to a pedido's readiness flags.
// Nil fields keep their current value.
type PreparationUpdate struct {
	MaterialAvailable *bool
	ClicheAvailable   *bool
	ClicheStatus      *preparation.ClicheStatus
}

// AntivahoDestination is where a pedido goes after its antivaho treatment
// is confirmed.
type AntivahoDestination string

const (
	// AntivahoContinue resumes the work sequence at the next planned step.
	AntivahoContinue AntivahoDestination = "continue"
	// AntivahoToPrinting sends the pedido back to its printing machine.
	AntivahoToPrinting AntivahoDestination = "printing"
	// AntivahoToReady parks the pedido in the ready-for-production bucket.
	AntivahoToReady AntivahoDestination = "ready"
)

// Register creates a pedido in the preparation stage.
func (o *Orchestrator) Register(ctx context.Context, params pedidos.NewParams) (*pedidos.Pedido, error) {
	if !sequence.ValidWorkSequence(params.WorkSequence) {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSequence, params.WorkSequence)
	}
	if params.Actor == "" {
		params.Actor = o.actor
	}

	pedido, err := pedidos.New(params, o.now())
	if err != nil {
		return nil, err
	}
	if err := o.store.Insert(ctx, pedido); err != nil {
		return nil, fmt.Errorf("persist pedido: %w", err)
	}

	o.record(ctx, audit.Entry{
		PedidoID:   pedido.ID,
		OccurredAt: pedido.CreatedAt,
		Action:     "registrado",
		ToStage:    pedido.CurrentStage,
		Detail:     pedido.RegistrationNumber,
	})
	if o.notifier != nil {
		if err := o.notifier.NotifyRegistered(ctx, pedido.RegistrationNumber, pedido.Client); err != nil {
			o.logger.Warn("notify registered failed", slog.Any("error", err))
		}
	}
	o.emit(ctx, "pedido-registered", pedido, "", pedido.CurrentStage, "")

	o.logger.Info("pedido registered",
		slog.String("pedido", pedido.ID),
		slog.String("registration", pedido.RegistrationNumber),
	)
	return pedido, nil
}

// ApplyPreparation updates readiness flags and reclassifies the pedido's
// preparation bucket. The ready bucket survives flag updates as long as both
// flags stay available; any regression drops the pedido back into the
// classifier's buckets.
func (o *Orchestrator) ApplyPreparation(ctx context.Context, id string, update PreparationUpdate) (*pedidos.Pedido, error) {
	pedido, err := o.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if pedido.CurrentStage != stages.Preparation {
		return nil, fmt.Errorf("%w: pedido in %s, preparation updates only apply in %s",
			ErrInvalidTransition, pedido.CurrentStage, stages.Preparation)
	}

	if update.MaterialAvailable != nil {
		pedido.MaterialAvailable = *update.MaterialAvailable
	}
	if update.ClicheAvailable != nil {
		pedido.ClicheAvailable = *update.ClicheAvailable
	}
	if update.ClicheStatus != nil {
		pedido.ClicheStatus = *update.ClicheStatus
	}

	previous := pedido.CurrentSubStage
	if previous == preparation.SubStageReady && pedido.MaterialAvailable && pedido.ClicheAvailable {
		// Still ready; the manual assignment sticks.
	} else {
		pedido.CurrentSubStage = preparation.Classify(pedido.MaterialAvailable, pedido.ClicheAvailable, pedido.ClicheStatus)
	}

	now := o.now()
	if pedido.CurrentSubStage != previous {
		pedido.AppendHistory(o.actor, "preparación reclasificada",
			fmt.Sprintf("%s -> %s", preparation.Title(previous), preparation.Title(pedido.CurrentSubStage)), now)
	}
	if err := o.store.Update(ctx, pedido); err != nil {
		return nil, fmt.Errorf("persist preparation update: %w", err)
	}

	o.record(ctx, audit.Entry{
		PedidoID:   pedido.ID,
		OccurredAt: now,
		Action:     "preparacion-actualizada",
		Detail:     string(pedido.CurrentSubStage),
	})
	o.emit(ctx, "preparation-updated", pedido, stages.Preparation, stages.Preparation, string(pedido.CurrentSubStage))
	return pedido, nil
}

// MarkReady manually places a pedido into the ready-for-production bucket.
// Both availability flags must already be true; readiness is never derived.
func (o *Orchestrator) MarkReady(ctx context.Context, id string) (*pedidos.Pedido, error) {
	pedido, err := o.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if pedido.CurrentStage != stages.Preparation {
		return nil, fmt.Errorf("%w: pedido in %s", ErrInvalidTransition, pedido.CurrentStage)
	}
	if !pedido.MaterialAvailable || !pedido.ClicheAvailable {
		return nil, fmt.Errorf("%w: material=%t cliché=%t",
			ErrNotReady, pedido.MaterialAvailable, pedido.ClicheAvailable)
	}

	now := o.now()
	pedido.CurrentSubStage = preparation.SubStageReady
	pedido.AppendHistory(o.actor, "listo para producción", "", now)
	if err := o.store.Update(ctx, pedido); err != nil {
		return nil, fmt.Errorf("persist ready mark: %w", err)
	}

	o.record(ctx, audit.Entry{
		PedidoID:   pedido.ID,
		OccurredAt: now,
		Action:     "listo-para-produccion",
	})
	o.emit(ctx, "marked-ready", pedido, stages.Preparation, stages.Preparation, string(preparation.SubStageReady))
	return pedido, nil
}

// SendToPrinting moves a ready pedido onto a printing machine, freezing the
// work sequence it will follow afterwards. A nil sequence keeps the one
// captured at registration.
func (o *Orchestrator) SendToPrinting(ctx context.Context, id string, machine stages.Stage, workSequence []stages.Stage) (*pedidos.Pedido, error) {
	pedido, err := o.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if pedido.CurrentStage != stages.Preparation {
		return nil, fmt.Errorf("%w: pedido in %s", ErrInvalidTransition, pedido.CurrentStage)
	}
	if pedido.CurrentSubStage != preparation.SubStageReady {
		return nil, fmt.Errorf("%w: pedido in bucket %s", ErrNotReady, pedido.CurrentSubStage)
	}
	if !stages.IsPrinting(machine) {
		return nil, fmt.Errorf("%w: %s is not a printing machine", ErrInvalidTransition, machine)
	}
	if workSequence != nil {
		if !sequence.ValidWorkSequence(workSequence) {
			return nil, fmt.Errorf("%w: %v", ErrInvalidSequence, workSequence)
		}
		pedido.WorkSequence = append([]stages.Stage(nil), workSequence...)
	}

	now := o.now()
	from := pedido.CurrentStage
	pedido.EnterStage(machine, now)
	pedido.AppendHistory(o.actor, "enviado a impresión", stages.Title(machine), now)
	if err := o.store.Update(ctx, pedido); err != nil {
		return nil, fmt.Errorf("persist send to printing: %w", err)
	}

	o.record(ctx, audit.Entry{
		PedidoID:   pedido.ID,
		OccurredAt: now,
		Action:     "enviado-a-impresion",
		FromStage:  from,
		ToStage:    machine,
	})
	if o.notifier != nil {
		if err := o.notifier.NotifySentToPrinting(ctx, pedido.RegistrationNumber, machine); err != nil {
			o.logger.Warn("notify printing failed", slog.Any("error", err))
		}
	}
	o.emit(ctx, "sent-to-printing", pedido, from, machine, "")

	o.logger.Info("pedido sent to printing",
		slog.String("pedido", pedido.ID),
		slog.String("machine", string(machine)),
	)
	return pedido, nil
}

// Advance moves a pedido to the next stage of its work sequence. A pending
// antivaho treatment blocks the silent advance; the caller must route
// through ConfirmAntivaho. A pedido outside its own sequence cannot advance
// until the sequence is reordered.
func (o *Orchestrator) Advance(ctx context.Context, id string) (*pedidos.Pedido, error) {
	pedido, err := o.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !stages.IsPrinting(pedido.CurrentStage) && !stages.IsPostPrinting(pedido.CurrentStage) {
		return nil, fmt.Errorf("%w: cannot advance from %s", ErrInvalidTransition, pedido.CurrentStage)
	}
	if stages.IsPostPrinting(pedido.CurrentStage) && pedido.AntivahoRequired && !pedido.AntivahoDone {
		return nil, ErrAntivahoPending
	}

	next, ok := sequence.Next(pedido.CurrentStage, pedido.WorkSequence)
	if !ok {
		if sequence.IsOutOfSequence(pedido.CurrentStage, pedido.WorkSequence) {
			return nil, fmt.Errorf("%w: %s not in %v", ErrOutOfSequence, pedido.CurrentStage, pedido.WorkSequence)
		}
		return nil, fmt.Errorf("%w: empty work sequence", ErrInvalidTransition)
	}

	if err := o.applyStage(ctx, pedido, next, "avanzado"); err != nil {
		return nil, err
	}
	return pedido, nil
}

// ConfirmAntivaho commits the two-phase antivaho gate: the treatment is
// confirmed done and the pedido is routed to the chosen destination.
func (o *Orchestrator) ConfirmAntivaho(ctx context.Context, id string, destination AntivahoDestination) (*pedidos.Pedido, error) {
	pedido, err := o.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !stages.IsPostPrinting(pedido.CurrentStage) {
		return nil, fmt.Errorf("%w: antivaho confirmation only applies in post-printing, pedido in %s",
			ErrInvalidTransition, pedido.CurrentStage)
	}
	if !pedido.AntivahoRequired || pedido.AntivahoDone {
		return nil, fmt.Errorf("%w: no antivaho confirmation pending", ErrInvalidTransition)
	}

	// Validate the destination before touching any state so an aborted
	// confirmation leaves no partial writes behind.
	var next stages.Stage
	switch destination {
	case AntivahoContinue:
		var ok bool
		next, ok = sequence.Next(pedido.CurrentStage, pedido.WorkSequence)
		if !ok {
			return nil, fmt.Errorf("%w: %s not in %v", ErrOutOfSequence, pedido.CurrentStage, pedido.WorkSequence)
		}
	case AntivahoToPrinting:
		if pedido.PrintingMachine == "" {
			return nil, fmt.Errorf("%w: no printing machine recorded", ErrInvalidTransition)
		}
	case AntivahoToReady:
	default:
		return nil, fmt.Errorf("%w: unknown antivaho destination %q", ErrInvalidTransition, destination)
	}

	now := o.now()
	pedido.AntivahoDone = true
	pedido.AppendHistory(o.actor, "antivaho confirmado", "", now)

	switch destination {
	case AntivahoContinue:
		if err := o.applyStage(ctx, pedido, next, "antivaho-continuar"); err != nil {
			return nil, err
		}
	case AntivahoToPrinting:
		if err := o.applyStage(ctx, pedido, pedido.PrintingMachine, "antivaho-a-impresion"); err != nil {
			return nil, err
		}
	case AntivahoToReady:
		from := pedido.CurrentStage
		pedido.EnterStage(stages.Preparation, now)
		pedido.CurrentSubStage = preparation.SubStageReady
		pedido.AppendHistory(o.actor, "etapa cambiada",
			fmt.Sprintf("%s -> %s", stages.Title(from), preparation.Title(preparation.SubStageReady)), now)
		if err := o.store.Update(ctx, pedido); err != nil {
			return nil, fmt.Errorf("persist antivaho destination: %w", err)
		}
		o.record(ctx, audit.Entry{
			PedidoID:   pedido.ID,
			OccurredAt: now,
			Action:     "antivaho-a-listo",
			FromStage:  from,
			ToStage:    stages.Preparation,
		})
		o.emit(ctx, "stage-changed", pedido, from, stages.Preparation, string(preparation.SubStageReady))
	}
	return pedido, nil
}

// ReorderAndContinue amends the work sequence and places the pedido at an
// explicitly chosen continuation target. The target must be reachable from
// the new sequence; there is no default.
func (o *Orchestrator) ReorderAndContinue(ctx context.Context, id string, newSequence []stages.Stage, continueTo stages.Stage) (*pedidos.Pedido, error) {
	pedido, err := o.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !stages.IsPrinting(pedido.CurrentStage) && !stages.IsPostPrinting(pedido.CurrentStage) {
		return nil, fmt.Errorf("%w: cannot reorder from %s", ErrInvalidTransition, pedido.CurrentStage)
	}
	if !sequence.ValidWorkSequence(newSequence) {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSequence, newSequence)
	}
	if continueTo == "" {
		return nil, ErrAmbiguousContinuation
	}

	options := sequence.ContinuationOptions(pedido.CurrentStage, newSequence)
	allowed := false
	for _, option := range options {
		if option == continueTo {
			allowed = true
			break
		}
	}
	if !allowed {
		return nil, fmt.Errorf("%w: %s not reachable from amended sequence %v",
			ErrInvalidTransition, continueTo, newSequence)
	}

	now := o.now()
	pedido.WorkSequence = append([]stages.Stage(nil), newSequence...)
	pedido.AppendHistory(o.actor, "secuencia modificada", fmt.Sprintf("%v", newSequence), now)
	if err := o.applyStage(ctx, pedido, continueTo, "reordenado"); err != nil {
		return nil, err
	}
	return pedido, nil
}

// ApplyTransition moves a pedido to an explicit target stage, rejecting
// targets that are not reachable from its current state. Used by the board
// when a card is dragged across columns.
func (o *Orchestrator) ApplyTransition(ctx context.Context, id string, target stages.Stage) (*pedidos.Pedido, error) {
	pedido, err := o.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !stages.Valid(target) {
		return nil, fmt.Errorf("%w: unknown stage %q", ErrInvalidTransition, target)
	}

	switch {
	case pedido.CurrentStage == stages.Preparation && stages.IsPrinting(target):
		return o.SendToPrinting(ctx, id, target, nil)
	case pedido.CurrentStage == stages.Completed && target == stages.Archived:
		return o.Archive(ctx, id)
	case pedido.CurrentStage == stages.Archived:
		return nil, fmt.Errorf("%w: archived pedidos must be unarchived first", ErrInvalidTransition)
	case stages.IsPrinting(pedido.CurrentStage) || stages.IsPostPrinting(pedido.CurrentStage):
		if stages.IsPostPrinting(pedido.CurrentStage) && pedido.AntivahoRequired && !pedido.AntivahoDone {
			return nil, ErrAntivahoPending
		}
		next, ok := sequence.Next(pedido.CurrentStage, pedido.WorkSequence)
		if !ok || next != target {
			return nil, fmt.Errorf("%w: %s not reachable from %s", ErrInvalidTransition, target, pedido.CurrentStage)
		}
		if err := o.applyStage(ctx, pedido, target, "movido"); err != nil {
			return nil, err
		}
		return pedido, nil
	default:
		return nil, fmt.Errorf("%w: %s not reachable from %s", ErrInvalidTransition, target, pedido.CurrentStage)
	}
}

// Archive puts a completed pedido away, remembering where it came from.
func (o *Orchestrator) Archive(ctx context.Context, id string) (*pedidos.Pedido, error) {
	pedido, err := o.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if pedido.CurrentStage != stages.Completed {
		return nil, fmt.Errorf("%w: only completed pedidos can be archived, pedido in %s",
			ErrInvalidTransition, pedido.CurrentStage)
	}

	now := o.now()
	from := pedido.CurrentStage
	pedido.PreArchiveStage = from
	pedido.EnterStage(stages.Archived, now)
	pedido.AppendHistory(o.actor, "archivado", "", now)
	if err := o.store.Update(ctx, pedido); err != nil {
		return nil, fmt.Errorf("persist archive: %w", err)
	}

	o.record(ctx, audit.Entry{
		PedidoID:   pedido.ID,
		OccurredAt: now,
		Action:     "archivado",
		FromStage:  from,
		ToStage:    stages.Archived,
	})
	if o.notifier != nil {
		if err := o.notifier.NotifyArchived(ctx, pedido.RegistrationNumber, 1); err != nil {
			o.logger.Warn("notify archive failed", slog.Any("error", err))
		}
	}
	o.emit(ctx, "archived", pedido, from, stages.Archived, "")
	return pedido, nil
}

// Unarchive restores an archived pedido to the stage it held before
// archiving, falling back to Completed for legacy rows.
func (o *Orchestrator) Unarchive(ctx context.Context, id string) (*pedidos.Pedido, error) {
	pedido, err := o.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if pedido.CurrentStage != stages.Archived {
		return nil, fmt.Errorf("%w: pedido in %s is not archived", ErrInvalidTransition, pedido.CurrentStage)
	}

	target := pedido.PreArchiveStage
	if target == "" || !stages.Valid(target) {
		target = stages.Completed
	}

	now := o.now()
	pedido.PreArchiveStage = ""
	pedido.EnterStage(target, now)
	if target == stages.Preparation && pedido.CurrentSubStage == "" {
		pedido.CurrentSubStage = preparation.Classify(pedido.MaterialAvailable, pedido.ClicheAvailable, pedido.ClicheStatus)
	}
	pedido.AppendHistory(o.actor, "desarchivado", stages.Title(target), now)
	if err := o.store.Update(ctx, pedido); err != nil {
		return nil, fmt.Errorf("persist unarchive: %w", err)
	}

	o.record(ctx, audit.Entry{
		PedidoID:   pedido.ID,
		OccurredAt: now,
		Action:     "desarchivado",
		FromStage:  stages.Archived,
		ToStage:    target,
	})
	o.emit(ctx, "unarchived", pedido, stages.Archived, target, "")
	return pedido, nil
}

// AutoArchive archives every pedido that completed before the retention
// window. Returns how many were archived; the sweep continues past
// individual failures.
func (o *Orchestrator) AutoArchive(ctx context.Context, olderThan time.Duration) (int, error) {
	cutoff := o.now().Add(-olderThan)
	stale, err := o.store.CompletedBefore(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("find stale completed pedidos: %w", err)
	}

	archived := 0
	for _, pedido := range stale {
		if _, err := o.Archive(ctx, pedido.ID); err != nil {
			o.logger.Warn("auto-archive failed",
				slog.String("pedido", pedido.ID),
				slog.Any("error", err),
			)
			continue
		}
		archived++
	}
	if archived > 0 {
		o.logger.Info("auto-archive sweep", slog.Int("archived", archived))
	}
	return archived, nil
}

func (o *Orchestrator) load(ctx context.Context, id string) (*pedidos.Pedido, error) {
	pedido, err := o.store.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load pedido: %w", err)
	}
	if pedido == nil {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return pedido, nil
}

// applyStage commits a stage change: timeline, history, persistence, audit,
// notifications, broadcast. Callers have already validated reachability.
func (o *Orchestrator) applyStage(ctx context.Context, pedido *pedidos.Pedido, target stages.Stage, action string) error {
	now := o.now()
	from := pedido.CurrentStage
	pedido.EnterStage(target, now)
	pedido.AppendHistory(o.actor, "etapa cambiada",
		fmt.Sprintf("%s -> %s", stages.Title(from), stages.Title(target)), now)

	if err := o.store.Update(ctx, pedido); err != nil {
		return fmt.Errorf("persist stage change: %w", err)
	}

	o.record(ctx, audit.Entry{
		PedidoID:   pedido.ID,
		OccurredAt: now,
		Action:     action,
		FromStage:  from,
		ToStage:    target,
	})

	if o.notifier != nil {
		var notifyErr error
		if target == stages.Completed {
			notifyErr = o.notifier.NotifyCompleted(ctx, pedido.RegistrationNumber, pedido.Client)
		} else {
			notifyErr = o.notifier.NotifyStageChanged(ctx, pedido.RegistrationNumber, from, target)
		}
		if notifyErr != nil {
			o.logger.Warn("stage notification failed", slog.Any("error", notifyErr))
		}
	}
	o.emit(ctx, "stage-changed", pedido, from, target, action)

	o.logger.Info("stage changed",
		slog.String("pedido", pedido.ID),
		slog.String("from", string(from)),
		slog.String("to", string(target)),
	)
	return nil
}

// record appends to the audit trail. Fire and forget: failures are logged,
// never propagated to the operation being audited.
func (o *Orchestrator) record(ctx context.Context, entry audit.Entry) {
	if o.recorder == nil {
		return
	}
	if entry.Actor == "" {
		entry.Actor = o.actor
	}
	if err := o.recorder.Record(ctx, entry); err != nil {
		o.logger.Warn("audit record failed",
			slog.String("pedido", entry.PedidoID),
			slog.Any("error", err),
		)
	}
}

func (o *Orchestrator) emit(ctx context.Context, event string, pedido *pedidos.Pedido, from, to stages.Stage, detail string) {
	if o.emitter == nil {
		return
	}
	err := o.emitter.Publish(ctx, broadcast.Event{
		Event:        event,
		PedidoID:     pedido.ID,
		Registration: pedido.RegistrationNumber,
		FromStage:    from,
		ToStage:      to,
		Detail:       detail,
		OccurredAt:   o.now().UTC(),
	})
	if err != nil {
		o.logger.Warn("broadcast failed", slog.String("event", event), slog.Any("error", err))
	}
}
