package pedidos

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"pigmea/internal/audit"
	"pigmea/internal/config"
	"pigmea/internal/preparation"
	"pigmea/internal/stages"
)

// SQLiteStore manages pedido persistence backed by SQLite.
type SQLiteStore struct {
	db   *sql.DB
	path string
}

const (
	sqliteBusyCode          = 5
	busyRetryAttempts       = 5
	busyRetryInitialBackoff = 10 * time.Millisecond
	busyRetryMaxBackoff     = 200 * time.Millisecond
)

func ensureContext(ctx context.Context) context.Context {
	if ctx != nil {
		return ctx
	}
	return context.Background()
}

func isSQLiteBusy(err error) bool {
	if err == nil {
		return false
	}
	var coder interface{ Code() int }
	if errors.As(err, &coder) && coder.Code() == sqliteBusyCode {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}

func retryOnBusy(ctx context.Context, op func() error) error {
	delay := busyRetryInitialBackoff
	var lastErr error
	for attempt := 0; attempt < busyRetryAttempts; attempt++ {
		lastErr = op()
		if lastErr == nil {
			return nil
		}
		if !isSQLiteBusy(lastErr) || attempt == busyRetryAttempts-1 {
			break
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
		if next := delay * 2; next <= busyRetryMaxBackoff {
			delay = next
		}
	}
	return lastErr
}

func (s *SQLiteStore) execWithRetry(ctx context.Context, query string, args ...any) (sql.Result, error) {
	ctx = ensureContext(ctx)
	var (
		res     sql.Result
		execErr error
	)
	if err := retryOnBusy(ctx, func() error {
		res, execErr = s.db.ExecContext(ctx, query, args...)
		return execErr
	}); err != nil {
		return nil, err
	}
	return res, nil
}

// Open initializes or connects to the pedidos database.
func Open(cfg *config.Config) (*SQLiteStore, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}
	return OpenPath(cfg.DatabasePath())
}

// OpenPath opens a pedidos database at an explicit location.
func OpenPath(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &SQLiteStore{db: db, path: dbPath}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}

	return store, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database file location.
func (s *SQLiteStore) Path() string {
	return s.path
}

const pedidoColumns = "id, registration_number, client_order_number, client, priority, print_type, meters, delivery_date, observations, current_stage, current_sub_stage, printing_machine, work_sequence, material_available, cliche_available, cliche_status, antivaho_required, antivaho_done, stage_timeline, history, manual_position, pre_archive_stage, created_at, updated_at"

// Insert persists a new pedido.
func (s *SQLiteStore) Insert(ctx context.Context, pedido *Pedido) error {
	if err := pedido.Validate(); err != nil {
		return err
	}

	sequenceJSON, timelineJSON, historyJSON, err := marshalPedidoJSON(pedido)
	if err != nil {
		return err
	}

	_, err = s.execWithRetry(
		ctx,
		`INSERT INTO pedidos (`+pedidoColumns+`)
         VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		pedido.ID,
		pedido.RegistrationNumber,
		nullableString(pedido.ClientOrderNumber),
		pedido.Client,
		string(pedido.Priority),
		nullableString(pedido.PrintType),
		pedido.Meters,
		nullableTime(pedido.DeliveryDate),
		nullableString(pedido.Observations),
		string(pedido.CurrentStage),
		nullableString(string(pedido.CurrentSubStage)),
		nullableString(string(pedido.PrintingMachine)),
		sequenceJSON,
		boolToInt(pedido.MaterialAvailable),
		boolToInt(pedido.ClicheAvailable),
		nullableString(string(pedido.ClicheStatus)),
		boolToInt(pedido.AntivahoRequired),
		boolToInt(pedido.AntivahoDone),
		timelineJSON,
		historyJSON,
		nullableInt(pedido.ManualPosition),
		nullableString(string(pedido.PreArchiveStage)),
		pedido.CreatedAt.UTC().Format(time.RFC3339Nano),
		pedido.UpdatedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("insert pedido: %w", err)
	}
	return nil
}

// Get fetches a pedido by identifier.
func (s *SQLiteStore) Get(ctx context.Context, id string) (*Pedido, error) {
	row := s.db.QueryRowContext(ensureContext(ctx), `SELECT `+pedidoColumns+` FROM pedidos WHERE id = ?`, id)
	pedido, err := scanPedido(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get pedido: %w", err)
	}
	return pedido, nil
}

// GetByRegistration fetches a pedido by its registration number.
func (s *SQLiteStore) GetByRegistration(ctx context.Context, number string) (*Pedido, error) {
	row := s.db.QueryRowContext(
		ensureContext(ctx),
		`SELECT `+pedidoColumns+` FROM pedidos WHERE registration_number = ? LIMIT 1`,
		strings.TrimSpace(number),
	)
	pedido, err := scanPedido(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get pedido by registration: %w", err)
	}
	return pedido, nil
}

// Update persists changes to an existing pedido.
func (s *SQLiteStore) Update(ctx context.Context, pedido *Pedido) error {
	if pedido == nil {
		return errors.New("pedido is nil")
	}
	if err := pedido.Validate(); err != nil {
		return err
	}
	pedido.UpdatedAt = time.Now().UTC()

	sequenceJSON, timelineJSON, historyJSON, err := marshalPedidoJSON(pedido)
	if err != nil {
		return err
	}

	_, err = s.execWithRetry(
		ctx,
		`UPDATE pedidos
         SET registration_number = ?, client_order_number = ?, client = ?, priority = ?,
             print_type = ?, meters = ?, delivery_date = ?, observations = ?,
             current_stage = ?, current_sub_stage = ?, printing_machine = ?, work_sequence = ?,
             material_available = ?, cliche_available = ?, cliche_status = ?,
             antivaho_required = ?, antivaho_done = ?, stage_timeline = ?, history = ?,
             manual_position = ?, pre_archive_stage = ?, updated_at = ?
         WHERE id = ?`,
		pedido.RegistrationNumber,
		nullableString(pedido.ClientOrderNumber),
		pedido.Client,
		string(pedido.Priority),
		nullableString(pedido.PrintType),
		pedido.Meters,
		nullableTime(pedido.DeliveryDate),
		nullableString(pedido.Observations),
		string(pedido.CurrentStage),
		nullableString(string(pedido.CurrentSubStage)),
		nullableString(string(pedido.PrintingMachine)),
		sequenceJSON,
		boolToInt(pedido.MaterialAvailable),
		boolToInt(pedido.ClicheAvailable),
		nullableString(string(pedido.ClicheStatus)),
		boolToInt(pedido.AntivahoRequired),
		boolToInt(pedido.AntivahoDone),
		timelineJSON,
		historyJSON,
		nullableInt(pedido.ManualPosition),
		nullableString(string(pedido.PreArchiveStage)),
		pedido.UpdatedAt.Format(time.RFC3339Nano),
		pedido.ID,
	)
	if err != nil {
		return fmt.Errorf("update pedido: %w", err)
	}
	return nil
}

// Delete removes a pedido by identifier.
func (s *SQLiteStore) Delete(ctx context.Context, id string) (bool, error) {
	res, err := s.execWithRetry(ctx, `DELETE FROM pedidos WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("delete pedido: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return affected > 0, nil
}

// List returns pedidos filtered by stage set, ordered by creation time.
func (s *SQLiteStore) List(ctx context.Context, stageFilter ...stages.Stage) ([]*Pedido, error) {
	ctx = ensureContext(ctx)
	var (
		rows *sql.Rows
		err  error
	)

	baseQuery := `SELECT ` + pedidoColumns + ` FROM pedidos`
	orderClause := ` ORDER BY created_at`

	if len(stageFilter) == 0 {
		rows, err = s.db.QueryContext(ctx, baseQuery+orderClause)
	} else {
		placeholders := makePlaceholders(len(stageFilter))
		args := make([]any, len(stageFilter))
		for i, stage := range stageFilter {
			args[i] = string(stage)
		}
		query := baseQuery + ` WHERE current_stage IN (` + placeholders + `)` + orderClause
		rows, err = s.db.QueryContext(ctx, query, args...)
	}
	if err != nil {
		return nil, fmt.Errorf("list pedidos: %w", err)
	}
	defer rows.Close()

	var out []*Pedido
	for rows.Next() {
		pedido, err := scanPedido(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, pedido)
	}
	return out, rows.Err()
}

// UpdatePositions applies manual board positions in a single transaction.
func (s *SQLiteStore) UpdatePositions(ctx context.Context, positions map[string]int) error {
	if len(positions) == 0 {
		return nil
	}
	ctx = ensureContext(ctx)

	return retryOnBusy(ctx, func() error {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin positions tx: %w", err)
		}
		defer func() { _ = tx.Rollback() }()

		now := time.Now().UTC().Format(time.RFC3339Nano)
		for id, position := range positions {
			if _, err := tx.ExecContext(
				ctx,
				`UPDATE pedidos SET manual_position = ?, updated_at = ? WHERE id = ?`,
				position, now, id,
			); err != nil {
				return fmt.Errorf("update position for %s: %w", id, err)
			}
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit positions: %w", err)
		}
		return nil
	})
}

// CompletedBefore returns completed pedidos that entered completion before
// the cutoff. Completion time comes from the stage timeline, so the filter
// runs in Go after a stage-scoped query.
func (s *SQLiteStore) CompletedBefore(ctx context.Context, cutoff time.Time) ([]*Pedido, error) {
	completed, err := s.List(ctx, stages.Completed)
	if err != nil {
		return nil, err
	}
	var out []*Pedido
	for _, pedido := range completed {
		entered, ok := pedido.StageEnteredAt()
		if !ok {
			continue
		}
		if entered.Before(cutoff.UTC()) {
			out = append(out, pedido)
		}
	}
	return out, nil
}

// Stats returns a count of pedidos grouped by stage.
func (s *SQLiteStore) Stats(ctx context.Context) (map[stages.Stage]int, error) {
	rows, err := s.db.QueryContext(ensureContext(ctx), `SELECT current_stage, COUNT(1) FROM pedidos GROUP BY current_stage`)
	if err != nil {
		return nil, fmt.Errorf("pedido stats: %w", err)
	}
	defer rows.Close()

	stats := make(map[stages.Stage]int)
	for rows.Next() {
		var stage string
		var count int
		if err := rows.Scan(&stage, &count); err != nil {
			return nil, err
		}
		stats[stages.Stage(stage)] = count
	}
	return stats, rows.Err()
}

// Record appends an audit entry. SQLiteStore doubles as the audit recorder
// so pedido state and its trail share one database.
func (s *SQLiteStore) Record(ctx context.Context, entry audit.Entry) error {
	_, err := s.execWithRetry(
		ctx,
		`INSERT INTO audit_log (pedido_id, occurred_at, actor, action, from_stage, to_stage, detail)
         VALUES (?, ?, ?, ?, ?, ?, ?)`,
		entry.PedidoID,
		entry.OccurredAt.UTC().Format(time.RFC3339Nano),
		entry.Actor,
		entry.Action,
		nullableString(string(entry.FromStage)),
		nullableString(string(entry.ToStage)),
		nullableString(entry.Detail),
	)
	if err != nil {
		return fmt.Errorf("record audit entry: %w", err)
	}
	return nil
}

// ForPedido returns audit entries for a pedido, newest first.
func (s *SQLiteStore) ForPedido(ctx context.Context, pedidoID string, limit int) ([]audit.Entry, error) {
	query := `SELECT id, pedido_id, occurred_at, actor, action, from_stage, to_stage, detail
        FROM audit_log WHERE pedido_id = ? ORDER BY occurred_at DESC, id DESC`
	args := []any{pedidoID}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ensureContext(ctx), query, args...)
	if err != nil {
		return nil, fmt.Errorf("query audit entries: %w", err)
	}
	defer rows.Close()

	var out []audit.Entry
	for rows.Next() {
		var (
			entry       audit.Entry
			occurredRaw string
			fromStage   sql.NullString
			toStage     sql.NullString
			detail      sql.NullString
		)
		if err := rows.Scan(&entry.ID, &entry.PedidoID, &occurredRaw, &entry.Actor, &entry.Action, &fromStage, &toStage, &detail); err != nil {
			return nil, err
		}
		if occurred, err := parseTimeString(occurredRaw); err == nil {
			entry.OccurredAt = occurred
		}
		entry.FromStage = stages.Stage(fromStage.String)
		entry.ToStage = stages.Stage(toStage.String)
		entry.Detail = detail.String
		out = append(out, entry)
	}
	return out, rows.Err()
}

func scanPedido(scanner interface{ Scan(dest ...any) error }) (*Pedido, error) {
	var (
		id              string
		registration    string
		clientOrder     sql.NullString
		client          string
		priority        string
		printType       sql.NullString
		meters          float64
		deliveryRaw     sql.NullString
		observations    sql.NullString
		currentStage    string
		currentSubStage sql.NullString
		printingMachine sql.NullString
		sequenceJSON    string
		material        int
		cliche          int
		clicheStatus    sql.NullString
		antivahoReq     int
		antivahoDone    int
		timelineJSON    string
		historyJSON     string
		manualPosition  sql.NullInt64
		preArchive      sql.NullString
		createdRaw      string
		updatedRaw      string
	)

	if err := scanner.Scan(
		&id,
		&registration,
		&clientOrder,
		&client,
		&priority,
		&printType,
		&meters,
		&deliveryRaw,
		&observations,
		&currentStage,
		&currentSubStage,
		&printingMachine,
		&sequenceJSON,
		&material,
		&cliche,
		&clicheStatus,
		&antivahoReq,
		&antivahoDone,
		&timelineJSON,
		&historyJSON,
		&manualPosition,
		&preArchive,
		&createdRaw,
		&updatedRaw,
	); err != nil {
		return nil, err
	}

	pedido := &Pedido{
		ID:                 id,
		RegistrationNumber: registration,
		ClientOrderNumber:  clientOrder.String,
		Client:             client,
		Priority:           Priority(priority),
		PrintType:          printType.String,
		Meters:             meters,
		Observations:       observations.String,
		CurrentStage:       stages.Stage(currentStage),
		CurrentSubStage:    preparation.SubStage(currentSubStage.String),
		PrintingMachine:    stages.Stage(printingMachine.String),
		MaterialAvailable:  material != 0,
		ClicheAvailable:    cliche != 0,
		ClicheStatus:       preparation.ClicheStatus(clicheStatus.String),
		AntivahoRequired:   antivahoReq != 0,
		AntivahoDone:       antivahoDone != 0,
		PreArchiveStage:    stages.Stage(preArchive.String),
	}

	if err := json.Unmarshal([]byte(sequenceJSON), &pedido.WorkSequence); err != nil {
		return nil, fmt.Errorf("decode work sequence: %w", err)
	}
	if err := json.Unmarshal([]byte(timelineJSON), &pedido.StageTimeline); err != nil {
		return nil, fmt.Errorf("decode stage timeline: %w", err)
	}
	if err := json.Unmarshal([]byte(historyJSON), &pedido.History); err != nil {
		return nil, fmt.Errorf("decode history: %w", err)
	}

	if manualPosition.Valid {
		position := int(manualPosition.Int64)
		pedido.ManualPosition = &position
	}
	if deliveryRaw.Valid {
		if delivery, err := parseTimeString(deliveryRaw.String); err == nil {
			pedido.DeliveryDate = &delivery
		}
	}
	if created, err := parseTimeString(createdRaw); err == nil {
		pedido.CreatedAt = created
	}
	if updated, err := parseTimeString(updatedRaw); err == nil {
		pedido.UpdatedAt = updated
	}
	return pedido, nil
}

func marshalPedidoJSON(pedido *Pedido) (sequence, timeline, history string, err error) {
	workSequence := pedido.WorkSequence
	if workSequence == nil {
		workSequence = []stages.Stage{}
	}
	sequenceBytes, err := json.Marshal(workSequence)
	if err != nil {
		return "", "", "", fmt.Errorf("marshal work sequence: %w", err)
	}

	timelineEntries := pedido.StageTimeline
	if timelineEntries == nil {
		timelineEntries = []StageEntry{}
	}
	timelineBytes, err := json.Marshal(timelineEntries)
	if err != nil {
		return "", "", "", fmt.Errorf("marshal stage timeline: %w", err)
	}

	historyEntries := pedido.History
	if historyEntries == nil {
		historyEntries = []HistoryEntry{}
	}
	historyBytes, err := json.Marshal(historyEntries)
	if err != nil {
		return "", "", "", fmt.Errorf("marshal history: %w", err)
	}

	return string(sequenceBytes), string(timelineBytes), string(historyBytes), nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func nullableTime(value *time.Time) any {
	if value == nil {
		return nil
	}
	return value.UTC().Format(time.RFC3339Nano)
}

func nullableInt(value *int) any {
	if value == nil {
		return nil
	}
	return *value
}

func boolToInt(value bool) int {
	if value {
		return 1
	}
	return 0
}

func parseTimeString(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("empty")
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02 15:04:05", value)
}

func makePlaceholders(count int) string {
	if count <= 0 {
		return ""
	}
	placeholders := make([]byte, 0, count*2)
	for i := 0; i < count; i++ {
		if i > 0 {
			placeholders = append(placeholders, ',')
		}
		placeholders = append(placeholders, '?')
	}
	return string(placeholders)
}
