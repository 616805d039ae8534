package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ErrRunNotFound is returned when a run identifier has no ledger row.
var ErrRunNotFound = errors.New("run not found")

const runColumns = "id, mode, roots_json, dry_run, status, started_at, finished_at, total, patched, unchanged, skipped, failed, not_attempted, planned, error_message"

// BeginRun inserts a running ledger row and returns it with a fresh UUID.
func (s *Store) BeginRun(ctx context.Context, mode Mode, roots []string, dryRun bool) (*Run, error) {
	if roots == nil {
		roots = []string{}
	}
	rootsJSON, err := json.Marshal(roots)
	if err != nil {
		return nil, fmt.Errorf("marshal roots: %w", err)
	}
	run := &Run{
		ID:        uuid.NewString(),
		Mode:      mode,
		Roots:     append([]string(nil), roots...),
		DryRun:    dryRun,
		Status:    RunRunning,
		StartedAt: time.Now().UTC(),
	}
	_, err = s.exec(ctx,
		`INSERT INTO runs (id, mode, roots_json, dry_run, status, started_at) VALUES (?, ?, ?, ?, ?, ?)`,
		run.ID,
		string(run.Mode),
		string(rootsJSON),
		boolToInt(dryRun),
		string(run.Status),
		run.StartedAt.Format(timestampLayout),
	)
	if err != nil {
		return nil, fmt.Errorf("insert run: %w", err)
	}
	return run, nil
}

// RecordResult appends a per-entry outcome to a run.
func (s *Store) RecordResult(ctx context.Context, result Result) error {
	if result.RunID == "" {
		return errors.New("record result: run id is required")
	}
	if result.RecordedAt.IsZero() {
		result.RecordedAt = time.Now().UTC()
	}
	_, err := s.exec(ctx,
		`INSERT INTO results (run_id, sidecar, media, pattern, status, message, recorded_at) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		result.RunID,
		result.Sidecar,
		nullableString(result.Media),
		nullableString(result.Pattern),
		result.Status,
		nullableString(result.Message),
		result.RecordedAt.UTC().Format(timestampLayout),
	)
	if err != nil {
		return fmt.Errorf("insert result: %w", err)
	}
	return nil
}

// FinishRun stamps the terminal status and totals on a run.
func (s *Store) FinishRun(ctx context.Context, runID string, status RunStatus, totals Totals, runErr error) error {
	finished := time.Now().UTC()
	message := ""
	if runErr != nil {
		message = runErr.Error()
	}
	res, err := s.exec(ctx,
		`UPDATE runs
         SET status = ?, finished_at = ?, total = ?, patched = ?, unchanged = ?, skipped = ?,
             failed = ?, not_attempted = ?, planned = ?, error_message = ?
         WHERE id = ?`,
		string(status),
		nullableTime(&finished),
		totals.Total,
		totals.Patched,
		totals.Unchanged,
		totals.Skipped,
		totals.Failed,
		totals.NotAttempted,
		totals.Planned,
		nullableString(message),
		runID,
	)
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return fmt.Errorf("finish run %s: %w", runID, ErrRunNotFound)
	}
	return nil
}

// GetRun fetches a run by full identifier or unique prefix.
func (s *Store) GetRun(ctx context.Context, idOrPrefix string) (*Run, error) {
	ctx = ensureContext(ctx)
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+runColumns+` FROM runs WHERE id = ? OR id LIKE ? ORDER BY started_at DESC, rowid DESC LIMIT 2`,
		idOrPrefix, idOrPrefix+"%",
	)
	if err != nil {
		return nil, fmt.Errorf("get run: %w", err)
	}
	defer rows.Close()

	var matches []*Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		if run.ID == idOrPrefix {
			return run, nil
		}
		matches = append(matches, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	switch len(matches) {
	case 0:
		return nil, fmt.Errorf("%s: %w", idOrPrefix, ErrRunNotFound)
	case 1:
		return matches[0], nil
	default:
		return nil, fmt.Errorf("run prefix %q is ambiguous", idOrPrefix)
	}
}

// ListRuns returns the most recent runs, newest first. A limit <= 0 returns all runs.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	ctx = ensureContext(ctx)
	query := `SELECT ` + runColumns + ` FROM runs ORDER BY started_at DESC, rowid DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

// RunResults returns the recorded outcomes of a run in insertion order.
func (s *Store) RunResults(ctx context.Context, runID string) ([]Result, error) {
	ctx = ensureContext(ctx)
	rows, err := s.db.QueryContext(ctx,
		`SELECT run_id, sidecar, media, pattern, status, message, recorded_at FROM results WHERE run_id = ? ORDER BY id`,
		runID,
	)
	if err != nil {
		return nil, fmt.Errorf("list results: %w", err)
	}
	defer rows.Close()

	var results []Result
	for rows.Next() {
		var (
			result   Result
			media    sql.NullString
			pattern  sql.NullString
			message  sql.NullString
			recorded sql.NullString
		)
		if err := rows.Scan(&result.RunID, &result.Sidecar, &media, &pattern, &result.Status, &message, &recorded); err != nil {
			return nil, fmt.Errorf("scan result: %w", err)
		}
		result.Media = media.String
		result.Pattern = pattern.String
		result.Message = message.String
		if ts := parseTime(recorded); ts != nil {
			result.RecordedAt = *ts
		}
		results = append(results, result)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate results: %w", err)
	}
	return results, nil
}

// Prune deletes all but the newest keep runs. Results cascade. A keep <= 0
// leaves the ledger untouched.
func (s *Store) Prune(ctx context.Context, keep int) (int64, error) {
	if keep <= 0 {
		return 0, nil
	}
	res, err := s.exec(ctx,
		`DELETE FROM runs WHERE id NOT IN (SELECT id FROM runs ORDER BY started_at DESC, rowid DESC LIMIT ?)`,
		keep,
	)
	if err != nil {
		return 0, fmt.Errorf("prune runs: %w", err)
	}
	removed, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("prune rows affected: %w", err)
	}
	return removed, nil
}

func scanRun(scanner interface{ Scan(dest ...any) error }) (*Run, error) {
	var (
		run       Run
		mode      string
		rootsJSON string
		dryRun    int64
		status    string
		started   sql.NullString
		finished  sql.NullString
		errMsg    sql.NullString
	)
	if err := scanner.Scan(
		&run.ID,
		&mode,
		&rootsJSON,
		&dryRun,
		&status,
		&started,
		&finished,
		&run.Totals.Total,
		&run.Totals.Patched,
		&run.Totals.Unchanged,
		&run.Totals.Skipped,
		&run.Totals.Failed,
		&run.Totals.NotAttempted,
		&run.Totals.Planned,
		&errMsg,
	); err != nil {
		return nil, fmt.Errorf("scan run: %w", err)
	}
	run.Mode = Mode(mode)
	run.Status = RunStatus(status)
	run.DryRun = dryRun != 0
	run.ErrorMessage = errMsg.String
	if err := json.Unmarshal([]byte(rootsJSON), &run.Roots); err != nil {
		return nil, fmt.Errorf("decode roots for run %s: %w", run.ID, err)
	}
	if ts := parseTime(started); ts != nil {
		run.StartedAt = *ts
	}
	run.FinishedAt = parseTime(finished)
	return &run, nil
}

func boolToInt(value bool) int {
	if value {
		return 1
	}
	return 0
}
