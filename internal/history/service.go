// Package history records poll runs in a local sqlite database so past
// runs stay inspectable after the console output is gone.
package history

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// Terminal per-agent statuses, matching the poller's state machine.
const (
	StatusExcluded   = "excluded"
	StatusNoNewData  = "no-new-data"
	StatusSent       = "sent"
	StatusSendFailed = "send-failed"
)

// RunRecord is one poll run.
type RunRecord struct {
	RunID             string
	StartedAt         time.Time
	FinishedAt        time.Time
	AgentsTotal       int
	AgentsExcluded    int
	MessagesForwarded int
	SendFailures      int
}

// AgentResult is the outcome for one agent within a run.
type AgentResult struct {
	RunID        string
	AgentID      string
	AgentName    string
	Status       string
	Fetched      int
	Forwarded    int
	CursorBefore string
	CursorAfter  string
	ErrorText    string
}

// Service is the sqlite-backed run-history store.
type Service struct {
	db *sql.DB
}

// NewService opens (or creates) the history database at dbPath.
func NewService(dbPath string) (*Service, error) {
	db, err := sql.Open("sqlite", "file:"+dbPath+"?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("failed to open history db: %w", err)
	}
	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}
	return &Service{db: db}, nil
}

// Close closes the database.
func (s *Service) Close() error { return s.db.Close() }

// RecordRun upserts the run row.
func (s *Service) RecordRun(run *RunRecord) error {
	_, err := s.db.Exec(`
		INSERT INTO runs (run_id, started_at, finished_at, agents_total, agents_excluded, messages_forwarded, send_failures)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(run_id) DO UPDATE SET
			finished_at = excluded.finished_at,
			agents_total = excluded.agents_total,
			agents_excluded = excluded.agents_excluded,
			messages_forwarded = excluded.messages_forwarded,
			send_failures = excluded.send_failures`,
		run.RunID, run.StartedAt, run.FinishedAt,
		run.AgentsTotal, run.AgentsExcluded, run.MessagesForwarded, run.SendFailures,
	)
	if err != nil {
		return fmt.Errorf("record run %s: %w", run.RunID, err)
	}
	return nil
}

// RecordAgentResult appends one agent outcome row.
func (s *Service) RecordAgentResult(res *AgentResult) error {
	_, err := s.db.Exec(`
		INSERT INTO agent_results (run_id, agent_id, agent_name, status, fetched, forwarded, cursor_before, cursor_after, error_text)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		res.RunID, res.AgentID, res.AgentName, res.Status,
		res.Fetched, res.Forwarded, res.CursorBefore, res.CursorAfter, res.ErrorText,
	)
	if err != nil {
		return fmt.Errorf("record agent result %s/%s: %w", res.RunID, res.AgentID, err)
	}
	return nil
}

// RecentRuns returns the newest runs, most recent first.
func (s *Service) RecentRuns(limit int) ([]RunRecord, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := s.db.Query(`
		SELECT run_id, started_at, finished_at, agents_total, agents_excluded, messages_forwarded, send_failures
		FROM runs ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("recent runs: %w", err)
	}
	defer rows.Close()

	var runs []RunRecord
	for rows.Next() {
		var r RunRecord
		if err := rows.Scan(&r.RunID, &r.StartedAt, &r.FinishedAt,
			&r.AgentsTotal, &r.AgentsExcluded, &r.MessagesForwarded, &r.SendFailures); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// AgentResults returns all agent outcomes for one run.
func (s *Service) AgentResults(runID string) ([]AgentResult, error) {
	rows, err := s.db.Query(`
		SELECT run_id, agent_id, agent_name, status, fetched, forwarded, cursor_before, cursor_after, error_text
		FROM agent_results WHERE run_id = ? ORDER BY id`, runID)
	if err != nil {
		return nil, fmt.Errorf("agent results for %s: %w", runID, err)
	}
	defer rows.Close()

	var results []AgentResult
	for rows.Next() {
		var r AgentResult
		if err := rows.Scan(&r.RunID, &r.AgentID, &r.AgentName, &r.Status,
			&r.Fetched, &r.Forwarded, &r.CursorBefore, &r.CursorAfter, &r.ErrorText); err != nil {
			return nil, fmt.Errorf("scan agent result: %w", err)
		}
		results = append(results, r)
	}
	return results, rows.Err()
}
