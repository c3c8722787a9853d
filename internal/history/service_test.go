package history

import (
	"path/filepath"
	"testing"
	"time"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	svc, err := NewService(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatalf("NewService failed: %v", err)
	}
	t.Cleanup(func() { svc.Close() })
	return svc
}

func TestService_RecordAndReadRun(t *testing.T) {
	svc := newTestService(t)
	started := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

	run := &RunRecord{
		RunID:             "run-1",
		StartedAt:         started,
		FinishedAt:        started.Add(3 * time.Second),
		AgentsTotal:       5,
		AgentsExcluded:    1,
		MessagesForwarded: 12,
		SendFailures:      1,
	}
	if err := svc.RecordRun(run); err != nil {
		t.Fatalf("RecordRun failed: %v", err)
	}

	runs, err := svc.RecentRuns(10)
	if err != nil {
		t.Fatalf("RecentRuns failed: %v", err)
	}
	if len(runs) != 1 {
		t.Fatalf("expected 1 run, got %d", len(runs))
	}
	got := runs[0]
	if got.RunID != "run-1" || got.AgentsTotal != 5 || got.MessagesForwarded != 12 || got.SendFailures != 1 {
		t.Errorf("unexpected run record: %+v", got)
	}
}

func TestService_RecordRunUpsert(t *testing.T) {
	svc := newTestService(t)
	started := time.Now().UTC()

	run := &RunRecord{RunID: "run-1", StartedAt: started, FinishedAt: started}
	if err := svc.RecordRun(run); err != nil {
		t.Fatalf("RecordRun failed: %v", err)
	}
	run.MessagesForwarded = 7
	if err := svc.RecordRun(run); err != nil {
		t.Fatalf("RecordRun upsert failed: %v", err)
	}

	runs, err := svc.RecentRuns(10)
	if err != nil {
		t.Fatalf("RecentRuns failed: %v", err)
	}
	if len(runs) != 1 {
		t.Fatalf("expected a single upserted row, got %d", len(runs))
	}
	if runs[0].MessagesForwarded != 7 {
		t.Errorf("expected updated counter, got %d", runs[0].MessagesForwarded)
	}
}

func TestService_AgentResults(t *testing.T) {
	svc := newTestService(t)

	results := []AgentResult{
		{RunID: "run-1", AgentID: "agent-1", AgentName: "Meridian", Status: StatusSent, Fetched: 4, Forwarded: 3, CursorBefore: "message-001", CursorAfter: "message-004"},
		{RunID: "run-1", AgentID: "agent-2", AgentName: "BMO-sleeptime", Status: StatusExcluded},
		{RunID: "run-1", AgentID: "agent-3", AgentName: "Explorer", Status: StatusSendFailed, Fetched: 2, Forwarded: 2, ErrorText: "status 500"},
	}
	for i := range results {
		if err := svc.RecordAgentResult(&results[i]); err != nil {
			t.Fatalf("RecordAgentResult failed: %v", err)
		}
	}

	got, err := svc.AgentResults("run-1")
	if err != nil {
		t.Fatalf("AgentResults failed: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 results, got %d", len(got))
	}
	if got[0].Status != StatusSent || got[0].CursorAfter != "message-004" {
		t.Errorf("unexpected first result: %+v", got[0])
	}
	if got[2].Status != StatusSendFailed || got[2].ErrorText == "" {
		t.Errorf("unexpected failed result: %+v", got[2])
	}
}
