// Package poller sequences one poll run: list agents, fetch new messages
// per agent, format them, forward them to the knowledge graph, and advance
// the per-agent cursors.
package poller

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/oculair/graphpoll/internal/config"
	"github.com/oculair/graphpoll/internal/format"
	"github.com/oculair/graphpoll/internal/graphiti"
	"github.com/oculair/graphpoll/internal/history"
	"github.com/oculair/graphpoll/internal/letta"
	"github.com/oculair/graphpoll/internal/mirror"
	"github.com/oculair/graphpoll/internal/notify"
	"github.com/oculair/graphpoll/internal/state"
)

// Fetcher is the upstream API surface the poller needs.
type Fetcher interface {
	ListAgents(ctx context.Context) ([]letta.Agent, error)
	AdminUsers(ctx context.Context) (map[string]letta.User, error)
	Messages(ctx context.Context, agentID, after string) ([]letta.RawMessage, error)
}

// Sink receives formatted message batches.
type Sink interface {
	AddMessages(ctx context.Context, groupID string, messages []graphiti.Envelope) error
}

// Summary is the outcome of one run.
type Summary struct {
	RunID           string
	AgentsTotal     int
	AgentsProcessed int
	AgentsExcluded  int
	NewMessages     int
	SendFailures    int
	Duration        time.Duration
}

// Poller drives the run. Agents are processed strictly one after another;
// the cursor map is only touched from that sequential loop.
type Poller struct {
	cfg     *config.Config
	fetcher Fetcher
	sink    Sink
	store   *state.Store

	history  *history.Service
	mirror   *mirror.Publisher
	notifier *notify.Notifier
}

// New creates a poller from its required collaborators.
func New(cfg *config.Config, fetcher Fetcher, sink Sink, store *state.Store) *Poller {
	return &Poller{cfg: cfg, fetcher: fetcher, sink: sink, store: store}
}

// AttachHistory enables run-history recording.
func (p *Poller) AttachHistory(h *history.Service) { p.history = h }

// AttachMirror enables Kafka mirroring of forwarded envelopes.
func (p *Poller) AttachMirror(m *mirror.Publisher) { p.mirror = m }

// AttachNotifier enables the Slack run summary.
func (p *Poller) AttachNotifier(n *notify.Notifier) { p.notifier = n }

// Excluded reports whether an agent's conversations must not be ingested:
// either its ID is in the deny list or its name contains one of the
// excluded patterns, case-insensitively.
func Excluded(agent letta.Agent, excludedIDs, namePatterns []string) bool {
	for _, id := range excludedIDs {
		if agent.ID == id {
			return true
		}
	}
	name := strings.ToLower(agent.Name)
	for _, pattern := range namePatterns {
		if pattern != "" && strings.Contains(name, strings.ToLower(pattern)) {
			return true
		}
	}
	return false
}

// agentSnapshot is the per-agent entry of the diagnostic snapshot file.
type agentSnapshot struct {
	Name              string             `json:"name"`
	Description       string             `json:"description"`
	ProcessedMessages []letta.RawMessage `json:"processed_messages_this_run"`
}

// Run executes one poll pass. Only an agent-directory failure is fatal;
// everything else degrades per agent or per subsystem.
func (p *Poller) Run(ctx context.Context) (*Summary, error) {
	start := time.Now()
	summary := &Summary{RunID: uuid.NewString()}
	slog.Info("Polling for new messages from Letta agents", "run_id", summary.RunID)

	cursors := p.store.Load()

	users, err := p.fetcher.AdminUsers(ctx)
	if err != nil {
		slog.Warn("Admin user lookup failed, user names will not be resolved", "error", err)
		users = map[string]letta.User{}
	} else if len(users) == 0 {
		slog.Warn("Admin user map is empty, user names might not be resolved")
	}

	agents, err := p.fetcher.ListAgents(ctx)
	if err != nil {
		return nil, fmt.Errorf("list agents: %w", err)
	}
	summary.AgentsTotal = len(agents)

	snapshot := make(map[string]agentSnapshot)
	var results []history.AgentResult

	for i, agent := range agents {
		if Excluded(agent, p.cfg.Graphiti.ExcludedAgentIDs, p.cfg.Poller.ExcludedNamePatterns) {
			slog.Info("Skipping excluded agent",
				"agent", agent.DisplayName(), "agent_id", agent.ID, "position", fmt.Sprintf("%d/%d", i+1, len(agents)))
			summary.AgentsExcluded++
			results = append(results, history.AgentResult{
				RunID: summary.RunID, AgentID: agent.ID, AgentName: agent.DisplayName(),
				Status: history.StatusExcluded,
			})
			continue
		}

		slog.Info("Polling agent",
			"agent", agent.DisplayName(), "agent_id", agent.ID, "position", fmt.Sprintf("%d/%d", i+1, len(agents)))
		result, processed := p.pollAgent(ctx, summary, agent, users, cursors)
		results = append(results, result)
		summary.AgentsProcessed++
		snapshot[agent.ID] = agentSnapshot{
			Name:              agent.DisplayName(),
			Description:       agent.Description,
			ProcessedMessages: processed,
		}
	}

	p.store.Save(cursors)
	p.writeSnapshot(snapshot)
	summary.Duration = time.Since(start)
	p.recordHistory(start, summary, results)
	p.notifyRun(ctx, summary)

	slog.Info("Run complete",
		"run_id", summary.RunID,
		"agents", summary.AgentsProcessed,
		"new_messages", summary.NewMessages,
		"send_failures", summary.SendFailures,
		"duration", summary.Duration.Truncate(time.Millisecond))
	return summary, nil
}

// pollAgent fetches, formats, and forwards one agent's new messages, and
// advances the agent's cursor entry in place.
func (p *Poller) pollAgent(
	ctx context.Context,
	summary *Summary,
	agent letta.Agent,
	users map[string]letta.User,
	cursors map[string]string,
) (history.AgentResult, []letta.RawMessage) {
	result := history.AgentResult{
		RunID:        summary.RunID,
		AgentID:      agent.ID,
		AgentName:    agent.DisplayName(),
		CursorBefore: cursors[agent.ID],
	}

	lastID := cursors[agent.ID]
	if lastID != "" {
		slog.Debug("Resuming from stored cursor", "agent_id", agent.ID, "cursor", lastID)
	} else {
		slog.Debug("No prior polling state for agent", "agent_id", agent.ID)
	}

	fetched, err := p.fetcher.Messages(ctx, agent.ID, lastID)
	if err != nil {
		// Treated as "no new messages"; the run moves on to the next agent.
		slog.Error("Error retrieving messages", "agent_id", agent.ID, "error", err)
		result.Status = history.StatusNoNewData
		result.ErrorText = err.Error()
		result.CursorAfter = lastID
		return result, nil
	}
	result.Fetched = len(fetched)
	if len(fetched) == 0 {
		slog.Info("No new messages", "agent", agent.DisplayName())
		result.Status = history.StatusNoNewData
		result.CursorAfter = lastID
		return result, nil
	}
	slog.Info("Found messages", "agent", agent.DisplayName(), "count", len(fetched))

	var envelopes []graphiti.Envelope
	var processed []letta.RawMessage
	newest := ""
	for _, msg := range fetched {
		// Second line of defense against inclusive pagination boundaries
		// and the 404 replay: never re-forward the message the cursor
		// already points at.
		if lastID != "" && msg.ID == lastID {
			slog.Info("Skipping already processed message", "message_id", msg.ID)
			continue
		}

		env, err := format.Format(msg, users)
		switch {
		case err == nil:
			envelopes = append(envelopes, *env)
			processed = append(processed, msg)
		case errors.Is(err, format.ErrSkippedType),
			errors.Is(err, format.ErrEmptyContent),
			errors.Is(err, letta.ErrUnsupportedType):
			slog.Info("Skipping message", "agent_id", agent.ID, "reason", err)
		default:
			slog.Warn("Dropping message", "agent_id", agent.ID, "error", err)
		}

		if msg.ID > newest {
			newest = msg.ID
		}
	}
	result.Forwarded = len(envelopes)
	summary.NewMessages += len(envelopes)

	result.Status = history.StatusSent
	if len(envelopes) > 0 {
		if err := p.sink.AddMessages(ctx, agent.ID, envelopes); err != nil {
			slog.Error("Failed to send messages to Graphiti", "agent", agent.DisplayName(), "error", err)
			summary.SendFailures++
			result.Status = history.StatusSendFailed
			result.ErrorText = err.Error()
		} else {
			slog.Info("Sent messages to Graphiti", "agent", agent.DisplayName(), "count", len(envelopes))
			p.mirrorBatch(ctx, summary.RunID, agent.ID, envelopes)
		}
	} else {
		result.Status = history.StatusNoNewData
	}

	// The cursor advances to the newest fetched ID even when the send
	// failed: failed batches are not retried on the next run. Observed
	// upstream behavior, preserved deliberately; the history store keeps
	// the failure visible.
	if newest != "" {
		slog.Info("Updating cursor", "agent", agent.DisplayName(), "cursor", newest)
		cursors[agent.ID] = newest
	}
	result.CursorAfter = cursors[agent.ID]
	return result, processed
}

func (p *Poller) mirrorBatch(ctx context.Context, runID, agentID string, envelopes []graphiti.Envelope) {
	if p.mirror == nil {
		return
	}
	if err := p.mirror.Publish(ctx, runID, agentID, envelopes); err != nil {
		slog.Warn("Mirror publish failed", "agent_id", agentID, "error", err)
	}
}

// writeSnapshot overwrites the diagnostic snapshot of everything processed
// this run. Purely informational.
func (p *Poller) writeSnapshot(snapshot map[string]agentSnapshot) {
	path := p.cfg.Poller.SnapshotFile
	if path == "" {
		return
	}
	data, err := json.MarshalIndent(snapshot, "", "    ")
	if err != nil {
		slog.Error("Error encoding agent snapshot", "error", err)
		return
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		slog.Error("Error saving agent snapshot", "path", path, "error", err)
		return
	}
	slog.Info("Saved agent snapshot", "path", path)
}

func (p *Poller) recordHistory(start time.Time, summary *Summary, results []history.AgentResult) {
	if p.history == nil {
		return
	}
	run := &history.RunRecord{
		RunID:             summary.RunID,
		StartedAt:         start,
		FinishedAt:        start.Add(summary.Duration),
		AgentsTotal:       summary.AgentsTotal,
		AgentsExcluded:    summary.AgentsExcluded,
		MessagesForwarded: summary.NewMessages,
		SendFailures:      summary.SendFailures,
	}
	if err := p.history.RecordRun(run); err != nil {
		slog.Warn("Failed to record run history", "error", err)
		return
	}
	for i := range results {
		if err := p.history.RecordAgentResult(&results[i]); err != nil {
			slog.Warn("Failed to record agent result", "agent_id", results[i].AgentID, "error", err)
		}
	}
}

func (p *Poller) notifyRun(ctx context.Context, summary *Summary) {
	if p.notifier == nil {
		return
	}
	err := p.notifier.Notify(ctx, notify.Summary{
		RunID:          summary.RunID,
		AgentsTotal:    summary.AgentsTotal,
		AgentsExcluded: summary.AgentsExcluded,
		NewMessages:    summary.NewMessages,
		SendFailures:   summary.SendFailures,
		Duration:       summary.Duration,
	})
	if err != nil {
		slog.Warn("Slack notification failed", "error", err)
	}
}
