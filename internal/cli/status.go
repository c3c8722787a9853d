package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/oculair/graphpoll/internal/config"
	"github.com/oculair/graphpoll/internal/history"
	"github.com/oculair/graphpoll/internal/state"
)

var statusRuns int

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show poller configuration and recent runs",
	RunE:  runStatus,
}

func init() {
	statusCmd.Flags().IntVar(&statusRuns, "runs", 5, "Number of recent runs to show")
}

func runStatus(cmd *cobra.Command, args []string) error {
	cmd.SilenceUsage = true
	printHeader("📊 graphpoll Status")

	cfg, err := config.LoadLenient()
	if err != nil {
		return err
	}

	if cfg.Letta.BaseURL != "" {
		fmt.Printf("Letta:    ✓ %s\n", cfg.Letta.BaseURL)
	} else {
		fmt.Println("Letta:    ✗ LETTA_BASE_URL not set")
	}
	if cfg.Letta.Password != "" {
		fmt.Println("Secret:   ✓ Found")
	} else {
		fmt.Println("Secret:   ✗ LETTA_PASSWORD not set")
	}
	fmt.Printf("Graphiti: %s\n", cfg.Graphiti.Endpoint)

	cursors := state.NewStore(cfg.Poller.StateFile).Load()
	if _, err := os.Stat(cfg.Poller.StateFile); err == nil {
		fmt.Printf("State:    ✓ %s (%d agent cursors)\n", cfg.Poller.StateFile, len(cursors))
	} else {
		fmt.Printf("State:    ✗ Not found (%s)\n", cfg.Poller.StateFile)
	}

	if cfg.MirrorEnabled() {
		fmt.Printf("Mirror:   ✓ Kafka %s topic %s\n", cfg.Mirror.Brokers, cfg.Mirror.Topic)
	} else {
		fmt.Println("Mirror:   ✗ Disabled")
	}
	if cfg.NotifyEnabled() {
		fmt.Printf("Slack:    ✓ Channel %s\n", cfg.Notify.Channel)
	} else {
		fmt.Println("Slack:    ✗ Disabled")
	}

	if !cfg.HistoryEnabled() {
		fmt.Println("History:  ✗ Disabled (set GRAPHPOLL_HISTORY_PATH)")
		return nil
	}
	h, err := history.NewService(cfg.History.Path)
	if err != nil {
		fmt.Printf("History:  ✗ %v\n", err)
		return nil
	}
	defer h.Close()
	runs, err := h.RecentRuns(statusRuns)
	if err != nil {
		fmt.Printf("History:  ✗ %v\n", err)
		return nil
	}
	fmt.Printf("History:  ✓ %s (%d recent runs)\n", cfg.History.Path, len(runs))
	for _, r := range runs {
		fmt.Printf("  %s  %s  agents=%d excluded=%d forwarded=%d failures=%d\n",
			r.StartedAt.Format(time.RFC3339), shortID(r.RunID),
			r.AgentsTotal, r.AgentsExcluded, r.MessagesForwarded, r.SendFailures)
	}
	return nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
