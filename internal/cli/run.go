package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/oculair/graphpoll/internal/config"
	"github.com/oculair/graphpoll/internal/graphiti"
	"github.com/oculair/graphpoll/internal/history"
	"github.com/oculair/graphpoll/internal/letta"
	"github.com/oculair/graphpoll/internal/mirror"
	"github.com/oculair/graphpoll/internal/notify"
	"github.com/oculair/graphpoll/internal/poller"
	"github.com/oculair/graphpoll/internal/state"
)

var runInterval time.Duration

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Poll Letta agents and forward new messages to Graphiti",
	RunE:  runPoll,
}

func init() {
	runCmd.Flags().DurationVar(&runInterval, "interval", 0,
		"Repeat the poll on this interval until interrupted (0 = run once)")
}

func runPoll(cmd *cobra.Command, args []string) error {
	cmd.SilenceUsage = true

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.SlogLevel(),
	})))

	lettaClient := letta.NewClient(cfg.Letta)
	sink := graphiti.NewClient(cfg.Graphiti.Endpoint, cfg.Graphiti.Timeout)
	store := state.NewStore(cfg.Poller.StateFile)
	p := poller.New(cfg, lettaClient, sink, store)

	if cfg.HistoryEnabled() {
		h, err := history.NewService(cfg.History.Path)
		if err != nil {
			slog.Warn("Run history disabled", "path", cfg.History.Path, "error", err)
		} else {
			defer h.Close()
			p.AttachHistory(h)
		}
	}
	if cfg.MirrorEnabled() {
		m := mirror.NewPublisher(cfg.Mirror.Brokers, cfg.Mirror.Topic)
		defer m.Close()
		p.AttachMirror(m)
	}
	if cfg.NotifyEnabled() {
		p.AttachNotifier(notify.New(cfg.Notify.Token, cfg.Notify.Channel))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	summary, err := p.Run(ctx)
	if err != nil {
		return err
	}
	printSummary(summary)

	if runInterval <= 0 {
		return nil
	}
	slog.Info("Polling on interval", "interval", runInterval)
	ticker := time.NewTicker(runInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			slog.Info("Interrupted, stopping")
			return nil
		case <-ticker.C:
			summary, err := p.Run(ctx)
			if err != nil {
				slog.Error("Run failed", "error", err)
				continue
			}
			printSummary(summary)
		}
	}
}

func printSummary(s *poller.Summary) {
	fmt.Println()
	fmt.Printf("%s processed %d agents with %d new messages in %s.\n",
		color.GreenString("Summary:"), s.AgentsProcessed, s.NewMessages, s.Duration.Truncate(time.Millisecond))
	if s.AgentsExcluded > 0 {
		fmt.Printf("Excluded %d of %d agents.\n", s.AgentsExcluded, s.AgentsTotal)
	}
	if s.SendFailures > 0 {
		fmt.Println(color.RedString("Send failures: %d (batches were not retried)", s.SendFailures))
	}
}
