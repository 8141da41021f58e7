package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/okian/linotype/internal/adapters/oracle"
	"github.com/okian/linotype/internal/adapters/repository"
	"github.com/okian/linotype/internal/app"
	"github.com/okian/linotype/internal/config"
	"github.com/okian/linotype/internal/domain/consensus"
	"github.com/okian/linotype/internal/domain/dedupe"
	"github.com/okian/linotype/internal/domain/layout"
	"github.com/okian/linotype/pkg/logger"
	"github.com/okian/linotype/pkg/metrics"
)

// Metrics server timeout constants.
const (
	metricsReadTimeout       = 10 * time.Second
	metricsWriteTimeout      = 10 * time.Second
	metricsReadHeaderTimeout = 5 * time.Second
)

var runFlags struct {
	count  int
	roster string
	out    string
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Execute one pipeline session end to end",
	Long: `Run one full session: discover topics, select one by voter
consensus, research, write, chart, gate and publish.

Configuration is read from LINOTYPE_CONFIG (YAML) and LINOTYPE_*
environment variables; flags override both.`,
	Args: cobra.NoArgs,
	RunE: runPipeline,
}

func init() {
	f := runCmd.Flags()
	f.IntVar(&runFlags.count, "count", 0, "Number of candidate topics to discover")
	f.StringVar(&runFlags.roster, "roster", "", "Path to YAML voter roster")
	f.StringVar(&runFlags.out, "out", "", "Root directory for published artifacts")
}

func runPipeline(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	applyFlags(cfg)

	if err := logger.Init(cfg.LogFormat, os.Stderr); err != nil {
		return fmt.Errorf("initialize logging: %w", err)
	}
	log := logger.Get()
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	if cfg.MetricsAddr != "" {
		go serveMetrics(ctx, log, cfg.MetricsAddr)
	}

	o, err := oracle.New(oracle.Config{
		Provider: cfg.OracleProvider,
		Model:    cfg.OracleModel,
		BaseURL:  cfg.OracleBaseURL,
		APIKey:   cfg.OracleAPIKey,
	})
	if err != nil {
		return fmt.Errorf("build oracle: %w", err)
	}

	policy := oracle.Policy{
		MaxAttempts: cfg.RetryMaxAttempts,
		BaseDelay:   time.Duration(cfg.RetryBaseDelayMS) * time.Millisecond,
		MaxDelay:    time.Duration(cfg.RetryMaxDelayMS) * time.Millisecond,
		CallTimeout: time.Duration(cfg.CallTimeoutMS) * time.Millisecond,
	}

	voters := consensus.DefaultVoters()
	if cfg.VoterRosterPath != "" {
		voters, err = consensus.LoadRoster(cfg.VoterRosterPath)
		if err != nil {
			return fmt.Errorf("load voter roster: %w", err)
		}
	}

	engine, err := layout.NewEngine(
		layout.WithCanvasSize(cfg.CanvasWidth, cfg.CanvasHeight),
		layout.WithNudgeBudget(layout.DefaultNudgeStep, cfg.NudgeBudget),
	)
	if err != nil {
		return fmt.Errorf("build layout engine: %w", err)
	}

	pipeline, err := app.New(
		o,
		repository.NewFileSessionStore(cfg.SessionsDir),
		repository.NewFileQuarantine(cfg.QuarantineDir),
		repository.NewFilePublisher(cfg.PublishedDir),
		app.WithRetryPolicy(policy),
		app.WithVoters(voters),
		app.WithSelector(consensus.NewSelector(o,
			consensus.WithRetryPolicy(policy),
			consensus.WithQuorumFraction(cfg.QuorumFraction),
		)),
		app.WithLayoutEngine(engine),
		app.WithDeduper(dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(cfg.DedupeSize))),
		app.WithTopicCount(cfg.TopicCount),
		app.WithLogger(log.Named("pipeline")),
	)
	if err != nil {
		return fmt.Errorf("build pipeline: %w", err)
	}

	outcome, err := pipeline.Run(ctx)
	if err != nil {
		return err
	}

	switch {
	case outcome.PublishRef != nil:
		fmt.Fprintf(cmd.OutOrStdout(), "published %s\n  article: %s\n  chart:   %s\n",
			outcome.Session.ID, outcome.PublishRef.ArticlePath, outcome.PublishRef.ChartImagePath)
	default:
		fmt.Fprintf(cmd.OutOrStdout(), "quarantined %s\n  record: %s\n",
			outcome.Session.ID, outcome.QuarantineRef)
	}
	return nil
}

// applyFlags lets command-line flags override loaded configuration.
func applyFlags(cfg *config.Config) {
	if runFlags.count > 0 {
		cfg.TopicCount = runFlags.count
	}
	if runFlags.roster != "" {
		cfg.VoterRosterPath = runFlags.roster
	}
	if runFlags.out != "" {
		cfg.PublishedDir = runFlags.out
	}
}

func serveMetrics(ctx context.Context, log logger.Logger, addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadTimeout:       metricsReadTimeout,
		WriteTimeout:      metricsWriteTimeout,
		ReadHeaderTimeout: metricsReadHeaderTimeout,
	}
	go func() {
		<-ctx.Done()
		_ = srv.Close()
	}()
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Warn(ctx, "metrics server stopped", logger.Error(err))
	}
}
