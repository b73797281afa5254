package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/jobsparser/jobsparser/internal/api"
	"github.com/jobsparser/jobsparser/internal/config"
	"github.com/jobsparser/jobsparser/internal/fetcher"
	"github.com/jobsparser/jobsparser/internal/fetcher/linkedin"
	"github.com/jobsparser/jobsparser/internal/fetcher/ziprecruiter"
	"github.com/jobsparser/jobsparser/internal/logging"
	"github.com/jobsparser/jobsparser/internal/orchestrator"
	"github.com/jobsparser/jobsparser/internal/progress"
	"github.com/jobsparser/jobsparser/internal/progress/sinks"
	"github.com/jobsparser/jobsparser/internal/proxy"
	"github.com/jobsparser/jobsparser/internal/ratelimit"
	"github.com/jobsparser/jobsparser/internal/scraper"
	"github.com/jobsparser/jobsparser/internal/sink"
)

func newScrapeCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scrape",
		Short: "Run a concurrent job search and save the results",
		Long: `Fetches job postings from every configured site in parallel until each
site reaches the requested result count or runs out of postings, then
writes the merged results to a CSV file (and optionally Postgres).`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runScrape(cmd, v)
		},
	}

	flags := cmd.Flags()
	flags.String("search-term", "", "job search query (required)")
	flags.String("location", "", "job search location (required)")
	flags.StringSlice("site", []string{"linkedin"}, "sites to search, repeatable")
	flags.Int("results-wanted", 100, "results wanted per site")
	flags.Int("distance", 25, "search radius")
	flags.String("job-type", "fulltime", "fulltime, parttime, contract, or internship")
	flags.String("country", "UK", "country for the search")
	flags.Bool("fetch-description", true, "fetch full job descriptions (slower)")
	flags.StringSlice("proxies", nil, "proxies in user:pass@host:port format, repeatable")
	flags.Int("batch-size", 30, "results to request per fetch")
	flags.Int("sleep-time", 100, "seconds to wait between fetches")
	flags.Int("max-retries", 3, "retries per batch before giving up on a site")
	flags.Int("hours-old", 0, "only include jobs posted within this many hours")
	flags.StringSlice("experience-levels", nil, "experience levels to filter by, repeatable")
	flags.String("output-dir", "data", "directory for CSV output")
	flags.String("db-dsn", "", "optional Postgres DSN to also store results")
	flags.Bool("metrics", false, "serve Prometheus metrics during the run")
	flags.String("metrics-addr", ":9090", "metrics listen address")

	bindings := map[string]string{
		"search.term":              "search-term",
		"search.location":          "location",
		"search.distance":          "distance",
		"search.job_type":          "job-type",
		"search.country":           "country",
		"search.fetch_description": "fetch-description",
		"search.proxies":           "proxies",
		"search.hours_old":         "hours-old",
		"search.experience_levels": "experience-levels",
		"session.sites":            "site",
		"session.results_wanted":   "results-wanted",
		"session.batch_size":       "batch-size",
		"session.sleep_seconds":    "sleep-time",
		"session.max_retries":      "max-retries",
		"output.dir":               "output-dir",
		"db.dsn":                   "db-dsn",
		"metrics.enabled":          "metrics",
		"metrics.addr":             "metrics-addr",
	}
	for key, flag := range bindings {
		cobra.CheckErr(v.BindPFlag(key, flags.Lookup(flag)))
	}

	return cmd
}

func runScrape(cmd *cobra.Command, v *viper.Viper) error {
	cfg, err := config.Load(v, cfgFile)
	if err != nil {
		return err
	}

	level := zapcore.InfoLevel
	if verbose {
		level = zapcore.DebugLevel
	}
	logger, err := logging.New(cfg.Logging.Development, level)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	session, err := cfg.SessionConfig()
	if err != nil {
		return err
	}
	params, err := cfg.ScrapeParams()
	if err != nil {
		return err
	}

	rotator, err := proxy.NewRotator(params.Proxies)
	if err != nil {
		return fmt.Errorf("%w: %v", scraper.ErrConfiguration, err)
	}
	limiter := ratelimit.New(ratelimit.Config{})

	providers := fetcher.NewRegistry(map[scraper.Site]scraper.Fetcher{
		scraper.SiteLinkedIn:     linkedin.New(linkedin.Config{}, rotator, limiter, logger),
		scraper.SiteZipRecruiter: ziprecruiter.New(ziprecruiter.Config{}, rotator, limiter, logger),
	})
	for _, site := range session.Sites {
		if !providers.Supports(site) {
			return fmt.Errorf("%w: site %q is not supported yet (available: %v)",
				scraper.ErrConfiguration, site, providers.Sites())
		}
	}

	progressSinks := []progress.Sink{sinks.NewLogSink(logger)}

	var metricsSrv *api.Server
	if cfg.Metrics.Enabled {
		promRegistry := prometheus.NewRegistry()
		promSink, err := sinks.NewPrometheusSink(promRegistry)
		if err != nil {
			return fmt.Errorf("init metrics: %w", err)
		}
		progressSinks = append(progressSinks, promSink)
		metricsSrv = api.New(cfg.Metrics.Addr, promRegistry, logger)
		go func() {
			if err := metricsSrv.Start(); err != nil {
				logger.Error("metrics server failed", zap.Error(err))
			}
		}()
	}

	hub := progress.NewHub(progress.Config{Logger: logger}, progressSinks...)

	orch := orchestrator.New(providers, hub, nil, logger)
	result, runErr := orch.Run(ctx, session, params)

	closeCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := hub.Close(closeCtx); err != nil {
		logger.Warn("progress hub close failed", zap.Error(err))
	}
	if metricsSrv != nil {
		if err := metricsSrv.Shutdown(closeCtx); err != nil {
			logger.Warn("metrics shutdown failed", zap.Error(err))
		}
	}
	if runErr != nil {
		return runErr
	}

	summary := result.Summarize()
	logger.Info("scrape run finished",
		zap.String("run_id", result.RunID),
		zap.Int("records", summary.RecordsCollected),
		zap.Int("sites", summary.SitesProcessed),
		zap.Int("exhausted", summary.SitesExhausted),
		zap.Int("gave_up", summary.SitesGaveUp),
		zap.Int("failed", summary.SitesFailed),
	)

	return exportResults(ctx, cfg, result, logger)
}

// exportResults writes the aggregate to CSV and, when a DSN is configured,
// Postgres. The CSV write happens first so a database outage never loses the
// scraped data.
func exportResults(ctx context.Context, cfg config.Config, result scraper.AggregatedResult, logger *zap.Logger) error {
	csvSink, err := sink.NewCSVSink(cfg.Output.Dir, logger)
	if err != nil {
		return err
	}
	if err := csvSink.Export(ctx, result); err != nil {
		return fmt.Errorf("export csv: %w", err)
	}

	if cfg.DB.DSN != "" {
		pg, err := sink.NewPostgresSink(ctx, sink.PostgresConfig{DSN: cfg.DB.DSN})
		if err != nil {
			return fmt.Errorf("init postgres sink: %w", err)
		}
		defer pg.Close()
		if err := pg.Export(ctx, result); err != nil {
			return fmt.Errorf("export postgres: %w", err)
		}
		logger.Info("results stored in postgres", zap.Int("records", len(result.Records)))
	}
	return nil
}
