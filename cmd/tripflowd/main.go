// Command tripflowd serves the travel-planning workflow over HTTP.
package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmallory/tripflow/internal/agent"
	"github.com/jmallory/tripflow/internal/llm"
	"github.com/jmallory/tripflow/internal/server"
	"github.com/jmallory/tripflow/internal/settings"
	"github.com/jmallory/tripflow/internal/tools"
	"github.com/jmallory/tripflow/internal/trip"
	"github.com/jmallory/tripflow/pkg/flow/journal"
	"github.com/jmallory/tripflow/pkg/flow/observability"
)

func main() {
	configPath := flag.String("config", "tripflow.yaml", "path to the configuration file")
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	if err := run(*configPath, logger); err != nil {
		logger.Error("fatal", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run(configPath string, logger *slog.Logger) error {
	cfg, err := settings.Load(configPath)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	logger.Info("settings loaded and validated")

	client := llm.NewGeminiClient(cfg.GeminiAPIKey,
		llm.WithModel(cfg.GeminiModel),
		llm.WithGeminiLogger(logger),
	)

	var amadeus *tools.AmadeusClient
	if cfg.AmadeusConfigured() {
		amadeus = tools.NewAmadeusClient(cfg.AmadeusClientID, cfg.AmadeusClientSecret,
			tools.WithAmadeusLogger(logger))
		logger.Info("amadeus client initialized")
	} else {
		logger.Warn("amadeus credentials not found, flight and hotel search will run degraded")
	}

	emailTool := tools.NewEmailTool(tools.SMTPConfig{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Sender:   cfg.SenderEmail,
		Password: cfg.SMTPPassword,
	}, tools.WithEmailLogger(logger))
	if !cfg.EmailConfigured() {
		logger.Warn("email credentials not found, email delivery will be skipped")
	}

	executor := agent.NewExecutor(client, []agent.Tool{
		tools.NewFlightSearchTool(amadeus),
		tools.NewHotelSearchTool(amadeus),
		tools.NewWebSearchTool(cfg.SerpAPIKey),
		tools.NewCalendarTool(logger),
		emailTool,
	}, agent.WithLogger(logger))

	steps := trip.NewSteps(client, executor, trip.WithEmailSender(emailTool))

	graph, err := trip.BuildGraph(steps)
	if err != nil {
		return err
	}

	plannerOpts := []trip.PlannerOption{
		trip.WithPlannerLogger(logger),
		trip.WithPlannerMetrics(observability.NewMetricsRecorder()),
	}
	if cfg.JournalPath != "" {
		store, err := journal.NewSQLiteStore(cfg.JournalPath)
		if err != nil {
			return err
		}
		defer store.Close()
		plannerOpts = append(plannerOpts, trip.WithJournalStore(store))
		logger.Info("run journaling enabled", slog.String("path", cfg.JournalPath))
	}

	planner := trip.NewPlanner(graph, plannerOpts...)

	srv := &http.Server{
		Addr:         cfg.ListenAddr,
		Handler:      server.New(planner, server.WithLogger(logger)).Handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 0, // streaming responses have no bounded duration
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", slog.String("addr", cfg.ListenAddr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-stop:
		logger.Info("shutting down", slog.String("signal", sig.String()))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
