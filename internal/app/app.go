package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"osdashboard/internal/config"
	"osdashboard/internal/fetch"
	"osdashboard/internal/httpx"
	"osdashboard/internal/integrations/osapi"
	slackbot "osdashboard/internal/integrations/slack"
	"osdashboard/internal/report"
	"osdashboard/internal/scheduler"
	"osdashboard/internal/server"
	"osdashboard/internal/session"
	"osdashboard/internal/storage"
	"osdashboard/internal/storage/gormdb"
	"osdashboard/internal/storage/sqlite"
)

const shutdownTimeout = 10 * time.Second

var (
	_ storage.Gateway = (*sqlite.Store)(nil)
	_ storage.Gateway = (*gormdb.Store)(nil)
)

func Main() {
	cfg := config.LoadConfig()
	appliedHTTPTimeout := httpx.ConfigureExternalHTTPClient(cfg.ExternalHTTPTimeoutSeconds)
	log.Printf(
		"Config loaded. API=%s Driver=%s Interval=%s Schedule=%q Autostart=%t PersistDetails=%t Timezone=%s ExternalHTTPTimeout=%s",
		cfg.APIBaseURL,
		cfg.DBDriver,
		cfg.RefreshInterval(),
		cfg.RefreshSchedule,
		cfg.SchedulerAutostart,
		cfg.ShouldPersistDetails(),
		cfg.Timezone,
		appliedHTTPTimeout,
	)

	store, err := openStore(cfg)
	if err != nil {
		log.Fatalf("Failed to init database: %v", err)
	}
	defer store.Close()

	if cfg.ReportOutputDir != "" {
		if err := os.MkdirAll(cfg.ReportOutputDir, 0755); err != nil {
			log.Fatalf("Failed to create report output dir: %v", err)
		}
		log.Printf("Report output dir: %s", cfg.ReportOutputDir)
	}

	client := osapi.NewClient(cfg.APIBaseURL, httpx.ExternalHTTPClient(), osapi.Options{
		AuthTimeout:   cfg.AuthTimeout(),
		FetchTimeout:  cfg.FetchTimeout(),
		DetailTimeout: cfg.DetailTimeout(),
		DetailDelay:   cfg.DetailDelay(),
		ProgressEvery: cfg.DetailProgressEvery,
	})

	state := session.New()
	pipeline := fetch.NewPipeline(cfg, client, store, state)
	views := report.NewService(state, store, cfg.Location)

	var notifier cycleNotifier
	if cfg.SlackConfigured() {
		notifier = slackbot.NewNotifier(cfg.SlackBotToken, cfg.ReportChannelID)
		log.Printf("Slack notifications enabled for channel %s", cfg.ReportChannelID)
	}

	job := newCycleJob(pipeline, views, notifier, cfg.ReportOutputDir, cfg.Location)
	sched := scheduler.New(cfg.Schedule(), job, state)
	if cfg.SchedulerAutostart {
		if cfg.CredentialsConfigured() {
			sched.Start()
			log.Printf("Scheduler started")
		} else {
			log.Printf("WARNING: scheduler_autostart ignored, credentials are not configured")
		}
	}

	handler := server.NewHandler(views, pipeline, sched, state, cfg.CredentialsConfigured())
	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: server.NewRouter(handler),
	}

	go func() {
		log.Printf("Starting work order dashboard on %s", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("HTTP server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down...")

	sched.Stop()
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("HTTP server shutdown error: %v", err)
	}
}

func openStore(cfg config.Config) (storage.Gateway, error) {
	switch cfg.DBDriver {
	case config.DriverSQLite:
		store, err := sqlite.InitDB(cfg.DBPath)
		if err != nil {
			return nil, err
		}
		log.Printf("Database initialized at %s", cfg.DBPath)
		return store, nil
	case config.DriverGormSQLite:
		store, err := gormdb.OpenSQLite(cfg.DBPath)
		if err != nil {
			return nil, err
		}
		log.Printf("Database initialized at %s (gorm)", cfg.DBPath)
		return store, nil
	case config.DriverPostgres:
		store, err := gormdb.OpenPostgres(cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		log.Printf("Database initialized on postgres")
		return store, nil
	default:
		return nil, fmt.Errorf("unknown db driver %q", cfg.DBDriver)
	}
}
