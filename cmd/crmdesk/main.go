package main

import (
	"context"
	stdlog "log"
	"net/http"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"crmdesk/internal/api"
	"crmdesk/internal/config"
	"crmdesk/internal/notify"
	"crmdesk/internal/session"
	"crmdesk/internal/storage"
	"crmdesk/internal/ui"
)

func main() {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		stdlog.Fatalf("load config: %v", err)
	}

	dataDir, err := config.DataDir()
	if err != nil {
		stdlog.Fatalf("resolve data dir: %v", err)
	}

	// The TUI owns stdout, so logs go to a file next to the database.
	logFile, err := os.OpenFile(filepath.Join(dataDir, "crmdesk.log"), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		stdlog.Fatalf("open log file: %v", err)
	}
	defer logFile.Close()

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	log := zerolog.New(logFile).Level(level).With().Timestamp().Logger()

	db, err := storage.Open(ctx, dataDir)
	if err != nil {
		stdlog.Fatalf("open storage: %v", err)
	}
	defer db.Close()

	sess := session.NewManager(ctx, cfg.BaseURL, &http.Client{Timeout: cfg.HTTPTimeout}, db, log)
	client := api.NewClient(cfg.BaseURL, sess, cfg.HTTPTimeout, log)
	resources := api.NewResources(client)

	var listener *notify.Listener
	if cfg.WSURL != "" {
		listener = notify.NewListener(cfg.WSURL, sess, log)
	}

	program := ui.NewProgram(ui.Deps{
		Session:   sess,
		Resources: resources,
		Store:     db,
		Listener:  listener,
	})
	if err := program.Start(); err != nil {
		log.Error().Err(err).Msg("program terminated")
		stdlog.Println("program terminated:", err)
		os.Exit(1)
	}
}
