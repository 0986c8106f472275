package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/jaminalder/codex-arcade/internal/app"
	"github.com/jaminalder/codex-arcade/internal/storage"
	"github.com/jaminalder/codex-arcade/internal/web"
)

func main() {
	addr := flag.String("addr", ":8080", "listen address")
	dataDir := flag.String("data", "./data", "snapshot directory")
	levelStr := flag.String("log-level", "info", "debug|info|warn|error")
	logJSON := flag.Bool("log-json", false, "emit JSON logs")
	flag.Parse()

	log := logrus.New()
	if *logJSON {
		log.SetFormatter(&logrus.JSONFormatter{})
	}
	lvl, err := logrus.ParseLevel(strings.ToLower(*levelStr))
	if err != nil {
		lvl = logrus.InfoLevel
	}
	log.SetLevel(lvl)

	if err := os.MkdirAll(*dataDir, 0o755); err != nil {
		log.WithError(err).Fatal("creating data directory")
	}

	svc := app.NewService(app.WithStore(storage.NewFS(*dataDir)))
	srv := &http.Server{
		Addr:              *addr,
		Handler:           web.NewServer(svc, log),
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		log.WithFields(logrus.Fields{"addr": *addr, "data": *dataDir}).Info("listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("server error")
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("shutdown")
	}
}
