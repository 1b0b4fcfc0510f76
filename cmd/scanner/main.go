package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cloud.google.com/go/pubsub"
	_ "github.com/go-sql-driver/mysql"
	_ "modernc.org/sqlite"

	"github.com/igorvan/omniscan/pkg/api"
	"github.com/igorvan/omniscan/pkg/camera"
	"github.com/igorvan/omniscan/pkg/config"
	"github.com/igorvan/omniscan/pkg/database"
	"github.com/igorvan/omniscan/pkg/decode"
	"github.com/igorvan/omniscan/pkg/entries"
	"github.com/igorvan/omniscan/pkg/export"
	"github.com/igorvan/omniscan/pkg/logging"
	"github.com/igorvan/omniscan/pkg/processing"
	"github.com/igorvan/omniscan/pkg/session"
	"github.com/igorvan/omniscan/pkg/station"
	"github.com/igorvan/omniscan/pkg/ui"
)

const shutdownTimeout = 5 * time.Second

func main() {
	cfg, err := config.Load(flag.NewFlagSet("scanner", flag.ExitOnError), os.Args[1:])
	if err != nil {
		panic(err)
	}
	logger := logging.New(os.Stdout, cfg.LogFormat, cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	kv, err := database.Connect(ctx, cfg.StoreDriver, cfg.StoreDSN, logger)
	if err != nil {
		panic(err)
	}
	defer kv.Close()

	client, err := pubsub.NewClient(ctx, cfg.ProjectID)
	if err != nil {
		panic(err)
	}
	defer client.Close()

	decoder, err := station.New(client, cfg.TopicPrefix, cfg.SubscriptionPrefix, logger)
	if err != nil {
		panic(err)
	}
	bridge, err := decode.New(decoder, logger)
	if err != nil {
		panic(err)
	}

	state := session.New()
	hub := ui.NewHub(logger)
	view := ui.Multi{hub, ui.NewConsole(os.Stdout, nil)}

	store, err := entries.New(kv)
	if err != nil {
		panic(err)
	}
	exporter, err := export.New(store, view, logger)
	if err != nil {
		panic(err)
	}
	dispatcher, err := processing.New(store, view, view, state, logger)
	if err != nil {
		panic(err)
	}
	cameras, err := camera.New(bridge, kv, view, state, logger)
	if err != nil {
		panic(err)
	}
	srv, err := api.New(api.Deps{
		Entries:   store,
		Exporter:  exporter,
		Cameras:   cameras,
		Refresher: dispatcher,
		Live:      hub,
		Log:       logger,
	})
	if err != nil {
		panic(err)
	}

	go hub.Run(ctx)
	go func() {
		if err := dispatcher.Run(ctx, bridge.Events()); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error(fmt.Sprintf("dispatcher stopped: %s", err))
		}
	}()

	if err := dispatcher.Refresh(ctx); err != nil {
		logger.Error(fmt.Sprintf("cannot render stored scans: %s", err))
	}
	// camera failures are shown on the status indicator, POST /api/cameras/init retries
	if err := cameras.Init(ctx); err != nil {
		logger.Error(fmt.Sprintf("camera initialization failed: %s", err))
	}

	httpSrv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           srv.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := cameras.Stop(shutdownCtx); err != nil {
			logger.Error(fmt.Sprintf("cannot stop capture: %s", err))
		}
		bridge.Close()
		_ = httpSrv.Shutdown(shutdownCtx)
	}()

	logger.Info(fmt.Sprintf("Scanner API listening on %s", cfg.HTTPAddr))
	if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		panic(err)
	}
}
