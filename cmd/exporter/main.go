package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"

	_ "github.com/go-sql-driver/mysql"
	_ "modernc.org/sqlite"

	"github.com/igorvan/omniscan/pkg/config"
	"github.com/igorvan/omniscan/pkg/database"
	"github.com/igorvan/omniscan/pkg/entries"
	"github.com/igorvan/omniscan/pkg/export"
	"github.com/igorvan/omniscan/pkg/logging"
	"github.com/igorvan/omniscan/pkg/ui"
)

func main() {
	if err := run(); err != nil {
		if !errors.Is(err, export.ErrEmptyCollection) {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}

func run() error {
	fs := flag.NewFlagSet("exporter", flag.ExitOnError)
	clearAll := fs.Bool("clear", false, "Erase all scanned data instead of exporting it")
	cfg, err := config.Load(fs, os.Args[1:])
	if err != nil {
		return err
	}
	logger := logging.New(os.Stderr, cfg.LogFormat, cfg.LogLevel)
	ctx := context.Background()

	kv, err := database.Connect(ctx, cfg.StoreDriver, cfg.StoreDSN, logger)
	if err != nil {
		return err
	}
	defer kv.Close()

	store, err := entries.New(kv)
	if err != nil {
		return err
	}
	console := ui.NewConsole(os.Stdout, os.Stdin)

	if *clearAll {
		cleared, err := store.Clear(ctx, console)
		if err != nil {
			return fmt.Errorf("cannot clear scanned data: %w", err)
		}
		if cleared {
			console.RenderEntries(nil)
		}
		return nil
	}

	exporter, err := export.New(store, console, logger)
	if err != nil {
		return err
	}
	name, err := exporter.Export(ctx, export.DirDownloader{Dir: cfg.ExportDir})
	if err != nil {
		if errors.Is(err, export.ErrEmptyCollection) {
			return err
		}
		return fmt.Errorf("export failed: %w", err)
	}
	fmt.Println(name)
	return nil
}
