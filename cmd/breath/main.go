// Copyright (c) 2025 BreathAI
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package main is the breath command: an interactive terminal client
// for the BreathAI chat gateway.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/breathai/breath/internal/api"
	"github.com/breathai/breath/internal/chat"
	"github.com/breathai/breath/internal/cli"
	"github.com/breathai/breath/internal/config"
	"github.com/breathai/breath/internal/logging"
	"github.com/breathai/breath/internal/model"
	"github.com/breathai/breath/internal/storage"
)

const version = "1.0.0"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "breath: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		debug       = flag.Bool("debug", false, "enable debug logging to stderr")
		modelFlag   = flag.String("model", "", "model to use (overrides the saved selection)")
		noRestore   = flag.Bool("no-restore", false, "start with an empty conversation")
		showVersion = flag.Bool("version", false, "print version and exit")
	)
	flag.Parse()

	if *showVersion {
		fmt.Printf("breath v%s\n", version)
		return nil
	}

	// A .env file is a convenience for development; absence is fine.
	godotenv.Load()

	logger, err := logging.New(logging.Options{Debug: *debug})
	if err != nil {
		return err
	}
	defer logger.Sync()

	settings, err := config.Load()
	if err != nil {
		return err
	}

	dbPath, err := storage.DefaultPath()
	if err != nil {
		return err
	}
	db, err := storage.Open(dbPath)
	if err != nil {
		return err
	}
	defer db.Close()

	client := api.NewClient(settings.APIKey,
		api.WithEndpoint(settings.APIEndpoint),
		api.WithLogger(logger))

	store := chat.New(client, db, settings, logger)
	if *noRestore {
		store.ClearMessages()
	} else if err := store.Load(); err != nil {
		logger.Warn("could not restore conversation", zap.Error(err))
	}

	if *modelFlag != "" {
		store.SetCurrentModel(*modelFlag)
	} else if store.CurrentModel() == "" {
		store.SetCurrentModel(model.DefaultModel)
	}

	// Pick up settings edits while the session runs.
	cfgPath, err := config.Path()
	if err == nil {
		watcher, werr := config.Watch(cfgPath, logger, func(updated *config.Settings) {
			store.UpdateSettings(updated)
		})
		if werr != nil {
			logger.Warn("settings watcher unavailable", zap.Error(werr))
		} else {
			defer watcher.Close()
		}
	}

	session := cli.NewSession(store, logger)
	return session.Run(context.Background())
}
