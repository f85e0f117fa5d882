package main

import (
	"buddychat/domain"
	"buddychat/internal"
	"buddychat/repositories"
	"buddychat/runtime"
	"buddychat/search"
	"context"
	"fmt"
	"os"
	"time"

	"github.com/Netflix/go-env"
	"github.com/dgraph-io/badger/v4"
	"github.com/joho/godotenv"
	"github.com/mama165/sdk-go/logs"
)

// reindex rebuilds the fan-out index, and the search index when it lives on disk,
// from the message store. It must run while the server is stopped.
func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "reindex failed: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	_ = godotenv.Load()
	var config internal.Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	log := logs.GetLoggerFromString(config.LogLevel)

	db, err := badger.Open(badger.DefaultOptions(config.BadgerFilepath).WithLoggingLevel(badger.WARNING))
	if err != nil {
		return fmt.Errorf("database opening failed: %w", err)
	}
	defer func() { _ = db.Close() }()

	ctx := context.Background()
	store := repositories.NewMessageRepository(db, log)
	feed := repositories.NewFeedRepository(db, log)

	start := time.Now()
	report, err := runtime.NewReindexer(log, store, feed).Rebuild(ctx)
	if err != nil {
		return err
	}
	log.Info("Fan-out index rebuilt", "messages", report.Messages, "appended", report.Appended, "dangling", report.Dangling, "took", time.Since(start))

	if config.BlugeFilepath == "" {
		return nil
	}
	index, err := search.Open(config.BlugeFilepath, log)
	if err != nil {
		return err
	}
	defer func() { _ = index.Close() }()

	indexed := 0
	err = store.Scan(ctx, func(m domain.Message) error {
		indexed++
		return index.IndexMessage(ctx, m)
	})
	if err != nil {
		return err
	}
	log.Info("Search index rebuilt", "messages", indexed)
	return nil
}
