package main

import (
	"buddychat/auth"
	"buddychat/domain"
	grpcserver "buddychat/infrastructure/grpc/server"
	httpserver "buddychat/infrastructure/http"
	"buddychat/infrastructure/ws"
	"buddychat/internal"
	"buddychat/observability"
	pb "buddychat/proto/chat"
	"buddychat/repositories"
	"buddychat/runtime"
	"buddychat/runtime/workers"
	"buddychat/search"
	"buddychat/services"
	"buddychat/sink"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Netflix/go-env"
	"github.com/dgraph-io/badger/v4"
	"github.com/mama165/sdk-go/database"
	sdkgrpc "github.com/mama165/sdk-go/grpc"
	"github.com/mama165/sdk-go/logs"
	"google.golang.org/grpc"
)

// Exit codes to provide meaningful status to the operating system or service manager (e.g., systemd).
const (
	exitOK      = 0
	exitRuntime = 1
	exitConfig  = 2
)

const inspectEndpoint = "/inspect"

func main() {
	code, err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "buddychat terminated with error: %v\n", err)
	}
	os.Exit(code)
}

// run wires every component, serves gRPC and HTTP until a signal arrives,
// then shuts down in reverse order so deferred closes run before exit.
func run() (int, error) {
	// 1. Configuration & Logger
	var config internal.Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return exitConfig, fmt.Errorf("config error: %w", err)
	}
	runtimeConfig, err := config.Runtime()
	if err != nil {
		return exitConfig, err
	}
	tokens, err := auth.NewTokens(config.AuthSecret)
	if err != nil {
		return exitConfig, err
	}
	log := logs.GetLoggerFromString(config.LogLevel)
	filter, err := config.PayloadFilter(log)
	if err != nil {
		return exitConfig, err
	}

	ctx := context.Background()

	// 2. Database (BadgerDB) & search index (Bluge)
	db, err := badger.Open(buildBadgerOpts(config, log, ctx))
	if err != nil {
		return exitRuntime, fmt.Errorf("database opening failed: %w", err)
	}
	defer func() {
		log.Info("Closing BadgerDB...")
		_ = db.Close()
	}()

	if log.Enabled(ctx, slog.LevelDebug) {
		log.Debug("Starting badger inspector", "port", config.DebugPort, "endpoint", inspectEndpoint)
		database.StartDebugServer(db, config.DebugPort, inspectEndpoint, repositories.InspectMapper)
	}

	index, err := search.Open(config.BlugeFilepath, log)
	if err != nil {
		return exitRuntime, err
	}
	defer func() {
		log.Info("Closing Bluge...")
		_ = index.Close()
	}()

	messageRepository := repositories.NewMessageRepository(db, log)
	feedRepository := repositories.NewFeedRepository(db, log)
	outboxRepository := repositories.NewOutboxRepository(db, log)
	blockRepository := repositories.NewBlockRepository(db, log)

	if config.BlugeFilepath == "" {
		if err := backfillIndex(ctx, messageRepository, index); err != nil {
			return exitRuntime, fmt.Errorf("search backfill failed: %w", err)
		}
	}

	// 3. Supervision & Orchestration
	clock := runtime.NewMonotonicClock()
	monitoring := observability.NewMonitoringManager(log)
	supervisor := workers.NewSupervisor(log).WithRestartDelay(config.RestartInterval)
	orchestrator := runtime.NewOrchestrator(log, supervisor, runtime.NewRegistry(),
		messageRepository, outboxRepository, feedRepository, blockRepository,
		clock, monitoring, runtimeConfig,
	).WithModeration(filter).WithSearch(index)
	orchestrator.Add(sink.NewSearchSink(index, log), sink.NewMetricsSink())

	chatService := services.NewChatService(orchestrator)
	relationService := services.NewRelationService(log, blockRepository, blockRepository, clock)

	// 4. Context & Signals
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errChan := make(chan error, 3)

	// 5. Start the Engine
	go func() {
		log.Info("Starting orchestrator...")
		if err := orchestrator.Start(ctx); err != nil {
			errChan <- fmt.Errorf("orchestrator error: %w", err)
		}
	}()

	// 6. gRPC Server Setup
	address := fmt.Sprintf("%s:%d", config.Host, config.Port)
	listener, err := net.Listen("tcp", address)
	if err != nil {
		return exitRuntime, fmt.Errorf("failed to listen on %s: %w", address, err)
	}

	s := grpc.NewServer(
		grpc.ChainUnaryInterceptor(
			sdkgrpc.UnaryLoggingInterceptor(log),
			tokens.UnaryInterceptor(),
		),
		grpc.ChainStreamInterceptor(tokens.StreamInterceptor()),
	)
	pb.RegisterChatServiceServer(s, grpcserver.NewChatServer(log, chatService))
	pb.RegisterRelationServiceServer(s, grpcserver.NewRelationServer(relationService))

	go func() {
		log.Info("Starting gRPC server", "address", address, "at", time.Now().UTC())
		for serviceName := range s.GetServiceInfo() {
			log.Debug("gRPC exposed services", "name", serviceName)
		}
		if err := s.Serve(listener); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			errChan <- fmt.Errorf("gRPC server error: %w", err)
		}
	}()

	// 7. HTTP Server Setup (health, metrics, WebSocket)
	ready := func(context.Context) error {
		if db.IsClosed() {
			return errors.New("badger is closed")
		}
		return nil
	}
	httpServer := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", config.Host, config.HTTPPort),
		Handler:           httpserver.NewRouter(log, ready, monitoring, ws.NewHandler(log, tokens, chatService)),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		log.Info("Starting HTTP server", "address", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	// 8. Wait for Stop or Error
	select {
	case <-ctx.Done():
		log.Info("Shutdown signal received")
	case err := <-errChan:
		orchestrator.Stop()
		s.Stop()
		return exitRuntime, err
	}

	// 9. Final Cleanup (Graceful Shutdown)
	// Subscriptions are closed first so their streams return and GracefulStop can drain.
	log.Info("Shutting down gracefully...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), config.ShutdownTimeout)
	defer cancel()
	orchestrator.Stop()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Warn("HTTP server shutdown", "error", err)
	}
	gracefulStop(shutdownCtx, s)
	log.Info("Program stopped cleanly")

	return exitOK, nil
}

func buildBadgerOpts(config internal.Config, log *slog.Logger, ctx context.Context) badger.Options {
	options := badger.DefaultOptions(config.BadgerFilepath).WithSyncWrites(config.SyncWrites)
	if log.Enabled(ctx, slog.LevelDebug) {
		return options.WithLoggingLevel(badger.DEBUG)
	}
	return options.WithLoggingLevel(badger.WARNING)
}

// backfillIndex fills an in-memory search index from the message store.
func backfillIndex(ctx context.Context, store repositories.MessageRepository, index *search.Index) error {
	return store.Scan(ctx, func(m domain.Message) error {
		return index.IndexMessage(ctx, m)
	})
}

func gracefulStop(ctx context.Context, s *grpc.Server) {
	done := make(chan struct{})
	go func() {
		s.GracefulStop()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		s.Stop()
	}
}
