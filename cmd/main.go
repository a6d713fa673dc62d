package main

import (
	"chatwav/auth"
	"chatwav/infrastructure/api"
	"chatwav/infrastructure/grpc/server"
	"chatwav/infrastructure/ws"
	"chatwav/internal"
	"chatwav/observability"
	"chatwav/repositories"
	"chatwav/runtime"
	"chatwav/runtime/workers"
	"chatwav/services"
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Netflix/go-env"
	"github.com/dgraph-io/badger/v4"
	"github.com/joho/godotenv"
	"github.com/mama165/sdk-go/logs"
)

// Exit codes reported to the service manager.
const (
	exitOK      = 0
	exitRuntime = 1
	exitConfig  = 2
)

func main() {
	code, err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "chatwav terminated with error: %v\n", err)
	}
	os.Exit(code)
}

// run wires every component and blocks until a signal is received.
// Deferred cleanups run before main exits.
func run() (int, error) {
	// 1. Configuration & Logger
	_ = godotenv.Load()
	var config internal.Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return exitConfig, fmt.Errorf("config error: %w", err)
	}
	if err := config.Validate(); err != nil {
		return exitConfig, fmt.Errorf("config error: %w", err)
	}
	logger := logs.GetLoggerFromString(config.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 2. Database (BadgerDB)
	db, err := badger.Open(buildBadgerOpts(config, logger, ctx))
	if err != nil {
		return exitRuntime, fmt.Errorf("database opening failed: %w", err)
	}
	defer func() {
		logger.Info("Closing BadgerDB...")
		_ = db.Close()
	}()

	// 3. Stores & services
	userRepository := repositories.NewUserRepository(db)
	roomRepository := repositories.NewRoomRepository(db)
	messageRepository := repositories.NewMessageRepository(db, logger)
	tokens := auth.NewTokenIssuer(config.JWTSecret, config.AuthTokenDuration)

	authService := services.NewAuthService(logger, userRepository, tokens)
	roomService := services.NewRoomService(logger, roomRepository, messageRepository)
	messageService := services.NewMessageService(roomRepository, messageRepository, config.PageSize)

	// 4. Hub
	registry := runtime.NewRegistry()
	presence := runtime.NewPresence()
	hub := runtime.NewHub(logger, tokens, roomRepository, messageRepository, roomRepository,
		registry, presence, config.StoreTimeout, config.SinkTimeout)

	// 5. HTTP router (REST + websocket)
	origins := ws.NewOriginPolicy(logger, config.ClientURL)
	router := api.Router{
		Log:       logger,
		Verifier:  tokens,
		Auth:      api.NewAuthHandler(logger, authService),
		Rooms:     api.NewRoomHandler(logger, roomService),
		Messages:  api.NewMessageHandler(logger, messageService),
		Websocket: ws.NewHandler(ctx, logger, hub, origins, config.ConnectionBufferSize, config.MaxMessageSize),
		Origins:   origins,
	}
	monitoring := observability.NewMonitoringManager(logger, func() (int, int) {
		return registry.Len(), len(presence.OnlineUsers())
	})
	if logger.Enabled(ctx, slog.LevelDebug) {
		router.Inspector = internal.NewInspector(logger, db, func() map[string]any {
			monitoring.Refresh()
			return monitoring.AsMap()
		})
		logger.Info("Debug Badger inspector available",
			"url", fmt.Sprintf("http://%s/debug/inspect", config.HTTPAddress()))
	}
	httpServer := &http.Server{
		Addr:              config.HTTPAddress(),
		Handler:           router.Build(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	// 6. gRPC health
	grpcServer, healthServer := server.NewHealthServer(logger)

	// 7. Supervision, blocks until ctx is canceled
	sup := workers.NewSupervisor(logger, config.RestartInterval)
	sup.Add(
		workers.NewHTTPServerWorker(logger, httpServer, config.ShutdownTimeout),
		workers.NewGRPCServerWorker(logger, grpcServer, healthServer, config.GRPCAddress()),
		workers.NewBadgerGCWorker(logger, db, config.GCInterval),
		workers.NewHeartbeatWorker(logger, monitoring, config.HeartbeatInterval),
	)
	logger.Info("chatwav started", "http", config.HTTPAddress(), "grpc", config.GRPCAddress())
	sup.Run(ctx)

	logger.Info("Program stopped cleanly")
	return exitOK, nil
}

func buildBadgerOpts(config internal.Config, logger *slog.Logger, ctx context.Context) badger.Options {
	options := badger.DefaultOptions(config.BadgerFilepath)

	if logger.Enabled(ctx, slog.LevelDebug) {
		options = options.WithLoggingLevel(badger.DEBUG)
	} else {
		options = options.WithLoggingLevel(badger.WARNING)
	}

	return options
}
