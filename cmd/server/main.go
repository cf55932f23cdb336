package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"flag"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"google.golang.org/grpc"
	"google.golang.org/grpc/keepalive"

	"github.com/thraizz/uno-server-go/internal/auth"
	"github.com/thraizz/uno-server-go/internal/config"
	"github.com/thraizz/uno-server-go/internal/repository"
	"github.com/thraizz/uno-server-go/internal/server"
	"github.com/thraizz/uno-server-go/internal/session"
)

var (
	configPath = flag.String("config", "config/config.yaml", "path to configuration file")
	version    = "dev" // set via ldflags during build
)

func main() {
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := initLogger(cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("starting UNO server",
		zap.String("version", version),
		zap.String("config", *configPath),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	results, err := repository.Open(ctx, cfg.Database, logger)
	if err != nil {
		logger.Fatal("failed to open result store", zap.Error(err))
	}
	defer results.Close()
	logger.Info("result store initialized", zap.String("driver", cfg.Database.Driver))

	secret := cfg.Auth.TokenSecret
	if secret == "" {
		secret = randomSecret()
		logger.Warn("auth.token_secret not configured; seat tokens will not survive a restart")
	}
	tokens, err := auth.NewTokenIssuer(secret, cfg.Auth.TokenTTL)
	if err != nil {
		logger.Fatal("failed to create token issuer", zap.Error(err))
	}

	adminCred, err := auth.NewAdminCredential(cfg.Auth.AdminPassword)
	if err != nil {
		logger.Fatal("failed to hash admin password", zap.Error(err))
	}
	if !adminCred.Enabled() {
		logger.Warn("admin password not configured; admin RPC access disabled")
	}

	sessCfg := session.Config{
		LeasePeriod:   cfg.Server.LeasePeriod,
		MaxSessions:   cfg.Server.MaxSessions,
		HandSize:      cfg.Game.HandSize,
		MaxCPUSteps:   cfg.Game.MaxCPUSteps,
		CPUThinkDelay: cfg.Server.CPUThinkDelay,
	}
	if cfg.Replay.Enabled {
		sessCfg.ReplayDir = cfg.Replay.Directory
	}
	sessionMgr := session.NewManager(sessCfg, results, logger)
	logger.Info("session manager initialized",
		zap.Duration("lease_period", cfg.Server.LeasePeriod),
		zap.Int("max_sessions", cfg.Server.MaxSessions),
		zap.Bool("replays", cfg.Replay.Enabled),
	)

	go sessionMgr.CleanupExpiredSessions(ctx)

	service := server.NewService(sessionMgr, tokens, logger)

	hub := server.NewHub(service, cfg.Server.HTTP.AllowedOrigins, logger)
	go hub.Run(ctx)

	httpServer := server.NewHTTPServer(cfg.Server.HTTP, server.NewHandler(server.NewAPI(service, results, logger), hub))
	go func() {
		if httpErr := server.StartHTTPServer(ctx, httpServer, logger); httpErr != nil {
			logger.Error("HTTP server error", zap.Error(httpErr))
		}
	}()

	grpcServer := grpc.NewServer(
		grpc.UnaryInterceptor(server.ChainUnaryInterceptors(
			server.RecoveryInterceptor(logger),
			server.LoggingInterceptor(logger),
			server.AdminInterceptor(adminCred, server.AdminMethods...),
		)),
		grpc.KeepaliveParams(keepalive.ServerParameters{
			Time:    30 * time.Second,
			Timeout: 10 * time.Second,
		}),
		grpc.MaxConcurrentStreams(uint32(cfg.Server.GRPC.MaxConcurrentStreams)),
	)
	server.RegisterGameServiceServer(grpcServer, server.NewGameServer(service, logger))

	lis, err := net.Listen("tcp", cfg.Server.GRPC.Address)
	if err != nil {
		logger.Fatal("failed to listen", zap.Error(err))
	}

	go func() {
		logger.Info("starting gRPC server", zap.String("address", cfg.Server.GRPC.Address))
		if serveErr := grpcServer.Serve(lis); serveErr != nil {
			logger.Error("gRPC server error", zap.Error(serveErr))
		}
	}()

	logger.Info("UNO server initialized",
		zap.String("version", version),
		zap.String("grpc_address", cfg.Server.GRPC.Address),
		zap.String("http_address", cfg.Server.HTTP.Address),
	)

	sig := <-sigChan
	logger.Info("received shutdown signal", zap.String("signal", sig.String()))

	logger.Info("shutting down gracefully...")
	cancel()

	shutdownCtx, stop := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer stop()
	sessionMgr.CloseAll(shutdownCtx)

	grpcServer.GracefulStop()

	logger.Info("UNO server stopped")
}

func randomSecret() string {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		panic(err)
	}
	return hex.EncodeToString(b)
}

// initLogger initializes the zap logger based on configuration
func initLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	var level zapcore.Level
	switch cfg.Level {
	case "debug":
		level = zapcore.DebugLevel
	case "info":
		level = zapcore.InfoLevel
	case "warn":
		level = zapcore.WarnLevel
	case "error":
		level = zapcore.ErrorLevel
	default:
		level = zapcore.InfoLevel
	}

	var zapCfg zap.Config
	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	zapCfg.Level = zap.NewAtomicLevelAt(level)

	return zapCfg.Build()
}
