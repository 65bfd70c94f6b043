package main

import (
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/labstack/echo/v4"
	"github.com/okamoto/oracle-hr-api/internal/auth"
	"github.com/okamoto/oracle-hr-api/internal/config"
	"github.com/okamoto/oracle-hr-api/internal/database"
	"github.com/okamoto/oracle-hr-api/internal/handler"
	"github.com/okamoto/oracle-hr-api/internal/logger"
	"github.com/okamoto/oracle-hr-api/internal/repository"
	"github.com/okamoto/oracle-hr-api/internal/server"
	"go.uber.org/zap"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "Path to the YAML config file (empty for defaults and environment only)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	zl, err := logger.New(cfg.Logging)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer zl.Sync()

	if err := run(cfg, zl); err != nil {
		zl.Fatal("server exited with error", zap.Error(err))
	}
}

func run(cfg *config.Config, zl *zap.Logger) error {
	tokens, err := auth.NewTokenService(cfg.Auth)
	if err != nil {
		return err
	}

	creds, err := auth.NewCredentialStore(tokens, cfg.Auth.BcryptCost, zl.Named("auth"))
	if err != nil {
		return err
	}

	db, err := database.NewOracleDB(&cfg.Database, zl.Named("database"))
	if err != nil {
		return err
	}
	defer db.Close()

	repo, err := repository.NewEmployeeRepository(db, zl.Named("repository"))
	if err != nil {
		return err
	}

	handlers := handler.Handlers{
		Employees: handler.NewEmployeeHandler(repo, zl.Named("handler")),
		Auth:      handler.NewAuthHandler(creds, zl.Named("handler")),
		System:    handler.NewSystemHandler(db, nil, zl.Named("handler")),
	}
	gate := auth.NewGate(tokens, zl.Named("gate"))

	srv := server.NewHTTPServer(&cfg.Server, zl, func(e *echo.Echo) {
		handler.RegisterRoutes(e, gate, handlers)
	})
	if err := srv.Start(); err != nil {
		return err
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		zl.Info("shutdown signal received", zap.String("signal", sig.String()))
	case err := <-srv.Errors():
		zl.Error("server failed", zap.Error(err))
	}

	return srv.Stop()
}
