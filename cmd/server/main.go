// cmd/server/main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/javajoker/rifas-backend/internal/config"
	"github.com/javajoker/rifas-backend/internal/database"
	"github.com/javajoker/rifas-backend/internal/database/seed"
	"github.com/javajoker/rifas-backend/internal/i18n"
	"github.com/javajoker/rifas-backend/internal/lock"
	"github.com/javajoker/rifas-backend/internal/router"
	"github.com/javajoker/rifas-backend/internal/services"
	"github.com/javajoker/rifas-backend/internal/store"
	"github.com/javajoker/rifas-backend/internal/utils"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatal("Failed to load configuration: ", err)
	}

	utils.InitLogger(cfg.Log, cfg.Environment)

	// Initialize i18n
	if err := i18n.Initialize(cfg.I18n.DefaultLocale); err != nil {
		logrus.Fatal("Failed to initialize i18n: ", err)
	}
	if err := i18n.LoadDir(cfg.I18n.LocalesPath); err != nil {
		logrus.WithError(err).Warn("Failed to load locale overrides")
	}

	ctx := context.Background()

	st, err := openStore(ctx, cfg)
	if err != nil {
		logrus.Fatal("Failed to initialize store: ", err)
	}
	defer st.Close()

	locker, closeLocker, err := openLocker(cfg)
	if err != nil {
		logrus.Fatal("Failed to initialize lock: ", err)
	}
	defer closeLocker()

	storageService, err := services.NewStorageService(cfg)
	if err != nil {
		logrus.Fatal("Failed to initialize storage: ", err)
	}

	ledger := services.NewTicketLedger(st)
	sellerService := services.NewSellerService(st, locker, ledger, cfg)
	raffleService := services.NewRaffleService(st, locker, sellerService, ledger, cfg)

	if cfg.Raffle.SeedDemoData {
		if err := seed.SeedDemoData(ctx, raffleService); err != nil {
			logrus.WithError(err).Error("Failed to seed demo data")
		}
	}

	// Set Gin mode
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Initialize router
	r := router.Initialize(cfg, router.Services{
		Auth:    services.NewAuthService(st, cfg),
		Raffles: raffleService,
		Sellers: sellerService,
		Ledger:  ledger,
		Storage: storageService,
		Audit:   services.NewAuditService(st),
	})

	// Create HTTP server
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logrus.WithFields(logrus.Fields{
			"port":  cfg.Server.Port,
			"store": cfg.Store.Driver,
			"lock":  cfg.Lock.Driver,
		}).Info("Starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.Fatal("Failed to start server: ", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logrus.Info("Shutting down server...")

	// Create a deadline for shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logrus.WithError(err).Error("Server forced to shutdown")
	}

	logrus.Info("Server exited")
}

func openStore(ctx context.Context, cfg *config.Config) (store.Store, error) {
	switch cfg.Store.Driver {
	case "postgres", "mysql":
		db, err := database.Initialize(cfg.Database)
		if err != nil {
			return nil, err
		}
		if err := database.RunMigrations(db, store.SQLTables()...); err != nil {
			database.Close(db)
			return nil, err
		}
		return store.NewSQLStore(db), nil
	case "mongo":
		return store.NewMongoStore(ctx, cfg.Mongo.URI, cfg.Mongo.Database)
	default:
		logrus.Warn("Using in-memory store, data is lost on restart")
		return store.NewMemoryStore(), nil
	}
}

func openLocker(cfg *config.Config) (lock.Locker, func(), error) {
	if cfg.Lock.Driver != "redis" {
		return lock.NewLocalLocker(cfg.Lock.WaitTimeout), func() {}, nil
	}

	client, err := database.InitializeRedis(cfg.Redis)
	if err != nil {
		return nil, nil, err
	}
	closer := func() {
		if err := client.Close(); err != nil {
			logrus.WithError(err).Error("Error closing redis connection")
		}
	}
	return lock.NewRedisLocker(client, cfg.Lock.KeyPrefix, cfg.Lock.TTL, cfg.Lock.WaitTimeout), closer, nil
}
