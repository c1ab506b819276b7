package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gidimart-be/internal/config"
	"gidimart-be/internal/db"
	"gidimart-be/internal/logger"
	"gidimart-be/internal/order"
	"gidimart-be/internal/payment"
	"gidimart-be/internal/transport"
	"gidimart-be/internal/user"

	"go.uber.org/zap"
)

func main() {
	cfg := config.LoadConfig()
	logger.Init(cfg.AppEnv)
	defer logger.Sync()

	database, err := db.InitDB(cfg)
	if err != nil {
		logger.L().Fatal("failed to init database", zap.Error(err))
	}
	defer database.Close()

	if err := db.RunMigrations(database, cfg.MigrationsPath, cfg.DBName); err != nil {
		logger.L().Fatal("failed to run migrations", zap.Error(err))
	}

	gateway, err := payment.NewPaystackGateway(
		cfg.PaystackSecretKey,
		cfg.PaystackWebhookSecret,
		cfg.PaymentCallbackURL,
	)
	if err != nil {
		logger.L().Fatal("failed to init payment gateway", zap.Error(err))
	}

	orderRepo := order.NewRepository(database)
	orderSvc := order.NewService(orderRepo, gateway, cfg.PaymentCallbackURL)

	userRepo := user.NewRepository(database)
	userSvc := user.NewService(userRepo)

	eventRepo := payment.NewRepository(database)

	router := transport.NewRouter(orderSvc, userSvc, gateway, eventRepo)

	srv := &http.Server{
		Addr:    ":" + cfg.AppPort,
		Handler: router,
	}

	go func() {
		logger.L().Info("server listening", zap.String("port", cfg.AppPort))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.L().Fatal("server failed", zap.Error(err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	logger.L().Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.L().Error("graceful shutdown failed", zap.Error(err))
	}
}
