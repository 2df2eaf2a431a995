package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/equipment-rental/internal/config"
	"github.com/iliyamo/equipment-rental/internal/database"
	"github.com/iliyamo/equipment-rental/internal/handler"
	"github.com/iliyamo/equipment-rental/internal/logger"
	"github.com/iliyamo/equipment-rental/internal/middleware"
	"github.com/iliyamo/equipment-rental/internal/queue"
	"github.com/iliyamo/equipment-rental/internal/repository"
	"github.com/iliyamo/equipment-rental/internal/router"
	"github.com/iliyamo/equipment-rental/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		// no logger yet
		os.Stderr.WriteString(err.Error() + "\n")
		os.Exit(1)
	}
	log, err := logger.New(cfg.LogLevel, cfg.LogJSON)
	if err != nil {
		os.Stderr.WriteString(err.Error() + "\n")
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	db, err := database.Open(cfg)
	if err != nil {
		log.Fatal("database unavailable", logger.ErrorF(err))
	}
	defer db.Close()

	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Warn("redis unavailable, rate limiting and availability cache disabled")
	} else {
		defer rdb.Close()
	}

	stores := repository.NewStoreRepo(db)
	products := repository.NewProductRepo(db)
	reservations := repository.NewReservationRepo(db)
	payments := repository.NewPaymentRepo(db)
	users := repository.NewUserRepo(db)
	tokens := repository.NewTokenRepo(db)

	publisher := queue.NewPublisher(cfg.RabbitURL, log)

	availabilitySvc := service.NewAvailabilityService(stores, products, reservations, nil)
	quoteSvc := service.NewQuoteService(stores, products)
	checkoutSvc := service.NewCheckoutService(stores, products, reservations, publisher, log, nil)
	reservationSvc := service.NewReservationService(reservations, payments, publisher, log, nil)
	paymentSvc := service.NewPaymentService(reservations, publisher, log, nil)

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.RequestLogger(log))
	e.Use(middleware.Recover(log))

	authH := handler.NewAuthHandler(cfg, users, tokens, log)
	router.RegisterRoutes(e, db)
	router.RegisterAuth(e, authH, cfg.JWTSecret)
	cacheCfg := config.LoadCacheConfig()
	router.RegisterStorefront(e,
		handler.NewStorefrontHandler(availabilitySvc, quoteSvc, checkoutSvc, log),
		middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb, log),
		middleware.NewRedisCache(cacheCfg, rdb, log),
		middleware.NewCacheInvalidator(cacheCfg, rdb, log),
	)
	router.RegisterDashboard(e, handler.NewDashboardHandler(reservationSvc, paymentSvc, log), authH, cfg.JWTSecret)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var wg sync.WaitGroup
	if cfg.ConsumerOn {
		consumer := queue.NewConsumer(cfg.RabbitURL, cfg.ConsumerLog, log)
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Error("activity consumer stopped", logger.ErrorF(err))
			}
		}()
	}

	go func() {
		addr := ":" + cfg.Port
		log.Info("listening", logger.String("addr", addr), logger.String("env", cfg.Env))
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server failed", logger.ErrorF(err))
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown failed", logger.ErrorF(err))
	}
	wg.Wait()
}
