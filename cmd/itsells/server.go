package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/LordErl/itsells-core/internal/analytics"
	"github.com/LordErl/itsells-core/internal/batch"
	"github.com/LordErl/itsells-core/internal/clock"
	"github.com/LordErl/itsells-core/internal/ledger"
	"github.com/LordErl/itsells-core/internal/logger"
	"github.com/LordErl/itsells-core/internal/notify"
	"github.com/LordErl/itsells-core/internal/order"
	"github.com/LordErl/itsells-core/internal/router"
	storage "github.com/LordErl/itsells-core/internal/storage/postgres"
	"github.com/LordErl/itsells-core/internal/user"
)

func main() {
	if err := run(); err != nil {
		panic(err)
	}
}

func run() error {
	cfg, err := NewConfig()
	if err != nil {
		log.Fatal(err)
	}
	if err := logger.Initialize(cfg.LogLevel); err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store, err := storage.NewPostgresStorage(cfg.DatabaseConnection)
	if err != nil {
		log.Fatalf("Failed to initialize Postgres storage: %v", err)
	}
	pingCtx, pingCancel := context.WithTimeout(ctx, 5*time.Second)
	defer pingCancel()
	if err := store.Ping(pingCtx); err != nil {
		log.Fatalf("Unable to ping database: %v", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.Printf("Warning: failed to close storage: %v", err)
		}
	}()

	var events notify.Publisher = notify.Noop{}
	if cfg.AMQPAddress != "" {
		pub, err := notify.Connect(cfg.AMQPAddress)
		if err != nil {
			log.Fatalf("Failed to connect to AMQP broker: %v", err)
		}
		defer pub.Close()
		events = pub
	}

	clk := clock.System{}

	userSvc := user.NewService(store, clk, []byte(cfg.JWTSecret), cfg.JWTTTL)
	userHandler := user.NewHandler(userSvc)

	ledgerSvc := ledger.NewService(store, store, clk)
	ledgerHandler := ledger.NewHandler(ledgerSvc)

	orderSvc := order.NewService(store, store, ledgerSvc, clk, events)
	orderHandler := order.NewHandler(orderSvc)

	batchSvc := batch.NewService(store, clk)
	batchHandler := batch.NewHandler(batchSvc, batch.NewEarliestExpiring(store))

	analyticsSvc := analytics.NewService(store, clk)
	analyticsHandler := analytics.NewHandler(analyticsSvc, clk)

	r := router.NewRouter(
		userHandler, orderHandler, batchHandler, ledgerHandler, analyticsHandler,
		[]byte(cfg.JWTSecret), store,
	)

	srv := &http.Server{
		Addr:         cfg.Address,
		Handler:      r,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		ledger.ReconcileLoop(
			ctx,
			store,
			ledgerSvc,
			cfg.ReconcileWorkers,
			cfg.ReconcileInterval,
		)
	}()

	go func() {
		log.Printf("Starting server on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("ListenAndServe(): %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()

	if err := srv.Shutdown(ctxShutdown); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server stopped gracefully")
	return nil
}
