package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/comanda-pos/api/internal/config"
	"github.com/comanda-pos/api/internal/handler"
	"github.com/comanda-pos/api/internal/kitchen"
	"github.com/comanda-pos/api/internal/router"
	"github.com/comanda-pos/api/internal/service"
	sig "github.com/comanda-pos/api/internal/signal"
	"github.com/comanda-pos/api/internal/store"
	"github.com/comanda-pos/api/internal/ws"
)

func main() {
	cfg := config.Load()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("connect to database: %v", err)
	}
	defer pool.Close()
	if err := pool.Ping(ctx); err != nil {
		log.Fatalf("ping database: %v", err)
	}

	orderStore := store.NewPostgresStore(pool)

	// Cross-view new-order signals: RabbitMQ fanout when a broker is
	// configured (multiple server processes), in-process otherwise.
	var bus sig.Bus
	if cfg.AmqpURL != "" {
		amqpBus, err := sig.DialAmqp(cfg.AmqpURL)
		if err != nil {
			log.Fatalf("connect to broker: %v", err)
		}
		defer amqpBus.Close()
		bus = amqpBus
	} else {
		bus = sig.NewInProcessBus()
	}

	hub := ws.NewHub()
	go hub.Run()

	reconciler := kitchen.NewReconciler(
		orderStore,
		ws.NewReconcilerNotifier(hub),
		cfg.PollInterval,
		cfg.ForcedPollMinGap,
	)
	unsubscribe := bus.Subscribe(reconciler.HandleNewOrder)
	defer unsubscribe()
	go func() {
		if err := reconciler.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Printf("reconciler stopped: %v", err)
		}
	}()

	submitter := service.NewSubmitter(orderStore, bus)
	transitions := service.NewItemTransitions(orderStore)

	sessions := handler.NewSessionHandler(submitter)
	kitchenHandler := handler.NewKitchenHandler(reconciler, transitions)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router.New(sessions, kitchenHandler, hub),
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("server shutdown: %v", err)
		}
	}()

	log.Printf("Starting server on :%s (poll interval %s)", cfg.Port, cfg.PollInterval)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal(err)
	}
}
