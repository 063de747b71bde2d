package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"vestibox/internal/config"
	"vestibox/internal/infra"
	"vestibox/internal/repository"
	"vestibox/internal/router"
	"vestibox/internal/worker"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	// Structured logger: pretty in dev, JSON in prod
	if !cfg.Production() {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}
	// log.Ctx(ctx) falls back to the global logger outside HTTP requests
	zerolog.DefaultContextLogger = &log.Logger

	db, err := infra.NewDatabase(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to postgres")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	rdb, err := infra.NewRedis(ctx, cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis")
	}

	// Worker handlers are wired here (composition root) so that the pool
	// has access to every infrastructure dependency.
	mailer := infra.NewMailer(cfg)
	smtpCB := infra.NewCircuitBreaker(infra.DefaultCBConfig("smtp"))
	dispatcher := worker.NewDispatcher(rdb)

	var emails worker.EmailEnqueuer
	if mailer.Configurado() {
		emails = dispatcher
	} else {
		log.Warn().Msg("SMTP_HOST vacio: los comprobantes no se enviaran por email")
	}

	comprobantes := worker.NewComprobanteWorker(
		repository.NewAlquilerRepository(db),
		repository.NewVentaRepository(db),
		repository.NewClienteRepository(db),
		emails,
		cfg.PDFStoragePath,
	)
	pool := worker.NewPool(rdb)
	pool.Handle(worker.JobComprobante, comprobantes.Process)
	pool.Handle(worker.JobEmail, worker.NewEmailWorker(mailer, smtpCB).Process)
	pool.Start(ctx, cfg.WorkerPoolSize)
	worker.StartRetryCron(ctx, worker.RetryCronConfig{Queue: rdb, CB: smtpCB})

	r := router.New(ctx, cfg, db, rdb, smtpCB)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown on SIGINT / SIGTERM
	go func() {
		log.Info().
			Str("alquiler_modo_stock", cfg.AlquilerModoStock).
			Bool("stock_permitir_negativo", cfg.StockPermitirNegativo).
			Bool("estados_estrictos", cfg.EstadosEstrictos).
			Msgf("vestibox backend listening on :%d", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server…")
	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("forced shutdown")
	}
	if err := rdb.Close(); err != nil {
		log.Warn().Err(err).Msg("redis close")
	}
	log.Info().Msg("server exited")
}
