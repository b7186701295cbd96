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

	"smart/internal/config"
	"smart/internal/infra"
	"smart/internal/repository"
	"smart/internal/router"
	"smart/internal/worker"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	// Structured logger: pretty in dev, JSON in prod
	if cfg.Env != "production" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}
	if lvl, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		zerolog.SetGlobalLevel(lvl)
	}

	db, err := infra.NewDatabase(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to postgres")
	}
	if err := infra.RunMigrations(db, cfg.MigrationsPath); err != nil {
		log.Fatal().Err(err).Msg("failed to run migrations")
	}

	rdb, err := infra.NewRedis(cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ── Remote collaborators ─────────────────────────────────────────────────
	authCB := infra.NewCircuitBreaker(infra.DefaultCBConfig("auth_logout"))
	imagenCB := infra.NewCircuitBreaker(infra.DefaultCBConfig("imagen_upload"))
	hostedAuth := infra.NewHostedAuth(cfg.AuthJWTSecret, cfg.AuthURL, authCB)
	uploader := infra.NewImageUploader(cfg.CloudinaryUploadURL, cfg.CloudinaryUploadPreset, cfg.CloudinaryFolder, imagenCB)
	events := infra.NewEventPublisher(cfg.KafkaBrokers, cfg.KafkaTopicPedidos)
	defer events.Close()
	if !events.Enabled() {
		log.Info().Msg("kafka disabled: no KAFKA_BROKERS configured")
	}

	// Worker handlers are wired here (composition root) so that the pool
	// has full access to all infrastructure dependencies.
	mailer := infra.NewMailer(cfg)
	dispatcher := worker.NewDispatcher(rdb)
	ventaRepo := repository.NewVentaRepository(db)
	ticketWorker := worker.NewTicketWorker(ventaRepo, dispatcher, cfg.StoreName, cfg.PDFStoragePath)
	pool := worker.NewPool(rdb, ticketWorker, worker.NewEmailWorker(mailer))

	app := router.New(cfg, router.Deps{
		DB:       db,
		Redis:    rdb,
		Auth:     hostedAuth,
		Uploader: uploader,
		Events:   events,
		Jobs:     dispatcher,
		Breakers: []*infra.CircuitBreaker{authCB, imagenCB},
	})

	srv := &http.Server{
		Addr:        fmt.Sprintf(":%d", cfg.Port),
		Handler:     app.Engine,
		ReadTimeout: 10 * time.Second,
		// no WriteTimeout: chat SSE streams stay open
		IdleTimeout: 60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info().Msgf("S-mart backend listening on :%d", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("shutting down server…")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	pool.Start(gctx, cfg.WorkerPoolSize)
	worker.StartRetryCron(gctx, worker.RetryCronConfig{VentaRepo: ventaRepo, Worker: ticketWorker, RDB: rdb})

	// Auth events relayed by the hosted provider for terminals on this instance
	g.Go(func() error {
		ch, err := infra.NewRealtime(rdb).Subscribe(gctx, infra.TopicAuthEventos)
		if err != nil {
			log.Error().Err(err).Msg("auth events listener disabled")
			return nil
		}
		app.Sesion.Escuchar(gctx, ch)
		return nil
	})

	g.Go(func() error {
		app.Terminals.RunJanitor(gctx, cfg.TerminalIdleTTL())
		return nil
	})

	for _, l := range app.Limiters {
		l := l
		g.Go(func() error {
			l.RunPurge(gctx)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		log.Error().Err(err).Msg("server exited with error")
		os.Exit(1)
	}
	log.Info().Msg("server exited")
}
