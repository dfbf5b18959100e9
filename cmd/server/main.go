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

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	router "github.com/KaseyPowers/Simple-Web-Game-sub000/internal/adapters/http"
	wssignal "github.com/KaseyPowers/Simple-Web-Game-sub000/internal/adapters/signal"
	"github.com/KaseyPowers/Simple-Web-Game-sub000/internal/app"
	"github.com/KaseyPowers/Simple-Web-Game-sub000/internal/app/orch"
	"github.com/KaseyPowers/Simple-Web-Game-sub000/internal/config"
	"github.com/KaseyPowers/Simple-Web-Game-sub000/internal/domain"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Initialize zerolog global logger early so config.Load can use it.
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	if lvl, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		zerolog.SetGlobalLevel(lvl)
	} else {
		log.Warn().Err(err).Str("level", cfg.LogLevel).Msg("bad log_level, keeping info")
	}

	rules := app.DefaultRules()
	rules.HandSize = cfg.HandSize
	rules.Cards = func() ([]domain.Card, []domain.Card) {
		return domain.NewCardSet(cfg.PromptCards, cfg.AnswerCards)
	}

	o := orch.New(
		app.NewRegistry(app.WithIDLength(cfg.RoomIDLength)),
		app.NewDirectory(),
		app.NewTransitions(rules),
		app.NewScheduler(cfg.GracePeriod),
		app.SimplePolicy{},
	)

	r := router.SetupRouter(ctx, cfg, o, router.Options{
		Signal: wssignal.Options{
			ReadLimit:  cfg.ReadLimit,
			PingPeriod: cfg.PingPeriod,
			SendBuffer: cfg.SendBuffer,
			Chat:       wssignal.NewRoomRateLimiter(cfg.ChatRateLimit, cfg.ChatRateWindow),
		},
	})
	addr := fmt.Sprintf(":%d", cfg.Port)

	srv := &http.Server{
		Addr:    addr,
		Handler: r,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info().Str("addr", addr).Msg("game server started")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("Shutting down")
		o.Shutdown()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
		os.Exit(1)
	}
	log.Info().Msg("Server exited gracefully")
}
