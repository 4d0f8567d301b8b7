package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/domino14/yonmoku/bot"
	"github.com/domino14/yonmoku/config"
	"github.com/domino14/yonmoku/solver"
)

const (
	GracefulShutdownTimeout = 20 * time.Second
)

func main() {
	cfg := &config.Config{}
	if _, err := cfg.Load(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if cfg.GetBool(config.ConfigDebug) {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
	log.Info().Msgf("Loaded config: %v", cfg.SanitizedSettings())

	opts, err := solver.OptionsFromConfig(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("bad-solver-config")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	b := bot.NewBot(cfg, opts)
	go func() {
		done <- b.Serve(ctx)
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	select {
	case s := <-sig:
		// We received an interrupt signal, shut down.
		log.Info().Str("signal", s.String()).Msg("got quit signal...")
	case err := <-done:
		if err != nil {
			log.Fatal().Err(err).Msg("bot-exited")
		}
		return
	}
	cancel()
	select {
	case err := <-done:
		if err != nil {
			log.Error().Err(err).Msg("bot-shutdown")
		}
	case <-time.After(GracefulShutdownTimeout):
		// a search in progress can't be interrupted.
		log.Warn().Msg("timed out waiting for bot to finish")
	}
	log.Info().Msg("server gracefully shutting down")
}
