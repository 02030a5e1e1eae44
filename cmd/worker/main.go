package main

import (
	"context"
	"nibog/config"
	"nibog/di"
	"nibog/shared/logger"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/rs/zerolog/log"
)

func main() {
	cfg := config.Get()

	logger.InitLogger()

	logger.SetLogLevel(cfg)

	worker, err := di.InitializeWorker()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize worker")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := worker.Task.Start(); err != nil {
		log.Fatal().Err(err).Msg("Failed to start task server")
	}

	var wg sync.WaitGroup

	wg.Add(1)

	go func() {
		defer wg.Done()

		worker.Event.Consume(ctx)
	}()

	<-ctx.Done()

	log.Info().Msg("Received shutdown signal, draining worker.")

	worker.Task.Shutdown()
	wg.Wait()

	if err := worker.Scheduler.Close(); err != nil {
		log.Error().Err(err).Msg("Failed to close scheduler client")
	}

	log.Info().Msg("Worker stopped.")
}
