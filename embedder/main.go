package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/tmc/langchaingo/llms/ollama"
	"golang.org/x/sync/errgroup"

	"placescout/config"
)

func main() {
	cfg := config.LoadConfig()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	nc, err := NewNats(cfg)
	if err != nil {
		log.Fatal(err)
	}
	defer nc.Close()

	llm, err := ollama.New(
		ollama.WithServerURL(cfg.Ollama.Address()),
		ollama.WithModel(cfg.Ollama.EmbeddingModel),
	)
	if err != nil {
		log.Fatal(err)
	}

	pg, err := NewPg(cfg.Postgres.ConnStr())
	if err != nil {
		log.Fatal(err)
	}

	handler, err := NewHandler(llm, pg)
	if err != nil {
		log.Fatal(err)
	}

	subjectHandlers := map[string]EmbedHandler{
		cfg.Nats.PlacesSubject:   handler.HandlePlaceCDCMessage,
		cfg.Nats.SearchesSubject: handler.HandleSearchLogCDCMessage,
	}

	slog.Info("starting embedder",
		"workers", cfg.Embedder.Workers,
		"queueSize", cfg.Embedder.QueueSize,
	)

	consumers := errgroup.Group{}
	for subject, h := range subjectHandlers {
		pool := NewEmbedPool(cfg.Embedder.QueueSize, h)
		pool.Start(ctx, cfg.Embedder.Workers)

		consumers.Go(func() error {
			defer pool.Stop()

			return nc.Consume(ctx, subject, pool)
		})
	}

	errChan := make(chan error, 1)
	go func() {
		errChan <- consumers.Wait()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case <-shutdown:
		slog.Info("shutting down")
		cancel()
		<-errChan
	case err := <-errChan:
		slog.Info("shutting down due to error", "error", err)
		cancel()
	}
}
