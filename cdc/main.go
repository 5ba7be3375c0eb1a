package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"placescout/config"
)

func main() {
	cfg := config.LoadConfig()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	nc, err := NewNatsClient(&cfg.Nats)
	if err != nil {
		log.Fatal(err)
	}
	defer nc.Close()

	listener := NewListener(cfg, nc)
	defer listener.Close(context.Background())

	errChan := make(chan error, 1)
	go func() {
		errChan <- listener.Run(ctx)
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errChan:
		log.Fatalln("listener stopped:", err)
	case <-shutdown:
		slog.Info("shutting down")
		cancel()
		<-errChan
	}
}
