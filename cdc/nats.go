package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"placescout/config"
)

const streamMaxAge = 7 * 24 * time.Hour

type NatsClient struct {
	conn *nats.Conn
	js   nats.JetStreamContext
}

// NewNatsClient connects to JetStream and makes sure the CDC stream covering
// both row-change subjects exists.
func NewNatsClient(cfg *config.Nats) (*NatsClient, error) {
	nc, err := nats.Connect(cfg.ConnStr())
	if err != nil {
		return nil, fmt.Errorf("connect to nats: %w", err)
	}

	js, err := nc.JetStream()
	if err != nil {
		return nil, fmt.Errorf("jetstream context: %w", err)
	}

	_, err = js.AddStream(&nats.StreamConfig{
		Name:      cfg.Stream,
		Subjects:  []string{cfg.PlacesSubject, cfg.SearchesSubject},
		Storage:   nats.FileStorage,
		Retention: nats.LimitsPolicy,
		MaxAge:    streamMaxAge,
	})
	if err != nil && !errors.Is(err, nats.ErrStreamNameAlreadyInUse) {
		return nil, fmt.Errorf("create stream: %w", err)
	}

	return &NatsClient{conn: nc, js: js}, nil
}

func (c *NatsClient) Close() {
	c.conn.Close()
}

func (c *NatsClient) Publish(subject string, data []byte) error {
	_, err := c.js.PublishAsync(subject, data)

	return err
}
