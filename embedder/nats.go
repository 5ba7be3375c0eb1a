package main

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/nats-io/nats.go"

	"placescout/config"
)

const (
	fetchBatch   = 4
	fetchMaxWait = 200 * time.Millisecond
)

type Client struct {
	conn *nats.Conn
	js   nats.JetStreamContext
}

func NewNats(cfg *config.Config) (*Client, error) {
	nc, err := nats.Connect(cfg.Nats.ConnStr())
	if err != nil {
		return nil, err
	}

	js, err := nc.JetStream()
	if err != nil {
		return nil, err
	}

	return &Client{conn: nc, js: js}, nil
}

func (c *Client) Close() {
	c.conn.Close()
}

// Consume pulls CDC events off the subject and feeds them to the pool until
// the context is cancelled. Messages are acked by the pool workers, never here.
func (c *Client) Consume(ctx context.Context, subject string, pool *EmbedPool) error {
	durable := strings.ReplaceAll(subject+".consumer", ".", "-")
	subscription, err := c.js.PullSubscribe(subject, durable, nats.ManualAck())
	if err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			if err := subscription.Unsubscribe(); err != nil {
				slog.Warn("failed to unsubscribe", "subject", subject, "error", err)
			}

			return nil
		default:
		}

		msgs, err := subscription.Fetch(fetchBatch, nats.MaxWait(fetchMaxWait))
		if err != nil {
			if errors.Is(err, nats.ErrTimeout) {
				continue
			}

			return err
		}

		for _, msg := range msgs {
			if !pool.Enqueue(ctx, msg) {
				return nil
			}
		}
	}
}
