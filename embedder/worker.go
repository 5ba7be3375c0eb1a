package main

import (
	"context"
	"log/slog"
	"sync"

	"github.com/nats-io/nats.go"
)

// EmbedHandler embeds the row referenced by one CDC event. A returned error
// naks the message so JetStream redelivers it.
type EmbedHandler func(ctx context.Context, msg []byte) error

// EmbedPool fans CDC messages out over a fixed set of workers. The queue is
// bounded; Enqueue blocks when it is full so slow embedding backpressures
// the JetStream fetch loop instead of piling up in memory.
type EmbedPool struct {
	queue   chan *nats.Msg
	handler EmbedHandler
	wg      sync.WaitGroup
}

func NewEmbedPool(queueSize int, handler EmbedHandler) *EmbedPool {
	if queueSize < 1 {
		queueSize = 100
	}

	return &EmbedPool{
		queue:   make(chan *nats.Msg, queueSize),
		handler: handler,
	}
}

// Start launches the workers. They exit when the context is cancelled or the
// queue is closed.
func (p *EmbedPool) Start(ctx context.Context, workers int) {
	if workers < 1 {
		workers = 2
	}

	for i := 0; i < workers; i++ {
		p.wg.Add(1)
		go func() {
			defer p.wg.Done()
			p.run(ctx)
		}()
	}
}

func (p *EmbedPool) run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-p.queue:
			if !ok {
				return
			}
			p.handle(ctx, msg)
		}
	}
}

func (p *EmbedPool) handle(ctx context.Context, msg *nats.Msg) {
	if err := p.handler(ctx, msg.Data); err != nil {
		slog.Error("failed to embed row", "subject", msg.Subject, "err", err)
		if err := msg.Nak(); err != nil {
			slog.Error("failed to nak message", "err", err)
		}

		return
	}

	if err := msg.Ack(); err != nil {
		slog.Error("failed to ack message", "err", err)
	}
}

// Enqueue hands a message to the pool. Returns false once the context is
// cancelled; the message stays unacked and JetStream will redeliver it.
func (p *EmbedPool) Enqueue(ctx context.Context, msg *nats.Msg) bool {
	select {
	case p.queue <- msg:
		return true
	case <-ctx.Done():
		return false
	}
}

// Stop closes the queue and waits for in-flight messages to finish.
func (p *EmbedPool) Stop() {
	close(p.queue)
	p.wg.Wait()
}
