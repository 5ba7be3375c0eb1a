package main

import (
	"encoding/json"
	"errors"
	"log"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"placescout/config"
)

type CDCMessage struct {
	Table string `json:"table"`
	Kind  string `json:"kind"`
	ID    uint64 `json:"id"`
}

func main() {
	cfg := config.LoadConfig()

	db, err := gorm.Open(postgres.Open(cfg.Postgres.ConnStr()), &gorm.Config{})
	if err != nil {
		log.Fatal("failed to connect to postgres:", err)
	}

	nc, err := nats.Connect(cfg.Nats.ConnStr())
	if err != nil {
		log.Fatal("failed to connect to nats:", err)
	}
	defer nc.Close()

	js, err := nc.JetStream()
	if err != nil {
		log.Fatal("failed to get jetstream context:", err)
	}

	_, err = js.AddStream(&nats.StreamConfig{
		Name:      cfg.Nats.Stream,
		Subjects:  []string{cfg.Nats.PlacesSubject, cfg.Nats.SearchesSubject},
		Storage:   nats.FileStorage,
		Retention: nats.LimitsPolicy,
		MaxAge:    time.Hour * 24 * 7,
	})
	if err != nil && !errors.Is(err, nats.ErrStreamNameAlreadyInUse) {
		log.Fatal("failed to create stream:", err)
	}

	tables := []struct {
		name    string
		subject string
	}{
		{"places", cfg.Nats.PlacesSubject},
		{"search_logs", cfg.Nats.SearchesSubject},
	}

	total := 0
	for _, table := range tables {
		var ids []uint64
		if err := db.Table(table.name).Where("embedding IS NULL").Pluck("id", &ids).Error; err != nil {
			log.Fatalf("failed to query unembedded %s: %v", table.name, err)
		}
		slog.Info("found unembedded rows", "table", table.name, "count", len(ids))

		for _, id := range ids {
			msg := CDCMessage{
				Table: table.name,
				Kind:  "insert",
				ID:    id,
			}
			data, err := json.Marshal(msg)
			if err != nil {
				slog.Error("failed to marshal message", "err", err)
				continue
			}
			if _, err := js.Publish(table.subject, data); err != nil {
				slog.Error("failed to publish row", "table", table.name, "id", id, "err", err)
				continue
			}
			slog.Info("published row for embedding", "table", table.name, "id", id)
		}

		total += len(ids)
	}

	slog.Info("backfill complete", "rows", total)
}
