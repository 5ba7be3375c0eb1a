package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pglogrepl"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgproto3"

	"placescout/config"
)

const (
	outputPlugin    = "wal2json"
	standbyInterval = 10 * time.Second
)

type walMessage struct {
	Change []rowChange `json:"change"`
}

type rowChange struct {
	Kind         string        `json:"kind"`
	Table        string        `json:"table"`
	ColumnNames  []string      `json:"columnnames,omitempty"`
	ColumnValues []interface{} `json:"columnvalues,omitempty"`
}

// column returns the value of the named column, nil when absent.
func (c rowChange) column(name string) interface{} {
	for i, n := range c.ColumnNames {
		if n == name && i < len(c.ColumnValues) {
			return c.ColumnValues[i]
		}
	}

	return nil
}

func (c rowChange) rowID() uint64 {
	if v, ok := c.column("id").(float64); ok {
		return uint64(v)
	}

	return 0
}

// Listener tails the WAL of the place cache database and publishes row
// changes to JetStream so the embedder can pick them up.
type Listener struct {
	config   *config.Config
	nats     *NatsClient
	subjects map[string]string

	queryConn *pgx.Conn
	replConn  *pgconn.PgConn
	walPos    pglogrepl.LSN
}

func NewListener(cfg *config.Config, nc *NatsClient) *Listener {
	return &Listener{
		config: cfg,
		nats:   nc,
		subjects: map[string]string{
			"places":      cfg.Nats.PlacesSubject,
			"search_logs": cfg.Nats.SearchesSubject,
		},
	}
}

func (l *Listener) Run(ctx context.Context) error {
	startLSN, err := l.connect(ctx)
	if err != nil {
		return err
	}

	pluginArgs := []string{
		"\"pretty-print\" 'false'",
		"\"include-xids\" 'false'",
		"\"include-timestamp\" 'false'",
		"\"include-lsn\" 'false'",
	}

	err = pglogrepl.StartReplication(ctx, l.replConn, l.config.Replication.Slot, startLSN,
		pglogrepl.StartReplicationOptions{PluginArgs: pluginArgs})
	if err != nil {
		return fmt.Errorf("start replication: %w", err)
	}

	slog.Info("replication started", "slot", l.config.Replication.Slot, "lsn", startLSN)
	l.walPos = startLSN

	return l.consume(ctx)
}

// connect opens the query and replication connections, makes sure the
// publication and slot exist, and returns the LSN to resume from.
func (l *Listener) connect(ctx context.Context) (pglogrepl.LSN, error) {
	var err error
	l.queryConn, err = pgx.Connect(ctx, l.config.Postgres.ConnStr())
	if err != nil {
		return 0, fmt.Errorf("connect to postgres: %w", err)
	}

	if err := l.ensurePublication(ctx); err != nil {
		return 0, err
	}

	l.replConn, err = pgconn.Connect(ctx, l.config.Postgres.ReplicationConnStr())
	if err != nil {
		return 0, fmt.Errorf("connect for replication: %w", err)
	}

	sysident, err := pglogrepl.IdentifySystem(ctx, l.replConn)
	if err != nil {
		return 0, fmt.Errorf("identify system: %w", err)
	}

	var slotName *string
	err = l.queryConn.QueryRow(ctx,
		"SELECT slot_name FROM pg_replication_slots WHERE slot_name = $1",
		l.config.Replication.Slot).Scan(&slotName)
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		return l.createSlot(ctx)
	case err != nil:
		return 0, fmt.Errorf("check replication slot: %w", err)
	}

	lsn, err := l.slotFlushLSN(ctx)
	if err != nil || lsn == 0 {
		return sysident.XLogPos, nil
	}

	return lsn, nil
}

func (l *Listener) createSlot(ctx context.Context) (pglogrepl.LSN, error) {
	result, err := pglogrepl.CreateReplicationSlot(ctx, l.replConn, l.config.Replication.Slot,
		outputPlugin, pglogrepl.CreateReplicationSlotOptions{Temporary: false})
	if err != nil {
		return 0, fmt.Errorf("create replication slot: %w", err)
	}

	slog.Info("created replication slot", "name", l.config.Replication.Slot)

	return pglogrepl.ParseLSN(result.ConsistentPoint)
}

func (l *Listener) slotFlushLSN(ctx context.Context) (pglogrepl.LSN, error) {
	var lsnStr *string
	err := l.queryConn.QueryRow(ctx,
		"SELECT confirmed_flush_lsn FROM pg_replication_slots WHERE slot_name = $1",
		l.config.Replication.Slot).Scan(&lsnStr)
	if err != nil {
		return 0, err
	}
	if lsnStr == nil {
		return 0, nil
	}

	return pglogrepl.ParseLSN(*lsnStr)
}

func (l *Listener) ensurePublication(ctx context.Context) error {
	var exists bool
	err := l.queryConn.QueryRow(ctx,
		"SELECT EXISTS (SELECT 1 FROM pg_publication WHERE pubname = $1)",
		l.config.Replication.Name).Scan(&exists)
	if err != nil {
		return fmt.Errorf("check publication: %w", err)
	}
	if exists {
		return nil
	}

	_, err = l.queryConn.Exec(ctx,
		fmt.Sprintf("CREATE PUBLICATION %s FOR ALL TABLES", l.config.Replication.Name))
	if err != nil {
		return fmt.Errorf("create publication: %w", err)
	}
	slog.Info("created publication", "name", l.config.Replication.Name)

	return nil
}

func (l *Listener) consume(ctx context.Context) error {
	deadline := time.Now().Add(standbyInterval)

	for {
		if !time.Now().Before(deadline) {
			err := pglogrepl.SendStandbyStatusUpdate(ctx, l.replConn,
				pglogrepl.StandbyStatusUpdate{WALWritePosition: l.walPos})
			if err != nil {
				return fmt.Errorf("send standby status: %w", err)
			}
			deadline = time.Now().Add(standbyInterval)
		}

		receiveCtx, cancel := context.WithDeadline(ctx, deadline)
		rawMsg, err := l.replConn.ReceiveMessage(receiveCtx)
		cancel()
		if err != nil {
			if pgconn.Timeout(err) {
				continue
			}

			return fmt.Errorf("receive message: %w", err)
		}

		if errMsg, ok := rawMsg.(*pgproto3.ErrorResponse); ok {
			return fmt.Errorf("postgres WAL error: %+v", errMsg)
		}

		copyData, ok := rawMsg.(*pgproto3.CopyData)
		if !ok || len(copyData.Data) == 0 {
			continue
		}

		switch copyData.Data[0] {
		case pglogrepl.PrimaryKeepaliveMessageByteID:
			pkm, err := pglogrepl.ParsePrimaryKeepaliveMessage(copyData.Data[1:])
			if err != nil {
				return fmt.Errorf("parse keepalive: %w", err)
			}
			if pkm.ServerWALEnd > l.walPos {
				l.walPos = pkm.ServerWALEnd
			}
			if pkm.ReplyRequested {
				deadline = time.Time{}
			}

		case pglogrepl.XLogDataByteID:
			xld, err := pglogrepl.ParseXLogData(copyData.Data[1:])
			if err != nil {
				return fmt.Errorf("parse xlog: %w", err)
			}
			l.handleWALData(xld.WALData)
			if xld.WALStart > l.walPos {
				l.walPos = xld.WALStart
			}
		}
	}
}

func (l *Listener) handleWALData(data []byte) {
	if len(data) == 0 {
		return
	}

	var msg walMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		slog.Error("parse wal2json payload", "err", err)
		return
	}

	for _, change := range msg.Change {
		l.publishChange(change)
	}
}

func (l *Listener) publishChange(change rowChange) {
	if change.Kind != "insert" && change.Kind != "update" {
		return
	}

	subject, tracked := l.subjects[change.Table]
	if !tracked {
		return
	}

	// Updates that already carry a vector are the embedder's own writes;
	// forwarding them would loop forever.
	if change.Kind == "update" && change.column("embedding") != nil {
		return
	}

	id := change.rowID()
	if id == 0 {
		return
	}

	event, _ := json.Marshal(map[string]interface{}{
		"table": change.Table,
		"kind":  change.Kind,
		"id":    id,
	})

	if err := l.nats.Publish(subject, event); err != nil {
		slog.Error("publish change", "err", err, "subject", subject, "table", change.Table, "id", id)
	}
}

func (l *Listener) Close(ctx context.Context) {
	if l.queryConn != nil {
		l.queryConn.Close(ctx)
	}
	if l.replConn != nil {
		l.replConn.Close(ctx)
	}
}
