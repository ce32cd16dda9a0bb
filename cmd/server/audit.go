package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"

	"typeindex/internal/audit"
	auditkafka "typeindex/internal/audit/kafka"
	auditmemory "typeindex/internal/audit/store/memory"
	auditpostgres "typeindex/internal/audit/store/postgres"
	"typeindex/internal/platform/config"
)

const auditBuffer = 256

// buildAudit selects the audit store (Postgres when configured, memory
// otherwise), attaches the Kafka sink when brokers are set and starts the
// async worker. The returned func stops the worker after draining it.
func buildAudit(ctx context.Context, cfg config.Config, db *sql.DB, log *slog.Logger) (*audit.Publisher, func(), error) {
	var store audit.Store = auditmemory.NewInMemoryStore()
	if db != nil {
		pg := auditpostgres.New(db)
		if err := pg.EnsureSchema(ctx); err != nil {
			return nil, nil, err
		}
		store = pg
	}

	opts := []audit.PublisherOption{
		audit.WithPublisherLogger(log),
		audit.WithAsync(auditBuffer),
	}
	var closers []func()
	if len(cfg.Kafka.Brokers) > 0 {
		client, err := auditkafka.NewClient(cfg.Kafka.Brokers, cfg.Kafka.Topic, cfg.Kafka.ClientID)
		if err != nil {
			return nil, nil, err
		}
		closers = append(closers, client.Close)
		if err := auditkafka.EnsureTopic(ctx, client, cfg.Kafka.Topic, 1, 1); err != nil {
			client.Close()
			return nil, nil, err
		}
		sink, err := auditkafka.NewPublisher(client, cfg.Kafka.Topic)
		if err != nil {
			client.Close()
			return nil, nil, err
		}
		opts = append(opts, audit.WithSinks(sink))
	}

	publisher := audit.NewPublisher(store, opts...)

	workerCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := publisher.Worker().Run(workerCtx); err != nil && !errors.Is(err, context.Canceled) {
			log.Error("audit worker stopped", "error", err)
		}
	}()

	return publisher, func() {
		cancel()
		<-done
		for _, c := range closers {
			c()
		}
	}, nil
}
