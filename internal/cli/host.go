package cli

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"

	"bloodledger/internal/donation/authz"
	"bloodledger/internal/donation/metrics"
	"bloodledger/internal/donation/ports"
	"bloodledger/internal/donation/service"
	"bloodledger/internal/donation/store"
	"bloodledger/internal/platform/clock"
	"bloodledger/internal/platform/config"
	"bloodledger/internal/platform/httpserver"
	"bloodledger/internal/platform/kafka"
	"bloodledger/internal/platform/postgres"
	"bloodledger/internal/platform/redis"
	audit "bloodledger/pkg/platform/audit"
	"bloodledger/pkg/platform/audit/publisher"
	auditkafka "bloodledger/pkg/platform/audit/store/kafka"
	auditmemory "bloodledger/pkg/platform/audit/store/memory"
	auditpostgres "bloodledger/pkg/platform/audit/store/postgres"
)

const auditBufferSize = 256

// host wires one registry over the configured backends. Close releases every
// connection it opened, in reverse order.
type host struct {
	cfg      config.Config
	logger   *slog.Logger
	registry *service.Registry
	metrics  *metrics.Metrics
	gatherer prometheus.Gatherer
	checks   map[string]httpserver.HealthCheck

	// trail captures this process's audit events when none are streamed.
	trail *auditmemory.InMemoryStore
	// durable is the persisted audit trail; nil unless the backend is postgres.
	durable *auditpostgres.Store
	closers []func()
}

func openHost(ctx context.Context, cfg config.Config, logger *slog.Logger) (_ *host, err error) {
	h := &host{
		cfg:    cfg,
		logger: logger,
		checks: make(map[string]httpserver.HealthCheck),
	}
	defer func() {
		if err != nil {
			h.Close()
		}
	}()

	ledger, err := h.openLedger(ctx)
	if err != nil {
		return nil, err
	}
	auditPublisher, err := h.openAudit(ctx)
	if err != nil {
		return nil, err
	}

	reg := prometheus.NewRegistry()
	h.metrics = metrics.New(reg)
	// DefaultGatherer carries the runtime collectors and the redis retry counter.
	h.gatherer = prometheus.Gatherers{reg, prometheus.DefaultGatherer}

	h.registry, err = service.New(
		ledger,
		authz.NewAuthorizer(cfg.Approval.SigningKey, cfg.Approval.Issuer, cfg.Approval.Audience),
		clock.New(),
		service.WithLogger(logger),
		service.WithMetrics(h.metrics),
		service.WithAuditPublisher(auditPublisher),
		service.WithRetention(cfg.Retention),
	)
	if err != nil {
		return nil, err
	}
	return h, nil
}

func (h *host) openLedger(ctx context.Context) (ports.Ledger, error) {
	switch h.cfg.Backend {
	case config.BackendRedis:
		client, err := redis.New(ctx, h.cfg.Redis)
		if err != nil {
			return nil, err
		}
		h.closers = append(h.closers, func() { _ = client.Close() })
		h.checks["redis"] = client.Health
		return store.NewRedis(client.Client, store.WithRedisKey(h.cfg.Redis.Key)), nil

	case config.BackendPostgres:
		db, err := postgres.Open(ctx, h.cfg.Postgres)
		if err != nil {
			return nil, err
		}
		h.closers = append(h.closers, func() { _ = db.Close() })
		if err := postgres.Migrate(ctx, db); err != nil {
			return nil, err
		}
		h.durable = auditpostgres.New(db)
		ledger := store.NewPostgres(db)
		h.checks["postgres"] = ledger.Health
		return ledger, nil

	case config.BackendMemory:
		h.logger.WarnContext(ctx, "using in-memory instance storage; state is lost when the process exits")
		return store.NewInMemory(), nil
	}
	return nil, fmt.Errorf("unknown backend %q", h.cfg.Backend)
}

// openAudit streams events to Kafka when brokers are configured. Otherwise it
// keeps them in memory so the command can print the trail it produced, and on
// the postgres backend also appends them to the durable trail.
func (h *host) openAudit(ctx context.Context) (*publisher.Publisher, error) {
	client, err := kafka.New(h.cfg.Kafka)
	if err != nil {
		return nil, err
	}
	if client == nil {
		h.trail = auditmemory.NewInMemoryStore()
		var sink audit.Store = h.trail
		if h.durable != nil {
			sink = audit.Fanout{h.trail, h.durable}
		}
		return publisher.NewPublisher(sink, publisher.WithLogger(h.logger)), nil
	}
	h.closers = append(h.closers, client.Close)
	h.checks["kafka"] = func(ctx context.Context) error { return client.Ping(ctx) }

	if err := kafka.EnsureTopic(ctx, client, h.cfg.Kafka.AuditTopic, h.cfg.Kafka.Partitions); err != nil {
		return nil, err
	}
	p := publisher.NewPublisher(
		auditkafka.New(client, h.cfg.Kafka.AuditTopic),
		publisher.WithAsyncBuffer(auditBufferSize),
		publisher.WithLogger(h.logger),
	)
	h.closers = append(h.closers, p.Close)
	return p, nil
}

func (h *host) Close() {
	for i := len(h.closers) - 1; i >= 0; i-- {
		h.closers[i]()
	}
	h.closers = nil
}
