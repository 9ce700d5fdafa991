package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	goredis "github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"flightsurety/internal/gate"
	jwttoken "flightsurety/internal/jwt_token"
	"flightsurety/internal/ledger/service"
	"flightsurety/internal/ledger/shard"
	"flightsurety/internal/ledger/store"
	"flightsurety/internal/notify"
	"flightsurety/internal/payout"
	"flightsurety/internal/platform/config"
	"flightsurety/internal/platform/httpserver"
	"flightsurety/internal/platform/kafka"
	"flightsurety/internal/platform/metrics"
	"flightsurety/internal/platform/nats"
	"flightsurety/internal/platform/postgres"
	"flightsurety/internal/platform/ratelimit"
	"flightsurety/internal/platform/redis"
	httptransport "flightsurety/internal/transport/http"
	"flightsurety/pkg/domain"
	dErrors "flightsurety/pkg/domain-errors"
)

const (
	shutdownTimeout = 10 * time.Second
	kafkaPartitions = 3
)

// accessGate is what the ledger checks and the admin routes change.
type accessGate interface {
	service.AccessGate
	httptransport.GateAdmin
}

type resources struct {
	closers []func()
}

func (r *resources) onClose(fn func()) {
	r.closers = append(r.closers, fn)
}

func (r *resources) close() {
	for i := len(r.closers) - 1; i >= 0; i-- {
		r.closers[i]()
	}
}

func run(ctx context.Context, cfg config.Server, log *slog.Logger) error {
	res := &resources{}
	defer res.close()
	m := metrics.New()

	rdb, err := redis.Open(ctx, cfg.Redis)
	if err != nil {
		return err
	}
	if rdb != nil {
		res.onClose(func() { _ = rdb.Close() })
	}

	g, err := buildGate(ctx, cfg, rdb)
	if err != nil {
		return err
	}
	accounts, err := buildAccounts(ctx, cfg, res)
	if err != nil {
		return err
	}
	hub := notify.NewHub(cfg.Notify.StreamBuffer)
	workers, publisher, err := buildNotifications(ctx, cfg, log, m, rdb, hub, res)
	if err != nil {
		return err
	}

	svc := service.New(store.New(), g, accounts,
		service.WithLogger(log),
		service.WithMetrics(m),
		service.WithPublisher(publisher),
		service.WithShardSource(shard.NewNonceSource([]byte(cfg.ShardSeed))),
	)
	if err := bootstrap(ctx, cfg, svc, log); err != nil {
		return err
	}

	tokens := jwttoken.NewJWTService(cfg.JWTSigningKey, jwttoken.DefaultIssuer, jwttoken.DefaultAudience)
	opts := []httptransport.Option{httptransport.WithEventStream(hub)}
	if limiter := buildLimiter(cfg, rdb); limiter != nil {
		policy := ratelimit.Policy{Limit: cfg.RateLimit.Limit, Window: cfg.RateLimit.Window}
		opts = append(opts, httptransport.WithRateLimit(ratelimit.Middleware(limiter, policy, log, m)))
	}
	h := httptransport.New(svc, g, log, m, jwttoken.NewJWTServiceAdapter(tokens), cfg.AdminToken, opts...)
	srv := httpserver.New(cfg.Addr, httptransport.NewRouter(h, promhttp.Handler()))

	eg, egCtx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		log.Info("starting flightsurety ledger", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	eg.Go(func() error {
		<-egCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("graceful shutdown: %w", err)
		}
		// Deliver what the last requests queued.
		for _, w := range workers {
			w.Drain(shutdownCtx)
		}
		// Shutdown does not wait for hijacked stream connections.
		hub.Close()
		return nil
	})
	for _, w := range workers {
		eg.Go(func() error {
			if err := w.Run(egCtx); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		})
	}
	return eg.Wait()
}

// buildGate picks the Redis allow-list when Redis is configured and seeds it
// with AUTHORIZED_CLIENTS.
func buildGate(ctx context.Context, cfg config.Server, rdb *goredis.Client) (accessGate, error) {
	var g accessGate = gate.NewMemory()
	if rdb != nil {
		g = gate.NewRedis(rdb, cfg.Redis.KeyPrefix)
	}
	for _, raw := range cfg.AuthorizedClients {
		client, err := domain.ParseAddress(raw)
		if err != nil {
			return nil, fmt.Errorf("AUTHORIZED_CLIENTS %q: %w", raw, err)
		}
		if err := g.Authorize(ctx, client); err != nil {
			return nil, fmt.Errorf("authorize client %s: %w", client, err)
		}
	}
	return g, nil
}

// buildLimiter shares windows through Redis when it is configured. It returns
// nil when rate limiting is disabled.
func buildLimiter(cfg config.Server, rdb *goredis.Client) ratelimit.Limiter {
	if cfg.RateLimit.Disabled {
		return nil
	}
	if rdb != nil {
		return ratelimit.NewRedis(rdb, cfg.Redis.KeyPrefix+"ratelimit:")
	}
	return ratelimit.NewMemory()
}

func buildAccounts(ctx context.Context, cfg config.Server, res *resources) (service.AccountLedger, error) {
	db, err := postgres.Open(ctx, cfg.Postgres)
	if err != nil {
		return nil, err
	}
	if db == nil {
		return payout.NewMemory(), nil
	}
	res.onClose(func() { _ = db.Close() })
	ledger := payout.NewPostgres(db)
	if err := ledger.Migrate(ctx); err != nil {
		return nil, err
	}
	return ledger, nil
}

// buildNotifications gives every sink its own outbox and worker so a slow
// sink cannot hold back the others.
func buildNotifications(
	ctx context.Context,
	cfg config.Server,
	log *slog.Logger,
	m *metrics.Metrics,
	rdb *goredis.Client,
	hub *notify.Hub,
	res *resources,
) ([]*notify.Worker, notify.Publisher, error) {
	sinks := []notify.Sink{notify.NewLogSink(log), hub}
	if rdb != nil {
		sinks = append(sinks, notify.NewRedisSink(rdb, cfg.Notify.ChannelPrefix))
	}

	kc, err := kafka.Open(ctx, cfg.Kafka)
	if err != nil {
		return nil, nil, err
	}
	if kc != nil {
		res.onClose(kc.Close)
		if err := notify.EnsureTopic(ctx, kc, cfg.Kafka.Topic, kafkaPartitions); err != nil {
			return nil, nil, err
		}
		sinks = append(sinks, notify.NewKafkaSink(kc, cfg.Kafka.Topic))
	}

	nc, err := nats.Open(cfg.NATS)
	if err != nil {
		return nil, nil, err
	}
	if nc != nil {
		res.onClose(func() { _ = nc.Drain() })
		sinks = append(sinks, notify.NewNATSSink(nc, cfg.NATS.SubjectPrefix))
	}

	var (
		workers []*notify.Worker
		fanout  notify.Fanout
	)
	for _, sink := range sinks {
		outbox := notify.NewOutbox(cfg.Notify.OutboxCapacity)
		workers = append(workers, notify.NewWorker(outbox, sink,
			notify.WithWorkerLogger(log),
			notify.WithWorkerMetrics(m),
			notify.WithPollInterval(cfg.Notify.PollInterval),
		))
		fanout = append(fanout, outbox)
	}
	return workers, fanout, nil
}

func bootstrap(ctx context.Context, cfg config.Server, svc *service.Service, log *slog.Logger) error {
	if cfg.GenesisAirline == "" {
		log.Warn("GENESIS_AIRLINE not set; the ledger has no members")
		return nil
	}
	genesis, err := domain.ParseAddress(cfg.GenesisAirline)
	if err != nil {
		return fmt.Errorf("GENESIS_AIRLINE: %w", err)
	}
	airline, err := svc.Bootstrap(ctx, genesis)
	if err != nil && !dErrors.HasCode(err, dErrors.CodeConflict) {
		return fmt.Errorf("bootstrap genesis airline: %w", err)
	}
	log.Info("genesis airline ready", "airline", genesis, "id", airline.ID)
	return nil
}
