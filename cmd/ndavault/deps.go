package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	goredis "github.com/redis/go-redis/v9"

	"github.com/dmitrymomot/ndavault/modules/api"
	"github.com/dmitrymomot/ndavault/pkg/email"
	"github.com/dmitrymomot/ndavault/pkg/jwt"
	"github.com/dmitrymomot/ndavault/pkg/metrics"
	"github.com/dmitrymomot/ndavault/pkg/pg"
	"github.com/dmitrymomot/ndavault/pkg/redis"
	"github.com/dmitrymomot/ndavault/pkg/storage"
	webhooksig "github.com/dmitrymomot/ndavault/pkg/webhook"
	"github.com/dmitrymomot/ndavault/svc/agreement"
	"github.com/dmitrymomot/ndavault/svc/alerts"
	"github.com/dmitrymomot/ndavault/svc/billing/paddle"
	"github.com/dmitrymomot/ndavault/svc/entitlement"
	"github.com/dmitrymomot/ndavault/svc/subscription"
	"github.com/dmitrymomot/ndavault/svc/webhook"
)

// infra owns the external connections shared by every command.
type infra struct {
	pool  *pgxpool.Pool
	redis *goredis.Client // nil when REDIS_URL is unset
}

func connectInfra(ctx context.Context, s settings, log *slog.Logger, withRedis bool) (*infra, error) {
	pool, err := pg.Connect(ctx, s.DB)
	if err != nil {
		return nil, err
	}
	in := &infra{pool: pool}

	if withRedis && s.Redis.Enabled() {
		client, err := redis.Connect(ctx, s.Redis)
		if err != nil {
			pool.Close()
			return nil, err
		}
		in.redis = client
	} else if withRedis {
		log.WarnContext(ctx, "redis disabled: webhook deduplication and the alert run lock are off")
	}
	return in, nil
}

func (in *infra) Close() error {
	var err error
	if in.redis != nil {
		err = in.redis.Close()
	}
	in.pool.Close()
	return err
}

// runtime is everything serve needs once wired.
type runtime struct {
	handler   http.Handler
	scheduler *alerts.Scheduler // nil when the in-process schedule is disabled
	registry  *prometheus.Registry
}

func newRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

func buildRuntime(ctx context.Context, s settings, in *infra, log *slog.Logger) (*runtime, error) {
	catalog, err := loadCatalog(s.App.PlansFile)
	if err != nil {
		return nil, err
	}
	resolver := entitlement.NewResolver(catalog)

	tokens, err := jwt.New(s.JWT)
	if err != nil {
		return nil, fmt.Errorf("jwt: %w", err)
	}
	billing, err := paddle.New(s.Paddle)
	if err != nil {
		return nil, fmt.Errorf("paddle: %w", err)
	}
	files, err := storage.NewS3(ctx, s.Storage)
	if err != nil {
		return nil, fmt.Errorf("storage: %w", err)
	}
	sender, err := email.New(s.Email, log)
	if err != nil {
		return nil, fmt.Errorf("email: %w", err)
	}

	reg := newRegistry()
	httpMetrics := metrics.NewHTTP(reg)

	subStore := subscription.NewPostgresStore(in.pool, s.DB.QueryTimeout)
	agrStore := agreement.NewPostgresStore(in.pool)

	subs := subscription.NewService(subStore, billing, catalog,
		subscription.WithLogger(log),
		subscription.WithProviderTimeout(s.App.ProviderTimeout),
	)
	agreements := agreement.NewService(agrStore, files, subStore, resolver, agreement.WithLogger(log))

	dispatcherOpts := []webhook.DispatcherOption{
		webhook.WithLogger(log),
		webhook.WithMetrics(metrics.NewWebhook(reg)),
	}
	var lock alerts.Lock
	if in.redis != nil {
		keys := redis.NewKeyStore(in.redis)
		guard, err := webhook.NewIdempotencyGuard(keys, "webhook", s.App.WebhookDedupeTTL)
		if err != nil {
			return nil, err
		}
		dispatcherOpts = append(dispatcherOpts, webhook.WithIdempotencyGuard(guard))
		if lock, err = alerts.NewRedisLock(keys); err != nil {
			return nil, err
		}
	}
	dispatcher := webhook.NewDispatcher(subStore, dispatcherOpts...)

	sources := []api.WebhookSource{{Name: "paddle", Parser: billing, SignatureHeader: paddle.SignatureHeader}}
	if s.App.WebhookHMACSecret != "" {
		sources = append(sources, api.WebhookSource{
			Name:            "generic",
			Parser:          webhook.NewHMACParser(s.App.WebhookHMACSecret),
			SignatureHeader: webhooksig.SignatureHeader,
		})
	}

	job := alerts.NewJob(agrStore, subStore, resolver,
		alerts.WithJobLogger(log),
		alerts.WithSiteURL(s.Alerts.SiteURL),
		alerts.WithRequirePro(s.Alerts.RequirePro),
	)
	deliverer := alerts.NewDeliverer(sender, log)

	var scheduler *alerts.Scheduler
	if s.Alerts.SchedulerEnabled {
		opts := []alerts.SchedulerOption{
			alerts.WithSchedulerLogger(log),
			alerts.WithSchedulerMetrics(metrics.NewJob(reg)),
		}
		if lock != nil {
			opts = append(opts, alerts.WithLock(lock))
		}
		if scheduler, err = alerts.NewScheduler(job, deliverer, agreements, s.Alerts, opts...); err != nil {
			return nil, fmt.Errorf("alert scheduler: %w", err)
		}
	}

	checks := []api.Check{pg.Healthcheck(in.pool)}
	if in.redis != nil {
		checks = append(checks, redis.Healthcheck(in.redis))
	}

	eh := api.NewErrorHandler(log)
	router := api.Router(api.RouterOptions{
		Auth:          tokens,
		Metrics:       httpMetrics,
		Health:        api.NewHealth(log, checks...),
		Plans:         api.NewPlans(catalog, eh),
		Subscriptions: api.NewSubscriptions(subs, resolver, eh),
		Agreements:    api.NewAgreements(agreements, eh),
		Webhooks:      api.NewWebhooks(dispatcher, eh, sources...),
		Alerts:        api.NewAlerts(log, job, deliverer, s.Alerts, eh),
	})

	return &runtime{handler: router, scheduler: scheduler, registry: reg}, nil
}
