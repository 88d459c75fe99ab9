package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/dmitrymomot/ndavault/pkg/config"
	"github.com/dmitrymomot/ndavault/pkg/email"
	"github.com/dmitrymomot/ndavault/pkg/httpserver"
	"github.com/dmitrymomot/ndavault/pkg/jwt"
	"github.com/dmitrymomot/ndavault/pkg/logger"
	"github.com/dmitrymomot/ndavault/pkg/pg"
	"github.com/dmitrymomot/ndavault/pkg/redis"
	"github.com/dmitrymomot/ndavault/pkg/requestid"
	"github.com/dmitrymomot/ndavault/pkg/storage"
	"github.com/dmitrymomot/ndavault/svc/alerts"
	"github.com/dmitrymomot/ndavault/svc/billing/paddle"
	"github.com/dmitrymomot/ndavault/svc/plan"
)

const serviceName = "ndavault"

// appConfig holds the process-level settings. Component settings live in
// their own packages.
type appConfig struct {
	Env             string        `env:"APP_ENV" envDefault:"development"`
	MetricsAddr     string        `env:"METRICS_ADDR" envDefault:":9091"` // empty disables the metrics listener
	ProviderTimeout time.Duration `env:"PROVIDER_TIMEOUT" envDefault:"10s"`
	PlansFile       string        `env:"PLANS_FILE"` // YAML catalog replacing the built-in one

	WebhookHMACSecret string        `env:"WEBHOOK_HMAC_SECRET"` // enables /webhooks/generic
	WebhookDedupeTTL  time.Duration `env:"WEBHOOK_DEDUPE_TTL" envDefault:"72h"`
}

type settings struct {
	App     appConfig
	DB      pg.Config
	Redis   redis.Config
	HTTP    httpserver.Config
	JWT     jwt.Config
	Storage storage.Config
	Email   email.Config
	Paddle  paddle.Config
	Alerts  alerts.Config
}

// loadSettings reads every section and reports all failures at once.
func loadSettings() (settings, error) {
	var s settings
	err := errors.Join(
		config.Load(&s.App),
		config.Load(&s.DB),
		config.Load(&s.Redis),
		config.Load(&s.HTTP),
		config.Load(&s.JWT),
		config.Load(&s.Storage),
		config.Load(&s.Email),
		config.Load(&s.Paddle),
		config.Load(&s.Alerts),
	)
	return s, err
}

func newLogger(env string) *slog.Logger {
	return logger.New(
		logger.WithEnvironment(env, serviceName),
		logger.WithContextExtractors(requestid.LoggerExtractor(), jwt.LoggerExtractor()),
	)
}

// loadCatalog returns the built-in catalog unless path points to a YAML file.
func loadCatalog(path string) (*plan.Catalog, error) {
	if path == "" {
		return plan.Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read plan catalog: %w", err)
	}
	return plan.Parse(data)
}
