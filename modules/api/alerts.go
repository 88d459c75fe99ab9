package api

import (
	"context"
	"crypto/subtle"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/dmitrymomot/ndavault/binder"
	"github.com/dmitrymomot/ndavault/handler"
	"github.com/dmitrymomot/ndavault/pkg/logger"
	"github.com/dmitrymomot/ndavault/svc/alerts"
)

// CronSecretHeader authenticates manual and scheduled alert runs.
const CronSecretHeader = "X-Cron-Secret"

// AlertPlanner builds the alert plan.
type AlertPlanner interface {
	Run(ctx context.Context, p alerts.Params) (*alerts.Result, error)
}

// AlertDeliverer sends a plan.
type AlertDeliverer interface {
	Deliver(ctx context.Context, res *alerts.Result) (alerts.Report, error)
}

// Alerts serves the manual trigger of the alert batch job.
type Alerts struct {
	planner      AlertPlanner
	deliverer    AlertDeliverer
	secret       string
	horizon      int
	now          func() time.Time
	log          *slog.Logger
	errorHandler handler.ErrorHandler[handler.Context]
}

// NewAlerts panics without a planner. A nil deliverer makes send=true a
// no-op report. An empty secret rejects every run.
func NewAlerts(log *slog.Logger, planner AlertPlanner, deliverer AlertDeliverer, cfg alerts.Config, eh handler.ErrorHandler[handler.Context]) *Alerts {
	if planner == nil {
		panic("api: alert planner is required")
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Alerts{
		planner:      planner,
		deliverer:    deliverer,
		secret:       cfg.CronSecret,
		horizon:      cfg.HorizonDays,
		now:          time.Now,
		log:          log.With(logger.Component("alerts_api")),
		errorHandler: eh,
	}
}

func (a *Alerts) Handle() http.Handler {
	r := chi.NewRouter()
	r.Get("/run", wrap(a.info, a.errorHandler))
	r.Post("/run", wrap(a.run, a.errorHandler, binder.BindQuery()))
	return r
}

type alertsInfo struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Usage     string    `json:"usage"`
}

func (a *Alerts) info(_ handler.Context, _ struct{}) handler.Response {
	return handler.JSON(alertsInfo{
		Status:    "Email alert API is running",
		Timestamp: a.now().UTC(),
		Usage:     "POST /alerts/run to trigger manual email sending",
	})
}

// RunRequest tunes a manual run. Send delivers the plan instead of only
// previewing it.
type RunRequest struct {
	Send    bool   `query:"send"`
	Horizon int    `query:"horizon"`
	AsOf    string `query:"as_of"`
}

type runResponse struct {
	*alerts.Result
	Delivery *alerts.Report `json:"delivery,omitempty"`
}

func (a *Alerts) run(ctx handler.Context, req RunRequest) handler.Response {
	if !a.authorized(ctx.Request()) {
		return handler.JSONError(ErrInvalidCronSecret)
	}

	params := alerts.Params{HorizonDays: a.horizon, AsOf: a.now()}
	if req.Horizon != 0 {
		params.HorizonDays = req.Horizon
	}
	if req.AsOf != "" {
		asOf, err := time.Parse(time.DateOnly, req.AsOf)
		if err != nil {
			return handler.JSONError(ErrInvalidAsOf)
		}
		params.AsOf = asOf
	}

	res, err := a.planner.Run(ctx, params)
	if err != nil {
		return handler.JSONError(err)
	}

	resp := runResponse{Result: res}
	if req.Send && a.deliverer != nil {
		// Partial failures are reported in the counts; the plan is still returned.
		report, err := a.deliverer.Deliver(ctx, res)
		if err != nil {
			a.log.ErrorContext(ctx, "manual alert delivery failed",
				logger.Error(err),
				slog.Int("sent", report.Sent),
				slog.Int("failed", report.Failed),
			)
		}
		resp.Delivery = &report
	}
	return handler.JSON(resp)
}

// authorized accepts the secret in X-Cron-Secret or as a bearer token.
func (a *Alerts) authorized(r *http.Request) bool {
	if a.secret == "" {
		return false
	}
	got := r.Header.Get(CronSecretHeader)
	if got == "" {
		if scheme, token, ok := strings.Cut(r.Header.Get("Authorization"), " "); ok && strings.EqualFold(scheme, "Bearer") {
			got = strings.TrimSpace(token)
		}
	}
	return subtle.ConstantTimeCompare([]byte(got), []byte(a.secret)) == 1
}
