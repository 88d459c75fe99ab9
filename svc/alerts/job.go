package alerts

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/dmitrymomot/ndavault/pkg/logger"
	"github.com/dmitrymomot/ndavault/svc/agreement"
	"github.com/dmitrymomot/ndavault/svc/entitlement"
	"github.com/dmitrymomot/ndavault/svc/plan"
	"github.com/dmitrymomot/ndavault/svc/subscription"
)

// DefaultHorizonDays is how far ahead of expiration users are reminded.
const DefaultHorizonDays = 30

// AgreementSource selects agreements due for a reminder.
type AgreementSource interface {
	DueForAlert(ctx context.Context, date time.Time) ([]agreement.Agreement, error)
}

// SubscriptionReader supplies recipients and entitlement state.
type SubscriptionReader interface {
	Get(ctx context.Context, userID string) (*subscription.Subscription, error)
}

// Params selects the run. Zero values mean a 30-day horizon as of today.
type Params struct {
	HorizonDays int
	AsOf        time.Time
}

// EmailPreview is one planned message.
type EmailPreview struct {
	To              string `json:"to"`
	Subject         string `json:"subject"`
	Body            string `json:"body"`
	AgreementsCount int    `json:"agreementsCount"`

	UserID string `json:"-"`
	HTML   string `json:"-"`
}

// Result is the plan produced by Job.Run.
type Result struct {
	AgreementsFound       int            `json:"agreementsFound"`
	UniqueUsers           int            `json:"uniqueUsers"`
	EmailsThatWouldBeSent int            `json:"emailsThatWouldBeSent"`
	EmailPreviews         []EmailPreview `json:"emailPreviews"`
	SkippedUsers          int            `json:"skippedUsers"`
	UsersWithoutEmail     int            `json:"usersWithoutEmail"`
	TargetDate            string         `json:"targetDate"`
	Message               string         `json:"message,omitempty"`
	Timestamp             time.Time      `json:"timestamp"`
}

// Job builds alert plans.
type Job struct {
	agreements AgreementSource
	subs       SubscriptionReader
	resolver   *entitlement.Resolver
	siteURL    string
	requirePro bool
	now        func() time.Time
	log        *slog.Logger
}

// JobOption configures a Job.
type JobOption func(*Job)

func WithJobLogger(l *slog.Logger) JobOption {
	return func(j *Job) {
		if l != nil {
			j.log = l
		}
	}
}

func WithSiteURL(u string) JobOption {
	return func(j *Job) {
		if u != "" {
			j.siteURL = strings.TrimSuffix(u, "/")
		}
	}
}

// WithRequirePro toggles the automatic-alerts entitlement check. On by default.
func WithRequirePro(on bool) JobOption {
	return func(j *Job) { j.requirePro = on }
}

func WithJobClock(now func() time.Time) JobOption {
	return func(j *Job) {
		if now != nil {
			j.now = now
		}
	}
}

// NewJob panics if a dependency is nil.
func NewJob(agreements AgreementSource, subs SubscriptionReader, resolver *entitlement.Resolver, opts ...JobOption) *Job {
	if agreements == nil || subs == nil || resolver == nil {
		panic("alerts: agreement source, subscription reader and resolver are required")
	}
	j := &Job{
		agreements: agreements,
		subs:       subs,
		resolver:   resolver,
		siteURL:    "https://ndavault.vercel.app",
		requirePro: true,
		now:        time.Now,
		log:        logger.Nop(),
	}
	for _, opt := range opts {
		opt(j)
	}
	j.log = j.log.With(logger.Component("alerts"))
	return j
}

// Run plans reminders for agreements expiring exactly p.HorizonDays after
// p.AsOf. Matches are grouped per user in order of first appearance.
func (j *Job) Run(ctx context.Context, p Params) (*Result, error) {
	if p.HorizonDays == 0 {
		p.HorizonDays = DefaultHorizonDays
	}
	if p.HorizonDays < 0 {
		return nil, ErrInvalidHorizon
	}
	now := j.now()
	if p.AsOf.IsZero() {
		p.AsOf = now
	}
	target := agreement.Date(p.AsOf).AddDate(0, 0, p.HorizonDays)

	due, err := j.agreements.DueForAlert(ctx, target)
	if err != nil {
		return nil, err
	}

	var order []string
	groups := make(map[string][]agreement.Agreement)
	for _, a := range due {
		if _, ok := groups[a.UserID]; !ok {
			order = append(order, a.UserID)
		}
		groups[a.UserID] = append(groups[a.UserID], a)
	}

	res := &Result{
		AgreementsFound: len(due),
		UniqueUsers:     len(order),
		EmailPreviews:   make([]EmailPreview, 0, len(order)),
		TargetDate:      target.Format(time.DateOnly),
		Timestamp:       now.UTC(),
	}
	if len(due) == 0 {
		res.Message = "No agreements require alerts today"
	}

	for _, userID := range order {
		sub, err := j.subscription(ctx, userID)
		if err != nil {
			return nil, err
		}
		if j.requirePro && !j.resolver.HasFeature(sub, plan.FeatureAutomaticAlerts) {
			res.SkippedUsers++
			j.log.InfoContext(ctx, "alert skipped, user not entitled", logger.UserID(userID))
			continue
		}
		if sub.Email == "" {
			res.UsersWithoutEmail++
			j.log.WarnContext(ctx, "alert skipped, no e-mail address on record", logger.UserID(userID))
			continue
		}

		msg := compose(groups[userID], p.HorizonDays, j.siteURL)
		html, err := msg.html(ctx)
		if err != nil {
			return nil, err
		}

		res.EmailPreviews = append(res.EmailPreviews, EmailPreview{
			To:              sub.Email,
			Subject:         msg.subject(),
			Body:            msg.text(),
			AgreementsCount: len(msg.items),
			UserID:          userID,
			HTML:            html,
		})
	}
	res.EmailsThatWouldBeSent = len(res.EmailPreviews)

	j.log.InfoContext(ctx, "alert plan built",
		slog.String("target_date", res.TargetDate),
		logger.Count("agreements", res.AgreementsFound),
		logger.Count("emails", res.EmailsThatWouldBeSent),
		logger.Count("skipped_users", res.SkippedUsers),
		logger.Count("users_without_email", res.UsersWithoutEmail),
	)
	return res, nil
}

func (j *Job) subscription(ctx context.Context, userID string) (*subscription.Subscription, error) {
	sub, err := j.subs.Get(ctx, userID)
	if errors.Is(err, subscription.ErrNotFound) {
		return subscription.Default(userID), nil
	}
	return sub, err
}
