package alerts_test

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/ndavault/svc/agreement"
	"github.com/dmitrymomot/ndavault/svc/alerts"
	"github.com/dmitrymomot/ndavault/svc/entitlement"
	"github.com/dmitrymomot/ndavault/svc/plan"
	"github.com/dmitrymomot/ndavault/svc/subscription"
)

var asOf = time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)

type fixture struct {
	agreements *agreement.MemoryStore
	subs       *subscription.MemoryStore
	job        *alerts.Job
}

func newFixture(t *testing.T, opts ...alerts.JobOption) *fixture {
	t.Helper()
	f := &fixture{
		agreements: agreement.NewMemoryStore(),
		subs:       subscription.NewMemoryStore(),
	}
	opts = append([]alerts.JobOption{
		alerts.WithSiteURL("https://app.example.com/"),
		alerts.WithJobClock(func() time.Time { return asOf }),
	}, opts...)
	f.job = alerts.NewJob(f.agreements, f.subs, entitlement.NewResolver(plan.Default()), opts...)
	return f
}

func (f *fixture) pro(userID, email string) {
	ext := "sub_" + userID
	f.subs.Seed(&subscription.Subscription{
		UserID:     userID,
		Email:      email,
		ExternalID: &ext,
		PlanType:   plan.Pro,
		Status:     subscription.StatusActive,
	})
}

func (f *fixture) add(t *testing.T, userID, counterparty string, daysOut int, alert bool) {
	t.Helper()
	require.NoError(t, f.agreements.Create(context.Background(), &agreement.Agreement{
		UserID:           userID,
		CounterpartyName: counterparty,
		ExpirationDate:   agreement.Date(asOf).AddDate(0, 0, daysOut),
		Status:           agreement.StatusActive,
		AlertEnabled:     alert,
	}))
}

func TestRunSelectsExactHorizon(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.pro("user_1", "ann@example.com")
	f.add(t, "user_1", "Acme", 30, true)
	f.add(t, "user_1", "Globex", 31, true)
	f.add(t, "user_1", "Initech", 29, true)
	f.add(t, "user_1", "Umbrella", 30, false)

	res, err := f.job.Run(context.Background(), alerts.Params{AsOf: asOf})
	require.NoError(t, err)

	assert.Equal(t, 1, res.AgreementsFound)
	assert.Equal(t, 1, res.UniqueUsers)
	assert.Equal(t, 1, res.EmailsThatWouldBeSent)
	assert.Equal(t, "2025-07-01", res.TargetDate)
	require.Len(t, res.EmailPreviews, 1)

	p := res.EmailPreviews[0]
	assert.Equal(t, "ann@example.com", p.To)
	assert.Equal(t, "⚠️ 1 NDA expires in 30 days", p.Subject)
	assert.Equal(t, 1, p.AgreementsCount)
	assert.Equal(t, "Hi,\n\n"+
		"Your NDAVault dashboard shows that you have 1 agreement(s) expiring in 30 days:\n\n"+
		"• Acme - expires on 7/1/2025\n\n"+
		"→ View Details: https://app.example.com/dashboard\n\n"+
		"Need help? Reply to this email.\n\n"+
		"Best,\nNDAVault Team", p.Body)
	assert.Contains(t, p.HTML, "<strong>Acme</strong>")
}

func TestRunGroupsAndPluralizes(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.pro("user_1", "ann@example.com")
	f.pro("user_2", "")
	f.add(t, "user_1", "Acme", 30, true)
	f.add(t, "user_2", "Hooli", 30, true)
	f.add(t, "user_1", "Globex", 30, true)

	res, err := f.job.Run(context.Background(), alerts.Params{})
	require.NoError(t, err)

	assert.Equal(t, 3, res.AgreementsFound)
	assert.Equal(t, 2, res.UniqueUsers)
	require.Len(t, res.EmailPreviews, 1)

	first := res.EmailPreviews[0]
	assert.Equal(t, "ann@example.com", first.To)
	assert.Equal(t, "⚠️ 2 NDAs expires in 30 days", first.Subject)
	assert.Equal(t, 2, first.AgreementsCount)
	assert.Contains(t, first.Body, "• Acme - expires on 7/1/2025\n• Globex - expires on 7/1/2025")

	assert.Equal(t, 1, res.UsersWithoutEmail)
	assert.Zero(t, res.SkippedUsers)
	assert.Equal(t, 1, res.EmailsThatWouldBeSent)
}

func TestRunSingularSubject(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.pro("user_1", "ann@example.com")
	f.add(t, "user_1", "Hooli", 30, true)

	res, err := f.job.Run(context.Background(), alerts.Params{})
	require.NoError(t, err)
	require.Len(t, res.EmailPreviews, 1)
	assert.Equal(t, "⚠️ 1 NDA expires in 30 days", res.EmailPreviews[0].Subject)
}

func TestRunWithoutEmailNeverReachesSender(t *testing.T) {
	t.Parallel()

	f := newFixture(t, alerts.WithRequirePro(false))
	f.add(t, "user_free", "Hooli", 30, true)

	res, err := f.job.Run(context.Background(), alerts.Params{})
	require.NoError(t, err)
	assert.Equal(t, 1, res.AgreementsFound)
	assert.Equal(t, 1, res.UsersWithoutEmail)
	assert.Empty(t, res.EmailPreviews)

	sender := &recordingSender{}
	rep, err := alerts.NewDeliverer(sender, nil).Deliver(context.Background(), res)
	require.NoError(t, err)
	assert.Zero(t, rep.Sent)
	assert.Zero(t, rep.Failed)
}

func TestRunGatesOnEntitlement(t *testing.T) {
	t.Parallel()

	t.Run("free users are skipped", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		f.pro("user_1", "ann@example.com")
		f.add(t, "user_1", "Acme", 30, true)
		f.add(t, "user_free", "Hooli", 30, true)

		res, err := f.job.Run(context.Background(), alerts.Params{AsOf: asOf})
		require.NoError(t, err)
		assert.Equal(t, 2, res.UniqueUsers)
		assert.Equal(t, 1, res.EmailsThatWouldBeSent)
		assert.Equal(t, 1, res.SkippedUsers)
	})

	t.Run("gate disabled", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t, alerts.WithRequirePro(false))
		f.subs.Seed(&subscription.Subscription{
			UserID:   "user_free",
			Email:    "free@example.com",
			PlanType: plan.Free,
			Status:   subscription.StatusActive,
		})
		f.add(t, "user_free", "Hooli", 30, true)

		res, err := f.job.Run(context.Background(), alerts.Params{AsOf: asOf})
		require.NoError(t, err)
		assert.Equal(t, 1, res.EmailsThatWouldBeSent)
		assert.Zero(t, res.SkippedUsers)
	})
}

func TestRunCustomHorizon(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.pro("user_1", "ann@example.com")
	f.add(t, "user_1", "Acme", 7, true)

	res, err := f.job.Run(context.Background(), alerts.Params{AsOf: asOf, HorizonDays: 7})
	require.NoError(t, err)
	require.Len(t, res.EmailPreviews, 1)
	assert.Equal(t, "⚠️ 1 NDA expires in 7 days", res.EmailPreviews[0].Subject)

	_, err = f.job.Run(context.Background(), alerts.Params{HorizonDays: -1})
	require.ErrorIs(t, err, alerts.ErrInvalidHorizon)
}

func TestRunEmptyResultJSON(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	res, err := f.job.Run(context.Background(), alerts.Params{AsOf: asOf})
	require.NoError(t, err)

	raw, err := json.Marshal(res)
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal(raw, &got))
	assert.Equal(t, float64(0), got["agreementsFound"])
	assert.Equal(t, []any{}, got["emailPreviews"])
	assert.Equal(t, "No agreements require alerts today", got["message"])
	assert.Contains(t, got, "timestamp")
}

func TestHTMLEscapesCounterparty(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.pro("user_1", "ann@example.com")
	f.add(t, "user_1", "<script>Evil</script>", 30, true)

	res, err := f.job.Run(context.Background(), alerts.Params{AsOf: asOf})
	require.NoError(t, err)
	require.Len(t, res.EmailPreviews, 1)
	html := res.EmailPreviews[0].HTML
	assert.NotContains(t, html, "<script>")
	assert.Contains(t, html, "<strong>&lt;script&gt;Evil&lt;/script&gt;</strong> - expires on 7/1/2025")
	assert.Contains(t, res.EmailPreviews[0].Body, "<script>Evil</script>")
}

func TestHTMLLayout(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.pro("user_1", "ann@example.com")
	f.add(t, "user_1", "Acme", 30, true)
	f.add(t, "user_1", "Globex", 30, true)

	res, err := f.job.Run(context.Background(), alerts.Params{AsOf: asOf})
	require.NoError(t, err)
	require.Len(t, res.EmailPreviews, 1)

	html := res.EmailPreviews[0].HTML
	assert.True(t, strings.HasPrefix(html, "<!doctype html><html>"))
	assert.Contains(t, html, "you have 2 agreement(s) expiring in 30 days:</p><ul>")
	assert.Equal(t, 2, strings.Count(html, "<li>"))
	assert.Contains(t, html, `<a href="https://app.example.com/dashboard" style="color:#2563eb;">View Details</a>`)
	assert.True(t, strings.HasSuffix(html, "</body></html>"))
}
