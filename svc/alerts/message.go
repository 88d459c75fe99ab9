package alerts

import (
	"context"
	"fmt"
	"strings"

	"github.com/dmitrymomot/ndavault/pkg/email/templates"
	"github.com/dmitrymomot/ndavault/svc/agreement"
)

type item struct {
	counterparty string
	expires      string
}

type message struct {
	items   []item
	horizon int
	siteURL string
}

func compose(list []agreement.Agreement, horizon int, siteURL string) message {
	items := make([]item, 0, len(list))
	for _, a := range list {
		items = append(items, item{
			counterparty: a.CounterpartyName,
			expires:      a.ExpirationDate.UTC().Format("1/2/2006"),
		})
	}
	return message{items: items, horizon: horizon, siteURL: siteURL}
}

// subject reads "⚠️ 1 NDA expires in 30 days" or "⚠️ 3 NDAs expires in 30 days".
func (m message) subject() string {
	noun := "NDA"
	if len(m.items) > 1 {
		noun = "NDAs"
	}
	return fmt.Sprintf("⚠️ %d %s expires in %d days", len(m.items), noun, m.horizon)
}

func (m message) dashboardURL() string {
	return m.siteURL + "/dashboard"
}

func (m message) text() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Hi,\n\nYour NDAVault dashboard shows that you have %d agreement(s) expiring in %d days:\n\n", len(m.items), m.horizon)
	for i, it := range m.items {
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "• %s - expires on %s", it.counterparty, it.expires)
	}
	fmt.Fprintf(&b, "\n\n→ View Details: %s\n\nNeed help? Reply to this email.\n\nBest,\nNDAVault Team", m.dashboardURL())
	return b.String()
}

func (m message) html(ctx context.Context) (string, error) {
	return templates.Render(ctx, expiryEmail(m))
}
