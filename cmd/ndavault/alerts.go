package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/dmitrymomot/ndavault/pkg/config"
	"github.com/dmitrymomot/ndavault/pkg/email"
	"github.com/dmitrymomot/ndavault/svc/agreement"
	"github.com/dmitrymomot/ndavault/svc/alerts"
	"github.com/dmitrymomot/ndavault/svc/entitlement"
	"github.com/dmitrymomot/ndavault/svc/subscription"
)

type alertsRunFlags struct {
	horizon int
	asOf    string
	send    bool
}

func newAlertsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "alerts",
		Short: "Expiration alert job",
	}
	cmd.AddCommand(newAlertsRunCmd())
	return cmd
}

func newAlertsRunCmd() *cobra.Command {
	var f alertsRunFlags
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Plan expiration alerts once and print the result as JSON",
		Long: `Plans the alerts for agreements expiring exactly --horizon days after --as-of.
Nothing is sent unless --send is given.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			asOf, err := parseAsOf(f.asOf, time.Now())
			if err != nil {
				return err
			}

			var s settings
			if err := errors.Join(
				config.Load(&s.App),
				config.Load(&s.DB),
				config.Load(&s.Alerts),
				config.Load(&s.Email),
			); err != nil {
				return err
			}
			log := newLogger(s.App.Env)

			catalog, err := loadCatalog(s.App.PlansFile)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			in, err := connectInfra(ctx, s, log, false)
			if err != nil {
				return err
			}
			defer in.Close()

			job := alerts.NewJob(
				agreement.NewPostgresStore(in.pool),
				subscription.NewPostgresStore(in.pool, s.DB.QueryTimeout),
				entitlement.NewResolver(catalog),
				alerts.WithJobLogger(log),
				alerts.WithSiteURL(s.Alerts.SiteURL),
				alerts.WithRequirePro(s.Alerts.RequirePro),
			)

			horizon := s.Alerts.HorizonDays
			if cmd.Flags().Changed("horizon") {
				horizon = f.horizon
			}
			res, err := job.Run(ctx, alerts.Params{HorizonDays: horizon, AsOf: asOf})
			if err != nil {
				return err
			}

			out := struct {
				*alerts.Result
				Delivery *alerts.Report `json:"delivery,omitempty"`
			}{Result: res}

			var sendErr error
			if f.send {
				sender, err := email.New(s.Email, log)
				if err != nil {
					return err
				}
				report, err := alerts.NewDeliverer(sender, log).Deliver(ctx, res)
				out.Delivery = &report
				sendErr = err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			if err := enc.Encode(out); err != nil {
				return err
			}
			return sendErr
		},
	}
	cmd.Flags().IntVar(&f.horizon, "horizon", 30, "days ahead of --as-of to look for expirations (default from ALERT_HORIZON_DAYS)")
	cmd.Flags().StringVar(&f.asOf, "as-of", "", "reference date, YYYY-MM-DD (default today, UTC)")
	cmd.Flags().BoolVar(&f.send, "send", false, "deliver the planned e-mails")
	return cmd
}

// parseAsOf returns the UTC date of now when s is empty.
func parseAsOf(s string, now time.Time) (time.Time, error) {
	if s == "" {
		now = now.UTC()
		return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC), nil
	}
	d, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid --as-of %q: expected YYYY-MM-DD", s)
	}
	return d, nil
}
