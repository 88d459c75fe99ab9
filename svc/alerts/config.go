package alerts

import "time"

// Config controls alert planning and the daily schedule.
type Config struct {
	HorizonDays int    `env:"ALERT_HORIZON_DAYS" envDefault:"30"`
	RunAt       string `env:"ALERT_RUN_AT" envDefault:"09:00"` // UTC wall clock, HH:MM
	SiteURL     string `env:"SITE_URL" envDefault:"https://ndavault.vercel.app"`
	CronSecret  string `env:"CRON_SECRET"`
	// RequirePro restricts alerts to users entitled to automatic alerts.
	RequirePro       bool          `env:"ALERTS_REQUIRE_PRO" envDefault:"true"`
	SchedulerEnabled bool          `env:"ALERTS_SCHEDULER_ENABLED" envDefault:"true"`
	LockTTL          time.Duration `env:"ALERT_LOCK_TTL" envDefault:"25h"`
}
