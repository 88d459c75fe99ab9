// Package alerts plans and delivers expiration reminders for agreements.
//
// Job builds the plan: every alert-enabled agreement that expires exactly
// HorizonDays from the run date, grouped into one message per user. It
// sends nothing. Deliverer sends a plan through an email.Sender, and
// Scheduler runs both once a day behind a distributed lock before refreshing
// stored agreement statuses.
package alerts
