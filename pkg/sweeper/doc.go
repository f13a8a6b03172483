// Package sweeper runs the background loop that purges unverified
// registrations older than the retention window, replacing the source
// system's cron job with a context-aware ticker.
package sweeper
