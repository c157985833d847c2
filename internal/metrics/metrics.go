// Package metrics exposes runtime counters via expvar.
package metrics

import "expvar"

var (
	JobsChecked         = expvar.NewInt("jobs_checked")
	JobsSkipped         = expvar.NewInt("jobs_skipped")
	RetriesTriggered    = expvar.NewInt("retries_triggered")
	RetriesFailed       = expvar.NewInt("retries_failed")
	StatusFetchErrors   = expvar.NewInt("status_fetch_errors")
	NotificationsSent   = expvar.NewInt("notifications_sent")
	NotificationsFailed = expvar.NewInt("notifications_failed")
)
