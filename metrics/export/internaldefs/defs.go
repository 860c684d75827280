package internaldefs

import (
	goSession "github.com/MrEthical07/goSession"
)

// CounterDef names one store counter for exporters.
type CounterDef struct {
	ID   goSession.MetricID
	Name string
	Help string
}

// HistogramDef names one store histogram for exporters.
type HistogramDef struct {
	ID   goSession.MetricID
	Name string
	Help string
}

// AuditDroppedName is the counter fed by Store.AuditDropped.
const AuditDroppedName = "gosession_audit_dropped_total"

// CounterDefs lists every exported counter in export order.
var CounterDefs = []CounterDef{
	{ID: goSession.MetricLoginSuccess, Name: "gosession_login_success_total", Help: "Successful logins."},
	{ID: goSession.MetricLoginFailure, Name: "gosession_login_failure_total", Help: "Failed logins."},
	{ID: goSession.MetricLoginRateLimited, Name: "gosession_login_rate_limited_total", Help: "Logins rejected or cut off by the failed-login budget."},
	{ID: goSession.MetricLoginNoop, Name: "gosession_login_noop_total", Help: "Login calls made while already authenticated."},
	{ID: goSession.MetricLogout, Name: "gosession_logout_total", Help: "Logouts."},
	{ID: goSession.MetricLogoutNoop, Name: "gosession_logout_noop_total", Help: "Logout calls made while unauthenticated."},
	{ID: goSession.MetricSessionRestored, Name: "gosession_session_restored_total", Help: "Sessions restored from persistence."},
	{ID: goSession.MetricSessionRestoreFailed, Name: "gosession_session_restore_failed_total", Help: "Failed session restores."},
	{ID: goSession.MetricSessionExpired, Name: "gosession_session_expired_total", Help: "Sessions collected after their lifetime elapsed."},
	{ID: goSession.MetricPersistFailure, Name: "gosession_persist_failure_total", Help: "Best-effort persistence writes or deletes that failed."},
	{ID: goSession.MetricListenerNotified, Name: "gosession_listener_notified_total", Help: "Listener invocations."},
}

// HistogramDefs lists every exported histogram.
var HistogramDefs = []HistogramDef{
	{ID: goSession.MetricLoginLatency, Name: "gosession_login_latency_seconds", Help: "Identity provider round-trip latency."},
}

// HistogramBounds are the upper bounds, in seconds, of the store latency buckets.
var HistogramBounds = []string{
	"0.005",
	"0.01",
	"0.025",
	"0.05",
	"0.1",
	"0.25",
	"0.5",
	"+Inf",
}

// HistogramBoundSuffix is HistogramBounds spelled for metric names.
var HistogramBoundSuffix = []string{
	"0_005",
	"0_01",
	"0_025",
	"0_05",
	"0_1",
	"0_25",
	"0_5",
	"inf",
}

// NormalizeBuckets copies raw into a fixed-size array, zero-filling short input.
func NormalizeBuckets(raw []uint64) [8]uint64 {
	var out [8]uint64
	for i := 0; i < len(out) && i < len(raw); i++ {
		out[i] = raw[i]
	}
	return out
}

// CumulativeBuckets converts per-bucket counts into running totals.
func CumulativeBuckets(raw [8]uint64) [8]uint64 {
	var out [8]uint64
	var running uint64
	for i := 0; i < len(raw); i++ {
		running += raw[i]
		out[i] = running
	}
	return out
}
