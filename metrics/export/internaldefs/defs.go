package internaldefs

import (
	"github.com/MrEthical07/blogauth"
)

// CounterDef names one engine counter for export.
type CounterDef struct {
	ID   blogauth.MetricID
	Name string
	Help string
}

// HistogramDef names one engine histogram for export.
type HistogramDef struct {
	ID   blogauth.MetricID
	Name string
	Help string
}

// CounterDefs lists every exported counter in exposition order.
var CounterDefs = []CounterDef{
	{ID: blogauth.MetricRegisterSuccess, Name: "blogauth_register_success_total", Help: "Completed registrations."},
	{ID: blogauth.MetricRegisterDuplicate, Name: "blogauth_register_duplicate_total", Help: "Registrations rejected because the account name is taken."},
	{ID: blogauth.MetricRegisterRateLimited, Name: "blogauth_register_rate_limited_total", Help: "Rate-limited registration attempts."},
	{ID: blogauth.MetricRegisterFailure, Name: "blogauth_register_failure_total", Help: "Registrations failed by the record store."},
	{ID: blogauth.MetricLoginSuccess, Name: "blogauth_login_success_total", Help: "Successful login attempts."},
	{ID: blogauth.MetricLoginFailure, Name: "blogauth_login_failure_total", Help: "Failed login attempts."},
	{ID: blogauth.MetricLoginRateLimited, Name: "blogauth_login_rate_limited_total", Help: "Rate-limited login attempts."},
	{ID: blogauth.MetricPasswordUpgraded, Name: "blogauth_password_upgraded_total", Help: "Password hashes re-encoded on login."},
	{ID: blogauth.MetricSessionCreated, Name: "blogauth_session_created_total", Help: "Created sessions."},
	{ID: blogauth.MetricLogout, Name: "blogauth_logout_total", Help: "Sign-out operations."},
	{ID: blogauth.MetricProfileUpdated, Name: "blogauth_profile_updated_total", Help: "Profile and nickname updates."},
	{ID: blogauth.MetricPasswordChangeSuccess, Name: "blogauth_password_change_success_total", Help: "Successful password changes."},
	{ID: blogauth.MetricPasswordChangeFailure, Name: "blogauth_password_change_failure_total", Help: "Rejected password changes."},
	{ID: blogauth.MetricRateLimitHit, Name: "blogauth_rate_limit_hit_total", Help: "Rate-limit checks that denied requests."},
}

// HistogramDefs lists every exported histogram.
var HistogramDefs = []HistogramDef{
	{ID: blogauth.MetricLoginLatency, Name: "blogauth_login_latency_seconds", Help: "Login latency histogram."},
}

// HistogramBounds are the upper bounds, in seconds, of the engine's fixed
// latency buckets.
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

// HistogramBoundSuffix is the identifier-safe spelling of HistogramBounds.
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

// HistogramBoundSeconds is HistogramBounds as floats, without +Inf.
var HistogramBoundSeconds = []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5}

// NormalizeBuckets copies raw into a fixed eight-bucket array, zero-filling
// missing buckets.
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
