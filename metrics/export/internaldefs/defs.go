package internaldefs

import (
	"github.com/kvasirlabs/otpkit"
)

// CounterDef names one engine counter for export.
type CounterDef struct {
	ID   otpkit.MetricID
	Name string
	Help string
}

// HistogramDef names one engine histogram for export.
type HistogramDef struct {
	ID   otpkit.MetricID
	Name string
	Help string
}

var CounterDefs = []CounterDef{
	{ID: otpkit.MetricIssueSuccess, Name: "otpkit_issue_success_total", Help: "Codes issued to callers."},
	{ID: otpkit.MetricIssueRateLimited, Name: "otpkit_issue_rate_limited_total", Help: "Issue requests denied by the window budget."},
	{ID: otpkit.MetricIssueFailure, Name: "otpkit_issue_failure_total", Help: "Issue requests failed for other reasons."},
	{ID: otpkit.MetricVerifySuccess, Name: "otpkit_verify_success_total", Help: "Verifications that promoted a session."},
	{ID: otpkit.MetricVerifyFailure, Name: "otpkit_verify_failure_total", Help: "Rejected verifications of any kind."},
	{ID: otpkit.MetricVerifyAttemptsExceeded, Name: "otpkit_verify_attempts_exceeded_total", Help: "Records invalidated by the attempt cap."},
	{ID: otpkit.MetricConsumeSuccess, Name: "otpkit_consume_success_total", Help: "Sessions consumed by a completed action."},
	{ID: otpkit.MetricConsumeFailure, Name: "otpkit_consume_failure_total", Help: "Consume calls rejected before the action ran."},
	{ID: otpkit.MetricActionFailed, Name: "otpkit_action_failed_total", Help: "Delegated actions that returned an error."},
}

var HistogramDefs = []HistogramDef{
	{ID: otpkit.MetricVerifyLatency, Name: "otpkit_verify_latency_seconds", Help: "VerifyCode latency histogram."},
}

// HistogramBounds are the upper bucket bounds in seconds, Prometheus `le`
// label values. Must stay in sync with the core histogram layout.
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

// HistogramBoundSuffix are metric-name-safe renderings of HistogramBounds for
// exporters that cannot use labels.
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

// NormalizeBuckets pads or truncates a raw snapshot slice to the fixed bucket
// count.
func NormalizeBuckets(raw []uint64) [8]uint64 {
	var out [8]uint64
	for i := 0; i < len(out) && i < len(raw); i++ {
		out[i] = raw[i]
	}
	return out
}

// CumulativeBuckets converts per-bucket counts to the cumulative form
// Prometheus histograms require.
func CumulativeBuckets(raw [8]uint64) [8]uint64 {
	var out [8]uint64
	var running uint64
	for i := 0; i < len(raw); i++ {
		running += raw[i]
		out[i] = running
	}
	return out
}
