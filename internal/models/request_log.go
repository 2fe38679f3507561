package models

import "time"

// RequestOutcome classifies how a metered feature request ended
type RequestOutcome string

const (
	OutcomeOK                  RequestOutcome = "ok"
	OutcomeNoPoints            RequestOutcome = "no_points"
	OutcomeQuotaExceeded       RequestOutcome = "quota_exceeded"
	OutcomeUpstreamUnavailable RequestOutcome = "upstream_unavailable"
	OutcomeUpstreamFatal       RequestOutcome = "upstream_fatal"
)

// RequestLog is one audit row per metered feature request
type RequestLog struct {
	ID        string         `json:"id"`
	UserID    int64          `json:"user_id"`
	Feature   string         `json:"feature"`
	Endpoint  string         `json:"endpoint"`
	Pool      PointPool      `json:"pool"`
	CacheHit  bool           `json:"cache_hit"`
	LatencyMS int64          `json:"latency_ms"`
	Outcome   RequestOutcome `json:"outcome"`
	CreatedAt time.Time      `json:"created_at"`
}
