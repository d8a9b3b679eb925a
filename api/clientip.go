package api

import (
	"net/http"
	"strings"
)

// unknownClient is the sentinel key used when no client address can be
// derived. All such requests share one rate-limit bucket.
const unknownClient = "unknown"

// clientKey returns the stable per-client identifier used by the rate
// limiter and lockout tracker: the first X-Forwarded-For entry, else
// X-Real-IP, else the sentinel.
//
// These headers are attacker-controlled unless a trusted reverse proxy
// in front of the gateway overwrites them; that proxy is a deployment
// requirement, not something this function can verify.
func clientKey(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first := strings.TrimSpace(strings.Split(xff, ",")[0])
		if first != "" {
			return first
		}
	}
	if rip := strings.TrimSpace(r.Header.Get("X-Real-IP")); rip != "" {
		return rip
	}
	return unknownClient
}
