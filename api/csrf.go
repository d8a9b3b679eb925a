package api

import (
	"net/http"
	"strings"
)

// localDevOrigin is always accepted so a local frontend dev server can
// hit a running gateway.
const localDevOrigin = "http://localhost"

// checkCrossOrigin validates the Origin and Referer headers of a
// state-changing request against the trusted origin. Safe methods
// always pass.
//
// When both headers are absent the request passes unless strict mode is
// on. The permissive default matches clients and proxies that strip
// both headers; strict mode fails closed and is the safer choice when
// all legitimate clients are browsers.
func checkCrossOrigin(method, origin, referer, trustedOrigin string, strict bool) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodPatch:
	default:
		return true
	}

	if origin == "" && referer == "" {
		return !strict
	}
	if origin != "" && !originTrusted(origin, trustedOrigin) {
		return false
	}
	if referer != "" && !originTrusted(referer, trustedOrigin) {
		return false
	}
	return true
}

func originTrusted(value, trustedOrigin string) bool {
	return strings.HasPrefix(value, trustedOrigin) || strings.HasPrefix(value, localDevOrigin)
}
