package api

import (
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/geeklurk/lurkgate/internal/util"
)

const (
	sessionCookieName = "admin_session"
	sessionDuration   = 1 * time.Hour
	adminLoginPath    = "/admin/login"
)

// verdict is the terminal outcome of the gateway for one request.
type verdict string

const (
	verdictAllowed         verdict = "allowed"
	verdictRateLimited     verdict = "rate_limited"
	verdictBlocked         verdict = "blocked"
	verdictUnauthenticated verdict = "unauthenticated"
	verdictCSRFRejected    verdict = "csrf_rejected"
	verdictServerError     verdict = "server_error"
)

// Guard is the gateway orchestrator. Every request passes through it
// before reaching a handler: the path picks a rate-limit namespace,
// admin pages additionally go through the lockout tracker and session
// store, and state-changing API requests go through the cross-origin
// check. Handlers behind it can trust the verdict.
func (a *API) Guard(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := r.URL.Path
		class := pathClass(path)

		switch {
		case strings.HasPrefix(path, "/admin"):
			client := clientKey(r)

			if err := a.limiter.Allow(nsAdmin, client); err != nil {
				a.denyRateLimited(w, r, class, err,
					"too many requests, please try again after 5 minutes")
				return
			}

			if allowed, blockedUntil := a.lockouts.CheckAllowed(client); !allowed {
				minutesLeft := int(math.Ceil(time.Until(blockedUntil).Minutes()))
				recordVerdict(verdictBlocked, class)
				a.audit.logFailure(AuditLoginBlocked, r, "lockout active")
				writeError(w, http.StatusForbidden,
					fmt.Sprintf("too many failed attempts, blocked for %d minutes", minutesLeft))
				return
			}

			if path != adminLoginPath {
				token, _, ok := a.sessionFromRequest(r)
				if !ok {
					recordVerdict(verdictUnauthenticated, class)
					a.audit.logFailure(AuditSessionRejected, r, "missing or expired session")
					clearSessionCookie(w, r)
					http.Redirect(w, r, adminLoginPath, http.StatusFound)
					return
				}
				// Sliding idle timeout: each authenticated access pushes
				// the expiry another hour out.
				a.touchSession(token)
			}

		case strings.HasPrefix(path, "/api/"):
			client := clientKey(r)

			if err := a.limiter.Allow(nsGeneral, client); err != nil {
				a.denyRateLimited(w, r, class, err, "rate limit exceeded")
				return
			}

			if !checkCrossOrigin(r.Method, r.Header.Get("Origin"), r.Header.Get("Referer"),
				a.trustedOrigin, a.cfg.CSRFStrict) {
				recordVerdict(verdictCSRFRejected, class)
				a.audit.logFailure(AuditCSRFRejected, r, "untrusted origin",
					slog.String("origin", r.Header.Get("Origin")))
				writeError(w, http.StatusForbidden, "CSRF validation failed")
				return
			}
		}

		recordVerdict(verdictAllowed, class)
		next.ServeHTTP(w, r)
	})
}

func (a *API) denyRateLimited(w http.ResponseWriter, r *http.Request, class string, err error, msg string) {
	retryAfter := time.Second
	if rle, ok := err.(*RateLimitedError); ok {
		retryAfter = rle.RetryAfter
	}
	recordVerdict(verdictRateLimited, class)
	a.audit.logFailure(AuditRateLimited, r, "window exhausted")
	writeRateLimited(w, retryAfter, msg)
}

// sessionFromRequest resolves the session cookie to a live session.
func (a *API) sessionFromRequest(r *http.Request) (string, AdminSession, bool) {
	cookie, err := r.Cookie(sessionCookieName)
	if err != nil || cookie.Value == "" {
		return "", AdminSession{}, false
	}
	session, ok := a.sessions.Get(cookie.Value)
	if !ok {
		return "", AdminSession{}, false
	}
	return cookie.Value, session, true
}

// createSession mints a fresh token and stores the session under it.
func (a *API) createSession(identity string) (string, time.Time, error) {
	token, err := util.SessionToken()
	if err != nil {
		return "", time.Time{}, err
	}
	expiresAt := time.Now().Add(sessionDuration)
	a.sessions.Put(token, AdminSession{Identity: identity, ExpiresAt: expiresAt})
	return token, expiresAt, nil
}

// touchSession slides the expiry window forward. Concurrent touches on
// the same token race benignly; last write wins on ExpiresAt.
func (a *API) touchSession(token string) {
	session, ok := a.sessions.Get(token)
	if !ok {
		return
	}
	session.ExpiresAt = time.Now().Add(sessionDuration)
	a.sessions.Put(token, session)
}

// invalidateSession removes the session for token, if any.
func (a *API) invalidateSession(token string) {
	a.sessions.Delete(token)
}

func writeSessionCookie(w http.ResponseWriter, r *http.Request, token string, expiresAt time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   requestIsSecure(r),
		SameSite: http.SameSiteStrictMode,
		MaxAge:   int(time.Until(expiresAt).Seconds()),
	})
}

func clearSessionCookie(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   requestIsSecure(r),
		SameSite: http.SameSiteStrictMode,
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
	})
}

func requestIsSecure(r *http.Request) bool {
	if r.TLS != nil {
		return true
	}
	return strings.EqualFold(r.Header.Get("X-Forwarded-Proto"), "https")
}
