package api

import (
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"regexp"
	"strings"
	"time"
)

const (
	// maxAuthBodySize caps the login body; credentials never need more.
	maxAuthBodySize = 1024
	minPasswordLen  = 8
	maxPasswordLen  = 128
)

var (
	usernameFormat = regexp.MustCompile(`^[a-zA-Z0-9_]{3,20}$`)

	inputAngleQuotes  = regexp.MustCompile(`[<>'"]`)
	inputScriptScheme = regexp.MustCompile(`(?i)javascript:`)
	inputEventHandler = regexp.MustCompile(`(?i)on\w+=`)
)

// sanitizeInput strips markup-significant characters and script vectors
// from a free-form field. Passwords are never sanitized; altering them
// would reject valid credentials.
func sanitizeInput(input string) string {
	s := inputAngleQuotes.ReplaceAllString(input, "")
	s = inputScriptScheme.ReplaceAllString(s, "")
	s = inputEventHandler.ReplaceAllString(s, "")
	return strings.TrimSpace(s)
}

// Login handles POST /api/admin/login.
func (a *API) Login(w http.ResponseWriter, r *http.Request) {
	client := clientKey(r)

	// The lockout gate runs before any credential work so a blocked
	// client cannot keep probing.
	if allowed, blockedUntil := a.lockouts.CheckAllowed(client); !allowed {
		minutesLeft := int(math.Ceil(time.Until(blockedUntil).Minutes()))
		a.audit.logFailure(AuditLoginBlocked, r, "lockout active")
		writeError(w, http.StatusForbidden,
			fmt.Sprintf("too many failed attempts, blocked for %d minutes", minutesLeft))
		return
	}

	req, ok := decodeJSON[LoginRequest](w, r, maxAuthBodySize)
	if !ok {
		return
	}

	if req.Username == "" || req.Password == "" {
		a.lockouts.RecordFailure(client)
		writeError(w, http.StatusBadRequest, "username and password required")
		return
	}

	username := sanitizeInput(req.Username)
	if !usernameFormat.MatchString(username) {
		a.lockouts.RecordFailure(client)
		writeError(w, http.StatusBadRequest, "invalid username format")
		return
	}
	if len(req.Password) < minPasswordLen || len(req.Password) > maxPasswordLen {
		a.lockouts.RecordFailure(client)
		writeError(w, http.StatusBadRequest, "invalid password format")
		return
	}

	if !a.creds.Verify(username, req.Password) {
		a.lockouts.RecordFailure(client)
		a.audit.logFailure(AuditLoginFailure, r, "invalid credentials",
			slog.String("username", username))
		// Fixed delay on every failure so response latency carries no
		// signal about how close the guess was.
		time.Sleep(a.failureDelay)
		writeError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	// Success: consecutive-failure tracking starts over.
	a.lockouts.Clear(client)

	token, expiresAt, err := a.createSession(username)
	if err != nil {
		writeInternalError(w, "failed to create session", err)
		return
	}
	writeSessionCookie(w, r, token, expiresAt)

	a.audit.log(AuditLoginSuccess, r, slog.String("username", username))
	writeJSON(w, http.StatusOK, LoginResponse{
		Success: true,
		Message: "authentication successful",
	})
}

// Logout handles POST /api/admin/logout.
func (a *API) Logout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(sessionCookieName); err == nil && cookie.Value != "" {
		a.invalidateSession(cookie.Value)
	}
	clearSessionCookie(w, r)

	a.audit.log(AuditLogout, r)
	writeJSON(w, http.StatusOK, LogoutResponse{
		Success: true,
		Message: "logged out successfully",
	})
}
