package api

import "net/http"

// contentSecurityPolicy allow-lists the CDNs the blog's pages pull
// scripts, styles and fonts from.
const contentSecurityPolicy = "default-src 'self'; " +
	"script-src 'self' 'unsafe-inline' 'unsafe-eval' https://cdnjs.cloudflare.com https://fastly.jsdelivr.net; " +
	"style-src 'self' 'unsafe-inline' https://fonts.bunny.net https://fastly.jsdelivr.net; " +
	"font-src 'self' https://fonts.bunny.net; " +
	"img-src 'self' data: https:; " +
	"connect-src 'self'"

// SecurityHeaders is middleware that sets standard security response
// headers on every response. It should be placed early in the
// middleware chain.
func SecurityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("X-XSS-Protection", "1; mode=block")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		w.Header().Set("Content-Security-Policy", contentSecurityPolicy)
		w.Header().Set("Permissions-Policy", "geolocation=(), microphone=(), camera=()")

		next.ServeHTTP(w, r)
	})
}
