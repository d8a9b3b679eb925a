// Package config loads the gateway configuration from a TOML file with
// built-in defaults.
//
// Client IPs are derived from X-Forwarded-For / X-Real-IP headers, so the
// gateway assumes a trusted reverse proxy in front of it sets those
// headers. Deployments without such a proxy must treat every rate-limit
// and lockout key as spoofable.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

// Config is the complete gateway configuration.
type Config struct {
	// ListenAddr is the host:port the HTTP server binds to.
	ListenAddr string `toml:"listen_addr"`
	// Site is the public origin of the blog, e.g. "https://geeklurk.net".
	// State-changing API requests must carry an Origin or Referer
	// matching it.
	Site string `toml:"site"`
	// CSRFStrict rejects state-changing API requests that carry neither
	// an Origin nor a Referer header. Off by default to match browsers
	// and clients that strip both.
	CSRFStrict bool `toml:"csrf_strict"`
	// DataDir holds the bbolt database (comments, reactions, sessions).
	DataDir string `toml:"data_dir"`
	// PostsDir receives finished writeup markdown files.
	PostsDir string `toml:"posts_dir"`
	// AssetsDir receives per-writeup asset directories.
	AssetsDir string `toml:"assets_dir"`
	// PersistSessions keeps admin sessions in bbolt so they survive a
	// restart. Off by default.
	PersistSessions bool `toml:"persist_sessions"`
	// MaxConcurrentUploads bounds how many multipart uploads are
	// processed at once so one large upload cannot stall the server.
	MaxConcurrentUploads int `toml:"max_concurrent_uploads"`

	Admin  AdminConfig  `toml:"admin"`
	Limits LimitsConfig `toml:"limits"`
}

// AdminConfig holds the single admin account.
type AdminConfig struct {
	Username string `toml:"username"`
	// PasswordHash is a bcrypt hash. Preferred.
	PasswordHash string `toml:"password_hash"`
	// Password is a plaintext password for local development only.
	// Ignored when PasswordHash is set.
	Password string `toml:"password"`
}

// LimitConfig is one rate-limit namespace: Limit requests per Window.
type LimitConfig struct {
	WindowSecs int `toml:"window_secs"`
	Limit      int `toml:"limit"`
}

// Window returns the namespace window as a duration.
func (l LimitConfig) Window() time.Duration {
	return time.Duration(l.WindowSecs) * time.Second
}

// LimitsConfig holds the four rate-limit namespaces.
type LimitsConfig struct {
	General   LimitConfig `toml:"general"`
	Admin     LimitConfig `toml:"admin"`
	Comments  LimitConfig `toml:"comments"`
	Reactions LimitConfig `toml:"reactions"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		ListenAddr:           ":8080",
		Site:                 "http://localhost:4321",
		DataDir:              "./data",
		PostsDir:             "./src/contents/posts",
		AssetsDir:            "./public/assets/writeups",
		MaxConcurrentUploads: 4,
		Admin: AdminConfig{
			Username: "geeklurk",
		},
		Limits: LimitsConfig{
			General:   LimitConfig{WindowSecs: 300, Limit: 50},
			Admin:     LimitConfig{WindowSecs: 300, Limit: 50},
			Comments:  LimitConfig{WindowSecs: 3600, Limit: 10},
			Reactions: LimitConfig{WindowSecs: 60, Limit: 10},
		},
	}
}

// Load reads path into a Config on top of the defaults. A missing file
// is not an error; the defaults are returned.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks invariants that would otherwise surface as confusing
// runtime failures.
func (c *Config) Validate() error {
	if c.ListenAddr == "" {
		return errors.New("listen_addr must not be empty")
	}
	u, err := url.Parse(c.Site)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("site %q must be an absolute URL", c.Site)
	}
	if c.Admin.Username == "" {
		return errors.New("admin.username must not be empty")
	}
	if c.MaxConcurrentUploads < 1 {
		return errors.New("max_concurrent_uploads must be at least 1")
	}
	for name, l := range map[string]LimitConfig{
		"general":   c.Limits.General,
		"admin":     c.Limits.Admin,
		"comments":  c.Limits.Comments,
		"reactions": c.Limits.Reactions,
	} {
		if l.WindowSecs <= 0 || l.Limit <= 0 {
			return fmt.Errorf("limits.%s: window_secs and limit must be positive", name)
		}
	}
	return nil
}

// TrustedOrigin returns the scheme://host prefix that the CSRF guard
// accepts, derived from Site.
func (c *Config) TrustedOrigin() string {
	u, err := url.Parse(c.Site)
	if err != nil {
		return c.Site
	}
	return u.Scheme + "://" + u.Host
}
