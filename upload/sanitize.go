package upload

import (
	"regexp"
	"strings"

	"github.com/geeklurk/lurkgate/internal/util"
)

var (
	filenameUnsafe   = regexp.MustCompile(`[^a-zA-Z0-9.-]`)
	repeatDots       = regexp.MustCompile(`\.+`)
	repeatUnderscore = regexp.MustCompile(`_{2,}`)

	scriptBlock   = regexp.MustCompile(`(?is)<script\b.*?</script>`)
	jsScheme      = regexp.MustCompile(`(?i)javascript:`)
	vbScheme      = regexp.MustCompile(`(?i)vbscript:`)
	dataHTML      = regexp.MustCompile(`(?i)data:text/html`)
	eventHandlers = regexp.MustCompile(`(?i)on\w+\s*=\s*["'][^"']*["']`)

	slugUnsafe = regexp.MustCompile(`[^a-z0-9]+`)
)

// SanitizeFilename reduces a client-supplied filename to a safe form:
// NFKD-normalized, anything outside [A-Za-z0-9.-] replaced by _,
// repeated dots and underscores collapsed, lowercased.
func SanitizeFilename(name string) string {
	s := util.Normalize(name)
	s = filenameUnsafe.ReplaceAllString(s, "_")
	s = repeatDots.ReplaceAllString(s, ".")
	s = repeatUnderscore.ReplaceAllString(s, "_")
	return strings.ToLower(s)
}

// SanitizeMarkdown strips script blocks, active URI schemes and inline
// event handlers from a markdown body. Defense in depth only — the
// renderer still needs its own HTML sanitizer.
func SanitizeMarkdown(content string) string {
	s := scriptBlock.ReplaceAllString(content, "")
	s = jsScheme.ReplaceAllString(s, "")
	s = dataHTML.ReplaceAllString(s, "")
	s = vbScheme.ReplaceAllString(s, "")
	return eventHandlers.ReplaceAllString(s, "")
}

// Slug derives a URL-safe directory and file name from a writeup title.
func Slug(title string) string {
	s := strings.ToLower(util.Normalize(title))
	s = slugUnsafe.ReplaceAllString(s, "-")
	s = strings.Trim(s, "-")
	if len(s) > 100 {
		s = s[:100]
	}
	return s
}
