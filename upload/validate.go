// Package upload validates user-supplied writeup assets before anything
// is written to disk: declared size and MIME type, filename shape, and
// the actual byte content of images. The declared type is never trusted
// on its own.
package upload

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"
)

// AllowedImageTypes is the declared-MIME allow-list for image uploads.
var AllowedImageTypes = []string{
	"image/jpeg",
	"image/jpg",
	"image/png",
	"image/gif",
	"image/webp",
}

// ValidationError describes why an asset was rejected. The reason is
// safe to return to the client.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string { return e.Reason }

func validationErrorf(format string, args ...any) *ValidationError {
	return &ValidationError{Reason: fmt.Sprintf(format, args...)}
}

// FileMeta is the caller-declared description of an uploaded file.
type FileMeta struct {
	Filename    string
	ContentType string
	Size        int64
}

// doubleExtension matches script/executable extensions hidden before the
// final extension, e.g. "shell.php.png".
var doubleExtension = regexp.MustCompile(`\.(php|exe|sh|bat|cmd|js|html|htm)\.`)

// imageMagic maps sniffable formats to their leading byte signatures.
var imageMagic = map[string][]byte{
	"jpeg": {0xFF, 0xD8, 0xFF},
	"png":  {0x89, 0x50, 0x4E, 0x47},
	"gif":  {0x47, 0x49, 0x46},
	"webp": {0x52, 0x49, 0x46, 0x46},
}

// SniffFormat inspects the leading bytes of data and reports which known
// image format they match.
func SniffFormat(data []byte) (string, bool) {
	for format, magic := range imageMagic {
		if len(data) >= len(magic) && bytes.Equal(data[:len(magic)], magic) {
			return format, true
		}
	}
	return "", false
}

// Validate runs every stage against one image asset. All stages must
// pass; the first failure is returned as a *ValidationError.
func Validate(meta FileMeta, data []byte, maxSize int64, allowedTypes []string) error {
	if meta.Size > maxSize {
		return validationErrorf("image %s exceeds size limit", meta.Filename)
	}
	if int64(len(data)) > maxSize {
		return validationErrorf("image %s exceeds size limit", meta.Filename)
	}

	allowed := false
	for _, typ := range allowedTypes {
		if strings.EqualFold(meta.ContentType, typ) {
			allowed = true
			break
		}
	}
	if !allowed {
		return validationErrorf("invalid image type: %s", meta.ContentType)
	}

	if doubleExtension.MatchString(strings.ToLower(meta.Filename)) {
		return validationErrorf("suspicious file extension detected")
	}

	if _, ok := SniffFormat(data); !ok {
		return validationErrorf("invalid image format detected")
	}
	return nil
}
