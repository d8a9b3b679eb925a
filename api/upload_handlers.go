package api

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/geeklurk/lurkgate/upload"
)

const (
	// maxMarkdownSize caps the writeup body file.
	maxMarkdownSize = 10 << 20
	// maxImageSize caps the cover and gallery images.
	maxImageSize = 5 << 20
	// maxAvatarSize caps the platform avatar.
	maxAvatarSize = 2 << 20
	// maxImages caps the gallery.
	maxImages = 20
	// maxUploadBodySize bounds the whole multipart body: markdown plus
	// avatar, cover and a full gallery at their individual ceilings.
	maxUploadBodySize = maxMarkdownSize + maxAvatarSize + maxImageSize + maxImages*maxImageSize

	minTitleLength = 3
	maxTitleLength = 200
)

// UploadWriteup handles POST /api/admin/upload: a markdown writeup with
// optional image assets, validated stage by stage and written
// all-or-nothing.
func (a *API) UploadWriteup(w http.ResponseWriter, r *http.Request) {
	// Upload processing does real file I/O; bound how many run at once.
	a.uploadSem <- struct{}{}
	defer func() { <-a.uploadSem }()

	if _, _, ok := a.sessionFromRequest(r); !ok {
		a.audit.logFailure(AuditSessionRejected, r, "upload without session")
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	if r.ContentLength > maxUploadBodySize {
		writeError(w, http.StatusRequestEntityTooLarge, "request too large")
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBodySize)
	if err := r.ParseMultipartForm(8 << 20); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart body")
		return
	}
	defer r.MultipartForm.RemoveAll()

	title := escapeText(r.FormValue("title"))
	description := escapeText(r.FormValue("description"))
	platform := escapeText(r.FormValue("platform"))
	difficulty := escapeText(r.FormValue("difficulty"))
	category := escapeText(r.FormValue("category"))

	mdHeader := formFile(r, "mdFile")
	if mdHeader == nil || title == "" || platform == "" || difficulty == "" {
		writeError(w, http.StatusBadRequest, "missing required fields")
		return
	}
	if !strings.HasSuffix(strings.ToLower(mdHeader.Filename), ".md") {
		writeError(w, http.StatusBadRequest, "invalid file type, must be .md")
		return
	}
	if mdHeader.Size > maxMarkdownSize {
		writeError(w, http.StatusRequestEntityTooLarge, "markdown file too large")
		return
	}
	if len(title) < minTitleLength || len(title) > maxTitleLength {
		writeError(w, http.StatusBadRequest, "title must be 3-200 characters")
		return
	}

	images := r.MultipartForm.File["images"]
	if len(images) > maxImages {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("maximum %d images allowed", maxImages))
		return
	}

	mdBytes, err := readFormFile(mdHeader, maxMarkdownSize)
	if err != nil {
		writeError(w, http.StatusBadRequest, "could not read markdown file")
		return
	}
	mdContent := upload.SanitizeMarkdown(string(mdBytes))

	slug := upload.Slug(title)
	if slug == "" {
		writeError(w, http.StatusBadRequest, "title produces an empty slug")
		return
	}

	batch, err := upload.NewBatch(filepath.Join(a.cfg.AssetsDir, slug))
	if err != nil {
		if errors.Is(err, upload.ErrDirExists) {
			writeError(w, http.StatusConflict, "a writeup with this title already exists")
			return
		}
		writeInternalError(w, "failed to stage upload", err)
		return
	}
	// Any failure from here on rolls the whole directory back.
	defer batch.Abort()

	avatarPath, err := a.stageAsset(batch, formFile(r, "platformAvatar"),
		"platform-avatar", slug, maxAvatarSize)
	if err != nil {
		a.rejectUpload(w, r, err)
		return
	}
	coverPath, err := a.stageAsset(batch, formFile(r, "coverImage"),
		"cover", slug, maxImageSize)
	if err != nil {
		a.rejectUpload(w, r, err)
		return
	}
	for i, image := range images {
		if image == nil || image.Size == 0 {
			continue
		}
		if _, err := a.stageAsset(batch, image,
			fmt.Sprintf("image-%d", i), slug, maxImageSize); err != nil {
			a.rejectUpload(w, r, err)
			return
		}
	}

	content := frontmatter(title, description, platform, difficulty, category, avatarPath, coverPath) + mdContent
	if err := os.MkdirAll(a.cfg.PostsDir, 0o755); err != nil {
		writeInternalError(w, "failed to create posts directory", err)
		return
	}
	if err := os.WriteFile(filepath.Join(a.cfg.PostsDir, slug+".md"), []byte(content), 0o644); err != nil {
		writeInternalError(w, "failed to write writeup", err)
		return
	}
	batch.Commit()

	a.audit.log(AuditWriteupUploaded, r, slog.String("slug", slug))
	writeJSON(w, http.StatusOK, UploadResponse{
		Success: true,
		Message: "writeup uploaded successfully",
		Slug:    slug,
	})
}

// stageAsset validates one optional image and writes it into the batch.
// It returns the site-relative asset path, or "" when the file was not
// provided.
func (a *API) stageAsset(batch *upload.Batch, header *multipart.FileHeader, baseName, slug string, maxSize int64) (string, error) {
	if header == nil || header.Size == 0 {
		return "", nil
	}
	data, err := readFormFile(header, maxSize+1)
	if err != nil {
		return "", &upload.ValidationError{Reason: "could not read " + baseName}
	}
	meta := upload.FileMeta{
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Size:        header.Size,
	}
	if err := upload.Validate(meta, data, maxSize, upload.AllowedImageTypes); err != nil {
		return "", err
	}

	ext := strings.ToLower(filepath.Ext(header.Filename))
	name := upload.SanitizeFilename(baseName + ext)
	if err := batch.WriteFile(name, data); err != nil {
		return "", err
	}
	return fmt.Sprintf("./assets/writeups/%s/%s", slug, name), nil
}

// rejectUpload maps validation failures to 400 and everything else to a
// generic 500. The deferred batch.Abort has already removed any
// partially written assets by the time the response is sent.
func (a *API) rejectUpload(w http.ResponseWriter, r *http.Request, err error) {
	var verr *upload.ValidationError
	if errors.As(err, &verr) {
		a.audit.logFailure(AuditUploadRejected, r, verr.Reason)
		writeError(w, http.StatusBadRequest, verr.Reason)
		return
	}
	writeInternalError(w, "upload failed", err)
}

func formFile(r *http.Request, field string) *multipart.FileHeader {
	if r.MultipartForm == nil {
		return nil
	}
	headers := r.MultipartForm.File[field]
	if len(headers) == 0 {
		return nil
	}
	return headers[0]
}

func readFormFile(header *multipart.FileHeader, limit int64) ([]byte, error) {
	f, err := header.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(io.LimitReader(f, limit))
}

func frontmatter(title, description, platform, difficulty, category, avatarPath, coverPath string) string {
	var b strings.Builder
	b.WriteString("---\n")
	fmt.Fprintf(&b, "title: %q\n", title)
	fmt.Fprintf(&b, "published: %s\n", time.Now().UTC().Format("2006-01-02"))
	fmt.Fprintf(&b, "description: %q\n", description)
	fmt.Fprintf(&b, "platform: %q\n", platform)
	fmt.Fprintf(&b, "difficulty: %q\n", difficulty)
	if category != "" {
		fmt.Fprintf(&b, "category: %q\n", category)
	}
	if avatarPath != "" {
		fmt.Fprintf(&b, "platformAvatar: %q\n", avatarPath)
	}
	if coverPath != "" {
		fmt.Fprintf(&b, "cover: %q\n", coverPath)
	}
	b.WriteString("draft: false\n---\n\n")
	return b.String()
}
