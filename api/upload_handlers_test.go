package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/geeklurk/lurkgate/internal/config"
	"github.com/geeklurk/lurkgate/internal/secret"
	"github.com/geeklurk/lurkgate/storage/memory"
)

// pngFixture is a PNG signature padded out so magic-byte sniffing sees a
// real image prefix.
var pngFixture = append([]byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A}, bytes.Repeat([]byte{0x00}, 64)...)

type uploadEnv struct {
	srv       *httptest.Server
	client    *http.Client
	postsDir  string
	assetsDir string
}

func newUploadEnv(t *testing.T, ip string) *uploadEnv {
	t.Helper()

	cfg := config.Default()
	cfg.Site = "https://geeklurk.net"
	cfg.PostsDir = t.TempDir()
	cfg.AssetsDir = t.TempDir()

	creds, err := secret.New(testUsername, testPassword, "")
	require.NoError(t, err)

	a := New(cfg, memory.NewStore(), creds,
		WithFailureDelay(0),
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	)
	t.Cleanup(a.Close)

	srv := httptest.NewServer(SecurityHeaders(a.Guard(a.Router())))
	t.Cleanup(srv.Close)

	client := newClient(t, ip)
	resp := login(t, client, srv.URL, testPassword)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	return &uploadEnv{srv: srv, client: client, postsDir: cfg.PostsDir, assetsDir: cfg.AssetsDir}
}

type filePart struct {
	field       string
	filename    string
	contentType string
	data        []byte
}

func multipartBody(t *testing.T, fields map[string]string, files []filePart) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for name, value := range fields {
		require.NoError(t, w.WriteField(name, value))
	}
	for _, f := range files {
		hdr := make(textproto.MIMEHeader)
		hdr.Set("Content-Disposition",
			fmt.Sprintf(`form-data; name=%q; filename=%q`, f.field, f.filename))
		hdr.Set("Content-Type", f.contentType)
		part, err := w.CreatePart(hdr)
		require.NoError(t, err)
		_, err = part.Write(f.data)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return &buf, w.FormDataContentType()
}

func (e *uploadEnv) post(t *testing.T, body *bytes.Buffer, contentType string) *http.Response {
	t.Helper()
	resp, err := e.client.Post(e.srv.URL+"/api/admin/upload", contentType, body)
	require.NoError(t, err)
	return resp
}

func baseFields() map[string]string {
	return map[string]string{
		"title":       "Rooting the Toaster",
		"description": "A kitchen appliance privesc",
		"platform":    "HackTheBox",
		"difficulty":  "Easy",
	}
}

func TestUploadWriteup(t *testing.T) {
	env := newUploadEnv(t, "10.2.0.1")

	body, ct := multipartBody(t, baseFields(), []filePart{
		{"mdFile", "writeup.md", "text/markdown", []byte("# Rooting the Toaster\n\nStep one.")},
		{"coverImage", "cover.png", "image/png", pngFixture},
	})
	resp := env.post(t, body, ct)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var result UploadResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
	assert.True(t, result.Success)
	require.Equal(t, "rooting-the-toaster", result.Slug)

	content, err := os.ReadFile(filepath.Join(env.postsDir, "rooting-the-toaster.md"))
	require.NoError(t, err)
	assert.Contains(t, string(content), `title: "Rooting the Toaster"`)
	assert.Contains(t, string(content), `platform: "HackTheBox"`)
	assert.Contains(t, string(content), "draft: false")
	assert.Contains(t, string(content), "Step one.")

	assert.FileExists(t, filepath.Join(env.assetsDir, "rooting-the-toaster", "cover.png"))
}

func TestUploadDuplicateSlug(t *testing.T) {
	env := newUploadEnv(t, "10.2.0.2")

	body, ct := multipartBody(t, baseFields(), []filePart{
		{"mdFile", "writeup.md", "text/markdown", []byte("first")},
	})
	resp := env.post(t, body, ct)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body, ct = multipartBody(t, baseFields(), []filePart{
		{"mdFile", "writeup.md", "text/markdown", []byte("second")},
	})
	resp = env.post(t, body, ct)
	resp.Body.Close()
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestUploadRejectsNonMarkdownFile(t *testing.T) {
	env := newUploadEnv(t, "10.2.0.3")

	body, ct := multipartBody(t, baseFields(), []filePart{
		{"mdFile", "writeup.html", "text/html", []byte("<h1>hi</h1>")},
	})
	resp := env.post(t, body, ct)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestUploadRejectsFakeImage(t *testing.T) {
	env := newUploadEnv(t, "10.2.0.4")

	body, ct := multipartBody(t, baseFields(), []filePart{
		{"mdFile", "writeup.md", "text/markdown", []byte("content")},
		{"coverImage", "cover.png", "image/png", []byte("<?php system($_GET['cmd']); ?>")},
	})
	resp := env.post(t, body, ct)
	resp.Body.Close()
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	// The rejected batch left nothing behind.
	assert.NoDirExists(t, filepath.Join(env.assetsDir, "rooting-the-toaster"))
	assert.NoFileExists(t, filepath.Join(env.postsDir, "rooting-the-toaster.md"))
}

func TestUploadSanitizesMarkdown(t *testing.T) {
	env := newUploadEnv(t, "10.2.0.5")

	md := "# Writeup\n\n<script>alert(1)</script>\n\n[link](javascript:alert(2))\n"
	body, ct := multipartBody(t, baseFields(), []filePart{
		{"mdFile", "writeup.md", "text/markdown", []byte(md)},
	})
	resp := env.post(t, body, ct)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	content, err := os.ReadFile(filepath.Join(env.postsDir, "rooting-the-toaster.md"))
	require.NoError(t, err)
	assert.NotContains(t, string(content), "<script>")
	assert.NotContains(t, string(content), "javascript:")
}

func TestUploadMissingRequiredFields(t *testing.T) {
	env := newUploadEnv(t, "10.2.0.6")

	fields := baseFields()
	delete(fields, "platform")
	body, ct := multipartBody(t, fields, []filePart{
		{"mdFile", "writeup.md", "text/markdown", []byte("content")},
	})
	resp := env.post(t, body, ct)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestUploadTitleLength(t *testing.T) {
	env := newUploadEnv(t, "10.2.0.7")

	fields := baseFields()
	fields["title"] = "ab"
	body, ct := multipartBody(t, fields, []filePart{
		{"mdFile", "writeup.md", "text/markdown", []byte("content")},
	})
	resp := env.post(t, body, ct)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
