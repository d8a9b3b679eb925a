package api

import (
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/geeklurk/lurkgate/storage"
)

const (
	maxCommentBodySize  = 2048
	maxReactionBodySize = 1024
	maxCommentLength    = 1000
	maxUsernameLength   = 50
	maxCommentsReturned = 100
	anonymousUsername   = "Anonymous"
)

// allowedReactions is the fixed reaction vocabulary.
var allowedReactions = map[string]bool{
	"like":   true,
	"love":   true,
	"fire":   true,
	"mind":   true,
	"hacker": true,
}

var postIDUnsafe = regexp.MustCompile(`[^a-zA-Z0-9_-]`)

// sanitizePostID reduces a post identifier to slug characters.
func sanitizePostID(input string) string {
	s := postIDUnsafe.ReplaceAllString(input, "")
	if len(s) > 100 {
		s = s[:100]
	}
	return s
}

var htmlEntities = strings.NewReplacer(
	"<", "&lt;",
	">", "&gt;",
	"'", "&#39;",
	`"`, "&quot;",
)

// escapeText entity-escapes markup characters and strips script vectors
// from reader-supplied text.
func escapeText(input string) string {
	s := htmlEntities.Replace(input)
	s = inputScriptScheme.ReplaceAllString(s, "")
	s = inputEventHandler.ReplaceAllString(s, "")
	return strings.TrimSpace(s)
}

func truncate(s string, max int) string {
	if len(s) > max {
		return s[:max]
	}
	return s
}

// PostComment handles POST /api/comments.
func (a *API) PostComment(w http.ResponseWriter, r *http.Request) {
	client := clientKey(r)
	if err := a.limiter.Allow(nsComments, client); err != nil {
		a.denyRateLimited(w, r, pathClass(r.URL.Path), err,
			"too many comments, please try again later")
		return
	}

	req, ok := decodeJSON[CommentRequest](w, r, maxCommentBodySize)
	if !ok {
		return
	}
	if req.PostID == "" || req.Text == "" {
		writeError(w, http.StatusBadRequest, "missing required fields")
		return
	}
	if len(req.Text) > maxCommentLength {
		writeError(w, http.StatusBadRequest, "comment must be under 1000 characters")
		return
	}
	if len(req.Username) > maxUsernameLength {
		writeError(w, http.StatusBadRequest, "username must be under 50 characters")
		return
	}

	username := anonymousUsername
	if req.Username != "" {
		username = truncate(escapeText(req.Username), maxUsernameLength)
	}
	text := truncate(escapeText(req.Text), maxCommentLength)
	if text == "" {
		writeError(w, http.StatusBadRequest, "comment cannot be empty")
		return
	}

	comment := storage.Comment{
		ID:       uuid.NewString(),
		PostID:   sanitizePostID(req.PostID),
		Username: username,
		Text:     text,
		Date:     time.Now().UTC(),
	}
	if err := a.store.AddComment(comment); err != nil {
		writeInternalError(w, "failed to save comment", err)
		return
	}

	a.audit.log(AuditCommentPosted, r)
	writeJSON(w, http.StatusOK, CommentResponse{Success: true, Comment: comment})
}

// ListComments handles GET /api/comments?postId=...
func (a *API) ListComments(w http.ResponseWriter, r *http.Request) {
	postID := r.URL.Query().Get("postId")
	if postID == "" {
		writeError(w, http.StatusBadRequest, "missing postId")
		return
	}

	comments, err := a.store.CommentsByPost(sanitizePostID(postID), maxCommentsReturned)
	if err != nil {
		writeInternalError(w, "failed to load comments", err)
		return
	}
	writeJSON(w, http.StatusOK, comments)
}

// PostReaction handles POST /api/reactions.
func (a *API) PostReaction(w http.ResponseWriter, r *http.Request) {
	client := clientKey(r)
	if err := a.limiter.Allow(nsReactions, client); err != nil {
		a.denyRateLimited(w, r, pathClass(r.URL.Path), err,
			"too many reactions, please slow down")
		return
	}

	req, ok := decodeJSON[ReactionRequest](w, r, maxReactionBodySize)
	if !ok {
		return
	}
	if req.PostID == "" || req.Reaction == "" {
		writeError(w, http.StatusBadRequest, "missing postId or reaction")
		return
	}
	if !allowedReactions[req.Reaction] {
		writeError(w, http.StatusBadRequest, "invalid reaction type")
		return
	}

	count, err := a.store.AddReaction(sanitizePostID(req.PostID), req.Reaction)
	if err != nil {
		writeInternalError(w, "failed to save reaction", err)
		return
	}

	a.audit.log(AuditReactionPosted, r)
	writeJSON(w, http.StatusOK, ReactionResponse{Success: true, Count: count})
}

// ListReactions handles GET /api/reactions?postId=...
func (a *API) ListReactions(w http.ResponseWriter, r *http.Request) {
	postID := r.URL.Query().Get("postId")
	if postID == "" {
		writeError(w, http.StatusBadRequest, "missing postId")
		return
	}

	counts, err := a.store.Reactions(sanitizePostID(postID))
	if err != nil {
		writeInternalError(w, "failed to load reactions", err)
		return
	}
	// Every known reaction appears in the response, zero or not.
	for reaction := range allowedReactions {
		if _, ok := counts[reaction]; !ok {
			counts[reaction] = 0
		}
	}
	writeJSON(w, http.StatusOK, counts)
}
