package api

import "github.com/geeklurk/lurkgate/storage"

// ErrorResponse is the uniform error body.
type ErrorResponse struct {
	Error string `json:"error"`
}

// LoginRequest is the JSON body for POST /api/admin/login.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginResponse is returned on successful authentication.
type LoginResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// LogoutResponse is returned from POST /api/admin/logout.
type LogoutResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// CommentRequest is the JSON body for POST /api/comments.
type CommentRequest struct {
	PostID   string `json:"postId"`
	Username string `json:"username"`
	Text     string `json:"text"`
}

// CommentResponse is returned from POST /api/comments.
type CommentResponse struct {
	Success bool            `json:"success"`
	Comment storage.Comment `json:"comment"`
}

// ReactionRequest is the JSON body for POST /api/reactions.
type ReactionRequest struct {
	PostID   string `json:"postId"`
	Reaction string `json:"reaction"`
}

// ReactionResponse is returned from POST /api/reactions.
type ReactionResponse struct {
	Success bool `json:"success"`
	Count   int  `json:"count"`
}

// UploadResponse is returned from POST /api/admin/upload.
type UploadResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Slug    string `json:"slug"`
}
