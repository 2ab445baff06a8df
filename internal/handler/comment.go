package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/realworld-apps/conduit-neo4j/internal/apperror"
	"github.com/realworld-apps/conduit-neo4j/internal/auth"
	"github.com/realworld-apps/conduit-neo4j/internal/model"
	"github.com/realworld-apps/conduit-neo4j/internal/service"
)

// CommentHandler serves the comment endpoints under /articles/{slug}.
type CommentHandler struct {
	articles *service.ArticleService
}

func NewCommentHandler(articles *service.ArticleService) *CommentHandler {
	return &CommentHandler{articles: articles}
}

type commentEnvelope struct {
	Comment model.CommentJSON `json:"comment"`
}

type commentsEnvelope struct {
	Comments []model.CommentJSON `json:"comments"`
}

type createCommentRequest struct {
	Comment struct {
		Body string `json:"body"`
	} `json:"comment"`
}

// Create handles POST /articles/{slug}/comments.
func (h *CommentHandler) Create(w http.ResponseWriter, r *http.Request) {
	author, ok := auth.CurrentUser(r.Context())
	if !ok {
		writeError(w, apperror.Forbidden("authentication required"))
		return
	}

	var req createCommentRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}

	comment, err := h.articles.AddComment(r.Context(), author, chi.URLParam(r, "slug"), req.Comment.Body)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, commentEnvelope{Comment: comment.JSON()})
}

// List handles GET /articles/{slug}/comments.
func (h *CommentHandler) List(w http.ResponseWriter, r *http.Request) {
	comments, err := h.articles.Comments(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		writeError(w, err)
		return
	}

	body := make([]model.CommentJSON, 0, len(comments))
	for i := range comments {
		body = append(body, comments[i].JSON())
	}
	writeJSON(w, http.StatusOK, commentsEnvelope{Comments: body})
}

// Delete handles DELETE /articles/{slug}/comments/{id}.
func (h *CommentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	requester, ok := auth.CurrentUser(r.Context())
	if !ok {
		writeError(w, apperror.Forbidden("authentication required"))
		return
	}

	err := h.articles.DeleteComment(r.Context(), requester, chi.URLParam(r, "slug"), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{})
}
