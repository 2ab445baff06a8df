package handler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/realworld-apps/conduit-neo4j/internal/apperror"
	"github.com/realworld-apps/conduit-neo4j/internal/auth"
	"github.com/realworld-apps/conduit-neo4j/internal/model"
	"github.com/realworld-apps/conduit-neo4j/internal/service"
)

// ArticleHandler serves the article endpoints: listings, feed, CRUD, and
// favorites.
type ArticleHandler struct {
	articles *service.ArticleService
}

func NewArticleHandler(articles *service.ArticleService) *ArticleHandler {
	return &ArticleHandler{articles: articles}
}

type articleEnvelope struct {
	Article model.ArticleJSON `json:"article"`
}

type createArticleRequest struct {
	Article struct {
		Title       string   `json:"title"`
		Description string   `json:"description"`
		Body        string   `json:"body"`
		TagList     []string `json:"tagList"`
	} `json:"article"`
}

type updateArticleRequest struct {
	Article struct {
		Title       *string  `json:"title"`
		Description *string  `json:"description"`
		Body        *string  `json:"body"`
		TagList     []string `json:"tagList"`
	} `json:"article"`
}

// List handles GET /articles. Anonymous requests see favorited=false
// everywhere.
func (h *ArticleHandler) List(w http.ResponseWriter, r *http.Request) {
	viewer, _ := auth.CurrentUser(r.Context())

	page, err := h.articles.List(r.Context(), listParams(r), viewer)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, page.JSON())
}

// Feed handles GET /articles/feed.
func (h *ArticleHandler) Feed(w http.ResponseWriter, r *http.Request) {
	viewer, ok := auth.CurrentUser(r.Context())
	if !ok {
		writeError(w, apperror.Forbidden("authentication required"))
		return
	}

	page, err := h.articles.Feed(r.Context(), viewer, listParams(r))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, page.JSON())
}

// Get handles GET /articles/{slug}.
func (h *ArticleHandler) Get(w http.ResponseWriter, r *http.Request) {
	viewer, _ := auth.CurrentUser(r.Context())

	article, err := h.articles.Get(r.Context(), chi.URLParam(r, "slug"), viewer)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, articleEnvelope{Article: article.JSON()})
}

// Create handles POST /articles.
func (h *ArticleHandler) Create(w http.ResponseWriter, r *http.Request) {
	author, ok := auth.CurrentUser(r.Context())
	if !ok {
		writeError(w, apperror.Forbidden("authentication required"))
		return
	}

	var req createArticleRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}

	article, err := h.articles.Create(r.Context(), author, service.CreateArticleParams{
		Title:       req.Article.Title,
		Description: req.Article.Description,
		Body:        req.Article.Body,
		TagList:     req.Article.TagList,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, articleEnvelope{Article: article.JSON()})
}

// Update handles PUT /articles/{slug}.
func (h *ArticleHandler) Update(w http.ResponseWriter, r *http.Request) {
	author, ok := auth.CurrentUser(r.Context())
	if !ok {
		writeError(w, apperror.Forbidden("authentication required"))
		return
	}

	var req updateArticleRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}

	article, err := h.articles.Update(r.Context(), author, chi.URLParam(r, "slug"), service.UpdateArticleParams{
		Title:       req.Article.Title,
		Description: req.Article.Description,
		Body:        req.Article.Body,
		TagList:     req.Article.TagList,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, articleEnvelope{Article: article.JSON()})
}

// Delete handles DELETE /articles/{slug}.
func (h *ArticleHandler) Delete(w http.ResponseWriter, r *http.Request) {
	author, ok := auth.CurrentUser(r.Context())
	if !ok {
		writeError(w, apperror.Forbidden("authentication required"))
		return
	}

	if err := h.articles.Delete(r.Context(), author, chi.URLParam(r, "slug")); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{})
}

// Favorite handles POST /articles/{slug}/favorite.
func (h *ArticleHandler) Favorite(w http.ResponseWriter, r *http.Request) {
	viewer, ok := auth.CurrentUser(r.Context())
	if !ok {
		writeError(w, apperror.Forbidden("authentication required"))
		return
	}

	article, err := h.articles.Favorite(r.Context(), viewer, chi.URLParam(r, "slug"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, articleEnvelope{Article: article.JSON()})
}

// Unfavorite handles DELETE /articles/{slug}/favorite.
func (h *ArticleHandler) Unfavorite(w http.ResponseWriter, r *http.Request) {
	viewer, ok := auth.CurrentUser(r.Context())
	if !ok {
		writeError(w, apperror.Forbidden("authentication required"))
		return
	}

	article, err := h.articles.Unfavorite(r.Context(), viewer, chi.URLParam(r, "slug"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, articleEnvelope{Article: article.JSON()})
}

// listParams parses the shared listing query parameters. Unparseable
// numbers fall back to the defaults rather than failing the request.
func listParams(r *http.Request) service.ListParams {
	q := r.URL.Query()

	p := service.ListParams{
		Tag:       q.Get("tag"),
		Author:    q.Get("author"),
		Favorited: q.Get("favorited"),
	}
	if limit, err := strconv.Atoi(q.Get("limit")); err == nil {
		p.Limit = limit
	}
	if offset, err := strconv.Atoi(q.Get("offset")); err == nil {
		p.Offset = offset
	}
	return p
}
