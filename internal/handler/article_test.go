package handler

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/realworld-apps/conduit-neo4j/internal/model"
)

func sampleArticle() *model.Article {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	return &model.Article{
		ID:          "a1",
		Slug:        "how-to-train-your-dragon-a1",
		Title:       "How to train your dragon",
		Description: "Ever wonder how?",
		Body:        "Very carefully.",
		CreatedAt:   now,
		UpdatedAt:   now,
		Author:      &model.User{ID: "u9", Username: "jane", Email: "jane@jane.jane"},
		TagList:     []string{"dragons"},
	}
}

func TestListArticlesEndpoint(t *testing.T) {
	env := newTestEnv(t)
	env.articles.page = &model.ArticlePage{
		ArticlesCount: 1,
		Articles:      []model.Article{*sampleArticle()},
	}

	rec := env.request(t, http.MethodGet, "/articles?tag=dragons&limit=10", "", nil)
	assertStatus(t, rec, http.StatusOK)

	var body struct {
		ArticlesCount int64 `json:"articlesCount"`
		Articles      []struct {
			Slug    string   `json:"slug"`
			TagList []string `json:"tagList"`
			Author  struct {
				Username string `json:"username"`
			} `json:"author"`
		} `json:"articles"`
	}
	decodeBody(t, rec, &body)

	assert.EqualValues(t, 1, body.ArticlesCount)
	if assert.Len(t, body.Articles, 1) {
		assert.Equal(t, "how-to-train-your-dragon-a1", body.Articles[0].Slug)
		assert.Equal(t, []string{"dragons"}, body.Articles[0].TagList)
		assert.Equal(t, "jane", body.Articles[0].Author.Username)
	}
}

func TestListArticlesEndpoint_EmptyListNotNull(t *testing.T) {
	env := newTestEnv(t)

	rec := env.request(t, http.MethodGet, "/articles", "", nil)
	assertStatus(t, rec, http.StatusOK)
	assert.Contains(t, rec.Body.String(), `"articles":[]`)
}

func TestFeedEndpoint_RequiresAuth(t *testing.T) {
	env := newTestEnv(t)

	rec := env.request(t, http.MethodGet, "/articles/feed", "", nil)
	assertStatus(t, rec, http.StatusForbidden)
}

func TestFeedEndpoint(t *testing.T) {
	env := newTestEnv(t)
	token := env.register(t, "jake", "jake@jake.jake")

	rec := env.request(t, http.MethodGet, "/articles/feed", token, nil)
	assertStatus(t, rec, http.StatusOK)
}

func TestGetArticleEndpoint_NotFound(t *testing.T) {
	env := newTestEnv(t)

	rec := env.request(t, http.MethodGet, "/articles/missing", "", nil)
	assertStatus(t, rec, http.StatusNotFound)

	var body ErrorResponse
	decodeBody(t, rec, &body)
	assert.Equal(t, "not_found", body.Error)
}

func TestCreateArticleEndpoint(t *testing.T) {
	env := newTestEnv(t)
	token := env.register(t, "jake", "jake@jake.jake")

	rec := env.request(t, http.MethodPost, "/articles", token, map[string]any{
		"article": map[string]any{
			"title":       "How to train your dragon",
			"description": "Ever wonder how?",
			"body":        "Very carefully.",
			"tagList":     []string{"dragons", "training"},
		},
	})

	assertStatus(t, rec, http.StatusCreated)

	var envelope struct {
		Article struct {
			Slug    string   `json:"slug"`
			Title   string   `json:"title"`
			TagList []string `json:"tagList"`
		} `json:"article"`
	}
	decodeBody(t, rec, &envelope)
	assert.Contains(t, envelope.Article.Slug, "how-to-train-your-dragon-")
	assert.Equal(t, "How to train your dragon", envelope.Article.Title)
	assert.NotNil(t, envelope.Article.TagList)
}

func TestCreateArticleEndpoint_RequiresAuth(t *testing.T) {
	env := newTestEnv(t)

	rec := env.request(t, http.MethodPost, "/articles", "", map[string]any{
		"article": map[string]any{"title": "T", "description": "d", "body": "b"},
	})
	assertStatus(t, rec, http.StatusForbidden)
}

func TestCreateArticleEndpoint_Validation(t *testing.T) {
	env := newTestEnv(t)
	token := env.register(t, "jake", "jake@jake.jake")

	rec := env.request(t, http.MethodPost, "/articles", token, map[string]any{
		"article": map[string]any{},
	})
	assertStatus(t, rec, http.StatusUnprocessableEntity)
}

func TestUpdateArticleEndpoint(t *testing.T) {
	env := newTestEnv(t)
	env.articles.article = sampleArticle()
	token := env.register(t, "jake", "jake@jake.jake")

	rec := env.request(t, http.MethodPut, "/articles/how-to-train-your-dragon-a1", token, map[string]any{
		"article": map[string]any{"title": "Updated"},
	})
	assertStatus(t, rec, http.StatusOK)
}

func TestDeleteArticleEndpoint(t *testing.T) {
	env := newTestEnv(t)
	env.articles.article = sampleArticle()
	token := env.register(t, "jake", "jake@jake.jake")

	rec := env.request(t, http.MethodDelete, "/articles/how-to-train-your-dragon-a1", token, nil)
	assertStatus(t, rec, http.StatusOK)
}

func TestFavoriteEndpoints(t *testing.T) {
	env := newTestEnv(t)
	article := sampleArticle()
	article.Favorited = true
	article.FavoritesCount = 1
	env.articles.article = article
	token := env.register(t, "jake", "jake@jake.jake")

	rec := env.request(t, http.MethodPost, "/articles/how-to-train-your-dragon-a1/favorite", token, nil)
	assertStatus(t, rec, http.StatusCreated)

	var envelope struct {
		Article struct {
			Favorited      bool  `json:"favorited"`
			FavoritesCount int64 `json:"favoritesCount"`
		} `json:"article"`
	}
	decodeBody(t, rec, &envelope)
	assert.True(t, envelope.Article.Favorited)
	assert.EqualValues(t, 1, envelope.Article.FavoritesCount)

	rec = env.request(t, http.MethodDelete, "/articles/how-to-train-your-dragon-a1/favorite", token, nil)
	assertStatus(t, rec, http.StatusOK)
}

func TestCommentEndpoints(t *testing.T) {
	env := newTestEnv(t)
	token := env.register(t, "jake", "jake@jake.jake")

	t.Run("create", func(t *testing.T) {
		rec := env.request(t, http.MethodPost, "/articles/some-slug/comments", token, map[string]any{
			"comment": map[string]any{"body": "His name was my name too."},
		})
		assertStatus(t, rec, http.StatusCreated)

		var envelope struct {
			Comment struct {
				ID   string `json:"id"`
				Body string `json:"body"`
			} `json:"comment"`
		}
		decodeBody(t, rec, &envelope)
		assert.NotEmpty(t, envelope.Comment.ID)
		assert.Equal(t, "His name was my name too.", envelope.Comment.Body)
	})

	t.Run("create empty body", func(t *testing.T) {
		rec := env.request(t, http.MethodPost, "/articles/some-slug/comments", token, map[string]any{
			"comment": map[string]any{"body": ""},
		})
		assertStatus(t, rec, http.StatusUnprocessableEntity)
	})

	t.Run("list is public", func(t *testing.T) {
		env.comments.comments = []model.Comment{{
			ID:     "c1",
			Body:   "first",
			Author: &model.User{ID: "u1", Username: "jake", Email: "jake@jake.jake"},
		}}

		rec := env.request(t, http.MethodGet, "/articles/some-slug/comments", "", nil)
		assertStatus(t, rec, http.StatusOK)

		var envelope struct {
			Comments []struct {
				ID string `json:"id"`
			} `json:"comments"`
		}
		decodeBody(t, rec, &envelope)
		assert.Len(t, envelope.Comments, 1)
	})

	t.Run("delete requires auth", func(t *testing.T) {
		rec := env.request(t, http.MethodDelete, "/articles/some-slug/comments/c1", "", nil)
		assertStatus(t, rec, http.StatusForbidden)
	})

	t.Run("delete", func(t *testing.T) {
		rec := env.request(t, http.MethodDelete, "/articles/some-slug/comments/c1", token, nil)
		assertStatus(t, rec, http.StatusOK)
	})
}

func TestTagsEndpoint(t *testing.T) {
	env := newTestEnv(t)

	rec := env.request(t, http.MethodGet, "/tags", "", nil)
	assertStatus(t, rec, http.StatusOK)

	var envelope struct {
		Tags []string `json:"tags"`
	}
	decodeBody(t, rec, &envelope)
	assert.Equal(t, []string{"dragons", "training"}, envelope.Tags)
}

func TestMalformedJSONBody(t *testing.T) {
	env := newTestEnv(t)

	req := env.request(t, http.MethodPost, "/users", "", nil) // empty body
	assertStatus(t, req, http.StatusUnprocessableEntity)
}
