package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"golang.org/x/crypto/bcrypt"

	"github.com/realworld-apps/conduit-neo4j/internal/apperror"
	"github.com/realworld-apps/conduit-neo4j/internal/auth"
	"github.com/realworld-apps/conduit-neo4j/internal/model"
	"github.com/realworld-apps/conduit-neo4j/internal/repository"
	"github.com/realworld-apps/conduit-neo4j/internal/service"
)

// memUserRepo is an in-memory UserRepository so handler tests can run the
// real services and the real auth middleware end to end.
type memUserRepo struct {
	users   map[string]*model.User
	follows map[string]map[string]bool
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{
		users:   make(map[string]*model.User),
		follows: make(map[string]map[string]bool),
	}
}

func (m *memUserRepo) CreateUser(_ context.Context, user *model.User) error {
	for _, u := range m.users {
		if u.Username == user.Username || u.Email == user.Email {
			return apperror.Conflict("user", user.Username)
		}
	}
	clone := *user
	clone.CreatedAt = time.Now()
	m.users[user.ID] = &clone
	return nil
}

func (m *memUserRepo) FindByEmail(_ context.Context, email string) (*model.User, error) {
	for _, u := range m.users {
		if u.Email == email {
			clone := *u
			return &clone, nil
		}
	}
	return nil, apperror.NotFound("user", email)
}

func (m *memUserRepo) FindByUsername(_ context.Context, username string) (*model.User, error) {
	for _, u := range m.users {
		if u.Username == username {
			clone := *u
			return &clone, nil
		}
	}
	return nil, apperror.NotFound("user", username)
}

func (m *memUserRepo) UpdateUser(_ context.Context, id string, updates map[string]any) (*model.User, error) {
	u, ok := m.users[id]
	if !ok {
		return nil, apperror.NotFound("user", id)
	}
	for key, value := range updates {
		s, _ := value.(string)
		switch key {
		case "username":
			u.Username = s
		case "email":
			u.Email = s
		case "password":
			u.Password = s
		case "bio":
			u.Bio = s
		case "image":
			u.Image = s
		}
	}
	clone := *u
	return &clone, nil
}

func (m *memUserRepo) IsFollowing(_ context.Context, targetID, currentID string) (bool, error) {
	return m.follows[currentID][targetID], nil
}

func (m *memUserRepo) Follow(ctx context.Context, currentID, targetUsername string) (*model.User, error) {
	target, err := m.FindByUsername(ctx, targetUsername)
	if err != nil {
		return nil, err
	}
	if m.follows[currentID] == nil {
		m.follows[currentID] = make(map[string]bool)
	}
	m.follows[currentID][target.ID] = true
	return target, nil
}

func (m *memUserRepo) Unfollow(ctx context.Context, currentID, targetUsername string) (*model.User, error) {
	target, err := m.FindByUsername(ctx, targetUsername)
	if err != nil {
		return nil, err
	}
	delete(m.follows[currentID], target.ID)
	return target, nil
}

// stubArticleRepo replays canned results; the route-level behavior under
// test lives in the handlers and middleware.
type stubArticleRepo struct {
	article *model.Article
	page    *model.ArticlePage
	err     error
}

func (s *stubArticleRepo) CreateArticle(_ context.Context, authorID string, article *model.Article, _ []model.TagRef) error {
	if s.err != nil {
		return s.err
	}
	article.CreatedAt = time.Now()
	article.UpdatedAt = article.CreatedAt
	article.Author = &model.User{ID: authorID, Username: "jake", Email: "jake@jake.jake"}
	return nil
}

func (s *stubArticleRepo) ListArticles(_ context.Context, _ repository.ArticleFilters, _ repository.ListOptions, _ string) (*model.ArticlePage, error) {
	if s.err != nil {
		return nil, s.err
	}
	if s.page == nil {
		return &model.ArticlePage{Articles: []model.Article{}}, nil
	}
	return s.page, nil
}

func (s *stubArticleRepo) Feed(_ context.Context, _ string, _ repository.ArticleFilters, _ repository.ListOptions) (*model.ArticlePage, error) {
	return s.ListArticles(nil, repository.ArticleFilters{}, repository.ListOptions{}, "")
}

func (s *stubArticleRepo) FindBySlug(_ context.Context, slug, _ string) (*model.Article, error) {
	if s.article == nil {
		return nil, apperror.NotFound("article", slug)
	}
	return s.article, nil
}

func (s *stubArticleRepo) UpdateArticle(_ context.Context, slug, _ string, _ map[string]any, _ []model.TagRef) (*model.Article, error) {
	return s.FindBySlug(nil, slug, "")
}

func (s *stubArticleRepo) DeleteArticle(_ context.Context, slug, _ string) error {
	if s.article == nil {
		return apperror.NotFound("article", slug)
	}
	return nil
}

func (s *stubArticleRepo) Favorite(_ context.Context, slug, _ string) (*model.Article, error) {
	return s.FindBySlug(nil, slug, "")
}

func (s *stubArticleRepo) Unfavorite(_ context.Context, slug, _ string) (*model.Article, error) {
	return s.FindBySlug(nil, slug, "")
}

type stubCommentRepo struct {
	comments []model.Comment
	err      error
}

func (s *stubCommentRepo) CreateComment(_ context.Context, _, authorID string, comment *model.Comment) error {
	if s.err != nil {
		return s.err
	}
	comment.CreatedAt = time.Now()
	comment.UpdatedAt = comment.CreatedAt
	comment.Author = &model.User{ID: authorID, Username: "jake", Email: "jake@jake.jake"}
	return nil
}

func (s *stubCommentRepo) ListBySlug(_ context.Context, _ string) ([]model.Comment, error) {
	return s.comments, s.err
}

func (s *stubCommentRepo) DeleteComment(_ context.Context, _, _, _ string) error {
	return s.err
}

type stubTagRepo struct {
	tags []string
}

func (s *stubTagRepo) ListTags(_ context.Context) ([]string, error) {
	return s.tags, nil
}

// testEnv wires the real services and middleware over the in-memory repos,
// mirroring the production route table.
type testEnv struct {
	router   *chi.Mux
	users    *memUserRepo
	articles *stubArticleRepo
	comments *stubCommentRepo
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	tokens, err := auth.NewTokenService("test-secret-0123456789abcdef")
	if err != nil {
		t.Fatalf("NewTokenService() error = %v", err)
	}

	env := &testEnv{
		router:   chi.NewRouter(),
		users:    newMemUserRepo(),
		articles: &stubArticleRepo{},
		comments: &stubCommentRepo{},
	}

	userService := service.NewUserService(env.users, auth.NewPasswordServiceForTest(bcrypt.MinCost), tokens, logger)
	articleService := service.NewArticleService(env.articles, env.comments, logger)
	tagService := service.NewTagService(&stubTagRepo{tags: []string{"dragons", "training"}})

	users := NewUserHandler(userService)
	profiles := NewProfileHandler(userService)
	articles := NewArticleHandler(articleService)
	comments := NewCommentHandler(articleService)
	tags := NewTagHandler(tagService)

	requireAuth := auth.RequireAuth(tokens, env.users)
	optionalAuth := auth.OptionalAuth(tokens, env.users)

	env.router.Post("/users", users.Register)
	env.router.Post("/users/login", users.Login)

	env.router.Group(func(r chi.Router) {
		r.Use(requireAuth)
		r.Get("/user", users.Current)
		r.Put("/user", users.Update)
		r.Post("/profiles/{username}/follow", profiles.Follow)
		r.Delete("/profiles/{username}/follow", profiles.Unfollow)
		r.Get("/articles/feed", articles.Feed)
		r.Post("/articles", articles.Create)
		r.Put("/articles/{slug}", articles.Update)
		r.Delete("/articles/{slug}", articles.Delete)
		r.Post("/articles/{slug}/favorite", articles.Favorite)
		r.Delete("/articles/{slug}/favorite", articles.Unfavorite)
		r.Post("/articles/{slug}/comments", comments.Create)
		r.Delete("/articles/{slug}/comments/{id}", comments.Delete)
	})

	env.router.Group(func(r chi.Router) {
		r.Use(optionalAuth)
		r.Get("/profiles/{username}", profiles.Get)
		r.Get("/articles", articles.List)
		r.Get("/articles/{slug}", articles.Get)
	})

	env.router.Get("/articles/{slug}/comments", comments.List)
	env.router.Get("/tags", tags.List)

	return env
}

// request performs an HTTP request against the test router. A non-empty
// token goes out as "Authorization: Token <jwt>".
func (env *testEnv) request(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encoding request body: %v", err)
		}
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Token "+token)
	}

	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)
	return rec
}

// register creates an account through the real endpoint and returns its
// token.
func (env *testEnv) register(t *testing.T, username, email string) string {
	t.Helper()

	rec := env.request(t, http.MethodPost, "/users", "", map[string]any{
		"user": map[string]any{
			"username": username,
			"email":    email,
			"password": "password",
		},
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("register %s: status = %d, body = %s", username, rec.Code, rec.Body.String())
	}

	var envelope struct {
		User struct {
			Token string `json:"token"`
		} `json:"user"`
	}
	decodeBody(t, rec, &envelope)
	if envelope.User.Token == "" {
		t.Fatal("register returned no token")
	}
	return envelope.User.Token
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, dst any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), dst); err != nil {
		t.Fatalf("decoding response %q: %v", rec.Body.String(), err)
	}
}

func assertStatus(t *testing.T, rec *httptest.ResponseRecorder, want int) {
	t.Helper()
	assert.Equal(t, want, rec.Code, "body: %s", rec.Body.String())
}
