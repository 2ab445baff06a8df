package service

import (
	"context"

	"github.com/realworld-apps/conduit-neo4j/internal/apperror"
	"github.com/realworld-apps/conduit-neo4j/internal/model"
	"github.com/realworld-apps/conduit-neo4j/internal/repository"
)

// mockUserRepo is an in-memory UserRepository keyed by user id.
type mockUserRepo struct {
	users   map[string]*model.User
	follows map[string]map[string]bool // followerID -> targetID -> true

	createErr error
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{
		users:   make(map[string]*model.User),
		follows: make(map[string]map[string]bool),
	}
}

func (m *mockUserRepo) CreateUser(_ context.Context, user *model.User) error {
	if m.createErr != nil {
		return m.createErr
	}
	for _, existing := range m.users {
		if existing.Username == user.Username {
			return apperror.Conflict("user", user.Username)
		}
		if existing.Email == user.Email {
			return apperror.Conflict("user", user.Email)
		}
	}
	clone := *user
	m.users[user.ID] = &clone
	return nil
}

func (m *mockUserRepo) FindByEmail(_ context.Context, email string) (*model.User, error) {
	for _, u := range m.users {
		if u.Email == email {
			clone := *u
			return &clone, nil
		}
	}
	return nil, apperror.NotFound("user", email)
}

func (m *mockUserRepo) FindByUsername(_ context.Context, username string) (*model.User, error) {
	for _, u := range m.users {
		if u.Username == username {
			clone := *u
			return &clone, nil
		}
	}
	return nil, apperror.NotFound("user", username)
}

func (m *mockUserRepo) UpdateUser(_ context.Context, id string, updates map[string]any) (*model.User, error) {
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

func (m *mockUserRepo) IsFollowing(_ context.Context, targetID, currentID string) (bool, error) {
	return m.follows[currentID][targetID], nil
}

func (m *mockUserRepo) Follow(ctx context.Context, currentID, targetUsername string) (*model.User, error) {
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

func (m *mockUserRepo) Unfollow(ctx context.Context, currentID, targetUsername string) (*model.User, error) {
	target, err := m.FindByUsername(ctx, targetUsername)
	if err != nil {
		return nil, err
	}
	delete(m.follows[currentID], target.ID)
	return target, nil
}

// mockArticleRepo records the arguments of the last call and replays canned
// results; the services under test own all the interesting logic.
type mockArticleRepo struct {
	lastAuthorID string
	lastArticle  *model.Article
	lastTags     []model.TagRef
	lastFilters  repository.ArticleFilters
	lastOpts     repository.ListOptions
	lastViewerID string
	lastUpdates  map[string]any
	lastSlug     string

	page    *model.ArticlePage
	article *model.Article
	err     error
}

func (m *mockArticleRepo) CreateArticle(_ context.Context, authorID string, article *model.Article, tags []model.TagRef) error {
	m.lastAuthorID = authorID
	m.lastArticle = article
	m.lastTags = tags
	return m.err
}

func (m *mockArticleRepo) ListArticles(_ context.Context, filters repository.ArticleFilters, opts repository.ListOptions, viewerID string) (*model.ArticlePage, error) {
	m.lastFilters = filters
	m.lastOpts = opts
	m.lastViewerID = viewerID
	if m.err != nil {
		return nil, m.err
	}
	if m.page == nil {
		return &model.ArticlePage{Articles: []model.Article{}}, nil
	}
	return m.page, nil
}

func (m *mockArticleRepo) Feed(_ context.Context, viewerID string, filters repository.ArticleFilters, opts repository.ListOptions) (*model.ArticlePage, error) {
	m.lastViewerID = viewerID
	m.lastFilters = filters
	m.lastOpts = opts
	if m.err != nil {
		return nil, m.err
	}
	if m.page == nil {
		return &model.ArticlePage{Articles: []model.Article{}}, nil
	}
	return m.page, nil
}

func (m *mockArticleRepo) FindBySlug(_ context.Context, slug, viewerID string) (*model.Article, error) {
	m.lastSlug = slug
	m.lastViewerID = viewerID
	if m.err != nil {
		return nil, m.err
	}
	if m.article == nil {
		return nil, apperror.NotFound("article", slug)
	}
	return m.article, nil
}

func (m *mockArticleRepo) UpdateArticle(_ context.Context, slug, authorID string, updates map[string]any, tags []model.TagRef) (*model.Article, error) {
	m.lastSlug = slug
	m.lastAuthorID = authorID
	m.lastUpdates = updates
	m.lastTags = tags
	if m.err != nil {
		return nil, m.err
	}
	if m.article == nil {
		return nil, apperror.NotFound("article", slug)
	}
	return m.article, nil
}

func (m *mockArticleRepo) DeleteArticle(_ context.Context, slug, authorID string) error {
	m.lastSlug = slug
	m.lastAuthorID = authorID
	return m.err
}

func (m *mockArticleRepo) Favorite(_ context.Context, slug, viewerID string) (*model.Article, error) {
	m.lastSlug = slug
	m.lastViewerID = viewerID
	if m.err != nil {
		return nil, m.err
	}
	if m.article == nil {
		return nil, apperror.NotFound("article", slug)
	}
	return m.article, nil
}

func (m *mockArticleRepo) Unfavorite(_ context.Context, slug, viewerID string) (*model.Article, error) {
	return m.Favorite(nil, slug, viewerID)
}

// mockCommentRepo mirrors mockArticleRepo for comments.
type mockCommentRepo struct {
	lastSlug        string
	lastAuthorID    string
	lastCommentID   string
	lastRequesterID string
	lastComment     *model.Comment

	comments []model.Comment
	err      error
}

func (m *mockCommentRepo) CreateComment(_ context.Context, slug, authorID string, comment *model.Comment) error {
	m.lastSlug = slug
	m.lastAuthorID = authorID
	m.lastComment = comment
	return m.err
}

func (m *mockCommentRepo) ListBySlug(_ context.Context, slug string) ([]model.Comment, error) {
	m.lastSlug = slug
	return m.comments, m.err
}

func (m *mockCommentRepo) DeleteComment(_ context.Context, slug, commentID, requesterID string) error {
	m.lastSlug = slug
	m.lastCommentID = commentID
	m.lastRequesterID = requesterID
	return m.err
}

// mockTagRepo replays a canned tag list.
type mockTagRepo struct {
	tags []string
	err  error
}

func (m *mockTagRepo) ListTags(_ context.Context) ([]string, error) {
	return m.tags, m.err
}
