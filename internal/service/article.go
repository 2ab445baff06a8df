package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/gosimple/slug"
	"github.com/rs/xid"

	"github.com/realworld-apps/conduit-neo4j/internal/apperror"
	"github.com/realworld-apps/conduit-neo4j/internal/model"
	"github.com/realworld-apps/conduit-neo4j/internal/repository"
)

const (
	// DefaultListLimit is the page size when the client does not ask for one.
	DefaultListLimit = 20
	// MaxListLimit caps the page size a client may request.
	MaxListLimit = 100
)

// ArticleService handles articles, favorites and comments.
type ArticleService struct {
	articles repository.ArticleRepository
	comments repository.CommentRepository
	logger   *slog.Logger
}

func NewArticleService(
	articles repository.ArticleRepository,
	comments repository.CommentRepository,
	logger *slog.Logger,
) *ArticleService {
	return &ArticleService{
		articles: articles,
		comments: comments,
		logger:   logger,
	}
}

// CreateArticleParams are the fields accepted by Create. TagList is
// optional.
type CreateArticleParams struct {
	Title       string
	Description string
	Body        string
	TagList     []string
}

// Create stores a new article for the author. The slug is derived from the
// title plus a random id suffix, so two articles may share a title without
// colliding.
func (s *ArticleService) Create(ctx context.Context, author *model.User, p CreateArticleParams) (*model.Article, error) {
	p.Title = strings.TrimSpace(p.Title)
	p.Description = strings.TrimSpace(p.Description)

	v := apperror.NewValidationErrors()
	if p.Title == "" {
		v.Add("title", "title is required")
	}
	if p.Description == "" {
		v.Add("description", "description is required")
	}
	if strings.TrimSpace(p.Body) == "" {
		v.Add("body", "body is required")
	}
	if err := v.ErrOrNil(); err != nil {
		return nil, err
	}

	id := xid.New().String()
	article := &model.Article{
		ID:          id,
		Slug:        slug.Make(p.Title + " " + id),
		Title:       p.Title,
		Description: p.Description,
		Body:        p.Body,
	}

	if err := s.articles.CreateArticle(ctx, author.ID, article, tagRefs(p.TagList)); err != nil {
		return nil, fmt.Errorf("creating article %q: %w", p.Title, err)
	}

	s.logger.Info("article created",
		slog.String("slug", article.Slug),
		slog.String("author", author.Username),
	)

	return article, nil
}

// ListParams are the query parameters of the listing endpoints. Tag is a
// comma-separated list; articles must carry every named tag.
type ListParams struct {
	Tag       string
	Author    string
	Favorited string
	Limit     int
	Offset    int
}

// List returns one page of the global article listing, newest first.
// viewer may be nil; it only affects the favorited flag on each article.
func (s *ArticleService) List(ctx context.Context, p ListParams, viewer *model.User) (*model.ArticlePage, error) {
	page, err := s.articles.ListArticles(ctx, filtersFrom(p), optionsFrom(p), viewerID(viewer))
	if err != nil {
		return nil, fmt.Errorf("listing articles: %w", err)
	}
	return page, nil
}

// Feed returns one page of articles by authors the viewer follows.
func (s *ArticleService) Feed(ctx context.Context, viewer *model.User, p ListParams) (*model.ArticlePage, error) {
	page, err := s.articles.Feed(ctx, viewer.ID, filtersFrom(p), optionsFrom(p))
	if err != nil {
		return nil, fmt.Errorf("listing feed for %s: %w", viewer.Username, err)
	}
	return page, nil
}

// Get resolves a slug. viewer may be nil.
func (s *ArticleService) Get(ctx context.Context, articleSlug string, viewer *model.User) (*model.Article, error) {
	return s.articles.FindBySlug(ctx, articleSlug, viewerID(viewer))
}

// UpdateArticleParams are the optional fields of PUT /articles/{slug}.
// A nil field is left untouched; a non-nil TagList replaces all tags.
type UpdateArticleParams struct {
	Title       *string
	Description *string
	Body        *string
	TagList     []string
}

// Update applies a partial edit to the author's own article. Changing the
// title does not change the slug. A non-owner's attempt is indistinguishable
// from an unknown slug.
func (s *ArticleService) Update(ctx context.Context, author *model.User, articleSlug string, p UpdateArticleParams) (*model.Article, error) {
	updates := make(map[string]any)

	if p.Title != nil {
		title := strings.TrimSpace(*p.Title)
		if title == "" {
			return nil, apperror.ValidationFailed("title", "title must not be empty")
		}
		updates["title"] = title
	}
	if p.Description != nil {
		updates["description"] = *p.Description
	}
	if p.Body != nil {
		updates["body"] = *p.Body
	}

	article, err := s.articles.UpdateArticle(ctx, articleSlug, author.ID, updates, tagRefs(p.TagList))
	if err != nil {
		return nil, err
	}

	s.logger.Info("article updated", slog.String("slug", articleSlug))
	return article, nil
}

// Delete removes the author's own article and its comments.
func (s *ArticleService) Delete(ctx context.Context, author *model.User, articleSlug string) error {
	if err := s.articles.DeleteArticle(ctx, articleSlug, author.ID); err != nil {
		return err
	}

	s.logger.Info("article deleted",
		slog.String("slug", articleSlug),
		slog.String("author", author.Username),
	)
	return nil
}

// Favorite marks the article as a favorite of the viewer. Favoriting twice
// is a no-op.
func (s *ArticleService) Favorite(ctx context.Context, viewer *model.User, articleSlug string) (*model.Article, error) {
	return s.articles.Favorite(ctx, articleSlug, viewer.ID)
}

// Unfavorite removes the viewer's favorite mark. Removing an absent mark is
// a no-op.
func (s *ArticleService) Unfavorite(ctx context.Context, viewer *model.User, articleSlug string) (*model.Article, error) {
	return s.articles.Unfavorite(ctx, articleSlug, viewer.ID)
}

// AddComment attaches a new comment to the article with the given slug.
func (s *ArticleService) AddComment(ctx context.Context, author *model.User, articleSlug, body string) (*model.Comment, error) {
	if strings.TrimSpace(body) == "" {
		return nil, apperror.ValidationFailed("body", "body is required")
	}

	comment := &model.Comment{
		ID:   xid.New().String(),
		Body: body,
	}
	if err := s.comments.CreateComment(ctx, articleSlug, author.ID, comment); err != nil {
		return nil, err
	}

	s.logger.Info("comment created",
		slog.String("id", comment.ID),
		slog.String("slug", articleSlug),
	)
	return comment, nil
}

// Comments lists the article's comments, newest first.
func (s *ArticleService) Comments(ctx context.Context, articleSlug string) ([]model.Comment, error) {
	return s.comments.ListBySlug(ctx, articleSlug)
}

// DeleteComment removes the requester's own comment from the article.
func (s *ArticleService) DeleteComment(ctx context.Context, requester *model.User, articleSlug, commentID string) error {
	return s.comments.DeleteComment(ctx, articleSlug, commentID, requester.ID)
}

// tagRefs normalizes raw tag names into refs with stable ids and slugs.
// Blank and duplicate names are dropped.
func tagRefs(names []string) []model.TagRef {
	refs := make([]model.TagRef, 0, len(names))
	seen := make(map[string]struct{}, len(names))
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		refs = append(refs, model.TagRef{
			ID:   xid.New().String(),
			Name: name,
			Slug: slug.Make(name),
		})
	}
	return refs
}

func filtersFrom(p ListParams) repository.ArticleFilters {
	var tags []string
	for _, t := range strings.Split(p.Tag, ",") {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}
	return repository.ArticleFilters{
		Author:      strings.TrimSpace(p.Author),
		FavoritedBy: strings.TrimSpace(p.Favorited),
		Tags:        tags,
	}
}

func optionsFrom(p ListParams) repository.ListOptions {
	limit := p.Limit
	switch {
	case limit <= 0:
		limit = DefaultListLimit
	case limit > MaxListLimit:
		limit = MaxListLimit
	}

	skip := p.Offset
	if skip < 0 {
		skip = 0
	}

	return repository.ListOptions{Skip: skip, Limit: limit}
}

func viewerID(viewer *model.User) string {
	if viewer == nil {
		return ""
	}
	return viewer.ID
}
