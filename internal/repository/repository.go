// Package repository defines the storage interfaces the service layer
// depends on. The concrete implementation lives in repository/neo4j; tests
// substitute in-memory mocks.
package repository

import (
	"context"

	"github.com/realworld-apps/conduit-neo4j/internal/model"
)

// ListOptions carries pagination. Skip/Limit are clamped by the service
// layer before they reach a repository.
type ListOptions struct {
	Skip  int
	Limit int
}

// ArticleFilters enumerates the optional listing predicates. Each zero
// value means "not filtered"; each set field contributes exactly one
// predicate, independently of the others.
type ArticleFilters struct {
	Author      string   // username of the posting user
	FavoritedBy string   // username of a user who favorited the article
	Tags        []string // article must carry ALL of these tag names
}

// UserRepository persists user nodes and FOLLOWS edges.
type UserRepository interface {
	// Create stores a new user. Returns a conflict error when the
	// username or email is already taken.
	CreateUser(ctx context.Context, user *model.User) error
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	FindByUsername(ctx context.Context, username string) (*model.User, error)
	// Update shallow-merges the given properties onto the user node and
	// refreshes updatedAt.
	UpdateUser(ctx context.Context, id string, updates map[string]any) (*model.User, error)

	IsFollowing(ctx context.Context, targetID, currentID string) (bool, error)
	// Follow merges a FOLLOWS edge and returns the target user, or a
	// not-found error when the username does not resolve.
	Follow(ctx context.Context, currentID, targetUsername string) (*model.User, error)
	// Unfollow removes the FOLLOWS edge if present. Absence of the edge is
	// not an error; an unknown username is.
	Unfollow(ctx context.Context, currentID, targetUsername string) (*model.User, error)
}

// ArticleRepository persists article nodes with their POSTED, HAS_TAG and
// FAVORITED edges. viewerID is the requesting user's id, or "" for an
// anonymous viewer; it only influences the computed favorited flag.
type ArticleRepository interface {
	// Create stores the article, links its author and merges its tags.
	CreateArticle(ctx context.Context, authorID string, article *model.Article, tags []model.TagRef) error
	// List returns one page plus the pre-pagination match count, newest
	// first, both computed in a single query.
	ListArticles(ctx context.Context, filters ArticleFilters, opts ListOptions, viewerID string) (*model.ArticlePage, error)
	// Feed is List restricted to authors the viewer follows.
	Feed(ctx context.Context, viewerID string, filters ArticleFilters, opts ListOptions) (*model.ArticlePage, error)
	FindBySlug(ctx context.Context, slug, viewerID string) (*model.Article, error)
	// Update matches on slug AND author ownership in one query; a
	// non-owner's attempt matches nothing and surfaces as not-found.
	// A non-empty tags list replaces all tag edges.
	UpdateArticle(ctx context.Context, slug, authorID string, updates map[string]any, tags []model.TagRef) (*model.Article, error)
	// Delete removes the article and all of its comments, matching on
	// slug AND author ownership.
	DeleteArticle(ctx context.Context, slug, authorID string) error
	// Favorite/Unfavorite idempotently create/remove the FAVORITED edge
	// and return the refreshed article.
	Favorite(ctx context.Context, slug, viewerID string) (*model.Article, error)
	Unfavorite(ctx context.Context, slug, viewerID string) (*model.Article, error)
}

// CommentRepository persists comment nodes attached to articles.
type CommentRepository interface {
	// Create attaches a new comment to the article with the given slug.
	// Returns not-found when the slug does not resolve.
	CreateComment(ctx context.Context, slug, authorID string, comment *model.Comment) error
	// ListBySlug returns the article's comments newest first, with authors.
	ListBySlug(ctx context.Context, slug string) ([]model.Comment, error)
	// Delete removes the comment only when it is attached to the given
	// slug AND owned by the requester, both in one match.
	DeleteComment(ctx context.Context, slug, commentID, requesterID string) error
}

// TagRepository reads the distinct tag index.
type TagRepository interface {
	ListTags(ctx context.Context) ([]string, error)
}
