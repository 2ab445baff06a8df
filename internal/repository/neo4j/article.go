package neo4j

import (
	"context"
	"strings"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/realworld-apps/conduit-neo4j/internal/apperror"
	"github.com/realworld-apps/conduit-neo4j/internal/model"
	"github.com/realworld-apps/conduit-neo4j/internal/repository"
)

// articleProjection is the shared RETURN shape for article queries: the raw
// node plus author, tag names, and the viewer-dependent favorite fields.
// Every query using it must bind $viewerId (null for anonymous viewers).
const articleProjection = `
	a,
	[ (a)<-[:POSTED]-(pu) | pu ][0] AS author,
	[ (a)-[:HAS_TAG]->(t) | t.name ] AS tagList,
	CASE
		WHEN $viewerId IS NULL THEN false
		ELSE EXISTS { (a)<-[:FAVORITED]-(:User {id: $viewerId}) }
	END AS favorited,
	COUNT { (a)<-[:FAVORITED]-() } AS favoritesCount`

// mergeTags is the clause that merges each entry of $tags into an
// existing-or-new Tag node and links it to a. Ids and slugs are computed by
// the caller; an existing tag keeps its own.
const mergeTags = `
	FOREACH (tag IN $tags |
		MERGE (t:Tag {name: tag.name})
		ON CREATE SET t.id = tag.id, t.slug = tag.slug
		MERGE (a)-[:HAS_TAG]->(t)
	)`

// CreateArticle stores the article, connects its author and merges its tags, all
// in one write query. The returned projection refreshes the computed fields
// on the passed-in article.
func (db *DB) CreateArticle(ctx context.Context, authorID string, article *model.Article, tags []model.TagRef) error {
	now := time.Now()
	article.CreatedAt = now
	article.UpdatedAt = now

	result, err := db.runner.Run(ctx, `
		MATCH (u:User {id: $authorId})
		CREATE (a:Article {
			id: $id,
			slug: $slug,
			title: $title,
			description: $description,
			body: $body,
			createdAt: $now,
			updatedAt: $now
		})
		CREATE (u)-[:POSTED]->(a)
		`+mergeTags+`
		RETURN`+articleProjection,
		map[string]any{
			"authorId":    authorID,
			"id":          article.ID,
			"slug":        article.Slug,
			"title":       article.Title,
			"description": article.Description,
			"body":        article.Body,
			"now":         now,
			"tags":        tagParams(tags),
			"viewerId":    authorID,
		})
	if err != nil {
		return err
	}
	if len(result.Records) == 0 {
		return apperror.NotFound("user", authorID)
	}

	created, err := articleFromRecord(result.Records[0])
	if err != nil {
		return err
	}
	*article = *created
	return nil
}

// ListArticles returns one page of articles matching the filters, newest first,
// together with the total match count. Count and page come from the same
// query so they cannot drift apart.
func (db *DB) ListArticles(ctx context.Context, filters repository.ArticleFilters, opts repository.ListOptions, viewerID string) (*model.ArticlePage, error) {
	params := map[string]any{
		"viewerId": nilIfEmpty(viewerID),
		"skip":     int64(opts.Skip),
		"limit":    int64(opts.Limit),
	}
	where := filterClause(filters, params)

	result, err := db.runner.Run(ctx, `
		MATCH (a:Article)
		`+where+`
		WITH count(a) AS articlesCount, collect(a) AS matched
		UNWIND matched AS a
		WITH articlesCount, a
		ORDER BY a.createdAt DESC
		SKIP $skip LIMIT $limit
		RETURN articlesCount,`+articleProjection,
		params)
	if err != nil {
		return nil, err
	}

	return pageFromResult(result)
}

// Feed is ListArticles restricted to articles posted by users the viewer follows.
func (db *DB) Feed(ctx context.Context, viewerID string, filters repository.ArticleFilters, opts repository.ListOptions) (*model.ArticlePage, error) {
	params := map[string]any{
		"viewerId": viewerID,
		"skip":     int64(opts.Skip),
		"limit":    int64(opts.Limit),
	}
	where := filterClause(filters, params)

	result, err := db.runner.Run(ctx, `
		MATCH (:User {id: $viewerId})-[:FOLLOWS]->(:User)-[:POSTED]->(a:Article)
		`+where+`
		WITH count(a) AS articlesCount, collect(a) AS matched
		UNWIND matched AS a
		WITH articlesCount, a
		ORDER BY a.createdAt DESC
		SKIP $skip LIMIT $limit
		RETURN articlesCount,`+articleProjection,
		params)
	if err != nil {
		return nil, err
	}

	return pageFromResult(result)
}

// FindBySlug returns a single article with the full join shape.
func (db *DB) FindBySlug(ctx context.Context, slug, viewerID string) (*model.Article, error) {
	result, err := db.runner.Run(ctx, `
		MATCH (a:Article {slug: $slug})
		RETURN`+articleProjection,
		map[string]any{
			"slug":     slug,
			"viewerId": nilIfEmpty(viewerID),
		})
	if err != nil {
		return nil, err
	}
	if len(result.Records) == 0 {
		return nil, apperror.NotFound("article", slug)
	}

	return articleFromRecord(result.Records[0])
}

// UpdateArticle applies the partial update to the author's own article. The MATCH
// requires both slug and ownership, so a non-owner's attempt matches nothing
// and is reported as not-found. A non-empty tags list first deletes every
// HAS_TAG edge, then merges the new set; an empty list leaves tags alone.
// The slug is never part of $updates.
func (db *DB) UpdateArticle(ctx context.Context, slug, authorID string, updates map[string]any, tags []model.TagRef) (*model.Article, error) {
	result, err := db.runner.Run(ctx, `
		MATCH (u:User {id: $authorId})-[:POSTED]->(a:Article {slug: $slug})
		SET a += $updates, a.updatedAt = $now
		FOREACH (r IN CASE WHEN size($tags) > 0 THEN [ (a)-[x:HAS_TAG]->() | x ] ELSE [] END |
			DELETE r
		)
		`+mergeTags+`
		RETURN`+articleProjection,
		map[string]any{
			"slug":     slug,
			"authorId": authorID,
			"updates":  updates,
			"now":      time.Now(),
			"tags":     tagParams(tags),
			"viewerId": authorID,
		})
	if err != nil {
		return nil, err
	}
	if len(result.Records) == 0 {
		return nil, apperror.NotFound("article", slug)
	}

	return articleFromRecord(result.Records[0])
}

// DeleteArticle removes the author's article and all comments attached to it.
// Not-found unless exactly one article matched the slug+ownership pair.
func (db *DB) DeleteArticle(ctx context.Context, slug, authorID string) error {
	result, err := db.runner.Run(ctx, `
		MATCH (u:User {id: $authorId})-[:POSTED]->(a:Article {slug: $slug})
		FOREACH (c IN [ (a)<-[:FOR]-(cm:Comment) | cm ] |
			DETACH DELETE c
		)
		DETACH DELETE a
		RETURN a
	`, map[string]any{
		"slug":     slug,
		"authorId": authorID,
	})
	if err != nil {
		return err
	}
	if len(result.Records) != 1 {
		return apperror.NotFound("article", slug)
	}
	return nil
}

// Favorite merges the FAVORITED edge — repeated calls leave exactly one —
// and returns the refreshed article.
func (db *DB) Favorite(ctx context.Context, slug, viewerID string) (*model.Article, error) {
	result, err := db.runner.Run(ctx, `
		MATCH (a:Article {slug: $slug})
		MATCH (u:User {id: $viewerId})
		MERGE (u)-[r:FAVORITED]->(a)
		ON CREATE SET r.createdAt = $now
		RETURN`+articleProjection,
		map[string]any{
			"slug":     slug,
			"viewerId": viewerID,
			"now":      time.Now(),
		})
	if err != nil {
		return nil, err
	}
	if len(result.Records) == 0 {
		return nil, apperror.NotFound("article", slug)
	}

	return articleFromRecord(result.Records[0])
}

// Unfavorite removes the viewer's FAVORITED edge if present.
func (db *DB) Unfavorite(ctx context.Context, slug, viewerID string) (*model.Article, error) {
	result, err := db.runner.Run(ctx, `
		MATCH (a:Article {slug: $slug})
		MATCH (u:User {id: $viewerId})
		OPTIONAL MATCH (u)-[r:FAVORITED]->(a)
		DELETE r
		RETURN`+articleProjection,
		map[string]any{
			"slug":     slug,
			"viewerId": viewerID,
		})
	if err != nil {
		return nil, err
	}
	if len(result.Records) == 0 {
		return nil, apperror.NotFound("article", slug)
	}

	return articleFromRecord(result.Records[0])
}

// filterClause turns the filter struct into a WHERE clause, registering one
// parameter per active predicate. Returns "" when nothing is filtered.
func filterClause(f repository.ArticleFilters, params map[string]any) string {
	var predicates []string

	if f.Author != "" {
		predicates = append(predicates, `(a)<-[:POSTED]-(:User {username: $author})`)
		params["author"] = f.Author
	}
	if f.FavoritedBy != "" {
		predicates = append(predicates, `(a)<-[:FAVORITED]-(:User {username: $favoritedBy})`)
		params["favoritedBy"] = f.FavoritedBy
	}
	if len(f.Tags) > 0 {
		predicates = append(predicates, `ALL(tag IN $tagNames WHERE (a)-[:HAS_TAG]->(:Tag {name: tag}))`)
		names := make([]any, 0, len(f.Tags))
		for _, t := range f.Tags {
			names = append(names, t)
		}
		params["tagNames"] = names
	}

	if len(predicates) == 0 {
		return ""
	}
	return "WHERE " + strings.Join(predicates, " AND ")
}

// articleFromRecord maps one projected row onto the model.
func articleFromRecord(rec *neo4j.Record) (*model.Article, error) {
	node, err := nodeValue(rec, "a")
	if err != nil {
		return nil, err
	}

	article := &model.Article{
		ID:             stringProp(node.Props, "id"),
		Slug:           stringProp(node.Props, "slug"),
		Title:          stringProp(node.Props, "title"),
		Description:    stringProp(node.Props, "description"),
		Body:           stringProp(node.Props, "body"),
		CreatedAt:      timeProp(node.Props, "createdAt"),
		UpdatedAt:      timeProp(node.Props, "updatedAt"),
		TagList:        stringSliceValue(rec, "tagList"),
		Favorited:      boolValue(rec, "favorited"),
		FavoritesCount: int64Value(rec, "favoritesCount"),
	}

	if authorNode, err := nodeValue(rec, "author"); err == nil {
		article.Author = userFromNode(authorNode)
	}

	return article, nil
}

func pageFromResult(result *neo4j.EagerResult) (*model.ArticlePage, error) {
	page := &model.ArticlePage{Articles: []model.Article{}}
	if len(result.Records) == 0 {
		return page, nil
	}

	page.ArticlesCount = int64Value(result.Records[0], "articlesCount")
	for _, rec := range result.Records {
		article, err := articleFromRecord(rec)
		if err != nil {
			return nil, err
		}
		page.Articles = append(page.Articles, *article)
	}
	return page, nil
}
