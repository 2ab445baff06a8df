package neo4j

import (
	"context"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/realworld-apps/conduit-neo4j/internal/apperror"
	"github.com/realworld-apps/conduit-neo4j/internal/model"
)

// CreateComment attaches a new comment to the article with the given slug:
// (author)-[:COMMENTED]->(comment)-[:FOR]->(article). An unresolvable slug
// matches nothing and is reported as not-found.
func (db *DB) CreateComment(ctx context.Context, slug, authorID string, comment *model.Comment) error {
	now := time.Now()
	comment.CreatedAt = now
	comment.UpdatedAt = now

	result, err := db.runner.Run(ctx, `
		MATCH (a:Article {slug: $slug})
		MATCH (u:User {id: $authorId})
		CREATE (u)-[:COMMENTED]->(c:Comment {
			id: $id,
			body: $body,
			createdAt: $now,
			updatedAt: $now
		})-[:FOR]->(a)
		RETURN c, u AS author
	`, map[string]any{
		"slug":     slug,
		"authorId": authorID,
		"id":       comment.ID,
		"body":     comment.Body,
		"now":      now,
	})
	if err != nil {
		return err
	}
	if len(result.Records) == 0 {
		return apperror.NotFound("article", slug)
	}

	created, err := commentFromRecord(result.Records[0])
	if err != nil {
		return err
	}
	*comment = *created
	return nil
}

// ListBySlug returns the article's comments newest first, each joined with
// its author. An unknown slug yields an empty list, matching the HTTP
// contract for GET .../comments.
func (db *DB) ListBySlug(ctx context.Context, slug string) ([]model.Comment, error) {
	result, err := db.runner.Run(ctx, `
		MATCH (:Article {slug: $slug})<-[:FOR]-(c:Comment)<-[:COMMENTED]-(u:User)
		RETURN c, u AS author
		ORDER BY c.createdAt DESC
	`, map[string]any{"slug": slug})
	if err != nil {
		return nil, err
	}

	comments := make([]model.Comment, 0, len(result.Records))
	for _, rec := range result.Records {
		comment, err := commentFromRecord(rec)
		if err != nil {
			return nil, err
		}
		comments = append(comments, *comment)
	}
	return comments, nil
}

// DeleteComment removes the comment only when it is attached to the given
// slug and owned by the requester — all three conditions in one match, so
// any mismatch collapses into not-found.
func (db *DB) DeleteComment(ctx context.Context, slug, commentID, requesterID string) error {
	result, err := db.runner.Run(ctx, `
		MATCH (:Article {slug: $slug})<-[:FOR]-(c:Comment {id: $commentId})<-[:COMMENTED]-(:User {id: $requesterId})
		DETACH DELETE c
		RETURN c
	`, map[string]any{
		"slug":        slug,
		"commentId":   commentID,
		"requesterId": requesterID,
	})
	if err != nil {
		return err
	}
	if len(result.Records) != 1 {
		return apperror.NotFound("comment", commentID)
	}
	return nil
}

func commentFromRecord(rec *neo4j.Record) (*model.Comment, error) {
	node, err := nodeValue(rec, "c")
	if err != nil {
		return nil, err
	}

	comment := &model.Comment{
		ID:        stringProp(node.Props, "id"),
		Body:      stringProp(node.Props, "body"),
		CreatedAt: timeProp(node.Props, "createdAt"),
		UpdatedAt: timeProp(node.Props, "updatedAt"),
	}

	if authorNode, err := nodeValue(rec, "author"); err == nil {
		comment.Author = userFromNode(authorNode)
	}

	return comment, nil
}
