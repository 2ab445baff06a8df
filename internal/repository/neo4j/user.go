package neo4j

import (
	"context"
	"fmt"
	"time"

	"github.com/realworld-apps/conduit-neo4j/internal/apperror"
	"github.com/realworld-apps/conduit-neo4j/internal/model"
)

// CreateUser stores a new user node. Bio and image are stored as null when
// unset. A username or email collision surfaces as a conflict error via the
// uniqueness constraints.
func (db *DB) CreateUser(ctx context.Context, user *model.User) error {
	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now

	result, err := db.runner.Run(ctx, `
		CREATE (u:User {
			id: $id,
			username: $username,
			email: $email,
			password: $password,
			bio: $bio,
			image: $image,
			createdAt: $now,
			updatedAt: $now
		})
		RETURN u
	`, map[string]any{
		"id":       user.ID,
		"username": user.Username,
		"email":    user.Email,
		"password": user.Password,
		"bio":      nilIfEmpty(user.Bio),
		"image":    nilIfEmpty(user.Image),
		"now":      now,
	})
	if err != nil {
		return err
	}
	if len(result.Records) != 1 {
		return fmt.Errorf("neo4j: creating user %q: no record returned", user.Username)
	}
	return nil
}

// FindByEmail returns the user with the given email, or not-found.
func (db *DB) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	return db.findUser(ctx, `MATCH (u:User {email: $value}) RETURN u`, email)
}

// FindByUsername returns the user with the given username, or not-found.
func (db *DB) FindByUsername(ctx context.Context, username string) (*model.User, error) {
	return db.findUser(ctx, `MATCH (u:User {username: $value}) RETURN u`, username)
}

func (db *DB) findUser(ctx context.Context, query, value string) (*model.User, error) {
	result, err := db.runner.Run(ctx, query, map[string]any{"value": value})
	if err != nil {
		return nil, err
	}
	if len(result.Records) == 0 {
		return nil, apperror.NotFound("user", value)
	}

	node, err := nodeValue(result.Records[0], "u")
	if err != nil {
		return nil, err
	}
	return userFromNode(node), nil
}

// UpdateUser shallow-merges the given properties onto the user node. updatedAt
// is set after the merge so the caller cannot stomp it.
func (db *DB) UpdateUser(ctx context.Context, id string, updates map[string]any) (*model.User, error) {
	result, err := db.runner.Run(ctx, `
		MATCH (u:User {id: $id})
		SET u += $updates, u.updatedAt = $now
		RETURN u
	`, map[string]any{
		"id":      id,
		"updates": updates,
		"now":     time.Now(),
	})
	if err != nil {
		return nil, err
	}
	if len(result.Records) == 0 {
		return nil, apperror.NotFound("user", id)
	}

	node, err := nodeValue(result.Records[0], "u")
	if err != nil {
		return nil, err
	}
	return userFromNode(node), nil
}

// IsFollowing reports whether current follows target.
func (db *DB) IsFollowing(ctx context.Context, targetID, currentID string) (bool, error) {
	result, err := db.runner.Run(ctx, `
		MATCH (target:User {id: $targetId})<-[:FOLLOWS]-(current:User {id: $currentId})
		RETURN count(*) AS count
	`, map[string]any{
		"targetId":  targetID,
		"currentId": currentID,
	})
	if err != nil {
		return false, err
	}
	if len(result.Records) == 0 {
		return false, nil
	}
	return int64Value(result.Records[0], "count") > 0, nil
}

// Follow merges the FOLLOWS edge so repeated calls never create duplicates.
func (db *DB) Follow(ctx context.Context, currentID, targetUsername string) (*model.User, error) {
	result, err := db.runner.Run(ctx, `
		MATCH (target:User {username: $username})
		MATCH (current:User {id: $currentId})
		MERGE (current)-[r:FOLLOWS]->(target)
		ON CREATE SET r.createdAt = $now
		RETURN target
	`, map[string]any{
		"username":  targetUsername,
		"currentId": currentID,
		"now":       time.Now(),
	})
	if err != nil {
		return nil, err
	}
	if len(result.Records) == 0 {
		return nil, apperror.NotFound("user", targetUsername)
	}

	node, err := nodeValue(result.Records[0], "target")
	if err != nil {
		return nil, err
	}
	return userFromNode(node), nil
}

// Unfollow deletes the FOLLOWS edge if present. The target still resolves
// (and is returned) when no edge existed.
func (db *DB) Unfollow(ctx context.Context, currentID, targetUsername string) (*model.User, error) {
	result, err := db.runner.Run(ctx, `
		MATCH (target:User {username: $username})
		OPTIONAL MATCH (target)<-[r:FOLLOWS]-(:User {id: $currentId})
		DELETE r
		RETURN target
	`, map[string]any{
		"username":  targetUsername,
		"currentId": currentID,
	})
	if err != nil {
		return nil, err
	}
	if len(result.Records) == 0 {
		return nil, apperror.NotFound("user", targetUsername)
	}

	node, err := nodeValue(result.Records[0], "target")
	if err != nil {
		return nil, err
	}
	return userFromNode(node), nil
}
