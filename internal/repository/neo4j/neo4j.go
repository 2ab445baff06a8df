// Package neo4j implements the repository interfaces on top of the official
// Neo4j Go driver.
//
// Every operation is a single parameterized Cypher query executed through
// neo4j.ExecuteQuery, which handles session and transaction management and
// buffers the full result. The DB type talks to the driver through the small
// Runner interface so the Cypher layer can be exercised in tests with a fake
// runner and hand-built records.
package neo4j

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/realworld-apps/conduit-neo4j/internal/apperror"
	"github.com/realworld-apps/conduit-neo4j/internal/model"
	"github.com/realworld-apps/conduit-neo4j/internal/repository"
)

// compile-time checks that *DB implements the repository interfaces
var (
	_ repository.UserRepository    = (*DB)(nil)
	_ repository.ArticleRepository = (*DB)(nil)
	_ repository.CommentRepository = (*DB)(nil)
	_ repository.TagRepository     = (*DB)(nil)
)

// Runner executes a Cypher query and returns a fully-buffered result.
type Runner interface {
	Run(ctx context.Context, query string, params map[string]any) (*neo4j.EagerResult, error)
}

// Config holds the connection settings for a Neo4j instance.
type Config struct {
	URI      string // e.g. "neo4j://localhost:7687"
	Username string
	Password string
	Database string // e.g. "neo4j"
}

// DB implements the repository interfaces against a Neo4j database.
type DB struct {
	runner Runner
	driver neo4j.DriverWithContext // nil when constructed with NewWithRunner
	logger *slog.Logger
}

// New connects to Neo4j, verifies connectivity, and installs the uniqueness
// constraints. Constraint setup is best-effort: failures are logged and
// swallowed so the server still starts against a database where the schema
// already exists or cannot be altered.
func New(ctx context.Context, cfg Config, logger *slog.Logger) (*DB, error) {
	driver, err := neo4j.NewDriverWithContext(cfg.URI, neo4j.BasicAuth(cfg.Username, cfg.Password, ""))
	if err != nil {
		return nil, fmt.Errorf("neo4j: creating driver: %w", err)
	}

	if err := driver.VerifyConnectivity(ctx); err != nil {
		driver.Close(ctx)
		return nil, fmt.Errorf("neo4j: verifying connectivity: %w", err)
	}

	db := &DB{
		runner: &executor{driver: driver, database: cfg.Database},
		driver: driver,
		logger: logger,
	}

	db.installConstraints(ctx)

	return db, nil
}

// NewWithRunner builds a DB over an externally supplied runner.
// Used by tests to substitute a fake executor.
func NewWithRunner(runner Runner, logger *slog.Logger) *DB {
	return &DB{runner: runner, logger: logger}
}

// Close shuts down the underlying driver.
func (db *DB) Close(ctx context.Context) error {
	if db.driver == nil {
		return nil
	}
	return db.driver.Close(ctx)
}

// constraintQueries are idempotent: IF NOT EXISTS makes re-running them on
// an already-initialized database a no-op.
var constraintQueries = []string{
	`CREATE CONSTRAINT user_id_unique IF NOT EXISTS FOR (u:User) REQUIRE u.id IS UNIQUE`,
	`CREATE CONSTRAINT user_username_unique IF NOT EXISTS FOR (u:User) REQUIRE u.username IS UNIQUE`,
	`CREATE CONSTRAINT user_email_unique IF NOT EXISTS FOR (u:User) REQUIRE u.email IS UNIQUE`,
	`CREATE CONSTRAINT article_id_unique IF NOT EXISTS FOR (a:Article) REQUIRE a.id IS UNIQUE`,
	`CREATE CONSTRAINT article_slug_unique IF NOT EXISTS FOR (a:Article) REQUIRE a.slug IS UNIQUE`,
	`CREATE CONSTRAINT comment_id_unique IF NOT EXISTS FOR (c:Comment) REQUIRE c.id IS UNIQUE`,
	`CREATE CONSTRAINT tag_name_unique IF NOT EXISTS FOR (t:Tag) REQUIRE t.name IS UNIQUE`,
}

func (db *DB) installConstraints(ctx context.Context) {
	for _, q := range constraintQueries {
		if _, err := db.runner.Run(ctx, q, nil); err != nil {
			db.logger.Warn("constraint setup failed",
				slog.String("query", q),
				slog.String("error", err.Error()),
			)
		}
	}
}

// executor runs queries through neo4j.ExecuteQuery with the eager result
// transformer, the pattern for one-shot queries without explicit sessions.
type executor struct {
	driver   neo4j.DriverWithContext
	database string
}

func (e *executor) Run(ctx context.Context, query string, params map[string]any) (*neo4j.EagerResult, error) {
	result, err := neo4j.ExecuteQuery(
		ctx,
		e.driver,
		query,
		params,
		neo4j.EagerResultTransformer,
		neo4j.ExecuteQueryWithDatabase(e.database),
	)
	if err != nil {
		return nil, coerceError(err)
	}
	return result, nil
}

const constraintViolationCode = "Neo.ClientError.Schema.ConstraintValidationFailed"

// coerceError maps driver errors onto domain error kinds. A uniqueness
// constraint violation becomes a conflict; everything else passes through.
func coerceError(err error) error {
	var neoErr *neo4j.Neo4jError
	if errors.As(err, &neoErr) && neoErr.Code == constraintViolationCode {
		return &apperror.AppError{Err: apperror.ErrConflict, Message: neoErr.Msg}
	}
	return fmt.Errorf("neo4j: executing query: %w", err)
}

// --- record coercion helpers ---

// nodeValue extracts a neo4j.Node from a record column.
func nodeValue(rec *neo4j.Record, key string) (neo4j.Node, error) {
	raw, ok := rec.Get(key)
	if !ok {
		return neo4j.Node{}, fmt.Errorf("neo4j: result has no column %q", key)
	}
	node, ok := raw.(neo4j.Node)
	if !ok {
		return neo4j.Node{}, fmt.Errorf("neo4j: column %q is not a node", key)
	}
	return node, nil
}

func stringProp(props map[string]any, key string) string {
	if v, ok := props[key].(string); ok {
		return v
	}
	return ""
}

func timeProp(props map[string]any, key string) time.Time {
	if v, ok := props[key].(time.Time); ok {
		return v
	}
	return time.Time{}
}

func int64Value(rec *neo4j.Record, key string) int64 {
	raw, ok := rec.Get(key)
	if !ok {
		return 0
	}
	switch v := raw.(type) {
	case int64:
		return v
	case int:
		return int64(v)
	default:
		return 0
	}
}

func boolValue(rec *neo4j.Record, key string) bool {
	raw, ok := rec.Get(key)
	if !ok {
		return false
	}
	b, _ := raw.(bool)
	return b
}

func stringSliceValue(rec *neo4j.Record, key string) []string {
	raw, ok := rec.Get(key)
	if !ok {
		return nil
	}
	list, ok := raw.([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(list))
	for _, item := range list {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

// userFromNode maps a User node's properties onto the model.
func userFromNode(node neo4j.Node) *model.User {
	return &model.User{
		ID:        stringProp(node.Props, "id"),
		Username:  stringProp(node.Props, "username"),
		Email:     stringProp(node.Props, "email"),
		Password:  stringProp(node.Props, "password"),
		Bio:       stringProp(node.Props, "bio"),
		Image:     stringProp(node.Props, "image"),
		CreatedAt: timeProp(node.Props, "createdAt"),
		UpdatedAt: timeProp(node.Props, "updatedAt"),
	}
}

// nilIfEmpty turns "" into a Cypher null so optional properties are stored
// as absent rather than empty strings.
func nilIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// tagParams converts tag references into the list-of-maps shape consumed by
// the FOREACH/MERGE clauses.
func tagParams(tags []model.TagRef) []any {
	out := make([]any, 0, len(tags))
	for _, t := range tags {
		out = append(out, map[string]any{
			"id":   t.ID,
			"name": t.Name,
			"slug": t.Slug,
		})
	}
	return out
}
