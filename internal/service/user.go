// Package service contains the business logic layer: validation, password
// and token handling, and orchestration of repository calls. Services accept
// plain values plus the acting user as an explicit parameter — no HTTP types
// and no request-scoped ambient state.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"

	"github.com/rs/xid"

	"github.com/realworld-apps/conduit-neo4j/internal/apperror"
	"github.com/realworld-apps/conduit-neo4j/internal/auth"
	"github.com/realworld-apps/conduit-neo4j/internal/model"
	"github.com/realworld-apps/conduit-neo4j/internal/repository"
)

// UserService handles accounts, credentials and the social graph.
type UserService struct {
	users     repository.UserRepository
	passwords *auth.PasswordService
	tokens    *auth.TokenService
	logger    *slog.Logger
}

func NewUserService(
	users repository.UserRepository,
	passwords *auth.PasswordService,
	tokens *auth.TokenService,
	logger *slog.Logger,
) *UserService {
	return &UserService{
		users:     users,
		passwords: passwords,
		tokens:    tokens,
		logger:    logger,
	}
}

// AuthResult bundles a user with a freshly issued token, the shape the
// {user} envelope needs.
type AuthResult struct {
	User  *model.User
	Token string
}

// RegisterParams are the fields accepted by Register. Bio and Image are
// optional.
type RegisterParams struct {
	Username string
	Email    string
	Password string
	Bio      string
	Image    string
}

// Register creates a new account with a hashed password and issues its
// first token. A username or email collision propagates as a conflict.
func (s *UserService) Register(ctx context.Context, p RegisterParams) (*AuthResult, error) {
	p.Username = strings.TrimSpace(p.Username)
	p.Email = strings.TrimSpace(p.Email)

	v := apperror.NewValidationErrors()
	if p.Username == "" {
		v.Add("username", "username is required")
	}
	if p.Email == "" {
		v.Add("email", "email is required")
	} else if _, err := mail.ParseAddress(p.Email); err != nil {
		v.Add("email", "email must be a valid address")
	}
	if p.Password == "" {
		v.Add("password", "password is required")
	}
	if err := v.ErrOrNil(); err != nil {
		return nil, err
	}

	hash, err := s.passwords.Hash(p.Password)
	if err != nil {
		return nil, apperror.ValidationFailed("password", err.Error())
	}

	user := &model.User{
		ID:       xid.New().String(),
		Username: p.Username,
		Email:    p.Email,
		Password: hash,
		Bio:      strings.TrimSpace(p.Bio),
		Image:    strings.TrimSpace(p.Image),
	}

	if err := s.users.CreateUser(ctx, user); err != nil {
		return nil, fmt.Errorf("registering user %q: %w", p.Username, err)
	}

	s.logger.Info("user registered",
		slog.String("id", user.ID),
		slog.String("username", user.Username),
	)

	return s.withToken(user)
}

// Login validates credentials and issues a token. The error is the same for
// an unknown email and a wrong password — callers can never tell which.
func (s *UserService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	user, err := s.users.FindByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		return nil, apperror.Unauthorized("invalid email or password")
	}

	if err := s.passwords.Verify(user.Password, password); err != nil {
		return nil, apperror.Unauthorized("invalid email or password")
	}

	return s.withToken(user)
}

// Current re-issues a token for the already-authenticated user, for the
// GET /user response.
func (s *UserService) Current(user *model.User) (*AuthResult, error) {
	return s.withToken(user)
}

// UpdateParams are the optional account fields of PUT /user. A nil field is
// left untouched; a set field is shallow-merged onto the stored node.
type UpdateParams struct {
	Username *string
	Email    *string
	Password *string
	Bio      *string
	Image    *string
}

// Update applies a partial account update. A supplied password is re-hashed
// before it is merged.
func (s *UserService) Update(ctx context.Context, user *model.User, p UpdateParams) (*AuthResult, error) {
	updates := make(map[string]any)

	if p.Username != nil {
		username := strings.TrimSpace(*p.Username)
		if username == "" {
			return nil, apperror.ValidationFailed("username", "username must not be empty")
		}
		updates["username"] = username
	}
	if p.Email != nil {
		email := strings.TrimSpace(*p.Email)
		if _, err := mail.ParseAddress(email); err != nil {
			return nil, apperror.ValidationFailed("email", "email must be a valid address")
		}
		updates["email"] = email
	}
	if p.Password != nil {
		if *p.Password == "" {
			return nil, apperror.ValidationFailed("password", "password must not be empty")
		}
		hash, err := s.passwords.Hash(*p.Password)
		if err != nil {
			return nil, apperror.ValidationFailed("password", err.Error())
		}
		updates["password"] = hash
	}
	if p.Bio != nil {
		updates["bio"] = *p.Bio
	}
	if p.Image != nil {
		updates["image"] = *p.Image
	}

	updated, err := s.users.UpdateUser(ctx, user.ID, updates)
	if err != nil {
		return nil, fmt.Errorf("updating user %s: %w", user.ID, err)
	}

	s.logger.Info("user updated", slog.String("id", updated.ID))

	return s.withToken(updated)
}

// Profile resolves a username into a profile with the viewer's follow state.
// viewer may be nil for anonymous requests, in which case following=false.
func (s *UserService) Profile(ctx context.Context, username string, viewer *model.User) (*model.Profile, error) {
	target, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		return nil, err
	}

	following := false
	if viewer != nil {
		following, err = s.users.IsFollowing(ctx, target.ID, viewer.ID)
		if err != nil {
			return nil, fmt.Errorf("checking follow state for %q: %w", username, err)
		}
	}

	profile := target.Profile(following)
	return &profile, nil
}

// Follow subscribes the current user to the target's articles.
func (s *UserService) Follow(ctx context.Context, current *model.User, username string) (*model.Profile, error) {
	target, err := s.users.Follow(ctx, current.ID, username)
	if err != nil {
		return nil, err
	}

	s.logger.Info("user followed",
		slog.String("follower", current.Username),
		slog.String("followee", target.Username),
	)

	profile := target.Profile(true)
	return &profile, nil
}

// Unfollow removes the subscription. A missing edge is not an error; only
// an unresolvable username is.
func (s *UserService) Unfollow(ctx context.Context, current *model.User, username string) (*model.Profile, error) {
	target, err := s.users.Unfollow(ctx, current.ID, username)
	if err != nil {
		return nil, err
	}

	profile := target.Profile(false)
	return &profile, nil
}

func (s *UserService) withToken(user *model.User) (*AuthResult, error) {
	token, err := s.tokens.Generate(user)
	if err != nil {
		return nil, fmt.Errorf("issuing token for %s: %w", user.Username, err)
	}
	return &AuthResult{User: user, Token: token}, nil
}
