package handler

import (
	"net/http"

	"github.com/realworld-apps/conduit-neo4j/internal/apperror"
	"github.com/realworld-apps/conduit-neo4j/internal/auth"
	"github.com/realworld-apps/conduit-neo4j/internal/model"
	"github.com/realworld-apps/conduit-neo4j/internal/service"
)

// UserHandler serves the account endpoints: registration, login, and the
// current-user read/update pair.
type UserHandler struct {
	users *service.UserService
}

func NewUserHandler(users *service.UserService) *UserHandler {
	return &UserHandler{users: users}
}

// userEnvelope is both the request wrapper ({"user": {...}}) and, with a
// token filled in, the response wrapper of every account endpoint.
type userEnvelope struct {
	User model.UserJSON `json:"user"`
}

type registerRequest struct {
	User struct {
		Username string `json:"username"`
		Email    string `json:"email"`
		Password string `json:"password"`
		Bio      string `json:"bio"`
		Image    string `json:"image"`
	} `json:"user"`
}

type loginRequest struct {
	User struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	} `json:"user"`
}

type updateUserRequest struct {
	User struct {
		Username *string `json:"username"`
		Email    *string `json:"email"`
		Password *string `json:"password"`
		Bio      *string `json:"bio"`
		Image    *string `json:"image"`
	} `json:"user"`
}

// Register handles POST /users.
func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}

	result, err := h.users.Register(r.Context(), service.RegisterParams{
		Username: req.User.Username,
		Email:    req.User.Email,
		Password: req.User.Password,
		Bio:      req.User.Bio,
		Image:    req.User.Image,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, authEnvelope(result))
}

// Login handles POST /users/login.
func (h *UserHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}

	result, err := h.users.Login(r.Context(), req.User.Email, req.User.Password)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, authEnvelope(result))
}

// Current handles GET /user. The route is behind RequireAuth, so the user is
// always present in the context.
func (h *UserHandler) Current(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.CurrentUser(r.Context())
	if !ok {
		writeError(w, apperror.Forbidden("authentication required"))
		return
	}

	result, err := h.users.Current(user)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, authEnvelope(result))
}

// Update handles PUT /user.
func (h *UserHandler) Update(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.CurrentUser(r.Context())
	if !ok {
		writeError(w, apperror.Forbidden("authentication required"))
		return
	}

	var req updateUserRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}

	result, err := h.users.Update(r.Context(), user, service.UpdateParams{
		Username: req.User.Username,
		Email:    req.User.Email,
		Password: req.User.Password,
		Bio:      req.User.Bio,
		Image:    req.User.Image,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, authEnvelope(result))
}

func authEnvelope(result *service.AuthResult) userEnvelope {
	body := result.User.JSON()
	body.Token = result.Token
	return userEnvelope{User: body}
}
