// Package model defines the data structures used throughout the application.
package model

import "time"

// DefaultImage is the placeholder profile picture applied whenever a user
// has not set one. It is substituted on output only — the stored node keeps
// the empty value.
const DefaultImage = "https://picsum.photos/200"

// User represents a registered account node.
//
// Password holds the bcrypt hash, never the plaintext. The struct carries no
// JSON tags on purpose: a User is only serialized through its explicit
// projections (JSON, Profile), which is what keeps the password from ever
// reaching a response body.
type User struct {
	ID        string
	Username  string
	Email     string
	Password  string // bcrypt hash
	Bio       string
	Image     string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// UserJSON is the outward projection of a User. Bio serializes as null when
// unset; Image falls back to DefaultImage. Token is only populated inside
// the {user} envelope of the account endpoints.
type UserJSON struct {
	ID       string  `json:"id"`
	Username string  `json:"username"`
	Email    string  `json:"email"`
	Bio      *string `json:"bio"`
	Image    string  `json:"image"`
	Token    string  `json:"token,omitempty"`
}

// Profile is the {profile} envelope body: the user as seen by another user,
// with the follow state overlaid.
type Profile struct {
	ID        string  `json:"id"`
	Username  string  `json:"username"`
	Email     string  `json:"email"`
	Bio       *string `json:"bio"`
	Image     string  `json:"image"`
	Following bool    `json:"following"`
}

// JSON returns the serializable projection of the user.
func (u *User) JSON() UserJSON {
	return UserJSON{
		ID:       u.ID,
		Username: u.Username,
		Email:    u.Email,
		Bio:      optional(u.Bio),
		Image:    u.ImageOrDefault(),
	}
}

// Profile returns the user as a profile with the given follow state.
func (u *User) Profile(following bool) Profile {
	return Profile{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		Bio:       optional(u.Bio),
		Image:     u.ImageOrDefault(),
		Following: following,
	}
}

// ImageOrDefault returns the stored image URL, or the placeholder when unset.
func (u *User) ImageOrDefault() string {
	if u.Image == "" {
		return DefaultImage
	}
	return u.Image
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
