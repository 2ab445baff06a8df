package model

import "time"

// Comment is a comment node joined with its author.
type Comment struct {
	ID        string
	Body      string
	CreatedAt time.Time
	UpdatedAt time.Time

	Author *User
}

// CommentJSON is the {comment} envelope body.
type CommentJSON struct {
	ID        string    `json:"id"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
	Author    UserJSON  `json:"author"`
}

// JSON returns the serializable projection of the comment.
func (c *Comment) JSON() CommentJSON {
	var author UserJSON
	if c.Author != nil {
		author = c.Author.JSON()
	}
	return CommentJSON{
		ID:        c.ID,
		Body:      c.Body,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
		Author:    author,
	}
}
