package model

// TagRef identifies a tag to be merged into the graph alongside an article.
// ID and Slug are only applied when the merge creates the tag node; an
// existing tag with the same name keeps its original id and slug.
type TagRef struct {
	ID   string
	Name string
	Slug string
}
