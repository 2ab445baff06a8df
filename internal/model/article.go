package model

import "time"

// Article is an article node joined with everything a response needs:
// its author, tag names, and the favorite aggregates computed for the
// requesting viewer. One repository query produces the whole thing.
type Article struct {
	ID          string
	Slug        string
	Title       string
	Description string
	Body        string
	CreatedAt   time.Time
	UpdatedAt   time.Time

	// Computed per query.
	Author         *User
	TagList        []string
	FavoritesCount int64
	Favorited      bool
}

// ArticleJSON is the {article} envelope body. Computed fields overlay the
// stored ones; tags are reduced to bare name strings.
type ArticleJSON struct {
	ID             string    `json:"id"`
	Slug           string    `json:"slug"`
	Title          string    `json:"title"`
	Description    string    `json:"description"`
	Body           string    `json:"body"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
	TagList        []string  `json:"tagList"`
	Favorited      bool      `json:"favorited"`
	FavoritesCount int64     `json:"favoritesCount"`
	Author         UserJSON  `json:"author"`
}

// JSON returns the serializable projection of the article.
func (a *Article) JSON() ArticleJSON {
	tags := a.TagList
	if tags == nil {
		tags = []string{}
	}

	var author UserJSON
	if a.Author != nil {
		author = a.Author.JSON()
	}

	return ArticleJSON{
		ID:             a.ID,
		Slug:           a.Slug,
		Title:          a.Title,
		Description:    a.Description,
		Body:           a.Body,
		CreatedAt:      a.CreatedAt,
		UpdatedAt:      a.UpdatedAt,
		TagList:        tags,
		Favorited:      a.Favorited,
		FavoritesCount: a.FavoritesCount,
		Author:         author,
	}
}

// ArticlePage is one page of a filtered listing. ArticlesCount is the total
// number of matches before pagination, computed in the same query as the
// page itself.
type ArticlePage struct {
	ArticlesCount int64
	Articles      []Article
}

// JSON returns the {articles, articlesCount} envelope body.
func (p *ArticlePage) JSON() map[string]any {
	articles := make([]ArticleJSON, 0, len(p.Articles))
	for i := range p.Articles {
		articles = append(articles, p.Articles[i].JSON())
	}
	return map[string]any{
		"articlesCount": p.ArticlesCount,
		"articles":      articles,
	}
}
