package service

import (
	"context"
	"fmt"

	"github.com/realworld-apps/conduit-neo4j/internal/repository"
)

// TagService reads the distinct tag index.
type TagService struct {
	tags repository.TagRepository
}

func NewTagService(tags repository.TagRepository) *TagService {
	return &TagService{tags: tags}
}

// List returns every tag name in use, alphabetically.
func (s *TagService) List(ctx context.Context) ([]string, error) {
	tags, err := s.tags.ListTags(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing tags: %w", err)
	}
	if tags == nil {
		tags = []string{}
	}
	return tags, nil
}
