package neo4j

import "context"

// ListTags returns every distinct tag name in use.
func (db *DB) ListTags(ctx context.Context) ([]string, error) {
	result, err := db.runner.Run(ctx, `MATCH (t:Tag) RETURN t.name AS name ORDER BY name`, nil)
	if err != nil {
		return nil, err
	}

	tags := make([]string, 0, len(result.Records))
	for _, rec := range result.Records {
		raw, ok := rec.Get("name")
		if !ok {
			continue
		}
		if name, ok := raw.(string); ok {
			tags = append(tags, name)
		}
	}
	return tags, nil
}
