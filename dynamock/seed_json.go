package dynamock

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
)

// SeedFromJSON reads a JSON array of objects from r and puts each object
// into the table as one item. Object members become attributes using the
// attributevalue encoding rules: strings become S, numbers N, booleans BOOL,
// null NULL, arrays L and nested objects M.
//
//	[
//	  {"resource": "arn:aws:iam::1:role/admin", "key": "team", "value": "infra"},
//	  {"resource": "arn:aws:iam::1:role/admin", "key": "env", "value": "prod"}
//	]
//
// Returns the number of items saved and any errors generated.
func (s *SeedTestData) SeedFromJSON(ctx context.Context, r io.Reader) (int, error) {
	var document []map[string]any
	decoder := json.NewDecoder(r)
	if err := decoder.Decode(&document); err != nil {
		return 0, fmt.Errorf("failed to parse JSON document: %w", err)
	}

	items := make([]*TestItem, 0, len(document))
	for i, object := range document {
		if len(object) == 0 {
			return 0, fmt.Errorf("object at index %d has no attributes", i)
		}
		av, err := attributevalue.MarshalMap(object)
		if err != nil {
			return 0, fmt.Errorf("failed to convert object at index %d: %w", i, err)
		}
		items = append(items, NewItem(WithItem(av)).Build())
	}

	count := 0
	for i, item := range items {
		if err := s.SeedItem(ctx, item); err != nil {
			return count, fmt.Errorf("failed to seed object at index %d: %w", i, err)
		}
		count++
	}

	return count, nil
}
