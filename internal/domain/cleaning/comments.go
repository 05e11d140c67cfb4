package cleaning

import (
	"context"
	"fmt"
	"strings"

	"github.com/okian/fleetpulse/internal/domain/model"
	"github.com/okian/fleetpulse/internal/domain/nested"
)

// NormalizeComment parses a comment cell. A missing or blank comment is the
// empty mapping.
func NormalizeComment(c model.Optional[string]) (nested.Mapping, error) {
	text, ok := c.Get()
	if !ok || strings.TrimSpace(text) == "" {
		text = nested.EmptyComment
	}
	m, err := nested.Parse(text)
	if err != nil {
		return nested.Mapping{}, fmt.Errorf("%w: %w", ErrMalformedComment, err)
	}
	return m, nil
}

// extract normalizes every comment and runs the key search on it. Rows are
// independent, so the work is spread over the pool; errs[i] holds the failure
// of row i.
func (s *Stage) extract(ctx context.Context, rows []model.EnrichedEvent) ([]model.EnrichedEvent, []error, error) {
	out := make([]model.EnrichedEvent, len(rows))
	copy(out, rows)
	errs := make([]error, len(rows))

	err := s.pool.Map(ctx, len(out), func(_ context.Context, i int) error {
		tree, err := NormalizeComment(out[i].Comment)
		if err != nil {
			errs[i] = err
			return nil
		}
		out[i].CommentTree = tree
		out[i].DrivenDistance = nested.FindIn(tree, s.distanceKey)
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return out, errs, nil
}
