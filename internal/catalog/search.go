package catalog

import (
	"context"
	"errors"
	"strings"

	"github.com/starford/dsaflash/internal/apperr"
	"github.com/starford/dsaflash/internal/models"
)

// SearchResult groups the topics and problems matching a query.
type SearchResult struct {
	Topics   []models.Topic   `json:"topics"`
	Problems []models.Problem `json:"problems"`
}

// Search returns topics whose name or description contains q and problems
// whose title, solution, notes or any tag contains q, case-insensitively.
// limit <= 0 means no limit per kind.
func (s *Service) Search(ctx context.Context, q string, limit int) (SearchResult, error) {
	q = strings.TrimSpace(q)
	res := SearchResult{Topics: []models.Topic{}, Problems: []models.Problem{}}

	topics, err := s.store.ListTopics(ctx)
	if err != nil {
		return res, err
	}
	for _, t := range topics {
		if limit > 0 && len(res.Topics) >= limit {
			break
		}
		if t.Matches(q) {
			res.Topics = append(res.Topics, t)
		}
	}

	problems, err := s.store.ListProblems(ctx, "")
	if err != nil {
		return res, err
	}
	for _, p := range problems {
		if limit > 0 && len(res.Problems) >= limit {
			break
		}
		if p.Matches(q) {
			res.Problems = append(res.Problems, p)
		}
	}
	return res, nil
}

func isNotFound(err error) bool {
	return errors.Is(err, apperr.ErrNotFound)
}
