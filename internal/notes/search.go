package notes

import (
	"context"
	"sort"
	"strings"
	"unicode"

	"github.com/google/uuid"

	"sharednotes/internal/pagination"
)

// Representation derives the indexable form of a title: lower-cased tokens
// joined by single spaces. It is recomputed in the same transaction as any
// title write, so title and representation never disagree.
func Representation(title string) string {
	return strings.Join(tokenize(title), " ")
}

func tokenize(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

const (
	scoreExact     = 3
	scorePrefix    = 2
	scoreSubstring = 1
)

// matchScore rates one note representation against the query tokens. Every
// query token must hit somewhere, otherwise the note does not match at all.
// Per token only the strongest hit counts.
func matchScore(repr string, queryTokens []string) (int, bool) {
	reprTokens := tokenize(repr)
	total := 0
	for _, qt := range queryTokens {
		best := 0
		for _, rt := range reprTokens {
			switch {
			case rt == qt:
				best = scoreExact
			case best < scorePrefix && strings.HasPrefix(rt, qt):
				best = scorePrefix
			case best < scoreSubstring && strings.Contains(rt, qt):
				best = scoreSubstring
			}
			if best == scoreExact {
				break
			}
		}
		if best == 0 {
			return 0, false
		}
		total += best
	}
	return total, true
}

// rank filters the candidates down to query matches and orders them by score
// descending, then created_at descending, then id, for total determinism.
// Candidates arriving here are already in created_at/id order, but the sort
// does not rely on that.
func rank(candidates []Note, query string) []Note {
	queryTokens := tokenize(query)
	if len(queryTokens) == 0 {
		return candidates
	}

	type scored struct {
		note  Note
		score int
	}
	matched := make([]scored, 0, len(candidates))
	for _, n := range candidates {
		if s, ok := matchScore(n.SearchRepr, queryTokens); ok {
			matched = append(matched, scored{note: n, score: s})
		}
	}
	sort.SliceStable(matched, func(i, j int) bool {
		if matched[i].score != matched[j].score {
			return matched[i].score > matched[j].score
		}
		if !matched[i].note.CreatedAt.Equal(matched[j].note.CreatedAt) {
			return matched[i].note.CreatedAt.After(matched[j].note.CreatedAt)
		}
		return matched[i].note.ID.String() < matched[j].note.ID.String()
	})

	out := make([]Note, len(matched))
	for i, m := range matched {
		out[i] = m.note
	}
	return out
}

// Search runs the full query pipeline: visibility, tag filter, ranked title
// match, pagination. An empty query with an empty tag filter degenerates to
// the plain listing of the view; List reuses this exact path so the two can
// never diverge in ordering.
func (s *Store) Search(ctx context.Context, requester Identity, query string, tagFilter []uuid.UUID, view View, page int) ([]Note, pagination.Meta, error) {
	db := s.db.WithContext(ctx)

	q := withTagFilter(db, visibleNotes(db, requester, view), tagFilter)
	var candidates []Note
	if err := q.Preload("Tags").Find(&candidates).Error; err != nil {
		return nil, pagination.Meta{}, err
	}

	query = strings.TrimSpace(query)
	if query != "" {
		candidates = rank(candidates, query)
	}

	notes, meta, err := pagination.Paginate(candidates, page)
	if err != nil {
		return nil, pagination.Meta{}, invalidf("page", "%v", err)
	}

	s.logger.Info("search executed",
		"requester", requester.ID,
		"view", string(view),
		"query", query,
		"tags", len(tagFilter),
		"page", page,
		"matched", meta.TotalItems)
	return notes, meta, nil
}

// List is the Note Store's own "list by view" path. It is a degenerate
// search by contract.
func (s *Store) List(ctx context.Context, requester Identity, view View, page int, tagFilter []uuid.UUID) ([]Note, pagination.Meta, error) {
	return s.Search(ctx, requester, "", tagFilter, view, page)
}
