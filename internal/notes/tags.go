package notes

import (
	"context"
	"log/slog"
	"sort"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// DefaultTagNames is the catalog seeded when NOTE_TAGS is not configured.
var DefaultTagNames = []string{"work", "personal", "important", "ideas"}

// TagRegistry is the fixed, globally shared tag catalog. Tags are seeded once
// at startup and never mutated by users.
type TagRegistry struct {
	db     *gorm.DB
	logger *slog.Logger
}

func NewTagRegistry(db *gorm.DB, logger *slog.Logger) *TagRegistry {
	return &TagRegistry{db: db, logger: logger}
}

// Seed inserts the given tag names if missing. Safe to run on every startup.
func (r *TagRegistry) Seed(ctx context.Context, names []string) error {
	if len(names) == 0 {
		names = DefaultTagNames
	}
	for _, name := range names {
		name = strings.ToLower(strings.TrimSpace(name))
		if name == "" {
			continue
		}
		tag := Tag{Name: name}
		err := r.db.WithContext(ctx).Where("name = ?", name).FirstOrCreate(&tag).Error
		if err != nil {
			return err
		}
	}
	r.logger.Info("tag catalog seeded", "tags", len(names))
	return nil
}

// List returns the whole catalog sorted by lower-cased name.
func (r *TagRegistry) List(ctx context.Context) ([]Tag, error) {
	var tags []Tag
	if err := r.db.WithContext(ctx).Find(&tags).Error; err != nil {
		return nil, err
	}
	sort.Slice(tags, func(i, j int) bool {
		return strings.ToLower(tags[i].Name) < strings.ToLower(tags[j].Name)
	})
	return tags, nil
}

// resolve loads the tags for the given ids, failing validation if any id is
// unknown. Duplicate ids collapse to one association.
func resolveTags(tx *gorm.DB, tagIDs []uuid.UUID) ([]Tag, error) {
	if len(tagIDs) == 0 {
		return []Tag{}, nil
	}
	seen := make(map[uuid.UUID]bool, len(tagIDs))
	unique := make([]uuid.UUID, 0, len(tagIDs))
	for _, id := range tagIDs {
		if !seen[id] {
			seen[id] = true
			unique = append(unique, id)
		}
	}
	var tags []Tag
	if err := tx.Where("id IN ?", unique).Find(&tags).Error; err != nil {
		return nil, err
	}
	if len(tags) != len(unique) {
		return nil, invalidf("tag_ids", "one or more tags do not exist")
	}
	return tags, nil
}
