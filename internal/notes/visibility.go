package notes

import (
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// View partitions the notes relevant to a requester. The three named views
// are pairwise disjoint; ViewAll is their union.
type View string

const (
	ViewOwned        View = "owned"
	ViewSharedByMe   View = "shared-by-me"
	ViewSharedWithMe View = "shared-with-me"
	ViewAll          View = ""
)

// ParseView normalizes a view string from the API. An empty string means
// "everything I can see".
func ParseView(value string) (View, error) {
	switch View(strings.ToLower(strings.TrimSpace(value))) {
	case ViewOwned:
		return ViewOwned, nil
	case ViewSharedByMe:
		return ViewSharedByMe, nil
	case ViewSharedWithMe:
		return ViewSharedWithMe, nil
	case ViewAll:
		return ViewAll, nil
	default:
		return ViewAll, invalidf("view", "unknown view %q", value)
	}
}

// visibleNotes builds the candidate query for one requester and view.
// Deleted notes never survive this query, independent of the caller.
// Ordering is created_at descending with id as the final tie-break so every
// listing path produces identical output for identical data.
func visibleNotes(db *gorm.DB, requester Identity, view View) *gorm.DB {
	sharedNoteIDs := db.Session(&gorm.Session{NewDB: true}).
		Model(&Share{}).Select("note_id")
	sharedWithMeIDs := db.Session(&gorm.Session{NewDB: true}).
		Model(&Share{}).Select("note_id").
		Where("recipient_email = ?", normalizeEmail(requester.Email))

	q := db.Model(&Note{}).Where("deleted = ?", false)
	switch view {
	case ViewOwned:
		q = q.Where("owner_id = ?", requester.ID).
			Where("id NOT IN (?)", sharedNoteIDs)
	case ViewSharedByMe:
		q = q.Where("owner_id = ?", requester.ID).
			Where("id IN (?)", sharedNoteIDs)
	case ViewSharedWithMe:
		q = q.Where("owner_id <> ?", requester.ID).
			Where("id IN (?)", sharedWithMeIDs)
	default:
		q = q.Where("owner_id = ? OR id IN (?)", requester.ID, sharedWithMeIDs)
	}
	return q.Order("created_at DESC").Order("id ASC")
}

// withTagFilter restricts the candidate query to notes carrying any of the
// given tags (OR semantics).
func withTagFilter(db *gorm.DB, q *gorm.DB, tagIDs []uuid.UUID) *gorm.DB {
	if len(tagIDs) == 0 {
		return q
	}
	tagged := db.Session(&gorm.Session{NewDB: true}).
		Table("note_tags").Select("note_id").
		Where("tag_id IN ?", tagIDs)
	return q.Where("id IN (?)", tagged)
}
