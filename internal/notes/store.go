package notes

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Store owns the note lifecycle. Every mutation runs inside one gorm
// transaction covering field writes, the tag association set and the search
// representation, so a cancelled request never leaves a partial mutation.
type Store struct {
	db     *gorm.DB
	logger *slog.Logger
}

func NewStore(db *gorm.DB, logger *slog.Logger) *Store {
	return &Store{db: db, logger: logger}
}

func validateTitle(title string) (string, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return "", invalidf("title", "must not be empty")
	}
	if len([]rune(title)) > TitleMaxLength {
		return "", invalidf("title", "must be at most %d characters", TitleMaxLength)
	}
	return title, nil
}

func validateContent(content string) (string, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return "", invalidf("content", "must not be empty")
	}
	return content, nil
}

// Create validates input, persists the note with its tag associations and
// search representation, and optionally grants initial shares, all in one
// transaction. Malformed share emails fail the whole call before any write.
func (s *Store) Create(ctx context.Context, owner Identity, title, content string, tagIDs []uuid.UUID, initialShareEmails []string) (*Note, error) {
	title, err := validateTitle(title)
	if err != nil {
		return nil, err
	}
	content, err = validateContent(content)
	if err != nil {
		return nil, err
	}
	emails, err := normalizeEmails(initialShareEmails)
	if err != nil {
		return nil, err
	}

	note := &Note{
		Title:      title,
		Content:    content,
		OwnerID:    owner.ID,
		SearchRepr: Representation(title),
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		tags, err := resolveTags(tx, tagIDs)
		if err != nil {
			return err
		}
		note.Tags = tags
		if err := tx.Create(note).Error; err != nil {
			return err
		}
		for _, email := range emails {
			share := Share{
				NoteID:         note.ID,
				RecipientEmail: email,
				GranterID:      owner.ID,
				Permission:     PermissionRead,
			}
			err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&share).Error
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		s.logger.Error("note create failed", "owner", owner.ID, "error", err)
		return nil, err
	}

	s.logger.Info("note created", "note", note.ID, "owner", owner.ID, "shares", len(emails))
	return note, nil
}

// Get loads one note. Missing and soft-deleted notes are indistinguishable
// (both not found); a live note the requester neither owns nor holds a grant
// for is forbidden.
func (s *Store) Get(ctx context.Context, noteID uuid.UUID, requester Identity) (*Note, error) {
	var note Note
	err := s.db.WithContext(ctx).
		Preload("Tags").
		Where("id = ? AND deleted = ?", noteID, false).
		First(&note).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	if note.OwnerID != requester.ID {
		var grants int64
		err := s.db.WithContext(ctx).Model(&Share{}).
			Where("note_id = ? AND recipient_email = ?", noteID, normalizeEmail(requester.Email)).
			Count(&grants).Error
		if err != nil {
			return nil, err
		}
		if grants == 0 {
			s.logger.Warn("note access denied", "note", noteID, "requester", requester.ID)
			return nil, ErrForbidden
		}
	}
	return &note, nil
}

// Update is owner-only and replaces title, content and the tag set
// atomically, recomputing the search representation when the title changes.
func (s *Store) Update(ctx context.Context, noteID uuid.UUID, requester Identity, title, content string, tagIDs []uuid.UUID) (*Note, error) {
	title, err := validateTitle(title)
	if err != nil {
		return nil, err
	}
	content, err = validateContent(content)
	if err != nil {
		return nil, err
	}

	var note Note
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Where("id = ? AND deleted = ?", noteID, false).
			First(&note).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		if note.OwnerID != requester.ID {
			return ErrForbidden
		}

		tags, err := resolveTags(tx, tagIDs)
		if err != nil {
			return err
		}

		note.Content = content
		if note.Title != title {
			note.Title = title
			note.SearchRepr = Representation(title)
		}
		if err := tx.Save(&note).Error; err != nil {
			return err
		}
		if err := tx.Model(&note).Association("Tags").Replace(tags); err != nil {
			return err
		}
		note.Tags = tags
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrForbidden) {
			s.logger.Warn("note update denied", "note", noteID, "requester", requester.ID)
		}
		return nil, err
	}

	s.logger.Info("note updated", "note", noteID, "owner", requester.ID)
	return &note, nil
}

// SoftDelete is owner-only and terminal: the note disappears from every read
// path and its shares and tag associations go with it. Deleting an already
// deleted note reports not found.
func (s *Store) SoftDelete(ctx context.Context, noteID uuid.UUID, requester Identity) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var note Note
		err := tx.Where("id = ? AND deleted = ?", noteID, false).
			First(&note).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		if note.OwnerID != requester.ID {
			return ErrForbidden
		}

		if err := tx.Model(&Note{}).Where("id = ?", noteID).Update("deleted", true).Error; err != nil {
			return err
		}
		if err := tx.Where("note_id = ?", noteID).Delete(&Share{}).Error; err != nil {
			return err
		}
		return tx.Model(&note).Association("Tags").Clear()
	})
	if err != nil {
		if errors.Is(err, ErrForbidden) {
			s.logger.Warn("note delete denied", "note", noteID, "requester", requester.ID)
		}
		return err
	}

	s.logger.Info("note deleted", "note", noteID, "owner", requester.ID)
	return nil
}
