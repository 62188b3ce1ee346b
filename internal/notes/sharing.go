package notes

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var emailValidator = validator.New()

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// normalizeEmails trims, lowercases and de-duplicates the batch, preserving
// first-seen order. One malformed entry fails the whole batch; nothing is
// partially applied.
func normalizeEmails(emails []string) ([]string, error) {
	seen := make(map[string]bool, len(emails))
	out := make([]string, 0, len(emails))
	for _, email := range emails {
		email = normalizeEmail(email)
		if err := emailValidator.Var(email, "required,email"); err != nil {
			return nil, invalidf("emails", "malformed email %q", email)
		}
		if !seen[email] {
			seen[email] = true
			out = append(out, email)
		}
	}
	return out, nil
}

// SharingManager owns the Share lifecycle. Grants are keyed by recipient
// email and deleted outright on revocation.
type SharingManager struct {
	db     *gorm.DB
	logger *slog.Logger
}

func NewSharingManager(db *gorm.DB, logger *slog.Logger) *SharingManager {
	return &SharingManager{db: db, logger: logger}
}

// loadOwnedNote fetches a live note and checks the requester owns it.
func loadOwnedNote(tx *gorm.DB, noteID uuid.UUID, requester Identity) (*Note, error) {
	var note Note
	err := tx.Where("id = ? AND deleted = ?", noteID, false).First(&note).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if note.OwnerID != requester.ID {
		return nil, ErrForbidden
	}
	return &note, nil
}

// Share upserts one read grant per recipient email. Re-sharing with an email
// that already holds a grant is a no-op; the (note, email) uniqueness
// constraint in the store linearizes concurrent share and revoke calls.
func (m *SharingManager) Share(ctx context.Context, noteID uuid.UUID, owner Identity, recipientEmails []string) ([]Share, error) {
	emails, err := normalizeEmails(recipientEmails)
	if err != nil {
		return nil, err
	}
	if len(emails) == 0 {
		return nil, invalidf("emails", "must contain at least one email")
	}

	err = m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := loadOwnedNote(tx, noteID, owner); err != nil {
			return err
		}
		for _, email := range emails {
			share := Share{
				NoteID:         noteID,
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
		if errors.Is(err, ErrForbidden) {
			m.logger.Warn("share denied", "note", noteID, "requester", owner.ID)
		}
		return nil, err
	}

	var grants []Share
	err = m.db.WithContext(ctx).
		Where("note_id = ? AND recipient_email IN ?", noteID, emails).
		Order("created_at ASC").
		Find(&grants).Error
	if err != nil {
		return nil, err
	}

	m.logger.Info("note shared", "note", noteID, "owner", owner.ID, "recipients", len(emails))
	return grants, nil
}

// ListShares returns every active grant on the note, owner-only.
func (m *SharingManager) ListShares(ctx context.Context, noteID uuid.UUID, requester Identity) ([]Share, error) {
	if _, err := loadOwnedNote(m.db.WithContext(ctx), noteID, requester); err != nil {
		return nil, err
	}
	var shares []Share
	err := m.db.WithContext(ctx).
		Where("note_id = ?", noteID).
		Order("created_at ASC").
		Find(&shares).Error
	if err != nil {
		return nil, err
	}
	return shares, nil
}

// Revoke removes the grant for one recipient email. Revoking a grant that
// does not exist succeeds silently: losing that race is benign.
func (m *SharingManager) Revoke(ctx context.Context, noteID uuid.UUID, requester Identity, recipientEmail string) error {
	email := normalizeEmail(recipientEmail)
	err := m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := loadOwnedNote(tx, noteID, requester); err != nil {
			return err
		}
		return tx.Where("note_id = ? AND recipient_email = ?", noteID, email).
			Delete(&Share{}).Error
	})
	if err != nil {
		if errors.Is(err, ErrForbidden) {
			m.logger.Warn("revoke denied", "note", noteID, "requester", requester.ID)
		}
		return err
	}

	m.logger.Info("share revoked", "note", noteID, "owner", requester.ID)
	return nil
}

// ResolveGrantsForEmail answers "what is shared with me". It reads live rows
// on every call so revocations are reflected immediately.
func (m *SharingManager) ResolveGrantsForEmail(ctx context.Context, email string) ([]uuid.UUID, error) {
	var noteIDs []uuid.UUID
	err := m.db.WithContext(ctx).Model(&Share{}).
		Where("recipient_email = ?", normalizeEmail(email)).
		Pluck("note_id", &noteIDs).Error
	if err != nil {
		return nil, err
	}
	return noteIDs, nil
}
