package notes

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	TitleMaxLength = 255

	PermissionRead = "read"
)

// Identity is the verified (user id, email) pair handed to every operation
// by the identity boundary. The domain trusts it completely.
type Identity struct {
	ID    string
	Email string
}

type Note struct {
	ID         uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	Title      string    `gorm:"size:255;not null" json:"title"`
	Content    string    `gorm:"type:text;not null" json:"content"`
	OwnerID    string    `gorm:"size:255;not null;index" json:"owner_id"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
	Deleted    bool      `gorm:"not null;default:false;index" json:"-"`
	SearchRepr string    `gorm:"type:text" json:"-"`
	Tags       []Tag     `gorm:"many2many:note_tags" json:"tags"`
}

func (n *Note) BeforeCreate(tx *gorm.DB) error {
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	return nil
}

type Tag struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	Name      string    `gorm:"size:50;not null;unique" json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

func (t *Tag) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}

// Share grants one recipient email read access to one note. The composite
// unique index keeps at most one active grant per (note, email) pair; the
// store resolves concurrent upserts, not application locking.
type Share struct {
	ID             uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	NoteID         uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_share_note_email" json:"note_id"`
	RecipientEmail string    `gorm:"size:255;not null;uniqueIndex:idx_share_note_email;index" json:"recipient_email"`
	GranterID      string    `gorm:"size:255;not null" json:"granter_id"`
	Permission     string    `gorm:"size:32;not null;default:read" json:"permission"`
	CreatedAt      time.Time `json:"created_at"`
}

func (s *Share) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	if s.Permission == "" {
		s.Permission = PermissionRead
	}
	return nil
}

// Models lists every table the notes domain owns, in migration order.
func Models() []any {
	return []any{&Tag{}, &Note{}, &Share{}}
}
