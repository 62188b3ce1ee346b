package notes

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var (
	alice = Identity{ID: "alice-id", Email: "alice@example.com"}
	bob   = Identity{ID: "bob-id", Email: "bob@example.com"}
	carol = Identity{ID: "carol-id", Email: "carol@example.com"}
)

type fixture struct {
	db      *gorm.DB
	store   *Store
	sharing *SharingManager
	tags    *TagRegistry

	tagIDs map[string]uuid.UUID
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "notes.sqlite")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(Models()...))

	testLogger := slog.New(slog.NewTextHandler(io.Discard, nil))

	f := &fixture{
		db:      db,
		store:   NewStore(db, testLogger),
		sharing: NewSharingManager(db, testLogger),
		tags:    NewTagRegistry(db, testLogger),
		tagIDs:  make(map[string]uuid.UUID),
	}

	require.NoError(t, f.tags.Seed(context.Background(), nil))
	catalog, err := f.tags.List(context.Background())
	require.NoError(t, err)
	for _, tag := range catalog {
		f.tagIDs[tag.Name] = tag.ID
	}
	return f
}

func (f *fixture) mustCreate(t *testing.T, owner Identity, title, content string, tagNames ...string) *Note {
	t.Helper()
	tagIDs := make([]uuid.UUID, 0, len(tagNames))
	for _, name := range tagNames {
		id, ok := f.tagIDs[name]
		require.True(t, ok, "unknown tag %q in fixture", name)
		tagIDs = append(tagIDs, id)
	}
	note, err := f.store.Create(context.Background(), owner, title, content, tagIDs, nil)
	require.NoError(t, err)
	return note
}

func (f *fixture) mustShare(t *testing.T, owner Identity, noteID uuid.UUID, emails ...string) {
	t.Helper()
	_, err := f.sharing.Share(context.Background(), noteID, owner, emails)
	require.NoError(t, err)
}

func noteIDs(result []Note) []uuid.UUID {
	ids := make([]uuid.UUID, len(result))
	for i, n := range result {
		ids[i] = n.ID
	}
	return ids
}
