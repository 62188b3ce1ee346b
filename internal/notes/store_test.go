package notes

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateValidatesInput(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	cases := []struct {
		name    string
		title   string
		content string
		field   string
	}{
		{"empty title", "", "some content", "title"},
		{"blank title", "   ", "some content", "title"},
		{"oversized title", strings.Repeat("x", TitleMaxLength+1), "some content", "title"},
		{"empty content", "a title", "", "content"},
		{"blank content", "a title", "\n\t ", "content"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.store.Create(ctx, alice, tc.title, tc.content, nil, nil)
			require.ErrorIs(t, err, ErrValidation)
			var ve *ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Equal(t, tc.field, ve.Field)
		})
	}
}

func TestCreateRejectsUnknownTag(t *testing.T) {
	f := newFixture(t)

	_, err := f.store.Create(context.Background(), alice, "title", "content", []uuid.UUID{uuid.New()}, nil)
	require.ErrorIs(t, err, ErrValidation)
}

func TestCreatePersistsTagsAndSearchRepr(t *testing.T) {
	f := newFixture(t)

	note := f.mustCreate(t, alice, "  Grocery List!  ", "milk, eggs", "work", "personal")
	assert.Equal(t, "Grocery List!", note.Title)
	assert.Equal(t, "grocery list", note.SearchRepr)
	assert.Len(t, note.Tags, 2)
	assert.Equal(t, alice.ID, note.OwnerID)
	assert.False(t, note.UpdatedAt.Before(note.CreatedAt))

	loaded, err := f.store.Get(context.Background(), note.ID, alice)
	require.NoError(t, err)
	assert.Len(t, loaded.Tags, 2)
}

func TestCreateDeduplicatesTagIDs(t *testing.T) {
	f := newFixture(t)
	workID := f.tagIDs["work"]

	note, err := f.store.Create(context.Background(), alice, "title", "content",
		[]uuid.UUID{workID, workID, workID}, nil)
	require.NoError(t, err)
	assert.Len(t, note.Tags, 1)
}

func TestCreateWithInitialShares(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	note, err := f.store.Create(ctx, alice, "shared note", "content", nil,
		[]string{"  Bob@Example.COM ", "bob@example.com"})
	require.NoError(t, err)

	var shares []Share
	require.NoError(t, f.db.Where("note_id = ?", note.ID).Find(&shares).Error)
	require.Len(t, shares, 1)
	assert.Equal(t, "bob@example.com", shares[0].RecipientEmail)
	assert.Equal(t, PermissionRead, shares[0].Permission)

	// The recipient can read it immediately.
	_, err = f.store.Get(ctx, note.ID, bob)
	require.NoError(t, err)
}

func TestCreateWithMalformedShareEmailWritesNothing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.store.Create(ctx, alice, "title", "content", nil,
		[]string{"bob@example.com", "not-an-email"})
	require.ErrorIs(t, err, ErrValidation)

	var count int64
	require.NoError(t, f.db.Model(&Note{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestGetEnforcesAccess(t *testing.T) {
	// Scenario: a note with no shares is visible to its owner only.
	f := newFixture(t)
	ctx := context.Background()

	note := f.mustCreate(t, alice, "Grocery List", "milk")

	got, err := f.store.Get(ctx, note.ID, alice)
	require.NoError(t, err)
	assert.Equal(t, note.ID, got.ID)

	_, err = f.store.Get(ctx, note.ID, bob)
	require.ErrorIs(t, err, ErrForbidden)

	_, err = f.store.Get(ctx, uuid.New(), alice)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestGetAllowsRecipients(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	note := f.mustCreate(t, alice, "handover", "details")
	f.mustShare(t, alice, note.ID, bob.Email)

	_, err := f.store.Get(ctx, note.ID, bob)
	require.NoError(t, err)

	_, err = f.store.Get(ctx, note.ID, carol)
	require.ErrorIs(t, err, ErrForbidden)
}

func TestUpdateIsOwnerOnly(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	note := f.mustCreate(t, alice, "original", "content")

	_, err := f.store.Update(ctx, note.ID, bob, "hijacked", "content", nil)
	require.ErrorIs(t, err, ErrForbidden)

	// Even a read grant does not allow updates.
	f.mustShare(t, alice, note.ID, bob.Email)
	_, err = f.store.Update(ctx, note.ID, bob, "hijacked", "content", nil)
	require.ErrorIs(t, err, ErrForbidden)
}

func TestUpdateReplacesFieldsAndTags(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	note := f.mustCreate(t, alice, "before", "old content", "work")

	updated, err := f.store.Update(ctx, note.ID, alice, "After The Rewrite", "new content",
		[]uuid.UUID{f.tagIDs["personal"], f.tagIDs["ideas"]})
	require.NoError(t, err)
	assert.Equal(t, "After The Rewrite", updated.Title)
	assert.Equal(t, "new content", updated.Content)
	assert.Equal(t, "after the rewrite", updated.SearchRepr)
	assert.False(t, updated.UpdatedAt.Before(updated.CreatedAt))

	loaded, err := f.store.Get(ctx, note.ID, alice)
	require.NoError(t, err)
	require.Len(t, loaded.Tags, 2)
	names := []string{loaded.Tags[0].Name, loaded.Tags[1].Name}
	assert.ElementsMatch(t, []string{"personal", "ideas"}, names)
}

func TestUpdateMissingNote(t *testing.T) {
	f := newFixture(t)

	_, err := f.store.Update(context.Background(), uuid.New(), alice, "title", "content", nil)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestSoftDeleteHidesNoteEverywhere(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	note := f.mustCreate(t, alice, "doomed", "content", "work")
	f.mustShare(t, alice, note.ID, bob.Email)

	require.NoError(t, f.store.SoftDelete(ctx, note.ID, alice))

	// Gone for everyone, owner included.
	_, err := f.store.Get(ctx, note.ID, alice)
	require.ErrorIs(t, err, ErrNotFound)
	_, err = f.store.Get(ctx, note.ID, bob)
	require.ErrorIs(t, err, ErrNotFound)

	for _, view := range []View{ViewOwned, ViewSharedByMe, ViewAll} {
		result, _, err := f.store.List(ctx, alice, view, 1, nil)
		require.NoError(t, err)
		assert.Empty(t, result, "view %q", view)
	}
	result, _, err := f.store.List(ctx, bob, ViewSharedWithMe, 1, nil)
	require.NoError(t, err)
	assert.Empty(t, result)

	// Shares are cascaded away, grants resolve to nothing.
	grants, err := f.sharing.ResolveGrantsForEmail(ctx, bob.Email)
	require.NoError(t, err)
	assert.Empty(t, grants)

	// Terminal state: no further mutation.
	_, err = f.store.Update(ctx, note.ID, alice, "back", "content", nil)
	require.ErrorIs(t, err, ErrNotFound)
	require.ErrorIs(t, f.store.SoftDelete(ctx, note.ID, alice), ErrNotFound)
}

func TestSoftDeleteIsOwnerOnly(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	note := f.mustCreate(t, alice, "keep", "content")
	require.ErrorIs(t, f.store.SoftDelete(ctx, note.ID, bob), ErrForbidden)

	_, err := f.store.Get(ctx, note.ID, alice)
	require.NoError(t, err)
}
