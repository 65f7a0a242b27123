package services

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cppla/treebbs/models"
)

func TestCreatePostRequiresSession(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for _, token := range []string{"", "bogus"} {
		_, err := f.content.CreatePost(ctx, token, "T", "B")
		assert.ErrorIs(t, err, ErrUnauthorized)
	}

	views, err := f.content.ListTopLevel(ctx)
	require.NoError(t, err)
	assert.Empty(t, views)
}

func TestCreatePostValidation(t *testing.T) {
	f := newFixture(t)
	token := f.login(t, "alice")

	_, err := f.content.CreatePost(context.Background(), token, " ", "B")
	assert.ErrorIs(t, err, ErrValidation)
	_, err = f.content.CreatePost(context.Background(), token, "T", "")
	assert.ErrorIs(t, err, ErrValidation)
}

func TestCreateAndListPost(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	token := f.login(t, "alice")

	post, err := f.content.CreatePost(ctx, token, "T", "B")
	require.NoError(t, err)
	assert.Equal(t, models.KindPost, post.Kind())

	views, err := f.content.ListTopLevel(ctx)
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Equal(t, post.ID, views[0].ID)
	assert.Equal(t, "T", views[0].Title)
	assert.Equal(t, "B", views[0].Body)
	assert.Equal(t, "alice", views[0].Author.Username)
	assert.Empty(t, views[0].ChildIDs)
}

func TestCreateComment(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	token := f.login(t, "alice")
	post, err := f.content.CreatePost(ctx, token, "P", "post body")
	require.NoError(t, err)

	c, err := f.content.CreateComment(ctx, token, post.ID, "nice post")
	require.NoError(t, err)
	assert.Equal(t, models.KindComment, c.Kind())

	view, err := f.content.GetWithComments(ctx, post.ID)
	require.NoError(t, err)
	require.Len(t, view.ChildIDs, 1)
	assert.Equal(t, c.ID, view.ChildIDs[0])
	require.Len(t, view.Comments, 1)
	assert.Equal(t, "nice post", view.Comments[0].Body)
	assert.Equal(t, "alice", view.Comments[0].Author.Username)

	t.Run("unknown parent", func(t *testing.T) {
		_, err := f.content.CreateComment(ctx, token, uuid.NewString(), "hello")
		assert.ErrorIs(t, err, ErrParentNotFound)
	})

	t.Run("malformed parent", func(t *testing.T) {
		_, err := f.content.CreateComment(ctx, token, "123", "hello")
		assert.ErrorIs(t, err, ErrValidation)
	})

	t.Run("no session", func(t *testing.T) {
		_, err := f.content.CreateComment(ctx, "", post.ID, "hello")
		assert.ErrorIs(t, err, ErrUnauthorized)
	})
}

func TestGetWithComments(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.content.GetWithComments(ctx, "nope")
	assert.ErrorIs(t, err, ErrValidation)

	_, err = f.content.GetWithComments(ctx, uuid.NewString())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateBody(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.login(t, "alice")
	bob := f.login(t, "bob")
	post, err := f.content.CreatePost(ctx, alice, "T", "B")
	require.NoError(t, err)

	_, err = f.content.UpdateBody(ctx, bob, post.ID, "hijack")
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = f.content.UpdateBody(ctx, "", post.ID, "anon")
	assert.ErrorIs(t, err, ErrUnauthorized)

	_, err = f.content.UpdateBody(ctx, alice, post.ID, "")
	assert.ErrorIs(t, err, ErrValidation)

	_, err = f.content.UpdateBody(ctx, alice, uuid.NewString(), "x")
	assert.ErrorIs(t, err, ErrNotFound)

	updated, err := f.content.UpdateBody(ctx, alice, post.ID, "edited")
	require.NoError(t, err)
	assert.Equal(t, "edited", updated.Body)
	assert.Equal(t, "T", updated.Title)

	view, err := f.content.GetWithComments(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, "edited", view.Body)
}

func TestDelete(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.login(t, "alice")
	bob := f.login(t, "bob")
	post, err := f.content.CreatePost(ctx, alice, "T", "B")
	require.NoError(t, err)
	c, err := f.content.CreateComment(ctx, bob, post.ID, "mine")
	require.NoError(t, err)

	_, err = f.content.Delete(ctx, alice, c.ID)
	assert.ErrorIs(t, err, ErrForbidden)

	deleted, err := f.content.Delete(ctx, bob, c.ID)
	require.NoError(t, err)
	assert.Equal(t, c.ID, deleted.ID)

	view, err := f.content.GetWithComments(ctx, post.ID)
	require.NoError(t, err)
	assert.Empty(t, view.ChildIDs)

	_, err = f.content.Delete(ctx, bob, c.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStoredTextIsSanitizedHTML(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	token := f.login(t, "alice")

	post, err := f.content.CreatePost(ctx, token, "R&D", "hi <script>alert(1)</script><b>there</b>")
	require.NoError(t, err)
	assert.Equal(t, "R&amp;D", post.Title)
	assert.NotContains(t, post.Body, "script")
	assert.Contains(t, post.Body, "<b>there</b>")

	// saving the stored form again does not escape it twice
	updated, err := f.content.UpdateBody(ctx, token, post.ID, post.Body)
	require.NoError(t, err)
	assert.Equal(t, post.Body, updated.Body)
}
