package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/cppla/treebbs/models"
	"github.com/cppla/treebbs/store/storetest"
)

func newStores(t *testing.T) (*UserStore, *ContentStore) {
	db := storetest.Open(t)
	return NewUserStore(db, time.Second), NewContentStore(db, time.Second)
}

func mustUser(t *testing.T, users *UserStore, name string) *models.User {
	t.Helper()
	u := &models.User{Username: name, PasswordHash: "hash"}
	require.NoError(t, users.Create(context.Background(), u))
	return u
}

func mustPost(t *testing.T, content *ContentStore, author *models.User, title string) *models.ContentNode {
	t.Helper()
	p, err := models.NewPost(author.ID, title, "body of "+title)
	require.NoError(t, err)
	require.NoError(t, content.CreatePost(context.Background(), p))
	return p
}

func TestContentStoreCreatePost(t *testing.T) {
	users, content := newStores(t)
	ctx := context.Background()
	alice := mustUser(t, users, "alice")

	p := mustPost(t, content, alice, "T")
	assert.NotEmpty(t, p.ID)
	assert.Equal(t, []string{}, p.ChildIDs)

	view, err := content.FindByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "T", view.Title)
	assert.Equal(t, "alice", view.Author.Username)
	assert.Empty(t, view.ChildIDs)
	assert.Empty(t, view.Comments)
}

func TestContentStoreCreateComment(t *testing.T) {
	users, content := newStores(t)
	ctx := context.Background()
	alice := mustUser(t, users, "alice")
	bob := mustUser(t, users, "bob")
	post := mustPost(t, content, alice, "P")

	t.Run("links parent and child", func(t *testing.T) {
		c, err := models.NewComment(bob.ID, post.ID, "hi")
		require.NoError(t, err)
		require.NoError(t, content.CreateComment(ctx, c))

		parent, err := content.Get(ctx, post.ID)
		require.NoError(t, err)
		assert.Contains(t, parent.ChildIDs, c.ID)

		child, err := content.Get(ctx, c.ID)
		require.NoError(t, err)
		require.NotNil(t, child.ParentID)
		assert.Equal(t, post.ID, *child.ParentID)
	})

	t.Run("keeps creation order", func(t *testing.T) {
		var ids []string
		for _, body := range []string{"one", "two", "three"} {
			c, err := models.NewComment(alice.ID, post.ID, body)
			require.NoError(t, err)
			require.NoError(t, content.CreateComment(ctx, c))
			ids = append(ids, c.ID)
		}
		view, err := content.FindByID(ctx, post.ID)
		require.NoError(t, err)
		assert.Equal(t, ids, view.ChildIDs[len(view.ChildIDs)-3:])
		require.Len(t, view.Comments, len(view.ChildIDs))
		assert.Equal(t, "three", view.Comments[len(view.Comments)-1].Body)
		assert.Equal(t, "alice", view.Comments[len(view.Comments)-1].Author.Username)
	})

	t.Run("comment on comment", func(t *testing.T) {
		parent, err := models.NewComment(alice.ID, post.ID, "thread")
		require.NoError(t, err)
		require.NoError(t, content.CreateComment(ctx, parent))
		reply, err := models.NewComment(bob.ID, parent.ID, "reply")
		require.NoError(t, err)
		require.NoError(t, content.CreateComment(ctx, reply))

		view, err := content.FindByID(ctx, parent.ID)
		require.NoError(t, err)
		assert.Equal(t, []string{reply.ID}, view.ChildIDs)
		assert.Equal(t, "bob", view.Comments[0].Author.Username)
	})

	t.Run("missing parent leaves no orphan", func(t *testing.T) {
		var before int64
		require.NoError(t, content.db.Model(&models.ContentNode{}).Count(&before).Error)

		c, err := models.NewComment(bob.ID, uuid.NewString(), "lost")
		require.NoError(t, err)
		assert.ErrorIs(t, content.CreateComment(ctx, c), ErrParentNotFound)

		var after int64
		require.NoError(t, content.db.Model(&models.ContentNode{}).Count(&after).Error)
		assert.Equal(t, before, after)
	})
}

func TestContentStoreCreateCommentRollsBack(t *testing.T) {
	users, content := newStores(t)
	ctx := context.Background()
	alice := mustUser(t, users, "alice")
	post := mustPost(t, content, alice, "P")

	errLink := errors.New("link insert failed")
	require.NoError(t, content.db.Callback().Create().Before("gorm:create").Register("test:fail_links", func(tx *gorm.DB) {
		if tx.Statement.Table == "content_links" {
			_ = tx.AddError(errLink)
		}
	}))

	c, err := models.NewComment(alice.ID, post.ID, "doomed")
	require.NoError(t, err)
	assert.ErrorIs(t, content.CreateComment(ctx, c), errLink)

	var comments int64
	require.NoError(t, content.db.Model(&models.ContentNode{}).Where("parent_id = ?", post.ID).Count(&comments).Error)
	assert.Zero(t, comments)

	parent, err := content.Get(ctx, post.ID)
	require.NoError(t, err)
	assert.Empty(t, parent.ChildIDs)
}

func TestContentStoreFindTopLevel(t *testing.T) {
	users, content := newStores(t)
	ctx := context.Background()
	alice := mustUser(t, users, "alice")
	p1 := mustPost(t, content, alice, "first")
	p2 := mustPost(t, content, alice, "second")
	c, err := models.NewComment(alice.ID, p1.ID, "comment")
	require.NoError(t, err)
	require.NoError(t, content.CreateComment(ctx, c))

	views, err := content.FindTopLevel(ctx)
	require.NoError(t, err)
	require.Len(t, views, 2)

	byID := map[string]models.NodeView{}
	for _, v := range views {
		assert.Nil(t, v.ParentID)
		byID[v.ID] = v
	}
	assert.Equal(t, []string{c.ID}, byID[p1.ID].ChildIDs)
	assert.Equal(t, "comment", byID[p1.ID].Comments[0].Body)
	assert.Empty(t, byID[p2.ID].Comments)
}

func TestContentStoreUpdateBody(t *testing.T) {
	users, content := newStores(t)
	ctx := context.Background()
	alice := mustUser(t, users, "alice")
	p := mustPost(t, content, alice, "T")

	updated, err := content.UpdateBody(ctx, p.ID, "new body")
	require.NoError(t, err)
	assert.Equal(t, "new body", updated.Body)
	assert.Equal(t, "T", updated.Title)
	assert.Equal(t, alice.ID, updated.AuthorID)
	assert.Nil(t, updated.ParentID)

	got, err := content.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "new body", got.Body)

	_, err = content.UpdateBody(ctx, uuid.NewString(), "x")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestContentStoreDeleteByID(t *testing.T) {
	users, content := newStores(t)
	ctx := context.Background()
	alice := mustUser(t, users, "alice")
	p := mustPost(t, content, alice, "T")
	c, err := models.NewComment(alice.ID, p.ID, "bye")
	require.NoError(t, err)
	require.NoError(t, content.CreateComment(ctx, c))
	reply, err := models.NewComment(alice.ID, c.ID, "still here")
	require.NoError(t, err)
	require.NoError(t, content.CreateComment(ctx, reply))

	deleted, err := content.DeleteByID(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, "bye", deleted.Body)
	assert.Equal(t, []string{reply.ID}, deleted.ChildIDs)

	_, err = content.Get(ctx, c.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	parent, err := content.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Empty(t, parent.ChildIDs)

	// no cascade
	kept, err := content.Get(ctx, reply.ID)
	require.NoError(t, err)
	assert.Equal(t, c.ID, *kept.ParentID)

	_, err = content.DeleteByID(ctx, c.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestContentStorePing(t *testing.T) {
	_, content := newStores(t)
	assert.NoError(t, content.Ping(context.Background()))
}
