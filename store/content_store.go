package store

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/cppla/treebbs/models"
)

// ContentStore persists posts and comments as one self-referential table plus the ordered
// child lists in content_links.
type ContentStore struct {
	base
}

// NewContentStore creates a ContentStore on db.
func NewContentStore(db *gorm.DB, timeout time.Duration) *ContentStore {
	return &ContentStore{base: newBase(db, timeout)}
}

// CreatePost inserts a top-level node.
func (s *ContentStore) CreatePost(ctx context.Context, n *models.ContentNode) error {
	db, cancel := s.session(ctx)
	defer cancel()
	if err := db.Create(n).Error; err != nil {
		return err
	}
	n.ChildIDs = []string{}
	return nil
}

// CreateComment inserts n and appends it to its parent's child list in one transaction.
// Either both rows exist afterwards or neither does.
func (s *ContentStore) CreateComment(ctx context.Context, n *models.ContentNode) error {
	db, cancel := s.session(ctx)
	defer cancel()
	err := db.Transaction(func(tx *gorm.DB) error {
		var parent models.ContentNode
		if err := tx.Select("id").Where("id = ?", *n.ParentID).First(&parent).Error; err != nil {
			return notFound(err, ErrParentNotFound)
		}
		if err := tx.Create(n).Error; err != nil {
			return err
		}
		return tx.Create(&models.ContentLink{ParentID: parent.ID, ChildID: n.ID}).Error
	})
	if err != nil {
		return err
	}
	n.ChildIDs = []string{}
	return nil
}

// Get returns the raw node with its child list.
func (s *ContentStore) Get(ctx context.Context, id string) (*models.ContentNode, error) {
	db, cancel := s.session(ctx)
	defer cancel()
	var n models.ContentNode
	if err := db.Where("id = ?", id).First(&n).Error; err != nil {
		return nil, notFound(err, ErrNotFound)
	}
	children, err := childIDsOf(db, []string{n.ID})
	if err != nil {
		return nil, err
	}
	n.ChildIDs = nonNil(children[n.ID])
	return &n, nil
}

// FindTopLevel returns all posts, newest first, each with author and direct comments resolved.
func (s *ContentStore) FindTopLevel(ctx context.Context) ([]models.NodeView, error) {
	db, cancel := s.session(ctx)
	defer cancel()
	var posts []models.ContentNode
	if err := db.Where("parent_id IS NULL").Order("created_at DESC").Find(&posts).Error; err != nil {
		return nil, err
	}
	return resolve(db, posts)
}

// FindByID returns one node with author and direct comments resolved.
func (s *ContentStore) FindByID(ctx context.Context, id string) (*models.NodeView, error) {
	db, cancel := s.session(ctx)
	defer cancel()
	var n models.ContentNode
	if err := db.Where("id = ?", id).First(&n).Error; err != nil {
		return nil, notFound(err, ErrNotFound)
	}
	views, err := resolve(db, []models.ContentNode{n})
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}

// UpdateBody replaces the body of a post or comment. Title, author and parent are untouched.
func (s *ContentStore) UpdateBody(ctx context.Context, id, body string) (*models.ContentNode, error) {
	db, cancel := s.session(ctx)
	defer cancel()
	var n models.ContentNode
	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ?", id).First(&n).Error; err != nil {
			return notFound(err, ErrNotFound)
		}
		now := time.Now()
		if err := tx.Model(&models.ContentNode{}).Where("id = ?", id).
			Updates(map[string]any{"body": body, "updated_at": now}).Error; err != nil {
			return err
		}
		n.Body = body
		n.UpdatedAt = now
		children, err := childIDsOf(tx, []string{id})
		if err != nil {
			return err
		}
		n.ChildIDs = nonNil(children[id])
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &n, nil
}

// DeleteByID removes the node and its entry in its parent's child list. Children are kept.
// The returned node carries the child list it had before deletion.
func (s *ContentStore) DeleteByID(ctx context.Context, id string) (*models.ContentNode, error) {
	db, cancel := s.session(ctx)
	defer cancel()
	var n models.ContentNode
	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ?", id).First(&n).Error; err != nil {
			return notFound(err, ErrNotFound)
		}
		children, err := childIDsOf(tx, []string{id})
		if err != nil {
			return err
		}
		n.ChildIDs = nonNil(children[id])
		if err := tx.Where("child_id = ? OR parent_id = ?", id, id).Delete(&models.ContentLink{}).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", id).Delete(&models.ContentNode{}).Error
	})
	if err != nil {
		return nil, err
	}
	return &n, nil
}

// childIDsOf returns the ordered child lists of the given parents.
func childIDsOf(db *gorm.DB, parentIDs []string) (map[string][]string, error) {
	out := make(map[string][]string, len(parentIDs))
	if len(parentIDs) == 0 {
		return out, nil
	}
	var links []models.ContentLink
	if err := db.Where("parent_id IN ?", parentIDs).Order("seq ASC").Find(&links).Error; err != nil {
		return nil, err
	}
	for _, l := range links {
		out[l.ParentID] = append(out[l.ParentID], l.ChildID)
	}
	return out, nil
}

// resolve attaches child lists, authors and one level of comments (with their authors) to nodes.
func resolve(db *gorm.DB, nodes []models.ContentNode) ([]models.NodeView, error) {
	views := make([]models.NodeView, 0, len(nodes))
	if len(nodes) == 0 {
		return views, nil
	}

	ids := make([]string, 0, len(nodes))
	for _, n := range nodes {
		ids = append(ids, n.ID)
	}
	children, err := childIDsOf(db, ids)
	if err != nil {
		return nil, err
	}

	var commentIDs []string
	for _, list := range children {
		commentIDs = append(commentIDs, list...)
	}
	comments := map[string]models.ContentNode{}
	grandChildren := map[string][]string{}
	if len(commentIDs) > 0 {
		var rows []models.ContentNode
		if err := db.Where("id IN ?", commentIDs).Find(&rows).Error; err != nil {
			return nil, err
		}
		for _, c := range rows {
			comments[c.ID] = c
		}
		if grandChildren, err = childIDsOf(db, commentIDs); err != nil {
			return nil, err
		}
	}

	authorIDs := make([]string, 0, len(nodes)+len(comments))
	for _, n := range nodes {
		authorIDs = append(authorIDs, n.AuthorID)
	}
	for _, c := range comments {
		authorIDs = append(authorIDs, c.AuthorID)
	}
	var users []models.User
	if err := db.Where("id IN ?", uniqueStrings(authorIDs)).Find(&users).Error; err != nil {
		return nil, err
	}
	authors := make(map[string]models.Author, len(users))
	for _, u := range users {
		authors[u.ID] = u.AsAuthor()
	}

	for _, n := range nodes {
		n.ChildIDs = nonNil(children[n.ID])
		view := models.NodeView{
			ContentNode: n,
			Author:      authorOf(authors, n.AuthorID),
			Comments:    make([]models.CommentView, 0, len(n.ChildIDs)),
		}
		for _, cid := range n.ChildIDs {
			c, ok := comments[cid]
			if !ok {
				continue
			}
			c.ChildIDs = nonNil(grandChildren[c.ID])
			view.Comments = append(view.Comments, models.CommentView{
				ContentNode: c,
				Author:      authorOf(authors, c.AuthorID),
			})
		}
		views = append(views, view)
	}
	return views, nil
}

// authorOf falls back to the bare id when the account is gone.
func authorOf(authors map[string]models.Author, id string) models.Author {
	if a, ok := authors[id]; ok {
		return a
	}
	return models.Author{ID: id}
}

func nonNil(list []string) []string {
	if list == nil {
		return []string{}
	}
	return list
}

func uniqueStrings(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
