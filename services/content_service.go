package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/cppla/treebbs/models"
	"github.com/cppla/treebbs/store"
	"github.com/cppla/treebbs/utils"
)

const (
	listCacheKey      = "cache:nodes:list"
	detailCachePrefix = "cache:node:detail:"
	viewCacheTTL      = time.Minute
)

// ContentRepository is the content tree persistence.
type ContentRepository interface {
	CreatePost(ctx context.Context, n *models.ContentNode) error
	CreateComment(ctx context.Context, n *models.ContentNode) error
	Get(ctx context.Context, id string) (*models.ContentNode, error)
	FindTopLevel(ctx context.Context) ([]models.NodeView, error)
	FindByID(ctx context.Context, id string) (*models.NodeView, error)
	UpdateBody(ctx context.Context, id, body string) (*models.ContentNode, error)
	DeleteByID(ctx context.Context, id string) (*models.ContentNode, error)
}

// ContentService runs post and comment operations. Mutations pass through the Gate first;
// edits and deletes are further restricted to the node's author.
type ContentService struct {
	nodes ContentRepository
	gate  *Gate
	cache *utils.Cache
}

// NewContentService creates a ContentService. cache may be nil.
func NewContentService(nodes ContentRepository, gate *Gate, cache *utils.Cache) *ContentService {
	return &ContentService{nodes: nodes, gate: gate, cache: cache}
}

// CreatePost publishes a top-level node authored by the token's user.
func (s *ContentService) CreatePost(ctx context.Context, token, title, body string) (*models.ContentNode, error) {
	who, err := s.gate.Authenticate(ctx, token)
	if err != nil {
		return nil, err
	}
	title = utils.Sanitize(strings.TrimSpace(title))
	body = utils.Sanitize(body)
	if title == "" || strings.TrimSpace(body) == "" {
		return nil, validationError("title and body are required for posts")
	}
	n, err := models.NewPost(who.UserID, title, body)
	if err != nil {
		return nil, validationError(err.Error())
	}
	if err := s.nodes.CreatePost(ctx, n); err != nil {
		return nil, storeError("create post", err)
	}
	s.cache.Delete(listCacheKey)
	utils.Sugar.Infow("post created", "id", n.ID, "author_id", n.AuthorID)
	return n, nil
}

// CreateComment attaches a comment to parentID, which may be a post or another comment.
func (s *ContentService) CreateComment(ctx context.Context, token, parentID, body string) (*models.ContentNode, error) {
	who, err := s.gate.Authenticate(ctx, token)
	if err != nil {
		return nil, err
	}
	if !validID(parentID) {
		return nil, validationError("malformed id")
	}
	body = utils.Sanitize(body)
	if strings.TrimSpace(body) == "" {
		return nil, validationError("body is required")
	}
	n, err := models.NewComment(who.UserID, parentID, body)
	if err != nil {
		return nil, validationError(err.Error())
	}
	if err := s.nodes.CreateComment(ctx, n); err != nil {
		if errors.Is(err, store.ErrParentNotFound) {
			return nil, ErrParentNotFound
		}
		return nil, storeError("create comment", err)
	}
	s.invalidate(n)
	utils.Sugar.Infow("comment created", "id", n.ID, "parent_id", parentID, "author_id", n.AuthorID)
	return n, nil
}

// ListTopLevel returns every post with its author and direct comments.
func (s *ContentService) ListTopLevel(ctx context.Context) ([]models.NodeView, error) {
	var views []models.NodeView
	if s.cache.GetJSON(listCacheKey, &views) {
		return views, nil
	}
	views, err := s.nodes.FindTopLevel(ctx)
	if err != nil {
		return nil, storeError("list posts", err)
	}
	s.cache.SetJSON(listCacheKey, views, viewCacheTTL)
	return views, nil
}

// GetWithComments returns one node with its author and direct comments.
func (s *ContentService) GetWithComments(ctx context.Context, id string) (*models.NodeView, error) {
	if !validID(id) {
		return nil, validationError("malformed id")
	}
	var cached models.NodeView
	if s.cache.GetJSON(detailCachePrefix+id, &cached) {
		return &cached, nil
	}
	view, err := s.nodes.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, storeError("find node", err)
	}
	s.cache.SetJSON(detailCachePrefix+id, view, viewCacheTTL)
	return view, nil
}

// UpdateBody replaces the body of a node the caller authored.
func (s *ContentService) UpdateBody(ctx context.Context, token, id, body string) (*models.ContentNode, error) {
	who, err := s.gate.Authenticate(ctx, token)
	if err != nil {
		return nil, err
	}
	body = utils.Sanitize(body)
	if !validID(id) || strings.TrimSpace(body) == "" {
		return nil, validationError("a well-formed id and a body are required")
	}
	current, err := s.authored(ctx, who, id)
	if err != nil {
		return nil, err
	}
	n, err := s.nodes.UpdateBody(ctx, id, body)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, storeError("update node", err)
	}
	s.invalidate(current)
	return n, nil
}

// Delete removes a node the caller authored. Its comments are kept.
func (s *ContentService) Delete(ctx context.Context, token, id string) (*models.ContentNode, error) {
	who, err := s.gate.Authenticate(ctx, token)
	if err != nil {
		return nil, err
	}
	if !validID(id) {
		return nil, validationError("malformed id")
	}
	current, err := s.authored(ctx, who, id)
	if err != nil {
		return nil, err
	}
	n, err := s.nodes.DeleteByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, storeError("delete node", err)
	}
	s.invalidate(current)
	utils.Sugar.Infow("node deleted", "id", id, "kind", current.Kind().String(), "by", who.UserID)
	return n, nil
}

// authored loads id and checks that who wrote it.
func (s *ContentService) authored(ctx context.Context, who Identity, id string) (*models.ContentNode, error) {
	n, err := s.nodes.Get(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, storeError("find node", err)
	}
	if n.AuthorID != who.UserID {
		return nil, ErrForbidden
	}
	return n, nil
}

// invalidate drops cached views that may show n. Detail views embed child lists two levels
// deep, so a comment change can reach its grandparent; all detail views go.
func (s *ContentService) invalidate(n *models.ContentNode) {
	if n.ParentID == nil {
		s.cache.Delete(listCacheKey, detailCachePrefix+n.ID)
		return
	}
	s.cache.Delete(listCacheKey)
	s.cache.InvalidateByPrefix(detailCachePrefix)
}

func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}
