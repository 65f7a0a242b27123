package models

import (
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

var validate = validator.New()

var (
	ErrTitleRequired  = errors.New("title is required for posts")
	ErrTitleOnComment = errors.New("comments cannot carry a title")
	ErrEmptyBody      = errors.New("body cannot be empty")
)

// Kind tells a post from a comment.
type Kind int

const (
	KindPost Kind = iota
	KindComment
)

func (k Kind) String() string {
	if k == KindComment {
		return "comment"
	}
	return "post"
}

// ContentNode is a post (no parent) or a comment (parent set). AuthorID and ParentID never change
// after creation. ChildIDs is not a column: it is loaded from ContentLink rows.
type ContentNode struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	Title     string    `gorm:"size:255" json:"title,omitempty"`
	Body      string    `gorm:"type:text;not null" json:"body" validate:"required"`
	AuthorID  string    `gorm:"size:36;index;not null" json:"author_id" validate:"required,uuid"`
	ParentID  *string   `gorm:"size:36;index" json:"parent_id,omitempty" validate:"omitempty,uuid"`
	ChildIDs  []string  `gorm:"-" json:"child_ids"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ContentLink is one entry of a node's ordered child list. Seq orders siblings.
type ContentLink struct {
	Seq       uint      `gorm:"primaryKey;autoIncrement"`
	ParentID  string    `gorm:"size:36;index;not null"`
	ChildID   string    `gorm:"size:36;uniqueIndex;not null"`
	CreatedAt time.Time
}

// NewPost builds a top-level node. The title is trimmed and must be non-empty.
func NewPost(authorID, title, body string) (*ContentNode, error) {
	n := &ContentNode{AuthorID: authorID, Title: strings.TrimSpace(title), Body: body}
	if err := n.Validate(); err != nil {
		return nil, err
	}
	return n, nil
}

// NewComment builds a node attached to parentID. Comments have no title.
func NewComment(authorID, parentID, body string) (*ContentNode, error) {
	n := &ContentNode{AuthorID: authorID, ParentID: &parentID, Body: body}
	if err := n.Validate(); err != nil {
		return nil, err
	}
	return n, nil
}

// Kind reports whether n is a post or a comment.
func (n *ContentNode) Kind() Kind {
	if n.ParentID == nil {
		return KindPost
	}
	return KindComment
}

// Validate checks field shapes and the title rule for n's kind.
func (n *ContentNode) Validate() error {
	if strings.TrimSpace(n.Body) == "" {
		return ErrEmptyBody
	}
	if err := validate.Struct(n); err != nil {
		return err
	}
	switch n.Kind() {
	case KindPost:
		if strings.TrimSpace(n.Title) == "" {
			return ErrTitleRequired
		}
	case KindComment:
		if n.Title != "" {
			return ErrTitleOnComment
		}
	}
	return nil
}

// BeforeCreate assigns the opaque id and ensures timestamps are set.
func (n *ContentNode) BeforeCreate(tx *gorm.DB) error {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	now := time.Now()
	if n.CreatedAt.IsZero() {
		n.CreatedAt = now
	}
	n.UpdatedAt = now
	return nil
}

// CommentView is a comment with its author resolved.
type CommentView struct {
	ContentNode
	Author Author `json:"author"`
}

// NodeView is a node prepared for presentation: author and direct comments resolved.
type NodeView struct {
	ContentNode
	Author   Author        `json:"author"`
	Comments []CommentView `json:"comments"`
}
