package store

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/cppla/treebbs/models"
)

// UserStore persists accounts. Usernames are unique at the index level.
type UserStore struct {
	base
}

// NewUserStore creates a UserStore on db.
func NewUserStore(db *gorm.DB, timeout time.Duration) *UserStore {
	return &UserStore{base: newBase(db, timeout)}
}

// Create inserts u and fills its id. A unique-index hit maps to ErrDuplicateUsername.
func (s *UserStore) Create(ctx context.Context, u *models.User) error {
	db, cancel := s.session(ctx)
	defer cancel()
	if err := db.Create(u).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrDuplicateUsername
		}
		return err
	}
	return nil
}

// FindByUsername returns ErrNotFound when no account uses username.
func (s *UserStore) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	db, cancel := s.session(ctx)
	defer cancel()
	var u models.User
	if err := db.Where("username = ?", username).First(&u).Error; err != nil {
		return nil, notFound(err, ErrNotFound)
	}
	return &u, nil
}

// FindByID returns ErrNotFound when id does not exist.
func (s *UserStore) FindByID(ctx context.Context, id string) (*models.User, error) {
	db, cancel := s.session(ctx)
	defer cancel()
	var u models.User
	if err := db.Where("id = ?", id).First(&u).Error; err != nil {
		return nil, notFound(err, ErrNotFound)
	}
	return &u, nil
}
