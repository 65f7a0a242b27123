// Package store persists users and the content tree through an injected gorm handle.
// Every call is bounded by the store timeout so a slow database cannot hang a caller.
package store

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
)

var (
	ErrNotFound          = errors.New("record not found")
	ErrParentNotFound    = errors.New("parent node not found")
	ErrDuplicateUsername = errors.New("username already exists")
)

const defaultTimeout = 5 * time.Second

type base struct {
	db      *gorm.DB
	timeout time.Duration
}

func newBase(db *gorm.DB, timeout time.Duration) base {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return base{db: db, timeout: timeout}
}

// session returns a handle bound to a context that expires after the store timeout.
func (b base) session(ctx context.Context) (*gorm.DB, context.CancelFunc) {
	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	return b.db.WithContext(ctx), cancel
}

// Ping checks that the backing database answers.
func (b base) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()
	sqlDB, err := b.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func notFound(err error, kind error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return kind
	}
	return err
}
