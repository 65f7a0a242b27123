package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/cppla/treebbs/store"
	"github.com/cppla/treebbs/utils"
)

// Identity is the acting user of a request once the gate has confirmed it.
type Identity struct {
	UserID   string
	Username string
}

// Gate turns a presented session token into a confirmed Identity. Every failure wraps
// ErrUnauthorized; a valid token for a vanished account fails with ErrStaleIdentity.
type Gate struct {
	codec     *utils.TokenCodec
	blacklist *utils.TokenBlacklist
	users     UserRepository
}

// NewGate creates a Gate.
func NewGate(codec *utils.TokenCodec, blacklist *utils.TokenBlacklist, users UserRepository) *Gate {
	return &Gate{codec: codec, blacklist: blacklist, users: users}
}

// Authenticate confirms token and the account it names.
func (g *Gate) Authenticate(ctx context.Context, token string) (Identity, error) {
	if token == "" {
		return Identity{}, fmt.Errorf("%w: no session token", ErrUnauthorized)
	}
	if g.blacklist.IsRevoked(token) {
		return Identity{}, fmt.Errorf("%w: token revoked", ErrUnauthorized)
	}
	claims, err := g.codec.Verify(token)
	if err != nil {
		utils.Sugar.Debugw("session token rejected", "reason", err)
		return Identity{}, fmt.Errorf("%w: %w", ErrUnauthorized, err)
	}
	u, err := g.users.FindByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return Identity{}, ErrStaleIdentity
		}
		return Identity{}, storeError("find user", err)
	}
	return Identity{UserID: u.ID, Username: u.Username}, nil
}
