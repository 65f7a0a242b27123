package services

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/cppla/treebbs/models"
	"github.com/cppla/treebbs/store"
	"github.com/cppla/treebbs/utils"
)

const (
	MinUsernameLen = 3
	MaxUsernameLen = 64
	MinPasswordLen = 6
)

// UserRepository is the persistence the credential rules need.
type UserRepository interface {
	Create(ctx context.Context, u *models.User) error
	FindByUsername(ctx context.Context, username string) (*models.User, error)
	FindByID(ctx context.Context, id string) (*models.User, error)
}

// Session is the outcome of a successful register or login.
type Session struct {
	User      *models.User
	Token     string
	ExpiresAt time.Time
}

// AuthService registers accounts, verifies credentials and manages session tokens.
type AuthService struct {
	users     UserRepository
	codec     *utils.TokenCodec
	blacklist *utils.TokenBlacklist
}

// NewAuthService wires the credential store, token codec and revocation list.
func NewAuthService(users UserRepository, codec *utils.TokenCodec, blacklist *utils.TokenBlacklist) *AuthService {
	return &AuthService{users: users, codec: codec, blacklist: blacklist}
}

// Register creates an account. The raw password is only ever handed to bcrypt.
func (s *AuthService) Register(ctx context.Context, username, password string) (*models.User, error) {
	username = strings.TrimSpace(username)
	if n := utf8.RuneCountInString(username); n < MinUsernameLen || n > MaxUsernameLen {
		return nil, validationError("username must be 3-64 characters")
	}
	if len(password) < MinPasswordLen || len(password) > utils.MaxPasswordBytes {
		return nil, validationError("password must be 6-72 bytes")
	}

	if _, err := s.users.FindByUsername(ctx, username); err == nil {
		return nil, ErrDuplicateUsername
	} else if !errors.Is(err, store.ErrNotFound) {
		return nil, storeError("find user", err)
	}

	hash, err := utils.HashPassword(password)
	if err != nil {
		return nil, err
	}
	u := &models.User{Username: username, PasswordHash: hash}
	if err := s.users.Create(ctx, u); err != nil {
		if errors.Is(err, store.ErrDuplicateUsername) {
			return nil, ErrDuplicateUsername
		}
		return nil, storeError("create user", err)
	}
	utils.Sugar.Infow("user registered", "user_id", u.ID, "username", u.Username)
	return u, nil
}

// Verify checks a username/password pair. Unknown users fail with ErrNotFound, wrong
// passwords with ErrInvalidCredentials.
func (s *AuthService) Verify(ctx context.Context, username, password string) (*models.User, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, validationError("username and password are required")
	}
	u, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, storeError("find user", err)
	}
	if !utils.CheckPassword(u.PasswordHash, password) {
		return nil, ErrInvalidCredentials
	}
	return u, nil
}

// FindByID returns the account or ErrNotFound.
func (s *AuthService) FindByID(ctx context.Context, id string) (*models.User, error) {
	u, err := s.users.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, storeError("find user", err)
	}
	return u, nil
}

// Login verifies credentials and issues a session token.
func (s *AuthService) Login(ctx context.Context, username, password string) (*Session, error) {
	u, err := s.Verify(ctx, username, password)
	if err != nil {
		return nil, err
	}
	return s.IssueSession(u)
}

// IssueSession signs a token for u.
func (s *AuthService) IssueSession(u *models.User) (*Session, error) {
	token, exp, err := s.codec.Issue(u.ID, u.Username)
	if err != nil {
		return nil, err
	}
	return &Session{User: u, Token: token, ExpiresAt: exp}, nil
}

// Logout revokes token until its natural expiry. Invalid or empty tokens are ignored:
// logging out always succeeds.
func (s *AuthService) Logout(token string) {
	if token == "" {
		return
	}
	claims, err := s.codec.Verify(token)
	if err != nil {
		return
	}
	s.blacklist.Revoke(token, claims.ExpiresAt.Time)
}
