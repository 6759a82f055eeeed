package usecases

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/mahi13singh2004/AIKYAM/internal/core/domain"
	"github.com/mahi13singh2004/AIKYAM/internal/core/ports"
)

const passwordCost = 10

// Session is an authenticated user together with a freshly issued token.
type Session struct {
	Token     string         `json:"token"`
	ExpiresAt time.Time      `json:"expires_at"`
	User      domain.Profile `json:"user"`
}

// AuthService handles signup, login and token checks. Email and password hash
// live in a pinned credentials record; the database only keeps its CID and the
// email hash.
type AuthService struct {
	users  ports.UserRepository
	store  ports.ContentStore
	tokens ports.TokenIssuer
}

// NewAuthService creates a new AuthService.
func NewAuthService(users ports.UserRepository, store ports.ContentStore, tokens ports.TokenIssuer) *AuthService {
	return &AuthService{users: users, store: store, tokens: tokens}
}

// HashEmail returns the lookup hash of an email address.
func HashEmail(email string) string {
	sum := sha256.Sum256([]byte(strings.ToLower(strings.TrimSpace(email))))
	return hex.EncodeToString(sum[:])
}

// Signup creates an account and returns a session for it.
func (s *AuthService) Signup(ctx context.Context, username, email, password string) (*Session, error) {
	username = strings.TrimSpace(username)
	email = strings.TrimSpace(email)
	if username == "" || email == "" || password == "" {
		return nil, domain.ErrMissingFields
	}

	emailHash := HashEmail(email)
	exists, err := s.users.Exists(ctx, username, emailHash)
	if err != nil {
		return nil, fmt.Errorf("check user: %w", err)
	}
	if exists {
		return nil, domain.ErrUserExists
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), passwordCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	cid, err := s.store.PinJSON(ctx, "user-"+emailHash[:12], domain.Credentials{Email: email, PasswordHash: string(hash)})
	if err != nil {
		return nil, fmt.Errorf("pin credentials: %w", err)
	}

	u := &domain.User{Username: username, EmailHash: emailHash, IPFSHash: cid}
	if err := s.users.Create(ctx, u); err != nil {
		// Orphaned pin; nothing references it.
		_ = s.store.Unpin(context.WithoutCancel(ctx), cid)
		if errors.Is(err, domain.ErrUserExists) {
			return nil, err
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	return s.session(u, email)
}

// Login verifies the password for email and returns a new session.
func (s *AuthService) Login(ctx context.Context, email, password string) (*Session, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, domain.ErrMissingFields
	}

	u, err := s.users.FindByEmailHash(ctx, HashEmail(email))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) || errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}

	creds, err := s.credentials(ctx, u)
	if err != nil {
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(creds.PasswordHash), []byte(password)); err != nil {
		return nil, domain.ErrInvalidPassword
	}

	return s.session(u, creds.Email)
}

// Authenticate resolves a token to the user profile.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*domain.Profile, error) {
	if token == "" {
		return nil, domain.ErrInvalidToken
	}
	userID, err := s.tokens.Parse(token)
	if err != nil {
		return nil, domain.ErrInvalidToken
	}

	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) || errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}

	creds, err := s.credentials(ctx, u)
	if err != nil {
		return nil, err
	}
	return &domain.Profile{ID: u.ID, Username: u.Username, Email: creds.Email}, nil
}

func (s *AuthService) credentials(ctx context.Context, u *domain.User) (*domain.Credentials, error) {
	var creds domain.Credentials
	if err := s.store.FetchJSON(ctx, u.IPFSHash, &creds); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrCredentialsUnavailable, err)
	}
	return &creds, nil
}

func (s *AuthService) session(u *domain.User, email string) (*Session, error) {
	token, exp, err := s.tokens.Issue(u.ID)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}
	return &Session{
		Token:     token,
		ExpiresAt: exp,
		User:      domain.Profile{ID: u.ID, Username: u.Username, Email: email},
	}, nil
}
