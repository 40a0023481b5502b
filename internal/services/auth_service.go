package services

import (
	"context"
	"errors"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"github.com/markdave123-py/docflow/internal/core"
	"github.com/markdave123-py/docflow/internal/models"
)

const (
	minPasswordLen = 6
	// bcrypt rejects inputs longer than 72 bytes.
	maxPasswordLen = 72
	BcryptCost     = 10
)

type AuthService struct {
	users  *UserService
	tokens core.TokenIssuer
	log    logrus.FieldLogger
}

func NewAuthService(users *UserService, tokens core.TokenIssuer, log logrus.FieldLogger) *AuthService {
	return &AuthService{users: users, tokens: tokens, log: log}
}

type RegisterInput struct {
	Email    string
	Password string
	Role     string // optional; VIEWER when empty
}

type AuthResult struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

// Register creates the account or, when the email is already registered,
// logs into it. The stored role is never changed by a repeat registration.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*AuthResult, error) {
	email, err := normalizeEmail(in.Email)
	if err != nil {
		return nil, err
	}
	if err := validatePassword(in.Password); err != nil {
		return nil, err
	}
	role := models.RoleViewer
	if in.Role != "" {
		if role, err = models.ParseRole(in.Role); err != nil {
			return nil, core.Validation("role must be one of ADMIN, EDITOR, VIEWER")
		}
	}

	existing, err := s.users.GetByEmail(ctx, email)
	if err != nil && !errors.Is(err, core.ErrNotFound) {
		return nil, err
	}
	if existing != nil {
		return s.login(existing, in.Password)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), BcryptCost)
	if err != nil {
		return nil, core.Validation("password cannot be hashed")
	}
	now := time.Now().UTC()
	stored, created, err := s.users.Upsert(ctx, &models.User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: string(hash),
		Role:         role,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		return nil, err
	}
	if !created {
		// Lost a race with another registration of the same email.
		return s.login(stored, in.Password)
	}

	s.log.WithFields(logrus.Fields{"user_id": stored.ID, "role": stored.Role}).Info("user registered")
	return s.issue(stored)
}

func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	u, err := s.users.GetByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		return nil, err
	}
	return s.login(u, password)
}

func (s *AuthService) login(u *models.User, password string) (*AuthResult, error) {
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return nil, core.Unauthorized("Invalid credentials")
	}
	return s.issue(u)
}

func (s *AuthService) issue(u *models.User) (*AuthResult, error) {
	tok, err := s.tokens.Issue(models.Identity{UserID: u.ID, Email: u.Email, Role: u.Role})
	if err != nil {
		return nil, core.Dependency("Failed to issue token", err)
	}
	return &AuthResult{Token: tok, User: u}, nil
}

func normalizeEmail(raw string) (string, error) {
	email := strings.TrimSpace(raw)
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", core.Validation("email must be a valid address")
	}
	return email, nil
}

func validatePassword(p string) error {
	if len(p) < minPasswordLen {
		return core.Validation("password must be at least %d characters", minPasswordLen)
	}
	if len(p) > maxPasswordLen {
		return core.Validation("password must be at most %d bytes", maxPasswordLen)
	}
	return nil
}
