package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/you/nosmoke/internal/domain"
	"github.com/you/nosmoke/internal/repository"
	"github.com/you/nosmoke/pkg/auth"
)

type AuthSvc struct {
	repo   *repository.UserRepo
	signer *auth.Signer
}

func NewAuthSvc(r *repository.UserRepo, signer *auth.Signer) *AuthSvc {
	return &AuthSvc{repo: r, signer: signer}
}

type Tokens struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// Register creates an account. Only smoker and coach roles can self-register.
func (s *AuthSvc) Register(ctx context.Context, email, password, name, role string) (*domain.User, error) {
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, domain.Invalidf("email is invalid")
	}
	if len(password) < 6 {
		return nil, domain.Invalidf("password must be at least 6 characters")
	}
	r := domain.Role(strings.ToLower(strings.TrimSpace(role)))
	if r == "" {
		r = domain.RoleSmoker
	}
	if r != domain.RoleSmoker && r != domain.RoleCoach {
		return nil, domain.Invalidf("role must be smoker or coach")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	u := &domain.User{
		Email:          email,
		PasswordHash:   string(hash),
		Name:           strings.TrimSpace(name),
		Role:           r,
		MembershipTier: domain.TierFree,
		Active:         true,
	}
	if err := s.repo.Create(ctx, u); err != nil {
		if errors.Is(err, domain.ErrConflict) {
			return nil, fmt.Errorf("%w: email already registered", domain.ErrConflict)
		}
		return nil, err
	}
	return u, nil
}

func (s *AuthSvc) Login(ctx context.Context, email, password string) (*domain.User, Tokens, error) {
	u, err := s.repo.ByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, Tokens{}, domain.ErrUnauthorized
		}
		return nil, Tokens{}, err
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return nil, Tokens{}, domain.ErrUnauthorized
	}
	if !u.Active {
		return nil, Tokens{}, domain.Forbiddenf("account is disabled")
	}
	access, err := s.signer.CreateAccessToken(u.ID, string(u.Role), u.Email)
	if err != nil {
		return nil, Tokens{}, err
	}
	refresh, err := s.signer.CreateRefreshToken(u.ID, string(u.Role), u.Email)
	if err != nil {
		return nil, Tokens{}, err
	}
	return u, Tokens{AccessToken: access, RefreshToken: refresh}, nil
}

func (s *AuthSvc) Me(ctx context.Context, id string) (*domain.User, error) {
	return s.repo.ByID(ctx, id)
}

// EnsureAdmin creates the admin account if no user holds that email yet.
// It reports whether an account was created.
func (s *AuthSvc) EnsureAdmin(ctx context.Context, email, password string) (bool, error) {
	if _, err := s.repo.ByEmail(ctx, email); err == nil {
		return false, nil
	} else if !errors.Is(err, domain.ErrNotFound) {
		return false, err
	}
	if len(password) < 6 {
		return false, domain.Invalidf("admin password must be at least 6 characters")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return false, err
	}
	u := &domain.User{
		Email:          email,
		PasswordHash:   string(hash),
		Name:           "Administrator",
		Role:           domain.RoleAdmin,
		MembershipTier: domain.TierFree,
		Active:         true,
	}
	if err := s.repo.Create(ctx, u); err != nil {
		return false, err
	}
	return true, nil
}

// UpdateMe changes the caller's display name.
func (s *AuthSvc) UpdateMe(ctx context.Context, id, name string) (*domain.User, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, domain.Invalidf("name is required")
	}
	return s.repo.UpdateFields(ctx, id, map[string]any{"name": name})
}
