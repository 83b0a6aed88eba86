// Package auth issues operator API tokens and authorizes them with casbin.
package auth

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/bher20/costcalc/internal/storage"
	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
	"github.com/google/uuid"
)

// Roles a token can carry.
const (
	RoleAdmin  = "admin"
	RoleViewer = "viewer"
)

// Objects and actions checked by the API.
const (
	ObjectDataset = "dataset"
	ObjectTokens  = "tokens"
	ActionRead    = "read"
	ActionWrite   = "write"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")
	ErrUnknownRole  = errors.New("unknown role")
)

const rbacModel = `
[request_definition]
r = sub, obj, act

[policy_definition]
p = sub, obj, act

[role_definition]
g = _, _

[policy_effect]
e = some(where (p.eft == allow))

[matchers]
m = g(r.sub, p.sub) && (r.obj == p.obj || p.obj == "*") && (r.act == p.act || p.act == "*")
`

type Service struct {
	storage  storage.Storage
	enforcer *casbin.Enforcer
}

// NewService loads the stored policy and seeds the default one when the
// store has none.
func NewService(s storage.Storage) (*Service, error) {
	m, err := model.NewModelFromString(rbacModel)
	if err != nil {
		return nil, err
	}

	e, err := casbin.NewEnforcer(m, NewAdapter(s))
	if err != nil {
		return nil, fmt.Errorf("auth: casbin enforcer: %w", err)
	}

	policies, err := e.GetPolicy()
	if err != nil {
		return nil, err
	}
	if len(policies) == 0 {
		log.Printf("auth: seeding default policy")
		// Admin can do everything
		if _, err := e.AddPolicy(RoleAdmin, "*", "*"); err != nil {
			return nil, err
		}
		// Viewer can only read the dataset summary
		if _, err := e.AddPolicy(RoleViewer, ObjectDataset, ActionRead); err != nil {
			return nil, err
		}
	}

	return &Service{storage: s, enforcer: e}, nil
}

// ValidRole reports whether role is known to the policy.
func ValidRole(role string) bool {
	return role == RoleAdmin || role == RoleViewer
}

// HashToken is the stored form of a raw token.
func HashToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}

// CreateToken mints a token. The raw value is returned once and only its
// hash is stored.
func (s *Service) CreateToken(ctx context.Context, name, role string, expiresAt *time.Time) (*storage.Token, string, error) {
	if !ValidRole(role) {
		return nil, "", fmt.Errorf("%w: %q", ErrUnknownRole, role)
	}
	rawToken := uuid.New().String() + uuid.New().String()
	t, err := s.storeToken(ctx, name, role, rawToken, expiresAt)
	if err != nil {
		return nil, "", err
	}
	return t, rawToken, nil
}

// EnsureToken stores a caller-provided admin token unless its hash is
// already known. It is used for the configured bootstrap token.
func (s *Service) EnsureToken(ctx context.Context, name, role, rawToken string) error {
	if rawToken == "" {
		return nil
	}
	existing, err := s.storage.GetTokenByHash(ctx, HashToken(rawToken))
	if err != nil {
		return err
	}
	if existing != nil {
		return nil
	}
	_, err = s.storeToken(ctx, name, role, rawToken, nil)
	return err
}

func (s *Service) storeToken(ctx context.Context, name, role, rawToken string, expiresAt *time.Time) (*storage.Token, error) {
	t := storage.Token{
		ID:        uuid.New().String(),
		Name:      name,
		TokenHash: HashToken(rawToken),
		Role:      role,
		CreatedAt: time.Now(),
		ExpiresAt: expiresAt,
	}
	if err := s.storage.CreateToken(ctx, t); err != nil {
		return nil, err
	}
	return &t, nil
}

func (s *Service) ValidateToken(ctx context.Context, rawToken string) (*storage.Token, error) {
	t, err := s.storage.GetTokenByHash(ctx, HashToken(rawToken))
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, ErrInvalidToken
	}

	if t.ExpiresAt != nil && t.ExpiresAt.Before(time.Now()) {
		return nil, ErrTokenExpired
	}

	if err := s.storage.UpdateTokenLastUsed(ctx, t.ID); err != nil {
		log.Printf("auth: update last used for token %s: %v", t.ID, err)
	}
	return t, nil
}

func (s *Service) Enforce(sub, obj, act string) (bool, error) {
	return s.enforcer.Enforce(sub, obj, act)
}
