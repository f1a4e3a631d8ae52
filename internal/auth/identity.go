package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/SAP-F-2025/learning-service/internal/models"
	"github.com/SAP-F-2025/learning-service/internal/repositories"
)

var (
	ErrMissingToken = errors.New("missing bearer token")
	ErrInvalidToken = errors.New("invalid or expired token")
)

const defaultDisplayName = "User"

// Identity is the authenticated caller of a request.
type Identity struct {
	UserID string          `json:"user_id"`
	Email  string          `json:"email"`
	Name   string          `json:"name"`
	Role   models.UserRole `json:"role"`
}

func (i Identity) IsAdmin() bool {
	return i.Role.IsAdmin()
}

func (i Identity) IsSuperAdmin() bool {
	return i.Role == models.RoleSuperAdmin
}

func (i Identity) EmailKey() string {
	return models.EmailKey(i.Email)
}

// Claims are the token fields the service relies on.
type Claims struct {
	Subject string
	Email   string
	Name    string
}

// TokenVerifier checks a raw bearer token and returns its claims.
type TokenVerifier interface {
	Verify(ctx context.Context, token string) (*Claims, error)
}

// UserLookup is the slice of the user repository the resolver needs.
type UserLookup interface {
	GetByEmailKey(ctx context.Context, emailKey string) (*models.User, error)
}

// Resolver turns bearer tokens into identities. Role and display name come
// from the user record; callers without a record are plain users.
type Resolver struct {
	verifier TokenVerifier
	users    UserLookup
}

func NewResolver(verifier TokenVerifier, users UserLookup) *Resolver {
	return &Resolver{verifier: verifier, users: users}
}

func (r *Resolver) Resolve(ctx context.Context, token string) (*Identity, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, ErrMissingToken
	}

	claims, err := r.verifier.Verify(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	if claims.Email == "" {
		return nil, fmt.Errorf("%w: token has no email", ErrInvalidToken)
	}

	identity := &Identity{
		UserID: claims.Subject,
		Email:  claims.Email,
		Name:   claims.Name,
		Role:   models.RoleUser,
	}
	if identity.UserID == "" {
		identity.UserID = identity.EmailKey()
	}

	user, err := r.users.GetByEmailKey(ctx, identity.EmailKey())
	switch {
	case err == nil:
		identity.Role = user.Role
		if user.Name != "" {
			identity.Name = user.Name
		}
	case !repositories.IsNotFound(err):
		return nil, fmt.Errorf("failed to load user record: %w", err)
	}

	if identity.Name == "" {
		identity.Name = defaultDisplayName
	}
	return identity, nil
}

// BearerToken extracts the token from an Authorization header value.
func BearerToken(header string) string {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}
