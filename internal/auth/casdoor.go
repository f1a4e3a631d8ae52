package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/SAP-F-2025/learning-service/internal/config"
	"github.com/SAP-F-2025/learning-service/internal/models"
	"github.com/casdoor/casdoor-go-sdk/casdoorsdk"
)

func NewCasdoorClient(cfg config.CasdoorConfig) (*casdoorsdk.Client, error) {
	if !cfg.Enabled() {
		return nil, errors.New("casdoor endpoint and certificate must be configured")
	}
	return casdoorsdk.NewClient(
		cfg.Endpoint,
		cfg.ClientID,
		cfg.ClientSecret,
		cfg.Certificate,
		cfg.OrganizationName,
		cfg.ApplicationName,
	), nil
}

// CasdoorVerifier validates tokens issued by Casdoor against its certificate.
type CasdoorVerifier struct {
	client *casdoorsdk.Client
}

func NewCasdoorVerifier(client *casdoorsdk.Client) *CasdoorVerifier {
	return &CasdoorVerifier{client: client}
}

func (v *CasdoorVerifier) Verify(ctx context.Context, token string) (*Claims, error) {
	claims, err := v.client.ParseJwtToken(token)
	if err != nil {
		return nil, err
	}

	name := claims.User.DisplayName
	if name == "" {
		name = claims.User.Name
	}
	subject := claims.User.Id
	if subject == "" {
		subject = claims.RegisteredClaims.Subject
	}
	return &Claims{Subject: subject, Email: claims.User.Email, Name: name}, nil
}

// UserProvisioner creates the login account of a new user.
type UserProvisioner interface {
	Provision(ctx context.Context, user *models.User, password string) error
}

type CasdoorProvisioner struct {
	client       *casdoorsdk.Client
	organization string
}

func NewCasdoorProvisioner(client *casdoorsdk.Client, organization string) *CasdoorProvisioner {
	return &CasdoorProvisioner{client: client, organization: organization}
}

func (p *CasdoorProvisioner) Provision(ctx context.Context, user *models.User, password string) error {
	ok, err := p.client.AddUser(&casdoorsdk.User{
		Owner:       p.organization,
		Name:        user.EmailKey,
		Email:       user.Email,
		DisplayName: user.Name,
		Password:    password,
		Type:        "normal-user",
	})
	if err != nil {
		return fmt.Errorf("failed to provision user %s: %w", user.Email, err)
	}
	if !ok {
		return fmt.Errorf("identity provider rejected user %s", user.Email)
	}
	return nil
}
