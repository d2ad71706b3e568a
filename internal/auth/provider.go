package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/casdoor/casdoor-go-sdk/casdoorsdk"
)

var (
	ErrNoToken      = errors.New("no access token available")
	ErrInvalidToken = errors.New("invalid or expired access token")
)

// Identity is the authenticated student identity every agent request is made
// on behalf of: a stable student identifier plus the bearer token proving it.
type Identity struct {
	StudentID string
	Name      string
	Token     string
}

// Provider supplies the identity for outbound agent calls. Token acquisition
// is fallible and must succeed before any agent request is issued.
type Provider interface {
	Identity(ctx context.Context) (Identity, error)
}

// Verifier validates inbound bearer tokens and resolves them to identities.
type Verifier interface {
	Verify(ctx context.Context, token string) (Identity, error)
}

// ===== CASDOOR =====

// CasdoorConfig carries the casdoor application settings.
type CasdoorConfig struct {
	Endpoint     string
	ClientID     string
	ClientSecret string
	Certificate  string
	Organization string
	Application  string
}

// CasdoorVerifier verifies JWT access tokens issued by a casdoor instance.
type CasdoorVerifier struct {
	client *casdoorsdk.Client
}

func NewCasdoorVerifier(cfg CasdoorConfig) *CasdoorVerifier {
	return &CasdoorVerifier{
		client: casdoorsdk.NewClient(
			cfg.Endpoint,
			cfg.ClientID,
			cfg.ClientSecret,
			cfg.Certificate,
			cfg.Organization,
			cfg.Application,
		),
	}
}

func (v *CasdoorVerifier) Verify(_ context.Context, token string) (Identity, error) {
	if token == "" {
		return Identity{}, ErrNoToken
	}
	claims, err := v.client.ParseJwtToken(token)
	if err != nil {
		return Identity{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	return Identity{
		StudentID: claims.User.Id,
		Name:      claims.User.Name,
		Token:     token,
	}, nil
}

// ===== STATIC =====

// StaticProvider returns a fixed identity. Used in development mode and in
// tests; it satisfies both Provider and Verifier.
type StaticProvider struct {
	ID Identity
}

func NewStaticProvider(studentID, token string) *StaticProvider {
	return &StaticProvider{ID: Identity{StudentID: studentID, Token: token}}
}

func (p *StaticProvider) Identity(_ context.Context) (Identity, error) {
	if p.ID.Token == "" {
		return Identity{}, ErrNoToken
	}
	return p.ID, nil
}

func (p *StaticProvider) Verify(_ context.Context, token string) (Identity, error) {
	if token == "" {
		return Identity{}, ErrNoToken
	}
	id := p.ID
	id.Token = token
	return id, nil
}
