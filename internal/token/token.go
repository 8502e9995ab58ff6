// Package token issues and verifies the bearer tokens that gate every
// entry point of the billing engine.
package token

import (
	"errors"
	"strings"
	"time"

	"github.com/frontdesk/platform/internal/config"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Purpose distinguishes access tokens from refresh tokens. Only access
// tokens authorize API calls.
type Purpose string

const (
	PurposeAccess  Purpose = "access"
	PurposeRefresh Purpose = "refresh"
)

// Roles carried in the role claim. RoleOwner is the scoped administrative
// capability allowed to act across tenant boundaries; it is issued through
// the normal token path like any other claim.
const (
	RoleOwner  = "owner"
	RoleMember = "member"
)

var (
	ErrSessionExpired = errors.New("session_expired")
	ErrTokenInvalid   = errors.New("authentication_tampered_or_invalid")
	ErrWrongPurpose   = errors.New("wrong_token_purpose")
	ErrMissingSecret  = errors.New("jwt_secret_not_configured")
)

// Claims are the verified assertions carried by a bearer token.
type Claims struct {
	jwt.RegisteredClaims
	TenantID string  `json:"tenant_id"`
	Role     string  `json:"role"`
	Tier     string  `json:"tier,omitempty"`
	Purpose  Purpose `json:"purpose"`
}

func (c *Claims) IsOwner() bool {
	return c != nil && c.Role == RoleOwner
}

// TokenPair bundles an access token with its refresh token.
type TokenPair struct {
	AccessToken           string    `json:"access_token"`
	RefreshToken          string    `json:"refresh_token"`
	AccessTokenExpiresAt  time.Time `json:"access_token_expires_at"`
	RefreshTokenExpiresAt time.Time `json:"refresh_token_expires_at"`
}

// IssueInput carries the identity figures minted into a token pair.
type IssueInput struct {
	Subject  string
	TenantID string
	Role     string
	Tier     string
}

type Service struct {
	secret     []byte
	issuer     string
	accessTTL  time.Duration
	refreshTTL time.Duration
}

func NewService(cfg config.Config) (*Service, error) {
	if strings.TrimSpace(cfg.AuthJWTSecret) == "" {
		return nil, ErrMissingSecret
	}
	return &Service{
		secret:     []byte(cfg.AuthJWTSecret),
		issuer:     cfg.AuthIssuer,
		accessTTL:  cfg.AccessTokenTTL,
		refreshTTL: cfg.RefreshTokenTTL,
	}, nil
}

// Verify parses and validates a bearer token for API use. Expired tokens
// surface ErrSessionExpired; any signature or structure failure surfaces
// ErrTokenInvalid. Non-access tokens are rejected with ErrWrongPurpose.
func (s *Service) Verify(raw string) (*Claims, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrTokenInvalid
		}
		return s.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrSessionExpired
		}
		return nil, ErrTokenInvalid
	}
	if !parsed.Valid {
		return nil, ErrTokenInvalid
	}
	if claims.Purpose != PurposeAccess {
		return nil, ErrWrongPurpose
	}
	return claims, nil
}

// Decode parses a token WITHOUT verifying the signature. It exists for
// non-authoritative UI pre-population only and must never be used to
// authorize a privileged action.
func (s *Service) Decode(raw string) *Claims {
	claims := &Claims{}
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(raw, claims); err != nil {
		return nil
	}
	return claims
}

// IssuePair mints an access/refresh token pair for the given identity.
func (s *Service) IssuePair(input IssueInput) (*TokenPair, error) {
	now := time.Now().UTC()
	jti := uuid.NewString()

	accessExpiry := now.Add(s.accessTTL)
	access, err := s.sign(input, jti, now, accessExpiry, PurposeAccess)
	if err != nil {
		return nil, err
	}

	refreshExpiry := now.Add(s.refreshTTL)
	refresh, err := s.sign(input, jti, now, refreshExpiry, PurposeRefresh)
	if err != nil {
		return nil, err
	}

	return &TokenPair{
		AccessToken:           access,
		RefreshToken:          refresh,
		AccessTokenExpiresAt:  accessExpiry,
		RefreshTokenExpiresAt: refreshExpiry,
	}, nil
}

// Refresh exchanges a valid refresh token for a new pair.
func (s *Service) Refresh(raw string) (*TokenPair, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrTokenInvalid
		}
		return s.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrSessionExpired
		}
		return nil, ErrTokenInvalid
	}
	if !parsed.Valid {
		return nil, ErrTokenInvalid
	}
	if claims.Purpose != PurposeRefresh {
		return nil, ErrWrongPurpose
	}
	return s.IssuePair(IssueInput{
		Subject:  claims.Subject,
		TenantID: claims.TenantID,
		Role:     claims.Role,
		Tier:     claims.Tier,
	})
}

func (s *Service) sign(input IssueInput, jti string, now, expiry time.Time, purpose Purpose) (string, error) {
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        jti,
			Issuer:    s.issuer,
			Subject:   input.Subject,
			ExpiresAt: jwt.NewNumericDate(expiry),
			NotBefore: jwt.NewNumericDate(now),
			IssuedAt:  jwt.NewNumericDate(now),
		},
		TenantID: input.TenantID,
		Role:     input.Role,
		Tier:     input.Tier,
		Purpose:  purpose,
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}
