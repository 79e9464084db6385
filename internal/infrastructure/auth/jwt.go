// Package auth validates the bearer tokens presented to the API and turns
// them into domain principals.
package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/retailops/backend/internal/domain/shared"
	"github.com/retailops/backend/internal/infrastructure/config"
)

var (
	ErrInvalidToken     = errors.New("invalid token")
	ErrExpiredToken     = errors.New("token has expired")
	ErrTokenNotYetValid = errors.New("token is not yet valid")
	ErrInvalidClaims    = errors.New("invalid token claims")
)

// Claims are the token claims this service understands. Role and PartyID
// select the principal's owner scope; Subject is the user id.
type Claims struct {
	jwt.RegisteredClaims
	Role    string `json:"role"`
	PartyID string `json:"party_id"`
}

// JWTService validates HS256 access tokens. Tokens are normally minted by the
// identity service; IssueAccessToken exists for local tooling and tests.
type JWTService struct {
	secret     []byte
	issuer     string
	expiration time.Duration
	now        func() time.Time
}

// NewJWTService creates a new JWTService
func NewJWTService(cfg config.JWTConfig) *JWTService {
	return &JWTService{
		secret:     []byte(cfg.Secret),
		issuer:     cfg.Issuer,
		expiration: cfg.AccessTokenExpiration,
		now:        time.Now,
	}
}

// IssueAccessToken signs a token for the given principal.
func (s *JWTService) IssueAccessToken(p shared.Principal) (string, time.Time, error) {
	if p.Role == nil || p.UserID == uuid.Nil {
		return "", time.Time{}, ErrInvalidClaims
	}
	now := s.now()
	expiresAt := now.Add(s.expiration)
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    s.issuer,
			Subject:   p.UserID.String(),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			NotBefore: jwt.NewNumericDate(now),
			IssuedAt:  jwt.NewNumericDate(now),
		},
		Role:    p.Role.Name(),
		PartyID: p.Owner().ID.String(),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

// Authenticate validates tokenString and returns the principal it names.
func (s *JWTService) Authenticate(tokenString string) (shared.Principal, error) {
	claims, err := s.ValidateAccessToken(tokenString)
	if err != nil {
		return shared.Principal{}, err
	}
	return claims.Principal()
}

// ValidateAccessToken checks signature, issuer and time claims.
func (s *JWTService) ValidateAccessToken(tokenString string) (*Claims, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
		jwt.WithExpirationRequired(),
	}
	if s.issuer != "" {
		opts = append(opts, jwt.WithIssuer(s.issuer))
	}

	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(*jwt.Token) (any, error) {
		return s.secret, nil
	}, opts...)
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, ErrExpiredToken
		case errors.Is(err, jwt.ErrTokenNotValidYet):
			return nil, ErrTokenNotYetValid
		default:
			return nil, ErrInvalidToken
		}
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidClaims
	}
	return claims, nil
}

// Principal maps the claims onto a domain principal.
func (c *Claims) Principal() (shared.Principal, error) {
	userID, err := uuid.Parse(c.Subject)
	if err != nil {
		return shared.Principal{}, ErrInvalidClaims
	}
	partyID, err := uuid.Parse(c.PartyID)
	if err != nil {
		return shared.Principal{}, ErrInvalidClaims
	}
	role, err := shared.ParseRole(c.Role, partyID)
	if err != nil {
		return shared.Principal{}, ErrInvalidClaims
	}
	return shared.NewPrincipal(userID, role), nil
}
