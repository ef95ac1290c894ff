package auth

import (
	"errors"
	"slices"
	"time"

	"github.com/b2bshop/backend/internal/infrastructure/config"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Role is the caller's role as asserted by the identity service
type Role string

const (
	RoleCustomer Role = "customer"
	RoleAdmin    Role = "admin"
)

// IsValid reports whether r is a known role
func (r Role) IsValid() bool {
	return r == RoleCustomer || r == RoleAdmin
}

var (
	ErrInvalidToken     = errors.New("invalid token")
	ErrExpiredToken     = errors.New("token has expired")
	ErrTokenNotYetValid = errors.New("token is not yet valid")
	ErrInvalidClaims    = errors.New("invalid token claims")
	ErrMissingSubject   = errors.New("missing subject in claims")
	ErrUnknownRole      = errors.New("unknown role in claims")
)

// Claims are the token claims issued by the identity service.
// For customers the subject is the customer id.
type Claims struct {
	jwt.RegisteredClaims
	Role Role   `json:"role"`
	Name string `json:"name,omitempty"`
}

// Principal is the authenticated caller handed to every cart and order operation
type Principal struct {
	ID   uuid.UUID
	Role Role
	Name string
}

// IsAdmin reports whether the principal may use admin endpoints
func (p Principal) IsAdmin() bool { return p.Role == RoleAdmin }

// JWTService validates HS256 bearer tokens. Issuing belongs to the identity
// service; IssueToken exists for tooling and tests sharing the secret.
type JWTService struct {
	secret []byte
	issuer string
	leeway time.Duration
	now    func() time.Time
}

// NewJWTService creates a new JWT service
func NewJWTService(cfg config.JWTConfig) *JWTService {
	return &JWTService{
		secret: []byte(cfg.Secret),
		issuer: cfg.Issuer,
		leeway: 30 * time.Second,
		now:    time.Now,
	}
}

// Validate parses a token and returns the principal it authenticates
func (s *JWTService) Validate(tokenString string) (Principal, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithLeeway(s.leeway),
		jwt.WithTimeFunc(s.now),
		jwt.WithExpirationRequired(),
	}
	if s.issuer != "" {
		opts = append(opts, jwt.WithIssuer(s.issuer))
	}

	claims := &Claims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(*jwt.Token) (any, error) {
		return s.secret, nil
	}, opts...)
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return Principal{}, ErrExpiredToken
	case errors.Is(err, jwt.ErrTokenNotValidYet):
		return Principal{}, ErrTokenNotYetValid
	case err != nil:
		return Principal{}, ErrInvalidToken
	}

	return claims.principal()
}

func (c *Claims) principal() (Principal, error) {
	if c.Subject == "" {
		return Principal{}, ErrMissingSubject
	}
	id, err := uuid.Parse(c.Subject)
	if err != nil {
		return Principal{}, ErrInvalidClaims
	}
	if !c.Role.IsValid() {
		return Principal{}, ErrUnknownRole
	}
	return Principal{ID: id, Role: c.Role, Name: c.Name}, nil
}

// IssueToken signs a token for p that expires after ttl
func (s *JWTService) IssueToken(p Principal, ttl time.Duration) (string, error) {
	now := s.now()
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    s.issuer,
			Subject:   p.ID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		Role: p.Role,
		Name: p.Name,
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

// HasRole reports whether p holds one of roles
func (p Principal) HasRole(roles ...Role) bool {
	return slices.Contains(roles, p.Role)
}
