package auth

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrLoginDisabled      = errors.New("admin login is not configured")
	ErrInvalidToken       = errors.New("invalid token")
)

// AdminSubject is the token subject issued to the map administrator.
const AdminSubject = "admin"

// ScopeMapsWrite allows storing and deleting region maps.
const ScopeMapsWrite = "maps:write"

const tokenTTL = 24 * time.Hour

// Service issues and validates the tokens that guard map uploads. There is
// a single administrator whose bcrypt password hash comes from config.
type Service struct {
	jwtSecret []byte
	adminHash []byte
	now       func() time.Time
}

func NewService(jwtSecret, adminPasswordHash string) *Service {
	return &Service{
		jwtSecret: []byte(jwtSecret),
		adminHash: []byte(adminPasswordHash),
		now:       time.Now,
	}
}

type AuthResult struct {
	Token     string    `json:"token"`
	Subject   string    `json:"subject"`
	Scope     string    `json:"scope"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Claims is the payload of a map administration token. Scope is a space
// separated list, as in OAuth.
type Claims struct {
	jwt.RegisteredClaims
	Scope string `json:"scope,omitempty"`
}

// HasScope reports whether the token grants scope.
func (c *Claims) HasScope(scope string) bool {
	return slices.Contains(strings.Fields(c.Scope), scope)
}

// HashPassword returns a bcrypt hash suitable for ADMIN_PASSWORD_HASH.
func HashPassword(password string, cost int) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

func (s *Service) Login(password string) (*AuthResult, error) {
	if len(s.adminHash) == 0 {
		return nil, ErrLoginDisabled
	}

	if err := bcrypt.CompareHashAndPassword(s.adminHash, []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	return s.issueToken(AdminSubject, ScopeMapsWrite)
}

// ValidateToken checks the signature and expiry of tokenString and returns
// its claims.
func (s *Service) ValidateToken(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.jwtSecret, nil
	}, jwt.WithTimeFunc(s.now), jwt.WithExpirationRequired())
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	if !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}
	return claims, nil
}

func (s *Service) issueToken(subject string, scopes ...string) (*AuthResult, error) {
	now := s.now()
	expires := now.Add(tokenTTL)
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
		Scope: strings.Join(scopes, " "),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return nil, fmt.Errorf("sign token: %w", err)
	}

	return &AuthResult{
		Token:     signed,
		Subject:   subject,
		Scope:     claims.Scope,
		ExpiresAt: claims.ExpiresAt.UTC(),
	}, nil
}
