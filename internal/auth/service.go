// Package auth issues and verifies the JWTs that guard the admin API.
package auth

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"

	"github.com/streavmin/streavmin/internal/users"
)

// TokenExpiry mirrors the eight-hour admin session lifetime.
const TokenExpiry = 8 * time.Hour

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token has expired")
)

// Claims represents JWT claims for an authenticated user.
type Claims struct {
	Username string `json:"username"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

// Service handles login and token verification.
type Service struct {
	users     *users.Service
	jwtSecret []byte
	logger    zerolog.Logger
}

// NewService creates a new auth service. An empty secret is replaced with
// a random one, which invalidates outstanding tokens across restarts.
func NewService(usersService *users.Service, jwtSecret string, logger zerolog.Logger) (*Service, error) {
	secret := []byte(jwtSecret)
	if len(secret) == 0 {
		secret = make([]byte, 32)
		if _, err := rand.Read(secret); err != nil {
			return nil, fmt.Errorf("failed to generate JWT secret: %w", err)
		}
	}
	return &Service{
		users:     usersService,
		jwtSecret: secret,
		logger:    logger.With().Str("component", "auth").Logger(),
	}, nil
}

// Login authenticates the credentials and returns a signed token plus the
// sanitized user record.
func (s *Service) Login(ctx context.Context, username, password string) (string, *users.User, error) {
	user, err := s.users.Authenticate(ctx, username, password)
	if err != nil {
		return "", nil, err
	}

	token, err := s.generateToken(user)
	if err != nil {
		return "", nil, err
	}

	s.logger.Info().Str("username", username).Msg("user logged in")
	return token, user.Sanitized(), nil
}

func (s *Service) generateToken(user *users.User) (string, error) {
	now := time.Now()
	claims := &Claims{
		Username: user.Username,
		Role:     user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(TokenExpiry)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// ParseToken verifies a token string and returns its claims.
func (s *Service) ParseToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
