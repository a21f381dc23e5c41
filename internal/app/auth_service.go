package app

import (
	"errors"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"portfolio-backend/internal/pkg/jwtutil"
)

var ErrInvalidCredential = errors.New("invalid username or password")

// AuthService authenticates the single site admin against configured
// credentials and issues JWTs for the catalog mutation endpoints.
type AuthService struct {
	adminUsername     string
	adminPasswordHash string
	jwtSecret         string
	jwtExpiration     time.Duration
}

func NewAuthService(adminUsername, adminPasswordHash, jwtSecret string, jwtExpiration time.Duration) *AuthService {
	return &AuthService{
		adminUsername:     adminUsername,
		adminPasswordHash: adminPasswordHash,
		jwtSecret:         jwtSecret,
		jwtExpiration:     jwtExpiration,
	}
}

func (s *AuthService) Login(username, password string) (string, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return "", ErrInvalidInput
	}
	if username != s.adminUsername {
		return "", ErrInvalidCredential
	}
	if err := bcrypt.CompareHashAndPassword([]byte(s.adminPasswordHash), []byte(password)); err != nil {
		return "", ErrInvalidCredential
	}
	return jwtutil.GenerateToken(s.jwtSecret, s.jwtExpiration, username)
}
