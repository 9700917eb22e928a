package service

import (
	"context"
	"crypto/subtle"
	"fmt"
	"time"

	"storefront/internal/domain"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

const (
	// BcryptCost is the cost factor used to hash the admin password
	BcryptCost = 10

	// RoleAdmin is the only role the admin gate accepts
	RoleAdmin = "admin"
)

// AdminService authenticates the single store administrator
type AdminService interface {
	Login(ctx context.Context, username, password string) (token string, expiresAt time.Time, err error)
	ValidateToken(tokenString string) (*Claims, error)
}

// Claims represents the JWT claims of an admin session
type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

type adminService struct {
	username     string
	passwordHash []byte
	jwtSecret    string
	tokenTTL     time.Duration
	now          func() time.Time
}

// NewAdminService creates the admin gate from a bcrypt password hash
func NewAdminService(username, passwordHash, jwtSecret string, tokenTTL time.Duration) AdminService {
	return &adminService{
		username:     username,
		passwordHash: []byte(passwordHash),
		jwtSecret:    jwtSecret,
		tokenTTL:     tokenTTL,
		now:          time.Now,
	}
}

// HashPassword hashes a plain-text password with bcrypt
func HashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), BcryptCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hashed), nil
}

// Login checks the admin credentials and returns a signed token
func (s *adminService) Login(ctx context.Context, username, password string) (string, time.Time, error) {
	if len(s.passwordHash) == 0 {
		return "", time.Time{}, domain.ErrInvalidCredentials
	}

	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(s.username)) == 1
	// Compare the password even for an unknown user so both failures take the same time
	passErr := bcrypt.CompareHashAndPassword(s.passwordHash, []byte(password))
	if !userOK || passErr != nil {
		return "", time.Time{}, domain.ErrInvalidCredentials
	}

	now := s.now()
	expiresAt := now.Add(s.tokenTTL)
	claims := &Claims{
		Role: RoleAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   s.username,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.jwtSecret))
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign token: %w", err)
	}
	return token, expiresAt, nil
}

// ValidateToken validates a JWT token and returns the claims
func (s *adminService) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.jwtSecret), nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.Role != RoleAdmin {
		return nil, domain.ErrInvalidToken
	}
	return claims, nil
}
