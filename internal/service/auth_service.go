package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"ha_location_proxy/internal/repository"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

const defaultTokenTTL = time.Hour

// Errors returned by the operator sign-up and sign-in flows.
var (
	ErrEmptyCredentials = errors.New("username and password must not be blank")
	ErrInvalidPassword  = errors.New("invalid password")
	ErrUserNotFound     = errors.New("user not found")
	ErrInvalidToken     = errors.New("invalid token")
	ErrUsernameTaken    = repository.ErrUsernameTaken
	ErrSignUpClosed     = repository.ErrSignUpClosed
)

// AuthService guards the control API with operator accounts and HS256 bearer tokens.
type AuthService struct {
	repo       repository.Authorization
	signingKey []byte
	tokenTTL   time.Duration
	// allowSignUp lets anyone register; otherwise only the first operator can.
	allowSignUp bool
	now         func() time.Time
}

// NewAuthService signs tokens with signingKey (auth.signing_key) valid for ttl.
func NewAuthService(repo repository.Authorization, signingKey string, ttl time.Duration, allowSignUp bool) *AuthService {
	if ttl <= 0 {
		ttl = defaultTokenTTL
	}
	return &AuthService{
		repo:        repo,
		signingKey:  []byte(signingKey),
		tokenTTL:    ttl,
		allowSignUp: allowSignUp,
		now:         time.Now,
	}
}

// SignUp registers an operator and returns its ID. Unless open sign-up is
// configured, it fails with ErrSignUpClosed once any operator exists.
func (s *AuthService) SignUp(ctx context.Context, username, password string) (int, error) {
	username = strings.TrimSpace(username)
	if username == "" || strings.TrimSpace(password) == "" {
		return 0, ErrEmptyCredentials
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return 0, fmt.Errorf("hash password: %w", err)
	}
	if s.allowSignUp {
		return s.repo.Create(ctx, username, string(hash))
	}
	return s.repo.CreateFirst(ctx, username, string(hash))
}

// Claims is the bearer token payload.
type Claims struct {
	jwt.RegisteredClaims
	UserID int `json:"user_id"`
}

// GenerateToken checks the operator's password and issues a signed token.
func (s *AuthService) GenerateToken(ctx context.Context, username, password string) (string, error) {
	u, err := s.repo.GetByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		return "", err
	}
	if u == nil {
		return "", ErrUserNotFound
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return "", ErrInvalidPassword
	}

	now := s.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenTTL)),
		},
		UserID: u.ID,
	})
	return token.SignedString(s.signingKey)
}

// ParseToken validates an HS256 token and returns the operator ID it carries.
func (s *AuthService) ParseToken(accessToken string) (int, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(accessToken, claims, func(*jwt.Token) (any, error) {
		return s.signingKey, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(s.now))
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid {
		return 0, ErrInvalidToken
	}
	return claims.UserID, nil
}
