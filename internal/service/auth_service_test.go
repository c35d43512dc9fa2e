package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"ha_location_proxy/internal/models"

	"github.com/golang-jwt/jwt/v5"
)

const testSigningKey = "test-signing-key"

// memAuthRepo is an in-memory repository.Authorization.
type memAuthRepo struct {
	users  map[string]models.User
	getErr error
}

func newMemAuthRepo() *memAuthRepo { return &memAuthRepo{users: map[string]models.User{}} }

func (r *memAuthRepo) Create(_ context.Context, username, hash string) (int, error) {
	if _, ok := r.users[username]; ok {
		return 0, fmt.Errorf("insert user %q: %w", username, ErrUsernameTaken)
	}
	id := len(r.users) + 1
	r.users[username] = models.User{ID: id, Username: username, PasswordHash: hash}
	return id, nil
}

func (r *memAuthRepo) CreateFirst(ctx context.Context, username, hash string) (int, error) {
	if len(r.users) > 0 {
		return 0, ErrSignUpClosed
	}
	return r.Create(ctx, username, hash)
}

func (r *memAuthRepo) GetByUsername(_ context.Context, username string) (*models.User, error) {
	if r.getErr != nil {
		return nil, r.getErr
	}
	u, ok := r.users[username]
	if !ok {
		return nil, nil
	}
	return &u, nil
}

func newTestAuthService(t *testing.T, repo *memAuthRepo, at time.Time) *AuthService {
	t.Helper()
	svc := NewAuthService(repo, testSigningKey, 10*time.Minute, true)
	svc.now = func() time.Time { return at }
	return svc
}

func signWith(t *testing.T, method jwt.SigningMethod, key any, claims *Claims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(method, claims).SignedString(key)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return s
}

func TestAuthService_SignUpThenSignIn(t *testing.T) {
	ctx := context.Background()
	repo := newMemAuthRepo()
	svc := newTestAuthService(t, repo, time.Now())

	id, err := svc.SignUp(ctx, "  operator ", "s3cr3t")
	if err != nil {
		t.Fatalf("SignUp: %v", err)
	}
	stored, ok := repo.users["operator"]
	if !ok {
		t.Fatalf("username should be trimmed before storing: %v", repo.users)
	}
	if stored.PasswordHash == "s3cr3t" {
		t.Fatalf("password stored in clear text")
	}

	token, err := svc.GenerateToken(ctx, "operator", "s3cr3t")
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	uid, err := svc.ParseToken(token)
	if err != nil {
		t.Fatalf("ParseToken: %v", err)
	}
	if uid != id {
		t.Fatalf("uid=%d want %d", uid, id)
	}
}

func TestAuthService_SignUpRejects(t *testing.T) {
	ctx := context.Background()
	repo := newMemAuthRepo()
	svc := newTestAuthService(t, repo, time.Now())
	if _, err := svc.SignUp(ctx, "operator", "pw"); err != nil {
		t.Fatalf("seed user: %v", err)
	}

	tests := []struct {
		name     string
		username string
		password string
		want     error
	}{
		{"blank password", "viewer", "   ", ErrEmptyCredentials},
		{"blank username", " ", "pw", ErrEmptyCredentials},
		{"duplicate", "operator", "other", ErrUsernameTaken},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.SignUp(ctx, tt.username, tt.password)
			if !errors.Is(err, tt.want) {
				t.Fatalf("err=%v want %v", err, tt.want)
			}
		})
	}
	if len(repo.users) != 1 {
		t.Fatalf("rejected sign-ups must not store users: %v", repo.users)
	}
}

func TestAuthService_ClosedSignUpAllowsOnlyFirstOperator(t *testing.T) {
	ctx := context.Background()
	repo := newMemAuthRepo()
	svc := NewAuthService(repo, testSigningKey, time.Hour, false)

	if _, err := svc.SignUp(ctx, "admin", "first"); err != nil {
		t.Fatalf("first operator: %v", err)
	}
	if _, err := svc.SignUp(ctx, "intruder", "second"); !errors.Is(err, ErrSignUpClosed) {
		t.Fatalf("second sign-up err=%v want ErrSignUpClosed", err)
	}
	if _, ok := repo.users["intruder"]; ok {
		t.Fatal("refused operator was stored")
	}
	if _, err := svc.GenerateToken(ctx, "admin", "first"); err != nil {
		t.Fatalf("first operator can still sign in: %v", err)
	}
}

func TestAuthService_GenerateTokenFailures(t *testing.T) {
	ctx := context.Background()
	repo := newMemAuthRepo()
	svc := newTestAuthService(t, repo, time.Now())
	if _, err := svc.SignUp(ctx, "operator", "correct"); err != nil {
		t.Fatalf("seed user: %v", err)
	}

	if _, err := svc.GenerateToken(ctx, "ghost", "pw"); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("unknown user: err=%v", err)
	}
	if _, err := svc.GenerateToken(ctx, "operator", "wrong"); !errors.Is(err, ErrInvalidPassword) {
		t.Fatalf("wrong password: err=%v", err)
	}

	repo.getErr = errors.New("database is locked")
	if _, err := svc.GenerateToken(ctx, "operator", "correct"); !errors.Is(err, repo.getErr) {
		t.Fatalf("repo failure should propagate: err=%v", err)
	}
}

func TestAuthService_TokenLifetime(t *testing.T) {
	ctx := context.Background()
	issued := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	repo := newMemAuthRepo()
	svc := newTestAuthService(t, repo, issued)
	if _, err := svc.SignUp(ctx, "operator", "pw"); err != nil {
		t.Fatalf("seed user: %v", err)
	}
	token, err := svc.GenerateToken(ctx, "operator", "pw")
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	claims := &Claims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		t.Fatalf("parse unverified: %v", err)
	}
	if got := claims.ExpiresAt.Sub(claims.IssuedAt.Time); got != 10*time.Minute {
		t.Fatalf("ttl=%v want 10m", got)
	}

	svc.now = func() time.Time { return issued.Add(9 * time.Minute) }
	if _, err := svc.ParseToken(token); err != nil {
		t.Fatalf("token should still be valid: %v", err)
	}
	svc.now = func() time.Time { return issued.Add(11 * time.Minute) }
	if _, err := svc.ParseToken(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expired token: err=%v", err)
	}
}

func TestAuthService_ParseTokenRejects(t *testing.T) {
	now := time.Now()
	svc := newTestAuthService(t, newMemAuthRepo(), now)
	valid := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
		},
		UserID: 5,
	}

	tests := []struct {
		name  string
		token string
	}{
		{"malformed", "not-a-jwt"},
		{"wrong key", signWith(t, jwt.SigningMethodHS256, []byte("different-key"), valid)},
		{"other hmac alg", signWith(t, jwt.SigningMethodHS512, []byte(testSigningKey), valid)},
		{"unsigned", signWith(t, jwt.SigningMethodNone, jwt.UnsafeAllowNoneSignatureType, valid)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.ParseToken(tt.token); !errors.Is(err, ErrInvalidToken) {
				t.Fatalf("err=%v want ErrInvalidToken", err)
			}
		})
	}
}
