package service

import (
	"context"
	"testing"
	"time"

	adminserrors "travelapi/internal/admins/errors"
	"travelapi/pkg/clock"
	"travelapi/pkg/config"
	apperrors "travelapi/pkg/errors"
	"travelapi/pkg/logger"
	"travelapi/pkg/model"

	"github.com/golang-jwt/jwt/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"
)

type mockAdminRepo struct {
	countFn           func(ctx context.Context) (int64, error)
	findByUsernameFn  func(ctx context.Context, username string) (*model.Admin, error)
	insertFn          func(ctx context.Context, admin *model.Admin) error
	updateLastLoginFn func(ctx context.Context, id primitive.ObjectID, at time.Time) error

	inserted []*model.Admin
}

func (m *mockAdminRepo) Count(ctx context.Context) (int64, error) {
	if m.countFn != nil {
		return m.countFn(ctx)
	}
	return 0, nil
}

func (m *mockAdminRepo) FindByUsername(ctx context.Context, username string) (*model.Admin, error) {
	if m.findByUsernameFn != nil {
		return m.findByUsernameFn(ctx, username)
	}
	return nil, adminserrors.ErrNotFound
}

func (m *mockAdminRepo) Insert(ctx context.Context, admin *model.Admin) error {
	if m.insertFn != nil {
		return m.insertFn(ctx, admin)
	}
	admin.ID = primitive.NewObjectID()
	m.inserted = append(m.inserted, admin)
	return nil
}

func (m *mockAdminRepo) UpdateLastLogin(ctx context.Context, id primitive.ObjectID, at time.Time) error {
	if m.updateLastLoginFn != nil {
		return m.updateLastLoginFn(ctx, id, at)
	}
	return nil
}

func testConfig() *config.Config {
	return &config.Config{
		AdminJWTSecret:    "test-jwt-secret",
		AdminTokenTTL:     time.Hour,
		AdminSeedUsername: "admin",
		AdminSeedPassword: "seed-password",
		Log:               logger.New(logger.Config{Level: "error", Format: logger.JSON}),
	}
}

func newService(repo *mockAdminRepo, cfg *config.Config) (AdminService, *clock.Fixed) {
	clk := clock.NewFixed(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	return NewAdminService(repo, clk, cfg), clk
}

func TestEnsureSeedAdmin(t *testing.T) {
	repo := &mockAdminRepo{}
	svc, _ := newService(repo, testConfig())

	if err := svc.EnsureSeedAdmin(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(repo.inserted) != 1 {
		t.Fatalf("expected one admin inserted, got %d", len(repo.inserted))
	}
	admin := repo.inserted[0]
	if admin.Username != "admin" || admin.Role != "admin" || !admin.IsActive {
		t.Errorf("unexpected seed admin: %+v", admin)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(admin.PasswordHash), []byte("seed-password")); err != nil {
		t.Error("expected the seed password to verify against the stored hash")
	}
}

func TestEnsureSeedAdminSkipsPopulatedCollection(t *testing.T) {
	repo := &mockAdminRepo{
		countFn: func(ctx context.Context) (int64, error) { return 3, nil },
		insertFn: func(ctx context.Context, admin *model.Admin) error {
			t.Error("seeding must not touch a populated collection")
			return nil
		},
	}
	svc, _ := newService(repo, testConfig())

	if err := svc.EnsureSeedAdmin(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestEnsureSeedAdminSkipsWithoutPassword(t *testing.T) {
	cfg := testConfig()
	cfg.AdminSeedPassword = ""
	repo := &mockAdminRepo{
		countFn: func(ctx context.Context) (int64, error) {
			t.Error("seeding must be a no-op without a seed password")
			return 0, nil
		},
	}
	svc, _ := newService(repo, cfg)

	if err := svc.EnsureSeedAdmin(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func storedAdmin(t *testing.T, password string) *model.Admin {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}
	return &model.Admin{
		ID:           primitive.NewObjectID(),
		Username:     "admin",
		PasswordHash: string(hash),
		Role:         "admin",
		IsActive:     true,
	}
}

func TestLogin(t *testing.T) {
	cfg := testConfig()
	admin := storedAdmin(t, "correct-horse")

	lastLoginRecorded := false
	repo := &mockAdminRepo{
		findByUsernameFn: func(ctx context.Context, username string) (*model.Admin, error) {
			if username == "admin" {
				return admin, nil
			}
			return nil, adminserrors.ErrNotFound
		},
		updateLastLoginFn: func(ctx context.Context, id primitive.ObjectID, at time.Time) error {
			lastLoginRecorded = true
			return nil
		},
	}
	svc, clk := newService(repo, cfg)

	resp, err := svc.Login(context.Background(), &model.AdminLoginRequest{
		Username: " admin ",
		Password: "correct-horse",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	wantExpiry := clk.Now().Add(time.Hour)
	if !resp.ExpiresAt.Equal(wantExpiry) {
		t.Errorf("expected expiry %s, got %s", wantExpiry, resp.ExpiresAt)
	}
	if !lastLoginRecorded {
		t.Error("expected the last login timestamp to be recorded")
	}

	token, err := jwt.Parse(resp.Token, func(token *jwt.Token) (interface{}, error) {
		return []byte(cfg.AdminJWTSecret), nil
	}, jwt.WithTimeFunc(clk.Now))
	if err != nil || !token.Valid {
		t.Fatalf("expected a valid signed token, got: %v", err)
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		t.Fatal("expected map claims")
	}
	if claims["role"] != "admin" {
		t.Errorf("expected role admin in claims, got %v", claims["role"])
	}
	if claims["sub"] != admin.ID.Hex() {
		t.Errorf("expected subject %s, got %v", admin.ID.Hex(), claims["sub"])
	}
}

func TestLoginWrongPassword(t *testing.T) {
	admin := storedAdmin(t, "correct-horse")
	repo := &mockAdminRepo{
		findByUsernameFn: func(ctx context.Context, username string) (*model.Admin, error) {
			return admin, nil
		},
	}
	svc, _ := newService(repo, testConfig())

	_, err := svc.Login(context.Background(), &model.AdminLoginRequest{
		Username: "admin",
		Password: "wrong",
	})
	if err == nil {
		t.Fatal("expected an error for a wrong password")
	}
	if apperrors.AsAppError(err).Code != apperrors.CodeUnauthorized {
		t.Errorf("expected UNAUTHORIZED, got %v", err)
	}
}

func TestLoginUnknownUsernameLooksLikeWrongPassword(t *testing.T) {
	svc, _ := newService(&mockAdminRepo{}, testConfig())

	_, err := svc.Login(context.Background(), &model.AdminLoginRequest{
		Username: "ghost",
		Password: "whatever",
	})
	if err == nil {
		t.Fatal("expected an error for an unknown username")
	}
	appErr := apperrors.AsAppError(err)
	if appErr.Code != apperrors.CodeUnauthorized {
		t.Errorf("expected UNAUTHORIZED, got %v", err)
	}
	if appErr.Message != "Invalid credentials" {
		t.Errorf("unknown user and wrong password must be indistinguishable, got %q", appErr.Message)
	}
}

func TestLoginMissingFields(t *testing.T) {
	svc, _ := newService(&mockAdminRepo{}, testConfig())

	_, err := svc.Login(context.Background(), &model.AdminLoginRequest{})
	if err == nil {
		t.Fatal("expected an error for missing credentials")
	}
	if apperrors.AsAppError(err).Code != apperrors.CodeInvalidInput {
		t.Errorf("expected INVALID_INPUT, got %v", err)
	}
}

func TestLoginSurvivesLastLoginFailure(t *testing.T) {
	admin := storedAdmin(t, "correct-horse")
	repo := &mockAdminRepo{
		findByUsernameFn: func(ctx context.Context, username string) (*model.Admin, error) {
			return admin, nil
		},
		updateLastLoginFn: func(ctx context.Context, id primitive.ObjectID, at time.Time) error {
			return context.DeadlineExceeded
		},
	}
	svc, _ := newService(repo, testConfig())

	if _, err := svc.Login(context.Background(), &model.AdminLoginRequest{
		Username: "admin",
		Password: "correct-horse",
	}); err != nil {
		t.Fatalf("login must succeed even when the timestamp write fails, got: %v", err)
	}
}
