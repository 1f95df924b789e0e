package service

import (
	"context"
	"errors"
	"strings"

	adminserrors "travelapi/internal/admins/errors"
	"travelapi/internal/admins/repository"
	"travelapi/pkg/clock"
	"travelapi/pkg/config"
	apperrors "travelapi/pkg/errors"
	"travelapi/pkg/model"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

type AdminService interface {
	Login(ctx context.Context, req *model.AdminLoginRequest) (*model.AdminLoginResponse, error)
	EnsureSeedAdmin(ctx context.Context) error
}

type adminService struct {
	repo  repository.AdminRepository
	clock clock.Clock
	cfg   *config.Config
}

func NewAdminService(repo repository.AdminRepository, clk clock.Clock, cfg *config.Config) AdminService {
	return &adminService{
		repo:  repo,
		clock: clk,
		cfg:   cfg,
	}
}

// EnsureSeedAdmin creates the bootstrap admin on an empty collection so a
// fresh deployment is operable. It never touches an already-populated
// collection and it does nothing when no seed password is configured.
func (s *adminService) EnsureSeedAdmin(ctx context.Context) error {
	if s.cfg.AdminSeedPassword == "" {
		s.cfg.Log.Info("Admin seeding skipped, no seed password configured")
		return nil
	}

	count, err := s.repo.Count(ctx)
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(s.cfg.AdminSeedPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	now := s.clock.Now()
	admin := &model.Admin{
		Username:     s.cfg.AdminSeedUsername,
		PasswordHash: string(hash),
		Role:         "admin",
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.repo.Insert(ctx, admin); err != nil {
		return err
	}

	s.cfg.Log.Info("Seed admin created", "username", admin.Username)
	return nil
}

func (s *adminService) Login(ctx context.Context, req *model.AdminLoginRequest) (*model.AdminLoginResponse, error) {
	req.Username = strings.TrimSpace(req.Username)

	if req.Username == "" || req.Password == "" {
		return nil, apperrors.InvalidInput("Username and password are required")
	}

	admin, err := s.repo.FindByUsername(ctx, req.Username)
	if err != nil {
		if errors.Is(err, adminserrors.ErrNotFound) {
			// Same response as a bad password so usernames cannot be probed.
			return nil, apperrors.Unauthorized("Invalid credentials")
		}
		s.cfg.Log.Error("Failed to load admin", "username", req.Username, "error", err)
		return nil, apperrors.Internal("Failed to authenticate", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(admin.PasswordHash), []byte(req.Password)); err != nil {
		s.cfg.Log.Warn("Admin login rejected", "username", req.Username)
		return nil, apperrors.Unauthorized("Invalid credentials")
	}

	now := s.clock.Now()
	expiresAt := now.Add(s.cfg.AdminTokenTTL)

	claims := jwt.MapClaims{
		"sub":  admin.ID.Hex(),
		"name": admin.Username,
		"role": admin.Role,
		"iat":  now.Unix(),
		"exp":  expiresAt.Unix(),
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.cfg.AdminJWTSecret))
	if err != nil {
		s.cfg.Log.Error("Failed to sign admin token", "username", req.Username, "error", err)
		return nil, apperrors.Internal("Failed to authenticate", err)
	}

	if err := s.repo.UpdateLastLogin(ctx, admin.ID, now); err != nil {
		// Login still succeeds; the timestamp is best effort.
		s.cfg.Log.Warn("Failed to record last login", "username", req.Username, "error", err)
	}

	s.cfg.Log.Info("Admin logged in", "username", admin.Username)

	return &model.AdminLoginResponse{
		Token:     token,
		ExpiresAt: expiresAt,
	}, nil
}
