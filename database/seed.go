package database

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/gamifylearn/gamification-api/model"
	"github.com/gamifylearn/gamification-api/utils/auth"
	"github.com/gofiber/fiber/v2/log"
)

// Seeder handles database seeding operations
type Seeder struct {
	store UserStore
}

// NewSeeder creates a new seeder instance
func NewSeeder(store UserStore) *Seeder {
	return &Seeder{store: store}
}

// SeedSuperAdmin creates the platform operator account unless it already exists.
// It reports whether an account was created.
func (s *Seeder) SeedSuperAdmin(ctx context.Context, email, password string) (bool, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		log.Warn("SUPER_ADMIN_EMAIL and SUPER_ADMIN_PASSWORD not set, skipping super admin creation")
		return false, nil
	}

	_, err := s.store.GetSuperAdminByEmail(ctx, email)
	if err == nil {
		log.Infof("Super admin %s already exists, skipping...", email)
		return false, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return false, fmt.Errorf("failed to look up super admin: %w", err)
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return false, fmt.Errorf("failed to hash password: %w", err)
	}

	username := strings.SplitN(email, "@", 2)[0]
	admin := &model.SuperAdmin{
		Username: &username,
		Email:    email,
		Role:     model.RoleSuperAdmin,
		Password: hash,
	}
	if err := s.store.CreateSuperAdmin(ctx, admin); err != nil {
		if errors.Is(err, ErrDuplicate) {
			return false, nil
		}
		return false, fmt.Errorf("failed to create super admin: %w", err)
	}

	log.Infof("Super admin %s created", email)
	return true, nil
}
