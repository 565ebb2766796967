package seeders

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/perennia/storefront/app/models"
	"github.com/perennia/storefront/app/repositories"
	"github.com/perennia/storefront/config"
	"github.com/perennia/storefront/pkg/auth"
)

// ErrAdminExists is returned by SeedAdmin when an admin account is present.
var ErrAdminExists = errors.New("seeders: admin already exists")

func init() {
	Register("admin", func(ctx context.Context, db *gorm.DB) error {
		_, err := SeedAdmin(ctx, db, config.AdminEmail(), config.AdminPassword())
		if errors.Is(err, ErrAdminExists) {
			return nil
		}
		return err
	})
}

// SeedAdmin creates the first admin account, "Admin User", with the given
// credentials.
func SeedAdmin(ctx context.Context, db *gorm.DB, email, password string) (models.User, error) {
	users := repositories.NewUserRepository(db)
	exists, err := users.AdminExists(ctx)
	if err != nil {
		return models.User{}, fmt.Errorf("seeders: look up admin: %w", err)
	}
	if exists {
		return models.User{}, ErrAdminExists
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return models.User{}, fmt.Errorf("seeders: hash admin password: %w", err)
	}

	admin := models.User{
		Email:     strings.ToLower(strings.TrimSpace(email)),
		Password:  hash,
		FirstName: "Admin",
		LastName:  "User",
		IsAdmin:   true,
	}
	if err := users.Create(ctx, &admin); err != nil {
		return models.User{}, fmt.Errorf("seeders: create admin: %w", err)
	}
	return admin, nil
}
