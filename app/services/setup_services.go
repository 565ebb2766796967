package services

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/perennia/storefront/database/seeders"
)

// SeedResult is the answer to POST /api/seed. ProductsCount is omitted when
// nothing was inserted.
type SeedResult struct {
	Message       string `json:"message"`
	ProductsCount int    `json:"products_count,omitempty"`
}

type AdminSetupResult struct {
	Message  string `json:"message"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SetupService exposes the seeders over HTTP.
type SetupService struct {
	db         *gorm.DB
	production bool
	catalog    *CatalogService
}

func NewSetupService(db *gorm.DB, production bool, catalog *CatalogService) *SetupService {
	return &SetupService{db: db, production: production, catalog: catalog}
}

func (s *SetupService) Seed(ctx context.Context) (SeedResult, error) {
	if s.production {
		return SeedResult{}, Forbidden("Seeding is disabled in production")
	}

	n, err := seeders.SeedCatalog(ctx, s.db)
	if err != nil {
		return SeedResult{}, err
	}
	if n == 0 {
		return SeedResult{Message: "Data already seeded"}, nil
	}
	if s.catalog != nil {
		s.catalog.Invalidate(ctx)
	}
	return SeedResult{Message: "Data seeded", ProductsCount: n}, nil
}

// CreateAdmin creates the first admin account with the configured
// credentials.
func (s *SetupService) CreateAdmin(ctx context.Context, email, password string) (AdminSetupResult, error) {
	admin, err := seeders.SeedAdmin(ctx, s.db, email, password)
	if errors.Is(err, seeders.ErrAdminExists) {
		return AdminSetupResult{}, BadRequest("Admin already exists")
	}
	if err != nil {
		return AdminSetupResult{}, err
	}
	return AdminSetupResult{Message: "Admin created", Email: admin.Email, Password: password}, nil
}
