package repositories

import (
	"context"

	"gorm.io/gorm"

	"github.com/perennia/storefront/app/models"
	"github.com/perennia/storefront/pkg/orm"
)

// UserRepository handles database operations for User.
type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

// FindByEmail looks up a user by their (already normalised) email address.
func (r *UserRepository) FindByEmail(ctx context.Context, email string) (models.User, error) {
	var user models.User
	err := orm.Use(r.db).WithContext(ctx).Model(&models.User{}).Where("email = ?", email).First(&user)
	return user, err
}

// FindByID looks up a user by primary key.
func (r *UserRepository) FindByID(ctx context.Context, id string) (models.User, error) {
	var user models.User
	err := orm.Use(r.db).WithContext(ctx).Model(&models.User{}).Where("id = ?", id).First(&user)
	return user, err
}

func (r *UserRepository) EmailTaken(ctx context.Context, email string) (bool, error) {
	return orm.Use(r.db).WithContext(ctx).Model(&models.User{}).Where("email = ?", email).Exists()
}

func (r *UserRepository) AdminExists(ctx context.Context) (bool, error) {
	return orm.Use(r.db).WithContext(ctx).Model(&models.User{}).Where("is_admin = ?", true).Exists()
}

// Create persists a new user record.
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	return r.db.WithContext(ctx).Create(user).Error
}
