package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/perennia/storefront/app/models"
	"github.com/perennia/storefront/app/repositories"
)

const reviewListLimit = 100

type ReviewInput struct {
	Rating  int    `json:"rating"  validate:"required,gte=1,lte=5"`
	Comment string `json:"comment" validate:"max=5000"`
}

type ReviewService struct {
	reviews  *repositories.ReviewRepository
	products *repositories.ProductRepository
	users    *repositories.UserRepository
	catalog  *CatalogService
}

func NewReviewService(reviews *repositories.ReviewRepository, products *repositories.ProductRepository, users *repositories.UserRepository, catalog *CatalogService) *ReviewService {
	return &ReviewService{reviews: reviews, products: products, users: users, catalog: catalog}
}

func (s *ReviewService) List(ctx context.Context, productID string) ([]models.Review, error) {
	reviews, err := s.reviews.ForProduct(ctx, productID, reviewListLimit)
	if err != nil {
		return nil, fmt.Errorf("services: list reviews: %w", err)
	}
	return reviews, nil
}

// Create records userID's single review of productID.
func (s *ReviewService) Create(ctx context.Context, userID, productID string, in ReviewInput) (models.Review, error) {
	if _, err := s.products.FindByID(ctx, productID); err != nil {
		return models.Review{}, notFoundAs(err, "Product not found", "create review")
	}

	dup, err := s.reviews.Exists(ctx, productID, userID)
	if err != nil {
		return models.Review{}, fmt.Errorf("services: create review: %w", err)
	}
	if dup {
		return models.Review{}, BadRequest("You already reviewed this product")
	}

	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return models.Review{}, notFoundAs(err, "User not found", "create review")
	}

	review := models.Review{
		ProductID: productID,
		UserID:    userID,
		UserName:  user.ReviewerName(),
		Rating:    in.Rating,
		Comment:   strings.TrimSpace(in.Comment),
	}
	if err := s.reviews.Create(ctx, &review); err != nil {
		// The unique index catches a concurrent duplicate.
		if dup, _ := s.reviews.Exists(ctx, productID, userID); dup {
			return models.Review{}, BadRequest("You already reviewed this product")
		}
		return models.Review{}, fmt.Errorf("services: create review: %w", err)
	}

	s.catalog.Invalidate(ctx)
	return review, nil
}
