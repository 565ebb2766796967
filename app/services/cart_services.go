package services

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/perennia/storefront/app/models"
	"github.com/perennia/storefront/app/repositories"
	"github.com/perennia/storefront/pkg/collection"
	"github.com/perennia/storefront/pkg/currency"
	"github.com/perennia/storefront/pkg/session"
)

const cartSessionKey = "cart"

// PricedLine is a cart line joined with its current product.
type PricedLine struct {
	Product      models.Product  `json:"product"`
	Quantity     int             `json:"quantity"`
	LineTotalBBD decimal.Decimal `json:"line_total_bbd"`
	LineTotalUSD decimal.Decimal `json:"line_total_usd"`
}

// PricedCart is the cart as the storefront renders it.
type PricedCart struct {
	Items        []PricedLine      `json:"items"`
	ItemCount    int               `json:"item_count"`
	TotalBBD     decimal.Decimal   `json:"total_bbd"`
	TotalUSD     decimal.Decimal   `json:"total_usd"`
	Currency     currency.Currency `json:"currency"`
	DisplayTotal string            `json:"display_total"`
}

type QuoteInput struct {
	Items []models.CartLine `json:"items" validate:"dive"`
}

type CartItemInput struct {
	ProductID string `json:"product_id" validate:"required"`
	Quantity  int    `json:"quantity"   validate:"gte=0"`
}

type CartQuantityInput struct {
	Quantity int `json:"quantity" validate:"gte=0"`
}

type CartService struct {
	products *repositories.ProductRepository
}

func NewCartService(products *repositories.ProductRepository) *CartService {
	return &CartService{products: products}
}

// Price joins lines with their products and totals them in both currencies.
// Lines whose product no longer exists are dropped.
func (s *CartService) Price(ctx context.Context, lines []models.CartLine, cur currency.Currency) (PricedCart, error) {
	ids := collection.Map(lines, func(l models.CartLine) string { return l.ProductID })
	products, err := s.products.FindByIDs(ctx, ids)
	if err != nil {
		return PricedCart{}, fmt.Errorf("services: price cart: %w", err)
	}

	out := PricedCart{Items: []PricedLine{}, TotalBBD: decimal.Zero, TotalUSD: decimal.Zero, Currency: cur}
	for _, l := range lines {
		p, ok := products[l.ProductID]
		if !ok || l.Quantity < 1 {
			continue
		}
		qty := decimal.NewFromInt(int64(l.Quantity))
		line := PricedLine{
			Product:      p,
			Quantity:     l.Quantity,
			LineTotalBBD: models.Money(p.PriceBBD.Mul(qty)),
			LineTotalUSD: models.Money(p.PriceUSD.Mul(qty)),
		}
		out.Items = append(out.Items, line)
		out.ItemCount += l.Quantity
		out.TotalBBD = out.TotalBBD.Add(line.LineTotalBBD)
		out.TotalUSD = out.TotalUSD.Add(line.LineTotalUSD)
	}
	out.TotalBBD = models.Money(out.TotalBBD)
	out.TotalUSD = models.Money(out.TotalUSD)
	out.DisplayTotal = cur.Format(cur.Pick(out.TotalBBD, out.TotalUSD))
	return out, nil
}

// Load reads the session cart.
func (s *CartService) Load(sess *session.Session) models.Cart {
	var cart models.Cart
	sess.Get(cartSessionKey, &cart)
	return cart
}

func (s *CartService) store(sess *session.Session, cart models.Cart) error {
	if len(cart.Items) == 0 {
		sess.Delete(cartSessionKey)
		return nil
	}
	return sess.Set(cartSessionKey, cart)
}

// Add puts quantity of a product into the session cart.
func (s *CartService) Add(ctx context.Context, sess *session.Session, in CartItemInput) (models.Cart, error) {
	if _, err := s.products.FindByID(ctx, in.ProductID); err != nil {
		return models.Cart{}, notFoundAs(err, "Product not found", "add to cart")
	}
	cart := s.Load(sess)
	cart.Add(in.ProductID, in.Quantity)
	return cart, s.store(sess, cart)
}

// SetQuantity changes one line; below 1 removes it.
func (s *CartService) SetQuantity(sess *session.Session, productID string, quantity int) (models.Cart, error) {
	cart := s.Load(sess)
	if !cart.UpdateQuantity(productID, quantity) {
		return cart, NotFound("Item not in cart")
	}
	return cart, s.store(sess, cart)
}

func (s *CartService) Remove(sess *session.Session, productID string) (models.Cart, error) {
	cart := s.Load(sess)
	if !cart.Remove(productID) {
		return cart, NotFound("Item not in cart")
	}
	return cart, s.store(sess, cart)
}

func (s *CartService) Clear(sess *session.Session) {
	sess.Delete(cartSessionKey)
}
