package dbtest

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/roorreach/marketplace-backend/pkg/db/models"
	"github.com/roorreach/marketplace-backend/pkg/enums"
	"github.com/roorreach/marketplace-backend/pkg/types"
)

// SeedUser inserts an active account with the given role and returns it as an actor.
func SeedUser(t *testing.T, conn *gorm.DB, role enums.UserRole) types.Actor {
	t.Helper()
	id := uuid.New()
	user := &models.User{
		ID:               id,
		Email:            id.String() + "@example.com",
		PasswordHash:     "x",
		Role:             role,
		IsSellerApproved: role == enums.UserRoleSeller,
		FirstName:        "Test",
		LastName:         string(role),
		IsActive:         true,
	}
	if err := conn.Create(user).Error; err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return types.Actor{UserID: id, Role: role}
}

// SeedProduct inserts a product priced at price with the given stock.
func SeedProduct(t *testing.T, conn *gorm.DB, sellerID uuid.UUID, name, price string, stock int) *models.Product {
	t.Helper()
	product := &models.Product{
		SellerID: sellerID,
		Name:     name,
		Price:    decimal.RequireFromString(price),
		Stock:    stock,
	}
	if err := conn.Create(product).Error; err != nil {
		t.Fatalf("seed product: %v", err)
	}
	return product
}

// SeedOrder inserts a single-line order for product in status.
func SeedOrder(t *testing.T, conn *gorm.DB, buyerID uuid.UUID, product *models.Product, qty int, status enums.OrderStatus) *models.Order {
	t.Helper()
	order := &models.Order{
		CheckoutID:      uuid.New(),
		BuyerID:         buyerID,
		SellerID:        product.SellerID,
		ProductID:       product.ID,
		ProductName:     product.Name,
		Quantity:        qty,
		UnitPrice:       product.EffectivePrice(),
		LineTotal:       product.EffectivePrice().Mul(decimal.NewFromInt(int64(qty))),
		ShippingAddress: "Name: Test",
		PaymentMethod:   "Not specified",
		Status:          status,
	}
	if err := conn.Create(order).Error; err != nil {
		t.Fatalf("seed order: %v", err)
	}
	return order
}
