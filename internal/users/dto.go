package users

import (
	"time"

	"github.com/google/uuid"

	"github.com/roorreach/marketplace-backend/pkg/db/models"
	"github.com/roorreach/marketplace-backend/pkg/enums"
)

// UserDTO is the transport shape that omits sensitive credentials.
type UserDTO struct {
	ID               uuid.UUID      `json:"id"`
	Email            string         `json:"email"`
	Role             enums.UserRole `json:"role"`
	IsSellerApproved bool           `json:"is_seller_approved"`
	FirstName        string         `json:"first_name"`
	LastName         string         `json:"last_name"`
	Phone            string         `json:"phone"`
	Location         string         `json:"location"`
	Address          string         `json:"address"`
	Gender           enums.Gender   `json:"gender"`
	LastLoginAt      *time.Time     `json:"last_login_at,omitempty"`
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`
}

// CreateUserDTO holds the data required by the repo to persist a new user.
type CreateUserDTO struct {
	Email        string
	PasswordHash string
	FirstName    string
	LastName     string
	Phone        string
	Location     string
	Address      string
	Gender       enums.Gender
}

// ProfileInput is the editable part of an account.
type ProfileInput struct {
	Email     string `json:"email" validate:"required,email"`
	FirstName string `json:"first_name" validate:"required,max=150"`
	LastName  string `json:"last_name" validate:"required,max=150"`
	Phone     string `json:"phone" validate:"max=15"`
	Location  string `json:"location" validate:"max=100"`
	Address   string `json:"address" validate:"max=255"`
	Gender    string `json:"gender" validate:"omitempty,oneof=male female other"`
}

func FromModel(u *models.User) *UserDTO {
	if u == nil {
		return nil
	}
	return &UserDTO{
		ID:               u.ID,
		Email:            u.Email,
		Role:             u.Role,
		IsSellerApproved: u.IsSellerApproved,
		FirstName:        u.FirstName,
		LastName:         u.LastName,
		Phone:            u.Phone,
		Location:         u.Location,
		Address:          u.Address,
		Gender:           u.Gender,
		LastLoginAt:      u.LastLoginAt,
		CreatedAt:        u.CreatedAt,
		UpdatedAt:        u.UpdatedAt,
	}
}

func (c CreateUserDTO) ToModel() *models.User {
	return &models.User{
		Email:        c.Email,
		PasswordHash: c.PasswordHash,
		Role:         enums.UserRoleBuyer,
		FirstName:    c.FirstName,
		LastName:     c.LastName,
		Phone:        c.Phone,
		Location:     c.Location,
		Address:      c.Address,
		Gender:       c.Gender,
		IsActive:     true,
	}
}
