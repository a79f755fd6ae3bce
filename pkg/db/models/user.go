package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/roorreach/marketplace-backend/pkg/enums"
)

// User is the account of a buyer, seller or admin.
type User struct {
	ID               uuid.UUID      `gorm:"column:id;type:uuid;primaryKey"`
	Email            string         `gorm:"column:email;type:text;not null;uniqueIndex"`
	PasswordHash     string         `gorm:"column:password_hash;not null"`
	Role             enums.UserRole `gorm:"column:role;type:user_role;not null;default:'buyer'"`
	IsSellerApproved bool           `gorm:"column:is_seller_approved;not null;default:false"`
	FirstName        string         `gorm:"column:first_name;not null"`
	LastName         string         `gorm:"column:last_name;not null"`
	Phone            string         `gorm:"column:phone;not null;default:''"`
	Location         string         `gorm:"column:location;not null;default:''"`
	Address          string         `gorm:"column:address;not null;default:''"`
	Gender           enums.Gender   `gorm:"column:gender;not null;default:''"`
	IsActive         bool           `gorm:"column:is_active;not null;default:true"`
	LastLoginAt      *time.Time     `gorm:"column:last_login_at"`
	CreatedAt        time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time      `gorm:"column:updated_at;autoUpdateTime"`
}

func (u *User) BeforeCreate(*gorm.DB) error {
	ensureID(&u.ID)
	return nil
}

// IsSeller reports whether the account may act as an approved seller.
func (u *User) IsSeller() bool {
	return u.Role == enums.UserRoleSeller && u.IsSellerApproved
}
