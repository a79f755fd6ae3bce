package sellers

import (
	"time"

	"github.com/google/uuid"

	"github.com/roorreach/marketplace-backend/pkg/db/models"
)

// ApplyRequest is the seller application form.
type ApplyRequest struct {
	ShopName        string     `json:"shop_name" validate:"required,max=200"`
	ShopAddress     string     `json:"shop_address" validate:"required,max=500"`
	Location        string     `json:"location" validate:"required,max=200"`
	Email           string     `json:"email" validate:"required,email,max=254"`
	TaxID           string     `json:"tax_id" validate:"required,max=100"`
	CategoryID      *uuid.UUID `json:"category_id,omitempty"`
	NIDNumber       string     `json:"nid_number" validate:"required,max=100"`
	ApplicationText string     `json:"application_text" validate:"max=5000"`
}

// ApplicationDTO is a seller application as shown to its author or an admin.
type ApplicationDTO struct {
	ID              uuid.UUID  `json:"id"`
	UserID          uuid.UUID  `json:"user_id"`
	ApplicantName   string     `json:"applicant_name,omitempty"`
	ShopName        string     `json:"shop_name"`
	ShopAddress     string     `json:"shop_address"`
	Location        string     `json:"location"`
	Email           string     `json:"email"`
	TaxID           string     `json:"tax_id"`
	CategoryID      *uuid.UUID `json:"category_id,omitempty"`
	NIDNumber       string     `json:"nid_number"`
	ApplicationText string     `json:"application_text"`
	Approved        bool       `json:"approved"`
	SubmittedAt     time.Time  `json:"submitted_at"`
}

func FromModel(a *models.SellerApplication) ApplicationDTO {
	return ApplicationDTO{
		ID:              a.ID,
		UserID:          a.UserID,
		ShopName:        a.ShopName,
		ShopAddress:     a.ShopAddress,
		Location:        a.Location,
		Email:           a.Email,
		TaxID:           a.TaxID,
		CategoryID:      a.CategoryID,
		NIDNumber:       a.NIDNumber,
		ApplicationText: a.ApplicationText,
		Approved:        a.Approved,
		SubmittedAt:     a.SubmittedAt,
	}
}
