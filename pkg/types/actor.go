package types

import (
	"github.com/google/uuid"

	"github.com/roorreach/marketplace-backend/pkg/enums"
)

// Actor is the authenticated identity passed into every service operation.
type Actor struct {
	UserID uuid.UUID
	Role   enums.UserRole
}

func (a Actor) IsZero() bool {
	return a.UserID == uuid.Nil
}

func (a Actor) IsAdmin() bool {
	return a.Role == enums.UserRoleAdmin
}

func (a Actor) IsSeller() bool {
	return a.Role == enums.UserRoleSeller
}
