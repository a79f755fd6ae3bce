package users

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	pkgdb "github.com/roorreach/marketplace-backend/pkg/db"
	"github.com/roorreach/marketplace-backend/pkg/db/models"
	"github.com/roorreach/marketplace-backend/pkg/enums"
	pkgerrors "github.com/roorreach/marketplace-backend/pkg/errors"
	"github.com/roorreach/marketplace-backend/pkg/types"
)

// Service exposes the profile operations of the signed-in account.
type Service interface {
	Get(ctx context.Context, actor types.Actor) (*UserDTO, error)
	Update(ctx context.Context, actor types.Actor, input ProfileInput) (*UserDTO, error)
}

type profileRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	EmailTaken(ctx context.Context, email string, exclude uuid.UUID) (bool, error)
	UpdateProfile(ctx context.Context, id uuid.UUID, in ProfileInput, gender enums.Gender) error
}

type service struct {
	repo profileRepository
}

func NewService(repo profileRepository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("users repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) Get(ctx context.Context, actor types.Actor) (*UserDTO, error) {
	if actor.IsZero() {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	user, err := s.repo.FindByID(ctx, actor.UserID)
	if err != nil {
		return nil, pkgerrors.FromDB(err, "user not found", "load user")
	}
	return FromModel(user), nil
}

func (s *service) Update(ctx context.Context, actor types.Actor, input ProfileInput) (*UserDTO, error) {
	if actor.IsZero() {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	gender, err := enums.ParseGender(input.Gender)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid gender").
			WithDetails(map[string]string{"gender": "must be one of: male female other"})
	}

	taken, err := s.repo.EmailTaken(ctx, input.Email, actor.UserID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check email")
	}
	if taken {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "email already registered")
	}

	if err := s.repo.UpdateProfile(ctx, actor.UserID, input, gender); err != nil {
		if pkgdb.IsUniqueViolation(err, "") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "email already registered")
		}
		return nil, pkgerrors.FromDB(err, "user not found", "update profile")
	}
	return s.Get(ctx, actor)
}
