package reviews

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/roorreach/marketplace-backend/pkg/db"
	"github.com/roorreach/marketplace-backend/pkg/db/models"
	"github.com/roorreach/marketplace-backend/pkg/enums"
	pkgerrors "github.com/roorreach/marketplace-backend/pkg/errors"
	"github.com/roorreach/marketplace-backend/pkg/logger"
	"github.com/roorreach/marketplace-backend/pkg/metrics"
	"github.com/roorreach/marketplace-backend/pkg/outbox"
	"github.com/roorreach/marketplace-backend/pkg/outbox/payloads"
	"github.com/roorreach/marketplace-backend/pkg/types"
)

const maxCommentLength = 2000

// SubmitRequest is the review form. Rating stays a string so that anything
// other than the literal "1".."5" can be rejected as-is.
type SubmitRequest struct {
	Rating  string `json:"rating" validate:"required"`
	Comment string `json:"comment" validate:"max=2000"`
}

type Service interface {
	Submit(ctx context.Context, actor types.Actor, productID uuid.UUID, req SubmitRequest) (*ReviewDTO, error)
	ListForProduct(ctx context.Context, productID uuid.UUID) ([]ReviewDTO, error)
}

type ServiceParams struct {
	DB      *db.Client
	Outbox  outbox.Emitter
	Metrics *metrics.Marketplace
	Logger  *logger.Logger
}

type service struct {
	db      *db.Client
	outbox  outbox.Emitter
	metrics *metrics.Marketplace
	logg    *logger.Logger
}

func NewService(params ServiceParams) (Service, error) {
	if params.DB == nil {
		return nil, fmt.Errorf("db client required")
	}
	if params.Outbox == nil {
		return nil, fmt.Errorf("outbox emitter required")
	}
	return &service{
		db:      params.DB,
		outbox:  params.Outbox,
		metrics: params.Metrics,
		logg:    params.Logger,
	}, nil
}

// ParseRating accepts exactly "1" through "5".
func ParseRating(raw string) (int, bool) {
	if len(raw) != 1 || raw[0] < '1' || raw[0] > '5' {
		return 0, false
	}
	return int(raw[0] - '0'), true
}

func (s *service) Submit(ctx context.Context, actor types.Actor, productID uuid.UUID, req SubmitRequest) (*ReviewDTO, error) {
	if actor.IsZero() {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	rating, ok := ParseRating(req.Rating)
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "rating must be between 1 and 5").
			WithDetails(map[string]string{"rating": "must be one of: 1 2 3 4 5"})
	}
	comment := strings.TrimSpace(req.Comment)
	if len([]rune(comment)) > maxCommentLength {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "comment too long")
	}

	review := &models.Review{
		ProductID:  productID,
		ReviewerID: actor.UserID,
		Rating:     rating,
		Comment:    comment,
	}

	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		repo := NewRepository(tx)
		exists, err := repo.ProductExists(ctx, productID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
		}
		if !exists {
			return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		qualifies, err := repo.HasQualifyingOrder(ctx, actor.UserID, productID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check purchase")
		}
		if !qualifies {
			return pkgerrors.New(pkgerrors.CodeForbidden, "only buyers with a confirmed order can review this product")
		}
		if err := repo.Create(ctx, review); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create review")
		}
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventReviewSubmitted,
			AggregateType: enums.AggregateReview,
			AggregateID:   review.ID,
			Actor:         outbox.ActorFrom(actor),
			Data: payloads.ReviewSubmittedEvent{
				ReviewID:   review.ID,
				ProductID:  productID,
				ReviewerID: actor.UserID,
				Rating:     rating,
			},
		})
	})
	if err != nil {
		return nil, pkgerrors.FromDB(err, "product not found", "submit review")
	}

	s.metrics.IncReview()
	return &ReviewDTO{
		ID:         review.ID,
		ProductID:  review.ProductID,
		ReviewerID: review.ReviewerID,
		Rating:     review.Rating,
		Comment:    review.Comment,
		CreatedAt:  review.CreatedAt,
	}, nil
}

func (s *service) ListForProduct(ctx context.Context, productID uuid.UUID) ([]ReviewDTO, error) {
	rows, err := NewRepository(s.db.DB()).ListForProduct(ctx, productID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list reviews")
	}
	return rows, nil
}
