package sellers

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/roorreach/marketplace-backend/internal/categories"
	"github.com/roorreach/marketplace-backend/internal/users"
	pkgdb "github.com/roorreach/marketplace-backend/pkg/db"
	"github.com/roorreach/marketplace-backend/pkg/db/models"
	"github.com/roorreach/marketplace-backend/pkg/enums"
	pkgerrors "github.com/roorreach/marketplace-backend/pkg/errors"
	"github.com/roorreach/marketplace-backend/pkg/logger"
	"github.com/roorreach/marketplace-backend/pkg/metrics"
	"github.com/roorreach/marketplace-backend/pkg/outbox"
	"github.com/roorreach/marketplace-backend/pkg/outbox/payloads"
	"github.com/roorreach/marketplace-backend/pkg/types"
)

const (
	decisionApproved = "approved"
	decisionRejected = "rejected"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type categoryGetter interface {
	Get(ctx context.Context, id uuid.UUID) (*categories.CategoryDTO, error)
}

// Service runs the buyer-to-seller onboarding workflow.
type Service interface {
	Apply(ctx context.Context, actor types.Actor, req ApplyRequest) (*ApplicationDTO, error)
	MyApplication(ctx context.Context, actor types.Actor) (*ApplicationDTO, error)
	ListPending(ctx context.Context, actor types.Actor) ([]ApplicationDTO, error)
	Approve(ctx context.Context, actor types.Actor, applicationID uuid.UUID) (*ApplicationDTO, error)
	Reject(ctx context.Context, actor types.Actor, applicationID uuid.UUID) error
}

type ServiceParams struct {
	Repo       *Repository
	Tx         txRunner
	Outbox     outboxPublisher
	Categories categoryGetter
	Metrics    *metrics.Marketplace
	Logger     *logger.Logger
}

type service struct {
	repo       *Repository
	tx         txRunner
	outbox     outboxPublisher
	categories categoryGetter
	metrics    *metrics.Marketplace
	logg       *logger.Logger
}

func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("seller application repository required")
	}
	if params.Tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if params.Outbox == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	if params.Categories == nil {
		return nil, fmt.Errorf("category service required")
	}
	return &service{
		repo:       params.Repo,
		tx:         params.Tx,
		outbox:     params.Outbox,
		categories: params.Categories,
		metrics:    params.Metrics,
		logg:       params.Logger,
	}, nil
}

func (s *service) Apply(ctx context.Context, actor types.Actor, req ApplyRequest) (*ApplicationDTO, error) {
	if actor.IsZero() {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	if actor.Role != enums.UserRoleBuyer {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "account is already a seller or admin")
	}
	if req.CategoryID != nil {
		if _, err := s.categories.Get(ctx, *req.CategoryID); err != nil {
			if pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
				return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid application").
					WithDetails(map[string]string{"category_id": "unknown category"})
			}
			return nil, err
		}
	}

	app := &models.SellerApplication{
		UserID:          actor.UserID,
		ShopName:        strings.TrimSpace(req.ShopName),
		ShopAddress:     strings.TrimSpace(req.ShopAddress),
		Location:        strings.TrimSpace(req.Location),
		Email:           strings.ToLower(strings.TrimSpace(req.Email)),
		TaxID:           strings.TrimSpace(req.TaxID),
		CategoryID:      req.CategoryID,
		NIDNumber:       strings.TrimSpace(req.NIDNumber),
		ApplicationText: strings.TrimSpace(req.ApplicationText),
	}
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := NewRepository(tx)
		if _, err := repo.FindByUser(ctx, actor.UserID); err == nil {
			return pkgerrors.New(pkgerrors.CodeConflict, "already applied")
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check existing application")
		}
		if err := repo.Create(ctx, app); err != nil {
			if pkgdb.IsUniqueViolation(err, "") {
				return pkgerrors.New(pkgerrors.CodeConflict, "already applied")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create application")
		}
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventSellerApplied,
			AggregateType: enums.AggregateSellerApplication,
			AggregateID:   app.ID,
			Actor:         outbox.ActorFrom(actor),
			Data: payloads.SellerAppliedEvent{
				ApplicationID: app.ID,
				UserID:        actor.UserID,
				ShopName:      app.ShopName,
			},
		})
	})
	if err != nil {
		return nil, err
	}
	dto := FromModel(app)
	return &dto, nil
}

func (s *service) MyApplication(ctx context.Context, actor types.Actor) (*ApplicationDTO, error) {
	if actor.IsZero() {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	app, err := s.repo.FindByUser(ctx, actor.UserID)
	if err != nil {
		return nil, pkgerrors.FromDB(err, "no seller application on file", "load application")
	}
	dto := FromModel(app)
	return &dto, nil
}

func (s *service) ListPending(ctx context.Context, actor types.Actor) ([]ApplicationDTO, error) {
	if !actor.IsAdmin() {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "admin access required")
	}
	rows, err := s.repo.ListPending(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list applications")
	}
	return rows, nil
}

// Approve promotes the applicant and marks the application in one transaction.
func (s *service) Approve(ctx context.Context, actor types.Actor, applicationID uuid.UUID) (*ApplicationDTO, error) {
	if !actor.IsAdmin() {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "admin access required")
	}

	var app *models.SellerApplication
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		var err error
		repo := NewRepository(tx)
		app, err = repo.FindByID(ctx, applicationID)
		if err != nil {
			return pkgerrors.FromDB(err, "application not found", "load application")
		}
		if app.Approved {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "application already approved")
		}
		if err := users.NewRepository(tx).PromoteToSeller(ctx, app.UserID); err != nil {
			return pkgerrors.FromDB(err, "applicant not found", "promote applicant")
		}
		if err := repo.MarkApproved(ctx, app.ID); err != nil {
			return pkgerrors.FromDB(err, "application not found", "approve application")
		}
		app.Approved = true
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventSellerApproved,
			AggregateType: enums.AggregateSellerApplication,
			AggregateID:   app.ID,
			Actor:         outbox.ActorFrom(actor),
			Data: payloads.SellerApprovedEvent{
				ApplicationID: app.ID,
				UserID:        app.UserID,
				ApprovedBy:    actor.UserID,
			},
		})
	})
	if err != nil {
		return nil, err
	}

	s.metrics.ObserveSellerDecision(decisionApproved)
	dto := FromModel(app)
	return &dto, nil
}

// Reject deletes the application; the outbox event keeps its snapshot.
func (s *service) Reject(ctx context.Context, actor types.Actor, applicationID uuid.UUID) error {
	if !actor.IsAdmin() {
		return pkgerrors.New(pkgerrors.CodeForbidden, "admin access required")
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := NewRepository(tx)
		app, err := repo.FindByID(ctx, applicationID)
		if err != nil {
			return pkgerrors.FromDB(err, "application not found", "load application")
		}
		if app.Approved {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "application already approved")
		}
		if err := repo.Delete(ctx, app.ID); err != nil {
			return pkgerrors.FromDB(err, "application not found", "delete application")
		}
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventSellerRejected,
			AggregateType: enums.AggregateSellerApplication,
			AggregateID:   app.ID,
			Actor:         outbox.ActorFrom(actor),
			Data: payloads.SellerRejectedEvent{
				ApplicationID:   app.ID,
				UserID:          app.UserID,
				RejectedBy:      actor.UserID,
				ShopName:        app.ShopName,
				ShopAddress:     app.ShopAddress,
				Location:        app.Location,
				Email:           app.Email,
				TaxID:           app.TaxID,
				CategoryID:      app.CategoryID,
				NIDNumber:       app.NIDNumber,
				ApplicationText: app.ApplicationText,
				SubmittedAt:     app.SubmittedAt,
			},
		})
	})
	if err != nil {
		return err
	}

	s.metrics.ObserveSellerDecision(decisionRejected)
	return nil
}
