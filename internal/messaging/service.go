package messaging

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/roorreach/marketplace-backend/internal/products"
	"github.com/roorreach/marketplace-backend/pkg/db/models"
	"github.com/roorreach/marketplace-backend/pkg/enums"
	pkgerrors "github.com/roorreach/marketplace-backend/pkg/errors"
	"github.com/roorreach/marketplace-backend/pkg/logger"
	"github.com/roorreach/marketplace-backend/pkg/metrics"
	"github.com/roorreach/marketplace-backend/pkg/pagination"
	"github.com/roorreach/marketplace-backend/pkg/types"
)

const maxBodyLength = 2000

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service carries buyer and seller conversations about a product.
type Service interface {
	SendAsBuyer(ctx context.Context, actor types.Actor, productID uuid.UUID, body string) (*MessageDTO, error)
	Reply(ctx context.Context, actor types.Actor, threadID uuid.UUID, body string) (*MessageDTO, error)
	ThreadForBuyer(ctx context.Context, actor types.Actor, productID uuid.UUID) (*ThreadView, error)
	Messages(ctx context.Context, actor types.Actor, threadID uuid.UUID, params pagination.Params) (pagination.Page[MessageDTO], error)
	SellerInbox(ctx context.Context, actor types.Actor) ([]ProductThreads, error)
	BuyerInbox(ctx context.Context, actor types.Actor) ([]ThreadDTO, error)
}

type ServiceParams struct {
	Repo    *Repository
	Tx      txRunner
	Metrics *metrics.Marketplace
	Logger  *logger.Logger
}

type service struct {
	repo    *Repository
	tx      txRunner
	metrics *metrics.Marketplace
	logg    *logger.Logger
}

func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("messaging repository required")
	}
	if params.Tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	return &service{
		repo:    params.Repo,
		tx:      params.Tx,
		metrics: params.Metrics,
		logg:    params.Logger,
	}, nil
}

func (s *service) SendAsBuyer(ctx context.Context, actor types.Actor, productID uuid.UUID, body string) (*MessageDTO, error) {
	if actor.IsZero() {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	body, err := s.checkBody(ctx, body)
	if err != nil {
		return nil, err
	}

	var msg *models.ChatMessage
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		product, err := products.NewRepository(tx).FindByID(ctx, productID)
		if err != nil {
			return pkgerrors.FromDB(err, "product not found", "load product")
		}
		if product.SellerID == actor.UserID {
			return pkgerrors.New(pkgerrors.CodeForbidden, "sellers reply from their inbox")
		}
		repo := NewRepository(tx)
		thread, err := repo.EnsureThread(ctx, productID, actor.UserID, product.SellerID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "open thread")
		}
		msg = &models.ChatMessage{
			ThreadID:   thread.ID,
			ProductID:  productID,
			SenderID:   actor.UserID,
			SenderRole: enums.SenderBuyer,
			Body:       body,
		}
		if err := repo.AppendMessage(ctx, msg); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store message")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	dto := messageFromModel(msg)
	return &dto, nil
}

func (s *service) Reply(ctx context.Context, actor types.Actor, threadID uuid.UUID, body string) (*MessageDTO, error) {
	thread, role, err := s.participant(ctx, actor, threadID)
	if err != nil {
		return nil, err
	}
	body, err = s.checkBody(ctx, body)
	if err != nil {
		return nil, err
	}

	msg := &models.ChatMessage{
		ThreadID:   thread.ID,
		ProductID:  thread.ProductID,
		SenderID:   actor.UserID,
		SenderRole: role,
		Body:       body,
	}
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := NewRepository(tx).AppendMessage(ctx, msg); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store message")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	dto := messageFromModel(msg)
	return &dto, nil
}

func (s *service) ThreadForBuyer(ctx context.Context, actor types.Actor, productID uuid.UUID) (*ThreadView, error) {
	if actor.IsZero() {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	product, err := products.NewRepository(s.repo.db).FindByID(ctx, productID)
	if err != nil {
		return nil, pkgerrors.FromDB(err, "product not found", "load product")
	}
	view := &ThreadView{ProductID: product.ID, ProductName: product.Name, Messages: []MessageDTO{}}

	thread, err := s.repo.FindThread(ctx, productID, actor.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return view, nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load thread")
	}
	detail, err := s.repo.ThreadDetail(ctx, thread.ID)
	if err != nil {
		return nil, pkgerrors.FromDB(err, "thread not found", "load thread")
	}
	rows, err := s.repo.ListMessages(ctx, thread.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load messages")
	}
	view.Thread = detail
	for i := range rows {
		view.Messages = append(view.Messages, messageFromModel(&rows[i]))
	}
	return view, nil
}

func (s *service) Messages(ctx context.Context, actor types.Actor, threadID uuid.UUID, params pagination.Params) (pagination.Page[MessageDTO], error) {
	if _, _, err := s.participant(ctx, actor, threadID); err != nil {
		return pagination.Page[MessageDTO]{}, err
	}
	rows, err := s.repo.PageMessages(ctx, threadID, params)
	if err != nil {
		return pagination.Page[MessageDTO]{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load messages")
	}
	items := make([]MessageDTO, 0, len(rows))
	for i := range rows {
		items = append(items, messageFromModel(&rows[i]))
	}
	return pagination.Build(items, params.Limit, func(m MessageDTO) pagination.Cursor {
		return pagination.Cursor{CreatedAt: m.CreatedAt, ID: m.ID}
	}), nil
}

func (s *service) SellerInbox(ctx context.Context, actor types.Actor) ([]ProductThreads, error) {
	if !actor.IsSeller() {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "seller access required")
	}
	threads, err := s.repo.ThreadsForSeller(ctx, actor.UserID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load inbox")
	}

	// threads arrive newest first, so each group's first thread sets its position
	groups := []ProductThreads{}
	index := map[uuid.UUID]int{}
	for _, thread := range threads {
		i, ok := index[thread.ProductID]
		if !ok {
			i = len(groups)
			index[thread.ProductID] = i
			groups = append(groups, ProductThreads{
				ProductID:     thread.ProductID,
				ProductName:   thread.ProductName,
				LastMessageAt: thread.LastMessageAt,
			})
		}
		groups[i].Threads = append(groups[i].Threads, thread)
	}
	return groups, nil
}

func (s *service) BuyerInbox(ctx context.Context, actor types.Actor) ([]ThreadDTO, error) {
	if actor.IsZero() {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	threads, err := s.repo.ThreadsForBuyer(ctx, actor.UserID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load inbox")
	}
	return threads, nil
}

// participant resolves which side of the thread the actor is on.
func (s *service) participant(ctx context.Context, actor types.Actor, threadID uuid.UUID) (*models.ChatThread, enums.SenderRole, error) {
	if actor.IsZero() {
		return nil, "", pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	thread, err := s.repo.FindThreadByID(ctx, threadID)
	if err != nil {
		return nil, "", pkgerrors.FromDB(err, "thread not found", "load thread")
	}
	switch actor.UserID {
	case thread.BuyerID:
		return thread, enums.SenderBuyer, nil
	case thread.SellerID:
		return thread, enums.SenderSeller, nil
	default:
		return nil, "", pkgerrors.New(pkgerrors.CodeForbidden, "not a participant in this thread")
	}
}

func (s *service) checkBody(ctx context.Context, body string) (string, error) {
	body = strings.TrimSpace(body)
	if body == "" || len([]rune(body)) > maxBodyLength {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "invalid message").
			WithDetails(map[string]string{"body": fmt.Sprintf("must be 1 to %d characters", maxBodyLength)})
	}
	if ContainsContactInfo(body) {
		s.metrics.IncBlockedMessage()
		if s.logg != nil {
			s.logg.Warn(ctx, "chat.message_blocked")
		}
		return "", pkgerrors.New(pkgerrors.CodeValidation, "messages cannot contain contact details").
			WithDetails(map[string]string{"body": "remove phone numbers, emails and contact requests"})
	}
	return body, nil
}
