package messaging

import (
	"time"

	"github.com/google/uuid"

	"github.com/roorreach/marketplace-backend/pkg/db/models"
	"github.com/roorreach/marketplace-backend/pkg/enums"
)

// MessageDTO is one chat message.
type MessageDTO struct {
	ID         uuid.UUID        `json:"id"`
	ThreadID   uuid.UUID        `json:"thread_id"`
	ProductID  uuid.UUID        `json:"product_id"`
	SenderID   uuid.UUID        `json:"sender_id"`
	SenderRole enums.SenderRole `json:"sender_role"`
	Body       string           `json:"body"`
	CreatedAt  time.Time        `json:"created_at"`
}

// ThreadDTO is a thread with the names of everything it refers to.
type ThreadDTO struct {
	ID                 uuid.UUID  `json:"id"`
	ProductID          uuid.UUID  `json:"product_id"`
	ProductName        string     `json:"product_name"`
	BuyerID            uuid.UUID  `json:"buyer_id"`
	BuyerName          string     `json:"buyer_name"`
	SellerID           uuid.UUID  `json:"seller_id"`
	SellerName         string     `json:"seller_name"`
	LastMessageAt      *time.Time `json:"last_message_at,omitempty"`
	LastMessagePreview string     `json:"last_message_preview"`
	HasOrdered         bool       `json:"has_ordered"`
	CreatedAt          time.Time  `json:"created_at"`
}

// ThreadView is a buyer's conversation about one product.
type ThreadView struct {
	ProductID   uuid.UUID    `json:"product_id"`
	ProductName string       `json:"product_name"`
	Thread      *ThreadDTO   `json:"thread,omitempty"`
	Messages    []MessageDTO `json:"messages"`
}

// ProductThreads groups a seller's threads under one product.
type ProductThreads struct {
	ProductID     uuid.UUID   `json:"product_id"`
	ProductName   string      `json:"product_name"`
	LastMessageAt *time.Time  `json:"last_message_at,omitempty"`
	Threads       []ThreadDTO `json:"threads"`
}

// SendRequest is the body of a chat post.
type SendRequest struct {
	Body string `json:"body" validate:"required,max=2000"`
}

func messageFromModel(m *models.ChatMessage) MessageDTO {
	return MessageDTO{
		ID:         m.ID,
		ThreadID:   m.ThreadID,
		ProductID:  m.ProductID,
		SenderID:   m.SenderID,
		SenderRole: m.SenderRole,
		Body:       m.Body,
		CreatedAt:  m.CreatedAt,
	}
}
