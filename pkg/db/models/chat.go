package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/roorreach/marketplace-backend/pkg/enums"
)

// ChatThread is the conversation between one buyer and a product's seller.
type ChatThread struct {
	ID                 uuid.UUID  `gorm:"column:id;type:uuid;primaryKey"`
	ProductID          uuid.UUID  `gorm:"column:product_id;type:uuid;not null;uniqueIndex:idx_chat_threads_product_buyer"`
	BuyerID            uuid.UUID  `gorm:"column:buyer_id;type:uuid;not null;uniqueIndex:idx_chat_threads_product_buyer"`
	SellerID           uuid.UUID  `gorm:"column:seller_id;type:uuid;not null;index"`
	LastMessageAt      *time.Time `gorm:"column:last_message_at"`
	LastMessagePreview string     `gorm:"column:last_message_preview;not null;default:''"`
	CreatedAt          time.Time  `gorm:"column:created_at;autoCreateTime"`
}

func (t *ChatThread) BeforeCreate(*gorm.DB) error {
	ensureID(&t.ID)
	return nil
}

type ChatMessage struct {
	ID         uuid.UUID        `gorm:"column:id;type:uuid;primaryKey"`
	ThreadID   uuid.UUID        `gorm:"column:thread_id;type:uuid;not null;index"`
	ProductID  uuid.UUID        `gorm:"column:product_id;type:uuid;not null"`
	SenderID   uuid.UUID        `gorm:"column:sender_id;type:uuid;not null"`
	SenderRole enums.SenderRole `gorm:"column:sender_role;type:sender_role;not null"`
	Body       string           `gorm:"column:body;not null"`
	CreatedAt  time.Time        `gorm:"column:created_at;autoCreateTime"`
}

func (m *ChatMessage) BeforeCreate(*gorm.DB) error {
	ensureID(&m.ID)
	return nil
}
