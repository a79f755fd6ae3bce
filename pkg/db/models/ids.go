package models

import "github.com/google/uuid"

func ensureID(id *uuid.UUID) {
	if *id == uuid.Nil {
		*id = uuid.New()
	}
}

// All lists every persisted model, in dependency order.
func All() []any {
	return []any{
		&User{},
		&Category{},
		&Product{},
		&CartItem{},
		&Order{},
		&Review{},
		&ChatThread{},
		&ChatMessage{},
		&SellerApplication{},
		&OutboxEvent{},
		&Notification{},
	}
}
