package models

import "time"

// Subscription maps an opaque user identifier to a chat destination.
type Subscription struct {
	UserID    string    `json:"userId"`
	ChatID    string    `json:"chatId"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// SubscriptionRequest upserts a Subscription.
type SubscriptionRequest struct {
	UserID string `json:"userId" form:"userId" validate:"required,max=128"`
	ChatID string `json:"chatId" form:"chatId" validate:"required,max=64"`
}

// SubscriptionPath addresses one subscription.
type SubscriptionPath struct {
	UserID string `param:"userId" validate:"required,max=128"`
}

// SendMessageRequest is the relay dispatch call.
type SendMessageRequest struct {
	UserID  string `json:"userId" form:"userId" validate:"required,max=128"`
	Message string `json:"message" form:"message" validate:"required,max=4096"`
	Lang    string `json:"lang" form:"lang" default:"en" validate:"oneof=en ru"`
}

// Notification is what the serving side asks the relay to deliver.
type Notification struct {
	UserID  string
	Message string
	Lang    string
}

// Delivery is a message resolved to a chat destination.
type Delivery struct {
	ChatID string `json:"chat_id"`
	Text   string `json:"text"`
	Lang   string `json:"lang"`
	UserID string `json:"user_id"`
}
