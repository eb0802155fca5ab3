package domain

import (
	"time"

	"github.com/google/uuid"
)

// Notification types emitted by the marketplace
const (
	NotificationTypeMessage = "message" // new chat message
	NotificationTypeOrder   = "order"   // cart / purchase activity
	NotificationTypeSystem  = "system"
)

// Notification represents an in-app notification
// Maps to PostgreSQL notifications table
type Notification struct {
	NotificationID uuid.UUID              `json:"notification_id" db:"notification_id"`
	UserID         uuid.UUID              `json:"user_id" db:"user_id"`
	Type           string                 `json:"type" db:"type"`
	Title          string                 `json:"title" db:"title"`
	Body           string                 `json:"body" db:"body"`
	Data           map[string]interface{} `json:"data,omitempty" db:"data"`
	IsRead         bool                   `json:"is_read" db:"is_read"`
	IsPushed       bool                   `json:"is_pushed" db:"is_pushed"`
	CreatedAt      time.Time              `json:"created_at" db:"created_at"`
	ReadAt         *time.Time             `json:"read_at,omitempty" db:"read_at"`
}

// NotificationCreate represents data to create a notification
type NotificationCreate struct {
	UserID uuid.UUID              `json:"user_id" binding:"required"`
	Type   string                 `json:"type" binding:"required,oneof=message order system"`
	Title  string                 `json:"title" binding:"required"`
	Body   string                 `json:"body" binding:"required"`
	Data   map[string]interface{} `json:"data,omitempty"`
}

// UnreadCounts aggregates the two dashboard badges: unread chat
// messages across the user's conversations and unread notifications.
type UnreadCounts struct {
	Messages      int `json:"messages"`
	Notifications int `json:"notifications"`
}
