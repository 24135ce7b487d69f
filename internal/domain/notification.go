package domain

import (
	"encoding/json"
	"time"
)

type NotificationType string

const (
	NotifBookingCreated   NotificationType = "booking_created"
	NotifBookingCancelled NotificationType = "booking_cancelled"
	NotifBookingUpdated   NotificationType = "booking_updated"
	NotifReminderDaily    NotificationType = "reminder_daily"
	NotifReminderImminent NotificationType = "reminder_imminent"
)

type Notification struct {
	ID        int64            `json:"id"`
	UserID    int64            `json:"user_id" gorm:"index:idx_notifications_user_unread"`
	Type      NotificationType `json:"type"`
	Title     string           `json:"title"`
	Message   string           `json:"message,omitempty" gorm:"type:text"`
	Data      json.RawMessage  `json:"data,omitempty" gorm:"column:data;type:jsonb"`
	IsRead    bool             `json:"is_read" gorm:"index:idx_notifications_user_unread"`
	CreatedAt time.Time        `json:"created_at"`
}

func (Notification) TableName() string { return "notifications" }
