package model

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// NotificationType represents the kind of notification
type NotificationType string

const (
	NotificationTypeInfo         NotificationType = "info"
	NotificationTypeAnnouncement NotificationType = "announcement"
	NotificationTypeGrade        NotificationType = "grade"
	NotificationTypePayment      NotificationType = "payment"
)

// UserNotification represents a notification for a user.
// UserID and CourseID hold hex ObjectIDs from the document store.
type UserNotification struct {
	ID        uint             `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time        `json:"created_at"`
	UpdatedAt time.Time        `json:"updated_at"`
	DeletedAt gorm.DeletedAt   `gorm:"index" json:"deleted_at,omitempty"`
	UserID    string           `gorm:"type:varchar(24);index;not null" json:"user_id"`
	CourseID  string           `gorm:"type:varchar(24);index" json:"course_id,omitempty"`
	Type      NotificationType `gorm:"type:varchar(20);not null" json:"type"`
	Title     string           `gorm:"type:varchar(255);not null" json:"title"`
	Message   string           `gorm:"type:text" json:"message"`
	Read      bool             `gorm:"default:false" json:"read"`
	Metadata  datatypes.JSON   `gorm:"type:jsonb" json:"metadata,omitempty"`
}

// NotificationResponse represents the API response format for a notification
type NotificationResponse struct {
	ID        uint             `json:"id"`
	CourseID  string           `json:"course_id,omitempty"`
	Type      NotificationType `json:"type"`
	Title     string           `json:"title"`
	Message   string           `json:"message"`
	Read      bool             `json:"read"`
	Metadata  datatypes.JSON   `json:"metadata,omitempty"`
	CreatedAt time.Time        `json:"created_at"`
}

// ToResponse converts a UserNotification to NotificationResponse
func (n *UserNotification) ToResponse() NotificationResponse {
	return NotificationResponse{
		ID:        n.ID,
		CourseID:  n.CourseID,
		Type:      n.Type,
		Title:     n.Title,
		Message:   n.Message,
		Read:      n.Read,
		Metadata:  n.Metadata,
		CreatedAt: n.CreatedAt,
	}
}
