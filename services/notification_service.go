package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/gamifylearn/gamification-api/database"
	"github.com/gamifylearn/gamification-api/model"
	"github.com/gofiber/fiber/v2/log"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

var ErrNotificationNotFound = errors.New("notification not found")

// Notifier delivers a notification to one user
type Notifier interface {
	CreateNotification(ctx context.Context, in NotificationInput) (*model.UserNotification, error)
}

var _ Notifier = (*NotificationService)(nil)

// NotificationService persists user notifications and mails them when possible
type NotificationService struct {
	db     *gorm.DB
	users  database.UserStore
	mailer Mailer
}

// NewNotificationService creates a new notification service; users and mailer may be nil
func NewNotificationService(db *gorm.DB, users database.UserStore, mailer Mailer) *NotificationService {
	return &NotificationService{db: db, users: users, mailer: mailer}
}

// NotificationInput represents a request to create a notification
type NotificationInput struct {
	UserID   primitive.ObjectID
	CourseID primitive.ObjectID
	Type     model.NotificationType
	Title    string
	Message  string
	Metadata map[string]any
}

// ListNotificationsOptions represents options for listing notifications
type ListNotificationsOptions struct {
	UserID     string
	UnreadOnly bool
	Limit      int
	Offset     int
}

// CreateNotification stores the notification, then emails the user if a mailer is configured.
// Email failures are logged and do not fail the call.
func (s *NotificationService) CreateNotification(ctx context.Context, in NotificationInput) (*model.UserNotification, error) {
	if in.Type == "" {
		in.Type = model.NotificationTypeInfo
	}
	if in.Title == "" {
		in.Title = in.Message
	}

	notification := &model.UserNotification{
		UserID:  in.UserID.Hex(),
		Type:    in.Type,
		Title:   in.Title,
		Message: in.Message,
	}
	if !in.CourseID.IsZero() {
		notification.CourseID = in.CourseID.Hex()
	}

	if len(in.Metadata) > 0 {
		metadataJSON, err := json.Marshal(in.Metadata)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal metadata: %w", err)
		}
		notification.Metadata = datatypes.JSON(metadataJSON)
	}

	if err := s.db.WithContext(ctx).Create(notification).Error; err != nil {
		return nil, fmt.Errorf("failed to create notification: %w", err)
	}

	s.mail(ctx, in)
	return notification, nil
}

func (s *NotificationService) mail(ctx context.Context, in NotificationInput) {
	if s.mailer == nil || s.users == nil {
		return
	}

	user, err := s.users.GetUser(ctx, in.UserID)
	if err != nil {
		log.Warnf("notification email skipped for %s: %v", in.UserID.Hex(), err)
		return
	}
	if user.Email == "" {
		return
	}

	if err := s.mailer.Send(ctx, user.Email, user.Username, in.Title, in.Message); err != nil {
		log.Warnf("notification email to %s failed: %v", user.Email, err)
	}
}

// GetNotificationsByUser retrieves notifications for a user, newest first
func (s *NotificationService) GetNotificationsByUser(ctx context.Context, opts ListNotificationsOptions) ([]model.UserNotification, int64, error) {
	var notifications []model.UserNotification
	var total int64

	query := s.db.WithContext(ctx).Model(&model.UserNotification{}).
		Where("user_id = ?", opts.UserID)

	if opts.UnreadOnly {
		query = query.Where("read = ?", false)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count notifications: %w", err)
	}

	if opts.Limit > 0 {
		query = query.Limit(opts.Limit)
	} else {
		query = query.Limit(50)
	}
	if opts.Offset > 0 {
		query = query.Offset(opts.Offset)
	}

	if err := query.Order("created_at DESC").Find(&notifications).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to fetch notifications: %w", err)
	}

	return notifications, total, nil
}

// MarkAsRead marks one of the user's notifications as read
func (s *NotificationService) MarkAsRead(ctx context.Context, notificationID uint, userID string) error {
	result := s.db.WithContext(ctx).Model(&model.UserNotification{}).
		Where("id = ? AND user_id = ?", notificationID, userID).
		Update("read", true)

	if result.Error != nil {
		return fmt.Errorf("failed to mark notification as read: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotificationNotFound
	}
	return nil
}

// MarkAllAsRead marks all notifications for a user as read
func (s *NotificationService) MarkAllAsRead(ctx context.Context, userID string) (int64, error) {
	result := s.db.WithContext(ctx).Model(&model.UserNotification{}).
		Where("user_id = ? AND read = ?", userID, false).
		Update("read", true)

	if result.Error != nil {
		return 0, fmt.Errorf("failed to mark all notifications as read: %w", result.Error)
	}
	return result.RowsAffected, nil
}

// GetUnreadCount returns the count of unread notifications for a user
func (s *NotificationService) GetUnreadCount(ctx context.Context, userID string) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&model.UserNotification{}).
		Where("user_id = ? AND read = ?", userID, false).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count unread notifications: %w", err)
	}
	return count, nil
}

// CleanupOldNotifications removes read notifications older than the given age
func (s *NotificationService) CleanupOldNotifications(ctx context.Context, olderThan time.Duration) (int64, error) {
	cutoff := time.Now().Add(-olderThan)

	result := s.db.WithContext(ctx).
		Where("created_at < ? AND read = ?", cutoff, true).
		Delete(&model.UserNotification{})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to cleanup old notifications: %w", result.Error)
	}

	return result.RowsAffected, nil
}
