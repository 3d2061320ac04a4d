package notification

import (
	"context"
	"errors"
	"strconv"

	"github.com/gamifylearn/gamification-api/model"
	"github.com/gamifylearn/gamification-api/services"
	"github.com/gamifylearn/gamification-api/utils/apperror"
	"github.com/gamifylearn/gamification-api/utils/middleware"
	"github.com/gamifylearn/gamification-api/utils/response"
	"github.com/gofiber/fiber/v2"
)

// Inbox is the part of the notification service the handler reads and updates
type Inbox interface {
	GetNotificationsByUser(ctx context.Context, opts services.ListNotificationsOptions) ([]model.UserNotification, int64, error)
	GetUnreadCount(ctx context.Context, userID string) (int64, error)
	MarkAsRead(ctx context.Context, notificationID uint, userID string) error
	MarkAllAsRead(ctx context.Context, userID string) (int64, error)
}

// NotificationHandler handles notification-related API endpoints
type NotificationHandler struct {
	inbox Inbox
}

// NewNotificationHandler creates a new notification handler
func NewNotificationHandler(inbox Inbox) *NotificationHandler {
	return &NotificationHandler{
		inbox: inbox,
	}
}

// GetNotifications handles GET /api/v1/notification
// Returns the caller's notifications, newest first
func (h *NotificationHandler) GetNotifications(c *fiber.Ctx) error {
	caller, ok := middleware.CallerFrom(c)
	if !ok {
		return apperror.Unauthorized("")
	}
	userID := caller.AccountID().Hex()

	unreadOnly := c.Query("unread_only") == "true"
	limit, _ := strconv.Atoi(c.Query("limit", "50"))
	offset, _ := strconv.Atoi(c.Query("offset", "0"))

	if limit < 1 || limit > 100 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	ctx := c.UserContext()
	notifications, total, err := h.inbox.GetNotificationsByUser(ctx, services.ListNotificationsOptions{
		UserID:     userID,
		UnreadOnly: unreadOnly,
		Limit:      limit,
		Offset:     offset,
	})
	if err != nil {
		return apperror.Internal(err)
	}

	responseData := make([]model.NotificationResponse, 0, len(notifications))
	for i := range notifications {
		responseData = append(responseData, notifications[i].ToResponse())
	}

	unreadCount, err := h.inbox.GetUnreadCount(ctx, userID)
	if err != nil {
		return apperror.Internal(err)
	}

	return response.Success(c, fiber.Map{
		"notifications": responseData,
		"total":         total,
		"unread_count":  unreadCount,
		"limit":         limit,
		"offset":        offset,
	}, "Notifications fetched successfully")
}

// MarkAsRead handles PATCH /api/v1/notification/:id/read
func (h *NotificationHandler) MarkAsRead(c *fiber.Ctx) error {
	caller, ok := middleware.CallerFrom(c)
	if !ok {
		return apperror.Unauthorized("")
	}

	notificationID, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return apperror.BadRequest("Invalid notification ID")
	}

	if err := h.inbox.MarkAsRead(c.UserContext(), uint(notificationID), caller.AccountID().Hex()); err != nil {
		if errors.Is(err, services.ErrNotificationNotFound) {
			return apperror.NotFound("Notification not found")
		}
		return apperror.Internal(err)
	}

	return response.Success(c, nil, "Notification marked as read")
}

// MarkAllAsRead handles PATCH /api/v1/notification/read-all
func (h *NotificationHandler) MarkAllAsRead(c *fiber.Ctx) error {
	caller, ok := middleware.CallerFrom(c)
	if !ok {
		return apperror.Unauthorized("")
	}

	count, err := h.inbox.MarkAllAsRead(c.UserContext(), caller.AccountID().Hex())
	if err != nil {
		return apperror.Internal(err)
	}

	return response.Success(c, fiber.Map{"count": count}, "All notifications marked as read")
}
