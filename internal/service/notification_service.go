package service

import (
	"context"

	"github.com/testprepai/testprep-backend/internal/model"
	"github.com/testprepai/testprep-backend/internal/repository"
)

// NotificationService handles in-app notification business logic.
type NotificationService struct {
	repo *repository.NotificationRepository
}

// NewNotificationService creates a new NotificationService.
func NewNotificationService(repo *repository.NotificationRepository) *NotificationService {
	return &NotificationService{repo: repo}
}

// List retrieves a user's notifications, newest first.
func (s *NotificationService) List(ctx context.Context, userID, page, perPage int) ([]model.Notification, int, error) {
	offset := (page - 1) * perPage
	return s.repo.ListByUser(ctx, userID, perPage, offset)
}

// MarkRead flags a notification as read. Returns false when the notification
// does not exist or belongs to someone else.
func (s *NotificationService) MarkRead(ctx context.Context, id, userID int) (bool, error) {
	affected, err := s.repo.MarkRead(ctx, id, userID)
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

// MarkAllRead flags every unread notification as read.
func (s *NotificationService) MarkAllRead(ctx context.Context, userID int) error {
	return s.repo.MarkAllRead(ctx, userID)
}

// CountUnread returns the unread count for the badge.
func (s *NotificationService) CountUnread(ctx context.Context, userID int) (int, error) {
	return s.repo.CountUnread(ctx, userID)
}
