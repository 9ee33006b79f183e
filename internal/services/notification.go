package services

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/safetytracker/safetytracker/internal/models"
	apperrors "github.com/safetytracker/safetytracker/internal/pkg/errors"
	"github.com/safetytracker/safetytracker/internal/repositories"
)

type NotificationService struct {
	notifications *repositories.NotificationRepository
	pusher        Pusher
}

func NewNotificationService(notifications *repositories.NotificationRepository, pusher Pusher) *NotificationService {
	if pusher == nil {
		pusher = noopPusher{}
	}
	return &NotificationService{notifications: notifications, pusher: pusher}
}

// List returns the user's notifications newest first and the unread count.
func (s *NotificationService) List(ctx context.Context, user *models.User) ([]models.Notification, int64, error) {
	items, err := s.notifications.ListForUser(ctx, user.ID)
	if err != nil {
		return nil, 0, apperrors.Internal(apperrors.CodeInternal, "failed to list notifications", err)
	}
	unread, err := s.notifications.UnreadCount(ctx, user.ID)
	if err != nil {
		return nil, 0, apperrors.Internal(apperrors.CodeInternal, "failed to count notifications", err)
	}
	return items, unread, nil
}

// MarkRead marks one of the user's notifications read. Marking an already read
// notification succeeds. Notifications owned by someone else are NotFound.
func (s *NotificationService) MarkRead(ctx context.Context, user *models.User, id uint) (*models.Notification, error) {
	n, err := s.notifications.FindForUser(ctx, id, user.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound(apperrors.CodeNotificationNotFound, "notification not found")
		}
		return nil, apperrors.Internal(apperrors.CodeInternal, "failed to load notification", err)
	}

	if n.IsRead {
		return n, nil
	}

	if err := s.notifications.MarkRead(ctx, n.ID, user.ID); err != nil {
		return nil, apperrors.Internal(apperrors.CodeInternal, "failed to mark notification read", err)
	}
	n.IsRead = true
	s.pusher.Refresh(user.ID)

	return n, nil
}

// MarkAllRead marks every currently unread notification of the user read and
// returns how many changed.
func (s *NotificationService) MarkAllRead(ctx context.Context, user *models.User) (int64, error) {
	changed, err := s.notifications.MarkAllRead(ctx, user.ID)
	if err != nil {
		return 0, apperrors.Internal(apperrors.CodeInternal, "failed to mark notifications read", err)
	}
	if changed > 0 {
		s.pusher.Refresh(user.ID)
	}
	return changed, nil
}

// UnreadCount is zero for anonymous callers.
func (s *NotificationService) UnreadCount(ctx context.Context, user *models.User) (int64, error) {
	if user == nil {
		return 0, nil
	}
	n, err := s.notifications.UnreadCount(ctx, user.ID)
	if err != nil {
		return 0, apperrors.Internal(apperrors.CodeInternal, "failed to count notifications", err)
	}
	return n, nil
}
