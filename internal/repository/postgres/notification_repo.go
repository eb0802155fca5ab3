package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"nammaraitha-backend/internal/domain"
)

// NotificationRepository handles notification persistence
type NotificationRepository struct {
	pool *pgxpool.Pool
}

// NewNotificationRepository creates a new notification repository
func NewNotificationRepository(pool *pgxpool.Pool) *NotificationRepository {
	return &NotificationRepository{pool: pool}
}

// Create inserts a new notification
func (r *NotificationRepository) Create(ctx context.Context, notification *domain.Notification) error {
	query := `
		INSERT INTO notifications (
			notification_id, user_id, type, title, body, data, is_read, is_pushed, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	var data []byte
	if notification.Data != nil {
		var err error
		data, err = json.Marshal(notification.Data)
		if err != nil {
			return fmt.Errorf("failed to marshal notification data: %w", err)
		}
	}

	_, err := r.pool.Exec(ctx, query,
		notification.NotificationID,
		notification.UserID,
		notification.Type,
		notification.Title,
		notification.Body,
		data,
		notification.IsRead,
		notification.IsPushed,
		notification.CreatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to create notification: %w", err)
	}

	return nil
}

// GetByUser retrieves a user's notifications, newest first
func (r *NotificationRepository) GetByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*domain.Notification, error) {
	query := `
		SELECT notification_id, user_id, type, title, body, data, is_read, is_pushed, created_at, read_at
		FROM notifications
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.pool.Query(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to get notifications: %w", err)
	}
	defer rows.Close()

	var notifications []*domain.Notification
	for rows.Next() {
		notification := &domain.Notification{}
		var data []byte
		err := rows.Scan(
			&notification.NotificationID,
			&notification.UserID,
			&notification.Type,
			&notification.Title,
			&notification.Body,
			&data,
			&notification.IsRead,
			&notification.IsPushed,
			&notification.CreatedAt,
			&notification.ReadAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan notification: %w", err)
		}
		if len(data) > 0 {
			if err := json.Unmarshal(data, &notification.Data); err != nil {
				return nil, fmt.Errorf("failed to unmarshal notification data: %w", err)
			}
		}
		notifications = append(notifications, notification)
	}

	return notifications, nil
}

// GetUnreadCount counts unread notifications for a user
func (r *NotificationRepository) GetUnreadCount(ctx context.Context, userID uuid.UUID) (int, error) {
	query := `SELECT COUNT(*) FROM notifications WHERE user_id = $1 AND is_read = false`

	var count int
	err := r.pool.QueryRow(ctx, query, userID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count unread notifications: %w", err)
	}

	return count, nil
}

// MarkAsRead marks one notification as read
func (r *NotificationRepository) MarkAsRead(ctx context.Context, notificationID, userID uuid.UUID) error {
	query := `
		UPDATE notifications
		SET is_read = true, read_at = $3
		WHERE notification_id = $1 AND user_id = $2
	`

	cmdTag, err := r.pool.Exec(ctx, query, notificationID, userID, time.Now())
	if err != nil {
		return fmt.Errorf("failed to mark notification read: %w", err)
	}

	if cmdTag.RowsAffected() == 0 {
		return fmt.Errorf("notification not found")
	}

	return nil
}

// MarkAllAsRead marks all of the user's notifications as read
func (r *NotificationRepository) MarkAllAsRead(ctx context.Context, userID uuid.UUID) error {
	query := `
		UPDATE notifications
		SET is_read = true, read_at = $2
		WHERE user_id = $1 AND is_read = false
	`

	_, err := r.pool.Exec(ctx, query, userID, time.Now())
	if err != nil {
		return fmt.Errorf("failed to mark notifications read: %w", err)
	}

	return nil
}

// MarkPushed records that a push was attempted for the notification
func (r *NotificationRepository) MarkPushed(ctx context.Context, notificationID uuid.UUID) error {
	query := `UPDATE notifications SET is_pushed = true WHERE notification_id = $1`

	_, err := r.pool.Exec(ctx, query, notificationID)
	if err != nil {
		return fmt.Errorf("failed to mark notification pushed: %w", err)
	}

	return nil
}
