package notifications

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/sellspay/settlements-backend/pkg/db/models"
	"github.com/sellspay/settlements-backend/pkg/pagination"
)

// Repository manages persistence for admin notifications.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, notification *models.AdminNotification) error
	List(ctx context.Context, params pagination.Params, unreadOnly bool) (*NotificationList, error)
	MarkRead(ctx context.Context, id uuid.UUID) (bool, error)
}

// NotificationList is one cursor page of admin notifications.
type NotificationList struct {
	Notifications []models.AdminNotification
	NextCursor    string
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a notifications repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, notification *models.AdminNotification) error {
	return r.db.WithContext(ctx).Create(notification).Error
}

func (r *repository) List(ctx context.Context, params pagination.Params, unreadOnly bool) (*NotificationList, error) {
	limit := pagination.NormalizeLimit(params.Limit)
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, err
	}

	query := r.db.WithContext(ctx)
	if unreadOnly {
		query = query.Where("read_at IS NULL")
	}
	if cursor != nil {
		query = query.Where("(created_at, id) < (?, ?)", cursor.CreatedAt, cursor.ID)
	}

	var notifications []models.AdminNotification
	err = query.
		Order("created_at DESC, id DESC").
		Limit(limit + 1).
		Find(&notifications).Error
	if err != nil {
		return nil, err
	}

	list := &NotificationList{Notifications: notifications}
	if len(notifications) > limit {
		list.Notifications = notifications[:limit]
		last := list.Notifications[limit-1]
		list.NextCursor = pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
	}
	return list, nil
}

func (r *repository) MarkRead(ctx context.Context, id uuid.UUID) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.AdminNotification{}).
		Where("id = ? AND read_at IS NULL", id).
		Update("read_at", time.Now().UTC())
	return result.RowsAffected == 1, result.Error
}
