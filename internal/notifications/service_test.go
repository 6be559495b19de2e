package notifications

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/sellspay/settlements-backend/pkg/db/models"
	"github.com/sellspay/settlements-backend/pkg/enums"
	pkgerrors "github.com/sellspay/settlements-backend/pkg/errors"
	"github.com/sellspay/settlements-backend/pkg/pagination"
)

func setupNotificationsTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := "file:notifications_" + uuid.NewString() + "?mode=memory&cache=shared"
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, conn.Exec(`
CREATE TABLE IF NOT EXISTS admin_notifications (
  id TEXT PRIMARY KEY,
  kind TEXT NOT NULL,
  seller_id TEXT NOT NULL,
  payout_id TEXT,
  message TEXT NOT NULL,
  read_at DATETIME,
  created_at DATETIME
);`).Error)
	return conn
}

func newNotificationsService(t *testing.T, conn *gorm.DB) Service {
	t.Helper()
	svc, err := NewService(NewRepository(conn))
	require.NoError(t, err)
	return svc
}

func testPayout(sellerID uuid.UUID) *models.Payout {
	return &models.Payout{
		ID:          uuid.New(),
		SellerID:    sellerID,
		AmountCents: 5000,
		Provider:    enums.PayoutProviderPayPal,
		Status:      enums.PayoutStatusRequested,
	}
}

func TestPayoutLifecycleNotifications(t *testing.T) {
	conn := setupNotificationsTestDB(t)
	svc := newNotificationsService(t, conn)
	ctx := context.Background()

	sellerID := uuid.New()
	payout := testPayout(sellerID)

	require.NoError(t, svc.PayoutRequested(ctx, conn, payout))
	require.NoError(t, svc.PayoutFailed(ctx, conn, payout, "account closed"))
	require.NoError(t, svc.PayoutStuck(ctx, conn, payout, "provider call timed out"))

	var rows []models.AdminNotification
	require.NoError(t, conn.Where("seller_id = ?", sellerID).Find(&rows).Error)
	require.Len(t, rows, 3)

	byKind := make(map[enums.NotificationKind]models.AdminNotification, len(rows))
	for _, row := range rows {
		byKind[row.Kind] = row
	}
	require.Contains(t, byKind[enums.NotificationKindPayoutRequested].Message, "awaiting approval")
	require.Contains(t, byKind[enums.NotificationKindPayoutFailed].Message, "account closed")
	require.Contains(t, byKind[enums.NotificationKindPayoutStuck].Message, "needs reconciliation")
	for _, row := range rows {
		require.NotNil(t, row.PayoutID)
		require.Equal(t, payout.ID, *row.PayoutID)
		require.Nil(t, row.ReadAt)
	}
}

func TestNotificationCreateRequiresPayout(t *testing.T) {
	conn := setupNotificationsTestDB(t)
	svc := newNotificationsService(t, conn)

	err := svc.PayoutRequested(context.Background(), conn, nil)
	if !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestListUnreadOnlyAndPagination(t *testing.T) {
	conn := setupNotificationsTestDB(t)
	svc := newNotificationsService(t, conn)
	ctx := context.Background()

	base := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	var first uuid.UUID
	for i := 0; i < 5; i++ {
		notification := &models.AdminNotification{
			ID:        uuid.New(),
			Kind:      enums.NotificationKindPayoutRequested,
			SellerID:  uuid.New(),
			Message:   "payout awaiting approval",
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}
		require.NoError(t, conn.Create(notification).Error)
		if i == 0 {
			first = notification.ID
		}
	}
	require.NoError(t, svc.MarkRead(ctx, first))

	unread, err := svc.List(ctx, pagination.Params{Limit: 10}, true)
	require.NoError(t, err)
	require.Len(t, unread.Notifications, 4)
	for _, row := range unread.Notifications {
		require.NotEqual(t, first, row.ID)
	}

	page, err := svc.List(ctx, pagination.Params{Limit: 3}, false)
	require.NoError(t, err)
	require.Len(t, page.Notifications, 3)
	require.NotEmpty(t, page.NextCursor)
	// Newest first.
	require.True(t, page.Notifications[0].CreatedAt.After(page.Notifications[1].CreatedAt))

	rest, err := svc.List(ctx, pagination.Params{Limit: 10, Cursor: page.NextCursor}, false)
	require.NoError(t, err)
	require.Len(t, rest.Notifications, 2)
	require.Empty(t, rest.NextCursor)
}

func TestMarkReadIsSingleShot(t *testing.T) {
	conn := setupNotificationsTestDB(t)
	svc := newNotificationsService(t, conn)
	ctx := context.Background()

	notification := &models.AdminNotification{
		ID:       uuid.New(),
		Kind:     enums.NotificationKindPayoutFailed,
		SellerID: uuid.New(),
		Message:  "payout failed",
	}
	require.NoError(t, conn.Create(notification).Error)

	require.NoError(t, svc.MarkRead(ctx, notification.ID))

	var reloaded models.AdminNotification
	require.NoError(t, conn.Where("id = ?", notification.ID).First(&reloaded).Error)
	require.NotNil(t, reloaded.ReadAt)

	err := svc.MarkRead(ctx, notification.ID)
	if !pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
		t.Fatalf("expected not found on second mark, got %v", err)
	}

	err = svc.MarkRead(ctx, uuid.Nil)
	if !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}
