package notifications

import "context"

// StoreAPI is the persistence the service needs; *Store implements it.
type StoreAPI interface {
	CreateNotification(ctx context.Context, tenantID, userID, ntype, title, body string) error
	ListNotifications(ctx context.Context, tenantID, userID string, unreadOnly bool, limit, offset int) ([]Notification, error)
	CountNotifications(ctx context.Context, tenantID, userID string, unreadOnly bool) (int, error)
	MarkRead(ctx context.Context, tenantID, userID, notificationID string) error
	MarkAllRead(ctx context.Context, tenantID, userID string) (int64, error)

	UserEmail(ctx context.Context, tenantID, userID string) (string, error)
	UserIDsWithRoles(ctx context.Context, tenantID string, roleNames ...string) ([]string, error)

	Settings(ctx context.Context, tenantID string) (Settings, error)
	SaveSettings(ctx context.Context, tenantID string, in Settings) error
}
