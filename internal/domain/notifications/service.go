package notifications

import (
	"cmp"
	"context"
	"log/slog"
)

type Mailer interface {
	Send(ctx context.Context, from, to, subject, body string) error
}

type Service struct {
	store       StoreAPI
	Mailer      Mailer
	DefaultFrom string
}

func New(store StoreAPI, mailer Mailer, defaultFrom string) *Service {
	return &Service{store: store, Mailer: mailer, DefaultFrom: cmp.Or(defaultFrom, "no-reply@example.com")}
}

// Create stores an in-app notification for userID and, when the tenant
// enabled it, mirrors it by email. Only the in-app write can fail the call.
func (s *Service) Create(ctx context.Context, tenantID, userID, ntype, title, body string) error {
	if userID == "" {
		return nil
	}
	if err := s.store.CreateNotification(ctx, tenantID, userID, ntype, title, body); err != nil {
		return err
	}
	if s.Mailer != nil {
		s.mirror(ctx, tenantID, userID, title, body)
	}
	return nil
}

func (s *Service) mirror(ctx context.Context, tenantID, userID, subject, body string) {
	settings, err := s.store.Settings(ctx, tenantID)
	if err != nil {
		slog.Warn("notification settings lookup failed", "tenantId", tenantID, "err", err)
		return
	}
	if !settings.EmailEnabled {
		return
	}
	to, err := s.store.UserEmail(ctx, tenantID, userID)
	if err != nil || to == "" {
		if err != nil {
			slog.Warn("notification recipient lookup failed", "userId", userID, "err", err)
		}
		return
	}
	from := cmp.Or(settings.EmailFrom, s.DefaultFrom)
	if err := s.Mailer.Send(ctx, from, to, subject, body); err != nil {
		slog.Warn("notification email send failed", "userId", userID, "err", err)
	}
}

// NotifyRoles sends the same notification to every active user holding one
// of roleNames, skipping except.
func (s *Service) NotifyRoles(ctx context.Context, tenantID, except, ntype, title, body string, roleNames ...string) error {
	userIDs, err := s.store.UserIDsWithRoles(ctx, tenantID, roleNames...)
	if err != nil {
		return err
	}
	for _, id := range userIDs {
		if id == except {
			continue
		}
		if err := s.Create(ctx, tenantID, id, ntype, title, body); err != nil {
			return err
		}
	}
	return nil
}

func (s *Service) List(ctx context.Context, tenantID, userID string, unreadOnly bool, limit, offset int) ([]Notification, int, error) {
	items, err := s.store.ListNotifications(ctx, tenantID, userID, unreadOnly, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.store.CountNotifications(ctx, tenantID, userID, unreadOnly)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func (s *Service) UnreadCount(ctx context.Context, tenantID, userID string) (int, error) {
	return s.store.CountNotifications(ctx, tenantID, userID, true)
}

func (s *Service) MarkRead(ctx context.Context, tenantID, userID, notificationID string) error {
	return s.store.MarkRead(ctx, tenantID, userID, notificationID)
}

func (s *Service) MarkAllRead(ctx context.Context, tenantID, userID string) (int64, error) {
	return s.store.MarkAllRead(ctx, tenantID, userID)
}

func (s *Service) Settings(ctx context.Context, tenantID string) (Settings, error) {
	return s.store.Settings(ctx, tenantID)
}

// UpdateSettings saves in and returns the settings it replaced.
func (s *Service) UpdateSettings(ctx context.Context, tenantID string, in Settings) (Settings, error) {
	before, err := s.store.Settings(ctx, tenantID)
	if err != nil {
		return Settings{}, err
	}
	if err := s.store.SaveSettings(ctx, tenantID, in); err != nil {
		return Settings{}, err
	}
	return before, nil
}
