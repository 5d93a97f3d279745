package attendance

import (
	"context"
	"strings"
	"time"

	"hrconsole/internal/domain/auth"
)

type Service struct {
	Store        StoreAPI
	WorkdayStart time.Duration
	Now          func() time.Time
}

func NewService(store StoreAPI, workdayStart time.Duration) *Service {
	return &Service{Store: store, WorkdayStart: workdayStart, Now: time.Now}
}

func (s *Service) now() time.Time {
	if s.Now == nil {
		return time.Now().UTC()
	}
	return s.Now().UTC()
}

func (s *Service) self(ctx context.Context, user auth.UserContext) (string, error) {
	return s.Store.EmployeeByUser(ctx, user.TenantID, user.UserID)
}

func (s *Service) ClockIn(ctx context.Context, user auth.UserContext, note string) (Record, error) {
	employeeID, err := s.self(ctx, user)
	if err != nil {
		return Record{}, err
	}
	return s.Store.ClockIn(ctx, user.TenantID, employeeID, s.now(), strings.TrimSpace(note))
}

func (s *Service) ClockOut(ctx context.Context, user auth.UserContext, note string) (Record, error) {
	employeeID, err := s.self(ctx, user)
	if err != nil {
		return Record{}, err
	}
	return s.Store.ClockOut(ctx, user.TenantID, employeeID, s.now(), strings.TrimSpace(note))
}

// resolve picks the employee a read is about and checks the caller may see
// it. HR reads anyone and an empty target means every employee; everyone else
// reads themselves or a direct report.
func (s *Service) resolve(ctx context.Context, user auth.UserContext, target string) (string, error) {
	if auth.IsHR(user.RoleName) {
		return target, nil
	}
	selfID, err := s.self(ctx, user)
	if err != nil {
		return "", err
	}
	if target == "" || target == selfID {
		return selfID, nil
	}
	managerID, err := s.Store.ManagerOf(ctx, user.TenantID, target)
	if err != nil {
		return "", err
	}
	if managerID != selfID {
		return "", ErrForbidden
	}
	return target, nil
}

// window defaults an empty range to the current month so far.
func (s *Service) window(from, to time.Time) (time.Time, time.Time) {
	now := s.now()
	if to.IsZero() {
		to = now
	}
	if from.IsZero() {
		from = time.Date(to.Year(), to.Month(), 1, 0, 0, 0, 0, time.UTC)
	}
	return from, to
}

func (s *Service) List(ctx context.Context, user auth.UserContext, filter Filter) ([]Record, int, error) {
	employeeID, err := s.resolve(ctx, user, filter.EmployeeID)
	if err != nil {
		return nil, 0, err
	}
	filter.EmployeeID = employeeID
	filter.From, filter.To = s.window(filter.From, filter.To)
	if filter.Limit <= 0 || filter.Limit > 500 {
		filter.Limit = 100
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}
	return s.Store.List(ctx, user.TenantID, filter)
}

const summaryPageSize = 500

func (s *Service) Summary(ctx context.Context, user auth.UserContext, employeeID string, from, to time.Time) (Summary, error) {
	target, err := s.resolve(ctx, user, employeeID)
	if err != nil {
		return Summary{}, err
	}
	from, to = s.window(from, to)
	var all []Record
	for offset := 0; ; offset += summaryPageSize {
		page, total, err := s.Store.List(ctx, user.TenantID, Filter{EmployeeID: target, From: from, To: to, Limit: summaryPageSize, Offset: offset})
		if err != nil {
			return Summary{}, err
		}
		all = append(all, page...)
		if len(page) < summaryPageSize || len(all) >= total {
			break
		}
	}
	summary := Summarize(all, s.WorkdayStart)
	summary.EmployeeID = target
	return summary, nil
}
