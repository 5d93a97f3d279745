package leave

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"hrconsole/internal/domain/auth"
	"hrconsole/internal/domain/notifications"
)

// Notifier is satisfied by notifications.Service.
type Notifier interface {
	Create(ctx context.Context, tenantID, userID, ntype, title, body string) error
	NotifyRoles(ctx context.Context, tenantID, except, ntype, title, body string, roleNames ...string) error
}

type Service struct {
	Store  StoreAPI
	Notify Notifier
	Now    func() time.Time
}

func NewService(store StoreAPI, notify Notifier) *Service {
	return &Service{Store: store, Notify: notify, Now: time.Now}
}

func (s *Service) now() time.Time {
	if s.Now == nil {
		return time.Now().UTC()
	}
	return s.Now().UTC()
}

// Actor resolves the caller's employee id; users without an employee record
// can still act as HR.
func (s *Service) Actor(ctx context.Context, user auth.UserContext) (Actor, error) {
	a := Actor{UserID: user.UserID, TenantID: user.TenantID, RoleName: user.RoleName}
	emp, err := s.Store.EmployeeByUser(ctx, user.TenantID, user.UserID)
	switch {
	case err == nil:
		a.EmployeeID = emp.ID
	case !errors.Is(err, ErrNoEmployee):
		return Actor{}, err
	}
	return a, nil
}

func (s *Service) ListTypes(ctx context.Context, tenantID string) ([]LeaveType, error) {
	return s.Store.ListTypes(ctx, tenantID)
}

func (s *Service) CreateType(ctx context.Context, tenantID string, t LeaveType) (LeaveType, error) {
	t.Name = strings.TrimSpace(t.Name)
	t.Code = strings.ToUpper(strings.TrimSpace(t.Code))
	id, err := s.Store.CreateType(ctx, tenantID, t)
	if err != nil {
		return LeaveType{}, err
	}
	t.ID = id
	return t, nil
}

func (s *Service) ListPolicies(ctx context.Context, tenantID string) ([]Policy, error) {
	return s.Store.ListPolicies(ctx, tenantID)
}

func (s *Service) UpsertPolicy(ctx context.Context, tenantID string, p Policy) (Policy, error) {
	if p.AccrualPeriod == "" {
		p.AccrualPeriod = AccrualYearly
	}
	if p.AccrualPeriod != AccrualYearly && p.AccrualPeriod != AccrualMonthly {
		return Policy{}, fmt.Errorf("%w: accrual period must be yearly or monthly", ErrInvalidPolicy)
	}
	if p.Entitlement < 0 || p.CarryOverLimit < 0 {
		return Policy{}, fmt.Errorf("%w: entitlement and carry-over limit must not be negative", ErrInvalidPolicy)
	}
	id, err := s.Store.UpsertPolicy(ctx, tenantID, p)
	if err != nil {
		return Policy{}, err
	}
	p.ID = id
	return p, nil
}

func (s *Service) ListHolidays(ctx context.Context, tenantID string, year int) ([]Holiday, error) {
	return s.Store.ListHolidays(ctx, tenantID, year)
}

func (s *Service) CreateHoliday(ctx context.Context, tenantID string, h Holiday) (Holiday, error) {
	h.Date = dateOnly(h.Date)
	id, err := s.Store.CreateHoliday(ctx, tenantID, h)
	if err != nil {
		return Holiday{}, err
	}
	h.ID = id
	return h, nil
}

func (s *Service) DeleteHoliday(ctx context.Context, tenantID, holidayID string) error {
	return s.Store.DeleteHoliday(ctx, tenantID, holidayID)
}

// canView reports whether actor may read employeeID's leave data.
func (s *Service) canView(ctx context.Context, actor Actor, employeeID string) (EmployeeRef, error) {
	emp, err := s.Store.Employee(ctx, actor.TenantID, employeeID)
	if err != nil {
		return EmployeeRef{}, err
	}
	if auth.IsHR(actor.RoleName) || emp.ID == actor.EmployeeID || (actor.EmployeeID != "" && emp.ManagerID == actor.EmployeeID) {
		return emp, nil
	}
	return EmployeeRef{}, ErrForbidden
}

// Balances derives the employee's balance for every leave type with a policy.
func (s *Service) Balances(ctx context.Context, actor Actor, employeeID string, year int) ([]Balance, error) {
	emp, err := s.canView(ctx, actor, employeeID)
	if err != nil {
		return nil, err
	}
	if year == 0 {
		year = s.now().Year()
	}
	policies, err := s.Store.ListPolicies(ctx, actor.TenantID)
	if err != nil {
		return nil, err
	}
	types, err := s.typeNames(ctx, actor.TenantID)
	if err != nil {
		return nil, err
	}
	since := time.Date(year-1, time.January, 1, 0, 0, 0, 0, time.UTC)
	requests, err := s.Store.RequestsSince(ctx, actor.TenantID, emp.ID, since)
	if err != nil {
		return nil, err
	}
	adjustments, err := s.Store.AdjustmentsSince(ctx, actor.TenantID, emp.ID, since)
	if err != nil {
		return nil, err
	}

	out := make([]Balance, 0, len(policies))
	for _, p := range policies {
		b := DeriveBalance(BalanceInput{
			Policy:        p,
			Year:          year,
			AsOf:          s.now(),
			EmployeeStart: emp.StartDate,
			Requests:      filterRequests(requests, "", p.LeaveTypeID),
			Adjustments:   filterAdjustments(adjustments, "", p.LeaveTypeID),
		})
		b.LeaveTypeName = types[p.LeaveTypeID]
		out = append(out, b)
	}
	return out, nil
}

func (s *Service) typeNames(ctx context.Context, tenantID string) (map[string]string, error) {
	types, err := s.Store.ListTypes(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	names := make(map[string]string, len(types))
	for _, t := range types {
		names[t.ID] = t.Name
	}
	return names, nil
}

type AdjustmentInput struct {
	EmployeeID    string    `json:"employeeId"`
	LeaveTypeID   string    `json:"leaveTypeId"`
	Amount        float64   `json:"amount"`
	Reason        string    `json:"reason"`
	EffectiveDate time.Time `json:"effectiveDate"`
}

func (s *Service) Adjust(ctx context.Context, tenantID, actorUserID string, in AdjustmentInput) (Adjustment, error) {
	if _, err := s.Store.Employee(ctx, tenantID, in.EmployeeID); err != nil {
		return Adjustment{}, err
	}
	if _, err := s.Store.PolicyForType(ctx, tenantID, in.LeaveTypeID); err != nil {
		return Adjustment{}, err
	}
	effective := in.EffectiveDate
	if effective.IsZero() {
		effective = s.now()
	}
	a := Adjustment{
		EmployeeID:    in.EmployeeID,
		LeaveTypeID:   in.LeaveTypeID,
		Amount:        in.Amount,
		Reason:        strings.TrimSpace(in.Reason),
		EffectiveDate: dateOnly(effective),
		CreatedBy:     actorUserID,
	}
	id, err := s.Store.CreateAdjustment(ctx, tenantID, a)
	if err != nil {
		return Adjustment{}, err
	}
	a.ID = id
	a.CreatedAt = s.now()
	return a, nil
}

type RequestInput struct {
	EmployeeID  string    `json:"employeeId"`
	LeaveTypeID string    `json:"leaveTypeId"`
	StartDate   time.Time `json:"startDate"`
	EndDate     time.Time `json:"endDate"`
	StartHalf   bool      `json:"startHalf"`
	EndHalf     bool      `json:"endHalf"`
	Reason      string    `json:"reason"`
}

// CreateRequest files a request for the actor, or for another employee when
// the actor is HR. Days are counted against holidays and the derived
// balance.
func (s *Service) CreateRequest(ctx context.Context, actor Actor, in RequestInput) (Request, error) {
	employeeID := in.EmployeeID
	if employeeID == "" {
		employeeID = actor.EmployeeID
	}
	if employeeID == "" {
		return Request{}, ErrNoEmployee
	}
	if employeeID != actor.EmployeeID && !auth.IsHR(actor.RoleName) {
		return Request{}, ErrForbidden
	}
	emp, err := s.Store.Employee(ctx, actor.TenantID, employeeID)
	if err != nil {
		return Request{}, err
	}
	policy, err := s.Store.PolicyForType(ctx, actor.TenantID, in.LeaveTypeID)
	if err != nil {
		return Request{}, err
	}

	start, end := dateOnly(in.StartDate), dateOnly(in.EndDate)
	holidays, err := s.Store.HolidayDates(ctx, actor.TenantID, start, end)
	if err != nil {
		return Request{}, err
	}
	days, err := CalculateRequestDays(start, end, in.StartHalf, in.EndHalf, holidays)
	if err != nil {
		if errors.Is(err, ErrInvalidRange) {
			return Request{}, err
		}
		return Request{}, fmt.Errorf("%w: %v", ErrInvalidRange, err)
	}

	req := Request{
		EmployeeID:  emp.ID,
		LeaveTypeID: in.LeaveTypeID,
		StartDate:   start,
		EndDate:     end,
		StartHalf:   in.StartHalf,
		EndHalf:     in.EndHalf,
		Days:        days,
		Reason:      strings.TrimSpace(in.Reason),
		Status:      InitialStatus(emp.ManagerID != ""),
	}
	check := func(requests []Request, adjustments []Adjustment) error {
		b := DeriveBalance(BalanceInput{
			Policy:        policy,
			Year:          start.Year(),
			AsOf:          s.balanceAsOf(start),
			EmployeeStart: emp.StartDate,
			Requests:      requests,
			Adjustments:   adjustments,
		})
		return CheckSufficient(b, days, policy.AllowNegative)
	}
	id, err := s.Store.CreateRequest(ctx, actor.TenantID, req, check)
	if err != nil {
		return Request{}, err
	}
	created, err := s.Store.GetRequest(ctx, actor.TenantID, id)
	if err != nil {
		return Request{}, err
	}

	title := "Leave request submitted"
	body := fmt.Sprintf("%s requested %s days of %s from %s", created.EmployeeName, num(days), created.LeaveTypeName, start.Format("2006-01-02"))
	if emp.ManagerUserID != "" {
		s.notifyUser(ctx, actor.TenantID, emp.ManagerUserID, notifications.TypeLeaveSubmitted, title, body)
	} else {
		s.notifyHR(ctx, actor.TenantID, actor.UserID, notifications.TypeLeaveAwaitingHR, title, body)
	}
	return created, nil
}

// balanceAsOf is the date monthly accrual is measured at for a request
// starting on start: the later of today and the request's start.
func (s *Service) balanceAsOf(start time.Time) time.Time {
	now := s.now()
	if start.After(now) {
		return start
	}
	return now
}

func (s *Service) ListRequests(ctx context.Context, actor Actor, filter RequestFilter) ([]Request, int, error) {
	if filter.Limit <= 0 || filter.Limit > 500 {
		filter.Limit = 100
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}
	scope := RequestScope{All: auth.IsHR(actor.RoleName), EmployeeID: actor.EmployeeID}
	if !scope.All && actor.EmployeeID == "" {
		return []Request{}, 0, nil
	}
	return s.Store.ListRequests(ctx, actor.TenantID, scope, filter)
}

func (s *Service) GetRequest(ctx context.Context, actor Actor, requestID string) (Request, error) {
	req, err := s.Store.GetRequest(ctx, actor.TenantID, requestID)
	if err != nil {
		return Request{}, err
	}
	if _, err := s.canView(ctx, actor, req.EmployeeID); err != nil {
		return Request{}, err
	}
	return req, nil
}

// relation reports whether the actor is the request's direct manager and
// whether they act as HR.
func (s *Service) relation(ctx context.Context, actor Actor, employeeID string) (EmployeeRef, bool, bool, error) {
	emp, err := s.Store.Employee(ctx, actor.TenantID, employeeID)
	if err != nil {
		return EmployeeRef{}, false, false, err
	}
	isManager := actor.EmployeeID != "" && emp.ManagerID == actor.EmployeeID
	return emp, isManager, auth.IsHR(actor.RoleName), nil
}

func (s *Service) Approve(ctx context.Context, actor Actor, requestID string) (Request, Request, error) {
	var emp EmployeeRef
	var decision Decision
	before, after, err := s.Store.Transition(ctx, actor.TenantID, requestID, actor.UserID, func(r Request) (Request, error) {
		e, isManager, isHR, err := s.relation(ctx, actor, r.EmployeeID)
		if err != nil {
			return Request{}, err
		}
		if r.EmployeeID == actor.EmployeeID && !isHR {
			return Request{}, ErrForbidden
		}
		policy, err := s.Store.PolicyForType(ctx, actor.TenantID, r.LeaveTypeID)
		if err != nil && !errors.Is(err, ErrNoPolicy) {
			return Request{}, err
		}
		d, err := Approve(r.Status, isManager, isHR, policy.RequiresHRApproval)
		if err != nil {
			return Request{}, err
		}
		emp, decision = e, d
		r.Status = d.Next
		return r, nil
	})
	if err != nil {
		return Request{}, Request{}, err
	}

	if decision.Final {
		s.notifyUser(ctx, actor.TenantID, emp.UserID, notifications.TypeLeaveApproved, "Leave approved",
			fmt.Sprintf("Your %s request from %s was approved", after.LeaveTypeName, after.StartDate.Format("2006-01-02")))
	} else {
		s.notifyHR(ctx, actor.TenantID, actor.UserID, notifications.TypeLeaveAwaitingHR, "Leave awaiting HR approval",
			fmt.Sprintf("%s's %s request was approved by their manager", after.EmployeeName, after.LeaveTypeName))
	}
	return before, after, nil
}

func (s *Service) Reject(ctx context.Context, actor Actor, requestID, reason string) (Request, Request, error) {
	var emp EmployeeRef
	before, after, err := s.Store.Transition(ctx, actor.TenantID, requestID, actor.UserID, func(r Request) (Request, error) {
		e, isManager, isHR, err := s.relation(ctx, actor, r.EmployeeID)
		if err != nil {
			return Request{}, err
		}
		if err := Reject(r.Status, isManager, isHR); err != nil {
			return Request{}, err
		}
		emp = e
		r.Status = StatusRejected
		return r, nil
	})
	if err != nil {
		return Request{}, Request{}, err
	}
	body := fmt.Sprintf("Your %s request from %s was rejected", after.LeaveTypeName, after.StartDate.Format("2006-01-02"))
	if reason = strings.TrimSpace(reason); reason != "" {
		body += ": " + reason
	}
	s.notifyUser(ctx, actor.TenantID, emp.UserID, notifications.TypeLeaveRejected, "Leave rejected", body)
	return before, after, nil
}

func (s *Service) Cancel(ctx context.Context, actor Actor, requestID string) (Request, Request, error) {
	var emp EmployeeRef
	before, after, err := s.Store.Transition(ctx, actor.TenantID, requestID, actor.UserID, func(r Request) (Request, error) {
		e, _, isHR, err := s.relation(ctx, actor, r.EmployeeID)
		if err != nil {
			return Request{}, err
		}
		if err := Cancel(r.Status, r.EmployeeID == actor.EmployeeID, isHR); err != nil {
			return Request{}, err
		}
		emp = e
		r.Status = StatusCancelled
		return r, nil
	})
	if err != nil {
		return Request{}, Request{}, err
	}
	if emp.ManagerUserID != "" && emp.ManagerUserID != actor.UserID {
		s.notifyUser(ctx, actor.TenantID, emp.ManagerUserID, notifications.TypeLeaveCancelled, "Leave cancelled",
			fmt.Sprintf("%s cancelled a %s request", after.EmployeeName, after.LeaveTypeName))
	}
	return before, after, nil
}

// BalanceReport derives every active employee's balances for year.
func (s *Service) BalanceReport(ctx context.Context, tenantID string, year int) ([]BalanceReportRow, error) {
	if year == 0 {
		year = s.now().Year()
	}
	employees, err := s.Store.ActiveEmployees(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	policies, err := s.Store.ListPolicies(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	types, err := s.typeNames(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	since := time.Date(year-1, time.January, 1, 0, 0, 0, 0, time.UTC)
	requests, err := s.Store.RequestsSince(ctx, tenantID, "", since)
	if err != nil {
		return nil, err
	}
	adjustments, err := s.Store.AdjustmentsSince(ctx, tenantID, "", since)
	if err != nil {
		return nil, err
	}

	rows := make([]BalanceReportRow, 0, len(employees)*len(policies))
	for _, emp := range employees {
		for _, p := range policies {
			b := DeriveBalance(BalanceInput{
				Policy:        p,
				Year:          year,
				AsOf:          s.now(),
				EmployeeStart: emp.StartDate,
				Requests:      filterRequests(requests, emp.ID, p.LeaveTypeID),
				Adjustments:   filterAdjustments(adjustments, emp.ID, p.LeaveTypeID),
			})
			b.LeaveTypeName = types[p.LeaveTypeID]
			rows = append(rows, BalanceReportRow{EmployeeID: emp.ID, EmployeeName: emp.Name, Balance: b})
		}
	}
	return rows, nil
}

// RemindStale nudges approvers about requests open since before cutoff and
// returns how many reminders were sent.
func (s *Service) RemindStale(ctx context.Context, tenantID string, cutoff time.Time) (int, error) {
	stale, err := s.Store.StalePending(ctx, tenantID, cutoff)
	if err != nil {
		return 0, err
	}
	sent := 0
	for _, r := range stale {
		body := fmt.Sprintf("%s's %s request from %s is still waiting for a decision", r.EmployeeName, r.LeaveTypeName, r.StartDate.Format("2006-01-02"))
		if r.Status == StatusPendingHR {
			s.notifyHR(ctx, tenantID, "", notifications.TypeLeaveReminder, "Leave request reminder", body)
			sent++
			continue
		}
		emp, err := s.Store.Employee(ctx, tenantID, r.EmployeeID)
		if err != nil {
			slog.Warn("leave reminder employee lookup failed", "requestId", r.ID, "err", err)
			continue
		}
		if emp.ManagerUserID == "" {
			continue
		}
		s.notifyUser(ctx, tenantID, emp.ManagerUserID, notifications.TypeLeaveReminder, "Leave request reminder", body)
		sent++
	}
	return sent, nil
}

func (s *Service) notifyUser(ctx context.Context, tenantID, userID, ntype, title, body string) {
	if s.Notify == nil || userID == "" {
		return
	}
	if err := s.Notify.Create(ctx, tenantID, userID, ntype, title, body); err != nil {
		slog.Warn("leave notification failed", "type", ntype, "userId", userID, "err", err)
	}
}

func (s *Service) notifyHR(ctx context.Context, tenantID, except, ntype, title, body string) {
	if s.Notify == nil {
		return
	}
	if err := s.Notify.NotifyRoles(ctx, tenantID, except, ntype, title, body, auth.RoleHR); err != nil {
		slog.Warn("leave hr notification failed", "type", ntype, "err", err)
	}
}

func filterRequests(requests []Request, employeeID, leaveTypeID string) []Request {
	var out []Request
	for _, r := range requests {
		if (employeeID == "" || r.EmployeeID == employeeID) && r.LeaveTypeID == leaveTypeID {
			out = append(out, r)
		}
	}
	return out
}

func filterAdjustments(adjustments []Adjustment, employeeID, leaveTypeID string) []Adjustment {
	var out []Adjustment
	for _, a := range adjustments {
		if (employeeID == "" || a.EmployeeID == employeeID) && a.LeaveTypeID == leaveTypeID {
			out = append(out, a)
		}
	}
	return out
}
