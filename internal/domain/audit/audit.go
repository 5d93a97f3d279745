package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"hrconsole/internal/platform/querier"
	"hrconsole/internal/platform/requestctx"
)

type Event struct {
	ID         string          `json:"id"`
	ActorID    string          `json:"actorId"`
	Action     string          `json:"action"`
	EntityType string          `json:"entityType"`
	EntityID   string          `json:"entityId"`
	RequestID  string          `json:"requestId"`
	IP         string          `json:"ip"`
	CreatedAt  time.Time       `json:"createdAt"`
	Before     json.RawMessage `json:"before,omitempty"`
	After      json.RawMessage `json:"after,omitempty"`
}

type Filter struct {
	Action     string
	EntityType string
	EntityID   string
	ActorUser  string
	From       time.Time
	To         time.Time
}

type Service struct {
	DB querier.Querier
}

func New(db querier.Querier) *Service {
	return &Service{DB: db}
}

// Entry is one mutation to record. Before and After are marshalled to JSON;
// nil leaves the column NULL.
type Entry struct {
	TenantID   string
	ActorID    string
	Action     string
	EntityType string
	EntityID   string
	RequestID  string
	IP         string
	Before     any
	After      any
}

func (s *Service) Record(ctx context.Context, e Entry) error {
	before, err := marshalOptional(e.Before)
	if err != nil {
		return fmt.Errorf("audit before: %w", err)
	}
	after, err := marshalOptional(e.After)
	if err != nil {
		return fmt.Errorf("audit after: %w", err)
	}
	_, err = s.DB.Exec(ctx, `
    INSERT INTO audit_events (tenant_id, actor_user_id, action, entity_type, entity_id, before_json, after_json, request_id, ip)
    VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
  `, e.TenantID, nullIfEmpty(e.ActorID), e.Action, e.EntityType, e.EntityID, before, after, e.RequestID, e.IP)
	return err
}

// Log records an event using the request id and client ip carried in ctx.
// Failures are logged; a failed audit write never fails the mutation.
func (s *Service) Log(ctx context.Context, tenantID, actorID, action, entityType, entityID string, before, after any) {
	if s == nil {
		return
	}
	meta := requestctx.From(ctx)
	err := s.Record(ctx, Entry{
		TenantID:   tenantID,
		ActorID:    actorID,
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		RequestID:  meta.RequestID,
		IP:         meta.ClientIP,
		Before:     before,
		After:      after,
	})
	if err != nil {
		slog.Warn("audit record failed", "action", action, "entityType", entityType, "entityId", entityID, "err", err)
	}
}

func marshalOptional(v any) ([]byte, error) {
	if v == nil {
		return nil, nil
	}
	return json.Marshal(v)
}

func (s *Service) Count(ctx context.Context, tenantID string, filter Filter) (int, error) {
	query, args := buildQuery("SELECT COUNT(1)", tenantID, filter)
	var total int
	if err := s.DB.QueryRow(ctx, query, args...).Scan(&total); err != nil {
		return 0, err
	}
	return total, nil
}

const summaryColumns = "id, COALESCE(actor_user_id::text, ''), action, entity_type, COALESCE(entity_id, ''), COALESCE(request_id, ''), COALESCE(ip, ''), created_at"

func (s *Service) List(ctx context.Context, tenantID string, filter Filter, includeDetails bool, limit, offset int) ([]Event, error) {
	cols := summaryColumns
	if includeDetails {
		cols += ", before_json, after_json"
	}
	query, args := buildQuery("SELECT "+cols, tenantID, filter)
	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	out := []Event{}
	err := s.scan(ctx, query, args, includeDetails, func(evt Event) error {
		out = append(out, evt)
		return nil
	})
	return out, err
}

// Each streams every matching event, newest first and without payloads, to
// fn. Iteration stops at the first error fn returns.
func (s *Service) Each(ctx context.Context, tenantID string, filter Filter, fn func(Event) error) error {
	query, args := buildQuery("SELECT "+summaryColumns, tenantID, filter)
	return s.scan(ctx, query+" ORDER BY created_at DESC", args, false, fn)
}

func (s *Service) scan(ctx context.Context, query string, args []any, details bool, fn func(Event) error) error {
	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var evt Event
		dest := []any{&evt.ID, &evt.ActorID, &evt.Action, &evt.EntityType, &evt.EntityID, &evt.RequestID, &evt.IP, &evt.CreatedAt}
		if details {
			dest = append(dest, &evt.Before, &evt.After)
		}
		if err := rows.Scan(dest...); err != nil {
			return err
		}
		if err := fn(evt); err != nil {
			return err
		}
	}
	return rows.Err()
}

func buildQuery(prefix, tenantID string, filter Filter) (string, []any) {
	query := prefix + " FROM audit_events WHERE tenant_id = $1"
	args := []any{tenantID}
	add := func(clause string, value any) {
		args = append(args, value)
		query += fmt.Sprintf(clause, len(args))
	}
	if filter.Action != "" {
		add(" AND action = $%d", filter.Action)
	}
	if filter.EntityType != "" {
		add(" AND entity_type = $%d", filter.EntityType)
	}
	if filter.EntityID != "" {
		add(" AND entity_id = $%d", filter.EntityID)
	}
	if filter.ActorUser != "" {
		add(" AND actor_user_id::text = $%d", filter.ActorUser)
	}
	if !filter.From.IsZero() {
		add(" AND created_at >= $%d", filter.From)
	}
	if !filter.To.IsZero() {
		add(" AND created_at < $%d", filter.To)
	}
	return query, args
}

func nullIfEmpty(value string) any {
	if value == "" {
		return nil
	}
	return value
}
