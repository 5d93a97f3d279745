package audit

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBuildQueryNumbersPlaceholders(t *testing.T) {
	query, args := buildQuery("SELECT COUNT(1)", "t1", Filter{
		Action:     "role.permissions.patch",
		EntityType: "role",
		ActorUser:  "u1",
		From:       time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	})
	assert.Len(t, args, 5)
	assert.True(t, strings.HasSuffix(query, "AND created_at >= $5"), query)
	assert.Contains(t, query, "action = $2")
	assert.Contains(t, query, "entity_type = $3")
	assert.Contains(t, query, "actor_user_id::text = $4")
}

func TestBuildQueryTenantOnly(t *testing.T) {
	query, args := buildQuery("SELECT id", "t1", Filter{})
	assert.Equal(t, "SELECT id FROM audit_events WHERE tenant_id = $1", query)
	assert.Equal(t, []any{"t1"}, args)
}

func TestLogOnNilServiceIsNoop(t *testing.T) {
	var s *Service
	s.Log(context.Background(), "t1", "u1", "x", "y", "z", nil, nil)
}

func TestEventWriterStreamsRows(t *testing.T) {
	var buf strings.Builder
	w, err := NewEventWriter(&buf)
	assert.NoError(t, err)
	at := time.Date(2026, 5, 4, 10, 0, 0, 0, time.FixedZone("CEST", 2*3600))
	assert.NoError(t, w.Write(Event{ID: "e1", Action: "settings.role.delete", EntityType: "role", EntityID: "r1", CreatedAt: at}))
	assert.NoError(t, w.Write(Event{ID: "e2", Action: "leave.request.approve, final", CreatedAt: at}))
	assert.NoError(t, w.Flush())

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	assert.Len(t, lines, 3)
	assert.Equal(t, "id,actor_user_id,action,entity_type,entity_id,request_id,ip,created_at", lines[0])
	assert.Equal(t, "e1,,settings.role.delete,role,r1,,,2026-05-04T08:00:00Z", lines[1])
	assert.Contains(t, lines[2], `"leave.request.approve, final"`)
}

func TestMarshalOptional(t *testing.T) {
	b, err := marshalOptional(nil)
	assert.NoError(t, err)
	assert.Nil(t, b)
	b, err = marshalOptional(map[string]bool{"view": true})
	assert.NoError(t, err)
	assert.JSONEq(t, `{"view":true}`, string(b))
	_, err = marshalOptional(make(chan int))
	assert.Error(t, err)
}
