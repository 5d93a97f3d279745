package attendance

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hrconsole/internal/domain/auth"
)

type fakeStore struct {
	users    map[string]string
	managers map[string]string
	records  []Record
	filters  []Filter
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		users:    map[string]string{"u-boss": "boss", "u-dev": "dev", "u-peer": "peer"},
		managers: map[string]string{"dev": "boss", "peer": "boss"},
	}
}

func (f *fakeStore) EmployeeByUser(_ context.Context, _, userID string) (string, error) {
	id, ok := f.users[userID]
	if !ok {
		return "", ErrNoEmployee
	}
	return id, nil
}

func (f *fakeStore) ManagerOf(_ context.Context, _, employeeID string) (string, error) {
	return f.managers[employeeID], nil
}

func (f *fakeStore) ClockIn(_ context.Context, _, employeeID string, at time.Time, note string) (Record, error) {
	for _, r := range f.records {
		if r.EmployeeID == employeeID && r.Open() {
			return Record{}, ErrAlreadyClockedIn
		}
	}
	r := Record{ID: "r", EmployeeID: employeeID, WorkDate: dateOnly(at), ClockIn: at, Note: note}
	f.records = append(f.records, r)
	return r, nil
}

func (f *fakeStore) ClockOut(_ context.Context, _, employeeID string, at time.Time, _ string) (Record, error) {
	for i, r := range f.records {
		if r.EmployeeID == employeeID && r.Open() {
			f.records[i].ClockOut = &at
			return f.records[i], nil
		}
	}
	return Record{}, ErrNotClockedIn
}

func (f *fakeStore) List(_ context.Context, _ string, filter Filter) ([]Record, int, error) {
	f.filters = append(f.filters, filter)
	var out []Record
	for _, r := range f.records {
		if filter.EmployeeID == "" || r.EmployeeID == filter.EmployeeID {
			out = append(out, r)
		}
	}
	return out, len(out), nil
}

func user(id, role string) auth.UserContext {
	return auth.UserContext{UserID: id, TenantID: "t1", RoleName: role}
}

func TestClockInOut(t *testing.T) {
	store := newFakeStore()
	svc := NewService(store, 9*time.Hour)
	clock := time.Date(2025, 3, 3, 8, 45, 0, 0, time.UTC)
	svc.Now = func() time.Time { return clock }
	ctx := context.Background()
	dev := user("u-dev", auth.RoleEmployee)

	_, err := svc.ClockOut(ctx, dev, "")
	assert.ErrorIs(t, err, ErrNotClockedIn)

	rec, err := svc.ClockIn(ctx, dev, "  office ")
	require.NoError(t, err)
	assert.Equal(t, "office", rec.Note)

	_, err = svc.ClockIn(ctx, dev, "")
	assert.ErrorIs(t, err, ErrAlreadyClockedIn)

	clock = clock.Add(8 * time.Hour)
	rec, err = svc.ClockOut(ctx, dev, "")
	require.NoError(t, err)
	assert.Equal(t, 8.0, rec.Hours())

	summary, err := svc.Summary(ctx, dev, "", time.Time{}, time.Time{})
	require.NoError(t, err)
	assert.Equal(t, "dev", summary.EmployeeID)
	assert.Equal(t, 1, summary.DaysPresent)
	assert.Zero(t, summary.LateArrivals)

	_, err = svc.ClockIn(ctx, user("u-nobody", auth.RoleHR), "")
	assert.ErrorIs(t, err, ErrNoEmployee)
}

func TestListScope(t *testing.T) {
	store := newFakeStore()
	svc := NewService(store, 9*time.Hour)
	svc.Now = func() time.Time { return time.Date(2025, 3, 15, 12, 0, 0, 0, time.UTC) }
	ctx := context.Background()

	_, _, err := svc.List(ctx, user("u-dev", auth.RoleEmployee), Filter{EmployeeID: "peer"})
	assert.ErrorIs(t, err, ErrForbidden)

	_, _, err = svc.List(ctx, user("u-boss", auth.RoleManager), Filter{EmployeeID: "peer"})
	require.NoError(t, err)

	_, _, err = svc.List(ctx, user("u-dev", auth.RoleEmployee), Filter{})
	require.NoError(t, err)
	last := store.filters[len(store.filters)-1]
	assert.Equal(t, "dev", last.EmployeeID, "non-HR users default to themselves")
	assert.Equal(t, time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC), last.From)
	assert.Equal(t, 100, last.Limit)

	_, _, err = svc.List(ctx, user("u-hr", auth.RoleHR), Filter{})
	require.NoError(t, err)
	assert.Empty(t, store.filters[len(store.filters)-1].EmployeeID, "hr lists everyone")
}
