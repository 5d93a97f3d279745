package notifications

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memStore struct {
	created  []string
	settings Settings
	byRole   []string
}

func (m *memStore) CreateNotification(_ context.Context, _, userID, ntype, _, _ string) error {
	m.created = append(m.created, userID+":"+ntype)
	return nil
}
func (m *memStore) UserEmail(_ context.Context, _, userID string) (string, error) {
	return userID + "@example.com", nil
}
func (m *memStore) UserIDsWithRoles(context.Context, string, ...string) ([]string, error) {
	return m.byRole, nil
}
func (m *memStore) ListNotifications(context.Context, string, string, bool, int, int) ([]Notification, error) {
	return nil, nil
}
func (m *memStore) CountNotifications(context.Context, string, string, bool) (int, error) {
	return len(m.created), nil
}
func (m *memStore) MarkRead(context.Context, string, string, string) error { return nil }
func (m *memStore) MarkAllRead(context.Context, string, string) (int64, error) {
	return 0, nil
}
func (m *memStore) Settings(context.Context, string) (Settings, error) {
	return m.settings, nil
}
func (m *memStore) SaveSettings(_ context.Context, _ string, in Settings) error {
	m.settings = in
	return nil
}

type recordingMailer struct {
	to  []string
	err error
}

func (r *recordingMailer) Send(_ context.Context, from, to, _, _ string) error {
	r.to = append(r.to, from+">"+to)
	return r.err
}

func TestCreateMirrorsEmailOnlyWhenEnabled(t *testing.T) {
	store := &memStore{}
	mailer := &recordingMailer{}
	svc := New(store, mailer, "hr@example.com")

	require.NoError(t, svc.Create(context.Background(), "t1", "u1", TypeLeaveApproved, "Approved", "ok"))
	assert.Empty(t, mailer.to)

	store.settings.EmailEnabled = true
	require.NoError(t, svc.Create(context.Background(), "t1", "u2", TypeLeaveApproved, "Approved", "ok"))
	assert.Equal(t, []string{"hr@example.com>u2@example.com"}, mailer.to)
	assert.Equal(t, []string{"u1:leave_approved", "u2:leave_approved"}, store.created)
}

func TestCreateSwallowsMailerErrors(t *testing.T) {
	store := &memStore{settings: Settings{EmailEnabled: true}}
	svc := New(store, &recordingMailer{err: errors.New("smtp down")}, "")
	assert.NoError(t, svc.Create(context.Background(), "t1", "u1", TypeJobClosed, "Closed", ""))
	assert.Equal(t, "no-reply@example.com", svc.DefaultFrom)
}

func TestNotifyRolesSkipsActor(t *testing.T) {
	store := &memStore{byRole: []string{"hr-1", "actor", "hr-2"}}
	svc := New(store, nil, "")
	require.NoError(t, svc.NotifyRoles(context.Background(), "t1", "actor", TypeLeaveAwaitingHR, "t", "b", "HR"))
	assert.Equal(t, []string{"hr-1:leave_awaiting_hr", "hr-2:leave_awaiting_hr"}, store.created)
}

func TestCreateIgnoresMissingRecipient(t *testing.T) {
	store := &memStore{}
	svc := New(store, nil, "")
	require.NoError(t, svc.Create(context.Background(), "t1", "", TypeLeaveSubmitted, "t", "b"))
	assert.Empty(t, store.created)
}

func TestCreateUsesTenantSender(t *testing.T) {
	store := &memStore{settings: Settings{EmailEnabled: true, EmailFrom: "people@acme.test"}}
	mailer := &recordingMailer{}
	require.NoError(t, New(store, mailer, "").Create(context.Background(), "t1", "u1", TypeCandidateHired, "Hired", ""))
	assert.Equal(t, []string{"people@acme.test>u1@example.com"}, mailer.to)
}

func TestUpdateSettingsReturnsPrevious(t *testing.T) {
	store := &memStore{settings: Settings{EmailFrom: "old@acme.test"}}
	svc := New(store, nil, "")
	before, err := svc.UpdateSettings(context.Background(), "t1", Settings{EmailEnabled: true, EmailFrom: "new@acme.test"})
	require.NoError(t, err)
	assert.Equal(t, "old@acme.test", before.EmailFrom)
	assert.Equal(t, Settings{EmailEnabled: true, EmailFrom: "new@acme.test"}, store.settings)
}
