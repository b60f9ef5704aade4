package notify

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentdeck/agentdeck/pkg/store"
	"github.com/agentdeck/agentdeck/pkg/types"
)

func newTestDB(t *testing.T) *store.BoltStore {
	t.Helper()
	db, err := store.Open(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestAddAssignsIdentity(t *testing.T) {
	s := NewStore(newTestDB(t), Options{})
	defer s.Close()

	n, err := s.Add(AddInput{Type: types.NotificationInfo, Title: "sync", Message: "synced 3 mailboxes"})
	require.NoError(t, err)

	assert.NotEmpty(t, n.ID)
	assert.False(t, n.Read)
	assert.WithinDuration(t, time.Now(), n.Timestamp, time.Second)
}

// TestCapEvictsOldest verifies adding a 51st notification evicts exactly the
// oldest entry.
func TestCapEvictsOldest(t *testing.T) {
	s := NewStore(newTestDB(t), Options{})
	defer s.Close()

	for i := 0; i < DefaultMaxEntries+1; i++ {
		_, err := s.Add(AddInput{Type: types.NotificationInfo, Title: fmt.Sprintf("n-%d", i)})
		require.NoError(t, err)
	}

	list := s.List()
	require.Len(t, list, DefaultMaxEntries)
	// Newest first: the first added ("n-0") must be gone, the second
	// added ("n-1") is now the oldest surviving entry.
	assert.Equal(t, fmt.Sprintf("n-%d", DefaultMaxEntries), list[0].Title)
	assert.Equal(t, "n-1", list[len(list)-1].Title)
}

func TestUnreadCountAndMarkAsRead(t *testing.T) {
	s := NewStore(newTestDB(t), Options{})
	defer s.Close()

	a, err := s.Add(AddInput{Type: types.NotificationInfo, Title: "a"})
	require.NoError(t, err)
	_, err = s.Add(AddInput{Type: types.NotificationInfo, Title: "b"})
	require.NoError(t, err)

	assert.Equal(t, 2, s.UnreadCount())

	require.NoError(t, s.MarkAsRead(a.ID))
	assert.Equal(t, 1, s.UnreadCount())

	require.NoError(t, s.MarkAllAsRead())
	assert.Equal(t, 0, s.UnreadCount())

	assert.ErrorIs(t, s.MarkAsRead("no-such-id"), ErrNotFound)
}

func TestRemoveAndClearAll(t *testing.T) {
	s := NewStore(newTestDB(t), Options{})
	defer s.Close()

	a, _ := s.Add(AddInput{Type: types.NotificationInfo, Title: "a"})
	b, _ := s.Add(AddInput{Type: types.NotificationInfo, Title: "b"})

	require.NoError(t, s.Remove(a.ID))
	list := s.List()
	require.Len(t, list, 1)
	assert.Equal(t, b.ID, list[0].ID)

	require.NoError(t, s.ClearAll())
	assert.Empty(t, s.List())
}

// TestPersistenceRoundTrip verifies a second store over the same database
// reproduces id/type/title/message/read with a valid timestamp.
func TestPersistenceRoundTrip(t *testing.T) {
	db := newTestDB(t)

	s := NewStore(db, Options{})
	a, err := s.Add(AddInput{Type: types.NotificationError, Title: "boom", Message: "workflow failed"})
	require.NoError(t, err)
	require.NoError(t, s.MarkAsRead(a.ID))
	s.Close()

	reloaded := NewStore(db, Options{})
	defer reloaded.Close()

	list := reloaded.List()
	require.Len(t, list, 1)
	got := list[0]
	assert.Equal(t, a.ID, got.ID)
	assert.Equal(t, types.NotificationError, got.Type)
	assert.Equal(t, "boom", got.Title)
	assert.Equal(t, "workflow failed", got.Message)
	assert.True(t, got.Read)
	assert.False(t, got.Timestamp.IsZero())
	assert.True(t, got.Timestamp.Equal(a.Timestamp))
}

// TestCorruptPersistenceStartsEmpty verifies the fail-soft policy: a store
// over garbage content boots empty instead of erroring.
func TestCorruptPersistenceStartsEmpty(t *testing.T) {
	db := newTestDB(t)
	// A JSON string where the store expects a list.
	require.NoError(t, db.PutNotifications(store.KeyNotificationList, "not-a-list"))

	s := NewStore(db, Options{})
	defer s.Close()
	assert.Empty(t, s.List())
}

func TestToastRuleConfigurable(t *testing.T) {
	tests := []struct {
		name       string
		toastTypes []types.NotificationType
		add        types.NotificationType
		wantToast  bool
	}{
		{
			name:      "error toasts by default",
			add:       types.NotificationError,
			wantToast: true,
		},
		{
			name:      "info does not toast by default",
			add:       types.NotificationInfo,
			wantToast: false,
		},
		{
			name:       "custom set overrides default",
			toastTypes: []types.NotificationType{types.NotificationInfo},
			add:        types.NotificationError,
			wantToast:  false,
		},
		{
			name:       "custom set includes info",
			toastTypes: []types.NotificationType{types.NotificationInfo},
			add:        types.NotificationInfo,
			wantToast:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got []Toast
			s := NewStore(newTestDB(t), Options{
				ToastTypes: tt.toastTypes,
				OnToast:    func(toast Toast) { got = append(got, toast) },
			})
			defer s.Close()

			_, err := s.Add(AddInput{Type: tt.add, Title: "x"})
			require.NoError(t, err)

			if tt.wantToast {
				require.Len(t, got, 1)
				assert.Equal(t, DefaultToastDuration, got[0].Duration)
			} else {
				assert.Empty(t, got)
			}
		})
	}
}

func TestSubscribersReceiveAdds(t *testing.T) {
	s := NewStore(newTestDB(t), Options{})
	defer s.Close()

	sub, err := s.Subscribe()
	require.NoError(t, err)

	added, err := s.Add(AddInput{Type: types.NotificationSync, Title: "tick"})
	require.NoError(t, err)

	select {
	case n := <-sub:
		assert.Equal(t, added.ID, n.ID)
	case <-time.After(time.Second):
		t.Fatal("subscriber did not receive notification")
	}
}

func TestClosedStoreFailsFast(t *testing.T) {
	s := NewStore(newTestDB(t), Options{})
	s.Close()

	_, err := s.Add(AddInput{Type: types.NotificationInfo, Title: "late"})
	assert.ErrorIs(t, err, ErrClosed)
	assert.ErrorIs(t, s.MarkAllAsRead(), ErrClosed)
	_, err = s.Subscribe()
	assert.ErrorIs(t, err, ErrClosed)
}
