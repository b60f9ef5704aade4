package notify

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/agentdeck/agentdeck/pkg/log"
	"github.com/agentdeck/agentdeck/pkg/metrics"
	"github.com/agentdeck/agentdeck/pkg/store"
	"github.com/agentdeck/agentdeck/pkg/types"
)

const (
	// DefaultMaxEntries caps the notification log; oldest entries are
	// evicted on overflow.
	DefaultMaxEntries = 50

	// DefaultToastDuration is how long a transient toast stays visible.
	DefaultToastDuration = 6 * time.Second
)

// ErrClosed is returned when a store is used after Close. Using the store
// outside its lifecycle is a wiring bug and fails fast rather than no-oping.
var ErrClosed = errors.New("notification store is closed")

// ErrNotFound is returned when a notification ID does not exist
var ErrNotFound = errors.New("notification not found")

// Toast describes a transient auto-dismissing display request
type Toast struct {
	Notification types.Notification
	Duration     time.Duration
}

// ToastFunc is invoked for notification types configured to toast
type ToastFunc func(Toast)

// Options configures the notification store
type Options struct {
	// MaxEntries bounds the log. Zero means DefaultMaxEntries.
	MaxEntries int

	// ToastTypes lists the types that trigger a transient toast.
	// Nil means the default set: error, warning, success.
	ToastTypes []types.NotificationType

	// ToastDuration is the auto-dismiss duration passed to the toast
	// callback. Zero means DefaultToastDuration.
	ToastDuration time.Duration

	// OnToast receives toast requests. Nil disables toasts.
	OnToast ToastFunc
}

// AddInput is the caller-supplied part of a notification; ID, timestamp and
// read flag are assigned by the store.
type AddInput struct {
	Type       types.NotificationType
	Title      string
	Message    string
	ActionURL  string
	ActionText string
	Data       map[string]any
}

// Subscriber is a channel that receives newly added notifications
type Subscriber chan types.Notification

// Store maintains the bounded, persisted notification log and unread count.
// Any number of view subscribers (header bell, side panel, toast) may attach.
// All mutations persist the full list in one storage transaction before
// returning, so a concurrent reader of local storage never sees a partial
// write.
type Store struct {
	mu          sync.RWMutex
	list        []types.Notification
	db          *store.BoltStore
	opts        Options
	subscribers map[Subscriber]bool
	toastSet    map[types.NotificationType]bool
	closed      bool
}

// DefaultToastTypes returns the notification types that raise a toast when
// the caller does not configure its own set.
func DefaultToastTypes() []types.NotificationType {
	return []types.NotificationType{
		types.NotificationError,
		types.NotificationWarning,
		types.NotificationSuccess,
	}
}

// NewStore creates the notification store, rehydrating any persisted list.
// Corrupt persisted content yields an empty store (fail-soft); the rest of
// the application must not depend on notification history surviving
// corruption.
func NewStore(db *store.BoltStore, opts Options) *Store {
	if opts.MaxEntries <= 0 {
		opts.MaxEntries = DefaultMaxEntries
	}
	if opts.ToastDuration <= 0 {
		opts.ToastDuration = DefaultToastDuration
	}
	if opts.ToastTypes == nil {
		opts.ToastTypes = DefaultToastTypes()
	}

	s := &Store{
		db:          db,
		opts:        opts,
		subscribers: make(map[Subscriber]bool),
		toastSet:    make(map[types.NotificationType]bool),
	}
	for _, t := range opts.ToastTypes {
		s.toastSet[t] = true
	}

	var list []types.Notification
	err := db.GetNotifications(store.KeyNotificationList, &list)
	switch {
	case err == nil:
		if len(list) > opts.MaxEntries {
			list = list[:opts.MaxEntries]
		}
		s.list = list
	case errors.Is(err, store.ErrNotFound):
		// first run
	default:
		logger := log.WithComponent("notify")
		logger.Warn().Err(err).Msg("failed to rehydrate notifications, starting empty")
	}

	s.updateUnreadGauge()
	return s
}

// Close detaches all subscribers and marks the store unusable
func (s *Store) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for sub := range s.subscribers {
		close(sub)
	}
	s.subscribers = make(map[Subscriber]bool)
	s.closed = true
}

// SetToastHandler installs (or replaces) the toast callback. Views attach
// after the store is constructed, so this is settable at runtime.
func (s *Store) SetToastHandler(fn ToastFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.opts.OnToast = fn
}

// Subscribe returns a channel receiving each added notification.
// The channel is buffered; slow consumers miss events rather than blocking
// producers.
func (s *Store) Subscribe() (Subscriber, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrClosed
	}

	sub := make(Subscriber, 16)
	s.subscribers[sub] = true
	return sub, nil
}

// Unsubscribe removes a subscription
func (s *Store) Unsubscribe(sub Subscriber) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.subscribers[sub] {
		delete(s.subscribers, sub)
		close(sub)
	}
}

// Add appends a notification, assigns identity and timestamp, persists the
// updated list, and fans out to subscribers. Types in the configured toast
// set additionally trigger the toast callback.
func (s *Store) Add(in AddInput) (types.Notification, error) {
	n := types.Notification{
		ID:         uuid.New().String(),
		Type:       in.Type,
		Title:      in.Title,
		Message:    in.Message,
		Timestamp:  time.Now(),
		Read:       false,
		ActionURL:  in.ActionURL,
		ActionText: in.ActionText,
		Data:       in.Data,
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return types.Notification{}, ErrClosed
	}

	// Prepend, newest first, then truncate to the cap.
	s.list = append([]types.Notification{n}, s.list...)
	if len(s.list) > s.opts.MaxEntries {
		s.list = s.list[:s.opts.MaxEntries]
	}

	if err := s.persist(); err != nil {
		s.mu.Unlock()
		return types.Notification{}, err
	}

	subs := make([]Subscriber, 0, len(s.subscribers))
	for sub := range s.subscribers {
		subs = append(subs, sub)
	}
	toast := s.toastSet[n.Type]
	toastFn := s.opts.OnToast
	toastDuration := s.opts.ToastDuration
	s.mu.Unlock()

	metrics.NotificationsTotal.WithLabelValues(string(n.Type)).Inc()
	s.updateUnreadGauge()

	for _, sub := range subs {
		select {
		case sub <- n:
		default:
			// Subscriber buffer full, skip
		}
	}

	if toast && toastFn != nil {
		toastFn(Toast{Notification: n, Duration: toastDuration})
	}

	return n, nil
}

// MarkAsRead sets the read flag on one notification
func (s *Store) MarkAsRead(id string) error {
	defer s.updateUnreadGauge()

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}

	for i := range s.list {
		if s.list[i].ID == id {
			if s.list[i].Read {
				return nil
			}
			s.list[i].Read = true
			return s.persist()
		}
	}
	return ErrNotFound
}

// MarkAllAsRead sets the read flag on every notification
func (s *Store) MarkAllAsRead() error {
	defer s.updateUnreadGauge()

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}

	changed := false
	for i := range s.list {
		if !s.list[i].Read {
			s.list[i].Read = true
			changed = true
		}
	}
	if !changed {
		return nil
	}
	return s.persist()
}

// Remove deletes one notification
func (s *Store) Remove(id string) error {
	defer s.updateUnreadGauge()

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}

	for i := range s.list {
		if s.list[i].ID == id {
			s.list = append(s.list[:i], s.list[i+1:]...)
			return s.persist()
		}
	}
	return ErrNotFound
}

// ClearAll deletes every notification
func (s *Store) ClearAll() error {
	defer s.updateUnreadGauge()

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}

	s.list = nil
	return s.persist()
}

// List returns a copy of the notification log, newest first
func (s *Store) List() []types.Notification {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]types.Notification, len(s.list))
	copy(out, s.list)
	return out
}

// UnreadCount returns the number of unread notifications
func (s *Store) UnreadCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.unreadLocked()
}

func (s *Store) unreadLocked() int {
	count := 0
	for i := range s.list {
		if !s.list[i].Read {
			count++
		}
	}
	return count
}

// persist writes the full list in one storage transaction. Caller holds mu.
func (s *Store) persist() error {
	list := s.list
	if list == nil {
		list = []types.Notification{}
	}
	return s.db.PutNotifications(store.KeyNotificationList, list)
}

func (s *Store) updateUnreadGauge() {
	s.mu.RLock()
	unread := s.unreadLocked()
	s.mu.RUnlock()
	metrics.NotificationsUnread.Set(float64(unread))
}
