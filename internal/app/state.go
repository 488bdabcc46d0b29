// Package app provides the main Bubble Tea application model and state management.
package app

import (
	"fmt"
	"sync"
	"time"

	"github.com/j-veylop/codepulse/internal/models"
)

// NotificationType defines the type of notification.
type NotificationType int

const (
	// NotificationSuccess represents a success notification.
	NotificationSuccess NotificationType = iota
	// NotificationError represents an error notification.
	NotificationError
	// NotificationWarning represents a warning notification.
	NotificationWarning
	// NotificationInfo represents an informational notification.
	NotificationInfo
	// NotificationLoading represents a loading notification with spinner.
	NotificationLoading
)

// LoadingNotificationID is the fixed ID for loading notifications.
const LoadingNotificationID = "__loading__"

// maxNotifications bounds the toast stack.
const maxNotifications = 10

// String returns the string representation of a NotificationType.
func (n NotificationType) String() string {
	switch n {
	case NotificationSuccess:
		return "success"
	case NotificationError:
		return "error"
	case NotificationWarning:
		return "warning"
	case NotificationInfo:
		return "info"
	case NotificationLoading:
		return "loading"
	default:
		return "unknown"
	}
}

// Notification represents a user-facing notification message.
type Notification struct {
	ID        string
	Type      NotificationType
	Message   string
	CreatedAt time.Time
	Duration  time.Duration
}

// IsExpired returns true if the notification has expired.
func (n *Notification) IsExpired() bool {
	if n.Duration <= 0 {
		return false
	}
	return time.Since(n.CreatedAt) > n.Duration
}

// LoadingState tracks loading states for different resources.
type LoadingState struct {
	Import bool
}

// State is shared between the root model and its tabs.
type State struct {
	mu sync.RWMutex

	User      string
	TimeRange models.TimeRange
	Loading   LoadingState

	LastUpdated time.Time
	LastImport  time.Time

	notifications   []Notification
	notificationSeq int
}

// NewState creates the shared state for user.
func NewState(user string) *State {
	return &State{
		User:          user,
		TimeRange:     models.TimeRange7Days,
		notifications: make([]Notification, 0),
	}
}

// GetUser returns the user whose statistics are displayed.
func (s *State) GetUser() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.User
}

// SetUser changes the displayed user.
func (s *State) SetUser(user string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.User = user
}

// GetTimeRange returns the selected time range.
func (s *State) GetTimeRange() models.TimeRange {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.TimeRange
}

// NextTimeRange advances the selected time range and returns it.
func (s *State) NextTimeRange() models.TimeRange {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.TimeRange = s.TimeRange.Next()
	return s.TimeRange
}

// SetLoading sets the loading state for a specific resource.
func (s *State) SetLoading(resource string, loading bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch resource {
	case "import":
		s.Loading.Import = loading
	}
}

// AnyLoading returns true if any resource is currently loading.
func (s *State) AnyLoading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.Loading.Import
}

// MarkUpdated records that fresh statistics were loaded.
func (s *State) MarkUpdated(at time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.LastUpdated = at
}

// MarkImported records a completed spool import.
func (s *State) MarkImported(at time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.LastImport = at
}

// GetLastUpdated returns the last time statistics were loaded.
func (s *State) GetLastUpdated() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.LastUpdated
}

// GetLastImport returns the last time the spool was imported.
func (s *State) GetLastImport() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.LastImport
}

// AddNotification adds a new notification and returns its ID.
func (s *State) AddNotification(notifType NotificationType, message string, duration time.Duration) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.notificationSeq++
	now := time.Now()
	id := fmt.Sprintf("%s-%d", now.Format("20060102150405"), s.notificationSeq)

	s.notifications = append(s.notifications, Notification{
		ID:        id,
		Type:      notifType,
		Message:   message,
		CreatedAt: now,
		Duration:  duration,
	})

	if len(s.notifications) > maxNotifications {
		s.notifications = s.notifications[len(s.notifications)-maxNotifications:]
	}

	return id
}

// RemoveNotification removes a notification by ID.
func (s *State) RemoveNotification(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, n := range s.notifications {
		if n.ID == id {
			s.notifications = append(s.notifications[:i], s.notifications[i+1:]...)
			return
		}
	}
}

// ClearExpiredNotifications removes all expired notifications.
func (s *State) ClearExpiredNotifications() {
	s.mu.Lock()
	defer s.mu.Unlock()

	active := make([]Notification, 0, len(s.notifications))
	for _, n := range s.notifications {
		if !n.IsExpired() {
			active = append(active, n)
		}
	}
	s.notifications = active
}

// GetNotifications returns a copy of all active notifications.
func (s *State) GetNotifications() []Notification {
	s.mu.RLock()
	defer s.mu.RUnlock()

	active := make([]Notification, 0, len(s.notifications))
	for _, n := range s.notifications {
		if !n.IsExpired() {
			active = append(active, n)
		}
	}
	return active
}

// SetLoadingNotification sets a loading notification message.
func (s *State) SetLoadingNotification(message string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, n := range s.notifications {
		if n.ID == LoadingNotificationID {
			s.notifications[i].Message = message
			return
		}
	}

	s.notifications = append(s.notifications, Notification{
		ID:        LoadingNotificationID,
		Type:      NotificationLoading,
		Message:   message,
		CreatedAt: time.Now(),
	})
}

// ClearLoadingNotification removes the loading notification.
func (s *State) ClearLoadingNotification() {
	s.RemoveNotification(LoadingNotificationID)
}
