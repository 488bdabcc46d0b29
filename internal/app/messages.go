package app

import (
	"time"

	"github.com/j-veylop/codepulse/internal/services"
	"github.com/j-veylop/codepulse/internal/services/ingest"
)

// TickMsg is sent periodically to expire notifications.
type TickMsg struct {
	Time time.Time
}

// StartLoadingMsg signals that a resource is starting to load.
type StartLoadingMsg struct {
	Resource string
}

// StopLoadingMsg signals that a resource has finished loading.
type StopLoadingMsg struct {
	Resource string
}

// StatsUpdatedMsg tells every tab that stored heartbeats changed and
// statistics should be reloaded.
type StatsUpdatedMsg struct {
	Users []string
}

// SwitchUserMsg requests viewing another user's statistics.
type SwitchUserMsg struct {
	User string
}

// CopyToClipboardMsg requests copying text to the system clipboard.
type CopyToClipboardMsg struct {
	Text string
}

// ImportResultMsg contains the result of a manual spool import.
type ImportResultMsg struct {
	Result ingest.Result
	Error  error
}

// AddNotificationMsg requests adding a new notification.
type AddNotificationMsg struct {
	Type     NotificationType
	Message  string
	Duration time.Duration
}

// RemoveNotificationMsg requests removal of a notification.
type RemoveNotificationMsg struct {
	ID string
}

// ClearExpiredNotificationsMsg triggers clearing of expired notifications.
type ClearExpiredNotificationsMsg struct{}

// ServiceEventMsg wraps a service event from the service manager.
type ServiceEventMsg struct {
	Event services.ServiceEvent
}

// SubscriptionEventMsg is the callback wrapper for service subscription.
type SubscriptionEventMsg struct {
	Channel chan services.ServiceEvent
}

// ErrorMsg represents a general error.
type ErrorMsg struct {
	Error   error
	Context string
}

// TabSwitchMsg requests switching to a specific tab.
type TabSwitchMsg struct {
	Tab TabID
}

// ToggleHelpMsg toggles the help display.
type ToggleHelpMsg struct{}
