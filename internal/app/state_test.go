package app

import (
	"testing"
	"time"

	"github.com/j-veylop/codepulse/internal/models"
)

func TestNewState(t *testing.T) {
	s := NewState("ada")
	if s == nil {
		t.Fatal("NewState returned nil")
	}
	if s.GetUser() != "ada" {
		t.Errorf("GetUser = %q, want ada", s.GetUser())
	}
	if s.GetTimeRange() != models.TimeRange7Days {
		t.Errorf("default range = %v, want 7 Days", s.GetTimeRange())
	}
	if s.AnyLoading() {
		t.Error("nothing should be loading initially")
	}
}

func TestState_User(t *testing.T) {
	s := NewState("ada")
	s.SetUser("grace")
	if s.GetUser() != "grace" {
		t.Errorf("GetUser = %q, want grace", s.GetUser())
	}
}

func TestState_NextTimeRange(t *testing.T) {
	s := NewState("ada")

	want := []models.TimeRange{
		models.TimeRange30Days,
		models.TimeRangeAllTime,
		models.TimeRangeToday,
		models.TimeRange7Days,
	}
	for _, w := range want {
		if got := s.NextTimeRange(); got != w {
			t.Errorf("NextTimeRange = %v, want %v", got, w)
		}
		if s.GetTimeRange() != w {
			t.Errorf("GetTimeRange = %v, want %v", s.GetTimeRange(), w)
		}
	}
}

func TestState_SetLoading(t *testing.T) {
	s := NewState("ada")

	s.SetLoading("import", true)
	if !s.Loading.Import || !s.AnyLoading() {
		t.Error("import should be loading")
	}

	s.SetLoading("unknown", true)
	s.SetLoading("import", false)
	if s.AnyLoading() {
		t.Error("AnyLoading should be false")
	}
}

func TestState_Timestamps(t *testing.T) {
	s := NewState("ada")
	at := time.Date(2024, 6, 15, 14, 0, 0, 0, time.UTC)

	s.MarkUpdated(at)
	s.MarkImported(at.Add(time.Minute))

	if !s.GetLastUpdated().Equal(at) {
		t.Errorf("GetLastUpdated = %v", s.GetLastUpdated())
	}
	if !s.GetLastImport().Equal(at.Add(time.Minute)) {
		t.Errorf("GetLastImport = %v", s.GetLastImport())
	}
}

func TestState_Notifications(t *testing.T) {
	s := NewState("ada")

	id := s.AddNotification(NotificationInfo, "test", time.Minute)
	if id == "" {
		t.Error("AddNotification returned empty ID")
	}
	if other := s.AddNotification(NotificationInfo, "second", time.Minute); other == id {
		t.Error("notification IDs must be unique")
	}

	notifs := s.GetNotifications()
	if len(notifs) != 2 {
		t.Fatalf("GetNotifications len = %d, want 2", len(notifs))
	}
	if notifs[0].Message != "test" {
		t.Errorf("Notification message = %s, want test", notifs[0].Message)
	}

	s.RemoveNotification(id)
	if len(s.GetNotifications()) != 1 {
		t.Error("Notification should be removed")
	}
}

func TestState_NotificationLimit(t *testing.T) {
	s := NewState("ada")

	for range maxNotifications + 5 {
		s.AddNotification(NotificationInfo, "spam", time.Minute)
	}
	if got := len(s.GetNotifications()); got != maxNotifications {
		t.Errorf("notifications = %d, want %d", got, maxNotifications)
	}
}

func TestState_ClearExpiredNotifications(t *testing.T) {
	s := NewState("ada")

	s.notifications = append(s.notifications,
		Notification{ID: "expired", CreatedAt: time.Now().Add(-2 * time.Minute), Duration: time.Minute},
		Notification{ID: "active", CreatedAt: time.Now(), Duration: time.Minute},
		Notification{ID: "sticky", CreatedAt: time.Now().Add(-time.Hour)},
	)

	s.ClearExpiredNotifications()

	notifs := s.GetNotifications()
	if len(notifs) != 2 {
		t.Fatalf("Expected 2 notifications, got %d", len(notifs))
	}
	if notifs[0].ID != "active" || notifs[1].ID != "sticky" {
		t.Errorf("unexpected notifications %v", notifs)
	}
}

func TestState_LoadingNotification(t *testing.T) {
	s := NewState("ada")

	s.SetLoadingNotification("loading...")
	notifs := s.GetNotifications()
	if len(notifs) != 1 {
		t.Fatalf("Expected 1 notification, got %d", len(notifs))
	}
	if notifs[0].ID != LoadingNotificationID {
		t.Errorf("Expected ID %s, got %s", LoadingNotificationID, notifs[0].ID)
	}

	s.SetLoadingNotification("still loading...")
	notifs = s.GetNotifications()
	if len(notifs) != 1 || notifs[0].Message != "still loading..." {
		t.Errorf("loading notification should be updated in place, got %v", notifs)
	}

	s.ClearLoadingNotification()
	if len(s.GetNotifications()) != 0 {
		t.Error("Loading notification should be cleared")
	}
}

func TestNotificationType_String(t *testing.T) {
	tests := []struct {
		t    NotificationType
		want string
	}{
		{NotificationSuccess, "success"},
		{NotificationError, "error"},
		{NotificationWarning, "warning"},
		{NotificationInfo, "info"},
		{NotificationLoading, "loading"},
		{NotificationType(999), "unknown"},
	}

	for _, tt := range tests {
		if got := tt.t.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}
