package models

import (
	"testing"
	"time"
)

func TestHeartbeat_Tag(t *testing.T) {
	hb := Heartbeat{Language: "Go", Project: "codepulse", Editor: "vim"}

	tests := []struct {
		dim  Dimension
		want string
	}{
		{DimensionLanguage, "Go"},
		{DimensionProject, "codepulse"},
		{DimensionEditor, "vim"},
		{DimensionPlatform, UnknownTag},
	}
	for _, tt := range tests {
		t.Run(tt.dim.String(), func(t *testing.T) {
			if got := hb.Tag(tt.dim); got != tt.want {
				t.Errorf("Tag(%v) = %q, want %q", tt.dim, got, tt.want)
			}
		})
	}
}

func TestHeartbeat_Timestamp(t *testing.T) {
	now := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	if got := (Heartbeat{Time: now}).Timestamp(); !got.Equal(now) {
		t.Errorf("Timestamp() = %v, want %v", got, now)
	}
}

func TestSummary_Helpers(t *testing.T) {
	s := &Summary{
		HeartbeatCount: 3,
		Days: []DailyTotal{
			{Date: "2024-01-01", Hours: 1.5},
			{Date: "2024-01-02", Hours: 0},
		},
		Breakdowns: map[Dimension][]Breakdown{
			DimensionLanguage: {{Name: "Go", Hours: 1.5, Percent: 100}},
		},
	}

	if !s.HasData() {
		t.Error("HasData() = false, want true")
	}

	hours := s.DailyHours()
	if len(hours) != 2 || hours[0] != 1.5 || hours[1] != 0 {
		t.Errorf("DailyHours() = %v", hours)
	}

	top, ok := s.Top(DimensionLanguage)
	if !ok || top.Name != "Go" {
		t.Errorf("Top(Languages) = %+v, %v", top, ok)
	}
	if _, ok := s.Top(DimensionEditor); ok {
		t.Error("Top(Editors) should be empty")
	}
}

func TestSummary_Empty(t *testing.T) {
	s := &Summary{}
	if s.HasData() {
		t.Error("empty summary should not have data")
	}
	if len(s.DailyHours()) != 0 {
		t.Error("empty summary should have no daily hours")
	}
}
