package models

import (
	"testing"
)

func TestTimeRange_String(t *testing.T) {
	tests := []struct {
		name string
		tr   TimeRange
		want string
	}{
		{"Today", TimeRangeToday, "Today"},
		{"7Days", TimeRange7Days, "7 Days"},
		{"30Days", TimeRange30Days, "30 Days"},
		{"AllTime", TimeRangeAllTime, "All Time"},
		{"Unknown", TimeRange(999), "Unknown"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.tr.String(); got != tt.want {
				t.Errorf("TimeRange.String() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestTimeRange_Days(t *testing.T) {
	tests := []struct {
		name string
		tr   TimeRange
		want int
	}{
		{"Today", TimeRangeToday, 1},
		{"7Days", TimeRange7Days, 7},
		{"30Days", TimeRange30Days, 30},
		{"AllTime", TimeRangeAllTime, 0},
		{"Unknown", TimeRange(999), 7},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.tr.Days(); got != tt.want {
				t.Errorf("TimeRange.Days() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestTimeRange_Next(t *testing.T) {
	tests := []struct {
		name string
		tr   TimeRange
		want TimeRange
	}{
		{"Today -> 7Days", TimeRangeToday, TimeRange7Days},
		{"7Days -> 30Days", TimeRange7Days, TimeRange30Days},
		{"30Days -> AllTime", TimeRange30Days, TimeRangeAllTime},
		{"AllTime -> Today", TimeRangeAllTime, TimeRangeToday},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.tr.Next(); got != tt.want {
				t.Errorf("TimeRange.Next() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestParseTimeRange(t *testing.T) {
	tests := []struct {
		in      string
		want    TimeRange
		wantErr bool
	}{
		{"today", TimeRangeToday, false},
		{"7d", TimeRange7Days, false},
		{"", TimeRange7Days, false},
		{" Month ", TimeRange30Days, false},
		{"all", TimeRangeAllTime, false},
		{"fortnight", TimeRange7Days, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseTimeRange(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseTimeRange(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseTimeRange(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}
