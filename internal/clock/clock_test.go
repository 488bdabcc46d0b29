package clock

import (
	"testing"
	"time"
)

func TestSystemClock(t *testing.T) {
	before := time.Now()
	got := SystemClock{}.Now()
	after := time.Now()

	if got.Location() != time.UTC {
		t.Errorf("expected UTC location, got %v", got.Location())
	}
	if got.Before(before.Add(-time.Second)) || got.After(after.Add(time.Second)) {
		t.Errorf("SystemClock.Now() = %v, outside [%v, %v]", got, before, after)
	}
}

func TestFixed(t *testing.T) {
	instant := time.Date(2024, 3, 10, 23, 59, 59, 0, time.UTC)
	c := Fixed(instant)

	for range 3 {
		if !c.Now().Equal(instant) {
			t.Fatalf("Fixed.Now() = %v, want %v", c.Now(), instant)
		}
	}
}
