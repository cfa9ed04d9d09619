package clock

import (
	"testing"
	"time"
)

func TestFakeAdvance(t *testing.T) {
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	fake := NewFake(start)
	if !fake.Now().Equal(start) {
		t.Fatalf("Now = %v, want %v", fake.Now(), start)
	}
	fake.Advance(90 * time.Second)
	if got := fake.Now().Sub(start); got != 90*time.Second {
		t.Errorf("advanced %v", got)
	}
	later := start.Add(48 * time.Hour)
	fake.Set(later)
	if !fake.Now().Equal(later) {
		t.Errorf("Set: Now = %v", fake.Now())
	}
}

func TestRealIsUTC(t *testing.T) {
	now := Real().Now()
	if now.Location() != time.UTC {
		t.Errorf("location = %v", now.Location())
	}
	if now.Nanosecond()%1000 != 0 {
		t.Errorf("expected microsecond precision, got %d ns", now.Nanosecond())
	}
}
