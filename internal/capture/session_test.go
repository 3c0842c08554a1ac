package capture

import (
	"errors"
	"testing"
	"time"

	"github.com/Jairo-Alejandro/vital-signs-monitoring-stm32/internal/domain"
)

func fixedClock(start time.Time, step time.Duration) func() time.Time {
	t := start.Add(-step)
	return func() time.Time {
		t = t.Add(step)
		return t
	}
}

func TestStartRejectsInvalidInterval(t *testing.T) {
	s := NewSession()
	for _, ms := range []int{0, -5} {
		if err := s.Start(ms); !errors.Is(err, ErrInvalidInterval) {
			t.Fatalf("Start(%d): expected ErrInvalidInterval, got %v", ms, err)
		}
	}
	if s.State() != Idle {
		t.Fatalf("state must stay idle, got %s", s.State())
	}
}

func TestParseInterval(t *testing.T) {
	for _, in := range []string{"", "abc", "1.5", "0", "-10"} {
		if _, err := ParseInterval(in); !errors.Is(err, ErrInvalidInterval) {
			t.Fatalf("ParseInterval(%q): expected ErrInvalidInterval, got %v", in, err)
		}
	}
	ms, err := ParseInterval(" 250 ")
	if err != nil || ms != 250 {
		t.Fatalf("expected 250, got %d err=%v", ms, err)
	}
}

func TestTickWithoutSampleIsNoop(t *testing.T) {
	s := NewSession()
	if err := s.Start(60_000); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer s.Stop()

	s.tick(s.gen)
	if s.Len() != 0 {
		t.Fatalf("expected no entry before the first sample, got %d", s.Len())
	}
}

func TestTicksAppendSnapshotsInOrder(t *testing.T) {
	start := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	var hooked []domain.CaptureEntry
	s := NewSession(
		WithClock(fixedClock(start, time.Second)),
		WithOnEntry(func(e domain.CaptureEntry) { hooked = append(hooked, e) }),
	)
	if err := s.Start(60_000); err != nil {
		t.Fatalf("start: %v", err)
	}

	s.Observe(&domain.Sample{HeartRate: domain.Float(72), SpO2: domain.Float(98), Temperature: domain.Float(36.8), ECG: domain.Float(0.2)})
	s.tick(s.gen)
	s.Observe(&domain.Sample{HeartRate: domain.Float(75)})
	s.tick(s.gen)
	s.Stop()

	log := s.Log()
	if len(log) != 2 || len(hooked) != 2 {
		t.Fatalf("expected 2 entries and 2 hook calls, got %d and %d", len(log), len(hooked))
	}
	if log[0].Timestamp != "2024-05-01T10:00:00.000Z" || log[1].Timestamp != "2024-05-01T10:00:01.000Z" {
		t.Fatalf("unexpected timestamps %q, %q", log[0].Timestamp, log[1].Timestamp)
	}
	if *log[0].Sample.HeartRate != 72 || *log[1].Sample.HeartRate != 75 {
		t.Fatalf("entries should snapshot the sample at tick time")
	}
	if *log[1].Sample.SpO2 != 98 {
		t.Fatalf("partial update should keep previous spo2")
	}

	log[0].Sample.HeartRate = domain.Float(1)
	if *s.Log()[0].Sample.HeartRate != 72 {
		t.Fatalf("Log must return a copy")
	}
}

func TestStopKeepsLogAndRestartAppends(t *testing.T) {
	s := NewSession()
	s.Observe(&domain.Sample{HeartRate: domain.Float(70)})

	if err := s.Start(60_000); err != nil {
		t.Fatalf("start: %v", err)
	}
	s.tick(s.gen)
	s.Stop()
	stale := s.gen

	if err := s.Start(60_000); err != nil {
		t.Fatalf("restart: %v", err)
	}
	if err := s.Start(60_000); !errors.Is(err, ErrAlreadyCapturing) {
		t.Fatalf("expected ErrAlreadyCapturing, got %v", err)
	}
	s.tick(stale)
	s.tick(s.gen)
	s.Stop()

	if s.Len() != 2 {
		t.Fatalf("expected restart to append to the kept log, got %d entries", s.Len())
	}
}

func TestNoEntriesAfterStop(t *testing.T) {
	s := NewSession()
	s.Observe(&domain.Sample{ECG: domain.Float(0.1)})
	if err := s.Start(1); err != nil {
		t.Fatalf("start: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for s.Len() < 3 {
		if time.Now().After(deadline) {
			t.Fatalf("capture did not produce entries")
		}
		time.Sleep(time.Millisecond)
	}
	s.Stop()

	n := s.Len()
	time.Sleep(20 * time.Millisecond)
	if s.Len() != n {
		t.Fatalf("entries appended after Stop: %d then %d", n, s.Len())
	}
}

func TestToggle(t *testing.T) {
	s := NewSession()

	if _, err := s.Toggle(0); !errors.Is(err, ErrInvalidInterval) {
		t.Fatalf("expected invalid interval, got %v", err)
	}
	st, err := s.Toggle(1000)
	if err != nil || st != Capturing {
		t.Fatalf("expected capturing, got %s err=%v", st, err)
	}
	st, err = s.Toggle(0)
	if err != nil || st != Idle {
		t.Fatalf("expected idle, got %s err=%v", st, err)
	}
}

func TestResetAndRestore(t *testing.T) {
	s := NewSession()
	s.Observe(&domain.Sample{HeartRate: domain.Float(70)})
	_ = s.Start(60_000)
	s.tick(s.gen)
	s.Stop()

	s.Restore([]domain.CaptureEntry{{Timestamp: "2024-05-01T09:00:00.000Z"}})
	log := s.Log()
	if len(log) != 2 || log[0].Timestamp != "2024-05-01T09:00:00.000Z" {
		t.Fatalf("restored entries should come first: %+v", log)
	}

	if n := s.Reset(); n != 2 || s.Len() != 0 {
		t.Fatalf("expected reset to drop 2 entries, dropped %d", n)
	}
	if s.Last() == nil {
		t.Fatalf("reset must not forget the last-known sample")
	}
}
