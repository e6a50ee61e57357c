package event

import (
	"errors"
	"testing"
	"time"
)

func TestParseDate(t *testing.T) {
	loc := time.FixedZone("EST", -5*3600)

	tests := []struct {
		name      string
		dateText  string
		layouts   []string
		wantYear  int
		wantMonth time.Month
		wantDay   int
		wantErr   bool
	}{
		{
			name:      "long month format",
			dateText:  "March 15, 2025",
			layouts:   []string{"January 2, 2006"},
			wantYear:  2025,
			wantMonth: time.March,
			wantDay:   15,
		},
		{
			name:      "slash format",
			dateText:  "03/15/2025",
			layouts:   []string{"01/02/2006"},
			wantYear:  2025,
			wantMonth: time.March,
			wantDay:   15,
		},
		{
			name:      "default layouts single digit slash",
			dateText:  "3/5/2025",
			wantYear:  2025,
			wantMonth: time.March,
			wantDay:   5,
		},
		{
			name:      "embedded in longer text",
			dateText:  "Tuesday, April 8th, 2025 | Downtown",
			wantYear:  2025,
			wantMonth: time.April,
			wantDay:   8,
		},
		{
			name:      "abbreviated month with period",
			dateText:  "Join us Sep. 9, 2025",
			wantYear:  2025,
			wantMonth: time.September,
			wantDay:   9,
		},
		{
			name:      "bare abbreviated month with period",
			dateText:  "Mar. 15, 2025",
			wantYear:  2025,
			wantMonth: time.March,
			wantDay:   15,
		},
		{
			name:      "iso date",
			dateText:  "2025-11-20",
			wantYear:  2025,
			wantMonth: time.November,
			wantDay:   20,
		},
		{
			name:     "garbage",
			dateText: "Coming soon",
			wantErr:  true,
		},
		{
			name:     "empty",
			dateText: "   ",
			wantErr:  true,
		},
		{
			name:     "layout mismatch",
			dateText: "03/15/2025",
			layouts:  []string{"January 2, 2006"},
			wantErr:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseDate(tt.dateText, tt.layouts, loc)
			if tt.wantErr {
				var dpe *DateParseError
				if !errors.As(err, &dpe) {
					t.Fatalf("ParseDate(%q) error = %v, want *DateParseError", tt.dateText, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseDate(%q) unexpected error: %v", tt.dateText, err)
			}
			if got.Year() != tt.wantYear || got.Month() != tt.wantMonth || got.Day() != tt.wantDay {
				t.Errorf("ParseDate(%q) = %v, want %d-%02d-%02d", tt.dateText, got, tt.wantYear, tt.wantMonth, tt.wantDay)
			}
			if got.Location() != loc {
				t.Errorf("ParseDate(%q) location = %v, want %v", tt.dateText, got.Location(), loc)
			}
		})
	}
}

func TestParseClock(t *testing.T) {
	tests := []struct {
		text   string
		want   ClockRange
		wantOK bool
	}{
		{"6:00 PM", ClockRange{StartHour: 18}, true},
		{"7:30 a.m.", ClockRange{StartHour: 7, StartMinute: 30}, true},
		{"12 pm", ClockRange{StartHour: 12}, true},
		{"12:15 am", ClockRange{StartHour: 0, StartMinute: 15}, true},
		{"5:30 PM - 7:30 PM", ClockRange{StartHour: 17, StartMinute: 30, EndHour: 19, EndMinute: 30, HasEnd: true}, true},
		{"5:30 - 7:30 pm", ClockRange{StartHour: 17, StartMinute: 30, EndHour: 19, EndMinute: 30, HasEnd: true}, true},
		{"11:30 - 1:00 PM", ClockRange{StartHour: 11, StartMinute: 30, EndHour: 13, HasEnd: true}, true},
		{"8am to 10am", ClockRange{StartHour: 8, EndHour: 10, HasEnd: true}, true},
		{"18:45", ClockRange{StartHour: 18, StartMinute: 45}, true},
		{"All day", ClockRange{}, false},
		{"", ClockRange{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			got, ok := ParseClock(tt.text)
			if ok != tt.wantOK {
				t.Fatalf("ParseClock(%q) ok = %v, want %v", tt.text, ok, tt.wantOK)
			}
			if got != tt.want {
				t.Errorf("ParseClock(%q) = %+v, want %+v", tt.text, got, tt.want)
			}
		})
	}
}

func TestResolveSchedule(t *testing.T) {
	loc := time.FixedZone("EST", -5*3600)
	now := time.Date(2025, time.January, 10, 12, 0, 0, 0, loc)

	t.Run("date only ends two hours later", func(t *testing.T) {
		sched, err := ResolveSchedule("March 15, 2025", "", []string{"January 2, 2006"}, loc, PolicyDefaultNow, now)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		want := time.Date(2025, time.March, 15, 0, 0, 0, 0, loc)
		if !sched.Start.Equal(want) {
			t.Errorf("start = %v, want %v", sched.Start, want)
		}
		if !sched.End.Equal(want.Add(2 * time.Hour)) {
			t.Errorf("end = %v, want %v", sched.End, want.Add(2*time.Hour))
		}
		if sched.Defaulted {
			t.Error("Defaulted = true for a parsed date")
		}
	})

	t.Run("explicit range", func(t *testing.T) {
		sched, err := ResolveSchedule("March 15, 2025", "5:30 PM - 7:00 PM", nil, loc, PolicyDefaultNow, now)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if sched.Start.Hour() != 17 || sched.Start.Minute() != 30 {
			t.Errorf("start = %v, want 17:30", sched.Start)
		}
		if sched.End.Hour() != 19 || sched.End.Minute() != 0 {
			t.Errorf("end = %v, want 19:00", sched.End)
		}
	})

	t.Run("time inside the date cell", func(t *testing.T) {
		sched, err := ResolveSchedule("March 15, 2025 at 8:00 AM", "", nil, loc, PolicyDefaultNow, now)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if sched.Start.Day() != 15 || sched.Start.Hour() != 8 {
			t.Errorf("start = %v, want March 15 08:00", sched.Start)
		}
	})

	t.Run("default-now policy", func(t *testing.T) {
		sched, err := ResolveSchedule("TBD", "", nil, loc, PolicyDefaultNow, now)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !sched.Start.Equal(now) || !sched.End.Equal(now.Add(2*time.Hour)) {
			t.Errorf("got %v - %v, want now and now+2h", sched.Start, sched.End)
		}
		if !sched.Defaulted {
			t.Error("Defaulted = false, want true")
		}
	})

	t.Run("default-null policy", func(t *testing.T) {
		sched, err := ResolveSchedule("TBD", "", nil, loc, PolicyDefaultNull, now)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !sched.Start.IsZero() || !sched.End.IsZero() {
			t.Errorf("got %v - %v, want zero times", sched.Start, sched.End)
		}
	})

	t.Run("reject policy", func(t *testing.T) {
		_, err := ResolveSchedule("TBD", "", nil, loc, PolicyReject, now)
		var dpe *DateParseError
		if !errors.As(err, &dpe) {
			t.Fatalf("error = %v, want *DateParseError", err)
		}
		if dpe.Text != "TBD" {
			t.Errorf("DateParseError.Text = %q, want TBD", dpe.Text)
		}
	})
}

func TestParseDatePolicy(t *testing.T) {
	tests := []struct {
		in      string
		want    DatePolicy
		wantErr bool
	}{
		{"", PolicyDefaultNow, false},
		{"default-now", PolicyDefaultNow, false},
		{"DEFAULT-NULL", PolicyDefaultNull, false},
		{" reject ", PolicyReject, false},
		{"drop", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseDatePolicy(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseDatePolicy(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseDatePolicy(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
