package calendar_test

import (
	"testing"
	"time"

	"github.com/p-n-ai/pai-planner/internal/calendar"
	"github.com/p-n-ai/pai-planner/internal/curriculum"
)

func mustDate(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := calendar.ParseDate(s)
	if err != nil {
		t.Fatalf("ParseDate(%q) error = %v", s, err)
	}
	return d
}

func TestParseClock(t *testing.T) {
	tests := []struct {
		in      string
		want    calendar.Clock
		wantErr bool
	}{
		{"00:00", 0, false},
		{"08:30", 510, false},
		{"23:59", 1439, false},
		{"24:00", 1440, false},
		{"24:30", 0, true},
		{"9:00", 0, true},
		{"12:60", 0, true},
		{"noon", 0, true},
		{"", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := calendar.ParseClock(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseClock(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("ParseClock(%q) = %d, want %d", tt.in, got, tt.want)
			}
		})
	}
}

func TestClock_RoundUp(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"09:00", "09:00"},
		{"09:01", "09:30"},
		{"09:29", "09:30"},
		{"09:31", "10:00"},
	}
	for _, tt := range tests {
		c, _ := calendar.ParseClock(tt.in)
		if got := c.RoundUp(30).String(); got != tt.want {
			t.Errorf("RoundUp(%s) = %s, want %s", tt.in, got, tt.want)
		}
	}
}

func TestWeekday_MondayIsZero(t *testing.T) {
	tests := map[string]int{
		"2025-08-04": 0, // Monday
		"2025-08-06": 2,
		"2025-08-10": 6, // Sunday
	}
	for in, want := range tests {
		d := mustDate(t, in)
		if got := calendar.Weekday(d); got != want {
			t.Errorf("Weekday(%s) = %d, want %d", in, got, want)
		}
	}
}

func TestProject_OverrideReplacesWeekday(t *testing.T) {
	p, err := calendar.ParsePattern(
		[]curriculum.WeeklyWindow{{Weekday: 0, Start: "08:00", End: "09:00"}},
		[]curriculum.DateWindow{{Date: "2025-08-11", Start: "14:00", End: "15:00"}},
	)
	if err != nil {
		t.Fatalf("ParsePattern() error = %v", err)
	}

	got := calendar.Project(mustDate(t, "2025-08-04"), mustDate(t, "2025-08-17"), p)
	if len(got) != 2 {
		t.Fatalf("len(Project) = %d, want 2", len(got))
	}

	want := []struct{ date, start, end string }{
		{"2025-08-04", "08:00", "09:00"},
		{"2025-08-11", "14:00", "15:00"},
	}
	for i, w := range want {
		if got[i].DateString() != w.date || got[i].Start.String() != w.start || got[i].End.String() != w.end {
			t.Errorf("window %d = %s %s-%s, want %s %s-%s", i,
				got[i].DateString(), got[i].Start, got[i].End, w.date, w.start, w.end)
		}
	}
}

func TestProject_OrderedAndMerged(t *testing.T) {
	p, err := calendar.ParsePattern(
		[]curriculum.WeeklyWindow{
			{Weekday: 1, Start: "19:00", End: "21:00"},
			{Weekday: 1, Start: "12:00", End: "13:00"},
			{Weekday: 1, Start: "12:30", End: "13:30"},
			{Weekday: 1, Start: "17:00", End: "16:00"},
		},
		nil,
	)
	if err != nil {
		t.Fatalf("ParsePattern() error = %v", err)
	}

	got := calendar.Project(mustDate(t, "2025-08-05"), mustDate(t, "2025-08-05"), p)
	if len(got) != 2 {
		t.Fatalf("len(Project) = %d, want 2 (overlap merged, inverted window dropped)", len(got))
	}
	if got[0].Start.String() != "12:00" || got[0].End.String() != "13:30" {
		t.Errorf("first window = %s-%s, want 12:00-13:30", got[0].Start, got[0].End)
	}
	if got[1].Start.String() != "19:00" {
		t.Errorf("second window starts %s, want 19:00", got[1].Start)
	}
}

func TestProject_EmptyOverrideClearsDay(t *testing.T) {
	p, err := calendar.ParsePattern(
		[]curriculum.WeeklyWindow{{Weekday: 0, Start: "08:00", End: "09:00"}},
		[]curriculum.DateWindow{{Date: "2025-08-04", Start: "10:00", End: "10:00"}},
	)
	if err != nil {
		t.Fatalf("ParsePattern() error = %v", err)
	}
	if got := calendar.Project(mustDate(t, "2025-08-04"), mustDate(t, "2025-08-04"), p); len(got) != 0 {
		t.Errorf("Project() = %v, want no windows on an overridden day with no valid spans", got)
	}
}

func TestParsePattern_Errors(t *testing.T) {
	tests := []struct {
		name      string
		weekly    []curriculum.WeeklyWindow
		overrides []curriculum.DateWindow
	}{
		{"weekday out of range", []curriculum.WeeklyWindow{{Weekday: 7, Start: "08:00", End: "09:00"}}, nil},
		{"bad clock", []curriculum.WeeklyWindow{{Weekday: 0, Start: "8am", End: "09:00"}}, nil},
		{"bad date", nil, []curriculum.DateWindow{{Date: "2025/08/04", Start: "08:00", End: "09:00"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := calendar.ParsePattern(tt.weekly, tt.overrides); err == nil {
				t.Error("ParsePattern() expected error")
			}
		})
	}
}

func TestTrimBefore(t *testing.T) {
	day := mustDate(t, "2025-08-04")
	next := mustDate(t, "2025-08-05")
	windows := []calendar.Window{
		{Date: day, Start: 8 * 60, End: 9 * 60},
		{Date: day, Start: 10 * 60, End: 12 * 60},
		{Date: next, Start: 8 * 60, End: 9 * 60},
	}

	at, _ := calendar.ParseClock("10:10")
	got := calendar.TrimBefore(windows, day, at, 30)

	if len(got) != 2 {
		t.Fatalf("len(TrimBefore) = %d, want 2", len(got))
	}
	if got[0].Start.String() != "10:30" || got[0].End.String() != "12:00" {
		t.Errorf("trimmed window = %s-%s, want 10:30-12:00", got[0].Start, got[0].End)
	}
	if !got[1].Date.Equal(next) || got[1].Start.String() != "08:00" {
		t.Errorf("next day window changed: %s %s", got[1].DateString(), got[1].Start)
	}
}

func TestSplit(t *testing.T) {
	day := mustDate(t, "2025-08-04")
	got := calendar.Split([]calendar.Window{{Date: day, Start: 9 * 60, End: 10*60 + 45}}, 30)

	want := []string{"09:00-09:30", "09:30-10:00", "10:00-10:30", "10:30-10:45"}
	if len(got) != len(want) {
		t.Fatalf("len(Split) = %d, want %d", len(got), len(want))
	}
	for i, w := range want {
		if s := got[i].Start.String() + "-" + got[i].End.String(); s != w {
			t.Errorf("segment %d = %s, want %s", i, s, w)
		}
	}
	if h := got[3].Hours(); h != 0.25 {
		t.Errorf("short segment Hours() = %v, want 0.25", h)
	}
}

func TestContiguous(t *testing.T) {
	day := mustDate(t, "2025-08-04")
	next := mustDate(t, "2025-08-05")
	a := calendar.Window{Date: day, Start: 540, End: 570}

	tests := []struct {
		name string
		b    calendar.Window
		want bool
	}{
		{"adjacent", calendar.Window{Date: day, Start: 570, End: 600}, true},
		{"gap", calendar.Window{Date: day, Start: 600, End: 630}, false},
		{"other date", calendar.Window{Date: next, Start: 570, End: 600}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := calendar.Contiguous(a, tt.b); got != tt.want {
				t.Errorf("Contiguous() = %v, want %v", got, tt.want)
			}
		})
	}
}
