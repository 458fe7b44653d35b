// Package calendar expands a weekly availability pattern and date-specific
// overrides into concrete study windows, and cuts windows into fixed-size
// segments.
package calendar

import (
	"cmp"
	"fmt"
	"slices"
	"time"

	"github.com/p-n-ai/pai-planner/internal/curriculum"
)

// DateLayout is the civil date format used for dates and override keys.
const DateLayout = time.DateOnly

// Clock is a time of day in minutes after midnight.
type Clock int

// ParseClock parses "HH:MM". "24:00" is accepted as end of day.
func ParseClock(s string) (Clock, error) {
	var h, m int
	if _, err := fmt.Sscanf(s, "%d:%d", &h, &m); err != nil || len(s) != 5 {
		return 0, fmt.Errorf("invalid clock %q: want HH:MM", s)
	}
	if h < 0 || m < 0 || m > 59 || h > 24 || (h == 24 && m != 0) {
		return 0, fmt.Errorf("invalid clock %q: out of range", s)
	}
	return Clock(h*60 + m), nil
}

func (c Clock) String() string {
	return fmt.Sprintf("%02d:%02d", int(c)/60, int(c)%60)
}

// RoundUp returns c rounded up to the next multiple of step minutes.
func (c Clock) RoundUp(step int) Clock {
	if step <= 0 {
		return c
	}
	return Clock((int(c) + step - 1) / step * step)
}

// ParseDate parses a YYYY-MM-DD civil date as UTC midnight.
func ParseDate(s string) (time.Time, error) {
	d, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return d, nil
}

// Weekday maps a date to 0 for Monday through 6 for Sunday.
func Weekday(d time.Time) int {
	return (int(d.Weekday()) + 6) % 7
}

// Window is an available study period on one date.
type Window struct {
	Date  time.Time
	Start Clock
	End   Clock
}

// Hours returns the window length in hours.
func (w Window) Hours() float64 {
	return float64(w.End-w.Start) / 60
}

// DateString formats the window's date.
func (w Window) DateString() string {
	return w.Date.Format(DateLayout)
}

type span struct {
	start, end Clock
}

// Pattern is a parsed availability pattern.
type Pattern struct {
	weekly    [7][]span
	overrides map[string][]span
}

// ParsePattern validates and indexes weekly windows and date overrides.
// Windows that end at or before their start are ignored.
func ParsePattern(weekly []curriculum.WeeklyWindow, overrides []curriculum.DateWindow) (Pattern, error) {
	p := Pattern{overrides: make(map[string][]span)}

	for _, w := range weekly {
		if w.Weekday < 0 || w.Weekday > 6 {
			return Pattern{}, fmt.Errorf("invalid weekday %d: want 0-6", w.Weekday)
		}
		s, ok, err := parseSpan(w.Start, w.End)
		if err != nil {
			return Pattern{}, err
		}
		if ok {
			p.weekly[w.Weekday] = append(p.weekly[w.Weekday], s)
		}
	}

	for _, o := range overrides {
		d, err := ParseDate(o.Date)
		if err != nil {
			return Pattern{}, err
		}
		key := d.Format(DateLayout)
		s, ok, err := parseSpan(o.Start, o.End)
		if err != nil {
			return Pattern{}, err
		}
		if _, seen := p.overrides[key]; !seen {
			p.overrides[key] = nil
		}
		if ok {
			p.overrides[key] = append(p.overrides[key], s)
		}
	}

	for i := range p.weekly {
		p.weekly[i] = normalize(p.weekly[i])
	}
	for key, spans := range p.overrides {
		p.overrides[key] = normalize(spans)
	}
	return p, nil
}

func parseSpan(start, end string) (span, bool, error) {
	s, err := ParseClock(start)
	if err != nil {
		return span{}, false, err
	}
	e, err := ParseClock(end)
	if err != nil {
		return span{}, false, err
	}
	return span{start: s, end: e}, e > s, nil
}

// normalize sorts spans by start and merges overlapping ones so that no two
// windows of a date share a minute.
func normalize(spans []span) []span {
	slices.SortFunc(spans, func(a, b span) int {
		return cmp.Or(cmp.Compare(a.start, b.start), cmp.Compare(a.end, b.end))
	})
	out := spans[:0]
	for _, s := range spans {
		if n := len(out); n > 0 && s.start < out[n-1].end {
			out[n-1].end = max(out[n-1].end, s.end)
			continue
		}
		out = append(out, s)
	}
	return out
}

// Project lists the windows for every date in [from, to], ordered by date
// then start. A date with overrides gets exactly those windows; every other
// date gets the weekly windows for its weekday.
func Project(from, to time.Time, p Pattern) []Window {
	from = truncateDay(from)
	to = truncateDay(to)

	var out []Window
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		spans, overridden := p.overrides[d.Format(DateLayout)]
		if !overridden {
			spans = p.weekly[Weekday(d)]
		}
		for _, s := range spans {
			out = append(out, Window{Date: d, Start: s.start, End: s.end})
		}
	}
	return out
}

// TrimBefore removes the part of date's windows that lies before at, after
// rounding at up to the next multiple of step minutes. Windows on other dates
// are kept as they are.
func TrimBefore(windows []Window, date time.Time, at Clock, step int) []Window {
	date = truncateDay(date)
	at = at.RoundUp(step)

	out := make([]Window, 0, len(windows))
	for _, w := range windows {
		if w.Date.Equal(date) {
			if w.End <= at {
				continue
			}
			if w.Start < at {
				w.Start = at
			}
		}
		out = append(out, w)
	}
	return out
}

// Split cuts every window into consecutive segments of size minutes; a
// window that does not divide evenly ends with a shorter segment.
func Split(windows []Window, size int) []Window {
	var out []Window
	for _, w := range windows {
		for start := w.Start; start < w.End; start += Clock(size) {
			out = append(out, Window{Date: w.Date, Start: start, End: min(start+Clock(size), w.End)})
		}
	}
	return out
}

// Contiguous reports whether b starts on the same date exactly where a ends.
func Contiguous(a, b Window) bool {
	return a.Date.Equal(b.Date) && a.End == b.Start
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
