// Package schedule expands an event template plus an optional repeat
// specification into concrete event instances.  Expansion is a pure
// computation: it performs no I/O and produces the same output for the
// same input.
package schedule

import (
    "fmt"
    "strconv"
    "strings"
    "time"

    "github.com/rutaviva/tour-booking/internal/apperr"
)

// RepeatKind selects one of the three supported repeat variants.
type RepeatKind string

const (
    // RepeatSingle schedules one instance on an explicit date.
    RepeatSingle RepeatKind = "single"
    // RepeatDays schedules one instance per date in an explicit list,
    // all at the same time of day.
    RepeatDays RepeatKind = "days"
    // RepeatRange schedules one instance per matching weekday between a
    // start and end date inclusive, all at the same time of day.
    RepeatRange RepeatKind = "range"
)

// TimeOfDay is an hour/minute pair applied to every produced instance.
// Seconds and sub-second precision are always zeroed.
type TimeOfDay struct {
    Hour   int
    Minute int
}

// ParseTimeOfDay parses "HH:MM" (24h clock).
func ParseTimeOfDay(s string) (TimeOfDay, error) {
    parts := strings.SplitN(strings.TrimSpace(s), ":", 2)
    if len(parts) != 2 {
        return TimeOfDay{}, fmt.Errorf("invalid time of day %q", s)
    }
    h, err := strconv.Atoi(parts[0])
    if err != nil || h < 0 || h > 23 {
        return TimeOfDay{}, fmt.Errorf("invalid hour in %q", s)
    }
    m, err := strconv.Atoi(parts[1])
    if err != nil || m < 0 || m > 59 {
        return TimeOfDay{}, fmt.Errorf("invalid minute in %q", s)
    }
    return TimeOfDay{Hour: h, Minute: m}, nil
}

// String renders the pair back as "HH:MM".
func (t TimeOfDay) String() string { return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute) }

// RepeatSpec is the transient value object describing how a template is
// repeated.  It is service input only and is never persisted.
//
// Which fields are read depends on Kind:
//  single – Date.
//  days   – Days and Time.
//  range  – Start, End, Weekdays and Time.
type RepeatSpec struct {
    Kind     RepeatKind
    Date     time.Time
    Days     []time.Time
    Start    time.Time
    End      time.Time
    Weekdays []time.Weekday // time.Weekday numbering, 0=Sunday..6=Saturday
    Time     TimeOfDay
}

// Template holds the per-instance fields shared by every produced event.
// Date is only consulted when no repeat spec is given.
type Template struct {
    Date       time.Time
    Seats      uint32
    PriceCents uint32
    Language   string
    GuideID    uint64
}

// Validate performs the caller-side checks the expander itself assumes.
// now anchors the non-past checks so callers and tests agree on "past".
// All failures are 400-class errors.
func Validate(tmpl Template, spec *RepeatSpec, now time.Time) error {
    if spec == nil {
        if tmpl.Date.IsZero() {
            return apperr.BadRequest("a date or a repeat specification is required")
        }
        return nil
    }
    switch spec.Kind {
    case RepeatSingle:
        if spec.Date.IsZero() {
            return apperr.BadRequest("repeat date is required")
        }
    case RepeatDays:
        if len(spec.Days) == 0 {
            return apperr.BadRequest("repeat days list is empty")
        }
    case RepeatRange:
        if spec.Start.IsZero() || spec.End.IsZero() {
            return apperr.BadRequest("repeat range requires start and end dates")
        }
        today := now.UTC().Truncate(24 * time.Hour)
        if dateOnly(spec.Start).Before(today) || dateOnly(spec.End).Before(today) {
            return apperr.BadRequest("repeat range dates must not be in the past")
        }
        if dateOnly(spec.End).Before(dateOnly(spec.Start)) {
            return apperr.BadRequest("repeat range end date is before start date")
        }
        if len(spec.Weekdays) == 0 || len(spec.Weekdays) > 7 {
            return apperr.BadRequest("repeat weekdays must contain between 1 and 7 values")
        }
        seen := map[time.Weekday]bool{}
        for _, wd := range spec.Weekdays {
            if wd < time.Sunday || wd > time.Saturday {
                return apperr.BadRequest("repeat weekday out of range 0..6")
            }
            if seen[wd] {
                return apperr.BadRequest("repeat weekdays contain duplicates")
            }
            seen[wd] = true
        }
    default:
        return apperr.BadRequest("unknown repeat kind")
    }
    return nil
}

// at replaces the time-of-day of d with t, zeroing seconds and below.
func at(d time.Time, t TimeOfDay) time.Time {
    return time.Date(d.Year(), d.Month(), d.Day(), t.Hour, t.Minute, 0, 0, d.Location())
}

func dateOnly(d time.Time) time.Time {
    return time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC)
}
