package schedule

import (
    "time"

    "github.com/rutaviva/tour-booking/internal/model"
)

// Expand turns a template and an optional repeat spec into concrete event
// instances.  Every instance starts ACTIVE with zero booked seats; ids are
// assigned later by the store on insert.  Inputs are assumed to have
// passed Validate.
//
// A range whose weekday filter matches no day in the interval yields an
// empty slice; that is not an error here, the caller decides whether an
// empty result is acceptable.
func Expand(tmpl Template, spec *RepeatSpec) []model.Event {
    if spec == nil {
        return []model.Event{instance(tmpl, tmpl.Date)}
    }
    switch spec.Kind {
    case RepeatSingle:
        return []model.Event{instance(tmpl, spec.Date)}
    case RepeatDays:
        out := make([]model.Event, 0, len(spec.Days))
        for _, d := range spec.Days { // output order follows input order
            out = append(out, instance(tmpl, at(d, spec.Time)))
        }
        return out
    case RepeatRange:
        out := []model.Event{}
        include := make(map[time.Weekday]bool, len(spec.Weekdays))
        for _, wd := range spec.Weekdays {
            include[wd] = true
        }
        end := dateOnly(spec.End)
        for d := dateOnly(spec.Start); !d.After(end); d = d.AddDate(0, 0, 1) {
            if include[d.Weekday()] {
                out = append(out, instance(tmpl, at(d, spec.Time)))
            }
        }
        return out
    }
    return nil
}

func instance(tmpl Template, date time.Time) model.Event {
    return model.Event{
        Date:        date,
        Seats:       tmpl.Seats,
        BookedSeats: 0,
        PriceCents:  tmpl.PriceCents,
        Language:    tmpl.Language,
        GuideID:     tmpl.GuideID,
        State:       model.EventActive,
    }
}
