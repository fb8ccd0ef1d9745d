package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rutaviva/tour-booking/internal/model"
)

var tmpl = Template{Seats: 12, PriceCents: 2500, Language: "es", GuideID: 7}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestExpandWithoutSpecUsesTemplateDateVerbatim(t *testing.T) {
	tl := tmpl
	tl.Date = time.Date(2023, 5, 31, 18, 45, 12, 0, time.UTC)

	got := Expand(tl, nil)

	require.Len(t, got, 1)
	assert.Equal(t, tl.Date, got[0].Date) // verbatim, seconds untouched
	assert.Equal(t, uint32(0), got[0].BookedSeats)
	assert.Equal(t, model.EventActive, got[0].State)
}

func TestExpandDaysAppliesTimeAndKeepsInputOrder(t *testing.T) {
	spec := &RepeatSpec{
		Kind: RepeatDays,
		Days: []time.Time{day(2023, 6, 1), day(2023, 5, 31)},
		Time: TimeOfDay{Hour: 20},
	}

	got := Expand(tmpl, spec)

	require.Len(t, got, 2)
	assert.Equal(t, time.Date(2023, 6, 1, 20, 0, 0, 0, time.UTC), got[0].Date)
	assert.Equal(t, time.Date(2023, 5, 31, 20, 0, 0, 0, time.UTC), got[1].Date)
}

func TestExpandDaysZeroesSeconds(t *testing.T) {
	d := time.Date(2023, 5, 31, 9, 15, 33, 400, time.UTC)
	spec := &RepeatSpec{Kind: RepeatDays, Days: []time.Time{d}, Time: TimeOfDay{Hour: 20, Minute: 30}}

	got := Expand(tmpl, spec)

	require.Len(t, got, 1)
	assert.Equal(t, time.Date(2023, 5, 31, 20, 30, 0, 0, time.UTC), got[0].Date)
}

func TestExpandRangeFiltersByWeekdayChronologically(t *testing.T) {
	// 2023-05-31 is a Wednesday, 2023-06-01 a Thursday.
	spec := &RepeatSpec{
		Kind:  RepeatRange,
		Start: day(2023, 5, 31),
		End:   day(2023, 6, 1),
		Weekdays: []time.Weekday{
			time.Sunday, time.Monday, time.Tuesday, time.Wednesday,
			time.Thursday, time.Friday, time.Saturday,
		},
		Time: TimeOfDay{Hour: 20},
	}

	got := Expand(tmpl, spec)

	require.Len(t, got, 2)
	assert.Equal(t, time.Date(2023, 5, 31, 20, 0, 0, 0, time.UTC), got[0].Date)
	assert.Equal(t, time.Date(2023, 6, 1, 20, 0, 0, 0, time.UTC), got[1].Date)
}

func TestExpandRangeOnlySelectedWeekdays(t *testing.T) {
	spec := &RepeatSpec{
		Kind:     RepeatRange,
		Start:    day(2023, 5, 29), // Monday
		End:      day(2023, 6, 11), // Sunday, two weeks later
		Weekdays: []time.Weekday{time.Wednesday, time.Saturday},
		Time:     TimeOfDay{Hour: 10, Minute: 30},
	}

	got := Expand(tmpl, spec)

	require.Len(t, got, 4)
	for i, want := range []time.Time{
		time.Date(2023, 5, 31, 10, 30, 0, 0, time.UTC),
		time.Date(2023, 6, 3, 10, 30, 0, 0, time.UTC),
		time.Date(2023, 6, 7, 10, 30, 0, 0, time.UTC),
		time.Date(2023, 6, 10, 10, 30, 0, 0, time.UTC),
	} {
		assert.Equal(t, want, got[i].Date)
	}
}

func TestExpandRangeCanBeEmpty(t *testing.T) {
	spec := &RepeatSpec{
		Kind:     RepeatRange,
		Start:    day(2023, 5, 29), // Monday
		End:      day(2023, 5, 30), // Tuesday
		Weekdays: []time.Weekday{time.Saturday},
		Time:     TimeOfDay{Hour: 9},
	}

	got := Expand(tmpl, spec)
	assert.Empty(t, got)
}

func TestExpandIsPure(t *testing.T) {
	spec := &RepeatSpec{
		Kind:     RepeatRange,
		Start:    day(2023, 5, 29),
		End:      day(2023, 6, 11),
		Weekdays: []time.Weekday{time.Monday, time.Friday},
		Time:     TimeOfDay{Hour: 20},
	}

	first := Expand(tmpl, spec)
	second := Expand(tmpl, spec)
	assert.Equal(t, first, second)
}

func TestValidate(t *testing.T) {
	now := time.Date(2023, 5, 1, 12, 0, 0, 0, time.UTC)

	t.Run("missing date and spec", func(t *testing.T) {
		err := Validate(Template{}, nil, now)
		require.Error(t, err)
	})
	t.Run("range end before start", func(t *testing.T) {
		err := Validate(tmpl, &RepeatSpec{
			Kind: RepeatRange, Start: day(2023, 6, 2), End: day(2023, 6, 1),
			Weekdays: []time.Weekday{time.Monday},
		}, now)
		require.Error(t, err)
	})
	t.Run("range in the past", func(t *testing.T) {
		err := Validate(tmpl, &RepeatSpec{
			Kind: RepeatRange, Start: day(2023, 4, 1), End: day(2023, 4, 2),
			Weekdays: []time.Weekday{time.Monday},
		}, now)
		require.Error(t, err)
	})
	t.Run("empty weekday set", func(t *testing.T) {
		err := Validate(tmpl, &RepeatSpec{
			Kind: RepeatRange, Start: day(2023, 6, 1), End: day(2023, 6, 2),
		}, now)
		require.Error(t, err)
	})
	t.Run("duplicate weekdays", func(t *testing.T) {
		err := Validate(tmpl, &RepeatSpec{
			Kind: RepeatRange, Start: day(2023, 6, 1), End: day(2023, 6, 2),
			Weekdays: []time.Weekday{time.Monday, time.Monday},
		}, now)
		require.Error(t, err)
	})
	t.Run("valid range", func(t *testing.T) {
		err := Validate(tmpl, &RepeatSpec{
			Kind: RepeatRange, Start: day(2023, 6, 1), End: day(2023, 6, 30),
			Weekdays: []time.Weekday{time.Saturday, time.Sunday},
		}, now)
		require.NoError(t, err)
	})
	t.Run("empty days list", func(t *testing.T) {
		err := Validate(tmpl, &RepeatSpec{Kind: RepeatDays}, now)
		require.Error(t, err)
	})
}

func TestParseTimeOfDay(t *testing.T) {
	tod, err := ParseTimeOfDay("20:00")
	require.NoError(t, err)
	assert.Equal(t, TimeOfDay{Hour: 20}, tod)

	_, err = ParseTimeOfDay("24:00")
	assert.Error(t, err)
	_, err = ParseTimeOfDay("gibberish")
	assert.Error(t, err)
}
