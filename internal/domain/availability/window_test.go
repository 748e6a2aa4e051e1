package availability

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"babiloc/internal/domain/shared/daterange"
)

func day(s string) time.Time {
	t, err := daterange.ParseDay(s)
	if err != nil {
		panic(err)
	}
	return t
}

func mondaysOfJanuary(t *testing.T) *Window {
	t.Helper()
	w, err := NewWindow(WindowParams{ID: "w-1", PropertyID: "p-1", Weekday: 0, ValidFrom: day("2024-01-01"), ValidTo: day("2024-01-31")})
	require.NoError(t, err)
	return w
}

func TestNewWindowValidation(t *testing.T) {
	_, err := NewWindow(WindowParams{Weekday: 7, ValidFrom: day("2024-01-01"), ValidTo: day("2024-01-31")})
	assert.ErrorIs(t, err, ErrInvalidWeekday)

	_, err = NewWindow(WindowParams{Weekday: -1, ValidFrom: day("2024-01-01"), ValidTo: day("2024-01-31")})
	assert.ErrorIs(t, err, ErrInvalidWeekday)

	_, err = NewWindow(WindowParams{Weekday: 1, ValidFrom: day("2024-02-01"), ValidTo: day("2024-01-31")})
	assert.ErrorIs(t, err, ErrInvalidValidity)

	w, err := NewWindow(WindowParams{Weekday: 1, ValidFrom: day("2024-01-31"), ValidTo: day("2024-01-31")})
	require.NoError(t, err)
	assert.Len(t, w.PendingEvents(), 1)
}

func TestIndexCoverage(t *testing.T) {
	ix := NewIndex([]*Window{mondaysOfJanuary(t)})

	assert.True(t, ix.Defined())
	assert.True(t, ix.IsCovered(day("2024-01-01")))
	assert.True(t, ix.IsCovered(day("2024-01-29")))
	assert.False(t, ix.IsCovered(day("2024-01-02")))
	assert.False(t, ix.IsCovered(day("2024-02-05")), "outside validity")
	assert.False(t, ix.IsCovered(day("2023-12-25")), "outside validity")
}

func TestIndexWithoutWindowsNeverCovers(t *testing.T) {
	ix := NewIndex(nil)
	assert.False(t, ix.Defined())
	assert.False(t, ix.IsCovered(day("2024-01-01")))
}

func TestFirstUncovered(t *testing.T) {
	ix := NewIndex([]*Window{mondaysOfJanuary(t)})

	d, ok := ix.FirstUncovered(daterange.DateRange{Start: day("2024-01-01"), End: day("2024-01-03")})
	require.True(t, ok)
	assert.Equal(t, day("2024-01-02"), d)

	_, ok = ix.FirstUncovered(daterange.DateRange{Start: day("2024-01-08"), End: day("2024-01-09")})
	assert.False(t, ok)
}

func TestWeekdayNumbering(t *testing.T) {
	assert.Equal(t, time.Monday, WeekdayFromNumber(0))
	assert.Equal(t, time.Sunday, WeekdayFromNumber(6))
	for n := 0; n < 7; n++ {
		assert.Equal(t, n, WeekdayNumber(WeekdayFromNumber(n)))
	}

	w, err := NewWindow(WindowParams{ID: "w-2", PropertyID: "p-1", Weekday: 0, ValidFrom: day("2024-01-01"), ValidTo: day("2024-01-31")})
	require.NoError(t, err)
	assert.True(t, w.Covers(day("2024-01-01")))
	assert.False(t, w.Covers(day("2024-01-07")))

	sundays, err := NewWindow(WindowParams{ID: "w-3", PropertyID: "p-1", Weekday: 6, ValidFrom: day("2024-01-01"), ValidTo: day("2024-01-31")})
	require.NoError(t, err)
	assert.True(t, sundays.Covers(day("2024-01-07")))
}
