package daterange

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(s string) time.Time {
	t, err := ParseDay(s)
	if err != nil {
		panic(err)
	}
	return t
}

func TestNewRejectsEmptyAndInvertedRanges(t *testing.T) {
	_, err := New(day("2024-01-05"), day("2024-01-05"))
	assert.ErrorIs(t, err, ErrInvalidRange)

	_, err = New(day("2024-01-06"), day("2024-01-05"))
	assert.ErrorIs(t, err, ErrInvalidRange)

	dr, err := New(day("2024-01-01"), day("2024-01-05"))
	require.NoError(t, err)
	assert.Equal(t, 4, dr.Nights())
}

func TestNewTruncatesToCalendarDay(t *testing.T) {
	dr, err := New(time.Date(2024, 1, 1, 17, 30, 0, 0, time.UTC), time.Date(2024, 1, 3, 9, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, day("2024-01-01"), dr.Start)
	assert.Equal(t, day("2024-01-03"), dr.End)
}

func TestOverlapsIsHalfOpen(t *testing.T) {
	a := DateRange{Start: day("2024-01-01"), End: day("2024-01-05")}
	b := DateRange{Start: day("2024-01-05"), End: day("2024-01-10")}
	c := DateRange{Start: day("2024-01-04"), End: day("2024-01-06")}

	assert.False(t, a.Overlaps(b))
	assert.False(t, b.Overlaps(a))
	assert.True(t, a.Overlaps(c))
	assert.True(t, c.Overlaps(b))
}

func TestDays(t *testing.T) {
	dr := DateRange{Start: day("2024-01-30"), End: day("2024-02-02")}
	assert.Equal(t, []time.Time{day("2024-01-30"), day("2024-01-31"), day("2024-02-01")}, dr.Days())
	assert.True(t, dr.ContainsDate(day("2024-02-01")))
	assert.False(t, dr.ContainsDate(day("2024-02-02")))
}
