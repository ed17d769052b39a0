package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDay_StripsTime(t *testing.T) {
	in := time.Date(2024, 3, 15, 17, 45, 12, 99, time.UTC)
	assert.Equal(t, time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC), Day(in))
}

func TestDay_KeepsLocalCalendarDay(t *testing.T) {
	loc := time.FixedZone("BRT", -3*3600)
	in := time.Date(2024, 3, 15, 23, 0, 0, 0, loc) // already the 16th in UTC
	assert.Equal(t, time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC), Day(in))
}

func TestParseAndFormatDate(t *testing.T) {
	d, err := ParseDate("2024-02-29")
	require.NoError(t, err)
	assert.Equal(t, "2024-02-29", FormatDate(d))

	_, err = ParseDate("29/02/2024")
	assert.Error(t, err)
}

func TestDaysBetween(t *testing.T) {
	a := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	b := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, 60, DaysBetween(a, b))
	assert.Equal(t, -60, DaysBetween(b, a))
	assert.Equal(t, 0, DaysBetween(a, a))
}

func TestEachDay(t *testing.T) {
	start := time.Date(2024, 2, 27, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	days := EachDay(start, end)
	require.Len(t, days, 4)
	assert.Equal(t, "2024-02-29", FormatDate(days[2]))
	assert.Equal(t, end, days[3])

	assert.Nil(t, EachDay(end, start))
}

func TestAddDays(t *testing.T) {
	d := time.Date(2024, 12, 31, 10, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), AddDays(d, 1))
}

func TestParseCSV(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []string
	}{
		{name: "empty string", input: "", expected: nil},
		{name: "whitespace only", input: "   ", expected: nil},
		{name: "single value", input: "AAPL", expected: []string{"AAPL"}},
		{name: "varied spacing", input: "AAPL,  ^GSPC , BTC-USD", expected: []string{"AAPL", "^GSPC", "BTC-USD"}},
		{name: "empty entries dropped", input: "AAPL,,MSFT,", expected: []string{"AAPL", "MSFT"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ParseCSV(tt.input))
		})
	}
}
