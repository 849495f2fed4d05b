package calendar

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOfUsesConfiguredLocation(t *testing.T) {
	t.Parallel()

	instant := time.Date(2024, 3, 9, 23, 30, 0, 0, time.UTC)
	plusOne := time.FixedZone("UTC+1", 3600)

	assert.Equal(t, Day{2024, time.March, 9}, Of(instant, time.UTC))
	assert.Equal(t, Day{2024, time.March, 10}, Of(instant, plusOne))
}

func TestAddDaysCrossesMonthAndYear(t *testing.T) {
	t.Parallel()

	d := Day{2023, time.December, 31}
	assert.Equal(t, Day{2024, time.January, 1}, d.AddDays(1))
	assert.Equal(t, Day{2024, time.February, 29}, Day{2024, time.March, 1}.AddDays(-1))
}

func TestDaysBetween(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		a, b Day
		want int
	}{
		{"same day", Day{2024, 1, 5}, Day{2024, 1, 5}, 0},
		{"yesterday", Day{2024, 1, 4}, Day{2024, 1, 5}, 1},
		{"across dst in new york", Day{2024, 3, 9}, Day{2024, 3, 11}, 2},
		{"backwards", Day{2024, 1, 10}, Day{2024, 1, 5}, -5},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DaysBetween(tt.a, tt.b))
		})
	}
}

func TestWeekWindowIsInclusive(t *testing.T) {
	t.Parallel()

	today := Day{2024, time.May, 10}
	w := WeekWindow(today)

	assert.True(t, w.Contains(today))
	assert.True(t, w.Contains(today.AddDays(-6)))
	assert.False(t, w.Contains(today.AddDays(-7)))
	assert.False(t, w.Contains(today.AddDays(1)))
}

func TestDayJSON(t *testing.T) {
	t.Parallel()

	raw, err := json.Marshal(Day{2024, time.July, 4})
	require.NoError(t, err)
	assert.Equal(t, `"2024-07-04"`, string(raw))

	var d Day
	require.NoError(t, json.Unmarshal([]byte(`"2023-11-30"`), &d))
	assert.Equal(t, Day{2023, time.November, 30}, d)

	assert.Error(t, json.Unmarshal([]byte(`20231130`), &d))
}

func TestClockToday(t *testing.T) {
	t.Parallel()

	now := func() time.Time { return time.Date(2024, 6, 1, 1, 0, 0, 0, time.UTC) }
	la, err := time.LoadLocation("America/Los_Angeles")
	require.NoError(t, err)

	assert.Equal(t, Day{2024, time.June, 1}, NewClockWithNow(time.UTC, now).Today())
	assert.Equal(t, Day{2024, time.May, 31}, NewClockWithNow(la, now).Today())
}

func TestLoadClockRejectsUnknownZone(t *testing.T) {
	t.Parallel()

	_, err := LoadClock("Mars/Olympus")
	assert.Error(t, err)

	c, err := LoadClock("")
	require.NoError(t, err)
	assert.Equal(t, time.UTC, c.Location())
}
