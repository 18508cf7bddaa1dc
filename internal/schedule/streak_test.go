package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestNextDate(t *testing.T) {
	p := DefaultStreakParams()
	base := day(2025, 12, 25)

	tests := []struct {
		name    string
		correct bool
		streak  int
		want    time.Time
	}{
		{"first correct", true, 0, day(2025, 12, 28)},
		{"second correct", true, 1, day(2026, 1, 1)},
		{"third correct", true, 2, day(2026, 1, 8)},
		{"fourth correct", true, 3, day(2026, 1, 25)},
		{"long correct streak", true, 42, day(2026, 1, 25)},
		{"first wrong", false, 0, day(2025, 12, 25)},
		{"second wrong", false, 1, day(2025, 12, 26)},
		{"third wrong", false, 2, day(2025, 12, 28)},
		{"long wrong streak", false, 9, day(2025, 12, 28)},
		{"negative streak", true, -1, day(2025, 12, 28)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, p.NextDate(tt.correct, tt.streak, base))
		})
	}
}

func TestNextDateTruncatesToDate(t *testing.T) {
	p := DefaultStreakParams()
	got := p.NextDate(false, 0, time.Date(2025, 12, 25, 23, 59, 0, 0, time.UTC))
	assert.Equal(t, day(2025, 12, 25), got)
}

func TestNextDateMonthClamp(t *testing.T) {
	p := DefaultStreakParams()
	tests := []struct {
		base, want time.Time
	}{
		{day(2025, 1, 31), day(2025, 2, 28)},
		{day(2024, 1, 31), day(2024, 2, 29)},
		{day(2025, 3, 31), day(2025, 4, 30)},
		{day(2025, 12, 31), day(2026, 1, 31)},
		{day(2025, 12, 15), day(2026, 1, 15)},
	}
	for _, tt := range tests {
		for streak := 3; streak < 6; streak++ {
			assert.Equal(t, tt.want, p.NextDate(true, streak, tt.base), "base %s", tt.base)
		}
	}
}

func TestNextDateDeterministic(t *testing.T) {
	p := DefaultStreakParams()
	base := day(2025, 6, 30)
	for streak := 0; streak < 5; streak++ {
		for _, correct := range []bool{true, false} {
			assert.Equal(t, p.NextDate(correct, streak, base), p.NextDate(correct, streak, base))
		}
	}
}

func TestPriorStreak(t *testing.T) {
	assert.Equal(t, 0, PriorStreak(nil, true))
	assert.Equal(t, 2, PriorStreak([]bool{false, true, true}, true))
	assert.Equal(t, 0, PriorStreak([]bool{false, true, true}, false))
	assert.Equal(t, 3, PriorStreak([]bool{false, false, false}, false))
}

func TestAddMonths(t *testing.T) {
	at := time.Date(2024, 1, 31, 13, 45, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2024, 2, 29, 13, 45, 0, 0, time.UTC), AddMonths(at, 1))
	assert.Equal(t, time.Date(2023, 11, 30, 13, 45, 0, 0, time.UTC), AddMonths(at, -2))
	assert.Equal(t, time.Date(2025, 1, 31, 13, 45, 0, 0, time.UTC), AddMonths(at, 12))
}
