package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type fakeItem struct {
	name string
	due  *time.Time
}

func (f fakeItem) NextDue() (time.Time, bool) {
	if f.due == nil {
		return time.Time{}, false
	}
	return *f.due, true
}

func names(items []fakeItem) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.name
	}
	return out
}

func at(t time.Time) *time.Time { return &t }

func TestSelectDueOrdering(t *testing.T) {
	now := time.Date(2025, 12, 25, 12, 0, 0, 0, time.UTC)
	a := fakeItem{"A", at(day(2025, 12, 24))}
	b := fakeItem{"B", at(day(2025, 12, 25))}
	c := fakeItem{"C", at(day(2025, 12, 26))}

	perms := [][]fakeItem{
		{a, b, c}, {a, c, b}, {b, a, c}, {b, c, a}, {c, a, b}, {c, b, a},
	}
	for _, p := range perms {
		assert.Equal(t, []string{"A", "B", "C"}, names(SelectDue(p, now, 10)))
	}
}

func TestSelectDueStableAndAbsent(t *testing.T) {
	now := time.Date(2025, 12, 25, 12, 0, 0, 0, time.UTC)
	items := []fakeItem{
		{"later", at(now.Add(time.Hour))},
		{"never1", nil},
		{"tie1", at(day(2025, 12, 20))},
		{"never2", nil},
		{"tie2", at(day(2025, 12, 20))},
	}
	got := names(SelectDue(items, now, 0))
	assert.Equal(t, []string{"tie1", "tie2", "never1", "never2", "later"}, got)
}

func TestSelectDueLimit(t *testing.T) {
	now := time.Date(2025, 12, 25, 12, 0, 0, 0, time.UTC)
	items := []fakeItem{{"x", nil}, {"y", nil}, {"z", nil}}
	assert.Equal(t, []string{"x", "y"}, names(SelectDue(items, now, 2)))
	assert.Empty(t, SelectDue([]fakeItem{}, now, 5))
}
