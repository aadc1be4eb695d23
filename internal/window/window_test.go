package window

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/core-coin/fortuna/internal/models"
)

func TestIsOpen_BoundsAreInclusive(t *testing.T) {
	start := time.Date(2026, 2, 21, 15, 0, 0, 0, time.UTC)
	end := time.Date(2026, 2, 22, 14, 59, 59, 0, time.UTC)
	w := models.EventWindow{Start: start, End: end}

	tests := []struct {
		name string
		now  time.Time
		want bool
	}{
		{name: "exactly start", now: start, want: true},
		{name: "exactly end", now: end, want: true},
		{name: "middle", now: start.Add(time.Hour), want: true},
		{name: "microsecond before start", now: start.Add(-time.Microsecond), want: false},
		{name: "microsecond after end", now: end.Add(time.Microsecond), want: false},
		{name: "other zone same instant", now: start.In(time.FixedZone("KST", 9*3600)), want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsOpen(tt.now, w))
		})
	}
}

func TestLocal(t *testing.T) {
	kst := time.FixedZone("KST", 9*3600)
	w := models.EventWindow{
		Start: time.Date(2026, 2, 21, 15, 0, 0, 0, time.UTC),
		End:   time.Date(2026, 2, 22, 14, 59, 59, 0, time.UTC),
	}

	got := Local(w, kst)
	assert.Equal(t, "2026-02-22 00:00 KST", got.StartLocal)
	assert.Equal(t, "2026-02-22 23:59 KST", got.EndLocal)

	assert.Equal(t, "2026-02-21 15:00 UTC", Local(w, nil).StartLocal)
}
