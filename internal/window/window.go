package window

import (
	"time"

	"github.com/core-coin/fortuna/internal/models"
)

// LocalLayout is how window bounds are shown to participants.
const LocalLayout = "2006-01-02 15:04 MST"

// IsOpen reports whether now lies within the window, both bounds included.
func IsOpen(now time.Time, w models.EventWindow) bool {
	return !now.Before(w.Start) && !now.After(w.End)
}

// Local formats the window bounds in loc.
func Local(w models.EventWindow, loc *time.Location) models.WindowLocal {
	if loc == nil {
		loc = time.UTC
	}
	return models.WindowLocal{
		StartLocal: w.Start.In(loc).Format(LocalLayout),
		EndLocal:   w.End.In(loc).Format(LocalLayout),
	}
}
