package services

import (
	"time"

	"github.com/rdleal/intervalst/interval"

	"waz-calendar/internal/models"
)

// CheckOverlap reports whether two events share at least one calendar day.
// Both ranges are inclusive: start1 <= end2 and end1 >= start2.
func CheckOverlap(a, b models.Event) bool {
	aStart, aEnd, err := a.Range()
	if err != nil {
		return false
	}
	bStart, bEnd, err := b.Range()
	if err != nil {
		return false
	}
	return rangesOverlap(aStart, aEnd, bStart, bEnd)
}

func rangesOverlap(aStart, aEnd, bStart, bEnd time.Time) bool {
	return !aStart.After(bEnd) && !aEnd.Before(bStart)
}

// overlapIndex is an interval tree over an account's own events.
type overlapIndex struct {
	tree   *interval.SearchTree[int, time.Time]
	events []models.Event
}

// newOverlapIndex indexes events except shared copies and the one with excludeID.
func newOverlapIndex(events []models.Event, excludeID string) *overlapIndex {
	ix := &overlapIndex{
		tree:   interval.NewSearchTree[int](func(x, y time.Time) int { return x.Compare(y) }),
		events: events,
	}
	for i, e := range events {
		if e.IsShared || e.ID == excludeID {
			continue
		}
		start, end, err := e.Range()
		if err != nil {
			continue
		}
		// Stored half-open so single-day events are non-empty intervals.
		// Identical ranges share a key; keeping either one is enough to report a conflict.
		_ = ix.tree.Insert(start, end.AddDate(0, 0, 1), i)
	}
	return ix
}

// conflict returns an indexed event overlapping [start, end].
func (ix *overlapIndex) conflict(start, end time.Time) (models.Event, bool) {
	// Widen by a day so adjacent ranges are candidates whatever the tree's boundary rule; rangesOverlap decides.
	candidates, ok := ix.tree.AllIntersections(start.AddDate(0, 0, -1), end.AddDate(0, 0, 1))
	if !ok {
		return models.Event{}, false
	}
	for _, i := range candidates {
		e := ix.events[i]
		eStart, eEnd, err := e.Range()
		if err != nil {
			continue
		}
		if rangesOverlap(start, end, eStart, eEnd) {
			return e, true
		}
	}
	return models.Event{}, false
}
