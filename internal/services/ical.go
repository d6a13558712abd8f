package services

import (
	"bytes"
	"fmt"
	"time"

	"github.com/emersion/go-ical"

	"waz-calendar/internal/models"
)

const icalProductID = "-//waz-calendar//calendar export//EN"

// encodeICS renders events as all-day VEVENTs.
func encodeICS(username string, events []models.Event, now time.Time) ([]byte, error) {
	cal := ical.NewCalendar()
	cal.Props.SetText(ical.PropVersion, "2.0")
	cal.Props.SetText(ical.PropProductID, icalProductID)
	cal.Props.SetText("X-WR-CALNAME", username)

	for _, e := range events {
		start, end, err := e.Range()
		if err != nil {
			continue
		}
		ev := ical.NewEvent()
		ev.Props.SetText(ical.PropUID, e.ID+"@waz-calendar")
		ev.Props.SetDateTime(ical.PropDateTimeStamp, now.UTC())
		ev.Props.SetDate(ical.PropDateTimeStart, start)
		// DTEND is exclusive for all-day events
		ev.Props.SetDate(ical.PropDateTimeEnd, end.AddDate(0, 0, 1))
		ev.Props.SetText(ical.PropSummary, e.Content)
		ev.Props.SetText("COLOR", e.Color)
		if e.IsShared {
			ev.Props.SetText(ical.PropDescription, "Shared by "+e.SharedBy)
		}
		cal.Children = append(cal.Children, ev.Component)
	}

	var buf bytes.Buffer
	if err := ical.NewEncoder(&buf).Encode(cal); err != nil {
		return nil, fmt.Errorf("encode calendar: %w", err)
	}
	return buf.Bytes(), nil
}
