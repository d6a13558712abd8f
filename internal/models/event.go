package models

import (
	"strings"
	"time"
	"unicode/utf8"
)

const (
	DateLayout       = "2006-01-02"
	MaxEventContent  = 50
	MaxReminderHours = 24 * 7
)

// Palette lists the colors an event may use. The first entry is the default.
var Palette = []string{
	"#ff6b6b",
	"#4ecdc4",
	"#45b7d1",
	"#96ceb4",
	"#feca57",
	"#ff9ff3",
	"#54a0ff",
	"#5f27cd",
}

// Event is a dated memo on the calendar, possibly a copy shared by a friend.
type Event struct {
	ID              string     `json:"id"`
	StartDate       string     `json:"startDate"`
	EndDate         string     `json:"endDate"`
	Content         string     `json:"content"`
	Color           string     `json:"color"`
	CreatedAt       time.Time  `json:"createdAt"`
	UpdatedAt       *time.Time `json:"updatedAt,omitempty"`
	IsShared        bool       `json:"isShared,omitempty"`
	SharedBy        string     `json:"sharedBy,omitempty"`
	ReminderMinutes *int       `json:"reminderMinutes,omitempty"`
	ReminderSentAt  *time.Time `json:"reminderSentAt,omitempty"`
}

// EventInput carries the user-editable fields of an event.
type EventInput struct {
	StartDate       string `json:"startDate"`
	EndDate         string `json:"endDate"`
	Content         string `json:"content"`
	Color           string `json:"color"`
	ReminderMinutes *int   `json:"reminderMinutes,omitempty"`
}

// Normalize trims content and fills in defaults.
func (in *EventInput) Normalize() {
	in.Content = strings.TrimSpace(in.Content)
	in.StartDate = strings.TrimSpace(in.StartDate)
	in.EndDate = strings.TrimSpace(in.EndDate)
	if in.EndDate == "" {
		in.EndDate = in.StartDate
	}
	if in.Color == "" {
		in.Color = Palette[0]
	}
}

// Validate checks the input without touching storage.
func (in EventInput) Validate() error {
	start, err := ParseDate(in.StartDate)
	if err != nil {
		return invalid("startDate", "must be a YYYY-MM-DD date")
	}
	end, err := ParseDate(in.EndDate)
	if err != nil {
		return invalid("endDate", "must be a YYYY-MM-DD date")
	}
	if end.Before(start) {
		return invalid("endDate", "must not be before startDate")
	}
	if in.Content == "" {
		return invalid("content", "must not be empty")
	}
	if n := utf8.RuneCountInString(in.Content); n > MaxEventContent {
		return invalid("content", "must be at most %d characters, got %d", MaxEventContent, n)
	}
	if !IsPaletteColor(in.Color) {
		return invalid("color", "unknown color %q", in.Color)
	}
	if in.ReminderMinutes != nil {
		if m := *in.ReminderMinutes; m < 0 || m > MaxReminderHours*60 {
			return invalid("reminderMinutes", "must be between 0 and %d", MaxReminderHours*60)
		}
	}
	return nil
}

// Apply copies the input fields onto the event.
func (e *Event) Apply(in EventInput) {
	e.StartDate = in.StartDate
	e.EndDate = in.EndDate
	e.Content = in.Content
	e.Color = in.Color
	if !sameReminder(e.ReminderMinutes, in.ReminderMinutes) {
		e.ReminderSentAt = nil
	}
	e.ReminderMinutes = in.ReminderMinutes
}

// Range returns the parsed start and end dates.
func (e Event) Range() (time.Time, time.Time, error) {
	start, err := ParseDate(e.StartDate)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	end, err := ParseDate(e.EndDate)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	return start, end, nil
}

func ParseDate(s string) (time.Time, error) {
	return time.Parse(DateLayout, s)
}

func IsPaletteColor(color string) bool {
	for _, c := range Palette {
		if strings.EqualFold(c, color) {
			return true
		}
	}
	return false
}

func sameReminder(a, b *int) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
