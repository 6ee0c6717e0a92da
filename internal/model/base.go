package model

import (
	"time"
)

// DateLayout is the calendar-date format used across the API. Dates are
// stored exactly as entered by the doctor, with no timezone attached; they
// only become instants when combined with a time of day in the configured
// clinic timezone.
const DateLayout = "2006-01-02"

// TimeOfDayLayout is the 24-hour wall-clock format for slot times.
const TimeOfDayLayout = "15:04"

// MonthLayout identifies a calendar month for schedule listings.
const MonthLayout = "2006-01"

// CombineDateTime interprets a (date, timeOfDay) pair in the given location.
func CombineDateTime(date, timeOfDay string, loc *time.Location) (time.Time, error) {
	return time.ParseInLocation(DateLayout+" "+TimeOfDayLayout, date+" "+timeOfDay, loc)
}

// JSONMap represents a generic JSON object
type JSONMap map[string]interface{}
