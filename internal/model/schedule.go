package model

import (
	"time"

	"github.com/google/uuid"
)

// ScheduleSlot is a doctor-declared (date, timeOfDay) offering, bookable by
// one patient. Slots are created and deleted whole; they are never edited.
type ScheduleSlot struct {
	ID        uuid.UUID `db:"id" json:"id"`
	DoctorID  uuid.UUID `db:"doctor_id" json:"doctor_id"`
	SlotDate  string    `db:"slot_date" json:"date"`
	TimeOfDay string    `db:"time_of_day" json:"time_of_day"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// DaySchedule groups a date's offered times, sorted ascending.
type DaySchedule struct {
	Date  string   `json:"date"`
	Times []string `json:"times"`
}

type AddSlotRequest struct {
	Date      string `json:"date" binding:"required,calendardate"`
	TimeOfDay string `json:"time_of_day" binding:"required,timeofday"`
}

type RemoveSlotRequest struct {
	Date      string `json:"date" binding:"required,calendardate"`
	TimeOfDay string `json:"time_of_day" binding:"required,timeofday"`
}
