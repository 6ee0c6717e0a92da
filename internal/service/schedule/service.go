package schedule

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/docline/consult-api/internal/model"
	"github.com/docline/consult-api/internal/repository"
	"github.com/docline/consult-api/pkg/errors"
)

// Service owns a doctor's offerable time slots. Slots never interact across
// doctors; everything here is scoped to one doctor id.
type Service struct {
	repo repository.ScheduleRepository
}

func NewService(repo repository.ScheduleRepository) *Service {
	return &Service{repo: repo}
}

// AddSlot offers a new (date, timeOfDay) pair. The unique constraint on the
// triple is the duplicate check, so two concurrent adds cannot both win.
func (s *Service) AddSlot(ctx context.Context, doctorID uuid.UUID, req *model.AddSlotRequest) (*model.ScheduleSlot, error) {
	slot := &model.ScheduleSlot{
		DoctorID:  doctorID,
		SlotDate:  req.Date,
		TimeOfDay: req.TimeOfDay,
	}
	if err := s.repo.CreateSlot(ctx, slot); err != nil {
		return nil, err
	}
	return slot, nil
}

func (s *Service) RemoveSlot(ctx context.Context, doctorID uuid.UUID, req *model.RemoveSlotRequest) error {
	removed, err := s.repo.DeleteSlot(ctx, doctorID, req.Date, req.TimeOfDay)
	if err != nil {
		return err
	}
	if !removed {
		return errors.SlotNotFound(req.Date, req.TimeOfDay)
	}
	return nil
}

// ListMonth returns the doctor's offerings for one calendar month, grouped
// by date and sorted ascending. Dates with no slots simply do not appear.
func (s *Service) ListMonth(ctx context.Context, doctorID uuid.UUID, month string) ([]model.DaySchedule, error) {
	if _, err := time.Parse(model.MonthLayout, month); err != nil {
		return nil, errors.BadRequest("month must be formatted YYYY-MM", err)
	}

	slots, err := s.repo.ListSlotsForMonth(ctx, doctorID, month)
	if err != nil {
		return nil, err
	}

	return groupByDate(slots), nil
}

// groupByDate relies on the repository ordering (date, then time) and folds
// adjacent rows into per-day groups.
func groupByDate(slots []*model.ScheduleSlot) []model.DaySchedule {
	days := make([]model.DaySchedule, 0)
	for _, slot := range slots {
		if n := len(days); n > 0 && days[n-1].Date == slot.SlotDate {
			days[n-1].Times = append(days[n-1].Times, slot.TimeOfDay)
			continue
		}
		days = append(days, model.DaySchedule{
			Date:  slot.SlotDate,
			Times: []string{slot.TimeOfDay},
		})
	}
	return days
}
