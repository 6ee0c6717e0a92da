package rating

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"

	"github.com/docline/consult-api/internal/model"
	"github.com/docline/consult-api/internal/repository"
	"github.com/docline/consult-api/internal/service/event"
	"github.com/docline/consult-api/internal/service/session"
	"github.com/docline/consult-api/pkg/errors"
)

const rollupCacheTTL = 5 * time.Minute

// Service collects one-time patient feedback for ended sessions and folds it
// into the doctor's rolling average.
type Service struct {
	repo            repository.RatingRepository
	chatRepo        repository.ChatRepository
	appointmentRepo repository.AppointmentRepository
	events          *event.Service
	location        *time.Location
	rollups         *gocache.Cache
	now             func() time.Time
}

func NewService(repo repository.RatingRepository, chatRepo repository.ChatRepository, appointmentRepo repository.AppointmentRepository, events *event.Service, location *time.Location) *Service {
	return &Service{
		repo:            repo,
		chatRepo:        chatRepo,
		appointmentRepo: appointmentRepo,
		events:          events,
		location:        location,
		rollups:         gocache.New(rollupCacheTTL, 10*time.Minute),
		now:             time.Now,
	}
}

// IsRated drives the one-time prompt: clients offer the rating dialog the
// first time they observe an ended, unrated session. Declining records
// nothing, so the prompt may reappear on a later visit.
func (s *Service) IsRated(ctx context.Context, sessionID, patientID uuid.UUID) (bool, error) {
	return s.repo.Exists(ctx, sessionID, patientID)
}

// Submit validates and stores the rating, then folds it into the doctor's
// rollup. All checks run before any write; the insert and the fold commit
// together or not at all.
func (s *Service) Submit(ctx context.Context, patientID uuid.UUID, req *model.SubmitRatingRequest) (*model.Rating, error) {
	if req.Stars < 1 || req.Stars > 5 {
		return nil, errors.InvalidStars(req.Stars)
	}
	if len(req.Comment) > model.MaxRatingComment {
		return nil, errors.BadRequest(fmt.Sprintf("comment exceeds %d characters", model.MaxRatingComment), nil)
	}

	chatSession, err := s.chatRepo.GetSession(ctx, req.SessionID)
	if err != nil {
		return nil, err
	}
	if chatSession == nil {
		return nil, errors.NotFound("session", nil)
	}
	if chatSession.PatientID != patientID {
		return nil, errors.Forbidden("only the session's patient may rate it")
	}

	apt, err := s.appointmentRepo.Get(ctx, chatSession.AppointmentID)
	if err != nil {
		return nil, err
	}

	startsAt, err := apt.StartsAt(s.location)
	if err != nil {
		return nil, fmt.Errorf("invalid appointment time: %w", err)
	}
	if state := session.Derive(s.now(), apt.PaymentStatus, startsAt); state != model.SessionExpired {
		return nil, errors.AppointmentNotExpired()
	}

	rated, err := s.repo.Exists(ctx, req.SessionID, patientID)
	if err != nil {
		return nil, err
	}
	if rated {
		return nil, errors.AlreadyRated()
	}

	rating := &model.Rating{
		SessionID:     chatSession.ID,
		AppointmentID: apt.ID,
		DoctorID:      apt.DoctorID,
		PatientID:     patientID,
		Stars:         req.Stars,
		Comment:       req.Comment,
	}

	rollup, err := s.repo.CreateWithRollup(ctx, rating)
	if err != nil {
		return nil, err
	}
	s.rollups.Set(rollup.DoctorID.String(), rollup, rollupCacheTTL)

	s.events.Record(ctx, model.EventRatingSubmitted, apt.ID, map[string]interface{}{
		"rating_id":      rating.ID,
		"doctor_id":      rating.DoctorID,
		"stars":          rating.Stars,
		"rating_count":   rollup.RatingCount,
		"average_rating": rollup.AverageRating,
	})

	return rating, nil
}

// Rollup reads the doctor's aggregate, served from a short-lived cache since
// doctor listings hit it on every page view.
func (s *Service) Rollup(ctx context.Context, doctorID uuid.UUID) (*model.DoctorRatingRollup, error) {
	if cached, ok := s.rollups.Get(doctorID.String()); ok {
		return cached.(*model.DoctorRatingRollup), nil
	}

	rollup, err := s.repo.GetRollup(ctx, doctorID)
	if err != nil {
		return nil, err
	}
	s.rollups.Set(doctorID.String(), rollup, rollupCacheTTL)
	return rollup, nil
}
