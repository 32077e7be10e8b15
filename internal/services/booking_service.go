package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/SanketsMane/KIDOKOOL-LMS-Marketplace-UPDATED/internal/models"
	"github.com/SanketsMane/KIDOKOOL-LMS-Marketplace-UPDATED/internal/repository"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrForbidden     = errors.New("forbidden")
	ErrConflict      = errors.New("conflict")
	ErrInvalidInput  = errors.New("invalid input")
	ErrTutorNotFound = errors.New("tutor not found")
)

type userReader interface {
	GetByID(ctx context.Context, id int64) (*models.User, error)
}

// BookingService is the scheduling workflow that puts sessions into the
// scheduled state. The room lifecycle never creates sessions itself.
type BookingService struct {
	db          *pgxpool.Pool
	sessionRepo *repository.SessionRepository
	userRepo    userReader
}

func NewBookingService(
	db *pgxpool.Pool,
	sessionRepo *repository.SessionRepository,
	userRepo userReader,
) *BookingService {
	return &BookingService{
		db:          db,
		sessionRepo: sessionRepo,
		userRepo:    userRepo,
	}
}

type BookSessionInput struct {
	TutorID         int64
	Subject         string
	ScheduledAt     time.Time
	DurationMinutes int
}

func (s *BookingService) BookSession(
	ctx context.Context,
	studentID int64,
	input BookSessionInput,
) (*models.Session, error) {
	if input.TutorID <= 0 || input.DurationMinutes <= 0 {
		return nil, ErrInvalidInput
	}
	if strings.TrimSpace(input.Subject) == "" {
		return nil, ErrInvalidInput
	}
	if input.ScheduledAt.Before(time.Now().Add(-1 * time.Minute)) {
		return nil, ErrInvalidInput
	}
	if studentID == input.TutorID {
		return nil, ErrInvalidInput
	}

	tutor, err := s.userRepo.GetByID(ctx, input.TutorID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrTutorNotFound
		}
		return nil, err
	}
	if tutor.Role != models.RoleTutor {
		return nil, ErrInvalidInput
	}
	if tutor.HourlyRate == nil || *tutor.HourlyRate <= 0 {
		return nil, ErrInvalidInput
	}

	price := *tutor.HourlyRate * float64(input.DurationMinutes) / 60

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	txSessionRepo := repository.NewSessionRepository(tx)

	if _, err := tx.Exec(ctx, "SELECT pg_advisory_xact_lock($1)", input.TutorID); err != nil {
		return nil, err
	}

	hasConflict, err := txSessionRepo.HasConflict(
		ctx,
		input.TutorID,
		input.ScheduledAt.UTC(),
		input.DurationMinutes,
	)
	if err != nil {
		return nil, err
	}
	if hasConflict {
		return nil, ErrConflict
	}

	session, err := txSessionRepo.Create(ctx, repository.CreateSessionInput{
		TutorID:         input.TutorID,
		StudentID:       studentID,
		Subject:         strings.TrimSpace(input.Subject),
		ScheduledAt:     input.ScheduledAt.UTC(),
		DurationMinutes: input.DurationMinutes,
		Price:           price,
	})
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	return session, nil
}

func (s *BookingService) ListSessions(
	ctx context.Context,
	actorID int64,
	role string,
	filter repository.SessionListFilter,
) ([]models.Session, error) {
	return s.sessionRepo.List(ctx, repository.SessionListFilter{
		ActorID:   actorID,
		Role:      role,
		Status:    filter.Status,
		Timeframe: filter.Timeframe,
	})
}

func (s *BookingService) GetSession(
	ctx context.Context,
	actorID int64,
	role string,
	sessionID int64,
) (*models.Session, error) {
	session, err := s.sessionRepo.GetByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if !canAccessSession(role, actorID, session) {
		return nil, ErrForbidden
	}
	return session, nil
}

func canAccessSession(role string, actorID int64, session *models.Session) bool {
	if role == models.RoleStudent {
		return session.StudentID == actorID
	}
	if role == models.RoleTutor {
		return session.TutorID == actorID
	}
	return false
}
