package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/SanketsMane/KIDOKOOL-LMS-Marketplace-UPDATED/internal/models"
)

type CreateSessionInput struct {
	TutorID         int64
	StudentID       int64
	Subject         string
	ScheduledAt     time.Time
	DurationMinutes int
	Price           float64
}

type SessionListFilter struct {
	ActorID   int64
	Role      string
	Status    string
	Timeframe string
}

const sessionColumns = `id, tutor_id, student_id, subject, scheduled_at, duration_min, price, status, started_at, ended_at, created_at, updated_at`

type SessionRepository struct {
	db DBTX
}

func NewSessionRepository(db DBTX) *SessionRepository {
	return &SessionRepository{db: db}
}

func scanSession(row interface{ Scan(dest ...any) error }) (*models.Session, error) {
	var session models.Session
	err := row.Scan(
		&session.ID,
		&session.TutorID,
		&session.StudentID,
		&session.Subject,
		&session.ScheduledAt,
		&session.DurationMinutes,
		&session.Price,
		&session.Status,
		&session.StartedAt,
		&session.EndedAt,
		&session.CreatedAt,
		&session.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &session, nil
}

func (r *SessionRepository) Create(
	ctx context.Context,
	input CreateSessionInput,
) (*models.Session, error) {
	query := fmt.Sprintf(`
		INSERT INTO sessions (tutor_id, student_id, subject, scheduled_at, duration_min, price, status)
		VALUES ($1, $2, $3, $4, $5, $6, 'scheduled')
		RETURNING %s
	`, sessionColumns)

	return scanSession(r.db.QueryRow(
		ctx,
		query,
		input.TutorID,
		input.StudentID,
		input.Subject,
		input.ScheduledAt,
		input.DurationMinutes,
		input.Price,
	))
}

func (r *SessionRepository) GetByID(ctx context.Context, sessionID int64) (*models.Session, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM sessions
		WHERE id = $1
	`, sessionColumns)
	return scanSession(r.db.QueryRow(ctx, query, sessionID))
}

func (r *SessionRepository) List(
	ctx context.Context,
	filter SessionListFilter,
) ([]models.Session, error) {
	actorColumn := "student_id"
	if filter.Role == models.RoleTutor {
		actorColumn = "tutor_id"
	}

	args := []any{filter.ActorID}
	whereParts := []string{fmt.Sprintf("%s = $1", actorColumn)}

	if status := strings.TrimSpace(filter.Status); status != "" {
		args = append(args, status)
		whereParts = append(whereParts, fmt.Sprintf("status = $%d", len(args)))
	}

	switch strings.TrimSpace(filter.Timeframe) {
	case "upcoming":
		whereParts = append(
			whereParts,
			"(scheduled_at + (duration_min * INTERVAL '1 minute')) > NOW()",
		)
	case "past":
		whereParts = append(
			whereParts,
			"(scheduled_at + (duration_min * INTERVAL '1 minute')) <= NOW()",
		)
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM sessions
		WHERE %s
		ORDER BY scheduled_at ASC, id ASC
	`, sessionColumns, strings.Join(whereParts, " AND "))

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	sessions := make([]models.Session, 0)
	for rows.Next() {
		session, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, *session)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return sessions, nil
}

// StartIfScheduled flips a scheduled session to in_progress and stamps
// started_at in one statement. Returns pgx.ErrNoRows when the session is no
// longer in the scheduled state, so a lost race is distinguishable from
// success.
func (r *SessionRepository) StartIfScheduled(ctx context.Context, sessionID int64) (*models.Session, error) {
	query := fmt.Sprintf(`
		UPDATE sessions
		SET status = 'in_progress', started_at = NOW(), updated_at = NOW()
		WHERE id = $1 AND status = 'scheduled'
		RETURNING %s
	`, sessionColumns)
	return scanSession(r.db.QueryRow(ctx, query, sessionID))
}

// CompleteIfOpen finalizes a session that has not completed yet. ended_at is
// only written by the first caller; COALESCE keeps repeat completions from
// moving the timestamp.
func (r *SessionRepository) CompleteIfOpen(ctx context.Context, sessionID int64) (*models.Session, error) {
	query := fmt.Sprintf(`
		UPDATE sessions
		SET status = 'completed', ended_at = COALESCE(ended_at, NOW()), updated_at = NOW()
		WHERE id = $1 AND status <> 'completed'
		RETURNING %s
	`, sessionColumns)
	return scanSession(r.db.QueryRow(ctx, query, sessionID))
}

func (r *SessionRepository) HasConflict(
	ctx context.Context,
	tutorID int64,
	requestedTime time.Time,
	durationMinutes int,
) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1
			FROM sessions
			WHERE tutor_id = $1
			  AND status <> 'completed'
			  AND scheduled_at < ($2::timestamptz + ($3::int * INTERVAL '1 minute'))
			  AND (scheduled_at + (duration_min * INTERVAL '1 minute')) > $2::timestamptz
		)
	`
	var hasConflict bool
	if err := r.db.QueryRow(ctx, query, tutorID, requestedTime, durationMinutes).Scan(&hasConflict); err != nil {
		return false, err
	}
	return hasConflict, nil
}
