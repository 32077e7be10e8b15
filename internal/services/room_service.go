package services

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/SanketsMane/KIDOKOOL-LMS-Marketplace-UPDATED/internal/models"
	"github.com/SanketsMane/KIDOKOOL-LMS-Marketplace-UPDATED/internal/rtc"
	"github.com/jackc/pgx/v5"
)

var ErrSessionEnded = errors.New("session already ended")

type sessionStore interface {
	GetByID(ctx context.Context, sessionID int64) (*models.Session, error)
	StartIfScheduled(ctx context.Context, sessionID int64) (*models.Session, error)
	CompleteIfOpen(ctx context.Context, sessionID int64) (*models.Session, error)
}

type participantReader interface {
	GetByID(ctx context.Context, id int64) (*models.User, error)
}

type credentialIssuer interface {
	Mint(channel, identity, role string) (*rtc.Credential, error)
}

// RoomEvent is pushed to both parties of a session when its lifecycle moves.
type RoomEvent struct {
	Type      string `json:"type"`
	SessionID string `json:"session_id"`
	ActorID   string `json:"actor_id"`
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`

	// Routing only, not part of the payload.
	TutorID   string `json:"-"`
	StudentID string `json:"-"`
}

type roomNotifier interface {
	Publish(event *RoomEvent)
}

// RoomService guards access to a session's room and drives the
// scheduled -> in_progress -> completed state machine. Party membership is
// re-checked from storage on every call; nothing is cached between requests.
type RoomService struct {
	sessions sessionStore
	users    participantReader
	tokens   credentialIssuer
	notifier roomNotifier
}

func NewRoomService(
	sessions sessionStore,
	users participantReader,
	tokens credentialIssuer,
	notifier roomNotifier,
) *RoomService {
	return &RoomService{
		sessions: sessions,
		users:    users,
		tokens:   tokens,
		notifier: notifier,
	}
}

func participantRole(session *models.Session, actorID int64) (string, error) {
	switch actorID {
	case session.TutorID:
		return models.RoleTutor, nil
	case session.StudentID:
		return models.RoleStudent, nil
	default:
		return "", ErrForbidden
	}
}

func (s *RoomService) RoomInfo(
	ctx context.Context,
	actorID int64,
	sessionID int64,
) (*models.RoomDetail, error) {
	session, err := s.sessions.GetByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	role, err := participantRole(session, actorID)
	if err != nil {
		return nil, err
	}

	tutor, err := s.users.GetByID(ctx, session.TutorID)
	if err != nil {
		return nil, err
	}
	student, err := s.users.GetByID(ctx, session.StudentID)
	if err != nil {
		return nil, err
	}

	return &models.RoomDetail{
		SessionID:       session.ID,
		Subject:         session.Subject,
		TutorName:       tutor.FullName,
		StudentName:     student.FullName,
		ScheduledAt:     session.ScheduledAt,
		DurationMinutes: session.DurationMinutes,
		Status:          session.Status,
		StartedAt:       session.StartedAt,
		EndedAt:         session.EndedAt,
		CallerRole:      role,
	}, nil
}

// Join admits a participant to the session's room. The first join moves the
// session to in_progress and stamps started_at; later joins reuse the state
// as-is. Every successful join mints a fresh credential.
func (s *RoomService) Join(
	ctx context.Context,
	actorID int64,
	sessionID int64,
) (*models.RoomGrant, error) {
	session, err := s.sessions.GetByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	role, err := participantRole(session, actorID)
	if err != nil {
		return nil, err
	}

	switch session.Status {
	case models.SessionStatusCompleted:
		return nil, ErrSessionEnded
	case models.SessionStatusScheduled:
		started, err := s.sessions.StartIfScheduled(ctx, sessionID)
		if err == nil {
			session = started
			break
		}
		if !errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		// Lost the race: the other participant transitioned the session
		// first. Re-read and fall through to the idempotent path.
		current, err := s.sessions.GetByID(ctx, sessionID)
		if err != nil {
			return nil, err
		}
		if current.Status == models.SessionStatusCompleted {
			return nil, ErrSessionEnded
		}
		session = current
	}

	channel := rtc.ChannelName(session.ID)
	cred, err := s.tokens.Mint(channel, strconv.FormatInt(actorID, 10), role)
	if err != nil {
		return nil, err
	}

	s.notify(&RoomEvent{
		Type:      "participant_joined",
		SessionID: strconv.FormatInt(session.ID, 10),
		ActorID:   strconv.FormatInt(actorID, 10),
		Status:    session.Status,
		Timestamp: FormatEventTimestamp(time.Now().UTC()),
		TutorID:   strconv.FormatInt(session.TutorID, 10),
		StudentID: strconv.FormatInt(session.StudentID, 10),
	})

	return &models.RoomGrant{
		Token:     cred.Token,
		Channel:   cred.Channel,
		ExpiresAt: cred.ExpiresAt,
		Role:      role,
	}, nil
}

// End finalizes the session. Repeat calls succeed without touching ended_at
// again, so both participants can hang up independently.
func (s *RoomService) End(
	ctx context.Context,
	actorID int64,
	sessionID int64,
) (*models.Session, error) {
	session, err := s.sessions.GetByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if _, err := participantRole(session, actorID); err != nil {
		return nil, err
	}

	completed, err := s.sessions.CompleteIfOpen(ctx, sessionID)
	if err != nil {
		if !errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		// Already completed by the other participant.
		return s.sessions.GetByID(ctx, sessionID)
	}

	s.notify(&RoomEvent{
		Type:      "session_ended",
		SessionID: strconv.FormatInt(completed.ID, 10),
		ActorID:   strconv.FormatInt(actorID, 10),
		Status:    completed.Status,
		Timestamp: FormatEventTimestamp(time.Now().UTC()),
		TutorID:   strconv.FormatInt(completed.TutorID, 10),
		StudentID: strconv.FormatInt(completed.StudentID, 10),
	})

	return completed, nil
}

func (s *RoomService) notify(event *RoomEvent) {
	if s.notifier == nil {
		return
	}
	s.notifier.Publish(event)
}

func FormatEventTimestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}
