package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/SanketsMane/KIDOKOOL-LMS-Marketplace-UPDATED/internal/models"
	"github.com/SanketsMane/KIDOKOOL-LMS-Marketplace-UPDATED/internal/rtc"
	"github.com/SanketsMane/KIDOKOOL-LMS-Marketplace-UPDATED/internal/services"
	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"
)

type stubRoomService struct {
	infoResult    *models.RoomDetail
	infoErr       error
	joinResult    *models.RoomGrant
	joinErr       error
	endResult     *models.Session
	endErr        error
	lastActorID   int64
	lastSessionID int64
}

func (s *stubRoomService) RoomInfo(_ context.Context, actorID int64, sessionID int64) (*models.RoomDetail, error) {
	s.lastActorID = actorID
	s.lastSessionID = sessionID
	return s.infoResult, s.infoErr
}

func (s *stubRoomService) Join(_ context.Context, actorID int64, sessionID int64) (*models.RoomGrant, error) {
	s.lastActorID = actorID
	s.lastSessionID = sessionID
	return s.joinResult, s.joinErr
}

func (s *stubRoomService) End(_ context.Context, actorID int64, sessionID int64) (*models.Session, error) {
	s.lastActorID = actorID
	s.lastSessionID = sessionID
	return s.endResult, s.endErr
}

func newRoomTestApp(service roomApplicationService, role string) *fiber.App {
	handler := &RoomHandler{service: service}

	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		c.Locals("role", role)
		c.Locals("user_id", "42")
		return c.Next()
	})
	app.Get("/api/v1/sessions/:id/room", handler.GetRoomInfo)
	app.Post("/api/v1/sessions/:id/room/join", handler.JoinRoom)
	app.Post("/api/v1/sessions/:id/room/end", handler.EndRoom)
	return app
}

func TestJoinRoomReturnsGrant(t *testing.T) {
	expiresAt := time.Date(2026, 3, 20, 11, 0, 0, 0, time.UTC)
	service := &stubRoomService{
		joinResult: &models.RoomGrant{
			Token:     "signed-token",
			Channel:   "room-abc",
			ExpiresAt: expiresAt,
			Role:      models.RoleStudent,
		},
	}
	app := newRoomTestApp(service, models.RoleStudent)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/sessions/91/room/join", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if service.lastActorID != 42 || service.lastSessionID != 91 {
		t.Fatalf("expected actor 42 session 91, got %d/%d", service.lastActorID, service.lastSessionID)
	}

	var body struct {
		Token   string `json:"token"`
		Channel string `json:"channel"`
		Role    string `json:"role"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if body.Token != "signed-token" || body.Channel != "room-abc" || body.Role != models.RoleStudent {
		t.Fatalf("unexpected body: %+v", body)
	}
}

func TestJoinRoomReturnsForbiddenForNonParticipant(t *testing.T) {
	service := &stubRoomService{joinErr: services.ErrForbidden}
	app := newRoomTestApp(service, models.RoleStudent)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/sessions/91/room/join", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", resp.StatusCode)
	}
}

func TestJoinRoomReturnsGoneAfterCompletion(t *testing.T) {
	service := &stubRoomService{joinErr: services.ErrSessionEnded}
	app := newRoomTestApp(service, models.RoleTutor)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/sessions/91/room/join", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusGone {
		t.Fatalf("expected 410, got %d", resp.StatusCode)
	}
}

func TestJoinRoomHidesSigningConfigurationDetail(t *testing.T) {
	service := &stubRoomService{joinErr: rtc.ErrNotConfigured}
	app := newRoomTestApp(service, models.RoleTutor)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/sessions/91/room/join", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", resp.StatusCode)
	}

	var body struct {
		Error string `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if body.Error != "Video service unavailable" {
		t.Fatalf("expected generic error, got %q", body.Error)
	}
}

func TestJoinRoomReturnsNotFound(t *testing.T) {
	service := &stubRoomService{joinErr: pgx.ErrNoRows}
	app := newRoomTestApp(service, models.RoleStudent)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/sessions/999/room/join", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
}

func TestJoinRoomRejectsInvalidSessionID(t *testing.T) {
	service := &stubRoomService{}
	app := newRoomTestApp(service, models.RoleStudent)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/sessions/abc/room/join", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestEndRoomReturnsSuccess(t *testing.T) {
	service := &stubRoomService{
		endResult: &models.Session{ID: 91, Status: models.SessionStatusCompleted},
	}
	app := newRoomTestApp(service, models.RoleTutor)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/sessions/91/room/end", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var body struct {
		Success bool `json:"success"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if !body.Success {
		t.Fatalf("expected success true, got %+v", body)
	}
}

func TestGetRoomInfoReturnsDetail(t *testing.T) {
	service := &stubRoomService{
		infoResult: &models.RoomDetail{
			SessionID:       91,
			Subject:         "Algebra II",
			TutorName:       "Priya Raman",
			StudentName:     "Leo Park",
			DurationMinutes: 60,
			Status:          models.SessionStatusScheduled,
			CallerRole:      models.RoleTutor,
		},
	}
	app := newRoomTestApp(service, models.RoleTutor)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/sessions/91/room", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var body struct {
		Room models.RoomDetail `json:"room"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if body.Room.CallerRole != models.RoleTutor || body.Room.Subject != "Algebra II" {
		t.Fatalf("unexpected room detail: %+v", body.Room)
	}
}
