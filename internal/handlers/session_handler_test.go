package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/SanketsMane/KIDOKOOL-LMS-Marketplace-UPDATED/internal/models"
	"github.com/SanketsMane/KIDOKOOL-LMS-Marketplace-UPDATED/internal/repository"
	"github.com/SanketsMane/KIDOKOOL-LMS-Marketplace-UPDATED/internal/services"
	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"
)

type stubBookingService struct {
	bookResult     *models.Session
	bookErr        error
	listResult     []models.Session
	listErr        error
	getResult      *models.Session
	getErr         error
	lastBookInput  services.BookSessionInput
	lastActorID    int64
	lastRole       string
	lastSessionID  int64
	lastListFilter repository.SessionListFilter
}

func (s *stubBookingService) BookSession(_ context.Context, studentID int64, input services.BookSessionInput) (*models.Session, error) {
	s.lastActorID = studentID
	s.lastBookInput = input
	return s.bookResult, s.bookErr
}

func (s *stubBookingService) ListSessions(_ context.Context, actorID int64, role string, filter repository.SessionListFilter) ([]models.Session, error) {
	s.lastActorID = actorID
	s.lastRole = role
	s.lastListFilter = filter
	return s.listResult, s.listErr
}

func (s *stubBookingService) GetSession(_ context.Context, actorID int64, role string, sessionID int64) (*models.Session, error) {
	s.lastActorID = actorID
	s.lastRole = role
	s.lastSessionID = sessionID
	return s.getResult, s.getErr
}

func newSessionTestApp(service bookingApplicationService, role string) *fiber.App {
	handler := &SessionHandler{service: service}

	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		c.Locals("role", role)
		c.Locals("user_id", "42")
		return c.Next()
	})
	app.Post("/api/v1/sessions/book", handler.BookSession)
	app.Get("/api/v1/sessions", handler.ListSessions)
	app.Get("/api/v1/sessions/:id", handler.GetSession)
	return app
}

func TestBookSessionReturnsCreatedSession(t *testing.T) {
	service := &stubBookingService{
		bookResult: &models.Session{
			ID:              91,
			TutorID:         7,
			StudentID:       42,
			Subject:         "Algebra II",
			Status:          models.SessionStatusScheduled,
			DurationMinutes: 60,
		},
	}
	app := newSessionTestApp(service, models.RoleStudent)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/sessions/book", strings.NewReader(`{
		"tutor_id": 7,
		"subject": "Algebra II",
		"scheduled_at": "2030-03-15T09:00:00Z",
		"duration_minutes": 60
	}`))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}
	if service.lastActorID != 42 {
		t.Fatalf("expected actor id 42, got %d", service.lastActorID)
	}
	if service.lastBookInput.TutorID != 7 {
		t.Fatalf("expected tutor id 7, got %d", service.lastBookInput.TutorID)
	}
	if service.lastBookInput.DurationMinutes != 60 {
		t.Fatalf("expected 60 minutes, got %d", service.lastBookInput.DurationMinutes)
	}
}

func TestBookSessionForbiddenForTutors(t *testing.T) {
	service := &stubBookingService{}
	app := newSessionTestApp(service, models.RoleTutor)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/sessions/book", strings.NewReader(`{
		"tutor_id": 7,
		"subject": "Algebra II",
		"scheduled_at": "2030-03-15T09:00:00Z",
		"duration_minutes": 60
	}`))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", resp.StatusCode)
	}
}

func TestBookSessionReturnsConflictForOverlap(t *testing.T) {
	service := &stubBookingService{bookErr: services.ErrConflict}
	app := newSessionTestApp(service, models.RoleStudent)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/sessions/book", strings.NewReader(`{
		"tutor_id": 7,
		"subject": "Algebra II",
		"scheduled_at": "2030-03-15T09:00:00Z",
		"duration_minutes": 60
	}`))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("expected 409, got %d", resp.StatusCode)
	}
}

func TestListSessionsPassesStatusAndTimeframe(t *testing.T) {
	service := &stubBookingService{
		listResult: []models.Session{{ID: 5, Status: models.SessionStatusScheduled}},
	}
	app := newSessionTestApp(service, models.RoleTutor)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/sessions?status=scheduled&timeframe=upcoming", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if service.lastRole != models.RoleTutor {
		t.Fatalf("expected tutor role, got %q", service.lastRole)
	}
	if service.lastListFilter.Status != "scheduled" || service.lastListFilter.Timeframe != "upcoming" {
		t.Fatalf("unexpected filter: %+v", service.lastListFilter)
	}
}

func TestGetSessionReturnsNotFound(t *testing.T) {
	service := &stubBookingService{getErr: pgx.ErrNoRows}
	app := newSessionTestApp(service, models.RoleStudent)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/sessions/999", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
}

func TestMapSessionErrorDefaultsToInternalServerError(t *testing.T) {
	app := fiber.New()
	app.Get("/", func(c *fiber.Ctx) error {
		return mapSessionError(c, errors.New("boom"))
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", resp.StatusCode)
	}
}
