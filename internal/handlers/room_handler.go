package handlers

import (
	"context"
	"errors"
	"log"
	"strconv"
	"strings"

	"github.com/SanketsMane/KIDOKOOL-LMS-Marketplace-UPDATED/internal/models"
	"github.com/SanketsMane/KIDOKOOL-LMS-Marketplace-UPDATED/internal/rtc"
	"github.com/SanketsMane/KIDOKOOL-LMS-Marketplace-UPDATED/internal/services"
	roomws "github.com/SanketsMane/KIDOKOOL-LMS-Marketplace-UPDATED/internal/websocket"
	"github.com/SanketsMane/KIDOKOOL-LMS-Marketplace-UPDATED/pkg/utils"
	websocket "github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"
)

type roomApplicationService interface {
	RoomInfo(ctx context.Context, actorID int64, sessionID int64) (*models.RoomDetail, error)
	Join(ctx context.Context, actorID int64, sessionID int64) (*models.RoomGrant, error)
	End(ctx context.Context, actorID int64, sessionID int64) (*models.Session, error)
}

type RoomHandler struct {
	service   roomApplicationService
	hub       *roomws.Hub
	jwtSecret string
}

func NewRoomHandler(service *services.RoomService, hub *roomws.Hub, jwtSecret string) *RoomHandler {
	return &RoomHandler{
		service:   service,
		hub:       hub,
		jwtSecret: jwtSecret,
	}
}

func (h *RoomHandler) GetRoomInfo(c *fiber.Ctx) error {
	actorID, err := parseActorID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	sessionID, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil || sessionID <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid session id"})
	}

	detail, err := h.service.RoomInfo(c.Context(), actorID, sessionID)
	if err != nil {
		return mapRoomError(c, err)
	}

	return c.JSON(fiber.Map{"room": detail})
}

func (h *RoomHandler) JoinRoom(c *fiber.Ctx) error {
	actorID, err := parseActorID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	sessionID, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil || sessionID <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid session id"})
	}

	grant, err := h.service.Join(c.Context(), actorID, sessionID)
	if err != nil {
		return mapRoomError(c, err)
	}

	return c.JSON(fiber.Map{
		"token":      grant.Token,
		"channel":    grant.Channel,
		"expires_at": grant.ExpiresAt,
		"role":       grant.Role,
	})
}

func (h *RoomHandler) EndRoom(c *fiber.Ctx) error {
	actorID, err := parseActorID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	sessionID, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil || sessionID <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid session id"})
	}

	if _, err := h.service.End(c.Context(), actorID, sessionID); err != nil {
		return mapRoomError(c, err)
	}

	return c.JSON(fiber.Map{"success": true})
}

func (h *RoomHandler) WebSocketAuth(c *fiber.Ctx) error {
	if !websocket.IsWebSocketUpgrade(c) {
		return c.Status(fiber.StatusUpgradeRequired).JSON(fiber.Map{"error": "WebSocket upgrade required"})
	}

	claims, err := h.parseWSClaims(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid or expired token"})
	}

	c.Locals("user_id", claims.UserID)
	c.Locals("role", claims.Role)
	return c.Next()
}

func (h *RoomHandler) HandleWebSocket(conn *websocket.Conn) {
	userID, _ := conn.Locals("user_id").(string)
	client := roomws.NewClient(h.hub, conn, userID)

	h.hub.Register(client)
	go client.WritePump()
	client.ReadPump()
}

func (h *RoomHandler) parseWSClaims(c *fiber.Ctx) (*utils.Claims, error) {
	tokenString := strings.TrimSpace(c.Query("token"))
	if tokenString == "" {
		authHeader := strings.TrimSpace(c.Get("Authorization"))
		if authHeader != "" {
			parts := strings.Split(authHeader, " ")
			if len(parts) == 2 && parts[0] == "Bearer" {
				tokenString = parts[1]
			}
		}
	}

	if tokenString == "" {
		return nil, errors.New("missing token")
	}

	return utils.ValidateToken(tokenString, h.jwtSecret)
}

func mapRoomError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, services.ErrForbidden):
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
	case errors.Is(err, services.ErrSessionEnded):
		return c.Status(fiber.StatusGone).JSON(fiber.Map{"error": "Session already ended"})
	case errors.Is(err, rtc.ErrNotConfigured):
		// Deployment misconfiguration. Keep the detail out of the response.
		log.Printf("room credential issue failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Video service unavailable"})
	case errors.Is(err, pgx.ErrNoRows):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Session not found"})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to process room request"})
	}
}
