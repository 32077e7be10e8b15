package routes

import (
	"time"

	"github.com/SanketsMane/KIDOKOOL-LMS-Marketplace-UPDATED/internal/config"
	"github.com/SanketsMane/KIDOKOOL-LMS-Marketplace-UPDATED/internal/handlers"
	"github.com/SanketsMane/KIDOKOOL-LMS-Marketplace-UPDATED/internal/middleware"
	"github.com/SanketsMane/KIDOKOOL-LMS-Marketplace-UPDATED/internal/repository"
	"github.com/SanketsMane/KIDOKOOL-LMS-Marketplace-UPDATED/internal/rtc"
	"github.com/SanketsMane/KIDOKOOL-LMS-Marketplace-UPDATED/internal/services"
	roomws "github.com/SanketsMane/KIDOKOOL-LMS-Marketplace-UPDATED/internal/websocket"
	websocket "github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5/pgxpool"
)

func RegisterRoutes(app *fiber.App, cfg *config.Config, db *pgxpool.Pool) {
	userRepo := repository.NewUserRepository(db)
	sessionRepo := repository.NewSessionRepository(db)

	tokenBuilder := rtc.NewTokenBuilder(
		cfg.RTCAppID,
		cfg.RTCAppSecret,
		time.Duration(cfg.RTCTokenTTLMinutes)*time.Minute,
	)

	roomHub := roomws.NewHub()
	go roomHub.Run()

	authHandler := handlers.NewAuthHandler(userRepo, cfg.JWTSecret)
	bookingService := services.NewBookingService(db, sessionRepo, userRepo)
	sessionHandler := handlers.NewSessionHandler(bookingService)
	roomService := services.NewRoomService(sessionRepo, userRepo, tokenBuilder, roomHub)
	roomHandler := handlers.NewRoomHandler(roomService, roomHub, cfg.JWTSecret)

	api := app.Group("/api")

	auth := api.Group("/auth")
	auth.Post("/register", authHandler.Register)
	auth.Post("/login", authHandler.Login)
	auth.Get("/me", middleware.AuthRequired(cfg.JWTSecret), authHandler.Me)

	authProtected := api.Group("/v1", middleware.AuthRequired(cfg.JWTSecret))

	sessions := authProtected.Group("/sessions")
	sessions.Post("/book", sessionHandler.BookSession)
	sessions.Get("", sessionHandler.ListSessions)
	sessions.Get("/:id", sessionHandler.GetSession)
	sessions.Get("/:id/room", roomHandler.GetRoomInfo)
	sessions.Post("/:id/room/join", roomHandler.JoinRoom)
	sessions.Post("/:id/room/end", roomHandler.EndRoom)

	api.Use("/v1/ws", roomHandler.WebSocketAuth)
	api.Get("/v1/ws", websocket.New(roomHandler.HandleWebSocket))
}
