package routes

import (
	"errors"

	"github.com/Rafi653/vibe-project/internal/bus"
	"github.com/Rafi653/vibe-project/internal/config"
	"github.com/Rafi653/vibe-project/internal/handlers"
	"github.com/Rafi653/vibe-project/internal/middleware"
	"github.com/Rafi653/vibe-project/internal/models"
	"github.com/Rafi653/vibe-project/internal/repository"
	"github.com/Rafi653/vibe-project/internal/services"
	chatws "github.com/Rafi653/vibe-project/internal/websocket"
	websocket "github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// Realtime holds the long-running pieces the server runs next to HTTP.
type Realtime struct {
	Hub      *chatws.Hub
	Presence *repository.PresenceRepository
}

func RegisterRoutes(
	app *fiber.App,
	cfg *config.Config,
	db *pgxpool.Pool,
	chatBus bus.Bus,
	log *zap.Logger,
) (*Realtime, error) {
	if cfg == nil || cfg.JWTSecret == "" {
		return nil, errors.New("jwt secret is required")
	}
	if db == nil {
		return nil, errors.New("database pool is required")
	}

	userRepo := repository.NewUserRepository(db)
	coachProfileRepo := repository.NewCoachProfileRepository(db)
	bookingRepo := repository.NewBookingRepository(db)
	conversationRepo := repository.NewConversationRepository(db)
	messageRepo := repository.NewMessageRepository(db)
	presenceRepo := repository.NewPresenceRepository(db)
	feedbackRepo := repository.NewFeedbackRepository(db)
	workoutLogRepo := repository.NewWorkoutLogRepository(db)
	dietLogRepo := repository.NewDietLogRepository(db)
	workoutPlanRepo := repository.NewWorkoutPlanRepository(db)
	dietPlanRepo := repository.NewDietPlanRepository(db)
	reportRepo := repository.NewReportRepository(db)

	authService := services.NewAuthService(db, userRepo, cfg.JWTSecret, cfg.JWTTTL, cfg.CoachDefaultSlots)
	userService := services.NewUserService(db, userRepo, bookingRepo, messageRepo, feedbackRepo, reportRepo, cfg.CoachDefaultSlots)
	bookingService := services.NewBookingService(db, bookingRepo, coachProfileRepo, userRepo)
	chatService := services.NewChatService(db, conversationRepo, messageRepo, presenceRepo, userRepo, cfg.MaxMessageLength)
	feedbackService := services.NewFeedbackService(feedbackRepo)
	fitnessService := services.NewFitnessService(workoutLogRepo, dietLogRepo, workoutPlanRepo, dietPlanRepo, userRepo)
	planService := services.NewPlanService(workoutPlanRepo, dietPlanRepo, userRepo)
	reportService := services.NewReportService(reportRepo)

	presence := chatws.NewPresenceTracker(presenceRepo, log)
	hub := chatws.NewHub(chatService, presence, chatBus, log)

	authHandler := handlers.NewAuthHandler(authService, userService)
	userHandler := handlers.NewUserHandler(userService)
	bookingHandler := handlers.NewBookingHandler(bookingService)
	chatHandler := handlers.NewChatHandler(chatService, userService, hub, cfg.JWTSecret, log)
	feedbackHandler := handlers.NewFeedbackHandler(feedbackService)
	fitnessHandler := handlers.NewFitnessHandler(fitnessService)
	planHandler := handlers.NewPlanHandler(planService)
	reportHandler := handlers.NewReportHandler(reportService)
	healthHandler := handlers.NewHealthHandler(db)

	requireAuth := middleware.AuthRequired(cfg.JWTSecret, userService)

	app.Get("/health", healthHandler.Check)

	api := app.Group("/api")

	auth := api.Group("/auth")
	auth.Post("/signup", authHandler.Signup)
	auth.Post("/login", authHandler.Login)
	auth.Get("/me", requireAuth, authHandler.Me)
	auth.Post("/logout", requireAuth, authHandler.Logout)

	v1 := api.Group("/v1")

	users := v1.Group("/users", requireAuth)
	users.Get("/me", userHandler.GetMe)
	users.Put("/me", userHandler.UpdateMe)

	chat := v1.Group("/chat", requireAuth)
	chat.Post("/conversations", chatHandler.CreateConversation)
	chat.Get("/conversations", chatHandler.ListConversations)
	chat.Get("/conversations/:id", chatHandler.GetConversation)
	chat.Post("/conversations/:id/messages", chatHandler.SendMessage)
	chat.Post("/conversations/:id/participants", chatHandler.AddParticipants)
	chat.Delete("/conversations/:id/participants/me", chatHandler.LeaveConversation)
	chat.Patch("/messages/:id", chatHandler.EditMessage)
	chat.Delete("/messages/:id", chatHandler.DeleteMessage)
	chat.Get("/users/online", chatHandler.OnlineUsers)

	v1.Get("/ws", chatHandler.WebSocketAuth, websocket.New(chatHandler.HandleWebSocket))

	bookings := v1.Group("/bookings", requireAuth)
	bookings.Get("/coaches", bookingHandler.ListCoaches)
	bookings.Get("/coaches/:id", bookingHandler.GetCoach)
	bookings.Post("/book", middleware.RequireRoles(models.RoleClient), bookingHandler.Book)
	bookings.Get("/mine", bookingHandler.ListMine)
	bookings.Get("/coach", middleware.RequireRoles(models.RoleCoach), bookingHandler.CoachCalendar)
	bookings.Put("/:id", bookingHandler.Update)

	client := v1.Group("/client", requireAuth, middleware.RequireRoles(models.RoleClient))
	client.Post("/workout-logs", fitnessHandler.CreateWorkoutLog)
	client.Get("/workout-logs", fitnessHandler.ListWorkoutLogs)
	client.Get("/workout-logs/:id", fitnessHandler.GetWorkoutLog)
	client.Put("/workout-logs/:id", fitnessHandler.UpdateWorkoutLog)
	client.Delete("/workout-logs/:id", fitnessHandler.DeleteWorkoutLog)
	client.Post("/diet-logs", fitnessHandler.CreateDietLog)
	client.Get("/diet-logs", fitnessHandler.ListDietLogs)
	client.Get("/diet-logs/:id", fitnessHandler.GetDietLog)
	client.Put("/diet-logs/:id", fitnessHandler.UpdateDietLog)
	client.Delete("/diet-logs/:id", fitnessHandler.DeleteDietLog)
	client.Get("/workout-plans", planHandler.MyWorkoutPlans)
	client.Get("/workout-plans/:id", planHandler.MyWorkoutPlan)
	client.Get("/diet-plans", planHandler.MyDietPlans)
	client.Get("/diet-plans/:id", planHandler.MyDietPlan)
	client.Get("/progress", fitnessHandler.Progress)

	coach := v1.Group("/coach", requireAuth, middleware.RequireRoles(models.RoleCoach))
	coach.Get("/clients", fitnessHandler.ListClients)
	coach.Get("/clients/:id", fitnessHandler.GetClient)
	coach.Get("/clients/:id/workout-logs", fitnessHandler.ClientWorkoutLogs)
	coach.Get("/clients/:id/diet-logs", fitnessHandler.ClientDietLogs)
	coach.Get("/clients/:id/progress", fitnessHandler.ClientProgress)
	coach.Post("/workout-plans", planHandler.CreateWorkoutPlan)
	coach.Get("/workout-plans", planHandler.ListWorkoutPlans)
	coach.Put("/workout-plans/:id", planHandler.UpdateWorkoutPlan)
	coach.Delete("/workout-plans/:id", planHandler.DeleteWorkoutPlan)
	coach.Post("/diet-plans", planHandler.CreateDietPlan)
	coach.Get("/diet-plans", planHandler.ListDietPlans)
	coach.Put("/diet-plans/:id", planHandler.UpdateDietPlan)
	coach.Delete("/diet-plans/:id", planHandler.DeleteDietPlan)

	v1.Post("/feedback", middleware.OptionalAuth(cfg.JWTSecret, userService), feedbackHandler.Submit)

	admin := v1.Group("/admin", requireAuth, middleware.RequireRoles(models.RoleAdmin))
	admin.Get("/users", userHandler.ListUsers)
	admin.Get("/users/:id", userHandler.GetUser)
	admin.Put("/users/:id", userHandler.UpdateUser)
	admin.Delete("/users/:id", userHandler.DisableUser)
	admin.Get("/stats", userHandler.Stats)
	admin.Get("/reports/usage", reportHandler.Usage)
	admin.Get("/bookings", bookingHandler.AdminList)
	admin.Get("/coaches/:id/bookings", bookingHandler.AdminCoachBookings)
	admin.Get("/feedback", feedbackHandler.List)
	admin.Put("/feedback/:id/status", feedbackHandler.UpdateStatus)

	return &Realtime{Hub: hub, Presence: presenceRepo}, nil
}
