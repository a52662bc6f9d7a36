package router

import (
	"context"

	"github.com/anonto42/socials/backend/internal/auth"
	"github.com/anonto42/socials/backend/internal/handlers"
	"github.com/anonto42/socials/backend/internal/media"
	"github.com/anonto42/socials/backend/internal/middleware"
	"github.com/anonto42/socials/backend/internal/models"
	"github.com/anonto42/socials/backend/internal/repositories"
	"github.com/anonto42/socials/backend/internal/services"
	"github.com/anonto42/socials/backend/validators"
	"github.com/labstack/echo/v4"
	"github.com/labstack/gommon/log"
	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/mongo"
	"gorm.io/gorm"
)

// Deps are the collaborators the routes are built from. main owns them.
type Deps struct {
	Postgres      *gorm.DB
	Mongo         *mongo.Database
	Tokens        *auth.TokenManager
	Uploader      media.Uploader
	Mailer        services.Mailer
	ClientURL     string
	SecureCookies bool
	HealthChecks  map[string]handlers.Pinger
}

// SetupRoutes migrates the stores, builds repositories, services and handlers
// and registers every route on e.
func SetupRoutes(ctx context.Context, e *echo.Echo, d Deps) error {
	if err := d.Postgres.AutoMigrate(&models.Comment{}, &models.Notification{}); err != nil {
		return errors.Wrap(err, "auto migrate")
	}
	log.Info("PostgreSQL auto-migrations completed.")

	if err := repositories.EnsureIndexes(ctx, d.Mongo); err != nil {
		return err
	}
	log.Info("MongoDB indexes ensured.")

	e.HTTPErrorHandler = handlers.HTTPErrorHandler
	e.Validator = validators.NewValidator()

	e.GET("/health", handlers.NewHealthHandler(d.HealthChecks).HealthCheck)

	// --- Initialize Repositories ---
	userRepo := repositories.NewMongoUserRepository(d.Mongo)
	postRepo := repositories.NewMongoPostRepository(d.Mongo)
	storyRepo := repositories.NewStoryRepository(d.Mongo)
	conversationRepo := repositories.NewConversationRepository(d.Mongo)
	commentRepo := repositories.NewPostgresCommentRepository(d.Postgres)
	notificationRepo := repositories.NewPostgresNotificationRepository(d.Postgres)

	// --- Initialize Services ---
	notificationSvc := services.NewNotificationService(notificationRepo, userRepo)
	accountSvc := services.NewAccountService(userRepo, postRepo, d.Tokens, d.Mailer, d.Uploader, d.ClientURL)
	relationshipSvc := services.NewRelationshipService(userRepo, notificationSvc)
	postSvc := services.NewPostService(postRepo, userRepo, commentRepo, d.Uploader, notificationSvc)
	commentSvc := services.NewCommentService(commentRepo, postSvc, postRepo, userRepo, d.Uploader, notificationSvc)
	storySvc := services.NewStoryService(storyRepo, userRepo, d.Uploader)
	messageSvc := services.NewMessageService(conversationRepo, userRepo, notificationSvc)

	// --- Unprotected routes for authentication ---
	authHandler := handlers.NewAuthHandler(accountSvc, d.Tokens, d.SecureCookies)
	authHandler.RegisterAuthRoutes(e.Group("/api/v1/auth"))
	log.Info("Auth routes configured.")

	// --- Protected routes ---
	api := e.Group("/api/v1")
	api.Use(middleware.JWTAuthMiddleware(d.Tokens, accountSvc, d.SecureCookies))
	log.Info("JWT authentication middleware applied to /api/v1 group.")

	authHandler.RegisterSessionRoutes(api)

	handlers.NewUserHandler(accountSvc).RegisterProfileRoutes(api)
	log.Info("User profile routes configured.")

	handlers.NewFriendshipHandler(relationshipSvc).RegisterFriendshipRoutes(api)
	log.Info("Friendship routes configured.")

	handlers.NewPostHandler(postSvc).RegisterPostRoutes(api)
	handlers.NewFeedHandler(postSvc).RegisterFeedRoutes(api)
	handlers.NewLikeHandler(postSvc).RegisterLikeRoutes(api)
	log.Info("Post routes configured.")

	handlers.NewCommentHandler(commentSvc).RegisterCommentRoutes(api)
	log.Info("Comment routes configured.")

	handlers.NewStoryHandler(storySvc).RegisterStoryRoutes(api)
	log.Info("Story routes configured.")

	handlers.NewMessageHandler(messageSvc).RegisterMessageRoutes(api)
	log.Info("Message routes configured.")

	handlers.NewNotificationHandler(notificationSvc).RegisterNotificationRoutes(api)
	log.Info("Notification routes configured.")

	log.Info("All routes configured.")
	return nil
}
