package config

import (
	http "github.com/ferdian3456/kinfeed/internal/delivery/http"
	"github.com/ferdian3456/kinfeed/internal/delivery/http/middleware"
	"github.com/ferdian3456/kinfeed/internal/delivery/http/route"
	"github.com/ferdian3456/kinfeed/internal/repository"
	"github.com/ferdian3456/kinfeed/internal/usecase"
	"github.com/minio/minio-go/v7"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/knadh/koanf/v2"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const defaultWriteRateLimit = 60

type ServerConfig struct {
	Router  *fiber.App
	DB      *pgxpool.Pool
	DBCache *redis.Client
	Log     *zap.Logger
	Config  *koanf.Koanf
	MinIO   *minio.Client
}

func Server(config *ServerConfig) {
	postRepository := repository.NewPostRepository(config.Log, config.DB)
	eventRepository := repository.NewEventRepository(config.Log, config.DBCache)

	userRepository := repository.NewUserRepository(config.Log, config.DB, config.DBCache, config.MinIO)
	userUsecase := usecase.NewUserUsecase(userRepository, config.Log, config.Config)
	userController := http.NewUserController(userUsecase, config.Log, config.Config)

	commentRepository := repository.NewCommentRepository(config.Log, config.DB, config.MinIO)
	commentUsecase := usecase.NewCommentUsecase(postRepository, commentRepository, eventRepository, config.DB, config.Log, config.Config)
	commentController := http.NewCommentController(commentUsecase, config.Log, config.Config)

	reactionRepository := repository.NewReactionRepository(config.Log, config.DB)
	reactionCache := repository.NewReactionCache(config.Log, config.DBCache)
	reactionUsecase := usecase.NewReactionUsecase(postRepository, reactionRepository, reactionCache, eventRepository, config.Log)
	reactionController := http.NewReactionController(reactionUsecase, config.Log)

	eventUsecase := usecase.NewEventUsecase(postRepository, eventRepository, config.Log)
	eventController := http.NewEventController(eventUsecase, config.Log)

	authMiddleware := middleware.NewAuthMiddleware(config.Log, config.Config, userUsecase)

	writeRateLimit := intOr(config.Config.Int("WRITE_RATE_LIMIT"), defaultWriteRateLimit)

	routeConfig := route.RouteConfig{
		App:                config.Router,
		AuthMiddleware:     authMiddleware,
		WriteRateLimiter:   middleware.SetupWriteRateLimiter(config.Log, writeRateLimit),
		UserController:     userController,
		CommentController:  commentController,
		ReactionController: reactionController,
		EventController:    eventController,
	}

	routeConfig.SetupRoute()
}
