package route

import (
	"github.com/ferdian3456/kinfeed/internal/delivery/http"
	"github.com/ferdian3456/kinfeed/internal/delivery/http/middleware"

	"github.com/gofiber/fiber/v2"
)

type RouteConfig struct {
	App                *fiber.App
	AuthMiddleware     *middleware.AuthMiddleware
	WriteRateLimiter   fiber.Handler
	UserController     *http.UserController
	CommentController  *http.CommentController
	ReactionController *http.ReactionController
	EventController    *http.EventController
}

func (c *RouteConfig) SetupRoute() {
	api := c.App.Group("/api")

	api.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	userGroup := api.Group("/users", c.AuthMiddleware.ProtectedRoute())
	userGroup.Get("/me", c.UserController.GetUserInfo)
	userGroup.Post("/logout", c.UserController.Logout)

	postGroup := api.Group("/posts", c.AuthMiddleware.ProtectedRoute())
	if c.WriteRateLimiter != nil {
		postGroup.Use(c.WriteRateLimiter)
	}

	postGroup.Get("/:postId/comments", c.CommentController.GetComments)
	postGroup.Post("/:postId/comments", c.CommentController.CreateComment)
	postGroup.Put("/:postId/comments/:commentId", c.CommentController.UpdateComment)
	postGroup.Delete("/:postId/comments/:commentId", c.CommentController.DeleteComment)
	postGroup.Post("/:postId/comments/:commentId/likes", c.CommentController.LikeComment)
	postGroup.Delete("/:postId/comments/:commentId/likes", c.CommentController.UnlikeComment)

	postGroup.Get("/:postId/reactions", c.ReactionController.GetReactions)
	postGroup.Post("/:postId/reactions", c.ReactionController.CreateReaction)
	postGroup.Put("/:postId/reactions/:reactionId", c.ReactionController.ReplaceReaction)
	postGroup.Delete("/:postId/reactions/:reactionId", c.ReactionController.DeleteReaction)

	postGroup.Get("/:postId/events", c.EventController.Upgrade, c.EventController.Stream())
}
