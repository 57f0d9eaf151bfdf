package feedbackRoutes

import (
	feedbackController "pulse/controllers/feedback"
	"pulse/middleware"
	feedbackValidators "pulse/validators/feedback"

	"github.com/gofiber/fiber/v2"
)

func SetupFeedbackRoutes(app *fiber.App, controller *feedbackController.FeedbackController) {
	feedback := app.Group("/feedback")

	feedback.Post("/", feedbackValidators.SubmitFeedback(), middleware.JWTMiddleware, controller.SubmitFeedback)
	feedback.Get("/my", middleware.JWTMiddleware, controller.GetMyFeedback)
	feedback.Get("/admin/recent", middleware.JWTMiddleware, controller.GetRecentFeedback)
}
