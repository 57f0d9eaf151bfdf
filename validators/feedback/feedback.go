package feedbackValidators

import (
	"unicode/utf8"

	"pulse/middleware"
	"pulse/models"

	"github.com/gofiber/fiber/v2"
)

const (
	ContentMinLength = 1
	ContentMaxLength = 10000
)

// SubmitFeedbackRequest is the validated submission passed to the controller
type SubmitFeedbackRequest struct {
	ID         string `json:"id" form:"id"`
	Content    string `json:"content" form:"content"`
	Evaluation string `json:"evaluation" form:"evaluation"`
}

// SubmitFeedback validates the feedback submission body (form-encoded or JSON)
func SubmitFeedback() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(SubmitFeedbackRequest)

		if err := c.BodyParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
		}

		errors := make(map[string]string)

		// Content validation
		contentLen := utf8.RuneCountInString(reqData.Content)
		if contentLen < ContentMinLength {
			errors["content"] = "Content is required!"
		} else if contentLen > ContentMaxLength {
			errors["content"] = "Content must not exceed 10000 characters!"
		}

		// Evaluation validation
		validEvaluation := map[string]bool{
			models.EvaluationPositive: true,
			models.EvaluationNegative: true,
		}
		if reqData.Evaluation == "" {
			errors["evaluation"] = "Evaluation is required!"
		} else if !validEvaluation[reqData.Evaluation] {
			errors["evaluation"] = "Invalid evaluation! Allowed: positive, negative"
		}

		// ID is optional, no format constraint

		if len(errors) > 0 {
			return middleware.ValidationErrorResponse(c, errors)
		}

		c.Locals("validatedFeedback", reqData)
		return c.Next()
	}
}
