package feedbackController

import (
	"context"
	"errors"
	"log"
	"time"

	"pulse/middleware"
	"pulse/notifier"
	"pulse/repository"
	feedbackValidators "pulse/validators/feedback"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// FeedbackController handles the feedback submission pipeline. Storage and
// notification are injected so the wiring happens once at startup.
type FeedbackController struct {
	repo     *repository.FeedbackRepo
	notifier notifier.Notifier
}

func New(repo *repository.FeedbackRepo, n notifier.Notifier) *FeedbackController {
	return &FeedbackController{
		repo:     repo,
		notifier: n,
	}
}

// SubmitFeedback creates or updates the requester's feedback record
func (fc *FeedbackController) SubmitFeedback(c *fiber.Ctx) error {
	userId := c.Locals("userId").(uint)
	reqData := c.Locals("validatedFeedback").(*feedbackValidators.SubmitFeedbackRequest)

	// An id means "update my existing record": it must resolve to a record
	// owned by the requester. A foreign record reads as missing.
	if reqData.ID != "" {
		existing, err := fc.repo.FindOwned(c.Context(), reqData.ID, userId)
		if err != nil {
			return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to submit feedback!", nil)
		}
		if existing == nil {
			return middleware.ValidationErrorResponse(c, map[string]string{"id": "Feedback not found!"})
		}
	}

	feedback, username, err := fc.repo.Upsert(c.Context(), userId, reqData.ID, reqData.Content, reqData.Evaluation)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// The record vanished between the ownership check and the update
			return middleware.ValidationErrorResponse(c, map[string]string{"id": "Feedback not found!"})
		}
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to submit feedback!", nil)
	}

	// Fire-and-forget: the response never waits on the webhook
	message := notifier.BuildFeedbackMessage(username, feedback.Content, feedback.Evaluation)
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := fc.notifier.Notify(ctx, message); err != nil {
			log.Printf("Error sending feedback notification: %v", err)
		}
	}()

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Feedback submitted successfully!", fiber.Map{
		"id": feedback.ID,
	})
}

// GetMyFeedback returns the requester's own feedback records
func (fc *FeedbackController) GetMyFeedback(c *fiber.Ctx) error {
	userId := c.Locals("userId").(uint)

	page := c.QueryInt("page", 1)
	limit := c.QueryInt("limit", 10)
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}

	feedbacks, total, err := fc.repo.ListByOwner(c.Context(), userId, page, limit)
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch feedback!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Feedback fetched!", fiber.Map{
		"feedbacks": feedbacks,
		"pagination": fiber.Map{
			"total": total,
			"page":  page,
			"limit": limit,
		},
	})
}

// GetRecentFeedback returns the latest feedback across all users (Admin only)
func (fc *FeedbackController) GetRecentFeedback(c *fiber.Ctx) error {
	role, _ := c.Locals("role").(string)
	if role != "ADMIN" {
		return middleware.JsonResponse(c, fiber.StatusForbidden, false, "Access Denied!", nil)
	}

	page := c.QueryInt("page", 1)
	limit := c.QueryInt("limit", 10)
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}

	feedbacks, total, err := fc.repo.ListRecent(c.Context(), page, limit)
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch feedback!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Feedback fetched!", fiber.Map{
		"feedbacks": feedbacks,
		"pagination": fiber.Map{
			"total": total,
			"page":  page,
			"limit": limit,
		},
	})
}
