package utils

import (
	"context"
	"fmt"
	"log"
	"time"

	"pulse/models"
	"pulse/notifier"
	"pulse/repository"

	"github.com/jinzhu/now"
	"github.com/robfig/cron/v3"
)

// InitializeDigestScheduler sets up the daily feedback digest job
func InitializeDigestScheduler(spec string, repo *repository.FeedbackRepo, n notifier.Notifier) *cron.Cron {
	log.Println("[DIGEST-SCHEDULER] Initializing feedback digest scheduler...")

	c := cron.New()

	if _, err := c.AddFunc(spec, func() {
		log.Println("[DIGEST-SCHEDULER] Running daily feedback digest...")
		SendFeedbackDigest(repo, n)
	}); err != nil {
		log.Printf("[DIGEST-SCHEDULER] Invalid cron spec %q: %v", spec, err)
		return c
	}

	c.Start()
	log.Printf("[DIGEST-SCHEDULER] Feedback digest scheduler started - spec %q", spec)
	return c
}

// SendFeedbackDigest posts a summary of yesterday's feedback counts through
// the notifier. An empty day sends nothing.
func SendFeedbackDigest(repo *repository.FeedbackRepo, n notifier.Notifier) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	since := now.BeginningOfDay().AddDate(0, 0, -1)

	counts, err := repo.CountByEvaluationSince(ctx, since)
	if err != nil {
		log.Printf("[DIGEST-SCHEDULER] Error counting feedback: %v", err)
		return
	}

	message := BuildDigestMessage(counts)
	if message == "" {
		log.Println("[DIGEST-SCHEDULER] No feedback since yesterday, skipping digest")
		return
	}

	if err := n.Notify(ctx, message); err != nil {
		log.Printf("[DIGEST-SCHEDULER] Error sending digest: %v", err)
	}
}

// BuildDigestMessage formats the digest line. Returns "" when there is
// nothing to report.
func BuildDigestMessage(counts map[string]int64) string {
	positive := counts[models.EvaluationPositive]
	negative := counts[models.EvaluationNegative]
	if positive == 0 && negative == 0 {
		return ""
	}

	return fmt.Sprintf("**📊 Feedback digest**\n\n👍 %d positive / 👎 %d negative since yesterday", positive, negative)
}
