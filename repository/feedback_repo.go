package repository

import (
	"context"
	"errors"
	"time"

	"pulse/models"

	"gorm.io/gorm"
)

// FeedbackRepo owns all feedback queries. The *gorm.DB handle is injected at
// construction so tests can substitute their own database.
type FeedbackRepo struct {
	db *gorm.DB
}

func NewFeedbackRepo(db *gorm.DB) *FeedbackRepo {
	return &FeedbackRepo{db: db}
}

// FindOwned looks up feedback by id restricted to the given owner.
// Returns (nil, nil) when no such record exists; a record owned by someone
// else is indistinguishable from a missing one.
func (r *FeedbackRepo) FindOwned(ctx context.Context, id string, ownerID uint) (*models.Feedback, error) {
	var feedback models.Feedback
	err := r.db.WithContext(ctx).
		Where("id = ? AND owner_id = ?", id, ownerID).
		First(&feedback).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &feedback, nil
}

// Upsert creates a new feedback record when id is empty, otherwise updates
// content and evaluation of the owner's existing record in a single UPDATE.
// OwnerID is never touched on update. Returns the record and the owner's
// username for notification display.
func (r *FeedbackRepo) Upsert(ctx context.Context, ownerID uint, id, content, evaluation string) (*models.Feedback, string, error) {
	db := r.db.WithContext(ctx)

	var feedback models.Feedback
	if id == "" {
		feedback = models.Feedback{
			OwnerID:    ownerID,
			Content:    content,
			Evaluation: evaluation,
		}
		if err := db.Create(&feedback).Error; err != nil {
			return nil, "", err
		}
	} else {
		// Single statement keyed by (id, owner_id): atomic last-write-wins,
		// and the owner clause keeps foreign records out of reach even if
		// the ownership check raced with another request.
		result := db.Model(&models.Feedback{}).
			Where("id = ? AND owner_id = ?", id, ownerID).
			Updates(map[string]interface{}{
				"content":    content,
				"evaluation": evaluation,
				"updated_at": time.Now(),
			})
		if result.Error != nil {
			return nil, "", result.Error
		}
		if result.RowsAffected == 0 {
			return nil, "", gorm.ErrRecordNotFound
		}
		if err := db.Where("id = ?", id).First(&feedback).Error; err != nil {
			return nil, "", err
		}
	}

	var owner models.User
	if err := db.Select("username").Where("id = ?", ownerID).First(&owner).Error; err != nil {
		return nil, "", err
	}

	return &feedback, owner.Username, nil
}

// ListByOwner returns the owner's feedback, newest first
func (r *FeedbackRepo) ListByOwner(ctx context.Context, ownerID uint, page, limit int) ([]models.Feedback, int64, error) {
	db := r.db.WithContext(ctx)
	offset := (page - 1) * limit

	var total int64
	if err := db.Model(&models.Feedback{}).Where("owner_id = ?", ownerID).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var feedbacks []models.Feedback
	if err := db.Where("owner_id = ?", ownerID).
		Order("created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&feedbacks).Error; err != nil {
		return nil, 0, err
	}

	return feedbacks, total, nil
}

// ListRecent returns the latest feedback across all users with owner preloaded
func (r *FeedbackRepo) ListRecent(ctx context.Context, page, limit int) ([]models.Feedback, int64, error) {
	db := r.db.WithContext(ctx)
	offset := (page - 1) * limit

	var total int64
	if err := db.Model(&models.Feedback{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var feedbacks []models.Feedback
	if err := db.Preload("Owner", func(db *gorm.DB) *gorm.DB {
		return db.Select("id, username")
	}).
		Order("created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&feedbacks).Error; err != nil {
		return nil, 0, err
	}

	return feedbacks, total, nil
}

// CountByEvaluationSince counts feedback per evaluation value created at or
// after the given time. Used by the daily digest.
func (r *FeedbackRepo) CountByEvaluationSince(ctx context.Context, since time.Time) (map[string]int64, error) {
	type row struct {
		Evaluation string
		Total      int64
	}

	var rows []row
	err := r.db.WithContext(ctx).
		Model(&models.Feedback{}).
		Select("evaluation, COUNT(*) as total").
		Where("created_at >= ?", since).
		Group("evaluation").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	counts := make(map[string]int64, len(rows))
	for _, r := range rows {
		counts[r.Evaluation] = r.Total
	}
	return counts, nil
}
