package sql

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"peerprep/interview/internal/models"
	"peerprep/interview/internal/repositories"
)

type DailyRepository struct {
	DB *gorm.DB
}

func (r *DailyRepository) GetSet(ctx context.Context, date string) (*models.DailyQuestionSet, error) {
	var row questionSetRow
	if err := r.DB.WithContext(ctx).Where("date = ?", date).First(&row).Error; err != nil {
		return nil, notFound(err, "find question set")
	}

	var set models.DailyQuestionSet
	if err := decode(row.Document, &set); err != nil {
		return nil, fmt.Errorf("decode question set: %w", err)
	}
	set.IsActive = row.IsActive
	return &set, nil
}

func (r *DailyRepository) InsertSet(ctx context.Context, set *models.DailyQuestionSet) error {
	doc, err := encode(set)
	if err != nil {
		return fmt.Errorf("encode question set: %w", err)
	}
	row := &questionSetRow{Date: set.Date, IsActive: set.IsActive, Document: doc, GeneratedAt: set.GeneratedAt}

	result := r.DB.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(row)
	if result.Error != nil {
		return fmt.Errorf("insert question set: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return repositories.ErrDuplicate
	}
	return nil
}

func (r *DailyRepository) DeactivateSet(ctx context.Context, date string) error {
	err := r.DB.WithContext(ctx).Model(&questionSetRow{}).Where("date = ?", date).Update("is_active", false).Error
	if err != nil {
		return fmt.Errorf("deactivate question set: %w", err)
	}
	return nil
}

func (r *DailyRepository) GetProgress(ctx context.Context, userID, date string) (*models.UserDailyProgress, error) {
	var row progressRow
	if err := r.DB.WithContext(ctx).Where("user_id = ? AND date = ?", userID, date).First(&row).Error; err != nil {
		return nil, notFound(err, "find progress")
	}
	return decodeProgress(row)
}

func (r *DailyRepository) SaveProgress(ctx context.Context, progress *models.UserDailyProgress) error {
	doc, err := encode(progress)
	if err != nil {
		return fmt.Errorf("encode progress: %w", err)
	}
	row := &progressRow{
		UserID:      progress.UserID,
		Date:        progress.Date,
		IsCompleted: progress.IsCompleted,
		TotalScore:  progress.TotalScore,
		CompletedAt: progress.CompletedAt,
		Document:    doc,
	}
	if err := r.DB.WithContext(ctx).Clauses(clause.OnConflict{UpdateAll: true}).Create(row).Error; err != nil {
		return fmt.Errorf("save progress: %w", err)
	}
	return nil
}

func (r *DailyRepository) ListCompleted(ctx context.Context, date string, limit int) ([]models.UserDailyProgress, error) {
	var rows []progressRow
	err := r.DB.WithContext(ctx).
		Where("date = ? AND is_completed = ?", date, true).
		Order("total_score DESC").
		Order("completed_at ASC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("list completed progress: %w", err)
	}
	return decodeProgressRows(rows)
}

func (r *DailyRepository) ListProgress(ctx context.Context, userID, since string) ([]models.UserDailyProgress, error) {
	var rows []progressRow
	err := r.DB.WithContext(ctx).
		Where("user_id = ? AND date >= ?", userID, since).
		Order("date DESC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("list progress: %w", err)
	}
	return decodeProgressRows(rows)
}

func (r *DailyRepository) GetStreak(ctx context.Context, userID string) (*models.UserStreak, error) {
	var row streakRow
	if err := r.DB.WithContext(ctx).Where("user_id = ?", userID).First(&row).Error; err != nil {
		return nil, notFound(err, "find streak")
	}
	return &models.UserStreak{
		UserID:            row.UserID,
		CurrentStreak:     row.CurrentStreak,
		LongestStreak:     row.LongestStreak,
		LastCompletedDate: row.LastCompletedDate,
		Rewards:           row.Rewards,
	}, nil
}

func (r *DailyRepository) SaveStreak(ctx context.Context, streak *models.UserStreak) error {
	row := &streakRow{
		UserID:            streak.UserID,
		CurrentStreak:     streak.CurrentStreak,
		LongestStreak:     streak.LongestStreak,
		LastCompletedDate: streak.LastCompletedDate,
		Rewards:           streak.Rewards,
	}
	if err := r.DB.WithContext(ctx).Clauses(clause.OnConflict{UpdateAll: true}).Create(row).Error; err != nil {
		return fmt.Errorf("save streak: %w", err)
	}
	return nil
}

func notFound(err error, op string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return repositories.ErrNotFound
	}
	return fmt.Errorf("%s: %w", op, err)
}

func decodeProgress(row progressRow) (*models.UserDailyProgress, error) {
	var progress models.UserDailyProgress
	if err := decode(row.Document, &progress); err != nil {
		return nil, fmt.Errorf("decode progress: %w", err)
	}
	return &progress, nil
}

func decodeProgressRows(rows []progressRow) ([]models.UserDailyProgress, error) {
	out := make([]models.UserDailyProgress, 0, len(rows))
	for _, row := range rows {
		p, err := decodeProgress(row)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	return out, nil
}
