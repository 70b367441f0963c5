package repositories

import (
	"context"
	"errors"

	"peerprep/interview/internal/models"
)

var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("record already exists")
)

// SessionRepository persists interview sessions as whole documents.
type SessionRepository interface {
	Create(ctx context.Context, session *models.InterviewSession) error
	// Get returns ErrNotFound when no session has the id.
	Get(ctx context.Context, sessionID string) (*models.InterviewSession, error)
	// Save replaces the stored document.
	Save(ctx context.Context, session *models.InterviewSession) error
}

// DailyRepository persists daily question sets, per-user progress and streaks.
type DailyRepository interface {
	GetSet(ctx context.Context, date string) (*models.DailyQuestionSet, error)
	// InsertSet returns ErrDuplicate when a set for the date already exists.
	InsertSet(ctx context.Context, set *models.DailyQuestionSet) error
	DeactivateSet(ctx context.Context, date string) error

	GetProgress(ctx context.Context, userID, date string) (*models.UserDailyProgress, error)
	SaveProgress(ctx context.Context, progress *models.UserDailyProgress) error
	// ListCompleted returns completed progress for the date ordered by score desc, completion asc.
	ListCompleted(ctx context.Context, date string, limit int) ([]models.UserDailyProgress, error)
	// ListProgress returns a user's progress on or after since, newest first.
	ListProgress(ctx context.Context, userID, since string) ([]models.UserDailyProgress, error)

	GetStreak(ctx context.Context, userID string) (*models.UserStreak, error)
	SaveStreak(ctx context.Context, streak *models.UserStreak) error
}

// Pinger is implemented by backends that can report readiness.
type Pinger interface {
	Ping(ctx context.Context) error
}
