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

type SessionRepository struct {
	DB *gorm.DB
}

func toSessionRow(session *models.InterviewSession) (*sessionRow, error) {
	doc, err := encode(session)
	if err != nil {
		return nil, fmt.Errorf("encode session: %w", err)
	}
	return &sessionRow{
		SessionID: session.SessionID,
		UserID:    session.UserID,
		Status:    string(session.Status),
		Document:  doc,
	}, nil
}

func (r *SessionRepository) Create(ctx context.Context, session *models.InterviewSession) error {
	row, err := toSessionRow(session)
	if err != nil {
		return err
	}
	result := r.DB.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(row)
	if result.Error != nil {
		return fmt.Errorf("insert session: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return repositories.ErrDuplicate
	}
	return nil
}

func (r *SessionRepository) Get(ctx context.Context, sessionID string) (*models.InterviewSession, error) {
	var row sessionRow
	if err := r.DB.WithContext(ctx).Where("session_id = ?", sessionID).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repositories.ErrNotFound
		}
		return nil, fmt.Errorf("find session: %w", err)
	}

	var session models.InterviewSession
	if err := decode(row.Document, &session); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	return &session, nil
}

func (r *SessionRepository) Save(ctx context.Context, session *models.InterviewSession) error {
	row, err := toSessionRow(session)
	if err != nil {
		return err
	}
	if err := r.DB.WithContext(ctx).Clauses(clause.OnConflict{UpdateAll: true}).Create(row).Error; err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}
