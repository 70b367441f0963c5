package mongo

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"peerprep/interview/internal/models"
	"peerprep/interview/internal/repositories"
)

const sessionsCollection = "interview_sessions"

// SessionRepo stores one document per interview session.
type SessionRepo struct{ col *mongo.Collection }

func NewSessionRepo(db *mongo.Database) *SessionRepo {
	return &SessionRepo{col: db.Collection(sessionsCollection)}
}

func (r *SessionRepo) Create(ctx context.Context, session *models.InterviewSession) error {
	if _, err := r.col.InsertOne(ctx, session); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return repositories.ErrDuplicate
		}
		return fmt.Errorf("insert session: %w", err)
	}
	return nil
}

func (r *SessionRepo) Get(ctx context.Context, sessionID string) (*models.InterviewSession, error) {
	var session models.InterviewSession
	if err := r.col.FindOne(ctx, bson.M{"sessionId": sessionID}).Decode(&session); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repositories.ErrNotFound
		}
		return nil, fmt.Errorf("find session: %w", err)
	}
	return &session, nil
}

func (r *SessionRepo) Save(ctx context.Context, session *models.InterviewSession) error {
	opts := options.Replace().SetUpsert(true)
	if _, err := r.col.ReplaceOne(ctx, bson.M{"sessionId": session.SessionID}, session, opts); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}
