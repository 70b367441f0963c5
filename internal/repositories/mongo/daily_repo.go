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

const (
	setsCollection     = "daily_question_sets"
	progressCollection = "user_daily_progress"
	streaksCollection  = "user_streaks"
)

// DailyRepo backs the daily practice tracker.
type DailyRepo struct {
	sets     *mongo.Collection
	progress *mongo.Collection
	streaks  *mongo.Collection
}

func NewDailyRepo(db *mongo.Database) *DailyRepo {
	return &DailyRepo{
		sets:     db.Collection(setsCollection),
		progress: db.Collection(progressCollection),
		streaks:  db.Collection(streaksCollection),
	}
}

func bsonKeys(fields ...string) bson.D {
	keys := make(bson.D, 0, len(fields))
	for _, f := range fields {
		keys = append(keys, bson.E{Key: f, Value: 1})
	}
	return keys
}

func findOne[T any](ctx context.Context, col *mongo.Collection, filter bson.M) (*T, error) {
	var out T
	if err := col.FindOne(ctx, filter).Decode(&out); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repositories.ErrNotFound
		}
		return nil, fmt.Errorf("find in %s: %w", col.Name(), err)
	}
	return &out, nil
}

func (r *DailyRepo) GetSet(ctx context.Context, date string) (*models.DailyQuestionSet, error) {
	return findOne[models.DailyQuestionSet](ctx, r.sets, bson.M{"date": date})
}

func (r *DailyRepo) InsertSet(ctx context.Context, set *models.DailyQuestionSet) error {
	if _, err := r.sets.InsertOne(ctx, set); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return repositories.ErrDuplicate
		}
		return fmt.Errorf("insert question set: %w", err)
	}
	return nil
}

func (r *DailyRepo) DeactivateSet(ctx context.Context, date string) error {
	_, err := r.sets.UpdateOne(ctx, bson.M{"date": date}, bson.M{"$set": bson.M{"isActive": false}})
	if err != nil {
		return fmt.Errorf("deactivate question set: %w", err)
	}
	return nil
}

func (r *DailyRepo) GetProgress(ctx context.Context, userID, date string) (*models.UserDailyProgress, error) {
	return findOne[models.UserDailyProgress](ctx, r.progress, bson.M{"userId": userID, "date": date})
}

func (r *DailyRepo) SaveProgress(ctx context.Context, progress *models.UserDailyProgress) error {
	filter := bson.M{"userId": progress.UserID, "date": progress.Date}
	if _, err := r.progress.ReplaceOne(ctx, filter, progress, options.Replace().SetUpsert(true)); err != nil {
		return fmt.Errorf("save progress: %w", err)
	}
	return nil
}

func (r *DailyRepo) ListCompleted(ctx context.Context, date string, limit int) ([]models.UserDailyProgress, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "totalScore", Value: -1}, {Key: "completedAt", Value: 1}}).
		SetLimit(int64(limit))
	return r.list(ctx, bson.M{"date": date, "isCompleted": true}, opts)
}

func (r *DailyRepo) ListProgress(ctx context.Context, userID, since string) ([]models.UserDailyProgress, error) {
	opts := options.Find().SetSort(bson.D{{Key: "date", Value: -1}})
	return r.list(ctx, bson.M{"userId": userID, "date": bson.M{"$gte": since}}, opts)
}

func (r *DailyRepo) list(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]models.UserDailyProgress, error) {
	cur, err := r.progress.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("list progress: %w", err)
	}
	defer cur.Close(ctx)

	out := []models.UserDailyProgress{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode progress: %w", err)
	}
	return out, nil
}

func (r *DailyRepo) GetStreak(ctx context.Context, userID string) (*models.UserStreak, error) {
	return findOne[models.UserStreak](ctx, r.streaks, bson.M{"userId": userID})
}

func (r *DailyRepo) SaveStreak(ctx context.Context, streak *models.UserStreak) error {
	opts := options.Replace().SetUpsert(true)
	if _, err := r.streaks.ReplaceOne(ctx, bson.M{"userId": streak.UserID}, streak, opts); err != nil {
		return fmt.Errorf("save streak: %w", err)
	}
	return nil
}
