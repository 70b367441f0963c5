package daily

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"peerprep/interview/internal/models"
	"peerprep/interview/internal/repositories"
)

type memRepo struct {
	mu       sync.Mutex
	sets     map[string]models.DailyQuestionSet
	progress map[string]models.UserDailyProgress
	streaks  map[string]models.UserStreak
}

func newMemRepo() *memRepo {
	return &memRepo{
		sets:     make(map[string]models.DailyQuestionSet),
		progress: make(map[string]models.UserDailyProgress),
		streaks:  make(map[string]models.UserStreak),
	}
}

func progressKey(userID, date string) string { return userID + "|" + date }

func (r *memRepo) GetSet(_ context.Context, date string) (*models.DailyQuestionSet, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	set, ok := r.sets[date]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return &set, nil
}

func (r *memRepo) InsertSet(_ context.Context, set *models.DailyQuestionSet) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sets[set.Date]; ok {
		return repositories.ErrDuplicate
	}
	r.sets[set.Date] = *set
	return nil
}

func (r *memRepo) DeactivateSet(_ context.Context, date string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	set, ok := r.sets[date]
	if !ok {
		return repositories.ErrNotFound
	}
	set.IsActive = false
	r.sets[date] = set
	return nil
}

func (r *memRepo) GetProgress(_ context.Context, userID, date string) (*models.UserDailyProgress, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.progress[progressKey(userID, date)]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return deepCopy(p), nil
}

func (r *memRepo) SaveProgress(_ context.Context, p *models.UserDailyProgress) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.progress[progressKey(p.UserID, p.Date)] = *deepCopy(*p)
	return nil
}

func (r *memRepo) ListCompleted(_ context.Context, date string, limit int) ([]models.UserDailyProgress, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.UserDailyProgress
	for _, p := range r.progress {
		if p.Date == date && p.IsCompleted {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].TotalScore != out[j].TotalScore {
			return out[i].TotalScore > out[j].TotalScore
		}
		return out[i].CompletedAt.Before(*out[j].CompletedAt)
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *memRepo) ListProgress(_ context.Context, userID, since string) ([]models.UserDailyProgress, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.UserDailyProgress
	for _, p := range r.progress {
		if p.UserID == userID && p.Date >= since {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date > out[j].Date })
	return out, nil
}

func (r *memRepo) GetStreak(_ context.Context, userID string) (*models.UserStreak, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.streaks[userID]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return &s, nil
}

func (r *memRepo) SaveStreak(_ context.Context, s *models.UserStreak) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.streaks[s.UserID] = *s
	return nil
}

func deepCopy(p models.UserDailyProgress) *models.UserDailyProgress {
	c := p
	c.Progress = make(map[string]*models.CategoryProgress, len(p.Progress))
	for k, v := range p.Progress {
		if v == nil {
			continue
		}
		cp := *v
		cp.Responses = append([]models.DailyResponse(nil), v.Responses...)
		c.Progress[k] = &cp
	}
	return &c
}

type fakeGenerator struct {
	calls atomic.Int32
	err   error
	delay time.Duration
}

func (g *fakeGenerator) GenerateDailyQuestions(ctx context.Context, category string, count int) ([]models.DailyQuestion, error) {
	g.calls.Add(1)
	if g.delay > 0 {
		select {
		case <-time.After(g.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if g.err != nil {
		return nil, g.err
	}
	qs := make([]models.DailyQuestion, count)
	for i := range qs {
		qs[i] = models.DailyQuestion{
			Text: fmt.Sprintf("%s question %d", category, i),
			Options: []models.QuestionOption{
				{ID: "A", Text: "right"}, {ID: "B", Text: "wrong"}, {ID: "C", Text: "wrong"}, {ID: "D", Text: "wrong"},
			},
			CorrectAnswer: "A",
			Explanation:   "A is right",
			Difficulty:    models.DifficultyMedium,
		}
	}
	return qs, nil
}
