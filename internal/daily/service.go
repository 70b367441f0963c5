package daily

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"peerprep/interview/internal/events"
	"peerprep/interview/internal/metrics"
	"peerprep/interview/internal/models"
	"peerprep/interview/internal/repositories"
)

const (
	DefaultLeaderboardLimit = 10
	MaxLeaderboardLimit     = 100

	statsWindowDays = 30
	historyEntries  = 7
	guardTTL        = 2 * time.Minute
)

// accepted spellings of the canonical categories
var categoryAliases = map[string]string{
	"communication":     models.CategoryCommunication,
	"aptitude":          models.CategoryAptitude,
	"generalknowledge":  models.CategoryGeneralKnowledge,
	"generalKnowledge":  models.CategoryGeneralKnowledge,
	"general knowledge": models.CategoryGeneralKnowledge,
	"general-knowledge": models.CategoryGeneralKnowledge,
}

// NormalizeCategory maps a client supplied category name onto its canonical key.
func NormalizeCategory(name string) (string, bool) {
	if c, ok := categoryAliases[name]; ok {
		return c, true
	}
	c, ok := categoryAliases[strings.ToLower(strings.TrimSpace(name))]
	return c, ok
}

// Generator produces one category's multiple-choice questions.
type Generator interface {
	GenerateDailyQuestions(ctx context.Context, category string, count int) ([]models.DailyQuestion, error)
}

type Options struct {
	Repo      repositories.DailyRepository
	Generator Generator
	Guard     Guard
	Publisher events.Publisher
	Logger    *zap.Logger
}

type Service struct {
	repo         repositories.DailyRepository
	generator    Generator
	guard        Guard
	publisher    events.Publisher
	logger       *zap.Logger
	now          func() time.Time
	pollInterval time.Duration
	waitTimeout  time.Duration
}

func NewService(opts Options) *Service {
	s := &Service{
		repo:         opts.Repo,
		generator:    opts.Generator,
		guard:        opts.Guard,
		publisher:    opts.Publisher,
		logger:       opts.Logger,
		now:          func() time.Time { return time.Now().UTC() },
		pollInterval: 500 * time.Millisecond,
		waitTimeout:  90 * time.Second,
	}
	if s.guard == nil {
		s.guard = NewLocalGuard()
	}
	if s.publisher == nil {
		s.publisher = events.Nop{}
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	return s
}

func (s *Service) today() string {
	return s.now().Format(models.DateLayout)
}

func (s *Service) yesterday() string {
	return s.now().AddDate(0, 0, -1).Format(models.DateLayout)
}

// GetTodaysSet returns today's question set, generating it when no replica has yet.
func (s *Service) GetTodaysSet(ctx context.Context) (*models.DailyQuestionSet, error) {
	date := s.today()
	set, err := s.repo.GetSet(ctx, date)
	if err == nil {
		return set, nil
	}
	if !errors.Is(err, repositories.ErrNotFound) {
		return nil, fmt.Errorf("load daily set: %w", err)
	}
	return s.generate(ctx, date)
}

func (s *Service) generate(ctx context.Context, date string) (*models.DailyQuestionSet, error) {
	key := "daily:gen:" + date
	deadline := time.NewTimer(s.waitTimeout)
	defer deadline.Stop()
	ticker := time.NewTicker(s.pollInterval)
	defer ticker.Stop()

	for {
		release, ok, err := s.guard.Acquire(ctx, key, guardTTL)
		if err != nil {
			return nil, fmt.Errorf("acquire generation guard: %w", err)
		}
		if ok {
			defer release()
			return s.generateLocked(ctx, date)
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-deadline.C:
			return nil, fmt.Errorf("%w: set for %s is still being generated", ErrUnavailable, date)
		case <-ticker.C:
		}

		set, err := s.repo.GetSet(ctx, date)
		if err == nil {
			return set, nil
		}
		if !errors.Is(err, repositories.ErrNotFound) {
			return nil, fmt.Errorf("load daily set: %w", err)
		}
	}
}

func (s *Service) generateLocked(ctx context.Context, date string) (*models.DailyQuestionSet, error) {
	// the previous holder may have finished between our miss and the acquire
	if set, err := s.repo.GetSet(ctx, date); err == nil {
		return set, nil
	}

	s.logger.Info("Generating daily questions", zap.String("date", date))
	results := make([][]models.DailyQuestion, len(models.DailyCategories))
	g, gctx := errgroup.WithContext(ctx)
	for i, category := range models.DailyCategories {
		g.Go(func() error {
			qs, err := s.generator.GenerateDailyQuestions(gctx, category, models.QuestionsPerCategory)
			if err != nil {
				return fmt.Errorf("generate %s questions: %w", category, err)
			}
			results[i] = qs
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		s.logger.Error("Failed to generate daily questions", zap.String("date", date), zap.Error(err))
		return nil, err
	}

	set := &models.DailyQuestionSet{
		Date:        date,
		Categories:  make(map[string][]models.DailyQuestion, len(models.DailyCategories)),
		GeneratedAt: s.now(),
		IsActive:    true,
	}
	for i, category := range models.DailyCategories {
		set.Categories[category] = results[i]
	}

	err := s.repo.InsertSet(ctx, set)
	if errors.Is(err, repositories.ErrDuplicate) {
		return s.repo.GetSet(ctx, date)
	}
	if err != nil {
		return nil, fmt.Errorf("insert daily set: %w", err)
	}
	s.logger.Info("Daily questions generated", zap.String("date", date), zap.Int("questions", set.TotalQuestions()))
	return set, nil
}

// QuestionsForUser returns today's set with answers revealed only for answered questions.
func (s *Service) QuestionsForUser(ctx context.Context, userID string) (*UserQuestions, error) {
	set, err := s.GetTodaysSet(ctx)
	if err != nil {
		return nil, err
	}
	progress, err := s.progressFor(ctx, userID, set)
	if err != nil {
		return nil, err
	}
	current, active, err := s.streakInfo(ctx, userID)
	if err != nil {
		return nil, err
	}

	out := &UserQuestions{
		Date:         set.Date,
		Categories:   make(map[string][]QuestionView, len(set.Categories)),
		Progress:     make(map[string]*models.CategoryProgress, len(models.DailyCategories)),
		IsCompleted:  progress.IsCompleted,
		CompletedAt:  progress.CompletedAt,
		TotalScore:   progress.TotalScore,
		MaxScore:     progress.MaxScore,
		Streak:       current,
		StreakActive: active,
	}
	for category, questions := range set.Categories {
		cp := progress.Category(category)
		out.Progress[category] = cp
		views := make([]QuestionView, len(questions))
		for i, q := range questions {
			v := QuestionView{QuestionText: q.Text, Options: q.Options, Difficulty: q.Difficulty}
			if r, ok := cp.Response(i); ok {
				selected, correct := r.SelectedAnswer, r.IsCorrect
				v.Answered = true
				v.UserAnswer = &selected
				v.IsCorrect = &correct
				v.CorrectAnswer = q.CorrectAnswer
				v.Explanation = q.Explanation
			}
			views[i] = v
		}
		out.Categories[category] = views
	}
	return out, nil
}

// SubmitAnswer records one answer and, when it is the user's last for the day, settles the streak.
func (s *Service) SubmitAnswer(ctx context.Context, userID, category string, index int, choice string) (*models.DailyAnswerResponse, error) {
	key, ok := NormalizeCategory(category)
	if !ok {
		return nil, fmt.Errorf("%w: invalid category %q", ErrValidation, category)
	}
	set, err := s.GetTodaysSet(ctx)
	if err != nil {
		return nil, err
	}
	questions, ok := set.Categories[key]
	if !ok {
		return nil, fmt.Errorf("%w: invalid category %q", ErrValidation, category)
	}
	if index < 0 || index >= len(questions) {
		return nil, fmt.Errorf("%w: invalid question index %d", ErrValidation, index)
	}

	progress, err := s.progressFor(ctx, userID, set)
	if err != nil {
		return nil, err
	}
	cp := progress.Category(key)
	if _, answered := cp.Response(index); answered {
		return nil, fmt.Errorf("%w: question %d in %s already answered", ErrValidation, index, key)
	}

	now := s.now()
	question := questions[index]
	correct := question.CorrectAnswer == choice
	cp.Answered++
	if correct {
		cp.Correct++
		progress.TotalScore++
	}
	cp.Responses = append(cp.Responses, models.DailyResponse{
		QuestionIndex:  index,
		SelectedAnswer: choice,
		IsCorrect:      correct,
		AnsweredAt:     now,
	})
	progress.MaxScore = set.TotalQuestions()

	justCompleted := false
	if !progress.IsCompleted && progress.AnsweredTotal() >= progress.MaxScore {
		streak, err := s.advanceStreak(ctx, userID, set.Date)
		if err != nil {
			return nil, err
		}
		progress.IsCompleted = true
		progress.CompletedAt = &now
		progress.Streak = streak.CurrentStreak
		progress.RewardGranted = rewardEarned(streak.CurrentStreak)
		justCompleted = true
	}

	if err := s.repo.SaveProgress(ctx, progress); err != nil {
		return nil, fmt.Errorf("save daily progress: %w", err)
	}
	metrics.DailyAnswer(key, correct)

	if justCompleted {
		s.logger.Info("Daily practice completed",
			zap.String("user_id", userID),
			zap.Int("score", progress.TotalScore),
			zap.Int("streak", progress.Streak),
			zap.Bool("reward", progress.RewardGranted))
		s.publish(ctx, events.Event{
			Type:   events.TypeDailyCompleted,
			UserID: userID,
			Data: map[string]any{
				"date":          set.Date,
				"totalScore":    progress.TotalScore,
				"maxScore":      progress.MaxScore,
				"streak":        progress.Streak,
				"rewardGranted": progress.RewardGranted,
			},
		})
	}

	return &models.DailyAnswerResponse{
		IsCorrect:       correct,
		CorrectAnswer:   question.CorrectAnswer,
		Explanation:     question.Explanation,
		IsCompleted:     progress.IsCompleted,
		TotalScore:      progress.TotalScore,
		MaxScore:        progress.MaxScore,
		Streak:          progress.Streak,
		RewardGranted:   justCompleted && progress.RewardGranted,
		AnsweredCount:   cp.Answered,
		CategoryCorrect: cp.Correct,
	}, nil
}

// advanceStreak extends the running streak when yesterday was completed and resets it otherwise.
// Settling the same date twice leaves the streak unchanged.
func (s *Service) advanceStreak(ctx context.Context, userID, date string) (*models.UserStreak, error) {
	streak, err := s.repo.GetStreak(ctx, userID)
	if errors.Is(err, repositories.ErrNotFound) {
		streak, err = &models.UserStreak{UserID: userID}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load streak: %w", err)
	}
	if streak.LastCompletedDate == date {
		return streak, nil
	}

	if streak.LastCompletedDate == previousDate(date) {
		streak.CurrentStreak++
	} else {
		streak.CurrentStreak = 1
	}
	streak.LongestStreak = max(streak.LongestStreak, streak.CurrentStreak)
	streak.LastCompletedDate = date
	if rewardEarned(streak.CurrentStreak) {
		streak.Rewards++
	}

	if err := s.repo.SaveStreak(ctx, streak); err != nil {
		return nil, fmt.Errorf("save streak: %w", err)
	}
	return streak, nil
}

func rewardEarned(streak int) bool {
	return streak > 0 && streak%models.StreakMilestone == 0
}

func previousDate(date string) string {
	t, err := time.Parse(models.DateLayout, date)
	if err != nil {
		return ""
	}
	return t.AddDate(0, 0, -1).Format(models.DateLayout)
}

// Leaderboard ranks the users who completed the date's set. An empty date means today.
func (s *Service) Leaderboard(ctx context.Context, date string, limit int) ([]models.LeaderboardEntry, error) {
	if date == "" {
		date = s.today()
	}
	if limit <= 0 {
		limit = DefaultLeaderboardLimit
	}
	limit = min(limit, MaxLeaderboardLimit)

	completed, err := s.repo.ListCompleted(ctx, date, limit)
	if err != nil {
		return nil, fmt.Errorf("list completed progress: %w", err)
	}

	entries := make([]models.LeaderboardEntry, 0, len(completed))
	for i, p := range completed {
		entry := models.LeaderboardEntry{
			Rank:       i + 1,
			UserID:     p.UserID,
			TotalScore: p.TotalScore,
			MaxScore:   p.MaxScore,
			Streak:     p.Streak,
		}
		if p.MaxScore > 0 {
			entry.Percentage = math.Round(float64(p.TotalScore)/float64(p.MaxScore)*1000) / 10
		}
		if p.CompletedAt != nil {
			entry.CompletedAt = *p.CompletedAt
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// UserStats aggregates the user's progress over the last thirty days.
func (s *Service) UserStats(ctx context.Context, userID string) (*Stats, error) {
	since := s.now().AddDate(0, 0, -(statsWindowDays - 1)).Format(models.DateLayout)
	history, err := s.repo.ListProgress(ctx, userID, since)
	if err != nil {
		return nil, fmt.Errorf("list daily progress: %w", err)
	}
	if len(history) > statsWindowDays {
		history = history[:statsWindowDays]
	}

	stats := &Stats{
		TotalDaysAttempted:  len(history),
		CategoryPerformance: make(map[string]CategoryTotals, len(models.DailyCategories)),
		RecentHistory:       make([]HistoryEntry, 0, historyEntries),
	}
	for _, c := range models.DailyCategories {
		stats.CategoryPerformance[c] = CategoryTotals{}
	}

	totalScore, maxScore := 0, 0
	for i, p := range history {
		if p.IsCompleted {
			stats.TotalDaysCompleted++
		}
		totalScore += p.TotalScore
		maxScore += p.MaxScore
		stats.LongestStreak = max(stats.LongestStreak, p.Streak)
		for _, c := range models.DailyCategories {
			if cp := p.Progress[c]; cp != nil {
				t := stats.CategoryPerformance[c]
				t.Total += cp.Answered
				t.Correct += cp.Correct
				stats.CategoryPerformance[c] = t
			}
		}
		if i < historyEntries {
			stats.RecentHistory = append(stats.RecentHistory, HistoryEntry{
				Date:        p.Date,
				IsCompleted: p.IsCompleted,
				TotalScore:  p.TotalScore,
				MaxScore:    p.MaxScore,
				Streak:      p.Streak,
			})
		}
	}
	if maxScore > 0 {
		stats.AverageScore = int(math.Round(float64(totalScore) / float64(maxScore) * 100))
	}

	current, _, err := s.streakInfo(ctx, userID)
	if err != nil {
		return nil, err
	}
	stats.CurrentStreak = current
	return stats, nil
}

// ResetDay retires yesterday's set and makes sure today's exists.
func (s *Service) ResetDay(ctx context.Context) error {
	yesterday := s.yesterday()
	if err := s.repo.DeactivateSet(ctx, yesterday); err != nil && !errors.Is(err, repositories.ErrNotFound) {
		return fmt.Errorf("deactivate %s: %w", yesterday, err)
	}
	if _, err := s.GetTodaysSet(ctx); err != nil {
		return fmt.Errorf("generate today's set: %w", err)
	}
	s.logger.Info("Daily reset completed", zap.String("date", s.today()))
	return nil
}

func (s *Service) progressFor(ctx context.Context, userID string, set *models.DailyQuestionSet) (*models.UserDailyProgress, error) {
	progress, err := s.repo.GetProgress(ctx, userID, set.Date)
	if errors.Is(err, repositories.ErrNotFound) {
		progress = models.NewUserDailyProgress(userID, set.Date)
		progress.MaxScore = set.TotalQuestions()
		return progress, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load daily progress: %w", err)
	}
	return progress, nil
}

// streakInfo returns the running streak and whether it is still alive today.
func (s *Service) streakInfo(ctx context.Context, userID string) (int, bool, error) {
	streak, err := s.repo.GetStreak(ctx, userID)
	if errors.Is(err, repositories.ErrNotFound) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("load streak: %w", err)
	}
	active := streak.LastCompletedDate == s.today() || streak.LastCompletedDate == s.yesterday()
	if !active {
		return 0, false, nil
	}
	return streak.CurrentStreak, true, nil
}

func (s *Service) publish(ctx context.Context, event events.Event) {
	if event.OccurredAt.IsZero() {
		event.OccurredAt = s.now()
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Warn("Failed to publish event", zap.String("type", event.Type), zap.Error(err))
	}
}
