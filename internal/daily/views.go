package daily

import (
	"time"

	"peerprep/interview/internal/models"
)

// QuestionView hides the answer and explanation until the user has answered.
type QuestionView struct {
	QuestionText  string                  `json:"questionText"`
	Options       []models.QuestionOption `json:"options"`
	Difficulty    models.Difficulty       `json:"difficulty"`
	Answered      bool                    `json:"answered"`
	UserAnswer    *string                 `json:"userAnswer"`
	IsCorrect     *bool                   `json:"isCorrect"`
	CorrectAnswer string                  `json:"correctAnswer,omitempty"`
	Explanation   string                  `json:"explanation,omitempty"`
}

type UserQuestions struct {
	Date         string                              `json:"date"`
	Categories   map[string][]QuestionView           `json:"categories"`
	Progress     map[string]*models.CategoryProgress `json:"progress"`
	IsCompleted  bool                                `json:"isCompleted"`
	CompletedAt  *time.Time                          `json:"completedAt,omitempty"`
	TotalScore   int                                 `json:"totalScore"`
	MaxScore     int                                 `json:"maxScore"`
	Streak       int                                 `json:"streak"`
	StreakActive bool                                `json:"streakActive"`
}

type CategoryTotals struct {
	Total   int `json:"total"`
	Correct int `json:"correct"`
}

type HistoryEntry struct {
	Date        string `json:"date"`
	IsCompleted bool   `json:"isCompleted"`
	TotalScore  int    `json:"totalScore"`
	MaxScore    int    `json:"maxScore"`
	Streak      int    `json:"streak"`
}

// Stats summarises a user's last thirty days of daily practice.
type Stats struct {
	TotalDaysAttempted  int                       `json:"totalDaysAttempted"`
	TotalDaysCompleted  int                       `json:"totalDaysCompleted"`
	CurrentStreak       int                       `json:"currentStreak"`
	LongestStreak       int                       `json:"longestStreak"`
	AverageScore        int                       `json:"averageScore"`
	CategoryPerformance map[string]CategoryTotals `json:"categoryPerformance"`
	RecentHistory       []HistoryEntry            `json:"recentHistory"`
}
