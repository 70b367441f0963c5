package models

import "time"

const (
	CategoryCommunication    = "communication"
	CategoryAptitude         = "aptitude"
	CategoryGeneralKnowledge = "generalKnowledge"

	QuestionsPerCategory = 5
	StreakMilestone      = 10
	DateLayout           = "2006-01-02"
)

// DailyCategories lists the canonical categories in display order.
var DailyCategories = []string{CategoryCommunication, CategoryAptitude, CategoryGeneralKnowledge}

type QuestionOption struct {
	ID   string `bson:"id" json:"id"`
	Text string `bson:"text" json:"text"`
}

type DailyQuestion struct {
	Text          string           `bson:"questionText" json:"questionText"`
	Options       []QuestionOption `bson:"options" json:"options"`
	CorrectAnswer string           `bson:"correctAnswer" json:"correctAnswer"`
	Explanation   string           `bson:"explanation" json:"explanation"`
	Difficulty    Difficulty       `bson:"difficulty" json:"difficulty"`
}

// DailyQuestionSet is generated once per calendar date and never modified afterwards.
type DailyQuestionSet struct {
	Date        string                     `bson:"date" json:"date"`
	Categories  map[string][]DailyQuestion `bson:"categories" json:"categories"`
	GeneratedAt time.Time                  `bson:"generatedAt" json:"generatedAt"`
	IsActive    bool                       `bson:"isActive" json:"isActive"`
}

// TotalQuestions counts questions across every category in the set.
func (s *DailyQuestionSet) TotalQuestions() int {
	total := 0
	for _, qs := range s.Categories {
		total += len(qs)
	}
	return total
}

type DailyResponse struct {
	QuestionIndex  int       `bson:"questionIndex" json:"questionIndex"`
	SelectedAnswer string    `bson:"selectedAnswer" json:"selectedAnswer"`
	IsCorrect      bool      `bson:"isCorrect" json:"isCorrect"`
	AnsweredAt     time.Time `bson:"answeredAt" json:"answeredAt"`
}

type CategoryProgress struct {
	Answered  int             `bson:"answered" json:"answered"`
	Correct   int             `bson:"correct" json:"correct"`
	Responses []DailyResponse `bson:"responses" json:"responses"`
}

// Response returns the stored response for a question index, if any.
func (p *CategoryProgress) Response(index int) (DailyResponse, bool) {
	for _, r := range p.Responses {
		if r.QuestionIndex == index {
			return r, true
		}
	}
	return DailyResponse{}, false
}

// UserDailyProgress is one user's progress for one date.
type UserDailyProgress struct {
	UserID        string                       `bson:"userId" json:"userId"`
	Date          string                       `bson:"date" json:"date"`
	Progress      map[string]*CategoryProgress `bson:"progress" json:"progress"`
	IsCompleted   bool                         `bson:"isCompleted" json:"isCompleted"`
	CompletedAt   *time.Time                   `bson:"completedAt,omitempty" json:"completedAt,omitempty"`
	TotalScore    int                          `bson:"totalScore" json:"totalScore"`
	MaxScore      int                          `bson:"maxScore" json:"maxScore"`
	Streak        int                          `bson:"streak" json:"streak"`
	RewardGranted bool                         `bson:"rewardGranted" json:"rewardGranted"`
}

// NewUserDailyProgress returns empty progress with every category initialised.
func NewUserDailyProgress(userID, date string) *UserDailyProgress {
	p := &UserDailyProgress{
		UserID:   userID,
		Date:     date,
		Progress: make(map[string]*CategoryProgress, len(DailyCategories)),
	}
	for _, c := range DailyCategories {
		p.Progress[c] = &CategoryProgress{Responses: []DailyResponse{}}
	}
	return p
}

// Category returns the progress for a category, creating it if missing.
func (p *UserDailyProgress) Category(name string) *CategoryProgress {
	if p.Progress == nil {
		p.Progress = make(map[string]*CategoryProgress)
	}
	cp, ok := p.Progress[name]
	if !ok || cp == nil {
		cp = &CategoryProgress{Responses: []DailyResponse{}}
		p.Progress[name] = cp
	}
	return cp
}

// AnsweredTotal counts answered questions across categories.
func (p *UserDailyProgress) AnsweredTotal() int {
	total := 0
	for _, cp := range p.Progress {
		if cp != nil {
			total += cp.Answered
		}
	}
	return total
}

// UserStreak is the running streak aggregate for one user.
type UserStreak struct {
	UserID            string `bson:"userId" json:"userId"`
	CurrentStreak     int    `bson:"currentStreak" json:"currentStreak"`
	LongestStreak     int    `bson:"longestStreak" json:"longestStreak"`
	LastCompletedDate string `bson:"lastCompletedDate" json:"lastCompletedDate"`
	Rewards           int    `bson:"rewards" json:"rewards"`
}

type LeaderboardEntry struct {
	Rank        int       `json:"rank"`
	UserID      string    `json:"userId"`
	TotalScore  int       `json:"totalScore"`
	MaxScore    int       `json:"maxScore"`
	Percentage  float64   `json:"percentage"`
	Streak      int       `json:"streak"`
	CompletedAt time.Time `json:"completedAt"`
}
