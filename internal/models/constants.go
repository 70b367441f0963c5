package models

type InterviewType string

const (
	TypeTechnical    InterviewType = "technical"
	TypeBehavioral   InterviewType = "behavioral"
	TypeSystemDesign InterviewType = "system-design"
	TypeHR           InterviewType = "hr"
)

type Personality string

const (
	PersonalityStrict       Personality = "strict"
	PersonalityFriendly     Personality = "friendly"
	PersonalityProfessional Personality = "professional"
)

type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
	DifficultyExpert Difficulty = "expert"
)

// ordered easy < medium < hard < expert
var difficultyTiers = []Difficulty{DifficultyEasy, DifficultyMedium, DifficultyHard, DifficultyExpert}

// Tier returns the position of d in the tier order, or -1 when unknown.
func (d Difficulty) Tier() int {
	for i, tier := range difficultyTiers {
		if tier == d {
			return i
		}
	}
	return -1
}

// Step moves one tier up (delta > 0) or down (delta < 0), clamped to the ends.
func (d Difficulty) Step(delta int) Difficulty {
	i := d.Tier()
	if i < 0 {
		return d
	}
	switch {
	case delta > 0 && i < len(difficultyTiers)-1:
		return difficultyTiers[i+1]
	case delta < 0 && i > 0:
		return difficultyTiers[i-1]
	}
	return d
}

type SessionStatus string

const (
	StatusInProgress SessionStatus = "in-progress"
	StatusPaused     SessionStatus = "paused"
	StatusCompleted  SessionStatus = "completed"
	StatusAbandoned  SessionStatus = "abandoned"
)

// Terminal reports whether no further command may mutate a session in this status.
func (s SessionStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusAbandoned
}

type QuestionType string

const (
	QuestionOpenEnded QuestionType = "open-ended"
	QuestionTechnical QuestionType = "technical"
	QuestionCoding    QuestionType = "coding"
	QuestionScenario  QuestionType = "scenario"
	QuestionFollowUp  QuestionType = "follow-up"
)

// contains all valid interview types
var ValidInterviewTypes = map[InterviewType]bool{
	TypeTechnical:    true,
	TypeBehavioral:   true,
	TypeSystemDesign: true,
	TypeHR:           true,
}

var ValidPersonalities = map[Personality]bool{
	PersonalityStrict:       true,
	PersonalityFriendly:     true,
	PersonalityProfessional: true,
}

var ValidDifficulties = map[Difficulty]bool{
	DifficultyEasy:   true,
	DifficultyMedium: true,
	DifficultyHard:   true,
	DifficultyExpert: true,
}

var ValidQuestionTypes = map[QuestionType]bool{
	QuestionOpenEnded: true,
	QuestionTechnical: true,
	QuestionCoding:    true,
	QuestionScenario:  true,
	QuestionFollowUp:  true,
}

const (
	DefaultTimeAllowed    = 120
	DefaultTotalQuestions = 5
	MaxTotalQuestions     = 20
	DefaultQuestionText   = "Tell me more about your experience."
)
