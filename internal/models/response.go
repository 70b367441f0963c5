package models

// uniform error responses
type ErrorResponse struct {
	Code    string                  `json:"code"`
	Message string                  `json:"message"`
	Details []ValidationErrorDetail `json:"details,omitempty"`
}

func (e *ErrorResponse) Error() string {
	return e.Message
}

// single field validation error
type ValidationErrorDetail struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

// returned by POST /interviews
type StartInterviewResponse struct {
	Session         *InterviewSession `json:"session"`
	CurrentQuestion *QuestionRecord   `json:"currentQuestion"`
}

// submit result for a daily practice answer
type DailyAnswerResponse struct {
	IsCorrect       bool   `json:"isCorrect"`
	CorrectAnswer   string `json:"correctAnswer"`
	Explanation     string `json:"explanation"`
	IsCompleted     bool   `json:"isCompleted"`
	TotalScore      int    `json:"totalScore"`
	MaxScore        int    `json:"maxScore"`
	Streak          int    `json:"streak"`
	RewardGranted   bool   `json:"rewardGranted"`
	AnsweredCount   int    `json:"answeredCount"`
	CategoryCorrect int    `json:"categoryCorrect"`
}
