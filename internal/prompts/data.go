package prompts

import "peerprep/interview/internal/models"

type SystemData struct {
	Persona       string
	Manner        string
	InterviewType string
	Difficulty    string
	TargetCompany string
	TargetRole    string
}

type QuestionData struct {
	QuestionsAsked int
	Difficulty     string
	InterviewType  string
	TopicsCovered  string
	RecentSummary  string
}

type EvaluationData struct {
	Question       string
	Difficulty     string
	ExpectedTopics []string
	Answer         string
	Voice          *models.VoiceAnalysis
	FillerWords    string
}

type FollowUpData struct {
	Question     string
	Answer       string
	Overall      int
	TopicsMissed []string
}

type SummaryResponse struct {
	Question  string
	Score     int
	Strengths string
}

type SummaryData struct {
	InterviewType   string
	TotalQuestions  int
	DurationMinutes int
	Scores          models.ScoreRecord
	Progression     []models.DifficultyPoint
	Responses       []SummaryResponse
}

type DailyData struct {
	Count int
}
