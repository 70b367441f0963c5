package gateway

import (
	"math/rand/v2"

	"peerprep/interview/internal/models"
)

type fallbackQuestion struct {
	text   string
	qType  models.QuestionType
	topics []string
}

var fallbackQuestions = map[models.InterviewType][]fallbackQuestion{
	models.TypeTechnical: {
		{"Can you explain the concept of time complexity and give an example of O(n log n) algorithm?", models.QuestionTechnical, []string{"time complexity", "big O notation", "algorithms"}},
		{"Explain the difference between SQL and NoSQL databases. When would you choose one over the other?", models.QuestionTechnical, []string{"databases", "SQL", "NoSQL", "data modeling"}},
		{"What is the difference between a stack and a queue? Can you give a real-world example of each?", models.QuestionTechnical, []string{"data structures", "stack", "queue", "LIFO", "FIFO"}},
		{"Explain what REST API is and what makes an API RESTful?", models.QuestionTechnical, []string{"REST", "API design", "HTTP methods", "statelessness"}},
		{"What is a closure in JavaScript and why is it useful?", models.QuestionTechnical, []string{"closures", "JavaScript", "scope", "functions"}},
	},
	models.TypeBehavioral: {
		{"Tell me about a time when you had to deal with a difficult team member. How did you handle it?", models.QuestionScenario, []string{"conflict resolution", "teamwork", "communication"}},
		{"Describe a situation where you had to meet a tight deadline. How did you manage your time?", models.QuestionScenario, []string{"time management", "prioritization", "stress management"}},
		{"Tell me about a project that failed. What did you learn from it?", models.QuestionScenario, []string{"failure", "learning", "resilience", "self-improvement"}},
		{"Describe a time when you had to learn something new quickly. How did you approach it?", models.QuestionScenario, []string{"learning", "adaptability", "growth mindset"}},
	},
	models.TypeHR: {
		{"What attracted you to this role and company?", models.QuestionOpenEnded, []string{"motivation", "career goals", "company knowledge"}},
		{"Where do you see yourself in 5 years?", models.QuestionOpenEnded, []string{"career goals", "ambition", "planning"}},
		{"What is your greatest strength and how does it help you at work?", models.QuestionOpenEnded, []string{"self-awareness", "strengths", "value proposition"}},
		{"Why are you looking to leave your current role?", models.QuestionOpenEnded, []string{"motivation", "career change", "honesty"}},
	},
	models.TypeSystemDesign: {
		{"How would you design a URL shortening service like bit.ly?", models.QuestionTechnical, []string{"system design", "scalability", "database design"}},
		{"Design a simple chat application. What components would you need?", models.QuestionTechnical, []string{"real-time", "websockets", "message queue", "database"}},
		{"How would you design a rate limiter for an API?", models.QuestionTechnical, []string{"rate limiting", "algorithms", "distributed systems"}},
		{"Design a notification system that can handle millions of users.", models.QuestionTechnical, []string{"scalability", "push notifications", "queues", "microservices"}},
	},
}

// pickFallbackQuestion picks uniformly from the table for the interview type; unknown types use technical.
func pickFallbackQuestion(ic models.InterviewContext) models.QuestionRecord {
	table, ok := fallbackQuestions[ic.InterviewType]
	if !ok {
		table = fallbackQuestions[models.TypeTechnical]
	}
	q := table[rand.IntN(len(table))]

	difficulty := ic.Difficulty
	if difficulty == "" {
		difficulty = models.DifficultyMedium
	}
	return models.QuestionRecord{
		Text:           q.text,
		Type:           q.qType,
		Difficulty:     difficulty,
		ExpectedTopics: append([]string(nil), q.topics...),
		TimeAllowed:    models.DefaultTimeAllowed,
	}
}

const fallbackFeedback = "Evaluation in progress"

func fallbackEvaluation() models.EvaluationRecord {
	dim := models.DimensionScore{Score: 70, Feedback: fallbackFeedback, Present: true}
	overall := 70
	return models.EvaluationRecord{
		Correctness:      dim,
		Reasoning:        dim,
		Communication:    dim,
		Structure:        dim,
		Confidence:       dim,
		Overall:          &overall,
		Strengths:        []string{"Answer provided"},
		Weaknesses:       []string{"Could not fully evaluate"},
		Suggestions:      []string{"Continue practicing"},
		TopicsCovered:    []string{},
		TopicsMissed:     []string{},
		AdjustDifficulty: "maintain",
	}
}

// fallbackSummary is built from the numeric scores alone.
func fallbackSummary(in models.SummaryInput) models.SummaryRecord {
	level := "average"
	if in.OverallScores.Overall >= 70 {
		level = "good"
	}
	return models.SummaryRecord{
		OverallAssessment: "Interview completed. Full AI analysis temporarily unavailable.",
		PerformanceLevel:  level,
		StrengthAreas:     []string{"Completed the interview"},
		WeaknessAreas:     []string{"Areas to improve identified"},
		ImprovementPlan: models.ImprovementPlan{
			Summary:             "Continue practicing interview questions in your weak areas.",
			FocusAreas:          []string{"Technical skills", "Communication"},
			RecommendedPractice: []models.PracticeItem{},
			Resources:           []models.Resource{},
		},
		ReadinessScore:       in.OverallScores.Overall,
		RecommendedNextSteps: []string{"Review your responses", "Practice more questions", "Schedule another interview"},
	}
}
