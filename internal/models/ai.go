package models

// InterviewContext is the configuration the gateway needs to frame prompts for a session.
type InterviewContext struct {
	InterviewType InterviewType
	Personality   Personality
	Difficulty    Difficulty
	TargetCompany string
	TargetRole    string
}

// ContextFor builds the prompt context from the session's current configuration.
func ContextFor(session *InterviewSession) InterviewContext {
	return InterviewContext{
		InterviewType: session.InterviewType,
		Personality:   session.Personality,
		Difficulty:    session.Difficulty.Current,
		TargetCompany: session.TargetCompany,
		TargetRole:    session.TargetRole,
	}
}

type DimensionScore struct {
	Score    int    `json:"score"`
	Feedback string `json:"feedback"`
	Present  bool   `json:"-"`
}

// EvaluationRecord is the typed form of the model's answer evaluation.
type EvaluationRecord struct {
	Correctness   DimensionScore `json:"correctness"`
	Reasoning     DimensionScore `json:"reasoning"`
	Communication DimensionScore `json:"communication"`
	Structure     DimensionScore `json:"structure"`
	Confidence    DimensionScore `json:"confidence"`

	// Overall is nil when the model did not state one.
	Overall *int `json:"overall,omitempty"`

	Strengths        []string `json:"strengths"`
	Weaknesses       []string `json:"weaknesses"`
	Suggestions      []string `json:"suggestions"`
	TopicsCovered    []string `json:"keyTopicsCovered"`
	TopicsMissed     []string `json:"keyTopicsMissed"`
	FollowUpQuestion string   `json:"followUpQuestion,omitempty"`
	AdjustDifficulty string   `json:"adjustDifficulty"`
}

// Analysis extracts the qualitative part of the evaluation.
func (e *EvaluationRecord) Analysis() *AIAnalysis {
	return &AIAnalysis{
		Feedback:      e.Correctness.Feedback,
		Strengths:     nonNil(e.Strengths),
		Weaknesses:    nonNil(e.Weaknesses),
		Suggestions:   nonNil(e.Suggestions),
		TopicsCovered: nonNil(e.TopicsCovered),
		TopicsMissed:  nonNil(e.TopicsMissed),
	}
}

type DetailedFeedback struct {
	TechnicalSkills string `bson:"technicalSkills,omitempty" json:"technicalSkills,omitempty"`
	ProblemSolving  string `bson:"problemSolving,omitempty" json:"problemSolving,omitempty"`
	Communication   string `bson:"communication,omitempty" json:"communication,omitempty"`
	Confidence      string `bson:"confidence,omitempty" json:"confidence,omitempty"`
}

type PracticeItem struct {
	Topic              string   `bson:"topic" json:"topic"`
	Priority           string   `bson:"priority" json:"priority"`
	SuggestedQuestions []string `bson:"suggestedQuestions" json:"suggestedQuestions"`
	EstimatedTime      string   `bson:"estimatedTime" json:"estimatedTime"`
}

type Resource struct {
	Title       string `bson:"title" json:"title"`
	Type        string `bson:"type" json:"type"`
	Description string `bson:"description" json:"description"`
}

type ImprovementPlan struct {
	Summary             string         `bson:"summary" json:"summary"`
	FocusAreas          []string       `bson:"focusAreas" json:"focusAreas"`
	ShortTermGoals      []string       `bson:"shortTermGoals,omitempty" json:"shortTermGoals,omitempty"`
	LongTermGoals       []string       `bson:"longTermGoals,omitempty" json:"longTermGoals,omitempty"`
	RecommendedPractice []PracticeItem `bson:"recommendedPractice" json:"recommendedPractice"`
	Resources           []Resource     `bson:"resources" json:"resources"`
}

// SummaryRecord is the end-of-session narrative and improvement plan.
type SummaryRecord struct {
	OverallAssessment    string           `bson:"overallAssessment" json:"overallAssessment"`
	PerformanceLevel     string           `bson:"performanceLevel" json:"performanceLevel"`
	StrengthAreas        []string         `bson:"strengthAreas" json:"strengthAreas"`
	WeaknessAreas        []string         `bson:"weaknessAreas" json:"weaknessAreas"`
	DetailedFeedback     DetailedFeedback `bson:"detailedFeedback" json:"detailedFeedback"`
	ImprovementPlan      ImprovementPlan  `bson:"improvementPlan" json:"improvementPlan"`
	ReadinessScore       int              `bson:"readinessScore" json:"readinessScore"`
	RecommendedNextSteps []string         `bson:"recommendedNextSteps" json:"recommendedNextSteps"`
}

// SummaryInput is what the gateway needs to write the end-of-session summary.
type SummaryInput struct {
	InterviewType   InterviewType
	TotalQuestions  int
	DurationMinutes int
	OverallScores   ScoreRecord
	Progression     []DifficultyPoint
	Responses       []ResponseRecord
}

func nonNil(in []string) []string {
	if in == nil {
		return []string{}
	}
	return in
}
