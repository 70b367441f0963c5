package models

import "time"

// InterviewSession is one user's interview attempt. It is stored as a single document.
type InterviewSession struct {
	SessionID      string          `bson:"sessionId" json:"sessionId"`
	UserID         string          `bson:"userId" json:"userId"`
	InterviewType  InterviewType   `bson:"interviewType" json:"interviewType"`
	Personality    Personality     `bson:"personality" json:"personality"`
	Difficulty     DifficultyState `bson:"difficulty" json:"difficulty"`
	TotalQuestions int             `bson:"totalQuestions" json:"totalQuestions"`
	VoiceEnabled   bool            `bson:"voiceEnabled" json:"voiceEnabled"`
	TargetCompany  string          `bson:"targetCompany,omitempty" json:"targetCompany,omitempty"`
	TargetRole     string          `bson:"targetRole,omitempty" json:"targetRole,omitempty"`

	Status               SessionStatus      `bson:"status" json:"status"`
	CurrentQuestionIndex int                `bson:"currentQuestionIndex" json:"currentQuestionIndex"`
	QuestionsAnswered    int                `bson:"questionsAnswered" json:"questionsAnswered"`
	Responses            []ResponseRecord   `bson:"responses" json:"responses"`
	DifficultyHistory    []DifficultyChange `bson:"difficultyHistory,omitempty" json:"difficultyHistory,omitempty"`

	StartedAt      time.Time  `bson:"startedAt" json:"startedAt"`
	LastActivityAt time.Time  `bson:"lastActivityAt" json:"lastActivityAt"`
	PausedAt       *time.Time `bson:"pausedAt,omitempty" json:"pausedAt,omitempty"`
	CompletedAt    *time.Time `bson:"completedAt,omitempty" json:"completedAt,omitempty"`

	OverallScores *ScoreRecord      `bson:"overallScores,omitempty" json:"overallScores,omitempty"`
	Analytics     *SessionAnalytics `bson:"analytics,omitempty" json:"analytics,omitempty"`
	Summary       *SummaryRecord    `bson:"summary,omitempty" json:"summary,omitempty"`
}

type DifficultyState struct {
	Initial Difficulty `bson:"initial" json:"initial"`
	Current Difficulty `bson:"current" json:"current"`
}

type DifficultyChange struct {
	QuestionIndex int        `bson:"questionIndex" json:"questionIndex"`
	From          Difficulty `bson:"from" json:"from"`
	To            Difficulty `bson:"to" json:"to"`
	Reason        string     `bson:"reason" json:"reason"`
	At            time.Time  `bson:"at" json:"at"`
}

// ResponseRecord pairs one asked question with its eventual answer and evaluation.
type ResponseRecord struct {
	QuestionIndex int            `bson:"questionIndex" json:"questionIndex"`
	Question      QuestionRecord `bson:"question" json:"question"`
	StartedAt     time.Time      `bson:"startedAt" json:"startedAt"`
	Answer        *Answer        `bson:"answer,omitempty" json:"answer,omitempty"`
	VoiceAnalysis *VoiceAnalysis `bson:"voiceAnalysis,omitempty" json:"voiceAnalysis,omitempty"`
	Scores        *ScoreRecord   `bson:"scores,omitempty" json:"scores,omitempty"`
	AIAnalysis    *AIAnalysis    `bson:"aiAnalysis,omitempty" json:"aiAnalysis,omitempty"`
	CompletedAt   *time.Time     `bson:"completedAt,omitempty" json:"completedAt,omitempty"`
}

// Answered reports whether the response already carries a submitted answer.
func (r *ResponseRecord) Answered() bool {
	return r.Answer != nil
}

type QuestionRecord struct {
	Text           string       `bson:"questionText" json:"questionText"`
	Type           QuestionType `bson:"questionType" json:"questionType"`
	Difficulty     Difficulty   `bson:"difficulty" json:"difficulty"`
	ExpectedTopics []string     `bson:"expectedTopics" json:"expectedTopics"`
	TimeAllowed    int          `bson:"timeAllowed" json:"timeAllowed"`
	Hints          []string     `bson:"hints,omitempty" json:"hints,omitempty"`
}

type Answer struct {
	Text        string `bson:"text" json:"text"`
	DurationSec int    `bson:"duration" json:"duration"`
}

type FillerWord struct {
	Word  string `bson:"word" json:"word"`
	Count int    `bson:"count" json:"count"`
}

// VoiceAnalysis is the transcription collaborator's output for one recorded answer.
type VoiceAnalysis struct {
	Transcription   string       `bson:"transcription" json:"transcription"`
	Confidence      float64      `bson:"confidence" json:"confidence"`
	ClarityScore    float64      `bson:"clarityScore" json:"clarityScore"`
	HesitationCount int          `bson:"hesitationCount" json:"hesitationCount"`
	FillerWords     []FillerWord `bson:"fillerWords" json:"fillerWords"`
	WordsPerMinute  float64      `bson:"wordsPerMinute" json:"wordsPerMinute"`
}

// ScoreRecord holds the five named 0-100 sub-scores and the overall score.
type ScoreRecord struct {
	Correctness   int `bson:"correctness" json:"correctness"`
	Reasoning     int `bson:"reasoning" json:"reasoning"`
	Communication int `bson:"communication" json:"communication"`
	Structure     int `bson:"structure" json:"structure"`
	Confidence    int `bson:"confidence" json:"confidence"`
	Overall       int `bson:"overall" json:"overall"`
}

type AIAnalysis struct {
	// Feedback is the model's correctness remark, reused as context for later questions.
	Feedback      string   `bson:"feedback,omitempty" json:"feedback,omitempty"`
	Strengths     []string `bson:"strengths" json:"strengths"`
	Weaknesses    []string `bson:"weaknesses" json:"weaknesses"`
	Suggestions   []string `bson:"suggestions" json:"suggestions"`
	TopicsCovered []string `bson:"keyTopicsCovered" json:"keyTopicsCovered"`
	TopicsMissed  []string `bson:"keyTopicsMissed" json:"keyTopicsMissed"`
}

type PerformanceTrend string

const (
	TrendImproving PerformanceTrend = "improving"
	TrendDeclining PerformanceTrend = "declining"
	TrendStable    PerformanceTrend = "stable"
)

// SessionAnalytics is computed once when the session completes.
type SessionAnalytics struct {
	PerformanceTrend       PerformanceTrend  `bson:"performanceTrend" json:"performanceTrend"`
	Strengths              []string          `bson:"strengths" json:"strengths"`
	Weaknesses             []string          `bson:"weaknesses" json:"weaknesses"`
	TopicsCovered          []string          `bson:"topicsCovered" json:"topicsCovered"`
	TopicsMissed           []string          `bson:"topicsMissed" json:"topicsMissed"`
	DifficultyProgression  []DifficultyPoint `bson:"difficultyProgression" json:"difficultyProgression"`
	AverageResponseSeconds float64           `bson:"averageResponseSeconds" json:"averageResponseSeconds"`
	Voice                  *VoiceSummary     `bson:"voice,omitempty" json:"voice,omitempty"`
}

type DifficultyPoint struct {
	QuestionIndex int        `bson:"questionIndex" json:"questionIndex"`
	Difficulty    Difficulty `bson:"difficulty" json:"difficulty"`
	Score         int        `bson:"score" json:"score"`
}

type VoiceSummary struct {
	AverageConfidence float64 `bson:"averageConfidence" json:"averageConfidence"`
	AverageClarity    float64 `bson:"averageClarity" json:"averageClarity"`
	TotalFillerWords  int     `bson:"totalFillerWords" json:"totalFillerWords"`
	SamplesAnalyzed   int     `bson:"samplesAnalyzed" json:"samplesAnalyzed"`
}
