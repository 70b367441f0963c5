package models

import "time"

// Commands sent by the client over the interview socket.
const (
	CmdJoinInterview   = "join-interview"
	CmdAudioStream     = "audio-stream"
	CmdAudioComplete   = "audio-complete"
	CmdSubmitAnswer    = "submit-answer"
	CmdPauseInterview  = "pause-interview"
	CmdResumeInterview = "resume-interview"
	CmdLeaveInterview  = "leave-interview"
)

// Events pushed by the server.
const (
	EventInterviewJoined       = "interview-joined"
	EventAlreadyComplete       = "interview-already-complete"
	EventAudioReceived         = "audio-received"
	EventTranscriptionComplete = "transcription-complete"
	EventTranscriptionError    = "transcription-error"
	EventAnswerProcessing      = "answer-processing"
	EventAnswerEvaluated       = "answer-evaluated"
	EventDifficultyAdjusted    = "difficulty-adjusted"
	EventInterviewComplete     = "interview-complete"
	EventNextQuestion          = "next-question"
	EventInterviewPaused       = "interview-paused"
	EventInterviewResumed      = "interview-resumed"
	EventError                 = "error"
)

const (
	ProcessingEvaluating         = "evaluating"
	ProcessingGeneratingQuestion = "generating-question"
)

// Frame is the JSON envelope for every websocket message in both directions.
type Frame struct {
	Event string `json:"event"`
	Data  any    `json:"data,omitempty"`
}

type Progress struct {
	Current int `json:"current"`
	Total   int `json:"total"`
}

// ProgressOf reports the 1-based position of the current question.
func ProgressOf(session *InterviewSession) Progress {
	return Progress{Current: session.CurrentQuestionIndex + 1, Total: session.TotalQuestions}
}

// client -> server payloads

type SessionRef struct {
	SessionID string `json:"sessionId"`
}

type AudioChunkPayload struct {
	SessionID  string `json:"sessionId"`
	AudioChunk string `json:"audioChunk"`
}

type SubmitAnswerPayload struct {
	SessionID string `json:"sessionId"`
	Answer    string `json:"answer"`
}

// server -> client payloads

type ErrorPayload struct {
	Message string `json:"message"`
}

type InterviewJoinedPayload struct {
	SessionID       string          `json:"sessionId"`
	Status          SessionStatus   `json:"status"`
	InterviewType   InterviewType   `json:"interviewType"`
	Difficulty      Difficulty      `json:"difficulty"`
	VoiceEnabled    bool            `json:"voiceEnabled"`
	CurrentQuestion *QuestionRecord `json:"currentQuestion"`
	Progress        Progress        `json:"progress"`
}

type AlreadyCompletePayload struct {
	SessionID     string            `json:"sessionId"`
	Status        SessionStatus     `json:"status"`
	OverallScores *ScoreRecord      `json:"overallScores"`
	CompletedAt   *time.Time        `json:"completedAt"`
	Analytics     *SessionAnalytics `json:"analytics"`
}

type AudioReceivedPayload struct {
	ChunksReceived int `json:"chunksReceived"`
}

type TranscriptionCompletePayload struct {
	Transcription   string       `json:"transcription"`
	Confidence      float64      `json:"confidence"`
	ClarityScore    float64      `json:"clarityScore"`
	HesitationCount int          `json:"hesitationCount"`
	FillerWords     []FillerWord `json:"fillerWords"`
	WordsPerMinute  float64      `json:"wordsPerMinute"`
}

type AnswerProcessingPayload struct {
	Status string `json:"status"`
}

type FeedbackPayload struct {
	Strengths   []string `json:"strengths"`
	Weaknesses  []string `json:"weaknesses"`
	Suggestions []string `json:"suggestions"`
}

type AnswerEvaluatedPayload struct {
	Scores   ScoreRecord     `json:"scores"`
	Feedback FeedbackPayload `json:"feedback"`
}

type DifficultyAdjustedPayload struct {
	NewDifficulty Difficulty `json:"newDifficulty"`
	Reason        string     `json:"reason"`
}

type InterviewCompletePayload struct {
	SessionID     string            `json:"sessionId"`
	OverallScores ScoreRecord       `json:"overallScores"`
	Analytics     *SessionAnalytics `json:"analytics"`
	Summary       *SummaryRecord    `json:"summary,omitempty"`
}

type NextQuestionPayload struct {
	Index          int          `json:"index"`
	Question       string       `json:"question"`
	Type           QuestionType `json:"type"`
	Difficulty     Difficulty   `json:"difficulty"`
	ExpectedTopics []string     `json:"expectedTopics"`
	Progress       Progress     `json:"progress"`
}

type InterviewResumedPayload struct {
	SessionID       string          `json:"sessionId"`
	CurrentQuestion *QuestionRecord `json:"currentQuestion"`
	Progress        Progress        `json:"progress"`
}
