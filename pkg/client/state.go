package client

import "peerprep/interview/internal/models"

// State is a snapshot of the client's view of one interview session.
type State struct {
	Connected bool

	SessionID       string
	Status          models.SessionStatus
	InterviewType   models.InterviewType
	Difficulty      models.Difficulty
	VoiceEnabled    bool
	CurrentQuestion *models.QuestionRecord
	QuestionIndex   int
	TotalQuestions  int

	IsActive     bool
	IsPaused     bool
	IsProcessing bool
	Completed    bool

	CurrentAnswer  string
	AudioChunks    int
	LastEvaluation *models.AnswerEvaluatedPayload
	VoiceAnalysis  *models.TranscriptionCompletePayload
	Result         *models.InterviewCompletePayload
	PriorResult    *models.AlreadyCompletePayload
	LastError      string
}

func (s State) clone() State {
	if s.CurrentQuestion != nil {
		q := *s.CurrentQuestion
		s.CurrentQuestion = &q
	}
	return s
}

// resetSession drops everything tied to the joined session but keeps the connection flag.
func (s *State) resetSession() {
	*s = State{Connected: s.Connected}
}
