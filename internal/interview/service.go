package interview

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"peerprep/interview/internal/events"
	"peerprep/interview/internal/metrics"
	"peerprep/interview/internal/models"
	"peerprep/interview/internal/repositories"
	"peerprep/interview/internal/speech"
)

const DefaultAudioMaxBytes = 10 << 20

// user-visible error messages
const (
	msgSessionNotFound   = "Session not found"
	msgSessionAbandoned  = "Session was abandoned"
	msgJoinFailed        = "Failed to join interview"
	msgAnswerFailed      = "Failed to process answer"
	msgAnswerInFlight    = "Answer already being processed"
	msgNotInProgress     = "Interview is not in progress"
	msgPauseFailed       = "Failed to pause interview"
	msgResumeFailed      = "Failed to resume interview"
	msgNoPausedSession   = "No paused session found"
	msgNoAudio           = "No audio data received"
	msgTranscribeFailed  = "Failed to process audio"
	msgAudioFailed       = "Audio processing failed"
	msgInvalidAudioChunk = "Invalid audio chunk"
	msgAudioTooLarge     = "Audio exceeds the maximum allowed size"
	msgAlreadyAnswered   = "Question already answered"
)

// Emitter pushes one event to a client.
type Emitter interface {
	Emit(event string, payload any)
}

// Conn is a client connection issuing commands on behalf of an authenticated user.
type Conn interface {
	Emitter
	ID() string
	UserID() string
}

// AI is the part of the gateway the session machine depends on.
type AI interface {
	GenerateQuestion(ctx context.Context, sessionID string, ic models.InterviewContext, prior []models.ResponseRecord) models.QuestionRecord
	EvaluateAnswer(ctx context.Context, sessionID string, question models.QuestionRecord, answer string, voice *models.VoiceAnalysis) models.EvaluationRecord
	GenerateFollowUp(ctx context.Context, sessionID string, question models.QuestionRecord, answer string, eval models.EvaluationRecord) (*models.QuestionRecord, bool)
	GenerateSummary(ctx context.Context, sessionID string, in models.SummaryInput) models.SummaryRecord
	ClearSession(ctx context.Context, sessionID string)
}

type Options struct {
	Sessions      repositories.SessionRepository
	AI            AI
	Transcriber   speech.Transcriber
	Publisher     events.Publisher
	Logger        *zap.Logger
	AudioMaxBytes int
}

// Service drives interview sessions through their lifecycle.
type Service struct {
	sessions      repositories.SessionRepository
	ai            AI
	transcriber   speech.Transcriber
	publisher     events.Publisher
	logger        *zap.Logger
	audioMaxBytes int
	transient     *transientStore
	now           func() time.Time
}

func NewService(opts Options) *Service {
	s := &Service{
		sessions:      opts.Sessions,
		ai:            opts.AI,
		transcriber:   opts.Transcriber,
		publisher:     opts.Publisher,
		logger:        opts.Logger,
		audioMaxBytes: opts.AudioMaxBytes,
		transient:     newTransientStore(),
		now:           func() time.Time { return time.Now().UTC() },
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	if s.transcriber == nil {
		s.transcriber = speech.Disabled{}
	}
	if s.publisher == nil {
		s.publisher = events.Nop{}
	}
	if s.audioMaxBytes <= 0 {
		s.audioMaxBytes = DefaultAudioMaxBytes
	}
	return s
}

// Start creates a new in-progress session and asks the gateway for its first question.
func (s *Service) Start(ctx context.Context, userID string, req models.StartInterviewRequest) (*models.InterviewSession, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrValidation, err)
	}

	now := s.now()
	session := &models.InterviewSession{
		SessionID:      uuid.NewString(),
		UserID:         userID,
		InterviewType:  req.InterviewType,
		Personality:    req.Personality,
		Difficulty:     models.DifficultyState{Initial: req.Difficulty, Current: req.Difficulty},
		TotalQuestions: req.TotalQuestions,
		VoiceEnabled:   req.VoiceEnabled,
		TargetCompany:  req.TargetCompany,
		TargetRole:     req.TargetRole,
		Status:         models.StatusInProgress,
		StartedAt:      now,
		LastActivityAt: now,
	}

	question := s.nextQuestion(ctx, session)
	session.Responses = []models.ResponseRecord{{QuestionIndex: 0, Question: question, StartedAt: now}}

	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}

	s.publish(ctx, events.Event{
		Type:      events.TypeInterviewStarted,
		SessionID: session.SessionID,
		UserID:    userID,
		Data: map[string]any{
			"interviewType":  session.InterviewType,
			"difficulty":     session.Difficulty.Initial,
			"totalQuestions": session.TotalQuestions,
		},
	})
	s.logger.Info("Interview started",
		zap.String("session_id", session.SessionID),
		zap.String("user_id", userID),
		zap.String("interview_type", string(session.InterviewType)))
	return session, nil
}

// Get returns a session owned by userID.
func (s *Service) Get(ctx context.Context, userID, sessionID string) (*models.InterviewSession, error) {
	return s.load(ctx, userID, sessionID)
}

// Join attaches the connection to a session and reports where the interview stands.
func (s *Service) Join(ctx context.Context, conn Conn, sessionID string) error {
	session, err := s.load(ctx, conn.UserID(), sessionID)
	if err != nil {
		return s.fail(conn, err, msgJoinFailed)
	}

	switch session.Status {
	case models.StatusAbandoned:
		conn.Emit(models.EventError, models.ErrorPayload{Message: msgSessionAbandoned})
		return fmt.Errorf("%w: session %s was abandoned", ErrInvalidState, sessionID)
	case models.StatusCompleted:
		conn.Emit(models.EventAlreadyComplete, models.AlreadyCompletePayload{
			SessionID:     session.SessionID,
			Status:        session.Status,
			OverallScores: session.OverallScores,
			CompletedAt:   session.CompletedAt,
			Analytics:     session.Analytics,
		})
		return nil
	}

	s.transient.get(sessionID, s.now()).attach(conn, s.now())
	conn.Emit(models.EventInterviewJoined, models.InterviewJoinedPayload{
		SessionID:       session.SessionID,
		Status:          session.Status,
		InterviewType:   session.InterviewType,
		Difficulty:      session.Difficulty.Current,
		VoiceEnabled:    session.VoiceEnabled,
		CurrentQuestion: currentQuestion(session),
		Progress:        models.ProgressOf(session),
	})
	return nil
}

// AudioChunk buffers one base64 encoded chunk of the answer recording.
func (s *Service) AudioChunk(ctx context.Context, conn Conn, sessionID, chunk string) error {
	session, err := s.load(ctx, conn.UserID(), sessionID)
	if err != nil {
		return s.fail(conn, err, msgAudioFailed)
	}
	if err := Check(CommandAudioStream, session.Status); err != nil {
		return s.fail(conn, err, msgAudioFailed)
	}

	data, err := base64.StdEncoding.DecodeString(chunk)
	if err != nil || len(data) == 0 {
		conn.Emit(models.EventError, models.ErrorPayload{Message: msgInvalidAudioChunk})
		return fmt.Errorf("%w: audio chunk is not valid base64", ErrValidation)
	}

	state := s.transient.get(sessionID, s.now())
	count, ok := state.appendChunk(data, s.audioMaxBytes)
	if !ok {
		conn.Emit(models.EventError, models.ErrorPayload{Message: msgAudioTooLarge})
		return fmt.Errorf("%w: audio buffer exceeds %d bytes", ErrValidation, s.audioMaxBytes)
	}
	conn.Emit(models.EventAudioReceived, models.AudioReceivedPayload{ChunksReceived: count})
	return nil
}

// AudioComplete transcribes the buffered recording and keeps the analysis for the next submission.
func (s *Service) AudioComplete(ctx context.Context, conn Conn, sessionID string) error {
	session, err := s.load(ctx, conn.UserID(), sessionID)
	if err != nil {
		return s.fail(conn, err, msgAudioFailed)
	}
	if err := Check(CommandAudioComplete, session.Status); err != nil {
		return s.fail(conn, err, msgAudioFailed)
	}

	state := s.transient.get(sessionID, s.now())
	audio := state.audio()
	if len(audio) == 0 {
		conn.Emit(models.EventTranscriptionError, models.ErrorPayload{Message: msgNoAudio})
		return fmt.Errorf("%w: no audio buffered", ErrValidation)
	}

	voice, err := s.transcriber.TranscribeAndAnalyze(ctx, audio)
	if err != nil {
		s.logger.Warn("Transcription failed",
			zap.String("session_id", sessionID),
			zap.Int("bytes", len(audio)),
			zap.Error(err))
		conn.Emit(models.EventTranscriptionError, models.ErrorPayload{Message: msgTranscribeFailed})
		return fmt.Errorf("transcribe audio: %w", err)
	}

	state.setVoice(voice)
	state.clearAudio()
	conn.Emit(models.EventTranscriptionComplete, models.TranscriptionCompletePayload{
		Transcription:   voice.Transcription,
		Confidence:      voice.Confidence,
		ClarityScore:    voice.ClarityScore,
		HesitationCount: voice.HesitationCount,
		FillerWords:     voice.FillerWords,
		WordsPerMinute:  voice.WordsPerMinute,
	})
	return nil
}

// Pause stops the interview clock until Resume.
func (s *Service) Pause(ctx context.Context, conn Conn, sessionID string) error {
	unlock := s.lockSession(sessionID)
	defer unlock()

	session, err := s.load(ctx, conn.UserID(), sessionID)
	if err != nil {
		return s.fail(conn, err, msgPauseFailed)
	}
	next, err := Next(CommandPause, session.Status)
	if err != nil {
		return s.fail(conn, err, msgPauseFailed)
	}

	now := s.now()
	session.Status = next
	session.PausedAt = &now
	session.LastActivityAt = now
	if err := s.sessions.Save(ctx, session); err != nil {
		return s.fail(conn, fmt.Errorf("save session: %w", err), msgPauseFailed)
	}

	s.broadcast(sessionID, conn, models.EventInterviewPaused, models.SessionRef{SessionID: sessionID})
	return nil
}

// Resume continues a paused interview at the question it stopped on.
func (s *Service) Resume(ctx context.Context, conn Conn, sessionID string) error {
	unlock := s.lockSession(sessionID)
	defer unlock()

	session, err := s.load(ctx, conn.UserID(), sessionID)
	if errors.Is(err, ErrNotFound) {
		conn.Emit(models.EventError, models.ErrorPayload{Message: msgNoPausedSession})
		return err
	}
	if err != nil {
		return s.fail(conn, err, msgResumeFailed)
	}
	next, err := Next(CommandResume, session.Status)
	if err != nil {
		conn.Emit(models.EventError, models.ErrorPayload{Message: msgNoPausedSession})
		return err
	}

	session.Status = next
	session.PausedAt = nil
	session.LastActivityAt = s.now()
	if err := s.sessions.Save(ctx, session); err != nil {
		return s.fail(conn, fmt.Errorf("save session: %w", err), msgResumeFailed)
	}

	s.broadcast(sessionID, conn, models.EventInterviewResumed, models.InterviewResumedPayload{
		SessionID:       sessionID,
		CurrentQuestion: currentQuestion(session),
		Progress:        models.ProgressOf(session),
	})
	return nil
}

// Leave detaches the connection and drops any buffered audio or pending analysis.
// Connections that never joined the session leave it untouched.
func (s *Service) Leave(_ context.Context, conn Conn, sessionID string) error {
	state, ok := s.transient.lookup(sessionID)
	if !ok || !state.holds(conn.ID()) {
		return nil
	}
	state.clearPending()
	state.detach(conn.ID(), s.now())
	if state.removable() {
		s.transient.remove(sessionID)
	}
	return nil
}

// Disconnect detaches a closed connection from every session it joined. Buffered audio is
// kept so a reconnecting client can carry on; SweepTransient reclaims it otherwise.
func (s *Service) Disconnect(conn Conn) {
	for _, id := range s.transient.joinedBy(conn.ID()) {
		if state, ok := s.transient.lookup(id); ok {
			state.detach(conn.ID(), s.now())
		}
	}
}

// SweepTransient drops detached per-session state idle for longer than maxIdle.
func (s *Service) SweepTransient(maxIdle time.Duration) int {
	return s.transient.sweep(s.now().Add(-maxIdle))
}

// Abandon ends an in-progress or paused session without results.
func (s *Service) Abandon(ctx context.Context, userID, sessionID string) (*models.InterviewSession, error) {
	unlock := s.lockSession(sessionID)
	defer unlock()

	session, err := s.load(ctx, userID, sessionID)
	if err != nil {
		return nil, err
	}
	next, err := Next(CommandAbandon, session.Status)
	if err != nil {
		return nil, err
	}

	session.Status = next
	session.LastActivityAt = s.now()
	if err := s.sessions.Save(ctx, session); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}

	s.transient.remove(sessionID)
	s.ai.ClearSession(ctx, sessionID)
	metrics.SessionFinished(string(models.StatusAbandoned))
	s.publish(ctx, events.Event{
		Type:      events.TypeInterviewAbandoned,
		SessionID: sessionID,
		UserID:    userID,
		Data:      map[string]any{"questionsAnswered": session.QuestionsAnswered},
	})
	return session, nil
}

// FollowUp asks the gateway for a probing question about the most recent answer.
// It returns nil when the model offered none.
func (s *Service) FollowUp(ctx context.Context, userID, sessionID string) (*models.QuestionRecord, error) {
	session, err := s.load(ctx, userID, sessionID)
	if err != nil {
		return nil, err
	}

	var last *models.ResponseRecord
	for i := len(session.Responses) - 1; i >= 0; i-- {
		if session.Responses[i].Answered() {
			last = &session.Responses[i]
			break
		}
	}
	if last == nil {
		return nil, fmt.Errorf("%w: no answered question yet", ErrInvalidState)
	}

	eval := models.EvaluationRecord{}
	if last.Scores != nil {
		overall := last.Scores.Overall
		eval.Overall = &overall
	}
	if last.AIAnalysis != nil {
		eval.TopicsMissed = last.AIAnalysis.TopicsMissed
	}

	question, ok := s.ai.GenerateFollowUp(ctx, sessionID, last.Question, last.Answer.Text, eval)
	if !ok {
		return nil, nil
	}
	return question, nil
}

func (s *Service) load(ctx context.Context, userID, sessionID string) (*models.InterviewSession, error) {
	if sessionID == "" {
		return nil, fmt.Errorf("%w: sessionId is required", ErrNotFound)
	}
	session, err := s.sessions.Get(ctx, sessionID)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, sessionID)
	}
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	if session.UserID != userID {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, sessionID)
	}
	return session, nil
}

// lockSession serializes read-modify-write cycles on one persisted session.
func (s *Service) lockSession(sessionID string) func() {
	state := s.transient.get(sessionID, s.now())
	state.cmdMu.Lock()
	return state.cmdMu.Unlock
}

// fail emits the user-visible message for err and hands err back for the caller to log.
func (s *Service) fail(conn Conn, err error, fallback string) error {
	msg := fallback
	switch {
	case errors.Is(err, ErrNotFound):
		msg = msgSessionNotFound
	case errors.Is(err, ErrInFlight):
		msg = msgAnswerInFlight
	case errors.Is(err, ErrInvalidState):
		msg = msgNotInProgress
	default:
		s.logger.Error(fallback, zap.String("conn_id", conn.ID()), zap.Error(err))
	}
	conn.Emit(models.EventError, models.ErrorPayload{Message: msg})
	return err
}

// broadcast sends a session update to the issuing connection and every other attached one.
func (s *Service) broadcast(sessionID string, issuer Conn, event string, payload any) {
	issuer.Emit(event, payload)
	state, ok := s.transient.lookup(sessionID)
	if !ok {
		return
	}
	for _, c := range state.attached() {
		if c.ID() != issuer.ID() {
			c.Emit(event, payload)
		}
	}
}

func (s *Service) publish(ctx context.Context, event events.Event) {
	if event.OccurredAt.IsZero() {
		event.OccurredAt = s.now()
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Warn("Failed to publish event",
			zap.String("type", event.Type),
			zap.String("session_id", event.SessionID),
			zap.Error(err))
	}
}

// nextQuestion asks the gateway for a question pinned to the session's current difficulty.
func (s *Service) nextQuestion(ctx context.Context, session *models.InterviewSession) models.QuestionRecord {
	q := s.ai.GenerateQuestion(ctx, session.SessionID, models.ContextFor(session), session.Responses)
	if !models.ValidQuestionTypes[q.Type] {
		q.Type = models.QuestionOpenEnded
	}
	q.Difficulty = session.Difficulty.Current
	if q.ExpectedTopics == nil {
		q.ExpectedTopics = []string{}
	}
	return q
}

func currentQuestion(session *models.InterviewSession) *models.QuestionRecord {
	i := session.CurrentQuestionIndex
	if i < 0 || i >= len(session.Responses) {
		return nil
	}
	return &session.Responses[i].Question
}
