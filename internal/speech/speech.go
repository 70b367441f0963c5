package speech

import (
	"context"
	"errors"
	"fmt"

	"peerprep/interview/internal/models"
)

// ErrDisabled is returned when no speech provider is configured.
var ErrDisabled = errors.New("speech transcription is disabled")

// Transcriber turns a recorded answer into a transcript plus delivery metrics.
type Transcriber interface {
	TranscribeAndAnalyze(ctx context.Context, audio []byte) (*models.VoiceAnalysis, error)
}

// Word is one recognised word with offsets in seconds from the start of the recording.
type Word struct {
	Text  string
	Start float64
	End   float64
}

// Transcript is the raw recogniser output before analysis.
type Transcript struct {
	Text       string
	Confidence float64 // 0-1
	Words      []Word
}

// Recognizer is the speech-to-text backend.
type Recognizer interface {
	Recognize(ctx context.Context, audio []byte) (*Transcript, error)
}

// Service combines a recogniser with the delivery analysis.
type Service struct {
	recognizer Recognizer
}

func NewService(recognizer Recognizer) *Service {
	return &Service{recognizer: recognizer}
}

func (s *Service) TranscribeAndAnalyze(ctx context.Context, audio []byte) (*models.VoiceAnalysis, error) {
	if s.recognizer == nil {
		return nil, ErrDisabled
	}
	if len(audio) == 0 {
		return nil, errors.New("no audio data")
	}

	transcript, err := s.recognizer.Recognize(ctx, audio)
	if err != nil {
		return nil, fmt.Errorf("recognize audio: %w", err)
	}
	analysis := Analyze(transcript)
	return &analysis, nil
}

// Disabled rejects every request with ErrDisabled.
type Disabled struct{}

func (Disabled) TranscribeAndAnalyze(context.Context, []byte) (*models.VoiceAnalysis, error) {
	return nil, ErrDisabled
}
