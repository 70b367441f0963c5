package speech

import (
	"context"
	"fmt"
	"strings"
	"time"

	speechapi "cloud.google.com/go/speech/apiv1"
	"cloud.google.com/go/speech/apiv1/speechpb"
	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/durationpb"
)

type GCPConfig struct {
	LanguageCode    string
	Encoding        string // webm, ogg, linear16 or flac
	SampleRateHertz int
	MaxRetries      int
}

// GCPRecognizer transcribes with Google Cloud Speech-to-Text.
type GCPRecognizer struct {
	client *speechapi.Client
	config GCPConfig
	logger *zap.Logger
}

// NewGCPRecognizer uses application default credentials.
func NewGCPRecognizer(ctx context.Context, config GCPConfig, logger *zap.Logger) (*GCPRecognizer, error) {
	client, err := speechapi.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("speech client: %w", err)
	}
	if config.MaxRetries <= 0 {
		config.MaxRetries = 3
	}
	return &GCPRecognizer{client: client, config: config, logger: logger}, nil
}

func (g *GCPRecognizer) Close() error {
	if g == nil || g.client == nil {
		return nil
	}
	return g.client.Close()
}

func (g *GCPRecognizer) Recognize(ctx context.Context, audio []byte) (*Transcript, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Minute)
	defer cancel()

	req := &speechpb.LongRunningRecognizeRequest{
		Config: recognitionConfig(g.config),
		Audio:  &speechpb.RecognitionAudio{AudioSource: &speechpb.RecognitionAudio_Content{Content: audio}},
	}

	backoff := 500 * time.Millisecond
	var last error
	for attempt := 0; attempt <= g.config.MaxRetries; attempt++ {
		op, err := g.client.LongRunningRecognize(ctx, req)
		if err == nil {
			var resp *speechpb.LongRunningRecognizeResponse
			resp, err = op.Wait(ctx)
			if err == nil {
				return transcriptFromResults(resp.GetResults()), nil
			}
		}
		last = err
		if !retryable(err) || attempt == g.config.MaxRetries {
			break
		}

		g.logger.Warn("Speech recognition failed, retrying",
			zap.Int("attempt", attempt+1), zap.Duration("backoff", backoff), zap.Error(err))
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(backoff):
		}
		backoff *= 2
	}
	return nil, fmt.Errorf("speech longrunningrecognize: %w", last)
}

func retryable(err error) bool {
	switch status.Code(err) {
	case codes.Unavailable, codes.ResourceExhausted, codes.DeadlineExceeded:
		return true
	}
	return false
}

func recognitionConfig(config GCPConfig) *speechpb.RecognitionConfig {
	language := config.LanguageCode
	if language == "" {
		language = "en-US"
	}

	encoding, rate := speechpb.RecognitionConfig_WEBM_OPUS, 48000
	switch strings.ToLower(config.Encoding) {
	case "ogg":
		encoding = speechpb.RecognitionConfig_OGG_OPUS
	case "linear16", "wav":
		encoding, rate = speechpb.RecognitionConfig_LINEAR16, 16000
	case "flac":
		encoding, rate = speechpb.RecognitionConfig_FLAC, 0
	}
	if config.SampleRateHertz > 0 {
		rate = config.SampleRateHertz
	}

	return &speechpb.RecognitionConfig{
		Encoding:                   encoding,
		SampleRateHertz:            int32(rate),
		LanguageCode:               language,
		EnableAutomaticPunctuation: true,
		EnableWordTimeOffsets:      true,
	}
}

// transcriptFromResults joins the top alternative of every result.
func transcriptFromResults(results []*speechpb.SpeechRecognitionResult) *Transcript {
	out := &Transcript{}
	var text strings.Builder
	var confidenceSum float64
	confidenceN := 0

	for _, r := range results {
		if r == nil || len(r.Alternatives) == 0 || r.Alternatives[0] == nil {
			continue
		}
		alt := r.Alternatives[0]
		transcript := strings.TrimSpace(alt.Transcript)
		if transcript == "" {
			continue
		}
		if text.Len() > 0 {
			text.WriteString(" ")
		}
		text.WriteString(transcript)

		if alt.Confidence > 0 {
			confidenceSum += float64(alt.Confidence)
			confidenceN++
		}
		for _, w := range alt.Words {
			if w == nil {
				continue
			}
			out.Words = append(out.Words, Word{Text: w.Word, Start: seconds(w.StartTime), End: seconds(w.EndTime)})
		}
	}

	out.Text = text.String()
	if confidenceN > 0 {
		out.Confidence = confidenceSum / float64(confidenceN)
	}
	return out
}

func seconds(d *durationpb.Duration) float64 {
	if d == nil {
		return 0
	}
	return float64(d.Seconds) + float64(d.Nanos)/1e9
}
