package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"slices"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"peerprep/interview/internal/interview"
	"peerprep/interview/internal/metrics"
	"peerprep/interview/internal/models"
	"peerprep/interview/internal/utils"
)

const (
	// audio chunks arrive base64 encoded inside the frame
	maxFrameBytes   = 2 << 20
	defaultPongWait = 90 * time.Second
)

// Commands is the interview command surface driven by socket frames.
type Commands interface {
	Join(ctx context.Context, conn interview.Conn, sessionID string) error
	AudioChunk(ctx context.Context, conn interview.Conn, sessionID, chunk string) error
	AudioComplete(ctx context.Context, conn interview.Conn, sessionID string) error
	SubmitAnswer(ctx context.Context, conn interview.Conn, sessionID, answer string) error
	Pause(ctx context.Context, conn interview.Conn, sessionID string) error
	Resume(ctx context.Context, conn interview.Conn, sessionID string) error
	Leave(ctx context.Context, conn interview.Conn, sessionID string) error
	Disconnect(conn interview.Conn)
}

type inboundFrame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

type Handler struct {
	commands Commands
	hub      *Hub
	secret   string
	logger   *zap.Logger
	upgrader websocket.Upgrader
	// pongWait bounds the silence between reads; pings go out at nine tenths of it
	pongWait time.Duration
}

// NewHandler builds the websocket endpoint. An empty or "*" origin list accepts any origin.
func NewHandler(commands Commands, hub *Hub, secret string, allowedOrigins []string, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	anyOrigin := len(allowedOrigins) == 0 || slices.Contains(allowedOrigins, "*")
	return &Handler{
		commands: commands,
		hub:      hub,
		secret:   secret,
		logger:   logger,
		pongWait: defaultPongWait,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return anyOrigin || origin == "" || slices.Contains(allowedOrigins, origin)
			},
		},
	}
}

// ServeWS authenticates the caller, upgrades and runs the read loop until the socket closes.
func (h *Handler) ServeWS(w http.ResponseWriter, r *http.Request) {
	userID, err := utils.UserIDFromRequest(r, h.secret)
	if err != nil {
		utils.JSONError(w, http.StatusUnauthorized, "unauthorized", "Authentication required")
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("Websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	client := NewClient(conn, userID)
	h.hub.Register(client)
	metrics.WSConnected()
	h.logger.Debug("Client connected", zap.String("conn_id", client.ID()), zap.String("user_id", userID))
	defer func() {
		h.commands.Disconnect(client)
		h.hub.Unregister(client)
		metrics.WSDisconnected()
		h.logger.Debug("Client disconnected", zap.String("conn_id", client.ID()))
	}()

	conn.SetReadLimit(maxFrameBytes)
	refreshDeadline := func() error {
		return conn.SetReadDeadline(time.Now().Add(h.pongWait))
	}
	_ = refreshDeadline()
	conn.SetPongHandler(func(string) error { return refreshDeadline() })

	done := make(chan struct{})
	defer close(done)
	go h.keepAlive(client, done)

	ctx := context.WithoutCancel(r.Context())
	for {
		var frame inboundFrame
		if err := conn.ReadJSON(&frame); err != nil {
			var syntaxErr *json.SyntaxError
			var typeErr *json.UnmarshalTypeError
			if errors.As(err, &syntaxErr) || errors.As(err, &typeErr) {
				client.Emit(models.EventError, models.ErrorPayload{Message: "Invalid message format"})
				continue
			}
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Debug("Websocket read failed", zap.String("conn_id", client.ID()), zap.Error(err))
			}
			return
		}
		h.Dispatch(ctx, client, frame.Event, frame.Data)
		// pongs are only handled while reading, so a long dispatch must not eat the deadline
		_ = refreshDeadline()
	}
}

func (h *Handler) keepAlive(c *Client, done <-chan struct{}) {
	ticker := time.NewTicker(h.pongWait * 9 / 10)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			if err := c.ping(); err != nil {
				return
			}
		}
	}
}

// Dispatch runs one client command to completion.
func (h *Handler) Dispatch(ctx context.Context, c interview.Conn, event string, data json.RawMessage) {
	var err error
	switch event {
	case models.CmdJoinInterview:
		var p models.SessionRef
		if err = decode(c, data, &p); err == nil {
			err = h.commands.Join(ctx, c, p.SessionID)
		}
	case models.CmdAudioStream:
		var p models.AudioChunkPayload
		if err = decode(c, data, &p); err == nil {
			err = h.commands.AudioChunk(ctx, c, p.SessionID, p.AudioChunk)
		}
	case models.CmdAudioComplete:
		var p models.SessionRef
		if err = decode(c, data, &p); err == nil {
			err = h.commands.AudioComplete(ctx, c, p.SessionID)
		}
	case models.CmdSubmitAnswer:
		var p models.SubmitAnswerPayload
		if err = decode(c, data, &p); err == nil {
			err = h.commands.SubmitAnswer(ctx, c, p.SessionID, p.Answer)
		}
	case models.CmdPauseInterview:
		var p models.SessionRef
		if err = decode(c, data, &p); err == nil {
			err = h.commands.Pause(ctx, c, p.SessionID)
		}
	case models.CmdResumeInterview:
		var p models.SessionRef
		if err = decode(c, data, &p); err == nil {
			err = h.commands.Resume(ctx, c, p.SessionID)
		}
	case models.CmdLeaveInterview:
		var p models.SessionRef
		if err = decode(c, data, &p); err == nil {
			err = h.commands.Leave(ctx, c, p.SessionID)
		}
	default:
		c.Emit(models.EventError, models.ErrorPayload{Message: "Unknown event: " + event})
		metrics.InterviewCommand("unknown", "rejected")
		return
	}

	metrics.InterviewCommand(event, outcome(err))
	if err != nil {
		h.logger.Debug("Command failed",
			zap.String("event", event),
			zap.String("conn_id", c.ID()),
			zap.Error(err))
	}
}

func decode(c interview.Conn, data json.RawMessage, v any) error {
	if len(data) == 0 {
		data = json.RawMessage("{}")
	}
	if err := json.Unmarshal(data, v); err != nil {
		c.Emit(models.EventError, models.ErrorPayload{Message: "Invalid payload"})
		return err
	}
	return nil
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, interview.ErrNotFound),
		errors.Is(err, interview.ErrInvalidState),
		errors.Is(err, interview.ErrValidation),
		errors.Is(err, interview.ErrInFlight):
		return "rejected"
	}
	return "error"
}
