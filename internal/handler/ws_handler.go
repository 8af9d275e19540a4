package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/testprepai/testprep-backend/internal/middleware"
	"github.com/testprepai/testprep-backend/internal/service"
	ws "github.com/testprepai/testprep-backend/internal/websocket"
)

// buildUpgrader creates a WebSocket upgrader with origin validation.
// An empty allowedOrigins slice permits all origins (development mode).
func buildUpgrader(allowedOrigins []string) websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			if len(allowedOrigins) == 0 {
				return true
			}
			origin := r.Header.Get("Origin")
			for _, allowed := range allowedOrigins {
				if strings.EqualFold(allowed, origin) {
					return true
				}
			}
			return false
		},
	}
}

// WSHandler streams a live attempt over a WebSocket: answers, marks,
// navigation and the final grading all flow through one connection.
type WSHandler struct {
	attemptService *service.AttemptService
	log            zerolog.Logger
	upgrader       websocket.Upgrader
}

// NewWSHandler creates a new WSHandler.
func NewWSHandler(attemptService *service.AttemptService, log zerolog.Logger, allowedOrigins []string) *WSHandler {
	return &WSHandler{
		attemptService: attemptService,
		log:            log.With().Str("component", "ws_handler").Logger(),
		upgrader:       buildUpgrader(allowedOrigins),
	}
}

// AttemptStream godoc
// WS /ws/v1/attempts/:attempt_id/stream
// Upgrades to WebSocket for live session actions and countdown expiry push.
func (h *WSHandler) AttemptStream(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	attemptID, err := uuid.Parse(c.Param("attempt_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid attempt ID"})
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	defer conn.Close()

	userID := claims.UserID

	// gorilla/websocket allows one concurrent writer; the expiry watcher and
	// the read loop share this lock.
	var writeMu sync.Mutex
	send := func(v interface{}) error {
		writeMu.Lock()
		defer writeMu.Unlock()
		return ws.WriteTyped(conn, v)
	}

	done, ok := h.attemptService.Expired(attemptID, userID)
	if !ok {
		ws.WriteError(conn, "no active attempt")
		return
	}

	wsLog := h.log.With().
		Int("user_id", userID).
		Str("attempt_id", attemptID.String()).
		Logger()
	wsLog.Info().Msg("Taker connected")

	// Push the graded result the moment the countdown expires, even if the
	// client is idle. stop prevents a leak when the client disconnects first.
	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-stop:
		case <-done:
			result, expired, err := h.attemptService.FinalResult(attemptID, userID)
			if err != nil || !expired {
				return // Manual submit already answered on the read loop.
			}
			_ = send(ws.GradedResponse{
				Event:  ws.EventExpired,
				Status: "completed",
				Score:  result.Score,
			})
		}
	}()

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				wsLog.Warn().Err(err).Msg("Unexpected close")
			} else {
				wsLog.Debug().Msg("Connection closed")
			}
			return
		}

		if finished := h.dispatch(send, wsLog, attemptID, userID, raw); finished {
			return
		}
	}
}

// dispatch decodes one client message and applies it to the live session.
// Returns true once the attempt has been graded and the stream should end.
func (h *WSHandler) dispatch(send func(interface{}) error, wsLog zerolog.Logger, attemptID uuid.UUID, userID int, raw []byte) bool {
	var env ws.RequestEnvelope
	if err := ws.DecodeJSON(raw, &env); err != nil {
		_ = send(ws.ErrorResponse{Event: ws.EventError, Error: "malformed message"})
		return false
	}

	ctx := context.Background()

	var err error
	switch env.Action {
	case ws.ActionAnswer:
		var msg ws.AnswerRequest
		if err = ws.DecodeJSON(raw, &msg); err == nil {
			err = h.attemptService.Answer(ctx, attemptID, userID, msg.QID, msg.Answer)
		}

	case ws.ActionClear:
		var msg ws.ClearRequest
		if err = ws.DecodeJSON(raw, &msg); err == nil {
			err = h.attemptService.ClearAnswer(ctx, attemptID, userID, msg.QID)
		}

	case ws.ActionMark:
		var msg ws.MarkRequest
		if err = ws.DecodeJSON(raw, &msg); err == nil {
			err = h.attemptService.ToggleMark(attemptID, userID, msg.QID)
		}

	case ws.ActionNext:
		var msg ws.NextRequest
		if err = ws.DecodeJSON(raw, &msg); err == nil {
			err = h.attemptService.Next(attemptID, userID, msg.Mark)
		}

	case ws.ActionPrev:
		err = h.attemptService.Previous(attemptID, userID)

	case ws.ActionGoTo:
		var msg ws.GoToRequest
		if err = ws.DecodeJSON(raw, &msg); err == nil {
			err = h.attemptService.GoTo(attemptID, userID, msg.Index)
		}

	case ws.ActionState:
		state, serr := h.attemptService.State(attemptID, userID)
		if serr != nil {
			err = serr
			break
		}
		statuses := make(map[string]string, len(state.Statuses))
		for qid, st := range state.Statuses {
			statuses[qid] = string(st)
		}
		_ = send(ws.StateResponse{
			Event:            ws.EventState,
			CurrentIndex:     state.CurrentIndex,
			RemainingSeconds: state.RemainingSeconds,
			Sections:         state.Sections,
			Statuses:         statuses,
			Counts:           state.Counts,
		})
		return false

	case ws.ActionSubmit:
		result, serr := h.attemptService.Submit(attemptID, userID)
		if serr != nil {
			err = serr
			break
		}
		wsLog.Info().Int("total_score", result.Score.TotalScore).Msg("Attempt submitted and graded")
		_ = send(ws.GradedResponse{
			Event:  ws.EventGraded,
			Status: "completed",
			Score:  result.Score,
		})
		return true

	case ws.ActionPing:
		_ = send(ws.PongResponse{Event: ws.EventPong})
		return false

	default:
		_ = send(ws.ErrorResponse{Event: ws.EventError, Error: "unknown action: " + string(env.Action)})
		return false
	}

	if err != nil {
		_ = send(ws.ErrorResponse{Event: ws.EventError, Error: wsErrorMessage(err)})
		return errors.Is(err, service.ErrAttemptFinalized)
	}

	_ = send(ws.AckResponse{Event: ws.EventSuccess, Status: "ok"})
	return false
}

func wsErrorMessage(err error) string {
	switch {
	case errors.Is(err, service.ErrAttemptNotActive):
		return "no active attempt"
	case errors.Is(err, service.ErrAttemptFinalized):
		return "attempt already submitted"
	case errors.Is(err, service.ErrQuestionOutOfRange):
		return "question index out of range"
	default:
		return "action failed"
	}
}
