package handler

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/hirewell/codeassess/internal/middleware"
	"github.com/hirewell/codeassess/internal/model"
	"github.com/hirewell/codeassess/internal/service"
	ws "github.com/hirewell/codeassess/internal/websocket"
	"github.com/rs/zerolog"
)

// buildUpgrader creates a WebSocket upgrader with origin validation.
// allowedOrigins comes from config.Config.AllowedOrigins.
// An empty slice permits all origins (development mode).
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

// completedCheckEvery is how many ticks pass between full status lookups.
// Ticks come from the Redis-cached start time; the periodic lookup catches
// an attempt finalized from another tab.
const completedCheckEvery = 10

// WSHandler streams the server-side countdown to connected candidates.
type WSHandler struct {
	examService *service.ExamService
	log         zerolog.Logger
	upgrader    websocket.Upgrader
}

// NewWSHandler creates a new WSHandler.
func NewWSHandler(examService *service.ExamService, log zerolog.Logger, allowedOrigins []string) *WSHandler {
	return &WSHandler{
		examService: examService,
		log:         log.With().Str("component", "ws_handler").Logger(),
		upgrader:    buildUpgrader(allowedOrigins),
	}
}

// CountdownStream godoc
// WS /ws/v1/exam/stream?token=<jwt>
// Pushes a tick event with the authoritative remaining time once per second.
// When the window ends the stream sends a single expired event and closes;
// if the attempt was finalized elsewhere it sends completed instead. The
// HTTP status endpoint stays the source of truth on reconnect.
func (h *WSHandler) CountdownStream(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	candidateID := claims.UserID

	status, err := h.examService.Status(c.Request.Context(), candidateID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "status unavailable"})
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	defer conn.Close()

	wsLog := h.log.With().
		Int("candidate_id", candidateID).
		Logger()

	wsLog.Info().Msg("Candidate connected")

	switch status.Status {
	case model.StatusNotStarted:
		ws.WriteError(conn, "exam has not been started")
		return
	case model.StatusCompleted:
		ws.WriteTyped(conn, ws.CompletedResponse{Event: ws.EventCompleted})
		return
	case model.StatusExpired:
		ws.WriteTyped(conn, ws.ExpiredResponse{Event: ws.EventExpired})
		return
	}

	// Reader goroutine: answers pings and detects the client going away.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			var msg ws.RequestEnvelope
			if err := ws.ReadJSON(conn, &msg); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					wsLog.Warn().Err(err).Msg("Unexpected close")
				} else {
					wsLog.Debug().Msg("Connection closed")
				}
				return
			}
			if msg.Action == ws.ActionPing {
				ws.WriteTyped(conn, ws.PongResponse{Event: ws.EventPong})
			}
		}
	}()

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	ticks := 0
	for {
		select {
		case <-done:
			return
		case <-c.Request.Context().Done():
			return
		case <-ticker.C:
			ticks++

			if ticks%completedCheckEvery == 0 {
				status, serr := h.examService.Status(c.Request.Context(), candidateID)
				if serr == nil && status.Status == model.StatusCompleted {
					ws.WriteTyped(conn, ws.CompletedResponse{Event: ws.EventCompleted})
					return
				}
			}

			remaining, err := h.examService.CachedRemaining(c.Request.Context(), candidateID)
			if err != nil {
				if errors.Is(err, service.ErrNoAttempt) {
					ws.WriteError(conn, "exam has not been started")
				} else {
					wsLog.Error().Err(err).Msg("Remaining lookup failed")
					ws.WriteError(conn, "countdown unavailable")
				}
				return
			}

			if remaining <= 0 {
				ws.WriteTyped(conn, ws.ExpiredResponse{Event: ws.EventExpired})
				wsLog.Info().Msg("Countdown expired, stream closing")
				return
			}

			if err := ws.WriteTyped(conn, ws.TickResponse{
				Event:            ws.EventTick,
				RemainingSeconds: remaining,
			}); err != nil {
				return
			}
		}
	}
}
