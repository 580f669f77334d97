package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/pagehub/pagehub-backend/internal/config"
	"github.com/pagehub/pagehub-backend/internal/middleware"
	"github.com/pagehub/pagehub-backend/internal/response"
	ws "github.com/pagehub/pagehub-backend/internal/websocket"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const (
	pingInterval  = 30 * time.Second
	streamTimeout = 30 * time.Minute
)

// buildUpgrader creates a WebSocket upgrader with origin validation.
// allowedOrigins comes from config.Config.AllowedOrigins.
// An empty slice permits all origins (development mode).
func buildUpgrader(allowedOrigins []string) websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 4096,
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

// WSHandler streams multi-page publish progress to admins.
type WSHandler struct {
	rdb      *redis.Client
	log      zerolog.Logger
	upgrader websocket.Upgrader
}

// NewWSHandler creates a new WSHandler.
func NewWSHandler(rdb *redis.Client, log zerolog.Logger, allowedOrigins []string) *WSHandler {
	return &WSHandler{
		rdb:      rdb,
		log:      log.With().Str("component", "ws_handler").Logger(),
		upgrader: buildUpgrader(allowedOrigins),
	}
}

// PublishProgressStream godoc
// WS /ws/v1/publish/:dispatch_id/progress?token=...
// Relays the progress events of one dispatch until its done event. The
// client opens the stream before submitting the publish with the same
// dispatchId; events sent before the subscription are not replayed.
func (h *WSHandler) PublishProgressStream(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	dispatchID, err := uuid.Parse(c.Param("dispatch_id"))
	if err != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation,
			map[string]string{"dispatch_id": "dispatch_id must be a valid UUID"})
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	defer conn.Close()

	wsLog := h.log.With().
		Int("admin_id", claims.AdminID).
		Str("dispatch_id", dispatchID.String()).
		Logger()

	ctx, cancel := context.WithTimeout(context.Background(), streamTimeout)
	defer cancel()

	pubsub := h.rdb.Subscribe(ctx, config.CacheKey.PublishProgressChannel(dispatchID.String()))
	defer pubsub.Close()

	// Wait for the subscription to be confirmed before telling the client
	// it may start the dispatch.
	if _, err := pubsub.Receive(ctx); err != nil {
		wsLog.Error().Err(err).Msg("Progress subscription failed")
		ws.WriteError(conn, "progress stream unavailable")
		return
	}
	wsLog.Info().Msg("Progress stream opened")

	pings := h.readClient(conn, cancel, wsLog)
	events := pubsub.Channel()

	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case <-pings:
			if err := ws.WriteTyped(conn, ws.PongResponse{Event: ws.EventPong}); err != nil {
				return
			}

		case <-ticker.C:
			deadline := time.Now().Add(10 * time.Second)
			if err := conn.WriteControl(websocket.PingMessage, nil, deadline); err != nil {
				return
			}

		case msg, ok := <-events:
			if !ok {
				return
			}
			if err := ws.WriteRaw(conn, []byte(msg.Payload)); err != nil {
				wsLog.Debug().Err(err).Msg("Progress write failed")
				return
			}
			if isDone(msg.Payload) {
				_ = conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, "dispatch finished"),
					time.Now().Add(time.Second))
				wsLog.Info().Msg("Progress stream finished")
				return
			}
		}
	}
}

// readClient consumes client frames. Pings are forwarded to the writer loop;
// any read error ends the stream.
func (h *WSHandler) readClient(conn *websocket.Conn, cancel context.CancelFunc, wsLog zerolog.Logger) <-chan struct{} {
	pings := make(chan struct{}, 1)
	go func() {
		defer cancel()
		for {
			var msg ws.RequestEnvelope
			if err := ws.ReadJSON(conn, &msg); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					wsLog.Warn().Err(err).Msg("Unexpected close")
				}
				return
			}
			if msg.Action == ws.ActionPing {
				select {
				case pings <- struct{}{}:
				default:
				}
			}
		}
	}()
	return pings
}

func isDone(payload string) bool {
	var envelope struct {
		Event ws.Event `json:"event"`
	}
	return json.Unmarshal([]byte(payload), &envelope) == nil && envelope.Event == ws.EventDone
}
