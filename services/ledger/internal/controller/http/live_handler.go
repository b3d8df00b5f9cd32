package http

import (
	"net/http"
	"strings"
	"time"

	"tiktip/pkg/jwt"
	"tiktip/pkg/logger"
	"tiktip/services/ledger/internal/notifier"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
)

const wsPingInterval = 30 * time.Second

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// LiveHandler streams a creator's ledger events over a websocket. It is a
// convenience for dashboards; polling the earnings endpoint stays correct.
type LiveHandler struct {
	redisClient *redis.Client
	jwtService  *jwt.Service
	logger      *logger.Logger
}

func NewLiveHandler(redisClient *redis.Client, jwtService *jwt.Service, logger *logger.Logger) *LiveHandler {
	return &LiveHandler{
		redisClient: redisClient,
		jwtService:  jwtService,
		logger:      logger,
	}
}

// HandleWebSocket godoc
// @Summary      Live ledger updates
// @Description  Websocket of ledger events for the authenticated creator. Browsers pass the token as ?token=.
// @Tags         creator
// @Param        token query string false "JWT when the Authorization header cannot be set"
// @Success      101
// @Failure      401  {object}  ErrorResponse
// @Router       /me/ws [get]
func (h *LiveHandler) HandleWebSocket(c *gin.Context) {
	token := strings.TrimSpace(strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer "))
	if token == "" {
		token = c.Query("token")
	}
	if token == "" {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Token required"})
		return
	}

	claims, err := h.jwtService.ValidateToken(token)
	if err != nil {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Invalid or expired token"})
		return
	}
	if claims.Role != jwt.RoleCreator {
		c.JSON(http.StatusForbidden, ErrorResponse{Error: "Forbidden"})
		return
	}
	if h.redisClient == nil {
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: "Live updates unavailable"})
		return
	}
	creatorID := claims.UserID
	log := h.logger.With("creator_id", creatorID)

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error("Failed to upgrade connection to WebSocket: %v", err)
		return
	}
	defer conn.Close()

	log.Info("[LIVE] WebSocket connected")

	ctx := c.Request.Context()
	pubsub := h.redisClient.Subscribe(ctx, notifier.ChannelFor(creatorID))
	defer pubsub.Close()

	redisChannel := pubsub.Channel()
	done := make(chan struct{})

	// single writer: gorilla connections allow one concurrent writer
	go func() {
		ticker := time.NewTicker(wsPingInterval)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(5*time.Second)); err != nil {
					return
				}
			case msg, ok := <-redisChannel:
				if !ok {
					return
				}
				if err := conn.WriteMessage(websocket.TextMessage, []byte(msg.Payload)); err != nil {
					log.Error("Failed to write WebSocket message: %v", err)
					return
				}
			}
		}
	}()

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Warn("WebSocket read error: %v", err)
			}
			break
		}
	}

	close(done)
	log.Info("[LIVE] WebSocket disconnected")
}
