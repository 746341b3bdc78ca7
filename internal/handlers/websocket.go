package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"torch-indexer/internal/models"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// FeedHandler pushes every projected entity to connected websocket clients.
// It implements projection.Broadcaster so the projector can stay unaware of
// the transport.
type FeedHandler struct {
	hub *feedHub
	log *zap.Logger
}

type feedHub struct {
	clients    map[string]*websocket.Conn
	register   chan *feedClient
	unregister chan *feedClient
	broadcast  chan *FeedMessage
	log        *zap.Logger
}

type feedClient struct {
	ID   string
	Conn *websocket.Conn
}

type FeedMessage struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

func NewFeedHandler(logger *zap.Logger) *FeedHandler {
	hub := &feedHub{
		clients:    make(map[string]*websocket.Conn),
		register:   make(chan *feedClient),
		unregister: make(chan *feedClient),
		broadcast:  make(chan *FeedMessage, 100),
		log:        logger,
	}

	go hub.run()

	return &FeedHandler{hub: hub, log: logger}
}

func (h *FeedHandler) HandleWebSocket(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Error("failed to upgrade to websocket", zap.Error(err))
		return
	}

	client := &feedClient{
		ID:   uuid.New().String(),
		Conn: conn,
	}

	h.hub.register <- client

	defer func() {
		h.hub.unregister <- client
		conn.Close()
	}()

	for {
		var msg FeedMessage
		err := conn.ReadJSON(&msg)
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				h.log.Warn("websocket read error", zap.String("client_id", client.ID), zap.Error(err))
			}
			break
		}

		if msg.Type == "PING" {
			conn.WriteJSON(FeedMessage{
				Type: "PONG",
				Data: gin.H{"timestamp": time.Now().Unix()},
			})
		}
	}
}

func (hub *feedHub) run() {
	for {
		select {
		case client := <-hub.register:
			hub.clients[client.ID] = client.Conn
			hub.log.Info("feed client connected", zap.String("client_id", client.ID))

		case client := <-hub.unregister:
			if _, ok := hub.clients[client.ID]; ok {
				delete(hub.clients, client.ID)
				hub.log.Info("feed client disconnected", zap.String("client_id", client.ID))
			}

		case message := <-hub.broadcast:
			for _, conn := range hub.clients {
				conn.WriteJSON(message)
			}
		}
	}
}

func (h *FeedHandler) send(msgType string, data interface{}) {
	select {
	case h.hub.broadcast <- &FeedMessage{Type: msgType, Data: data}:
	default:
		// feed is best-effort, never block the projector
		h.log.Warn("feed backlog full, dropping message", zap.String("type", msgType))
	}
}

func (h *FeedHandler) BroadcastBetPlaced(bet *models.Bet) {
	h.send("BET_PLACED", bet)
}

func (h *FeedHandler) BroadcastBetFinalized(bet *models.Bet) {
	h.send("BET_FINALIZED", bet)
}

func (h *FeedHandler) BroadcastBetClaimed(bet *models.Bet) {
	h.send("BET_CLAIMED", bet)
}

func (h *FeedHandler) BroadcastFeeCollected(fee *models.Fee) {
	h.send("FEE_COLLECTED", fee)
}
