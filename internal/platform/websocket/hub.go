// Package websocket pushes view invalidations to connected clients.
//
// Clients subscribe to view paths such as "/patients" or "/dashboard" and
// receive an "invalidate" event whenever a save makes that view stale. The
// hub also keeps a revision counter per path so clients without a socket can
// poll for changes.
package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	gorillawebsocket "github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

// AllViews subscribes a client to every view path.
const AllViews = "*"

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
	sendBuffer = 256
)

// Event is the message sent to subscribers of a stale view.
type Event struct {
	Type         string    `json:"type"`
	Topic        string    `json:"topic"`
	ResourceType string    `json:"resourceType"`
	ResourceID   string    `json:"resourceId,omitempty"`
	Revision     uint64    `json:"revision"`
	Timestamp    time.Time `json:"timestamp"`
}

// ClientMessage is an inbound subscribe/unsubscribe request.
type ClientMessage struct {
	Action string   `json:"action"`
	Topics []string `json:"topics"`
}

// Client is a single websocket connection.
type Client struct {
	ID     string
	Topics []string
	Send   chan []byte
}

func newClient(topics []string) *Client {
	return &Client{
		ID:     uuid.New().String(),
		Topics: topics,
		Send:   make(chan []byte, sendBuffer),
	}
}

// Hub tracks clients, their view subscriptions and the revision of every
// invalidated view.
type Hub struct {
	mu        sync.RWMutex
	clients   map[string]map[*Client]struct{} // topic -> set of clients
	all       map[*Client]struct{}
	revisions map[string]uint64
	maxViews  int
	log       zerolog.Logger
	now       func() time.Time
}

// MaxTrackedViews bounds the revision table. Paths are partly built from
// request input, so once the table is full new paths are still delivered
// but carry revision zero and are not remembered.
const MaxTrackedViews = 10000

func NewHub(log zerolog.Logger) *Hub {
	return &Hub{
		clients:   make(map[string]map[*Client]struct{}),
		all:       make(map[*Client]struct{}),
		revisions: make(map[string]uint64),
		maxViews:  MaxTrackedViews,
		log:       log,
		now:       time.Now,
	}
}

// Register adds a client and subscribes it to its initial topics.
func (h *Hub) Register(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.all[client] = struct{}{}
	h.subscribeLocked(client, client.Topics)
}

// Unregister removes a client from every topic and closes its Send channel.
func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.all[client]; !ok {
		return
	}
	h.unsubscribeLocked(client, client.Topics)
	delete(h.all, client)
	close(client.Send)
}

func (h *Hub) Subscribe(client *Client, topics []string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.subscribeLocked(client, topics)
	client.Topics = append(client.Topics, topics...)
}

func (h *Hub) Unsubscribe(client *Client, topics []string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.unsubscribeLocked(client, topics)

	removeSet := make(map[string]struct{}, len(topics))
	for _, t := range topics {
		removeSet[t] = struct{}{}
	}
	remaining := make([]string, 0, len(client.Topics))
	for _, t := range client.Topics {
		if _, rm := removeSet[t]; !rm {
			remaining = append(remaining, t)
		}
	}
	client.Topics = remaining
}

func (h *Hub) subscribeLocked(client *Client, topics []string) {
	for _, topic := range topics {
		if h.clients[topic] == nil {
			h.clients[topic] = make(map[*Client]struct{})
		}
		h.clients[topic][client] = struct{}{}
	}
}

func (h *Hub) unsubscribeLocked(client *Client, topics []string) {
	for _, topic := range topics {
		if subscribers, ok := h.clients[topic]; ok {
			delete(subscribers, client)
			if len(subscribers) == 0 {
				delete(h.clients, topic)
			}
		}
	}
}

// ProcessMessage dispatches a client message to Subscribe or Unsubscribe.
func (h *Hub) ProcessMessage(client *Client, msg ClientMessage) {
	switch msg.Action {
	case "subscribe":
		h.Subscribe(client, msg.Topics)
	case "unsubscribe":
		h.Unsubscribe(client, msg.Topics)
	}
}

// Invalidate bumps the revision of each path and notifies its subscribers
// and the wildcard subscribers. Slow clients whose buffer is full miss the
// event; they still see the new revision on their next poll.
func (h *Hub) Invalidate(_ context.Context, resourceType, resourceID string, paths ...string) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	now := h.now().UTC()
	for _, path := range paths {
		event := Event{
			Type:         "invalidate",
			Topic:        path,
			ResourceType: resourceType,
			ResourceID:   resourceID,
			Revision:     h.bumpLocked(path),
			Timestamp:    now,
		}
		data, err := json.Marshal(event)
		if err != nil {
			return err
		}
		h.deliverLocked(path, data)
	}
	h.log.Debug().
		Str("resource_type", resourceType).
		Str("resource_id", resourceID).
		Strs("paths", paths).
		Msg("views invalidated")
	return nil
}

func (h *Hub) bumpLocked(path string) uint64 {
	if _, tracked := h.revisions[path]; !tracked && len(h.revisions) >= h.maxViews {
		h.log.Warn().Str("topic", path).Int("tracked", len(h.revisions)).Msg("view revision table full, not tracking path")
		return 0
	}
	h.revisions[path]++
	return h.revisions[path]
}

// deliverLocked sends data once to every subscriber of topic and every
// wildcard subscriber, even when a client holds both subscriptions.
func (h *Hub) deliverLocked(topic string, data []byte) {
	recipients := make(map[*Client]struct{}, len(h.clients[topic])+len(h.clients[AllViews]))
	for client := range h.clients[topic] {
		recipients[client] = struct{}{}
	}
	for client := range h.clients[AllViews] {
		recipients[client] = struct{}{}
	}
	for client := range recipients {
		select {
		case client.Send <- data:
		default:
			h.log.Warn().Str("client_id", client.ID).Str("topic", topic).Msg("websocket client buffer full, dropping event")
		}
	}
}

// Revision returns the current revision of a view path; zero means the view
// was never invalidated or is not tracked.
func (h *Hub) Revision(path string) uint64 {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.revisions[path]
}

// Revisions returns a snapshot of every known view revision.
func (h *Hub) Revisions() map[string]uint64 {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make(map[string]uint64, len(h.revisions))
	for k, v := range h.revisions {
		out[k] = v
	}
	return out
}

func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.all)
}

func (h *Hub) TopicCount(topic string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[topic])
}

// ---------------------------------------------------------------------------
// Handler
// ---------------------------------------------------------------------------

// Handler serves the websocket endpoint and the revision polling endpoint.
type Handler struct {
	hub      *Hub
	upgrader gorillawebsocket.Upgrader
}

// NewHandler returns a handler accepting connections from allowedOrigins.
// A "*" entry allows any origin; requests without an Origin header are
// always accepted.
func NewHandler(hub *Hub, allowedOrigins []string) *Handler {
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		allowed[o] = true
	}
	return &Handler{
		hub: hub,
		upgrader: gorillawebsocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return origin == "" || allowed["*"] || allowed[origin]
			},
		},
	}
}

// RegisterRoutes mounts GET /ws on root and GET /views/revisions on api.
func (wh *Handler) RegisterRoutes(root *echo.Echo, api *echo.Group) {
	root.GET("/ws", wh.HandleConnect)
	api.GET("/views/revisions", wh.ListRevisions)
}

// HandleConnect upgrades the request and starts the client pumps. Initial
// subscriptions may be passed as repeated "topic" query parameters.
func (wh *Handler) HandleConnect(c echo.Context) error {
	ws, err := wh.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return err
	}

	topics := c.QueryParams()["topic"]
	if topics == nil {
		topics = []string{}
	}
	client := newClient(topics)
	wh.hub.Register(client)

	go wh.writePump(client, ws)
	go wh.readPump(client, ws)
	return nil
}

// ListRevisions returns every view revision, or one when ?path= is given.
func (wh *Handler) ListRevisions(c echo.Context) error {
	if path := c.QueryParam("path"); path != "" {
		return c.JSON(http.StatusOK, map[string]interface{}{
			"revisions": map[string]uint64{path: wh.hub.Revision(path)},
		})
	}
	revs := wh.hub.Revisions()
	paths := make([]string, 0, len(revs))
	for p := range revs {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return c.JSON(http.StatusOK, map[string]interface{}{
		"revisions": revs,
		"paths":     paths,
	})
}

func (wh *Handler) readPump(client *Client, ws *gorillawebsocket.Conn) {
	defer func() {
		wh.hub.Unregister(client)
		ws.Close()
	}()

	ws.SetReadDeadline(time.Now().Add(pongWait))
	ws.SetPongHandler(func(string) error {
		return ws.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, message, err := ws.ReadMessage()
		if err != nil {
			break
		}
		var msg ClientMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			continue
		}
		wh.hub.ProcessMessage(client, msg)
	}
}

func (wh *Handler) writePump(client *Client, ws *gorillawebsocket.Conn) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		ws.Close()
	}()

	for {
		select {
		case message, ok := <-client.Send:
			ws.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				ws.WriteMessage(gorillawebsocket.CloseMessage, []byte{})
				return
			}
			if err := ws.WriteMessage(gorillawebsocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := ws.WriteMessage(gorillawebsocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
