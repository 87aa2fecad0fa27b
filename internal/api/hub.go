package api

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = pongWait * 9 / 10
	maxMessageSize = 4096
	sendBuffer     = 64
)

// 事件类型
const (
	EventSegmentUpdated = "segment_updated"
	EventProjectDeleted = "project_deleted"
)

// Event 推送给正在查看某个项目的客户端
type Event struct {
	Type      string `json:"type"`
	ProjectID int64  `json:"projectId"`
	Index     int    `json:"index"`
	Target    string `json:"target,omitempty"`
	Checked   bool   `json:"checked"`
}

type client struct {
	conn      *websocket.Conn
	projectID int64
	send      chan []byte
}

// Hub 按项目分组管理 WebSocket 连接
// 注册、注销和广播都经由 Run 循环串行处理
type Hub struct {
	mu    sync.RWMutex
	rooms map[int64]map[*client]struct{}

	register   chan *client
	unregister chan *client
	broadcast  chan Event
	done       chan struct{}

	upgrader websocket.Upgrader
	logger   *zap.Logger
}

// NewHub 创建连接管理器，需要调用 Run 启动
func NewHub(logger *zap.Logger) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		rooms:      make(map[int64]map[*client]struct{}),
		register:   make(chan *client, 16),
		unregister: make(chan *client, 16),
		broadcast:  make(chan Event, 256),
		done:       make(chan struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		logger: logger,
	}
}

// Run 运行主循环直到 ctx 结束，退出时关闭所有连接
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case c := <-h.register:
			h.mu.Lock()
			room := h.rooms[c.projectID]
			if room == nil {
				room = make(map[*client]struct{})
				h.rooms[c.projectID] = room
			}
			room[c] = struct{}{}
			h.mu.Unlock()
			h.logger.Debug("websocket client connected", zap.Int64("project_id", c.projectID))

		case c := <-h.unregister:
			h.remove(c)

		case e := <-h.broadcast:
			h.deliver(e)

		case <-ctx.Done():
			h.mu.Lock()
			for id, room := range h.rooms {
				for c := range room {
					close(c.send)
				}
				delete(h.rooms, id)
			}
			h.mu.Unlock()
			return
		}
	}
}

func (h *Hub) remove(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	room, ok := h.rooms[c.projectID]
	if !ok {
		return
	}
	if _, ok := room[c]; !ok {
		return
	}
	delete(room, c)
	close(c.send)
	if len(room) == 0 {
		delete(h.rooms, c.projectID)
	}
	h.logger.Debug("websocket client disconnected", zap.Int64("project_id", c.projectID))
}

func (h *Hub) deliver(e Event) {
	msg, err := json.Marshal(e)
	if err != nil {
		h.logger.Error("failed to encode event", zap.Error(err))
		return
	}

	h.mu.RLock()
	var slow []*client
	for c := range h.rooms[e.ProjectID] {
		select {
		case c.send <- msg:
		default:
			slow = append(slow, c)
		}
	}
	h.mu.RUnlock()

	// 队列满的客户端直接断开
	for _, c := range slow {
		h.logger.Warn("websocket client too slow, dropping", zap.Int64("project_id", e.ProjectID))
		h.remove(c)
	}
}

// Broadcast 把事件发给项目的所有客户端，Hub 停止后直接丢弃
func (h *Hub) Broadcast(e Event) {
	select {
	case h.broadcast <- e:
	case <-h.done:
	}
}

// Clients 返回项目当前的连接数
func (h *Hub) Clients(projectID int64) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[projectID])
}

// Serve 升级连接并加入项目房间
func (h *Hub) Serve(w http.ResponseWriter, r *http.Request, projectID int64) error {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return err
	}

	c := &client{conn: conn, projectID: projectID, send: make(chan []byte, sendBuffer)}
	select {
	case h.register <- c:
	case <-h.done:
		conn.Close()
		return nil
	}

	go h.writePump(c)
	go h.readPump(c)
	return nil
}

// readPump 只处理 pong 和关闭，客户端消息被忽略
func (h *Hub) readPump(c *client) {
	defer func() {
		select {
		case h.unregister <- c:
		case <-h.done:
		}
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Debug("websocket read failed", zap.Error(err))
			}
			return
		}
	}
}

func (h *Hub) writePump(c *client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
