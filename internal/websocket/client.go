package websocket

import (
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"schedule-go/internal/config"
)

const sendBufferSize = 256

// Client 是单个 websocket 连接在 hub 中的登记项。
type Client struct {
	hub    *Hub
	conn   *websocket.Conn
	send   chan []byte
	UserID uint
}

type timings struct {
	writeWait  time.Duration
	pongWait   time.Duration
	pingPeriod time.Duration
	readLimit  int64
}

func timingsFrom(cfg config.WebSocketConfig) timings {
	t := timings{
		writeWait:  time.Duration(cfg.WriteWaitSeconds) * time.Second,
		pongWait:   time.Duration(cfg.PongWaitSeconds) * time.Second,
		pingPeriod: time.Duration(cfg.PingPeriodSeconds) * time.Second,
		readLimit:  int64(cfg.MaxMessageSizeBytes),
	}
	// ping 间隔必须小于 pong 等待时间
	if t.pingPeriod <= 0 || t.pingPeriod >= t.pongWait {
		t.pingPeriod = t.pongWait * 9 / 10
	}
	return t
}

// listen drains inbound frames so pong and close frames are handled.
// Notification clients never send payloads.
func (c *Client) listen(t timings) {
	defer func() {
		c.hub.leave(c)
		_ = c.conn.Close()
	}()
	extend := func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(t.pongWait))
	}
	c.conn.SetReadLimit(t.readLimit)
	_ = extend("")
	c.conn.SetPongHandler(extend)

	for {
		_, _, err := c.conn.ReadMessage()
		if err == nil {
			continue
		}
		if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
			log.Printf("WebSocket 连接异常关闭 (用户 %d): %v", c.UserID, err)
		}
		return
	}
}

// deliver writes each queued notification as its own text frame.
func (c *Client) deliver(t timings) {
	ticker := time.NewTicker(t.pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	write := func(kind int, payload []byte) error {
		_ = c.conn.SetWriteDeadline(time.Now().Add(t.writeWait))
		return c.conn.WriteMessage(kind, payload)
	}

	for {
		select {
		case payload, open := <-c.send:
			if !open {
				// hub 已注销该客户端
				_ = write(websocket.CloseMessage, []byte{})
				return
			}
			if err := write(websocket.TextMessage, payload); err != nil {
				log.Printf("WebSocket 推送失败 (用户 %d): %v", c.UserID, err)
				return
			}
		case <-ticker.C:
			if err := write(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// ServeWsPerConnection upgrades the request and registers a client for userID.
func ServeWsPerConnection(hub *Hub, userID uint, w http.ResponseWriter, r *http.Request, wsCfg config.WebSocketConfig, checkOrigin func(r *http.Request) bool) {
	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     checkOrigin,
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket 升级失败 (用户 %d): %v", userID, err)
		return
	}

	client := &Client{hub: hub, conn: conn, send: make(chan []byte, sendBufferSize), UserID: userID}
	select {
	case hub.register <- client:
	case <-hub.stopped:
		_ = conn.Close()
		return
	}

	t := timingsFrom(wsCfg)
	go client.deliver(t)
	go client.listen(t)

	log.Printf("通知客户端已连接: 用户 %d", userID)
}
