package websocket

import (
	"context"
	"encoding/json"
	"log"
	"time"
)

// Message is the envelope written to notification clients.
type Message struct {
	Type      string          `json:"type"`
	Payload   json.RawMessage `json:"payload"`
	Timestamp time.Time       `json:"timestamp"`
}

type delivery struct {
	userID  uint
	payload []byte
}

// Hub maintains the set of active clients and pushes notifications to them.
// One connection per user; a new connection replaces the old one.
type Hub struct {
	clients map[uint]*Client

	register   chan *Client
	unregister chan *Client
	direct     chan delivery
	count      chan chan int
	stopped    chan struct{}
}

// NewHub creates a new Hub.
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[uint]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		direct:     make(chan delivery, 256),
		count:      make(chan chan int),
		stopped:    make(chan struct{}),
	}
}

// Notify queues payload for userID. It never blocks; when the queue is full
// the notification is dropped and false is returned.
func (h *Hub) Notify(userID uint, payload []byte) bool {
	select {
	case h.direct <- delivery{userID: userID, payload: payload}:
		return true
	default:
		log.Printf("警告: Hub direct channel is full. Dropping notification for user %d", userID)
		return false
	}
}

func (h *Hub) leave(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.stopped:
	}
}

// ConnectedClients returns the number of registered clients.
func (h *Hub) ConnectedClients(ctx context.Context) int {
	reply := make(chan int, 1)
	select {
	case h.count <- reply:
		return <-reply
	case <-ctx.Done():
		return 0
	}
}

// Run processes registrations and deliveries until ctx is done, then closes
// every client.
func (h *Hub) Run(ctx context.Context) {
	log.Println("WebSocket Hub Run loop started.")
	for {
		select {
		case <-ctx.Done():
			close(h.stopped)
			for userID, client := range h.clients {
				close(client.send)
				delete(h.clients, userID)
			}
			log.Println("WebSocket Hub Run loop stopped.")
			return

		case client := <-h.register:
			if existing, ok := h.clients[client.UserID]; ok {
				log.Printf("警告: 用户 %d 已有连接，关闭旧连接并注册新连接。", client.UserID)
				close(existing.send)
			}
			h.clients[client.UserID] = client
			log.Printf("客户端已注册: UserID %d", client.UserID)

		case client := <-h.unregister:
			// 只移除当前登记的连接，已被替换的旧连接其 send 已关闭
			if stored, ok := h.clients[client.UserID]; ok && stored == client {
				delete(h.clients, client.UserID)
				close(client.send)
				log.Printf("客户端已注销: UserID %d", client.UserID)
			}

		case d := <-h.direct:
			client, ok := h.clients[d.userID]
			if !ok {
				continue
			}
			select {
			case client.send <- d.payload:
			default:
				log.Printf("警告: UserID %d 的发送通道已满，移除客户端。", d.userID)
				close(client.send)
				delete(h.clients, d.userID)
			}

		case reply := <-h.count:
			reply <- len(h.clients)
		}
	}
}
