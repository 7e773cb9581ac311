package notifyserver

import (
	"log"
	"net/http"
	"net/url"
	"strings"

	"schedule-go/internal/config"
	"schedule-go/internal/middleware"
	ws "schedule-go/internal/websocket"
)

// WebSocketHandler 负责处理通知 WebSocket 连接请求。
type WebSocketHandler struct {
	hub            *ws.Hub
	authenticator  middleware.Authenticator
	wsCfg          config.WebSocketConfig
	allowedOrigins []string
}

// NewWebSocketHandler 创建一个新的 WebSocketHandler 实例。allowedOrigins
// usually comes from the API server CORS settings; "*" allows any origin.
func NewWebSocketHandler(hub *ws.Hub, authenticator middleware.Authenticator, wsCfg config.WebSocketConfig, allowedOrigins []string) *WebSocketHandler {
	return &WebSocketHandler{
		hub:            hub,
		authenticator:  authenticator,
		wsCfg:          wsCfg,
		allowedOrigins: allowedOrigins,
	}
}

// ServeWS authenticates the caller with ?token= (or an Authorization
// header) and upgrades the connection. Anonymous connections are refused.
func (h *WebSocketHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		if parts := strings.Fields(r.Header.Get("Authorization")); len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
			token = parts[1]
		}
	}
	if token == "" {
		http.Error(w, "缺少认证令牌", http.StatusUnauthorized)
		return
	}

	user, _, err := h.authenticator.Authenticate(r.Context(), token)
	if err != nil {
		log.Printf("WebSocket 连接尝试失败：令牌无效: %v", err)
		http.Error(w, "令牌无效", http.StatusUnauthorized)
		return
	}

	log.Printf("用户 %s (ID: %d) 连接通知 WebSocket", user.Email, user.ID)
	ws.ServeWsPerConnection(h.hub, user.ID, w, r, h.wsCfg, h.checkOrigin)
}

// checkOrigin accepts requests without an Origin header (non-browser
// clients) and origins listed in allowedOrigins.
func (h *WebSocketHandler) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	for _, allowed := range h.allowedOrigins {
		if allowed == "*" || strings.EqualFold(allowed, origin) {
			return true
		}
	}
	// same host as the request
	return strings.EqualFold(u.Host, r.Host)
}
