package handlers

import (
	"log"
	"net/http"
	"os"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/egor/deskchatserver/metrics"
	"github.com/egor/deskchatserver/realtime"
)

// wsUpgrader апгрейдит HTTP→WebSocket с проверкой Origin
var wsUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     checkOrigin,
}

// checkOrigin проверяет, разрешен ли Origin для подключения
func checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		// Разрешаем локальные подключения без Origin
		host := r.Host
		return strings.HasPrefix(host, "localhost:") || strings.HasPrefix(host, "127.0.0.1:")
	}

	allowedOrigins := []string{}
	if frontendURL := os.Getenv("FRONTEND_URL"); frontendURL != "" {
		allowedOrigins = append(allowedOrigins, frontendURL)
	}
	if additional := os.Getenv("ADDITIONAL_ALLOWED_ORIGINS"); additional != "" {
		for _, url := range strings.Split(additional, ",") {
			url = strings.TrimSpace(url)
			if url != "" {
				allowedOrigins = append(allowedOrigins, url)
			}
		}
	}

	for _, allowed := range allowedOrigins {
		if allowed == origin {
			return true
		}
	}

	// Для разработки можно разрешить все origins
	if os.Getenv("ALLOW_ALL_ORIGINS") == "true" {
		log.Printf("ВНИМАНИЕ: Разрешен origin %s (ALLOW_ALL_ORIGINS=true)", origin)
		return true
	}

	log.Printf("Отклонен origin: %s", origin)
	return false
}

// ServeStaffWS открывает WebSocket-ленту событий для консоли сотрудника.
// Токен передается query-параметром: GET /api/staff/ws?token=...
func ServeStaffWS(c *gin.Context) {
	log.Printf("ServeStaffWS: новое соединение от %s, origin: %s",
		c.ClientIP(), c.Request.Header.Get("Origin"))

	if !staffTokenValid(c) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "неверный или устаревший токен"})
		return
	}

	conn, err := wsUpgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("ServeStaffWS: ошибка апгрейда: %v", err)
		return
	}

	// Первым кадром подтверждаем подключение
	if data, err := (realtime.Event{Name: realtime.EventConnected, Payload: gin.H{"role": "staff"}}).Encode(); err == nil {
		_ = conn.WriteMessage(websocket.TextMessage, data)
	}

	sub := Hub.SubscribeStaff()
	client := realtime.NewClient(conn, sub)

	metrics.OpenStreams.WithLabelValues("ws").Inc()
	defer metrics.OpenStreams.WithLabelValues("ws").Dec()

	go client.WritePump()
	client.ReadPump()
}
