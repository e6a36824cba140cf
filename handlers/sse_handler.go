package handlers

import (
	"log"
	"net/http"
	"time"

	"github.com/gin-contrib/sse"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/egor/deskchatserver/database"
	"github.com/egor/deskchatserver/metrics"
	"github.com/egor/deskchatserver/middleware"
	"github.com/egor/deskchatserver/models"
	"github.com/egor/deskchatserver/realtime"
)

const (
	// Интервал keep-alive события
	heartbeatPeriod = 30 * time.Second

	// Дедлайн записи одного события (best-effort, если транспорт его
	// поддерживает); зависший клиент отключается по ошибке записи
	sseWriteTimeout = 5 * time.Second
)

// ChatSSE — поток событий одной сессии для виджета.
// GET /api/chat/sse/:sessionId
func ChatSSE(c *gin.Context) {
	id, err := parseSessionID(c.Param("sessionId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Некорректный ID сессии"})
		return
	}

	session, err := sessionOr404(c, id)
	if err != nil {
		return
	}

	sub := Hub.Subscribe(id)
	defer sub.Close()

	log.Printf("ChatSSE: открыт поток сессии %s", id)
	streamEvents(c, sub, gin.H{"sessionId": id, "session": session})
}

// StaffSSE — поток событий всех сессий для консоли сотрудника.
// EventSource не умеет ставить заголовки, поэтому токен принимается
// и в query-параметре.
// GET /api/staff/sse?token=...
func StaffSSE(c *gin.Context) {
	if !staffTokenValid(c) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "неверный или устаревший токен"})
		return
	}

	sub := Hub.SubscribeStaff()
	defer sub.Close()

	log.Printf("StaffSSE: открыт поток консоли сотрудника")
	streamEvents(c, sub, gin.H{"role": "staff"})
}

// streamEvents пишет события подписчика в ответ до закрытия соединения.
// Каждое событие уходит с дедлайном записи; ошибка записи завершает поток.
func streamEvents(c *gin.Context, sub *realtime.Subscriber, connectedPayload interface{}) {
	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")
	c.Writer.Header().Set("X-Accel-Buffering", "no")

	metrics.OpenStreams.WithLabelValues("sse").Inc()
	defer metrics.OpenStreams.WithLabelValues("sse").Dec()

	rc := http.NewResponseController(c.Writer)

	writeEvent := func(name string, payload interface{}) error {
		_ = rc.SetWriteDeadline(time.Now().Add(sseWriteTimeout))
		if err := sse.Encode(c.Writer, sse.Event{Event: name, Data: payload}); err != nil {
			return err
		}
		c.Writer.Flush()
		return nil
	}

	if err := writeEvent(realtime.EventConnected, connectedPayload); err != nil {
		return
	}

	heartbeat := time.NewTicker(heartbeatPeriod)
	defer heartbeat.Stop()

	for {
		select {
		case <-c.Request.Context().Done():
			return

		case ev, ok := <-sub.Events():
			if !ok {
				// хаб выбросил подписчика
				return
			}
			if err := writeEvent(ev.Name, ev.Payload); err != nil {
				log.Printf("streamEvents: ошибка записи, закрываем поток: %v", err)
				return
			}

		case <-heartbeat.C:
			if err := writeEvent(realtime.EventHeartbeat, realtime.NewHeartbeatEvent().Payload); err != nil {
				return
			}
		}
	}
}

// parseSessionID парсит UUID сессии из параметра пути
func parseSessionID(raw string) (uuid.UUID, error) {
	return uuid.Parse(raw)
}

// sessionOr404 загружает сессию или отвечает 404
func sessionOr404(c *gin.Context, id uuid.UUID) (*models.Session, error) {
	session, err := database.GetSession(id)
	if err != nil {
		log.Printf("sessionOr404: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Ошибка получения сессии: " + err.Error()})
		return nil, err
	}
	if session == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Сессия не найдена"})
		return nil, database.ErrSessionNotFound
	}
	return session, nil
}

// staffTokenValid проверяет токен из query или заголовка Authorization
func staffTokenValid(c *gin.Context) bool {
	token := c.Query("token")
	if token == "" {
		auth := c.GetHeader("Authorization")
		if len(auth) > 7 && auth[:7] == "Bearer " {
			token = auth[7:]
		}
	}
	if token == "" {
		return false
	}
	_, err := middleware.ValidateToken(token)
	return err == nil
}
