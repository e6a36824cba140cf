package handlers

import (
	"context"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/egor/deskchatserver/database"
	"github.com/egor/deskchatserver/metrics"
	"github.com/egor/deskchatserver/models"
	"github.com/egor/deskchatserver/realtime"
)

// CreateSession создает сессию чата или возвращает существующую.
// Виджет может передать свой sessionId, чтобы продолжить разговор.
func CreateSession(c *gin.Context) {
	var req struct {
		SessionID   string `json:"sessionId"`
		VisitorName string `json:"visitorName"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Некорректные данные: " + err.Error()})
		return
	}

	id := uuid.Nil
	if req.SessionID != "" {
		parsed, err := uuid.Parse(req.SessionID)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Некорректный sessionId"})
			return
		}
		id = parsed
	}

	if req.VisitorName == "" {
		req.VisitorName = "Гость"
	}

	session, created, err := database.GetOrCreateSession(id, req.VisitorName)
	if err != nil {
		log.Printf("CreateSession: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Ошибка создания сессии: " + err.Error()})
		return
	}

	// Сразу отдаем место в очереди, чтобы виджет показал ожидание
	if queue, err := database.QueuePosition(session.ID); err == nil && queue.Waiting {
		session.QueuePosition = &queue.Position
		session.QueueWaitSeconds = &queue.WaitSeconds
	}

	if created {
		log.Printf("CreateSession: создана сессия %s для посетителя %q", session.ID, session.VisitorName)
	}
	c.JSON(http.StatusOK, gin.H{"session": session, "created": created})
}

// GetChatSession возвращает сессию для виджета
func GetChatSession(c *gin.Context) {
	session, ok := sessionFromParam(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"session": session})
}

// GetChatMessages возвращает сообщения сессии.
// ?before= — курсорная пагинация назад, ?after= — polling-фолбэк вперед.
func GetChatMessages(c *gin.Context) {
	id, ok := sessionIDFromParam(c)
	if !ok {
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(database.DefaultPageSize)))

	if afterRaw := c.Query("after"); afterRaw != "" {
		after, err := strconv.ParseInt(afterRaw, 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Некорректный параметр after"})
			return
		}
		msgs, err := database.ListMessagesAfter(id, after, limit)
		if err != nil {
			log.Printf("GetChatMessages (after=%d): %v", after, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Ошибка получения сообщений: " + err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"messages": msgs})
		return
	}

	before, _ := strconv.ParseInt(c.DefaultQuery("before", "0"), 10, 64)
	page, err := database.ListMessages(id, before, limit)
	if err != nil {
		log.Printf("GetChatMessages: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Ошибка получения сообщений: " + err.Error()})
		return
	}
	c.JSON(http.StatusOK, page)
}

// SendChatMessage отправляет сообщение от посетителя
func SendChatMessage(c *gin.Context) {
	id, ok := sessionIDFromParam(c)
	if !ok {
		return
	}
	sendMessage(c, id, models.SenderVisitor)
}

// MarkChatRead помечает сообщения сотрудников прочитанными посетителем
func MarkChatRead(c *gin.Context) {
	id, ok := sessionIDFromParam(c)
	if !ok {
		return
	}
	markRead(c, id, models.SenderVisitor)
}

// GetQueuePosition возвращает место посетителя в очереди
func GetQueuePosition(c *gin.Context) {
	id, ok := sessionIDFromParam(c)
	if !ok {
		return
	}

	queue, err := database.QueuePosition(id)
	if err != nil {
		log.Printf("GetQueuePosition: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Ошибка расчета очереди: " + err.Error()})
		return
	}
	c.JSON(http.StatusOK, queue)
}

// ─────────────────────────── общее для виджета и консоли

// sendMessage записывает сообщение, рассылает событие и (для посетителя)
// дергает push-канал.
func sendMessage(c *gin.Context, sessionID uuid.UUID, sender string) {
	var req struct {
		Content   string  `json:"content" binding:"required"`
		Type      string  `json:"type"`
		Thumbnail *string `json:"thumbnail"`
		FileName  *string `json:"fileName"`
		FileSize  *int64  `json:"fileSize"`
		MimeType  *string `json:"mimeType"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Некорректные данные: " + err.Error()})
		return
	}
	if req.Type != "" && !models.ValidMessageType(req.Type) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Неизвестный тип сообщения: " + req.Type})
		return
	}

	message, err := database.AddMessage(sessionID, models.MessageInput{
		Sender:    sender,
		Type:      req.Type,
		Content:   req.Content,
		Thumbnail: req.Thumbnail,
		FileName:  req.FileName,
		FileSize:  req.FileSize,
		MimeType:  req.MimeType,
	})
	if err != nil {
		if err == database.ErrSessionNotFound {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		log.Printf("sendMessage: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Ошибка отправки сообщения: " + err.Error()})
		return
	}
	metrics.MessagesTotal.WithLabelValues(sender).Inc()

	// Рассылаем событие подписчикам; сессию берем уже с обновленными счетчиками
	session, err := database.GetSession(sessionID)
	if err != nil {
		log.Printf("sendMessage: не удалось получить обновленную сессию: %v", err)
	} else if session != nil && Hub != nil {
		Hub.Publish(realtime.NewMessageEvent(session, message))
	}

	// Побочный push-канал о сообщениях посетителей
	if sender == models.SenderVisitor && Notifier != nil && Notifier.Enabled() && session != nil {
		go func(s models.Session, m models.Message) {
			ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
			defer cancel()
			if err := Notifier.NotifyVisitorMessage(ctx, &s, &m); err != nil {
				metrics.PushFailures.Inc()
				log.Printf("push: не удалось отправить уведомление: %v", err)
			}
		}(*session, *message)
	}

	c.JSON(http.StatusOK, message)
}

// markRead обнуляет счетчик читателя и флаги сообщений противоположной стороны
func markRead(c *gin.Context, sessionID uuid.UUID, reader string) {
	if err := database.MarkSessionRead(sessionID, reader); err != nil {
		if err == database.ErrSessionNotFound {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		log.Printf("markRead: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Ошибка отметки прочтения: " + err.Error()})
		return
	}

	session, err := database.GetSession(sessionID)
	if err == nil && session != nil && Hub != nil {
		Hub.Publish(realtime.NewSessionUpdateEvent(session))
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "session": session})
}

// sessionIDFromParam парсит :id из пути
func sessionIDFromParam(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Некорректный ID сессии"})
		return uuid.Nil, false
	}
	return id, true
}

// sessionFromParam парсит :id и загружает сессию (404, если её нет)
func sessionFromParam(c *gin.Context) (*models.Session, bool) {
	id, ok := sessionIDFromParam(c)
	if !ok {
		return nil, false
	}
	session, err := database.GetSession(id)
	if err != nil {
		log.Printf("sessionFromParam: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Ошибка получения сессии: " + err.Error()})
		return nil, false
	}
	if session == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Сессия не найдена"})
		return nil, false
	}
	return session, true
}
