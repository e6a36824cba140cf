package handlers

import (
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/egor/deskchatserver/database"
	"github.com/egor/deskchatserver/models"
	"github.com/egor/deskchatserver/realtime"
)

// PaginationResponse стандартная структура ответа с пагинацией
type PaginationResponse struct {
	Items      interface{} `json:"items"`
	Page       int         `json:"page"`
	PageSize   int         `json:"pageSize"`
	TotalItems int         `json:"totalItems"`
	TotalPages int         `json:"totalPages"`
}

// GetSessions возвращает список сессий для консоли сотрудника
func GetSessions(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("pageSize", strconv.Itoa(database.DefaultPageSize)))
	status := c.Query("status")

	// Приводим параметры к тем же границам, что и слой БД: totalPages
	// делит на pageSize, нулевое или мусорное значение уронило бы запрос
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > database.MaxPageSize {
		pageSize = database.DefaultPageSize
	}

	if status != "" && !models.ValidSessionStatus(status) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Неизвестный статус: " + status})
		return
	}

	sessions, totalItems, err := database.ListSessions(status, page, pageSize)
	if err != nil {
		log.Printf("GetSessions: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Ошибка получения сессий: " + err.Error()})
		return
	}

	totalPages := (totalItems + pageSize - 1) / pageSize
	if totalPages < 1 {
		totalPages = 1
	}

	c.JSON(http.StatusOK, PaginationResponse{
		Items:      sessions,
		Page:       page,
		PageSize:   pageSize,
		TotalItems: totalItems,
		TotalPages: totalPages,
	})
}

// GetStaffSession возвращает одну сессию для консоли
func GetStaffSession(c *gin.Context) {
	session, ok := sessionFromParam(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"session": session})
}

// SendStaffMessage отправляет сообщение от сотрудника
func SendStaffMessage(c *gin.Context) {
	id, ok := sessionIDFromParam(c)
	if !ok {
		return
	}
	sendMessage(c, id, models.SenderStaff)
}

// MarkStaffRead помечает сообщения посетителя прочитанными сотрудником
func MarkStaffRead(c *gin.Context) {
	id, ok := sessionIDFromParam(c)
	if !ok {
		return
	}
	markRead(c, id, models.SenderStaff)
}

// UpdateTopic меняет тему обращения
func UpdateTopic(c *gin.Context) {
	id, ok := sessionIDFromParam(c)
	if !ok {
		return
	}

	var req struct {
		Topic string `json:"topic" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Некорректные данные: " + err.Error()})
		return
	}

	if err := database.UpdateSessionTopic(id, req.Topic); err != nil {
		respondSessionUpdateError(c, "UpdateTopic", err)
		return
	}
	publishSessionUpdate(c, id)
}

// UpdateTaskStatus меняет этап обработки обращения
func UpdateTaskStatus(c *gin.Context) {
	id, ok := sessionIDFromParam(c)
	if !ok {
		return
	}

	var req struct {
		TaskStatus string `json:"taskStatus" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Некорректные данные: " + err.Error()})
		return
	}
	if !models.ValidTaskStatus(req.TaskStatus) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Неизвестный статус: " + req.TaskStatus})
		return
	}

	if err := database.UpdateTaskStatus(id, req.TaskStatus); err != nil {
		respondSessionUpdateError(c, "UpdateTaskStatus", err)
		return
	}
	publishSessionUpdate(c, id)
}

// CloseSession закрывает сессию
func CloseSession(c *gin.Context) {
	id, ok := sessionIDFromParam(c)
	if !ok {
		return
	}

	if err := database.UpdateSessionStatus(id, models.SessionClosed); err != nil {
		respondSessionUpdateError(c, "CloseSession", err)
		return
	}
	publishSessionUpdate(c, id)
}

// GetQueue возвращает очередь ожидающих сессий в порядке FIFO
func GetQueue(c *gin.Context) {
	queue, err := database.ListQueue()
	if err != nil {
		log.Printf("GetQueue: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Ошибка получения очереди: " + err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"queue": queue, "length": len(queue)})
}

// ─────────────────────────── helpers

func respondSessionUpdateError(c *gin.Context, op string, err error) {
	if err == database.ErrSessionNotFound {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	log.Printf("%s: %v", op, err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": "Ошибка обновления сессии: " + err.Error()})
}

// publishSessionUpdate рассылает session_update и отвечает обновленной сессией
func publishSessionUpdate(c *gin.Context, id uuid.UUID) {
	session, err := database.GetSession(id)
	if err != nil || session == nil {
		log.Printf("publishSessionUpdate: не удалось перечитать сессию %s: %v", id, err)
		c.JSON(http.StatusOK, gin.H{"success": true})
		return
	}
	if Hub != nil {
		Hub.Publish(realtime.NewSessionUpdateEvent(session))
	}
	c.JSON(http.StatusOK, gin.H{"session": session})
}
