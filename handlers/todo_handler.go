package handlers

import (
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/egor/deskchatserver/database"
	"github.com/egor/deskchatserver/models"
)

// GetTodos возвращает все задачи
func GetTodos(c *gin.Context) {
	todos, err := database.ListTodos()
	if err != nil {
		log.Printf("GetTodos: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Ошибка получения задач: " + err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"todos": todos})
}

// GetTodoByID возвращает задачу по ID
func GetTodoByID(c *gin.Context) {
	id, ok := todoIDFromParam(c)
	if !ok {
		return
	}

	todo, err := database.GetTodo(id)
	if err != nil {
		log.Printf("GetTodoByID: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Ошибка получения задачи: " + err.Error()})
		return
	}
	if todo == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Задача не найдена"})
		return
	}
	c.JSON(http.StatusOK, todo)
}

// CreateTodo создает задачу; пустое название отклоняется
func CreateTodo(c *gin.Context) {
	var req struct {
		Title       string  `json:"title"`
		Description *string `json:"description"`
		Status      string  `json:"status"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Некорректные данные: " + err.Error()})
		return
	}
	if strings.TrimSpace(req.Title) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Название задачи обязательно"})
		return
	}
	if req.Status != "" && !models.ValidTodoStatus(req.Status) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Неизвестный статус: " + req.Status})
		return
	}

	todo, err := database.CreateTodo(req.Title, req.Description, req.Status)
	if err != nil {
		log.Printf("CreateTodo: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Ошибка создания задачи: " + err.Error()})
		return
	}
	c.JSON(http.StatusCreated, todo)
}

// UpdateTodo перезаписывает задачу
func UpdateTodo(c *gin.Context) {
	id, ok := todoIDFromParam(c)
	if !ok {
		return
	}

	var req struct {
		Title       string  `json:"title"`
		Description *string `json:"description"`
		Status      string  `json:"status"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Некорректные данные: " + err.Error()})
		return
	}
	if strings.TrimSpace(req.Title) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Название задачи обязательно"})
		return
	}
	if req.Status == "" {
		req.Status = models.TodoPending
	}
	if !models.ValidTodoStatus(req.Status) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Неизвестный статус: " + req.Status})
		return
	}

	todo, err := database.UpdateTodo(id, req.Title, req.Description, req.Status)
	if err != nil {
		if err == database.ErrTodoNotFound {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		log.Printf("UpdateTodo: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Ошибка обновления задачи: " + err.Error()})
		return
	}
	c.JSON(http.StatusOK, todo)
}

// DeleteTodo удаляет задачу
func DeleteTodo(c *gin.Context) {
	id, ok := todoIDFromParam(c)
	if !ok {
		return
	}

	if err := database.DeleteTodo(id); err != nil {
		if err == database.ErrTodoNotFound {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		log.Printf("DeleteTodo: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Ошибка удаления задачи: " + err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func todoIDFromParam(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Некорректный ID задачи"})
		return 0, false
	}
	return id, true
}
