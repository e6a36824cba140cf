package handlers

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/egor/deskchatserver/middleware"
)

// Login обрабатывает вход сотрудника по общему паролю
func Login(c *gin.Context) {
	var credentials struct {
		Password string `json:"password" binding:"required"`
	}

	if err := c.ShouldBindJSON(&credentials); err != nil {
		log.Printf("Ошибка парсинга данных для авторизации: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	log.Printf("Попытка авторизации сотрудника с IP %s", c.ClientIP())

	token, err := middleware.Authenticate(credentials.Password)
	if err != nil {
		log.Printf("Ошибка аутентификации с IP %s: %v", c.ClientIP(), err)
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}

	log.Printf("Успешная авторизация сотрудника с IP %s", c.ClientIP())
	c.JSON(http.StatusOK, gin.H{"token": token})
}

// Verify проверяет bearer токен (запрос идет через AuthMiddleware)
func Verify(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"valid": true,
		"role":  c.GetString("role"),
	})
}
