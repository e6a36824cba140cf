package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

// Пустое или пробельное название отклоняется до обращения к БД.
func TestCreateTodoEmptyTitleRejected(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/todos", CreateTodo)

	for _, body := range []string{`{"title":""}`, `{"title":"   "}`, `{}`} {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/todos", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code, "body=%s", body)
		assert.Contains(t, w.Body.String(), "Название задачи обязательно", "body=%s", body)
	}
}

// Неизвестный статус тоже отклоняется валидацией.
func TestCreateTodoBadStatusRejected(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/todos", CreateTodo)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/todos", strings.NewReader(`{"title":"позвонить клиенту","status":"done"}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Неизвестный статус")
}
