package handlers

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func multipartFile(t *testing.T, name string, size int) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", name)
	require.NoError(t, err)
	_, err = fw.Write(bytes.Repeat([]byte("a"), size))
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

// Файл больше лимита получает 413, даже если MaxBytesReader обрывает
// тело еще на разборе multipart-формы.
func TestUploadFileTooLarge(t *testing.T) {
	gin.SetMode(gin.TestMode)
	t.Setenv("UPLOAD_MAX_BYTES", "64")

	body, contentType := multipartFile(t, "big.bin", 4096)

	r := gin.New()
	r.POST("/upload", UploadFile)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/upload", body)
	req.Header.Set("Content-Type", contentType)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	assert.Contains(t, w.Body.String(), "Файл слишком большой")
}

// Запрос без файла остается обычной ошибкой клиента.
func TestUploadFileMissing(t *testing.T) {
	gin.SetMode(gin.TestMode)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("comment", "без файла"))
	require.NoError(t, mw.Close())

	r := gin.New()
	r.POST("/upload", UploadFile)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/upload", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Файл не передан")
}
