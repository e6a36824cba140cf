package handlers

import (
	"errors"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// defaultUploadMaxBytes — ограничение размера загружаемого файла (10 МБ)
const defaultUploadMaxBytes = 10 << 20

// UploadDir возвращает каталог для загруженных файлов
func UploadDir() string {
	if dir := os.Getenv("UPLOAD_DIR"); dir != "" {
		return dir
	}
	return "./uploads"
}

func uploadMaxBytes() int64 {
	if raw := os.Getenv("UPLOAD_MAX_BYTES"); raw != "" {
		if n, err := strconv.ParseInt(raw, 10, 64); err == nil && n > 0 {
			return n
		}
	}
	return defaultUploadMaxBytes
}

// UploadFile принимает multipart-файл и сохраняет его под UUID-именем.
// Ответ содержит URL и метаданные для сообщения типа image/video/file.
func UploadFile(c *gin.Context) {
	maxBytes := uploadMaxBytes()
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)

	file, err := c.FormFile("file")
	if err != nil {
		// MaxBytesReader срабатывает еще при разборе multipart-формы
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "Файл слишком большой"})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "Файл не передан: " + err.Error()})
		return
	}
	if file.Size > maxBytes {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "Файл слишком большой"})
		return
	}

	if err := os.MkdirAll(UploadDir(), 0o755); err != nil {
		log.Printf("UploadFile: не удалось создать каталог: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Ошибка сохранения файла"})
		return
	}

	name := uuid.New().String() + filepath.Ext(file.Filename)
	dst := filepath.Join(UploadDir(), name)
	if err := c.SaveUploadedFile(file, dst); err != nil {
		log.Printf("UploadFile: ошибка сохранения %s: %v", dst, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Ошибка сохранения файла"})
		return
	}

	log.Printf("UploadFile: сохранен %s (%d байт)", dst, file.Size)
	c.JSON(http.StatusOK, gin.H{
		"url":      "/uploads/" + name,
		"fileName": file.Filename,
		"fileSize": file.Size,
		"mimeType": file.Header.Get("Content-Type"),
	})
}
