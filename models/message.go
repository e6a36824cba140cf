package models

import (
	"time"

	"github.com/google/uuid"
)

// Отправители сообщений
const (
	SenderVisitor = "visitor"
	SenderStaff   = "staff"
)

// Типы содержимого сообщений
const (
	MessageText  = "text"
	MessageImage = "image"
	MessageVideo = "video"
	MessageFile  = "file"
)

// Message представляет собой структуру сообщения.
// ID — монотонный bigserial, по нему строится курсорная пагинация.
type Message struct {
	ID        int64     `json:"id"`
	SessionID uuid.UUID `json:"sessionId"`
	Sender    string    `json:"sender"` // "visitor" или "staff"
	Type      string    `json:"type"`   // "text", "image", "video", "file"
	Content   string    `json:"content"`
	Thumbnail *string   `json:"thumbnail,omitempty"`
	FileName  *string   `json:"fileName,omitempty"`
	FileSize  *int64    `json:"fileSize,omitempty"`
	MimeType  *string   `json:"mimeType,omitempty"`
	Read      bool      `json:"read"`
	CreatedAt time.Time `json:"createdAt"`
}

// MessageInput — данные нового сообщения для записи в БД
type MessageInput struct {
	Sender    string
	Type      string
	Content   string
	Thumbnail *string
	FileName  *string
	FileSize  *int64
	MimeType  *string
}

// MessagePage — страница сообщений при курсорной пагинации.
// Messages отсортированы по возрастанию ID, NextCursor — курсор для
// следующей (более старой) страницы.
type MessagePage struct {
	Messages   []Message `json:"messages"`
	HasMore    bool      `json:"hasMore"`
	NextCursor int64     `json:"nextCursor,omitempty"`
}

// ValidSender проверяет отправителя сообщения
func ValidSender(s string) bool {
	return s == SenderVisitor || s == SenderStaff
}

// ValidMessageType проверяет тип содержимого
func ValidMessageType(t string) bool {
	switch t {
	case MessageText, MessageImage, MessageVideo, MessageFile:
		return true
	}
	return false
}
