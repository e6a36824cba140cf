package models

import (
	"time"

	"github.com/google/uuid"
)

// Статусы сессии
const (
	SessionActive = "active"
	SessionClosed = "closed"
)

// Статусы обработки обращения
const (
	TaskPending    = "pending"
	TaskInProgress = "in_progress"
	TaskWaiting    = "waiting"
	TaskResolved   = "resolved"
	TaskClosed     = "closed"
)

// Session представляет собой структуру сессии чата с посетителем
type Session struct {
	ID               uuid.UUID  `json:"id"`
	VisitorName      string     `json:"visitorName"`
	Status           string     `json:"status"`     // "active", "closed"
	TaskStatus       string     `json:"taskStatus"` // этап обработки обращения
	Topic            *string    `json:"topic,omitempty"`
	LastMessageAt    *time.Time `json:"lastMessageAt,omitempty"`
	UnreadByVisitor  int        `json:"unreadByVisitor"` // непрочитанное посетителем (от сотрудников)
	UnreadByStaff    int        `json:"unreadByStaff"`   // непрочитанное сотрудниками (от посетителя)
	QueuePosition    *int       `json:"queuePosition,omitempty"`
	QueueWaitSeconds *int       `json:"queueWaitSeconds,omitempty"`
	CreatedAt        time.Time  `json:"createdAt"`
	UpdatedAt        time.Time  `json:"updatedAt"`
}

// SessionResponse для списка сессий на консоли сотрудника
type SessionResponse struct {
	Session
	LastMessage *Message `json:"lastMessage,omitempty"`
}

// QueueInfo — место посетителя в очереди и оценка ожидания
type QueueInfo struct {
	SessionID   uuid.UUID `json:"sessionId"`
	Waiting     bool      `json:"waiting"`
	Position    int       `json:"position"`    // 1-based, 0 если сессия не в очереди
	WaitSeconds int       `json:"waitSeconds"` // (position-1) * длительность слота
}

// ValidSessionStatus проверяет статус сессии
func ValidSessionStatus(s string) bool {
	return s == SessionActive || s == SessionClosed
}

// ValidTaskStatus проверяет статус обработки обращения
func ValidTaskStatus(s string) bool {
	switch s {
	case TaskPending, TaskInProgress, TaskWaiting, TaskResolved, TaskClosed:
		return true
	}
	return false
}
