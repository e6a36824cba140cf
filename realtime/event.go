package realtime

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/egor/deskchatserver/models"
)

// Имена событий live-обновлений. Одни и те же события уходят в SSE-потоки
// и в WebSocket консоли сотрудника.
const (
	EventConnected     = "connected"
	EventMessage       = "message"
	EventSessionUpdate = "session_update"
	EventHeartbeat     = "heartbeat"
)

// Event — одно событие для подписчиков хаба
type Event struct {
	Name      string      `json:"type"`
	SessionID uuid.UUID   `json:"-"`
	Payload   interface{} `json:"payload"`
}

// Encode сериализует событие в кадр {"type": ..., "payload": ...}
// для WebSocket-транспорта.
func (e Event) Encode() ([]byte, error) {
	return json.Marshal(e)
}

// NewMessageEvent создает событие о новом сообщении в сессии
func NewMessageEvent(session *models.Session, message *models.Message) Event {
	payload := struct {
		Session *models.Session `json:"session"`
		Message *models.Message `json:"message"`
	}{
		Session: session,
		Message: message,
	}
	return Event{Name: EventMessage, SessionID: message.SessionID, Payload: payload}
}

// NewSessionUpdateEvent создает событие об изменении сессии
// (тема, статусы, отметка о прочтении)
func NewSessionUpdateEvent(session *models.Session) Event {
	return Event{Name: EventSessionUpdate, SessionID: session.ID, Payload: session}
}

// NewHeartbeatEvent создает периодическое keep-alive событие
func NewHeartbeatEvent() Event {
	payload := struct {
		Time time.Time `json:"time"`
	}{Time: time.Now()}
	return Event{Name: EventHeartbeat, Payload: payload}
}
