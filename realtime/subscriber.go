package realtime

import "github.com/google/uuid"

// Буфер исходящих событий одного подписчика
const sendBuffer = 256

// Subscriber — один открытый поток live-обновлений (SSE или WebSocket)
type Subscriber struct {
	hub       *Hub
	sessionID uuid.UUID // uuid.Nil для сотрудника
	staff     bool
	send      chan Event
}

func newSubscriber(hub *Hub, sessionID uuid.UUID, staff bool) *Subscriber {
	return &Subscriber{
		hub:       hub,
		sessionID: sessionID,
		staff:     staff,
		send:      make(chan Event, sendBuffer),
	}
}

// Events возвращает канал событий подписчика. Канал закрывается хабом
// при отписке или когда подписчик перестает успевать читать.
func (s *Subscriber) Events() <-chan Event {
	return s.send
}

// Close отписывает подписчика от хаба. Повторный вызов безопасен.
func (s *Subscriber) Close() {
	s.hub.unregister <- s
}
