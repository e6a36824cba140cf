package realtime

import (
	"log"

	"github.com/google/uuid"
)

// Hub раздает события открытым потокам (SSE и WebSocket).
// Подписчики посетителей хранятся по ID сессии, подписчики-сотрудники —
// плоским множеством и получают события всех сессий. Реестр живет в
// памяти процесса и теряется при рестарте; доставка best-effort.
type Hub struct {
	// Регистрация подписчика
	register chan *Subscriber

	// Отмена регистрации подписчика
	unregister chan *Subscriber

	// Входящие события на рассылку
	events chan Event

	visitors map[uuid.UUID]map[*Subscriber]bool
	staff    map[*Subscriber]bool
}

// NewHub создает новый Hub
func NewHub() *Hub {
	return &Hub{
		register:   make(chan *Subscriber),
		unregister: make(chan *Subscriber),
		events:     make(chan Event, 64),
		visitors:   make(map[uuid.UUID]map[*Subscriber]bool),
		staff:      make(map[*Subscriber]bool),
	}
}

// Run запускает цикл хаба (в отдельной горутине)
func (h *Hub) Run() {
	for {
		select {
		case sub := <-h.register:
			h.add(sub)
			log.Printf("[realtime] подписчик подключился (staff=%v, session=%s). Всего: %d",
				sub.staff, sub.sessionID, h.count())

		case sub := <-h.unregister:
			if h.remove(sub) {
				close(sub.send)
				log.Printf("[realtime] подписчик отключился. Всего: %d", h.count())
			}

		case ev := <-h.events:
			h.dispatch(ev)
		}
	}
}

// Subscribe регистрирует подписчика на события одной сессии (виджет)
func (h *Hub) Subscribe(sessionID uuid.UUID) *Subscriber {
	sub := newSubscriber(h, sessionID, false)
	h.register <- sub
	return sub
}

// SubscribeStaff регистрирует подписчика консоли сотрудника (все сессии)
func (h *Hub) SubscribeStaff() *Subscriber {
	sub := newSubscriber(h, uuid.Nil, true)
	h.register <- sub
	return sub
}

// Publish отправляет событие в рассылку
func (h *Hub) Publish(ev Event) {
	h.events <- ev
}

// ─────────────────────────── внутреннее (только из Run)

func (h *Hub) add(sub *Subscriber) {
	if sub.staff {
		h.staff[sub] = true
		return
	}
	set := h.visitors[sub.sessionID]
	if set == nil {
		set = make(map[*Subscriber]bool)
		h.visitors[sub.sessionID] = set
	}
	set[sub] = true
}

func (h *Hub) remove(sub *Subscriber) bool {
	if sub.staff {
		if h.staff[sub] {
			delete(h.staff, sub)
			return true
		}
		return false
	}
	set := h.visitors[sub.sessionID]
	if set != nil && set[sub] {
		delete(set, sub)
		if len(set) == 0 {
			delete(h.visitors, sub.sessionID)
		}
		return true
	}
	return false
}

// dispatch рассылает событие подписчикам сессии и всем сотрудникам.
// Отправка неблокирующая: подписчик с переполненным буфером считается
// мертвым и выбрасывается из реестра.
func (h *Hub) dispatch(ev Event) {
	if ev.SessionID != uuid.Nil {
		for sub := range h.visitors[ev.SessionID] {
			h.deliver(sub, ev)
		}
	}
	for sub := range h.staff {
		h.deliver(sub, ev)
	}
}

func (h *Hub) deliver(sub *Subscriber, ev Event) {
	select {
	case sub.send <- ev:
	default:
		h.remove(sub)
		close(sub.send)
		log.Printf("[realtime] подписчик не успевает читать, отключаем")
	}
}

func (h *Hub) count() int {
	n := len(h.staff)
	for _, set := range h.visitors {
		n += len(set)
	}
	return n
}
