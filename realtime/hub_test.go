package realtime

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/egor/deskchatserver/models"
)

func recvEvent(t *testing.T, sub *Subscriber) Event {
	t.Helper()
	select {
	case ev, ok := <-sub.Events():
		require.True(t, ok, "канал подписчика неожиданно закрыт")
		return ev
	case <-time.After(time.Second):
		t.Fatal("событие не пришло за секунду")
	}
	return Event{}
}

func assertNoEvent(t *testing.T, sub *Subscriber) {
	t.Helper()
	select {
	case ev := <-sub.Events():
		t.Fatalf("неожиданное событие %q", ev.Name)
	case <-time.After(50 * time.Millisecond):
	}
}

func testSession(id uuid.UUID) *models.Session {
	return &models.Session{ID: id, VisitorName: "Гость", Status: models.SessionActive, TaskStatus: models.TaskPending}
}

func TestHubRoutesBySession(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	sessionA := uuid.New()
	sessionB := uuid.New()

	subA := hub.Subscribe(sessionA)
	subB := hub.Subscribe(sessionB)
	staff := hub.SubscribeStaff()

	msg := &models.Message{ID: 1, SessionID: sessionA, Sender: models.SenderVisitor, Type: models.MessageText, Content: "привет"}
	hub.Publish(NewMessageEvent(testSession(sessionA), msg))

	// посетитель своей сессии получает событие
	ev := recvEvent(t, subA)
	assert.Equal(t, EventMessage, ev.Name)
	assert.Equal(t, sessionA, ev.SessionID)

	// консоль сотрудника получает события всех сессий
	ev = recvEvent(t, staff)
	assert.Equal(t, EventMessage, ev.Name)

	// чужая сессия — нет
	assertNoEvent(t, subB)
}

func TestHubSessionUpdateReachesStaff(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	id := uuid.New()
	sub := hub.Subscribe(id)
	staff := hub.SubscribeStaff()

	hub.Publish(NewSessionUpdateEvent(testSession(id)))

	assert.Equal(t, EventSessionUpdate, recvEvent(t, sub).Name)
	assert.Equal(t, EventSessionUpdate, recvEvent(t, staff).Name)
}

func TestHubUnsubscribeClosesChannel(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	sub := hub.Subscribe(uuid.New())
	sub.Close()

	select {
	case _, ok := <-sub.Events():
		assert.False(t, ok, "канал должен быть закрыт после отписки")
	case <-time.After(time.Second):
		t.Fatal("канал не закрылся за секунду")
	}
}

func TestHubDropsSlowSubscriber(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	id := uuid.New()
	sub := hub.Subscribe(id)
	session := testSession(id)

	// Переполняем буфер подписчика, не читая его
	for i := 0; i < sendBuffer+10; i++ {
		hub.Publish(NewMessageEvent(session, &models.Message{ID: int64(i), SessionID: id}))
	}

	// Хаб закрывает канал не успевающего подписчика; вычитываем
	// накопленное и убеждаемся, что канал закрыт
	deadline := time.After(2 * time.Second)
	for {
		select {
		case _, ok := <-sub.Events():
			if !ok {
				return // закрыт — подписчик выброшен
			}
		case <-deadline:
			t.Fatal("канал медленного подписчика так и не закрылся")
		}
	}
}
