package realtime

import (
	"log"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second    // время на запись одного кадра
	pongWait       = 60 * time.Second    // максимальное время ожидания PONG
	pingPeriod     = (pongWait * 9) / 10 // как часто слать PING
	maxMessageSize = 512                 // максимальный размер входящего кадра
)

// Client связывает WebSocket-соединение консоли сотрудника с подписчиком хаба.
// Консоль только слушает: входящие кадры используются лишь для контроля
// живости соединения.
type Client struct {
	conn *websocket.Conn
	sub  *Subscriber
}

// NewClient создает нового WebSocket клиента поверх подписчика
func NewClient(conn *websocket.Conn, sub *Subscriber) *Client {
	return &Client{conn: conn, sub: sub}
}

// ReadPump вычитывает входящие кадры до разрыва соединения
// и держит read deadline через pong-хендлер.
func (c *Client) ReadPump() {
	defer func() {
		c.sub.Close()
		c.conn.Close()
		log.Printf("[realtime] WebSocket закрыт")
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("[realtime] WebSocket неожиданно закрыт: %v", err)
			}
			break
		}
	}
}

// WritePump пишет события подписчика в WebSocket и держит соединение
// живым ping/pong'ом.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case ev, ok := <-c.sub.Events():
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// канал закрыт хабом
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			data, err := ev.Encode()
			if err != nil {
				log.Printf("[realtime] ошибка сериализации события: %v", err)
				continue
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
