package push

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/egor/deskchatserver/models"
)

// previewLimit — длина превью текста сообщения в уведомлении
const previewLimit = 120

// Notifier отправляет уведомления о новых сообщениях посетителей
// во внешний push-сервис. Канал побочный: ошибки только логируются.
type Notifier struct {
	apiURL string
	client *http.Client
}

// notification описывает тело POST-запроса к push API.
type notification struct {
	SessionID   string    `json:"sessionId"`
	VisitorName string    `json:"visitorName"`
	Preview     string    `json:"preview"`
	SentAt      time.Time `json:"sentAt"`
}

// NewNotifier создаёт новый Notifier.
// URL берется из PUSH_API_URL (пусто — уведомления выключены),
// таймаут из PUSH_API_TIMEOUT или по умолчанию 10s.
func NewNotifier() *Notifier {
	apiURL := os.Getenv("PUSH_API_URL")

	timeout := 10 * time.Second
	if t := os.Getenv("PUSH_API_TIMEOUT"); t != "" {
		if d, err := time.ParseDuration(t); err == nil {
			timeout = d
		}
	}

	return &Notifier{
		apiURL: apiURL,
		client: &http.Client{Timeout: timeout},
	}
}

// Enabled сообщает, настроен ли push-сервис
func (n *Notifier) Enabled() bool {
	return n.apiURL != ""
}

// NotifyVisitorMessage отправляет уведомление о новом сообщении посетителя.
func (n *Notifier) NotifyVisitorMessage(ctx context.Context, session *models.Session, message *models.Message) error {
	if !n.Enabled() {
		return nil
	}

	body := notification{
		SessionID:   session.ID.String(),
		VisitorName: session.VisitorName,
		Preview:     preview(message.Content),
		SentAt:      message.CreatedAt,
	}

	raw, err := json.Marshal(body)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.apiURL, bytes.NewReader(raw))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("push API вернул статус %d", resp.StatusCode)
	}
	return nil
}

// preview обрезает текст до previewLimit рун
func preview(content string) string {
	runes := []rune(content)
	if len(runes) <= previewLimit {
		return content
	}
	return string(runes[:previewLimit]) + "…"
}
