package push

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/egor/deskchatserver/models"
)

func testSessionAndMessage() (*models.Session, *models.Message) {
	id := uuid.New()
	session := &models.Session{ID: id, VisitorName: "Иван"}
	message := &models.Message{ID: 1, SessionID: id, Sender: models.SenderVisitor, Content: "нужна помощь", CreatedAt: time.Now()}
	return session, message
}

func TestNotifyVisitorMessage(t *testing.T) {
	var got notification
	var method, contentType string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		method = r.Method
		contentType = r.Header.Get("Content-Type")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	n := &Notifier{apiURL: srv.URL, client: srv.Client()}
	session, message := testSessionAndMessage()

	err := n.NotifyVisitorMessage(context.Background(), session, message)
	require.NoError(t, err)

	assert.Equal(t, http.MethodPost, method)
	assert.Equal(t, "application/json", contentType)
	assert.Equal(t, session.ID.String(), got.SessionID)
	assert.Equal(t, "Иван", got.VisitorName)
	assert.Equal(t, "нужна помощь", got.Preview)
}

func TestNotifyVisitorMessageServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	n := &Notifier{apiURL: srv.URL, client: srv.Client()}
	session, message := testSessionAndMessage()

	err := n.NotifyVisitorMessage(context.Background(), session, message)
	assert.Error(t, err)
}

func TestNotifierDisabled(t *testing.T) {
	n := &Notifier{apiURL: "", client: &http.Client{}}
	assert.False(t, n.Enabled())

	session, message := testSessionAndMessage()
	// выключенный канал молча пропускает уведомление
	assert.NoError(t, n.NotifyVisitorMessage(context.Background(), session, message))
}

func TestPreviewTruncation(t *testing.T) {
	long := make([]rune, previewLimit+50)
	for i := range long {
		long[i] = 'ж'
	}

	short := preview("короткий текст")
	assert.Equal(t, "короткий текст", short)

	cut := preview(string(long))
	assert.Equal(t, previewLimit+1, len([]rune(cut))) // 120 рун + многоточие
}
