package realtime

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/egor/deskchatserver/models"
)

func TestEventNames(t *testing.T) {
	// имена событий — часть контракта SSE
	assert.Equal(t, "connected", EventConnected)
	assert.Equal(t, "message", EventMessage)
	assert.Equal(t, "session_update", EventSessionUpdate)
	assert.Equal(t, "heartbeat", EventHeartbeat)
}

func TestMessageEventEncode(t *testing.T) {
	id := uuid.New()
	session := testSession(id)
	msg := &models.Message{ID: 7, SessionID: id, Sender: models.SenderStaff, Type: models.MessageText, Content: "здравствуйте"}

	raw, err := NewMessageEvent(session, msg).Encode()
	require.NoError(t, err)

	var frame struct {
		Type    string `json:"type"`
		Payload struct {
			Session models.Session `json:"session"`
			Message models.Message `json:"message"`
		} `json:"payload"`
	}
	require.NoError(t, json.Unmarshal(raw, &frame))

	assert.Equal(t, EventMessage, frame.Type)
	assert.Equal(t, id, frame.Payload.Session.ID)
	assert.Equal(t, int64(7), frame.Payload.Message.ID)
	assert.Equal(t, "здравствуйте", frame.Payload.Message.Content)
}

func TestSessionUpdateEventCarriesSessionID(t *testing.T) {
	id := uuid.New()
	ev := NewSessionUpdateEvent(testSession(id))

	assert.Equal(t, EventSessionUpdate, ev.Name)
	assert.Equal(t, id, ev.SessionID)
}
