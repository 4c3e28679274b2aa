package events

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"billing-backend/internal/billing"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHubDeliversStatusEvents(t *testing.T) {
	hub := NewHub()
	hub.Start()
	defer hub.Stop()

	srv := httptest.NewServer(http.HandlerFunc(hub.ServeWS))
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, 2*time.Second, 10*time.Millisecond)

	hub.Publish(StatusEvent{
		InvoiceID: "inv-1",
		From:      billing.StatusDraft,
		To:        billing.StatusSent,
		ChangedBy: "u-1",
	})

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var got StatusEvent
	require.NoError(t, conn.ReadJSON(&got))
	assert.Equal(t, "invoice.status_changed", got.Type)
	assert.Equal(t, "inv-1", got.InvoiceID)
	assert.Equal(t, billing.StatusSent, got.To)
}

func TestPublishOnNilHubIsSafe(t *testing.T) {
	var hub *Hub
	assert.NotPanics(t, func() { hub.Publish(StatusEvent{InvoiceID: "x"}) })
}

func TestPublishDropsWhenQueueFull(t *testing.T) {
	hub := NewHub()
	for i := 0; i < cap(hub.broadcast)+5; i++ {
		hub.Publish(StatusEvent{InvoiceID: "x"})
	}
	assert.Equal(t, cap(hub.broadcast), len(hub.broadcast))
}
