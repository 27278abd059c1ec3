package relay

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dialHub(t *testing.T, hub *Hub) *websocket.Conn {
	t.Helper()
	srv := httptest.NewServer(hub)
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func subscribe(t *testing.T, conn *websocket.Conn, channel string) {
	t.Helper()
	require.NoError(t, conn.WriteJSON(command{Action: "subscribe", Channel: channel}))

	var ack map[string]string
	require.NoError(t, conn.ReadJSON(&ack))
	require.Equal(t, "subscribed", ack["event"])
}

func TestHubPublishToSubscriber(t *testing.T) {
	hub := NewHub(zerolog.Nop(), nil)
	conn := dialHub(t, hub)
	subscribe(t, conn, "collectibles")

	hub.Publish(Event{
		Channel: "collectibles",
		Event:   "UPDATE",
		Data:    json.RawMessage(`{"id":"c1","current_price":12.5}`),
	})

	conn.SetReadDeadline(time.Now().Add(time.Second))
	var ev Event
	require.NoError(t, conn.ReadJSON(&ev))
	assert.Equal(t, "collectibles", ev.Channel)
	assert.Equal(t, "UPDATE", ev.Event)
	assert.JSONEq(t, `{"id":"c1","current_price":12.5}`, string(ev.Data))
}

func TestHubChannelIsolation(t *testing.T) {
	hub := NewHub(zerolog.Nop(), nil)
	conn := dialHub(t, hub)
	subscribe(t, conn, "transactions:u1")

	// Published to a channel this client never subscribed to.
	hub.Publish(Event{Channel: "transactions:u2", Event: "INSERT", Data: json.RawMessage(`{}`)})
	hub.Publish(Event{Channel: "transactions:u1", Event: "INSERT", Data: json.RawMessage(`{"user_id":"u1"}`)})

	conn.SetReadDeadline(time.Now().Add(time.Second))
	var ev Event
	require.NoError(t, conn.ReadJSON(&ev))
	assert.Equal(t, "transactions:u1", ev.Channel)
}

func TestHubUnsubscribe(t *testing.T) {
	hub := NewHub(zerolog.Nop(), nil)
	conn := dialHub(t, hub)
	subscribe(t, conn, "collectibles")

	require.NoError(t, conn.WriteJSON(command{Action: "unsubscribe", Channel: "collectibles"}))

	// Unsubscribe has no ack; give the read loop a moment to apply it.
	time.Sleep(50 * time.Millisecond)
	hub.Publish(Event{Channel: "collectibles", Event: "UPDATE", Data: json.RawMessage(`{}`)})

	conn.SetReadDeadline(time.Now().Add(200 * time.Millisecond))
	var ev Event
	assert.Error(t, conn.ReadJSON(&ev))
}

func TestFeedDispatch(t *testing.T) {
	hub := NewHub(zerolog.Nop(), nil)
	feed := NewFeed("", hub, zerolog.Nop())

	conn := dialHub(t, hub)
	subscribe(t, conn, "collectible:c7")

	feed.dispatch(`{"table":"collectibles","event":"UPDATE","row":{"id":"c7","current_price":3.25}}`)

	conn.SetReadDeadline(time.Now().Add(time.Second))
	var ev Event
	require.NoError(t, conn.ReadJSON(&ev))
	assert.Equal(t, "collectible:c7", ev.Channel)
	assert.Equal(t, "UPDATE", ev.Event)
}

func TestFeedDispatchBadPayload(t *testing.T) {
	hub := NewHub(zerolog.Nop(), nil)
	feed := NewFeed("", hub, zerolog.Nop())

	// Must not panic or publish anything.
	feed.dispatch(`not json`)
	feed.dispatch(`{"table":"collectibles","event":"UPDATE","row":"not an object"}`)
}
