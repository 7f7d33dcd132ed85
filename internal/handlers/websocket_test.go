package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/XavierBriggs/fortuna/services/chance-calculator/pkg/models"
)

type wireMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

func readMessage(t *testing.T, conn *websocket.Conn) wireMessage {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(3*time.Second)))
	var msg wireMessage
	require.NoError(t, conn.ReadJSON(&msg))
	return msg
}

func TestWebSocket_StreamsFilteredSimulations(t *testing.T) {
	env := newTestEnv(t, nil)

	ctx, cancel := context.WithCancel(context.Background())
	hubDone := make(chan struct{})
	go func() {
		env.handler.Hub.Run(ctx)
		close(hubDone)
	}()
	t.Cleanup(func() {
		cancel()
		<-hubDone
	})

	srv := httptest.NewServer(env.router)
	t.Cleanup(srv.Close)

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/ws", nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	require.NoError(t, conn.WriteJSON(models.ClientMessage{
		Type:    models.MessageTypeSubscribe,
		Payload: &models.SubscriptionFilter{Kinds: []string{"odds"}},
	}))
	// messages are handled in order, so the heartbeat reply means the filter is set
	require.NoError(t, conn.WriteJSON(models.ClientMessage{Type: models.MessageTypeHeartbeat}))
	assert.Equal(t, models.MessageTypeHeartbeat, readMessage(t, conn).Type)

	rec := env.do(t, http.MethodPost, "/api/v1/simulations", `{"chance":{"kind":"probability","value":0.5},"trials":100}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	rec = env.do(t, http.MethodPost, "/api/v1/simulations", `{"chance":{"kind":"odds","value":1},"trials":100}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	want := decodeBody[models.SimulationResult](t, rec)

	msg := readMessage(t, conn)
	require.Equal(t, models.MessageTypeSimulation, msg.Type)

	var got models.SimulationResult
	require.NoError(t, json.Unmarshal(msg.Payload, &got))
	assert.Equal(t, want.ID, got.ID)
	assert.Equal(t, "odds", got.Kind)
}

func TestWebSocket_RejectsUnknownOrigin(t *testing.T) {
	env := newTestEnv(t, func(d *Dependencies) { d.AllowedOrigins = []string{"https://fortuna.app"} })

	srv := httptest.NewServer(env.router)
	t.Cleanup(srv.Close)

	header := http.Header{"Origin": []string{"https://elsewhere.example"}}
	_, resp, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/ws", header)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestCheckOrigin(t *testing.T) {
	h := &Handler{Dependencies: Dependencies{AllowedOrigins: []string{"https://fortuna.app"}}}

	req := httptest.NewRequest(http.MethodGet, "/ws", nil)
	assert.True(t, h.checkOrigin(req), "no origin header")

	req.Header.Set("Origin", "https://fortuna.app")
	assert.True(t, h.checkOrigin(req))

	req.Header.Set("Origin", "https://elsewhere.example")
	assert.False(t, h.checkOrigin(req))

	h.AllowedOrigins = []string{"*"}
	assert.True(t, h.checkOrigin(req))
}
