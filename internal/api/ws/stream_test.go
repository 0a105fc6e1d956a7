package ws

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/TeachOS/kernel/internal/kernel"
)

func TestRecordWithoutSubscribersIsNoop(t *testing.T) {
	h := NewHub(nil, nil)
	h.Record(kernel.Event{Type: kernel.EventBoot})
	assert.Zero(t, h.Subscribers())
}

func TestSubscriberReceivesEvents(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := NewHub(nil, nil)

	r := gin.New()
	r.GET("/events", h.Handle)
	srv := httptest.NewServer(r)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/events"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	// The handler registers the subscriber after the upgrade returns.
	require.Eventually(t, func() bool { return h.Subscribers() == 1 },
		time.Second, 5*time.Millisecond)

	sent := kernel.Event{Seq: 7, Type: kernel.EventThreadExited, PID: 2, Value: 42}
	h.Record(sent)

	conn.SetReadDeadline(time.Now().Add(time.Second))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)

	var got kernel.Event
	require.NoError(t, sonic.Unmarshal(data, &got))
	assert.Equal(t, sent.Seq, got.Seq)
	assert.Equal(t, sent.Type, got.Type)
	assert.Equal(t, sent.Value, got.Value)
}

func TestSubscriberRemovedOnDisconnect(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := NewHub(nil, nil)

	r := gin.New()
	r.GET("/events", h.Handle)
	srv := httptest.NewServer(r)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/events"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)

	require.Eventually(t, func() bool { return h.Subscribers() == 1 },
		time.Second, 5*time.Millisecond)

	conn.Close()
	require.Eventually(t, func() bool { return h.Subscribers() == 0 },
		time.Second, 5*time.Millisecond)
}

func TestSlowSubscriberDropsInsteadOfBlocking(t *testing.T) {
	h := NewHub(nil, nil)

	sub := &subscriber{ch: make(chan kernel.Event, 1)}
	h.mu.Lock()
	h.subs[sub] = struct{}{}
	h.mu.Unlock()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 10; i++ {
			h.Record(kernel.Event{Seq: uint64(i)})
		}
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Record blocked on a full subscriber")
	}
	assert.Equal(t, uint64(9), sub.dropped)
}
