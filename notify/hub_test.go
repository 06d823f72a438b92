package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"eshop/events"
	"eshop/models"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestHub_BroadcastsOrderEvents(t *testing.T) {
	hub := NewHub(zap.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx)

	srv := httptest.NewServer(http.HandlerFunc(hub.serve))
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return hub.Clients() == 1 }, time.Second, 10*time.Millisecond)

	order := &models.Order{ID: 5, UserID: 2, TotalOrderPrice: 99, PaymentMethodType: models.PaymentCash}
	require.NoError(t, hub.Publish(context.Background(), events.NewOrderEvent(events.OrderCreated, order, time.Now())))

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, raw, err := conn.ReadMessage()
	require.NoError(t, err)

	var got events.OrderEvent
	require.NoError(t, json.Unmarshal(raw, &got))
	require.Equal(t, events.OrderCreated, got.Type)
	require.Equal(t, uint(5), got.OrderID)

	require.NoError(t, conn.Close())
	require.Eventually(t, func() bool { return hub.Clients() == 0 }, time.Second, 10*time.Millisecond)
}

func TestHub_PublishNeverBlocks(t *testing.T) {
	hub := NewHub(zap.NewNop())
	order := &models.Order{ID: 1}

	for i := 0; i < cap(hub.broadcast)+10; i++ {
		require.NoError(t, hub.Publish(context.Background(), events.NewOrderEvent(events.OrderCreated, order, time.Now())))
	}
	require.Len(t, hub.broadcast, cap(hub.broadcast))
}
