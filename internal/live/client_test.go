package live

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/printgenie/orderflow/internal/models"
	"github.com/printgenie/orderflow/internal/store"
)

// failingWatchStore fails every watch attach.
type failingWatchStore struct{ store.OrderStore }

func (failingWatchStore) WatchOrder(ctx context.Context, id string) (*store.DocumentSubscription, error) {
	return nil, errors.New("backend unavailable")
}

func dialWS(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	return conn
}

func readOrderEvent(t *testing.T, conn *websocket.Conn) models.Order {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var ev Event
	require.NoError(t, conn.ReadJSON(&ev))
	require.Equal(t, "order", ev.Type)
	var o models.Order
	require.NoError(t, json.Unmarshal(ev.Payload, &o))
	return o
}

func TestServeOrderWSStreamsSnapshots(t *testing.T) {
	mem := store.NewMemory()
	id, err := mem.Create(context.Background(), &models.Order{
		ReferenceNumber: "WATCH01",
		ClientName:      "A",
		ClientEmail:     "a@x",
		Status:          models.StatusReceived,
	})
	require.NoError(t, err)

	handlerDone := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ServeOrderWS(mem, id, w, r)
		close(handlerDone)
	}))
	defer srv.Close()

	conn := dialWS(t, srv)

	got := readOrderEvent(t, conn)
	assert.Equal(t, "WATCH01", got.ReferenceNumber)
	assert.Equal(t, models.StatusReceived, got.Status)

	require.NoError(t, mem.SetStatus(context.Background(), id, models.StatusPrinting))
	got = readOrderEvent(t, conn)
	assert.Equal(t, models.StatusPrinting, got.Status)

	conn.Close()
	select {
	case <-handlerDone:
	case <-time.After(2 * time.Second):
		t.Fatal("handler did not return after client disconnect")
	}
}

func TestServeOrderWSFailedWatchEndsOnDisconnect(t *testing.T) {
	handlerDone := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ServeOrderWS(failingWatchStore{}, "missing", w, r)
		close(handlerDone)
	}))
	defer srv.Close()

	// The client sees no messages, only the loading state. Closing the
	// connection must still release the server side.
	conn := dialWS(t, srv)
	conn.Close()

	select {
	case <-handlerDone:
	case <-time.After(2 * time.Second):
		t.Fatal("handler leaked after client disconnect")
	}
}
