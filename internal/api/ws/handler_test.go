package ws

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/visualjsx/studio/backend/internal/compiler"
	"github.com/visualjsx/studio/backend/internal/domain/component"
	"github.com/visualjsx/studio/backend/internal/infrastructure/logging"
)

func newTestServer(t *testing.T) (*httptest.Server, *component.Store) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := component.NewStore()
	h := NewHandler(Config{
		SurfaceWidth: 800,
		Debounce:     20 * time.Millisecond,
	}, store, compiler.New(), logging.NewNop())

	r := gin.New()
	r.GET("/stream", h.HandleConnection)

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv, store
}

func dial(t *testing.T, srv *httptest.Server, query string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/stream" + query
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

// readUntil reads messages until one of the wanted type arrives.
func readUntil(t *testing.T, conn *websocket.Conn, msgType string) map[string]interface{} {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	require.NoError(t, conn.SetReadDeadline(deadline))

	for time.Now().Before(deadline) {
		var msg map[string]interface{}
		require.NoError(t, conn.ReadJSON(&msg))
		if msg["type"] == msgType {
			return msg
		}
	}
	t.Fatalf("no %q message before deadline", msgType)
	return nil
}

func TestConnectionSendsReady(t *testing.T) {
	srv, _ := newTestServer(t)
	conn := dial(t, srv, "")

	msg := readUntil(t, conn, "ready")
	assert.NotEmpty(t, msg["surface"])
	assert.Equal(t, "Unsaved", msg["label"])
}

func TestCodeRendersAndAutosaves(t *testing.T) {
	srv, store := newTestServer(t)
	conn := dial(t, srv, "")
	readUntil(t, conn, "ready")

	require.NoError(t, conn.WriteJSON(map[string]interface{}{
		"type": "code",
		"code": `<div className="box"><p>hello</p></div>;`,
	}))
	readUntil(t, conn, "rendered")

	saved := readUntil(t, conn, "saved")
	assert.NotEmpty(t, saved["id"])
	assert.Equal(t, 1, store.Count())
}

func TestCompileErrorIsReported(t *testing.T) {
	srv, _ := newTestServer(t)
	conn := dial(t, srv, "")
	readUntil(t, conn, "ready")

	require.NoError(t, conn.WriteJSON(map[string]interface{}{
		"type": "code",
		"code": "<div>",
	}))
	msg := readUntil(t, conn, "error")
	assert.NotEmpty(t, msg["message"])
}

func TestClickEmitsSelection(t *testing.T) {
	srv, _ := newTestServer(t)
	conn := dial(t, srv, "")
	readUntil(t, conn, "ready")

	require.NoError(t, conn.WriteJSON(map[string]interface{}{
		"type": "code",
		"code": `<div style={{ padding: "10px" }}><p>hello</p></div>;`,
	}))
	readUntil(t, conn, "rendered")

	require.NoError(t, conn.WriteJSON(map[string]interface{}{
		"type": "click", "x": 15.0, "y": 15.0,
	}))

	sel := readUntil(t, conn, "select")
	assert.Equal(t, "p", sel["tag"])
	assert.Equal(t, "hello", sel["text"])
	assert.NotEmpty(t, sel["rid"])
}

func TestMutateThenSerializeRoundTrip(t *testing.T) {
	srv, _ := newTestServer(t)
	conn := dial(t, srv, "")
	readUntil(t, conn, "ready")

	require.NoError(t, conn.WriteJSON(map[string]interface{}{
		"type": "code",
		"code": `<div><p>before</p></div>;`,
	}))
	readUntil(t, conn, "rendered")

	require.NoError(t, conn.WriteJSON(map[string]interface{}{
		"type": "click", "x": 5.0, "y": 5.0,
	}))
	sel := readUntil(t, conn, "select")
	rid := sel["rid"].(string)

	require.NoError(t, conn.WriteJSON(map[string]interface{}{
		"type": "mutate", "rid": rid, "text": "after",
		"style": map[string]string{"color": "red"},
	}))
	require.NoError(t, conn.WriteJSON(map[string]interface{}{"type": "serialize"}))

	msg := readUntil(t, conn, "jsx")
	jsx := msg["jsx"].(string)
	assert.Contains(t, jsx, "after")
	assert.Contains(t, jsx, `color: "red"`)
	assert.NotContains(t, jsx, "data-rid")
}

func TestHydrateFromQueryParam(t *testing.T) {
	srv, store := newTestServer(t)
	seed, err := store.Create(context.Background(), `<p>persisted</p>;`)
	require.NoError(t, err)

	conn := dial(t, srv, "?component="+seed.ID)
	readUntil(t, conn, "ready")

	msg := readUntil(t, conn, "code")
	assert.Equal(t, `<p>persisted</p>;`, msg["code"])
	assert.Equal(t, "Saved", msg["label"])
}

func TestHydrateUnknownComponent(t *testing.T) {
	srv, _ := newTestServer(t)
	conn := dial(t, srv, "?component=missing")
	readUntil(t, conn, "ready")

	msg := readUntil(t, conn, "error")
	assert.Contains(t, msg["message"], "failed to load component")
}

func TestUnknownMessageType(t *testing.T) {
	srv, _ := newTestServer(t)
	conn := dial(t, srv, "")
	readUntil(t, conn, "ready")

	require.NoError(t, conn.WriteJSON(map[string]interface{}{"type": "bogus"}))
	msg := readUntil(t, conn, "error")
	assert.Equal(t, "unknown message type", msg["message"])
}
