package live

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/kuzowebsite/ider-surver/model"
	"github.com/kuzowebsite/ider-surver/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type received struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

func dial(t *testing.T, h *Hub) *websocket.Conn {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(h.ServeWS))
	t.Cleanup(srv.Close)

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func start(t *testing.T, s store.Store) *Hub {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	h := NewHub(s)
	go h.Run(ctx)
	return h
}

// next reads messages until one of the wanted type satisfies ok.
func next(t *testing.T, conn *websocket.Conn, kind string, ok func(json.RawMessage) bool) json.RawMessage {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(3 * time.Second))
	for {
		var msg received
		require.NoError(t, conn.ReadJSON(&msg))
		if msg.Type == kind && ok(msg.Payload) {
			return msg.Payload
		}
	}
}

func TestSnapshotsFollowSubmissions(t *testing.T) {
	m := store.NewMemory()
	h := start(t, m)
	conn := dial(t, h)

	count := func(n int) func(json.RawMessage) bool {
		return func(raw json.RawMessage) bool {
			var snap Snapshot
			return json.Unmarshal(raw, &snap) == nil && len(snap.Submissions) == n
		}
	}
	next(t, conn, "snapshot", count(0))

	older := time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)
	for i, ts := range []time.Time{older, older.Add(time.Hour)} {
		_, err := m.PushSubmission(context.Background(), model.Submission{
			Answers:   map[int]model.Answer{1: {Type: model.Single, Records: []model.AnswerRecord{{OptionID: i + 1, Text: "x"}}}},
			Timestamp: ts,
			Device:    model.NewDevice(400, 800),
		})
		require.NoError(t, err)
	}

	var snap Snapshot
	require.NoError(t, json.Unmarshal(next(t, conn, "snapshot", count(2)), &snap))
	assert.True(t, snap.Submissions[0].Timestamp.After(snap.Submissions[1].Timestamp), "newest first")
	assert.Equal(t, 2, snap.Stats.TotalSubmissions)
	assert.Equal(t, 2, snap.Stats.MobileSubmissions)
}

func TestSubscriptionFailureIsReported(t *testing.T) {
	h := start(t, store.Unavailable{Reason: "not configured"})
	conn := dial(t, h)

	payload := next(t, conn, "error", func(json.RawMessage) bool { return true })
	assert.Contains(t, string(payload), "not configured")
}
