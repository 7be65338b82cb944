package push

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"winspire.app/internal/protocol"
)

// pushServer is a minimal websocket endpoint that records the JOIN and lets
// the test feed frames to the client.
type pushServer struct {
	t        *testing.T
	upgrader websocket.Upgrader

	mu    sync.Mutex
	conns []*websocket.Conn
	rooms []string
	ready chan struct{}
}

func newPushServer(t *testing.T) (*pushServer, *httptest.Server) {
	ps := &pushServer{t: t, ready: make(chan struct{}, 8)}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := ps.upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		_, msg, err := conn.ReadMessage()
		if err != nil {
			return
		}
		var join protocol.JoinMsg
		require.NoError(t, json.Unmarshal(msg, &join))
		require.Equal(t, protocol.TypeJoin, join.Type)

		ps.mu.Lock()
		ps.conns = append(ps.conns, conn)
		ps.rooms = append(ps.rooms, join.Room)
		ps.mu.Unlock()
		ps.ready <- struct{}{}

		// Hold the connection open; the test drives writes.
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	t.Cleanup(srv.Close)
	return ps, srv
}

func (ps *pushServer) send(v any) {
	ps.mu.Lock()
	conn := ps.conns[len(ps.conns)-1]
	ps.mu.Unlock()
	require.NoError(ps.t, conn.WriteJSON(v))
}

func (ps *pushServer) dropClient() {
	ps.mu.Lock()
	conn := ps.conns[len(ps.conns)-1]
	ps.mu.Unlock()
	_ = conn.Close()
}

func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func waitEvent(t *testing.T, ch <-chan Event) Event {
	t.Helper()
	select {
	case ev, ok := <-ch:
		require.True(t, ok, "events channel closed early")
		return ev
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for event")
		return Event{}
	}
}

func TestSubscription_JoinsRoomAndDecodesEvents(t *testing.T) {
	ps, srv := newPushServer(t)

	sub, err := Open(Options{URL: wsURL(srv), Room: protocol.PlatformFacebook})
	require.NoError(t, err)
	defer sub.Close()
	<-ps.ready
	assert.Equal(t, []string{protocol.PlatformFacebook}, ps.rooms)

	ps.send(protocol.NewPostMsg{Type: protocol.TypeNewPost, Post: protocol.Post{ID: "p1", Platform: "facebook"}})
	ev := waitEvent(t, sub.Events())
	require.Equal(t, protocol.TypeNewPost, ev.Kind)
	assert.Equal(t, "p1", ev.Post.ID)

	ps.send(protocol.PostLikedMsg{Type: protocol.TypePostLiked, PostID: "p1", Likes: []string{"u1", "u2"}})
	ev = waitEvent(t, sub.Events())
	require.Equal(t, protocol.TypePostLiked, ev.Kind)
	assert.Equal(t, "p1", ev.PostID)
	assert.Equal(t, []string{"u1", "u2"}, ev.Likes)

	ps.send(protocol.NewCommentMsg{Type: protocol.TypeNewComment, PostID: "p1", Comment: protocol.Comment{ID: "c1", Text: "hi"}})
	ev = waitEvent(t, sub.Events())
	require.Equal(t, protocol.TypeNewComment, ev.Kind)
	assert.Equal(t, "c1", ev.Comment.ID)

	ps.send(protocol.PostSharedMsg{Type: protocol.TypePostShared, PostID: "p1", Shares: 4})
	ev = waitEvent(t, sub.Events())
	require.Equal(t, protocol.TypePostShared, ev.Kind)
	assert.Equal(t, 4, ev.Shares)
}

func TestSubscription_SkipsUnknownAndMalformedFrames(t *testing.T) {
	ps, srv := newPushServer(t)

	sub, err := Open(Options{URL: wsURL(srv), Room: protocol.PlatformTwitter})
	require.NoError(t, err)
	defer sub.Close()
	<-ps.ready

	ps.send(map[string]any{"type": "presence", "users": 3})
	ps.send(map[string]any{"type": "postLiked"}) // missing postId
	ps.send(protocol.PostSharedMsg{Type: protocol.TypePostShared, PostID: "p1", Shares: 1})

	ev := waitEvent(t, sub.Events())
	assert.Equal(t, protocol.TypePostShared, ev.Kind, "unknown frames skipped, stream continues")
}

func TestSubscription_ReconnectsAndRejoins(t *testing.T) {
	ps, srv := newPushServer(t)

	sub, err := Open(Options{
		URL:        wsURL(srv),
		Room:       protocol.PlatformInstagram,
		BackoffMin: 10 * time.Millisecond,
		BackoffMax: 50 * time.Millisecond,
	})
	require.NoError(t, err)
	defer sub.Close()
	<-ps.ready

	ps.dropClient()
	<-ps.ready // second connection joined the room again

	ps.mu.Lock()
	rooms := append([]string(nil), ps.rooms...)
	ps.mu.Unlock()
	assert.Equal(t, []string{protocol.PlatformInstagram, protocol.PlatformInstagram}, rooms)

	ps.send(protocol.PostSharedMsg{Type: protocol.TypePostShared, PostID: "p1", Shares: 2})
	ev := waitEvent(t, sub.Events())
	assert.Equal(t, protocol.TypePostShared, ev.Kind)
}

func TestSubscription_CloseExactlyOnce(t *testing.T) {
	ps, srv := newPushServer(t)

	sub, err := Open(Options{URL: wsURL(srv), Room: protocol.PlatformTwitter})
	require.NoError(t, err)
	<-ps.ready

	require.NoError(t, sub.Close())
	require.NoError(t, sub.Close(), "second close is a no-op, not a panic")

	select {
	case _, ok := <-sub.Events():
		assert.False(t, ok, "events channel closes after Close")
	case <-time.After(3 * time.Second):
		t.Fatal("events channel did not close")
	}
}

func TestBackoff_CapsAndResets(t *testing.T) {
	b := newBackoff(100*time.Millisecond, time.Second, 2)

	assert.Equal(t, 100*time.Millisecond, b.Next())
	assert.Equal(t, 200*time.Millisecond, b.Next())
	assert.Equal(t, 400*time.Millisecond, b.Next())
	assert.Equal(t, 800*time.Millisecond, b.Next())
	assert.Equal(t, time.Second, b.Next(), "capped at max")
	assert.Equal(t, time.Second, b.Next())

	b.Reset()
	assert.Equal(t, 100*time.Millisecond, b.Next())
}

func TestBackoff_Defaults(t *testing.T) {
	b := newBackoff(0, 0, 0)
	first := b.Next()
	assert.Equal(t, 500*time.Millisecond, first)
	last := first
	for i := 0; i < 10; i++ {
		last = b.Next()
	}
	assert.Equal(t, 30*time.Second, last)
}
