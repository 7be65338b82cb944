// Package push wraps the websocket push channel: it joins exactly one
// platform room on connect and exposes the four feed event kinds as a typed
// channel. The connection redials with capped exponential backoff after a
// transport drop; teardown happens exactly once.
package push

import (
	"encoding/json"
	"io"
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"winspire.app/internal/protocol"
)

// Event is one decoded push event. Kind selects which fields are set.
type Event struct {
	Kind    string
	Post    *protocol.Post    // newPost
	PostID  string            // postLiked, newComment, postShared
	Likes   []string          // postLiked
	Comment *protocol.Comment // newComment
	Shares  int               // postShared
}

type Options struct {
	URL  string // ws:// or wss:// endpoint
	Room string // platform room to join

	Dialer     *websocket.Dialer
	Logger     *log.Logger
	BufferSize int

	BackoffMin    time.Duration
	BackoffMax    time.Duration
	BackoffFactor float64
}

type Subscription struct {
	opts Options
	log  *log.Logger

	events chan Event
	done   chan struct{}
	once   sync.Once

	mu   sync.Mutex
	conn *websocket.Conn
}

// Open dials the push endpoint, joins the room, and starts the reader. A
// failure to establish the first connection is returned synchronously;
// later drops are handled by the reconnect loop.
func Open(opts Options) (*Subscription, error) {
	if opts.Dialer == nil {
		opts.Dialer = websocket.DefaultDialer
	}
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard, "", 0)
	}
	if opts.BufferSize <= 0 {
		opts.BufferSize = 64
	}
	s := &Subscription{
		opts:   opts,
		log:    opts.Logger,
		events: make(chan Event, opts.BufferSize),
		done:   make(chan struct{}),
	}
	conn, err := s.connect()
	if err != nil {
		return nil, err
	}
	s.setConn(conn)
	go s.run(conn)
	return s, nil
}

// Events delivers decoded push events. The channel closes after Close;
// transport drops do not close it, redialing continues until then.
func (s *Subscription) Events() <-chan Event { return s.events }

// Close tears the subscription down exactly once. Safe to call from any
// goroutine, including re-entrantly.
func (s *Subscription) Close() error {
	s.once.Do(func() {
		close(s.done)
		s.mu.Lock()
		conn := s.conn
		s.mu.Unlock()
		if conn != nil {
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(time.Second))
			_ = conn.Close()
		}
	})
	return nil
}

func (s *Subscription) connect() (*websocket.Conn, error) {
	conn, _, err := s.opts.Dialer.Dial(s.opts.URL, nil)
	if err != nil {
		return nil, err
	}
	join := protocol.JoinMsg{Type: protocol.TypeJoin, Room: s.opts.Room}
	_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
	if err := conn.WriteJSON(join); err != nil {
		_ = conn.Close()
		return nil, err
	}
	_ = conn.SetWriteDeadline(time.Time{})
	return conn, nil
}

func (s *Subscription) setConn(conn *websocket.Conn) {
	s.mu.Lock()
	s.conn = conn
	s.mu.Unlock()
}

func (s *Subscription) run(conn *websocket.Conn) {
	defer close(s.events)
	bo := newBackoff(s.opts.BackoffMin, s.opts.BackoffMax, s.opts.BackoffFactor)

	for {
		s.readLoop(conn)
		_ = conn.Close()

		// Reconnect unless the session ended.
		for {
			select {
			case <-s.done:
				return
			default:
			}
			delay := bo.Next()
			s.log.Printf("reconnect room=%s in %s", s.opts.Room, delay)
			select {
			case <-s.done:
				return
			case <-time.After(delay):
			}
			next, err := s.connect()
			if err != nil {
				s.log.Printf("redial: %v", err)
				continue
			}
			bo.Reset()
			conn = next
			s.setConn(next)
			break
		}
	}
}

func (s *Subscription) readLoop(conn *websocket.Conn) {
	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			return
		}
		ev, ok := decode(msg)
		if !ok {
			continue
		}
		select {
		case <-s.done:
			return
		case s.events <- ev:
		}
	}
}

func decode(msg []byte) (Event, bool) {
	base, err := protocol.DecodeBase(msg)
	if err != nil {
		return Event{}, false
	}
	switch base.Type {
	case protocol.TypeNewPost:
		var m protocol.NewPostMsg
		if err := json.Unmarshal(msg, &m); err != nil || m.Post.ID == "" {
			return Event{}, false
		}
		return Event{Kind: base.Type, Post: &m.Post}, true
	case protocol.TypePostLiked:
		var m protocol.PostLikedMsg
		if err := json.Unmarshal(msg, &m); err != nil || m.PostID == "" {
			return Event{}, false
		}
		return Event{Kind: base.Type, PostID: m.PostID, Likes: m.Likes}, true
	case protocol.TypeNewComment:
		var m protocol.NewCommentMsg
		if err := json.Unmarshal(msg, &m); err != nil || m.PostID == "" {
			return Event{}, false
		}
		return Event{Kind: base.Type, PostID: m.PostID, Comment: &m.Comment}, true
	case protocol.TypePostShared:
		var m protocol.PostSharedMsg
		if err := json.Unmarshal(msg, &m); err != nil || m.PostID == "" {
			return Event{}, false
		}
		return Event{Kind: base.Type, PostID: m.PostID, Shares: m.Shares}, true
	}
	return Event{}, false
}
