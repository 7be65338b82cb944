// Package session owns one feed session: it constructs the engine, loads
// the baseline, pumps push events into the engine, and exposes the
// interaction dispatcher for the user's own writes. One Session per
// platform per login; dispose with Close on logout or navigation away.
package session

import (
	"context"
	"errors"
	"io"
	"log"
	"sync"

	"winspire.app/internal/api"
	"winspire.app/internal/config"
	"winspire.app/internal/feed"
	"winspire.app/internal/journal"
	"winspire.app/internal/protocol"
	"winspire.app/internal/push"
	"winspire.app/internal/view"
)

// ErrNoCredential is a construction precondition failure: the session
// collaborator must supply a bearer token and identity first. Not retried.
var ErrNoCredential = errors.New("session: missing bearer credential or identity")

type Options struct {
	Config     config.Config
	Credential api.Session // token + display identity, from login/register

	Logger  *log.Logger
	Journal *journal.Writer // optional diagnostic trace; caller keeps ownership

	// OnEvent, when set, observes every push event after it has been
	// merged into the engine.
	OnEvent func(push.Event)

	// Client overrides the REST client (tests).
	Client *api.Client
}

type Session struct {
	platform string
	self     protocol.Author
	log      *log.Logger

	engine  *feed.Engine
	api     *api.Client
	sub     *push.Subscription
	journal *journal.Writer
	onEvent func(push.Event)

	mu     sync.Mutex
	closed bool
	once   sync.Once
	wg     sync.WaitGroup
}

// Start validates the credential, opens the push subscription, and kicks
// off the baseline fetch. The baseline and the event stream race; the
// engine is built to converge either way.
func Start(opts Options) (*Session, error) {
	if opts.Credential.Token == "" || opts.Credential.User.ID == "" {
		return nil, ErrNoCredential
	}
	cfg := opts.Config
	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard, "", 0)
	}

	client := opts.Client
	if client == nil {
		client = api.New(cfg.APIBaseURL, opts.Credential.Token)
	}

	s := &Session{
		platform: cfg.Platform,
		self:     opts.Credential.User,
		log:      opts.Logger,
		api:      client,
		journal:  opts.Journal,
		onEvent:  opts.OnEvent,
		engine: feed.New(feed.Options{
			Platform:   cfg.Platform,
			Self:       opts.Credential.User,
			PendingCap: cfg.PendingCap,
			Logger:     opts.Logger,
		}),
	}

	sub, err := push.Open(push.Options{
		URL:           cfg.PushURL,
		Room:          cfg.Platform,
		Logger:        opts.Logger,
		BackoffMin:    cfg.Reconnect.MinDelay(),
		BackoffMax:    cfg.Reconnect.MaxDelay(),
		BackoffFactor: cfg.Reconnect.Factor,
	})
	if err != nil {
		return nil, err
	}
	s.sub = sub

	s.wg.Add(2)
	go s.pump()
	go s.loadBaseline()
	return s, nil
}

// Close tears the session down exactly once: subscription first, then the
// engine. Afterwards every engine mutation, including stale completion
// callbacks from in-flight writes, is a defined no-op.
func (s *Session) Close() {
	s.once.Do(func() {
		s.mu.Lock()
		s.closed = true
		s.mu.Unlock()
		_ = s.sub.Close()
		s.wg.Wait()
		s.engine.Close()
	})
}

func (s *Session) stale() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// Posts returns the raw reconciled feed, newest first.
func (s *Session) Posts() []protocol.Post { return s.engine.Posts() }

// Feed returns the render-ready projection for the session's viewer.
func (s *Session) Feed() []view.PostView {
	return view.ProjectFeed(s.engine.Posts(), s.self.ID, view.PlatformStyle(s.platform))
}

func (s *Session) Self() protocol.Author { return s.self }
func (s *Session) Platform() string      { return s.platform }

func (s *Session) pump() {
	defer s.wg.Done()
	for ev := range s.sub.Events() {
		s.apply(ev)
		if s.onEvent != nil {
			s.onEvent(ev)
		}
	}
}

func (s *Session) apply(ev push.Event) {
	switch ev.Kind {
	case protocol.TypeNewPost:
		// The room is platform-scoped already; the tag check guards
		// against misrouted broadcasts.
		if ev.Post.Platform != "" && ev.Post.Platform != s.platform {
			return
		}
		s.record(ev.Kind, protocol.NewPostMsg{Type: ev.Kind, Post: *ev.Post})
		s.engine.MergePost(*ev.Post)
	case protocol.TypePostLiked:
		s.record(ev.Kind, protocol.PostLikedMsg{Type: ev.Kind, PostID: ev.PostID, Likes: ev.Likes})
		s.engine.MergeLikes(ev.PostID, ev.Likes)
	case protocol.TypeNewComment:
		s.record(ev.Kind, protocol.NewCommentMsg{Type: ev.Kind, PostID: ev.PostID, Comment: *ev.Comment})
		s.engine.MergeComment(ev.PostID, *ev.Comment)
	case protocol.TypePostShared:
		s.record(ev.Kind, protocol.PostSharedMsg{Type: ev.Kind, PostID: ev.PostID, Shares: ev.Shares})
		s.engine.MergeShares(ev.PostID, ev.Shares)
	}
}

func (s *Session) loadBaseline() {
	defer s.wg.Done()
	posts, err := s.api.Posts(context.Background(), s.platform)
	if err != nil {
		// The feed stays event-driven; merges buffer against ids the
		// baseline would have provided.
		s.log.Printf("baseline %s: %v", s.platform, err)
		return
	}
	if s.stale() {
		return
	}
	s.record(journal.KindBaseline, posts)
	s.engine.LoadBaseline(posts)
}

func (s *Session) record(kind string, v any) {
	if s.journal == nil {
		return
	}
	if err := s.journal.Write(kind, v); err != nil {
		s.log.Printf("journal %s: %v", kind, err)
	}
}
