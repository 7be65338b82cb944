// Package feed holds the reconciliation engine: one authoritative in-memory
// feed per platform, built from a baseline snapshot, a stream of push events
// and the user's own optimistic actions. Merge operations are idempotent and
// commutative where the data allows it, so any interleaving of inputs
// converges to the same state. The engine never returns errors for
// duplicate, out-of-order or unknown input; it degrades to a no-op.
package feed

import (
	"io"
	"log"
	"sync"
	"time"

	"winspire.app/internal/protocol"
)

const defaultPendingCap = 32

type Options struct {
	Platform string
	Self     protocol.Author // local identity, used for optimistic mutations
	// PendingCap bounds buffered deltas per unknown post id.
	PendingCap int
	Logger     *log.Logger
	Now        func() time.Time
}

type Engine struct {
	mu sync.Mutex

	platform string
	self     protocol.Author
	log      *log.Logger
	now      func() time.Time
	closed   bool

	order []string // post ids, newest first (arrival order)
	posts map[string]*protocol.Post

	pendingCap int
	pending    map[string][]delta

	actions map[string]*PendingAction
}

func New(opts Options) *Engine {
	if opts.PendingCap <= 0 {
		opts.PendingCap = defaultPendingCap
	}
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard, "", 0)
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Engine{
		platform:   opts.Platform,
		self:       opts.Self,
		log:        opts.Logger,
		now:        opts.Now,
		posts:      make(map[string]*protocol.Post),
		pendingCap: opts.PendingCap,
		pending:    make(map[string][]delta),
		actions:    make(map[string]*PendingAction),
	}
}

func (e *Engine) Platform() string { return e.platform }

// Close makes every later call a no-op. Stale completion callbacks from
// in-flight writes land here harmlessly after teardown.
func (e *Engine) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.closed = true
}

// LoadBaseline merges the one-shot snapshot into the feed. Entries already
// learned from events stay on top and are refreshed non-destructively; the
// baseline never evicts a known id. Calling it twice with the same snapshot
// is a no-op the second time.
func (e *Engine) LoadBaseline(posts []protocol.Post) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return
	}
	for _, p := range posts {
		if p.ID == "" {
			continue
		}
		if cur, ok := e.posts[p.ID]; ok {
			mergeInto(cur, p)
		} else {
			e.order = append(e.order, p.ID)
			e.posts[p.ID] = clonePost(p)
		}
		e.flushPendingLocked(p.ID)
	}
}

// MergePost inserts or updates a post by id. New ids prepend (newest-first
// arrival order); known ids merge non-destructively.
func (e *Engine) MergePost(p protocol.Post) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed || p.ID == "" {
		return
	}
	if cur, ok := e.posts[p.ID]; ok {
		mergeInto(cur, p)
	} else {
		e.order = append([]string{p.ID}, e.order...)
		e.posts[p.ID] = clonePost(p)
	}
	e.flushPendingLocked(p.ID)
}

// MergeLikes replaces the liker set verbatim; the server sends the full set
// on every like event. Unknown ids buffer until the post arrives.
func (e *Engine) MergeLikes(postID string, likes []string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed || postID == "" {
		return
	}
	if p, ok := e.posts[postID]; ok {
		p.Likes = dedupStrings(likes)
		return
	}
	e.bufferLocked(postID, delta{kind: deltaLikes, likes: cloneStrings(likes)})
}

// MergeComment appends a comment if its id is not already present under the
// post. Duplicate delivery is a no-op.
func (e *Engine) MergeComment(postID string, c protocol.Comment) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed || postID == "" || c.ID == "" {
		return
	}
	if p, ok := e.posts[postID]; ok {
		appendComment(p, c)
		return
	}
	e.bufferLocked(postID, delta{kind: deltaComment, comment: c})
}

// MergeShares replaces the share counter verbatim.
func (e *Engine) MergeShares(postID string, shares int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed || postID == "" || shares < 0 {
		return
	}
	if p, ok := e.posts[postID]; ok {
		p.Shares = shares
		return
	}
	e.bufferLocked(postID, delta{kind: deltaShares, shares: shares})
}

// Posts returns a copy of the feed, newest first.
func (e *Engine) Posts() []protocol.Post {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]protocol.Post, 0, len(e.order))
	for _, id := range e.order {
		out = append(out, *clonePost(*e.posts[id]))
	}
	return out
}

// Get returns a copy of one post.
func (e *Engine) Get(id string) (protocol.Post, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	p, ok := e.posts[id]
	if !ok {
		return protocol.Post{}, false
	}
	return *clonePost(*p), true
}

func (e *Engine) Len() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.order)
}

// mergeInto folds an incoming record into the current one. The stream
// carries both full-post broadcasts and partial deltas: a record that is a
// non-destructive full replica (comment count not lower, liker superset)
// replaces wholesale; anything else merges by union so a partial record can
// never truncate data a fuller one established.
func mergeInto(cur *protocol.Post, in protocol.Post) {
	if len(in.Comments) >= len(cur.Comments) && supersetOf(in.Likes, cur.Likes) {
		replica := clonePost(in)
		replica.Likes = dedupStrings(replica.Likes)
		*cur = *replica
		return
	}
	cur.Likes = unionStrings(cur.Likes, in.Likes)
	for _, c := range in.Comments {
		appendComment(cur, c)
	}
	if in.Shares > cur.Shares {
		cur.Shares = in.Shares
	}
	if cur.Content == "" {
		cur.Content = in.Content
	}
	if cur.Image == "" {
		cur.Image = in.Image
	}
	if cur.Author.ID == "" {
		cur.Author = in.Author
	}
	if cur.CreatedAt.IsZero() {
		cur.CreatedAt = in.CreatedAt
	}
}

func appendComment(p *protocol.Post, c protocol.Comment) {
	for _, have := range p.Comments {
		if have.ID == c.ID {
			return
		}
	}
	p.Comments = append(p.Comments, c)
}

func (e *Engine) removePostLocked(id string) {
	if _, ok := e.posts[id]; !ok {
		return
	}
	delete(e.posts, id)
	for i, v := range e.order {
		if v == id {
			e.order = append(e.order[:i], e.order[i+1:]...)
			break
		}
	}
}

func clonePost(p protocol.Post) *protocol.Post {
	cp := p
	cp.Likes = cloneStrings(p.Likes)
	cp.Comments = append([]protocol.Comment(nil), p.Comments...)
	if cp.Likes == nil {
		cp.Likes = []string{}
	}
	if cp.Comments == nil {
		cp.Comments = []protocol.Comment{}
	}
	return &cp
}

func cloneStrings(s []string) []string {
	if s == nil {
		return nil
	}
	return append([]string(nil), s...)
}

func dedupStrings(s []string) []string {
	out := make([]string, 0, len(s))
	seen := make(map[string]struct{}, len(s))
	for _, v := range s {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

func unionStrings(a, b []string) []string {
	out := dedupStrings(a)
	seen := make(map[string]struct{}, len(out))
	for _, v := range out {
		seen[v] = struct{}{}
	}
	for _, v := range b {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

func supersetOf(super, sub []string) bool {
	have := make(map[string]struct{}, len(super))
	for _, v := range super {
		have[v] = struct{}{}
	}
	for _, v := range sub {
		if _, ok := have[v]; !ok {
			return false
		}
	}
	return true
}

func containsString(s []string, v string) bool {
	for _, x := range s {
		if x == v {
			return true
		}
	}
	return false
}

func removeString(s []string, v string) []string {
	for i, x := range s {
		if x == v {
			return append(s[:i], s[i+1:]...)
		}
	}
	return s
}
