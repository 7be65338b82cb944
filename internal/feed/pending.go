package feed

import "winspire.app/internal/protocol"

// A delta for a post id the engine has not seen yet. Events can race ahead
// of the baseline fetch or of the newPost broadcast; instead of silently
// dropping them, the engine parks up to pendingCap deltas per id and
// re-applies them in arrival order as soon as the post shows up.
type deltaKind int

const (
	deltaLikes deltaKind = iota + 1
	deltaComment
	deltaShares
)

type delta struct {
	kind    deltaKind
	likes   []string
	comment protocol.Comment
	shares  int
}

func (e *Engine) bufferLocked(postID string, d delta) {
	q := append(e.pending[postID], d)
	if len(q) > e.pendingCap {
		dropped := len(q) - e.pendingCap
		q = q[dropped:]
		e.log.Printf("pending overflow post=%s dropped=%d cap=%d", postID, dropped, e.pendingCap)
	}
	e.pending[postID] = q
}

func (e *Engine) flushPendingLocked(postID string) {
	q, ok := e.pending[postID]
	if !ok {
		return
	}
	delete(e.pending, postID)
	p := e.posts[postID]
	if p == nil {
		return
	}
	for _, d := range q {
		switch d.kind {
		case deltaLikes:
			p.Likes = dedupStrings(d.likes)
		case deltaComment:
			appendComment(p, d.comment)
		case deltaShares:
			p.Shares = d.shares
		}
	}
}

// pendingLen reports buffered deltas for a post id (test hook).
func (e *Engine) pendingLen(postID string) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.pending[postID])
}
