package feed

import "winspire.app/internal/protocol"

// ActionKind distinguishes optimistic mutations.
type ActionKind int

const (
	ActionCreatePost ActionKind = iota + 1
	ActionToggleLike
	ActionComment
)

// PendingAction is a local, not yet confirmed mutation, keyed by a
// client-generated correlation token. It lives until the matching server
// confirmation arrives or a definitive failure rolls it back.
type PendingAction struct {
	Token   string
	Kind    ActionKind
	PostID  string // target post for like/comment
	TempID  string // temporary post or comment id
	Content string
	Image   string
	Text    string

	// liked records the direction the optimistic toggle went, so a
	// rollback can invert it.
	liked bool
}

// ApplyOptimistic mutates the feed to reflect the user's own action with
// zero latency and records the action for later reconciliation. Returns
// false when the target post is unknown (the write may still be valid
// server-side; the caller decides whether to send it).
func (e *Engine) ApplyOptimistic(a PendingAction) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed || a.Token == "" {
		return false
	}
	switch a.Kind {
	case ActionCreatePost:
		if a.TempID == "" {
			return false
		}
		p := &protocol.Post{
			ID:        a.TempID,
			Platform:  e.platform,
			Author:    e.self,
			Content:   a.Content,
			Image:     a.Image,
			Likes:     []string{},
			Comments:  []protocol.Comment{},
			CreatedAt: e.now(),
		}
		e.order = append([]string{p.ID}, e.order...)
		e.posts[p.ID] = p
	case ActionToggleLike:
		p, ok := e.posts[a.PostID]
		if !ok {
			return false
		}
		if containsString(p.Likes, e.self.ID) {
			p.Likes = removeString(p.Likes, e.self.ID)
			a.liked = false
		} else {
			p.Likes = append(p.Likes, e.self.ID)
			a.liked = true
		}
	case ActionComment:
		p, ok := e.posts[a.PostID]
		if !ok || a.TempID == "" {
			return false
		}
		appendComment(p, protocol.Comment{
			ID:        a.TempID,
			User:      e.self,
			Text:      a.Text,
			CreatedAt: e.now(),
		})
	default:
		return false
	}
	e.actions[a.Token] = &a
	return true
}

// ResolveCreate substitutes the server-assigned post for the temporary one,
// in place, so the feed length and position do not change. If the newPost
// broadcast raced ahead and the server id is already present, the temporary
// entry is dropped instead of duplicating.
func (e *Engine) ResolveCreate(token string, confirmed protocol.Post) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return
	}
	a, ok := e.actions[token]
	if !ok || a.Kind != ActionCreatePost {
		return
	}
	delete(e.actions, token)
	if confirmed.ID == "" {
		return
	}

	if cur, dup := e.posts[confirmed.ID]; dup {
		e.removePostLocked(a.TempID)
		mergeInto(cur, confirmed)
		e.flushPendingLocked(confirmed.ID)
		return
	}

	temp, ok := e.posts[a.TempID]
	if !ok {
		// Temp entry gone (torn down or rolled back); just merge normally.
		e.order = append([]string{confirmed.ID}, e.order...)
		e.posts[confirmed.ID] = clonePost(confirmed)
		e.flushPendingLocked(confirmed.ID)
		return
	}

	merged := clonePost(confirmed)
	// Keep anything that landed on the temp entry in the meantime.
	merged.Likes = unionStrings(merged.Likes, temp.Likes)
	for _, c := range temp.Comments {
		appendComment(merged, c)
	}
	delete(e.posts, a.TempID)
	e.posts[confirmed.ID] = merged
	for i, id := range e.order {
		if id == a.TempID {
			e.order[i] = confirmed.ID
			break
		}
	}
	e.flushPendingLocked(confirmed.ID)
}

// ResolveComment substitutes the server comment for the temporary one under
// its post, in place.
func (e *Engine) ResolveComment(token string, confirmed protocol.Comment) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return
	}
	a, ok := e.actions[token]
	if !ok || a.Kind != ActionComment {
		return
	}
	delete(e.actions, token)
	p, ok := e.posts[a.PostID]
	if !ok || confirmed.ID == "" {
		return
	}
	for i, c := range p.Comments {
		if c.ID == confirmed.ID {
			// Broadcast raced ahead; drop the temp duplicate.
			e.removeCommentLocked(p, a.TempID)
			return
		}
		if c.ID == a.TempID {
			p.Comments[i] = confirmed
			return
		}
	}
}

// ResolveLike discards the pending like action. The authoritative liker set
// arrives via the postLiked broadcast, not the write response.
func (e *Engine) ResolveLike(token string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return
	}
	delete(e.actions, token)
}

// Rollback undoes an optimistic mutation after a definitive failure.
func (e *Engine) Rollback(token string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return
	}
	a, ok := e.actions[token]
	if !ok {
		return
	}
	delete(e.actions, token)
	switch a.Kind {
	case ActionCreatePost:
		e.removePostLocked(a.TempID)
	case ActionComment:
		if p, ok := e.posts[a.PostID]; ok {
			e.removeCommentLocked(p, a.TempID)
		}
	case ActionToggleLike:
		p, ok := e.posts[a.PostID]
		if !ok {
			return
		}
		if a.liked {
			p.Likes = removeString(p.Likes, e.self.ID)
		} else if !containsString(p.Likes, e.self.ID) {
			p.Likes = append(p.Likes, e.self.ID)
		}
	}
}

func (e *Engine) removeCommentLocked(p *protocol.Post, commentID string) {
	for i, c := range p.Comments {
		if c.ID == commentID {
			p.Comments = append(p.Comments[:i], p.Comments[i+1:]...)
			return
		}
	}
}

// pendingActions reports unresolved actions (test hook).
func (e *Engine) pendingActions() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.actions)
}
