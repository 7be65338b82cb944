package session

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"winspire.app/internal/feed"
	"winspire.app/internal/protocol"
)

// Validation failures, surfaced before any optimistic mutation or network
// traffic happens.
var (
	ErrEmptyPost      = errors.New("post needs text or an image")
	ErrBodyTooLong    = errors.New("post body exceeds the platform limit")
	ErrEmptyComment   = errors.New("comment is empty")
	ErrCommentTooLong = errors.New("comment exceeds 500 characters")
)

// CreatePost applies the post optimistically under a temporary id, submits
// the write, and substitutes the server record on success. A failed write
// rolls the optimistic post back; the error is surfaced, not retried.
func (s *Session) CreatePost(ctx context.Context, content, image string) (protocol.Post, error) {
	if strings.TrimSpace(content) == "" && image == "" {
		return protocol.Post{}, ErrEmptyPost
	}
	if len([]rune(content)) > protocol.BodyLimit(s.platform) {
		return protocol.Post{}, fmt.Errorf("%w (%d)", ErrBodyTooLong, protocol.BodyLimit(s.platform))
	}

	token := uuid.NewString()
	s.engine.ApplyOptimistic(feed.PendingAction{
		Token:   token,
		Kind:    feed.ActionCreatePost,
		TempID:  "tmp-" + token,
		Content: content,
		Image:   image,
	})

	created, err := s.api.CreatePost(ctx, s.platform, content, image)
	if s.stale() {
		return created, err
	}
	if err != nil {
		s.engine.Rollback(token)
		return protocol.Post{}, fmt.Errorf("create post: %w", err)
	}
	s.engine.ResolveCreate(token, created)
	return created, nil
}

// ToggleLike flips the viewer's like immediately and fires the write. The
// authoritative liker set arrives via the postLiked broadcast; if neither
// the broadcast nor the write succeeds, the optimistic state stays (there
// is no rollback signal for this class of failure).
func (s *Session) ToggleLike(ctx context.Context, postID string) error {
	token := uuid.NewString()
	s.engine.ApplyOptimistic(feed.PendingAction{
		Token:  token,
		Kind:   feed.ActionToggleLike,
		PostID: postID,
	})

	err := s.api.LikePost(ctx, postID)
	if s.stale() {
		return err
	}
	s.engine.ResolveLike(token)
	if err != nil {
		return fmt.Errorf("like %s: %w", postID, err)
	}
	return nil
}

// PostComment appends the comment optimistically under a temporary id and
// replaces it with the server record on confirmation. Definitive failure
// rolls the temporary comment back.
func (s *Session) PostComment(ctx context.Context, postID, text string) (protocol.Comment, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return protocol.Comment{}, ErrEmptyComment
	}
	if len([]rune(text)) > protocol.CommentLimit {
		return protocol.Comment{}, ErrCommentTooLong
	}

	token := uuid.NewString()
	s.engine.ApplyOptimistic(feed.PendingAction{
		Token:  token,
		Kind:   feed.ActionComment,
		PostID: postID,
		TempID: "tmpc-" + token,
		Text:   text,
	})

	created, err := s.api.CommentPost(ctx, postID, text)
	if s.stale() {
		return created, err
	}
	if err != nil {
		s.engine.Rollback(token)
		return protocol.Comment{}, fmt.Errorf("comment on %s: %w", postID, err)
	}
	s.engine.ResolveComment(token, created)
	return created, nil
}

// SharePost is deliberately not optimistic: the count only moves once the
// server confirms, and the response carries the authoritative value.
func (s *Session) SharePost(ctx context.Context, postID string) (int, error) {
	shares, err := s.api.SharePost(ctx, postID)
	if err != nil {
		return 0, fmt.Errorf("share %s: %w", postID, err)
	}
	if s.stale() {
		return shares, nil
	}
	s.engine.MergeShares(postID, shares)
	return shares, nil
}
