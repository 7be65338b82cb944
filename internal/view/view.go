// Package view projects engine state into render-ready models. Pure
// functions, no state: the engine owns the feed, this package only formats.
package view

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"

	"winspire.app/internal/protocol"
)

// Style selects the timestamp format. Instagram and Twitter use the compact
// "now/5h/2d" form; Facebook spells it out.
type Style int

const (
	StyleCompact Style = iota
	StyleVerbose
)

func PlatformStyle(platform string) Style {
	if platform == protocol.PlatformFacebook {
		return StyleVerbose
	}
	return StyleCompact
}

type CommentView struct {
	ID       string
	Username string
	FullName string
	Text     string
	When     string
}

type PostView struct {
	ID           string
	Username     string
	FullName     string
	Content      string
	Image        string
	When         string
	LikeCount    int
	LikedByMe    bool
	CommentCount int
	Comments     []CommentView
	ShareCount   int
}

// Project builds the view model for one post as seen by viewerID.
func Project(p protocol.Post, viewerID string, style Style) PostView {
	return projectAt(p, viewerID, style, time.Now())
}

func projectAt(p protocol.Post, viewerID string, style Style, now time.Time) PostView {
	v := PostView{
		ID:           p.ID,
		Username:     p.Author.Username,
		FullName:     p.Author.FullName,
		Content:      p.Content,
		Image:        p.Image,
		When:         timeAgoAt(p.CreatedAt, style, now),
		LikeCount:    len(p.Likes),
		CommentCount: len(p.Comments),
		ShareCount:   p.Shares,
	}
	for _, id := range p.Likes {
		if id == viewerID {
			v.LikedByMe = true
			break
		}
	}
	for _, c := range p.Comments {
		v.Comments = append(v.Comments, CommentView{
			ID:       c.ID,
			Username: c.User.Username,
			FullName: c.User.FullName,
			Text:     c.Text,
			When:     timeAgoAt(c.CreatedAt, style, now),
		})
	}
	return v
}

// ProjectFeed projects a whole feed, newest first.
func ProjectFeed(posts []protocol.Post, viewerID string, style Style) []PostView {
	out := make([]PostView, 0, len(posts))
	for _, p := range posts {
		out = append(out, Project(p, viewerID, style))
	}
	return out
}

// TimeAgo formats a timestamp for display. Timestamps are display-only;
// they never drive ordering.
func TimeAgo(t time.Time, style Style) string {
	return timeAgoAt(t, style, time.Now())
}

func timeAgoAt(t time.Time, style Style, now time.Time) string {
	if style == StyleVerbose {
		return humanize.RelTime(t, now, "ago", "from now")
	}
	d := now.Sub(t)
	switch {
	case d < time.Hour:
		return "now"
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh", int(d.Hours()))
	default:
		return fmt.Sprintf("%dd", int(d.Hours())/24)
	}
}
