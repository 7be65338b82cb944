package view

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"winspire.app/internal/protocol"
)

var now = time.Date(2025, 5, 2, 12, 0, 0, 0, time.UTC)

func TestTimeAgo_Compact(t *testing.T) {
	cases := []struct {
		at   time.Time
		want string
	}{
		{now.Add(-30 * time.Second), "now"},
		{now.Add(-59 * time.Minute), "now"},
		{now.Add(-90 * time.Minute), "1h"},
		{now.Add(-5 * time.Hour), "5h"},
		{now.Add(-23 * time.Hour), "23h"},
		{now.Add(-25 * time.Hour), "1d"},
		{now.Add(-50 * time.Hour), "2d"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, timeAgoAt(tc.at, StyleCompact, now), "at %s", tc.at)
	}
}

func TestTimeAgo_Verbose(t *testing.T) {
	got := timeAgoAt(now.Add(-2*time.Hour), StyleVerbose, now)
	assert.Contains(t, got, "ago")
}

func TestPlatformStyle(t *testing.T) {
	assert.Equal(t, StyleVerbose, PlatformStyle(protocol.PlatformFacebook))
	assert.Equal(t, StyleCompact, PlatformStyle(protocol.PlatformInstagram))
	assert.Equal(t, StyleCompact, PlatformStyle(protocol.PlatformTwitter))
}

func TestProject_LikedByMe(t *testing.T) {
	p := protocol.Post{
		ID:        "p1",
		Author:    protocol.Author{Username: "ada", FullName: "Ada L"},
		Content:   "hi",
		Likes:     []string{"u1", "u2"},
		Comments:  []protocol.Comment{{ID: "c1", User: protocol.Author{Username: "grace"}, Text: "yo", CreatedAt: now.Add(-time.Hour)}},
		Shares:    3,
		CreatedAt: now.Add(-5 * time.Hour),
	}

	v := projectAt(p, "u2", StyleCompact, now)
	assert.True(t, v.LikedByMe)
	assert.Equal(t, 2, v.LikeCount)
	assert.Equal(t, 1, v.CommentCount)
	assert.Equal(t, 3, v.ShareCount)
	assert.Equal(t, "5h", v.When)
	assert.Equal(t, "grace", v.Comments[0].Username)

	v = projectAt(p, "u9", StyleCompact, now)
	assert.False(t, v.LikedByMe)
}

func TestProjectFeed_PreservesOrder(t *testing.T) {
	posts := []protocol.Post{{ID: "b"}, {ID: "a"}}
	vs := ProjectFeed(posts, "", StyleCompact)
	assert.Equal(t, "b", vs[0].ID)
	assert.Equal(t, "a", vs[1].ID)
}
