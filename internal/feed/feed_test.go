package feed

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"winspire.app/internal/protocol"
)

var (
	self  = protocol.Author{ID: "me", Username: "me", FullName: "Me"}
	alice = protocol.Author{ID: "u1", Username: "alice", FullName: "Alice"}
)

func newEngine(t *testing.T) *Engine {
	t.Helper()
	return New(Options{
		Platform: protocol.PlatformInstagram,
		Self:     self,
		Now:      func() time.Time { return time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC) },
	})
}

func post(id string) protocol.Post {
	return protocol.Post{
		ID:        id,
		Platform:  protocol.PlatformInstagram,
		Author:    alice,
		Content:   "content of " + id,
		Likes:     []string{},
		Comments:  []protocol.Comment{},
		CreatedAt: time.Date(2025, 4, 30, 9, 0, 0, 0, time.UTC),
	}
}

func comment(id, text string) protocol.Comment {
	return protocol.Comment{ID: id, User: alice, Text: text, CreatedAt: time.Date(2025, 4, 30, 10, 0, 0, 0, time.UTC)}
}

func ids(posts []protocol.Post) []string {
	out := make([]string, len(posts))
	for i, p := range posts {
		out[i] = p.ID
	}
	return out
}

func TestLoadBaseline_Idempotent(t *testing.T) {
	e := newEngine(t)
	snap := []protocol.Post{post("p1"), post("p2"), post("p3")}

	e.LoadBaseline(snap)
	once := e.Posts()

	e.LoadBaseline(snap)
	twice := e.Posts()

	assert.Equal(t, once, twice)
	assert.Equal(t, []string{"p1", "p2", "p3"}, ids(twice))
}

func TestLoadBaseline_KeepsEventMergedEntriesOnTop(t *testing.T) {
	e := newEngine(t)

	// Events raced ahead of the baseline fetch.
	e.MergePost(post("p9"))
	e.LoadBaseline([]protocol.Post{post("p1"), post("p2")})

	assert.Equal(t, []string{"p9", "p1", "p2"}, ids(e.Posts()))
}

func TestLoadBaseline_NeverEvictsKnownID(t *testing.T) {
	e := newEngine(t)
	e.MergePost(post("p1"))
	e.MergeComment("p1", comment("c1", "hi"))

	// Baseline snapshot is older: no comment on p1 yet.
	e.LoadBaseline([]protocol.Post{post("p1")})

	p, ok := e.Get("p1")
	require.True(t, ok)
	require.Len(t, p.Comments, 1)
	assert.Equal(t, "c1", p.Comments[0].ID)
}

func TestMergePost_NoDuplicateIDs(t *testing.T) {
	e := newEngine(t)
	e.LoadBaseline([]protocol.Post{post("p1"), post("p2")})
	e.MergePost(post("p1"))
	e.MergePost(post("p3"))
	e.MergePost(post("p3"))
	e.LoadBaseline([]protocol.Post{post("p1"), post("p2")})

	got := ids(e.Posts())
	seen := map[string]bool{}
	for _, id := range got {
		require.False(t, seen[id], "duplicate id %s in %v", id, got)
		seen[id] = true
	}
	assert.Equal(t, []string{"p3", "p1", "p2"}, got)
}

func TestMergePost_PrependsNewest(t *testing.T) {
	e := newEngine(t)
	e.MergePost(post("p1"))
	e.MergePost(post("p2"))
	assert.Equal(t, []string{"p2", "p1"}, ids(e.Posts()))
}

func TestMergePost_PartialDeltaNeverTruncates(t *testing.T) {
	e := newEngine(t)
	full := post("p1")
	full.Likes = []string{"u1", "u2"}
	full.Comments = []protocol.Comment{comment("c1", "one"), comment("c2", "two")}
	e.MergePost(full)

	// A sparse re-broadcast of the same post must not drop anything.
	sparse := post("p1")
	sparse.Likes = []string{"u3"}
	sparse.Comments = []protocol.Comment{comment("c1", "one")}
	e.MergePost(sparse)

	p, _ := e.Get("p1")
	assert.ElementsMatch(t, []string{"u1", "u2", "u3"}, p.Likes)
	require.Len(t, p.Comments, 2)
}

func TestMergePost_FullReplicaReplacesWholesale(t *testing.T) {
	e := newEngine(t)
	old := post("p1")
	old.Likes = []string{"u1"}
	old.Comments = []protocol.Comment{comment("c1", "one")}
	old.Shares = 2
	e.MergePost(old)

	replica := post("p1")
	replica.Content = "edited"
	replica.Likes = []string{"u1", "u2"}
	replica.Comments = []protocol.Comment{comment("c1", "one"), comment("c2", "two")}
	replica.Shares = 5
	e.MergePost(replica)

	p, _ := e.Get("p1")
	assert.Equal(t, "edited", p.Content)
	assert.Equal(t, []string{"u1", "u2"}, p.Likes)
	assert.Equal(t, 5, p.Shares)
}

func TestMergeLikes_VerbatimReplace(t *testing.T) {
	e := newEngine(t)
	e.MergePost(post("p1"))

	e.MergeLikes("p1", []string{"u1", "u2"})
	e.MergeLikes("p1", []string{"u3"})

	p, _ := e.Get("p1")
	assert.Equal(t, []string{"u3"}, p.Likes, "second set replaces, not unions")

	// Server set may legitimately shrink to empty (unlike).
	e.MergeLikes("p1", []string{})
	p, _ = e.Get("p1")
	assert.Empty(t, p.Likes)
}

func TestMergeLikes_DedupesDeliveredSet(t *testing.T) {
	e := newEngine(t)
	e.MergePost(post("p1"))
	e.MergeLikes("p1", []string{"u1", "u1", "u2"})
	p, _ := e.Get("p1")
	assert.Equal(t, []string{"u1", "u2"}, p.Likes)
}

func TestMergeComment_AppendOnlyAndDedup(t *testing.T) {
	e := newEngine(t)
	e.MergePost(post("p1"))

	e.MergeComment("p1", comment("c1", "hi"))
	e.MergeComment("p1", comment("c1", "hi")) // duplicate delivery
	e.MergeComment("p1", comment("c2", "yo"))

	p, _ := e.Get("p1")
	require.Len(t, p.Comments, 2)
	assert.Equal(t, "c1", p.Comments[0].ID)
	assert.Equal(t, "c2", p.Comments[1].ID)

	// No later merge removes c1.
	e.MergeLikes("p1", []string{"u5"})
	e.MergeShares("p1", 3)
	e.LoadBaseline([]protocol.Post{post("p1")})
	p, _ = e.Get("p1")
	require.Len(t, p.Comments, 2)
}

func TestMergeShares_VerbatimReplace(t *testing.T) {
	e := newEngine(t)
	e.MergePost(post("p1"))
	e.MergeShares("p1", 7)
	e.MergeShares("p1", 4)
	p, _ := e.Get("p1")
	assert.Equal(t, 4, p.Shares)
}

func TestScenario_EmptyBaselineThenDeltas(t *testing.T) {
	e := newEngine(t)
	e.LoadBaseline(nil)
	e.MergePost(post("p1"))
	e.MergeLikes("p1", []string{"u9"})
	e.MergeComment("p1", comment("c1", "hi"))

	posts := e.Posts()
	require.Len(t, posts, 1)
	assert.Equal(t, "p1", posts[0].ID)
	assert.Equal(t, []string{"u9"}, posts[0].Likes)
	require.Len(t, posts[0].Comments, 1)
	assert.Equal(t, "c1", posts[0].Comments[0].ID)
}

func TestInterleavings_Converge(t *testing.T) {
	like := func(e *Engine) { e.MergeLikes("p1", []string{"u9"}) }
	cmt := func(e *Engine) { e.MergeComment("p1", comment("c1", "hi")) }
	shr := func(e *Engine) { e.MergeShares("p1", 2) }
	pst := func(e *Engine) { e.MergePost(post("p1")) }
	base := func(e *Engine) { e.LoadBaseline([]protocol.Post{post("p1")}) }

	orders := [][]func(*Engine){
		{base, pst, like, cmt, shr},
		{like, cmt, shr, pst, base},
		{shr, base, cmt, like, pst},
		{pst, like, base, shr, cmt},
	}

	var want []protocol.Post
	for i, ops := range orders {
		e := newEngine(t)
		for _, op := range ops {
			op(e)
		}
		got := e.Posts()
		if i == 0 {
			want = got
			continue
		}
		assert.Equal(t, want, got, "order %d diverged", i)
	}
}

func TestClosedEngine_AllOpsNoOp(t *testing.T) {
	e := newEngine(t)
	e.MergePost(post("p1"))
	e.Close()

	e.MergePost(post("p2"))
	e.MergeLikes("p1", []string{"u1"})
	e.MergeComment("p1", comment("c1", "hi"))
	e.MergeShares("p1", 9)
	e.LoadBaseline([]protocol.Post{post("p3")})
	ok := e.ApplyOptimistic(PendingAction{Token: "t", Kind: ActionCreatePost, TempID: "tmp"})

	assert.False(t, ok)
	assert.Equal(t, []string{"p1"}, ids(e.Posts()))
	p, _ := e.Get("p1")
	assert.Empty(t, p.Likes)
	assert.Equal(t, 0, p.Shares)
}

func TestPosts_ReturnsCopies(t *testing.T) {
	e := newEngine(t)
	src := post("p1")
	src.Likes = []string{"u1"}
	e.MergePost(src)

	got := e.Posts()
	got[0].Likes[0] = "mutated"
	got[0].Content = "mutated"

	p, _ := e.Get("p1")
	assert.Equal(t, []string{"u1"}, p.Likes)
	assert.Equal(t, "content of p1", p.Content)
}

func TestLargeFeed_OrderStable(t *testing.T) {
	e := newEngine(t)
	var snap []protocol.Post
	for i := 0; i < 100; i++ {
		snap = append(snap, post(fmt.Sprintf("p%03d", i)))
	}
	e.LoadBaseline(snap)
	e.MergePost(post("fresh"))
	got := ids(e.Posts())
	require.Len(t, got, 101)
	assert.Equal(t, "fresh", got[0])
	assert.Equal(t, "p000", got[1])
	assert.Equal(t, "p099", got[100])
}
