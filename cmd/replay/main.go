// Replays a feed journal through a fresh reconciliation engine and prints
// the resulting feed digest. Useful for reproducing merge bugs offline from
// a trace captured with `feedctl watch`.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"

	"winspire.app/internal/feed"
	"winspire.app/internal/journal"
	"winspire.app/internal/protocol"
)

func main() {
	var (
		path     = flag.String("journal", "", "path to .jsonl.zst journal")
		platform = flag.String("platform", protocol.PlatformInstagram, "platform tag for the engine")
		verbose  = flag.Bool("v", false, "print every record as it is applied")
	)
	flag.Parse()

	if *path == "" {
		fmt.Fprintln(os.Stderr, "missing -journal")
		os.Exit(2)
	}

	logger := log.New(os.Stderr, "[replay] ", log.LstdFlags)
	engine := feed.New(feed.Options{Platform: *platform, Logger: logger})

	var applied, skipped int
	err := journal.Read(*path, func(rec journal.Record) error {
		if *verbose {
			fmt.Printf("%s %s\n", rec.At.Format("15:04:05.000"), rec.Kind)
		}
		switch rec.Kind {
		case journal.KindBaseline:
			var posts []protocol.Post
			if err := json.Unmarshal(rec.Data, &posts); err != nil {
				return fmt.Errorf("baseline record: %w", err)
			}
			engine.LoadBaseline(posts)
		case protocol.TypeNewPost:
			var m protocol.NewPostMsg
			if err := json.Unmarshal(rec.Data, &m); err != nil {
				return fmt.Errorf("newPost record: %w", err)
			}
			engine.MergePost(m.Post)
		case protocol.TypePostLiked:
			var m protocol.PostLikedMsg
			if err := json.Unmarshal(rec.Data, &m); err != nil {
				return fmt.Errorf("postLiked record: %w", err)
			}
			engine.MergeLikes(m.PostID, m.Likes)
		case protocol.TypeNewComment:
			var m protocol.NewCommentMsg
			if err := json.Unmarshal(rec.Data, &m); err != nil {
				return fmt.Errorf("newComment record: %w", err)
			}
			engine.MergeComment(m.PostID, m.Comment)
		case protocol.TypePostShared:
			var m protocol.PostSharedMsg
			if err := json.Unmarshal(rec.Data, &m); err != nil {
				return fmt.Errorf("postShared record: %w", err)
			}
			engine.MergeShares(m.PostID, m.Shares)
		default:
			skipped++
			return nil
		}
		applied++
		return nil
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, "replay:", err)
		os.Exit(1)
	}

	posts := engine.Posts()
	fmt.Printf("replay ok: applied=%d skipped=%d posts=%d\n", applied, skipped, len(posts))
	for _, p := range posts {
		fmt.Printf("  %s @%s likes=%d comments=%d shares=%d\n",
			p.ID, p.Author.Username, len(p.Likes), len(p.Comments), p.Shares)
	}
}
