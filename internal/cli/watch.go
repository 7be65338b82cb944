package cli

import (
	"fmt"
	"log"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"winspire.app/internal/journal"
	"winspire.app/internal/protocol"
	"winspire.app/internal/push"
	"winspire.app/internal/session"
	"winspire.app/internal/view"
)

func NewWatchCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "watch",
		Short:         "Stream a platform feed live",
		Long:          "Loads the feed baseline, joins the push room, and prints every event as it is merged. Interrupt to dump the final reconciled feed.",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := rootOpts.loadConfig()
			if err != nil {
				return err
			}
			cred, err := rootOpts.credential()
			if err != nil {
				return err
			}

			logger := log.New(cmd.ErrOrStderr(), "[watch] ", log.LstdFlags)

			var jw *journal.Writer
			if cfg.Journal.Path != "" {
				jw, err = journal.NewWriter(cfg.Journal.Path)
				if err != nil {
					return fmt.Errorf("journal: %w", err)
				}
				defer jw.Close()
			}

			out := cmd.OutOrStdout()
			s, err := session.Start(session.Options{
				Config:     cfg,
				Credential: cred,
				Logger:     logger,
				Journal:    jw,
				OnEvent: func(ev push.Event) {
					switch ev.Kind {
					case protocol.TypeNewPost:
						fmt.Fprintf(out, "post %s by @%s: %s\n", ev.Post.ID, ev.Post.Author.Username, ev.Post.Content)
					case protocol.TypePostLiked:
						fmt.Fprintf(out, "likes %s: %d\n", ev.PostID, len(ev.Likes))
					case protocol.TypeNewComment:
						fmt.Fprintf(out, "comment %s by @%s: %s\n", ev.PostID, ev.Comment.User.Username, ev.Comment.Text)
					case protocol.TypePostShared:
						fmt.Fprintf(out, "shares %s: %d\n", ev.PostID, ev.Shares)
					}
				},
			})
			if err != nil {
				return err
			}
			defer s.Close()

			fmt.Fprintf(out, "watching %s as @%s\n", cfg.Platform, cred.User.Username)

			stop := make(chan os.Signal, 1)
			signal.Notify(stop, os.Interrupt)
			<-stop

			fmt.Fprintln(out)
			renderFeed(cmd, s.Feed())
			return nil
		},
	}
	return cmd
}

func renderFeed(cmd *cobra.Command, posts []view.PostView) {
	out := cmd.OutOrStdout()
	for _, p := range posts {
		liked := " "
		if p.LikedByMe {
			liked = "*"
		}
		fmt.Fprintf(out, "%s @%-15s %s (%s)\n", liked, p.Username, p.Content, p.When)
		fmt.Fprintf(out, "    %d likes, %d comments, %d shares\n", p.LikeCount, p.CommentCount, p.ShareCount)
		for _, c := range p.Comments {
			fmt.Fprintf(out, "    @%s: %s\n", c.Username, c.Text)
		}
	}
}
