package cli

import (
	"encoding/base64"
	"fmt"
	"mime"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"winspire.app/internal/protocol"
)

func NewPostCommand(rootOpts *RootOptions) *cobra.Command {
	var content, imageFile string

	cmd := &cobra.Command{
		Use:           "post",
		Short:         "Create a post",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, cfg, err := rootOpts.client()
			if err != nil {
				return err
			}
			if limit := protocol.BodyLimit(cfg.Platform); len([]rune(content)) > limit {
				return fmt.Errorf("body exceeds %d characters for %s", limit, cfg.Platform)
			}
			image := ""
			if imageFile != "" {
				image, err = encodeImage(imageFile)
				if err != nil {
					return err
				}
			}
			if content == "" && image == "" {
				return fmt.Errorf("nothing to post: provide --content or --image")
			}
			p, err := client.CreatePost(cmd.Context(), cfg.Platform, content, image)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created %s\n", p.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&content, "content", "", "post body")
	cmd.Flags().StringVar(&imageFile, "image", "", "image file to attach (encoded as a data URL)")
	return cmd
}

func NewLikeCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "like <post-id>",
		Short:         "Toggle a like on a post",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, _, err := rootOpts.client()
			if err != nil {
				return err
			}
			return client.LikePost(cmd.Context(), args[0])
		},
	}
	return cmd
}

func NewCommentCommand(rootOpts *RootOptions) *cobra.Command {
	var text string

	cmd := &cobra.Command{
		Use:           "comment <post-id>",
		Short:         "Comment on a post",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, _, err := rootOpts.client()
			if err != nil {
				return err
			}
			if len([]rune(text)) > protocol.CommentLimit {
				return fmt.Errorf("comment exceeds %d characters", protocol.CommentLimit)
			}
			c, err := client.CommentPost(cmd.Context(), args[0], text)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "commented %s\n", c.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&text, "text", "", "comment text")
	_ = cmd.MarkFlagRequired("text")
	return cmd
}

func NewShareCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "share <post-id>",
		Short:         "Share a post",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, _, err := rootOpts.client()
			if err != nil {
				return err
			}
			n, err := client.SharePost(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "shares: %d\n", n)
			return nil
		},
	}
	return cmd
}

// encodeImage reads a file into the data-URL form the backend stores
// verbatim, mirroring what the web clients upload.
func encodeImage(path string) (string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	if len(b) > 5*1024*1024 {
		return "", fmt.Errorf("image must be less than 5MB")
	}
	ct := mime.TypeByExtension(filepath.Ext(path))
	if ct == "" {
		ct = "application/octet-stream"
	}
	return "data:" + ct + ";base64," + base64.StdEncoding.EncodeToString(b), nil
}
